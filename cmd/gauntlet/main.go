// Package main provides the CLI entrypoint for gauntlet.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/gauntlet/internal/chart"
	"github.com/verte-zerg/gauntlet/internal/config"
	"github.com/verte-zerg/gauntlet/internal/logger"
	"github.com/verte-zerg/gauntlet/internal/model"
	"github.com/verte-zerg/gauntlet/internal/stats"
	"github.com/verte-zerg/gauntlet/internal/store"
	"github.com/verte-zerg/gauntlet/internal/tracker"
	"github.com/verte-zerg/gauntlet/internal/viewer"
)

const defaultDPI = 150

var (
	dataDirFlag  string
	userFlag     string
	windowFlag   int
	minTicksFlag int
	verboseFlag  bool

	plotOutput string
	plotDPI    int
	plotView   bool
	plotOpen   bool

	exportDB string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gauntlet",
		Short:         "Plot Corrupted Gauntlet performance over time",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          runPlotCmd,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if verboseFlag {
				logger.SetVerbose(cmd.OutOrStdout())
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "tracker data directory (default: auto-detect)")
	rootCmd.PersistentFlags().StringVar(&userFlag, "user", "", "username to load (default: prompt when ambiguous)")
	rootCmd.PersistentFlags().IntVar(&windowFlag, "window", stats.DefaultWindow, "moving average window")
	rootCmd.PersistentFlags().IntVar(&minTicksFlag, "min-ticks", model.MinTicks, "ignore runs shorter than this many ticks")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "log skipped files")

	rootCmd.Flags().StringVarP(&plotOutput, "output", "o", config.DefaultOutputName, "chart image path")
	rootCmd.Flags().IntVar(&plotDPI, "dpi", defaultDPI, "chart resolution")
	rootCmd.Flags().BoolVar(&plotView, "view", isInteractive(), "open the interactive viewer after saving")
	rootCmd.Flags().BoolVar(&plotOpen, "open", false, "open the saved chart in the system image viewer")

	rootCmd.AddCommand(newUsersCmd())
	rootCmd.AddCommand(newSummaryCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func runPlotCmd(cmd *cobra.Command, _ []string) error {
	cfg, user, runs, err := loadUserRuns(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		_, err := fmt.Fprintf(out, "No gauntlet data files found for %s!\n", user)
		return err
	}
	if _, err := fmt.Fprintf(out, "Found %d runs for %s\n", len(runs), user); err != nil {
		return err
	}

	if err := chart.RenderPNG(runs, cfg.Output, chart.Options{Window: cfg.Window, DPI: cfg.DPI}); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	if _, err := fmt.Fprintf(out, "\nChart saved to %s\n", cfg.Output); err != nil {
		return err
	}

	if cfg.Open {
		if err := chart.Open(cfg.Output); err != nil {
			logger.Warn("could not open chart", "err", err)
		}
	}
	if cfg.View {
		return viewer.Run(runs, user, cfg.Window)
	}
	return nil
}

func newUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List usernames with tracker data",
		Args:  cobra.NoArgs,
		RunE:  runUsersCmd,
	}
}

func runUsersCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	dataDir, err := locateDataDir(cfg)
	if err != nil {
		return err
	}
	users, err := tracker.ListUsers(dataDir)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		return fmt.Errorf("no user data found in %s", dataDir)
	}
	for _, user := range users {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), user); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print a per-metric summary table",
		Args:  cobra.NoArgs,
		RunE:  runSummaryCmd,
	}
}

func runSummaryCmd(cmd *cobra.Command, _ []string) error {
	cfg, user, runs, err := loadUserRuns(cmd)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "No gauntlet data files found for %s!\n", user)
		return err
	}
	return stats.RenderSummary(cmd.OutOrStdout(), runs, cfg.Window)
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export loaded runs to a SQLite database",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVar(&exportDB, "db", config.DefaultExportPath(), "SQLite database path")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	_, user, runs, err := loadUserRuns(cmd)
	if err != nil {
		return err
	}
	st, err := store.Open(exportDB)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logger.Error("failed to close db", "err", cerr)
		}
	}()

	ctx := cmd.Context()
	if err := st.ReplaceRuns(ctx, user, runs); err != nil {
		return fmt.Errorf("failed to export runs: %w", err)
	}
	count, err := st.CountRuns(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to count exported runs: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Exported %d runs for %s to %s\n", count, user, exportDB)
	return err
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := ensureConfigFile(path); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func ensureConfigFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}
	return nil
}

// loadSettings merges flags, the config file and the environment. Explicit
// flags win over the config file, which wins over the environment.
func loadSettings(cmd *cobra.Command) (model.PlotConfig, error) {
	if path, err := config.LoadEnv(config.EnvPaths()); err != nil {
		return model.PlotConfig{}, fmt.Errorf("failed to load %s: %w", path, err)
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return model.PlotConfig{}, fmt.Errorf("failed to load config: %w", err)
	}

	applyStringConfig(cmd, "data-dir", &dataDirFlag, fileCfg.Plot.DataDir)
	applyStringConfig(cmd, "user", &userFlag, fileCfg.Plot.User)
	applyIntConfig(cmd, "window", &windowFlag, fileCfg.Plot.Window)
	applyIntConfig(cmd, "min-ticks", &minTicksFlag, fileCfg.Plot.MinTicks)
	applyStringConfig(cmd, "output", &plotOutput, fileCfg.Plot.Output)
	applyIntConfig(cmd, "dpi", &plotDPI, fileCfg.Plot.DPI)
	applyBoolConfig(cmd, "view", &plotView, fileCfg.Plot.View)

	if dataDirFlag == "" {
		dataDirFlag = config.EnvString(config.EnvDataDir)
	}
	if userFlag == "" {
		userFlag = config.EnvString(config.EnvUser)
	}

	cfg := model.PlotConfig{
		DataDir:  dataDirFlag,
		User:     userFlag,
		Window:   windowFlag,
		MinTicks: minTicksFlag,
		Output:   plotOutput,
		DPI:      plotDPI,
		View:     plotView,
		Open:     plotOpen,
	}
	if err := validateConfig(cfg); err != nil {
		return model.PlotConfig{}, err
	}
	return cfg, nil
}

func loadUserRuns(cmd *cobra.Command) (model.PlotConfig, string, []model.Run, error) {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return cfg, "", nil, err
	}
	dataDir, err := locateDataDir(cfg)
	if err != nil {
		return cfg, "", nil, err
	}
	user, err := chooseUser(cmd, cfg, dataDir)
	if err != nil {
		return cfg, "", nil, err
	}
	runs, err := tracker.LoadRuns(dataDir, user, cfg.MinTicks)
	if err != nil {
		return cfg, user, nil, err
	}
	logger.Debug("loaded runs", "user", user, "runs", len(runs), "dir", dataDir)
	return cfg, user, runs, nil
}

func locateDataDir(cfg model.PlotConfig) (string, error) {
	candidates := []string{cfg.DataDir}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, tracker.DefaultCandidates(home)...)
	}
	dir, ok := tracker.Locate(candidates)
	if !ok {
		return "", dataDirNotFoundError(cfg.DataDir)
	}
	return dir, nil
}

func chooseUser(cmd *cobra.Command, cfg model.PlotConfig, dataDir string) (string, error) {
	users, err := tracker.ListUsers(dataDir)
	if err != nil {
		return "", err
	}
	if len(users) == 0 {
		return "", fmt.Errorf("no user data found in %s", dataDir)
	}
	if cfg.User != "" {
		return tracker.ResolveUser(users, cfg.User)
	}
	return tracker.SelectUser(cmd.InOrStdin(), cmd.OutOrStdout(), users)
}

func validateConfig(cfg model.PlotConfig) error {
	if cfg.Window < 1 {
		return fmt.Errorf("--window must be >= 1")
	}
	if cfg.MinTicks < 0 {
		return fmt.Errorf("--min-ticks must be >= 0")
	}
	if cfg.DPI <= 0 {
		return fmt.Errorf("--dpi must be > 0")
	}
	if strings.TrimSpace(cfg.Output) == "" {
		return fmt.Errorf("--output must not be empty")
	}
	return nil
}

func dataDirNotFoundError(explicit string) error {
	lines := []string{
		"Could not find RuneLite gauntlet tracker data directory.",
	}
	if explicit != "" {
		lines = append(lines, fmt.Sprintf("Configured directory does not exist: %s", explicit))
	}
	lines = append(lines,
		"Expected locations:",
		"  Linux/Mac: ~/.runelite/gauntletPerformanceTracker/data/",
		"  Windows: %LOCALAPPDATA%/RuneLite/gauntletPerformanceTracker/data/",
		fmt.Sprintf("Override with --data-dir or %s.", config.EnvDataDir),
	)
	return errors.New(strings.Join(lines, "\n"))
}

func isInteractive() bool {
	return term.IsTerminal(int(os.Stdout.Fd())) && term.IsTerminal(int(os.Stdin.Fd()))
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil || cmd.Flags().Lookup(name) == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil || cmd.Flags().Lookup(name) == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil || cmd.Flags().Lookup(name) == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# gauntlet configuration
# Uncomment a value to enable it. CLI flags override config values.

[plot]
# data-dir = ""           # Tracker data directory (default: auto-detect)
# user = ""               # Username to load (default: prompt when ambiguous)
# window = %d              # Moving average window
# min-ticks = %d         # Ignore runs shorter than this many ticks
# output = %q  # Chart image path
# dpi = %d               # Chart resolution
# view = true             # Open the interactive viewer after saving
`,
		stats.DefaultWindow,
		model.MinTicks,
		config.DefaultOutputName,
		defaultDPI,
	)
}
