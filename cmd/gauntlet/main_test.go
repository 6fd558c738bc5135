package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/verte-zerg/gauntlet/internal/config"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	t.Setenv("HOME", root)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(root, "data"))
	t.Setenv(config.EnvDataDir, "")
	t.Setenv(config.EnvUser, "")
	return root
}

func writeSession(t *testing.T, dataDir, user, stamp string, ticks int) {
	t.Helper()
	userDir := filepath.Join(dataDir, user)
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	name := fmt.Sprintf("gauntletTracker-%s-%s.json", user, stamp)
	body := fmt.Sprintf(`{"totalTicks": %d, "dpsGiven": 3.5, "dpsTaken": 0.9, "usedTicks": "81.2%%", "tornadoHits": 1}`, ticks)
	if err := os.WriteFile(filepath.Join(userDir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write session: %v", err)
	}
}

func executeCmd(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(input))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPlotSingleUser(t *testing.T) {
	root := isolateEnv(t)
	dataDir := filepath.Join(root, "tracker")
	writeSession(t, dataDir, "alice", "2025-11-26-19-42", 150)
	writeSession(t, dataDir, "alice", "2025-11-26-20-10", 50)
	writeSession(t, dataDir, "alice", "2025-11-27-09-00", 300)
	output := filepath.Join(root, "chart.png")

	out, err := executeCmd(t, "", "--data-dir", dataDir, "--view=false", "--dpi", "30", "--output", output)
	if err != nil {
		t.Fatalf("plot failed: %v\n%s", err, out)
	}
	for _, needle := range []string{"Found user: alice", "Found 2 runs for alice", "Chart saved to " + output} {
		if !strings.Contains(out, needle) {
			t.Fatalf("output missing %q:\n%s", needle, out)
		}
	}
	if strings.Contains(out, "Select user") {
		t.Fatalf("expected no prompt for a single user:\n%s", out)
	}
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("expected chart file: %v", err)
	}
}

func TestPlotNoRunsSucceeds(t *testing.T) {
	root := isolateEnv(t)
	dataDir := filepath.Join(root, "tracker")
	writeSession(t, dataDir, "alice", "2025-11-26-19-42", 20)
	output := filepath.Join(root, "chart.png")

	out, err := executeCmd(t, "", "--data-dir", dataDir, "--view=false", "--output", output)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if !strings.Contains(out, "No gauntlet data files found for alice!") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if _, err := os.Stat(output); !os.IsNotExist(err) {
		t.Fatalf("expected no chart to be written")
	}
}

func TestNoUserDirectories(t *testing.T) {
	root := isolateEnv(t)
	dataDir := filepath.Join(root, "tracker")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	out, err := executeCmd(t, "1\n", "--data-dir", dataDir, "--view=false")
	if err == nil {
		t.Fatalf("expected failure for empty data dir")
	}
	if !strings.Contains(err.Error(), "no user data found") {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(out, "Select user") {
		t.Fatalf("expected no prompt:\n%s", out)
	}
}

func TestMissingDataDirectory(t *testing.T) {
	root := isolateEnv(t)
	_, err := executeCmd(t, "", "--data-dir", filepath.Join(root, "nope"), "--view=false")
	if err == nil {
		t.Fatalf("expected failure when no data directory exists")
	}
	if !strings.Contains(err.Error(), "Could not find RuneLite gauntlet tracker data directory.") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDefaultCandidateUnderHome(t *testing.T) {
	root := isolateEnv(t)
	dataDir := filepath.Join(root, ".runelite", "gauntletPerformanceTracker", "data")
	writeSession(t, dataDir, "alice", "2025-11-26-19-42", 150)

	out, err := executeCmd(t, "", "users")
	if err != nil {
		t.Fatalf("users failed: %v", err)
	}
	if strings.TrimSpace(out) != "alice" {
		t.Fatalf("unexpected users output %q", out)
	}
}

func TestSummaryPromptsForUser(t *testing.T) {
	root := isolateEnv(t)
	dataDir := filepath.Join(root, "tracker")
	writeSession(t, dataDir, "alice", "2025-11-26-19-42", 150)
	writeSession(t, dataDir, "bob", "2025-11-26-19-42", 400)
	writeSession(t, dataDir, "bob", "2025-11-27-19-42", 350)

	out, err := executeCmd(t, "x\n2\n", "summary", "--data-dir", dataDir)
	if err != nil {
		t.Fatalf("summary failed: %v\n%s", err, out)
	}
	for _, needle := range []string{"  1. alice", "  2. bob", "Invalid choice, try again.", "Runs: 2", "Avg(5)"} {
		if !strings.Contains(out, needle) {
			t.Fatalf("output missing %q:\n%s", needle, out)
		}
	}
}

func TestConfigFileAndFlagPrecedence(t *testing.T) {
	root := isolateEnv(t)
	dataDir := filepath.Join(root, "tracker")
	writeSession(t, dataDir, "alice", "2025-11-26-19-42", 150)
	writeSession(t, dataDir, "bob", "2025-11-26-19-42", 400)

	cfgPath := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	content := fmt.Sprintf("[plot]\ndata-dir = %q\nuser = \"bob\"\nwindow = 3\n", dataDir)
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	out, err := executeCmd(t, "", "summary")
	if err != nil {
		t.Fatalf("summary failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Avg(3)") || strings.Contains(out, "Select user") {
		t.Fatalf("expected config values to apply:\n%s", out)
	}

	out, err = executeCmd(t, "", "summary", "--window", "4", "--user", "alice")
	if err != nil {
		t.Fatalf("summary failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Avg(4)") || !strings.Contains(out, "Runs: 1") {
		t.Fatalf("expected flags to override config:\n%s", out)
	}
}

func TestEnvironmentDataDir(t *testing.T) {
	root := isolateEnv(t)
	dataDir := filepath.Join(root, "tracker")
	writeSession(t, dataDir, "carol", "2025-11-26-19-42", 150)
	t.Setenv(config.EnvDataDir, dataDir)

	out, err := executeCmd(t, "", "users")
	if err != nil {
		t.Fatalf("users failed: %v", err)
	}
	if strings.TrimSpace(out) != "carol" {
		t.Fatalf("unexpected users output %q", out)
	}
}

func TestUnknownUserFlag(t *testing.T) {
	root := isolateEnv(t)
	dataDir := filepath.Join(root, "tracker")
	writeSession(t, dataDir, "alice", "2025-11-26-19-42", 150)
	if _, err := executeCmd(t, "", "summary", "--data-dir", dataDir, "--user", "mallory"); err == nil {
		t.Fatalf("expected error for unknown user")
	}
}

func TestExport(t *testing.T) {
	root := isolateEnv(t)
	dataDir := filepath.Join(root, "tracker")
	writeSession(t, dataDir, "alice", "2025-11-26-19-42", 150)
	writeSession(t, dataDir, "alice", "2025-11-27-19-42", 250)
	dbPath := filepath.Join(root, "export", "runs.db")

	out, err := executeCmd(t, "", "export", "--data-dir", dataDir, "--db", dbPath)
	if err != nil {
		t.Fatalf("export failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Exported 2 runs for alice to "+dbPath) {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestInvalidWindow(t *testing.T) {
	root := isolateEnv(t)
	dataDir := filepath.Join(root, "tracker")
	writeSession(t, dataDir, "alice", "2025-11-26-19-42", 150)
	_, err := executeCmd(t, "", "summary", "--data-dir", dataDir, "--window", "0")
	if err == nil || !strings.Contains(err.Error(), "--window") {
		t.Fatalf("expected window validation error, got %v", err)
	}
}

func TestDefaultConfigTemplateParses(t *testing.T) {
	isolateEnv(t)
	path := config.DefaultConfigPath()
	if err := ensureConfigFile(path); err != nil {
		t.Fatalf("ensure config: %v", err)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("template does not parse: %v", err)
	}
	if cfg.Plot.Window != nil || cfg.Plot.User != nil {
		t.Fatalf("expected all template values commented out, got %+v", cfg)
	}
}
