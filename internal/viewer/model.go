// Package viewer provides the Bubble Tea run history viewer.
package viewer

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/verte-zerg/gauntlet/internal/model"
	"github.com/verte-zerg/gauntlet/internal/stats"
)

const (
	tabOverview = 0
	plotHeight  = 12
	minPlotW    = 20
	defaultW    = 80
	axisReserve = 12
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	rawStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF"))
	avgStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

// Model implements the Bubble Tea run viewer.
type Model struct {
	runs   []model.Run
	user   string
	window int

	tabs      []string
	activeTab int
	viewports []viewport.Model

	width  int
	height int
}

// NewModel constructs a viewer for runs, which must already be sorted by date.
func NewModel(runs []model.Run, user string, window int) *Model {
	if window <= 0 {
		window = stats.DefaultWindow
	}
	tabs := make([]string, 0, len(stats.Metrics)+1)
	tabs = append(tabs, "Overview")
	for _, m := range stats.Metrics {
		tabs = append(tabs, m.Name)
	}
	m := &Model{
		runs:   runs,
		user:   user,
		window: window,
		tabs:   tabs,
	}
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.renderTabContents()
	return m
}

// Run opens the viewer full screen and blocks until the user quits.
func Run(runs []model.Run, user string, window int) error {
	program := tea.NewProgram(NewModel(runs, user, window), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run viewer: %w", err)
	}
	return nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		switch msg.String() {
		case "left", "h", "shift+tab":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l", "tab":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "=", "+":
			m.window++
			m.renderTabContents()
			return m, nil
		case "-":
			if m.window > 1 {
				m.window--
				m.renderTabContents()
			}
			return m, nil
		case "g", "home":
			m.viewports[m.activeTab].GotoTop()
			return m, nil
		case "G", "end":
			m.viewports[m.activeTab].GotoBottom()
			return m, nil
		}
		vp, cmd := m.viewports[m.activeTab].Update(msg)
		m.viewports[m.activeTab] = vp
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.viewports[m.activeTab].View(), m.width, bodyHeight)
	footer := fitLines(headerStyle.Render(helpText), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

const helpText = "Nav: left/right  Scroll: up/down/pgup/pgdn  Window: -/=  Quit: q"

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := max(1, lipgloss.Height(activeNavStyle.Render("X")))
	headerHeight = tabsHeight + 1
	footerHeight = 1
	bodyHeight = max(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, vpHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = vpHeight
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	if count == 0 {
		return
	}
	m.activeTab = (m.activeTab + delta + count) % count
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	summary := fmt.Sprintf("User: %s  runs=%d  window=%d", m.user, len(m.runs), m.window)
	return m.renderTabs() + "\n" + headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderTabContents() {
	width := m.width
	if width <= 0 {
		width = defaultW
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.runs, m.window, width))
	for i, metric := range stats.Metrics {
		m.viewports[i+1].SetContent(renderMetric(metric, m.runs, m.window, width))
	}
}

func renderOverview(runs []model.Run, window, width int) string {
	if len(runs) == 0 {
		return "No runs found."
	}
	dps := stats.Metrics[0].Values(runs)
	duration := stats.Metrics[len(stats.Metrics)-1]
	cards := []string{
		metricCard("Runs", fmt.Sprintf("%d", len(runs))),
		metricCard("First", runs[0].Date.Format("2006-01-02")),
		metricCard("Latest", runs[len(runs)-1].Date.Format("2006-01-02")),
		metricCard("Best DPS", fmt.Sprintf("%.2f", stats.Best(dps, false))),
		metricCard("Fastest", fmt.Sprintf("%.0f ticks", stats.Best(duration.Values(runs), true))),
	}
	var row string
	if width < 80 {
		row = strings.Join(cards, "\n")
	} else {
		row = lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	}

	var buf bytes.Buffer
	if err := stats.RenderSummary(&buf, runs, window); err != nil {
		return fmt.Sprintf("Failed to render summary: %v", err)
	}
	return strings.TrimRight(row+"\n\n"+buf.String(), "\n")
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderMetric(metric stats.Metric, runs []model.Run, window, width int) string {
	if len(runs) == 0 {
		return "No runs found."
	}
	values := metric.Values(runs)
	plotWidth := max(minPlotW, width-axisReserve)
	opts := []asciigraph.Option{
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Precision(2),
		asciigraph.Caption(metric.Title),
	}

	legend := rawStyle.Render("── per run")
	var graph string
	if len(runs) >= window {
		avg := stats.MovingAverage(values, window)
		opts = append(opts, asciigraph.SeriesColors(asciigraph.Blue, asciigraph.Red))
		graph = asciigraph.PlotMany([][]float64{values, avg}, opts...)
		legend += "  " + avgStyle.Render(fmt.Sprintf("── %d-run avg", window))
	} else {
		opts = append(opts, asciigraph.SeriesColors(asciigraph.Blue))
		graph = asciigraph.Plot(values, opts...)
	}

	lines := []string{
		fmt.Sprintf("%s (%s)", metric.Title, metric.YLabel),
		legend,
	}
	if metric.Invert {
		lines = append(lines, headerStyle.Render("Lower values are better."))
	}
	lines = append(lines, "", graph, "",
		fmt.Sprintf("Latest %.2f  Mean %.2f  Best %.2f",
			values[len(values)-1], stats.Mean(values), stats.Best(values, metric.Invert)))
	return strings.Join(lines, "\n")
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for i, line := range lines {
		if w := lipgloss.Width(line); w < width {
			lines[i] = line + strings.Repeat(" ", width-w)
		}
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
