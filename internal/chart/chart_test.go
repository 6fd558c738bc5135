package chart

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gonum.org/v1/plot"

	"github.com/verte-zerg/gauntlet/internal/model"
	"github.com/verte-zerg/gauntlet/internal/stats"
)

func sampleRuns(n int) []model.Run {
	base := time.Date(2025, 11, 26, 19, 0, 0, 0, time.UTC)
	runs := make([]model.Run, n)
	for i := range runs {
		runs[i] = model.Run{
			Date:             base.Add(time.Duration(i) * time.Hour),
			DPSGiven:         3 + float64(i)*0.1,
			DPSTaken:         1 - float64(i)*0.05,
			UsedTicks:        70 + float64(i),
			WrongOffPrayer:   float64(i % 3),
			WrongDefPrayer:   float64(i % 2),
			WrongAttackStyle: 1,
			TornadoHits:      float64(n - i),
			TotalTicks:       1500 - float64(i)*20,
		}
	}
	return runs
}

func TestRenderPNGWritesImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "gauntlet_performance.png")
	if err := RenderPNG(sampleRuns(7), path, Options{DPI: 40}); err != nil {
		t.Fatalf("render: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read chart: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")) {
		t.Fatalf("expected PNG header")
	}
	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), "chart-*.png"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(leftovers) != 0 {
		t.Fatalf("expected temp files to be removed, got %v", leftovers)
	}
}

func TestRenderPNGFewRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "few.png")
	if err := RenderPNG(sampleRuns(1), path, Options{DPI: 40}); err != nil {
		t.Fatalf("render: %v", err)
	}
}

func TestRenderPNGNoRuns(t *testing.T) {
	err := RenderPNG(nil, filepath.Join(t.TempDir(), "none.png"), Options{})
	if !errors.Is(err, ErrNoRuns) {
		t.Fatalf("expected ErrNoRuns, got %v", err)
	}
}

func TestBuildPanelDataAverageNeedsWindow(t *testing.T) {
	m := stats.Metrics[0]
	short := buildPanelData(m, sampleRuns(4), stats.DefaultWindow)
	if short.Average != nil {
		t.Fatalf("expected no average below the window")
	}
	if len(short.Runs) != 4 || short.Runs[0] != 1 || short.Runs[3] != 4 {
		t.Fatalf("unexpected run numbers %v", short.Runs)
	}

	full := buildPanelData(m, sampleRuns(5), stats.DefaultWindow)
	if len(full.Average) != 5 {
		t.Fatalf("expected average of 5 points, got %d", len(full.Average))
	}
}

func TestNewPanelInvertsLowerIsBetter(t *testing.T) {
	runs := sampleRuns(6)
	for _, m := range stats.Metrics {
		p, err := newPanel(m, buildPanelData(m, runs, stats.DefaultWindow), stats.DefaultWindow)
		if err != nil {
			t.Fatalf("panel %s: %v", m.Key, err)
		}
		_, inverted := p.Y.Scale.(plot.InvertedScale)
		if inverted != m.Invert {
			t.Fatalf("panel %s: inverted=%v, want %v", m.Key, inverted, m.Invert)
		}
		if p.Title.Text != m.Title {
			t.Fatalf("panel %s: unexpected title %q", m.Key, p.Title.Text)
		}
	}
}

func TestNewPanelUnknownColor(t *testing.T) {
	m := stats.Metrics[0]
	m.Color = "chartreuse"
	if _, err := newPanel(m, buildPanelData(m, sampleRuns(2), 5), 5); err == nil {
		t.Fatalf("expected error for unknown color")
	}
}

func TestOpenCommand(t *testing.T) {
	tests := []struct {
		goos string
		name string
	}{
		{goos: "linux", name: "xdg-open"},
		{goos: "darwin", name: "open"},
		{goos: "windows", name: "cmd"},
	}
	for _, tt := range tests {
		name, args := openCommand(tt.goos, "chart.png")
		if name != tt.name {
			t.Fatalf("%s: expected %s, got %s", tt.goos, tt.name, name)
		}
		if args[len(args)-1] != "chart.png" {
			t.Fatalf("%s: expected path as last arg, got %v", tt.goos, args)
		}
	}
}
