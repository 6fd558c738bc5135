package stats

import (
	"fmt"
	"io"
	"strconv"

	"github.com/verte-zerg/gauntlet/internal/model"
)

// RenderSummary prints a per-metric table for the runs: first, last, mean and
// best values, the latest moving average, and a sparkline of the trend.
func RenderSummary(w io.Writer, runs []model.Run, window int) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs found.")
		return err
	}
	first := runs[0].Date.Format("2006-01-02 15:04")
	last := runs[len(runs)-1].Date.Format("2006-01-02 15:04")
	if _, err := fmt.Fprintf(w, "Runs: %d (%s to %s)\n\n", len(runs), first, last); err != nil {
		return err
	}

	avgHeader := "Avg(" + strconv.Itoa(window) + ")"
	headers := []string{"Metric", "First", "Last", "Mean", "Best", avgHeader, "Trend"}
	rows := make([][]string, 0, len(Metrics))
	for _, m := range Metrics {
		values := m.Values(runs)
		avg := MovingAverage(values, window)
		rows = append(rows, []string{
			m.Name,
			formatValue(values[0]),
			formatValue(values[len(values)-1]),
			formatValue(Mean(values)),
			formatValue(Best(values, m.Invert)),
			formatValue(avg[len(avg)-1]),
			Sparkline(avg),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
