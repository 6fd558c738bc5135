package stats

import "github.com/verte-zerg/gauntlet/internal/model"

// Metric describes one plotted per-run measurement.
type Metric struct {
	Key    string
	Name   string
	Title  string
	YLabel string
	Color  string
	// Invert marks metrics where lower is better; charts flip their y axis.
	Invert bool
	Value  func(model.Run) float64
}

// Metrics lists the panels in grid order, left to right then top to bottom.
var Metrics = []Metric{
	{Key: "dps-given", Name: "DPS Given", Title: "DPS Given", YLabel: "DPS", Color: "green",
		Value: func(r model.Run) float64 { return r.DPSGiven }},
	{Key: "dps-taken", Name: "DPS Taken", Title: "DPS Taken (lower = better)", YLabel: "DPS", Color: "red", Invert: true,
		Value: func(r model.Run) float64 { return r.DPSTaken }},
	{Key: "used-ticks", Name: "Tick Efficiency", Title: "Tick Efficiency", YLabel: "% Ticks Used", Color: "blue",
		Value: func(r model.Run) float64 { return r.UsedTicks }},
	{Key: "wrong-off-prayer", Name: "Wrong Off. Prayer", Title: "Wrong Offensive Prayers (lower = better)", YLabel: "Count", Color: "orange", Invert: true,
		Value: func(r model.Run) float64 { return r.WrongOffPrayer }},
	{Key: "wrong-def-prayer", Name: "Wrong Def. Prayer", Title: "Wrong Defensive Prayers (lower = better)", YLabel: "Count", Color: "purple", Invert: true,
		Value: func(r model.Run) float64 { return r.WrongDefPrayer }},
	{Key: "wrong-attack-style", Name: "Wrong Style", Title: "Wrong Attack Style (lower = better)", YLabel: "Count", Color: "brown", Invert: true,
		Value: func(r model.Run) float64 { return r.WrongAttackStyle }},
	{Key: "tornado-hits", Name: "Tornado Hits", Title: "Tornado Hits (lower = better)", YLabel: "Count", Color: "cyan", Invert: true,
		Value: func(r model.Run) float64 { return r.TornadoHits }},
	{Key: "total-ticks", Name: "Duration", Title: "Fight Duration (lower = faster)", YLabel: "Ticks", Color: "magenta", Invert: true,
		Value: func(r model.Run) float64 { return r.TotalTicks }},
}

// Values extracts the metric for every run, preserving order.
func (m Metric) Values(runs []model.Run) []float64 {
	out := make([]float64, len(runs))
	for i, r := range runs {
		out[i] = m.Value(r)
	}
	return out
}

// RunNumbers returns the 1-based run indices used as the x axis.
func RunNumbers(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i + 1)
	}
	return out
}
