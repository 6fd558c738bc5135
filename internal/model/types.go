// Package model defines shared data structures.
package model

import "time"

// MinTicks is the shortest session, in ticks, that counts as a real run.
const MinTicks = 100

// Run captures one completed gauntlet session loaded from a tracker file.
type Run struct {
	Date             time.Time
	DPSGiven         float64
	DPSTaken         float64
	UsedTicks        float64
	WrongOffPrayer   float64
	WrongDefPrayer   float64
	WrongAttackStyle float64
	TornadoHits      float64
	TotalTicks       float64
	Path             string
}

// PlotConfig defines options for locating, loading, and plotting runs.
type PlotConfig struct {
	DataDir  string
	User     string
	Window   int
	MinTicks int
	Output   string
	DPI      int
	View     bool
	Open     bool
}
