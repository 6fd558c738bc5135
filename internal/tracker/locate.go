// Package tracker reads the gauntlet tracker add-on's data directory.
package tracker

import (
	"os"
	"path/filepath"
)

// DefaultCandidates lists the known add-on data directories under home, in
// lookup order.
func DefaultCandidates(home string) []string {
	return []string{
		filepath.Join(home, ".runelite", "gauntletPerformanceTracker", "data"),
		filepath.Join(home, "AppData", "Local", "RuneLite", "gauntletPerformanceTracker", "data"),
	}
}

// Locate returns the first candidate that is an existing directory.
func Locate(candidates []string) (string, bool) {
	for _, path := range candidates {
		if path == "" {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			continue
		}
		return path, true
	}
	return "", false
}
