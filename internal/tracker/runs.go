package tracker

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/gauntlet/internal/logger"
	"github.com/verte-zerg/gauntlet/internal/model"
)

const (
	filePrefix  = "gauntletTracker-"
	fileSuffix  = ".json"
	stampLayout = "2006-01-02-15-04"
)

var stampPattern = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})-(\d{2})-(\d{2})\.json$`)

// runFile mirrors the tracker's JSON output. Unknown keys are ignored.
type runFile struct {
	TotalTicks           float64  `json:"totalTicks"`
	DPSGiven             float64  `json:"dpsGiven"`
	DPSTaken             float64  `json:"dpsTaken"`
	UsedTicks            *percent `json:"usedTicks"`
	WrongOffensivePrayer float64  `json:"wrongOffensivePrayer"`
	WrongDefensivePrayer float64  `json:"wrongDefensivePrayer"`
	WrongAttackStyle     float64  `json:"wrongAttackStyle"`
	TornadoHits          float64  `json:"tornadoHits"`
}

// percent accepts "87.5%" as written by the tracker, or a bare number.
type percent float64

func (p *percent) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := ParsePercent(s)
		if err != nil {
			return err
		}
		*p = percent(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = percent(v)
	return nil
}

// ParsePercent converts a value such as "87.5%" to 87.5.
func ParsePercent(s string) (float64, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(s), "%")
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid percentage %q", s)
	}
	return v, nil
}

// ParseFileDate extracts the minute-precision timestamp from a tracker file
// name such as gauntletTracker-alice-2025-11-26-19-42.json.
func ParseFileDate(name string) (time.Time, bool) {
	match := stampPattern.FindStringSubmatch(name)
	if match == nil {
		return time.Time{}, false
	}
	stamp := strings.Join(match[1:], "-")
	parsed, err := time.ParseInLocation(stampLayout, stamp, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

// LoadRuns reads every tracker file for username, drops runs shorter than
// minTicks, and returns the rest sorted by date. Unreadable or malformed files
// are logged and skipped.
func LoadRuns(dataDir, username string, minTicks int) ([]model.Run, error) {
	userDir := filepath.Join(dataDir, username)
	entries, err := os.ReadDir(userDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read user directory: %w", err)
	}
	prefix := filePrefix + username + "-"

	var runs []model.Run
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		date, ok := ParseFileDate(name)
		if !ok {
			logger.Debug("skipping file without timestamp", "file", name)
			continue
		}
		path := filepath.Join(userDir, name)
		run, err := readRun(path)
		if err != nil {
			logger.Error("error reading run file", "path", path, "err", err)
			continue
		}
		if run.TotalTicks < float64(minTicks) {
			logger.Debug("skipping short run", "file", name, "ticks", run.TotalTicks)
			continue
		}
		run.Date = date
		runs = append(runs, run)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Date.Before(runs[j].Date)
	})
	return runs, nil
}

func readRun(path string) (model.Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Run{}, err
	}
	var raw runFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return model.Run{}, err
	}
	var usedTicks float64
	if raw.UsedTicks != nil {
		usedTicks = float64(*raw.UsedTicks)
	}
	return model.Run{
		DPSGiven:         raw.DPSGiven,
		DPSTaken:         raw.DPSTaken,
		UsedTicks:        usedTicks,
		WrongOffPrayer:   raw.WrongOffensivePrayer,
		WrongDefPrayer:   raw.WrongDefensivePrayer,
		WrongAttackStyle: raw.WrongAttackStyle,
		TornadoHits:      raw.TornadoHits,
		TotalTicks:       raw.TotalTicks,
		Path:             path,
	}, nil
}
