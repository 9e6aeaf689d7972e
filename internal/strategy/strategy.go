// Package strategy holds the boolean screening evaluators. Every
// evaluator answers "does this asset qualify today" from one panel plus,
// for the fundamental ones, a quarterly snapshot source. Short history or
// missing data is a quiet no-match, never an error.
package strategy

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/xzemt/omnialpha/internal/contracts"
)

// Strategy is one boolean screen over a single asset.
type Strategy interface {
	Key() string
	Name() string
	Description() string
	// MinBars is the shortest panel the strategy can judge; shorter
	// panels are a no-match.
	MinBars() int
	Check(ctx context.Context, code string, panel *contracts.Panel) (bool, map[string]interface{}, error)
}

// ReportPeriodPolicy maps a scan date to the most recent quarterly report
// that is reliably published by that date.
type ReportPeriodPolicy func(t time.Time) (year, quarter int)

// DefaultReportPeriod is the conservative publication calendar: annual
// and Q3 reports trail by months, so early in the year we still read the
// prior year's Q3.
// ⭐ SSOT: 报告期推断规则只在这里定义
func DefaultReportPeriod(t time.Time) (int, int) {
	switch m := int(t.Month()); {
	case m <= 4:
		return t.Year() - 1, 3
	case m <= 8:
		return t.Year(), 1
	case m <= 10:
		return t.Year(), 2
	default:
		return t.Year(), 3
	}
}

// Registry builds the full evaluator set. Fundamental strategies read
// quarterly snapshots through fs; technical ones only need the panel.
func Registry(fs contracts.FundamentalSource) map[string]Strategy {
	policy := DefaultReportPeriod
	return map[string]Strategy{
		"ma":     &MATrend{},
		"vol":    &VolumeBreakout{},
		"turn":   &HighTurnover{},
		"pe":     &LowPE{},
		"growth": &HighGrowth{Source: fs, Period: policy},
		"roe":    &HighROE{Source: fs, Period: policy},
		"debt":   &LowDebt{Source: fs, Period: policy},
	}
}

// Select resolves strategy keys to evaluators, preserving request order
// and skipping unknown keys.
func Select(registry map[string]Strategy, keys []string) []Strategy {
	out := make([]Strategy, 0, len(keys))
	for _, k := range keys {
		if s, ok := registry[k]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Keys returns the registered strategy keys in ascending order.
func Keys(registry map[string]Strategy) []string {
	keys := make([]string, 0, len(registry))
	for k := range registry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func noMatch() (bool, map[string]interface{}, error) {
	return false, map[string]interface{}{}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
