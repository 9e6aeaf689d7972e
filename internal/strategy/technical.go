package strategy

import (
	"context"

	"github.com/xzemt/omnialpha/internal/alpha/ops"
	"github.com/xzemt/omnialpha/internal/contracts"
)

// MATrend matches when the last close sits above its 20-day average and
// the 5-day average confirms the trend.
type MATrend struct{}

func (s *MATrend) Key() string         { return "ma" }
func (s *MATrend) Name() string        { return "均线多头" }
func (s *MATrend) Description() string { return "close > MA20 and MA5 > MA20" }
func (s *MATrend) MinBars() int        { return 20 }

func (s *MATrend) Check(ctx context.Context, code string, panel *contracts.Panel) (bool, map[string]interface{}, error) {
	if panel.Len() < s.MinBars() {
		return noMatch()
	}
	closes := panel.Closes()
	last := closes[len(closes)-1]
	ma5 := lastOf(ops.Mean(closes, 5))
	ma20 := lastOf(ops.Mean(closes, 20))
	if !finite(last) || !finite(ma5) || !finite(ma20) {
		return noMatch()
	}

	ok := last > ma20 && ma5 > ma20
	if !ok {
		return noMatch()
	}
	return true, map[string]interface{}{
		"close": last,
		"ma5":   ma5,
		"ma20":  ma20,
	}, nil
}

// VolumeBreakout matches a >2% up day on volume at least 1.5x its own
// 5-day rolling average.
type VolumeBreakout struct{}

func (s *VolumeBreakout) Key() string         { return "vol" }
func (s *VolumeBreakout) Name() string        { return "放量上涨" }
func (s *VolumeBreakout) Description() string { return "pctChg > 2% and volume > 1.5x MA(volume,5)" }
func (s *VolumeBreakout) MinBars() int        { return 6 }

func (s *VolumeBreakout) Check(ctx context.Context, code string, panel *contracts.Panel) (bool, map[string]interface{}, error) {
	if panel.Len() < s.MinBars() {
		return noMatch()
	}
	last := panel.Last()
	vols := panel.Volumes()
	// rolling mean is inclusive of the breakout day
	base := lastOf(ops.Mean(vols, 5))
	if !finite(base) || base <= 0 {
		return noMatch()
	}

	ratio := last.Volume / base
	if last.PctChg > 2.0 && ratio > 1.5 {
		return true, map[string]interface{}{
			"pct_chg":   last.PctChg,
			"volume":    last.Volume,
			"vol_ratio": ratio,
			"vol_ma5":   base,
		}, nil
	}
	return noMatch()
}

// HighTurnover matches actively traded non-ST names.
type HighTurnover struct{}

func (s *HighTurnover) Key() string         { return "turn" }
func (s *HighTurnover) Name() string        { return "高换手" }
func (s *HighTurnover) Description() string { return "turnover > 5% and not ST" }
func (s *HighTurnover) MinBars() int        { return 1 }

func (s *HighTurnover) Check(ctx context.Context, code string, panel *contracts.Panel) (bool, map[string]interface{}, error) {
	if panel.Len() < s.MinBars() {
		return noMatch()
	}
	last := panel.Last()
	if last.IsST || !finite(last.Turnover) {
		return noMatch()
	}
	if last.Turnover > 5.0 {
		return true, map[string]interface{}{"turnover": last.Turnover}, nil
	}
	return noMatch()
}

// LowPE matches a positive trailing P/E under 30.
type LowPE struct{}

func (s *LowPE) Key() string         { return "pe" }
func (s *LowPE) Name() string        { return "低估值" }
func (s *LowPE) Description() string { return "0 < peTTM < 30" }
func (s *LowPE) MinBars() int        { return 1 }

func (s *LowPE) Check(ctx context.Context, code string, panel *contracts.Panel) (bool, map[string]interface{}, error) {
	if panel.Len() < s.MinBars() {
		return noMatch()
	}
	pe := panel.Last().PeTTM
	if !finite(pe) {
		return noMatch()
	}
	if pe > 0 && pe < 30 {
		return true, map[string]interface{}{"pe_ttm": pe}, nil
	}
	return noMatch()
}

func lastOf(s []float64) float64 {
	return s[len(s)-1]
}
