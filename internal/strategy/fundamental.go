package strategy

import (
	"context"
	"fmt"

	"github.com/xzemt/omnialpha/internal/contracts"
)

// pct normalizes a ratio whose upstream unit is ambiguous: sources report
// either a fraction (0.18) or a percentage (18.0). Anything inside (-1,1)
// is read as a fraction.
func pct(v float64) float64 {
	if v > -1.0 && v < 1.0 {
		return v * 100
	}
	return v
}

// HighGrowth matches year-over-year net income growth above 20%.
type HighGrowth struct {
	Source contracts.FundamentalSource
	Period ReportPeriodPolicy
}

func (s *HighGrowth) Key() string         { return "growth" }
func (s *HighGrowth) Name() string        { return "高成长" }
func (s *HighGrowth) Description() string { return "YOY net income growth > 20%" }
func (s *HighGrowth) MinBars() int        { return 1 }

func (s *HighGrowth) Check(ctx context.Context, code string, panel *contracts.Panel) (bool, map[string]interface{}, error) {
	snap, err := s.snapshot(ctx, contracts.QuarterlyGrowth, code, panel)
	if err != nil {
		return false, nil, err
	}
	if snap == nil {
		return noMatch()
	}
	yoyni := pct(snap.YOYNI)
	if !finite(yoyni) || yoyni <= 20 {
		return noMatch()
	}
	return true, map[string]interface{}{
		"yoy_ni":        yoyni,
		"report_period": reportLabel(snap),
	}, nil
}

// HighROE matches average return on equity above 15%.
type HighROE struct {
	Source contracts.FundamentalSource
	Period ReportPeriodPolicy
}

func (s *HighROE) Key() string         { return "roe" }
func (s *HighROE) Name() string        { return "高ROE" }
func (s *HighROE) Description() string { return "average ROE > 15%" }
func (s *HighROE) MinBars() int        { return 1 }

func (s *HighROE) Check(ctx context.Context, code string, panel *contracts.Panel) (bool, map[string]interface{}, error) {
	snap, err := s.snapshot(ctx, contracts.QuarterlyProfit, code, panel)
	if err != nil {
		return false, nil, err
	}
	if snap == nil {
		return noMatch()
	}
	roe := pct(snap.ROEAvg)
	if !finite(roe) || roe <= 15 {
		return noMatch()
	}
	return true, map[string]interface{}{
		"roe":           roe,
		"report_period": reportLabel(snap),
	}, nil
}

// LowDebt matches a liability-to-asset ratio under 50%.
type LowDebt struct {
	Source contracts.FundamentalSource
	Period ReportPeriodPolicy
}

func (s *LowDebt) Key() string         { return "debt" }
func (s *LowDebt) Name() string        { return "低负债" }
func (s *LowDebt) Description() string { return "liability/asset < 50%" }
func (s *LowDebt) MinBars() int        { return 1 }

func (s *LowDebt) Check(ctx context.Context, code string, panel *contracts.Panel) (bool, map[string]interface{}, error) {
	snap, err := s.snapshot(ctx, contracts.QuarterlyBalance, code, panel)
	if err != nil {
		return false, nil, err
	}
	if snap == nil {
		return noMatch()
	}
	ratio := pct(snap.LiabilityToAsset)
	if !finite(ratio) || ratio >= 50 {
		return noMatch()
	}
	return true, map[string]interface{}{
		"liability_to_asset": ratio,
		"report_period":      reportLabel(snap),
	}, nil
}

func (s *HighGrowth) snapshot(ctx context.Context, kind contracts.QuarterlyKind, code string, panel *contracts.Panel) (*contracts.FundamentalSnapshot, error) {
	return fetchSnapshot(ctx, s.Source, s.Period, kind, code, panel)
}

func (s *HighROE) snapshot(ctx context.Context, kind contracts.QuarterlyKind, code string, panel *contracts.Panel) (*contracts.FundamentalSnapshot, error) {
	return fetchSnapshot(ctx, s.Source, s.Period, kind, code, panel)
}

func (s *LowDebt) snapshot(ctx context.Context, kind contracts.QuarterlyKind, code string, panel *contracts.Panel) (*contracts.FundamentalSnapshot, error) {
	return fetchSnapshot(ctx, s.Source, s.Period, kind, code, panel)
}

func fetchSnapshot(ctx context.Context, src contracts.FundamentalSource, policy ReportPeriodPolicy, kind contracts.QuarterlyKind, code string, panel *contracts.Panel) (*contracts.FundamentalSnapshot, error) {
	if src == nil || panel == nil || panel.Len() == 0 {
		return nil, nil
	}
	if policy == nil {
		policy = DefaultReportPeriod
	}
	year, quarter := policy(panel.Last().Date)
	return src.GetQuarterly(ctx, kind, code, year, quarter)
}

func reportLabel(snap *contracts.FundamentalSnapshot) string {
	return fmt.Sprintf("%dQ%d", snap.Year, snap.Quarter)
}
