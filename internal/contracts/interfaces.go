package contracts

import (
	"context"
	"time"
)

// MarketDataProvider is the upstream quotes collaborator.
// Absence of data is an empty (or nil) result, never an error; errors are
// reserved for transport and session failures.
type MarketDataProvider interface {
	// GetDailyBars returns daily bars for [start, end], oldest first.
	GetDailyBars(ctx context.Context, code string, start, end time.Time) ([]Bar, error)

	// GetQuarterly returns one quarterly report row, nil when not disclosed.
	GetQuarterly(ctx context.Context, kind QuarterlyKind, code string, year, quarter int) (*FundamentalSnapshot, error)

	// GetPoolMembers returns the constituents of a named pool on a date.
	GetPoolMembers(ctx context.Context, pool string, date time.Time) ([]PoolMember, error)
}

// PanelSource serves per-asset daily panels for a date range.
// The incremental cache is the production implementation.
type PanelSource interface {
	GetPanel(ctx context.Context, code string, start, end time.Time) (*Panel, error)
}

// FundamentalSource is the subset of the provider the fundamental
// evaluators need.
type FundamentalSource interface {
	GetQuarterly(ctx context.Context, kind QuarterlyKind, code string, year, quarter int) (*FundamentalSnapshot, error)
}

// MatchRepository persists scan results (optional collaborator).
type MatchRepository interface {
	SaveBatch(ctx context.Context, records []*MatchRecord) error
	ListByDate(ctx context.Context, date time.Time) ([]*MatchRecord, error)
}
