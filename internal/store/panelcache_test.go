package store

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xzemt/omnialpha/internal/contracts"
	"github.com/xzemt/omnialpha/pkg/logger"
)

// countingProvider serves bars from a fixed daily universe and records
// every fetch range.
type countingProvider struct {
	universe []contracts.Bar
	fetches  []fetchRange
}

type fetchRange struct {
	start, end time.Time
}

func (p *countingProvider) GetDailyBars(ctx context.Context, code string, start, end time.Time) ([]contracts.Bar, error) {
	p.fetches = append(p.fetches, fetchRange{start, end})
	var out []contracts.Bar
	for _, b := range p.universe {
		if !b.Date.Before(start) && !b.Date.After(end) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (p *countingProvider) GetQuarterly(ctx context.Context, kind contracts.QuarterlyKind, code string, year, quarter int) (*contracts.FundamentalSnapshot, error) {
	return nil, nil
}

func (p *countingProvider) GetPoolMembers(ctx context.Context, pool string, date time.Time) ([]contracts.PoolMember, error) {
	return nil, nil
}

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func universe(from string, n int) []contracts.Bar {
	start := day(from)
	bars := make([]contracts.Bar, n)
	for i := range bars {
		bars[i] = contracts.Bar{
			Date: start.AddDate(0, 0, i), Open: 10, High: 11, Low: 9,
			Close: 10 + float64(i)*0.1, Volume: 1000, Amount: 10000,
			Turnover: 2.5, PctChg: 0.5, PeTTM: 15, PbMRQ: 1.2,
		}
	}
	return bars
}

func newTestCache(t *testing.T, p *countingProvider) *PanelCache {
	t.Helper()
	return NewPanelCache(t.TempDir(), p, logger.NewWithWriter(io.Discard, "error"))
}

func TestColdCacheFullFetch(t *testing.T) {
	p := &countingProvider{universe: universe("2024-01-01", 60)}
	c := newTestCache(t, p)

	panel, err := c.GetPanel(context.Background(), "sh.600000", day("2024-01-10"), day("2024-02-10"))
	require.NoError(t, err)
	require.Len(t, p.fetches, 1)
	assert.Equal(t, day("2024-01-10"), p.fetches[0].start)

	require.NotZero(t, panel.Len())
	assert.Equal(t, day("2024-01-10"), panel.Bars[0].Date)
	assert.Equal(t, day("2024-02-10"), panel.Bars[panel.Len()-1].Date)
}

func TestContainedRangeZeroFetches(t *testing.T) {
	p := &countingProvider{universe: universe("2024-01-01", 60)}
	c := newTestCache(t, p)
	ctx := context.Background()

	_, err := c.GetPanel(ctx, "sh.600000", day("2024-01-01"), day("2024-02-20"))
	require.NoError(t, err)
	require.Len(t, p.fetches, 1)

	// identical call and a sub-range: both served from cache
	panel, err := c.GetPanel(ctx, "sh.600000", day("2024-01-01"), day("2024-02-20"))
	require.NoError(t, err)
	assert.Len(t, p.fetches, 1, "repeat call must not fetch")

	sub, err := c.GetPanel(ctx, "sh.600000", day("2024-01-15"), day("2024-02-01"))
	require.NoError(t, err)
	assert.Len(t, p.fetches, 1, "sub-range must not fetch")
	assert.Equal(t, day("2024-01-15"), sub.Bars[0].Date)
	assert.Less(t, sub.Len(), panel.Len())
}

func TestForwardExtensionFetchesOnlySuffix(t *testing.T) {
	p := &countingProvider{universe: universe("2024-01-01", 90)}
	c := newTestCache(t, p)
	ctx := context.Background()

	_, err := c.GetPanel(ctx, "sh.600000", day("2024-01-01"), day("2024-01-31"))
	require.NoError(t, err)
	require.Len(t, p.fetches, 1)

	panel, err := c.GetPanel(ctx, "sh.600000", day("2024-01-01"), day("2024-02-28"))
	require.NoError(t, err)
	require.Len(t, p.fetches, 2)
	assert.Equal(t, day("2024-02-01"), p.fetches[1].start, "suffix fetch must start after cached max")
	assert.Equal(t, day("2024-02-28"), p.fetches[1].end)

	assert.Equal(t, day("2024-02-28"), panel.Bars[panel.Len()-1].Date)
	require.NoError(t, panel.Validate(), "merged panel must stay sorted and deduplicated")
}

func TestBackwardExtensionRefetchesAll(t *testing.T) {
	p := &countingProvider{universe: universe("2024-01-01", 90)}
	c := newTestCache(t, p)
	ctx := context.Background()

	_, err := c.GetPanel(ctx, "sh.600000", day("2024-02-01"), day("2024-02-28"))
	require.NoError(t, err)

	panel, err := c.GetPanel(ctx, "sh.600000", day("2024-01-05"), day("2024-02-28"))
	require.NoError(t, err)
	require.Len(t, p.fetches, 2)
	assert.Equal(t, day("2024-01-05"), p.fetches[1].start, "backward extension re-fetches the full range")
	assert.Equal(t, day("2024-01-05"), panel.Bars[0].Date)
}

func TestFetchedWinsOnDateConflict(t *testing.T) {
	p := &countingProvider{universe: universe("2024-01-01", 31)}
	c := newTestCache(t, p)
	ctx := context.Background()

	_, err := c.GetPanel(ctx, "sh.600000", day("2024-01-01"), day("2024-01-15"))
	require.NoError(t, err)

	// upstream revises an already-cached session
	for i := range p.universe {
		if p.universe[i].Date.Equal(day("2024-01-20")) {
			p.universe[i].Close = 99
		}
	}
	merged := mergeBars(
		[]contracts.Bar{{Date: day("2024-01-20"), Close: 10}},
		[]contracts.Bar{{Date: day("2024-01-20"), Close: 99}},
	)
	require.Len(t, merged, 1)
	assert.Equal(t, 99.0, merged[0].Close)
}

func TestCorruptCacheFallsBackToFullFetch(t *testing.T) {
	p := &countingProvider{universe: universe("2024-01-01", 60)}
	c := newTestCache(t, p)
	ctx := context.Background()

	_, err := c.GetPanel(ctx, "sh.600000", day("2024-01-01"), day("2024-01-31"))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(c.path("sh.600000"), []byte("not,a,panel\ngarbage"), 0o644))

	panel, err := c.GetPanel(ctx, "sh.600000", day("2024-01-01"), day("2024-01-31"))
	require.NoError(t, err)
	require.Len(t, p.fetches, 2, "corrupt cache must trigger a full re-fetch")
	assert.Equal(t, 31, panel.Len())

	// the re-fetch repaired the file
	_, err = c.GetPanel(ctx, "sh.600000", day("2024-01-01"), day("2024-01-31"))
	require.NoError(t, err)
	assert.Len(t, p.fetches, 2)
}

func TestRoundTripPreservesFields(t *testing.T) {
	u := universe("2024-01-01", 5)
	u[2].IsST = true
	p := &countingProvider{universe: u}
	c := newTestCache(t, p)
	ctx := context.Background()

	_, err := c.GetPanel(ctx, "sh.600000", day("2024-01-01"), day("2024-01-05"))
	require.NoError(t, err)

	panel, err := c.GetPanel(ctx, "sh.600000", day("2024-01-01"), day("2024-01-05"))
	require.NoError(t, err)
	require.Len(t, p.fetches, 1)

	require.Equal(t, 5, panel.Len())
	bar := panel.Bars[2]
	assert.True(t, bar.IsST)
	assert.Equal(t, 2.5, bar.Turnover)
	assert.Equal(t, 15.0, bar.PeTTM)
	assert.Equal(t, 1.2, bar.PbMRQ)
}
