// Package store holds the incremental per-asset panel cache: one CSV
// file per asset, extended in place so repeated scans hit the upstream
// provider only for the missing suffix.
package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/xzemt/omnialpha/internal/contracts"
	"github.com/xzemt/omnialpha/pkg/logger"
)

const dateLayout = "2006-01-02"

var csvHeader = []string{
	"date", "open", "high", "low", "close", "volume", "amount",
	"turnover", "pct_chg", "pe_ttm", "pb_mrq", "is_st",
}

// PanelCache serves daily panels backed by per-asset CSV files. Not safe
// for concurrent writers on the same asset; callers serialize per asset.
type PanelCache struct {
	dir      string
	provider contracts.MarketDataProvider
	log      *logger.Logger
}

func NewPanelCache(dataDir string, provider contracts.MarketDataProvider, log *logger.Logger) *PanelCache {
	return &PanelCache{
		dir:      filepath.Join(dataDir, "panels"),
		provider: provider,
		log:      log,
	}
}

// GetPanel returns the bars for [start, end], fetching from the provider
// only what the cache does not already cover:
//   - no cache, or start before the cached range → full re-fetch, replace;
//   - range fully inside the cache → serve with zero fetches;
//   - otherwise fetch only the suffix after the cached maximum and merge,
//     fetched bars winning on date conflict.
//
// ⭐ SSOT: 行情缓存的增量策略只在这里实现
func (c *PanelCache) GetPanel(ctx context.Context, code string, start, end time.Time) (*contracts.Panel, error) {
	cached := c.load(code)

	if cached.Len() == 0 || start.Before(cached.Bars[0].Date) {
		bars, err := c.provider.GetDailyBars(ctx, code, start, end)
		if err != nil {
			return nil, fmt.Errorf("panel cache %s: %w", code, err)
		}
		panel := &contracts.Panel{Code: code, Bars: bars}
		if err := c.save(code, panel); err != nil {
			return nil, err
		}
		return panel.SliceRange(start, end), nil
	}

	cacheMax := cached.Bars[cached.Len()-1].Date
	if !end.After(cacheMax) {
		return cached.SliceRange(start, end), nil
	}

	fetched, err := c.provider.GetDailyBars(ctx, code, cacheMax.AddDate(0, 0, 1), end)
	if err != nil {
		return nil, fmt.Errorf("panel cache %s: %w", code, err)
	}
	merged := mergeBars(cached.Bars, fetched)
	panel := &contracts.Panel{Code: code, Bars: merged}
	if err := c.save(code, panel); err != nil {
		return nil, err
	}
	return panel.SliceRange(start, end), nil
}

// mergeBars unions two bar sets keyed by date, fresh winning on conflict,
// sorted ascending.
func mergeBars(cached, fresh []contracts.Bar) []contracts.Bar {
	byDate := make(map[string]contracts.Bar, len(cached)+len(fresh))
	for _, b := range cached {
		byDate[b.Date.Format(dateLayout)] = b
	}
	for _, b := range fresh {
		byDate[b.Date.Format(dateLayout)] = b
	}

	out := make([]contracts.Bar, 0, len(byDate))
	for _, b := range byDate {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func (c *PanelCache) path(code string) string {
	return filepath.Join(c.dir, code+".csv")
}

// load reads the cached panel for an asset. Any read or parse failure is
// treated as an absent cache so the caller falls back to a full re-fetch.
func (c *PanelCache) load(code string) *contracts.Panel {
	f, err := os.Open(c.path(code))
	if err != nil {
		return &contracts.Panel{Code: code}
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil || len(rows) == 0 {
		c.log.WithField("code", code).Warn("unreadable panel cache, will re-fetch")
		return &contracts.Panel{Code: code}
	}

	bars := make([]contracts.Bar, 0, len(rows)-1)
	for _, row := range rows[1:] {
		bar, err := parseRow(row)
		if err != nil {
			c.log.WithError(err).WithField("code", code).Warn("corrupt panel cache, will re-fetch")
			return &contracts.Panel{Code: code}
		}
		bars = append(bars, bar)
	}

	panel := &contracts.Panel{Code: code, Bars: bars}
	if err := panel.Validate(); err != nil {
		c.log.WithError(err).WithField("code", code).Warn("invalid panel cache, will re-fetch")
		return &contracts.Panel{Code: code}
	}
	return panel
}

func parseRow(row []string) (contracts.Bar, error) {
	if len(row) != len(csvHeader) {
		return contracts.Bar{}, fmt.Errorf("row has %d columns, want %d", len(row), len(csvHeader))
	}
	date, err := time.Parse(dateLayout, row[0])
	if err != nil {
		return contracts.Bar{}, fmt.Errorf("bad date %q: %w", row[0], err)
	}

	vals := make([]float64, 10)
	for i := 0; i < 10; i++ {
		v, err := strconv.ParseFloat(row[i+1], 64)
		if err != nil {
			return contracts.Bar{}, fmt.Errorf("bad number %q in column %s: %w", row[i+1], csvHeader[i+1], err)
		}
		vals[i] = v
	}
	return contracts.Bar{
		Date:     date,
		Open:     vals[0],
		High:     vals[1],
		Low:      vals[2],
		Close:    vals[3],
		Volume:   vals[4],
		Amount:   vals[5],
		Turnover: vals[6],
		PctChg:   vals[7],
		PeTTM:    vals[8],
		PbMRQ:    vals[9],
		IsST:     row[11] == "1",
	}, nil
}

// save atomically replaces the asset's cache file.
func (c *PanelCache) save(code string, panel *contracts.Panel) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("panel cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, code+".*.tmp")
	if err != nil {
		return fmt.Errorf("panel cache %s: %w", code, err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(csvHeader); err != nil {
		tmp.Close()
		return fmt.Errorf("panel cache %s: %w", code, err)
	}
	for _, b := range panel.Bars {
		row := []string{
			b.Date.Format(dateLayout),
			fmtFloat(b.Open), fmtFloat(b.High), fmtFloat(b.Low), fmtFloat(b.Close),
			fmtFloat(b.Volume), fmtFloat(b.Amount), fmtFloat(b.Turnover),
			fmtFloat(b.PctChg), fmtFloat(b.PeTTM), fmtFloat(b.PbMRQ),
			boolFlag(b.IsST),
		}
		if err := w.Write(row); err != nil {
			tmp.Close()
			return fmt.Errorf("panel cache %s: %w", code, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("panel cache %s: %w", code, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("panel cache %s: %w", code, err)
	}
	return os.Rename(tmp.Name(), c.path(code))
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
