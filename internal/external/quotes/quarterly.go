package quotes

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/xzemt/omnialpha/internal/contracts"
	"github.com/xzemt/omnialpha/pkg/redis"
)

type quarterlyResponse struct {
	ErrorCode string            `json:"error_code"`
	ErrorMsg  string            `json:"error_msg"`
	Data      map[string]string `json:"data"`
}

// GetQuarterly returns one quarterly disclosure row for (code, year,
// quarter), nil when the company has not disclosed it. Snapshots are
// immutable once published, so they cache under a daily TTL.
func (c *Client) GetQuarterly(ctx context.Context, kind contracts.QuarterlyKind, code string, year, quarter int) (*contracts.FundamentalSnapshot, error) {
	cacheKey := redis.FinancialKey(string(kind), code, year, quarter)
	if c.cache != nil {
		var cached contracts.FundamentalSnapshot
		if found, _ := c.cache.Get(ctx, cacheKey, &cached); found {
			return &cached, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("code", code)
	q.Set("year", strconv.Itoa(year))
	q.Set("quarter", strconv.Itoa(quarter))

	var out quarterlyResponse
	u := c.endpoint("/api/quarterly/"+string(kind), q)
	if err := c.http.GetJSON(ctx, u, &out); err != nil {
		return nil, fmt.Errorf("quarterly %s %s: %w", kind, code, err)
	}
	if out.ErrorCode != "0" {
		return nil, fmt.Errorf("quarterly %s %s: gateway error %s: %s", kind, code, out.ErrorCode, out.ErrorMsg)
	}
	if len(out.Data) == 0 {
		return nil, nil
	}

	snap := &contracts.FundamentalSnapshot{
		Code:    code,
		Year:    parseInt(out.Data["year"]),
		Quarter: parseInt(out.Data["quarter"]),
		PubDate: out.Data["pubDate"],
	}
	if snap.Year == 0 {
		snap.Year = year
	}
	if snap.Quarter == 0 {
		snap.Quarter = quarter
	}

	switch kind {
	case contracts.QuarterlyProfit:
		snap.ROEAvg = parseFloat(out.Data["roeAvg"])
		snap.NPMargin = parseFloat(out.Data["npMargin"])
		snap.NetProfit = parseFloat(out.Data["netProfit"])
	case contracts.QuarterlyGrowth:
		snap.YOYNI = parseFloat(out.Data["YOYNI"])
		snap.YOYEquity = parseFloat(out.Data["YOYEquity"])
		snap.YOYAsset = parseFloat(out.Data["YOYAsset"])
	case contracts.QuarterlyBalance:
		snap.LiabilityToAsset = parseFloat(out.Data["liabilityToAsset"])
		snap.CurrentRatio = parseFloat(out.Data["currentRatio"])
		snap.QuickRatio = parseFloat(out.Data["quickRatio"])
	case contracts.QuarterlyOperation:
		snap.NRTurnRatio = parseFloat(out.Data["NRTurnRatio"])
		snap.INVTurnRatio = parseFloat(out.Data["INVTurnRatio"])
	default:
		return nil, fmt.Errorf("quarterly: unknown kind %q", kind)
	}

	if c.cache != nil {
		_ = c.cache.Set(ctx, cacheKey, snap, redis.TTLDaily)
	}
	return snap, nil
}
