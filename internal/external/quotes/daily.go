package quotes

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/xzemt/omnialpha/internal/contracts"
)

type dailyResponse struct {
	ErrorCode string     `json:"error_code"`
	ErrorMsg  string     `json:"error_msg"`
	Data      []dailyRow `json:"data"`
}

// dailyRow mirrors the gateway's stringly-typed daily bar record.
type dailyRow struct {
	Date   string `json:"date"`
	Open   string `json:"open"`
	High   string `json:"high"`
	Low    string `json:"low"`
	Close  string `json:"close"`
	Volume string `json:"volume"`
	Amount string `json:"amount"`
	Turn   string `json:"turn"`
	PctChg string `json:"pctChg"`
	PeTTM  string `json:"peTTM"`
	PbMRQ  string `json:"pbMRQ"`
	IsST   string `json:"isST"`
}

// GetDailyBars returns daily bars for [start, end], oldest first. An
// empty range is an empty slice, nil error.
func (c *Client) GetDailyBars(ctx context.Context, code string, start, end time.Time) ([]contracts.Bar, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("code", code)
	q.Set("start", start.Format(dateLayout))
	q.Set("end", end.Format(dateLayout))

	var out dailyResponse
	if err := c.http.GetJSON(ctx, c.endpoint("/api/daily", q), &out); err != nil {
		return nil, fmt.Errorf("daily bars %s: %w", code, err)
	}
	if out.ErrorCode != "0" {
		return nil, fmt.Errorf("daily bars %s: gateway error %s: %s", code, out.ErrorCode, out.ErrorMsg)
	}

	bars := make([]contracts.Bar, 0, len(out.Data))
	for _, row := range out.Data {
		date, err := time.Parse(dateLayout, row.Date)
		if err != nil {
			c.log.WithField("code", code).Warnf("skipping bar with bad date %q", row.Date)
			continue
		}
		bars = append(bars, contracts.Bar{
			Date:     date,
			Open:     parseFloat(row.Open),
			High:     parseFloat(row.High),
			Low:      parseFloat(row.Low),
			Close:    parseFloat(row.Close),
			Volume:   parseFloat(row.Volume),
			Amount:   parseFloat(row.Amount),
			Turnover: parseFloat(row.Turn),
			PctChg:   parseFloat(row.PctChg),
			PeTTM:    parseFloat(row.PeTTM),
			PbMRQ:    parseFloat(row.PbMRQ),
			IsST:     row.IsST == "1",
		})
	}
	return bars, nil
}
