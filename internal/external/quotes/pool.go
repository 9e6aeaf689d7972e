package quotes

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/xzemt/omnialpha/internal/contracts"
)

type poolResponse struct {
	ErrorCode string                 `json:"error_code"`
	ErrorMsg  string                 `json:"error_msg"`
	Data      []contracts.PoolMember `json:"data"`
}

// GetPoolMembers returns the constituents of a named pool on a date.
// When the gateway has no constituents endpoint (or it fails), falls
// back to scraping the configured index page.
func (c *Client) GetPoolMembers(ctx context.Context, pool string, date time.Time) ([]contracts.PoolMember, error) {
	members, err := c.poolFromGateway(ctx, pool, date)
	if err == nil {
		return members, nil
	}

	pageURL := c.poolPageURL(pool)
	if pageURL == "" {
		return nil, fmt.Errorf("pool %s: %w", pool, err)
	}
	c.log.WithError(err).WithField("pool", pool).Warn("gateway constituents unavailable, scraping index page")
	return c.poolFromPage(ctx, pageURL)
}

func (c *Client) poolFromGateway(ctx context.Context, pool string, date time.Time) ([]contracts.PoolMember, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("name", pool)
	q.Set("date", date.Format(dateLayout))

	var out poolResponse
	if err := c.http.GetJSON(ctx, c.endpoint("/api/pool", q), &out); err != nil {
		return nil, err
	}
	if out.ErrorCode != "0" {
		return nil, fmt.Errorf("gateway error %s: %s", out.ErrorCode, out.ErrorMsg)
	}
	return out.Data, nil
}

func (c *Client) poolPageURL(pool string) string {
	switch pool {
	case "hs300":
		return c.hs300PageURL
	case "zz1000":
		return c.zz1000PageURL
	default:
		return ""
	}
}

// poolFromPage scrapes a constituents table: rows whose first cell is a
// stock code and second cell the display name. Exchange prefix is
// inferred from the code when the page omits it.
func (c *Client) poolFromPage(ctx context.Context, pageURL string) ([]contracts.PoolMember, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.http.Get(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("constituents page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("constituents page: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("constituents page: %w", err)
	}

	var members []contracts.PoolMember
	doc.Find("table tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		code := normalizeCode(strings.TrimSpace(cells.Eq(0).Text()))
		name := strings.TrimSpace(cells.Eq(1).Text())
		if code == "" {
			return
		}
		members = append(members, contracts.PoolMember{Code: code, Name: name})
	})

	if len(members) == 0 {
		return nil, fmt.Errorf("constituents page: no rows recognized at %s", pageURL)
	}
	return members, nil
}

// normalizeCode maps a bare 6-digit A-share code to its prefixed form;
// already-prefixed codes pass through.
func normalizeCode(raw string) string {
	if strings.Contains(raw, ".") {
		low := strings.ToLower(raw)
		if strings.HasPrefix(low, "sh.") || strings.HasPrefix(low, "sz.") {
			return low
		}
		return ""
	}
	if len(raw) != 6 {
		return ""
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return ""
		}
	}
	switch raw[0] {
	case '6':
		return "sh." + raw
	case '0', '3':
		return "sz." + raw
	default:
		return ""
	}
}
