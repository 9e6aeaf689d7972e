// Package quotes is the HTTP client for the baostock-style quotes
// gateway: daily bars, quarterly disclosures, and pool constituents.
// The gateway wants an explicit session; callers Login once, share the
// client, and Logout on shutdown.
package quotes

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/xzemt/omnialpha/pkg/config"
	"github.com/xzemt/omnialpha/pkg/httputil"
	"github.com/xzemt/omnialpha/pkg/logger"
	"github.com/xzemt/omnialpha/pkg/redis"
)

const dateLayout = "2006-01-02"

// Client talks to the quotes gateway. All calls pass through a local
// token-bucket limiter; attach a shared Redis limiter via the underlying
// httputil client when several processes split one upstream quota.
// ⭐ SSOT: 行情网关的会话和限流只在这里管理
type Client struct {
	baseURL   string
	accessKey string
	http      *httputil.Client
	limiter   *rate.Limiter
	cache     *redis.Cache
	log       *logger.Logger

	hs300PageURL  string
	zz1000PageURL string

	sessionID string
}

// New builds a client from config. cache may be nil.
func New(cfg *config.Config, httpClient *httputil.Client, cache *redis.Cache, log *logger.Logger) *Client {
	return &Client{
		baseURL:       cfg.Quotes.BaseURL,
		accessKey:     cfg.Quotes.AccessKey,
		http:          httpClient,
		limiter:       rate.NewLimiter(rate.Limit(cfg.Quotes.RateLimit), cfg.Quotes.Burst),
		cache:         cache,
		log:           log,
		hs300PageURL:  cfg.Pools.HS300PageURL,
		zz1000PageURL: cfg.Pools.ZZ1000PageURL,
	}
}

type loginResponse struct {
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
	SessionID string `json:"session_id"`
}

// Login opens a gateway session. Idempotent; a second call replaces the
// session.
func (c *Client) Login(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var out loginResponse
	u := fmt.Sprintf("%s/api/login?access_key=%s", c.baseURL, url.QueryEscape(c.accessKey))
	if err := c.http.GetJSON(ctx, u, &out); err != nil {
		return fmt.Errorf("quotes login: %w", err)
	}
	if out.ErrorCode != "0" {
		return fmt.Errorf("quotes login rejected: %s", out.ErrorMsg)
	}

	c.sessionID = out.SessionID
	c.log.WithField("session", out.SessionID).Info("quotes gateway session opened")
	return nil
}

// Logout closes the session. Safe to call without a session.
func (c *Client) Logout(ctx context.Context) error {
	if c.sessionID == "" {
		return nil
	}
	var out loginResponse
	u := fmt.Sprintf("%s/api/logout?session_id=%s", c.baseURL, url.QueryEscape(c.sessionID))
	if err := c.http.GetJSON(ctx, u, &out); err != nil {
		return fmt.Errorf("quotes logout: %w", err)
	}
	c.sessionID = ""
	return nil
}

// endpoint builds a gateway URL with the session attached.
func (c *Client) endpoint(path string, query url.Values) string {
	if c.sessionID != "" {
		query.Set("session_id", c.sessionID)
	}
	return c.baseURL + path + "?" + query.Encode()
}

// parseFloat reads the gateway's stringly-typed numbers; blank and
// malformed cells mean "no value" and map to NaN.
func parseFloat(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// parseInt is parseFloat for integer cells, zero on absence.
func parseInt(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}
