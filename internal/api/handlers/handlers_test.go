package handlers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xzemt/omnialpha/internal/contracts"
	"github.com/xzemt/omnialpha/internal/engine"
	"github.com/xzemt/omnialpha/internal/strategy"
	"github.com/xzemt/omnialpha/pkg/logger"
)

type fakeProvider struct {
	panels map[string]*contracts.Panel
	pool   []contracts.PoolMember
}

func (f *fakeProvider) GetDailyBars(ctx context.Context, code string, start, end time.Time) ([]contracts.Bar, error) {
	return nil, nil
}

func (f *fakeProvider) GetQuarterly(ctx context.Context, kind contracts.QuarterlyKind, code string, year, quarter int) (*contracts.FundamentalSnapshot, error) {
	return nil, nil
}

func (f *fakeProvider) GetPoolMembers(ctx context.Context, pool string, date time.Time) ([]contracts.PoolMember, error) {
	return f.pool, nil
}

func (f *fakeProvider) GetPanel(ctx context.Context, code string, start, end time.Time) (*contracts.Panel, error) {
	return f.panels[code], nil
}

func risingPanel(code string, n int) *contracts.Panel {
	bars := make([]contracts.Bar, n)
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		c := 10 + float64(i)*0.5
		bars[i] = contracts.Bar{
			Date: start.AddDate(0, 0, i), Open: c * 0.99, High: c * 1.01, Low: c * 0.98,
			Close: c, Volume: 100000, Amount: 100000 * c, Turnover: 2, PeTTM: 15,
		}
	}
	return &contracts.Panel{Code: code, Bars: bars}
}

func newHandlers(panels map[string]*contracts.Panel, pool []contracts.PoolMember) (*ScanHandler, *AlphaHandler) {
	log := logger.NewWithWriter(io.Discard, "error")
	provider := &fakeProvider{panels: panels, pool: pool}
	eng := engine.New(provider, log)
	registry := strategy.Registry(provider)
	return NewScanHandler(eng, registry, provider, nil, log), NewAlphaHandler(provider, log)
}

func TestListStrategies(t *testing.T) {
	h, _ := newHandlers(nil, nil)
	rec := httptest.NewRecorder()

	h.ListStrategies(rec, httptest.NewRequest(http.MethodGet, "/api/strategies", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var out []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 7)

	keys := make([]string, 0, len(out))
	for _, e := range out {
		keys = append(keys, e["key"].(string))
	}
	assert.Equal(t, []string{"debt", "growth", "ma", "pe", "roe", "turn", "vol"}, keys)
}

func TestScanStreamNDJSON(t *testing.T) {
	panels := map[string]*contracts.Panel{
		"sh.600000": risingPanel("sh.600000", 40),
		"sz.000001": risingPanel("sz.000001", 40),
	}
	pool := []contracts.PoolMember{{Code: "sh.600000", Name: "浦发银行"}, {Code: "sz.000001"}}
	h, _ := newHandlers(panels, pool)

	body, _ := json.Marshal(ScanRequest{
		Date:       "2024-04-09",
		Strategies: []string{"ma"},
		PoolType:   "hs300",
	})
	rec := httptest.NewRecorder()
	h.Scan(rec, httptest.NewRequest(http.MethodPost, "/api/scan", bytes.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-ndjson", rec.Header().Get("Content-Type"))

	var types []string
	scanner := bufio.NewScanner(strings.NewReader(rec.Body.String()))
	for scanner.Scan() {
		var ev map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev), "every line must be standalone JSON")
		types = append(types, ev["type"].(string))
	}

	require.NotEmpty(t, types)
	assert.Equal(t, "meta", types[0])
	assert.Equal(t, "done", types[len(types)-1])

	matches := 0
	for _, ty := range types {
		if ty == "match" {
			matches++
		}
	}
	assert.Equal(t, 2, matches)
}

func TestScanRejectsBadRequests(t *testing.T) {
	h, _ := newHandlers(nil, nil)

	for name, body := range map[string]string{
		"empty strategies": `{"date":"2024-04-09","strategies":[],"pool_type":"test"}`,
		"unknown strategy": `{"date":"2024-04-09","strategies":["nope"],"pool_type":"test"}`,
		"unknown pool":     `{"date":"2024-04-09","strategies":["ma"],"pool_type":"galaxy"}`,
		"bad date":         `{"date":"04/09/2024","strategies":["ma"],"pool_type":"test"}`,
		"not json":         `{{{`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Scan(rec, httptest.NewRequest(http.MethodPost, "/api/scan", strings.NewReader(body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestScanCustomPool(t *testing.T) {
	panels := map[string]*contracts.Panel{"sh.600519": risingPanel("sh.600519", 40)}
	h, _ := newHandlers(panels, nil)

	body := `{"date":"2024-04-09","strategies":["ma"],"pool_type":"custom","custom_pool":["sh.600519"]}`
	rec := httptest.NewRecorder()
	h.Scan(rec, httptest.NewRequest(http.MethodPost, "/api/scan", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sh.600519"`)
}

func TestListResultsWithoutRepo(t *testing.T) {
	h, _ := newHandlers(nil, nil)
	rec := httptest.NewRecorder()
	h.ListResults(rec, httptest.NewRequest(http.MethodGet, "/api/scan/results?date=2024-04-09", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListFactors(t *testing.T) {
	_, h := newHandlers(nil, nil)
	rec := httptest.NewRecorder()
	h.ListFactors(rec, httptest.NewRequest(http.MethodGet, "/api/alpha/factors", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var out []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.GreaterOrEqual(t, len(out), 30)
	assert.NotEmpty(t, out[0]["key"])
}

func TestCalculate(t *testing.T) {
	panels := map[string]*contracts.Panel{"sh.600000": risingPanel("sh.600000", 60)}
	_, h := newHandlers(panels, nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/alpha/calculate?code=sh.600000&factor=alpha014&days=60&date=2024-04-29", nil)
	h.Calculate(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Code   string     `json:"code"`
		Factor string     `json:"factor"`
		Dates  []string   `json:"dates"`
		Values []*float64 `json:"values"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "alpha014", out.Factor)
	require.Len(t, out.Values, 60)
	require.Len(t, out.Dates, 60)

	// warm-up entries are null, later values concrete
	assert.Nil(t, out.Values[0])
	require.NotNil(t, out.Values[59])
	assert.InDelta(t, 2.5, *out.Values[59], 1e-9) // 5 days * 0.5/day
}

func TestCalculateValidation(t *testing.T) {
	_, h := newHandlers(map[string]*contracts.Panel{}, nil)

	for name, tt := range map[string]struct {
		url    string
		status int
	}{
		"missing params": {"/api/alpha/calculate", http.StatusBadRequest},
		"unknown factor": {"/api/alpha/calculate?code=sh.600000&factor=alpha999", http.StatusNotFound},
		"bad days":       {"/api/alpha/calculate?code=sh.600000&factor=alpha014&days=-1", http.StatusBadRequest},
		"no data":        {"/api/alpha/calculate?code=sh.999999&factor=alpha014", http.StatusNotFound},
	} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Calculate(rec, httptest.NewRequest(http.MethodGet, tt.url, nil))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
