package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/xzemt/omnialpha/internal/contracts"
	"github.com/xzemt/omnialpha/internal/engine"
	"github.com/xzemt/omnialpha/internal/strategy"
	"github.com/xzemt/omnialpha/pkg/logger"
)

// testPool is a tiny fixed universe for smoke-testing a deployment
// without pulling real constituents.
var testPool = []contracts.PoolMember{
	{Code: "sh.600000", Name: "浦发银行"},
	{Code: "sh.600519", Name: "贵州茅台"},
	{Code: "sz.000001", Name: "平安银行"},
	{Code: "sz.300750", Name: "宁德时代"},
}

// ScanRequest is the body of POST /api/scan and the first message on
// /ws/scan.
type ScanRequest struct {
	Date       string   `json:"date"`       // YYYY-MM-DD, default today
	Strategies []string `json:"strategies"` // evaluator keys, ANDed in order
	PoolType   string   `json:"pool_type"`  // hs300 | zz1000 | test | custom
	CustomPool []string `json:"custom_pool,omitempty"`
}

// ScanHandler serves the screening endpoints.
// ⭐ SSOT: 扫描请求的解析和选股流只在这里
type ScanHandler struct {
	engine   *engine.Engine
	registry map[string]strategy.Strategy
	provider contracts.MarketDataProvider
	repo     contracts.MatchRepository // nil when persistence is disabled
	logger   *logger.Logger
	upgrader websocket.Upgrader
}

// NewScanHandler creates a scan handler. repo may be nil.
func NewScanHandler(eng *engine.Engine, registry map[string]strategy.Strategy, provider contracts.MarketDataProvider, repo contracts.MatchRepository, log *logger.Logger) *ScanHandler {
	return &ScanHandler{
		engine:   eng,
		registry: registry,
		provider: provider,
		repo:     repo,
		logger:   log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// screening results are not sensitive; the API fronts
			// internal dashboards on varying origins
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ListStrategies handles GET /api/strategies
func (h *ScanHandler) ListStrategies(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		Key         string `json:"key"`
		Name        string `json:"name"`
		Description string `json:"description"`
		MinBars     int    `json:"min_bars"`
	}

	out := make([]entry, 0, len(h.registry))
	for _, key := range strategy.Keys(h.registry) {
		s := h.registry[key]
		out = append(out, entry{
			Key:         s.Key(),
			Name:        s.Name(),
			Description: s.Description(),
			MinBars:     s.MinBars(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// Scan handles POST /api/scan: an NDJSON event stream, one JSON object
// per line, meta first and done last.
func (h *ScanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	date, evaluators, pool, err := h.resolve(r.Context(), &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	flusher, _ := w.(http.Flusher)

	enc := json.NewEncoder(w)
	summary, err := h.engine.Scan(r.Context(), pool, date, evaluators, func(ev interface{}) {
		if err := enc.Encode(ev); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	})
	if err != nil {
		// stream already started; the missing done event tells the
		// client the scan was cut short
		h.logger.WithError(err).Warn("scan stream aborted")
		return
	}

	h.persist(r.Context(), summary)
}

// ScanWS handles GET /ws/scan: the client sends one ScanRequest message
// and receives the same event stream as POST /api/scan.
func (h *ScanHandler) ScanWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	var req ScanRequest
	if err := conn.ReadJSON(&req); err != nil {
		_ = conn.WriteJSON(&contracts.ErrorEvent{Type: "error", Message: "invalid scan request"})
		return
	}

	date, evaluators, pool, err := h.resolve(r.Context(), &req)
	if err != nil {
		_ = conn.WriteJSON(&contracts.ErrorEvent{Type: "error", Message: err.Error()})
		return
	}

	summary, err := h.engine.Scan(r.Context(), pool, date, evaluators, func(ev interface{}) {
		_ = conn.WriteJSON(ev)
	})
	if err != nil {
		_ = conn.WriteJSON(&contracts.ErrorEvent{Type: "error", Message: err.Error()})
		return
	}

	h.persist(r.Context(), summary)
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "scan complete"))
}

// ListResults handles GET /api/scan/results?date= from the persistence
// layer; 404s when persistence is disabled.
func (h *ScanHandler) ListResults(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeError(w, http.StatusNotFound, "scan persistence is disabled")
		return
	}

	date, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.repo.ListByDate(r.Context(), date)
	if err != nil {
		h.logger.WithError(err).Error("failed to list scan results")
		writeError(w, http.StatusInternalServerError, "failed to list scan results")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"date":    date.Format("2006-01-02"),
		"total":   len(records),
		"matches": records,
	})
}

// resolve validates a scan request into its date, evaluators, and pool.
func (h *ScanHandler) resolve(ctx context.Context, req *ScanRequest) (time.Time, []strategy.Strategy, []contracts.PoolMember, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return time.Time{}, nil, nil, err
	}

	if len(req.Strategies) == 0 {
		return time.Time{}, nil, nil, fmt.Errorf("strategies must not be empty")
	}
	evaluators := strategy.Select(h.registry, req.Strategies)
	if len(evaluators) != len(req.Strategies) {
		return time.Time{}, nil, nil, fmt.Errorf("unknown strategy key in %v", req.Strategies)
	}

	pool, err := h.resolvePool(ctx, req, date)
	if err != nil {
		return time.Time{}, nil, nil, err
	}
	if len(pool) == 0 {
		return time.Time{}, nil, nil, fmt.Errorf("pool %q is empty", req.PoolType)
	}
	return date, evaluators, pool, nil
}

func (h *ScanHandler) resolvePool(ctx context.Context, req *ScanRequest, date time.Time) ([]contracts.PoolMember, error) {
	switch req.PoolType {
	case "hs300", "zz1000":
		return h.provider.GetPoolMembers(ctx, req.PoolType, date)
	case "test":
		return testPool, nil
	case "custom":
		members := make([]contracts.PoolMember, 0, len(req.CustomPool))
		for _, code := range req.CustomPool {
			members = append(members, contracts.PoolMember{Code: code})
		}
		return members, nil
	default:
		return nil, fmt.Errorf("unknown pool_type %q", req.PoolType)
	}
}

func (h *ScanHandler) persist(ctx context.Context, summary *contracts.ScanSummary) {
	if h.repo == nil || summary == nil || len(summary.Matches) == 0 {
		return
	}
	if err := h.repo.SaveBatch(ctx, summary.Matches); err != nil {
		h.logger.WithError(err).Error("failed to persist scan matches")
	}
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	date, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return date, nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
