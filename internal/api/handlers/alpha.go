package handlers

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/xzemt/omnialpha/internal/alpha"
	"github.com/xzemt/omnialpha/internal/contracts"
	"github.com/xzemt/omnialpha/pkg/logger"
)

const defaultCalcDays = 250

// AlphaHandler serves the factor-engine endpoints.
type AlphaHandler struct {
	panels contracts.PanelSource
	logger *logger.Logger
}

func NewAlphaHandler(panels contracts.PanelSource, log *logger.Logger) *AlphaHandler {
	return &AlphaHandler{panels: panels, logger: log}
}

// ListFactors handles GET /api/alpha/factors
func (h *AlphaHandler) ListFactors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, alpha.List())
}

// Calculate handles GET /api/alpha/calculate?code=&factor=&days=
// NaN values serialize as nulls so the series stays aligned with dates.
func (h *AlphaHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	factorKey := r.URL.Query().Get("factor")
	if code == "" || factorKey == "" {
		writeError(w, http.StatusBadRequest, "code and factor are required")
		return
	}
	if _, ok := alpha.Get(factorKey); !ok {
		writeError(w, http.StatusNotFound, "unknown factor "+factorKey)
		return
	}

	days := defaultCalcDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = n
	}

	end, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	start := end.AddDate(0, 0, -days)

	panel, err := h.panels.GetPanel(r.Context(), code, start, end)
	if err != nil {
		h.logger.WithError(err).WithField("code", code).Error("panel fetch failed")
		writeError(w, http.StatusBadGateway, "failed to fetch panel for "+code)
		return
	}
	if panel == nil || panel.Len() == 0 {
		writeError(w, http.StatusNotFound, "no data for "+code)
		return
	}

	values, err := alpha.Compute(factorKey, panel)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"code":   code,
		"factor": factorKey,
		"dates":  formatDates(panel.Dates()),
		"values": nullableValues(values),
	})
}

func formatDates(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format("2006-01-02")
	}
	return out
}

// nullableValues maps NaN to nil for JSON encoding.
func nullableValues(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i := range values {
		if math.IsNaN(values[i]) || math.IsInf(values[i], 0) {
			continue
		}
		v := values[i]
		out[i] = &v
	}
	return out
}
