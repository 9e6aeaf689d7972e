// Package engine runs AND-intersection screens over a stock pool and
// streams the results as ordered events.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/xzemt/omnialpha/internal/contracts"
	"github.com/xzemt/omnialpha/internal/strategy"
	"github.com/xzemt/omnialpha/pkg/logger"
)

// LookbackDays is how far back the engine fetches history before a scan
// date so every evaluator has enough bars.
const LookbackDays = 150

// progressEvery controls how often progress events are emitted.
const progressEvery = 10

// EventFunc receives scan stream events in order. Implementations must
// not retain the event past the call.
type EventFunc func(event interface{})

// Engine screens assets against strategy evaluators.
type Engine struct {
	panels contracts.PanelSource
	log    *logger.Logger
}

func New(panels contracts.PanelSource, log *logger.Logger) *Engine {
	return &Engine{panels: panels, log: log}
}

// ScanOne evaluates one asset against the evaluators in order with
// AND semantics: the first no-match short-circuits and returns nil.
// A full pass returns the match record with the union of all metrics.
func (e *Engine) ScanOne(ctx context.Context, code, name string, date time.Time, evaluators []strategy.Strategy) (*contracts.MatchRecord, error) {
	if len(evaluators) == 0 {
		return nil, fmt.Errorf("scan %s: no evaluators", code)
	}

	start := date.AddDate(0, 0, -LookbackDays)
	panel, err := e.panels.GetPanel(ctx, code, start, date)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", code, err)
	}
	if panel == nil || panel.Len() == 0 {
		return nil, nil
	}

	record := &contracts.MatchRecord{
		Code:    code,
		Name:    name,
		Date:    date.Format("2006-01-02"),
		Metrics: make(map[string]interface{}),
	}
	for _, ev := range evaluators {
		ok, metrics, err := ev.Check(ctx, code, panel)
		if err != nil {
			return nil, fmt.Errorf("scan %s: strategy %s: %w", code, ev.Key(), err)
		}
		if !ok {
			return nil, nil
		}
		record.Strategies = append(record.Strategies, ev.Key())
		for k, v := range metrics {
			record.Metrics[k] = v
		}
	}
	return record, nil
}

// Scan iterates a pool in order, isolating per-asset failures as error
// events. Stream shape: meta first, then progress every tenth asset
// interleaved with match/error events, done last. A single goroutine
// drives the whole scan so event order is deterministic; cancellation is
// checked between assets.
func (e *Engine) Scan(ctx context.Context, pool []contracts.PoolMember, date time.Time, evaluators []strategy.Strategy, onEvent EventFunc) (*contracts.ScanSummary, error) {
	onEvent(&contracts.MetaEvent{
		Type:    "meta",
		Total:   len(pool),
		Message: fmt.Sprintf("scanning %d assets for %s", len(pool), date.Format("2006-01-02")),
	})

	summary := &contracts.ScanSummary{}
	for i, member := range pool {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := e.ScanOne(ctx, member.Code, member.Name, date, evaluators)
		summary.TotalScanned++
		switch {
		case err != nil:
			e.log.WithError(err).WithField("code", member.Code).Warn("asset scan failed")
			onEvent(&contracts.ErrorEvent{Type: "error", Code: member.Code, Message: err.Error()})
		case record != nil:
			summary.TotalMatches++
			summary.Matches = append(summary.Matches, record)
			onEvent(&contracts.MatchEvent{Type: "match", Data: record})
		}

		if (i+1)%progressEvery == 0 {
			onEvent(&contracts.ProgressEvent{Type: "progress", Current: i + 1, Total: len(pool)})
		}
	}

	onEvent(&contracts.DoneEvent{
		Type:         "done",
		TotalScanned: summary.TotalScanned,
		TotalMatches: summary.TotalMatches,
	})
	return summary, nil
}
