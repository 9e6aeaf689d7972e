package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xzemt/omnialpha/internal/contracts"
	"github.com/xzemt/omnialpha/internal/strategy"
	"github.com/xzemt/omnialpha/pkg/logger"
)

type fakePanels struct {
	panels map[string]*contracts.Panel
	errs   map[string]error
	calls  int
}

func (f *fakePanels) GetPanel(ctx context.Context, code string, start, end time.Time) (*contracts.Panel, error) {
	f.calls++
	if err, ok := f.errs[code]; ok {
		return nil, err
	}
	return f.panels[code], nil
}

type stubStrategy struct {
	key    string
	match  bool
	err    error
	checks int
}

func (s *stubStrategy) Key() string         { return s.key }
func (s *stubStrategy) Name() string        { return s.key }
func (s *stubStrategy) Description() string { return s.key }
func (s *stubStrategy) MinBars() int        { return 1 }

func (s *stubStrategy) Check(ctx context.Context, code string, panel *contracts.Panel) (bool, map[string]interface{}, error) {
	s.checks++
	if s.err != nil {
		return false, nil, s.err
	}
	if !s.match {
		return false, map[string]interface{}{}, nil
	}
	return true, map[string]interface{}{s.key + "_metric": 1.0}, nil
}

func testPanel(code string) *contracts.Panel {
	bars := make([]contracts.Bar, 30)
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = contracts.Bar{Date: start.AddDate(0, 0, i), Close: 10, Volume: 100, Amount: 1000}
	}
	return &contracts.Panel{Code: code, Bars: bars}
}

func newTestEngine(panels contracts.PanelSource) *Engine {
	return New(panels, logger.NewWithWriter(io.Discard, "error"))
}

func TestScanOneAllMatch(t *testing.T) {
	src := &fakePanels{panels: map[string]*contracts.Panel{"sh.600000": testPanel("sh.600000")}}
	e := newTestEngine(src)
	evals := []strategy.Strategy{
		&stubStrategy{key: "ma", match: true},
		&stubStrategy{key: "pe", match: true},
	}

	rec, err := e.ScanOne(context.Background(), "sh.600000", "浦发银行", day("2024-06-01"), evals)
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, "sh.600000", rec.Code)
	assert.Equal(t, "2024-06-01", rec.Date)
	assert.Equal(t, []string{"ma", "pe"}, rec.Strategies)
	assert.Contains(t, rec.Metrics, "ma_metric")
	assert.Contains(t, rec.Metrics, "pe_metric")
}

func TestScanOneShortCircuits(t *testing.T) {
	src := &fakePanels{panels: map[string]*contracts.Panel{"sh.600000": testPanel("sh.600000")}}
	e := newTestEngine(src)

	first := &stubStrategy{key: "ma", match: false}
	second := &stubStrategy{key: "pe", match: true}

	rec, err := e.ScanOne(context.Background(), "sh.600000", "", day("2024-06-01"), []strategy.Strategy{first, second})
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Equal(t, 1, first.checks)
	assert.Equal(t, 0, second.checks, "later evaluators must not run after a no-match")
}

func TestScanOneEmptyPanelIsNoMatch(t *testing.T) {
	src := &fakePanels{panels: map[string]*contracts.Panel{}}
	e := newTestEngine(src)

	rec, err := e.ScanOne(context.Background(), "sh.600000", "", day("2024-06-01"), []strategy.Strategy{&stubStrategy{key: "ma", match: true}})
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestScanStreamOrdering(t *testing.T) {
	panels := make(map[string]*contracts.Panel)
	pool := make([]contracts.PoolMember, 25)
	for i := range pool {
		code := fmt.Sprintf("sh.60%04d", i)
		pool[i] = contracts.PoolMember{Code: code}
		panels[code] = testPanel(code)
	}
	e := newTestEngine(&fakePanels{panels: panels})

	var events []interface{}
	summary, err := e.Scan(context.Background(), pool, day("2024-06-01"), []strategy.Strategy{&stubStrategy{key: "ma", match: true}}, func(ev interface{}) {
		events = append(events, ev)
	})
	require.NoError(t, err)

	assert.Equal(t, 25, summary.TotalScanned)
	assert.Equal(t, 25, summary.TotalMatches)

	meta, ok := events[0].(*contracts.MetaEvent)
	require.True(t, ok, "first event must be meta, got %T", events[0])
	assert.Equal(t, 25, meta.Total)

	done, ok := events[len(events)-1].(*contracts.DoneEvent)
	require.True(t, ok, "last event must be done, got %T", events[len(events)-1])
	assert.Equal(t, 25, done.TotalScanned)
	assert.Equal(t, 25, done.TotalMatches)

	var progress []*contracts.ProgressEvent
	matches := 0
	for _, ev := range events[1 : len(events)-1] {
		switch evt := ev.(type) {
		case *contracts.ProgressEvent:
			progress = append(progress, evt)
		case *contracts.MatchEvent:
			matches++
		default:
			t.Fatalf("unexpected mid-stream event %T", ev)
		}
	}
	assert.Equal(t, 25, matches)
	// 25 assets -> progress at 10 and 20
	require.Len(t, progress, 2)
	assert.Equal(t, 10, progress[0].Current)
	assert.Equal(t, 20, progress[1].Current)
	assert.Less(t, progress[0].Current, progress[1].Current, "progress must be monotonic")
}

func TestScanIsolatesAssetErrors(t *testing.T) {
	panels := map[string]*contracts.Panel{
		"sh.600000": testPanel("sh.600000"),
		"sh.600002": testPanel("sh.600002"),
	}
	errs := map[string]error{"sh.600001": errors.New("gateway timeout")}
	e := newTestEngine(&fakePanels{panels: panels, errs: errs})

	pool := []contracts.PoolMember{{Code: "sh.600000"}, {Code: "sh.600001"}, {Code: "sh.600002"}}
	var events []interface{}
	summary, err := e.Scan(context.Background(), pool, day("2024-06-01"), []strategy.Strategy{&stubStrategy{key: "ma", match: true}}, func(ev interface{}) {
		events = append(events, ev)
	})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalScanned)
	assert.Equal(t, 2, summary.TotalMatches)

	var errEvents []*contracts.ErrorEvent
	for _, ev := range events {
		if ee, ok := ev.(*contracts.ErrorEvent); ok {
			errEvents = append(errEvents, ee)
		}
	}
	require.Len(t, errEvents, 1)
	assert.Equal(t, "sh.600001", errEvents[0].Code)
	assert.Contains(t, errEvents[0].Message, "gateway timeout")
}

func TestScanCancellation(t *testing.T) {
	panels := make(map[string]*contracts.Panel)
	pool := make([]contracts.PoolMember, 50)
	for i := range pool {
		code := fmt.Sprintf("sh.60%04d", i)
		pool[i] = contracts.PoolMember{Code: code}
		panels[code] = testPanel(code)
	}
	src := &fakePanels{panels: panels}
	e := newTestEngine(src)

	ctx, cancel := context.WithCancel(context.Background())
	scanned := 0
	_, err := e.Scan(ctx, pool, day("2024-06-01"), []strategy.Strategy{&stubStrategy{key: "ma", match: true}}, func(ev interface{}) {
		if _, ok := ev.(*contracts.MatchEvent); ok {
			scanned++
			if scanned == 5 {
				cancel()
			}
		}
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, src.calls, 50, "scan must stop fetching after cancellation")
}

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}
