package alpha

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xzemt/omnialpha/internal/contracts"
)

// ResultTable holds a batch run: one column per factor, aligned to the
// panel's dates. Failed factors appear in Failures with an all-NaN column.
type ResultTable struct {
	Code     string
	Dates    []time.Time
	Keys     []string
	Columns  map[string][]float64
	Failures map[string]error
}

// RunAll computes every requested factor against one panel with a worker
// pool sized to the CPU count. A panic or error in one formula fills that
// column with NaN and records the failure; it never aborts the batch.
// ⭐ SSOT: 批量计算的并发上限只在这里设定
func RunAll(ctx context.Context, panel *contracts.Panel, keys []string) (*ResultTable, error) {
	if panel == nil || panel.Len() == 0 {
		return nil, fmt.Errorf("run all factors: empty panel")
	}
	if len(keys) == 0 {
		keys = Keys()
	}

	in := NewInputs(panel)
	table := &ResultTable{
		Code:     panel.Code,
		Dates:    panel.Dates(),
		Keys:     append([]string(nil), keys...),
		Columns:  make(map[string][]float64, len(keys)),
		Failures: make(map[string]error),
	}
	sort.Strings(table.Keys)

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for _, key := range table.Keys {
		d, ok := catalog[key]
		if !ok {
			mu.Lock()
			table.Columns[key] = nanColumn(panel.Len())
			table.Failures[key] = fmt.Errorf("unknown factor %q", key)
			mu.Unlock()
			continue
		}

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			col, err := computeSafely(d, in)

			mu.Lock()
			table.Columns[d.Key] = col
			if err != nil {
				table.Failures[d.Key] = err
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return table, nil
}

// computeSafely isolates formula panics so one bad factor cannot take
// down the batch.
func computeSafely(d Descriptor, in *Inputs) (col []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			col = nanColumn(in.Len())
			err = fmt.Errorf("factor %s panicked: %v", d.Key, r)
		}
	}()

	col = d.Compute(in)
	if len(col) != in.Len() {
		return nanColumn(in.Len()), fmt.Errorf("factor %s returned %d values for %d bars", d.Key, len(col), in.Len())
	}
	return col, nil
}

func nanColumn(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// WriteArtifacts persists a result table as one CSV per factor per year
// under <dataDir>/alphas/<catalog>/<year>/<key>.csv with columns
// date,value. NaN values are written as empty cells.
func WriteArtifacts(dataDir, catalog string, table *ResultTable) error {
	type bucket struct {
		year int
		key  string
	}
	rows := make(map[bucket][][]string)

	for _, key := range table.Keys {
		col, ok := table.Columns[key]
		if !ok {
			continue
		}
		for i, d := range table.Dates {
			b := bucket{year: d.Year(), key: key}
			val := ""
			if !math.IsNaN(col[i]) {
				val = strconv.FormatFloat(col[i], 'f', -1, 64)
			}
			rows[b] = append(rows[b], []string{d.Format("2006-01-02"), val})
		}
	}

	for b, recs := range rows {
		dir := filepath.Join(dataDir, "alphas", catalog, strconv.Itoa(b.year))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create artifact dir: %w", err)
		}
		if err := writeArtifactFile(filepath.Join(dir, b.key+".csv"), recs); err != nil {
			return err
		}
	}
	return nil
}

func writeArtifactFile(path string, recs [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create artifact %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"date", "value"}); err != nil {
		return fmt.Errorf("write artifact header: %w", err)
	}
	if err := w.WriteAll(recs); err != nil {
		return fmt.Errorf("write artifact rows: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush artifact %s: %w", path, err)
	}
	return nil
}
