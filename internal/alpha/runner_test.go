package alpha

import (
	"context"
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAllFullCatalog(t *testing.T) {
	p := syntheticPanel(160)

	table, err := RunAll(context.Background(), p, nil)
	require.NoError(t, err)

	assert.Equal(t, "sh.600000", table.Code)
	assert.Len(t, table.Dates, 160)
	assert.Equal(t, Keys(), table.Keys)
	assert.Empty(t, table.Failures)

	for _, key := range table.Keys {
		col, ok := table.Columns[key]
		require.True(t, ok, "missing column %s", key)
		assert.Len(t, col, 160, "column %s misaligned", key)
	}
}

func TestRunAllUnknownKeyIsolated(t *testing.T) {
	p := syntheticPanel(60)

	table, err := RunAll(context.Background(), p, []string{"alpha014", "alpha999"})
	require.NoError(t, err)

	require.Contains(t, table.Failures, "alpha999")
	assert.NotContains(t, table.Failures, "alpha014")

	// the failed column is present and all NaN
	col := table.Columns["alpha999"]
	require.Len(t, col, 60)
	for _, v := range col {
		assert.True(t, math.IsNaN(v))
	}

	// the good column is unaffected
	good := table.Columns["alpha014"]
	require.Len(t, good, 60)
	assert.False(t, math.IsNaN(good[59]))
}

func TestRunAllEmptyPanel(t *testing.T) {
	_, err := RunAll(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestRunAllCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunAll(ctx, syntheticPanel(160), nil)
	assert.Error(t, err)
}

func TestComputeSafelyRecoversPanic(t *testing.T) {
	d := Descriptor{
		Key: "boom",
		Compute: func(in *Inputs) []float64 {
			panic("formula bug")
		},
	}
	in := NewInputs(syntheticPanel(10))

	col, err := computeSafely(d, in)
	require.Error(t, err)
	require.Len(t, col, 10)
	for _, v := range col {
		assert.True(t, math.IsNaN(v))
	}
}

func TestWriteArtifacts(t *testing.T) {
	dir := t.TempDir()
	p := syntheticPanel(30) // starts 2024-01-02, all in 2024

	table, err := RunAll(context.Background(), p, []string{"alpha014"})
	require.NoError(t, err)

	require.NoError(t, WriteArtifacts(dir, "sh.600000", table))

	path := filepath.Join(dir, "alphas", "sh.600000", "2024", "alpha014.csv")
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	recs, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Equal(t, []string{"date", "value"}, recs[0])
	assert.Len(t, recs, 31) // header + 30 rows

	// warm-up rows carry empty values, later rows carry numbers
	assert.Equal(t, "2024-01-02", recs[1][0])
	assert.Empty(t, recs[1][1])
	assert.NotEmpty(t, recs[30][1])
}
