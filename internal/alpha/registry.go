// Package alpha holds the factor-formula engine: a static catalog of
// named alpha factors computed from a single asset's daily panel through
// the ops operator library.
//
// Rank semantics: with single-asset history there is no cross-section, so
// every factor here uses the time-series Rank approximation (percentile of
// the current value within its own trailing lookback). The catalog never
// switches semantics mid-series.
package alpha

import (
	"fmt"
	"sort"

	"github.com/xzemt/omnialpha/internal/contracts"
)

// Descriptor describes one catalog entry
// ⭐ SSOT: 因子目录只在这里定义, 不用反射枚举
type Descriptor struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
	// Lookback is the number of trailing bars the formula needs before
	// it can emit a non-NaN value.
	Lookback int `json:"lookback"`

	Compute func(in *Inputs) []float64 `json:"-"`
}

// Get returns the descriptor for a factor key
func Get(key string) (Descriptor, bool) {
	d, ok := catalog[key]
	return d, ok
}

// Keys returns all factor keys in ascending order
func Keys() []string {
	keys := make([]string, 0, len(catalog))
	for k := range catalog {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// List returns all descriptors ordered by key
func List() []Descriptor {
	keys := Keys()
	out := make([]Descriptor, 0, len(keys))
	for _, k := range keys {
		out = append(out, catalog[k])
	}
	return out
}

// Compute evaluates one factor against a panel. The output has one value
// (or NaN) per input bar.
func Compute(key string, panel *contracts.Panel) ([]float64, error) {
	d, ok := catalog[key]
	if !ok {
		return nil, fmt.Errorf("unknown factor %q", key)
	}
	return d.Compute(NewInputs(panel)), nil
}

// Inputs are the panel columns a formula reads. Extracted once so a
// run-all batch does not recompute them per factor.
type Inputs struct {
	Open    []float64
	High    []float64
	Low     []float64
	Close   []float64
	Volume  []float64
	Amount  []float64
	VWAP    []float64
	Returns []float64
}

// NewInputs extracts formula inputs from a panel
func NewInputs(p *contracts.Panel) *Inputs {
	return &Inputs{
		Open:    p.Opens(),
		High:    p.Highs(),
		Low:     p.Lows(),
		Close:   p.Closes(),
		Volume:  p.Volumes(),
		Amount:  p.Amounts(),
		VWAP:    p.VWAPs(),
		Returns: p.Returns(),
	}
}

// Len returns the series length
func (in *Inputs) Len() int {
	return len(in.Close)
}
