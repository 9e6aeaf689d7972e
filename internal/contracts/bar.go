package contracts

import (
	"fmt"
	"math"
	"time"
)

// Bar is one asset's trading-day snapshot
// ⭐ SSOT: 日线数据结构只在这里定义
type Bar struct {
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
	Amount   float64   `json:"amount"`
	Turnover float64   `json:"turnover"` // percent
	PctChg   float64   `json:"pctChg"`   // percent
	PeTTM    float64   `json:"peTTM,omitempty"`
	PbMRQ    float64   `json:"pbMRQ,omitempty"`
	IsST     bool      `json:"isST,omitempty"`
}

// VWAP returns amount/volume, falling back to close when volume is zero.
// Zero-volume sessions must not leak Inf into factor inputs.
func (b Bar) VWAP() float64 {
	if b.Volume > 0 {
		return b.Amount / b.Volume
	}
	return b.Close
}

// Panel is an ordered-by-date sequence of Bars for one asset
type Panel struct {
	Code string `json:"code"`
	Bars []Bar  `json:"bars"`
}

// Len returns the number of bars
func (p *Panel) Len() int {
	return len(p.Bars)
}

// Last returns the most recent bar, the zero Bar on an empty panel.
// Callers gate on Len() first.
func (p *Panel) Last() Bar {
	if len(p.Bars) == 0 {
		return Bar{}
	}
	return p.Bars[len(p.Bars)-1]
}

// Validate checks the panel invariant: dates strictly increasing,
// no duplicate dates, volume never negative.
func (p *Panel) Validate() error {
	for i, b := range p.Bars {
		if b.Volume < 0 {
			return fmt.Errorf("panel %s: negative volume on %s", p.Code, b.Date.Format("2006-01-02"))
		}
		if i == 0 {
			continue
		}
		if !p.Bars[i-1].Date.Before(b.Date) {
			return fmt.Errorf("panel %s: dates not strictly increasing at index %d", p.Code, i)
		}
	}
	return nil
}

// Dates returns the date column
func (p *Panel) Dates() []time.Time {
	out := make([]time.Time, len(p.Bars))
	for i, b := range p.Bars {
		out[i] = b.Date
	}
	return out
}

// Opens returns the open column
func (p *Panel) Opens() []float64 {
	return p.column(func(b Bar) float64 { return b.Open })
}

// Highs returns the high column
func (p *Panel) Highs() []float64 {
	return p.column(func(b Bar) float64 { return b.High })
}

// Lows returns the low column
func (p *Panel) Lows() []float64 {
	return p.column(func(b Bar) float64 { return b.Low })
}

// Closes returns the close column
func (p *Panel) Closes() []float64 {
	return p.column(func(b Bar) float64 { return b.Close })
}

// Volumes returns the volume column
func (p *Panel) Volumes() []float64 {
	return p.column(func(b Bar) float64 { return b.Volume })
}

// Amounts returns the amount column
func (p *Panel) Amounts() []float64 {
	return p.column(func(b Bar) float64 { return b.Amount })
}

// Turnovers returns the turnover column (percent)
func (p *Panel) Turnovers() []float64 {
	return p.column(func(b Bar) float64 { return b.Turnover })
}

// VWAPs returns the derived vwap column
func (p *Panel) VWAPs() []float64 {
	return p.column(func(b Bar) float64 { return b.VWAP() })
}

// Returns returns the simple percentage return series close_t/close_{t-1}-1;
// the first entry is NaN.
func (p *Panel) Returns() []float64 {
	out := make([]float64, len(p.Bars))
	for i := range p.Bars {
		if i == 0 || p.Bars[i-1].Close == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = p.Bars[i].Close/p.Bars[i-1].Close - 1
	}
	return out
}

// SliceRange returns bars with start <= date <= end
func (p *Panel) SliceRange(start, end time.Time) *Panel {
	out := &Panel{Code: p.Code}
	for _, b := range p.Bars {
		if b.Date.Before(start) || b.Date.After(end) {
			continue
		}
		out.Bars = append(out.Bars, b)
	}
	return out
}

func (p *Panel) column(get func(Bar) float64) []float64 {
	out := make([]float64, len(p.Bars))
	for i, b := range p.Bars {
		out[i] = get(b)
	}
	return out
}
