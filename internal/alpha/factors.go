package alpha

import (
	"math"

	"github.com/xzemt/omnialpha/internal/alpha/ops"
)

// GTJA-style formula catalog. Formulas are deterministic compositions of
// the ops operators over one panel's columns; none mutates its inputs or
// reads external state. Keys are stable identifiers served by the API.
var catalog = map[string]Descriptor{
	"alpha001": {
		Key: "alpha001", Name: "ALPHA001",
		Description: "-1*CORR(RANK(DELTA(LOG(VOLUME),1)),RANK((CLOSE-OPEN)/OPEN),6)",
		Lookback:    30, Compute: alpha001,
	},
	"alpha002": {
		Key: "alpha002", Name: "ALPHA002",
		Description: "-1*DELTA(((CLOSE-LOW)-(HIGH-CLOSE))/(HIGH-LOW),1)",
		Lookback:    2, Compute: alpha002,
	},
	"alpha003": {
		Key: "alpha003", Name: "ALPHA003",
		Description: "SUM(CLOSE vs bounded prior close, 6)",
		Lookback:    7, Compute: alpha003,
	},
	"alpha004": {
		Key: "alpha004", Name: "ALPHA004",
		Description: "band vs short mean regime switch with volume confirm",
		Lookback:    20, Compute: alpha004,
	},
	"alpha005": {
		Key: "alpha005", Name: "ALPHA005",
		Description: "-1*TSMAX(CORR(TSRANK(VOLUME,5),TSRANK(HIGH,5),5),3)",
		Lookback:    12, Compute: alpha005,
	},
	"alpha006": {
		Key: "alpha006", Name: "ALPHA006",
		Description: "-1*RANK(SIGN(DELTA(OPEN*0.85+HIGH*0.15,4)))",
		Lookback:    15, Compute: alpha006,
	},
	"alpha009": {
		Key: "alpha009", Name: "ALPHA009",
		Description: "SMA(midpoint drift * range / volume, 7, 2)",
		Lookback:    8, Compute: alpha009,
	},
	"alpha011": {
		Key: "alpha011", Name: "ALPHA011",
		Description: "SUM(((CLOSE-LOW)-(HIGH-CLOSE))/(HIGH-LOW)*VOLUME,6)",
		Lookback:    6, Compute: alpha011,
	},
	"alpha012": {
		Key: "alpha012", Name: "ALPHA012",
		Description: "RANK(OPEN-MA(VWAP,10)) * -RANK(ABS(CLOSE-VWAP))",
		Lookback:    20, Compute: alpha012,
	},
	"alpha013": {
		Key: "alpha013", Name: "ALPHA013",
		Description: "SQRT(HIGH*LOW)-VWAP",
		Lookback:    1, Compute: alpha013,
	},
	"alpha014": {
		Key: "alpha014", Name: "ALPHA014",
		Description: "CLOSE-DELAY(CLOSE,5)",
		Lookback:    6, Compute: alpha014,
	},
	"alpha015": {
		Key: "alpha015", Name: "ALPHA015",
		Description: "OPEN/DELAY(CLOSE,1)-1",
		Lookback:    2, Compute: alpha015,
	},
	"alpha018": {
		Key: "alpha018", Name: "ALPHA018",
		Description: "CLOSE/DELAY(CLOSE,5)",
		Lookback:    6, Compute: alpha018,
	},
	"alpha020": {
		Key: "alpha020", Name: "ALPHA020",
		Description: "(CLOSE-DELAY(CLOSE,6))/DELAY(CLOSE,6)*100",
		Lookback:    7, Compute: alpha020,
	},
	"alpha024": {
		Key: "alpha024", Name: "ALPHA024",
		Description: "SMA(CLOSE-DELAY(CLOSE,5),5,1)",
		Lookback:    6, Compute: alpha024,
	},
	"alpha029": {
		Key: "alpha029", Name: "ALPHA029",
		Description: "(CLOSE-DELAY(CLOSE,6))/DELAY(CLOSE,6)*VOLUME",
		Lookback:    7, Compute: alpha029,
	},
	"alpha031": {
		Key: "alpha031", Name: "ALPHA031",
		Description: "(CLOSE-MEAN(CLOSE,12))/MEAN(CLOSE,12)*100",
		Lookback:    12, Compute: alpha031,
	},
	"alpha034": {
		Key: "alpha034", Name: "ALPHA034",
		Description: "MEAN(CLOSE,12)/CLOSE",
		Lookback:    12, Compute: alpha034,
	},
	"alpha035": {
		Key: "alpha035", Name: "ALPHA035",
		Description: "-MIN(RANK(DECAYLINEAR(DELTA(OPEN,1),15)),RANK(DECAYLINEAR(CORR(VOLUME,OPEN,17),7)))",
		Lookback:    40, Compute: alpha035,
	},
	"alpha040": {
		Key: "alpha040", Name: "ALPHA040",
		Description: "up-volume / down-volume ratio over 26 days * 100",
		Lookback:    27, Compute: alpha040,
	},
	"alpha042": {
		Key: "alpha042", Name: "ALPHA042",
		Description: "-1*RANK(STD(HIGH,10))*CORR(HIGH,VOLUME,10)",
		Lookback:    25, Compute: alpha042,
	},
	"alpha046": {
		Key: "alpha046", Name: "ALPHA046",
		Description: "(MEAN(CLOSE,3)+MEAN(CLOSE,6)+MEAN(CLOSE,12)+MEAN(CLOSE,24))/(4*CLOSE)",
		Lookback:    24, Compute: alpha046,
	},
	"alpha053": {
		Key: "alpha053", Name: "ALPHA053",
		Description: "COUNT(CLOSE>DELAY(CLOSE,1),12)/12*100",
		Lookback:    13, Compute: alpha053,
	},
	"alpha057": {
		Key: "alpha057", Name: "ALPHA057",
		Description: "SMA((CLOSE-TSMIN(LOW,9))/(TSMAX(HIGH,9)-TSMIN(LOW,9))*100,3,1)",
		Lookback:    9, Compute: alpha057,
	},
	"alpha065": {
		Key: "alpha065", Name: "ALPHA065",
		Description: "MEAN(CLOSE,6)/CLOSE",
		Lookback:    6, Compute: alpha065,
	},
	"alpha070": {
		Key: "alpha070", Name: "ALPHA070",
		Description: "STD(AMOUNT,6)",
		Lookback:    6, Compute: alpha070,
	},
	"alpha078": {
		Key: "alpha078", Name: "ALPHA078",
		Description: "CCI-style typical-price deviation over 12 days",
		Lookback:    24, Compute: alpha078,
	},
	"alpha096": {
		Key: "alpha096", Name: "ALPHA096",
		Description: "double-smoothed stochastic SMA(SMA(K,3,1),3,1)",
		Lookback:    12, Compute: alpha096,
	},
	"alpha102": {
		Key: "alpha102", Name: "ALPHA102",
		Description: "SMA(MAX(VOLUME-DELAY(VOLUME,1),0),6,1)/SMA(ABS(VOLUME-DELAY(VOLUME,1)),6,1)*100",
		Lookback:    7, Compute: alpha102,
	},
	"alpha106": {
		Key: "alpha106", Name: "ALPHA106",
		Description: "CLOSE-DELAY(CLOSE,20)",
		Lookback:    21, Compute: alpha106,
	},
	"alpha116": {
		Key: "alpha116", Name: "ALPHA116",
		Description: "REGBETA(CLOSE,SEQUENCE(20))",
		Lookback:    20, Compute: alpha116,
	},
	"alpha167": {
		Key: "alpha167", Name: "ALPHA167",
		Description: "SUM(positive one-day close changes, 12)",
		Lookback:    13, Compute: alpha167,
	},
	"alpha177": {
		Key: "alpha177", Name: "ALPHA177",
		Description: "((20-HIGHDAY(HIGH,20))/20)*100",
		Lookback:    20, Compute: alpha177,
	},
	"alpha178": {
		Key: "alpha178", Name: "ALPHA178",
		Description: "(CLOSE-DELAY(CLOSE,1))/DELAY(CLOSE,1)*VOLUME",
		Lookback:    2, Compute: alpha178,
	},
	"alpha189": {
		Key: "alpha189", Name: "ALPHA189",
		Description: "MEAN(ABS(CLOSE-MEAN(CLOSE,6)),6)",
		Lookback:    12, Compute: alpha189,
	},
}

func alpha001(in *Inputs) []float64 {
	left := ops.Rank(ops.Delta(ops.Log(in.Volume), 1))
	right := ops.Rank(ops.Div(ops.Sub(in.Close, in.Open), in.Open))
	return ops.Scale(ops.Corr(left, right, 6), -1)
}

func alpha002(in *Inputs) []float64 {
	num := ops.Sub(ops.Sub(in.Close, in.Low), ops.Sub(in.High, in.Close))
	return ops.Scale(ops.Delta(ops.Div(num, ops.Sub(in.High, in.Low)), 1), -1)
}

func alpha003(in *Inputs) []float64 {
	prev := ops.Delay(in.Close, 1)
	part := make([]float64, in.Len())
	for i := range part {
		c, p := in.Close[i], prev[i]
		switch {
		case math.IsNaN(p):
			part[i] = math.NaN()
		case c == p:
			part[i] = 0
		case c > p:
			part[i] = c - math.Min(in.Low[i], p)
		default:
			part[i] = c - math.Max(in.High[i], p)
		}
	}
	return ops.Sum(part, 6)
}

func alpha004(in *Inputs) []float64 {
	band := ops.Add(ops.Mean(in.Close, 8), ops.Std(in.Close, 8))
	short := ops.Mean(in.Close, 2)
	volRatio := ops.Div(in.Volume, ops.Mean(in.Volume, 20))

	out := make([]float64, in.Len())
	for i := range out {
		b, s, v := band[i], short[i], volRatio[i]
		if math.IsNaN(b) || math.IsNaN(s) {
			out[i] = math.NaN()
			continue
		}
		switch {
		case b < s:
			out[i] = -1
		case b > s:
			out[i] = 1
		default:
			if !math.IsNaN(v) && v >= 1 {
				out[i] = 1
			} else {
				out[i] = -1
			}
		}
	}
	return out
}

func alpha005(in *Inputs) []float64 {
	c := ops.Corr(ops.Tsrank(in.Volume, 5), ops.Tsrank(in.High, 5), 5)
	return ops.Scale(ops.Tsmax(c, 3), -1)
}

func alpha006(in *Inputs) []float64 {
	blend := ops.Add(ops.Scale(in.Open, 0.85), ops.Scale(in.High, 0.15))
	return ops.Scale(ops.Rank(ops.Sign(ops.Delta(blend, 4))), -1)
}

func alpha009(in *Inputs) []float64 {
	mid := ops.Scale(ops.Add(in.High, in.Low), 0.5)
	prevMid := ops.Scale(ops.Add(ops.Delay(in.High, 1), ops.Delay(in.Low, 1)), 0.5)
	drift := ops.Sub(mid, prevMid)
	rangeOverVol := ops.Div(ops.Sub(in.High, in.Low), in.Volume)
	return ops.Sma(ops.Mul(drift, rangeOverVol), 7, 2)
}

func alpha011(in *Inputs) []float64 {
	num := ops.Sub(ops.Sub(in.Close, in.Low), ops.Sub(in.High, in.Close))
	return ops.Sum(ops.Mul(ops.Div(num, ops.Sub(in.High, in.Low)), in.Volume), 6)
}

func alpha012(in *Inputs) []float64 {
	left := ops.Rank(ops.Sub(in.Open, ops.Mean(in.VWAP, 10)))
	right := ops.Scale(ops.Rank(ops.Abs(ops.Sub(in.Close, in.VWAP))), -1)
	return ops.Mul(left, right)
}

func alpha013(in *Inputs) []float64 {
	root := make([]float64, in.Len())
	for i := range root {
		hl := in.High[i] * in.Low[i]
		if hl < 0 || math.IsNaN(hl) {
			root[i] = math.NaN()
			continue
		}
		root[i] = math.Sqrt(hl)
	}
	return ops.Sub(root, in.VWAP)
}

func alpha014(in *Inputs) []float64 {
	return ops.Sub(in.Close, ops.Delay(in.Close, 5))
}

func alpha015(in *Inputs) []float64 {
	return ops.Shift(ops.Div(in.Open, ops.Delay(in.Close, 1)), -1)
}

func alpha018(in *Inputs) []float64 {
	return ops.Div(in.Close, ops.Delay(in.Close, 5))
}

func alpha020(in *Inputs) []float64 {
	prev := ops.Delay(in.Close, 6)
	return ops.Scale(ops.Div(ops.Sub(in.Close, prev), prev), 100)
}

func alpha024(in *Inputs) []float64 {
	return ops.Sma(ops.Sub(in.Close, ops.Delay(in.Close, 5)), 5, 1)
}

func alpha029(in *Inputs) []float64 {
	prev := ops.Delay(in.Close, 6)
	return ops.Mul(ops.Div(ops.Sub(in.Close, prev), prev), in.Volume)
}

func alpha031(in *Inputs) []float64 {
	ma := ops.Mean(in.Close, 12)
	return ops.Scale(ops.Div(ops.Sub(in.Close, ma), ma), 100)
}

func alpha034(in *Inputs) []float64 {
	return ops.Div(ops.Mean(in.Close, 12), in.Close)
}

func alpha035(in *Inputs) []float64 {
	left := ops.Rank(ops.Decaylinear(ops.Delta(in.Open, 1), 15))
	right := ops.Rank(ops.Decaylinear(ops.Corr(in.Volume, in.Open, 17), 7))
	return ops.Scale(ops.MinOf(left, right), -1)
}

func alpha040(in *Inputs) []float64 {
	prev := ops.Delay(in.Close, 1)
	up := gt(in.Close, prev)
	down := not(up)
	ratio := ops.Div(ops.Sumif(in.Volume, 26, up), ops.Sumif(in.Volume, 26, down))
	return ops.Scale(ratio, 100)
}

func alpha042(in *Inputs) []float64 {
	left := ops.Scale(ops.Rank(ops.Std(in.High, 10)), -1)
	return ops.Mul(left, ops.Corr(in.High, in.Volume, 10))
}

func alpha046(in *Inputs) []float64 {
	sum := ops.Add(ops.Add(ops.Mean(in.Close, 3), ops.Mean(in.Close, 6)),
		ops.Add(ops.Mean(in.Close, 12), ops.Mean(in.Close, 24)))
	return ops.Div(sum, ops.Scale(in.Close, 4))
}

func alpha053(in *Inputs) []float64 {
	up := gt(in.Close, ops.Delay(in.Close, 1))
	return ops.Scale(ops.Count(up, 12), 100.0/12.0)
}

func alpha057(in *Inputs) []float64 {
	lo9 := ops.Tsmin(in.Low, 9)
	k := ops.Div(ops.Sub(in.Close, lo9), ops.Sub(ops.Tsmax(in.High, 9), lo9))
	return ops.Sma(ops.Scale(k, 100), 3, 1)
}

func alpha065(in *Inputs) []float64 {
	return ops.Div(ops.Mean(in.Close, 6), in.Close)
}

func alpha070(in *Inputs) []float64 {
	return ops.Std(in.Amount, 6)
}

func alpha078(in *Inputs) []float64 {
	tp := ops.Scale(ops.Add(ops.Add(in.High, in.Low), in.Close), 1.0/3.0)
	ma := ops.Mean(tp, 12)
	dev := ops.Scale(ops.Mean(ops.Abs(ops.Sub(in.Close, ma)), 12), 0.015)
	return ops.Div(ops.Sub(tp, ma), dev)
}

func alpha096(in *Inputs) []float64 {
	return ops.Sma(alpha057(in), 3, 1)
}

func alpha102(in *Inputs) []float64 {
	dv := ops.Delta(in.Volume, 1)
	gains := ops.MaxOf(dv, zeros(in.Len()))
	ratio := ops.Div(ops.Sma(gains, 6, 1), ops.Sma(ops.Abs(dv), 6, 1))
	return ops.Scale(ratio, 100)
}

func alpha106(in *Inputs) []float64 {
	return ops.Sub(in.Close, ops.Delay(in.Close, 20))
}

func alpha116(in *Inputs) []float64 {
	return ops.Regbeta(in.Close, ops.Sequence(20))
}

func alpha167(in *Inputs) []float64 {
	d := ops.Delta(in.Close, 1)
	return ops.Sumif(d, 12, gt(d, zeros(in.Len())))
}

func alpha177(in *Inputs) []float64 {
	return ops.Scale(ops.Sub(full(in.Len(), 20), ops.Highday(in.High, 20)), 100.0/20.0)
}

func alpha178(in *Inputs) []float64 {
	prev := ops.Delay(in.Close, 1)
	return ops.Mul(ops.Div(ops.Sub(in.Close, prev), prev), in.Volume)
}

func alpha189(in *Inputs) []float64 {
	return ops.Mean(ops.Abs(ops.Sub(in.Close, ops.Mean(in.Close, 6))), 6)
}

// helpers for conditional formulas

func gt(a, b []float64) []bool {
	out := make([]bool, len(a))
	for i := range a {
		if i < len(b) && !math.IsNaN(a[i]) && !math.IsNaN(b[i]) {
			out[i] = a[i] > b[i]
		}
	}
	return out
}

func not(cond []bool) []bool {
	out := make([]bool, len(cond))
	for i, c := range cond {
		out[i] = !c
	}
	return out
}

func zeros(n int) []float64 {
	return make([]float64, n)
}

func full(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
