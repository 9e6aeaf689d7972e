package contracts

// QuarterlyKind selects which quarterly report table to query
type QuarterlyKind string

const (
	QuarterlyProfit    QuarterlyKind = "profit"    // 季频盈利能力
	QuarterlyGrowth    QuarterlyKind = "growth"    // 季频成长能力
	QuarterlyBalance   QuarterlyKind = "balance"   // 季频偿债能力
	QuarterlyOperation QuarterlyKind = "operation" // 季频营运能力
)

// FundamentalSnapshot is one (asset, fiscal-year, quarter) disclosure record.
// Fields not covered by the queried kind stay zero; callers check the kind
// they asked for. Ratio fields arrive in the upstream's native unit, which
// for some sources is a fraction and for others a percentage.
type FundamentalSnapshot struct {
	Code    string `json:"code"`
	Year    int    `json:"year"`
	Quarter int    `json:"quarter"`
	PubDate string `json:"pubDate,omitempty"`

	// profit
	ROEAvg    float64 `json:"roeAvg,omitempty"`
	NPMargin  float64 `json:"npMargin,omitempty"`
	NetProfit float64 `json:"netProfit,omitempty"`

	// growth
	YOYNI     float64 `json:"YOYNI,omitempty"`
	YOYEquity float64 `json:"YOYEquity,omitempty"`
	YOYAsset  float64 `json:"YOYAsset,omitempty"`

	// balance
	LiabilityToAsset float64 `json:"liabilityToAsset,omitempty"`
	CurrentRatio     float64 `json:"currentRatio,omitempty"`
	QuickRatio       float64 `json:"quickRatio,omitempty"`

	// operation
	NRTurnRatio  float64 `json:"NRTurnRatio,omitempty"`
	INVTurnRatio float64 `json:"invTurnRatio,omitempty"`
}
