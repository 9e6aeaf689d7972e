package contracts

// MatchRecord is the result of a successful AND-intersection of strategy
// evaluators for one asset on one scan date. It is only created when every
// requested evaluator matched; there is no partially populated form.
type MatchRecord struct {
	Code       string                 `json:"code"`
	Name       string                 `json:"name,omitempty"`
	Date       string                 `json:"date"` // YYYY-MM-DD
	Strategies []string               `json:"strategies"`
	Metrics    map[string]interface{} `json:"metrics"`
}

// PoolMember is one constituent of a stock pool
type PoolMember struct {
	Code string `json:"code"`
	Name string `json:"name,omitempty"`
}

// Scan stream events. Ordering contract: meta first, done last,
// progress/match/error interleaved in pool-iteration order.

// MetaEvent opens a scan stream
type MetaEvent struct {
	Type    string `json:"type"` // "meta"
	Total   int    `json:"total"`
	Message string `json:"message,omitempty"`
}

// ProgressEvent reports coarse scan progress
type ProgressEvent struct {
	Type    string `json:"type"` // "progress"
	Current int    `json:"current"`
	Total   int    `json:"total"`
}

// MatchEvent carries one match record
type MatchEvent struct {
	Type string       `json:"type"` // "match"
	Data *MatchRecord `json:"data"`
}

// ErrorEvent reports a per-asset failure; the scan continues
type ErrorEvent struct {
	Type    string `json:"type"` // "error"
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// DoneEvent closes a scan stream
type DoneEvent struct {
	Type         string `json:"type"` // "done"
	TotalScanned int    `json:"total_scanned"`
	TotalMatches int    `json:"total_matches"`
}

// ScanSummary is the terminal result of a batch scan
type ScanSummary struct {
	TotalScanned int            `json:"total_scanned"`
	TotalMatches int            `json:"total_matches"`
	Matches      []*MatchRecord `json:"matches"`
}
