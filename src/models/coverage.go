package models

// MCoverageStat is the completeness of one symbol's stored history.
type MCoverageStat struct {
	Symbol          string  `json:"symbol"`
	ExpectedMinutes float64 `json:"expected_minutes"`
	MissingMinutes  float64 `json:"missing_minutes"`
	PercentFilled   float64 `json:"percent_filled"`
	Gaps            int     `json:"gaps"`
	Err             string  `json:"error,omitempty"`
}
