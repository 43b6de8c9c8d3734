package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MBar is one stored minute of trading for one symbol.
// Identity is (Timestamp, Symbol).
type MBar struct {
	Timestamp string          `json:"timestamp"` // local time, "2006-01-02 15:04"
	Symbol    string          `json:"symbol"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    int64           `json:"volume"`
	Average   float64         `json:"average"`
	Total     int64           `json:"total"` // trade count
}

// MSourceBar is a bar as returned by an upstream source, before localisation.
type MSourceBar struct {
	Timestamp  time.Time       `json:"t"` // UTC
	Open       decimal.Decimal `json:"o"`
	High       decimal.Decimal `json:"h"`
	Low        decimal.Decimal `json:"l"`
	Close      decimal.Decimal `json:"c"`
	Volume     int64           `json:"v"`
	VWAP       float64         `json:"vw"`
	TradeCount int64           `json:"n"`
}
