package core

import (
	"time"

	"market-backfill/src/models"

	"github.com/shopspring/decimal"
)

var two = decimal.NewFromInt(2)

// -----------------------------------------------------------------------------

// Lerp returns a + (b - a) * i/total.
func Lerp(a, b decimal.Decimal, i, total int) decimal.Decimal {
	if total <= 0 {
		return a
	}
	t := decimal.NewFromInt(int64(i)).Div(decimal.NewFromInt(int64(total)))
	return a.Add(b.Sub(a).Mul(t))
}

// -----------------------------------------------------------------------------

// InterpolateBars synthesizes total minute bars starting at start, moving each
// OHLC field linearly from before towards after. Volume and trade count are
// zero; Average is the midpoint of open and close.
func InterpolateBars(symbol string, before, after models.MBar, start time.Time, total int, layout string) []models.MBar {
	if total <= 0 {
		return nil
	}

	bars := make([]models.MBar, 0, total)
	for i := 0; i < total; i++ {
		open := Lerp(before.Open, after.Open, i, total)
		closePrice := Lerp(before.Close, after.Close, i, total)

		bars = append(bars, models.MBar{
			Timestamp: start.Add(time.Duration(i) * time.Minute).Format(layout),
			Symbol:    symbol,
			Open:      open,
			High:      Lerp(before.High, after.High, i, total),
			Low:       Lerp(before.Low, after.Low, i, total),
			Close:     closePrice,
			Volume:    0,
			Average:   open.Add(closePrice).Div(two).InexactFloat64(),
			Total:     0,
		})
	}
	return bars
}
