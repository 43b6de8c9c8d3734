package core

import (
	"testing"
	"time"

	"market-backfill/src/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatBar(price int64) models.MBar {
	p := decimal.NewFromInt(price)
	return models.MBar{Open: p, High: p, Low: p, Close: p, Volume: 1000, Total: 12}
}

func TestLerp(t *testing.T) {
	a := decimal.NewFromInt(100)
	b := decimal.NewFromInt(110)

	assert.True(t, Lerp(a, b, 0, 10).Equal(a))
	assert.True(t, Lerp(a, b, 5, 10).Equal(decimal.NewFromInt(105)))
	assert.True(t, Lerp(a, b, 3, 0).Equal(a))
	assert.Equal(t, "101.5", Lerp(a, b, 3, 20).String())
}

func TestInterpolateBars_TenMinuteGap(t *testing.T) {
	start := time.Date(2024, 7, 2, 16, 0, 0, 0, time.UTC)
	bars := InterpolateBars("TEST", flatBar(100), flatBar(110), start, 10, "2006-01-02 15:04")

	require.Len(t, bars, 10)
	assert.Equal(t, "2024-07-02 16:00", bars[0].Timestamp)
	assert.Equal(t, "2024-07-02 16:09", bars[9].Timestamp)

	assert.True(t, bars[0].Close.Equal(decimal.NewFromInt(100)))
	assert.True(t, bars[5].Close.Equal(decimal.NewFromInt(105)), "minute 5 close = %s", bars[5].Close)
	assert.True(t, bars[9].Close.Equal(decimal.NewFromInt(109)))

	for _, b := range bars {
		assert.Equal(t, "TEST", b.Symbol)
		assert.Zero(t, b.Volume)
		assert.Zero(t, b.Total)
		assert.InDelta(t, b.Open.Add(b.Close).InexactFloat64()/2, b.Average, 1e-9)
	}
}

func TestInterpolateBars_FieldsIndependent(t *testing.T) {
	before := models.MBar{
		Open: decimal.NewFromInt(10), High: decimal.NewFromInt(20),
		Low: decimal.NewFromInt(5), Close: decimal.NewFromInt(15),
	}
	after := models.MBar{
		Open: decimal.NewFromInt(30), High: decimal.NewFromInt(20),
		Low: decimal.NewFromInt(25), Close: decimal.NewFromInt(15),
	}

	bars := InterpolateBars("X", before, after, time.Now(), 2, "2006-01-02 15:04")
	require.Len(t, bars, 2)
	assert.True(t, bars[1].Open.Equal(decimal.NewFromInt(20)))
	assert.True(t, bars[1].High.Equal(decimal.NewFromInt(20)))
	assert.True(t, bars[1].Low.Equal(decimal.NewFromInt(15)))
	assert.True(t, bars[1].Close.Equal(decimal.NewFromInt(15)))
	assert.InDelta(t, 17.5, bars[1].Average, 1e-9)
}

func TestInterpolateBars_EmptyGap(t *testing.T) {
	assert.Empty(t, InterpolateBars("X", flatBar(1), flatBar(2), time.Now(), 0, "2006-01-02 15:04"))
}
