package datasource

import (
	"context"
	"errors"
	"testing"
	"time"

	"market-backfill/src/interfaces"
	"market-backfill/src/logger"
	"market-backfill/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	name  string
	bars  []models.MSourceBar
	err   error
	calls int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) FetchBars(ctx context.Context, symbol string, start, end time.Time) ([]models.MSourceBar, error) {
	s.calls++
	return s.bars, s.err
}

func TestFetchBars_FailsOverInOrder(t *testing.T) {
	first := &stubSource{name: "a", err: errors.New("503")}
	second := &stubSource{name: "b", bars: []models.MSourceBar{{Timestamp: time.Unix(0, 0).UTC()}}}
	third := &stubSource{name: "c"}

	m := NewMultiSourceManager(nil, logger.NewNop())
	require.NoError(t, m.AddSource(first))
	require.NoError(t, m.AddSource(second))
	require.NoError(t, m.AddSource(third))
	assert.Error(t, m.AddSource(&stubSource{name: "a"}))

	bars, err := m.FetchBars(context.Background(), "AAPL", time.Now(), time.Now())
	require.NoError(t, err)
	assert.Len(t, bars, 1)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
	assert.Zero(t, third.calls)
}

func TestFetchBars_AllFail(t *testing.T) {
	m := NewMultiSourceManager([]interfaces.IBarSource{
		&stubSource{name: "a", err: errors.New("down")},
		&stubSource{name: "b", err: errors.New("also down")},
	}, logger.NewNop())

	_, err := m.FetchBars(context.Background(), "AAPL", time.Now(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "also down")
}

func TestNewSourcesFromConfig(t *testing.T) {
	sources, err := NewSourcesFromConfig([]models.MSourceConfig{
		{Name: "primary", Type: "alpaca"},
		{Name: "backup", Type: "polygon"},
	}, nil, logger.NewNop())
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "primary", sources[0].Name())
	assert.Equal(t, "backup", sources[1].Name())

	_, err = NewSourcesFromConfig([]models.MSourceConfig{{Name: "x", Type: "yahoo"}}, nil, logger.NewNop())
	assert.Error(t, err)
}
