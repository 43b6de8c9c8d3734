package polygon

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"time"

	"market-backfill/src/helpers"
	"market-backfill/src/interfaces"
	"market-backfill/src/logger"
	"market-backfill/src/models"

	"github.com/shopspring/decimal"
)

const (
	DefaultBaseURL = "https://api.polygon.io"
	pageLimit      = 50000
	maxPages       = 10000
)

// aggregatesResponse is the aggregates endpoint payload; next_url is absolute.
type aggregatesResponse struct {
	Ticker       string   `json:"ticker"`
	Status       string   `json:"status"`
	ResultsCount int      `json:"resultsCount"`
	Results      []aggBar `json:"results"`
	NextURL      string   `json:"next_url,omitempty"`
	Error        string   `json:"error,omitempty"`
}

type aggBar struct {
	Timestamp    int64           `json:"t"` // epoch millis
	Open         decimal.Decimal `json:"o"`
	High         decimal.Decimal `json:"h"`
	Low          decimal.Decimal `json:"l"`
	Close        decimal.Decimal `json:"c"`
	Volume       float64         `json:"v"` // may arrive in scientific notation
	VWAP         float64         `json:"vw"`
	Transactions int64           `json:"n"`
}

// -----------------------------------------------------------------------------

type PolygonSource struct {
	SourceConfig models.MSourceConfig
	Network      interfaces.INetworkManager
	Logger       *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPolygonSource(sourceCfg models.MSourceConfig, netMgr interfaces.INetworkManager, log *logger.Logger) *PolygonSource {
	if sourceCfg.BaseURL == "" {
		sourceCfg.BaseURL = DefaultBaseURL
	}
	return &PolygonSource{
		SourceConfig: sourceCfg,
		Network:      netMgr,
		Logger:       log,
	}
}

// -----------------------------------------------------------------------------

func (s *PolygonSource) Name() string {
	return s.SourceConfig.Name
}

// -----------------------------------------------------------------------------

// FetchBars requests 1-minute aggregates for [start, end] and follows next_url.
func (s *PolygonSource) FetchBars(ctx context.Context, symbol string, start, end time.Time) ([]models.MSourceBar, error) {
	next := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/1/minute/%d/%d",
		s.SourceConfig.BaseURL, url.PathEscape(symbol), start.UTC().UnixMilli(), end.UTC().UnixMilli())
	params := map[string]string{
		"adjusted": "true",
		"sort":     "asc",
		"limit":    strconv.Itoa(pageLimit),
		"apiKey":   s.SourceConfig.APIKey,
	}

	var out []models.MSourceBar
	for page := 0; page < maxPages; page++ {
		body, err := s.Network.Get(ctx, next, params, nil)
		if err != nil {
			return nil, err
		}

		var resp aggregatesResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, helpers.NewUpstreamError(fmt.Sprintf("polygon: malformed response for %s", symbol), err)
		}
		if resp.Status == "ERROR" {
			return nil, helpers.NewUpstreamError(fmt.Sprintf("polygon: %s: %s", symbol, resp.Error), nil)
		}

		for _, b := range resp.Results {
			out = append(out, models.MSourceBar{
				Timestamp:  time.UnixMilli(b.Timestamp).UTC(),
				Open:       b.Open,
				High:       b.High,
				Low:        b.Low,
				Close:      b.Close,
				Volume:     int64(math.Round(b.Volume)),
				VWAP:       b.VWAP,
				TradeCount: b.Transactions,
			})
		}

		if resp.NextURL == "" {
			s.Logger.Debug("polygon: %s %d bars in %d page(s)", symbol, len(out), page+1)
			return out, nil
		}
		// next_url carries the cursor and filters; only the key must be re-sent
		next = resp.NextURL
		params = map[string]string{"apiKey": s.SourceConfig.APIKey}
	}
	return nil, helpers.NewUpstreamError(fmt.Sprintf("polygon: %s exceeded %d pages", symbol, maxPages), nil)
}
