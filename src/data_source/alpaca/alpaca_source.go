package alpaca

import (
	"context"
	"encoding/json"
	"fmt"
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
	DefaultBaseURL = "https://data.alpaca.markets"
	pageLimit      = 10000
	// maxPages guards against a provider that never stops paginating.
	maxPages = 10000
)

// barsResponse mirrors GET /v2/stocks/{symbol}/bars.
type barsResponse struct {
	Bars          []alpacaBar `json:"bars"`
	Symbol        string      `json:"symbol"`
	NextPageToken *string     `json:"next_page_token"`
}

type alpacaBar struct {
	Timestamp  time.Time       `json:"t"`
	Open       decimal.Decimal `json:"o"`
	High       decimal.Decimal `json:"h"`
	Low        decimal.Decimal `json:"l"`
	Close      decimal.Decimal `json:"c"`
	Volume     int64           `json:"v"`
	TradeCount int64           `json:"n"`
	VWAP       float64         `json:"vw"`
}

// -----------------------------------------------------------------------------

type AlpacaSource struct {
	SourceConfig models.MSourceConfig
	Network      interfaces.INetworkManager
	Logger       *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAlpacaSource(sourceCfg models.MSourceConfig, netMgr interfaces.INetworkManager, log *logger.Logger) *AlpacaSource {
	if sourceCfg.BaseURL == "" {
		sourceCfg.BaseURL = DefaultBaseURL
	}
	return &AlpacaSource{
		SourceConfig: sourceCfg,
		Network:      netMgr,
		Logger:       log,
	}
}

// -----------------------------------------------------------------------------

func (s *AlpacaSource) Name() string {
	return s.SourceConfig.Name
}

// -----------------------------------------------------------------------------

// FetchBars pages through /v2/stocks/{symbol}/bars for [start, end].
func (s *AlpacaSource) FetchBars(ctx context.Context, symbol string, start, end time.Time) ([]models.MSourceBar, error) {
	endpoint := fmt.Sprintf("%s/v2/stocks/%s/bars", s.SourceConfig.BaseURL, url.PathEscape(symbol))
	headers := map[string]string{
		"APCA-API-KEY-ID":     s.SourceConfig.APIKey,
		"APCA-API-SECRET-KEY": s.SourceConfig.APISecret,
	}
	params := map[string]string{
		"timeframe":  "1Min",
		"start":      start.UTC().Format(time.RFC3339),
		"end":        end.UTC().Format(time.RFC3339),
		"limit":      strconv.Itoa(pageLimit),
		"adjustment": "raw",
		"sort":       "asc",
	}
	if s.SourceConfig.Feed != "" {
		params["feed"] = s.SourceConfig.Feed
	}

	var out []models.MSourceBar
	for page := 0; page < maxPages; page++ {
		body, err := s.Network.Get(ctx, endpoint, params, headers)
		if err != nil {
			return nil, err
		}

		var resp barsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, helpers.NewUpstreamError(fmt.Sprintf("alpaca: malformed response for %s", symbol), err)
		}
		for _, b := range resp.Bars {
			out = append(out, models.MSourceBar{
				Timestamp:  b.Timestamp.UTC(),
				Open:       b.Open,
				High:       b.High,
				Low:        b.Low,
				Close:      b.Close,
				Volume:     b.Volume,
				VWAP:       b.VWAP,
				TradeCount: b.TradeCount,
			})
		}

		if resp.NextPageToken == nil || *resp.NextPageToken == "" {
			s.Logger.Debug("alpaca: %s %d bars in %d page(s)", symbol, len(out), page+1)
			return out, nil
		}
		params["page_token"] = *resp.NextPageToken
	}
	return nil, helpers.NewUpstreamError(fmt.Sprintf("alpaca: %s exceeded %d pages", symbol, maxPages), nil)
}
