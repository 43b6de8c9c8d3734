package network

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"market-backfill/src/helpers"
	"market-backfill/src/logger"
	"market-backfill/src/models"

	"golang.org/x/time/rate"
)

// maxErrorBody caps how much of an error response ends up in the error text.
const maxErrorBody = 512

type AsyncNetworkManager struct {
	Config    *models.MConfig
	Client    *http.Client
	Limiter   *rate.Limiter
	Logger    *logger.Logger
	BaseDelay time.Duration
}

// -----------------------------------------------------------------------------

// NewAsyncNetworkManager builds a client shared by every upstream source, so
// provider.requests_per_minute caps the whole process.
func NewAsyncNetworkManager(cfg *models.MConfig, log *logger.Logger) *AsyncNetworkManager {
	rpm := cfg.Provider.RequestsPerMinute
	if rpm <= 0 {
		rpm = 200
	}
	return &AsyncNetworkManager{
		Config:    cfg,
		Client:    &http.Client{Timeout: time.Duration(cfg.Network.RequestTimeout) * time.Second},
		Limiter:   rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1),
		Logger:    log,
		BaseDelay: time.Second,
	}
}

// -----------------------------------------------------------------------------

// Get performs a GET request with retries. Transport errors, 429 and 5xx are
// retried; any other non-200 status fails immediately.
func (nm *AsyncNetworkManager) Get(ctx context.Context, urlStr string, params map[string]string, headers map[string]string) ([]byte, error) {
	reqURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, helpers.NewValidationError("invalid url "+urlStr, err)
	}

	q := reqURL.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	reqURL.RawQuery = q.Encode()
	finalURL := reqURL.String()

	body, err := helpers.RetryWithBackoff(ctx, "GET "+reqURL.Path, nm.Config.Network.MaxRetries+1, nm.BaseDelay, nm.Logger,
		func() ([]byte, error) {
			return nm.do(ctx, finalURL, headers)
		})
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, helpers.NewUpstreamError(fmt.Sprintf("request to %s failed", reqURL.Host), err)
	}
	return body, nil
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) do(ctx context.Context, finalURL string, headers map[string]string) ([]byte, error) {
	if err := nm.Limiter.Wait(ctx); err != nil {
		return nil, helpers.Permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, nil)
	if err != nil {
		return nil, helpers.Permanent(err)
	}
	req.Header.Set("User-Agent", nm.Config.Network.UserAgent)
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := nm.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, helpers.Permanent(ctx.Err())
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return io.ReadAll(resp.Body)
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	statusErr := fmt.Errorf("bad status %d: %s", resp.StatusCode, snippet)
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		nm.Logger.Debug("Retryable status %d from %s", resp.StatusCode, req.URL.Host)
		return nil, statusErr
	}
	return nil, helpers.Permanent(statusErr)
}
