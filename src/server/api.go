package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"market-backfill/src/analysis"
	"market-backfill/src/helpers"
	"market-backfill/src/interfaces"
	"market-backfill/src/logger"
	"market-backfill/src/models"
	"market-backfill/src/reconcile"
	"market-backfill/src/utils"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// APIServer
// -----------------------------------------------------------------------------

// APIServer exposes gaps, coverage and on-demand reconciliation over HTTP.
type APIServer struct {
	Config   *models.MConfig
	Logger   *logger.Logger
	Store    interfaces.IBarStore
	Detector *analysis.GapDetector
	Coverage *analysis.CoverageReporter
	Runner   *reconcile.Runner
	Filler   *reconcile.ArtificialGapFiller
	// MarketOpen reports whether the session is live; nil hides the field.
	MarketOpen func() bool

	engine  *gin.Engine
	httpSrv *http.Server
	started time.Time
}

type gapResponse struct {
	Start   string  `json:"start"`
	End     string  `json:"end"`
	Minutes float64 `json:"minutes"`
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewAPIServer(
	cfg *models.MConfig,
	log *logger.Logger,
	store interfaces.IBarStore,
	detector *analysis.GapDetector,
	coverage *analysis.CoverageReporter,
	runner *reconcile.Runner,
	filler *reconcile.ArtificialGapFiller,
) *APIServer {
	// Set Gin mode
	if !strings.EqualFold(cfg.LogLevel, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &APIServer{
		Config:   cfg,
		Logger:   log,
		Store:    store,
		Detector: detector,
		Coverage: coverage,
		Runner:   runner,
		Filler:   filler,
		engine:   gin.New(),
		started:  time.Now(),
	}
	s.engine.Use(gin.Recovery(), s.requestLogger())

	s.setupRoutes()
	s.httpSrv = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *APIServer) setupRoutes() {
	api := s.engine.Group("/api")
	api.GET("/health", s.getHealth)
	api.GET("/coverage", s.getCoverage)
	api.GET("/gaps/:symbol", s.getGaps)
	api.POST("/backfill/:symbol", s.postBackfill)
	api.POST("/interpolate/:symbol", s.postInterpolate)
	api.GET("/runs/last", s.getLastRun)
}

// Handler exposes the router, mainly for tests.
func (s *APIServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *APIServer) Start() error {
	s.Logger.Info("Starting API server on %s", s.httpSrv.Addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *APIServer) Stop(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// -----------------------------------------------------------------------------

func (s *APIServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.Logger.Debug("%s %s -> %d (%v)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Microsecond))
	}
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *APIServer) getHealth(c *gin.Context) {
	resp := gin.H{
		"status":         "ok",
		"uptime_seconds": int(time.Since(s.started).Seconds()),
	}
	if s.MarketOpen != nil {
		resp["market_open"] = s.MarketOpen()
	}
	if s.Runner != nil {
		if last := s.Runner.LastReport(); last != nil {
			resp["last_run"] = last.RunID
		}
	}
	c.JSON(http.StatusOK, resp)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getCoverage(c *gin.Context) {
	var symbols []string
	if raw := c.Query("symbols"); raw != "" {
		for _, sym := range strings.Split(raw, ",") {
			if sym = strings.TrimSpace(sym); sym != "" {
				symbols = append(symbols, strings.ToUpper(sym))
			}
		}
	}

	stats, err := s.Coverage.Coverage(c.Request.Context(), symbols)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"coverage": stats})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getGaps(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))
	gaps, err := s.Detector.FindGaps(c.Request.Context(), symbol)
	if err != nil {
		s.fail(c, err)
		return
	}
	rows, err := s.Store.CountBars(c.Request.Context(), symbol)
	if err != nil {
		s.fail(c, helpers.NewDatabaseError("count bars", err))
		return
	}

	loc := s.Detector.Trimmer.Calendar.Location()
	out := make([]gapResponse, len(gaps))
	for i, g := range gaps {
		out[i] = gapResponse{
			Start:   utils.FormatMinute(g.Start, loc),
			End:     utils.FormatMinute(g.End, loc),
			Minutes: g.Minutes(),
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"symbol":          symbol,
		"rows":            rows,
		"gaps":            out,
		"missing_minutes": models.TotalMinutes(gaps),
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) postBackfill(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))
	report, err := s.Runner.Run(c.Request.Context(), []string{symbol}, models.OpBackfill)
	if err != nil {
		s.fail(c, err)
		return
	}
	status := http.StatusOK
	if len(report.Failed) > 0 {
		status = http.StatusBadGateway
	}
	c.JSON(status, report)
}

// -----------------------------------------------------------------------------

func (s *APIServer) postInterpolate(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))
	res, err := s.Filler.Interpolate(c.Request.Context(), symbol)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getLastRun(c *gin.Context) {
	last := s.Runner.LastReport()
	if last == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no run yet"})
		return
	}
	c.JSON(http.StatusOK, last)
}

// -----------------------------------------------------------------------------

func (s *APIServer) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, reconcile.ErrBackfillRequired):
		return http.StatusConflict
	case helpers.IsValidationError(err):
		return http.StatusBadRequest
	case helpers.IsConfigurationError(err):
		return http.StatusUnprocessableEntity
	case helpers.IsUpstreamError(err):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
