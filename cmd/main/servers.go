package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	pb "market-backfill/src/grpc_control"
	"market-backfill/src/models"
	"market-backfill/src/server"
	"market-backfill/src/utils"
)

// -----------------------------------------------------------------------------

// runServe starts the API, the gRPC health service and the daily reconcile
// job, and blocks until SIGINT/SIGTERM.
func runServe(parent context.Context, app *App) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	appLogger := app.Logger
	cfg := app.Config

	// 1. Daily reconcile on trading days
	scheduler := utils.NewMarketScheduler(app.Calendar, appLogger.Named("MarketScheduler"))
	if cfg.Backfill.ScheduleAt != "" {
		err := scheduler.ScheduleDaily(cfg.Backfill.ScheduleAt, "reconcile", func(jobCtx context.Context) {
			if _, err := app.Runner.Run(jobCtx, nil, models.OpReconcile); err != nil {
				appLogger.Error("Scheduled reconcile failed: %v", err)
			}
		})
		if err != nil {
			return err
		}
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	// 2. gRPC listener first, so a bind failure leaves nothing running
	var lis net.Listener
	if cfg.GrpcPort != 0 {
		var err error
		lis, err = net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Host, cfg.GrpcPort))
		if err != nil {
			return fmt.Errorf("failed to listen for gRPC: %w", err)
		}
	}

	// 3. API server
	srv := server.NewAPIServer(cfg.MConfig, appLogger.Named("APIServer"), app.Store, app.Detector, app.Coverage, app.Runner, app.Filler)
	srv.MarketOpen = scheduler.MarketOpen
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			appLogger.Error("API server shutdown: %v", err)
		}
	}()

	errCh := make(chan error, 2)
	go func() {
		errCh <- srv.Start()
	}()

	// 4. gRPC health service
	if lis != nil {
		health := pb.NewHealthService(app.Store, appLogger.Named("HealthService"))
		go func() {
			errCh <- health.Serve(ctx, lis, 30*time.Second)
		}()
	}

	select {
	case <-ctx.Done():
		appLogger.Info("Shutting down...")
	case err := <-errCh:
		if err != nil {
			appLogger.Error("Server failed: %v", err)
			return err
		}
	}
	return nil
}
