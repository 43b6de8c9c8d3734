package utils

import (
	"context"
	"fmt"
	"sync"
	"time"

	"market-backfill/src/logger"

	"github.com/go-co-op/gocron"
)

// MarketScheduler runs jobs at a fixed local time on trading days only.
type MarketScheduler struct {
	Calendar  sessionCalendar
	Scheduler *gocron.Scheduler
	Logger    *logger.Logger
	now       func() time.Time

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
}

// -----------------------------------------------------------------------------

func NewMarketScheduler(cal sessionCalendar, l *logger.Logger) *MarketScheduler {
	s := gocron.NewScheduler(cal.Location())
	s.SingletonModeAll()
	return &MarketScheduler{
		Calendar:  cal,
		Scheduler: s,
		Logger:    l,
		now:       time.Now,
	}
}

// -----------------------------------------------------------------------------

// ShouldRun reports whether t falls on a trading day of the calendar.
func (ms *MarketScheduler) ShouldRun(t time.Time) bool {
	return ms.Calendar.SessionWindow(t.In(ms.Calendar.Location())).IsTradingDay
}

// -----------------------------------------------------------------------------

// MarketOpen checks if the market is currently in session.
func (ms *MarketScheduler) MarketOpen() bool {
	return IsOpenOnMinute(ms.Calendar, ms.now())
}

// -----------------------------------------------------------------------------

// ScheduleDaily registers job at "HH:MM" local time. The job receives the
// scheduler's lifecycle context and is skipped on non-trading days.
func (ms *MarketScheduler) ScheduleDaily(at string, name string, job func(ctx context.Context)) error {
	_, err := ms.Scheduler.Every(1).Day().At(at).Tag(name).Do(func() {
		now := ms.now().In(ms.Calendar.Location())
		if !ms.ShouldRun(now) {
			ms.Logger.Info("MarketScheduler: %s skipped, %s is not a trading day", name, now.Format(DateLayout))
			return
		}

		ms.mu.Lock()
		ctx := ms.ctx
		ms.mu.Unlock()
		if ctx == nil {
			return
		}

		ms.Logger.Info("MarketScheduler: running %s", name)
		job(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule %s at %s: %w", name, at, err)
	}
	ms.Logger.Info("MarketScheduler: %s scheduled daily at %s (%s)", name, at, ms.Calendar.Location())
	return nil
}

// -----------------------------------------------------------------------------

// Start begins asynchronous execution; cancelling parent stops future runs.
func (ms *MarketScheduler) Start(parent context.Context) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.running {
		return
	}
	ms.ctx, ms.cancel = context.WithCancel(parent)
	ms.running = true
	ms.Scheduler.StartAsync()
}

// -----------------------------------------------------------------------------

func (ms *MarketScheduler) Stop() {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if !ms.running {
		return
	}
	ms.cancel()
	ms.Scheduler.Stop()
	ms.running = false
	ms.ctx = nil
}
