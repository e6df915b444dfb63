package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"BrentCast/internal/domain/models"
	"BrentCast/pkg/cache"
	applogger "BrentCast/pkg/logger"
)

const (
	JobRefresh  = "refresh"
	JobForecast = "forecast"
)

// Refresher reloads the price series from upstream.
type Refresher interface {
	Refresh(ctx context.Context) (models.TimeSeries, error)
}

// BatchForecaster runs every configured model.
type BatchForecaster interface {
	ForecastAll(ctx context.Context, horizon int) ([]*models.ForecastResult, error)
}

// Scheduler runs the periodic refresh and forecast jobs. With a locker set,
// each run takes a distributed lock so only one replica does the work.
type Scheduler struct {
	Cron     *cron.Cron
	Refresh  Refresher
	Forecast BatchForecaster
	Locker   cache.Service
	Horizon  int
	Timeout  time.Duration
	Ctx      context.Context
	l        *applogger.Logger
}

// NewScheduler creates a Scheduler using second-resolution cron specs.
func NewScheduler(ctx context.Context, r Refresher, f BatchForecaster, locker cache.Service, l *applogger.Logger) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Refresh:  r,
		Forecast: f,
		Locker:   locker,
		Horizon:  -1,
		Timeout:  5 * time.Minute,
		Ctx:      ctx,
		l:        l,
	}
}

// RegisterAll registers the refresh and forecast jobs. An empty spec skips the job.
func (s *Scheduler) RegisterAll(refreshCron, forecastCron string) error {
	if refreshCron != "" {
		if _, err := s.Cron.AddFunc(refreshCron, s.RunRefreshNow); err != nil {
			return fmt.Errorf("register refresh job: %w", err)
		}
	}
	if forecastCron != "" {
		if _, err := s.Cron.AddFunc(forecastCron, s.RunForecastNow); err != nil {
			return fmt.Errorf("register forecast job: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.info("scheduler started", applogger.Int("jobs", len(s.Cron.Entries())))
}

// Stop stops the scheduler and waits for running jobs up to ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.Cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	s.info("scheduler stopped")
}

// RunOnStart refreshes and then forecasts once, in the background.
func (s *Scheduler) RunOnStart() {
	go func() {
		s.RunRefreshNow()
		s.RunForecastNow()
	}()
}

// RunRefreshNow executes the refresh job immediately.
func (s *Scheduler) RunRefreshNow() {
	s.run(JobRefresh, func(ctx context.Context) error {
		series, err := s.Refresh.Refresh(ctx)
		if err != nil {
			return err
		}
		s.info("refresh job done", applogger.Int("points", len(series)))
		return nil
	})
}

// RunForecastNow executes the forecast job immediately.
func (s *Scheduler) RunForecastNow() {
	s.run(JobForecast, func(ctx context.Context) error {
		results, err := s.Forecast.ForecastAll(ctx, s.Horizon)
		for _, r := range results {
			var last float64
			if n := len(r.Points); n > 0 {
				last = r.Points[n-1].Price
			}
			s.info("forecast job result",
				applogger.String("model", r.Model),
				applogger.String("trend", string(r.Trend)),
				applogger.Float64("last_price", last))
		}
		return err
	})
}

func (s *Scheduler) run(job string, fn func(ctx context.Context) error) {
	parent := s.Ctx
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, s.Timeout)
	defer cancel()

	if s.Locker != nil {
		key := "lock:job:" + job
		token, ok, err := s.Locker.TryLock(ctx, key, s.Timeout)
		if err != nil {
			s.logError("acquire job lock", err, applogger.String("job", job))
			return
		}
		if !ok {
			s.info("job already running elsewhere", applogger.String("job", job))
			return
		}
		defer func() {
			if err := s.Locker.Unlock(context.Background(), key, token); err != nil {
				s.logError("release job lock", err, applogger.String("job", job))
			}
		}()
	}

	start := time.Now()
	if err := fn(ctx); err != nil {
		s.logError("job failed", err, applogger.String("job", job), applogger.Duration("took", time.Since(start)))
		return
	}
	s.info("job finished", applogger.String("job", job), applogger.Duration("took", time.Since(start)))
}

func (s *Scheduler) info(msg string, fields ...applogger.Field) {
	if s.l != nil {
		s.l.Info(msg, fields...)
	}
}

func (s *Scheduler) logError(msg string, err error, fields ...applogger.Field) {
	if s.l != nil {
		s.l.Error(msg, append(fields, applogger.Error(err))...)
	}
}
