package background

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Arielpetit/UDM/internal/jobs"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

const (
	LowStockJob     = "low-stock-alerts"
	AnalyticsJob    = "analytics-refresh"
	defaultLowStock = 15 * time.Minute
	defaultRefresh  = 5 * time.Minute
)

type Intervals struct {
	LowStock time.Duration
	Metrics  time.Duration
}

// JobScheduler runs the periodic inventory jobs.
type JobScheduler struct {
	scheduler gocron.Scheduler
	alerts    *jobs.InventoryAlertService
	refresh   *jobs.AnalyticsRefreshService
	log       zerolog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	jobJobs   map[string]gocron.Job
	mu        sync.RWMutex
}

func NewJobScheduler(alerts *jobs.InventoryAlertService, refresh *jobs.AnalyticsRefreshService, intervals Intervals, log zerolog.Logger) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	js := &JobScheduler{
		scheduler: scheduler,
		alerts:    alerts,
		refresh:   refresh,
		log:       log.With().Str("component", "scheduler").Logger(),
		ctx:       ctx,
		cancel:    cancel,
		jobJobs:   make(map[string]gocron.Job),
	}

	if intervals.LowStock <= 0 {
		intervals.LowStock = defaultLowStock
	}
	if intervals.Metrics <= 0 {
		intervals.Metrics = defaultRefresh
	}
	if err := js.AddJob(LowStockJob, intervals.LowStock, js.alerts.ScheduledLowStockCheck, ctx); err != nil {
		cancel()
		return nil, err
	}
	if err := js.AddJob(AnalyticsJob, intervals.Metrics, js.refresh.ScheduledAnalyticsRefresh, ctx); err != nil {
		cancel()
		return nil, err
	}

	js.log.Info().Int("jobs", len(js.jobJobs)).Msg("background jobs registered")
	return js, nil
}

func (js *JobScheduler) Start() {
	js.log.Info().Msg("starting background job scheduler")
	js.scheduler.Start()
}

// Stop cancels running tasks and waits for them to return.
func (js *JobScheduler) Stop() error {
	js.log.Info().Msg("stopping background job scheduler")
	js.cancel()
	return js.scheduler.Shutdown()
}

// AddJob schedules taskFn every interval. Overlapping runs are skipped.
func (js *JobScheduler) AddJob(name string, interval time.Duration, taskFn interface{}, params ...interface{}) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	job, err := js.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(taskFn, params...),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create job %s: %w", name, err)
	}

	js.jobJobs[name] = job
	js.log.Debug().Str("job", name).Dur("interval", interval).Msg("job added")
	return nil
}

func (js *JobScheduler) RemoveJob(name string) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	if job, exists := js.jobJobs[name]; exists {
		err := js.scheduler.RemoveJob(job.ID())
		delete(js.jobJobs, name)
		return err
	}
	return nil
}

// RunNow triggers a registered job outside its schedule.
func (js *JobScheduler) RunNow(name string) error {
	js.mu.RLock()
	job, exists := js.jobJobs[name]
	js.mu.RUnlock()
	if !exists {
		return fmt.Errorf("unknown job %s", name)
	}
	return job.RunNow()
}

func (js *JobScheduler) GetJobStatus() map[string]interface{} {
	js.mu.RLock()
	defer js.mu.RUnlock()

	names := make([]string, 0, len(js.jobJobs))
	next := make(map[string]time.Time, len(js.jobJobs))
	for name, job := range js.jobJobs {
		names = append(names, name)
		if t, err := job.NextRun(); err == nil {
			next[name] = t
		}
	}
	return map[string]interface{}{
		"total_jobs": len(js.jobJobs),
		"jobs":       names,
		"next_run":   next,
	}
}
