package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/tartampluch/friendly-reminder/internal/config"
)

// Job is a unit of scheduled work.
type Job func(ctx context.Context) error

// Scheduler runs named jobs on cron schedules in a fixed timezone.
type Scheduler struct {
	cron *cron.Cron

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	jobs   map[string]cron.EntryID
}

// New creates a scheduler whose schedules are evaluated in loc.
func New(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(map[string]cron.EntryID),
	}
}

// Add registers job under name with a standard 5-field cron spec.
func (s *Scheduler) Add(name, spec string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.cron.AddFunc(spec, func() { s.run(name, job) })
	if err != nil {
		return fmt.Errorf("%s %q: %w", config.ErrSchedulerSpec, spec, err)
	}
	s.jobs[name] = id

	slog.Debug(config.MsgJobAdded,
		config.LogKeyComponent, config.CompScheduler,
		config.LogKeyJob, name,
		config.LogKeySchedule, spec)
	return nil
}

// RunNow executes a registered job synchronously, outside its schedule.
func (s *Scheduler) RunNow(name string, job Job) {
	s.run(name, job)
}

// Next returns the next activation of a job, or the zero time if unknown.
func (s *Scheduler) Next(name string) time.Time {
	s.mu.Lock()
	id, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(id).Next
}

// Start runs the scheduler until ctx is canceled, then stops it and waits
// for running jobs to finish.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()
	slog.Info(config.MsgSchedulerStart,
		config.LogKeyComponent, config.CompScheduler,
		config.LogKeyCount, len(s.cron.Entries()))

	<-ctx.Done()
	s.Stop()
}

// Stop cancels in-flight jobs and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	slog.Info(config.MsgSchedulerStop,
		config.LogKeyComponent, config.CompScheduler)
}

func (s *Scheduler) run(name string, job Job) {
	start := time.Now()
	if err := job(s.ctx); err != nil {
		slog.Error(config.MsgJobFailed,
			config.LogKeyComponent, config.CompScheduler,
			config.LogKeyJob, name,
			config.LogKeyError, err)
		return
	}
	slog.Debug(config.MsgJobDone,
		config.LogKeyComponent, config.CompScheduler,
		config.LogKeyJob, name,
		config.LogKeyDuration, time.Since(start).Milliseconds())
}
