// Package scheduler runs named jobs on fixed intervals, never overlapping a
// job with itself.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/AtRiskMedia/cmi-charts/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/cmi-charts/internal/infrastructure/observability/metrics"
)

var (
	// ErrUnknownJob is returned by RunNow for a name that was never added.
	ErrUnknownJob = errors.New("unknown job")
	// ErrJobBusy is returned by RunNow while the job is still executing.
	ErrJobBusy = errors.New("job is already running")
	// ErrStarted is returned by Add after Start.
	ErrStarted = errors.New("scheduler already started")
)

// Job is one periodic task.
type Job struct {
	Name       string
	Interval   time.Duration
	RunOnStart bool // also run immediately instead of only after one interval
	Run        func(ctx context.Context) error
}

// FailureHook is told about every failed run together with the number of
// consecutive failures of that job, starting at 1.
type FailureHook func(job string, err error, consecutive int)

// Config holds the scheduler collaborators. Clock defaults to the real clock.
type Config struct {
	Clock     clockwork.Clock
	Logger    *logging.ChanneledLogger
	Metrics   *metrics.Metrics
	OnFailure FailureHook
}

type jobState struct {
	Job
	running     atomic.Bool
	consecutive int // guarded by running
}

// Scheduler dispatches jobs on their intervals.
type Scheduler struct {
	cfg     Config
	mu      sync.Mutex
	jobs    map[string]*jobState
	order   []string
	started bool
	loops   sync.WaitGroup
	runs    sync.WaitGroup
}

// New creates a Scheduler. Logger and Metrics are required.
func New(cfg Config) *Scheduler {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return &Scheduler{
		cfg:  cfg,
		jobs: make(map[string]*jobState),
	}
}

// Add registers a job. Jobs must be added before Start.
func (s *Scheduler) Add(job Job) error {
	if job.Name == "" {
		return errors.New("job name is required")
	}
	if job.Interval <= 0 {
		return fmt.Errorf("job %s: interval must be positive", job.Name)
	}
	if job.Run == nil {
		return fmt.Errorf("job %s: run function is required", job.Name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrStarted
	}
	if _, exists := s.jobs[job.Name]; exists {
		return fmt.Errorf("job %s already registered", job.Name)
	}
	s.jobs[job.Name] = &jobState{Job: job}
	s.order = append(s.order, job.Name)
	return nil
}

// Start launches one loop per job and returns. Loops stop when ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	for _, name := range s.order {
		js := s.jobs[name]
		s.loops.Add(1)
		go s.loop(ctx, js)
		s.cfg.Logger.Scheduler().Info("Job scheduled", "job", js.Name, "interval", js.Interval, "runOnStart", js.RunOnStart)
	}
}

// Wait blocks until every loop has stopped and every in-flight run returned.
func (s *Scheduler) Wait() {
	s.loops.Wait()
	s.runs.Wait()
}

// Running reports whether the named job is executing.
func (s *Scheduler) Running(name string) bool {
	s.mu.Lock()
	js, ok := s.jobs[name]
	s.mu.Unlock()
	return ok && js.running.Load()
}

// RunNow executes the named job synchronously, honoring the overlap guard.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	js, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	if !js.running.CompareAndSwap(false, true) {
		return ErrJobBusy
	}
	defer js.running.Store(false)
	return s.execute(ctx, js)
}

func (s *Scheduler) loop(ctx context.Context, js *jobState) {
	defer s.loops.Done()

	ticker := s.cfg.Clock.NewTicker(js.Interval)
	defer ticker.Stop()

	if js.RunOnStart {
		s.dispatch(ctx, js)
	}

	for {
		select {
		case <-ctx.Done():
			s.cfg.Logger.Scheduler().Info("Job loop stopping", "job", js.Name)
			return
		case <-ticker.Chan():
			s.dispatch(ctx, js)
		}
	}
}

func (s *Scheduler) dispatch(ctx context.Context, js *jobState) {
	if !js.running.CompareAndSwap(false, true) {
		s.cfg.Metrics.JobSkips.WithLabelValues(js.Name).Inc()
		s.cfg.Logger.Scheduler().Warn("Job still running, skipping tick", "job", js.Name)
		return
	}

	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		defer js.running.Store(false)
		_ = s.execute(ctx, js)
	}()
}

func (s *Scheduler) execute(ctx context.Context, js *jobState) (err error) {
	start := s.cfg.Clock.Now()
	logger := s.cfg.Logger.Scheduler().With("job", js.Name)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", js.Name, r)
		}

		s.cfg.Metrics.JobRuns.WithLabelValues(js.Name).Inc()
		s.cfg.Metrics.JobDuration.WithLabelValues(js.Name).Observe(s.cfg.Clock.Since(start).Seconds())

		if err == nil {
			js.consecutive = 0
			logger.Debug("Job completed", "duration", s.cfg.Clock.Since(start))
			return
		}

		js.consecutive++
		s.cfg.Metrics.JobFailures.WithLabelValues(js.Name).Inc()
		logger.Error("Job failed", "error", err.Error(), "consecutiveFailures", js.consecutive)
		if s.cfg.OnFailure != nil {
			s.cfg.OnFailure(js.Name, err, js.consecutive)
		}
	}()

	return js.Run(ctx)
}
