package scheduler

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	cron "github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"test-orchestrator/internal/app/config"
	services "test-orchestrator/internal/scheduler/services"
	"test-orchestrator/internal/shared/logger"
)

// Job is a unit of scheduled orchestrator work
type Job interface {
	Name() string
	// Schedule is a standard 5-field cron expression or a descriptor such as @hourly
	Schedule() string
	Run(ctx context.Context) error
	Description() string
	// Timeout bounds a single run
	Timeout() time.Duration
}

// JobResult describes one finished run
type JobResult struct {
	JobName   string
	Success   bool
	Duration  time.Duration
	Error     error
	StartTime time.Time
	EndTime   time.Time
}

// Scheduler runs orchestrator jobs on cron schedules.
// A run still in progress when its next tick fires is skipped.
type Scheduler struct {
	cron   *cron.Cron
	logger *logger.Logger

	jobs   map[string]Job
	jobIDs map[string]cron.EntryID

	mu   sync.Mutex
	last map[string]JobResult
}

// NewScheduler builds a scheduler over a fresh cron instance. opts are applied after the defaults.
func NewScheduler(log *logger.Logger, opts ...cron.Option) *Scheduler {
	log = log.Named("scheduler")
	cl := cronLogger{log.Logger.Sugar()}

	defaults := []cron.Option{
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	}

	return &Scheduler{
		cron:   cron.New(append(defaults, opts...)...),
		logger: log,
		jobs:   make(map[string]Job),
		jobIDs: make(map[string]cron.EntryID),
		last:   make(map[string]JobResult),
	}
}

// RegisterJob adds job to the cron table. Names must be unique.
func (s *Scheduler) RegisterJob(job Job) error {
	name := job.Name()
	if _, dup := s.jobs[name]; dup {
		return fmt.Errorf("job %s already registered", name)
	}

	id, err := s.cron.AddFunc(job.Schedule(), func() { s.execute(job) })
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, job.Schedule(), err)
	}

	s.jobs[name] = job
	s.jobIDs[name] = id
	s.logger.Info("Job scheduled",
		zap.String("job_name", name),
		zap.String("schedule", job.Schedule()),
		zap.String("description", job.Description()),
		zap.Duration("timeout", job.Timeout()))
	return nil
}

// RegisterJobs schedules the component probe and one run per entry of scheduled_suites
func (s *Scheduler) RegisterJobs(engine services.Engine, cfg *config.Config) error {
	// one probe per component plus the backend
	probeTimeout := cfg.BackendProbeTimeout * time.Duration(len(cfg.Components)+1)
	if err := s.RegisterJob(services.NewComponentProbeJob(engine, cfg.ProbeSchedule, probeTimeout, s.logger)); err != nil {
		return err
	}

	suites := make([]string, 0, len(cfg.ScheduledSuites))
	for name := range cfg.ScheduledSuites {
		suites = append(suites, name)
	}
	slices.Sort(suites)

	for _, name := range suites {
		job := services.NewSuiteRunJob(engine, name, cfg.ScheduledSuites[name], cfg.TestTimeout, s.logger)
		if err := s.RegisterJob(job); err != nil {
			return err
		}
	}

	s.logger.Info("Scheduled jobs registered", zap.Int("job_count", len(s.jobs)))
	return nil
}

// RunNow runs a registered job immediately on the calling goroutine
func (s *Scheduler) RunNow(name string) (JobResult, error) {
	job, ok := s.jobs[name]
	if !ok {
		return JobResult{}, fmt.Errorf("job %s is not registered", name)
	}
	return s.execute(job), nil
}

// LastResult returns the outcome of the most recent run of name
func (s *Scheduler) LastResult(name string) (JobResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.last[name]
	return res, ok
}

func (s *Scheduler) execute(job Job) JobResult {
	ctx, cancel := context.WithTimeout(context.Background(), job.Timeout())
	defer cancel()

	res := JobResult{JobName: job.Name(), StartTime: time.Now()}
	res.Error = job.Run(ctx)
	res.EndTime = time.Now()
	res.Duration = res.EndTime.Sub(res.StartTime)
	res.Success = res.Error == nil

	s.mu.Lock()
	s.last[res.JobName] = res
	s.mu.Unlock()

	fields := []zap.Field{zap.String("job_name", res.JobName), zap.Duration("duration", res.Duration)}
	if res.Success {
		s.logger.Info("Job run finished", fields...)
	} else {
		s.logger.Error("Job run failed", append(fields, zap.Error(res.Error))...)
	}
	return res
}

// GetRegisteredJobs lists job names in sorted order
func (s *Scheduler) GetRegisteredJobs() []string {
	out := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Start runs the cron loop in its own goroutine
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler", zap.Strings("jobs", s.GetRegisteredJobs()))
	s.cron.Start()
}

// Stop halts new runs and blocks until in-flight runs return
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
}

// cronLogger routes robfig/cron's internal logging through zap
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
