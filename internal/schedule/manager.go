package schedule

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/verseworks/poemrag/internal/model"
)

// Job is a unit of scheduled work. Run reports its result as a structured
// outcome instead of an error so the manager can record it uniformly for
// cron-triggered and manually triggered executions.
type Job interface {
	ID() string
	DisplayName() string
	Run(ctx context.Context) model.IngestionOutcome
}

type registration struct {
	job     Job
	spec    string
	entryID cron.EntryID
	running atomic.Bool
}

// Manager owns the cron runner and the per-job execution state. Each job has
// a single-admission gate: while one run is in flight, a cron firing is
// skipped and a manual trigger reports a busy outcome without running.
type Manager struct {
	cron    *cron.Cron
	mu      sync.Mutex
	jobs    map[string]*registration
	results map[string]*model.RunResult
	started bool
	stopped bool
}

func NewManager() *Manager {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return &Manager{
		cron:    cron.New(cron.WithParser(parser)),
		jobs:    make(map[string]*registration),
		results: make(map[string]*model.RunResult),
	}
}

// Register schedules a job with a 5-field cron spec. Registering an already
// known job ID replaces its schedule; at most one cron entry per job exists.
func (m *Manager) Register(ctx context.Context, job Job, spec string) error {
	if job == nil || job.ID() == "" {
		return fmt.Errorf("job with a non-empty id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return fmt.Errorf("scheduler already stopped")
	}
	if prev, ok := m.jobs[job.ID()]; ok {
		m.cron.Remove(prev.entryID)
	}
	reg := &registration{job: job, spec: spec}
	entryID, err := m.cron.AddFunc(spec, func() {
		m.execute(context.Background(), reg, true)
	})
	if err != nil {
		return fmt.Errorf("register job %s with spec %q: %w", job.ID(), spec, err)
	}
	reg.entryID = entryID
	m.jobs[job.ID()] = reg
	logutil.GetLogger(ctx).Info("job registered",
		zap.String("job", job.ID()), zap.String("spec", spec))
	return nil
}

func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started || m.stopped {
		return
	}
	m.started = true
	m.cron.Start()
	logutil.GetLogger(ctx).Info("scheduler started", zap.Int("jobs", len(m.jobs)))
}

// Stop halts the cron runner and waits for in-flight runs to finish. It is
// idempotent; a stopped manager never fires again.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	m.started = false
	m.mu.Unlock()
	<-m.cron.Stop().Done()
}

// RunNow triggers one job immediately. If a run of that job is already in
// flight the returned outcome has status busy and nothing is recorded. The
// error return covers unknown job IDs only.
func (m *Manager) RunNow(ctx context.Context, id string) (model.IngestionOutcome, error) {
	m.mu.Lock()
	reg, ok := m.jobs[id]
	m.mu.Unlock()
	if !ok {
		return model.IngestionOutcome{}, fmt.Errorf("unknown job: %s", id)
	}
	return m.execute(ctx, reg, false), nil
}

func (m *Manager) execute(ctx context.Context, reg *registration, fromCron bool) model.IngestionOutcome {
	logger := logutil.GetLogger(ctx).With(zap.String("job", reg.job.ID()))
	if !reg.running.CompareAndSwap(false, true) {
		if fromCron {
			logger.Warn("previous run still in flight, skipping scheduled run")
			return model.IngestionOutcome{Status: model.StatusBusy, Message: "任务正在执行中"}
		}
		logger.Warn("previous run still in flight, rejecting manual trigger")
		return model.IngestionOutcome{Status: model.StatusBusy, Message: "任务正在执行中，请稍后再试"}
	}
	defer reg.running.Store(false)

	startedAt := time.Now()
	outcome := reg.job.Run(ctx)
	logger.Info("job finished",
		zap.String("status", string(outcome.Status)),
		zap.String("message", outcome.Message),
		zap.Duration("cost", time.Since(startedAt)))

	m.mu.Lock()
	m.results[reg.job.ID()] = &model.RunResult{Time: startedAt, Outcome: outcome}
	m.mu.Unlock()
	return outcome
}

// TaskInfo lists all registered jobs with their next fire time and the result
// of the most recent completed run. NextRun is nil unless the manager is
// running. Results live in memory only and reset on restart.
func (m *Manager) TaskInfo() []model.ScheduledTaskInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	infos := make([]model.ScheduledTaskInfo, 0, len(m.jobs))
	for id, reg := range m.jobs {
		info := model.ScheduledTaskInfo{
			ID:   id,
			Name: reg.job.DisplayName(),
		}
		if m.started {
			entry := m.cron.Entry(reg.entryID)
			if !entry.Next.IsZero() {
				next := entry.Next
				info.NextRun = &next
			}
		}
		if res, ok := m.results[id]; ok {
			copied := *res
			info.LastRun = &copied
		}
		infos = append(infos, info)
	}
	return infos
}
