// Package scheduler re-runs document exports on a cron cadence, for sources
// whose outputs must be refreshed periodically (dashboards, rendered
// overlays, nightly re-encodes).
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/siddharth-1118/creatorlang/internal/store"
)

// ExportRunner re-exports one stored document. Satisfied by the catalog
// service (avoids an import cycle).
type ExportRunner interface {
	ExportDocument(ctx context.Context, documentID string) error
}

// Catalog is the slice of the store the scheduler needs.
type Catalog interface {
	ListScheduledExports(ctx context.Context, enabledOnly bool) ([]*store.ScheduledExport, error)
	MarkScheduledExportRun(ctx context.Context, id string) error
}

// Scheduler polls the store for due scheduled exports and runs them.
type Scheduler struct {
	store  Catalog
	runner ExportRunner
	parser cron.Parser
	logger *slog.Logger
	cancel context.CancelFunc
	done   chan struct{}
	mu     sync.Mutex

	inflightMu sync.Mutex
	inflight   map[string]struct{} // job IDs currently executing (dedup)
}

// New creates a Scheduler.
func New(s Catalog, runner ExportRunner, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		store:    s,
		runner:   runner,
		parser:   cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		logger:   logger,
		inflight: make(map[string]struct{}),
	}
}

// Start launches the background scheduling loop with a 60s ticker.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.done != nil {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already started")
	}

	schedCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.loop(schedCtx)
	s.logger.Info("scheduler started")
	return nil
}

// Stop cancels the loop and waits for it to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()

	// Run an initial tick immediately.
	s.Tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick checks all enabled jobs and runs those that are due. Exported so the
// CLI can force a pass and tests can drive the scheduler deterministically.
func (s *Scheduler) Tick(ctx context.Context) {
	jobs, err := s.store.ListScheduledExports(ctx, true)
	if err != nil {
		s.logger.Error("failed to list scheduled exports", slog.String("error", err.Error()))
		return
	}

	now := time.Now().UTC()
	for _, job := range jobs {
		due, err := s.due(job, now)
		if err != nil {
			s.logger.Error("bad cron expression",
				slog.String("job_id", job.ID),
				slog.String("cron", job.CronExpr),
				slog.String("error", err.Error()),
			)
			continue
		}
		if !due {
			continue
		}
		if !s.tryAcquire(job.ID) {
			continue // already running (dedup)
		}
		if err := s.runJob(ctx, job); err != nil {
			s.logger.Error("scheduled export failed",
				slog.String("job_id", job.ID),
				slog.String("document_id", job.DocumentID),
				slog.String("error", err.Error()),
			)
		}
		s.release(job.ID)
	}
}

// due reports whether the job's next firing after its last run has passed.
// Jobs that have never run fire on the first tick after creation.
func (s *Scheduler) due(job *store.ScheduledExport, now time.Time) (bool, error) {
	sched, err := s.parser.Parse(job.CronExpr)
	if err != nil {
		return false, err
	}
	anchor := job.CreatedAt
	if job.LastRunAt != nil {
		anchor = *job.LastRunAt
	}
	return !sched.Next(anchor).After(now), nil
}

// runJob re-exports the job's document and stamps its run time.
func (s *Scheduler) runJob(ctx context.Context, job *store.ScheduledExport) error {
	s.logger.Info("running scheduled export",
		slog.String("job_id", job.ID),
		slog.String("document_id", job.DocumentID),
	)
	runErr := s.runner.ExportDocument(ctx, job.DocumentID)
	if err := s.store.MarkScheduledExportRun(ctx, job.ID); err != nil {
		s.logger.Error("failed to stamp scheduled export",
			slog.String("job_id", job.ID), slog.String("error", err.Error()))
	}
	return runErr
}

// tryAcquire returns true and marks the job as in-flight if it is not already running.
func (s *Scheduler) tryAcquire(jobID string) bool {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	if _, ok := s.inflight[jobID]; ok {
		return false
	}
	s.inflight[jobID] = struct{}{}
	return true
}

func (s *Scheduler) release(jobID string) {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	delete(s.inflight, jobID)
}

// ValidateCron checks a cron expression against the scheduler's parser.
func (s *Scheduler) ValidateCron(expr string) error {
	_, err := s.parser.Parse(expr)
	return err
}
