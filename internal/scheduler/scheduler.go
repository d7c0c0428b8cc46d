// Package scheduler runs periodic maintenance jobs such as the spreadsheet inbox import.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/machinery-pricer/internal/service"
)

// InboxImporter imports every spreadsheet waiting in the inbox directory
type InboxImporter interface {
	ImportInbox(ctx context.Context) ([]*service.ImportReport, error)
}

// Scheduler manages scheduled import jobs
type Scheduler struct {
	cron       *cron.Cron
	importer   InboxImporter
	logger     *logrus.Entry
	mu         sync.RWMutex
	isRunning  bool
	jobIDs     []cron.EntryID
	jobTimeout time.Duration
}

// NewScheduler creates a new scheduler running in UTC
func NewScheduler(importer InboxImporter, log *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		importer:   importer,
		logger:     log.WithField("component", "scheduler"),
		jobIDs:     make([]cron.EntryID, 0),
		jobTimeout: 30 * time.Minute,
	}
}

// ScheduleInboxImport schedules the inbox import with a cron expression
// (standard five fields or descriptors such as "@every 15m")
func (s *Scheduler) ScheduleInboxImport(cronExpression string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	entryID, err := s.cron.AddFunc(cronExpression, s.runInboxImport)
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithField("schedule", cronExpression).Info("Scheduled inbox import job")

	return nil
}

func (s *Scheduler) runInboxImport() {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	reports, err := s.importer.ImportInbox(ctx)
	if errors.Is(err, service.ErrImportInProgress) {
		s.logger.Debug("Inbox import already in progress, skipping run")
		return
	}

	inserted := 0
	for _, r := range reports {
		inserted += r.Inserted
	}
	entry := s.logger.WithFields(logrus.Fields{
		"files":    len(reports),
		"inserted": inserted,
	})
	if err != nil {
		entry.WithError(err).Error("Scheduled inbox import finished with errors")
		return
	}
	if len(reports) > 0 {
		entry.Info("Scheduled inbox import completed")
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")

	return nil
}

// Stop stops the scheduler and waits for running jobs until ctx expires
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	done := s.cron.Stop().Done()
	s.isRunning = false

	select {
	case <-done:
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns the time of the next scheduled job run
func (s *Scheduler) NextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() && (nextRun.IsZero() || entry.Next.Before(nextRun)) {
			nextRun = entry.Next
		}
	}

	return nextRun
}
