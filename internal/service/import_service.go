package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/machinery-pricer/internal/cache"
	"github.com/yourusername/machinery-pricer/internal/datasource"
	"github.com/yourusername/machinery-pricer/internal/logger"
	"github.com/yourusername/machinery-pricer/internal/metrics"
	"github.com/yourusername/machinery-pricer/internal/models"
	"github.com/yourusername/machinery-pricer/internal/repository"
)

// Inbox sub-directories imported files are moved into
const (
	InboxProcessedDir = "processed"
	InboxFailedDir    = "failed"
)

var (
	// ErrInboxDisabled is returned by ImportInbox when no inbox is configured
	ErrInboxDisabled = errors.New("import inbox is not configured")
	// ErrImportInProgress is returned when an inbox run is already active
	ErrImportInProgress = errors.New("an inbox import is already running")
)

// ImportReport summarises one spreadsheet import
type ImportReport struct {
	BatchID   uuid.UUID             `json:"batch_id"`
	Origin    string                `json:"origin"`
	Source    string                `json:"default_source"`
	Sheet     string                `json:"sheet"`
	Total     int                   `json:"total"`
	Inserted  int                   `json:"inserted"`
	Skipped   int                   `json:"skipped"`
	RowErrors []datasource.RowError `json:"row_errors"`
	Duration  time.Duration         `json:"duration_ns"`
}

// ImportServiceConfig holds the import settings
type ImportServiceConfig struct {
	BatchSize     int
	DefaultSource string
	InboxDir      string
}

// ImportService loads historical price spreadsheets into the database
type ImportService struct {
	repo      repository.HistoricalRepository
	factory   *datasource.Factory
	validator *RecordValidator
	store     cache.Store
	audit     *logger.AuditLogger
	logger    *logrus.Logger
	cfg       ImportServiceConfig
	now       func() time.Time
	inboxMu   sync.Mutex
}

// NewImportService creates a new import service
func NewImportService(
	repo repository.HistoricalRepository,
	factory *datasource.Factory,
	store cache.Store,
	cfg ImportServiceConfig,
	log *logrus.Logger,
) *ImportService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if store == nil {
		store = cache.NoopStore{}
	}
	return &ImportService{
		repo:      repo,
		factory:   factory,
		validator: NewRecordValidator(time.Now),
		store:     store,
		audit:     logger.NewAuditLogger(log),
		logger:    log,
		cfg:       cfg,
		now:       time.Now,
	}
}

// ImportFile imports the workbook at path
func (s *ImportService) ImportFile(ctx context.Context, path, defaultSource string) (*ImportReport, error) {
	source, err := s.resolveSource(defaultSource)
	if err != nil {
		return nil, err
	}
	src, err := s.factory.FromFile(path, source)
	if err != nil {
		return nil, err
	}
	return s.importSource(ctx, src, source)
}

// ImportReader imports an uploaded workbook
func (s *ImportService) ImportReader(ctx context.Context, r io.Reader, name, defaultSource string) (*ImportReport, error) {
	source, err := s.resolveSource(defaultSource)
	if err != nil {
		return nil, err
	}
	src, err := s.factory.FromReader(name, r, source)
	if err != nil {
		return nil, err
	}
	return s.importSource(ctx, src, source)
}

// ImportFromURL downloads and imports a remote workbook
func (s *ImportService) ImportFromURL(ctx context.Context, url, defaultSource string) (*ImportReport, error) {
	source, err := s.resolveSource(defaultSource)
	if err != nil {
		return nil, err
	}
	src, err := s.factory.FromURL(ctx, url, source)
	if err != nil {
		return nil, err
	}
	return s.importSource(ctx, src, source)
}

func (s *ImportService) resolveSource(defaultSource string) (string, error) {
	if strings.TrimSpace(defaultSource) == "" {
		return s.cfg.DefaultSource, nil
	}
	source := datasource.NormalizeSource(defaultSource)
	if !models.HistoricalSource(source).Valid() {
		return "", fmt.Errorf("%w: %q", models.ErrInvalidSource, defaultSource)
	}
	return source, nil
}

// importSource validates every row and inserts the valid ones in batches.
// Invalid rows and failed batches are reported, never fatal to the rest.
func (s *ImportService) importSource(ctx context.Context, src *datasource.SpreadsheetSource, defaultSource string) (*ImportReport, error) {
	start := s.now()
	res, err := src.Parse(ctx)
	if err != nil {
		return nil, err
	}

	report := &ImportReport{
		BatchID:   uuid.New(),
		Origin:    src.Name(),
		Source:    defaultSource,
		Sheet:     res.Sheet,
		Total:     res.TotalRows,
		RowErrors: append([]datasource.RowError{}, res.RowErrors...),
	}

	var (
		batch     []models.HistoricalRecord
		batchRows []int
		insertErr error
	)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		n, err := s.repo.InsertBatch(ctx, batch)
		if err != nil {
			if insertErr == nil {
				insertErr = err
			}
			s.logger.WithError(err).WithField("origin", report.Origin).Error("Failed to insert import batch")
			for _, row := range batchRows {
				report.RowErrors = append(report.RowErrors, datasource.RowError{Row: row, Message: "insert failed: " + err.Error()})
			}
		} else {
			report.Inserted += int(n)
		}
		batch = nil
		batchRows = nil
	}

	for _, row := range res.Rows {
		rec := normalizeRow(row, report.BatchID, start.UTC())
		if problems := s.validator.Validate(&rec); len(problems) > 0 {
			report.RowErrors = append(report.RowErrors, datasource.RowError{Row: row.Row, Message: strings.Join(problems, "; ")})
			continue
		}
		batch = append(batch, rec)
		batchRows = append(batchRows, row.Row)
		if len(batch) >= s.cfg.BatchSize {
			flush()
		}
	}
	flush()

	report.Skipped = len(report.RowErrors)
	report.Duration = s.now().Sub(start)

	metrics.RecordImportRows(report.Inserted, report.Skipped)
	s.audit.LogHistoricalImport(report.BatchID.String(), report.Origin, report.Source,
		report.Total, report.Inserted, report.Skipped, report.Duration)

	if report.Inserted > 0 {
		s.invalidate(ctx, "historical import")
	}
	if insertErr != nil {
		return report, fmt.Errorf("failed to store imported records: %w", insertErr)
	}
	return report, nil
}

// ImportInbox imports every .xlsx file in the inbox directory, moving each
// into processed/ or failed/. One bad file does not stop the others.
func (s *ImportService) ImportInbox(ctx context.Context) ([]*ImportReport, error) {
	if s.cfg.InboxDir == "" {
		return nil, ErrInboxDisabled
	}
	if !s.inboxMu.TryLock() {
		return nil, ErrImportInProgress
	}
	defer s.inboxMu.Unlock()

	for _, dir := range []string{InboxProcessedDir, InboxFailedDir} {
		if err := os.MkdirAll(filepath.Join(s.cfg.InboxDir, dir), 0o755); err != nil {
			return nil, fmt.Errorf("failed to prepare inbox: %w", err)
		}
	}

	entries, err := os.ReadDir(s.cfg.InboxDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read inbox: %w", err)
	}

	var (
		reports []*ImportReport
		errs    []error
	)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(name), ".xlsx") || strings.HasPrefix(name, "~$") {
			continue
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		path := filepath.Join(s.cfg.InboxDir, name)
		report, err := s.ImportFile(ctx, path, "")
		target := InboxProcessedDir
		if err != nil {
			target = InboxFailedDir
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			s.logger.WithError(err).WithField("file", name).Error("Inbox import failed")
		}
		if report != nil {
			reports = append(reports, report)
		}
		if err := s.moveTo(path, target); err != nil {
			errs = append(errs, err)
		}
	}
	return reports, errors.Join(errs...)
}

func (s *ImportService) moveTo(path, dir string) error {
	dest := filepath.Join(filepath.Dir(path), dir, filepath.Base(path))
	if _, err := os.Stat(dest); err == nil {
		stamp := s.now().UTC().Format("20060102T150405")
		dest = filepath.Join(filepath.Dir(path), dir, stamp+"_"+filepath.Base(path))
	}
	if err := os.Rename(path, dest); err != nil {
		return fmt.Errorf("failed to move %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Clear deletes historical records of source ("" for all) and drops cached
// estimates
func (s *ImportService) Clear(ctx context.Context, source, requestedBy string) (int64, error) {
	var hs models.HistoricalSource
	if strings.TrimSpace(source) != "" {
		hs = models.HistoricalSource(datasource.NormalizeSource(source))
		if !hs.Valid() {
			return 0, fmt.Errorf("%w: %q", models.ErrInvalidSource, source)
		}
	}

	deleted, err := s.repo.DeleteAll(ctx, hs)
	if err != nil {
		return 0, err
	}

	metrics.RecordRecordsCleared(deleted)
	s.audit.LogHistoricalClear(string(hs), deleted, requestedBy)
	s.invalidate(ctx, "historical clear")
	return deleted, nil
}

// Stats returns per source coverage of the historical table
func (s *ImportService) Stats(ctx context.Context) ([]models.HistoricalStats, error) {
	return s.repo.Stats(ctx)
}

func (s *ImportService) invalidate(ctx context.Context, reason string) {
	if err := s.store.Flush(ctx); err != nil {
		s.logger.WithError(err).Warn("Failed to invalidate estimate cache")
		return
	}
	s.logger.WithField("reason", reason).Debug("Estimate cache invalidated")
}
