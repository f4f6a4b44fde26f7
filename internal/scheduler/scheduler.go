package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/clinicops/reportengine/internal/config"
	"github.com/clinicops/reportengine/internal/domain/models"
	"github.com/clinicops/reportengine/internal/repository/mongodb"
	"github.com/clinicops/reportengine/internal/repository/sheets"
	"github.com/clinicops/reportengine/internal/service/export"
)

const runTimeout = 2 * time.Minute

// ReportSource loads a report snapshot for a range.
type ReportSource interface {
	FetchReport(ctx context.Context, rng models.ReportRange) (*models.ReportResult, error)
}

// Sinks are the optional delivery targets of the weekly export. Nil members are skipped.
type Sinks struct {
	Publisher  sheets.Publisher
	SheetRange string
	ExportLog  mongodb.ExportLog
}

// Scheduler runs the weekly export job.
type Scheduler struct {
	cron     *cron.Cron
	source   ReportSource
	renderer *export.Renderer
	sinks    Sinks
	cfg      config.ReportingConfig
	loc      *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// NewScheduler creates a scheduler whose cron expressions are evaluated in loc.
func NewScheduler(cfg config.ReportingConfig, loc *time.Location, source ReportSource, renderer *export.Renderer, sinks Sinks, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		source:   source,
		renderer: renderer,
		sinks:    sinks,
		cfg:      cfg,
		loc:      loc,
		now:      time.Now,
		logger:   logger.Named("scheduler"),
	}
}

// Start registers the weekly export and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.runScheduled); err != nil {
		return fmt.Errorf("schedule weekly export %q: %w", s.cfg.CronSchedule, err)
	}

	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.CronSchedule), zap.String("location", s.loc.String()))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	records, err := s.RunOnce(ctx)
	if err != nil {
		s.logger.Error("weekly export failed", zap.Error(err))
		return
	}
	if len(records) > 0 {
		s.logger.Info("weekly export completed", zap.Int("artifacts", len(records)))
	}
}

// RunOnce exports the current week: both artifacts are written to the export
// directory, rows are published to the sheet and every artifact is logged.
// An empty week produces nothing and no error.
func (s *Scheduler) RunOnce(ctx context.Context) ([]models.ExportRecord, error) {
	rng := models.Preset(models.PeriodWeek)

	result, err := s.source.FetchReport(ctx, rng)
	if err != nil {
		return nil, fmt.Errorf("fetch weekly report: %w", err)
	}
	if len(result.Appointments) == 0 {
		s.logger.Warn("no appointments this week, skipping export")
		return nil, nil
	}

	generatedAt := s.now().In(s.loc)
	meta := export.MetaFromResult(rng, result, generatedAt)

	if err := os.MkdirAll(s.cfg.ExportDir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}

	var (
		records  []models.ExportRecord
		sinkErrs []error
	)

	for _, kind := range []export.Kind{export.KindSpreadsheet, export.KindDocument} {
		artifact, err := s.renderer.Render(kind, result.Appointments, meta)
		if err != nil {
			return records, fmt.Errorf("render %s: %w", kind, err)
		}

		path := filepath.Join(s.cfg.ExportDir, artifact.Filename)
		if err := os.WriteFile(path, artifact.Content, 0o644); err != nil {
			return records, fmt.Errorf("write %s: %w", path, err)
		}

		record := models.ExportRecord{
			ID:           uuid.NewString(),
			Kind:         string(kind),
			Filename:     artifact.Filename,
			Range:        rng.Description(),
			Rows:         len(result.Appointments),
			Bytes:        len(artifact.Content),
			TotalRevenue: meta.TotalRevenue.String(),
			GeneratedAt:  generatedAt,
		}
		records = append(records, record)

		s.logger.Info("export written", zap.String("file", path), zap.Int("bytes", record.Bytes))

		if s.sinks.ExportLog != nil {
			if err := s.sinks.ExportLog.SaveExportRecord(ctx, record); err != nil {
				sinkErrs = append(sinkErrs, fmt.Errorf("log %s: %w", artifact.Filename, err))
			}
		}
	}

	if s.sinks.Publisher != nil {
		rows := s.renderer.Projector().ProjectAll(result.Appointments)
		values := make([][]string, len(rows))
		for i, row := range rows {
			values[i] = row.Values()
		}
		if err := s.sinks.Publisher.PublishRows(ctx, s.sinks.SheetRange, export.Columns, values); err != nil {
			sinkErrs = append(sinkErrs, fmt.Errorf("publish rows: %w", err))
		}
	}

	return records, errors.Join(sinkErrs...)
}
