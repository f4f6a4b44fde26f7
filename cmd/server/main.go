package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/clinicops/reportengine/internal/config"
	"github.com/clinicops/reportengine/internal/repository/mongodb"
	"github.com/clinicops/reportengine/internal/repository/sheets"
	"github.com/clinicops/reportengine/internal/scheduler"
	"github.com/clinicops/reportengine/internal/server/handlers"
	"github.com/clinicops/reportengine/internal/server/router"
	"github.com/clinicops/reportengine/internal/service/export"
	reportingsvc "github.com/clinicops/reportengine/internal/service/reporting"
	"github.com/clinicops/reportengine/pkg/clients/clinic"
	"github.com/clinicops/reportengine/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	loc := cfg.Location()

	clinicClient := clinic.NewClient(cfg.ClinicAPI)
	reportingSvc := reportingsvc.NewService(clinicClient, loc, logger.Named(baseLogger, "svc.reporting"))
	sessions := reportingsvc.NewSessionManager(reportingSvc, cfg.Server.SessionTTL, cfg.Server.SessionCapacity)
	renderer := export.NewRenderer(loc)

	reportHandler := handlers.NewReportHandler(reportingSvc, sessions, renderer, baseLogger)
	engine := router.New(reportHandler, logger.Named(baseLogger, "router"))

	if cfg.Reporting.ExportEnabled {
		sinks := scheduler.Sinks{SheetRange: cfg.Sheets.Range}

		if cfg.Sheets.Enabled() {
			sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, logger.Named(baseLogger, "repo"))
			if err != nil {
				baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
			}
			sinks.Publisher = sheetsRepo
		} else {
			baseLogger.Info("google sheets publishing disabled")
		}

		if cfg.MongoDB.Enabled() {
			connectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			mongoRepo, err := mongodb.NewMongoDBRepository(connectCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
			cancel()
			if err != nil {
				baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
			}
			defer func() {
				if err := mongoRepo.Close(context.Background()); err != nil {
					baseLogger.Error("failed to close mongodb connection", zap.Error(err))
				}
			}()
			sinks.ExportLog = mongoRepo
		} else {
			baseLogger.Info("mongodb export log disabled")
		}

		sched := scheduler.NewScheduler(cfg.Reporting, loc, reportingSvc, renderer, sinks, baseLogger)
		if err := sched.Start(); err != nil {
			baseLogger.Fatal("failed to start scheduler", zap.Error(err))
		}
		defer sched.Stop()
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("clinic_api", cfg.ClinicAPI.BaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
