package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/medrelay/session-api/internal/config"
	healthHandler "github.com/medrelay/session-api/internal/handler/health"
	planHandler "github.com/medrelay/session-api/internal/handler/plan"
	recordHandler "github.com/medrelay/session-api/internal/handler/record"
	sessionHandler "github.com/medrelay/session-api/internal/handler/session"
	templateHandler "github.com/medrelay/session-api/internal/handler/template"
	vitalsHandler "github.com/medrelay/session-api/internal/handler/vitals"
	"github.com/medrelay/session-api/internal/middleware"
	"github.com/medrelay/session-api/internal/repository/postgres"
	"github.com/medrelay/session-api/internal/router"
	eventService "github.com/medrelay/session-api/internal/service/event"
	planService "github.com/medrelay/session-api/internal/service/plan"
	recordService "github.com/medrelay/session-api/internal/service/record"
	sessionService "github.com/medrelay/session-api/internal/service/session"
	templateService "github.com/medrelay/session-api/internal/service/template"
	templateprogressService "github.com/medrelay/session-api/internal/service/templateprogress"
	vitalsService "github.com/medrelay/session-api/internal/service/vitals"
	"github.com/medrelay/session-api/pkg/logger"
	"github.com/medrelay/session-api/pkg/metrics"
	"github.com/medrelay/session-api/pkg/validator"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	if err := validator.RegisterBindings(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validation rules")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Repositories
	sessionRepo := postgres.NewSessionRepository(db)
	vitalRepo := postgres.NewVitalSignRepository(db)
	recordRepo := postgres.NewMedicalRecordRepository(db)
	noteRepo := postgres.NewNoteRepository(db)
	templateRepo := postgres.NewTemplateRepository(db)
	progressRepo := postgres.NewProgressRepository(db)
	planRepo := postgres.NewPlanRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	m := metrics.New("session_api")

	// Services
	eventSvc := eventService.NewService(outboxRepo)
	sessionSvc := sessionService.NewService(sessionRepo, eventSvc, appLogger, m)
	vitalsSvc := vitalsService.NewService(vitalRepo, m)
	recordSvc := recordService.NewService(recordRepo, noteRepo)
	templateSvc := templateService.NewService(templateRepo)
	progressSvc := templateprogressService.NewService(progressRepo, templateRepo)
	planSvc := planService.NewService(planRepo)

	// Handlers
	r := router.NewRouter(
		healthHandler.NewHandler(db),
		sessionHandler.NewHandler(sessionSvc),
		vitalsHandler.NewHandler(vitalsSvc),
		recordHandler.NewHandler(recordSvc),
		templateHandler.NewHandler(templateSvc, progressSvc),
		planHandler.NewHandler(planSvc),
		router.RouterConfig{
			RateLimit:  rate.Limit(cfg.Server.RateLimitRPS),
			RateBurst:  cfg.Server.RateLimitBurst,
			CORSConfig: middleware.DefaultCORSConfig(),
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	go func() {
		appLogger.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	appLogger.Info("server exited properly")
}
