package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campus-assessment-service/internal/app"
	"campus-assessment-service/internal/config"
	"campus-assessment-service/internal/domain"
	"campus-assessment-service/internal/infra/memory"
	pginfra "campus-assessment-service/internal/infra/postgres"
	redisinfra "campus-assessment-service/internal/infra/redis"
	transport "campus-assessment-service/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.uber.org/zap"
)

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the assessment server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.AssessmentLoader = memory.NewStaticAssessmentLoader(sampleAssessments())
	if pool != nil {
		loader = pginfra.NewAssessmentLoader(pool)
	}

	cacheTTL := config.TTLDuration(cfg.Assessment.CacheTTL, 10*time.Minute)
	var assessments app.AssessmentRepository
	if redisClient != nil {
		assessments = redisinfra.NewAssessmentRepository(redisClient, loader, cacheTTL)
	} else {
		assessments = memory.NewAssessmentRepository(loader, cacheTTL)
	}

	var attempts app.AttemptRepository
	if redisClient != nil {
		attempts = redisinfra.NewAttemptStore(redisClient, redisTTL)
	} else {
		attempts = memory.NewAttemptStore()
	}

	var results app.ResultStore
	if pool != nil {
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
		bundb := bun.NewDB(sqldb, pgdialect.New())
		defer bundb.Close()
		results = pginfra.NewResultStore(bundb)
	} else {
		results = memory.NewResultStore()
	}

	var enrollment app.EnrollmentService = memory.OpenEnrollment{}
	if pool != nil {
		enrollment = pginfra.NewEnrollment(pool)
	}

	broadcaster := app.NewBroadcaster()
	sink := app.MultiSink{broadcaster}
	if redisClient != nil {
		sink = append(sink, redisinfra.NewEventSink(redisClient))
	}

	sequencer := app.NewSequencer(attempts, sink, logger)
	grace := config.TTLDuration(cfg.Submission.Grace, time.Minute)
	service := app.NewAssessmentService(assessments, results, enrollment, sequencer, grace, logger)

	wsHandler := transport.NewWSHandler(service, broadcaster, logger)
	apiHandler := transport.NewAPIHandler(service, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws/attempt", wsHandler.ServeAttempt)
	mux.HandleFunc("/ws/monitor", wsHandler.ServeMonitor)
	apiHandler.Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting assessment service", zap.String("port", finalPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleAssessments provides minimal fixtures for running without Postgres.
func sampleAssessments() map[string]domain.Assessment {
	questions, _ := json.Marshal([]domain.Question{
		{
			ID:     "q1",
			Type:   domain.SingleChoice,
			Prompt: "What is 2 + 2?",
			Options: []domain.Option{
				{ID: "o1", Text: "3"},
				{ID: "o2", Text: "4"},
				{ID: "o3", Text: "5"},
			},
			Correct: []string{"o2"},
			Points:  10,
		},
		{
			ID:     "q2",
			Type:   domain.MultiChoice,
			Prompt: "Select the even numbers",
			Options: []domain.Option{
				{ID: "a", Text: "1"},
				{ID: "b", Text: "2"},
				{ID: "c", Text: "4"},
			},
			Correct: []string{"b", "c"},
			Points:  10,
		},
	})
	return map[string]domain.Assessment{
		"assessment-1": {
			ID:        "assessment-1",
			CourseID:  "course-1",
			Title:     "Arithmetic check",
			Questions: questions,
			MaxScore:  20,
			TimeLimit: 30 * time.Minute,
		},
	}
}
