package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"campus-assessment-service/internal/app"
	"campus-assessment-service/internal/domain"
	pginfra "campus-assessment-service/internal/infra/postgres"
	pgmigrations "campus-assessment-service/internal/infra/postgres/migrations"
	infraredis "campus-assessment-service/internal/infra/redis"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"
)

func TestSubmitEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedAssessment(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(pgURL)))
	bundb := bun.NewDB(sqldb, pgdialect.New())
	defer bundb.Close()

	logger := zap.NewNop()
	loader := pginfra.NewAssessmentLoader(pool)
	assessments := infraredis.NewAssessmentRepository(redisClient, loader, 5*time.Minute)
	attempts := infraredis.NewAttemptStore(redisClient, 5*time.Minute)
	results := pginfra.NewResultStore(bundb)
	enrollment := pginfra.NewEnrollment(pool)
	sink := app.MultiSink{infraredis.NewEventSink(redisClient)}
	sequencer := app.NewSequencer(attempts, sink, logger)
	service := app.NewAssessmentService(assessments, results, enrollment, sequencer, time.Minute, logger)

	pubsub := redisClient.Subscribe(ctx, infraredis.ChannelFor("a1"))
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := service.StartAttempt(ctx, "u1", "a1"); err != nil {
		t.Fatalf("start attempt: %v", err)
	}
	if err := service.RecordAnswer(ctx, "u1", "a1", "q1"); err != nil {
		t.Fatalf("record answer: %v", err)
	}

	answers, err := json.Marshal([]domain.Answer{
		{QuestionID: "q1", OptionID: "o2"},
	})
	if err != nil {
		t.Fatalf("marshal answers: %v", err)
	}
	result, breakdown, err := service.Submit(ctx, "u1", domain.Submission{
		AssessmentID: "a1",
		UserID:       "u1",
		Answers:      answers,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Score != 10 {
		t.Fatalf("expected score 10, got %d", result.Score)
	}
	if len(breakdown) != 1 || breakdown[0].Awarded != 10 {
		t.Fatalf("unexpected breakdown %+v", breakdown)
	}

	// The Result row must survive a cold read from Postgres.
	stored, err := results.ByAssessment(ctx, "a1")
	if err != nil {
		t.Fatalf("read results: %v", err)
	}
	if len(stored) != 1 || stored[0].UserID != "u1" || stored[0].Score != 10 {
		t.Fatalf("unexpected stored results %+v", stored)
	}

	// All three lifecycle events should have reached the Redis channel in order.
	var seqs []uint64
	deadline := time.After(5 * time.Second)
	for len(seqs) < 3 {
		select {
		case msg := <-pubsub.Channel():
			var event domain.QuizEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				t.Fatalf("unmarshal event: %v", err)
			}
			seqs = append(seqs, event.Seq)
		case <-deadline:
			t.Fatalf("timed out waiting for events, got %v", seqs)
		}
	}
	for i, seq := range seqs {
		if seq != uint64(i+1) {
			t.Fatalf("expected gap-free sequence 1..3, got %v", seqs)
		}
	}

	summary, err := service.GetAssessmentSummary(ctx, "a1")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.AttemptCount != 1 || summary.MeanScore != 10 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	// Outsiders stay rejected even with a live enrollment table.
	if err := service.StartAttempt(ctx, "intruder", "a1"); err == nil {
		t.Fatalf("expected enrollment rejection for intruder")
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "assess", "POSTGRES_PASSWORD": "assesspass", "POSTGRES_DB": "assessdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://assess:assesspass@%s:%s/assessdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seedAssessment(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	questions, err := domain.SerializeQuestionSet([]domain.Question{
		{
			ID:     "q1",
			Type:   domain.SingleChoice,
			Prompt: "What is 2 + 2?",
			Options: []domain.Option{
				{ID: "o1", Text: "3"},
				{ID: "o2", Text: "4"},
			},
			Correct: []string{"o2"},
			Points:  10,
		},
	})
	if err != nil {
		t.Fatalf("serialize questions: %v", err)
	}

	if _, err := db.ExecContext(ctx,
		`INSERT INTO assessments (id, course_id, title, questions, max_score, time_limit_sec)
		 VALUES (?, ?, ?, ?::jsonb, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET questions=EXCLUDED.questions`,
		"a1", "course-1", "Arithmetic check", string(questions), 10, 0); err != nil {
		t.Fatalf("insert assessment: %v", err)
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO enrollments (course_id, user_id) VALUES (?, ?) ON CONFLICT DO NOTHING`,
		"course-1", "u1"); err != nil {
		t.Fatalf("insert enrollment: %v", err)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
