package integration

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"quiz-result-service/internal/app"
	"quiz-result-service/internal/domain"
	"quiz-result-service/internal/infra/memory"
	"quiz-result-service/internal/infra/postgres"
	infraredis "quiz-result-service/internal/infra/redis"
	"quiz-result-service/internal/recommend"
	"quiz-result-service/internal/report"
	"quiz-result-service/internal/scoring"
)

func TestSubmitEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := postgres.OpenDB(pgURL)
	defer db.Close()
	if _, err := postgres.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := postgres.NewQuizLoader(pool)
	quiz := memory.SampleQuizzes()["english-basics"]
	if err := loader.SaveQuiz(ctx, quiz); err != nil {
		t.Fatalf("save quiz: %v", err)
	}
	catalog := postgres.NewCatalog(db)
	for kind, items := range memory.SampleCatalog() {
		if err := catalog.Replace(ctx, kind, items); err != nil {
			t.Fatalf("seed catalog: %v", err)
		}
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	classifier, err := scoring.NewClassifier(scoring.ClassifierConfig{}, nil)
	if err != nil {
		t.Fatalf("classifier: %v", err)
	}
	results := postgres.NewResultRepository(db)
	service := app.NewResultService(app.Dependencies{
		Attempts:    infraredis.NewAttemptStore(redisClient, 5*time.Minute, nil),
		Quizzes:     infraredis.NewQuizRepository(redisClient, loader, 5*time.Minute, nil),
		Results:     results,
		Classifier:  classifier,
		Recommender: recommend.NewRecommender(catalog, 3, nil),
	})

	started, err := service.StartAttempt(ctx, quiz.ID, "u1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	for _, q := range quiz.Questions[:3] {
		if _, err := service.RecordAnswer(ctx, started.AttemptID, q.ID, q.ID+"-a"); err != nil {
			t.Fatalf("answer %s: %v", q.ID, err)
		}
	}
	for _, q := range quiz.Questions[3:] {
		if _, err := service.RecordAnswer(ctx, started.AttemptID, q.ID, q.ID+"-b"); err != nil {
			t.Fatalf("answer %s: %v", q.ID, err)
		}
	}

	result, err := service.Submit(ctx, started.AttemptID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Percentage != 60 || result.Level != domain.LevelFair {
		t.Fatalf("expected 60%% fair, got %d%% %s", result.Percentage, result.Level)
	}
	if !containsItem(result.ProposedCourses, "c-grammar-101") {
		t.Fatalf("expected grammar course recommendation, got %+v", result.ProposedCourses)
	}

	stored, err := results.GetResult(ctx, result.ID)
	if err != nil {
		t.Fatalf("get result: %v", err)
	}
	if stored.Percentage != result.Percentage || stored.Sharing != domain.SharingPrivate {
		t.Fatalf("stored result differs: %+v", stored)
	}

	history, err := service.UserResults(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("user results: %v", err)
	}
	if len(history) != 1 || history[0].ID != result.ID {
		t.Fatalf("unexpected history %+v", history)
	}

	if _, err := service.SetSharing(ctx, result.ID, domain.SharingPublic); err != nil {
		t.Fatalf("share: %v", err)
	}
	file, err := service.Report(ctx, result.ID, report.DefaultOptions(), "")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !strings.HasPrefix(string(file.Bytes), "%PDF") || file.Pages < 1 {
		t.Fatalf("unexpected report: %d pages", file.Pages)
	}
}

func containsItem(items []domain.ItemRef, id string) bool {
	for _, item := range items {
		if item.ID == id {
			return true
		}
	}
	return false
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
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
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
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
	return fmt.Sprintf("redis://%s:%s", host, port.Port()), func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
