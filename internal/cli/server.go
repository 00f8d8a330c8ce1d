package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quiz-result-service/internal/app"
	"quiz-result-service/internal/config"
	"quiz-result-service/internal/infra/events"
	"quiz-result-service/internal/infra/httpapi"
	"quiz-result-service/internal/infra/memory"
	"quiz-result-service/internal/infra/postgres"
	infraredis "quiz-result-service/internal/infra/redis"
	"quiz-result-service/internal/infra/storage"
	"quiz-result-service/internal/logging"
	"quiz-result-service/internal/metrics"
	"quiz-result-service/internal/recommend"
	"quiz-result-service/internal/report"
	"quiz-result-service/internal/scoring"
	transport "quiz-result-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz result server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// components holds everything built from config; close releases it.
type components struct {
	service   *app.ResultService
	publisher *events.Publisher
	closers   []func()
}

func (c *components) close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// buildService wires the pipeline from config. Every backing service is
// optional; without them the process runs fully in memory on sample content.
func buildService(ctx context.Context, cfg config.Config, log *zap.Logger) (*components, error) {
	c := &components{}
	fail := func(err error) (*components, error) {
		c.close()
		return nil, err
	}

	var remote *httpapi.Client
	if cfg.Remote.BaseURL != "" {
		client, err := httpapi.NewClient(httpapi.Config{
			BaseURL:       cfg.Remote.BaseURL,
			Timeout:       config.TTLDuration(cfg.Remote.Timeout, 10*time.Second),
			RatePerSecond: cfg.Remote.RatePerSecond,
		}, log.Named("upstream"))
		if err != nil {
			return fail(err)
		}
		remote = client
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		c.closers = append(c.closers, func() { _ = redisClient.Close() })
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 30*time.Minute)

	var pgLoader *postgres.QuizLoader
	var results app.ResultRepository = memory.NewResultStore()
	var catalog recommend.Catalog = memory.NewCatalog(memory.SampleCatalog())
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return fail(fmt.Errorf("connect postgres: %w", err))
		}
		c.closers = append(c.closers, pool.Close)
		pgLoader = postgres.NewQuizLoader(pool)

		db := postgres.OpenDB(cfg.Postgres.URL)
		c.closers = append(c.closers, func() { _ = db.Close() })
		results = postgres.NewResultRepository(db)
		catalog = postgres.NewCatalog(db)
	} else if redisClient != nil {
		results = infraredis.NewResultStore(redisClient, 0)
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(memory.SampleQuizzes())
	switch {
	case pgLoader != nil:
		loader = pgLoader
	case remote != nil:
		loader = remote
	}
	if remote != nil && pgLoader == nil {
		catalog = remote
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizzes app.QuizRepository
	var attempts app.AttemptRepository
	if redisClient != nil {
		quizzes = infraredis.NewQuizRepository(redisClient, loader, quizTTL, log.Named("quiz-cache"))
		attempts = infraredis.NewAttemptStore(redisClient, redisTTL, log.Named("attempts"))
	} else {
		quizzes = memory.NewQuizRepository(loader, quizTTL)
		attempts = memory.NewAttemptStore()
	}

	classifier, err := scoring.NewClassifier(scoring.ClassifierConfig{
		Bands:  cfg.Classification.Bands,
		Strict: cfg.Classification.Strict,
	}, log.Named("classifier"))
	if err != nil {
		return fail(err)
	}

	deps := app.Dependencies{
		Attempts:    attempts,
		Quizzes:     quizzes,
		Results:     results,
		Classifier:  classifier,
		Recommender: recommend.NewRecommender(catalog, cfg.Recommend.Limit, log.Named("recommend")),
		Renderer:    report.NewRenderer(report.Config{Compress: cfg.Report.Compress, Author: cfg.Report.Author}, log.Named("report")),
		Logger:      log,
	}
	if remote != nil && cfg.Remote.Authoritative {
		deps.Submitter = remote
	}

	// without amqp.url the publisher is built disabled and drops events
	publisher, err := events.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, log.Named("events"))
	if err != nil {
		return fail(err)
	}
	c.closers = append(c.closers, func() { _ = publisher.Close() })
	c.publisher = publisher
	deps.Publisher = publisher

	if cfg.Report.StoreReports {
		store, err := storage.New(ctx, cfg)
		if err != nil {
			return fail(err)
		}
		deps.Reports = store
	}

	c.service = app.NewResultService(deps)
	return c, nil
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logging.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
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

	built, err := buildService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer built.close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := metrics.Register(registry); err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", metrics.Handler(registry))
	transport.NewRESTHandler(built.service, cfg.Report.RatePerMin, log.Named("rest")).Register(mux)
	mux.HandleFunc("GET /ws", transport.NewWSHandler(built.service, transport.DefaultTickInterval, log.Named("ws")).ServeWS)

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	go func() {
		log.Info("starting quiz result service", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
