package cli

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"quiz-play-service/internal/app"
	"quiz-play-service/internal/config"
	"quiz-play-service/internal/domain"
	"quiz-play-service/internal/infra/memory"
	pgstore "quiz-play-service/internal/infra/postgres"
	redisinfra "quiz-play-service/internal/infra/redis"
	"quiz-play-service/internal/survey"
	transport "quiz-play-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the play-engine server",
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

	logger := newLogger()
	defer logger.Sync()

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
	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)

	var (
		schedules app.ScheduleStore
		progress  app.ProgressStore
		answers   app.AnswerStore
		quizzes   app.QuizCatalog
		surveys   survey.Store
	)
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()

		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
		db := bun.NewDB(sqldb, pgdialect.New())
		defer db.Close()

		schedules = pgstore.NewScheduleStore(db)
		progressStore := pgstore.NewProgressStore(db)
		progress = progressStore
		answers = progressStore
		surveys = pgstore.NewSurveyStore(db)

		loader := pgstore.NewQuizLoader(pool)
		if redisClient != nil {
			quizzes = redisinfra.NewQuizCatalog(redisClient, loader, quizTTL)
		} else {
			quizzes = memory.NewQuizCatalog(loader, quizTTL)
		}
	} else {
		// no database configured: demo mode with seeded in-memory stores
		scheduleStore, loader := sampleData()
		schedules = scheduleStore
		progressStore := memory.NewProgressStore()
		progress = progressStore
		answers = progressStore
		surveys = memory.NewSurveyStore()
		quizzes = memory.NewQuizCatalog(loader, quizTTL)
	}
	if redisClient != nil {
		schedules = redisinfra.NewScheduleCache(redisClient, schedules, redisTTL)
	}

	staleCutoff := config.TTLDuration(cfg.Play.StaleCutoff, 0)
	surveyGrace := config.TTLDuration(cfg.Play.SurveyGrace, 24*time.Hour)

	resolver := survey.NewResolver(surveys, quizzes)
	evaluator := app.NewStatusEvaluator(schedules, quizzes, progress, resolver).
		WithCutoffs(staleCutoff, surveyGrace)
	aggregator := app.NewStatusAggregator(schedules, evaluator, cfg.BatchSize(app.DefaultBatchSize), logger)
	play := app.NewPlayController(evaluator, progress, logger)
	recorder := app.NewAnswerRecorder(answers)
	surveyService := survey.NewService(surveys, schedules, evaluator, surveyGrace)

	handler := transport.NewHandler(evaluator, aggregator, play, recorder, surveyService, logger)
	watchInterval := config.TTLDuration(cfg.Play.WatchInterval, 5*time.Second)
	wsHandler := transport.NewWSHandler(evaluator, watchInterval, logger)

	mux := http.NewServeMux()
	handler.Register(mux)
	mux.HandleFunc("/ws/status", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting play-engine server", zap.String("port", finalPort))
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

func newLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := cfg.Build()
	return logger
}

// sampleData seeds one open scheduled quiz; swap for real data by configuring Postgres.
func sampleData() (*memory.ScheduleStore, *memory.StaticQuizLoader) {
	now := time.Now().UTC()
	schedules := memory.NewScheduleStore(domain.ScheduledQuiz{
		ID:           "7f0c2ec4-52f9-4f35-a8f5-2cf2a78c0001",
		CourseID:     "course-demo",
		SessionID:    "session-demo",
		QuizID:       "quiz-demo",
		StartAt:      now.Add(-time.Hour),
		EndAt:        now.Add(24 * time.Hour),
		PlayDuration: time.Hour,
	})
	loader := memory.NewStaticQuizLoader(map[string]domain.Quiz{
		"quiz-demo": {
			ID:              "quiz-demo",
			ActivityIDs:     []string{"a1", "a2", "a3"},
			SurveyEnabled:   true,
			SurveyQuestions: []string{"sv-difficulty", "sv-pace", "sv-comments"},
		},
	})
	return schedules, loader
}
