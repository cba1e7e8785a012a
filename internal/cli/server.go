package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"civic-quiz-engine/internal/config"
	"civic-quiz-engine/internal/domain"
	"civic-quiz-engine/internal/engine"
	"civic-quiz-engine/internal/infra/memory"
	pgstore "civic-quiz-engine/internal/infra/postgres"
	redisstore "civic-quiz-engine/internal/infra/redis"
	"civic-quiz-engine/internal/modes"
	transport "civic-quiz-engine/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz engine server",
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

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
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

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.TopicLoader = memory.NewStaticTopicLoader(sampleTopics())
	if pool != nil {
		loader = pgstore.NewTopicLoader(pool)
	}

	topicTTL := config.TTLDuration(cfg.Topics.TTL, 10*time.Minute)
	var topics engine.QuestionSource
	if redisClient != nil {
		topics = redisstore.NewTopicRepository(redisClient, loader, topicTTL)
	} else {
		topics = memory.NewTopicRepository(loader, topicTTL)
	}

	progressTTL := config.TTLDuration(cfg.Progress.TTL, 24*time.Hour)
	var progress engine.ProgressStore
	switch {
	case pool != nil:
		progress = pgstore.NewProgressStore(pool)
	case redisClient != nil:
		progress = redisstore.NewProgressStore(redisClient, progressTTL)
	default:
		progress = memory.NewProgressStore()
	}

	registry := modes.Default()
	wsHandler := transport.NewWSHandler(registry, topics, progress)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz engine on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleTopics provides demo content; production deployments load topics from
// Postgres instead.
func sampleTopics() map[string]domain.Topic {
	return map[string]domain.Topic{
		"civics-101": {
			ID:    "civics-101",
			Title: "Civics Basics",
			Questions: []domain.Question{
				{
					ID:     "q1",
					Prompt: "How many branches does the federal government have?",
					Options: []domain.Option{
						{ID: "o1", Text: "Two"},
						{ID: "o2", Text: "Three"},
						{ID: "o3", Text: "Four"},
					},
					CorrectOptionID: "o2",
					Category:        "government",
					Hint:            "Legislative, executive, and one more.",
					Points:          1,
				},
				{
					ID:     "q2",
					Prompt: "Which branch writes federal laws?",
					Options: []domain.Option{
						{ID: "o1", Text: "Legislative"},
						{ID: "o2", Text: "Executive"},
						{ID: "o3", Text: "Judicial"},
					},
					CorrectOptionID: "o1",
					Category:        "government",
					Hint:            "It meets in the Capitol.",
					Points:          1,
				},
			},
		},
	}
}
