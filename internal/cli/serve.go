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
	"github.com/jodyrakow/triviavanguard-show-mode-sub000/internal/app"
	"github.com/jodyrakow/triviavanguard-show-mode-sub000/internal/config"
	"github.com/jodyrakow/triviavanguard-show-mode-sub000/internal/domain"
	"github.com/jodyrakow/triviavanguard-show-mode-sub000/internal/infra/memory"
	pgloader "github.com/jodyrakow/triviavanguard-show-mode-sub000/internal/infra/postgres"
	redisinfra "github.com/jodyrakow/triviavanguard-show-mode-sub000/internal/infra/redis"
	transport "github.com/jodyrakow/triviavanguard-show-mode-sub000/internal/transport/http"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the show-mode server",
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
	liveTTL := config.TTLDuration(cfg.Live.TTL, 12*time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.ShowLoader = memory.NewStaticShowLoader(sampleShows())
	if pool != nil {
		loader = pgloader.NewShowLoader(pool)
	}

	showTTL := config.TTLDuration(cfg.Show.TTL, 10*time.Minute)
	var shows app.ContentRepository
	if redisClient != nil {
		shows = redisinfra.NewShowRepository(redisClient, loader, showTTL)
	} else {
		shows = memory.NewShowRepository(loader, showTTL)
	}

	var store app.LiveStore
	if redisClient != nil {
		store = redisinfra.NewLiveStore(redisClient, liveTTL)
	} else {
		store = memory.NewLiveStore()
	}
	service := app.NewShowService(store, shows)
	liveHandler := transport.NewLiveHandler(service)
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/live/", liveHandler.ServeLive)
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting show-mode service on :%s", finalPort)
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

// sampleShows provides a minimal demo show; swap this loader for the
// Postgres-backed one by configuring a database URL.
func sampleShows() map[string]domain.ShowContent {
	return map[string]domain.ShowContent{
		"show-1": {
			ShowID: "show-1",
			Config: domain.ScoringConfig{
				Mode:            domain.ModePooled,
				PoolPerQuestion: 90,
			},
			Questions: []domain.Question{
				{ShowQuestionID: "q1", Order: "1"},
				{ShowQuestionID: "q2", Order: "2"},
				{ShowQuestionID: "q3", Order: "3"},
			},
		},
	}
}
