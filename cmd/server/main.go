package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dom/card-chess/internal/api"
	"github.com/dom/card-chess/internal/config"
	"github.com/dom/card-chess/internal/game"
	"github.com/dom/card-chess/internal/logging"
	"github.com/dom/card-chess/internal/repository"
	"github.com/dom/card-chess/internal/repository/postgres"
	"github.com/dom/card-chess/internal/repository/redis"
	"github.com/dom/card-chess/internal/service"
	"github.com/dom/card-chess/internal/websocket"
	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// No logger yet.
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.IsDevelopment())
	defer log.Sync()

	repos, err := openArchive(cfg, log)
	if err != nil {
		log.Fatal("failed to open match archive", zap.Error(err))
	}

	// Initialize services
	services := service.NewServices(cfg)

	// Initialize WebSocket hub
	var opts []game.Option
	if repos != nil {
		opts = append(opts, game.WithArchive(repos.Match))
	}
	hub := websocket.NewHub(cfg.GameConfig(), services.Session, log.Named("hub"), opts...)
	go hub.Run()

	// Initialize router
	router := api.NewRouter(services, hub, repos, cfg, log)

	// Create server
	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server starting", zap.String("port", cfg.Port), zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	hub.Stop()

	log.Info("server stopped")
}

// openArchive picks the match archive backend: Postgres when DATABASE_URL is
// set, otherwise Redis when REDIS_URL is set. With neither, finished games are
// not stored.
func openArchive(cfg *config.Config, log *zap.Logger) (*repository.Repositories, error) {
	switch {
	case cfg.DatabaseURL != "":
		db, err := postgres.NewConnection(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		log.Info("match archive: postgres")
		return postgres.NewRepositories(db), nil

	case cfg.RedisURL != "":
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		rdb, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		log.Info("match archive: redis", zap.Duration("ttl", cfg.MatchTTL()))
		return redis.NewRepositories(rdb, cfg.MatchTTL()), nil
	}

	log.Warn("no DATABASE_URL or REDIS_URL set, finished matches will not be archived")
	return nil, nil
}
