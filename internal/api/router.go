package api

import (
	"net/http"

	"github.com/dom/card-chess/internal/api/handlers"
	"github.com/dom/card-chess/internal/api/middleware"
	"github.com/dom/card-chess/internal/config"
	"github.com/dom/card-chess/internal/repository"
	"github.com/dom/card-chess/internal/service"
	"github.com/dom/card-chess/internal/websocket"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter wires the HTTP surface. repos may be nil when no archive is
// configured.
func NewRouter(services *service.Services, hub *websocket.Hub, repos *repository.Repositories, cfg *config.Config, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	var matchRepo repository.MatchRepository
	if repos != nil {
		matchRepo = repos.Match
	}

	healthHandler := handlers.NewHealthHandler(hub)
	matchHandler := handlers.NewMatchHandler(matchRepo, log.Named("matches"))
	wsHandler := handlers.NewWebSocketHandler(hub, cfg.AllowedOrigins, log.Named("ws"))

	r.Get("/health", healthHandler.Get)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/matches", func(r chi.Router) {
			r.Get("/", matchHandler.List)
			r.Get("/{id}", matchHandler.Get)
		})

		// WebSocket endpoint
		r.With(middleware.Session(services.Session, log.Named("session"))).Get("/ws", wsHandler.Handle)
	})

	return r
}
