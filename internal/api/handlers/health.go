package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dom/card-chess/internal/game"
)

// StatsSource reports live session counters.
type StatsSource interface {
	Stats(ctx context.Context) (game.Stats, error)
}

type HealthHandler struct {
	stats     StatsSource
	startedAt time.Time
}

func NewHealthHandler(stats StatsSource) *HealthHandler {
	return &HealthHandler{stats: stats, startedAt: time.Now()}
}

type HealthResponse struct {
	Status        string `json:"status"`
	Rooms         int    `json:"rooms"`
	Waiting       int    `json:"waiting"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
}

func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
	}
	status := http.StatusOK

	stats, err := h.stats.Stats(ctx)
	if err != nil {
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	} else {
		resp.Rooms = stats.Rooms
		resp.Waiting = stats.Waiting
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
