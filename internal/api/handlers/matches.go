package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dom/card-chess/internal/domain"
	"github.com/dom/card-chess/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultMatchLimit = 20
	maxMatchLimit     = 100
)

type MatchHandler struct {
	matchRepo repository.MatchRepository
	log       *zap.Logger
}

// NewMatchHandler serves the archive. matchRepo may be nil when no archive
// backend is configured.
func NewMatchHandler(matchRepo repository.MatchRepository, log *zap.Logger) *MatchHandler {
	return &MatchHandler{matchRepo: matchRepo, log: log}
}

func (h *MatchHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.matchRepo == nil {
		http.Error(w, "Match archive not configured", http.StatusNotFound)
		return
	}

	limit := defaultMatchLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxMatchLimit)
	}

	records, err := h.matchRepo.ListRecent(r.Context(), limit)
	if err != nil {
		h.log.Error("failed to list matches", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []*domain.MatchRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.matchRepo == nil {
		http.Error(w, "Match archive not configured", http.StatusNotFound)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid match ID", http.StatusBadRequest)
		return
	}

	record, err := h.matchRepo.GetByID(r.Context(), id)
	if errors.Is(err, domain.ErrMatchNotFound) {
		http.Error(w, "Match not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error("failed to get match", zap.String("match_id", id.String()), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(record)
}
