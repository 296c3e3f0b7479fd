package repository

import (
	"context"

	"github.com/dom/card-chess/internal/domain"
	"github.com/google/uuid"
)

// MatchRepository archives finished games.
type MatchRepository interface {
	Save(ctx context.Context, record *domain.MatchRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.MatchRecord, error)
	ListRecent(ctx context.Context, limit int) ([]*domain.MatchRecord, error)
}

type Repositories struct {
	Match MatchRepository
}
