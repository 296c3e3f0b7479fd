package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dom/card-chess/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type matchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(db *gorm.DB) *matchRepository {
	return &matchRepository{db: db}
}

func (r *matchRepository) Save(ctx context.Context, record *domain.MatchRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *matchRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.MatchRecord, error) {
	var record domain.MatchRecord
	err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", domain.ErrMatchNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *matchRepository) ListRecent(ctx context.Context, limit int) ([]*domain.MatchRecord, error) {
	var records []*domain.MatchRecord
	err := r.db.WithContext(ctx).
		Order("ended_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
