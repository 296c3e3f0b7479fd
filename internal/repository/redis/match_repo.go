package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dom/card-chess/internal/domain"
	"github.com/dom/card-chess/internal/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyRecent = "match:recent"

// matchRepository keeps each record as a JSON document that expires after
// ttl, plus a sorted index by end time.
type matchRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewMatchRepository(rdb *redis.Client, ttl time.Duration) *matchRepository {
	return &matchRepository{rdb: rdb, ttl: ttl}
}

func NewRepositories(rdb *redis.Client, ttl time.Duration) *repository.Repositories {
	return &repository.Repositories{
		Match: NewMatchRepository(rdb, ttl),
	}
}

func keyMatch(id uuid.UUID) string { return "match:" + id.String() }

func (r *matchRepository) Save(ctx context.Context, record *domain.MatchRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return err
	}
	pipe := r.rdb.TxPipeline()
	pipe.Set(ctx, keyMatch(record.ID), raw, r.ttl)
	pipe.ZAdd(ctx, keyRecent, redis.Z{Score: float64(record.EndedAt.UnixMilli()), Member: record.ID.String()})
	pipe.ZRemRangeByScore(ctx, keyRecent, "-inf", fmt.Sprintf("(%d", time.Now().Add(-r.ttl).UnixMilli()))
	_, err = pipe.Exec(ctx)
	return err
}

func (r *matchRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.MatchRecord, error) {
	raw, err := r.rdb.Get(ctx, keyMatch(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", domain.ErrMatchNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	var record domain.MatchRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListRecent returns the newest records first. Index entries whose document
// has expired are skipped.
func (r *matchRepository) ListRecent(ctx context.Context, limit int) ([]*domain.MatchRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	ids, err := r.rdb.ZRevRange(ctx, keyRecent, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	records := make([]*domain.MatchRecord, 0, len(ids))
	for _, s := range ids {
		id, err := uuid.Parse(s)
		if err != nil {
			continue
		}
		record, err := r.GetByID(ctx, id)
		if errors.Is(err, domain.ErrMatchNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}
