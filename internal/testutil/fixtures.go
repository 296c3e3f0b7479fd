package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/dom/card-chess/internal/domain"
	"github.com/dom/card-chess/internal/repository"
	"github.com/google/uuid"
)

// MatchRecordBuilder creates archived matches with a builder pattern
type MatchRecordBuilder struct {
	record domain.MatchRecord
	moves  []string
}

// NewMatchRecordBuilder creates a decisive quick-play record with defaults
func NewMatchRecordBuilder() *MatchRecordBuilder {
	white := uuid.NewString()
	black := uuid.NewString()
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &MatchRecordBuilder{
		record: domain.MatchRecord{
			ID:        uuid.New(),
			RoomID:    fmt.Sprintf("%s#%s", white, black),
			Kind:      domain.RoomKindQuickPlay,
			Mode:      domain.ModeStandard,
			White:     white,
			Black:     black,
			Result:    domain.MatchResultBlack,
			Reason:    "checkmate",
			FinalFEN:  "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3",
			StartedAt: now.Add(-time.Minute),
			EndedAt:   now,
		},
		moves: []string{"f2f3", "e7e5", "g2g4", "d8h4"},
	}
}

func (b *MatchRecordBuilder) WithResult(result domain.MatchResult, reason string) *MatchRecordBuilder {
	b.record.Result = result
	b.record.Reason = reason
	return b
}

func (b *MatchRecordBuilder) WithMode(mode domain.Mode) *MatchRecordBuilder {
	b.record.Mode = mode
	return b
}

func (b *MatchRecordBuilder) WithMoves(moves ...string) *MatchRecordBuilder {
	b.moves = moves
	return b
}

func (b *MatchRecordBuilder) EndedAt(at time.Time) *MatchRecordBuilder {
	b.record.EndedAt = at.UTC().Truncate(time.Millisecond)
	b.record.StartedAt = b.record.EndedAt.Add(-time.Minute)
	return b
}

// Record returns the record without saving it
func (b *MatchRecordBuilder) Record(t *testing.T) *domain.MatchRecord {
	t.Helper()

	moves, err := json.Marshal(b.moves)
	if err != nil {
		t.Fatalf("failed to marshal moves: %v", err)
	}
	rec := b.record
	rec.Moves = moves
	return &rec
}

// Build saves the record through repo and returns it
func (b *MatchRecordBuilder) Build(t *testing.T, repo repository.MatchRepository) *domain.MatchRecord {
	t.Helper()

	rec := b.Record(t)
	if err := repo.Save(context.Background(), rec); err != nil {
		t.Fatalf("failed to save match record: %v", err)
	}
	return rec
}
