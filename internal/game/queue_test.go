package game_test

import (
	"testing"
	"time"

	"github.com/dom/card-chess/internal/domain"
	"github.com/dom/card-chess/internal/engine"
	"github.com/dom/card-chess/internal/game"
	"github.com/dom/card-chess/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allConnected(string) bool { return true }

func TestQueue_Enqueue(t *testing.T) {
	q := game.NewQueue(time.Now)

	_, ok := q.Enqueue("a", domain.ModeStandard, allConnected)
	assert.False(t, ok)
	_, ok = q.Enqueue("b", domain.ModeTimed, allConnected)
	assert.False(t, ok)

	opponent, ok := q.Enqueue("c", domain.ModeTimed, allConnected)
	require.True(t, ok)
	assert.Equal(t, "b", opponent)
	assert.Equal(t, 1, q.Len())

	opponent, ok = q.Enqueue("d", domain.ModeStandard, allConnected)
	require.True(t, ok)
	assert.Equal(t, "a", opponent)
	assert.Equal(t, 0, q.Len())
}

func TestQueue_FIFO(t *testing.T) {
	q := game.NewQueue(time.Now)
	q.Enqueue("a", domain.ModeStandard, allConnected)
	q.Remove("a")
	q.Enqueue("b", domain.ModeStandard, allConnected)

	opponent, ok := q.Enqueue("c", domain.ModeStandard, allConnected)
	require.True(t, ok)
	assert.Equal(t, "b", opponent)
}

func TestQueue_ReenqueueIsIdempotent(t *testing.T) {
	q := game.NewQueue(time.Now)

	_, ok := q.Enqueue("a", domain.ModeStandard, allConnected)
	assert.False(t, ok)
	_, ok = q.Enqueue("a", domain.ModeStandard, allConnected)
	assert.False(t, ok)
	assert.Equal(t, 1, q.Len())

	_, ok = q.Enqueue("a", domain.ModeTimed, allConnected)
	assert.False(t, ok)
	entries := q.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ModeTimed, entries[0].Mode)
}

func TestQueue_StaleEntryIsDiscarded(t *testing.T) {
	q := game.NewQueue(time.Now)
	q.Enqueue("ghost", domain.ModeStandard, allConnected)

	_, ok := q.Enqueue("b", domain.ModeStandard, func(id string) bool { return id != "ghost" })
	assert.False(t, ok)
	assert.False(t, q.Contains("ghost"))
	assert.True(t, q.Contains("b"))
}

func TestQueue_Remove(t *testing.T) {
	q := game.NewQueue(time.Now)
	q.Enqueue("a", domain.ModeStandard, allConnected)

	assert.True(t, q.Remove("a"))
	assert.False(t, q.Remove("a"))
	assert.Equal(t, 0, q.Len())
}

func TestSession_FindGame(t *testing.T) {
	f := newFixture(t, "a", "b")

	f.session.FindGame("a", domain.ModeStandard)
	assert.Equal(t, []protocol.MessageType{protocol.MessageTypeWaiting}, f.sender.types("a"))
	assert.Equal(t, 1, f.session.Stats().Waiting)

	f.session.FindGame("b", domain.ModeStandard)

	white := decode[protocol.MatchFoundPayload](t, f.sender.last("a", protocol.MessageTypeMatchFound))
	black := decode[protocol.MatchFoundPayload](t, f.sender.last("b", protocol.MessageTypeMatchFound))
	assert.Equal(t, engine.White, white.Color)
	assert.Equal(t, engine.Black, black.Color)
	assert.Equal(t, white.RoomID, black.RoomID)
	assert.Equal(t, white.FEN, black.FEN)
	assert.Equal(t, domain.ModeStandard, white.Mode)
	assert.Nil(t, white.Clocks)

	hand := decode[protocol.CardsDrawnPayload](t, f.sender.last("a", protocol.MessageTypeCardsDrawn))
	assert.Len(t, hand.Cards, 3)
	assert.Nil(t, f.sender.last("b", protocol.MessageTypeCardsDrawn))
	assert.Equal(t, 0, f.session.Stats().Waiting)
}

func TestSession_CancelSearch(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.session.FindGame("a", domain.ModeStandard)

	f.session.CancelSearch("a")
	assert.NotNil(t, f.sender.last("a", protocol.MessageTypeSearchCancelled))
	assert.Equal(t, 0, f.session.Stats().Waiting)

	f.session.FindGame("b", domain.ModeStandard)
	assert.Nil(t, f.sender.last("b", protocol.MessageTypeMatchFound))
}
