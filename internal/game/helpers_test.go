package game_test

import (
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/dom/card-chess/internal/cards"
	"github.com/dom/card-chess/internal/domain"
	"github.com/dom/card-chess/internal/engine"
	"github.com/dom/card-chess/internal/game"
	"github.com/dom/card-chess/internal/protocol"
	"github.com/dom/card-chess/internal/scheduler"
	"github.com/stretchr/testify/require"
)

// recorder is a Sender that keeps every message per connection.
type recorder struct {
	connected map[string]bool
	inbox     map[string][]*protocol.Message
}

func newRecorder(ids ...string) *recorder {
	r := &recorder{connected: make(map[string]bool), inbox: make(map[string][]*protocol.Message)}
	for _, id := range ids {
		r.connected[id] = true
	}
	return r
}

func (r *recorder) Send(connID string, msg *protocol.Message) {
	r.inbox[connID] = append(r.inbox[connID], msg)
}

func (r *recorder) IsConnected(connID string) bool {
	return r.connected[connID]
}

func (r *recorder) drop(connID string) {
	delete(r.connected, connID)
}

func (r *recorder) connect(connID string) {
	r.connected[connID] = true
}

func (r *recorder) reset() {
	r.inbox = make(map[string][]*protocol.Message)
}

func (r *recorder) types(connID string) []protocol.MessageType {
	var out []protocol.MessageType
	for _, m := range r.inbox[connID] {
		out = append(out, m.Type)
	}
	return out
}

func (r *recorder) count(connID string, t protocol.MessageType) int {
	n := 0
	for _, m := range r.inbox[connID] {
		if m.Type == t {
			n++
		}
	}
	return n
}

// last returns the most recent message of type t, or nil.
func (r *recorder) last(connID string, t protocol.MessageType) *protocol.Message {
	msgs := r.inbox[connID]
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Type == t {
			return msgs[i]
		}
	}
	return nil
}

func decode[T any](t *testing.T, msg *protocol.Message) T {
	t.Helper()
	require.NotNil(t, msg)
	var v T
	require.NoError(t, json.Unmarshal(msg.Payload, &v))
	return v
}

type fixture struct {
	session *game.Session
	sender  *recorder
	sched   *scheduler.Manual
	cfg     game.Config
}

func newFixture(t *testing.T, ids ...string) *fixture {
	t.Helper()
	sender := newRecorder(ids...)
	sched := scheduler.NewManual()
	cfg := game.DefaultConfig()
	s := game.NewSession(cfg, sender, sched,
		game.WithRand(rand.New(rand.NewSource(1))),
		game.WithClock(func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }),
	)
	t.Cleanup(s.Shutdown)
	return &fixture{session: s, sender: sender, sched: sched, cfg: cfg}
}

// quickMatch pairs white and black through the queue and returns the room.
func (f *fixture) quickMatch(t *testing.T, white, black string, mode domain.Mode) *domain.Room {
	t.Helper()
	f.session.FindGame(white, mode)
	f.session.FindGame(black, mode)

	found := decode[protocol.MatchFoundPayload](t, f.sender.last(white, protocol.MessageTypeMatchFound))
	room, err := f.session.Room(found.RoomID)
	require.NoError(t, err)
	return room
}

// setPosition replaces the room position and gives the side to move hand.
func setPosition(t *testing.T, room *domain.Room, fen string, hand ...cards.Card) {
	t.Helper()
	pos, err := engine.FromFEN(fen)
	require.NoError(t, err)
	room.Position = pos
	room.ClearHands()
	room.Hands[room.Player(pos.Turn())] = hand
}

// firstMoveFor finds a legal move permitted by one of the held cards.
func firstMoveFor(t *testing.T, room *domain.Room, hand []cards.Card) (string, string) {
	t.Helper()
	for _, mv := range room.Position.LegalMoves() {
		for _, c := range hand {
			if cards.IsAllowed(c, mv.From, mv.Piece) {
				return mv.From, mv.To
			}
		}
	}
	t.Fatalf("no legal move for hand %v", hand)
	return "", ""
}
