// Package game holds the authoritative server state for card chess: rooms,
// the matchmaking queue, clocks and the connection lifecycle. A Session is
// single-threaded; every method must be called from one event loop.
package game

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/dom/card-chess/internal/cards"
	"github.com/dom/card-chess/internal/domain"
	"github.com/dom/card-chess/internal/engine"
	"github.com/dom/card-chess/internal/protocol"
	"github.com/dom/card-chess/internal/scheduler"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Config struct {
	GracePeriod   time.Duration
	ClockWarmup   time.Duration
	ClockTick     time.Duration
	SweepInterval time.Duration
	TimedSeconds  int
}

func DefaultConfig() Config {
	return Config{
		GracePeriod:   15 * time.Second,
		ClockWarmup:   2 * time.Second,
		ClockTick:     time.Second,
		SweepInterval: 30 * time.Second,
		TimedSeconds:  600,
	}
}

// Sender delivers messages to connections.
type Sender interface {
	Send(connID string, msg *protocol.Message)
	IsConnected(connID string) bool
}

// Archive stores finished games.
type Archive interface {
	Save(ctx context.Context, record *domain.MatchRecord) error
}

type Option func(*Session)

func WithLogger(log *zap.Logger) Option {
	return func(s *Session) { s.log = log }
}

func WithRand(rng *rand.Rand) Option {
	return func(s *Session) { s.rng = rng }
}

func WithArchive(a Archive) Option {
	return func(s *Session) { s.archive = a }
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

type graceKey struct {
	roomID string
	color  engine.Color
}

type Session struct {
	cfg     Config
	sender  Sender
	sched   scheduler.Scheduler
	log     *zap.Logger
	rng     *rand.Rand
	now     func() time.Time
	archive Archive

	rooms  *Store
	queue  *Queue
	clocks *ClockManager
	grace  map[graceKey]scheduler.Handle
	sweep  scheduler.Handle
}

func NewSession(cfg Config, sender Sender, sched scheduler.Scheduler, opts ...Option) *Session {
	s := &Session{
		cfg:    cfg,
		sender: sender,
		sched:  sched,
		log:    zap.NewNop(),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		now:    time.Now,
		grace:  make(map[graceKey]scheduler.Handle),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rooms = NewStore(s.rng, s.now, cfg.TimedSeconds)
	s.queue = NewQueue(s.now)
	s.clocks = NewClockManager(sched, cfg.ClockWarmup, cfg.ClockTick, s.clockTick)
	return s
}

// Start begins the periodic abandoned-room sweep.
func (s *Session) Start() {
	if s.sweep != nil {
		return
	}
	s.sweep = s.sched.Every(s.cfg.SweepInterval, s.Sweep)
}

// Shutdown cancels every timer owned by the session.
func (s *Session) Shutdown() {
	if s.sweep != nil {
		s.sweep.Stop()
		s.sweep = nil
	}
	s.clocks.StopAll()
	for k, h := range s.grace {
		h.Stop()
		delete(s.grace, k)
	}
}

type Stats struct {
	Rooms   int `json:"rooms"`
	Waiting int `json:"waiting"`
}

func (s *Session) Stats() Stats {
	return Stats{Rooms: s.rooms.Len(), Waiting: s.queue.Len()}
}

// Room exposes a room for inspection.
func (s *Session) Room(id string) (*domain.Room, error) {
	return s.rooms.Get(id)
}

func (s *Session) ClockRunning(roomID string) bool {
	return s.clocks.Running(roomID)
}

func (s *Session) GracePending(roomID string, color engine.Color) bool {
	_, ok := s.grace[graceKey{roomID, color}]
	return ok
}

// Sweep deletes rooms in which neither seat is connected.
func (s *Session) Sweep() {
	for _, room := range s.rooms.Abandoned(s.sender.IsConnected) {
		s.log.Info("sweeping abandoned room", zap.String("room_id", room.ID))
		s.deleteRoom(room)
	}
}

func (s *Session) send(connID string, msgType protocol.MessageType, payload interface{}) {
	if connID == "" {
		return
	}
	msg, err := protocol.NewMessage(msgType, payload)
	if err != nil {
		s.log.Error("failed to encode message", zap.String("type", string(msgType)), zap.Error(err))
		return
	}
	s.sender.Send(connID, msg)
}

func (s *Session) broadcast(room *domain.Room, msgType protocol.MessageType, payload interface{}) {
	for _, id := range room.Players() {
		s.send(id, msgType, payload)
	}
}

// Reject reports a failed request back to the connection.
func (s *Session) Reject(connID string, err error) {
	code := domain.CodeOf(err)
	if domain.IsMoveRejection(err) {
		s.send(connID, protocol.MessageTypeInvalidMove, protocol.InvalidMovePayload{Reason: code})
		return
	}
	if code == "internal" {
		s.log.DPanic("unexpected error", zap.String("conn_id", connID), zap.Error(err))
	}
	s.send(connID, protocol.MessageTypeError, protocol.ErrorPayload{Code: code, Message: err.Error()})
}

func (s *Session) deleteRoom(room *domain.Room) {
	s.clocks.Stop(room.ID)
	s.cancelGrace(room.ID, engine.White)
	s.cancelGrace(room.ID, engine.Black)
	s.rooms.Delete(room.ID)
	s.log.Debug("room deleted", zap.String("room_id", room.ID))
}

func (s *Session) cancelGrace(roomID string, color engine.Color) {
	k := graceKey{roomID, color}
	if h, ok := s.grace[k]; ok {
		h.Stop()
		delete(s.grace, k)
	}
}

// startMatch activates a room with both seats filled: it announces the
// match, deals white's first hand and starts the clock in timed mode.
func (s *Session) startMatch(room *domain.Room) {
	room.State = domain.RoomStateActive
	room.StartedAt = s.now()
	room.ClearHands()

	for _, color := range []engine.Color{engine.White, engine.Black} {
		s.send(room.Player(color), protocol.MessageTypeMatchFound, protocol.MatchFoundPayload{
			RoomID: room.ID,
			Color:  color,
			FEN:    room.Position.FEN(),
			Mode:   room.Mode,
			Clocks: room.Clocks,
		})
	}
	s.dealTurn(room)

	if room.Timed() {
		s.clocks.Start(room.ID)
	}
	s.log.Info("match started",
		zap.String("room_id", room.ID),
		zap.String("kind", string(room.Kind)),
		zap.String("mode", string(room.Mode)),
		zap.String("white", room.White),
		zap.String("black", room.Black),
	)
}

// dealTurn draws a fresh hand for the side to move and sends it to that seat
// only.
func (s *Session) dealTurn(room *domain.Room) {
	connID := room.Player(room.Position.Turn())
	hand := cards.Draw(room.Position, s.rng)
	room.Hands[connID] = hand
	s.send(connID, protocol.MessageTypeCardsDrawn, protocol.CardsDrawnPayload{
		RoomID: room.ID,
		Cards:  cards.Strings(hand),
	})
}

func (s *Session) clockTick(roomID string) {
	room, err := s.rooms.Get(roomID)
	if err != nil || room.State != domain.RoomStateActive || room.Clocks == nil {
		s.clocks.Stop(roomID)
		return
	}

	turn := room.Position.Turn()
	left := room.Clocks.Decrement(turn)
	s.broadcast(room, protocol.MessageTypeTimerUpdate, protocol.TimerUpdatePayload{W: room.Clocks.W, B: room.Clocks.B})

	if left == 0 {
		s.endGame(room, reasonTimeout, turn.Opponent(), "")
	}
}

const (
	reasonCheckmate   = "checkmate"
	reasonDraw        = "draw"
	reasonTimeout     = "timeout"
	reasonResignation = "resignation"
)

// endGame moves an active room to ended and announces the outcome. winner
// is empty for draws.
func (s *Session) endGame(room *domain.Room, reason string, winner engine.Color, resignedID string) {
	if room.State != domain.RoomStateActive {
		s.log.DPanic("ending a room that is not active", zap.String("room_id", room.ID), zap.String("state", string(room.State)))
		return
	}
	s.clocks.Stop(room.ID)
	room.State = domain.RoomStateEnded
	room.ClearHands()
	room.Rematch = ""

	s.broadcast(room, protocol.MessageTypeGameOver, protocol.GameOverPayload{
		RoomID:     room.ID,
		Reason:     reason,
		Winner:     winner,
		ResignedID: resignedID,
		Message:    outcomeMessage(reason, winner),
	})
	s.log.Info("game over",
		zap.String("room_id", room.ID),
		zap.String("reason", reason),
		zap.String("winner", string(winner)),
	)
	s.record(room, reason, winner)
}

func outcomeMessage(reason string, winner engine.Color) string {
	switch reason {
	case reasonCheckmate:
		return "Checkmate! " + capitalize(winner.Name()) + " wins."
	case reasonTimeout:
		return capitalize(winner.Opponent().Name()) + " ran out of time. " + capitalize(winner.Name()) + " wins."
	case reasonResignation:
		return capitalize(winner.Opponent().Name()) + " resigned. " + capitalize(winner.Name()) + " wins."
	}
	return "The game is a draw."
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

func (s *Session) record(room *domain.Room, reason string, winner engine.Color) {
	if s.archive == nil {
		return
	}
	result := domain.MatchResultDraw
	switch winner {
	case engine.White:
		result = domain.MatchResultWhite
	case engine.Black:
		result = domain.MatchResultBlack
	}
	moves, _ := json.Marshal(room.Moves)
	rec := &domain.MatchRecord{
		ID:        uuid.New(),
		RoomID:    room.ID,
		Kind:      room.Kind,
		Mode:      room.Mode,
		White:     room.White,
		Black:     room.Black,
		Result:    result,
		Reason:    reason,
		FinalFEN:  room.Position.FEN(),
		Moves:     moves,
		StartedAt: room.StartedAt,
		EndedAt:   s.now(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.archive.Save(ctx, rec); err != nil {
			s.log.Warn("failed to archive match", zap.String("room_id", rec.RoomID), zap.Error(err))
		}
	}()
}
