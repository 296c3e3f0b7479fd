package game_test

import (
	"testing"

	"github.com/dom/card-chess/internal/domain"
	"github.com/dom/card-chess/internal/engine"
	"github.com/dom/card-chess/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func friendMatch(t *testing.T, f *fixture, creator, joiner string, mode domain.Mode) *domain.Room {
	t.Helper()
	f.session.CreateRoom(creator, mode)
	created := decode[protocol.RoomPayload](t, f.sender.last(creator, protocol.MessageTypeRoomCreated))
	require.NoError(t, f.session.JoinRoom(created.RoomID, joiner))
	room, err := f.session.Room(created.RoomID)
	require.NoError(t, err)
	return room
}

func TestSession_FriendRoomFlow(t *testing.T) {
	f := newFixture(t, "a", "b")

	f.session.CreateRoom("a", domain.ModeTimed)
	created := decode[protocol.RoomPayload](t, f.sender.last("a", protocol.MessageTypeRoomCreated))
	assert.Equal(t, domain.ModeTimed, created.Mode)

	require.NoError(t, f.session.CheckRoom(created.RoomID, "b"))
	ok := decode[protocol.RoomPayload](t, f.sender.last("b", protocol.MessageTypeRoomOK))
	assert.Equal(t, created.RoomID, ok.RoomID)
	assert.Equal(t, domain.ModeTimed, ok.Mode)

	room, err := f.session.Room(created.RoomID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomStateWaiting, room.State)

	f.session.Handle("b", protocol.JoinRoom{RoomID: created.RoomID, Mode: "standard"})

	white := decode[protocol.MatchFoundPayload](t, f.sender.last("a", protocol.MessageTypeMatchFound))
	black := decode[protocol.MatchFoundPayload](t, f.sender.last("b", protocol.MessageTypeMatchFound))
	assert.Equal(t, engine.White, white.Color)
	assert.Equal(t, engine.Black, black.Color)
	assert.Equal(t, domain.ModeTimed, black.Mode)
	assert.Equal(t, domain.RoomStateActive, room.State)
	assert.True(t, f.session.ClockRunning(room.ID))
}

func TestSession_JoinRoomErrors(t *testing.T) {
	f := newFixture(t, "a", "b", "c")
	f.session.CreateRoom("a", domain.ModeStandard)
	created := decode[protocol.RoomPayload](t, f.sender.last("a", protocol.MessageTypeRoomCreated))

	assert.ErrorIs(t, f.session.CheckRoom("friend-00000000", "b"), domain.ErrRoomNotFound)
	assert.ErrorIs(t, f.session.JoinRoom(created.RoomID, "a"), domain.ErrInvalidState)

	f.sender.drop("a")
	assert.ErrorIs(t, f.session.CheckRoom(created.RoomID, "b"), domain.ErrRoomAbandoned)
	f.sender.connect("a")

	require.NoError(t, f.session.JoinRoom(created.RoomID, "b"))
	assert.ErrorIs(t, f.session.JoinRoom(created.RoomID, "c"), domain.ErrRoomFull)

	f.session.Handle("c", protocol.CheckRoom{RoomID: created.RoomID})
	payload := decode[protocol.ErrorPayload](t, f.sender.last("c", protocol.MessageTypeError))
	assert.Equal(t, "room-full", payload.Code)
}

func TestSession_FriendDisconnectVacatesImmediately(t *testing.T) {
	f := newFixture(t, "a", "b")
	room := friendMatch(t, f, "a", "b", domain.ModeStandard)

	f.sender.drop("b")
	f.session.Disconnect("b")

	left := decode[protocol.OpponentLeftPayload](t, f.sender.last("a", protocol.MessageTypeOpponentLeft))
	assert.Equal(t, room.ID, left.RoomID)
	_, err := f.session.Room(room.ID)
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestSession_WaitingCreatorDisconnectDeletesRoom(t *testing.T) {
	f := newFixture(t, "a")
	f.session.CreateRoom("a", domain.ModeStandard)
	created := decode[protocol.RoomPayload](t, f.sender.last("a", protocol.MessageTypeRoomCreated))

	f.sender.drop("a")
	f.session.Disconnect("a")

	_, err := f.session.Room(created.RoomID)
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestSession_DisconnectLeavesQueue(t *testing.T) {
	f := newFixture(t, "a")
	f.session.FindGame("a", domain.ModeStandard)

	f.sender.drop("a")
	f.session.Disconnect("a")
	assert.Equal(t, 0, f.session.Stats().Waiting)
}

func TestSession_JoiningRoomLeavesQueue(t *testing.T) {
	f := newFixture(t, "h", "c", "d")
	f.session.CreateRoom("h", domain.ModeStandard)
	created := decode[protocol.RoomPayload](t, f.sender.last("h", protocol.MessageTypeRoomCreated))

	require.NoError(t, f.session.FindGame("c", domain.ModeStandard))
	require.NoError(t, f.session.JoinRoom(created.RoomID, "c"))
	assert.Equal(t, 0, f.session.Stats().Waiting)

	require.NoError(t, f.session.FindGame("d", domain.ModeStandard))
	assert.NotNil(t, f.sender.last("d", protocol.MessageTypeWaiting))
	assert.Nil(t, f.sender.last("d", protocol.MessageTypeMatchFound))
	assert.Equal(t, 1, f.sender.count("c", protocol.MessageTypeMatchFound))
	assert.Equal(t, 1, f.session.Stats().Rooms)
	assert.Equal(t, 1, f.session.Stats().Waiting)
}

func TestSession_CreatingRoomLeavesQueue(t *testing.T) {
	f := newFixture(t, "a", "b")
	require.NoError(t, f.session.FindGame("a", domain.ModeStandard))
	f.session.CreateRoom("a", domain.ModeStandard)
	assert.Equal(t, 0, f.session.Stats().Waiting)

	require.NoError(t, f.session.FindGame("b", domain.ModeStandard))
	assert.Nil(t, f.sender.last("a", protocol.MessageTypeMatchFound))
	assert.Nil(t, f.sender.last("b", protocol.MessageTypeMatchFound))
}

func TestSession_ActivePlayerCannotQueueOrJoin(t *testing.T) {
	f := newFixture(t, "w", "b", "h")
	room := f.quickMatch(t, "w", "b", domain.ModeStandard)

	assert.ErrorIs(t, f.session.FindGame("w", domain.ModeStandard), domain.ErrInvalidState)
	assert.Equal(t, 0, f.session.Stats().Waiting)

	f.session.CreateRoom("h", domain.ModeStandard)
	created := decode[protocol.RoomPayload](t, f.sender.last("h", protocol.MessageTypeRoomCreated))
	assert.ErrorIs(t, f.session.JoinRoom(created.RoomID, "b"), domain.ErrInvalidState)

	waiting, err := f.session.Room(created.RoomID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomStateWaiting, waiting.State)
	assert.Equal(t, domain.RoomStateActive, room.State)
}

func TestSession_QuickPlayGraceRejoin(t *testing.T) {
	f := newFixture(t, "w", "b")
	room := f.quickMatch(t, "w", "b", domain.ModeStandard)
	hand := room.Hand("w")
	require.NotEmpty(t, hand)

	f.sender.drop("w")
	f.session.Disconnect("w")
	assert.True(t, f.session.GracePending(room.ID, engine.White))
	assert.Nil(t, f.sender.last("b", protocol.MessageTypeOpponentLeft))

	f.sched.Advance(f.cfg.GracePeriod / 2)
	f.sender.connect("w2")
	f.session.Handle("w2", protocol.RejoinRoom{RoomID: room.ID})

	rejoined := decode[protocol.RejoinedPayload](t, f.sender.last("w2", protocol.MessageTypeRejoined))
	assert.Equal(t, engine.White, rejoined.Color)
	assert.Equal(t, room.Position.FEN(), rejoined.FEN)
	assert.Equal(t, domain.RoomStateActive, rejoined.State)
	assert.Len(t, rejoined.Cards, len(hand))
	assert.Equal(t, "w2", room.White)
	assert.Equal(t, hand, room.Hand("w2"))
	assert.False(t, f.session.GracePending(room.ID, engine.White))

	f.sched.Advance(f.cfg.GracePeriod)
	assert.Nil(t, f.sender.last("b", protocol.MessageTypeOpponentLeft))
	_, err := f.session.Room(room.ID)
	assert.NoError(t, err)

	from, to := firstMoveFor(t, room, hand)
	assert.NoError(t, f.session.SubmitMove(room.ID, "w2", from, to))
}

func TestSession_RejoinSameConnection(t *testing.T) {
	f := newFixture(t, "w", "b")
	room := f.quickMatch(t, "w", "b", domain.ModeStandard)

	f.sender.drop("b")
	f.session.Disconnect("b")
	f.sender.connect("b")

	require.NoError(t, f.session.Rejoin(room.ID, "b"))
	assert.False(t, f.session.GracePending(room.ID, engine.Black))

	rejoined := decode[protocol.RejoinedPayload](t, f.sender.last("b", protocol.MessageTypeRejoined))
	assert.Equal(t, engine.Black, rejoined.Color)
	assert.Empty(t, rejoined.Cards)
}

func TestSession_RejoinCancelsOnlyOwnSeat(t *testing.T) {
	f := newFixture(t, "w", "b")
	room := f.quickMatch(t, "w", "b", domain.ModeStandard)

	f.sender.drop("w")
	f.sender.drop("b")
	f.session.Disconnect("w")
	f.session.Disconnect("b")

	// A fresh connection fills the first pending seat, which is white.
	f.sender.connect("b2")
	require.NoError(t, f.session.Rejoin(room.ID, "b2"))
	rejoined := decode[protocol.RejoinedPayload](t, f.sender.last("b2", protocol.MessageTypeRejoined))
	assert.Equal(t, engine.White, rejoined.Color)
	assert.Equal(t, "b2", room.White)
	assert.False(t, f.session.GracePending(room.ID, engine.White))
	assert.True(t, f.session.GracePending(room.ID, engine.Black))

	f.sched.Advance(f.cfg.GracePeriod)
	assert.NotNil(t, f.sender.last("b2", protocol.MessageTypeOpponentLeft))
	_, err := f.session.Room(room.ID)
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestSession_GraceExpiryAbandonsMatch(t *testing.T) {
	f := newFixture(t, "w", "b")
	room := f.quickMatch(t, "w", "b", domain.ModeTimed)

	f.sender.drop("w")
	f.session.Disconnect("w")

	f.sched.Advance(f.cfg.GracePeriod - f.cfg.ClockTick)
	assert.Nil(t, f.sender.last("b", protocol.MessageTypeOpponentLeft))

	f.sched.Advance(f.cfg.ClockTick)
	left := decode[protocol.OpponentLeftPayload](t, f.sender.last("b", protocol.MessageTypeOpponentLeft))
	assert.Equal(t, room.ID, left.RoomID)
	_, err := f.session.Room(room.ID)
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	assert.False(t, f.session.ClockRunning(room.ID))
}

func TestSession_RejoinDenied(t *testing.T) {
	f := newFixture(t, "w", "b", "x")
	room := f.quickMatch(t, "w", "b", domain.ModeStandard)

	assert.ErrorIs(t, f.session.Rejoin(room.ID, "x"), domain.ErrRejoinDenied)
	assert.ErrorIs(t, f.session.Rejoin("missing", "x"), domain.ErrRoomNotFound)
	assert.Equal(t, "w", room.White)
	assert.Equal(t, "b", room.Black)
}

func TestSession_Resign(t *testing.T) {
	f := newFixture(t, "w", "b", "x")
	room := f.quickMatch(t, "w", "b", domain.ModeStandard)

	assert.ErrorIs(t, f.session.Resign(room.ID, "x"), domain.ErrNotInRoom)

	f.session.Handle("b", protocol.Resign{RoomID: room.ID})

	for _, conn := range []string{"w", "b"} {
		over := decode[protocol.GameOverPayload](t, f.sender.last(conn, protocol.MessageTypeGameOver))
		assert.Equal(t, "resignation", over.Reason)
		assert.Equal(t, engine.White, over.Winner)
		assert.Equal(t, "b", over.ResignedID)
		assert.Equal(t, "Black resigned. White wins.", over.Message)
	}
	assert.Equal(t, domain.RoomStateEnded, room.State)
	assert.Empty(t, room.Hand("w"))

	assert.ErrorIs(t, f.session.Resign(room.ID, "w"), domain.ErrInvalidState)
}

func TestSession_LeaveActiveMatch(t *testing.T) {
	f := newFixture(t, "w", "b")
	room := f.quickMatch(t, "w", "b", domain.ModeStandard)

	f.session.Handle("w", protocol.LeaveMatch{RoomID: room.ID})

	assert.NotNil(t, f.sender.last("b", protocol.MessageTypeOpponentLeft))
	assert.Nil(t, f.sender.last("w", protocol.MessageTypeOpponentLeft))
	_, err := f.session.Room(room.ID)
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestSession_LeaveEndedMatch(t *testing.T) {
	f := newFixture(t, "w", "b")
	room := f.quickMatch(t, "w", "b", domain.ModeStandard)
	require.NoError(t, f.session.Resign(room.ID, "w"))

	require.NoError(t, f.session.Leave(room.ID, "w"))
	assert.NotNil(t, f.sender.last("b", protocol.MessageTypeOpponentLeft))
	assert.Empty(t, room.White)
	assert.Equal(t, "b", room.Black)

	assert.ErrorIs(t, f.session.RequestRematch(room.ID, "b"), domain.ErrInvalidState)

	require.NoError(t, f.session.Leave(room.ID, "b"))
	_, err := f.session.Room(room.ID)
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)

	assert.ErrorIs(t, f.session.Leave(room.ID, "b"), domain.ErrRoomNotFound)
}
