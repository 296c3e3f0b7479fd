package game_test

import (
	"testing"

	"github.com/dom/card-chess/internal/cards"
	"github.com/dom/card-chess/internal/domain"
	"github.com/dom/card-chess/internal/engine"
	"github.com/dom/card-chess/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func TestSubmitMove_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		conn    string
		hand    []cards.Card
		from    string
		to      string
		wantErr error
	}{
		{"stranger", "x", []cards.Card{"pawn-e"}, "e2", "e4", domain.ErrNotInRoom},
		{"black moves first", "b", []cards.Card{"pawn-e"}, "e7", "e5", domain.ErrNotYourTurn},
		{"empty hand", "w", nil, "e2", "e4", domain.ErrNoCardsAvailable},
		{"empty origin", "w", []cards.Card{"pawn-e"}, "e4", "e5", domain.ErrNoPiece},
		{"pawn with knight card", "w", []cards.Card{cards.Knight}, "e2", "e4", domain.ErrCardRestriction},
		{"pawn on wrong file", "w", []cards.Card{"pawn-d"}, "e2", "e4", domain.ErrCardRestriction},
		{"knight to illegal square", "w", []cards.Card{cards.Knight}, "g1", "g3", domain.ErrIllegalMove},
		{"pawn three squares", "w", []cards.Card{"pawn-e"}, "e2", "e5", domain.ErrIllegalMove},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "w", "b")
			room := f.quickMatch(t, "w", "b", domain.ModeStandard)
			setPosition(t, room, startFEN, tt.hand...)
			f.sender.reset()

			err := f.session.SubmitMove(room.ID, tt.conn, tt.from, tt.to)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, startFEN, room.Position.FEN())
			assert.Equal(t, tt.hand, room.Hands["w"])
			assert.Empty(t, room.Moves)
			assert.Nil(t, f.sender.last("w", protocol.MessageTypeGameState))
		})
	}
}

func TestSubmitMove_UnknownRoom(t *testing.T) {
	f := newFixture(t, "w")
	err := f.session.SubmitMove("nope", "w", "e2", "e4")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestHandle_ReportsInvalidMoveReason(t *testing.T) {
	f := newFixture(t, "w", "b")
	room := f.quickMatch(t, "w", "b", domain.ModeStandard)
	setPosition(t, room, startFEN, cards.Knight)

	f.session.Handle("w", protocol.MakeMove{RoomID: room.ID, From: "e2", To: "e4"})

	payload := decode[protocol.InvalidMovePayload](t, f.sender.last("w", protocol.MessageTypeInvalidMove))
	assert.Equal(t, "card_restriction", payload.Reason)
	assert.Equal(t, []cards.Card{cards.Knight}, room.Hand("w"))

	f.session.Handle("b", protocol.MakeMove{RoomID: room.ID, From: "e7", To: "e5"})
	payload = decode[protocol.InvalidMovePayload](t, f.sender.last("b", protocol.MessageTypeInvalidMove))
	assert.Equal(t, "not-your-turn", payload.Reason)

	f.session.Handle("w", protocol.MakeMove{RoomID: "missing", From: "e2", To: "e4"})
	errPayload := decode[protocol.ErrorPayload](t, f.sender.last("w", protocol.MessageTypeError))
	assert.Equal(t, "room-not-found", errPayload.Code)
}

func TestSubmitMove_Accepted(t *testing.T) {
	f := newFixture(t, "w", "b")
	room := f.quickMatch(t, "w", "b", domain.ModeStandard)
	setPosition(t, room, startFEN, "pawn-e", cards.Knight)
	f.sender.reset()

	require.NoError(t, f.session.SubmitMove(room.ID, "w", "e2", "e4"))

	for _, conn := range []string{"w", "b"} {
		state := decode[protocol.GameStatePayload](t, f.sender.last(conn, protocol.MessageTypeGameState))
		assert.Equal(t, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1", state.FEN)
		assert.Equal(t, &domain.LastMove{From: "e2", To: "e4"}, state.LastMove)
		assert.Equal(t, engine.Status{}, state.Status)
		assert.Equal(t, engine.Black, state.Turn)
	}

	assert.Empty(t, room.Hand("w"))
	assert.Nil(t, f.sender.last("w", protocol.MessageTypeCardsDrawn))
	drawn := decode[protocol.CardsDrawnPayload](t, f.sender.last("b", protocol.MessageTypeCardsDrawn))
	assert.Len(t, drawn.Cards, 3)
	assert.Equal(t, drawn.Cards, cards.Strings(room.Hand("b")))
	assert.Equal(t, []string{"e2e4"}, room.Moves)

	err := f.session.SubmitMove(room.ID, "w", "g1", "f3")
	assert.ErrorIs(t, err, domain.ErrNotYourTurn)
}

func TestSubmitMove_ConsumedCardCannotBeReused(t *testing.T) {
	f := newFixture(t, "w", "b")
	room := f.quickMatch(t, "w", "b", domain.ModeStandard)
	setPosition(t, room, startFEN, "pawn-e")

	require.NoError(t, f.session.SubmitMove(room.ID, "w", "e2", "e4"))
	room.Hands["b"] = []cards.Card{"pawn-e"}
	require.NoError(t, f.session.SubmitMove(room.ID, "b", "e7", "e5"))

	room.Hands["w"] = []cards.Card{cards.Knight}
	err := f.session.SubmitMove(room.ID, "w", "d2", "d4")
	assert.ErrorIs(t, err, domain.ErrCardRestriction)
	assert.Equal(t, []cards.Card{cards.Knight}, room.Hand("w"))
}

func TestSubmitMove_CheckmateEndsGame(t *testing.T) {
	f := newFixture(t, "w", "b")
	room := f.quickMatch(t, "w", "b", domain.ModeStandard)
	setPosition(t, room, "rnbqkbnr/pppp1ppp/8/4p3/6P1/5P2/PPPPP2P/RNBQKBNR b KQkq g3 0 2", cards.Queen)
	f.sender.reset()

	require.NoError(t, f.session.SubmitMove(room.ID, "b", "d8", "h4"))

	assert.Equal(t,
		[]protocol.MessageType{protocol.MessageTypeGameState, protocol.MessageTypeGameOver},
		f.sender.types("w"))

	state := decode[protocol.GameStatePayload](t, f.sender.last("w", protocol.MessageTypeGameState))
	assert.True(t, state.Status.IsCheckmate)
	assert.True(t, state.Status.IsCheck)

	over := decode[protocol.GameOverPayload](t, f.sender.last("b", protocol.MessageTypeGameOver))
	assert.Equal(t, "checkmate", over.Reason)
	assert.Equal(t, engine.Black, over.Winner)
	assert.NotEmpty(t, over.Message)

	assert.Equal(t, domain.RoomStateEnded, room.State)
	assert.Nil(t, f.sender.last("w", protocol.MessageTypeCardsDrawn))
	assert.Nil(t, f.sender.last("b", protocol.MessageTypeCardsDrawn))
}

func TestSubmitMove_StalemateIsDraw(t *testing.T) {
	f := newFixture(t, "w", "b")
	room := f.quickMatch(t, "w", "b", domain.ModeStandard)
	setPosition(t, room, "k7/8/1Q6/8/8/8/8/7K w - - 0 1", cards.Queen)

	require.NoError(t, f.session.SubmitMove(room.ID, "w", "b6", "c7"))

	over := decode[protocol.GameOverPayload](t, f.sender.last("w", protocol.MessageTypeGameOver))
	assert.Equal(t, "draw", over.Reason)
	assert.Empty(t, over.Winner)
	assert.Equal(t, domain.RoomStateEnded, room.State)
}

func TestSubmitMove_FiftyMoveRuleIsDraw(t *testing.T) {
	f := newFixture(t, "w", "b")
	room := f.quickMatch(t, "w", "b", domain.ModeStandard)
	setPosition(t, room, "4k3/8/8/8/8/8/4P3/4K2R w - - 99 80", cards.Rook)
	f.sender.reset()

	require.NoError(t, f.session.SubmitMove(room.ID, "w", "h1", "h2"))

	state := decode[protocol.GameStatePayload](t, f.sender.last("b", protocol.MessageTypeGameState))
	assert.True(t, state.Status.IsDraw)

	over := decode[protocol.GameOverPayload](t, f.sender.last("b", protocol.MessageTypeGameOver))
	assert.Equal(t, "draw", over.Reason)
	assert.Empty(t, over.Winner)
	assert.Equal(t, domain.RoomStateEnded, room.State)
	assert.Nil(t, f.sender.last("b", protocol.MessageTypeCardsDrawn))
}

func TestSubmitMove_SquaresAreCaseInsensitive(t *testing.T) {
	f := newFixture(t, "w", "b")
	room := f.quickMatch(t, "w", "b", domain.ModeStandard)
	setPosition(t, room, startFEN, "pawn-e")

	require.NoError(t, f.session.SubmitMove(room.ID, "w", "E2", " E4"))

	assert.Equal(t, &domain.LastMove{From: "e2", To: "e4"}, room.LastMove)
	assert.Equal(t, []string{"e2e4"}, room.Moves)
	assert.Empty(t, room.Hand("w"))
}

func TestSubmitMove_AutoPromotesToQueen(t *testing.T) {
	f := newFixture(t, "w", "b")
	room := f.quickMatch(t, "w", "b", domain.ModeStandard)
	setPosition(t, room, "8/P7/8/8/8/8/8/k6K w - - 0 1", "pawn-a")

	require.NoError(t, f.session.SubmitMove(room.ID, "w", "a7", "a8"))

	piece, _, ok := room.Position.PieceAt("a8")
	require.True(t, ok)
	assert.Equal(t, engine.Queen, piece)
	assert.Equal(t, []string{"a7a8q"}, room.Moves)
}

func TestSubmitMove_EndedRoom(t *testing.T) {
	f := newFixture(t, "w", "b")
	room := f.quickMatch(t, "w", "b", domain.ModeStandard)
	require.NoError(t, f.session.Resign(room.ID, "b"))

	err := f.session.SubmitMove(room.ID, "w", "e2", "e4")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestRequestCards(t *testing.T) {
	f := newFixture(t, "w", "b", "x")
	room := f.quickMatch(t, "w", "b", domain.ModeStandard)
	setPosition(t, room, startFEN, "pawn-e", cards.Knight)

	require.NoError(t, f.session.RequestCards(room.ID, "w"))
	got := decode[protocol.CardsDrawnPayload](t, f.sender.last("w", protocol.MessageTypeCardsDrawn))
	assert.Equal(t, []string{"pawn-e", "knight"}, got.Cards)

	require.NoError(t, f.session.RequestCards(room.ID, "b"))
	got = decode[protocol.CardsDrawnPayload](t, f.sender.last("b", protocol.MessageTypeCardsDrawn))
	assert.Empty(t, got.Cards)

	assert.ErrorIs(t, f.session.RequestCards(room.ID, "x"), domain.ErrNotInRoom)
}
