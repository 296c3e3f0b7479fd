package game

import (
	"fmt"
	"strings"

	"github.com/dom/card-chess/internal/cards"
	"github.com/dom/card-chess/internal/domain"
	"github.com/dom/card-chess/internal/protocol"
	"go.uber.org/zap"
)

// SubmitMove validates and applies a move. A rejected move leaves the room
// untouched.
func (s *Session) SubmitMove(roomID, connID, from, to string) error {
	from = strings.ToLower(strings.TrimSpace(from))
	to = strings.ToLower(strings.TrimSpace(to))

	room, err := s.rooms.Get(roomID)
	if err != nil {
		return err
	}
	seat, ok := room.SeatOf(connID)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotInRoom, roomID)
	}
	if room.State != domain.RoomStateActive {
		return fmt.Errorf("%w: room is %s", domain.ErrInvalidState, room.State)
	}

	pos := room.Position
	if seat != pos.Turn() {
		return domain.ErrNotYourTurn
	}
	hand := room.Hand(connID)
	if len(hand) == 0 {
		return domain.ErrNoCardsAvailable
	}
	piece, _, ok := pos.PieceAt(from)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNoPiece, from)
	}
	if cards.Match(hand, from, piece) < 0 {
		return fmt.Errorf("%w: %s on %s", domain.ErrCardRestriction, piece, from)
	}
	if !contains(pos.LegalDestinations(from), to) {
		return fmt.Errorf("%w: %s%s", domain.ErrIllegalMove, from, to)
	}

	uci, err := pos.Apply(from, to)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrIllegalMove, err)
	}
	// Leftover cards are discarded; only the next side to move holds a hand.
	room.ClearHands()
	room.LastMove = &domain.LastMove{From: from, To: to}
	room.Moves = append(room.Moves, uci)

	status := pos.Status()
	s.broadcast(room, protocol.MessageTypeGameState, protocol.GameStatePayload{
		RoomID:   room.ID,
		FEN:      pos.FEN(),
		Status:   status,
		LastMove: room.LastMove,
		Turn:     pos.Turn(),
	})
	s.log.Debug("move applied",
		zap.String("room_id", room.ID),
		zap.String("conn_id", connID),
		zap.String("move", uci),
	)

	switch {
	case status.IsCheckmate:
		s.endGame(room, reasonCheckmate, seat, "")
	case status.IsDraw:
		s.endGame(room, reasonDraw, "", "")
	default:
		s.dealTurn(room)
	}
	return nil
}

// RequestCards resends the connection's current hand.
func (s *Session) RequestCards(roomID, connID string) error {
	room, err := s.rooms.Get(roomID)
	if err != nil {
		return err
	}
	if _, ok := room.SeatOf(connID); !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotInRoom, roomID)
	}
	s.send(connID, protocol.MessageTypeCardsDrawn, protocol.CardsDrawnPayload{
		RoomID: room.ID,
		Cards:  cards.Strings(room.Hand(connID)),
	})
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
