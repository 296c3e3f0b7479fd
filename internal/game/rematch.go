package game

import (
	"fmt"

	"github.com/dom/card-chess/internal/domain"
	"github.com/dom/card-chess/internal/engine"
	"github.com/dom/card-chess/internal/protocol"
)

func (s *Session) endedRoom(roomID, connID string) (*domain.Room, string, error) {
	room, err := s.rooms.Get(roomID)
	if err != nil {
		return nil, "", err
	}
	if _, ok := room.SeatOf(connID); !ok {
		return nil, "", fmt.Errorf("%w: %s", domain.ErrNotInRoom, roomID)
	}
	if room.State != domain.RoomStateEnded {
		return nil, "", fmt.Errorf("%w: room is %s", domain.ErrInvalidState, room.State)
	}
	opponent := room.Opponent(connID)
	if opponent == "" || !s.sender.IsConnected(opponent) {
		return nil, "", fmt.Errorf("%w: opponent has left", domain.ErrInvalidState)
	}
	return room, opponent, nil
}

// RequestRematch records a rematch offer and prompts the opponent. Two
// crossing offers count as acceptance.
func (s *Session) RequestRematch(roomID, connID string) error {
	room, opponent, err := s.endedRoom(roomID, connID)
	if err != nil {
		return err
	}
	if room.Rematch == opponent {
		s.send(opponent, protocol.MessageTypeRematchResponse, protocol.RematchResultPayload{RoomID: room.ID, Accepted: true})
		s.restart(room)
		return nil
	}
	room.Rematch = connID
	s.send(opponent, protocol.MessageTypeRematchPrompt, protocol.RematchPayload{RoomID: room.ID})
	s.send(connID, protocol.MessageTypeRematchRequest, protocol.RematchPayload{RoomID: room.ID})
	return nil
}

// RespondRematch answers the opponent's pending offer.
func (s *Session) RespondRematch(roomID, connID string, accepted bool) error {
	room, opponent, err := s.endedRoom(roomID, connID)
	if err != nil {
		return err
	}
	if room.Rematch != opponent {
		return fmt.Errorf("%w: no pending rematch", domain.ErrInvalidState)
	}

	s.send(opponent, protocol.MessageTypeRematchResponse, protocol.RematchResultPayload{RoomID: room.ID, Accepted: accepted})
	if !accepted {
		s.broadcast(room, protocol.MessageTypeRematchDeclined, protocol.RematchPayload{RoomID: room.ID})
		s.broadcast(room, protocol.MessageTypeReturnHome, protocol.RematchPayload{RoomID: room.ID})
		s.deleteRoom(room)
		return nil
	}
	s.restart(room)
	return nil
}

// restart resets the room in place with colors swapped.
func (s *Session) restart(room *domain.Room) {
	s.clocks.Stop(room.ID)
	room.White, room.Black = room.Black, room.White
	room.Position = engine.NewPosition()
	room.LastMove = nil
	room.Moves = nil
	room.Rematch = ""
	if room.Timed() {
		room.Clocks = domain.NewClocks(s.cfg.TimedSeconds)
	}
	s.startMatch(room)
}

// EndFriendMatch sends both players home and removes the room.
func (s *Session) EndFriendMatch(roomID, connID string) error {
	room, err := s.rooms.Get(roomID)
	if err != nil {
		return err
	}
	if _, ok := room.SeatOf(connID); !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotInRoom, roomID)
	}
	if room.Kind != domain.RoomKindFriend {
		return fmt.Errorf("%w: %s", domain.ErrNotFriendRoom, roomID)
	}
	s.broadcast(room, protocol.MessageTypeReturnHome, protocol.RematchPayload{RoomID: room.ID})
	s.deleteRoom(room)
	return nil
}
