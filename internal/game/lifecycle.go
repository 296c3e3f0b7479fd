package game

import (
	"fmt"

	"github.com/dom/card-chess/internal/cards"
	"github.com/dom/card-chess/internal/domain"
	"github.com/dom/card-chess/internal/engine"
	"github.com/dom/card-chess/internal/protocol"
	"go.uber.org/zap"
)

// FindGame queues the connection or pairs it with the first compatible
// waiting player. The earlier arrival plays white. A connection already
// playing an active game cannot queue.
func (s *Session) FindGame(connID string, mode domain.Mode) error {
	if id, ok := s.activeRoomOf(connID); ok {
		return fmt.Errorf("%w: already playing in %s", domain.ErrInvalidState, id)
	}
	opponent, ok := s.queue.Enqueue(connID, mode, s.sender.IsConnected)
	if !ok {
		s.send(connID, protocol.MessageTypeWaiting, protocol.WaitingPayload{Mode: mode})
		return nil
	}
	room := s.rooms.CreateMatchedRoom(opponent, connID, mode)
	s.startMatch(room)
	return nil
}

func (s *Session) activeRoomOf(connID string) (string, bool) {
	for _, room := range s.rooms.RoomsOf(connID) {
		if room.State == domain.RoomStateActive {
			return room.ID, true
		}
	}
	return "", false
}

func (s *Session) CancelSearch(connID string) {
	s.queue.Remove(connID)
	s.send(connID, protocol.MessageTypeSearchCancelled, struct{}{})
}

func (s *Session) CreateRoom(connID string, mode domain.Mode) {
	s.queue.Remove(connID)
	room := s.rooms.CreateRoom(connID, mode)
	s.send(connID, protocol.MessageTypeRoomCreated, protocol.RoomPayload{RoomID: room.ID, Mode: room.Mode})
	s.log.Info("friend room created", zap.String("room_id", room.ID), zap.String("conn_id", connID))
}

func (s *Session) joinable(roomID, connID string) (*domain.Room, error) {
	room, err := s.rooms.Get(roomID)
	if err != nil {
		return nil, err
	}
	if room.White == connID {
		return nil, fmt.Errorf("%w: already seated in %s", domain.ErrInvalidState, roomID)
	}
	if room.State != domain.RoomStateWaiting || room.Black != "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrRoomFull, roomID)
	}
	if room.White == "" || !s.sender.IsConnected(room.White) {
		return nil, fmt.Errorf("%w: %s", domain.ErrRoomAbandoned, roomID)
	}
	return room, nil
}

// CheckRoom validates that a room can be joined without taking a seat.
func (s *Session) CheckRoom(roomID, connID string) error {
	room, err := s.joinable(roomID, connID)
	if err != nil {
		return err
	}
	s.send(connID, protocol.MessageTypeRoomOK, protocol.RoomPayload{RoomID: room.ID, Mode: room.Mode})
	return nil
}

// JoinRoom seats the connection as black and starts the match. The room's
// mode is the one chosen by its creator.
func (s *Session) JoinRoom(roomID, connID string) error {
	room, err := s.joinable(roomID, connID)
	if err != nil {
		return err
	}
	if id, ok := s.activeRoomOf(connID); ok {
		return fmt.Errorf("%w: already playing in %s", domain.ErrInvalidState, id)
	}
	s.queue.Remove(connID)
	room.Black = connID
	s.startMatch(room)
	return nil
}

// Disconnect applies the consequences of a dropped connection. Friend rooms
// react at once; quick-play seats are held for the grace period.
func (s *Session) Disconnect(connID string) {
	s.queue.Remove(connID)

	for _, room := range s.rooms.RoomsOf(connID) {
		if room.Kind == domain.RoomKindFriend {
			s.vacate(room, connID)
			continue
		}
		s.startGrace(room, connID)
	}
}

func (s *Session) startGrace(room *domain.Room, connID string) {
	color, _ := room.SeatOf(connID)
	roomID := room.ID
	k := graceKey{roomID, color}
	s.cancelGrace(roomID, color)

	s.grace[k] = s.sched.AfterFunc(s.cfg.GracePeriod, func() {
		delete(s.grace, k)
		room, err := s.rooms.Get(roomID)
		if err != nil {
			return
		}
		if room.Player(color) != connID || s.sender.IsConnected(connID) {
			return
		}
		s.log.Info("grace period expired", zap.String("room_id", roomID), zap.String("conn_id", connID))
		s.vacate(room, connID)
	})
	s.log.Debug("grace period started", zap.String("room_id", roomID), zap.String("conn_id", connID))
}

// vacate removes connID from the room. An active game is abandoned and the
// room deleted; otherwise the seat is cleared and the room deleted once
// empty.
func (s *Session) vacate(room *domain.Room, connID string) {
	color, ok := room.SeatOf(connID)
	if !ok {
		return
	}
	opponent := room.Player(color.Opponent())

	if room.State == domain.RoomStateActive {
		s.send(opponent, protocol.MessageTypeOpponentLeft, protocol.OpponentLeftPayload{RoomID: room.ID})
		s.deleteRoom(room)
		return
	}

	if room.State == domain.RoomStateEnded {
		s.send(opponent, protocol.MessageTypeOpponentLeft, protocol.OpponentLeftPayload{RoomID: room.ID})
	}
	s.cancelGrace(room.ID, color)
	room.SetPlayer(color, "")
	delete(room.Hands, connID)
	room.Rematch = ""
	if room.Empty() {
		s.deleteRoom(room)
	}
}

// Rejoin rebinds a connection to its seat, or hands it a seat whose owner is
// gone, and replies with the authoritative room state.
func (s *Session) Rejoin(roomID, connID string) error {
	room, err := s.rooms.Get(roomID)
	if err != nil {
		return err
	}

	color, seated := room.SeatOf(connID)
	if !seated {
		for _, c := range []engine.Color{engine.White, engine.Black} {
			prev := room.Player(c)
			if prev == "" || s.sender.IsConnected(prev) {
				continue
			}
			room.SetPlayer(c, connID)
			if hand, ok := room.Hands[prev]; ok {
				room.Hands[connID] = hand
				delete(room.Hands, prev)
			}
			if room.Rematch == prev {
				room.Rematch = connID
			}
			color, seated = c, true
			s.log.Info("seat reassigned",
				zap.String("room_id", roomID),
				zap.String("from", prev),
				zap.String("to", connID),
			)
			break
		}
	}
	if !seated {
		return fmt.Errorf("%w: %s", domain.ErrRejoinDenied, roomID)
	}
	s.cancelGrace(roomID, color)

	s.send(connID, protocol.MessageTypeRejoined, protocol.RejoinedPayload{
		RoomID:   room.ID,
		FEN:      room.Position.FEN(),
		Status:   room.Position.Status(),
		LastMove: room.LastMove,
		Cards:    cards.Strings(room.Hand(connID)),
		Color:    color,
		Mode:     room.Mode,
		State:    room.State,
		Clocks:   room.Clocks,
	})
	return nil
}

// Resign ends an active game in the opponent's favour.
func (s *Session) Resign(roomID, connID string) error {
	room, err := s.rooms.Get(roomID)
	if err != nil {
		return err
	}
	color, ok := room.SeatOf(connID)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotInRoom, roomID)
	}
	if room.State != domain.RoomStateActive {
		return fmt.Errorf("%w: room is %s", domain.ErrInvalidState, room.State)
	}
	s.endGame(room, reasonResignation, color.Opponent(), connID)
	return nil
}

// Leave vacates the seat immediately.
func (s *Session) Leave(roomID, connID string) error {
	room, err := s.rooms.Get(roomID)
	if err != nil {
		return err
	}
	if _, ok := room.SeatOf(connID); !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotInRoom, roomID)
	}
	s.vacate(room, connID)
	return nil
}
