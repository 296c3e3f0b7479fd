package game

import (
	"fmt"

	"github.com/dom/card-chess/internal/domain"
	"github.com/dom/card-chess/internal/protocol"
	"go.uber.org/zap"
)

// Handle executes one inbound message for connID. Failures are reported to
// the connection, never returned.
func (s *Session) Handle(connID string, in protocol.Inbound) {
	var err error

	switch m := in.(type) {
	case protocol.FindGame:
		err = s.FindGame(connID, domain.ParseMode(m.Mode))
	case protocol.CreateRoom:
		s.CreateRoom(connID, domain.ParseMode(m.Mode))
	case protocol.CheckRoom:
		err = s.CheckRoom(m.RoomID, connID)
	case protocol.JoinRoom:
		err = s.JoinRoom(m.RoomID, connID)
	case protocol.CancelSearch:
		s.CancelSearch(connID)
	case protocol.MakeMove:
		err = s.SubmitMove(m.RoomID, connID, m.From, m.To)
	case protocol.Resign:
		err = s.Resign(m.RoomID, connID)
	case protocol.LeaveMatch:
		err = s.Leave(m.RoomID, connID)
	case protocol.RequestInitialCards:
		err = s.RequestCards(m.RoomID, connID)
	case protocol.RematchRequest:
		err = s.RequestRematch(m.RoomID, connID)
	case protocol.RematchResponse:
		err = s.RespondRematch(m.RoomID, connID, m.Accepted)
	case protocol.EndFriendMatch:
		err = s.EndFriendMatch(m.RoomID, connID)
	case protocol.RejoinRoom:
		err = s.Rejoin(m.RoomID, connID)
	default:
		err = fmt.Errorf("%w: %T", domain.ErrUnknownMessage, in)
	}

	if err != nil {
		s.log.Debug("request rejected", zap.String("conn_id", connID), zap.Error(err))
		s.Reject(connID, err)
	}
}
