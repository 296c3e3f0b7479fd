package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dom/card-chess/internal/domain"
)

// Inbound is a decoded client message. The set of implementations is closed.
type Inbound interface {
	inbound()
}

type FindGame struct {
	Mode string `json:"mode"`
}

type CreateRoom struct {
	Mode string `json:"mode"`
}

type CheckRoom struct {
	RoomID string `json:"roomId"`
	Mode   string `json:"mode"`
}

type JoinRoom struct {
	RoomID string `json:"roomId"`
	Mode   string `json:"mode"`
}

type CancelSearch struct{}

type MakeMove struct {
	RoomID string `json:"roomId"`
	From   string `json:"from"`
	To     string `json:"to"`
}

type Resign struct {
	RoomID string `json:"roomId"`
}

type LeaveMatch struct {
	RoomID string `json:"roomId"`
}

type RequestInitialCards struct {
	RoomID string `json:"roomId"`
}

type RematchRequest struct {
	RoomID string `json:"roomId"`
}

type RematchResponse struct {
	RoomID   string `json:"roomId"`
	Accepted bool   `json:"accepted"`
}

type EndFriendMatch struct {
	RoomID string `json:"roomId"`
}

type RejoinRoom struct {
	RoomID string `json:"roomId"`
}

func (FindGame) inbound()            {}
func (CreateRoom) inbound()          {}
func (CheckRoom) inbound()           {}
func (JoinRoom) inbound()            {}
func (CancelSearch) inbound()        {}
func (MakeMove) inbound()            {}
func (Resign) inbound()              {}
func (LeaveMatch) inbound()          {}
func (RequestInitialCards) inbound() {}
func (RematchRequest) inbound()      {}
func (RematchResponse) inbound()     {}
func (EndFriendMatch) inbound()      {}
func (RejoinRoom) inbound()          {}

// Decode turns an envelope into its typed variant.
func Decode(msg *Message) (Inbound, error) {
	switch msg.Type {
	case MessageTypeFindGame:
		return decodeInto[FindGame](msg)
	case MessageTypeCreateRoom:
		return decodeInto[CreateRoom](msg)
	case MessageTypeCheckRoom:
		return decodeInto[CheckRoom](msg)
	case MessageTypeJoinRoom:
		return decodeInto[JoinRoom](msg)
	case MessageTypeCancelSearch:
		return decodeInto[CancelSearch](msg)
	case MessageTypeMakeMove:
		return decodeInto[MakeMove](msg)
	case MessageTypeResign:
		return decodeInto[Resign](msg)
	case MessageTypeLeaveMatch:
		return decodeInto[LeaveMatch](msg)
	case MessageTypeRequestInitialCards:
		return decodeInto[RequestInitialCards](msg)
	case MessageTypeRematchRequest:
		return decodeInto[RematchRequest](msg)
	case MessageTypeRematchResponse:
		return decodeInto[RematchResponse](msg)
	case MessageTypeEndFriendMatch:
		return decodeInto[EndFriendMatch](msg)
	case MessageTypeRejoinRoom:
		return decodeInto[RejoinRoom](msg)
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrUnknownMessage, msg.Type)
}

func decodeInto[T Inbound](msg *Message) (Inbound, error) {
	var v T
	raw := bytes.TrimSpace(msg.Payload)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrBadPayload, msg.Type, err)
	}
	return v, nil
}
