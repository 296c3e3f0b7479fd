// Package protocol defines the websocket wire format: the message envelope,
// the inbound message variants and the outbound payloads.
package protocol

import (
	"encoding/json"
	"time"

	"github.com/dom/card-chess/internal/domain"
	"github.com/dom/card-chess/internal/engine"
)

type MessageType string

const (
	// Client to Server
	MessageTypeFindGame            MessageType = "find_game"
	MessageTypeCreateRoom          MessageType = "create_room"
	MessageTypeCheckRoom           MessageType = "check_room"
	MessageTypeJoinRoom            MessageType = "join_room"
	MessageTypeCancelSearch        MessageType = "cancel_search"
	MessageTypeMakeMove            MessageType = "make_move"
	MessageTypeResign              MessageType = "resign"
	MessageTypeLeaveMatch          MessageType = "leave_match"
	MessageTypeRequestInitialCards MessageType = "request_initial_cards"
	MessageTypeRematchRequest      MessageType = "rematch_request"
	MessageTypeRematchResponse     MessageType = "rematch_response"
	MessageTypeEndFriendMatch      MessageType = "end_friend_match"
	MessageTypeRejoinRoom          MessageType = "rejoin_room"

	// Server to Client
	MessageTypeConnected       MessageType = "connected"
	MessageTypeWaiting         MessageType = "waiting"
	MessageTypeSearchCancelled MessageType = "search_cancelled"
	MessageTypeMatchFound      MessageType = "match_found"
	MessageTypeCardsDrawn      MessageType = "cards_drawn"
	MessageTypeGameState       MessageType = "game_state"
	MessageTypeInvalidMove     MessageType = "invalid_move"
	MessageTypeGameOver        MessageType = "gameOver"
	MessageTypeTimerUpdate     MessageType = "timer_update"
	MessageTypeOpponentLeft    MessageType = "opponent_left"
	MessageTypeRoomCreated     MessageType = "room_created"
	MessageTypeRoomOK          MessageType = "room-ok"
	MessageTypeError           MessageType = "error"
	MessageTypeRematchPrompt   MessageType = "rematch_prompt"
	MessageTypeRematchDeclined MessageType = "rematch_declined"
	MessageTypeReturnHome      MessageType = "return_home"
	MessageTypeRejoined        MessageType = "rejoined"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      msgType,
		Payload:   payloadBytes,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// Server to Client payloads

type ConnectedPayload struct {
	ConnectionID string `json:"connectionId"`
	SessionToken string `json:"sessionToken,omitempty"`
}

type WaitingPayload struct {
	Mode domain.Mode `json:"mode"`
}

type MatchFoundPayload struct {
	RoomID string         `json:"roomId"`
	Color  engine.Color   `json:"color"`
	FEN    string         `json:"fen"`
	Mode   domain.Mode    `json:"mode"`
	Clocks *domain.Clocks `json:"clocks,omitempty"`
}

type CardsDrawnPayload struct {
	RoomID string   `json:"roomId"`
	Cards  []string `json:"cards"`
}

type GameStatePayload struct {
	RoomID   string           `json:"roomId"`
	FEN      string           `json:"fen"`
	Status   engine.Status    `json:"status"`
	LastMove *domain.LastMove `json:"lastMove"`
	Turn     engine.Color     `json:"turn"`
}

type InvalidMovePayload struct {
	Reason string `json:"reason"`
}

type GameOverPayload struct {
	RoomID     string       `json:"roomId"`
	Reason     string       `json:"reason"`
	Winner     engine.Color `json:"winner,omitempty"`
	ResignedID string       `json:"resignedId,omitempty"`
	Message    string       `json:"message"`
}

type TimerUpdatePayload struct {
	W int `json:"w"`
	B int `json:"b"`
}

type OpponentLeftPayload struct {
	RoomID string `json:"roomId"`
}

type RoomPayload struct {
	RoomID string      `json:"roomId"`
	Mode   domain.Mode `json:"mode"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RematchPayload struct {
	RoomID string `json:"roomId"`
}

type RematchResultPayload struct {
	RoomID   string `json:"roomId"`
	Accepted bool   `json:"accepted"`
}

type RejoinedPayload struct {
	RoomID   string           `json:"roomId"`
	FEN      string           `json:"fen"`
	Status   engine.Status    `json:"status"`
	LastMove *domain.LastMove `json:"lastMove"`
	Cards    []string         `json:"cards"`
	Color    engine.Color     `json:"color"`
	Mode     domain.Mode      `json:"mode"`
	State    domain.RoomState `json:"state"`
	Clocks   *domain.Clocks   `json:"clocks,omitempty"`
}
