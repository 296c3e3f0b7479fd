package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/url"
	"time"

	"github.com/dom/card-chess/internal/cards"
	"github.com/dom/card-chess/internal/engine"
	"github.com/dom/card-chess/internal/protocol"
	"github.com/gorilla/websocket"
)

// Bot is a scripted player that picks a random move its hand allows.
type Bot struct {
	name  string
	conn  *websocket.Conn
	rng   *rand.Rand
	delay time.Duration

	id     string
	roomID string
	color  engine.Color
	fen    string
}

func DialBot(serverURL, name string, delay time.Duration, seed int64) (*Bot, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, err
	}
	u.Path = "/api/v1/ws"

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u, err)
	}
	b := &Bot{name: name, conn: conn, rng: rand.New(rand.NewSource(seed)), delay: delay}

	msg, err := b.read()
	if err != nil {
		conn.Close()
		return nil, err
	}
	var hello protocol.ConnectedPayload
	if msg.Type != protocol.MessageTypeConnected || json.Unmarshal(msg.Payload, &hello) != nil {
		conn.Close()
		return nil, fmt.Errorf("expected connected greeting, got %s", msg.Type)
	}
	b.id = hello.ConnectionID
	return b, nil
}

func (b *Bot) Close() error {
	return b.conn.Close()
}

func (b *Bot) send(msgType protocol.MessageType, payload interface{}) error {
	msg, err := protocol.NewMessage(msgType, payload)
	if err != nil {
		return err
	}
	return b.conn.WriteJSON(msg)
}

func (b *Bot) read() (*protocol.Message, error) {
	var msg protocol.Message
	if err := b.conn.ReadJSON(&msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (b *Bot) logf(format string, args ...interface{}) {
	fmt.Printf("[%s] %s\n", b.name, fmt.Sprintf(format, args...))
}

// CreateRoom opens a friend room and returns its id.
func (b *Bot) CreateRoom(mode string) (string, error) {
	if err := b.send(protocol.MessageTypeCreateRoom, protocol.CreateRoom{Mode: mode}); err != nil {
		return "", err
	}
	for {
		msg, err := b.read()
		if err != nil {
			return "", err
		}
		switch msg.Type {
		case protocol.MessageTypeRoomCreated:
			var p protocol.RoomPayload
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				return "", err
			}
			return p.RoomID, nil
		case protocol.MessageTypeError:
			return "", errorFrom(msg)
		}
	}
}

func (b *Bot) FindGame(mode string) error {
	return b.send(protocol.MessageTypeFindGame, protocol.FindGame{Mode: mode})
}

func (b *Bot) JoinRoom(roomID string) error {
	return b.send(protocol.MessageTypeJoinRoom, protocol.JoinRoom{RoomID: roomID})
}

// Play handles server messages until the game ends and returns the game over
// message.
func (b *Bot) Play() (*protocol.GameOverPayload, error) {
	for {
		msg, err := b.read()
		if err != nil {
			return nil, err
		}

		switch msg.Type {
		case protocol.MessageTypeMatchFound:
			var p protocol.MatchFoundPayload
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				return nil, err
			}
			b.roomID, b.color, b.fen = p.RoomID, p.Color, p.FEN
			b.logf("match %s as %s", p.RoomID, p.Color.Name())

		case protocol.MessageTypeGameState:
			var p protocol.GameStatePayload
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				return nil, err
			}
			b.fen = p.FEN

		case protocol.MessageTypeCardsDrawn:
			var p protocol.CardsDrawnPayload
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				return nil, err
			}
			if err := b.move(p.Cards); err != nil {
				return nil, err
			}

		case protocol.MessageTypeInvalidMove:
			var p protocol.InvalidMovePayload
			json.Unmarshal(msg.Payload, &p)
			return nil, fmt.Errorf("move rejected: %s", p.Reason)

		case protocol.MessageTypeError:
			return nil, errorFrom(msg)

		case protocol.MessageTypeOpponentLeft:
			return nil, fmt.Errorf("opponent left room %s", b.roomID)

		case protocol.MessageTypeGameOver:
			var p protocol.GameOverPayload
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				return nil, err
			}
			return &p, nil
		}
	}
}

func (b *Bot) move(hand []string) error {
	pos, err := engine.FromFEN(b.fen)
	if err != nil {
		return err
	}

	var options []engine.Move
	for _, mv := range pos.LegalMoves() {
		for _, c := range hand {
			if cards.IsAllowed(cards.Card(c), mv.From, mv.Piece) {
				options = append(options, mv)
				break
			}
		}
	}
	if len(options) == 0 {
		b.logf("no playable card in %v, resigning", hand)
		return b.send(protocol.MessageTypeResign, protocol.Resign{RoomID: b.roomID})
	}

	if b.delay > 0 {
		time.Sleep(b.delay)
	}
	mv := options[b.rng.Intn(len(options))]
	b.logf("%s%s  (hand %v)", mv.From, mv.To, hand)
	return b.send(protocol.MessageTypeMakeMove, protocol.MakeMove{RoomID: b.roomID, From: mv.From, To: mv.To})
}

func errorFrom(msg *protocol.Message) error {
	var p protocol.ErrorPayload
	json.Unmarshal(msg.Payload, &p)
	return fmt.Errorf("server error %s: %s", p.Code, p.Message)
}
