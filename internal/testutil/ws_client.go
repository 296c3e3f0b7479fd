package testutil

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/dom/card-chess/internal/protocol"
	gorillaWS "github.com/gorilla/websocket"
)

// WSClient is a test WebSocket client
type WSClient struct {
	t        *testing.T
	conn     *gorillaWS.Conn
	messages chan *protocol.Message
	errors   chan error
	done     chan struct{}
	mu       sync.Mutex
}

// NewWSClient creates a new WebSocket test client
func NewWSClient(t *testing.T, url string) *WSClient {
	t.Helper()

	dialer := *gorillaWS.DefaultDialer
	dialer.HandshakeTimeout = 5 * time.Second

	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to connect to websocket: %v", err)
	}

	client := &WSClient{
		t:        t,
		conn:     conn,
		messages: make(chan *protocol.Message, 100),
		errors:   make(chan error, 10),
		done:     make(chan struct{}),
	}

	go client.readPump()

	t.Cleanup(func() {
		client.Close()
	})

	return client
}

// readPump reads messages from the WebSocket connection
func (c *WSClient) readPump() {
	defer close(c.messages)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			case c.errors <- err:
			}
			return
		}

		var msg protocol.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.errors <- err
			continue
		}

		select {
		case c.messages <- &msg:
		case <-c.done:
			return
		}
	}
}

// Close closes the WebSocket connection gracefully
func (c *WSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return
	default:
		close(c.done)
		c.conn.WriteMessage(gorillaWS.CloseMessage, gorillaWS.FormatCloseMessage(gorillaWS.CloseNormalClosure, ""))
		c.conn.Close()
	}
}

// Send writes one envelope. payload may be nil.
func (c *WSClient) Send(msgType protocol.MessageType, payload interface{}) {
	c.t.Helper()

	msg, err := protocol.NewMessage(msgType, payload)
	if err != nil {
		c.t.Fatalf("failed to build message: %v", err)
	}
	c.SendRaw(msg)
}

// SendRaw writes v as JSON without validation.
func (c *WSClient) SendRaw(v interface{}) {
	c.t.Helper()

	data, err := json.Marshal(v)
	if err != nil {
		c.t.Fatalf("failed to marshal message: %v", err)
	}

	c.mu.Lock()
	err = c.conn.WriteMessage(gorillaWS.TextMessage, data)
	c.mu.Unlock()

	if err != nil {
		c.t.Fatalf("failed to send message: %v", err)
	}
}

func (c *WSClient) FindGame(mode string) {
	c.Send(protocol.MessageTypeFindGame, protocol.FindGame{Mode: mode})
}

func (c *WSClient) MakeMove(roomID, from, to string) {
	c.Send(protocol.MessageTypeMakeMove, protocol.MakeMove{RoomID: roomID, From: from, To: to})
}

func (c *WSClient) Rejoin(roomID string) {
	c.Send(protocol.MessageTypeRejoinRoom, protocol.RejoinRoom{RoomID: roomID})
}

// ExpectMessage waits for a message of the specified type, skipping others.
func (c *WSClient) ExpectMessage(msgType protocol.MessageType, timeout time.Duration) *protocol.Message {
	c.t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case msg := <-c.messages:
			if msg == nil {
				c.t.Fatalf("connection closed while waiting for %s", msgType)
			}
			if msg.Type == msgType {
				return msg
			}
		case err := <-c.errors:
			c.t.Fatalf("error while waiting for %s: %v", msgType, err)
		case <-deadline:
			c.t.Fatalf("timeout waiting for message type %s", msgType)
		}
	}
}

// ExpectPayload waits for msgType and decodes its payload into T.
func ExpectPayload[T any](c *WSClient, msgType protocol.MessageType, timeout time.Duration) T {
	c.t.Helper()

	msg := c.ExpectMessage(msgType, timeout)
	var payload T
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		c.t.Fatalf("failed to decode %s payload: %v", msgType, err)
	}
	return payload
}

// ExpectConnected waits for the greeting sent on connect.
func (c *WSClient) ExpectConnected(timeout time.Duration) protocol.ConnectedPayload {
	c.t.Helper()
	return ExpectPayload[protocol.ConnectedPayload](c, protocol.MessageTypeConnected, timeout)
}

// ExpectError waits for and decodes an error message
func (c *WSClient) ExpectError(timeout time.Duration) protocol.ErrorPayload {
	c.t.Helper()
	return ExpectPayload[protocol.ErrorPayload](c, protocol.MessageTypeError, timeout)
}

// ExpectErrorWithCode waits for an error with a specific code
func (c *WSClient) ExpectErrorWithCode(code string, timeout time.Duration) protocol.ErrorPayload {
	c.t.Helper()

	payload := c.ExpectError(timeout)
	if payload.Code != code {
		c.t.Fatalf("expected error code %s, got %s: %s", code, payload.Code, payload.Message)
	}

	return payload
}

// ExpectNoMessage verifies no message other than timer updates arrives
// within timeout.
func (c *WSClient) ExpectNoMessage(timeout time.Duration) {
	c.t.Helper()

	deadline := time.After(timeout)
	for {
		select {
		case msg := <-c.messages:
			if msg != nil && msg.Type != protocol.MessageTypeTimerUpdate {
				c.t.Fatalf("unexpected message received: %s", msg.Type)
			}
			if msg == nil {
				return
			}
		case <-deadline:
			return
		}
	}
}

// DrainMessages discards buffered messages until the stream is quiet.
func (c *WSClient) DrainMessages() {
	c.DrainMessagesWithTimeout(100 * time.Millisecond)
}

// DrainMessagesWithTimeout drains messages, waiting up to timeout for the
// channel to settle.
func (c *WSClient) DrainMessagesWithTimeout(timeout time.Duration) {
	deadline := time.After(timeout)
	for {
		select {
		case msg := <-c.messages:
			if msg == nil {
				return
			}
			deadline = time.After(50 * time.Millisecond)
		case <-deadline:
			return
		case <-c.done:
			return
		}
	}
}

// ExpectAnyMessage waits for any message to arrive and returns it
func (c *WSClient) ExpectAnyMessage(timeout time.Duration) *protocol.Message {
	c.t.Helper()

	select {
	case msg := <-c.messages:
		if msg == nil {
			c.t.Fatal("connection closed while waiting for message")
		}
		return msg
	case err := <-c.errors:
		c.t.Fatalf("error while waiting for message: %v", err)
	case <-time.After(timeout):
		c.t.Fatal("timeout waiting for any message")
	}
	return nil
}
