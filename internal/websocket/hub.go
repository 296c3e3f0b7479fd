package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/dom/card-chess/internal/game"
	"github.com/dom/card-chess/internal/protocol"
	"github.com/dom/card-chess/internal/scheduler"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var errHubStopped = errors.New("hub stopped")

// TokenIssuer signs the resumable session token handed out on connect.
type TokenIssuer interface {
	Issue(connID string) (string, error)
}

type inboundRequest struct {
	client *Client
	msg    protocol.Inbound
}

// Hub owns every connection and the game session. All session calls happen
// on the Run goroutine; timers and HTTP handlers reach it through Dispatch.
type Hub struct {
	session    *game.Session
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	inbound    chan inboundRequest
	tasks      chan func()
	stop       chan struct{}
	done       chan struct{} // closed when Run() exits
	stopOnce   sync.Once
	issuer     TokenIssuer
	log        *zap.Logger
}

func NewHub(cfg game.Config, issuer TokenIssuer, log *zap.Logger, opts ...game.Option) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inboundRequest, 256),
		tasks:      make(chan func(), 64),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		issuer:     issuer,
		log:        log,
	}
	opts = append([]game.Option{game.WithLogger(log.Named("game"))}, opts...)
	h.session = game.NewSession(cfg, h, scheduler.NewReal(h.Dispatch), opts...)
	return h
}

func (h *Hub) Run() {
	defer close(h.done) // Signal that Run() has exited

	h.session.Start()
	for {
		select {
		case <-h.stop:
			h.session.Shutdown()
			for id, client := range h.clients {
				close(client.send)
				delete(h.clients, id)
			}
			return

		case client := <-h.register:
			h.handleRegister(client)

		case client := <-h.unregister:
			if h.clients[client.id] != client {
				continue
			}
			delete(h.clients, client.id)
			close(client.send)
			h.session.Disconnect(client.id)
			h.log.Debug("client disconnected", zap.String("conn_id", client.id))

		case req := <-h.inbound:
			if h.clients[req.client.id] != req.client {
				continue
			}
			h.session.Handle(req.client.id, req.msg)

		case fn := <-h.tasks:
			fn()
		}
	}
}

// handleRegister binds the client to its id and starts its pumps. A resumed
// id that is still live gets replaced with a fresh one.
func (h *Hub) handleRegister(client *Client) {
	if client.id == "" || h.clients[client.id] != nil {
		client.id = uuid.NewString()
	}
	h.clients[client.id] = client

	token := ""
	if h.issuer != nil {
		var err error
		token, err = h.issuer.Issue(client.id)
		if err != nil {
			h.log.Error("failed to issue session token", zap.String("conn_id", client.id), zap.Error(err))
		}
	}

	msg, _ := protocol.NewMessage(protocol.MessageTypeConnected, protocol.ConnectedPayload{
		ConnectionID: client.id,
		SessionToken: token,
	})
	h.Send(client.id, msg)
	h.log.Debug("client connected", zap.String("conn_id", client.id))

	go client.WritePump()
	go client.ReadPump()
}

// Stop shuts down the hub and blocks until Run has exited.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
	<-h.done
}

// Dispatch runs fn on the hub goroutine. It is dropped once the hub stops.
func (h *Hub) Dispatch(fn func()) {
	select {
	case h.tasks <- fn:
	case <-h.done:
	}
}

// Stats reports the session counters from the hub goroutine.
func (h *Hub) Stats(ctx context.Context) (game.Stats, error) {
	result := make(chan game.Stats, 1)
	select {
	case h.tasks <- func() { result <- h.session.Stats() }:
	case <-h.done:
		return game.Stats{}, errHubStopped
	case <-ctx.Done():
		return game.Stats{}, ctx.Err()
	}

	select {
	case s := <-result:
		return s, nil
	case <-h.done:
		return game.Stats{}, errHubStopped
	case <-ctx.Done():
		return game.Stats{}, ctx.Err()
	}
}

// Send implements game.Sender. It must be called on the hub goroutine.
func (h *Hub) Send(connID string, msg *protocol.Message) {
	client, ok := h.clients[connID]
	if !ok {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("failed to marshal message", zap.String("type", string(msg.Type)), zap.Error(err))
		return
	}
	h.trySend(client, data)
}

// IsConnected implements game.Sender.
func (h *Hub) IsConnected(connID string) bool {
	_, ok := h.clients[connID]
	return ok
}

// trySend queues data for the client without blocking the hub.
func (h *Hub) trySend(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		h.log.Warn("send buffer full, dropping message", zap.String("conn_id", client.id))
	}
}

// Register hands the client to the hub, which starts its pumps.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.conn.Close()
	}
}

// Unregister is safe to call after the hub has stopped.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) submit(client *Client, msg protocol.Inbound) {
	select {
	case h.inbound <- inboundRequest{client: client, msg: msg}:
	case <-h.done:
	}
}

// reject reports a decode failure to the client.
func (h *Hub) reject(client *Client, err error) {
	h.Dispatch(func() {
		if h.clients[client.id] == client {
			h.session.Reject(client.id, err)
		}
	})
}
