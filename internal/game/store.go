package game

import (
	"encoding/hex"
	"fmt"
	"math/rand"
	"time"

	"github.com/dom/card-chess/internal/cards"
	"github.com/dom/card-chess/internal/domain"
	"github.com/dom/card-chess/internal/engine"
)

// Store is the in-memory registry of rooms. It is owned by a Session and
// must only be used from the session's event loop.
type Store struct {
	rooms        map[string]*domain.Room
	rng          *rand.Rand
	now          func() time.Time
	timedSeconds int
}

func NewStore(rng *rand.Rand, now func() time.Time, timedSeconds int) *Store {
	return &Store{
		rooms:        make(map[string]*domain.Room),
		rng:          rng,
		now:          now,
		timedSeconds: timedSeconds,
	}
}

// CreateRoom opens a friend room with the creator seated as white.
func (s *Store) CreateRoom(creator string, mode domain.Mode) *domain.Room {
	id := s.friendID()
	for s.rooms[id] != nil {
		id = s.friendID()
	}
	room := s.newRoom(id, domain.RoomKindFriend, mode)
	room.White = creator
	s.rooms[id] = room
	return room
}

// CreateMatchedRoom opens an active quick-play room. The first argument is
// seated as white.
func (s *Store) CreateMatchedRoom(white, black string, mode domain.Mode) *domain.Room {
	base := white + "#" + black
	id := base
	for n := 2; s.rooms[id] != nil; n++ {
		id = fmt.Sprintf("%s#%d", base, n)
	}
	room := s.newRoom(id, domain.RoomKindQuickPlay, mode)
	room.White = white
	room.Black = black
	room.State = domain.RoomStateActive
	room.StartedAt = room.CreatedAt
	s.rooms[id] = room
	return room
}

func (s *Store) newRoom(id string, kind domain.RoomKind, mode domain.Mode) *domain.Room {
	room := &domain.Room{
		ID:        id,
		Kind:      kind,
		Mode:      mode,
		State:     domain.RoomStateWaiting,
		Position:  engine.NewPosition(),
		Hands:     make(map[string][]cards.Card),
		CreatedAt: s.now(),
	}
	if mode == domain.ModeTimed {
		room.Clocks = domain.NewClocks(s.timedSeconds)
	}
	return room
}

func (s *Store) friendID() string {
	b := make([]byte, 4)
	s.rng.Read(b)
	return domain.FriendRoomPrefix + hex.EncodeToString(b)
}

func (s *Store) Get(id string) (*domain.Room, error) {
	room, ok := s.rooms[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrRoomNotFound, id)
	}
	return room, nil
}

// Delete removes the room. Timer resources are released by the session
// before calling it.
func (s *Store) Delete(id string) {
	delete(s.rooms, id)
}

func (s *Store) Len() int {
	return len(s.rooms)
}

// RoomsOf lists the rooms in which connID holds a seat.
func (s *Store) RoomsOf(connID string) []*domain.Room {
	var out []*domain.Room
	for _, room := range s.rooms {
		if _, ok := room.SeatOf(connID); ok {
			out = append(out, room)
		}
	}
	return out
}

// Abandoned lists rooms where no seat maps to a connected connection.
func (s *Store) Abandoned(isConnected func(string) bool) []*domain.Room {
	var out []*domain.Room
	for _, room := range s.rooms {
		live := false
		for _, id := range room.Players() {
			if isConnected(id) {
				live = true
				break
			}
		}
		if !live {
			out = append(out, room)
		}
	}
	return out
}
