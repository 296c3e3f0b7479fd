package domain

import (
	"time"

	"github.com/dom/card-chess/internal/cards"
	"github.com/dom/card-chess/internal/engine"
)

type Mode string

const (
	ModeStandard Mode = "standard"
	ModeTimed    Mode = "timed"
)

// ParseMode falls back to standard for empty or unknown values.
func ParseMode(s string) Mode {
	if Mode(s) == ModeTimed {
		return ModeTimed
	}
	return ModeStandard
}

type RoomKind string

const (
	RoomKindQuickPlay RoomKind = "quickplay"
	RoomKindFriend    RoomKind = "friend"
)

// FriendRoomPrefix marks friend room ids on the wire.
const FriendRoomPrefix = "friend-"

type RoomState string

const (
	RoomStateWaiting RoomState = "waiting"
	RoomStateActive  RoomState = "active"
	RoomStateEnded   RoomState = "ended"
)

type Clocks struct {
	W int `json:"w"`
	B int `json:"b"`
}

func NewClocks(seconds int) *Clocks {
	return &Clocks{W: seconds, B: seconds}
}

func (c *Clocks) Get(color engine.Color) int {
	if color == engine.White {
		return c.W
	}
	return c.B
}

// Decrement takes one second from color, floored at zero, and returns the
// remaining time.
func (c *Clocks) Decrement(color engine.Color) int {
	v := &c.B
	if color == engine.White {
		v = &c.W
	}
	if *v > 0 {
		*v--
	}
	return *v
}

type LastMove struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Room is the authoritative state of one match. Players are connection ids,
// "" marks an empty seat.
type Room struct {
	ID        string
	Kind      RoomKind
	Mode      Mode
	State     RoomState
	Position  *engine.Position
	White     string
	Black     string
	Hands     map[string][]cards.Card
	Clocks    *Clocks
	LastMove  *LastMove
	Moves     []string
	Rematch   string
	CreatedAt time.Time
	StartedAt time.Time
}

func (r *Room) Player(color engine.Color) string {
	if color == engine.White {
		return r.White
	}
	return r.Black
}

func (r *Room) SetPlayer(color engine.Color, connID string) {
	if color == engine.White {
		r.White = connID
	} else {
		r.Black = connID
	}
}

// SeatOf resolves a connection to its color.
func (r *Room) SeatOf(connID string) (engine.Color, bool) {
	switch {
	case connID == "":
		return "", false
	case r.White == connID:
		return engine.White, true
	case r.Black == connID:
		return engine.Black, true
	}
	return "", false
}

// Opponent returns the connection in the other seat, or "".
func (r *Room) Opponent(connID string) string {
	color, ok := r.SeatOf(connID)
	if !ok {
		return ""
	}
	return r.Player(color.Opponent())
}

func (r *Room) Players() []string {
	var out []string
	for _, id := range []string{r.White, r.Black} {
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}

func (r *Room) Empty() bool {
	return r.White == "" && r.Black == ""
}

func (r *Room) Hand(connID string) []cards.Card {
	if h, ok := r.Hands[connID]; ok {
		return h
	}
	return []cards.Card{}
}

// ClearHands drops every hand in the room.
func (r *Room) ClearHands() {
	r.Hands = make(map[string][]cards.Card)
}

func (r *Room) Timed() bool {
	return r.Mode == ModeTimed
}
