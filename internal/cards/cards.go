// Package cards derives the playable card set for a position and draws the
// hand offered to the side to move.
package cards

import (
	"math/rand"
	"sort"
	"strings"

	"github.com/dom/card-chess/internal/engine"
)

// HandSize is the maximum number of cards dealt per turn.
const HandSize = 3

// Card restricts which piece may move. Pawn cards name a file: "pawn-e".
type Card string

const (
	Knight Card = "knight"
	Bishop Card = "bishop"
	Rook   Card = "rook"
	Queen  Card = "queen"
	King   Card = "king"
)

const pawnPrefix = "pawn-"

var pieceOrder = map[Card]int{
	Knight: 8,
	Bishop: 9,
	Rook:   10,
	Queen:  11,
	King:   12,
}

// PawnCard returns the card for a pawn on the given file letter.
func PawnCard(file byte) Card {
	return Card(pawnPrefix + string(file))
}

// ForMove returns the card a move is played under.
func ForMove(mv engine.Move) Card {
	if mv.Piece == engine.Pawn {
		return PawnCard(mv.From[0])
	}
	return Card(mv.Piece)
}

func (c Card) IsPawn() bool {
	return strings.HasPrefix(string(c), pawnPrefix)
}

// Valid reports whether c is a known card.
func (c Card) Valid() bool {
	if c.IsPawn() {
		f := strings.TrimPrefix(string(c), pawnPrefix)
		return len(f) == 1 && f[0] >= 'a' && f[0] <= 'h'
	}
	_, ok := pieceOrder[c]
	return ok
}

func (c Card) rank() int {
	if c.IsPawn() {
		return int(c[len(pawnPrefix)] - 'a')
	}
	return pieceOrder[c]
}

// Sort orders cards by pawn file a..h, then knight, bishop, rook, queen, king.
func Sort(cs []Card) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].rank() < cs[j].rank() })
}

// Available returns the sorted, deduplicated cards that cover every legal
// move in pos. A finished position yields an empty slice.
func Available(pos *engine.Position) []Card {
	seen := make(map[Card]bool)
	out := []Card{}
	for _, mv := range pos.LegalMoves() {
		c := ForMove(mv)
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	Sort(out)
	return out
}

// Draw deals up to HandSize distinct cards from Available(pos). When fewer
// are available all of them are returned without padding.
func Draw(pos *engine.Position, rng *rand.Rand) []Card {
	avail := Available(pos)
	if len(avail) <= HandSize {
		return avail
	}
	rng.Shuffle(len(avail), func(i, j int) { avail[i], avail[j] = avail[j], avail[i] })
	hand := avail[:HandSize]
	Sort(hand)
	return hand
}

// IsAllowed reports whether card permits moving piece from the origin square.
func IsAllowed(card Card, origin string, piece engine.PieceType) bool {
	if card.IsPawn() {
		return piece == engine.Pawn && len(origin) == 2 && PawnCard(origin[0]) == card
	}
	return piece != engine.Pawn && Card(piece) == card
}

// Match returns the index of the first card in hand that permits the move,
// or -1.
func Match(hand []Card, origin string, piece engine.PieceType) int {
	for i, c := range hand {
		if IsAllowed(c, origin, piece) {
			return i
		}
	}
	return -1
}

// Remove returns hand without the card at index i.
func Remove(hand []Card, i int) []Card {
	out := make([]Card, 0, len(hand)-1)
	out = append(out, hand[:i]...)
	return append(out, hand[i+1:]...)
}

// Strings converts cards to their wire form.
func Strings(cs []Card) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = string(c)
	}
	return out
}
