// Package engine wraps the chess rules library behind the small surface the
// game server needs: legal move generation, move application and status.
package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/corentings/chess/v2"
)

var (
	ErrInvalidSquare = errors.New("invalid square")
	ErrIllegalMove   = errors.New("illegal move")
)

// Color identifies a side by its FEN letter.
type Color string

const (
	White Color = "w"
	Black Color = "b"
)

func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) Name() string {
	if c == White {
		return "white"
	}
	return "black"
}

type PieceType string

const (
	Pawn   PieceType = "pawn"
	Knight PieceType = "knight"
	Bishop PieceType = "bishop"
	Rook   PieceType = "rook"
	Queen  PieceType = "queen"
	King   PieceType = "king"
)

// Move is a legal move in the current position.
type Move struct {
	From  string
	To    string
	Piece PieceType
}

type Status struct {
	IsCheck     bool `json:"isCheck"`
	IsCheckmate bool `json:"isCheckmate"`
	IsDraw      bool `json:"isDraw"`
}

// Position is a mutable game position. It is not safe for concurrent use.
type Position struct {
	game *chess.Game
}

func NewPosition() *Position {
	return &Position{game: chess.NewGame()}
}

// FromFEN builds a position from a FEN string. A FEN whose halfmove clock
// already reaches the fifty-move limit is drawn on load.
func FromFEN(fen string) (*Position, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("parse fen %q: %w", fen, err)
	}
	p := &Position{game: chess.NewGame(opt)}
	p.claimDraws()
	return p, nil
}

func (p *Position) FEN() string {
	return p.game.FEN()
}

func (p *Position) Turn() Color {
	if p.game.Position().Turn() == chess.White {
		return White
	}
	return Black
}

// PieceAt reports the piece on square, if any.
func (p *Position) PieceAt(square string) (PieceType, Color, bool) {
	sq, err := ParseSquare(square)
	if err != nil {
		return "", "", false
	}
	piece := p.game.Position().Board().Piece(sq)
	if piece == chess.NoPiece {
		return "", "", false
	}
	color := White
	if piece.Color() == chess.Black {
		color = Black
	}
	return pieceTypeOf(piece.Type()), color, true
}

// LegalMoves lists every legal move for the side to move. Promotions are
// collapsed to a single entry per from/to pair.
func (p *Position) LegalMoves() []Move {
	if p.game.Outcome() != chess.NoOutcome {
		return nil
	}
	board := p.game.Position().Board()
	seen := make(map[string]bool)
	var moves []Move
	for _, mv := range p.game.ValidMoves() {
		key := mv.S1().String() + mv.S2().String()
		if seen[key] {
			continue
		}
		seen[key] = true
		moves = append(moves, Move{
			From:  mv.S1().String(),
			To:    mv.S2().String(),
			Piece: pieceTypeOf(board.Piece(mv.S1()).Type()),
		})
	}
	return moves
}

// LegalDestinations returns the squares the piece on from may legally move to.
func (p *Position) LegalDestinations(from string) []string {
	var dests []string
	for _, mv := range p.LegalMoves() {
		if mv.From == from {
			dests = append(dests, mv.To)
		}
	}
	return dests
}

// Apply plays from->to, promoting pawns to a queen, and returns the move in
// UCI notation.
func (p *Position) Apply(from, to string) (string, error) {
	if _, err := ParseSquare(from); err != nil {
		return "", err
	}
	if _, err := ParseSquare(to); err != nil {
		return "", err
	}
	uci := p.promotionSuffix(strings.ToLower(from + to))
	if p.game.Outcome() != chess.NoOutcome {
		return "", fmt.Errorf("%w: %s: game is over", ErrIllegalMove, uci)
	}

	found := false
	for _, mv := range p.game.ValidMoves() {
		if mv.String() == uci {
			found = true
			break
		}
	}
	if !found {
		return "", fmt.Errorf("%w: %s", ErrIllegalMove, uci)
	}

	if err := p.game.PushNotationMove(uci, chess.UCINotation{}, nil); err != nil {
		return "", fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	p.claimDraws()
	return uci, nil
}

func (p *Position) Status() Status {
	mate := p.game.Method() == chess.Checkmate
	return Status{
		IsCheck:     mate || p.inCheck(),
		IsCheckmate: mate,
		IsDraw:      p.game.Outcome() == chess.Draw,
	}
}

// claimDraws ends the game on threefold repetition or the fifty-move rule,
// which the rules library only offers as claims.
func (p *Position) claimDraws() {
	if p.game.Outcome() != chess.NoOutcome {
		return
	}
	for _, m := range p.game.EligibleDraws() {
		if m == chess.ThreefoldRepetition || m == chess.FiftyMoveRule {
			_ = p.game.Draw(m)
			return
		}
	}
}

var (
	knightSteps  = [][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps    = [][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	straightRays = [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	diagonalRays = [][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

// inCheck reports whether the side to move has its king attacked.
func (p *Position) inCheck() bool {
	pos := p.game.Position()
	board := pos.Board()
	side := pos.Turn()
	enemy := side.Other()

	king := chess.NoSquare
	for sq, piece := range board.SquareMap() {
		if piece.Type() == chess.King && piece.Color() == side {
			king = sq
			break
		}
	}
	if king == chess.NoSquare {
		return false
	}
	kf, kr := int(king.File()), int(king.Rank())

	at := func(f, r int) chess.Piece {
		if f < 0 || f > 7 || r < 0 || r > 7 {
			return chess.NoPiece
		}
		return board.Piece(chess.NewSquare(chess.File(f), chess.Rank(r)))
	}
	is := func(piece chess.Piece, types ...chess.PieceType) bool {
		if piece == chess.NoPiece || piece.Color() != enemy {
			return false
		}
		for _, t := range types {
			if piece.Type() == t {
				return true
			}
		}
		return false
	}

	for _, d := range knightSteps {
		if is(at(kf+d[0], kr+d[1]), chess.Knight) {
			return true
		}
	}
	for _, d := range kingSteps {
		if is(at(kf+d[0], kr+d[1]), chess.King) {
			return true
		}
	}
	// Enemy pawns attack toward our side of the board.
	pawnRank := kr + 1
	if side == chess.Black {
		pawnRank = kr - 1
	}
	if is(at(kf-1, pawnRank), chess.Pawn) || is(at(kf+1, pawnRank), chess.Pawn) {
		return true
	}

	slide := func(rays [][2]int, types ...chess.PieceType) bool {
		for _, d := range rays {
			for f, r := kf+d[0], kr+d[1]; f >= 0 && f <= 7 && r >= 0 && r <= 7; f, r = f+d[0], r+d[1] {
				piece := at(f, r)
				if piece == chess.NoPiece {
					continue
				}
				if is(piece, types...) {
					return true
				}
				break
			}
		}
		return false
	}
	return slide(straightRays, chess.Rook, chess.Queen) || slide(diagonalRays, chess.Bishop, chess.Queen)
}

// Winner returns the winning side once the game is decided by checkmate.
func (p *Position) Winner() (Color, bool) {
	switch p.game.Outcome() {
	case chess.WhiteWon:
		return White, true
	case chess.BlackWon:
		return Black, true
	}
	return "", false
}

func (p *Position) promotionSuffix(uci string) string {
	if len(uci) != 4 {
		return uci
	}
	piece, _, ok := p.PieceAt(uci[:2])
	if !ok || piece != Pawn {
		return uci
	}
	if uci[3] == '8' || uci[3] == '1' {
		return uci + "q"
	}
	return uci
}

// ParseSquare converts algebraic notation such as "e4" into a board square.
func ParseSquare(s string) (chess.Square, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return chess.NoSquare, fmt.Errorf("%w: %q", ErrInvalidSquare, s)
	}
	return chess.NewSquare(chess.File(s[0]-'a'), chess.Rank(s[1]-'1')), nil
}

func pieceTypeOf(t chess.PieceType) PieceType {
	switch t {
	case chess.Pawn:
		return Pawn
	case chess.Knight:
		return Knight
	case chess.Bishop:
		return Bishop
	case chess.Rook:
		return Rook
	case chess.Queen:
		return Queen
	case chess.King:
		return King
	}
	return ""
}
