package domain

import "errors"

// Room state errors
var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrRoomFull       = errors.New("room is full")
	ErrRoomAbandoned  = errors.New("room creator has left")
	ErrNotInRoom      = errors.New("connection is not seated in room")
	ErrRejoinDenied   = errors.New("no seat available to rejoin")
	ErrNotFriendRoom  = errors.New("room is not a friend room")
	ErrInvalidState   = errors.New("invalid room state for this action")
	ErrBadPayload     = errors.New("malformed message payload")
	ErrUnknownMessage = errors.New("unknown message type")
)

// Move rejections
var (
	ErrNotYourTurn      = errors.New("not your turn")
	ErrNoCardsAvailable = errors.New("no cards available")
	ErrNoPiece          = errors.New("no piece on origin square")
	ErrCardRestriction  = errors.New("no held card allows this piece")
	ErrIllegalMove      = errors.New("illegal move")
)

// Archive errors
var (
	ErrMatchNotFound = errors.New("match not found")
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrRoomNotFound, "room-not-found"},
	{ErrRoomFull, "room-full"},
	{ErrRoomAbandoned, "room-abandoned"},
	{ErrNotInRoom, "not-in-room"},
	{ErrRejoinDenied, "rejoin-denied"},
	{ErrNotFriendRoom, "not-friend-room"},
	{ErrInvalidState, "invalid-state"},
	{ErrBadPayload, "bad-payload"},
	{ErrUnknownMessage, "unknown-message"},
	{ErrNotYourTurn, "not-your-turn"},
	{ErrNoCardsAvailable, "no-cards-available"},
	{ErrNoPiece, "no-piece"},
	{ErrCardRestriction, "card_restriction"},
	{ErrIllegalMove, "illegal"},
}

// CodeOf maps an error to its wire code, "internal" when unknown.
func CodeOf(err error) string {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return e.code
		}
	}
	return "internal"
}

// IsMoveRejection reports whether err is reported as invalid_move rather than
// error.
func IsMoveRejection(err error) bool {
	return errors.Is(err, ErrNotYourTurn) ||
		errors.Is(err, ErrNoCardsAvailable) ||
		errors.Is(err, ErrNoPiece) ||
		errors.Is(err, ErrCardRestriction) ||
		errors.Is(err, ErrIllegalMove)
}
