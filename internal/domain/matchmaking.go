package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// WaitingEntry is a connection queued for a quick-play match.
type WaitingEntry struct {
	ConnID   string
	Mode     Mode
	QueuedAt time.Time
}

type MatchResult string

const (
	MatchResultWhite MatchResult = "white"
	MatchResultBlack MatchResult = "black"
	MatchResultDraw  MatchResult = "draw"
)

// MatchRecord is the archived summary of a finished game.
type MatchRecord struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	RoomID    string         `json:"roomId" gorm:"index;not null"`
	Kind      RoomKind       `json:"kind" gorm:"type:varchar(16);not null"`
	Mode      Mode           `json:"mode" gorm:"type:varchar(16);not null"`
	White     string         `json:"white" gorm:"not null"`
	Black     string         `json:"black" gorm:"not null"`
	Result    MatchResult    `json:"result" gorm:"type:varchar(8);not null"`
	Reason    string         `json:"reason" gorm:"type:varchar(32);not null"`
	FinalFEN  string         `json:"finalFen" gorm:"not null"`
	Moves     datatypes.JSON `json:"moves" gorm:"type:jsonb"`
	StartedAt time.Time      `json:"startedAt"`
	EndedAt   time.Time      `json:"endedAt" gorm:"index"`
}

// TableName returns the table name for GORM
func (MatchRecord) TableName() string {
	return "match_records"
}
