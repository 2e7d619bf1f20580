package domain

import (
	"fmt"
	"time"
)

type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionPaused SessionStatus = "paused"
	SessionEnded  SessionStatus = "ended"
)

// MaxNoteLength is measured in runes.
const MaxNoteLength = 2000

func ParseSessionStatus(s string) (SessionStatus, error) {
	switch st := SessionStatus(s); st {
	case SessionActive, SessionPaused, SessionEnded:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown session status %q", ErrValidation, s)
}

func (s SessionStatus) Terminal() bool { return s == SessionEnded }

// CanTransition reports whether the state machine allows s -> to.
// Same-state transitions are allowed for non-terminal states.
func (s SessionStatus) CanTransition(to SessionStatus) bool {
	switch s {
	case SessionActive:
		return to == SessionActive || to == SessionPaused || to == SessionEnded
	case SessionPaused:
		return to == SessionPaused || to == SessionActive || to == SessionEnded
	}
	return false
}

type Session struct {
	ID        SessionID     `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID   UserID        `gorm:"type:uuid;not null;index:idx_sessions_owner_started,priority:1" json:"owner_id"`
	Status    SessionStatus `gorm:"type:text;not null" json:"status"`
	StartedAt time.Time     `gorm:"not null;index:idx_sessions_owner_started,priority:2" json:"started_at"`
	EndedAt   *time.Time    `json:"ended_at"`
	Note      string        `gorm:"type:text;not null;default:''" json:"note"`
	Version   int           `gorm:"not null;default:1" json:"version"`
	UpdatedAt time.Time     `gorm:"not null" json:"updated_at"`
}

func (Session) TableName() string { return "sessions" }

// SessionPatch is a requested change. Nil fields are left untouched.
type SessionPatch struct {
	Status *SessionStatus
	Note   *string
}

func (p SessionPatch) Empty() bool { return p.Status == nil && p.Note == nil }
