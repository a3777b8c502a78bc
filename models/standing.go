package models

import "time"

type Standing struct {
	ID        int       `json:"id" db:"id"`
	EventID   int       `json:"event_id" db:"event_id"`
	UserID    int       `json:"user_id" db:"user_id"`
	Wins      int       `json:"wins" db:"wins"`
	Points    int       `json:"points" db:"points"`
	SOS       int       `json:"sos" db:"sos"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	User *User `json:"user,omitempty" db:"-"`
}

// StandingDelta is the increment applied to one player's row when a match locks.
type StandingDelta struct {
	UserID int
	Wins   int
	Points int
	SOS    int
}
