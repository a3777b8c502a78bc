package models

import "time"

type ConfirmationStatus string

const (
	ConfirmationSubmitted ConfirmationStatus = "submitted"
	ConfirmationConfirmed ConfirmationStatus = "confirmed"
	ConfirmationDisputed  ConfirmationStatus = "disputed"
)

// ResultConfirmation is one participant's score report for a match, unique per (match, user).
type ResultConfirmation struct {
	ID        int                `json:"id" db:"id"`
	MatchID   int                `json:"match_id" db:"match_id"`
	UserID    int                `json:"user_id" db:"user_id"`
	ScoreA    int                `json:"score_a" db:"score_a"`
	ScoreB    int                `json:"score_b" db:"score_b"`
	Status    ConfirmationStatus `json:"status" db:"status"`
	UpdatedAt time.Time          `json:"updated_at" db:"updated_at"`
}

func (c *ResultConfirmation) SameScore(other *ResultConfirmation) bool {
	return c.ScoreA == other.ScoreA && c.ScoreB == other.ScoreB
}
