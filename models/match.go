package models

import "time"

type MatchStatus string

const (
	MatchStatusPending  MatchStatus = "pending"
	MatchStatusOngoing  MatchStatus = "ongoing"
	MatchStatusLocked   MatchStatus = "locked"
	MatchStatusDisputed MatchStatus = "disputed"
)

type Match struct {
	ID           int         `json:"id" db:"id"`
	EventID      int         `json:"event_id" db:"event_id"`
	TeamAID      int         `json:"team_a_id" db:"team_a_id"`
	TeamBID      int         `json:"team_b_id" db:"team_b_id"`
	RoundNumber  int         `json:"round_number" db:"round_number"`
	CourtNumber  int         `json:"court_number" db:"court_number"`
	Status       MatchStatus `json:"status" db:"status"`
	ScoreA       *int        `json:"score_a,omitempty" db:"score_a"`
	ScoreB       *int        `json:"score_b,omitempty" db:"score_b"`
	WinnerTeamID *int        `json:"winner_team_id,omitempty" db:"winner_team_id"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`

	TeamA *Team `json:"team_a,omitempty" db:"-"`
	TeamB *Team `json:"team_b,omitempty" db:"-"`
}

func (m *Match) IsLocked() bool {
	return m.Status == MatchStatusLocked
}
