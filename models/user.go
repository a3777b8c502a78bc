package models

import "time"

// UserStatus mirrors the user_status column; only approved users may register for events.
type UserStatus string

const (
	UserStatusPending  UserStatus = "pending"
	UserStatusApproved UserStatus = "approved"
	UserStatusInactive UserStatus = "inactive"
)

type User struct {
	ID              int        `json:"id" db:"id"`
	Email           string     `json:"email,omitempty" db:"email"`
	PasswordHash    string     `json:"-" db:"password_hash"`
	FirstName       string     `json:"first_name" db:"first_name"`
	LastName        string     `json:"last_name" db:"last_name"`
	IsAdmin         bool       `json:"is_admin" db:"is_admin"`
	Status          UserStatus `json:"status" db:"status"`
	ProfileImageKey *string    `json:"-" db:"profile_image_key"`
	ProfileImageURL *string    `json:"profile_image_url,omitempty" db:"profile_image_url"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}

func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// UserStats is the per-player summary shown on the profile page.
type UserStats struct {
	EventsPlayed   int             `json:"events_played"`
	MatchesPlayed  int             `json:"matches_played"`
	MatchesWon     int             `json:"matches_won"`
	MatchesLost    int             `json:"matches_lost"`
	MatchesTied    int             `json:"matches_tied"`
	WinPercentage  int             `json:"win_percentage"`
	PointsScored   int             `json:"points_scored"`
	PointsConceded int             `json:"points_conceded"`
	History        []*MatchHistory `json:"history"`
}

type MatchHistory struct {
	MatchID       int       `json:"match_id"`
	EventID       int       `json:"event_id"`
	EventDate     time.Time `json:"event_date"`
	Location      string    `json:"location"`
	TeamName      string    `json:"team_name"`
	OpponentName  string    `json:"opponent_name"`
	OwnScore      int       `json:"own_score"`
	OpponentScore int       `json:"opponent_score"`
	Result        string    `json:"result"` // win, loss, tie
}
