package models

import "time"

// EventStatus представляет статусы события, соответствующие CHECK в БД.
type EventStatus string

const (
	EventStatusOpen      EventStatus = "open"
	EventStatusConfirmed EventStatus = "confirmed"
	EventStatusCompleted EventStatus = "completed"
)

type Event struct {
	ID                     int         `json:"id" db:"id"`
	EventDate              time.Time   `json:"event_date" db:"event_date"`
	EventType              string      `json:"event_type" db:"event_type"`
	Location               string      `json:"location" db:"location"`
	StartTime              string      `json:"start_time" db:"start_time"`
	Status                 EventStatus `json:"status" db:"status"`
	EntryFee               int         `json:"entry_fee" db:"entry_fee"`
	MinPlayers             int         `json:"min_players" db:"min_players"`
	TeamsGenerated         bool        `json:"teams_generated" db:"teams_generated"`
	AllowLateRegistrations bool        `json:"allow_late_registrations" db:"allow_late_registrations"`
	CreatedAt              time.Time   `json:"created_at" db:"created_at"`

	RegistrationCount int `json:"registration_count" db:"-"`
}

// EventDetails is the event page payload: the bracket plus the caller's own team.
type EventDetails struct {
	Event      *Event   `json:"event"`
	Teams      []*Team  `json:"teams"`
	Matches    []*Match `json:"matches"`
	UserTeamID *int     `json:"user_team_id"`
}

// Scoreboard is the public live-results payload.
type Scoreboard struct {
	Event       *Event      `json:"event"`
	Teams       []*Team     `json:"teams"`
	Matches     []*Match    `json:"matches"`
	Standings   []*Standing `json:"standings"`
	LastUpdated time.Time   `json:"last_updated"`
}
