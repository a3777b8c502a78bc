package repositories

import "database/sql"

// Set bundles one storage backend's transactor and repositories.
type Set struct {
	Tx            Transactor
	Users         UserRepository
	Events        EventRepository
	Registrations RegistrationRepository
	Teams         TeamRepository
	Matches       MatchRepository
	Confirmations ConfirmationRepository
	Standings     StandingRepository
}

func NewPostgresSet(db *sql.DB) *Set {
	return &Set{
		Tx:            NewPostgresTransactor(db),
		Users:         NewPostgresUserRepository(db),
		Events:        NewPostgresEventRepository(db),
		Registrations: NewPostgresRegistrationRepository(db),
		Teams:         NewPostgresTeamRepository(db),
		Matches:       NewPostgresMatchRepository(db),
		Confirmations: NewPostgresConfirmationRepository(db),
		Standings:     NewPostgresStandingRepository(db),
	}
}
