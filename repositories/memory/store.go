// Package memory is a process-local implementation of the repository
// interfaces. Every transaction holds one store-wide mutex and works on the
// live tables; a snapshot taken at the start is restored if it fails.
package memory

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/Dosada05/boules-league/models"
	"github.com/Dosada05/boules-league/repositories"
)

var errNoSQL = errors.New("memory store: SQL execution is not supported")

// txExecutor marks calls made from inside WithinTx, where the store mutex is already held.
type txExecutor struct{}

func (txExecutor) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, errNoSQL
}

func (txExecutor) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, errNoSQL
}

func (txExecutor) QueryRowContext(context.Context, string, ...interface{}) *sql.Row {
	return nil
}

type tables struct {
	seq           int
	users         map[int]*models.User
	events        map[int]*models.Event
	registrations map[int]*models.Registration
	teams         map[int]*models.Team
	matches       map[int]*models.Match
	confirmations map[int]*models.ResultConfirmation
	standings     map[int]*models.Standing
}

func newTables() *tables {
	return &tables{
		users:         make(map[int]*models.User),
		events:        make(map[int]*models.Event),
		registrations: make(map[int]*models.Registration),
		teams:         make(map[int]*models.Team),
		matches:       make(map[int]*models.Match),
		confirmations: make(map[int]*models.ResultConfirmation),
		standings:     make(map[int]*models.Standing),
	}
}

func (t *tables) nextID() int {
	t.seq++
	return t.seq
}

func (t *tables) clone() *tables {
	c := newTables()
	c.seq = t.seq
	for id, v := range t.users {
		c.users[id] = copyUser(v)
	}
	for id, v := range t.events {
		c.events[id] = copyEvent(v)
	}
	for id, v := range t.registrations {
		c.registrations[id] = copyRegistration(v)
	}
	for id, v := range t.teams {
		c.teams[id] = copyTeam(v)
	}
	for id, v := range t.matches {
		c.matches[id] = copyMatch(v)
	}
	for id, v := range t.confirmations {
		cc := *v
		c.confirmations[id] = &cc
	}
	for id, v := range t.standings {
		cc := *v
		c.standings[id] = &cc
	}
	return c
}

var _ repositories.Transactor = (*Store)(nil)

type Store struct {
	mu   sync.Mutex
	data *tables
}

func NewStore() *Store {
	return &Store{data: newTables()}
}

// lock acquires the store mutex unless the caller is already inside WithinTx.
func (s *Store) lock(exec repositories.SQLExecutor) func() {
	if _, inTx := exec.(txExecutor); inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot := s.data.clone()
	defer func() {
		if p := recover(); p != nil {
			s.data = snapshot
			panic(p)
		}
		if err != nil {
			s.data = snapshot
		}
	}()

	return fn(txExecutor{})
}

func (s *Store) Transactor() repositories.Transactor { return s }

func (s *Store) Users() repositories.UserRepository { return &userRepo{s: s} }

func (s *Store) Events() repositories.EventRepository { return &eventRepo{s: s} }

func (s *Store) Registrations() repositories.RegistrationRepository {
	return &registrationRepo{s: s}
}

func (s *Store) Teams() repositories.TeamRepository { return &teamRepo{s: s} }

func (s *Store) Matches() repositories.MatchRepository { return &matchRepo{s: s} }

func (s *Store) Confirmations() repositories.ConfirmationRepository {
	return &confirmationRepo{s: s}
}

func (s *Store) Standings() repositories.StandingRepository { return &standingRepo{s: s} }

func (s *Store) Set() *repositories.Set {
	return &repositories.Set{
		Tx:            s,
		Users:         s.Users(),
		Events:        s.Events(),
		Registrations: s.Registrations(),
		Teams:         s.Teams(),
		Matches:       s.Matches(),
		Confirmations: s.Confirmations(),
		Standings:     s.Standings(),
	}
}

func copyUser(u *models.User) *models.User {
	c := *u
	c.ProfileImageKey = copyString(u.ProfileImageKey)
	c.ProfileImageURL = copyString(u.ProfileImageURL)
	return &c
}

func copyEvent(e *models.Event) *models.Event {
	c := *e
	return &c
}

func copyRegistration(r *models.Registration) *models.Registration {
	c := *r
	if r.CheckedInAt != nil {
		at := *r.CheckedInAt
		c.CheckedInAt = &at
	}
	c.User, c.Event = nil, nil
	return &c
}

func copyTeam(t *models.Team) *models.Team {
	c := *t
	c.MemberUserIDs = append([]int(nil), t.MemberUserIDs...)
	c.Members = nil
	return &c
}

func copyMatch(m *models.Match) *models.Match {
	c := *m
	c.ScoreA = copyInt(m.ScoreA)
	c.ScoreB = copyInt(m.ScoreB)
	c.WinnerTeamID = copyInt(m.WinnerTeamID)
	if m.CompletedAt != nil {
		at := *m.CompletedAt
		c.CompletedAt = &at
	}
	c.TeamA, c.TeamB = nil, nil
	return &c
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
