package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/boules-league/models"
	"github.com/Dosada05/boules-league/repositories"
	"github.com/Dosada05/boules-league/repositories/memory"
	"github.com/Dosada05/boules-league/utils"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	utils.BcryptCost = bcrypt.MinCost
	os.Exit(m.Run())
}

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// keepOrder makes pairing follow registration order: players 1+2, 3+4, ...
func keepOrder(n int) int { return n - 1 }

type sentMessage struct {
	EventID int
	Type    string
	Payload interface{}
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []sentMessage
}

func (n *recordingNotifier) NotifyEvent(eventID int, messageType string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, sentMessage{EventID: eventID, Type: messageType, Payload: payload})
}

func (n *recordingNotifier) count(messageType string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, m := range n.messages {
		if m.Type == messageType {
			c++
		}
	}
	return c
}

type fixture struct {
	ctx      context.Context
	repos    *repositories.Set
	notifier *recordingNotifier

	auth          AuthService
	users         UserService
	teams         TeamService
	brackets      BracketService
	standings     StandingService
	generation    GenerationService
	registrations RegistrationService
	results       ResultService
	events        EventService

	userSeq int
}

func newFixture(t *testing.T, policy GenerationPolicy) *fixture {
	t.Helper()
	repos := memory.NewStore().Set()
	notifier := &recordingNotifier{}

	f := &fixture{ctx: context.Background(), repos: repos, notifier: notifier}
	f.auth = NewAuthService(repos.Users, testLogger)
	f.users = NewUserService(repos.Users, repos.Teams, repos.Matches, repos.Events, nil, testLogger)
	f.teams = NewTeamService(repos.Teams, repos.Users, keepOrder, testLogger)
	f.brackets = NewBracketService(nil, repos.Events, repos.Teams, repos.Matches, repos.Standings, repos.Users, testLogger)
	f.standings = NewStandingService(repos.Standings, repos.Users, testLogger)
	f.generation = NewGenerationService(repos.Tx, repos.Events, repos.Registrations, f.teams, f.brackets, policy, notifier, testLogger)
	f.registrations = NewRegistrationService(repos.Tx, repos.Registrations, repos.Events, repos.Users, f.generation, testLogger)
	f.results = NewResultService(repos.Tx, repos.Matches, repos.Teams, repos.Confirmations, f.standings, notifier, testLogger)
	f.events = NewEventService(repos.Tx, repos.Events, repos.Teams, repos.Matches, repos.Users, 16, testLogger)
	return f
}

var bothTriggers = GenerationPolicy{AutoEnabled: true, ManualEnabled: true}

func (f *fixture) addUser(t *testing.T, status models.UserStatus) *models.User {
	t.Helper()
	f.userSeq++
	u := &models.User{
		Email:     fmt.Sprintf("player%d@example.com", f.userSeq),
		FirstName: fmt.Sprintf("Player%d", f.userSeq),
		LastName:  "Test",
		Status:    status,
	}
	require.NoError(t, f.repos.Users.Create(f.ctx, nil, u))
	return u
}

func (f *fixture) addEvent(t *testing.T, minPlayers int, mutate ...func(*models.Event)) *models.Event {
	t.Helper()
	e := &models.Event{
		EventDate:  time.Now().AddDate(0, 0, 7).UTC().Truncate(24 * time.Hour),
		EventType:  "league",
		Location:   "Parc Borély",
		StartTime:  "18:00",
		Status:     models.EventStatusOpen,
		EntryFee:   50,
		MinPlayers: minPlayers,
	}
	for _, m := range mutate {
		m(e)
	}
	require.NoError(t, f.repos.Events.Create(f.ctx, nil, e))
	return e
}

// register signs up n new approved players through the service.
func (f *fixture) register(t *testing.T, eventID, n int) []*models.User {
	t.Helper()
	users := make([]*models.User, 0, n)
	for range n {
		u := f.addUser(t, models.UserStatusApproved)
		_, err := f.registrations.Register(f.ctx, u.ID, eventID, "+33 6 00 00 00 00")
		require.NoError(t, err)
		users = append(users, u)
	}
	return users
}

// generatedEvent returns an event whose first match is Team A (users[0], users[1])
// against Team B (users[2], users[3]).
func (f *fixture) generatedEvent(t *testing.T, players int) (*models.Event, []*models.User, []*models.Match) {
	t.Helper()
	event := f.addEvent(t, players)
	users := f.register(t, event.ID, players)
	matches, err := f.repos.Matches.ListByEvent(f.ctx, nil, event.ID)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	return event, users, matches
}

func (f *fixture) standingOf(t *testing.T, eventID, userID int) *models.Standing {
	t.Helper()
	st, err := f.repos.Standings.GetByEventAndUser(f.ctx, nil, eventID, userID)
	require.NoError(t, err)
	return st
}
