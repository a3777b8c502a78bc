package services

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Dosada05/boules-league/brackets"
	"github.com/Dosada05/boules-league/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerationService_AutoTriggerAtThreshold(t *testing.T) {
	f := newFixture(t, bothTriggers)
	event := f.addEvent(t, 4)

	users := f.register(t, event.ID, 3)
	teams, err := f.repos.Teams.CountByEvent(f.ctx, nil, event.ID)
	require.NoError(t, err)
	assert.Zero(t, teams, "below threshold nothing is generated")
	assert.Zero(t, f.notifier.count(brackets.MessageBracketGenerated))

	users = append(users, f.register(t, event.ID, 1)...)

	stored, err := f.repos.Events.GetByID(f.ctx, nil, event.ID)
	require.NoError(t, err)
	assert.True(t, stored.TeamsGenerated)

	list, err := f.teams.ListByEvent(f.ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Team A", list[0].Name)
	assert.ElementsMatch(t, []int{users[0].ID, users[1].ID}, list[0].MemberUserIDs)
	assert.ElementsMatch(t, []int{users[2].ID, users[3].ID}, list[1].MemberUserIDs)

	matches, err := f.repos.Matches.ListByEvent(f.ctx, nil, event.ID)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 1, matches[0].RoundNumber)
	assert.Equal(t, 1, matches[0].CourtNumber)
	assert.Equal(t, models.MatchStatusPending, matches[0].Status)
	assert.Equal(t, list[0].ID, matches[0].TeamAID)
	assert.Equal(t, list[1].ID, matches[0].TeamBID)

	assert.Equal(t, 1, f.notifier.count(brackets.MessageBracketGenerated))
}

func TestGenerationService_RunsOnce(t *testing.T) {
	f := newFixture(t, bothTriggers)
	event, _, _ := f.generatedEvent(t, 4)

	res, err := f.generation.MaybeGenerateBracket(f.ctx, event.ID)
	require.NoError(t, err)
	assert.False(t, res.Generated)

	_, err = f.generation.GenerateTeamsAndBracket(f.ctx, event.ID)
	assert.ErrorIs(t, err, ErrAlreadyGenerated)

	teams, err := f.repos.Teams.CountByEvent(f.ctx, nil, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, teams)
	assert.Equal(t, 1, f.notifier.count(brackets.MessageBracketGenerated))
}

func TestGenerationService_ManualReportsMissingPlayers(t *testing.T) {
	f := newFixture(t, bothTriggers)
	event := f.addEvent(t, 6)
	f.register(t, event.ID, 4)

	_, err := f.generation.GenerateTeamsAndBracket(f.ctx, event.ID)
	require.ErrorIs(t, err, ErrInsufficientPlayers)
	assert.Contains(t, err.Error(), "need 2 more players")

	res, err := f.generation.MaybeGenerateBracket(f.ctx, event.ID)
	require.NoError(t, err)
	assert.False(t, res.Generated)

	_, err = f.generation.GenerateTeamsAndBracket(f.ctx, 9999)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestGenerationService_ManualOnlyPolicy(t *testing.T) {
	f := newFixture(t, GenerationPolicy{ManualEnabled: true})
	assert.False(t, f.generation.AutoGenerationEnabled())
	event := f.addEvent(t, 4)
	f.register(t, event.ID, 5)

	stored, err := f.repos.Events.GetByID(f.ctx, nil, event.ID)
	require.NoError(t, err)
	assert.False(t, stored.TeamsGenerated, "registrations never trigger generation")

	res, err := f.generation.MaybeGenerateBracket(f.ctx, event.ID)
	require.NoError(t, err)
	assert.False(t, res.Generated)

	res, err = f.generation.GenerateTeamsAndBracket(f.ctx, event.ID)
	require.NoError(t, err)
	assert.True(t, res.Generated)
	assert.Len(t, res.Teams, 2)
	assert.Len(t, res.Matches, 1)
}

func TestGenerationService_AutoOnlyPolicy(t *testing.T) {
	f := newFixture(t, GenerationPolicy{AutoEnabled: true})
	event := f.addEvent(t, 4)

	_, err := f.generation.GenerateTeamsAndBracket(f.ctx, event.ID)
	assert.ErrorIs(t, err, ErrManualGenerationDisabled)

	f.register(t, event.ID, 4)
	stored, err := f.repos.Events.GetByID(f.ctx, nil, event.ID)
	require.NoError(t, err)
	assert.True(t, stored.TeamsGenerated)
}

func TestGenerationService_OddPoolLeavesOnePlayerOut(t *testing.T) {
	f := newFixture(t, GenerationPolicy{ManualEnabled: true})
	event := f.addEvent(t, 4)
	users := f.register(t, event.ID, 7)

	res, err := f.generation.GenerateTeamsAndBracket(f.ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, res.Teams, 3)
	require.Len(t, res.Matches, 1)

	for _, team := range res.Teams {
		assert.NotContains(t, team.MemberUserIDs, users[6].ID)
	}
	// Third team has no opponent in a single round.
	assert.Equal(t, res.Teams[0].ID, res.Matches[0].TeamAID)
	assert.Equal(t, res.Teams[1].ID, res.Matches[0].TeamBID)
}

func TestGenerationService_ConcurrentTriggersGenerateOnce(t *testing.T) {
	f := newFixture(t, GenerationPolicy{ManualEnabled: true})
	event := f.addEvent(t, 4)
	f.register(t, event.ID, 8)

	policy := bothTriggers
	gen := NewGenerationService(f.repos.Tx, f.repos.Events, f.repos.Registrations, f.teams, f.brackets, policy, f.notifier, testLogger)

	var generated atomic.Int32
	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func(manual bool) {
			defer wg.Done()
			var (
				res *GenerationResult
				err error
			)
			if manual {
				res, err = gen.GenerateTeamsAndBracket(f.ctx, event.ID)
				if err != nil {
					assert.ErrorIs(t, err, ErrAlreadyGenerated)
					return
				}
			} else {
				res, err = gen.MaybeGenerateBracket(f.ctx, event.ID)
				assert.NoError(t, err)
			}
			if res != nil && res.Generated {
				generated.Add(1)
			}
		}(i%2 == 0)
	}
	wg.Wait()

	assert.EqualValues(t, 1, generated.Load())
	teams, err := f.repos.Teams.CountByEvent(f.ctx, nil, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, teams)
	assert.Equal(t, 1, f.notifier.count(brackets.MessageBracketGenerated))
}

func TestGenerationService_ConcurrentRegistrationsGenerateOnce(t *testing.T) {
	f := newFixture(t, bothTriggers)
	event := f.addEvent(t, 8)

	users := make([]*models.User, 16)
	for i := range users {
		users[i] = f.addUser(t, models.UserStatusApproved)
	}

	var registered atomic.Int32
	var wg sync.WaitGroup
	for _, u := range users {
		wg.Add(1)
		go func(userID int) {
			defer wg.Done()
			_, err := f.registrations.Register(f.ctx, userID, event.ID, "")
			if err != nil {
				assert.ErrorIs(t, err, ErrRegistrationClosed)
				return
			}
			registered.Add(1)
		}(u.ID)
	}
	wg.Wait()

	assert.GreaterOrEqual(t, registered.Load(), int32(8))
	assert.Equal(t, 1, f.notifier.count(brackets.MessageBracketGenerated))

	stored, err := f.repos.Events.GetByID(f.ctx, nil, event.ID)
	require.NoError(t, err)
	assert.True(t, stored.TeamsGenerated)

	teams, err := f.repos.Teams.CountByEvent(f.ctx, nil, event.ID)
	require.NoError(t, err)
	assert.Equal(t, int(registered.Load())/2, teams)
}
