package services

import (
	"sync"
	"testing"

	"github.com/Dosada05/boules-league/brackets"
	"github.com/Dosada05/boules-league/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultService_SubmitResult_AgreementLocksMatch(t *testing.T) {
	f := newFixture(t, bothTriggers)
	event, users, matches := f.generatedEvent(t, 4)
	match := matches[0]

	for i, u := range users[:3] {
		out, err := f.results.SubmitResult(f.ctx, match.ID, u.ID, 13, 7)
		require.NoError(t, err)
		assert.Equal(t, OutcomePending, out.Outcome)
		assert.Equal(t, i+1, out.Submitted)
		assert.Equal(t, 4, out.Required)
	}
	_, err := f.repos.Standings.GetByEventAndUser(f.ctx, nil, event.ID, users[0].ID)
	require.Error(t, err, "no standings before the match locks")

	out, err := f.results.SubmitResult(f.ctx, match.ID, users[3].ID, 13, 7)
	require.NoError(t, err)
	assert.Equal(t, OutcomeLocked, out.Outcome)
	require.NotNil(t, out.Match)
	assert.Equal(t, models.MatchStatusLocked, out.Match.Status)
	require.NotNil(t, out.Match.WinnerTeamID)
	assert.Equal(t, match.TeamAID, *out.Match.WinnerTeamID)
	assert.Equal(t, 13, *out.Match.ScoreA)
	assert.Equal(t, 7, *out.Match.ScoreB)
	assert.NotNil(t, out.Match.CompletedAt)

	for _, u := range users[:2] {
		st := f.standingOf(t, event.ID, u.ID)
		assert.Equal(t, 1, st.Wins)
		assert.Equal(t, 6, st.Points)
	}
	for _, u := range users[2:] {
		st := f.standingOf(t, event.ID, u.ID)
		assert.Equal(t, 0, st.Wins)
		assert.Equal(t, -6, st.Points)
	}

	confs, err := f.repos.Confirmations.ListByMatch(f.ctx, nil, match.ID)
	require.NoError(t, err)
	for _, c := range confs {
		assert.Equal(t, models.ConfirmationConfirmed, c.Status)
	}
	assert.Equal(t, 1, f.notifier.count(brackets.MessageMatchLocked))
}

func TestResultService_SubmitResult_AfterLockIsNoop(t *testing.T) {
	f := newFixture(t, bothTriggers)
	event, users, matches := f.generatedEvent(t, 4)
	match := matches[0]
	for _, u := range users {
		_, err := f.results.SubmitResult(f.ctx, match.ID, u.ID, 13, 7)
		require.NoError(t, err)
	}

	out, err := f.results.SubmitResult(f.ctx, match.ID, users[0].ID, 0, 13)
	require.NoError(t, err)
	assert.Equal(t, OutcomeLocked, out.Outcome)
	assert.Equal(t, 13, *out.Match.ScoreA)

	st := f.standingOf(t, event.ID, users[0].ID)
	assert.Equal(t, 1, st.Wins)
	assert.Equal(t, 6, st.Points)
	assert.Equal(t, 1, f.notifier.count(brackets.MessageMatchLocked))
}

func TestResultService_SubmitResult_DisagreementDisputes(t *testing.T) {
	f := newFixture(t, bothTriggers)
	event, users, matches := f.generatedEvent(t, 4)
	match := matches[0]

	for _, u := range users[:3] {
		_, err := f.results.SubmitResult(f.ctx, match.ID, u.ID, 13, 7)
		require.NoError(t, err)
	}
	out, err := f.results.SubmitResult(f.ctx, match.ID, users[3].ID, 13, 9)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDisputed, out.Outcome)
	assert.Equal(t, 1, f.notifier.count(brackets.MessageMatchDisputed))

	confs, err := f.repos.Confirmations.ListByMatch(f.ctx, nil, match.ID)
	require.NoError(t, err)
	require.Len(t, confs, 4)
	for _, c := range confs {
		assert.Equal(t, models.ConfirmationDisputed, c.Status)
	}

	stored, err := f.repos.Matches.GetByID(f.ctx, nil, match.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusPending, stored.Status)
	assert.Nil(t, stored.ScoreA)
	_, err = f.repos.Standings.GetByEventAndUser(f.ctx, nil, event.ID, users[0].ID)
	assert.Error(t, err)

	// The outlier corrects the report and the match locks.
	out, err = f.results.SubmitResult(f.ctx, match.ID, users[3].ID, 13, 7)
	require.NoError(t, err)
	assert.Equal(t, OutcomeLocked, out.Outcome)
	assert.Equal(t, 1, f.standingOf(t, event.ID, users[0].ID).Wins)
}

func TestResultService_SubmitResult_TieHasNoWinner(t *testing.T) {
	f := newFixture(t, bothTriggers)
	event, users, matches := f.generatedEvent(t, 4)
	for _, u := range users {
		_, err := f.results.SubmitResult(f.ctx, matches[0].ID, u.ID, 10, 10)
		require.NoError(t, err)
	}

	stored, err := f.repos.Matches.GetByID(f.ctx, nil, matches[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusLocked, stored.Status)
	assert.Nil(t, stored.WinnerTeamID)
	for _, u := range users {
		st := f.standingOf(t, event.ID, u.ID)
		assert.Zero(t, st.Wins)
		assert.Zero(t, st.Points)
	}
}

func TestResultService_SubmitResult_Rejections(t *testing.T) {
	f := newFixture(t, bothTriggers)
	_, users, matches := f.generatedEvent(t, 4)
	outsider := f.addUser(t, models.UserStatusApproved)

	_, err := f.results.SubmitResult(f.ctx, matches[0].ID, users[0].ID, -1, 13)
	assert.ErrorIs(t, err, ErrInvalidScore)

	_, err = f.results.SubmitResult(f.ctx, matches[0].ID, outsider.ID, 13, 7)
	assert.ErrorIs(t, err, ErrNotParticipant)

	_, err = f.results.SubmitResult(f.ctx, 9999, users[0].ID, 13, 7)
	assert.ErrorIs(t, err, ErrMatchNotFound)

	confs, err := f.repos.Confirmations.ListByMatch(f.ctx, nil, matches[0].ID)
	require.NoError(t, err)
	assert.Empty(t, confs)
}

func TestResultService_SubmitResult_SinglePlayerTeams(t *testing.T) {
	f := newFixture(t, bothTriggers)
	event := f.addEvent(t, 2)
	alice := f.addUser(t, models.UserStatusApproved)
	bob := f.addUser(t, models.UserStatusApproved)

	teamA := &models.Team{EventID: event.ID, Name: "Team A"}
	teamB := &models.Team{EventID: event.ID, Name: "Team B"}
	require.NoError(t, f.repos.Teams.Create(f.ctx, nil, teamA))
	require.NoError(t, f.repos.Teams.Create(f.ctx, nil, teamB))
	require.NoError(t, f.repos.Teams.AddMember(f.ctx, nil, teamA.ID, alice.ID))
	require.NoError(t, f.repos.Teams.AddMember(f.ctx, nil, teamB.ID, bob.ID))
	match := &models.Match{EventID: event.ID, TeamAID: teamA.ID, TeamBID: teamB.ID, RoundNumber: 1, CourtNumber: 1, Status: models.MatchStatusPending}
	require.NoError(t, f.repos.Matches.Create(f.ctx, nil, match))

	out, err := f.results.SubmitResult(f.ctx, match.ID, bob.ID, 4, 13)
	require.NoError(t, err)
	assert.Equal(t, OutcomePending, out.Outcome)
	assert.Equal(t, 2, out.Required)

	out, err = f.results.SubmitResult(f.ctx, match.ID, alice.ID, 4, 13)
	require.NoError(t, err)
	assert.Equal(t, OutcomeLocked, out.Outcome)
	assert.Equal(t, teamB.ID, *out.Match.WinnerTeamID)
	assert.Equal(t, 1, f.standingOf(t, event.ID, bob.ID).Wins)
	assert.Equal(t, -9, f.standingOf(t, event.ID, alice.ID).Points)
}

func TestResultService_SubmitResult_ConcurrentAgreementAppliesOnce(t *testing.T) {
	f := newFixture(t, bothTriggers)
	event, users, matches := f.generatedEvent(t, 4)
	match := matches[0]

	// Everyone reports once, then everyone re-reports at the same time.
	for _, u := range users {
		_, err := f.results.SubmitResult(f.ctx, match.ID, u.ID, 7, 13)
		require.NoError(t, err)
	}
	var wg sync.WaitGroup
	for range 5 {
		for _, u := range users {
			wg.Add(1)
			go func(userID int) {
				defer wg.Done()
				_, err := f.results.SubmitResult(f.ctx, match.ID, userID, 7, 13)
				assert.NoError(t, err)
			}(u.ID)
		}
	}
	wg.Wait()

	for _, u := range users[2:] {
		st := f.standingOf(t, event.ID, u.ID)
		assert.Equal(t, 1, st.Wins)
		assert.Equal(t, 6, st.Points)
	}
	assert.Equal(t, 1, f.notifier.count(brackets.MessageMatchLocked))
}

func TestResultService_SubmitResult_ConcurrentFirstReports(t *testing.T) {
	f := newFixture(t, bothTriggers)
	event, users, matches := f.generatedEvent(t, 4)

	var wg sync.WaitGroup
	for _, u := range users {
		wg.Add(1)
		go func(userID int) {
			defer wg.Done()
			_, err := f.results.SubmitResult(f.ctx, matches[0].ID, userID, 13, 12)
			assert.NoError(t, err)
		}(u.ID)
	}
	wg.Wait()

	stored, err := f.repos.Matches.GetByID(f.ctx, nil, matches[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusLocked, stored.Status)
	assert.Equal(t, 1, f.standingOf(t, event.ID, users[0].ID).Wins)
	assert.Equal(t, 1, f.notifier.count(brackets.MessageMatchLocked))
}

func TestResultService_SetMatchStatus(t *testing.T) {
	f := newFixture(t, bothTriggers)
	_, users, matches := f.generatedEvent(t, 4)
	match := matches[0]

	got, err := f.results.SetMatchStatus(f.ctx, match.ID, models.MatchStatusOngoing)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusOngoing, got.Status)

	_, err = f.results.SetMatchStatus(f.ctx, match.ID, models.MatchStatusLocked)
	assert.ErrorIs(t, err, ErrMatchStatusNotSettable)

	_, err = f.results.SetMatchStatus(f.ctx, 9999, models.MatchStatusPending)
	assert.ErrorIs(t, err, ErrMatchNotFound)

	for _, u := range users {
		_, err := f.results.SubmitResult(f.ctx, match.ID, u.ID, 13, 0)
		require.NoError(t, err)
	}
	_, err = f.results.SetMatchStatus(f.ctx, match.ID, models.MatchStatusPending)
	assert.ErrorIs(t, err, ErrMatchStatusNotSettable)
}
