package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/Dosada05/boules-league/models"
	"github.com/Dosada05/boules-league/repositories"
	"github.com/Dosada05/boules-league/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	mu        sync.Mutex
	objects   map[string][]byte
	deleted   []string
	uploadErr error
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{objects: make(map[string][]byte)}
}

func (u *fakeUploader) Upload(_ context.Context, key, _ string, r io.Reader) (*storage.UploadResult, error) {
	if u.uploadErr != nil {
		return nil, u.uploadErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.objects[key] = data
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *fakeUploader) Delete(_ context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.objects, key)
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

func TestUserService_UploadAvatar(t *testing.T) {
	f := newFixture(t, bothTriggers)
	uploader := newFakeUploader()
	svc := NewUserService(f.repos.Users, f.repos.Teams, f.repos.Matches, f.repos.Events, uploader, testLogger)
	user := f.addUser(t, models.UserStatusApproved)

	first, err := svc.UploadAvatar(f.ctx, user.ID, bytes.NewReader([]byte("png-1")), 5, "image/png")
	require.NoError(t, err)
	require.NotNil(t, first.ProfileImageKey)
	oldKey := *first.ProfileImageKey
	assert.True(t, strings.HasPrefix(oldKey, "avatars/"))
	assert.True(t, strings.HasSuffix(oldKey, ".png"))
	assert.Equal(t, "https://cdn.example.com/"+oldKey, *first.ProfileImageURL)

	second, err := svc.UploadAvatar(f.ctx, user.ID, bytes.NewReader([]byte("jpg-2")), 5, "image/jpeg")
	require.NoError(t, err)
	assert.NotEqual(t, oldKey, *second.ProfileImageKey)
	assert.Equal(t, []string{oldKey}, uploader.deleted)
	assert.Len(t, uploader.objects, 1)

	stored, err := svc.GetProfile(f.ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, *second.ProfileImageURL, *stored.ProfileImageURL)
}

func TestUserService_UploadAvatar_Rejections(t *testing.T) {
	f := newFixture(t, bothTriggers)
	user := f.addUser(t, models.UserStatusApproved)
	body := bytes.NewReader([]byte("x"))

	_, err := f.users.UploadAvatar(f.ctx, user.ID, body, 1, "image/png")
	assert.ErrorIs(t, err, ErrUploadUnavailable)

	uploader := newFakeUploader()
	svc := NewUserService(f.repos.Users, f.repos.Teams, f.repos.Matches, f.repos.Events, uploader, testLogger)

	_, err = svc.UploadAvatar(f.ctx, user.ID, body, 1, "application/pdf")
	assert.ErrorIs(t, err, ErrInvalidFileType)

	_, err = svc.UploadAvatar(f.ctx, user.ID, body, MaxAvatarSize+1, "image/webp")
	assert.ErrorIs(t, err, ErrFileTooLarge)

	_, err = svc.UploadAvatar(f.ctx, 9999, body, 1, "image/webp")
	assert.ErrorIs(t, err, ErrUserNotFound)

	uploader.uploadErr = errors.New("bucket unavailable")
	_, err = svc.UploadAvatar(f.ctx, user.ID, body, 1, "image/webp")
	assert.Error(t, err)
	assert.Empty(t, uploader.objects)
}

func TestUserService_GetStats(t *testing.T) {
	f := newFixture(t, bothTriggers)
	event, users, matches := f.generatedEvent(t, 4)
	for _, u := range users {
		_, err := f.results.SubmitResult(f.ctx, matches[0].ID, u.ID, 13, 8)
		require.NoError(t, err)
	}

	stats, err := f.users.GetStats(f.ctx, users[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.EventsPlayed)
	assert.Equal(t, 1, stats.MatchesPlayed)
	assert.Equal(t, 1, stats.MatchesWon)
	assert.Equal(t, 100, stats.WinPercentage)
	assert.Equal(t, 13, stats.PointsScored)
	assert.Equal(t, 8, stats.PointsConceded)
	require.Len(t, stats.History, 1)
	h := stats.History[0]
	assert.Equal(t, "win", h.Result)
	assert.Equal(t, "Team A", h.TeamName)
	assert.Equal(t, "Team B", h.OpponentName)
	assert.Equal(t, event.Location, h.Location)

	stats, err = f.users.GetStats(f.ctx, users[3].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.MatchesLost)
	assert.Zero(t, stats.WinPercentage)
	assert.Equal(t, 8, stats.PointsScored)
	assert.Equal(t, "loss", stats.History[0].Result)
}

func TestUserService_GetStats_IgnoresOpenMatches(t *testing.T) {
	f := newFixture(t, bothTriggers)
	_, users, matches := f.generatedEvent(t, 4)
	_, err := f.results.SubmitResult(f.ctx, matches[0].ID, users[0].ID, 13, 8)
	require.NoError(t, err)

	stats, err := f.users.GetStats(f.ctx, users[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.EventsPlayed)
	assert.Zero(t, stats.MatchesPlayed)
	assert.Empty(t, stats.History)

	newcomer := f.addUser(t, models.UserStatusApproved)
	stats, err = f.users.GetStats(f.ctx, newcomer.ID)
	require.NoError(t, err)
	assert.Zero(t, stats.EventsPlayed)
	assert.NotNil(t, stats.History)

	_, err = f.users.GetStats(f.ctx, 9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

type failingTeamLookup struct {
	repositories.TeamRepository
	failID int
}

func (r failingTeamLookup) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Team, error) {
	if id == r.failID {
		return nil, errors.New("connection reset by peer")
	}
	return r.TeamRepository.GetByID(ctx, exec, id)
}

func TestUserService_GetStats_TeamLookupFailure(t *testing.T) {
	f := newFixture(t, bothTriggers)
	_, users, matches := f.generatedEvent(t, 4)
	for _, u := range users {
		_, err := f.results.SubmitResult(f.ctx, matches[0].ID, u.ID, 13, 8)
		require.NoError(t, err)
	}

	teams := failingTeamLookup{TeamRepository: f.repos.Teams, failID: matches[0].TeamBID}
	svc := NewUserService(f.repos.Users, teams, f.repos.Matches, f.repos.Events, nil, testLogger)

	stats, err := svc.GetStats(f.ctx, users[0].ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset by peer")
	assert.Nil(t, stats, "no history with a blank opponent name")
}

func TestUserService_ListUsers(t *testing.T) {
	f := newFixture(t, bothTriggers)
	create := func(first, last, email string, status models.UserStatus) *models.User {
		u := &models.User{FirstName: first, LastName: last, Email: email, Status: status}
		require.NoError(t, f.repos.Users.Create(f.ctx, nil, u))
		return u
	}
	jean := create("Jean", "Dupont", "jean@example.com", models.UserStatusApproved)
	marie := create("Marie", "Dupuis", "marie@example.com", models.UserStatusPending)
	paul := create("Paul", "Martin", "paul@example.com", models.UserStatusApproved)

	all, err := f.users.ListUsers(f.ctx, "", nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	found, err := f.users.ListUsers(f.ctx, "DUP", nil)
	require.NoError(t, err)
	ids := make([]int, 0, len(found))
	for _, u := range found {
		ids = append(ids, u.ID)
	}
	assert.ElementsMatch(t, []int{jean.ID, marie.ID}, ids)
	assert.NotContains(t, ids, paul.ID)

	approved := models.UserStatusApproved
	found, err = f.users.ListUsers(f.ctx, "dup", &approved)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, jean.ID, found[0].ID)

	found, err = f.users.ListUsers(f.ctx, "paul@example", nil)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, paul.ID, found[0].ID)
}

func TestUserService_UpdateStatus(t *testing.T) {
	f := newFixture(t, bothTriggers)
	user := f.addUser(t, models.UserStatusPending)

	got, err := f.users.UpdateStatus(f.ctx, user.ID, models.UserStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusApproved, got.Status)

	_, err = f.users.UpdateStatus(f.ctx, user.ID, "banned")
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = f.users.UpdateStatus(f.ctx, 9999, models.UserStatusInactive)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
