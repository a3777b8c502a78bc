package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/Dosada05/boules-league/models"
	"github.com/Dosada05/boules-league/repositories"
	"github.com/Dosada05/boules-league/storage"
	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

const MaxAvatarSize = 5 << 20

var avatarExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type UserService interface {
	GetProfile(ctx context.Context, userID int) (*models.User, error)
	UploadAvatar(ctx context.Context, userID int, file io.Reader, size int64, contentType string) (*models.User, error)
	GetStats(ctx context.Context, userID int) (*models.UserStats, error)
	// ListUsers filters by status and, when query is set, keeps fuzzy matches
	// on name or email ordered best first.
	ListUsers(ctx context.Context, query string, status *models.UserStatus) ([]*models.User, error)
	UpdateStatus(ctx context.Context, userID int, status models.UserStatus) (*models.User, error)
}

type userService struct {
	userRepo  repositories.UserRepository
	teamRepo  repositories.TeamRepository
	matchRepo repositories.MatchRepository
	eventRepo repositories.EventRepository
	uploader  storage.FileUploader
	logger    *slog.Logger
}

// NewUserService accepts a nil uploader; avatar uploads then fail with ErrUploadUnavailable.
func NewUserService(
	userRepo repositories.UserRepository,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	eventRepo repositories.EventRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) UserService {
	return &userService{
		userRepo:  userRepo,
		teamRepo:  teamRepo,
		matchRepo: matchRepo,
		eventRepo: eventRepo,
		uploader:  uploader,
		logger:    logger,
	}
}

func (s *userService) GetProfile(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}
	return user, nil
}

func (s *userService) UploadAvatar(ctx context.Context, userID int, file io.Reader, size int64, contentType string) (*models.User, error) {
	if s.uploader == nil {
		return nil, ErrUploadUnavailable
	}
	ext, ok := avatarExtensions[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFileType, contentType)
	}
	if size > MaxAvatarSize {
		return nil, ErrFileTooLarge
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("avatars/%d/%s%s", userID, uuid.NewString(), ext)
	uploaded, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload avatar for user %d: %w", userID, err)
	}

	if err := s.userRepo.UpdateProfileImage(ctx, nil, userID, &uploaded.Key, &uploaded.Location); err != nil {
		if delErr := s.uploader.Delete(ctx, uploaded.Key); delErr != nil {
			s.logger.Warn("failed to remove orphaned avatar", slog.String("key", uploaded.Key), slog.Any("error", delErr))
		}
		return nil, fmt.Errorf("failed to save avatar for user %d: %w", userID, err)
	}

	if old := user.ProfileImageKey; old != nil && *old != "" {
		if err := s.uploader.Delete(ctx, *old); err != nil {
			s.logger.Warn("failed to delete previous avatar", slog.String("key", *old), slog.Any("error", err))
		}
	}

	user.ProfileImageKey = &uploaded.Key
	user.ProfileImageURL = &uploaded.Location
	return user, nil
}

func (s *userService) GetStats(ctx context.Context, userID int) (*models.UserStats, error) {
	if _, err := s.GetProfile(ctx, userID); err != nil {
		return nil, err
	}

	stats := &models.UserStats{History: make([]*models.MatchHistory, 0)}

	teams, err := s.teamRepo.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams of user %d: %w", userID, err)
	}
	if len(teams) == 0 {
		return stats, nil
	}

	ownTeams := make(map[int]*models.Team, len(teams))
	teamIDs := make([]int, 0, len(teams))
	events := make(map[int]*models.Event)
	for _, t := range teams {
		ownTeams[t.ID] = t
		teamIDs = append(teamIDs, t.ID)
		if _, seen := events[t.EventID]; !seen {
			events[t.EventID] = nil
		}
	}
	stats.EventsPlayed = len(events)

	matches, err := s.matchRepo.ListByTeams(ctx, nil, teamIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches of user %d: %w", userID, err)
	}

	otherTeams := make(map[int]*models.Team)
	teamName := func(id int) (string, error) {
		if t, ok := ownTeams[id]; ok {
			return t.Name, nil
		}
		if t, ok := otherTeams[id]; ok {
			return t.Name, nil
		}
		t, err := s.teamRepo.GetByID(ctx, nil, id)
		if err != nil {
			return "", fmt.Errorf("failed to load team %d for match history of user %d: %w", id, userID, err)
		}
		otherTeams[id] = t
		return t.Name, nil
	}

	for _, m := range matches {
		if !m.IsLocked() || m.ScoreA == nil || m.ScoreB == nil {
			continue
		}
		ownID, oppID, own, opp := m.TeamAID, m.TeamBID, *m.ScoreA, *m.ScoreB
		if _, onA := ownTeams[m.TeamAID]; !onA {
			ownID, oppID, own, opp = m.TeamBID, m.TeamAID, *m.ScoreB, *m.ScoreA
		}

		entry := &models.MatchHistory{
			MatchID:       m.ID,
			EventID:       m.EventID,
			OwnScore:      own,
			OpponentScore: opp,
		}
		if entry.TeamName, err = teamName(ownID); err != nil {
			return nil, err
		}
		if entry.OpponentName, err = teamName(oppID); err != nil {
			return nil, err
		}
		switch {
		case own > opp:
			entry.Result = "win"
			stats.MatchesWon++
		case own < opp:
			entry.Result = "loss"
			stats.MatchesLost++
		default:
			entry.Result = "tie"
			stats.MatchesTied++
		}

		event := events[m.EventID]
		if event == nil {
			if event, err = s.eventRepo.GetByID(ctx, nil, m.EventID); err != nil {
				return nil, fmt.Errorf("failed to load event %d for match history of user %d: %w", m.EventID, userID, err)
			}
			events[m.EventID] = event
		}
		entry.EventDate = event.EventDate
		entry.Location = event.Location

		stats.MatchesPlayed++
		stats.PointsScored += own
		stats.PointsConceded += opp
		stats.History = append(stats.History, entry)
	}

	if stats.MatchesPlayed > 0 {
		stats.WinPercentage = stats.MatchesWon * 100 / stats.MatchesPlayed
	}
	return stats, nil
}

func (s *userService) ListUsers(ctx context.Context, query string, status *models.UserStatus) ([]*models.User, error) {
	users, err := s.userRepo.List(ctx, nil, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return users, nil
	}

	targets := make([]string, len(users))
	for i, u := range users {
		targets[i] = strings.ToLower(u.FullName() + " " + u.Email)
	}
	ranks := fuzzy.RankFind(query, targets)
	slices.SortStableFunc(ranks, func(a, b fuzzy.Rank) int {
		return cmp.Or(cmp.Compare(a.Distance, b.Distance), cmp.Compare(a.OriginalIndex, b.OriginalIndex))
	})

	found := make([]*models.User, 0, len(ranks))
	for _, r := range ranks {
		found = append(found, users[r.OriginalIndex])
	}
	return found, nil
}

func (s *userService) UpdateStatus(ctx context.Context, userID int, status models.UserStatus) (*models.User, error) {
	switch status {
	case models.UserStatusPending, models.UserStatusApproved, models.UserStatusInactive:
	default:
		return nil, fmt.Errorf("%w: unknown user status %q", ErrValidationFailed, status)
	}
	if err := s.userRepo.UpdateStatus(ctx, nil, userID, status); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update status of user %d: %w", userID, err)
	}
	s.logger.Info("user status updated", slog.Int("user_id", userID), slog.String("status", string(status)))
	return s.GetProfile(ctx, userID)
}
