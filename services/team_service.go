package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/boules-league/brackets"
	"github.com/Dosada05/boules-league/models"
	"github.com/Dosada05/boules-league/repositories"
)

type TeamService interface {
	// PairTeams shuffles the pool into two-player teams and stores them
	// through exec, which should be the caller's transaction.
	PairTeams(ctx context.Context, exec repositories.SQLExecutor, eventID int, pool []*models.Registration) ([]*models.Team, error)
	ListByEvent(ctx context.Context, eventID int) ([]*models.Team, error)
}

type teamService struct {
	teamRepo repositories.TeamRepository
	userRepo repositories.UserRepository
	intN     brackets.IntN
	logger   *slog.Logger
}

// NewTeamService uses brackets.DefaultIntN when intN is nil.
func NewTeamService(teamRepo repositories.TeamRepository, userRepo repositories.UserRepository, intN brackets.IntN, logger *slog.Logger) TeamService {
	if intN == nil {
		intN = brackets.DefaultIntN
	}
	return &teamService{
		teamRepo: teamRepo,
		userRepo: userRepo,
		intN:     intN,
		logger:   logger,
	}
}

func (s *teamService) PairTeams(ctx context.Context, exec repositories.SQLExecutor, eventID int, pool []*models.Registration) ([]*models.Team, error) {
	userIDs := make([]int, 0, len(pool))
	for _, reg := range pool {
		userIDs = append(userIDs, reg.UserID)
	}
	userIDs = distinctIDs(userIDs)

	if len(userIDs) < brackets.TeamSize {
		return nil, fmt.Errorf("%w: %d in pool, %d needed for one team", ErrInsufficientPlayers, len(userIDs), brackets.TeamSize)
	}

	existing, err := s.teamRepo.CountByEvent(ctx, exec, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing teams for event %d: %w", eventID, err)
	}
	if existing > 0 {
		return nil, ErrAlreadyGenerated
	}

	pairs := brackets.PairPlayers(userIDs, s.intN)
	teams := make([]*models.Team, 0, len(pairs))
	for i, members := range pairs {
		team := &models.Team{EventID: eventID, Name: brackets.TeamName(i)}
		if err := s.teamRepo.Create(ctx, exec, team); err != nil {
			if errors.Is(err, repositories.ErrTeamEventInvalid) {
				return nil, ErrEventNotFound
			}
			return nil, fmt.Errorf("failed to create %s for event %d: %w", team.Name, eventID, err)
		}
		for _, userID := range members {
			if err := s.teamRepo.AddMember(ctx, exec, team.ID, userID); err != nil {
				return nil, fmt.Errorf("failed to add user %d to %s: %w", userID, team.Name, err)
			}
		}
		team.MemberUserIDs = members
		teams = append(teams, team)
	}

	if dropped := len(userIDs) - len(pairs)*brackets.TeamSize; dropped > 0 {
		s.logger.Info("odd player left without a team",
			slog.Int("event_id", eventID), slog.Int("unpaired", dropped))
	}
	return teams, nil
}

func (s *teamService) ListByEvent(ctx context.Context, eventID int) ([]*models.Team, error) {
	teams, err := s.teamRepo.ListByEvent(ctx, nil, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams for event %d: %w", eventID, err)
	}
	if err := attachTeamMembers(ctx, s.userRepo, teams); err != nil {
		return nil, err
	}
	return teams, nil
}

func attachTeamMembers(ctx context.Context, userRepo repositories.UserRepository, teams []*models.Team) error {
	ids := make([]int, 0, len(teams)*brackets.TeamSize)
	for _, t := range teams {
		ids = append(ids, t.MemberUserIDs...)
	}
	users, err := userRepo.ListByIDs(ctx, nil, ids)
	if err != nil {
		return fmt.Errorf("failed to load team members: %w", err)
	}
	byID := make(map[int]*models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for _, t := range teams {
		t.Members = make([]*models.User, 0, len(t.MemberUserIDs))
		for _, id := range t.MemberUserIDs {
			if u, ok := byID[id]; ok {
				t.Members = append(t.Members, u)
			}
		}
	}
	return nil
}
