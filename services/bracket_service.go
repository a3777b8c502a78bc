package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/boules-league/brackets"
	"github.com/Dosada05/boules-league/models"
	"github.com/Dosada05/boules-league/repositories"
	"golang.org/x/sync/errgroup"
)

type BracketService interface {
	// GenerateBracket stores one round of matches for teams in the given order.
	GenerateBracket(ctx context.Context, exec repositories.SQLExecutor, eventID int, teams []*models.Team) ([]*models.Match, error)
	GetScoreboard(ctx context.Context, eventID int) (*models.Scoreboard, error)
	// GetMatch returns a match with both teams and their members.
	GetMatch(ctx context.Context, matchID int) (*models.Match, error)
}

type bracketService struct {
	generator    brackets.BracketGenerator
	eventRepo    repositories.EventRepository
	teamRepo     repositories.TeamRepository
	matchRepo    repositories.MatchRepository
	standingRepo repositories.StandingRepository
	userRepo     repositories.UserRepository
	logger       *slog.Logger
	now          func() time.Time
}

func NewBracketService(
	generator brackets.BracketGenerator,
	eventRepo repositories.EventRepository,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	standingRepo repositories.StandingRepository,
	userRepo repositories.UserRepository,
	logger *slog.Logger,
) BracketService {
	if generator == nil {
		generator = brackets.NewSingleRoundGenerator()
	}
	return &bracketService{
		generator:    generator,
		eventRepo:    eventRepo,
		teamRepo:     teamRepo,
		matchRepo:    matchRepo,
		standingRepo: standingRepo,
		userRepo:     userRepo,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *bracketService) GenerateBracket(ctx context.Context, exec repositories.SQLExecutor, eventID int, teams []*models.Team) ([]*models.Match, error) {
	planned, err := s.generator.GenerateBracket(ctx, brackets.GenerateBracketParams{EventID: eventID, Teams: teams})
	if err != nil {
		return nil, fmt.Errorf("failed to plan bracket for event %d: %w", eventID, err)
	}

	matches := make([]*models.Match, 0, len(planned))
	for _, bm := range planned {
		match := &models.Match{
			EventID:     eventID,
			TeamAID:     bm.TeamAID,
			TeamBID:     bm.TeamBID,
			RoundNumber: bm.Round,
			CourtNumber: bm.Court,
			Status:      models.MatchStatusPending,
		}
		if err := s.matchRepo.Create(ctx, exec, match); err != nil {
			return nil, fmt.Errorf("failed to create match on court %d for event %d: %w", bm.Court, eventID, err)
		}
		matches = append(matches, match)
	}

	s.logger.Info("bracket generated",
		slog.Int("event_id", eventID),
		slog.String("generator", s.generator.GetName()),
		slog.Int("teams", len(teams)),
		slog.Int("matches", len(matches)),
	)
	return matches, nil
}

func (s *bracketService) GetScoreboard(ctx context.Context, eventID int) (*models.Scoreboard, error) {
	var (
		event     *models.Event
		teams     []*models.Team
		matches   []*models.Match
		standings []*models.Standing
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		event, err = s.eventRepo.GetByID(gCtx, nil, eventID)
		if errors.Is(err, repositories.ErrEventNotFound) {
			return ErrEventNotFound
		}
		return err
	})
	g.Go(func() error {
		var err error
		teams, err = s.teamRepo.ListByEvent(gCtx, nil, eventID)
		if err != nil {
			return err
		}
		return attachTeamMembers(gCtx, s.userRepo, teams)
	})
	g.Go(func() error {
		var err error
		matches, err = s.matchRepo.ListByEvent(gCtx, nil, eventID)
		return err
	})
	g.Go(func() error {
		var err error
		standings, err = s.standingRepo.ListByEvent(gCtx, nil, eventID, true)
		if err != nil {
			return err
		}
		return attachStandingUsers(gCtx, s.userRepo, standings)
	})

	if err := g.Wait(); err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load scoreboard for event %d: %w", eventID, err)
	}

	linkMatchTeams(matches, teams)
	return &models.Scoreboard{
		Event:       event,
		Teams:       teams,
		Matches:     matches,
		Standings:   standings,
		LastUpdated: s.now(),
	}, nil
}

func (s *bracketService) GetMatch(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to load match %d: %w", matchID, err)
	}

	teams := make([]*models.Team, 0, 2)
	for _, id := range []int{match.TeamAID, match.TeamBID} {
		team, err := s.teamRepo.GetByID(ctx, nil, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load team %d of match %d: %w", id, matchID, err)
		}
		teams = append(teams, team)
	}
	if err := attachTeamMembers(ctx, s.userRepo, teams); err != nil {
		return nil, err
	}
	linkMatchTeams([]*models.Match{match}, teams)
	return match, nil
}

func linkMatchTeams(matches []*models.Match, teams []*models.Team) {
	byID := make(map[int]*models.Team, len(teams))
	for _, t := range teams {
		byID[t.ID] = t
	}
	for _, m := range matches {
		m.TeamA = byID[m.TeamAID]
		m.TeamB = byID[m.TeamBID]
	}
}
