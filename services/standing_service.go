package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Dosada05/boules-league/models"
	"github.com/Dosada05/boules-league/repositories"
)

type StandingService interface {
	// ApplyStandingUpdates adds one locked match to the ledger. It must run in
	// the same transaction as the lock so the match is counted exactly once.
	ApplyStandingUpdates(ctx context.Context, exec repositories.SQLExecutor, eventID int, teamAPlayers, teamBPlayers []int, scoreA, scoreB int) error
	ListByEvent(ctx context.Context, eventID int) ([]*models.Standing, error)
}

type standingService struct {
	standingRepo repositories.StandingRepository
	userRepo     repositories.UserRepository
	logger       *slog.Logger
}

func NewStandingService(standingRepo repositories.StandingRepository, userRepo repositories.UserRepository, logger *slog.Logger) StandingService {
	return &standingService{
		standingRepo: standingRepo,
		userRepo:     userRepo,
		logger:       logger,
	}
}

// ComputeStandingDeltas derives every player's increment from one snapshot of
// the ledger taken before any write. Each player's strength of schedule grows
// by the opponents' wins in that snapshot, so a teammate or opponent updated
// earlier in the same pass never leaks into another player's delta.
// A user listed on both sides is only counted for team A.
func ComputeStandingDeltas(snapshot map[int]*models.Standing, teamA, teamB []int, scoreA, scoreB int) []models.StandingDelta {
	teamA = distinctIDs(teamA)
	inA := newParticipantSet(teamA)
	sideB := make([]int, 0, len(teamB))
	for _, id := range distinctIDs(teamB) {
		if !inA.Has(id) {
			sideB = append(sideB, id)
		}
	}

	winsOf := func(players []int) int {
		total := 0
		for _, id := range players {
			if st, ok := snapshot[id]; ok {
				total += st.Wins
			}
		}
		return total
	}
	sosForA, sosForB := winsOf(sideB), winsOf(teamA)

	winA, winB := 0, 0
	switch {
	case scoreA > scoreB:
		winA = 1
	case scoreB > scoreA:
		winB = 1
	}

	deltas := make([]models.StandingDelta, 0, len(teamA)+len(sideB))
	for _, id := range teamA {
		deltas = append(deltas, models.StandingDelta{UserID: id, Wins: winA, Points: scoreA - scoreB, SOS: sosForA})
	}
	for _, id := range sideB {
		deltas = append(deltas, models.StandingDelta{UserID: id, Wins: winB, Points: scoreB - scoreA, SOS: sosForB})
	}
	return deltas
}

func (s *standingService) ApplyStandingUpdates(ctx context.Context, exec repositories.SQLExecutor, eventID int, teamAPlayers, teamBPlayers []int, scoreA, scoreB int) error {
	players := distinctIDs(append(append([]int{}, teamAPlayers...), teamBPlayers...))

	// Read phase: ensure every row exists and capture the snapshot.
	snapshot := make(map[int]*models.Standing, len(players))
	for _, userID := range players {
		st, err := s.standingRepo.GetOrCreate(ctx, exec, eventID, userID)
		if err != nil {
			return fmt.Errorf("failed to load standing for user %d in event %d: %w", userID, eventID, err)
		}
		snapshot[userID] = st
	}

	// Write phase.
	for _, delta := range ComputeStandingDeltas(snapshot, teamAPlayers, teamBPlayers, scoreA, scoreB) {
		if err := s.standingRepo.ApplyDelta(ctx, exec, snapshot[delta.UserID].ID, delta); err != nil {
			return fmt.Errorf("failed to update standing for user %d in event %d: %w", delta.UserID, eventID, err)
		}
	}

	s.logger.Debug("standings updated",
		slog.Int("event_id", eventID),
		slog.Int("players", len(players)),
		slog.Int("score_a", scoreA),
		slog.Int("score_b", scoreB),
	)
	return nil
}

func (s *standingService) ListByEvent(ctx context.Context, eventID int) ([]*models.Standing, error) {
	standings, err := s.standingRepo.ListByEvent(ctx, nil, eventID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list standings for event %d: %w", eventID, err)
	}
	if err := attachStandingUsers(ctx, s.userRepo, standings); err != nil {
		return nil, err
	}
	return standings, nil
}

func attachStandingUsers(ctx context.Context, userRepo repositories.UserRepository, standings []*models.Standing) error {
	ids := make([]int, 0, len(standings))
	for _, st := range standings {
		ids = append(ids, st.UserID)
	}
	users, err := userRepo.ListByIDs(ctx, nil, ids)
	if err != nil {
		return fmt.Errorf("failed to load standing users: %w", err)
	}
	byID := make(map[int]*models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for _, st := range standings {
		st.User = byID[st.UserID]
	}
	return nil
}
