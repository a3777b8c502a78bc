package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/boules-league/brackets"
	"github.com/Dosada05/boules-league/metrics"
	"github.com/Dosada05/boules-league/models"
	"github.com/Dosada05/boules-league/repositories"
)

type ResultOutcome string

const (
	OutcomePending  ResultOutcome = "pending"
	OutcomeLocked   ResultOutcome = "locked"
	OutcomeDisputed ResultOutcome = "disputed"
)

type SubmitResultOutcome struct {
	Outcome ResultOutcome `json:"status"`
	Match   *models.Match `json:"match"`
	// Submitted counts participants who have reported, out of Required.
	Submitted int `json:"submitted"`
	Required  int `json:"required"`
}

type ResultService interface {
	// SubmitResult records the user's report for a match and locks the match
	// once every participant has reported the same score.
	SubmitResult(ctx context.Context, matchID, userID, scoreA, scoreB int) (*SubmitResultOutcome, error)
	// SetMatchStatus lets an admin move an open match between pending and ongoing.
	SetMatchStatus(ctx context.Context, matchID int, status models.MatchStatus) (*models.Match, error)
}

type resultService struct {
	tx               repositories.Transactor
	matchRepo        repositories.MatchRepository
	teamRepo         repositories.TeamRepository
	confirmationRepo repositories.ConfirmationRepository
	standingService  StandingService
	notifier         EventNotifier
	logger           *slog.Logger
	now              func() time.Time
}

func NewResultService(
	tx repositories.Transactor,
	matchRepo repositories.MatchRepository,
	teamRepo repositories.TeamRepository,
	confirmationRepo repositories.ConfirmationRepository,
	standingService StandingService,
	notifier EventNotifier,
	logger *slog.Logger,
) ResultService {
	return &resultService{
		tx:               tx,
		matchRepo:        matchRepo,
		teamRepo:         teamRepo,
		confirmationRepo: confirmationRepo,
		standingService:  standingService,
		notifier:         notifierOrNoop(notifier),
		logger:           logger,
		now:              time.Now,
	}
}

func (s *resultService) SubmitResult(ctx context.Context, matchID, userID, scoreA, scoreB int) (*SubmitResultOutcome, error) {
	if scoreA < 0 || scoreB < 0 {
		return nil, ErrInvalidScore
	}

	out := &SubmitResultOutcome{}
	var lockedNow bool

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		match, err := s.matchRepo.GetByIDForUpdate(ctx, exec, matchID)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return ErrMatchNotFound
			}
			return fmt.Errorf("failed to lock match %d: %w", matchID, err)
		}

		teamA, err := s.teamRepo.GetByID(ctx, exec, match.TeamAID)
		if err != nil {
			return fmt.Errorf("failed to load team %d of match %d: %w", match.TeamAID, matchID, err)
		}
		teamB, err := s.teamRepo.GetByID(ctx, exec, match.TeamBID)
		if err != nil {
			return fmt.Errorf("failed to load team %d of match %d: %w", match.TeamBID, matchID, err)
		}

		participants := newParticipantSet(teamA.MemberUserIDs, teamB.MemberUserIDs)
		if !participants.Has(userID) {
			return ErrNotParticipant
		}
		out.Required = len(participants)

		wasLocked := match.IsLocked()
		if !wasLocked {
			conf := &models.ResultConfirmation{
				MatchID: matchID,
				UserID:  userID,
				ScoreA:  scoreA,
				ScoreB:  scoreB,
				Status:  models.ConfirmationSubmitted,
			}
			if err := s.confirmationRepo.Upsert(ctx, exec, conf); err != nil {
				return fmt.Errorf("failed to save result for match %d: %w", matchID, err)
			}
		}

		all, err := s.confirmationRepo.ListByMatch(ctx, exec, matchID)
		if err != nil {
			return fmt.Errorf("failed to load results for match %d: %w", matchID, err)
		}
		confirmations := make([]*models.ResultConfirmation, 0, len(all))
		for _, c := range all {
			if participants.Has(c.UserID) {
				confirmations = append(confirmations, c)
			}
		}
		out.Submitted = len(confirmations)
		out.Match = match

		if len(confirmations) < len(participants) {
			out.Outcome = OutcomePending
			return nil
		}

		first := confirmations[0]
		for _, c := range confirmations[1:] {
			if !c.SameScore(first) {
				if err := s.confirmationRepo.UpdateStatusByMatch(ctx, exec, matchID, models.ConfirmationDisputed); err != nil {
					return fmt.Errorf("failed to mark results of match %d disputed: %w", matchID, err)
				}
				out.Outcome = OutcomeDisputed
				return nil
			}
		}

		if !wasLocked {
			winner := winnerTeamID(match, first.ScoreA, first.ScoreB)
			err := s.matchRepo.Lock(ctx, exec, matchID, first.ScoreA, first.ScoreB, winner, s.now())
			switch {
			case err == nil:
				if err := s.standingService.ApplyStandingUpdates(ctx, exec, match.EventID,
					teamA.MemberUserIDs, teamB.MemberUserIDs, first.ScoreA, first.ScoreB); err != nil {
					return err
				}
				lockedNow = true
			case errors.Is(err, repositories.ErrMatchAlreadyLocked):
				// Уже зафиксирован: очки повторно не начисляются.
			default:
				return fmt.Errorf("failed to lock match %d: %w", matchID, err)
			}
		}

		if err := s.confirmationRepo.UpdateStatusByMatch(ctx, exec, matchID, models.ConfirmationConfirmed); err != nil {
			return fmt.Errorf("failed to confirm results of match %d: %w", matchID, err)
		}
		if out.Match, err = s.matchRepo.GetByID(ctx, exec, matchID); err != nil {
			return fmt.Errorf("failed to reload match %d: %w", matchID, err)
		}
		out.Outcome = OutcomeLocked
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ResultSubmissions.WithLabelValues(string(out.Outcome)).Inc()
	s.logger.Info("match result submitted",
		slog.Int("match_id", matchID),
		slog.Int("user_id", userID),
		slog.String("outcome", string(out.Outcome)),
		slog.Int("submitted", out.Submitted),
		slog.Int("required", out.Required),
	)

	switch {
	case lockedNow:
		s.notifier.NotifyEvent(out.Match.EventID, brackets.MessageMatchLocked, out.Match)
	case out.Outcome == OutcomeDisputed:
		s.notifier.NotifyEvent(out.Match.EventID, brackets.MessageMatchDisputed, out.Match)
	}
	return out, nil
}

func (s *resultService) SetMatchStatus(ctx context.Context, matchID int, status models.MatchStatus) (*models.Match, error) {
	if status != models.MatchStatusPending && status != models.MatchStatusOngoing {
		return nil, ErrMatchStatusNotSettable
	}

	var match *models.Match
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		match, err = s.matchRepo.GetByIDForUpdate(ctx, exec, matchID)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return ErrMatchNotFound
			}
			return fmt.Errorf("failed to lock match %d: %w", matchID, err)
		}
		if match.Status == models.MatchStatusLocked || match.Status == models.MatchStatusDisputed {
			return ErrMatchStatusNotSettable
		}
		if err := s.matchRepo.UpdateStatus(ctx, exec, matchID, status); err != nil {
			return fmt.Errorf("failed to update status of match %d: %w", matchID, err)
		}
		match.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}
	return match, nil
}
