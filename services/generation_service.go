package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/boules-league/brackets"
	"github.com/Dosada05/boules-league/metrics"
	"github.com/Dosada05/boules-league/models"
	"github.com/Dosada05/boules-league/repositories"
)

const (
	triggerAuto  = "auto"
	triggerAdmin = "admin"
)

// GenerationPolicy says which callers may start pairing.
type GenerationPolicy struct {
	AutoEnabled   bool
	ManualEnabled bool
}

type GenerationResult struct {
	EventID   int             `json:"event_id"`
	Generated bool            `json:"generated"`
	Teams     []*models.Team  `json:"teams,omitempty"`
	Matches   []*models.Match `json:"matches,omitempty"`
}

type GenerationService interface {
	// MaybeGenerateBracket pairs the event once its pool reaches the event's
	// threshold. Below the threshold, or after generation, it does nothing.
	MaybeGenerateBracket(ctx context.Context, eventID int) (*GenerationResult, error)
	// GenerateTeamsAndBracket is the admin trigger. Unlike the automatic path it
	// reports why nothing was generated.
	GenerateTeamsAndBracket(ctx context.Context, eventID int) (*GenerationResult, error)
	AutoGenerationEnabled() bool
}

type generationService struct {
	tx               repositories.Transactor
	eventRepo        repositories.EventRepository
	registrationRepo repositories.RegistrationRepository
	teamService      TeamService
	bracketService   BracketService
	policy           GenerationPolicy
	notifier         EventNotifier
	logger           *slog.Logger
}

func NewGenerationService(
	tx repositories.Transactor,
	eventRepo repositories.EventRepository,
	registrationRepo repositories.RegistrationRepository,
	teamService TeamService,
	bracketService BracketService,
	policy GenerationPolicy,
	notifier EventNotifier,
	logger *slog.Logger,
) GenerationService {
	return &generationService{
		tx:               tx,
		eventRepo:        eventRepo,
		registrationRepo: registrationRepo,
		teamService:      teamService,
		bracketService:   bracketService,
		policy:           policy,
		notifier:         notifierOrNoop(notifier),
		logger:           logger,
	}
}

func (s *generationService) AutoGenerationEnabled() bool {
	return s.policy.AutoEnabled
}

func (s *generationService) MaybeGenerateBracket(ctx context.Context, eventID int) (*GenerationResult, error) {
	if !s.policy.AutoEnabled {
		return &GenerationResult{EventID: eventID}, nil
	}
	result, err := s.generate(ctx, eventID, triggerAuto)
	if errors.Is(err, ErrInsufficientPlayers) || errors.Is(err, ErrAlreadyGenerated) {
		return &GenerationResult{EventID: eventID}, nil
	}
	return result, err
}

func (s *generationService) GenerateTeamsAndBracket(ctx context.Context, eventID int) (*GenerationResult, error) {
	if !s.policy.ManualEnabled {
		return nil, ErrManualGenerationDisabled
	}
	return s.generate(ctx, eventID, triggerAdmin)
}

func (s *generationService) generate(ctx context.Context, eventID int, trigger string) (*GenerationResult, error) {
	result := &GenerationResult{EventID: eventID}

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		// Строка события блокируется до конца транзакции: параллельные
		// регистрации проверяют флаг по очереди.
		event, err := s.eventRepo.GetByIDForUpdate(ctx, exec, eventID)
		if err != nil {
			if errors.Is(err, repositories.ErrEventNotFound) {
				return ErrEventNotFound
			}
			return fmt.Errorf("failed to lock event %d: %w", eventID, err)
		}
		if event.TeamsGenerated {
			return ErrAlreadyGenerated
		}

		pool, err := s.registrationRepo.ListByEvent(ctx, exec, eventID)
		if err != nil {
			return fmt.Errorf("failed to load registrations for event %d: %w", eventID, err)
		}
		if len(pool) < event.MinPlayers {
			return fmt.Errorf("%w: need %d more players", ErrInsufficientPlayers, event.MinPlayers-len(pool))
		}

		teams, err := s.teamService.PairTeams(ctx, exec, eventID, pool)
		if err != nil {
			return err
		}
		matches, err := s.bracketService.GenerateBracket(ctx, exec, eventID, teams)
		if err != nil {
			return err
		}
		if err := s.eventRepo.MarkTeamsGenerated(ctx, exec, eventID); err != nil {
			if errors.Is(err, repositories.ErrEventTeamsAlreadyGenerated) {
				return ErrAlreadyGenerated
			}
			return fmt.Errorf("failed to mark teams generated for event %d: %w", eventID, err)
		}

		result.Generated = true
		result.Teams = teams
		result.Matches = matches
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.Generations.WithLabelValues(trigger).Inc()
	s.logger.Info("teams and bracket generated",
		slog.Int("event_id", eventID),
		slog.String("trigger", trigger),
		slog.Int("teams", len(result.Teams)),
		slog.Int("matches", len(result.Matches)),
	)
	s.notifier.NotifyEvent(eventID, brackets.MessageBracketGenerated, result)
	return result, nil
}
