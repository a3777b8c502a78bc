package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/boules-league/metrics"
	"github.com/Dosada05/boules-league/models"
	"github.com/Dosada05/boules-league/repositories"
	"github.com/google/uuid"
)

type RegistrationService interface {
	// Register signs an approved user up for an event and, when automatic
	// generation is on, gives the trigger policy a chance to pair the pool.
	Register(ctx context.Context, userID, eventID int, phone string) (*models.Registration, error)
	Unregister(ctx context.Context, userID, eventID int) error
	ListByEvent(ctx context.Context, eventID int) ([]*models.Registration, error)
	// ListMine returns the user's registrations, newest first, each with its event.
	ListMine(ctx context.Context, userID int) ([]*models.Registration, error)
	VerifyCheckIn(ctx context.Context, code string) (*models.Registration, error)
	CheckIn(ctx context.Context, code string) (*models.Registration, error)
}

type registrationService struct {
	tx                repositories.Transactor
	registrationRepo  repositories.RegistrationRepository
	eventRepo         repositories.EventRepository
	userRepo          repositories.UserRepository
	generationService GenerationService
	logger            *slog.Logger
	now               func() time.Time
}

func NewRegistrationService(
	tx repositories.Transactor,
	registrationRepo repositories.RegistrationRepository,
	eventRepo repositories.EventRepository,
	userRepo repositories.UserRepository,
	generationService GenerationService,
	logger *slog.Logger,
) RegistrationService {
	return &registrationService{
		tx:                tx,
		registrationRepo:  registrationRepo,
		eventRepo:         eventRepo,
		userRepo:          userRepo,
		generationService: generationService,
		logger:            logger,
		now:               time.Now,
	}
}

func registrationOpen(event *models.Event) bool {
	switch event.Status {
	case models.EventStatusOpen:
		return !event.TeamsGenerated || event.AllowLateRegistrations
	case models.EventStatusConfirmed:
		return event.AllowLateRegistrations
	}
	return false
}

func (s *registrationService) Register(ctx context.Context, userID, eventID int, phone string) (*models.Registration, error) {
	user, err := s.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	if user.Status != models.UserStatusApproved {
		return nil, ErrUserNotApproved
	}

	reg := &models.Registration{
		EventID:       eventID,
		UserID:        userID,
		PhoneNumber:   strings.TrimSpace(phone),
		PaymentStatus: models.PaymentStatusPending,
		CheckInCode:   uuid.NewString(),
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		event, err := s.eventRepo.GetByIDForUpdate(ctx, exec, eventID)
		if err != nil {
			if errors.Is(err, repositories.ErrEventNotFound) {
				return ErrEventNotFound
			}
			return fmt.Errorf("failed to lock event %d: %w", eventID, err)
		}
		if !registrationOpen(event) {
			return ErrRegistrationClosed
		}

		if err := s.registrationRepo.Create(ctx, exec, reg); err != nil {
			switch {
			case errors.Is(err, repositories.ErrRegistrationConflict):
				return ErrRegistrationConflict
			case errors.Is(err, repositories.ErrRegistrationEventInvalid):
				return ErrEventNotFound
			case errors.Is(err, repositories.ErrRegistrationUserInvalid):
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to create registration: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.Registrations.Inc()
	s.logger.Info("user registered for event", slog.Int("user_id", userID), slog.Int("event_id", eventID))

	if s.generationService != nil && s.generationService.AutoGenerationEnabled() {
		if _, genErr := s.generationService.MaybeGenerateBracket(ctx, eventID); genErr != nil {
			s.logger.Error("automatic team generation failed",
				slog.Int("event_id", eventID),
				slog.Any("error", genErr),
			)
		}
	}
	return reg, nil
}

func (s *registrationService) Unregister(ctx context.Context, userID, eventID int) error {
	return s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		event, err := s.eventRepo.GetByIDForUpdate(ctx, exec, eventID)
		if err != nil {
			if errors.Is(err, repositories.ErrEventNotFound) {
				return ErrEventNotFound
			}
			return fmt.Errorf("failed to lock event %d: %w", eventID, err)
		}
		if event.TeamsGenerated {
			return fmt.Errorf("%w: teams are already generated", ErrRegistrationClosed)
		}

		reg, err := s.registrationRepo.GetByUserAndEvent(ctx, exec, userID, eventID)
		if err != nil {
			if errors.Is(err, repositories.ErrRegistrationNotFound) {
				return ErrRegistrationNotFound
			}
			return err
		}
		if err := s.registrationRepo.Delete(ctx, exec, reg.ID); err != nil {
			return fmt.Errorf("failed to delete registration %d: %w", reg.ID, err)
		}
		s.logger.Info("user unregistered from event", slog.Int("user_id", userID), slog.Int("event_id", eventID))
		return nil
	})
}

func (s *registrationService) ListByEvent(ctx context.Context, eventID int) ([]*models.Registration, error) {
	if _, err := s.eventRepo.GetByID(ctx, nil, eventID); err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	regs, err := s.registrationRepo.ListByEvent(ctx, nil, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations for event %d: %w", eventID, err)
	}

	ids := make([]int, 0, len(regs))
	for _, reg := range regs {
		ids = append(ids, reg.UserID)
	}
	users, err := s.userRepo.ListByIDs(ctx, nil, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load registered users: %w", err)
	}
	byID := make(map[int]*models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for _, reg := range regs {
		reg.User = byID[reg.UserID]
	}
	return regs, nil
}

func (s *registrationService) ListMine(ctx context.Context, userID int) ([]*models.Registration, error) {
	regs, err := s.registrationRepo.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations for user %d: %w", userID, err)
	}

	events := make(map[int]*models.Event)
	for _, reg := range regs {
		event, ok := events[reg.EventID]
		if !ok {
			if event, err = s.eventRepo.GetByID(ctx, nil, reg.EventID); err != nil {
				return nil, fmt.Errorf("failed to load event %d: %w", reg.EventID, err)
			}
			events[reg.EventID] = event
		}
		reg.Event = event
	}
	return regs, nil
}

func (s *registrationService) VerifyCheckIn(ctx context.Context, code string) (*models.Registration, error) {
	code = strings.TrimSpace(code)
	if _, err := uuid.Parse(code); err != nil {
		return nil, ErrRegistrationNotFound
	}
	reg, err := s.registrationRepo.GetByCheckInCode(ctx, nil, code)
	if err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}
	if reg.User, err = s.userRepo.GetByID(ctx, nil, reg.UserID); err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", reg.UserID, err)
	}
	if reg.Event, err = s.eventRepo.GetByID(ctx, nil, reg.EventID); err != nil {
		return nil, fmt.Errorf("failed to load event %d: %w", reg.EventID, err)
	}
	return reg, nil
}

func (s *registrationService) CheckIn(ctx context.Context, code string) (*models.Registration, error) {
	reg, err := s.VerifyCheckIn(ctx, code)
	if err != nil {
		return nil, err
	}
	if reg.CheckedInAt != nil {
		return reg, nil
	}
	now := s.now()
	if err := s.registrationRepo.MarkCheckedIn(ctx, nil, reg.ID, now); err != nil {
		return nil, fmt.Errorf("failed to check in registration %d: %w", reg.ID, err)
	}
	reg.CheckedInAt = &now
	s.logger.Info("player checked in", slog.Int("registration_id", reg.ID), slog.Int("event_id", reg.EventID))
	return reg, nil
}
