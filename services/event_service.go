package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/boules-league/models"
	"github.com/Dosada05/boules-league/repositories"
	"golang.org/x/sync/errgroup"
)

const (
	eventDateLayout = "2006-01-02"
	defaultEntryFee = 50
)

type CreateEventInput struct {
	EventDate              string `json:"event_date"`
	EventType              string `json:"event_type"`
	Location               string `json:"location"`
	StartTime              string `json:"start_time"`
	EntryFee               *int   `json:"entry_fee"`
	MinPlayers             *int   `json:"min_players"`
	AllowLateRegistrations bool   `json:"allow_late_registrations"`
}

type EventService interface {
	CreateEvent(ctx context.Context, input CreateEventInput) (*models.Event, error)
	ListEvents(ctx context.Context) ([]*models.Event, error)
	GetUpcomingEvent(ctx context.Context) (*models.Event, error)
	// GetEventDetails returns the event with its teams and matches; UserTeamID
	// is set when userID plays on one of the teams.
	GetEventDetails(ctx context.Context, eventID, userID int) (*models.EventDetails, error)
	UpdateEventStatus(ctx context.Context, eventID int, status models.EventStatus) (*models.Event, error)
	DeleteEvent(ctx context.Context, eventID int) error
	// CompletePastEvents closes every event dated before today.
	CompletePastEvents(ctx context.Context) (int64, error)
}

type eventService struct {
	tx                repositories.Transactor
	eventRepo         repositories.EventRepository
	teamRepo          repositories.TeamRepository
	matchRepo         repositories.MatchRepository
	userRepo          repositories.UserRepository
	defaultMinPlayers int
	logger            *slog.Logger
	now               func() time.Time
}

func NewEventService(
	tx repositories.Transactor,
	eventRepo repositories.EventRepository,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	userRepo repositories.UserRepository,
	defaultMinPlayers int,
	logger *slog.Logger,
) EventService {
	return &eventService{
		tx:                tx,
		eventRepo:         eventRepo,
		teamRepo:          teamRepo,
		matchRepo:         matchRepo,
		userRepo:          userRepo,
		defaultMinPlayers: defaultMinPlayers,
		logger:            logger,
		now:               time.Now,
	}
}

func (s *eventService) today() time.Time {
	y, m, d := s.now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *eventService) CreateEvent(ctx context.Context, input CreateEventInput) (*models.Event, error) {
	date, err := time.Parse(eventDateLayout, strings.TrimSpace(input.EventDate))
	if err != nil {
		return nil, fmt.Errorf("%w: event_date must be YYYY-MM-DD", ErrValidationFailed)
	}
	location := strings.TrimSpace(input.Location)
	if location == "" {
		return nil, fmt.Errorf("%w: location is required", ErrValidationFailed)
	}

	event := &models.Event{
		EventDate:              date,
		EventType:              strings.TrimSpace(input.EventType),
		Location:               location,
		StartTime:              strings.TrimSpace(input.StartTime),
		Status:                 models.EventStatusOpen,
		EntryFee:               defaultEntryFee,
		MinPlayers:             s.defaultMinPlayers,
		AllowLateRegistrations: input.AllowLateRegistrations,
	}
	if input.EntryFee != nil {
		if *input.EntryFee < 0 {
			return nil, fmt.Errorf("%w: entry_fee cannot be negative", ErrValidationFailed)
		}
		event.EntryFee = *input.EntryFee
	}
	if input.MinPlayers != nil {
		if *input.MinPlayers < 2 {
			return nil, fmt.Errorf("%w: min_players must be at least 2", ErrValidationFailed)
		}
		event.MinPlayers = *input.MinPlayers
	}

	if err := s.eventRepo.Create(ctx, nil, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	s.logger.Info("event created",
		slog.Int("event_id", event.ID),
		slog.String("date", event.EventDate.Format(eventDateLayout)),
		slog.Int("min_players", event.MinPlayers),
	)
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context) ([]*models.Event, error) {
	events, err := s.eventRepo.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

func (s *eventService) GetUpcomingEvent(ctx context.Context) (*models.Event, error) {
	event, err := s.eventRepo.GetUpcoming(ctx, nil, s.today())
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get upcoming event: %w", err)
	}
	return event, nil
}

func (s *eventService) GetEventDetails(ctx context.Context, eventID, userID int) (*models.EventDetails, error) {
	details := &models.EventDetails{}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		event, err := s.eventRepo.GetByID(gCtx, nil, eventID)
		if errors.Is(err, repositories.ErrEventNotFound) {
			return ErrEventNotFound
		}
		details.Event = event
		return err
	})
	g.Go(func() error {
		teams, err := s.teamRepo.ListByEvent(gCtx, nil, eventID)
		if err != nil {
			return err
		}
		details.Teams = teams
		return attachTeamMembers(gCtx, s.userRepo, teams)
	})
	g.Go(func() error {
		matches, err := s.matchRepo.ListByEvent(gCtx, nil, eventID)
		details.Matches = matches
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load event %d: %w", eventID, err)
	}

	for _, t := range details.Teams {
		if t.HasMember(userID) {
			id := t.ID
			details.UserTeamID = &id
			break
		}
	}
	linkMatchTeams(details.Matches, details.Teams)
	return details, nil
}

func (s *eventService) UpdateEventStatus(ctx context.Context, eventID int, status models.EventStatus) (*models.Event, error) {
	if !isValidEventStatus(status) {
		return nil, ErrEventInvalidStatus
	}

	var event *models.Event
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		event, err = s.eventRepo.GetByIDForUpdate(ctx, exec, eventID)
		if err != nil {
			if errors.Is(err, repositories.ErrEventNotFound) {
				return ErrEventNotFound
			}
			return err
		}
		if !isValidEventStatusTransition(event.Status, status) {
			return fmt.Errorf("%w: %s -> %s", ErrEventInvalidStatusChange, event.Status, status)
		}
		if err := s.eventRepo.UpdateStatus(ctx, exec, eventID, event.Status, status); err != nil {
			if errors.Is(err, repositories.ErrEventInvalidStatusTransition) {
				return ErrEventInvalidStatusChange
			}
			return err
		}
		event.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("event status updated", slog.Int("event_id", eventID), slog.String("status", string(status)))
	return event, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, eventID int) error {
	if err := s.eventRepo.Delete(ctx, nil, eventID); err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return ErrEventNotFound
		}
		return fmt.Errorf("failed to delete event %d: %w", eventID, err)
	}
	s.logger.Info("event deleted", slog.Int("event_id", eventID))
	return nil
}

func (s *eventService) CompletePastEvents(ctx context.Context) (int64, error) {
	n, err := s.eventRepo.CompletePastEvents(ctx, nil, s.today())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("past events completed", slog.Int64("count", n))
	}
	return n, nil
}
