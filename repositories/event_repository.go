package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/boules-league/models"
)

var (
	ErrEventNotFound                = errors.New("event not found")
	ErrEventTeamsAlreadyGenerated   = errors.New("event teams already generated")
	ErrEventInvalidStatusTransition = errors.New("event status transition not allowed")
)

type EventRepository interface {
	Create(ctx context.Context, exec SQLExecutor, event *models.Event) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Event, error)
	// GetByIDForUpdate locks the event row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Event, error)
	List(ctx context.Context, exec SQLExecutor) ([]*models.Event, error)
	GetUpcoming(ctx context.Context, exec SQLExecutor, from time.Time) (*models.Event, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, from, to models.EventStatus) error
	// MarkTeamsGenerated flips teams_generated from false to true; a second call
	// returns ErrEventTeamsAlreadyGenerated.
	MarkTeamsGenerated(ctx context.Context, exec SQLExecutor, id int) error
	CompletePastEvents(ctx context.Context, exec SQLExecutor, before time.Time) (int64, error)
	Delete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) EventRepository {
	return &postgresEventRepository{db: db}
}

func (r *postgresEventRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const eventColumns = `e.id, e.event_date, e.event_type, e.location, e.start_time, e.status, e.entry_fee,
		e.min_players, e.teams_generated, e.allow_late_registrations, e.created_at`

const eventRegistrationCount = `(SELECT COUNT(*) FROM registrations reg WHERE reg.event_id = e.id)`

func (r *postgresEventRepository) Create(ctx context.Context, exec SQLExecutor, event *models.Event) error {
	query := `
		INSERT INTO events (event_date, event_type, location, start_time, status, entry_fee, min_players, allow_late_registrations)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, teams_generated, created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		event.EventDate,
		event.EventType,
		event.Location,
		event.StartTime,
		event.Status,
		event.EntryFee,
		event.MinPlayers,
		event.AllowLateRegistrations,
	).Scan(&event.ID, &event.TeamsGenerated, &event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

func scanEvent(row rowScanner, withCount bool) (*models.Event, error) {
	var e models.Event
	dest := []interface{}{
		&e.ID, &e.EventDate, &e.EventType, &e.Location, &e.StartTime, &e.Status, &e.EntryFee,
		&e.MinPlayers, &e.TeamsGenerated, &e.AllowLateRegistrations, &e.CreatedAt,
	}
	if withCount {
		dest = append(dest, &e.RegistrationCount)
	}
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *postgresEventRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Event, error) {
	query := `SELECT ` + eventColumns + `, ` + eventRegistrationCount + ` FROM events e WHERE e.id = $1`
	return scanEvent(r.getExecutor(exec).QueryRowContext(ctx, query, id), true)
}

func (r *postgresEventRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events e WHERE e.id = $1 FOR UPDATE`
	return scanEvent(r.getExecutor(exec).QueryRowContext(ctx, query, id), false)
}

func (r *postgresEventRepository) List(ctx context.Context, exec SQLExecutor) ([]*models.Event, error) {
	query := `SELECT ` + eventColumns + `, ` + eventRegistrationCount + ` FROM events e ORDER BY e.event_date DESC, e.id DESC`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := make([]*models.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows, true)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *postgresEventRepository) GetUpcoming(ctx context.Context, exec SQLExecutor, from time.Time) (*models.Event, error) {
	query := `SELECT ` + eventColumns + `, ` + eventRegistrationCount + `
		FROM events e
		WHERE e.event_date >= $1 AND e.status <> $2
		ORDER BY e.event_date ASC, e.id ASC
		LIMIT 1`
	return scanEvent(r.getExecutor(exec).QueryRowContext(ctx, query, from, models.EventStatusCompleted), true)
}

func (r *postgresEventRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, from, to models.EventStatus) error {
	result, err := r.getExecutor(exec).ExecContext(ctx,
		`UPDATE events SET status = $1 WHERE id = $2 AND status = $3`, to, id, from)
	if err != nil {
		return fmt.Errorf("failed to update event status: %w", err)
	}
	return checkAffectedRows(result, ErrEventInvalidStatusTransition)
}

func (r *postgresEventRepository) MarkTeamsGenerated(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := r.getExecutor(exec).ExecContext(ctx,
		`UPDATE events SET teams_generated = TRUE WHERE id = $1 AND teams_generated = FALSE`, id)
	if err != nil {
		return fmt.Errorf("failed to mark teams generated for event %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrEventTeamsAlreadyGenerated)
}

func (r *postgresEventRepository) CompletePastEvents(ctx context.Context, exec SQLExecutor, before time.Time) (int64, error) {
	result, err := r.getExecutor(exec).ExecContext(ctx,
		`UPDATE events SET status = $1 WHERE event_date < $2 AND status <> $1`, models.EventStatusCompleted, before)
	if err != nil {
		return 0, fmt.Errorf("failed to complete past events: %w", err)
	}
	return result.RowsAffected()
}

func (r *postgresEventRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return checkAffectedRows(result, ErrEventNotFound)
}
