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
	ErrRegistrationNotFound     = errors.New("registration not found")
	ErrRegistrationConflict     = errors.New("registration conflict: user already registered for this event")
	ErrRegistrationEventInvalid = errors.New("registration event conflict or invalid")
	ErrRegistrationUserInvalid  = errors.New("registration user conflict or invalid")
)

type RegistrationRepository interface {
	Create(ctx context.Context, exec SQLExecutor, reg *models.Registration) error
	GetByUserAndEvent(ctx context.Context, exec SQLExecutor, userID, eventID int) (*models.Registration, error)
	GetByCheckInCode(ctx context.Context, exec SQLExecutor, code string) (*models.Registration, error)
	// ListByEvent returns the event's player pool in registration order.
	ListByEvent(ctx context.Context, exec SQLExecutor, eventID int) ([]*models.Registration, error)
	// ListByUser returns the user's registrations, newest first.
	ListByUser(ctx context.Context, exec SQLExecutor, userID int) ([]*models.Registration, error)
	CountByEvent(ctx context.Context, exec SQLExecutor, eventID int) (int, error)
	MarkCheckedIn(ctx context.Context, exec SQLExecutor, id int, at time.Time) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresRegistrationRepository struct {
	db *sql.DB
}

func NewPostgresRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: db}
}

func (r *postgresRegistrationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const registrationColumns = `id, event_id, user_id, phone_number, payment_status, check_in_code, checked_in_at, created_at`

func (r *postgresRegistrationRepository) Create(ctx context.Context, exec SQLExecutor, reg *models.Registration) error {
	query := `
		INSERT INTO registrations (event_id, user_id, phone_number, payment_status, check_in_code)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		reg.EventID,
		reg.UserID,
		reg.PhoneNumber,
		reg.PaymentStatus,
		reg.CheckInCode,
	).Scan(&reg.ID, &reg.CreatedAt)
	if err != nil {
		if constraint, ok := pqConstraint(err, pgUniqueViolation); ok && constraint == "registrations_event_id_user_id_key" {
			return ErrRegistrationConflict
		}
		if constraint, ok := pqConstraint(err, pgForeignKeyViolation); ok {
			switch constraint {
			case "registrations_event_id_fkey":
				return ErrRegistrationEventInvalid
			case "registrations_user_id_fkey":
				return ErrRegistrationUserInvalid
			}
		}
		return fmt.Errorf("failed to create registration: %w", err)
	}
	return nil
}

func (r *postgresRegistrationRepository) scanRegistration(row rowScanner) (*models.Registration, error) {
	var reg models.Registration
	err := row.Scan(
		&reg.ID,
		&reg.EventID,
		&reg.UserID,
		&reg.PhoneNumber,
		&reg.PaymentStatus,
		&reg.CheckInCode,
		&reg.CheckedInAt,
		&reg.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}
	return &reg, nil
}

func (r *postgresRegistrationRepository) GetByUserAndEvent(ctx context.Context, exec SQLExecutor, userID, eventID int) (*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE user_id = $1 AND event_id = $2`
	return r.scanRegistration(r.getExecutor(exec).QueryRowContext(ctx, query, userID, eventID))
}

func (r *postgresRegistrationRepository) GetByCheckInCode(ctx context.Context, exec SQLExecutor, code string) (*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE check_in_code = $1`
	return r.scanRegistration(r.getExecutor(exec).QueryRowContext(ctx, query, code))
}

func (r *postgresRegistrationRepository) ListByEvent(ctx context.Context, exec SQLExecutor, eventID int) ([]*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE event_id = $1 ORDER BY created_at ASC, id ASC`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations for event %d: %w", eventID, err)
	}
	return r.scanRegistrations(rows)
}

func (r *postgresRegistrationRepository) ListByUser(ctx context.Context, exec SQLExecutor, userID int) ([]*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations for user %d: %w", userID, err)
	}
	return r.scanRegistrations(rows)
}

func (r *postgresRegistrationRepository) scanRegistrations(rows *sql.Rows) ([]*models.Registration, error) {
	defer rows.Close()

	regs := make([]*models.Registration, 0)
	for rows.Next() {
		reg, err := r.scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return regs, nil
}

func (r *postgresRegistrationRepository) CountByEvent(ctx context.Context, exec SQLExecutor, eventID int) (int, error) {
	var count int
	err := r.getExecutor(exec).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1`, eventID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count registrations for event %d: %w", eventID, err)
	}
	return count, nil
}

func (r *postgresRegistrationRepository) MarkCheckedIn(ctx context.Context, exec SQLExecutor, id int, at time.Time) error {
	// Already checked-in rows are left untouched so the first timestamp wins.
	_, err := r.getExecutor(exec).ExecContext(ctx,
		`UPDATE registrations SET checked_in_at = $1 WHERE id = $2 AND checked_in_at IS NULL`, at, id)
	if err != nil {
		return fmt.Errorf("failed to check in registration %d: %w", id, err)
	}
	return nil
}

func (r *postgresRegistrationRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM registrations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete registration: %w", err)
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}
