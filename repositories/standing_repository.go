package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/boules-league/models"
)

var (
	ErrStandingNotFound     = errors.New("standing not found")
	ErrStandingEventInvalid = errors.New("standing event or user conflict or invalid")
)

type StandingRepository interface {
	GetByEventAndUser(ctx context.Context, exec SQLExecutor, eventID, userID int) (*models.Standing, error)
	GetOrCreate(ctx context.Context, exec SQLExecutor, eventID, userID int) (*models.Standing, error)
	ListByEvent(ctx context.Context, exec SQLExecutor, eventID int, sortByRank bool) ([]*models.Standing, error)
	ListByEventAndUsers(ctx context.Context, exec SQLExecutor, eventID int, userIDs []int) ([]*models.Standing, error)
	// ApplyDelta increments the stored totals; it never overwrites them.
	ApplyDelta(ctx context.Context, exec SQLExecutor, id int, delta models.StandingDelta) error
}

type postgresStandingRepository struct {
	db *sql.DB // Main DB connection, used if exec is nil
}

func NewPostgresStandingRepository(db *sql.DB) StandingRepository {
	return &postgresStandingRepository{db: db}
}

func (r *postgresStandingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const standingColumns = `id, event_id, user_id, wins, points, sos, updated_at`

func (r *postgresStandingRepository) scanStanding(row rowScanner) (*models.Standing, error) {
	var s models.Standing
	err := row.Scan(&s.ID, &s.EventID, &s.UserID, &s.Wins, &s.Points, &s.SOS, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStandingNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *postgresStandingRepository) GetByEventAndUser(ctx context.Context, exec SQLExecutor, eventID, userID int) (*models.Standing, error) {
	query := `SELECT ` + standingColumns + ` FROM standings WHERE event_id = $1 AND user_id = $2`
	return r.scanStanding(r.getExecutor(exec).QueryRowContext(ctx, query, eventID, userID))
}

func (r *postgresStandingRepository) GetOrCreate(ctx context.Context, exec SQLExecutor, eventID, userID int) (*models.Standing, error) {
	executor := r.getExecutor(exec)
	standing, err := r.GetByEventAndUser(ctx, executor, eventID, userID)
	if err == nil {
		return standing, nil
	}
	if !errors.Is(err, ErrStandingNotFound) {
		return nil, fmt.Errorf("failed to get standing for e:%d u:%d: %w", eventID, userID, err)
	}

	// A concurrent pass may have inserted the row first; DO NOTHING keeps both callers happy.
	_, err = executor.ExecContext(ctx, `
		INSERT INTO standings (event_id, user_id, wins, points, sos)
		VALUES ($1, $2, 0, 0, 0)
		ON CONFLICT (event_id, user_id) DO NOTHING`, eventID, userID)
	if err != nil {
		if _, ok := pqConstraint(err, pgForeignKeyViolation); ok {
			return nil, ErrStandingEventInvalid
		}
		return nil, fmt.Errorf("failed to create standing for e:%d u:%d: %w", eventID, userID, err)
	}
	return r.GetByEventAndUser(ctx, executor, eventID, userID)
}

func (r *postgresStandingRepository) ListByEvent(ctx context.Context, exec SQLExecutor, eventID int, sortByRank bool) ([]*models.Standing, error) {
	queryBuilder := strings.Builder{}
	queryBuilder.WriteString(`SELECT ` + standingColumns + ` FROM standings WHERE event_id = $1`)
	if sortByRank {
		queryBuilder.WriteString(" ORDER BY wins DESC, points DESC, sos DESC, user_id ASC")
	} else {
		queryBuilder.WriteString(" ORDER BY user_id ASC")
	}
	return r.queryStandings(ctx, exec, queryBuilder.String(), eventID)
}

func (r *postgresStandingRepository) ListByEventAndUsers(ctx context.Context, exec SQLExecutor, eventID int, userIDs []int) ([]*models.Standing, error) {
	if len(userIDs) == 0 {
		return []*models.Standing{}, nil
	}
	query := `SELECT ` + standingColumns + ` FROM standings WHERE event_id = $1 AND user_id = ANY($2) ORDER BY user_id ASC`
	return r.queryStandings(ctx, exec, query, eventID, toInt64s(userIDs))
}

func (r *postgresStandingRepository) queryStandings(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]*models.Standing, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list standings: %w", err)
	}
	defer rows.Close()

	standings := make([]*models.Standing, 0)
	for rows.Next() {
		s, errScan := r.scanStanding(rows)
		if errScan != nil {
			return nil, errScan
		}
		standings = append(standings, s)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return standings, nil
}

func (r *postgresStandingRepository) ApplyDelta(ctx context.Context, exec SQLExecutor, id int, delta models.StandingDelta) error {
	query := `
		UPDATE standings SET
			wins = wins + $1,
			points = points + $2,
			sos = sos + $3,
			updated_at = NOW()
		WHERE id = $4`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, delta.Wins, delta.Points, delta.SOS, id)
	if err != nil {
		return fmt.Errorf("failed to apply standing delta to %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrStandingNotFound)
}
