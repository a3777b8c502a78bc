package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/boules-league/models"
)

var (
	ErrConfirmationMatchInvalid = errors.New("confirmation match or user invalid")
)

type ConfirmationRepository interface {
	// Upsert writes one participant's report, replacing their previous one.
	Upsert(ctx context.Context, exec SQLExecutor, c *models.ResultConfirmation) error
	ListByMatch(ctx context.Context, exec SQLExecutor, matchID int) ([]*models.ResultConfirmation, error)
	UpdateStatusByMatch(ctx context.Context, exec SQLExecutor, matchID int, status models.ConfirmationStatus) error
}

type postgresConfirmationRepository struct {
	db *sql.DB
}

func NewPostgresConfirmationRepository(db *sql.DB) ConfirmationRepository {
	return &postgresConfirmationRepository{db: db}
}

func (r *postgresConfirmationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresConfirmationRepository) Upsert(ctx context.Context, exec SQLExecutor, c *models.ResultConfirmation) error {
	query := `
		INSERT INTO result_confirmations (match_id, user_id, score_a, score_b, status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (match_id, user_id) DO UPDATE
		SET score_a = EXCLUDED.score_a,
		    score_b = EXCLUDED.score_b,
		    status = EXCLUDED.status,
		    updated_at = NOW()
		RETURNING id, updated_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		c.MatchID, c.UserID, c.ScoreA, c.ScoreB, c.Status,
	).Scan(&c.ID, &c.UpdatedAt)
	if err != nil {
		if _, ok := pqConstraint(err, pgForeignKeyViolation); ok {
			return ErrConfirmationMatchInvalid
		}
		return fmt.Errorf("failed to upsert confirmation for match %d user %d: %w", c.MatchID, c.UserID, err)
	}
	return nil
}

func (r *postgresConfirmationRepository) ListByMatch(ctx context.Context, exec SQLExecutor, matchID int) ([]*models.ResultConfirmation, error) {
	query := `
		SELECT id, match_id, user_id, score_a, score_b, status, updated_at
		FROM result_confirmations
		WHERE match_id = $1
		ORDER BY id ASC`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list confirmations for match %d: %w", matchID, err)
	}
	defer rows.Close()

	confirmations := make([]*models.ResultConfirmation, 0)
	for rows.Next() {
		var c models.ResultConfirmation
		if err := rows.Scan(&c.ID, &c.MatchID, &c.UserID, &c.ScoreA, &c.ScoreB, &c.Status, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan confirmation: %w", err)
		}
		confirmations = append(confirmations, &c)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return confirmations, nil
}

func (r *postgresConfirmationRepository) UpdateStatusByMatch(ctx context.Context, exec SQLExecutor, matchID int, status models.ConfirmationStatus) error {
	_, err := r.getExecutor(exec).ExecContext(ctx,
		`UPDATE result_confirmations SET status = $1, updated_at = NOW() WHERE match_id = $2`, status, matchID)
	if err != nil {
		return fmt.Errorf("failed to update confirmations for match %d: %w", matchID, err)
	}
	return nil
}
