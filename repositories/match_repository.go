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
	ErrMatchNotFound      = errors.New("match not found")
	ErrMatchAlreadyLocked = errors.New("match already locked")
	ErrMatchEventInvalid  = errors.New("match event conflict or invalid")
	ErrMatchTeamInvalid   = errors.New("match team conflict or invalid")
	ErrMatchSameTeams     = errors.New("match teams must be distinct")
)

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	// GetByIDForUpdate locks the match row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	ListByEvent(ctx context.Context, exec SQLExecutor, eventID int) ([]*models.Match, error)
	ListByTeams(ctx context.Context, exec SQLExecutor, teamIDs []int) ([]*models.Match, error)
	// Lock records the agreed result. It fails with ErrMatchAlreadyLocked when
	// the match is already locked, which makes it safe as a once-only guard.
	Lock(ctx context.Context, exec SQLExecutor, id, scoreA, scoreB int, winnerTeamID *int, completedAt time.Time) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.MatchStatus) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `id, event_id, team_a_id, team_b_id, round_number, court_number, status,
		score_a, score_b, winner_team_id, completed_at, created_at`

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		INSERT INTO matches (event_id, team_a_id, team_b_id, round_number, court_number, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		match.EventID,
		match.TeamAID,
		match.TeamBID,
		match.RoundNumber,
		match.CourtNumber,
		match.Status,
	).Scan(&match.ID, &match.CreatedAt)
	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if constraint, ok := pqConstraint(err, pgForeignKeyViolation); ok {
		switch constraint {
		case "matches_event_id_fkey":
			return ErrMatchEventInvalid
		case "matches_team_a_id_fkey", "matches_team_b_id_fkey", "matches_winner_team_id_fkey":
			return ErrMatchTeamInvalid
		}
	}
	if constraint, ok := pqConstraint(err, pgCheckViolation); ok && constraint == "chk_match_distinct_teams" {
		return ErrMatchSameTeams
	}
	return fmt.Errorf("match query failed: %w", err)
}

func (r *postgresMatchRepository) scanMatch(row rowScanner) (*models.Match, error) {
	var m models.Match
	err := row.Scan(
		&m.ID,
		&m.EventID,
		&m.TeamAID,
		&m.TeamBID,
		&m.RoundNumber,
		&m.CourtNumber,
		&m.Status,
		&m.ScoreA,
		&m.ScoreB,
		&m.WinnerTeamID,
		&m.CompletedAt,
		&m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	return r.scanMatch(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1 FOR UPDATE`
	return r.scanMatch(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) ListByEvent(ctx context.Context, exec SQLExecutor, eventID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE event_id = $1 ORDER BY round_number ASC, court_number ASC, id ASC`
	return r.queryMatches(ctx, exec, query, eventID)
}

func (r *postgresMatchRepository) ListByTeams(ctx context.Context, exec SQLExecutor, teamIDs []int) ([]*models.Match, error) {
	if len(teamIDs) == 0 {
		return []*models.Match{}, nil
	}
	query := `SELECT ` + matchColumns + `
		FROM matches
		WHERE team_a_id = ANY($1) OR team_b_id = ANY($1)
		ORDER BY created_at DESC, id DESC`
	return r.queryMatches(ctx, exec, query, toInt64s(teamIDs))
}

func (r *postgresMatchRepository) queryMatches(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]*models.Match, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, err := r.scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *postgresMatchRepository) Lock(ctx context.Context, exec SQLExecutor, id, scoreA, scoreB int, winnerTeamID *int, completedAt time.Time) error {
	query := `
		UPDATE matches
		SET status = $1, score_a = $2, score_b = $3, winner_team_id = $4, completed_at = $5
		WHERE id = $6 AND status <> $1`
	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		models.MatchStatusLocked, scoreA, scoreB, winnerTeamID, completedAt, id)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchAlreadyLocked)
}

func (r *postgresMatchRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.MatchStatus) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `UPDATE matches SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}
