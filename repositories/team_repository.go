package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/boules-league/models"
	"github.com/lib/pq"
)

var (
	ErrTeamNotFound       = errors.New("team not found")
	ErrTeamEventInvalid   = errors.New("team event conflict or invalid")
	ErrTeamMemberConflict = errors.New("user is already a member of this team")
	ErrTeamMemberInvalid  = errors.New("team member user or team invalid")
)

type TeamRepository interface {
	Create(ctx context.Context, exec SQLExecutor, team *models.Team) error
	AddMember(ctx context.Context, exec SQLExecutor, teamID, userID int) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error)
	ListByEvent(ctx context.Context, exec SQLExecutor, eventID int) ([]*models.Team, error)
	ListByUser(ctx context.Context, exec SQLExecutor, userID int) ([]*models.Team, error)
	CountByEvent(ctx context.Context, exec SQLExecutor, eventID int) (int, error)
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

// Members are aggregated in insertion order so "first member" is stable.
const teamSelect = `
		SELECT t.id, t.event_id, t.name, t.created_at,
		       COALESCE(array_agg(tm.user_id ORDER BY tm.id) FILTER (WHERE tm.user_id IS NOT NULL), '{}')
		FROM teams t
		LEFT JOIN team_members tm ON tm.team_id = t.id`

func (r *postgresTeamRepository) Create(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	query := `INSERT INTO teams (event_id, name) VALUES ($1, $2) RETURNING id, created_at`
	err := r.getExecutor(exec).QueryRowContext(ctx, query, team.EventID, team.Name).Scan(&team.ID, &team.CreatedAt)
	if err != nil {
		if constraint, ok := pqConstraint(err, pgForeignKeyViolation); ok && constraint == "teams_event_id_fkey" {
			return ErrTeamEventInvalid
		}
		return fmt.Errorf("failed to create team: %w", err)
	}
	return nil
}

func (r *postgresTeamRepository) AddMember(ctx context.Context, exec SQLExecutor, teamID, userID int) error {
	_, err := r.getExecutor(exec).ExecContext(ctx,
		`INSERT INTO team_members (team_id, user_id) VALUES ($1, $2)`, teamID, userID)
	if err != nil {
		if constraint, ok := pqConstraint(err, pgUniqueViolation); ok && constraint == "team_members_team_id_user_id_key" {
			return ErrTeamMemberConflict
		}
		if _, ok := pqConstraint(err, pgForeignKeyViolation); ok {
			return ErrTeamMemberInvalid
		}
		return fmt.Errorf("failed to add user %d to team %d: %w", userID, teamID, err)
	}
	return nil
}

func (r *postgresTeamRepository) scanTeam(row rowScanner) (*models.Team, error) {
	var (
		t       models.Team
		members pq.Int64Array
	)
	if err := row.Scan(&t.ID, &t.EventID, &t.Name, &t.CreatedAt, &members); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	t.MemberUserIDs = fromInt64s(members)
	return &t, nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error) {
	query := teamSelect + ` WHERE t.id = $1 GROUP BY t.id`
	return r.scanTeam(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresTeamRepository) ListByEvent(ctx context.Context, exec SQLExecutor, eventID int) ([]*models.Team, error) {
	query := teamSelect + ` WHERE t.event_id = $1 GROUP BY t.id ORDER BY t.id`
	return r.queryTeams(ctx, exec, query, eventID)
}

func (r *postgresTeamRepository) ListByUser(ctx context.Context, exec SQLExecutor, userID int) ([]*models.Team, error) {
	query := teamSelect + `
		WHERE t.id IN (SELECT team_id FROM team_members WHERE user_id = $1)
		GROUP BY t.id ORDER BY t.id`
	return r.queryTeams(ctx, exec, query, userID)
}

func (r *postgresTeamRepository) queryTeams(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]*models.Team, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	teams := make([]*models.Team, 0)
	for rows.Next() {
		t, err := r.scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, t)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *postgresTeamRepository) CountByEvent(ctx context.Context, exec SQLExecutor, eventID int) (int, error) {
	var count int
	err := r.getExecutor(exec).QueryRowContext(ctx, `SELECT COUNT(*) FROM teams WHERE event_id = $1`, eventID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count teams for event %d: %w", eventID, err)
	}
	return count, nil
}
