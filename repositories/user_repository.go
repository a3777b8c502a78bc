package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/boules-league/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserEmailConflict = errors.New("user email conflict")
)

type UserRepository interface {
	Create(ctx context.Context, exec SQLExecutor, user *models.User) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.User, error)
	GetByEmail(ctx context.Context, exec SQLExecutor, email string) (*models.User, error)
	ListByIDs(ctx context.Context, exec SQLExecutor, ids []int) ([]*models.User, error)
	List(ctx context.Context, exec SQLExecutor, status *models.UserStatus) ([]*models.User, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.UserStatus) error
	UpdateProfileImage(ctx context.Context, exec SQLExecutor, id int, key, url *string) error
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const userColumns = `id, email, password_hash, first_name, last_name, is_admin, status,
		profile_image_key, profile_image_url, created_at`

func (r *postgresUserRepository) Create(ctx context.Context, exec SQLExecutor, user *models.User) error {
	query := `
		INSERT INTO users (email, password_hash, first_name, last_name, is_admin, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.IsAdmin,
		user.Status,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if constraint, ok := pqConstraint(err, pgUniqueViolation); ok && constraint == "users_email_key" {
			return ErrUserEmailConflict
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *postgresUserRepository) scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.FirstName,
		&u.LastName,
		&u.IsAdmin,
		&u.Status,
		&u.ProfileImageKey,
		&u.ProfileImageURL,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *postgresUserRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresUserRepository) GetByEmail(ctx context.Context, exec SQLExecutor, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return r.scanUser(r.getExecutor(exec).QueryRowContext(ctx, query, email))
}

func (r *postgresUserRepository) ListByIDs(ctx context.Context, exec SQLExecutor, ids []int) ([]*models.User, error) {
	if len(ids) == 0 {
		return []*models.User{}, nil
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1) ORDER BY id`
	return r.queryUsers(ctx, exec, query, toInt64s(ids))
}

func (r *postgresUserRepository) List(ctx context.Context, exec SQLExecutor, status *models.UserStatus) ([]*models.User, error) {
	if status != nil {
		query := `SELECT ` + userColumns + ` FROM users WHERE status = $1 ORDER BY created_at DESC, id DESC`
		return r.queryUsers(ctx, exec, query, *status)
	}
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC, id DESC`
	return r.queryUsers(ctx, exec, query)
}

func (r *postgresUserRepository) queryUsers(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]*models.User, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		u, err := r.scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *postgresUserRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.UserStatus) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `UPDATE users SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) UpdateProfileImage(ctx context.Context, exec SQLExecutor, id int, key, url *string) error {
	query := `UPDATE users SET profile_image_key = $1, profile_image_url = $2 WHERE id = $3`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, key, url, id)
	if err != nil {
		return fmt.Errorf("failed to update user profile image: %w", err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}
