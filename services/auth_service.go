package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/boules-league/models"
	"github.com/Dosada05/boules-league/repositories"
	"github.com/Dosada05/boules-league/utils"
)

const minPasswordLength = 8

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Login(ctx context.Context, input LoginInput) (*models.User, error)
	// EnsureAdmin creates an approved administrator unless the email is taken.
	EnsureAdmin(ctx context.Context, email, password string) error
}

type RegisterInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authService struct {
	userRepo repositories.UserRepository
	logger   *slog.Logger
}

func NewAuthService(userRepo repositories.UserRepository, logger *slog.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		logger:   logger,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) newUser(email, password, firstName, lastName string) (*models.User, error) {
	if !utils.IsValidEmail(email) {
		return nil, fmt.Errorf("%w: invalid email address", ErrValidationFailed)
	}
	if len(password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}
	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("ошибка хеширования пароля: %w", err)
	}
	return &models.User{
		Email:        email,
		PasswordHash: hashedPassword,
		FirstName:    firstName,
		LastName:     lastName,
		Status:       models.UserStatusPending,
	}, nil
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	firstName := strings.TrimSpace(input.FirstName)
	if firstName == "" {
		return nil, fmt.Errorf("%w: first name is required", ErrValidationFailed)
	}

	user, err := s.newUser(normalizeEmail(input.Email), input.Password, firstName, strings.TrimSpace(input.LastName))
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.Create(ctx, nil, user); err != nil {
		if errors.Is(err, repositories.ErrUserEmailConflict) {
			return nil, ErrUserEmailConflict
		}
		return nil, fmt.Errorf("ошибка создания пользователя: %w", err)
	}

	s.logger.Info("user registered, awaiting approval", slog.Int("user_id", user.ID))
	return user, nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, nil, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	if !utils.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if user.Status == models.UserStatusInactive {
		return nil, ErrUserInactive
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *authService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	_, err := s.userRepo.GetByEmail(ctx, nil, email)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, repositories.ErrUserNotFound):
		return fmt.Errorf("failed to look up admin %s: %w", email, err)
	}

	admin, err := s.newUser(email, password, "Admin", "")
	if err != nil {
		return err
	}
	admin.IsAdmin = true
	admin.Status = models.UserStatusApproved

	if err := s.userRepo.Create(ctx, nil, admin); err != nil && !errors.Is(err, repositories.ErrUserEmailConflict) {
		return fmt.Errorf("failed to create admin %s: %w", email, err)
	}
	s.logger.Info("bootstrap admin created", slog.Int("user_id", admin.ID))
	return nil
}
