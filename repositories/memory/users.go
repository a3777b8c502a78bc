package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/Dosada05/boules-league/models"
	"github.com/Dosada05/boules-league/repositories"
)

type userRepo struct {
	s *Store
}

func (r *userRepo) Create(_ context.Context, exec repositories.SQLExecutor, user *models.User) error {
	defer r.s.lock(exec)()
	for _, u := range r.s.data.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repositories.ErrUserEmailConflict
		}
	}
	user.ID = r.s.data.nextID()
	user.CreatedAt = time.Now()
	r.s.data.users[user.ID] = copyUser(user)
	return nil
}

func (r *userRepo) GetByID(_ context.Context, exec repositories.SQLExecutor, id int) (*models.User, error) {
	defer r.s.lock(exec)()
	u, ok := r.s.data.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return copyUser(u), nil
}

func (r *userRepo) GetByEmail(_ context.Context, exec repositories.SQLExecutor, email string) (*models.User, error) {
	defer r.s.lock(exec)()
	for _, u := range r.s.data.users {
		if strings.EqualFold(u.Email, email) {
			return copyUser(u), nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *userRepo) ListByIDs(_ context.Context, exec repositories.SQLExecutor, ids []int) ([]*models.User, error) {
	defer r.s.lock(exec)()
	users := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.s.data.users[id]; ok {
			users = append(users, copyUser(u))
		}
	}
	slices.SortFunc(users, func(a, b *models.User) int { return cmp.Compare(a.ID, b.ID) })
	return slices.CompactFunc(users, func(a, b *models.User) bool { return a.ID == b.ID }), nil
}

func (r *userRepo) List(_ context.Context, exec repositories.SQLExecutor, status *models.UserStatus) ([]*models.User, error) {
	defer r.s.lock(exec)()
	users := make([]*models.User, 0, len(r.s.data.users))
	for _, u := range r.s.data.users {
		if status != nil && u.Status != *status {
			continue
		}
		users = append(users, copyUser(u))
	}
	// Newest first, like the SQL implementation.
	slices.SortFunc(users, func(a, b *models.User) int { return cmp.Compare(b.ID, a.ID) })
	return users, nil
}

func (r *userRepo) UpdateStatus(_ context.Context, exec repositories.SQLExecutor, id int, status models.UserStatus) error {
	defer r.s.lock(exec)()
	u, ok := r.s.data.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.Status = status
	return nil
}

func (r *userRepo) UpdateProfileImage(_ context.Context, exec repositories.SQLExecutor, id int, key, url *string) error {
	defer r.s.lock(exec)()
	u, ok := r.s.data.users[id]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.ProfileImageKey = copyString(key)
	u.ProfileImageURL = copyString(url)
	return nil
}
