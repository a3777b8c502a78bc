package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/Dosada05/boules-league/models"
	"github.com/Dosada05/boules-league/repositories"
)

type registrationRepo struct {
	s *Store
}

func (r *registrationRepo) Create(_ context.Context, exec repositories.SQLExecutor, reg *models.Registration) error {
	defer r.s.lock(exec)()
	d := r.s.data
	if _, ok := d.events[reg.EventID]; !ok {
		return repositories.ErrRegistrationEventInvalid
	}
	if _, ok := d.users[reg.UserID]; !ok {
		return repositories.ErrRegistrationUserInvalid
	}
	for _, existing := range d.registrations {
		if existing.EventID == reg.EventID && existing.UserID == reg.UserID {
			return repositories.ErrRegistrationConflict
		}
	}
	reg.ID = d.nextID()
	reg.CreatedAt = time.Now()
	d.registrations[reg.ID] = copyRegistration(reg)
	return nil
}

func (r *registrationRepo) find(match func(*models.Registration) bool) (*models.Registration, error) {
	for _, reg := range r.s.data.registrations {
		if match(reg) {
			return copyRegistration(reg), nil
		}
	}
	return nil, repositories.ErrRegistrationNotFound
}

func (r *registrationRepo) GetByUserAndEvent(_ context.Context, exec repositories.SQLExecutor, userID, eventID int) (*models.Registration, error) {
	defer r.s.lock(exec)()
	return r.find(func(reg *models.Registration) bool {
		return reg.UserID == userID && reg.EventID == eventID
	})
}

func (r *registrationRepo) GetByCheckInCode(_ context.Context, exec repositories.SQLExecutor, code string) (*models.Registration, error) {
	defer r.s.lock(exec)()
	return r.find(func(reg *models.Registration) bool { return reg.CheckInCode == code })
}

func (r *registrationRepo) ListByEvent(_ context.Context, exec repositories.SQLExecutor, eventID int) ([]*models.Registration, error) {
	defer r.s.lock(exec)()
	regs := make([]*models.Registration, 0)
	for _, reg := range r.s.data.registrations {
		if reg.EventID == eventID {
			regs = append(regs, copyRegistration(reg))
		}
	}
	// IDs are monotonic, so this is registration order.
	slices.SortFunc(regs, func(a, b *models.Registration) int { return cmp.Compare(a.ID, b.ID) })
	return regs, nil
}

func (r *registrationRepo) ListByUser(_ context.Context, exec repositories.SQLExecutor, userID int) ([]*models.Registration, error) {
	defer r.s.lock(exec)()
	regs := make([]*models.Registration, 0)
	for _, reg := range r.s.data.registrations {
		if reg.UserID == userID {
			regs = append(regs, copyRegistration(reg))
		}
	}
	slices.SortFunc(regs, func(a, b *models.Registration) int { return cmp.Compare(b.ID, a.ID) })
	return regs, nil
}

func (r *registrationRepo) CountByEvent(_ context.Context, exec repositories.SQLExecutor, eventID int) (int, error) {
	defer r.s.lock(exec)()
	n := 0
	for _, reg := range r.s.data.registrations {
		if reg.EventID == eventID {
			n++
		}
	}
	return n, nil
}

func (r *registrationRepo) MarkCheckedIn(_ context.Context, exec repositories.SQLExecutor, id int, at time.Time) error {
	defer r.s.lock(exec)()
	reg, ok := r.s.data.registrations[id]
	if ok && reg.CheckedInAt == nil {
		reg.CheckedInAt = &at
	}
	return nil
}

func (r *registrationRepo) Delete(_ context.Context, exec repositories.SQLExecutor, id int) error {
	defer r.s.lock(exec)()
	if _, ok := r.s.data.registrations[id]; !ok {
		return repositories.ErrRegistrationNotFound
	}
	delete(r.s.data.registrations, id)
	return nil
}
