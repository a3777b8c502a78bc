package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/Dosada05/boules-league/models"
	"github.com/Dosada05/boules-league/repositories"
)

type confirmationRepo struct {
	s *Store
}

func (r *confirmationRepo) Upsert(_ context.Context, exec repositories.SQLExecutor, c *models.ResultConfirmation) error {
	defer r.s.lock(exec)()
	d := r.s.data
	if _, ok := d.matches[c.MatchID]; !ok {
		return repositories.ErrConfirmationMatchInvalid
	}
	if _, ok := d.users[c.UserID]; !ok {
		return repositories.ErrConfirmationMatchInvalid
	}

	now := time.Now()
	for _, existing := range d.confirmations {
		if existing.MatchID == c.MatchID && existing.UserID == c.UserID {
			existing.ScoreA, existing.ScoreB, existing.Status = c.ScoreA, c.ScoreB, c.Status
			existing.UpdatedAt = now
			c.ID, c.UpdatedAt = existing.ID, now
			return nil
		}
	}
	c.ID = d.nextID()
	c.UpdatedAt = now
	stored := *c
	d.confirmations[c.ID] = &stored
	return nil
}

func (r *confirmationRepo) ListByMatch(_ context.Context, exec repositories.SQLExecutor, matchID int) ([]*models.ResultConfirmation, error) {
	defer r.s.lock(exec)()
	out := make([]*models.ResultConfirmation, 0)
	for _, c := range r.s.data.confirmations {
		if c.MatchID == matchID {
			cc := *c
			out = append(out, &cc)
		}
	}
	slices.SortFunc(out, func(a, b *models.ResultConfirmation) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (r *confirmationRepo) UpdateStatusByMatch(_ context.Context, exec repositories.SQLExecutor, matchID int, status models.ConfirmationStatus) error {
	defer r.s.lock(exec)()
	now := time.Now()
	for _, c := range r.s.data.confirmations {
		if c.MatchID == matchID {
			c.Status = status
			c.UpdatedAt = now
		}
	}
	return nil
}
