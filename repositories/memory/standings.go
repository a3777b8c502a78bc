package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/Dosada05/boules-league/models"
	"github.com/Dosada05/boules-league/repositories"
)

type standingRepo struct {
	s *Store
}

func (r *standingRepo) find(eventID, userID int) *models.Standing {
	for _, st := range r.s.data.standings {
		if st.EventID == eventID && st.UserID == userID {
			return st
		}
	}
	return nil
}

func (r *standingRepo) GetByEventAndUser(_ context.Context, exec repositories.SQLExecutor, eventID, userID int) (*models.Standing, error) {
	defer r.s.lock(exec)()
	st := r.find(eventID, userID)
	if st == nil {
		return nil, repositories.ErrStandingNotFound
	}
	c := *st
	return &c, nil
}

func (r *standingRepo) GetOrCreate(_ context.Context, exec repositories.SQLExecutor, eventID, userID int) (*models.Standing, error) {
	defer r.s.lock(exec)()
	st := r.find(eventID, userID)
	if st == nil {
		d := r.s.data
		if _, ok := d.events[eventID]; !ok {
			return nil, repositories.ErrStandingEventInvalid
		}
		if _, ok := d.users[userID]; !ok {
			return nil, repositories.ErrStandingEventInvalid
		}
		st = &models.Standing{ID: d.nextID(), EventID: eventID, UserID: userID, UpdatedAt: time.Now()}
		d.standings[st.ID] = st
	}
	c := *st
	return &c, nil
}

func (r *standingRepo) list(match func(*models.Standing) bool) []*models.Standing {
	out := make([]*models.Standing, 0)
	for _, st := range r.s.data.standings {
		if match(st) {
			c := *st
			out = append(out, &c)
		}
	}
	return out
}

func (r *standingRepo) ListByEvent(_ context.Context, exec repositories.SQLExecutor, eventID int, sortByRank bool) ([]*models.Standing, error) {
	defer r.s.lock(exec)()
	out := r.list(func(st *models.Standing) bool { return st.EventID == eventID })
	slices.SortFunc(out, func(a, b *models.Standing) int {
		if !sortByRank {
			return cmp.Compare(a.UserID, b.UserID)
		}
		return cmp.Or(
			cmp.Compare(b.Wins, a.Wins),
			cmp.Compare(b.Points, a.Points),
			cmp.Compare(b.SOS, a.SOS),
			cmp.Compare(a.UserID, b.UserID),
		)
	})
	return out, nil
}

func (r *standingRepo) ListByEventAndUsers(_ context.Context, exec repositories.SQLExecutor, eventID int, userIDs []int) ([]*models.Standing, error) {
	defer r.s.lock(exec)()
	out := r.list(func(st *models.Standing) bool {
		return st.EventID == eventID && slices.Contains(userIDs, st.UserID)
	})
	slices.SortFunc(out, func(a, b *models.Standing) int { return cmp.Compare(a.UserID, b.UserID) })
	return out, nil
}

func (r *standingRepo) ApplyDelta(_ context.Context, exec repositories.SQLExecutor, id int, delta models.StandingDelta) error {
	defer r.s.lock(exec)()
	st, ok := r.s.data.standings[id]
	if !ok {
		return repositories.ErrStandingNotFound
	}
	st.Wins += delta.Wins
	st.Points += delta.Points
	st.SOS += delta.SOS
	st.UpdatedAt = time.Now()
	return nil
}
