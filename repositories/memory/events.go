package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/Dosada05/boules-league/models"
	"github.com/Dosada05/boules-league/repositories"
)

type eventRepo struct {
	s *Store
}

func (r *eventRepo) withCount(e *models.Event) *models.Event {
	c := copyEvent(e)
	c.RegistrationCount = 0
	for _, reg := range r.s.data.registrations {
		if reg.EventID == e.ID {
			c.RegistrationCount++
		}
	}
	return c
}

func (r *eventRepo) Create(_ context.Context, exec repositories.SQLExecutor, event *models.Event) error {
	defer r.s.lock(exec)()
	event.ID = r.s.data.nextID()
	event.TeamsGenerated = false
	event.CreatedAt = time.Now()
	r.s.data.events[event.ID] = copyEvent(event)
	return nil
}

func (r *eventRepo) GetByID(_ context.Context, exec repositories.SQLExecutor, id int) (*models.Event, error) {
	defer r.s.lock(exec)()
	e, ok := r.s.data.events[id]
	if !ok {
		return nil, repositories.ErrEventNotFound
	}
	return r.withCount(e), nil
}

func (r *eventRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Event, error) {
	// Transactions are already serialised by the store mutex.
	return r.GetByID(ctx, exec, id)
}

func (r *eventRepo) List(_ context.Context, exec repositories.SQLExecutor) ([]*models.Event, error) {
	defer r.s.lock(exec)()
	events := make([]*models.Event, 0, len(r.s.data.events))
	for _, e := range r.s.data.events {
		events = append(events, r.withCount(e))
	}
	slices.SortFunc(events, func(a, b *models.Event) int {
		if c := b.EventDate.Compare(a.EventDate); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return events, nil
}

func (r *eventRepo) GetUpcoming(_ context.Context, exec repositories.SQLExecutor, from time.Time) (*models.Event, error) {
	defer r.s.lock(exec)()
	var next *models.Event
	for _, e := range r.s.data.events {
		if e.EventDate.Before(from) || e.Status == models.EventStatusCompleted {
			continue
		}
		if next == nil || e.EventDate.Before(next.EventDate) || (e.EventDate.Equal(next.EventDate) && e.ID < next.ID) {
			next = e
		}
	}
	if next == nil {
		return nil, repositories.ErrEventNotFound
	}
	return r.withCount(next), nil
}

func (r *eventRepo) UpdateStatus(_ context.Context, exec repositories.SQLExecutor, id int, from, to models.EventStatus) error {
	defer r.s.lock(exec)()
	e, ok := r.s.data.events[id]
	if !ok || e.Status != from {
		return repositories.ErrEventInvalidStatusTransition
	}
	e.Status = to
	return nil
}

func (r *eventRepo) MarkTeamsGenerated(_ context.Context, exec repositories.SQLExecutor, id int) error {
	defer r.s.lock(exec)()
	e, ok := r.s.data.events[id]
	if !ok || e.TeamsGenerated {
		return repositories.ErrEventTeamsAlreadyGenerated
	}
	e.TeamsGenerated = true
	return nil
}

func (r *eventRepo) CompletePastEvents(_ context.Context, exec repositories.SQLExecutor, before time.Time) (int64, error) {
	defer r.s.lock(exec)()
	var n int64
	for _, e := range r.s.data.events {
		if e.EventDate.Before(before) && e.Status != models.EventStatusCompleted {
			e.Status = models.EventStatusCompleted
			n++
		}
	}
	return n, nil
}

func (r *eventRepo) Delete(_ context.Context, exec repositories.SQLExecutor, id int) error {
	defer r.s.lock(exec)()
	if _, ok := r.s.data.events[id]; !ok {
		return repositories.ErrEventNotFound
	}
	d := r.s.data
	delete(d.events, id)

	// ON DELETE CASCADE
	for regID, reg := range d.registrations {
		if reg.EventID == id {
			delete(d.registrations, regID)
		}
	}
	for teamID, t := range d.teams {
		if t.EventID == id {
			delete(d.teams, teamID)
		}
	}
	for matchID, m := range d.matches {
		if m.EventID != id {
			continue
		}
		delete(d.matches, matchID)
		for cID, c := range d.confirmations {
			if c.MatchID == matchID {
				delete(d.confirmations, cID)
			}
		}
	}
	for sID, st := range d.standings {
		if st.EventID == id {
			delete(d.standings, sID)
		}
	}
	return nil
}
