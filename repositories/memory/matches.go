package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/Dosada05/boules-league/models"
	"github.com/Dosada05/boules-league/repositories"
)

type matchRepo struct {
	s *Store
}

func (r *matchRepo) Create(_ context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	defer r.s.lock(exec)()
	d := r.s.data
	if _, ok := d.events[match.EventID]; !ok {
		return repositories.ErrMatchEventInvalid
	}
	if match.TeamAID == match.TeamBID {
		return repositories.ErrMatchSameTeams
	}
	if _, ok := d.teams[match.TeamAID]; !ok {
		return repositories.ErrMatchTeamInvalid
	}
	if _, ok := d.teams[match.TeamBID]; !ok {
		return repositories.ErrMatchTeamInvalid
	}
	match.ID = d.nextID()
	match.CreatedAt = time.Now()
	d.matches[match.ID] = copyMatch(match)
	return nil
}

func (r *matchRepo) GetByID(_ context.Context, exec repositories.SQLExecutor, id int) (*models.Match, error) {
	defer r.s.lock(exec)()
	m, ok := r.s.data.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	return copyMatch(m), nil
}

func (r *matchRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Match, error) {
	return r.GetByID(ctx, exec, id)
}

func (r *matchRepo) ListByEvent(_ context.Context, exec repositories.SQLExecutor, eventID int) ([]*models.Match, error) {
	defer r.s.lock(exec)()
	matches := make([]*models.Match, 0)
	for _, m := range r.s.data.matches {
		if m.EventID == eventID {
			matches = append(matches, copyMatch(m))
		}
	}
	slices.SortFunc(matches, func(a, b *models.Match) int {
		return cmp.Or(
			cmp.Compare(a.RoundNumber, b.RoundNumber),
			cmp.Compare(a.CourtNumber, b.CourtNumber),
			cmp.Compare(a.ID, b.ID),
		)
	})
	return matches, nil
}

func (r *matchRepo) ListByTeams(_ context.Context, exec repositories.SQLExecutor, teamIDs []int) ([]*models.Match, error) {
	defer r.s.lock(exec)()
	matches := make([]*models.Match, 0)
	for _, m := range r.s.data.matches {
		if slices.Contains(teamIDs, m.TeamAID) || slices.Contains(teamIDs, m.TeamBID) {
			matches = append(matches, copyMatch(m))
		}
	}
	slices.SortFunc(matches, func(a, b *models.Match) int { return cmp.Compare(b.ID, a.ID) })
	return matches, nil
}

func (r *matchRepo) Lock(_ context.Context, exec repositories.SQLExecutor, id, scoreA, scoreB int, winnerTeamID *int, completedAt time.Time) error {
	defer r.s.lock(exec)()
	m, ok := r.s.data.matches[id]
	if !ok || m.Status == models.MatchStatusLocked {
		return repositories.ErrMatchAlreadyLocked
	}
	m.Status = models.MatchStatusLocked
	m.ScoreA = &scoreA
	m.ScoreB = &scoreB
	m.WinnerTeamID = copyInt(winnerTeamID)
	m.CompletedAt = &completedAt
	return nil
}

func (r *matchRepo) UpdateStatus(_ context.Context, exec repositories.SQLExecutor, id int, status models.MatchStatus) error {
	defer r.s.lock(exec)()
	m, ok := r.s.data.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.Status = status
	return nil
}
