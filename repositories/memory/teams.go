package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/Dosada05/boules-league/models"
	"github.com/Dosada05/boules-league/repositories"
)

type teamRepo struct {
	s *Store
}

func (r *teamRepo) Create(_ context.Context, exec repositories.SQLExecutor, team *models.Team) error {
	defer r.s.lock(exec)()
	if _, ok := r.s.data.events[team.EventID]; !ok {
		return repositories.ErrTeamEventInvalid
	}
	team.ID = r.s.data.nextID()
	team.CreatedAt = time.Now()
	team.MemberUserIDs = nil
	r.s.data.teams[team.ID] = copyTeam(team)
	return nil
}

func (r *teamRepo) AddMember(_ context.Context, exec repositories.SQLExecutor, teamID, userID int) error {
	defer r.s.lock(exec)()
	t, ok := r.s.data.teams[teamID]
	if !ok {
		return repositories.ErrTeamMemberInvalid
	}
	if _, ok := r.s.data.users[userID]; !ok {
		return repositories.ErrTeamMemberInvalid
	}
	if t.HasMember(userID) {
		return repositories.ErrTeamMemberConflict
	}
	t.MemberUserIDs = append(t.MemberUserIDs, userID)
	return nil
}

func (r *teamRepo) GetByID(_ context.Context, exec repositories.SQLExecutor, id int) (*models.Team, error) {
	defer r.s.lock(exec)()
	t, ok := r.s.data.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	return copyTeam(t), nil
}

func (r *teamRepo) list(match func(*models.Team) bool) []*models.Team {
	teams := make([]*models.Team, 0)
	for _, t := range r.s.data.teams {
		if match(t) {
			teams = append(teams, copyTeam(t))
		}
	}
	slices.SortFunc(teams, func(a, b *models.Team) int { return cmp.Compare(a.ID, b.ID) })
	return teams
}

func (r *teamRepo) ListByEvent(_ context.Context, exec repositories.SQLExecutor, eventID int) ([]*models.Team, error) {
	defer r.s.lock(exec)()
	return r.list(func(t *models.Team) bool { return t.EventID == eventID }), nil
}

func (r *teamRepo) ListByUser(_ context.Context, exec repositories.SQLExecutor, userID int) ([]*models.Team, error) {
	defer r.s.lock(exec)()
	return r.list(func(t *models.Team) bool { return t.HasMember(userID) }), nil
}

func (r *teamRepo) CountByEvent(_ context.Context, exec repositories.SQLExecutor, eventID int) (int, error) {
	defer r.s.lock(exec)()
	n := 0
	for _, t := range r.s.data.teams {
		if t.EventID == eventID {
			n++
		}
	}
	return n, nil
}
