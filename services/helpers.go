package services

import (
	"slices"

	"github.com/Dosada05/boules-league/models"
)

// EventNotifier pushes live updates to scoreboard viewers.
type EventNotifier interface {
	NotifyEvent(eventID int, messageType string, payload interface{})
}

type noopNotifier struct{}

func (noopNotifier) NotifyEvent(int, string, interface{}) {}

func notifierOrNoop(n EventNotifier) EventNotifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}

// participantSet is the deduplicated set of users playing a match.
type participantSet map[int]struct{}

func newParticipantSet(teams ...[]int) participantSet {
	set := make(participantSet)
	for _, members := range teams {
		for _, id := range members {
			set[id] = struct{}{}
		}
	}
	return set
}

func (s participantSet) Has(userID int) bool {
	_, ok := s[userID]
	return ok
}

// distinctIDs drops repeated ids, keeping first occurrences in order.
func distinctIDs(ids []int) []int {
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func isValidEventStatusTransition(current, next models.EventStatus) bool {
	allowedTransitions := map[models.EventStatus][]models.EventStatus{
		models.EventStatusOpen:      {models.EventStatusConfirmed, models.EventStatusCompleted},
		models.EventStatusConfirmed: {models.EventStatusOpen, models.EventStatusCompleted},
		models.EventStatusCompleted: {},
	}
	return slices.Contains(allowedTransitions[current], next)
}

func isValidEventStatus(status models.EventStatus) bool {
	switch status {
	case models.EventStatusOpen, models.EventStatusConfirmed, models.EventStatusCompleted:
		return true
	}
	return false
}

// winnerTeamID returns nil on a tie.
func winnerTeamID(match *models.Match, scoreA, scoreB int) *int {
	switch {
	case scoreA > scoreB:
		id := match.TeamAID
		return &id
	case scoreB > scoreA:
		id := match.TeamBID
		return &id
	}
	return nil
}
