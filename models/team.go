package models

import "time"

type Team struct {
	ID            int       `json:"id" db:"id"`
	EventID       int       `json:"event_id" db:"event_id"`
	Name          string    `json:"name" db:"name"`
	MemberUserIDs []int     `json:"member_user_ids" db:"-"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`

	Members []*User `json:"members,omitempty" db:"-"`
}

func (t *Team) HasMember(userID int) bool {
	for _, id := range t.MemberUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}
