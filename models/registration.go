package models

import "time"

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// Registration is one confirmed sign-up; the set of registrations for an event is its player pool.
type Registration struct {
	ID            int           `json:"id" db:"id"`
	EventID       int           `json:"event_id" db:"event_id"`
	UserID        int           `json:"user_id" db:"user_id"`
	PhoneNumber   string        `json:"phone_number,omitempty" db:"phone_number"`
	PaymentStatus PaymentStatus `json:"payment_status" db:"payment_status"`
	CheckInCode   string        `json:"check_in_code,omitempty" db:"check_in_code"`
	CheckedInAt   *time.Time    `json:"checked_in_at,omitempty" db:"checked_in_at"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`

	User  *User  `json:"user,omitempty" db:"-"`
	Event *Event `json:"event,omitempty" db:"-"`
}
