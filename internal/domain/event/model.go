// Package event implements the organization event calendar.
package event

import (
	"context"
	"strings"
	"time"

	"parishdesk/internal/core/apperror"
	"parishdesk/internal/core/entity"
	"parishdesk/internal/core/id"
	"parishdesk/internal/core/types"
)

// Event is an organization-scoped calendar entry. Registration fee uses
// decimal arithmetic to avoid float drift on money.
type Event struct {
	entity.Tenanted

	Title       string `db:"title" json:"title"`
	Description string `db:"description" json:"description,omitempty"`
	Location    string `db:"location" json:"location,omitempty"`

	StartsAt time.Time `db:"starts_at" json:"startsAt"`
	EndsAt   time.Time `db:"ends_at" json:"endsAt"`

	Capacity        int         `db:"capacity" json:"capacity"`
	RegistrationFee types.Money `db:"registration_fee" json:"registrationFee"`
}

// New creates an event bound to an organization.
func New(orgID id.ID, title string, startsAt, endsAt time.Time) *Event {
	return &Event{
		Tenanted:        entity.NewTenanted(orgID),
		Title:           strings.TrimSpace(title),
		StartsAt:        startsAt.UTC(),
		EndsAt:          endsAt.UTC(),
		RegistrationFee: types.Zero(),
	}
}

// Validate checks event invariants.
func (e *Event) Validate(ctx context.Context) error {
	if strings.TrimSpace(e.Title) == "" {
		return apperror.NewValidation("event title is required").WithDetail("field", "title")
	}
	if id.IsNil(e.OrganizationID) {
		return apperror.NewValidation("organization is required").WithDetail("field", "organizationId")
	}
	if e.StartsAt.IsZero() {
		return apperror.NewValidation("event start time is required").WithDetail("field", "startsAt")
	}
	if !e.EndsAt.IsZero() && e.EndsAt.Before(e.StartsAt) {
		return apperror.NewValidation("event must end after it starts").WithDetail("field", "endsAt")
	}
	if e.Capacity < 0 {
		return apperror.NewValidation("capacity cannot be negative").WithDetail("field", "capacity")
	}
	if e.RegistrationFee.IsNegative() {
		return apperror.NewValidation("registration fee cannot be negative").WithDetail("field", "registrationFee")
	}
	return nil
}

// IsFree reports whether the event has no registration fee.
func (e *Event) IsFree() bool {
	return e.RegistrationFee.IsZero()
}

// Registration records a user signing up for an event. FeePaid captures the
// fee at registration time; later fee changes do not affect it.
type Registration struct {
	ID           id.ID       `db:"id" json:"id"`
	EventID      id.ID       `db:"event_id" json:"eventId"`
	UserID       id.ID       `db:"user_id" json:"userId"`
	FeePaid      types.Money `db:"fee_paid" json:"feePaid"`
	RegisteredAt time.Time   `db:"registered_at" json:"registeredAt"`
}

// NewRegistration creates a registration at the event's current fee.
func NewRegistration(e *Event, userID id.ID) *Registration {
	return &Registration{
		ID:           id.New(),
		EventID:      e.ID,
		UserID:       userID,
		FeePaid:      e.RegistrationFee,
		RegisteredAt: time.Now().UTC(),
	}
}
