package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"parishdesk/internal/domain/event"
)

// EventResponse is the public view of an event.
type EventResponse struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description,omitempty"`
	Location        string          `json:"location,omitempty"`
	StartsAt        time.Time       `json:"startsAt"`
	EndsAt          time.Time       `json:"endsAt"`
	Capacity        int             `json:"capacity"`
	RegistrationFee decimal.Decimal `json:"registrationFee"`
	Version         int             `json:"version"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// FromEvent creates EventResponse from event.Event.
func FromEvent(e *event.Event) EventResponse {
	return EventResponse{
		ID:              e.ID.String(),
		Title:           e.Title,
		Description:     e.Description,
		Location:        e.Location,
		StartsAt:        e.StartsAt,
		EndsAt:          e.EndsAt,
		Capacity:        e.Capacity,
		RegistrationFee: e.RegistrationFee,
		Version:         e.Version,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

// CreateEventRequest creates an event.
type CreateEventRequest struct {
	Title           string          `json:"title" binding:"required"`
	Description     string          `json:"description"`
	Location        string          `json:"location"`
	StartsAt        time.Time       `json:"startsAt" binding:"required"`
	EndsAt          time.Time       `json:"endsAt" binding:"required"`
	Capacity        int             `json:"capacity"`
	RegistrationFee decimal.Decimal `json:"registrationFee"`
}

// UpdateEventRequest updates an event.
type UpdateEventRequest struct {
	Title           *string          `json:"title"`
	Description     *string          `json:"description"`
	Location        *string          `json:"location"`
	StartsAt        *time.Time       `json:"startsAt"`
	EndsAt          *time.Time       `json:"endsAt"`
	Capacity        *int             `json:"capacity"`
	RegistrationFee *decimal.Decimal `json:"registrationFee"`
	Version         int              `json:"version" binding:"required,min=1"`
}

// EventListQuery filters events by date range.
type EventListQuery struct {
	From *time.Time `form:"from"`
	To   *time.Time `form:"to"`
}

// RegistrationResponse is an event signup.
type RegistrationResponse struct {
	ID           string          `json:"id"`
	EventID      string          `json:"eventId"`
	UserID       string          `json:"userId"`
	FeePaid      decimal.Decimal `json:"feePaid"`
	RegisteredAt time.Time       `json:"registeredAt"`
}

// FromRegistration creates RegistrationResponse from event.Registration.
func FromRegistration(r *event.Registration) RegistrationResponse {
	return RegistrationResponse{
		ID:           r.ID.String(),
		EventID:      r.EventID.String(),
		UserID:       r.UserID.String(),
		FeePaid:      r.FeePaid,
		RegisteredAt: r.RegisteredAt,
	}
}
