// Package entity provides base types for all domain entities.
package entity

import (
	"context"
	"time"

	"parishdesk/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants without database access.
type Validatable interface {
	// Validate checks entity invariants.
	// Returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// Base contains common fields for all persisted entities.
type Base struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// Version for optimistic locking (incremented on each update)
	Version int `db:"version" json:"version"`

	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
	DeletedAt *time.Time `db:"deleted_at" json:"-"`
}

// NewBase creates a Base with a generated ID and timestamps.
func NewBase() Base {
	now := time.Now().UTC()
	return Base{
		ID:        id.New(),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsDeleted reports whether the entity is soft-deleted.
func (b *Base) IsDeleted() bool {
	return b.DeletedAt != nil
}

// MarkDeleted sets the soft-delete timestamp.
func (b *Base) MarkDeleted() {
	now := time.Now().UTC()
	b.DeletedAt = &now
}

// Touch bumps the update timestamp.
func (b *Base) Touch() {
	b.UpdatedAt = time.Now().UTC()
}

// Tenanted adds the organization scope shared by all org-owned entities.
// All queries over tenanted tables filter by organization_id.
type Tenanted struct {
	Base

	OrganizationID id.ID `db:"organization_id" json:"organizationId"`
}

// NewTenanted creates a Tenanted base bound to an organization.
func NewTenanted(orgID id.ID) Tenanted {
	return Tenanted{
		Base:           NewBase(),
		OrganizationID: orgID,
	}
}
