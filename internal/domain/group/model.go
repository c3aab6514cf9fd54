// Package group implements small groups and their rosters.
package group

import (
	"context"
	"strings"
	"time"

	"parishdesk/internal/core/apperror"
	"parishdesk/internal/core/entity"
	"parishdesk/internal/core/id"
)

// Group is an organization-scoped small group (ministry team, bible study,
// volunteer crew).
type Group struct {
	entity.Tenanted

	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description,omitempty"`

	// MeetingDay is a free-form schedule hint ("Wednesdays 7pm").
	MeetingDay string `db:"meeting_day" json:"meetingDay,omitempty"`
	IsOpen     bool   `db:"is_open" json:"isOpen"`
}

// New creates a group bound to an organization.
func New(orgID id.ID, name string) *Group {
	return &Group{
		Tenanted: entity.NewTenanted(orgID),
		Name:     strings.TrimSpace(name),
		IsOpen:   true,
	}
}

// Validate checks group invariants.
func (g *Group) Validate(ctx context.Context) error {
	if strings.TrimSpace(g.Name) == "" {
		return apperror.NewValidation("group name is required").WithDetail("field", "name")
	}
	if len(g.Name) > 200 {
		return apperror.NewValidation("group name too long").WithDetail("field", "name")
	}
	if id.IsNil(g.OrganizationID) {
		return apperror.NewValidation("organization is required").WithDetail("field", "organizationId")
	}
	return nil
}

// Member is a roster row linking a user to a group.
type Member struct {
	ID       id.ID     `db:"id" json:"id"`
	GroupID  id.ID     `db:"group_id" json:"groupId"`
	UserID   id.ID     `db:"user_id" json:"userId"`
	IsLeader bool      `db:"is_leader" json:"isLeader"`
	JoinedAt time.Time `db:"joined_at" json:"joinedAt"`
}

// NewMember creates a roster row.
func NewMember(groupID, userID id.ID, isLeader bool) *Member {
	return &Member{
		ID:       id.New(),
		GroupID:  groupID,
		UserID:   userID,
		IsLeader: isLeader,
		JoinedAt: time.Now().UTC(),
	}
}
