package dto

import (
	"time"

	"parishdesk/internal/domain/group"
)

// GroupResponse is the public view of a small group.
type GroupResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	MeetingDay  string    `json:"meetingDay,omitempty"`
	IsOpen      bool      `json:"isOpen"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// FromGroup creates GroupResponse from group.Group.
func FromGroup(g *group.Group) GroupResponse {
	return GroupResponse{
		ID:          g.ID.String(),
		Name:        g.Name,
		Description: g.Description,
		MeetingDay:  g.MeetingDay,
		IsOpen:      g.IsOpen,
		Version:     g.Version,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

// CreateGroupRequest creates a group.
type CreateGroupRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	MeetingDay  string `json:"meetingDay"`
	IsOpen      bool   `json:"isOpen"`
}

// UpdateGroupRequest updates a group.
type UpdateGroupRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	MeetingDay  *string `json:"meetingDay"`
	IsOpen      *bool   `json:"isOpen"`
	Version     int     `json:"version" binding:"required,min=1"`
}

// GroupMemberResponse is a roster row.
type GroupMemberResponse struct {
	ID       string    `json:"id"`
	GroupID  string    `json:"groupId"`
	UserID   string    `json:"userId"`
	IsLeader bool      `json:"isLeader"`
	JoinedAt time.Time `json:"joinedAt"`
}

// FromGroupMember creates GroupMemberResponse from group.Member.
func FromGroupMember(m *group.Member) GroupMemberResponse {
	return GroupMemberResponse{
		ID:       m.ID.String(),
		GroupID:  m.GroupID.String(),
		UserID:   m.UserID.String(),
		IsLeader: m.IsLeader,
		JoinedAt: m.JoinedAt,
	}
}

// AddGroupMemberRequest adds a user to the roster.
type AddGroupMemberRequest struct {
	UserID   string `json:"userId" binding:"required"`
	IsLeader bool   `json:"isLeader"`
}
