package dto

import (
	"time"

	"parishdesk/internal/domain/template"
)

// TemplateResponse is the public view of a message template.
type TemplateResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Subject      string    `json:"subject,omitempty"`
	Body         string    `json:"body"`
	Placeholders []string  `json:"placeholders"`
	Version      int       `json:"version"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// FromTemplate creates TemplateResponse from template.Template.
func FromTemplate(t *template.Template) TemplateResponse {
	return TemplateResponse{
		ID:           t.ID.String(),
		Name:         t.Name,
		Subject:      t.Subject,
		Body:         t.Body,
		Placeholders: t.Placeholders(),
		Version:      t.Version,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

// CreateTemplateRequest creates a template.
type CreateTemplateRequest struct {
	Name    string `json:"name" binding:"required"`
	Subject string `json:"subject"`
	Body    string `json:"body" binding:"required"`
}

// UpdateTemplateRequest updates a template.
type UpdateTemplateRequest struct {
	Name    *string `json:"name"`
	Subject *string `json:"subject"`
	Body    *string `json:"body"`
	Version int     `json:"version" binding:"required,min=1"`
}

// RenderTemplateRequest substitutes placeholder values.
type RenderTemplateRequest struct {
	Values map[string]string `json:"values" binding:"required"`
}

// RenderTemplateResponse carries the rendered output.
type RenderTemplateResponse struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
