// Package organization provides the tenant root entity: a church/parish
// account that scopes users, groups, events, and templates.
package organization

import (
	"context"
	"encoding/json"
	"regexp"

	"parishdesk/internal/core/apperror"
	"parishdesk/internal/core/entity"
)

// slugPattern constrains slugs to URL-safe lowercase identifiers.
var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,62}[a-z0-9]$`)

// Organization represents a tenant account.
type Organization struct {
	entity.Base

	// Name is the display name of the congregation.
	Name string `db:"name" json:"name"`

	// Slug is the unique URL identifier, used in /org/{slug} routes.
	Slug string `db:"slug" json:"slug"`

	// Settings is the raw settings blob (JSONB). It stays raw at the model
	// level: the feature-flag stage owns parsing, and a malformed blob must
	// fail there, not silently at scan time.
	Settings json.RawMessage `db:"settings" json:"settings,omitempty"`
}

// Settings is the parsed shape of the settings blob.
type Settings struct {
	FeaturesEnabled []string `json:"features_enabled"`
	Timezone        string   `json:"timezone,omitempty"`
	Plan            string   `json:"plan,omitempty"`
}

// ParseSettings decodes a settings blob. An empty blob yields zero settings;
// malformed JSON is an error, never a silent allow.
func ParseSettings(raw json.RawMessage) (Settings, error) {
	var s Settings
	if len(raw) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return s, apperror.NewInternal(err).WithDetail("reason", "malformed organization settings")
	}
	return s, nil
}

// New creates an Organization with defaults.
func New(name, slug string) *Organization {
	return &Organization{
		Base: entity.NewBase(),
		Name: name,
		Slug: slug,
	}
}

// Validate implements entity.Validatable.
func (o *Organization) Validate(ctx context.Context) error {
	if o.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if o.Slug == "" {
		return apperror.NewValidation("slug is required").WithDetail("field", "slug")
	}
	if !slugPattern.MatchString(o.Slug) {
		return apperror.NewValidation("slug must be lowercase letters, digits and hyphens").
			WithDetail("field", "slug").
			WithDetail("value", o.Slug)
	}
	if len(o.Settings) > 0 {
		if _, err := ParseSettings(o.Settings); err != nil {
			return apperror.NewValidation("settings must be valid JSON").
				WithDetail("field", "settings")
		}
	}
	return nil
}

// HasFeature parses the settings blob and checks the feature list.
func (o *Organization) HasFeature(feature string) bool {
	s, err := ParseSettings(o.Settings)
	if err != nil {
		return false
	}
	for _, f := range s.FeaturesEnabled {
		if f == feature {
			return true
		}
	}
	return false
}
