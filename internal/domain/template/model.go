// Package template implements message templates with placeholder rendering.
package template

import (
	"context"
	"regexp"
	"strings"

	"parishdesk/internal/core/apperror"
	"parishdesk/internal/core/entity"
	"parishdesk/internal/core/id"
)

// placeholderPattern matches {{key}} tokens. Keys are word characters,
// optionally dotted ("member.first_name").
var placeholderPattern = regexp.MustCompile(`\{\{\s*([\w.]+)\s*\}\}`)

// Template is an organization-scoped message template. The body carries
// {{key}} placeholders filled in at render time.
type Template struct {
	entity.Tenanted

	Name    string `db:"name" json:"name"`
	Subject string `db:"subject" json:"subject,omitempty"`
	Body    string `db:"body" json:"body"`
}

// New creates a template bound to an organization.
func New(orgID id.ID, name, body string) *Template {
	return &Template{
		Tenanted: entity.NewTenanted(orgID),
		Name:     strings.TrimSpace(name),
		Body:     body,
	}
}

// Validate checks template invariants.
func (t *Template) Validate(ctx context.Context) error {
	if strings.TrimSpace(t.Name) == "" {
		return apperror.NewValidation("template name is required").WithDetail("field", "name")
	}
	if strings.TrimSpace(t.Body) == "" {
		return apperror.NewValidation("template body is required").WithDetail("field", "body")
	}
	if id.IsNil(t.OrganizationID) {
		return apperror.NewValidation("organization is required").WithDetail("field", "organizationId")
	}
	return nil
}

// Placeholders returns the distinct placeholder keys in subject and body,
// in order of first appearance.
func (t *Template) Placeholders() []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, text := range []string{t.Subject, t.Body} {
		for _, match := range placeholderPattern.FindAllStringSubmatch(text, -1) {
			key := match[1]
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
	}
	return keys
}

// Render substitutes placeholder values into the subject and body. Every
// placeholder must have a value; missing keys fail the render.
func (t *Template) Render(values map[string]string) (subject, body string, err error) {
	var missing []string
	for _, key := range t.Placeholders() {
		if _, ok := values[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return "", "", apperror.NewValidation("template has unresolved placeholders").
			WithDetail("missing", missing)
	}

	replace := func(text string) string {
		return placeholderPattern.ReplaceAllStringFunc(text, func(token string) string {
			key := placeholderPattern.FindStringSubmatch(token)[1]
			return values[key]
		})
	}
	return replace(t.Subject), replace(t.Body), nil
}
