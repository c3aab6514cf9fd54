package template

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parishdesk/internal/core/apperror"
	"parishdesk/internal/core/id"
)

func TestTemplate_Placeholders(t *testing.T) {
	tpl := New(id.New(), "welcome", "Hi {{first_name}}, welcome to {{org.name}}! See you, {{first_name}}.")
	tpl.Subject = "Welcome {{first_name}}"

	assert.Equal(t, []string{"first_name", "org.name"}, tpl.Placeholders())
}

func TestTemplate_Render(t *testing.T) {
	tpl := New(id.New(), "welcome", "Hi {{ first_name }}, welcome to {{org_name}}!")
	tpl.Subject = "Welcome to {{org_name}}"

	subject, body, err := tpl.Render(map[string]string{
		"first_name": "Anna",
		"org_name":   "St. Luke",
	})
	require.NoError(t, err)
	assert.Equal(t, "Welcome to St. Luke", subject)
	assert.Equal(t, "Hi Anna, welcome to St. Luke!", body)
}

func TestTemplate_Render_MissingKey(t *testing.T) {
	tpl := New(id.New(), "welcome", "Hi {{first_name}} {{last_name}}")

	_, _, err := tpl.Render(map[string]string{"first_name": "Anna"})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Equal(t, []string{"last_name"}, appErr.Details["missing"])
}

func TestTemplate_Render_NoPlaceholders(t *testing.T) {
	tpl := New(id.New(), "plain", "Service starts at 10am.")

	_, body, err := tpl.Render(nil)
	require.NoError(t, err)
	assert.Equal(t, "Service starts at 10am.", body)
}

func TestTemplate_Validate(t *testing.T) {
	ctx := context.Background()

	valid := New(id.New(), "welcome", "hello")
	assert.NoError(t, valid.Validate(ctx))

	noName := New(id.New(), "  ", "hello")
	assert.Error(t, noName.Validate(ctx))

	noBody := New(id.New(), "welcome", "")
	assert.Error(t, noBody.Validate(ctx))

	noOrg := New(id.Nil(), "welcome", "hello")
	assert.Error(t, noOrg.Validate(ctx))
}
