package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func namedStage(name string, trail *[]string) Stage {
	return Stage{
		Name: name,
		Handler: func(c *gin.Context) {
			*trail = append(*trail, name)
		},
	}
}

func abortingStage(name string, trail *[]string) Stage {
	return Stage{
		Name: name,
		Handler: func(c *gin.Context) {
			*trail = append(*trail, name)
			c.AbortWithStatus(http.StatusForbidden)
		},
	}
}

func TestStackRegistry_LongestPrefixWins(t *testing.T) {
	public := NewStack("public")
	authed := NewStack("auth")
	org := NewStack("org")
	superadmin := NewStack("superadmin")

	registry := NewStackRegistry()
	registry.Register("/", authed)
	registry.Register("/sign-in", public)
	registry.Register("/org", org)
	registry.Register("/superadmin", superadmin)

	cases := []struct {
		path string
		want *Stack
	}{
		{"/sign-in", public},
		{"/sign-in/", public},
		{"/org/st-luke/events", org},
		{"/org", org},
		{"/organization", authed}, // prefix must match a whole segment
		{"/superadmin/impersonate", superadmin},
		{"/dashboard", authed},
		{"/", authed},
	}
	for _, tc := range cases {
		got := registry.Select(tc.path)
		require.NotNil(t, got, tc.path)
		assert.Equal(t, tc.want.Name, got.Name, tc.path)
	}
}

func TestStackRegistry_NoMatch(t *testing.T) {
	registry := NewStackRegistry()
	registry.Register("/org", NewStack("org"))

	assert.Nil(t, registry.Select("/dashboard"))
}

func TestDispatch_RunsStagesInOrder(t *testing.T) {
	var trail []string
	stack := NewStack("test",
		namedStage("first", &trail),
		namedStage("second", &trail),
		namedStage("third", &trail),
	)

	registry := NewStackRegistry()
	registry.Register("/", stack)

	router := gin.New()
	router.Use(Dispatch(registry))
	router.GET("/x", func(c *gin.Context) {
		trail = append(trail, "handler")
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"first", "second", "third", "handler"}, trail)
}

func TestDispatch_AbortShortCircuits(t *testing.T) {
	var trail []string
	stack := NewStack("test",
		namedStage("first", &trail),
		abortingStage("gate", &trail),
		namedStage("never", &trail),
	)

	registry := NewStackRegistry()
	registry.Register("/", stack)

	router := gin.New()
	router.Use(Dispatch(registry))
	router.GET("/x", func(c *gin.Context) {
		trail = append(trail, "handler")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, []string{"first", "gate"}, trail)
}

func TestStack_Append(t *testing.T) {
	var trail []string
	base := NewStack("base", namedStage("a", &trail))
	extended := base.Append("extended", namedStage("b", &trail))

	assert.Len(t, base.Stages, 1)
	require.Len(t, extended.Stages, 2)
	assert.Equal(t, "extended", extended.Name)
	assert.Equal(t, "a", extended.Stages[0].Name)
	assert.Equal(t, "b", extended.Stages[1].Name)
}
