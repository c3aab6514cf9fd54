package middleware

import (
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
)

// Stage is one named step of a middleware stack. Naming keeps the composed
// pipeline inspectable in logs and tests.
type Stage struct {
	Name    string
	Handler gin.HandlerFunc
}

// Stack is an ordered list of stages applied to a route prefix.
type Stack struct {
	Name   string
	Stages []Stage
}

// NewStack builds a stack from named stages.
func NewStack(name string, stages ...Stage) *Stack {
	return &Stack{Name: name, Stages: stages}
}

// Append returns a new stack with additional stages, preserving the receiver.
func (s *Stack) Append(name string, stages ...Stage) *Stack {
	combined := make([]Stage, 0, len(s.Stages)+len(stages))
	combined = append(combined, s.Stages...)
	combined = append(combined, stages...)
	return &Stack{Name: name, Stages: combined}
}

// StackRegistry maps path prefixes to stacks. Selection is by longest
// matching prefix, so /admin routes get the superadmin stack even though
// "/" also matches.
type StackRegistry struct {
	prefixes []string // sorted longest-first
	stacks   map[string]*Stack
}

// NewStackRegistry creates an empty registry.
func NewStackRegistry() *StackRegistry {
	return &StackRegistry{stacks: make(map[string]*Stack)}
}

// Register binds a stack to a path prefix. Registering the same prefix twice
// replaces the earlier stack.
func (r *StackRegistry) Register(prefix string, stack *Stack) {
	if _, exists := r.stacks[prefix]; !exists {
		r.prefixes = append(r.prefixes, prefix)
		sort.Slice(r.prefixes, func(i, j int) bool {
			return len(r.prefixes[i]) > len(r.prefixes[j])
		})
	}
	r.stacks[prefix] = stack
}

// Select returns the stack for the longest prefix matching path, or nil when
// nothing matches.
func (r *StackRegistry) Select(path string) *Stack {
	for _, prefix := range r.prefixes {
		if matchesPrefix(path, prefix) {
			return r.stacks[prefix]
		}
	}
	return nil
}

// matchesPrefix is a path-segment-aware prefix match: /organization must not
// match the /org prefix.
func matchesPrefix(path, prefix string) bool {
	if prefix == "/" {
		return true
	}
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}

// Dispatch runs the registered stack for each request. Stages run in order;
// a stage aborting the gin context stops the remainder of the stack.
func Dispatch(registry *StackRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		stack := registry.Select(c.Request.URL.Path)
		if stack == nil {
			c.Next()
			return
		}

		c.Set("middleware_stack", stack.Name)
		for _, stage := range stack.Stages {
			stage.Handler(c)
			if c.IsAborted() {
				return
			}
		}
		c.Next()
	}
}
