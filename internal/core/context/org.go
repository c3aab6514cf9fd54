package context

import (
	"context"
	"encoding/json"

	"parishdesk/internal/core/security"
)

// OrgContext contains the resolved organization (tenant) scope for a request.
// Produced by the organization middleware stage, consumed by the RBAC and
// feature-flag stages and by route handlers.
type OrgContext struct {
	OrgID    string
	Slug     string
	Role     string
	Settings json.RawMessage
	Features []string
}

type orgContextKey struct{}

// WithOrg adds OrgContext to context.
func WithOrg(ctx context.Context, org *OrgContext) context.Context {
	return context.WithValue(ctx, orgContextKey{}, org)
}

// GetOrg returns OrgContext from context, or nil outside organization routes.
func GetOrg(ctx context.Context) *OrgContext {
	if v, ok := ctx.Value(orgContextKey{}).(*OrgContext); ok {
		return v
	}
	return nil
}

// GetOrgID returns the organization ID from context or empty string.
func GetOrgID(ctx context.Context) string {
	if o := GetOrg(ctx); o != nil {
		return o.OrgID
	}
	return ""
}

// GetOrgRole returns the effective user's role in the resolved organization.
func GetOrgRole(ctx context.Context) string {
	if o := GetOrg(ctx); o != nil {
		return o.Role
	}
	return ""
}

// HasFeature reports whether the resolved organization has a feature enabled.
func (o *OrgContext) HasFeature(feature string) bool {
	for _, f := range o.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// OrgFlags evaluates feature flags against the organization resolved into
// the request context. No resolved organization means no features.
type OrgFlags struct{}

var _ security.FeatureFlagProvider = OrgFlags{}

func (OrgFlags) IsEnabled(ctx context.Context, feature string) bool {
	if org := GetOrg(ctx); org != nil {
		return org.HasFeature(feature)
	}
	return false
}
