package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"parishdesk/internal/core/apperror"
	appctx "parishdesk/internal/core/context"
	"parishdesk/internal/core/id"
	"parishdesk/internal/domain/membership"
	"parishdesk/internal/domain/organization"
)

// Tenant propagation headers, set for downstream consumers of the resolved
// organization scope. The typed context is authoritative.
const (
	HeaderOrgID       = "x-organization-id"
	HeaderOrgRole     = "x-organization-role"
	HeaderOrgSlug     = "x-organization-slug"
	HeaderOrgSettings = "x-organization-settings"
	HeaderOrgFeatures = "x-organization-features"
)

// OrgResolver resolves an organization slug plus user into tenant scope.
type OrgResolver interface {
	Resolve(ctx context.Context, slug string, userID id.ID) (*membership.Resolution, error)
}

// Organization resolves tenant scope for /org/{slug} routes: it extracts the
// slug, requires a live membership for the effective user, and installs the
// organization, role, and feature list into context and headers. Runs after
// Auth (and Impersonation, so membership is checked for the impersonated
// user). Stage handler: does not call Next.
func Organization(resolver OrgResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := orgSlug(c)
		if slug == "" {
			_ = c.Error(apperror.NewOrganizationRequired(""))
			c.Abort()
			return
		}

		user := appctx.GetUser(c.Request.Context())
		if user == nil {
			_ = c.Error(apperror.NewUnauthorized("authentication required"))
			c.Abort()
			return
		}
		userID, err := id.Parse(user.UserID)
		if err != nil {
			_ = c.Error(apperror.NewUnauthorized("invalid user identity"))
			c.Abort()
			return
		}

		resolution, err := resolver.Resolve(c.Request.Context(), slug, userID)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		settings, err := organization.ParseSettings(resolution.Organization.Settings)
		if err != nil {
			// Malformed settings must not silently grant features.
			_ = c.Error(err)
			c.Abort()
			return
		}

		org := &appctx.OrgContext{
			OrgID:    resolution.Organization.ID.String(),
			Slug:     resolution.Organization.Slug,
			Role:     string(resolution.Membership.Role),
			Settings: resolution.Organization.Settings,
			Features: settings.FeaturesEnabled,
		}

		ctx := appctx.WithOrg(c.Request.Context(), org)
		c.Request = c.Request.WithContext(ctx)

		c.Set("organization_id", org.OrgID)
		c.Request.Header.Set(HeaderOrgID, org.OrgID)
		c.Request.Header.Set(HeaderOrgRole, org.Role)
		c.Request.Header.Set(HeaderOrgSlug, org.Slug)
		c.Request.Header.Set(HeaderOrgSettings, string(org.Settings))
		c.Request.Header.Set(HeaderOrgFeatures, strings.Join(org.Features, ","))
	}
}

// orgSlug extracts the slug from an /org/{slug}/... path. Gin route params
// are not populated yet when stages run from the dispatcher, so this parses
// the raw path.
func orgSlug(c *gin.Context) string {
	path := strings.TrimPrefix(c.Request.URL.Path, "/org/")
	if path == c.Request.URL.Path {
		return ""
	}
	if i := strings.IndexByte(path, '/'); i >= 0 {
		path = path[:i]
	}
	return path
}

// OrgSubPath returns the part of the URL after /org/{slug}. Used by the
// feature gate.
func OrgSubPath(c *gin.Context) string {
	path := strings.TrimPrefix(c.Request.URL.Path, "/org/")
	if path == c.Request.URL.Path {
		return ""
	}
	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[i:]
	}
	return "/"
}
