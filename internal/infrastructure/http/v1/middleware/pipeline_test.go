package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parishdesk/internal/core/apperror"
	appctx "parishdesk/internal/core/context"
	"parishdesk/internal/core/id"
	"parishdesk/internal/core/security"
	"parishdesk/internal/domain/auth"
	"parishdesk/internal/domain/membership"
	"parishdesk/internal/domain/organization"
	"parishdesk/internal/infrastructure/ratelimit"
)

type fakeSessions struct {
	sessions map[string]*auth.Session
}

func (f *fakeSessions) GetSession(ctx context.Context, token string) (*auth.Session, error) {
	s, ok := f.sessions[token]
	if !ok {
		return nil, apperror.NewUnauthorized("session not found")
	}
	return s, nil
}

type fakeJWT struct{}

func (fakeJWT) ValidateToken(string) (*appctx.UserContext, error) {
	return nil, apperror.NewUnauthorized("invalid token")
}

type fakeResolver struct {
	resolutions map[string]*membership.Resolution // slug+":"+userID
}

func (f *fakeResolver) Resolve(ctx context.Context, slug string, userID id.ID) (*membership.Resolution, error) {
	res, ok := f.resolutions[slug+":"+userID.String()]
	if !ok {
		return nil, apperror.NewOrganizationRequired(slug)
	}
	return res, nil
}

type fakeImpersonations struct {
	// actorID -> targetID
	active map[string]string
	users  map[string]*auth.User
}

func (f *fakeImpersonations) ValidateImpersonation(ctx context.Context, actorID, claimedTargetID id.ID) (*auth.User, error) {
	target, ok := f.active[actorID.String()]
	if !ok || target != claimedTargetID.String() {
		return nil, apperror.NewUnauthorized("impersonation state mismatch")
	}
	u, ok := f.users[target]
	if !ok {
		return nil, apperror.NewUnauthorized("impersonated user no longer exists")
	}
	return u, nil
}

type pipelineFixture struct {
	router    *gin.Engine
	sessions  *fakeSessions
	resolver  *fakeResolver
	imps      *fakeImpersonations
	limiter   *ratelimit.MemoryLimiter
	adminUser *auth.User
	member    *auth.User
	org       *organization.Organization
}

func newSession(u *auth.User) *auth.Session {
	return &auth.Session{
		Token:        "tok-" + u.ID.String(),
		UserID:       u.ID,
		Email:        u.Email,
		IsSuperadmin: u.IsSuperadmin,
		CreatedAt:    time.Now().UTC(),
		ExpiresAt:    time.Now().UTC().Add(time.Hour),
	}
}

// newPipelineFixture wires the four stacks through the dispatcher the same
// way the router does, against fakes.
func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()

	admin := auth.NewUser("root@parishdesk.test", "x")
	admin.IsSuperadmin = true
	member := auth.NewUser("member@stluke.test", "x")

	org := organization.New("St. Luke", "st-luke")
	org.Settings = json.RawMessage(`{"features_enabled":["events"]}`)

	f := &pipelineFixture{
		sessions: &fakeSessions{sessions: map[string]*auth.Session{}},
		resolver: &fakeResolver{resolutions: map[string]*membership.Resolution{}},
		imps: &fakeImpersonations{
			active: map[string]string{},
			users:  map[string]*auth.User{},
		},
		limiter:   ratelimit.NewMemoryLimiter(ratelimit.Config{Limit: 10, Window: time.Minute}),
		adminUser: admin,
		member:    member,
		org:       org,
	}
	f.sessions.sessions[newSession(admin).Token] = newSession(admin)
	f.sessions.sessions[newSession(member).Token] = newSession(member)
	f.imps.users[member.ID.String()] = member

	m := membership.New(org.ID, member.ID, security.RoleMember)
	f.resolver.resolutions["st-luke:"+member.ID.String()] = &membership.Resolution{
		Organization: org,
		Membership:   m,
	}

	authStage := Stage{Name: "auth", Handler: Auth(f.sessions, fakeJWT{})}
	impStage := Stage{Name: "impersonation", Handler: Impersonation(f.imps, false)}

	public := NewStack("public",
		Stage{Name: "auth-optional", Handler: OptionalAuth(f.sessions, fakeJWT{})},
	)
	authed := NewStack("auth", authStage, impStage)
	orgStack := authed.Append("org",
		Stage{Name: "organization", Handler: Organization(f.resolver)},
		Stage{Name: "rbac", Handler: RBAC()},
		Stage{Name: "features", Handler: FeatureGate(appctx.OrgFlags{})},
		Stage{Name: "ratelimit", Handler: RateLimit(f.limiter)},
	)
	superadmin := authed.Append("superadmin",
		Stage{Name: "superadmin", Handler: RequireSuperadmin()},
	)

	registry := NewStackRegistry()
	registry.Register("/", authed)
	registry.Register("/sign-in", public)
	registry.Register("/org", orgStack)
	registry.Register("/superadmin", superadmin)

	router := gin.New()
	router.Use(ErrorHandler())
	router.Use(Dispatch(registry))

	echo := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user":    c.Request.Header.Get(HeaderUserID),
			"real":    c.Request.Header.Get(HeaderRealUserID),
			"imp":     c.Request.Header.Get(HeaderImpersonatedID),
			"org":     c.Request.Header.Get(HeaderOrgID),
			"role":    c.Request.Header.Get(HeaderOrgRole),
			"feature": c.Request.Header.Get(HeaderOrgFeatures),
		})
	}
	router.GET("/sign-in", echo)
	router.GET("/dashboard", echo)
	router.GET("/superadmin/users", echo)
	router.GET("/org/:slug/events", echo)
	router.GET("/org/:slug/reports", echo)
	router.GET("/org/:slug/members", echo)
	router.DELETE("/org/:slug/members", echo)

	f.router = router
	return f
}

func (f *pipelineFixture) request(t *testing.T, method, path string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func withSession(u *auth.User) func(*http.Request) {
	return func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "tok-" + u.ID.String()})
	}
}

func asBrowser(req *http.Request) {
	req.Header.Set("Accept", "text/html")
}

func body(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	return m
}

func TestPipeline_PublicStackSetsNoOrgHeaders(t *testing.T) {
	f := newPipelineFixture(t)

	w := f.request(t, http.MethodGet, "/sign-in", nil)
	require.Equal(t, http.StatusOK, w.Code)

	got := body(t, w)
	assert.Empty(t, got["org"])
	assert.Empty(t, got["role"])
	assert.Empty(t, got["user"])
}

func TestPipeline_AuthRequired(t *testing.T) {
	f := newPipelineFixture(t)

	w := f.request(t, http.MethodGet, "/dashboard", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Browsers get sent to sign-in instead.
	w = f.request(t, http.MethodGet, "/dashboard", asBrowser)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/sign-in", w.Header().Get("Location"))
}

func TestPipeline_OrgResolution(t *testing.T) {
	f := newPipelineFixture(t)

	w := f.request(t, http.MethodGet, "/org/st-luke/events", withSession(f.member))
	require.Equal(t, http.StatusOK, w.Code)

	got := body(t, w)
	assert.Equal(t, f.org.ID.String(), got["org"])
	assert.Equal(t, "member", got["role"])
	assert.Equal(t, "events", got["feature"])
}

func TestPipeline_OrgWithoutMembershipRedirectsHome(t *testing.T) {
	f := newPipelineFixture(t)

	// Superadmin has no membership in st-luke.
	w := f.request(t, http.MethodGet, "/org/st-luke/events", func(req *http.Request) {
		withSession(f.adminUser)(req)
		asBrowser(req)
	})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestPipeline_RBACBlocksMemberDeletes(t *testing.T) {
	f := newPipelineFixture(t)

	w := f.request(t, http.MethodDelete, "/org/st-luke/members", withSession(f.member))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPipeline_MalformedSettingsAbortOrgStage(t *testing.T) {
	f := newPipelineFixture(t)

	bad := organization.New("St. Jude", "st-jude")
	bad.Settings = json.RawMessage(`{"features_enabled": [`)
	m := membership.New(bad.ID, f.member.ID, security.RoleMember)
	f.resolver.resolutions["st-jude:"+f.member.ID.String()] = &membership.Resolution{
		Organization: bad,
		Membership:   m,
	}

	// A settings blob that does not parse must never fall through to the
	// feature gate; browsers land on the error page.
	w := f.request(t, http.MethodGet, "/org/st-jude/events", func(req *http.Request) {
		withSession(f.member)(req)
		asBrowser(req)
	})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/error", w.Header().Get("Location"))

	w = f.request(t, http.MethodGet, "/org/st-jude/events", withSession(f.member))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestPipeline_SuperadminBypassesRBAC(t *testing.T) {
	f := newPipelineFixture(t)

	// A superadmin holding only a member-role membership still gets writes:
	// superadmin privilege trumps the membership role.
	m := membership.New(f.org.ID, f.adminUser.ID, security.RoleMember)
	f.resolver.resolutions["st-luke:"+f.adminUser.ID.String()] = &membership.Resolution{
		Organization: f.org,
		Membership:   m,
	}

	w := f.request(t, http.MethodDelete, "/org/st-luke/members", withSession(f.adminUser))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPipeline_FeatureGateRedirectsToUpgrade(t *testing.T) {
	f := newPipelineFixture(t)

	// reports is not in features_enabled.
	w := f.request(t, http.MethodGet, "/org/st-luke/reports", func(req *http.Request) {
		withSession(f.member)(req)
		asBrowser(req)
	})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/org/st-luke/upgrade", w.Header().Get("Location"))

	// API clients get the structured error instead.
	w = f.request(t, http.MethodGet, "/org/st-luke/reports", withSession(f.member))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), apperror.CodeFeatureDisabled)
}

func TestPipeline_RateLimit(t *testing.T) {
	f := newPipelineFixture(t)

	for i := 0; i < 10; i++ {
		w := f.request(t, http.MethodGet, "/org/st-luke/events", withSession(f.member))
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
	}

	w := f.request(t, http.MethodGet, "/org/st-luke/events", withSession(f.member))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// Rate limiting is 429 even for browsers, never a redirect.
	w = f.request(t, http.MethodGet, "/org/st-luke/events", func(req *http.Request) {
		withSession(f.member)(req)
		asBrowser(req)
	})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestPipeline_SuperadminStack(t *testing.T) {
	f := newPipelineFixture(t)

	w := f.request(t, http.MethodGet, "/superadmin/users", withSession(f.member))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.request(t, http.MethodGet, "/superadmin/users", withSession(f.adminUser))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPipeline_ImpersonationSubstitutesIdentity(t *testing.T) {
	f := newPipelineFixture(t)
	f.imps.active[f.adminUser.ID.String()] = f.member.ID.String()

	w := f.request(t, http.MethodGet, "/dashboard", func(req *http.Request) {
		withSession(f.adminUser)(req)
		req.AddCookie(&http.Cookie{Name: ImpersonationCookie, Value: f.member.ID.String()})
	})
	require.Equal(t, http.StatusOK, w.Code)

	got := body(t, w)
	assert.Equal(t, f.member.ID.String(), got["user"])
	assert.Equal(t, f.member.ID.String(), got["imp"])
	assert.Equal(t, f.adminUser.ID.String(), got["real"])
}

func TestPipeline_ImpersonationByNonSuperadminClearsCookie(t *testing.T) {
	f := newPipelineFixture(t)

	w := f.request(t, http.MethodGet, "/dashboard", func(req *http.Request) {
		withSession(f.member)(req)
		req.AddCookie(&http.Cookie{Name: ImpersonationCookie, Value: f.adminUser.ID.String()})
		asBrowser(req)
	})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	cleared := false
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == ImpersonationCookie && cookie.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "impersonation cookie should be cleared")
}

func TestPipeline_StaleImpersonationStateRejected(t *testing.T) {
	f := newPipelineFixture(t)
	// Cookie claims member but no persisted state exists.

	w := f.request(t, http.MethodGet, "/dashboard", func(req *http.Request) {
		withSession(f.adminUser)(req)
		req.AddCookie(&http.Cookie{Name: ImpersonationCookie, Value: f.member.ID.String()})
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPipeline_NoResidualImpersonationAfterStop(t *testing.T) {
	f := newPipelineFixture(t)

	before := f.request(t, http.MethodGet, "/dashboard", withSession(f.adminUser))
	require.Equal(t, http.StatusOK, before.Code)

	// Start: state active, cookie present.
	f.imps.active[f.adminUser.ID.String()] = f.member.ID.String()
	during := f.request(t, http.MethodGet, "/dashboard", func(req *http.Request) {
		withSession(f.adminUser)(req)
		req.AddCookie(&http.Cookie{Name: ImpersonationCookie, Value: f.member.ID.String()})
	})
	require.Equal(t, http.StatusOK, during.Code)
	assert.NotEqual(t, body(t, before)["user"], body(t, during)["user"])

	// Stop: state cleared, cookie gone.
	delete(f.imps.active, f.adminUser.ID.String())
	after := f.request(t, http.MethodGet, "/dashboard", withSession(f.adminUser))
	require.Equal(t, http.StatusOK, after.Code)
	assert.Equal(t, body(t, before), body(t, after))
	assert.Empty(t, body(t, after)["imp"])
}

func TestPipeline_RateLimitKeyIsPerOrgAndIP(t *testing.T) {
	f := newPipelineFixture(t)

	other := organization.New("Grace Chapel", "grace")
	other.Settings = json.RawMessage(`{"features_enabled":["events"]}`)
	m := membership.New(other.ID, f.member.ID, security.RoleMember)
	f.resolver.resolutions["grace:"+f.member.ID.String()] = &membership.Resolution{
		Organization: other,
		Membership:   m,
	}
	for i := 0; i < 11; i++ {
		f.request(t, http.MethodGet, "/org/st-luke/events", withSession(f.member))
	}
	w := f.request(t, http.MethodGet, "/org/st-luke/events", withSession(f.member))
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	// A different organization has its own window.
	w = f.request(t, http.MethodGet, "/org/grace/events", withSession(f.member))
	assert.Equal(t, http.StatusOK, w.Code)
}
