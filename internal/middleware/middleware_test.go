package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	iauth "github.com/buildhive/buildhive/internal/auth"
	"github.com/buildhive/buildhive/internal/models"
	"github.com/buildhive/buildhive/internal/rbac"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWT(t *testing.T) *iauth.JWTService {
	t.Helper()
	svc, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "test-secret", Issuer: "buildhive-test"})
	require.NoError(t, err)
	return svc
}

func issueToken(t *testing.T, jwt *iauth.JWTService, userID, tenantID string) string {
	t.Helper()
	token, err := jwt.GenerateAccessToken(iauth.AccessTokenInput{UserID: userID, TenantID: tenantID})
	require.NoError(t, err)
	return token
}

func newAuthedRouter(jwt *iauth.JWTService, handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	chain := append([]gin.HandlerFunc{Auth(jwt), TenantContext()}, handlers...)
	r.GET("/guarded", append(chain, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"tenant": TenantID(c), "user": UserID(c)})
	})...)
	return r
}

func TestAuthRejectsMissingAndMalformedTokens(t *testing.T) {
	jwt := newTestJWT(t)
	router := newAuthedRouter(jwt)

	for _, header := range []string{"", "Basic abc", "Bearer not.a.token"} {
		req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
	}
}

func TestTenantContextHeaderOverridesHomeTenant(t *testing.T) {
	jwt := newTestJWT(t)
	router := newAuthedRouter(jwt)
	token := issueToken(t, jwt, "user-1", "home-tenant")

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(TenantHeader, "other-tenant")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"tenant":"other-tenant"`)
}

func TestTenantContextFallsBackToHomeTenant(t *testing.T) {
	jwt := newTestJWT(t)
	router := newAuthedRouter(jwt)
	token := issueToken(t, jwt, "user-1", "home-tenant")

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"tenant":"home-tenant"`)
}

func TestRequireTenantRejectsUnresolvedTenant(t *testing.T) {
	jwt := newTestJWT(t)
	router := newAuthedRouter(jwt, RequireTenant())
	token := issueToken(t, jwt, "user-1", "")

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "TENANT_REQUIRED")
}

func newPermissionEngine(t *testing.T) (*rbac.Engine, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Tenant{}, &models.User{}, &models.Role{}, &models.UserRoleAssignment{}, &models.Project{}))

	resolver, err := rbac.NewResolver(db)
	require.NoError(t, err)
	cache, err := rbac.NewCache(resolver, rbac.CacheConfig{})
	require.NoError(t, err)
	engine, err := rbac.NewEngine(db, cache)
	require.NoError(t, err)
	return engine, db
}

func TestRequirePermissionDeniesWithoutGrant(t *testing.T) {
	jwt := newTestJWT(t)
	engine, db := newPermissionEngine(t)

	tenant := &models.Tenant{Name: "acme", Slug: "acme", Status: models.TenantStatusActive}
	require.NoError(t, db.Create(tenant).Error)
	user := &models.User{Email: "alice@example.com", Password: "x", TenantID: tenant.ID, IsActive: true}
	require.NoError(t, db.Create(user).Error)

	router := newAuthedRouter(jwt, RequireTenant(), RequirePermission(engine, "projects:delete"))
	token := issueToken(t, jwt, user.ID, tenant.ID)

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
	require.Contains(t, w.Body.String(), "PERMISSION_DENIED")
	require.Contains(t, w.Body.String(), "projects:delete")
}

func TestRequirePermissionAllowsSuperAdmin(t *testing.T) {
	jwt := newTestJWT(t)
	engine, db := newPermissionEngine(t)

	tenant := &models.Tenant{Name: "acme", Slug: "acme", Status: models.TenantStatusActive}
	require.NoError(t, db.Create(tenant).Error)
	admin := &models.User{Email: "root@example.com", Password: "x", TenantID: tenant.ID, IsSuperAdmin: true, IsActive: true}
	require.NoError(t, db.Create(admin).Error)

	router := newAuthedRouter(jwt, RequireTenant(), RequirePermission(engine, "projects:delete"))
	token := issueToken(t, jwt, admin.ID, tenant.ID)

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}
