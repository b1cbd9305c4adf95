package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/buildhive/buildhive/internal/auth"
	"github.com/buildhive/buildhive/pkg/errors"
	"github.com/buildhive/buildhive/pkg/response"
)

const (
	// TenantHeader selects the tenant a request operates in.
	TenantHeader = "X-Tenant-ID"

	CtxTenantIDKey = "tenantID"
)

// TenantContext resolves the tenant a request runs against. An explicit
// X-Tenant-ID header wins; otherwise the user's home tenant from the token
// claims applies. Requests that resolve no tenant pass through with no
// tenant set, and RequireTenant rejects them where one is mandatory.
func TenantContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := strings.TrimSpace(c.GetHeader(TenantHeader))
		if tenantID == "" {
			if v, ok := c.Get(CtxClaimsKey); ok {
				if claims, ok := v.(*iauth.Claims); ok {
					tenantID = claims.TenantID
				}
			}
		}
		if tenantID != "" {
			c.Set(CtxTenantIDKey, tenantID)
		}
		c.Next()
	}
}

// RequireTenant rejects requests whose tenant could not be resolved.
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		if TenantID(c) == "" {
			response.Error(c, errors.ErrMissingTenant)
			c.Abort()
			return
		}
		c.Next()
	}
}

// TenantID returns the resolved tenant id for the request, or "".
func TenantID(c *gin.Context) string {
	v, ok := c.Get(CtxTenantIDKey)
	if !ok {
		return ""
	}
	tenantID, _ := v.(string)
	return tenantID
}

// UserID returns the authenticated user id for the request, or "".
func UserID(c *gin.Context) string {
	v, ok := c.Get(CtxUserIDKey)
	if !ok {
		return ""
	}
	userID, _ := v.(string)
	return userID
}
