package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/buildhive/buildhive/internal/rbac"
	"github.com/buildhive/buildhive/pkg/errors"
	"github.com/buildhive/buildhive/pkg/metrics"
	"github.com/buildhive/buildhive/pkg/response"
)

// ContextExtractor derives the resource context for a contextual permission
// check from the request, e.g. the project id out of the route params.
type ContextExtractor func(c *gin.Context) *rbac.Context

// RequirePermission checks that the authenticated user holds the permission
// in the request's tenant. An optional extractor supplies resource context so
// project membership and ownership rules can apply when role grants do not.
func RequirePermission(engine *rbac.Engine, permission string, extractor ...ContextExtractor) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := UserID(c)
		if userID == "" {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		var rctx *rbac.Context
		if len(extractor) > 0 && extractor[0] != nil {
			rctx = extractor[0](c)
		}

		allowed, err := engine.HasPermission(c.Request.Context(), userID, TenantID(c), permission, rctx)
		if err != nil {
			metrics.PermissionChecks.WithLabelValues(permission, "error").Inc()
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": gin.H{"code": errors.ErrInternalServer.Code, "message": "permission check failed"}})
			return
		}
		if !allowed {
			metrics.PermissionChecks.WithLabelValues(permission, "denied").Inc()
			response.Error(c, errors.InsufficientPermission(permission))
			c.Abort()
			return
		}
		metrics.PermissionChecks.WithLabelValues(permission, "allowed").Inc()
		c.Next()
	}
}
