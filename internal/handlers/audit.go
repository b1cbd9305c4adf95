package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/buildhive/buildhive/internal/middleware"
	"github.com/buildhive/buildhive/internal/services"
	"github.com/buildhive/buildhive/pkg/response"
)

// AuditHandler exposes the tenant audit trail.
type AuditHandler struct {
	svc *services.AuditService
}

// NewAuditHandler constructs an AuditHandler.
func NewAuditHandler(svc *services.AuditService) (*AuditHandler, error) {
	if svc == nil {
		return nil, errors.New("audit handler: audit service is required")
	}
	return &AuditHandler{svc: svc}, nil
}

// GET /api/audit
func (h *AuditHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	logs, err := h.svc.ListLogs(requestContext(c), middleware.TenantID(c), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, logs)
}
