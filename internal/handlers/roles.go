package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/buildhive/buildhive/internal/middleware"
	"github.com/buildhive/buildhive/internal/rbac"
	"github.com/buildhive/buildhive/internal/services"
	"github.com/buildhive/buildhive/pkg/response"
)

// RoleHandler exposes role management and permission introspection endpoints.
type RoleHandler struct {
	svc    *services.RBACService
	engine *rbac.Engine
}

// NewRoleHandler constructs a RoleHandler.
func NewRoleHandler(svc *services.RBACService, engine *rbac.Engine) (*RoleHandler, error) {
	if svc == nil {
		return nil, errors.New("role handler: rbac service is required")
	}
	if engine == nil {
		return nil, errors.New("role handler: decision engine is required")
	}
	return &RoleHandler{svc: svc, engine: engine}, nil
}

type createRoleRequest struct {
	Name        string   `json:"name" validate:"required,min=2,max=128"`
	Description string   `json:"description" validate:"omitempty,max=512"`
	Permissions []string `json:"permissions" validate:"required,min=1"`
}

type updateRoleRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=2,max=128"`
	Description *string  `json:"description" validate:"omitempty,max=512"`
	Permissions []string `json:"permissions"`
}

type assignRoleRequest struct {
	UserID    string     `json:"user_id" validate:"required"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// GET /api/roles
func (h *RoleHandler) List(c *gin.Context) {
	roles, err := h.svc.ListRoles(requestContext(c), middleware.TenantID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, roles)
}

// GET /api/roles/:id
func (h *RoleHandler) Get(c *gin.Context) {
	role, err := h.svc.GetRole(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, role)
}

// POST /api/roles
func (h *RoleHandler) Create(c *gin.Context) {
	var body createRoleRequest
	if !bindAndValidate(c, &body) {
		return
	}

	role, err := h.svc.CreateRole(requestContext(c), services.CreateRoleInput{
		TenantID:    middleware.TenantID(c),
		Name:        body.Name,
		Description: body.Description,
		Permissions: body.Permissions,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, role)
}

// PATCH /api/roles/:id
func (h *RoleHandler) Update(c *gin.Context) {
	var body updateRoleRequest
	if !bindAndValidate(c, &body) {
		return
	}

	role, err := h.svc.UpdateRole(requestContext(c), c.Param("id"), services.UpdateRoleInput{
		Name:        body.Name,
		Description: body.Description,
		Permissions: body.Permissions,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, role)
}

// DELETE /api/roles/:id
func (h *RoleHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteRole(requestContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// POST /api/roles/:id/assignments
func (h *RoleHandler) Assign(c *gin.Context) {
	var body assignRoleRequest
	if !bindAndValidate(c, &body) {
		return
	}

	err := h.svc.AssignRole(requestContext(c), services.AssignRoleInput{
		UserID:     body.UserID,
		RoleID:     c.Param("id"),
		AssignedBy: middleware.UserID(c),
		ExpiresAt:  body.ExpiresAt,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"assigned": true})
}

// DELETE /api/roles/:id/assignments/:userId
func (h *RoleHandler) Revoke(c *gin.Context) {
	err := h.svc.RevokeRole(requestContext(c), c.Param("userId"), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"revoked": true})
}

// GET /api/users/:id/roles
func (h *RoleHandler) UserRoles(c *gin.Context) {
	roles, err := h.svc.ListUserRoles(requestContext(c), c.Param("id"), middleware.TenantID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, roles)
}

// GET /api/me/permissions
func (h *RoleHandler) MyPermissions(c *gin.Context) {
	perms, err := h.engine.Permissions(requestContext(c), middleware.UserID(c), middleware.TenantID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"tenant_id":   perms.TenantID,
		"roles":       perms.Roles,
		"permissions": perms.Effective.Strings(),
	})
}
