package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/buildhive/buildhive/internal/services"
	"github.com/buildhive/buildhive/pkg/response"
)

// TenantHandler exposes tenant provisioning endpoints.
type TenantHandler struct {
	svc *services.TenantService
}

// NewTenantHandler constructs a TenantHandler.
func NewTenantHandler(svc *services.TenantService) (*TenantHandler, error) {
	if svc == nil {
		return nil, errors.New("tenant handler: tenant service is required")
	}
	return &TenantHandler{svc: svc}, nil
}

type createTenantRequest struct {
	Name string `json:"name" validate:"required,min=2,max=128"`
	Slug string `json:"slug" validate:"required,min=2,max=64,slug"`
}

// GET /api/tenants
func (h *TenantHandler) List(c *gin.Context) {
	tenants, err := h.svc.ListTenants(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, tenants)
}

// GET /api/tenants/:id
func (h *TenantHandler) Get(c *gin.Context) {
	tenant, err := h.svc.GetTenant(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, tenant)
}

// POST /api/tenants
func (h *TenantHandler) Create(c *gin.Context) {
	var body createTenantRequest
	if !bindAndValidate(c, &body) {
		return
	}

	tenant, err := h.svc.CreateTenant(requestContext(c), services.CreateTenantInput{
		Name: body.Name,
		Slug: body.Slug,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, tenant)
}
