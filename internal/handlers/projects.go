package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/buildhive/buildhive/internal/middleware"
	"github.com/buildhive/buildhive/internal/rbac"
	"github.com/buildhive/buildhive/internal/services"
	"github.com/buildhive/buildhive/pkg/response"
)

// ProjectHandler exposes project CRUD and membership endpoints.
type ProjectHandler struct {
	svc *services.ProjectService
}

// NewProjectHandler constructs a ProjectHandler.
func NewProjectHandler(svc *services.ProjectService) (*ProjectHandler, error) {
	if svc == nil {
		return nil, errors.New("project handler: project service is required")
	}
	return &ProjectHandler{svc: svc}, nil
}

// ProjectContext derives the resource context for permission checks on
// /projects/:id routes, so managers and members pass without a role grant.
func ProjectContext() middleware.ContextExtractor {
	return func(c *gin.Context) *rbac.Context {
		projectID := c.Param("id")
		if projectID == "" {
			return nil
		}
		return &rbac.Context{ProjectID: projectID}
	}
}

type createProjectRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=128"`
	Description string `json:"description" validate:"omitempty,max=512"`
	ManagerID   string `json:"manager_id" validate:"omitempty"`
}

type projectMemberRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

// GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.svc.ListProjects(requestContext(c), middleware.TenantID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, projects)
}

// GET /api/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	project, err := h.svc.GetProject(requestContext(c), middleware.TenantID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, project)
}

// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var body createProjectRequest
	if !bindAndValidate(c, &body) {
		return
	}

	managerID := body.ManagerID
	if managerID == "" {
		managerID = middleware.UserID(c)
	}

	project, err := h.svc.CreateProject(requestContext(c), services.CreateProjectInput{
		TenantID:    middleware.TenantID(c),
		Name:        body.Name,
		Description: body.Description,
		ManagerID:   managerID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, project)
}

// POST /api/projects/:id/members
func (h *ProjectHandler) AddMember(c *gin.Context) {
	var body projectMemberRequest
	if !bindAndValidate(c, &body) {
		return
	}

	err := h.svc.AddMember(requestContext(c), middleware.TenantID(c), c.Param("id"), body.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"added": true})
}

// DELETE /api/projects/:id/members/:userId
func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	err := h.svc.RemoveMember(requestContext(c), middleware.TenantID(c), c.Param("id"), c.Param("userId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"removed": true})
}
