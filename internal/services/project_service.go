package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/buildhive/buildhive/internal/models"
	apperrors "github.com/buildhive/buildhive/pkg/errors"
)

// ErrProjectNotFound indicates the project does not exist in the tenant.
var ErrProjectNotFound = apperrors.New("PROJECT_NOT_FOUND", "Project not found", http.StatusNotFound)

// ProjectService manages projects and their membership. Project state feeds
// the contextual rules of the decision engine.
type ProjectService struct {
	db    *gorm.DB
	audit *AuditService
}

// NewProjectService constructs a ProjectService.
func NewProjectService(db *gorm.DB, audit *AuditService) (*ProjectService, error) {
	if db == nil {
		return nil, errors.New("project service: db is required")
	}
	return &ProjectService{db: db, audit: audit}, nil
}

// CreateProjectInput describes the payload accepted by CreateProject.
type CreateProjectInput struct {
	TenantID    string
	Name        string
	Description string
	ManagerID   string
}

// CreateProject creates a project within a tenant.
func (s *ProjectService) CreateProject(ctx context.Context, input CreateProjectInput) (*models.Project, error) {
	ctx = ensureContext(ctx)

	tenantID := strings.TrimSpace(input.TenantID)
	if tenantID == "" {
		return nil, apperrors.NewBadRequest("tenant id is required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("project name is required")
	}

	project := &models.Project{
		TenantID:    tenantID,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		ManagerID:   input.ManagerID,
	}
	if err := s.db.WithContext(ctx).Create(project).Error; err != nil {
		return nil, fmt.Errorf("project service: create project: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		TenantID: tenantID,
		Action:   "project.create",
		Resource: project.ID,
		Result:   "success",
		Metadata: map[string]any{"name": project.Name},
	})

	return project, nil
}

// GetProject fetches a project within the tenant. Projects from other tenants
// are indistinguishable from missing ones.
func (s *ProjectService) GetProject(ctx context.Context, tenantID, projectID string) (*models.Project, error) {
	ctx = ensureContext(ctx)

	var project models.Project
	err := s.db.WithContext(ctx).
		Preload("Members").
		First(&project, "id = ? AND tenant_id = ?", projectID, tenantID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("project service: load project: %w", err)
	}
	return &project, nil
}

// ListProjects returns the tenant's projects.
func (s *ProjectService) ListProjects(ctx context.Context, tenantID string) ([]models.Project, error) {
	ctx = ensureContext(ctx)

	var projects []models.Project
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC").
		Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("project service: list projects: %w", err)
	}
	return projects, nil
}

// AddMember adds a user to the project member list.
func (s *ProjectService) AddMember(ctx context.Context, tenantID, projectID, userID string) error {
	ctx = ensureContext(ctx)

	project, err := s.GetProject(ctx, tenantID, projectID)
	if err != nil {
		return err
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NewBadRequest("user does not exist")
		}
		return fmt.Errorf("project service: load user: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(project).Association("Members").Append(&user); err != nil {
		return fmt.Errorf("project service: add member: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		TenantID: tenantID,
		Action:   "project.member.add",
		Resource: project.ID,
		Result:   "success",
		Metadata: map[string]any{"user_id": userID},
	})

	return nil
}

// RemoveMember removes a user from the project member list.
func (s *ProjectService) RemoveMember(ctx context.Context, tenantID, projectID, userID string) error {
	ctx = ensureContext(ctx)

	project, err := s.GetProject(ctx, tenantID, projectID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Model(project).Association("Members").Delete(&models.User{ID: userID}); err != nil {
		return fmt.Errorf("project service: remove member: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		TenantID: tenantID,
		Action:   "project.member.remove",
		Resource: project.ID,
		Result:   "success",
		Metadata: map[string]any{"user_id": userID},
	})

	return nil
}
