package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/buildhive/buildhive/internal/models"
	"github.com/buildhive/buildhive/internal/rbac"
	apperrors "github.com/buildhive/buildhive/pkg/errors"
)

var (
	// ErrRoleNotFound indicates the requested role does not exist.
	ErrRoleNotFound = apperrors.New("ROLE_NOT_FOUND", "Role not found", http.StatusNotFound)
	// ErrSystemRoleImmutable prevents renaming roles seeded at tenant creation.
	ErrSystemRoleImmutable = apperrors.New("ROLE_IMMUTABLE", "System roles cannot be renamed", http.StatusBadRequest)
	// ErrAssignmentNotFound indicates there is no assignment for the (user, role) pair.
	ErrAssignmentNotFound = apperrors.New("ASSIGNMENT_NOT_FOUND", "Role assignment not found", http.StatusNotFound)
)

// RBACService manages tenant roles and user-role assignments. Every mutation
// completes its store write before touching the permission cache, so a check
// issued after a mutation returns never observes pre-mutation grants.
type RBACService struct {
	db    *gorm.DB
	cache *rbac.Cache
	audit *AuditService
}

// NewRBACService constructs an RBACService.
func NewRBACService(db *gorm.DB, cache *rbac.Cache, audit *AuditService) (*RBACService, error) {
	if db == nil {
		return nil, errors.New("rbac service: db is required")
	}
	if cache == nil {
		return nil, errors.New("rbac service: cache is required")
	}
	return &RBACService{db: db, cache: cache, audit: audit}, nil
}

// CreateRoleInput describes the payload accepted by CreateRole.
type CreateRoleInput struct {
	TenantID     string
	Name         string
	Description  string
	Permissions  []string
	IsSystemRole bool
}

// UpdateRoleInput describes mutable fields on a role. A nil field leaves the
// stored value untouched, so callers can patch a single attribute.
type UpdateRoleInput struct {
	Name        *string
	Description *string
	Permissions []string
}

// AssignRoleInput describes the payload accepted by AssignRole.
type AssignRoleInput struct {
	UserID     string
	RoleID     string
	AssignedBy string
	ExpiresAt  *time.Time
}

// CreateRole registers a new tenant-scoped role.
func (s *RBACService) CreateRole(ctx context.Context, input CreateRoleInput) (*models.Role, error) {
	ctx = ensureContext(ctx)

	tenantID := strings.TrimSpace(input.TenantID)
	if tenantID == "" {
		return nil, apperrors.NewBadRequest("tenant id is required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("role name is required")
	}
	if err := validatePermissions(input.Permissions); err != nil {
		return nil, err
	}

	role := &models.Role{
		TenantID:     tenantID,
		Name:         name,
		Description:  strings.TrimSpace(input.Description),
		Permissions:  datatypes.NewJSONSlice(input.Permissions),
		IsSystemRole: input.IsSystemRole,
	}

	if err := s.db.WithContext(ctx).Create(role).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.NewBadRequest("role name already exists in this tenant")
		}
		return nil, fmt.Errorf("rbac service: create role: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		TenantID: tenantID,
		Action:   "role.create",
		Resource: role.ID,
		Result:   "success",
		Metadata: map[string]any{
			"name":        role.Name,
			"permissions": input.Permissions,
		},
	})

	return role, nil
}

// UpdateRole modifies role metadata and permissions. Because many users may
// hold the role, a content change invalidates the whole permission cache.
func (s *RBACService) UpdateRole(ctx context.Context, roleID string, input UpdateRoleInput) (*models.Role, error) {
	ctx = ensureContext(ctx)

	var role models.Role
	if err := s.db.WithContext(ctx).First(&role, "id = ?", roleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("rbac service: load role: %w", err)
	}

	if role.IsSystemRole && input.Name != nil {
		if name := strings.TrimSpace(*input.Name); name != "" && name != role.Name {
			return nil, ErrSystemRoleImmutable
		}
	}

	updates := map[string]any{}
	if input.Name != nil {
		if name := strings.TrimSpace(*input.Name); name != "" && name != role.Name {
			updates["name"] = name
		}
	}
	if input.Description != nil {
		if desc := strings.TrimSpace(*input.Description); desc != role.Description {
			updates["description"] = desc
		}
	}
	if input.Permissions != nil {
		if err := validatePermissions(input.Permissions); err != nil {
			return nil, err
		}
		updates["permissions"] = datatypes.NewJSONSlice(input.Permissions)
	}

	if len(updates) == 0 {
		return &role, nil
	}

	if err := s.db.WithContext(ctx).Model(&role).Updates(updates).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.NewBadRequest("role name already exists in this tenant")
		}
		return nil, fmt.Errorf("rbac service: update role: %w", err)
	}

	s.cache.InvalidateAll()

	if err := s.db.WithContext(ctx).First(&role, "id = ?", roleID).Error; err != nil {
		return nil, fmt.Errorf("rbac service: reload role: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		TenantID: role.TenantID,
		Action:   "role.update",
		Resource: role.ID,
		Result:   "success",
	})

	return &role, nil
}

// DeleteRole removes a role with no remaining assignments. Roles still held
// by users are refused; revoke first.
func (s *RBACService) DeleteRole(ctx context.Context, roleID string) error {
	ctx = ensureContext(ctx)

	var role models.Role
	if err := s.db.WithContext(ctx).First(&role, "id = ?", roleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoleNotFound
		}
		return fmt.Errorf("rbac service: load role: %w", err)
	}

	count, err := s.CountAssignments(ctx, roleID)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperrors.ErrRoleInUse
	}

	if err := s.db.WithContext(ctx).Delete(&role).Error; err != nil {
		return fmt.Errorf("rbac service: delete role: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		TenantID: role.TenantID,
		Action:   "role.delete",
		Resource: role.ID,
		Result:   "success",
		Metadata: map[string]any{"name": role.Name},
	})

	return nil
}

// GetRole fetches a role by id.
func (s *RBACService) GetRole(ctx context.Context, roleID string) (*models.Role, error) {
	ctx = ensureContext(ctx)

	var role models.Role
	if err := s.db.WithContext(ctx).First(&role, "id = ?", roleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("rbac service: load role: %w", err)
	}
	return &role, nil
}

// ListRoles returns the tenant's roles ordered by creation date.
func (s *RBACService) ListRoles(ctx context.Context, tenantID string) ([]models.Role, error) {
	ctx = ensureContext(ctx)

	var roles []models.Role
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC").
		Find(&roles).Error
	if err != nil {
		return nil, fmt.Errorf("rbac service: list roles: %w", err)
	}
	return roles, nil
}

// CountAssignments reports how many assignments reference the role,
// expired ones included.
func (s *RBACService) CountAssignments(ctx context.Context, roleID string) (int64, error) {
	ctx = ensureContext(ctx)

	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.UserRoleAssignment{}).
		Where("role_id = ?", roleID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("rbac service: count assignments: %w", err)
	}
	return count, nil
}

// AssignRole grants a role to a user. Re-assigning the same pair upserts the
// existing row, refreshing assigned_by, assigned_at, and expires_at.
func (s *RBACService) AssignRole(ctx context.Context, input AssignRoleInput) error {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(input.UserID) == "" {
		return apperrors.NewBadRequest("user id is required")
	}

	role, err := s.GetRole(ctx, input.RoleID)
	if err != nil {
		return err
	}

	assignment := models.UserRoleAssignment{
		UserID:     input.UserID,
		RoleID:     role.ID,
		AssignedBy: input.AssignedBy,
		AssignedAt: time.Now(),
		ExpiresAt:  input.ExpiresAt,
	}

	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "role_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"assigned_by", "assigned_at", "expires_at", "updated_at"}),
		}).
		Create(&assignment).Error
	if err != nil {
		return fmt.Errorf("rbac service: assign role: %w", err)
	}

	// Store write first, invalidation second.
	s.cache.InvalidateUser(input.UserID)

	recordAudit(s.audit, ctx, AuditEntry{
		UserID:   &input.AssignedBy,
		TenantID: role.TenantID,
		Action:   "role.assign",
		Resource: role.ID,
		Result:   "success",
		Metadata: map[string]any{
			"user_id":    input.UserID,
			"expires_at": input.ExpiresAt,
		},
	})

	return nil
}

// RevokeRole removes the (user, role) assignment.
func (s *RBACService) RevokeRole(ctx context.Context, userID, roleID string) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Delete(&models.UserRoleAssignment{})
	if result.Error != nil {
		return fmt.Errorf("rbac service: revoke role: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAssignmentNotFound
	}

	s.cache.InvalidateUser(userID)

	recordAudit(s.audit, ctx, AuditEntry{
		Action:   "role.revoke",
		Resource: roleID,
		Result:   "success",
		Metadata: map[string]any{"user_id": userID},
	})

	return nil
}

// ListUserRoles returns the user's non-expired roles within the tenant.
func (s *RBACService) ListUserRoles(ctx context.Context, userID, tenantID string) ([]models.Role, error) {
	ctx = ensureContext(ctx)

	var roles []models.Role
	err := s.db.WithContext(ctx).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Where("roles.tenant_id = ?", tenantID).
		Where("user_roles.expires_at IS NULL OR user_roles.expires_at > ?", time.Now()).
		Find(&roles).Error
	if err != nil {
		return nil, fmt.Errorf("rbac service: list user roles: %w", err)
	}
	return roles, nil
}

func validatePermissions(perms []string) error {
	for _, raw := range perms {
		if err := rbac.ValidatePermission(raw); err != nil {
			return apperrors.NewBadRequest(err.Error())
		}
	}
	return nil
}
