package rbac

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/buildhive/buildhive/internal/models"
)

// UserPermissions is the derived grant state for one user in one tenant.
// It is computed fresh from the role and assignment tables and is never
// itself a source of truth.
type UserPermissions struct {
	UserID    string
	TenantID  string
	Roles     []models.Role
	Effective EffectivePermissions
}

// Resolver computes effective permission sets from stored roles and
// assignments. It has no side effects; results are deterministic for a given
// store state.
type Resolver struct {
	db *gorm.DB
}

// NewResolver constructs a Resolver backed by the provided database.
func NewResolver(db *gorm.DB) (*Resolver, error) {
	if db == nil {
		return nil, errors.New("rbac resolver: db is required")
	}
	return &Resolver{db: db}, nil
}

// Resolve loads the user's non-expired role assignments within the tenant and
// unions their permissions. A super admin, or any role carrying the universal
// wildcard, collapses the result to the universal grant and stops the union
// early: "*" already implies everything.
func (r *Resolver) Resolve(ctx context.Context, userID, tenantID string) (*UserPermissions, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errors.New("rbac resolver: user id is required")
	}

	var user models.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		// Unknown users simply resolve to whatever their assignments grant,
		// which is nothing.
	case err != nil:
		return nil, fmt.Errorf("rbac resolver: load user: %w", err)
	case user.IsSuperAdmin:
		return &UserPermissions{
			UserID:    userID,
			TenantID:  tenantID,
			Effective: AllPermissions(),
		}, nil
	}

	roles, err := r.rolesForUser(ctx, userID, tenantID)
	if err != nil {
		return nil, err
	}

	resolved := &UserPermissions{
		UserID:   userID,
		TenantID: tenantID,
		Roles:    roles,
	}

	var granted []Permission
collect:
	for _, role := range roles {
		for _, raw := range role.Permissions {
			perm, err := ParsePermission(raw)
			if err != nil {
				// Stored data is trusted; a malformed survives as a no-op
				// rather than failing every check for the user.
				continue
			}
			if perm.Kind == KindWildcard {
				resolved.Effective = AllPermissions()
				break collect
			}
			granted = append(granted, perm)
		}
	}

	if !resolved.Effective.All() {
		resolved.Effective = NewPermissionSet(granted...)
	}

	return resolved, nil
}

// rolesForUser is the tenant-qualified join between assignments and roles.
// Expiry is enforced here, at read time; expired rows are treated as absent.
func (r *Resolver) rolesForUser(ctx context.Context, userID, tenantID string) ([]models.Role, error) {
	var roles []models.Role
	err := r.db.WithContext(ctx).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Where("roles.tenant_id = ?", tenantID).
		Where("user_roles.expires_at IS NULL OR user_roles.expires_at > ?", time.Now()).
		Find(&roles).Error
	if err != nil {
		return nil, fmt.Errorf("rbac resolver: load roles: %w", err)
	}
	return roles, nil
}
