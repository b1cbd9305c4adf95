package rbac

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/buildhive/buildhive/internal/models"
)

// Actions with contextual grant semantics.
const (
	ActionRead   = "read"
	ActionWrite  = "write"
	ActionDelete = "delete"
)

// ResourceProjects is the resource the project membership rule applies to.
const ResourceProjects = "projects"

// Context carries the runtime relationships an access check may consult when
// role grants alone deny. Contextual rules are an independent grant path, not
// a refinement of the role-based one.
type Context struct {
	// ProjectID is the target project, when the operation addresses one.
	ProjectID string
	// OwnerID is the owner of the target resource, when known.
	OwnerID string
}

// Engine decides allow/deny for a required permission. Denies are ordinary
// false returns; only store failures surface as errors.
type Engine struct {
	db    *gorm.DB
	cache *Cache
}

// NewEngine constructs an Engine using the cache for role resolution and the
// database for contextual lookups.
func NewEngine(db *gorm.DB, cache *Cache) (*Engine, error) {
	if db == nil {
		return nil, errors.New("rbac engine: db is required")
	}
	if cache == nil {
		return nil, errors.New("rbac engine: cache is required")
	}
	return &Engine{db: db, cache: cache}, nil
}

// HasPermission evaluates the required permission for the user within the
// tenant. Order: role grants (universal, exact, resource wildcard), then
// contextual rules when a Context is supplied.
func (e *Engine) HasPermission(ctx context.Context, userID, tenantID, permission string, rctx *Context) (bool, error) {
	required, err := ParsePermission(permission)
	if err != nil {
		return false, fmt.Errorf("rbac engine: %w", err)
	}

	resolved, err := e.cache.Get(ctx, userID, tenantID)
	if err != nil {
		return false, err
	}

	if resolved.Effective.Allows(required) {
		return true, nil
	}

	if rctx == nil || required.Kind != KindExact {
		return false, nil
	}

	return e.checkContextual(ctx, userID, tenantID, required, rctx)
}

// Permissions exposes the resolved grant for API listings.
func (e *Engine) Permissions(ctx context.Context, userID, tenantID string) (*UserPermissions, error) {
	return e.cache.Get(ctx, userID, tenantID)
}

// Cache exposes the backing permission cache so services that mutate roles
// and assignments can invalidate it.
func (e *Engine) Cache() *Cache {
	return e.cache
}

func (e *Engine) checkContextual(ctx context.Context, userID, tenantID string, required Permission, rctx *Context) (bool, error) {
	if required.Resource == ResourceProjects && rctx.ProjectID != "" {
		ok, err := e.projectRule(ctx, userID, tenantID, required.Action, rctx.ProjectID)
		if err != nil || ok {
			return ok, err
		}
	}

	if rctx.OwnerID != "" && rctx.OwnerID == userID {
		switch required.Action {
		case ActionRead, ActionWrite, ActionDelete:
			return true, nil
		}
	}

	return false, nil
}

// projectRule grants managers any action on their project, and members read
// and write only. Membership never grants delete or manage actions.
func (e *Engine) projectRule(ctx context.Context, userID, tenantID, action, projectID string) (bool, error) {
	var project models.Project
	err := e.db.WithContext(ctx).
		First(&project, "id = ? AND tenant_id = ?", projectID, tenantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("rbac engine: load project: %w", err)
	}

	if project.ManagerID == userID {
		return true, nil
	}

	if action != ActionRead && action != ActionWrite {
		return false, nil
	}

	var count int64
	err = e.db.WithContext(ctx).
		Table("project_members").
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("rbac engine: check project membership: %w", err)
	}

	return count > 0, nil
}
