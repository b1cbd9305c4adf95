package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/buildhive/buildhive/internal/database"
	"github.com/buildhive/buildhive/internal/models"
	apperrors "github.com/buildhive/buildhive/pkg/errors"
)

var (
	// ErrTenantNotFound indicates the requested tenant does not exist.
	ErrTenantNotFound = apperrors.New("TENANT_NOT_FOUND", "Tenant not found", http.StatusNotFound)
	// ErrSlugTaken indicates another tenant already owns the slug.
	ErrSlugTaken = apperrors.New("TENANT_SLUG_TAKEN", "Tenant slug is already in use", http.StatusConflict)
)

// TenantService provisions and reads tenants. New tenants are seeded with the
// system roles so permission checks work immediately after creation.
type TenantService struct {
	db    *gorm.DB
	audit *AuditService
}

// NewTenantService constructs a TenantService.
func NewTenantService(db *gorm.DB, audit *AuditService) (*TenantService, error) {
	if db == nil {
		return nil, errors.New("tenant service: db is required")
	}
	return &TenantService{db: db, audit: audit}, nil
}

// CreateTenantInput describes the payload accepted by CreateTenant.
type CreateTenantInput struct {
	Name string
	Slug string
}

// CreateTenant creates a tenant and seeds its system roles in one transaction.
func (s *TenantService) CreateTenant(ctx context.Context, input CreateTenantInput) (*models.Tenant, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("tenant name is required")
	}
	slug := strings.ToLower(strings.TrimSpace(input.Slug))
	if slug == "" {
		return nil, apperrors.NewBadRequest("tenant slug is required")
	}

	tenant := &models.Tenant{
		Name:   name,
		Slug:   slug,
		Status: models.TenantStatusActive,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(tenant).Error; err != nil {
			if isUniqueConstraintError(err) {
				return ErrSlugTaken
			}
			return fmt.Errorf("tenant service: create tenant: %w", err)
		}
		return database.SeedSystemRoles(tx, tenant.ID)
	})
	if err != nil {
		return nil, err
	}

	recordAudit(s.audit, ctx, AuditEntry{
		TenantID: tenant.ID,
		Action:   "tenant.create",
		Resource: tenant.ID,
		Result:   "success",
		Metadata: map[string]any{"slug": tenant.Slug},
	})

	return tenant, nil
}

// GetTenant fetches a tenant by id.
func (s *TenantService) GetTenant(ctx context.Context, tenantID string) (*models.Tenant, error) {
	ctx = ensureContext(ctx)

	var tenant models.Tenant
	if err := s.db.WithContext(ctx).First(&tenant, "id = ?", tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("tenant service: load tenant: %w", err)
	}
	return &tenant, nil
}

// GetTenantBySlug fetches a tenant by its slug.
func (s *TenantService) GetTenantBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	ctx = ensureContext(ctx)

	var tenant models.Tenant
	if err := s.db.WithContext(ctx).First(&tenant, "slug = ?", strings.ToLower(slug)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("tenant service: load tenant: %w", err)
	}
	return &tenant, nil
}

// ListTenants returns all tenants ordered by creation date.
func (s *TenantService) ListTenants(ctx context.Context) ([]models.Tenant, error) {
	ctx = ensureContext(ctx)

	var tenants []models.Tenant
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&tenants).Error; err != nil {
		return nil, fmt.Errorf("tenant service: list tenants: %w", err)
	}
	return tenants, nil
}
