package tenant

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Tenant is the control-plane identity record for one church. The slug is
// globally unique and immutable after creation; DBName is assigned once by
// provisioning and never changes.
type Tenant struct {
	ID           uuid.UUID  `json:"id"`
	Slug         string     `json:"slug"`
	Name         string     `json:"name"`
	Subdomain    string     `json:"subdomain,omitempty"`
	CustomDomain string     `json:"custom_domain,omitempty"`
	DBName       string     `json:"db_name"`
	Active       bool       `json:"is_active"`
	PlanID       string     `json:"plan_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// Provider loads tenants from the control-plane store.
type Provider interface {
	// GetBySlug returns the tenant for a slug or ErrTenantNotFound.
	GetBySlug(ctx context.Context, slug string) (*Tenant, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, slug string) (*Tenant, error)

func (f ProviderFunc) GetBySlug(ctx context.Context, slug string) (*Tenant, error) {
	return f(ctx, slug)
}
