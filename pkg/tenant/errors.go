package tenant

import "errors"

var (
	// ErrTenantNotFound is returned when no tenant matches a resolved slug.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrInactiveTenant is returned when the resolved tenant is deactivated.
	ErrInactiveTenant = errors.New("tenant is inactive")

	// ErrTenantNotConfigured is returned when a tenant-scoped operation runs
	// on a request that carried no tenant signal (no header, subdomain or
	// query parameter).
	ErrTenantNotConfigured = errors.New("tenant not configured: use the X-Tenant-ID header or a tenant subdomain")
)
