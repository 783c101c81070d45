package superadmin

import "errors"

var (
	// ErrInvalidSlug is returned when a requested tenant slug falls outside
	// the allowed character class.
	ErrInvalidSlug = errors.New("superadmin: slug must contain only lowercase letters, digits and hyphens")

	// ErrSlugTaken is returned when a tenant with the slug already exists.
	ErrSlugTaken = errors.New("superadmin: a tenant with this slug already exists")

	// ErrProvisioningFailed wraps a database-creation or schema-bootstrap
	// failure. The control-plane record has already been compensated away
	// when this is returned.
	ErrProvisioningFailed = errors.New("superadmin: tenant provisioning failed")

	// ErrInvalidCredentials is returned on a failed super-admin login.
	ErrInvalidCredentials = errors.New("superadmin: invalid credentials")

	// ErrAccountDisabled is returned when the super-admin account is
	// deactivated.
	ErrAccountDisabled = errors.New("superadmin: account is disabled")

	// ErrNoFieldsToUpdate is returned when a tenant update carries no
	// changes.
	ErrNoFieldsToUpdate = errors.New("superadmin: no fields to update")

	// ErrPlanExists is returned when a plan id is already taken.
	ErrPlanExists = errors.New("superadmin: a plan with this id already exists")

	// ErrPlanNotFound is returned when no plan carries the id.
	ErrPlanNotFound = errors.New("superadmin: plan not found")

	// ErrInvalidPlan is returned when a plan is created without an id or
	// name.
	ErrInvalidPlan = errors.New("superadmin: plan id and name are required")
)
