package superadmin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/pg"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/tenant"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/tenantdb"
)

// SuperAdmin is a platform operator account in the control plane.
type SuperAdmin struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	FullName       string    `json:"full_name"`
	Active         bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

// TenantAdmin is the denormalized audit record linking a tenant to an
// administrator email. The credential itself lives in the tenant database.
type TenantAdmin struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Plan is a subscription plan row.
type Plan struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description,omitempty"`
	MaxUsers          *int   `json:"max_users,omitempty"`
	MaxStorageMB      *int   `json:"max_storage_mb,omitempty"`
	PriceMonthlyCents *int64 `json:"price_monthly_cents,omitempty"`
	Active            bool   `json:"is_active"`
}

// Stats is the platform overview returned by the stats endpoint.
type Stats struct {
	TotalTenants  int64 `json:"total_tenants"`
	ActiveTenants int64 `json:"active_tenants"`
	CachedPools   int   `json:"cached_pools"`
}

const tenantColumns = `id, slug, name, COALESCE(subdomain, ''), COALESCE(custom_domain, ''),
	db_name, is_active, COALESCE(plan_id, ''), created_at, expires_at`

// Repository holds every control-plane query. It runs against the master
// pool, never against tenant databases.
type Repository struct {
	db tenantdb.Session
}

func NewRepository(db tenantdb.Session) *Repository {
	return &Repository{db: db}
}

func scanTenant(row interface{ Scan(dest ...any) error }) (*tenant.Tenant, error) {
	var t tenant.Tenant
	err := row.Scan(&t.ID, &t.Slug, &t.Name, &t.Subdomain, &t.CustomDomain,
		&t.DBName, &t.Active, &t.PlanID, &t.CreatedAt, &t.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetBySlug implements tenant.Provider for the resolution middleware.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE slug = $1`, slug)
	t, err := scanTenant(row)
	if pg.IsNotFoundError(err) {
		return nil, tenant.ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("superadmin: get tenant by slug: %w", err)
	}
	return t, nil
}

func (r *Repository) GetTenantByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id)
	t, err := scanTenant(row)
	if pg.IsNotFoundError(err) {
		return nil, tenant.ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("superadmin: get tenant by id: %w", err)
	}
	return t, nil
}

func (r *Repository) ListTenants(ctx context.Context) ([]*tenant.Tenant, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+tenantColumns+` FROM tenants ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("superadmin: list tenants: %w", err)
	}
	defer rows.Close()

	var out []*tenant.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("superadmin: scan tenant: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// InsertTenant speculatively creates the control-plane row before the
// physical database exists. The unique index on slug is the authoritative
// duplicate check.
func (r *Repository) InsertTenant(ctx context.Context, t *tenant.Tenant) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO tenants (slug, name, subdomain, custom_domain, db_name, plan_id)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, NULLIF($6, ''))
		RETURNING id, created_at`,
		t.Slug, t.Name, t.Subdomain, t.CustomDomain, t.DBName, t.PlanID)
	if err := row.Scan(&t.ID, &t.CreatedAt); err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrSlugTaken
		}
		return fmt.Errorf("superadmin: insert tenant: %w", err)
	}
	t.Active = true
	return nil
}

// DeleteTenant removes a control-plane row. Only used by the provisioning
// compensation path; tenants are otherwise deactivated, never deleted.
func (r *Repository) DeleteTenant(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("superadmin: delete tenant: %w", err)
	}
	return nil
}

// TenantUpdate carries the optional fields of a tenant patch. Slug and
// db_name are immutable and deliberately absent.
type TenantUpdate struct {
	Name         *string `json:"name"`
	Subdomain    *string `json:"subdomain"`
	CustomDomain *string `json:"custom_domain"`
	Active       *bool   `json:"is_active"`
	PlanID       *string `json:"plan_id"`
}

func (r *Repository) UpdateTenant(ctx context.Context, id uuid.UUID, upd TenantUpdate) (*tenant.Tenant, error) {
	sets := make([]string, 0, 5)
	args := make([]any, 0, 6)
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Subdomain != nil {
		add("subdomain", *upd.Subdomain)
	}
	if upd.CustomDomain != nil {
		add("custom_domain", *upd.CustomDomain)
	}
	if upd.Active != nil {
		add("is_active", *upd.Active)
	}
	if upd.PlanID != nil {
		add("plan_id", *upd.PlanID)
	}
	if len(sets) == 0 {
		return nil, ErrNoFieldsToUpdate
	}

	args = append(args, id)
	row := r.db.QueryRow(ctx, fmt.Sprintf(
		`UPDATE tenants SET %s WHERE id = $%d RETURNING `+tenantColumns,
		strings.Join(sets, ", "), len(args)), args...)

	t, err := scanTenant(row)
	if pg.IsNotFoundError(err) {
		return nil, tenant.ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("superadmin: update tenant: %w", err)
	}
	return t, nil
}

func (r *Repository) InsertTenantAdmin(ctx context.Context, tenantID uuid.UUID, email string) (*TenantAdmin, error) {
	var ta TenantAdmin
	row := r.db.QueryRow(ctx, `
		INSERT INTO tenant_admins (tenant_id, email)
		VALUES ($1, $2)
		RETURNING id, tenant_id, email, created_at`,
		tenantID, email)
	if err := row.Scan(&ta.ID, &ta.TenantID, &ta.Email, &ta.CreatedAt); err != nil {
		return nil, fmt.Errorf("superadmin: insert tenant admin: %w", err)
	}
	return &ta, nil
}

func (r *Repository) GetSuperAdminByEmail(ctx context.Context, email string) (*SuperAdmin, error) {
	var sa SuperAdmin
	row := r.db.QueryRow(ctx, `
		SELECT id, email, hashed_password, full_name, is_active, created_at
		FROM super_admins WHERE email = $1`, email)
	err := row.Scan(&sa.ID, &sa.Email, &sa.HashedPassword, &sa.FullName, &sa.Active, &sa.CreatedAt)
	if pg.IsNotFoundError(err) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("superadmin: get super admin: %w", err)
	}
	return &sa, nil
}

func (r *Repository) GetSuperAdminByID(ctx context.Context, id uuid.UUID) (*SuperAdmin, error) {
	var sa SuperAdmin
	row := r.db.QueryRow(ctx, `
		SELECT id, email, hashed_password, full_name, is_active, created_at
		FROM super_admins WHERE id = $1`, id)
	err := row.Scan(&sa.ID, &sa.Email, &sa.HashedPassword, &sa.FullName, &sa.Active, &sa.CreatedAt)
	if pg.IsNotFoundError(err) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("superadmin: get super admin: %w", err)
	}
	return &sa, nil
}

func (r *Repository) ListPlans(ctx context.Context) ([]*Plan, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, COALESCE(description, ''), max_users, max_storage_mb,
		       price_monthly_cents, is_active
		FROM subscription_plans ORDER BY price_monthly_cents NULLS FIRST`)
	if err != nil {
		return nil, fmt.Errorf("superadmin: list plans: %w", err)
	}
	defer rows.Close()

	var out []*Plan
	for rows.Next() {
		var p Plan
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.MaxUsers,
			&p.MaxStorageMB, &p.PriceMonthlyCents, &p.Active); err != nil {
			return nil, fmt.Errorf("superadmin: scan plan: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (r *Repository) InsertPlan(ctx context.Context, p *Plan) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO subscription_plans (id, name, description, max_users,
			max_storage_mb, price_monthly_cents, is_active)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7)`,
		p.ID, p.Name, p.Description, p.MaxUsers, p.MaxStorageMB,
		p.PriceMonthlyCents, p.Active)
	if pg.IsDuplicateKeyError(err) {
		return ErrPlanExists
	}
	if err != nil {
		return fmt.Errorf("superadmin: insert plan: %w", err)
	}
	return nil
}

// PlanUpdate carries the optional fields of a plan patch. The id is
// immutable because tenants reference it.
type PlanUpdate struct {
	Name              *string `json:"name"`
	Description       *string `json:"description"`
	MaxUsers          *int    `json:"max_users"`
	MaxStorageMB      *int    `json:"max_storage_mb"`
	PriceMonthlyCents *int64  `json:"price_monthly_cents"`
	Active            *bool   `json:"is_active"`
}

func (r *Repository) UpdatePlan(ctx context.Context, id string, upd PlanUpdate) (*Plan, error) {
	sets := make([]string, 0, 6)
	args := make([]any, 0, 7)
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.MaxUsers != nil {
		add("max_users", *upd.MaxUsers)
	}
	if upd.MaxStorageMB != nil {
		add("max_storage_mb", *upd.MaxStorageMB)
	}
	if upd.PriceMonthlyCents != nil {
		add("price_monthly_cents", *upd.PriceMonthlyCents)
	}
	if upd.Active != nil {
		add("is_active", *upd.Active)
	}
	if len(sets) == 0 {
		return nil, ErrNoFieldsToUpdate
	}

	args = append(args, id)
	row := r.db.QueryRow(ctx, fmt.Sprintf(`
		UPDATE subscription_plans SET %s WHERE id = $%d
		RETURNING id, name, COALESCE(description, ''), max_users,
			max_storage_mb, price_monthly_cents, is_active`,
		strings.Join(sets, ", "), len(args)), args...)

	var p Plan
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.MaxUsers,
		&p.MaxStorageMB, &p.PriceMonthlyCents, &p.Active)
	if pg.IsNotFoundError(err) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("superadmin: update plan: %w", err)
	}
	return &p, nil
}

func (r *Repository) CountTenants(ctx context.Context) (total, active int64, err error) {
	row := r.db.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE is_active) FROM tenants`)
	if err := row.Scan(&total, &active); err != nil {
		return 0, 0, fmt.Errorf("superadmin: count tenants: %w", err)
	}
	return total, active, nil
}
