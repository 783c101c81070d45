package superadmin

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/jwt"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/logger"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/password"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/pg"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/slug"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/tenant"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/tenantdb"
)

// RoleSuperAdmin is the role claim carried by control-plane tokens. It
// never appears inside a tenant database.
const RoleSuperAdmin = "superadmin"

// Service implements the control plane: operator authentication, tenant
// lifecycle and platform stats.
type Service struct {
	repo        *Repository
	provisioner *Provisioner
	registry    *tenantdb.Registry
	tokens      *jwt.Service
	log         *slog.Logger
}

func NewService(repo *Repository, provisioner *Provisioner, registry *tenantdb.Registry, tokens *jwt.Service, log *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		provisioner: provisioner,
		registry:    registry,
		tokens:      tokens,
		log:         log.With(logger.Component("superadmin")),
	}
}

// Login authenticates a platform operator and issues a token pair with the
// superadmin role.
func (s *Service) Login(ctx context.Context, email, pass string) (jwt.TokenPair, error) {
	sa, err := s.repo.GetSuperAdminByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return jwt.TokenPair{}, err
	}
	if err := password.Verify(sa.HashedPassword, pass); err != nil {
		return jwt.TokenPair{}, ErrInvalidCredentials
	}
	if !sa.Active {
		return jwt.TokenPair{}, ErrAccountDisabled
	}
	return s.tokens.Pair(sa.ID.String(), RoleSuperAdmin)
}

// Refresh exchanges a valid refresh token for a new pair, re-checking that
// the account still exists and is active.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (jwt.TokenPair, error) {
	claims, err := s.tokens.Parse(refreshToken, jwt.ScopeRefresh)
	if err != nil {
		return jwt.TokenPair{}, err
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return jwt.TokenPair{}, jwt.ErrInvalidToken
	}
	sa, err := s.repo.GetSuperAdminByID(ctx, id)
	if err != nil {
		return jwt.TokenPair{}, err
	}
	if !sa.Active {
		return jwt.TokenPair{}, ErrAccountDisabled
	}
	return s.tokens.Pair(sa.ID.String(), RoleSuperAdmin)
}

func (s *Service) Me(ctx context.Context, id uuid.UUID) (*SuperAdmin, error) {
	return s.repo.GetSuperAdminByID(ctx, id)
}

// CreateTenantInput is the provisioning request. The admin fields seed the
// first administrator account inside the new tenant database.
type CreateTenantInput struct {
	Slug          string `json:"slug"`
	Name          string `json:"name"`
	Subdomain     string `json:"subdomain"`
	PlanID        string `json:"plan_id"`
	AdminEmail    string `json:"admin_email"`
	AdminPassword string `json:"admin_password"`
	AdminName     string `json:"admin_name"`
}

// CreateTenantResult reports what the provisioning run produced.
type CreateTenantResult struct {
	Tenant       *tenant.Tenant `json:"tenant"`
	AdminCreated bool           `json:"admin_created"`
}

// CreateTenant provisions a tenant end to end: control-plane row, dedicated
// database, schema, and the tenant's first administrator. Admin creation
// runs after the saga commits; if it fails the tenant stays provisioned and
// the admin can be retried through CreateTenantAdmin.
func (s *Service) CreateTenant(ctx context.Context, in CreateTenantInput) (*CreateTenantResult, error) {
	t := &tenant.Tenant{
		Slug:      strings.ToLower(strings.TrimSpace(in.Slug)),
		Name:      strings.TrimSpace(in.Name),
		Subdomain: strings.TrimSpace(in.Subdomain),
		PlanID:    in.PlanID,
	}
	if t.Subdomain == "" {
		t.Subdomain = t.Slug
	}

	if err := s.provisioner.Provision(ctx, t); err != nil {
		return nil, err
	}

	res := &CreateTenantResult{Tenant: t}
	if in.AdminEmail != "" {
		if err := s.CreateTenantAdmin(ctx, t, in.AdminEmail, in.AdminPassword, in.AdminName); err != nil {
			s.log.ErrorContext(ctx, "tenant provisioned but admin creation failed",
				slog.String("slug", t.Slug), logger.Error(err))
			return res, nil
		}
		res.AdminCreated = true
	}
	return res, nil
}

// CreateTenantAdmin inserts an administrator account directly into the
// tenant database and records the audit row in the control plane.
func (s *Service) CreateTenantAdmin(ctx context.Context, t *tenant.Tenant, email, pass, fullName string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := password.Hash(pass)
	if err != nil {
		return fmt.Errorf("superadmin: hash admin password: %w", err)
	}

	pool, err := s.registry.Get(ctx, t.DBName)
	if err != nil {
		return fmt.Errorf("superadmin: connect to tenant database: %w", err)
	}
	_, err = pool.Exec(ctx, `
		INSERT INTO users (email, hashed_password, full_name, role, is_active)
		VALUES ($1, $2, $3, 'admin', TRUE)`,
		email, hash, fullName)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return fmt.Errorf("superadmin: admin %s already exists in tenant %s", email, t.Slug)
		}
		return fmt.Errorf("superadmin: create tenant admin: %w", err)
	}

	if _, err := s.repo.InsertTenantAdmin(ctx, t.ID, email); err != nil {
		// The account exists either way; the audit row is best effort.
		s.log.WarnContext(ctx, "tenant admin audit row failed",
			slog.String("tenant_id", t.ID.String()), logger.Error(err))
	}
	return nil
}

func (s *Service) ListTenants(ctx context.Context) ([]*tenant.Tenant, error) {
	return s.repo.ListTenants(ctx)
}

func (s *Service) GetTenant(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	return s.repo.GetTenantByID(ctx, id)
}

func (s *Service) UpdateTenant(ctx context.Context, id uuid.UUID, upd TenantUpdate) (*tenant.Tenant, error) {
	return s.repo.UpdateTenant(ctx, id, upd)
}

// DeactivateTenant flips is_active off; the database and its data remain.
func (s *Service) DeactivateTenant(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	inactive := false
	return s.repo.UpdateTenant(ctx, id, TenantUpdate{Active: &inactive})
}

func (s *Service) ListPlans(ctx context.Context) ([]*Plan, error) {
	return s.repo.ListPlans(ctx)
}

// CreatePlanInput creates a subscription plan. The id is a short
// lowercase handle like "basic" that tenants reference.
type CreatePlanInput struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	MaxUsers          *int   `json:"max_users"`
	MaxStorageMB      *int   `json:"max_storage_mb"`
	PriceMonthlyCents *int64 `json:"price_monthly_cents"`
}

func (s *Service) CreatePlan(ctx context.Context, in CreatePlanInput) (*Plan, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.Name = strings.TrimSpace(in.Name)
	if in.ID == "" || in.Name == "" || !slug.IsValid(in.ID) {
		return nil, ErrInvalidPlan
	}

	p := &Plan{
		ID:                in.ID,
		Name:              in.Name,
		Description:       in.Description,
		MaxUsers:          in.MaxUsers,
		MaxStorageMB:      in.MaxStorageMB,
		PriceMonthlyCents: in.PriceMonthlyCents,
		Active:            true,
	}
	if err := s.repo.InsertPlan(ctx, p); err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "plan created", slog.String("plan_id", p.ID))
	return p, nil
}

func (s *Service) UpdatePlan(ctx context.Context, id string, upd PlanUpdate) (*Plan, error) {
	return s.repo.UpdatePlan(ctx, id, upd)
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	total, active, err := s.repo.CountTenants(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{
		TotalTenants:  total,
		ActiveTenants: active,
		CachedPools:   s.registry.Len(),
	}, nil
}
