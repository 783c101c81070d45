package superadmin

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/jwt"
)

// Router mounts the control-plane API. Login and refresh are public;
// everything else requires a superadmin access token. The whole subtree is
// expected to be excluded from tenant resolution by the caller.
func Router(svc *Service, tokens *jwt.Service, log *slog.Logger) chi.Router {
	h := newHandler(svc, log)

	r := chi.NewRouter()
	r.Post("/auth/login", h.login)
	r.Post("/auth/refresh", h.refresh)

	r.Group(func(r chi.Router) {
		r.Use(jwt.Middleware(tokens))
		r.Use(jwt.RequireRole(RoleSuperAdmin))

		r.Get("/me", h.me)
		r.Get("/stats", h.stats)

		r.Route("/plans", func(r chi.Router) {
			r.Get("/", h.listPlans)
			r.Post("/", h.createPlan)
			r.Patch("/{id}", h.updatePlan)
		})

		r.Route("/tenants", func(r chi.Router) {
			r.Post("/", h.createTenant)
			r.Get("/", h.listTenants)
			r.Get("/{id}", h.getTenant)
			r.Patch("/{id}", h.updateTenant)
			r.Delete("/{id}", h.deactivateTenant)
			r.Post("/{id}/admins", h.createTenantAdmin)
		})
	})

	return r
}
