package superadmin

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/httpx"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/jwt"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/logger"
)

type handler struct {
	svc *Service
	log *slog.Logger
}

func newHandler(svc *Service, log *slog.Logger) *handler {
	return &handler{svc: svc, log: log.With(logger.Component("superadmin.handler"))}
}

// translate maps control-plane domain errors onto HTTP errors before the
// shared responder runs.
func translate(err error) error {
	switch {
	case errors.Is(err, ErrInvalidSlug):
		return httpx.BadRequest("%s", err.Error())
	case errors.Is(err, ErrSlugTaken):
		return httpx.Conflict("slug already in use")
	case errors.Is(err, ErrProvisioningFailed):
		return httpx.BadGateway("tenant provisioning failed")
	case errors.Is(err, ErrInvalidCredentials):
		return httpx.Unauthorized("invalid email or password")
	case errors.Is(err, ErrAccountDisabled):
		return httpx.Forbidden("account is disabled")
	case errors.Is(err, ErrNoFieldsToUpdate):
		return httpx.BadRequest("no fields to update")
	case errors.Is(err, ErrInvalidPlan):
		return httpx.BadRequest("%s", err.Error())
	case errors.Is(err, ErrPlanExists):
		return httpx.Conflict("plan id already in use")
	case errors.Is(err, ErrPlanNotFound):
		return httpx.NotFound("plan not found")
	default:
		return err
	}
}

func (h *handler) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	httpx.RespondError(w, r, h.log, translate(err))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.Decode(r, &req); err != nil {
		h.respondErr(w, r, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		h.respondErr(w, r, httpx.BadRequest("email and password are required"))
		return
	}
	pair, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *handler) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := httpx.Decode(r, &req); err != nil {
		h.respondErr(w, r, err)
		return
	}
	pair, err := h.svc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pair)
}

func (h *handler) me(w http.ResponseWriter, r *http.Request) {
	claims, ok := jwt.ClaimsFromContext(r.Context())
	if !ok {
		h.respondErr(w, r, jwt.ErrMissingToken)
		return
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		h.respondErr(w, r, jwt.ErrInvalidToken)
		return
	}
	sa, err := h.svc.Me(r.Context(), id)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sa)
}

func (h *handler) createTenant(w http.ResponseWriter, r *http.Request) {
	var in CreateTenantInput
	if err := httpx.Decode(r, &in); err != nil {
		h.respondErr(w, r, err)
		return
	}
	if in.Slug == "" || in.Name == "" {
		h.respondErr(w, r, httpx.BadRequest("slug and name are required"))
		return
	}
	if in.AdminEmail != "" && in.AdminPassword == "" {
		h.respondErr(w, r, httpx.BadRequest("admin_password is required with admin_email"))
		return
	}
	res, err := h.svc.CreateTenant(r.Context(), in)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, res)
}

func (h *handler) listTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.svc.ListTenants(r.Context())
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tenants)
}

func (h *handler) tenantID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, httpx.BadRequest("invalid tenant id")
	}
	return id, nil
}

func (h *handler) getTenant(w http.ResponseWriter, r *http.Request) {
	id, err := h.tenantID(r)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	t, err := h.svc.GetTenant(r.Context(), id)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *handler) updateTenant(w http.ResponseWriter, r *http.Request) {
	id, err := h.tenantID(r)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	var upd TenantUpdate
	if err := httpx.Decode(r, &upd); err != nil {
		h.respondErr(w, r, err)
		return
	}
	t, err := h.svc.UpdateTenant(r.Context(), id, upd)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *handler) deactivateTenant(w http.ResponseWriter, r *http.Request) {
	id, err := h.tenantID(r)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	t, err := h.svc.DeactivateTenant(r.Context(), id)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

type createAdminRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

func (h *handler) createTenantAdmin(w http.ResponseWriter, r *http.Request) {
	id, err := h.tenantID(r)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	var req createAdminRequest
	if err := httpx.Decode(r, &req); err != nil {
		h.respondErr(w, r, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		h.respondErr(w, r, httpx.BadRequest("email and password are required"))
		return
	}
	t, err := h.svc.GetTenant(r.Context(), id)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	if err := h.svc.CreateTenantAdmin(r.Context(), t, req.Email, req.Password, req.FullName); err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.NoContent(w)
}

func (h *handler) createPlan(w http.ResponseWriter, r *http.Request) {
	var in CreatePlanInput
	if err := httpx.Decode(r, &in); err != nil {
		h.respondErr(w, r, err)
		return
	}
	p, err := h.svc.CreatePlan(r.Context(), in)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *handler) updatePlan(w http.ResponseWriter, r *http.Request) {
	var upd PlanUpdate
	if err := httpx.Decode(r, &upd); err != nil {
		h.respondErr(w, r, err)
		return
	}
	p, err := h.svc.UpdatePlan(r.Context(), chi.URLParam(r, "id"), upd)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *handler) listPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.svc.ListPlans(r.Context())
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, plans)
}

func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Stats(r.Context())
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, st)
}
