package users

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JuanEstebanAstaiza/ekklesia-admin/modules/auth"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/httpx"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/jwt"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/logger"
)

type handler struct {
	svc *Service
	log *slog.Logger
}

func translate(err error) error {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return httpx.NotFound("user not found")
	case errors.Is(err, ErrInvalidRole):
		return httpx.BadRequest("invalid role")
	case errors.Is(err, ErrLastAdmin):
		return httpx.Conflict("cannot demote or deactivate the last administrator")
	case errors.Is(err, ErrNoFieldsToUpdate):
		return httpx.BadRequest("no fields to update")
	default:
		return err
	}
}

func (h *handler) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	httpx.RespondError(w, r, h.log, translate(err))
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.List(r.Context(), r.URL.Query().Get("role"))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *handler) userID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, httpx.BadRequest("invalid user id")
	}
	return id, nil
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := h.userID(r)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	u, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (h *handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := h.userID(r)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	var upd Update
	if err := httpx.Decode(r, &upd); err != nil {
		h.respondErr(w, r, err)
		return
	}
	u, err := h.svc.UpdateUser(r.Context(), id, upd)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (h *handler) deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := h.userID(r)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	u, err := h.svc.Deactivate(r.Context(), id)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
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
	u, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

// Router mounts user administration. /me is open to any authenticated
// principal; everything else is admin only.
func Router(svc *Service, tokens *jwt.Service, log *slog.Logger) chi.Router {
	h := &handler{svc: svc, log: log.With(logger.Component("users.handler"))}

	r := chi.NewRouter()
	r.Use(jwt.Middleware(tokens))

	r.Get("/me", h.me)

	r.Group(func(r chi.Router) {
		r.Use(jwt.RequireRole(auth.RoleAdmin))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Patch("/{id}", h.update)
		r.Delete("/{id}", h.deactivate)
	})

	return r
}
