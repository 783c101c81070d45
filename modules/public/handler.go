package public

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

func subjectID(r *http.Request) uuid.UUID {
	claims, ok := jwt.ClaimsFromContext(r.Context())
	if !ok {
		return uuid.Nil
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func (h *handler) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotConfigured):
		err = httpx.NotFound("church is not configured yet")
	case errors.Is(err, ErrContentNotFound):
		err = httpx.NotFound("content not found")
	case errors.Is(err, ErrContentSlugTaken):
		err = httpx.Conflict("a page with this slug already exists")
	case errors.Is(err, ErrInvalidContentSlug),
		errors.Is(err, ErrInvalidContentType),
		errors.Is(err, ErrMissingContentTitle),
		errors.Is(err, ErrNoContentChanges):
		err = httpx.BadRequest("%s", err.Error())
	}
	httpx.RespondError(w, r, h.log, err)
}

func (h *handler) getConfig(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.GetConfig(r.Context())
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *handler) donationInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.DonationInfo(r.Context())
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, info)
}

func (h *handler) upcomingEvents(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.UpcomingEvents(r.Context())
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *handler) updateConfig(w http.ResponseWriter, r *http.Request) {
	var c Config
	if err := httpx.Decode(r, &c); err != nil {
		h.respondErr(w, r, err)
		return
	}
	if c.Name == "" {
		h.respondErr(w, r, httpx.BadRequest("name is required"))
		return
	}
	out, err := h.svc.UpdateConfig(r.Context(), c)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *handler) publishedContent(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.PublishedContent(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *handler) listContent(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ListContent(r.Context())
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *handler) createContent(w http.ResponseWriter, r *http.Request) {
	var in ContentInput
	if err := httpx.Decode(r, &in); err != nil {
		h.respondErr(w, r, err)
		return
	}
	c, err := h.svc.CreateContent(r.Context(), in, subjectID(r))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *handler) updateContent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.respondErr(w, r, httpx.BadRequest("invalid content id"))
		return
	}
	var upd ContentUpdate
	if err := httpx.Decode(r, &upd); err != nil {
		h.respondErr(w, r, err)
		return
	}
	c, err := h.svc.UpdateContent(r.Context(), id, upd)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *handler) deleteContent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.respondErr(w, r, httpx.BadRequest("invalid content id"))
		return
	}
	if err := h.svc.DeleteContent(r.Context(), id); err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.NoContent(w)
}

// Router mounts the unauthenticated church surface.
func Router(svc *Service, log *slog.Logger) chi.Router {
	h := &handler{svc: svc, log: log.With(logger.Component("public.handler"))}

	r := chi.NewRouter()
	r.Get("/config", h.getConfig)
	r.Get("/events", h.upcomingEvents)
	r.Get("/donation-info", h.donationInfo)
	r.Get("/content/{slug}", h.publishedContent)

	return r
}

// ContentRouter mounts the admin-only page editor.
func ContentRouter(svc *Service, tokens *jwt.Service, log *slog.Logger) chi.Router {
	h := &handler{svc: svc, log: log.With(logger.Component("public.handler"))}

	r := chi.NewRouter()
	r.Use(jwt.Middleware(tokens))
	r.Use(jwt.RequireRole(auth.RoleAdmin))
	r.Get("/", h.listContent)
	r.Post("/", h.createContent)
	r.Patch("/{id}", h.updateContent)
	r.Delete("/{id}", h.deleteContent)

	return r
}

// ConfigRouter mounts the admin-only config editor.
func ConfigRouter(svc *Service, tokens *jwt.Service, log *slog.Logger) chi.Router {
	h := &handler{svc: svc, log: log.With(logger.Component("public.handler"))}

	r := chi.NewRouter()
	r.Use(jwt.Middleware(tokens))
	r.Use(jwt.RequireRole(auth.RoleAdmin))
	r.Put("/", h.updateConfig)

	return r
}
