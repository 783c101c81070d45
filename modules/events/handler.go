package events

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
	case errors.Is(err, ErrNotFound):
		return httpx.NotFound("event not found")
	case errors.Is(err, ErrNotPublished):
		return httpx.Forbidden("event is not open for registration")
	case errors.Is(err, ErrFull):
		return httpx.Conflict("event is at capacity")
	case errors.Is(err, ErrAlreadyRegistered):
		return httpx.Conflict("email already registered for this event")
	default:
		return err
	}
}

func (h *handler) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	httpx.RespondError(w, r, h.log, translate(err))
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

func (h *handler) eventID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, httpx.BadRequest("invalid event id")
	}
	return id, nil
}

func (h *handler) create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := httpx.Decode(r, &in); err != nil {
		h.respondErr(w, r, err)
		return
	}
	if in.Title == "" || in.StartsAt.IsZero() {
		h.respondErr(w, r, httpx.BadRequest("title and starts_at are required"))
		return
	}
	e, err := h.svc.Create(r.Context(), in, subjectID(r))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, e)
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.List(r.Context(), false)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := h.eventID(r)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	e, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := h.eventID(r)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	var in CreateInput
	if err := httpx.Decode(r, &in); err != nil {
		h.respondErr(w, r, err)
		return
	}
	e, err := h.svc.Update(r.Context(), id, in)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := h.eventID(r)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.NoContent(w)
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	id, err := h.eventID(r)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	var in RegisterInput
	if err := httpx.Decode(r, &in); err != nil {
		h.respondErr(w, r, err)
		return
	}
	if in.FullName == "" || in.Email == "" {
		h.respondErr(w, r, httpx.BadRequest("full_name and email are required"))
		return
	}
	reg, err := h.svc.Register(r.Context(), id, in)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, reg)
}

func (h *handler) listRegistrations(w http.ResponseWriter, r *http.Request) {
	id, err := h.eventID(r)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	out, err := h.svc.ListRegistrations(r.Context(), id)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

// Router mounts event management. Registration is open (public sign-up
// form); everything else needs a token, writes need admin.
func Router(svc *Service, tokens *jwt.Service, log *slog.Logger) chi.Router {
	h := &handler{svc: svc, log: log.With(logger.Component("events.handler"))}

	r := chi.NewRouter()

	r.Post("/{id}/registrations", h.register)

	r.Group(func(r chi.Router) {
		r.Use(jwt.Middleware(tokens))

		r.Get("/", h.list)
		r.Get("/{id}", h.get)

		r.Group(func(r chi.Router) {
			r.Use(jwt.RequireRole(auth.RoleAdmin))
			r.Post("/", h.create)
			r.Put("/{id}", h.update)
			r.Delete("/{id}", h.delete)
			r.Get("/{id}/registrations", h.listRegistrations)
		})
	})

	return r
}
