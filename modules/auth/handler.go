package auth

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

func translate(err error) error {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return httpx.Unauthorized("invalid email or password")
	case errors.Is(err, ErrAccountDisabled):
		return httpx.Forbidden("account is disabled")
	case errors.Is(err, ErrEmailTaken):
		return httpx.Conflict("email already registered")
	case errors.Is(err, ErrUserNotFound):
		return httpx.NotFound("user not found")
	case errors.Is(err, ErrWeakPassword):
		return httpx.BadRequest("password must be at least 8 characters")
	default:
		return err
	}
}

func (h *handler) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	httpx.RespondError(w, r, h.log, translate(err))
}

// subjectID extracts the authenticated user id from the token claims.
func subjectID(r *http.Request) (uuid.UUID, error) {
	claims, ok := jwt.ClaimsFromContext(r.Context())
	if !ok {
		return uuid.Nil, jwt.ErrMissingToken
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, jwt.ErrInvalidToken
	}
	return id, nil
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var in RegisterInput
	if err := httpx.Decode(r, &in); err != nil {
		h.respondErr(w, r, err)
		return
	}
	if in.Email == "" || in.Password == "" || in.FullName == "" {
		h.respondErr(w, r, httpx.BadRequest("email, password and full_name are required"))
		return
	}
	u, err := h.svc.Register(r.Context(), in)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, u)
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
	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
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
	id, err := subjectID(r)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	u, err := h.svc.Me(r.Context(), id)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *handler) changePassword(w http.ResponseWriter, r *http.Request) {
	id, err := subjectID(r)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	var req changePasswordRequest
	if err := httpx.Decode(r, &req); err != nil {
		h.respondErr(w, r, err)
		return
	}
	if err := h.svc.ChangePassword(r.Context(), id, req.CurrentPassword, req.NewPassword); err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.NoContent(w)
}

// Router mounts the tenant auth API. Register, login and refresh are open;
// the rest requires a valid access token.
func Router(svc *Service, tokens *jwt.Service, log *slog.Logger) chi.Router {
	h := &handler{svc: svc, log: log.With(logger.Component("auth.handler"))}

	r := chi.NewRouter()
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Post("/refresh", h.refresh)

	r.Group(func(r chi.Router) {
		r.Use(jwt.Middleware(tokens))
		r.Get("/me", h.me)
		r.Post("/change-password", h.changePassword)
	})

	return r
}
