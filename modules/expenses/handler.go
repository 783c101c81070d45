package expenses

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JuanEstebanAstaiza/ekklesia-admin/modules/auth"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/file"
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
		return httpx.NotFound("expense not found")
	case errors.Is(err, ErrCategoryNotFound):
		return httpx.NotFound("category not found")
	case errors.Is(err, ErrDocumentNotFound):
		return httpx.NotFound("document not found")
	case errors.Is(err, ErrCategoryTaken):
		return httpx.Conflict("category name already exists")
	case errors.Is(err, ErrCategoryInUse):
		return httpx.Conflict("category has expenses and cannot be deleted")
	case errors.Is(err, ErrInvalidTransition):
		return httpx.Conflict("invalid status transition")
	case errors.Is(err, ErrInvalidAmount):
		return httpx.BadRequest("amount must be positive")
	case errors.Is(err, file.ErrTypeNotAllowed):
		return httpx.BadRequest("file type not allowed: pdf, png and jpeg only")
	case errors.Is(err, file.ErrFileTooLarge):
		return httpx.BadRequest("file exceeds the upload size limit")
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

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, httpx.BadRequest("invalid %s", name)
	}
	return id, nil
}

// Categories

func (h *handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var in CategoryInput
	if err := httpx.Decode(r, &in); err != nil {
		h.respondErr(w, r, err)
		return
	}
	if in.Name == "" {
		h.respondErr(w, r, httpx.BadRequest("name is required"))
		return
	}
	c, err := h.svc.CreateCategory(r.Context(), in)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *handler) listCategories(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.ListCategories(r.Context())
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	if err := h.svc.DeleteCategory(r.Context(), id); err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.NoContent(w)
}

// Expenses

func (h *handler) create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := httpx.Decode(r, &in); err != nil {
		h.respondErr(w, r, err)
		return
	}
	if in.CategoryID == uuid.Nil || in.Description == "" {
		h.respondErr(w, r, httpx.BadRequest("category_id and description are required"))
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
	var f ListFilter
	q := r.URL.Query()
	if v := q.Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			h.respondErr(w, r, httpx.BadRequest("invalid from date"))
			return
		}
		f.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			h.respondErr(w, r, httpx.BadRequest("invalid to date"))
			return
		}
		f.To = t
	}
	if v := q.Get("category_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			h.respondErr(w, r, httpx.BadRequest("invalid category_id"))
			return
		}
		f.CategoryID = id
	}
	f.Status = q.Get("status")

	out, err := h.svc.List(r.Context(), f)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *handler) summaryByCategory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var year int
	var month time.Month
	if v := q.Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			h.respondErr(w, r, httpx.BadRequest("invalid year"))
			return
		}
		year = n
	}
	if v := q.Get("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 12 {
			h.respondErr(w, r, httpx.BadRequest("invalid month"))
			return
		}
		month = time.Month(n)
	}
	out, err := h.svc.SummaryByCategory(r.Context(), year, month)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *handler) monthlySummary(w http.ResponseWriter, r *http.Request) {
	var year int
	if v := r.URL.Query().Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			h.respondErr(w, r, httpx.BadRequest("invalid year"))
			return
		}
		year = n
	}
	out, err := h.svc.MonthlySummary(r.Context(), year)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
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

func (h *handler) transition(fn func(ctx context.Context, id, actor uuid.UUID) (*Expense, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			h.respondErr(w, r, err)
			return
		}
		e, err := fn(r.Context(), id, subjectID(r))
		if err != nil {
			h.respondErr(w, r, err)
			return
		}
		httpx.JSON(w, http.StatusOK, e)
	}
}

// Documents

func (h *handler) uploadDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondErr(w, r, err)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		h.respondErr(w, r, httpx.BadRequest("multipart field 'file' is required"))
		return
	}
	defer f.Close()

	mimeType := header.Header.Get("Content-Type")
	doc, err := h.svc.AttachDocument(r.Context(), id, f, header.Filename, mimeType, subjectID(r))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, doc)
}

func (h *handler) listDocuments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	out, err := h.svc.ListDocuments(r.Context(), id)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

// Router mounts expense tracking for accountants and admins. Approval and
// payment are admin decisions.
func Router(svc *Service, tokens *jwt.Service, log *slog.Logger) chi.Router {
	h := &handler{svc: svc, log: log.With(logger.Component("expenses.handler"))}

	r := chi.NewRouter()
	r.Use(jwt.Middleware(tokens))
	r.Use(jwt.RequireRole(auth.RoleAdmin, auth.RoleAccountant))

	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.listCategories)
		r.Post("/", h.createCategory)
		r.Delete("/{id}", h.deleteCategory)
	})

	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/summary/by-category", h.summaryByCategory)
	r.Get("/summary/monthly", h.monthlySummary)
	r.Get("/{id}", h.get)

	r.Group(func(r chi.Router) {
		r.Use(jwt.RequireRole(auth.RoleAdmin))
		r.Patch("/{id}/approve", h.transition(h.svc.Approve))
		r.Patch("/{id}/reject", h.transition(h.svc.Reject))
		r.Patch("/{id}/pay", h.transition(h.svc.Pay))
	})

	r.Post("/{id}/documents", h.uploadDocument)
	r.Get("/{id}/documents", h.listDocuments)

	return r
}
