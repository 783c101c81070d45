package donations

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

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
		return httpx.NotFound("donation not found")
	case errors.Is(err, ErrEmptyDonation),
		errors.Is(err, ErrSplitMismatch),
		errors.Is(err, ErrNegativeAmount),
		errors.Is(err, ErrMissingWitnesses):
		return httpx.BadRequest("%s", err.Error())
	case errors.Is(err, ErrWeekClosed):
		return httpx.Conflict("week is already closed")
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

func (h *handler) create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := httpx.Decode(r, &in); err != nil {
		h.respondErr(w, r, err)
		return
	}
	d, err := h.svc.Create(r.Context(), in, subjectID(r))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, d)
}

// dateRange reads the optional ?from=&to= query filters.
func dateRange(r *http.Request) (ListFilter, error) {
	var f ListFilter
	q := r.URL.Query()
	if v := q.Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, httpx.BadRequest("invalid from date")
		}
		f.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, httpx.BadRequest("invalid to date")
		}
		f.To = t
	}
	return f, nil
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	f, err := dateRange(r)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	out, err := h.svc.List(r.Context(), f)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *handler) listMine(w http.ResponseWriter, r *http.Request) {
	id := subjectID(r)
	if id == uuid.Nil {
		h.respondErr(w, r, jwt.ErrMissingToken)
		return
	}
	out, err := h.svc.ListMine(r.Context(), id)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.respondErr(w, r, httpx.BadRequest("invalid donation id"))
		return
	}
	d, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *handler) summary(w http.ResponseWriter, r *http.Request) {
	f, err := dateRange(r)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	out, err := h.svc.Summary(r.Context(), f)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *handler) dashboard(w http.ResponseWriter, r *http.Request) {
	f, err := dateRange(r)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	out, err := h.svc.Dashboard(r.Context(), f)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

// yearMonth reads ?month=&year=, defaulting to the current month.
func yearMonth(r *http.Request) (int, time.Month, error) {
	now := time.Now().UTC()
	year, month := now.Year(), now.Month()
	q := r.URL.Query()
	if v := q.Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, httpx.BadRequest("invalid year")
		}
		year = y
	}
	if v := q.Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return 0, 0, httpx.BadRequest("invalid month")
		}
		month = time.Month(m)
	}
	return year, month, nil
}

func (h *handler) monthlyReport(w http.ResponseWriter, r *http.Request) {
	year, month, err := yearMonth(r)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	rep, err := h.svc.MonthlyReport(r.Context(), year, month)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rep)
}

func (h *handler) monthlyCSV(w http.ResponseWriter, r *http.Request) {
	year, month, err := yearMonth(r)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	rep, err := h.svc.MonthlyReport(r.Context(), year, month)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="donations-%04d-%02d.csv"`, year, int(month)))
	if err := WriteMonthlyCSV(w, rep); err != nil {
		h.log.Error("write monthly csv", logger.Error(err))
	}
}

// weekParams reads the {week} route param and the ?year query, defaulting
// the year to the current ISO week-year.
func weekParams(r *http.Request) (weekYear, weekNumber int, err error) {
	weekNumber, err = strconv.Atoi(chi.URLParam(r, "week"))
	if err != nil || weekNumber < 1 || weekNumber > 53 {
		return 0, 0, httpx.BadRequest("invalid week number")
	}
	weekYear, _ = time.Now().UTC().ISOWeek()
	if v := r.URL.Query().Get("year"); v != "" {
		weekYear, err = strconv.Atoi(v)
		if err != nil {
			return 0, 0, httpx.BadRequest("invalid year")
		}
	}
	return weekYear, weekNumber, nil
}

func (h *handler) weeklyReport(w http.ResponseWriter, r *http.Request) {
	weekYear, weekNumber, err := weekParams(r)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	rep, err := h.svc.WeeklyReport(r.Context(), weekYear, weekNumber)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rep)
}

func (h *handler) weeklyCSV(w http.ResponseWriter, r *http.Request) {
	weekYear, weekNumber, err := weekParams(r)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	rep, err := h.svc.WeeklyReport(r.Context(), weekYear, weekNumber)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="week-%04d-%02d.csv"`, weekYear, weekNumber))
	if err := WriteWeeklyCSV(w, rep); err != nil {
		h.log.Error("write weekly csv", logger.Error(err))
	}
}

func (h *handler) closeWeek(w http.ResponseWriter, r *http.Request) {
	var in CloseWeekInput
	if err := httpx.Decode(r, &in); err != nil {
		h.respondErr(w, r, err)
		return
	}
	if in.WeekYear == 0 || in.WeekNumber == 0 {
		h.respondErr(w, r, httpx.BadRequest("week_year and week_number are required"))
		return
	}
	sum, err := h.svc.CloseWeek(r.Context(), in, subjectID(r))
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sum)
}

// Router mounts donation recording. Recording and listing require the
// accountant or admin role; members can read their own donations.
func Router(svc *Service, tokens *jwt.Service, log *slog.Logger) chi.Router {
	h := &handler{svc: svc, log: log.With(logger.Component("donations.handler"))}

	r := chi.NewRouter()
	r.Use(jwt.Middleware(tokens))

	r.Get("/me", h.listMine)

	r.Group(func(r chi.Router) {
		r.Use(jwt.RequireRole(auth.RoleAdmin, auth.RoleAccountant))
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})

	return r
}

// ReportsRouter mounts the accounting reports under a separate prefix.
func ReportsRouter(svc *Service, tokens *jwt.Service, log *slog.Logger) chi.Router {
	h := &handler{svc: svc, log: log.With(logger.Component("donations.reports"))}

	r := chi.NewRouter()
	r.Use(jwt.Middleware(tokens))
	r.Use(jwt.RequireRole(auth.RoleAdmin, auth.RoleAccountant))

	r.Get("/summary", h.summary)
	r.Get("/dashboard", h.dashboard)
	r.Get("/monthly", h.monthlyReport)
	r.Get("/monthly/csv", h.monthlyCSV)
	r.Get("/weekly/{week}", h.weeklyReport)
	r.Get("/weekly/{week}/csv", h.weeklyCSV)
	r.Post("/weekly/close", h.closeWeek)

	return r
}
