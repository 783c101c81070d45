// Package events manages church events and public sign-ups. Published
// events are visible without authentication; registration enforces the
// event capacity and one sign-up per email.
package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/logger"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/pg"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/tenantdb"
)

var (
	ErrNotFound          = errors.New("events: event not found")
	ErrNotPublished      = errors.New("events: event is not open for registration")
	ErrFull              = errors.New("events: event is at capacity")
	ErrAlreadyRegistered = errors.New("events: email already registered for this event")
)

const eventColumns = `id, title, COALESCE(description, ''), COALESCE(location, ''),
	starts_at, ends_at, capacity, is_published, created_by, created_at`

// Event is a scheduled church activity.
type Event struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	StartsAt    time.Time  `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	Capacity    *int       `json:"capacity,omitempty"` // nil means unlimited
	Published   bool       `json:"is_published"`
	CreatedBy   *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Registration is one sign-up for an event.
type Registration struct {
	ID        uuid.UUID `json:"id"`
	EventID   uuid.UUID `json:"event_id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Service struct {
	sessions *tenantdb.Sessions
	log      *slog.Logger
}

func NewService(sessions *tenantdb.Sessions, log *slog.Logger) *Service {
	return &Service{sessions: sessions, log: log.With(logger.Component("events"))}
}

func scanEvent(row interface{ Scan(dest ...any) error }) (*Event, error) {
	var e Event
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Location,
		&e.StartsAt, &e.EndsAt, &e.Capacity, &e.Published, &e.CreatedBy, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateInput describes a new or updated event.
type CreateInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	StartsAt    time.Time  `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	Capacity    *int       `json:"capacity"`
	Published   bool       `json:"is_published"`
}

func (s *Service) Create(ctx context.Context, in CreateInput, createdBy uuid.UUID) (*Event, error) {
	db, err := s.sessions.Pool(ctx)
	if err != nil {
		return nil, err
	}

	e := &Event{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Location:    strings.TrimSpace(in.Location),
		StartsAt:    in.StartsAt,
		EndsAt:      in.EndsAt,
		Capacity:    in.Capacity,
		Published:   in.Published,
	}
	if createdBy != uuid.Nil {
		e.CreatedBy = &createdBy
	}

	row := db.QueryRow(ctx, `
		INSERT INTO events (title, description, location, starts_at, ends_at, capacity, is_published, created_by)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		e.Title, e.Description, e.Location, e.StartsAt, e.EndsAt, e.Capacity, e.Published, e.CreatedBy)
	if err := row.Scan(&e.ID, &e.CreatedAt); err != nil {
		return nil, fmt.Errorf("events: insert: %w", err)
	}
	return e, nil
}

// List returns all events; publishedOnly restricts to the public view.
func (s *Service) List(ctx context.Context, publishedOnly bool) ([]*Event, error) {
	db, err := s.sessions.Pool(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + eventColumns + ` FROM events`
	if publishedOnly {
		query += ` WHERE is_published`
	}
	query += ` ORDER BY starts_at`

	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("events: list: %w", err)
	}
	defer rows.Close()

	var out []*Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("events: scan: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListUpcoming returns published events that have not started yet.
func (s *Service) ListUpcoming(ctx context.Context) ([]*Event, error) {
	db, err := s.sessions.Pool(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.Query(ctx, `
		SELECT `+eventColumns+` FROM events
		WHERE is_published AND starts_at >= NOW()
		ORDER BY starts_at`)
	if err != nil {
		return nil, fmt.Errorf("events: list upcoming: %w", err)
	}
	defer rows.Close()

	var out []*Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("events: scan: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Event, error) {
	db, err := s.sessions.Pool(ctx)
	if err != nil {
		return nil, err
	}
	row := db.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	e, err := scanEvent(row)
	if tenantdb.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("events: get: %w", err)
	}
	return e, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in CreateInput) (*Event, error) {
	db, err := s.sessions.Pool(ctx)
	if err != nil {
		return nil, err
	}
	row := db.QueryRow(ctx, `
		UPDATE events SET title = $1, description = NULLIF($2, ''), location = NULLIF($3, ''),
			starts_at = $4, ends_at = $5, capacity = $6, is_published = $7
		WHERE id = $8
		RETURNING `+eventColumns,
		strings.TrimSpace(in.Title), strings.TrimSpace(in.Description), strings.TrimSpace(in.Location),
		in.StartsAt, in.EndsAt, in.Capacity, in.Published, id)
	e, err := scanEvent(row)
	if tenantdb.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("events: update: %w", err)
	}
	return e, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	db, err := s.sessions.Pool(ctx)
	if err != nil {
		return err
	}
	tag, err := db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("events: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RegisterInput is a public sign-up.
type RegisterInput struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// Register signs someone up for a published event. Capacity is checked
// inside a transaction holding the event row, so a full event cannot
// oversell under concurrent sign-ups.
func (s *Service) Register(ctx context.Context, eventID uuid.UUID, in RegisterInput) (*Registration, error) {
	reg := &Registration{
		EventID:  eventID,
		FullName: strings.TrimSpace(in.FullName),
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:    strings.TrimSpace(in.Phone),
	}

	err := s.sessions.WithTx(ctx, func(ctx context.Context, sess tenantdb.Session) error {
		var published bool
		var capacity *int
		err := sess.QueryRow(ctx,
			`SELECT is_published, capacity FROM events WHERE id = $1 FOR UPDATE`,
			eventID).Scan(&published, &capacity)
		if tenantdb.IsNotFound(err) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("events: lock event: %w", err)
		}
		if !published {
			return ErrNotPublished
		}

		if capacity != nil {
			var count int
			err := sess.QueryRow(ctx,
				`SELECT COUNT(*) FROM event_registrations WHERE event_id = $1`,
				eventID).Scan(&count)
			if err != nil {
				return fmt.Errorf("events: count registrations: %w", err)
			}
			if count >= *capacity {
				return ErrFull
			}
		}

		row := sess.QueryRow(ctx, `
			INSERT INTO event_registrations (event_id, full_name, email, phone)
			VALUES ($1, $2, $3, NULLIF($4, ''))
			RETURNING id, created_at`,
			reg.EventID, reg.FullName, reg.Email, reg.Phone)
		if err := row.Scan(&reg.ID, &reg.CreatedAt); err != nil {
			if pg.IsDuplicateKeyError(err) {
				return ErrAlreadyRegistered
			}
			return fmt.Errorf("events: insert registration: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "event registration",
		slog.String("event_id", eventID.String()))
	return reg, nil
}

func (s *Service) ListRegistrations(ctx context.Context, eventID uuid.UUID) ([]*Registration, error) {
	if _, err := s.Get(ctx, eventID); err != nil {
		return nil, err
	}
	db, err := s.sessions.Pool(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := db.Query(ctx, `
		SELECT id, event_id, full_name, email, COALESCE(phone, ''), created_at
		FROM event_registrations WHERE event_id = $1 ORDER BY created_at`, eventID)
	if err != nil {
		return nil, fmt.Errorf("events: list registrations: %w", err)
	}
	defer rows.Close()

	var out []*Registration
	for rows.Next() {
		var reg Registration
		if err := rows.Scan(&reg.ID, &reg.EventID, &reg.FullName, &reg.Email,
			&reg.Phone, &reg.CreatedAt); err != nil {
			return nil, fmt.Errorf("events: scan registration: %w", err)
		}
		out = append(out, &reg)
	}
	return out, rows.Err()
}
