// Package users is the administrator's view of the accounts in a church:
// listing, role changes and deactivation. Self-service account operations
// live in the auth module.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JuanEstebanAstaiza/ekklesia-admin/modules/auth"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/logger"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/tenantdb"
)

var (
	ErrUserNotFound     = errors.New("users: user not found")
	ErrInvalidRole      = errors.New("users: invalid role")
	ErrLastAdmin        = errors.New("users: cannot demote or deactivate the last administrator")
	ErrNoFieldsToUpdate = errors.New("users: no fields to update")
)

const userColumns = `id, email, full_name, COALESCE(phone, ''), role, is_active, created_at, updated_at`

// User is the administrative projection of an account; it never carries
// the password hash.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	Active    bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Update is a partial patch of the mutable account fields.
type Update struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
	Role     *string `json:"role"`
	Active   *bool   `json:"is_active"`
}

type Service struct {
	sessions *tenantdb.Sessions
	log      *slog.Logger
}

func NewService(sessions *tenantdb.Sessions, log *slog.Logger) *Service {
	return &Service{sessions: sessions, log: log.With(logger.Component("users"))}
}

func scanUser(row interface{ Scan(dest ...any) error }) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.Phone, &u.Role,
		&u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Service) List(ctx context.Context, role string) ([]*User, error) {
	db, err := s.sessions.Pool(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + ` FROM users`
	args := []any{}
	if role != "" {
		query += ` WHERE role = $1`
		args = append(args, role)
	}
	query += ` ORDER BY created_at`

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	defer rows.Close()

	var out []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("users: scan: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	db, err := s.sessions.Pool(ctx)
	if err != nil {
		return nil, err
	}
	row := db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if tenantdb.IsNotFound(err) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("users: get: %w", err)
	}
	return u, nil
}

// UpdateUser applies a partial patch. Demoting or deactivating the last
// active administrator is refused so a church cannot lock itself out.
func (s *Service) UpdateUser(ctx context.Context, id uuid.UUID, upd Update) (*User, error) {
	if upd.Role != nil && !auth.ValidRole(*upd.Role) {
		return nil, ErrInvalidRole
	}
	if upd.FullName == nil && upd.Phone == nil && upd.Role == nil && upd.Active == nil {
		return nil, ErrNoFieldsToUpdate
	}

	var out *User
	err := s.sessions.WithTx(ctx, func(ctx context.Context, sess tenantdb.Session) error {
		losesAdmin := (upd.Role != nil && *upd.Role != auth.RoleAdmin) ||
			(upd.Active != nil && !*upd.Active)
		if losesAdmin {
			var admins int64
			err := sess.QueryRow(ctx, `
				SELECT COUNT(*) FROM users
				WHERE role = $1 AND is_active AND id <> $2`,
				auth.RoleAdmin, id).Scan(&admins)
			if err != nil {
				return fmt.Errorf("users: count admins: %w", err)
			}
			var isAdmin bool
			err = sess.QueryRow(ctx,
				`SELECT role = $1 FROM users WHERE id = $2`, auth.RoleAdmin, id).Scan(&isAdmin)
			if tenantdb.IsNotFound(err) {
				return ErrUserNotFound
			}
			if err != nil {
				return fmt.Errorf("users: check role: %w", err)
			}
			if isAdmin && admins == 0 {
				return ErrLastAdmin
			}
		}

		sets := make([]string, 0, 4)
		args := make([]any, 0, 5)
		add := func(col string, v any) {
			args = append(args, v)
			sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
		}
		if upd.FullName != nil {
			add("full_name", *upd.FullName)
		}
		if upd.Phone != nil {
			add("phone", *upd.Phone)
		}
		if upd.Role != nil {
			add("role", *upd.Role)
		}
		if upd.Active != nil {
			add("is_active", *upd.Active)
		}
		args = append(args, id)

		row := sess.QueryRow(ctx, fmt.Sprintf(
			`UPDATE users SET %s, updated_at = NOW() WHERE id = $%d RETURNING `+userColumns,
			strings.Join(sets, ", "), len(args)), args...)
		u, err := scanUser(row)
		if tenantdb.IsNotFound(err) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("users: update: %w", err)
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Deactivate disables the account. Rows are never deleted: donations and
// expenses reference their creator.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) (*User, error) {
	inactive := false
	return s.UpdateUser(ctx, id, Update{Active: &inactive})
}
