package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/pg"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/tenantdb"
)

const userColumns = `id, email, hashed_password, full_name, COALESCE(phone, ''),
	role, is_active, created_at, updated_at`

// Repository reads and writes user rows in the current tenant's database.
type Repository struct {
	sessions *tenantdb.Sessions
}

func NewRepository(sessions *tenantdb.Sessions) *Repository {
	return &Repository{sessions: sessions}
}

func scanUser(row interface{ Scan(dest ...any) error }) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.HashedPassword, &u.FullName, &u.Phone,
		&u.Role, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	db, err := r.sessions.Pool(ctx)
	if err != nil {
		return nil, err
	}
	row := db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	u, err := scanUser(row)
	if tenantdb.IsNotFound(err) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("auth: get user by email: %w", err)
	}
	return u, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	db, err := r.sessions.Pool(ctx)
	if err != nil {
		return nil, err
	}
	row := db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if tenantdb.IsNotFound(err) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("auth: get user by id: %w", err)
	}
	return u, nil
}

// roleForCount assigns the role for the next account given how many
// already exist: the first account in a church is its administrator,
// everyone after joins as a member.
func roleForCount(existing int64) string {
	if existing == 0 {
		return RoleAdmin
	}
	return RoleMember
}

// Insert creates the account. When the role is not preset it depends on
// the current row count, so the table is locked for the rest of the
// transaction first: under READ COMMITTED two concurrent first
// registrations would otherwise both read zero and both become admin.
func (r *Repository) Insert(ctx context.Context, u *User) error {
	return r.sessions.WithTx(ctx, func(ctx context.Context, sess tenantdb.Session) error {
		if u.Role == "" {
			if _, err := sess.Exec(ctx, `LOCK TABLE users IN SHARE ROW EXCLUSIVE MODE`); err != nil {
				return fmt.Errorf("auth: lock users: %w", err)
			}
			var count int64
			if err := sess.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
				return fmt.Errorf("auth: count users: %w", err)
			}
			u.Role = roleForCount(count)
		}

		row := sess.QueryRow(ctx, `
			INSERT INTO users (email, hashed_password, full_name, phone, role)
			VALUES ($1, $2, $3, NULLIF($4, ''), $5)
			RETURNING id, is_active, created_at, updated_at`,
			u.Email, u.HashedPassword, u.FullName, u.Phone, u.Role)
		if err := row.Scan(&u.ID, &u.Active, &u.CreatedAt, &u.UpdatedAt); err != nil {
			if pg.IsDuplicateKeyError(err) {
				return ErrEmailTaken
			}
			return fmt.Errorf("auth: insert user: %w", err)
		}
		return nil
	})
}

func (r *Repository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	db, err := r.sessions.Pool(ctx)
	if err != nil {
		return err
	}
	tag, err := db.Exec(ctx,
		`UPDATE users SET hashed_password = $1, updated_at = NOW() WHERE id = $2`, hash, id)
	if err != nil {
		return fmt.Errorf("auth: update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
