package auth

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/jwt"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/logger"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/password"
)

type Service struct {
	repo   *Repository
	tokens *jwt.Service
	log    *slog.Logger
}

func NewService(repo *Repository, tokens *jwt.Service, log *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		tokens: tokens,
		log:    log.With(logger.Component("auth")),
	}
}

// RegisterInput creates a new account. Role is assigned server side.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

// Register creates an account in the current tenant. The first account in
// a freshly provisioned church becomes its administrator.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if len(in.Password) < 8 {
		return nil, ErrWeakPassword
	}
	hash, err := password.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Email:          strings.ToLower(strings.TrimSpace(in.Email)),
		HashedPassword: hash,
		FullName:       strings.TrimSpace(in.FullName),
		Phone:          strings.TrimSpace(in.Phone),
	}
	if err := s.repo.Insert(ctx, u); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "user registered",
		slog.String("user_id", u.ID.String()), slog.String("role", u.Role))
	return u, nil
}

// LoginResult bundles the token pair with the authenticated account.
type LoginResult struct {
	jwt.TokenPair
	User *User `json:"user"`
}

func (s *Service) Login(ctx context.Context, email, pass string) (*LoginResult, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if err == ErrUserNotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := password.Verify(u.HashedPassword, pass); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.Active {
		return nil, ErrAccountDisabled
	}

	pair, err := s.tokens.Pair(u.ID.String(), u.Role)
	if err != nil {
		return nil, err
	}
	return &LoginResult{TokenPair: pair, User: u}, nil
}

// Refresh issues a new token pair. Role is re-read from the database so a
// role change takes effect at the next refresh, not at token expiry.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (jwt.TokenPair, error) {
	claims, err := s.tokens.Parse(refreshToken, jwt.ScopeRefresh)
	if err != nil {
		return jwt.TokenPair{}, err
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return jwt.TokenPair{}, jwt.ErrInvalidToken
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return jwt.TokenPair{}, err
	}
	if !u.Active {
		return jwt.TokenPair{}, ErrAccountDisabled
	}
	return s.tokens.Pair(u.ID.String(), u.Role)
}

func (s *Service) Me(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// ChangePassword verifies the current password before storing a new hash.
func (s *Service) ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error {
	if len(next) < 8 {
		return ErrWeakPassword
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := password.Verify(u.HashedPassword, current); err != nil {
		return ErrInvalidCredentials
	}
	hash, err := password.Hash(next)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, id, hash)
}
