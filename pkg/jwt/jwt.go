// Package jwt issues and validates the HMAC-signed tokens used by both the
// tenant-scoped auth module and the super-admin control plane. Access and
// refresh tokens share one signing key and are distinguished by a scope
// claim, so a refresh token can never be replayed as an access token.
package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Scope marks what a token may be used for.
type Scope string

const (
	ScopeAccess  Scope = "access"
	ScopeRefresh Scope = "refresh"
)

type Config struct {
	SigningKey string        `env:"JWT_SECRET,required"`               // SigningKey signs all tokens; at least 32 bytes.
	Issuer     string        `env:"JWT_ISSUER" envDefault:"ekklesia"`  // Issuer is stamped into the iss claim.
	AccessTTL  time.Duration `env:"JWT_ACCESS_TTL" envDefault:"30m"`   // AccessTTL is the access token lifetime.
	RefreshTTL time.Duration `env:"JWT_REFRESH_TTL" envDefault:"720h"` // RefreshTTL is the refresh token lifetime.
}

// Claims carried by every token issued here.
type Claims struct {
	jwt.RegisteredClaims
	Scope Scope  `json:"scope"`
	Role  string `json:"role,omitempty"`
}

// TokenPair is the login/refresh response payload.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Service signs and parses tokens with HMAC-SHA256.
type Service struct {
	cfg Config
	key []byte
}

func NewService(cfg Config) (*Service, error) {
	if cfg.SigningKey == "" {
		return nil, ErrMissingSigningKey
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 30 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 720 * time.Hour
	}
	return &Service{cfg: cfg, key: []byte(cfg.SigningKey)}, nil
}

// Generate signs a token for subject with the given scope and role.
func (s *Service) Generate(subject, role string, scope Scope) (string, error) {
	ttl := s.cfg.AccessTTL
	if scope == ScopeRefresh {
		ttl = s.cfg.RefreshTTL
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Scope: scope,
		Role:  role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", errors.Join(ErrSigningFailed, err)
	}
	return signed, nil
}

// Pair issues a matching access/refresh token pair for subject.
func (s *Service) Pair(subject, role string) (TokenPair, error) {
	access, err := s.Generate(subject, role, ScopeAccess)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.Generate(subject, role, ScopeRefresh)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"}, nil
}

// Parse verifies signature, expiry and scope. A token with the wrong scope
// is rejected with ErrInvalidScope even when otherwise valid.
func (s *Service) Parse(tokenString string, scope Scope) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrUnexpectedSigningMethod
			}
			return s.key, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Scope != scope {
		return nil, ErrInvalidScope
	}
	return &claims, nil
}
