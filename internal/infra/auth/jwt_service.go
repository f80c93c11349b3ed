// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"strings"
	"time"

	"secondchance/config"
	domainerrors "secondchance/internal/domain/errors"
	"secondchance/internal/domain/service"
	"secondchance/internal/errors"

	"github.com/golang-jwt/jwt/v5"
)

// jwtService is a concrete implementation of the TokenService interface using HS256 JWTs.
type jwtService struct {
	secret []byte        // Process-wide signing key, loaded once at start-up.
	ttl    time.Duration // Zero disables iat/exp.
	now    func() time.Time
}

// NewJWTService is the constructor for jwtService.
// An empty secret is a configuration error and aborts application start-up.
func NewJWTService(cfg *config.Config) (service.TokenService, error) {
	if cfg == nil || strings.TrimSpace(cfg.SecretKey.JWT) == "" {
		return nil, errors.Wrap(domainerrors.ErrConfiguration, "jwt secret must be provided")
	}

	var ttl time.Duration
	if cfg.Auth != nil && cfg.Auth.TokenTTL > 0 {
		ttl = cfg.Auth.TokenTTL
	}

	return &jwtService{
		secret: []byte(cfg.SecretKey.JWT),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue signs {"user":{"id":userID}}. Without a TTL the output depends only on
// userID and the secret.
func (s *jwtService) Issue(userID string) (string, error) {
	claims := service.Claims{
		User: service.TokenUser{ID: userID},
	}
	if s.ttl > 0 {
		issuedAt := s.now()
		claims.IssuedAt = jwt.NewNumericDate(issuedAt)
		claims.ExpiresAt = jwt.NewNumericDate(issuedAt.Add(s.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(domainerrors.ErrTokenIssueFailed, err.Error())
	}

	return signed, nil
}
