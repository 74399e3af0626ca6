// Package auth issues and verifies caller identities for the drive engine.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/driveline/driveline/internal/events"
	"github.com/driveline/driveline/internal/index"
	"github.com/driveline/driveline/internal/models"
)

// minKeyBytes is the smallest acceptable HMAC key.
const minKeyBytes = 32

// Service handles registration, login and token verification.
type Service struct {
	store  index.Store
	logger *events.Logger

	key []byte
	ttl time.Duration
}

// NewService creates an auth service. The secret is either a base64-encoded
// key of at least 32 bytes or an arbitrary seed that gets hashed into one.
func NewService(store index.Store, secret string, ttl time.Duration, logger *events.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger.WithField("service", "auth"),
		key:    deriveKey(secret, ttl),
		ttl:    ttl,
	}
}

// deriveKey builds the HMAC signing key from the configured secret.
func deriveKey(secret string, ttl time.Duration) []byte {
	if raw, err := base64.StdEncoding.DecodeString(secret); err == nil && len(raw) >= minKeyBytes {
		return raw
	}

	// Seed mode: stretch the secret to 32 bytes, salted with the TTL.
	sum := sha256.Sum256([]byte(secret + ttl.String()))
	return sum[:]
}

// Register creates an account, or returns the existing one when the
// username is already taken.
func (s *Service) Register(ctx context.Context, username, password string, role models.Role) (*models.User, error) {
	if existing, err := s.store.UserByName(ctx, username); err == nil {
		s.logger.WithField("username", username).Debug("User already registered")
		return existing, nil
	} else if !errors.Is(err, models.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, username, string(hash), role)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"username": username,
		"role":     role,
	}).Info("User registered")
	return user, nil
}

// Login checks credentials and returns a signed token plus the account.
func (s *Service) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.store.UserByName(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return "", nil, models.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.WithField("username", username).Warn("Failed login attempt")
		return "", nil, models.ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", nil, err
	}

	s.logger.WithField("username", username).Info("Login successful")
	return token, user, nil
}

// claims carries the identity inside a signed token.
type claims struct {
	UserID int64  `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func (s *Service) issueToken(user *models.User) (string, error) {
	now := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID: user.ID,
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})

	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a token and returns the caller identity it carries.
func (s *Service) Verify(tokenString string) (models.Identity, error) {
	var c claims

	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.Identity{}, models.ErrTokenExpired
		}
		return models.Identity{}, models.ErrTokenInvalid
	}
	if !token.Valid {
		return models.Identity{}, models.ErrTokenInvalid
	}

	return models.Identity{
		UserID:   c.UserID,
		Username: c.Subject,
		Role:     models.Role(c.Role),
	}, nil
}
