// Package auth handles signup, login and bearer token verification.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/learnedge/learnedge/internal/apperr"
	"github.com/learnedge/learnedge/internal/logger"
	"github.com/learnedge/learnedge/internal/store"
)

// Claims is the token payload. Subject carries the user ID.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// Session is returned by Signup and Login.
type Session struct {
	User        *store.User `json:"user"`
	AccessToken string      `json:"access_token"`
}

// Service issues and verifies access tokens.
type Service struct {
	users  store.UserRepo
	secret []byte
	ttl    time.Duration
	log    *logger.Logger
	now    func() time.Time
}

// NewService creates an auth Service. secret signs HS256 tokens.
func NewService(users store.UserRepo, secret string, ttl time.Duration, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		users:  users,
		secret: []byte(secret),
		ttl:    ttl,
		log:    log.With("service", "AuthService"),
		now:    time.Now,
	}
}

// Signup creates a user and returns a token for it.
func (s *Service) Signup(ctx context.Context, email, password, name string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.BadRequest("email and password are required")
	}

	exists, err := s.users.EmailExists(ctx, nil, email)
	if err != nil {
		return nil, apperr.Internalf("check email", err)
	}
	if exists {
		return nil, apperr.Conflict("Email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internalf("hash password", err)
	}

	user := &store.User{Email: email, Password: string(hash), Name: strings.TrimSpace(name)}
	if err := s.users.Create(ctx, nil, user); err != nil {
		// Lost a race with a concurrent signup for the same address.
		if exists, _ := s.users.EmailExists(ctx, nil, email); exists {
			return nil, apperr.Conflict("Email already exists")
		}
		return nil, apperr.Internalf("create user", err)
	}

	s.log.Info("user signed up", "user_id", user.ID.String())
	return s.session(user)
}

// Login checks credentials and returns a fresh token.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	user, err := s.users.GetByEmail(ctx, nil, email)
	if err != nil {
		return nil, apperr.Internalf("load user", err)
	}
	if user == nil || user.Password == "" {
		return nil, apperr.Unauthorized("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperr.Unauthorized("Invalid credentials")
	}
	return s.session(user)
}

// Verify parses and validates a token.
func (s *Service) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Unauthorized("Token expired")
		}
		return nil, apperr.Unauthorized("Invalid token")
	}
	if !parsed.Valid {
		return nil, apperr.Unauthorized("Invalid token")
	}
	if _, err := claims.UserID(); err != nil {
		return nil, apperr.Unauthorized("Invalid token subject")
	}
	return claims, nil
}

// Issue signs a token for user.
func (s *Service) Issue(user *store.User) (string, error) {
	now := s.now()
	claims := Claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *Service) session(user *store.User) (*Session, error) {
	token, err := s.Issue(user)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	out := *user
	out.Password = ""
	return &Session{User: &out, AccessToken: token}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
