// Package auth resolves sessions and backs the sign-in surface.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tradepost/web/internal/user"
)

// CookieName is the session cookie set on sign-in.
const CookieName = "tp_session"

// ErrUnauthenticated is returned when a request carries no valid session.
var ErrUnauthenticated = errors.New("unauthenticated")

// Principal is the authenticated user of a request.
type Principal struct {
	UserID string
	Email  string
	Name   string
}

// Users is the subset of the user service auth depends on.
type Users interface {
	Create(ctx context.Context, email, name, password string) (*user.User, error)
	Authenticate(ctx context.Context, email, password string) (*user.User, error)
}

// Service issues and resolves session tokens.
type Service struct {
	users  Users
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewService creates a new auth Service. secure marks cookies Secure.
func NewService(users Users, secret string, ttl time.Duration, secure bool) *Service {
	return &Service{users: users, secret: []byte(secret), ttl: ttl, secure: secure, now: time.Now}
}

// SignIn checks credentials and returns a fresh session token.
func (s *Service) SignIn(ctx context.Context, email, password string) (string, *user.User, error) {
	u, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		return "", nil, err
	}
	token, err := s.IssueToken(u)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, u, nil
}

// Register creates an account and returns a session token for it.
func (s *Service) Register(ctx context.Context, email, name, password string) (string, *user.User, error) {
	u, err := s.users.Create(ctx, email, name, password)
	if err != nil {
		return "", nil, err
	}
	token, err := s.IssueToken(u)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, u, nil
}

// IssueToken creates a signed JWT for the given user.
func (s *Service) IssueToken(u *user.User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   u.ID,
		"email": u.Email,
		"name":  u.Name,
		"iat":   now.Unix(),
		"exp":   now.Add(s.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ParseToken validates a session token and returns its principal.
func (s *Service) ParseToken(raw string) (*Principal, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, ErrUnauthenticated
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrUnauthenticated
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, ErrUnauthenticated
	}
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	return &Principal{UserID: sub, Email: email, Name: name}, nil
}

// Resolve returns the principal of r from the session cookie or a Bearer
// Authorization header, or ErrUnauthenticated.
func (s *Service) Resolve(r *http.Request) (*Principal, error) {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return s.ParseToken(c.Value)
	}
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && scheme == "Bearer" && token != "" {
			return s.ParseToken(token)
		}
	}
	return nil, ErrUnauthenticated
}

// SetCookie writes the session cookie carrying token.
func (s *Service) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func (s *Service) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
