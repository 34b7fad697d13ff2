package middleware

import (
	"context"
	"net/http"

	"github.com/tradepost/web/internal/response"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

// UserIDKey is the context key for the authenticated user's ID.
const UserIDKey contextKey = "userID"

// UserEmailKey is the context key for the authenticated user's email.
const UserEmailKey contextKey = "userEmail"

// Resolver turns a request into the ID and email of its authenticated user.
type Resolver interface {
	Resolve(r *http.Request) (userID, email string, err error)
}

// ResolverFunc adapts a function to a Resolver.
type ResolverFunc func(r *http.Request) (userID, email string, err error)

// Resolve calls f(r).
func (f ResolverFunc) Resolve(r *http.Request) (string, string, error) {
	return f(r)
}

// RequireAuth returns middleware that rejects requests without a valid
// session with 401 and injects the user's claims into the request context.
func RequireAuth(res Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, email, err := res.Resolve(r)
			if err != nil || userID == "" {
				response.Unauthorized(w, "unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			ctx = context.WithValue(ctx, UserEmailKey, email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID returns the authenticated user's ID stored by RequireAuth.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserIDKey).(string)
	return id, ok && id != ""
}
