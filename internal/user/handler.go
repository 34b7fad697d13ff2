package user

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/tradepost/web/internal/middleware"
	"github.com/tradepost/web/internal/response"
)

// Profile is a trader as others see them: the account and how many items
// it has listed.
type Profile struct {
	User
	Listings int `json:"listings"`
}

// Finder looks up users by ID. *Service is the production implementation.
type Finder interface {
	GetByID(ctx context.Context, id string) (*User, error)
}

// ListingCounter counts the products a user has listed.
type ListingCounter interface {
	CountByOwner(ctx context.Context, ownerID string) (int, error)
}

// Handler serves the trader profile endpoints.
type Handler struct {
	users    Finder
	listings ListingCounter
}

// NewHandler creates a new user Handler.
func NewHandler(users Finder, listings ListingCounter) *Handler {
	return &Handler{users: users, listings: listings}
}

// GetMe godoc
//
//	@Summary		Get my trader profile
//	@Description	Returns the signed-in trader's account with the number of items they have listed.
//	@Tags			users
//	@Produce		json
//	@Security		SessionCookie
//	@Success		200	{object}	response.Envelope{data=Profile}
//	@Failure		401	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/users/me [get]
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	u, err := h.users.GetByID(r.Context(), userID)
	switch {
	case errors.Is(err, ErrNotFound):
		// The session outlived the account.
		response.NotFound(w, "user not found")
		return
	case err != nil:
		hlog.FromRequest(r).Error().Err(err).Str("user", userID).Msg("load profile")
		response.InternalError(w)
		return
	}

	n, err := h.listings.CountByOwner(r.Context(), userID)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("user", userID).Msg("count listings")
		response.InternalError(w)
		return
	}

	response.OK(w, Profile{User: *u, Listings: n})
}
