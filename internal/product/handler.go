package product

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/hlog"

	"github.com/tradepost/web/internal/middleware"
	"github.com/tradepost/web/internal/response"
	"github.com/tradepost/web/internal/validation"
)

// Handler holds HTTP handlers for the product API.
type Handler struct {
	svc          *Service
	defaultLimit int
}

// NewHandler creates a new product Handler. defaultLimit applies when a
// list request carries no limit.
func NewHandler(svc *Service, defaultLimit int) *Handler {
	return &Handler{svc: svc, defaultLimit: defaultLimit}
}

// List godoc
//
//	@Summary		List my products
//	@Description	Returns one page of the caller's products, newest first. Pass next_cursor back as cursor to continue.
//	@Tags			products
//	@Produce		json
//	@Security		SessionCookie
//	@Param			limit	query		int		false	"Page size (max 50)"
//	@Param			cursor	query		string	false	"Cursor from the previous page"
//	@Success		200		{object}	response.Envelope{data=Page}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/products [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit := h.defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			response.BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	page, err := h.svc.ListPaginated(r.Context(), userID, limit, r.URL.Query().Get("cursor"))
	if errors.Is(err, ErrInvalidCursor) {
		response.BadRequest(w, "invalid cursor")
		return
	}
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("list products")
		response.InternalError(w)
		return
	}

	response.OK(w, page)
}

// Create godoc
//
//	@Summary		Create a product
//	@Description	Lists a new product. images must hold at least one public image URL, in display order.
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Security		SessionCookie
//	@Param			request	body		CreateInput	true	"Product"
//	@Success		201		{object}	response.Envelope{data=Product}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/products [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var in CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	p, err := h.svc.Create(r.Context(), userID, in)
	var fe validation.FieldErrors
	switch {
	case err == nil:
		response.Created(w, p)
	case errors.Is(err, ErrNoImages):
		response.BadRequest(w, ErrNoImages.Error())
	case errors.As(err, &fe):
		response.Invalid(w, fe)
	case errors.Is(err, ErrOwnerNotFound):
		response.Unauthorized(w, "unknown user")
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("create product")
		response.InternalError(w)
	}
}
