package page

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/hlog"

	"github.com/tradepost/web/internal/product"
	"github.com/tradepost/web/internal/view"
)

type cardsBody struct {
	Products []product.Product
	MorePath string
}

// Home renders the first page of the user's items, or the page after the
// cursor query parameter.
func (c *Controller) Home(w http.ResponseWriter, r *http.Request) {
	c.productPage(w, r, "home", "Home", "/", c.opts.PageSize, nil)
}

// Listings renders the user's listings along with any pending notification.
func (c *Controller) Listings(w http.ResponseWriter, r *http.Request) {
	flash := c.flashes.Pop(principal(r).UserID)
	c.productPage(w, r, "listings", "My listings", c.opts.ListingsPath, c.opts.ListingsPageSize, flash)
}

func (c *Controller) productPage(w http.ResponseWriter, r *http.Request, name, title, path string, limit int, flash *view.Flash) {
	cursor := r.URL.Query().Get("cursor")

	page, err := c.products.ListPaginated(r.Context(), principal(r).UserID, limit, cursor)
	if errors.Is(err, product.ErrInvalidCursor) {
		http.Error(w, "invalid cursor", http.StatusBadRequest)
		return
	}
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("page", name).Msg("list products")
		c.render(w, r, http.StatusBadGateway, name, title,
			view.Failure("We couldn't load your items. Please try again."), cardsBody{})
		return
	}

	body := cardsBody{Products: page.Products}
	if page.NextCursor != "" {
		body.MorePath = path + "?cursor=" + url.QueryEscape(page.NextCursor)
	}
	c.render(w, r, http.StatusOK, name, title, flash, body)
}
