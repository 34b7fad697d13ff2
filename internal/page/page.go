// Package page serves the signed-in HTML pages: the home feed, the
// new-product form and the user's listings.
package page

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/tradepost/web/internal/auth"
	"github.com/tradepost/web/internal/product"
	"github.com/tradepost/web/internal/upload"
	"github.com/tradepost/web/internal/view"
)

var (
	// ErrMissingImages is returned when a product is submitted without files.
	ErrMissingImages = errors.New("at least one image is required")
	// ErrSubmitInProgress is returned while an earlier submit of the same
	// draft has not finished.
	ErrSubmitInProgress = errors.New("a submission is already in progress")
)

// RemoteCreateError reports that the product service rejected or failed a
// create call after every image was stored.
type RemoteCreateError struct {
	Err error
}

func (e *RemoteCreateError) Error() string { return "create product: " + e.Err.Error() }

func (e *RemoteCreateError) Unwrap() error { return e.Err }

// Sessions resolves the signed-in user of a request.
type Sessions interface {
	Resolve(r *http.Request) (*auth.Principal, error)
}

// ProductClient reads and creates products on behalf of a user.
type ProductClient interface {
	Create(ctx context.Context, ownerID string, in product.CreateInput) (*product.Product, error)
	ListPaginated(ctx context.Context, ownerID string, limit int, cursor string) (*product.Page, error)
}

// Redirect is a navigation instruction returned instead of a page.
type Redirect struct {
	Destination string
	Permanent   bool
}

// StatusCode returns the redirect status for a request with method.
// Temporary redirects of unsafe methods use 303 so the browser follows
// with a GET.
func (rd Redirect) StatusCode(method string) int {
	switch {
	case rd.Permanent:
		return http.StatusPermanentRedirect
	case method == http.MethodGet || method == http.MethodHead:
		return http.StatusTemporaryRedirect
	default:
		return http.StatusSeeOther
	}
}

// Apply writes the redirect. No body is written.
func (rd Redirect) Apply(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Location", rd.Destination)
	w.WriteHeader(rd.StatusCode(r.Method))
}

// Options configures a Controller.
type Options struct {
	SignInPath       string
	ListingsPath     string
	UploadDirectory  string
	PageSize         int
	ListingsPageSize int
	MaxUploadBytes   int64
	DraftTTL         time.Duration
}

func (o Options) withDefaults() Options {
	if o.SignInPath == "" {
		o.SignInPath = "/signin"
	}
	if o.ListingsPath == "" {
		o.ListingsPath = "/listings"
	}
	if o.UploadDirectory == "" {
		o.UploadDirectory = "products"
	}
	if o.PageSize <= 0 {
		o.PageSize = 2
	}
	if o.ListingsPageSize <= 0 {
		o.ListingsPageSize = 12
	}
	if o.MaxUploadBytes <= 0 {
		o.MaxUploadBytes = 10 << 20
	}
	if o.DraftTTL <= 0 {
		o.DraftTTL = time.Hour
	}
	return o
}

// Controller holds the page handlers and the per-user view state they share.
type Controller struct {
	sessions Sessions
	products ProductClient
	uploader upload.Uploader
	views    *view.Renderer
	drafts   *DraftStore
	flashes  *FlashStore
	opts     Options
}

// New creates a Controller.
func New(sessions Sessions, products ProductClient, uploader upload.Uploader, views *view.Renderer, opts Options) *Controller {
	return &Controller{
		sessions: sessions,
		products: products,
		uploader: uploader,
		views:    views,
		drafts:   NewDraftStore(),
		flashes:  NewFlashStore(),
		opts:     opts.withDefaults(),
	}
}

// Routes mounts every page on r behind the session gate.
func (c *Controller) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(c.requireSession)

		r.Get("/", c.Home)
		r.Get("/listings", c.Listings)

		r.Get("/products/new", c.NewProduct)
		r.Post("/products/new", c.SubmitProduct)
		r.Post("/products/new/files", c.AppendFiles)
		r.Post("/products/new/files/{fileID}/remove", c.RemoveFile)
	})
}

// Forget drops the draft and pending notification of userID. It runs on
// sign-out.
func (c *Controller) Forget(userID string) {
	c.drafts.Delete(userID)
	c.flashes.Pop(userID)
}

// SweepDrafts drops idle drafts every interval until ctx is done.
func (c *Controller) SweepDrafts(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.drafts.Sweep(c.opts.DraftTTL)
		}
	}
}

// Gate resolves the principal of r. Without a session it returns a
// temporary redirect to the sign-in page instead.
func (c *Controller) Gate(r *http.Request) (*auth.Principal, *Redirect) {
	p, err := c.sessions.Resolve(r)
	if err == nil && p != nil {
		return p, nil
	}

	dest := c.opts.SignInPath
	if r.Method == http.MethodGet {
		dest += "?next=" + url.QueryEscape(r.URL.RequestURI())
	}
	return nil, &Redirect{Destination: dest, Permanent: false}
}

type principalKey struct{}

func (c *Controller) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, redirect := c.Gate(r)
		if redirect != nil {
			redirect.Apply(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey{}, p)))
	})
}

// principal returns the user attached by requireSession.
func principal(r *http.Request) *auth.Principal {
	p, _ := r.Context().Value(principalKey{}).(*auth.Principal)
	if p == nil {
		return &auth.Principal{}
	}
	return p
}

func (c *Controller) render(w http.ResponseWriter, r *http.Request, status int, name, title string, flash *view.Flash, body any) {
	p := view.Page{Title: title, UserName: principal(r).Name, Flash: flash, Body: body}
	if err := c.views.Render(w, status, name, p); err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("page", name).Msg("render page")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func seeOther(w http.ResponseWriter, location string) {
	w.Header().Set("Location", location)
	w.WriteHeader(http.StatusSeeOther)
}
