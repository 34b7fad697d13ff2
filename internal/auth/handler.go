package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/hlog"

	"github.com/tradepost/web/internal/user"
	"github.com/tradepost/web/internal/validation"
	"github.com/tradepost/web/internal/view"
)

// Handler serves the sign-in, registration and sign-out pages.
type Handler struct {
	svc       *Service
	views     *view.Renderer
	onSignOut []func(userID string)
}

// NewHandler creates a new auth Handler.
func NewHandler(svc *Service, views *view.Renderer) *Handler {
	return &Handler{svc: svc, views: views}
}

// OnSignOut registers fn to run with the user's ID when they sign out.
func (h *Handler) OnSignOut(fn func(userID string)) {
	h.onSignOut = append(h.onSignOut, fn)
}

type signInBody struct {
	Next  string
	Email string
	Error string
}

type registerForm struct {
	Name     string `form:"name"     validate:"required,max=60"`
	Email    string `form:"email"    validate:"required,email,max=254"`
	Password string `form:"password" validate:"required,min=8,max=72"`
}

type registerBody struct {
	Name   string
	Email  string
	Error  string
	Errors validation.FieldErrors
}

// SignInPage renders the sign-in form. Signed-in users go straight on.
func (h *Handler) SignInPage(w http.ResponseWriter, r *http.Request) {
	next := safeNext(r.URL.Query().Get("next"))
	if p, err := h.svc.Resolve(r); err == nil && p != nil {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, "signin", "Sign in", signInBody{Next: next})
}

// SignIn checks the submitted credentials and starts a session.
func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(r.PostForm.Get("email"))
	next := safeNext(r.PostForm.Get("next"))

	token, _, err := h.svc.SignIn(r.Context(), email, r.PostForm.Get("password"))
	if errors.Is(err, user.ErrInvalidCredentials) {
		h.render(w, r, http.StatusUnauthorized, "signin", "Sign in",
			signInBody{Next: next, Email: email, Error: "Wrong email or password."})
		return
	}
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("sign in")
		h.render(w, r, http.StatusInternalServerError, "signin", "Sign in",
			signInBody{Next: next, Email: email, Error: "Something went wrong. Please try again."})
		return
	}

	h.svc.SetCookie(w, token)
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// RegisterPage renders the registration form.
func (h *Handler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "register", "Create an account", registerBody{})
}

// Register creates an account and signs the new user in.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	form := registerForm{
		Name:     strings.TrimSpace(r.PostForm.Get("name")),
		Email:    strings.TrimSpace(r.PostForm.Get("email")),
		Password: r.PostForm.Get("password"),
	}
	body := registerBody{Name: form.Name, Email: form.Email}

	if err := validation.Struct(form); err != nil {
		var fe validation.FieldErrors
		if errors.As(err, &fe) {
			body.Errors = fe
		} else {
			body.Error = "Please check the form."
		}
		h.render(w, r, http.StatusUnprocessableEntity, "register", "Create an account", body)
		return
	}

	token, _, err := h.svc.Register(r.Context(), form.Email, form.Name, form.Password)
	if errors.Is(err, user.ErrAlreadyExists) {
		body.Error = "An account with this email already exists."
		h.render(w, r, http.StatusConflict, "register", "Create an account", body)
		return
	}
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("register")
		body.Error = "Something went wrong. Please try again."
		h.render(w, r, http.StatusInternalServerError, "register", "Create an account", body)
		return
	}

	h.svc.SetCookie(w, token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// SignOut clears the session cookie and drops what the server holds for
// the user.
func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	if p, err := h.svc.Resolve(r); err == nil {
		for _, fn := range h.onSignOut {
			fn(p.UserID)
		}
	}
	h.svc.ClearCookie(w)
	http.Redirect(w, r, "/signin", http.StatusSeeOther)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page, title string, body any) {
	if err := h.views.Render(w, status, page, view.Page{Title: title, Body: body}); err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("page", page).Msg("render page")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// safeNext keeps redirects on this site: only absolute paths are allowed.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
