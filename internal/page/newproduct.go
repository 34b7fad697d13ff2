package page

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"

	"github.com/tradepost/web/internal/product"
	"github.com/tradepost/web/internal/upload"
	"github.com/tradepost/web/internal/validation"
	"github.com/tradepost/web/internal/view"
)

const newProductPath = "/products/new"

type productForm struct {
	Token       string `form:"submit_token"`
	Name        string `form:"name"        validate:"required,max=100"`
	Description string `form:"description" validate:"max=280"`
}

type newProductBody struct {
	Token          string
	Name           string
	Description    string
	Files          []DraftFile
	Errors         validation.FieldErrors
	Error          string
	MaxDescription int
}

// NewProduct renders the form with the user's current draft.
func (c *Controller) NewProduct(w http.ResponseWriter, r *http.Request) {
	d := c.drafts.Get(principal(r).UserID)
	fields, message := d.TakeErrors()
	c.renderForm(w, r, http.StatusOK, d.View(), fields, message, nil)
}

// AppendFiles adds the selected images to the draft. Earlier selections are
// kept.
func (c *Controller) AppendFiles(w http.ResponseWriter, r *http.Request) {
	d := c.drafts.Get(principal(r).UserID)

	err := c.collect(w, r, d, true)
	switch {
	case errors.Is(err, ErrSubmitInProgress):
		http.Error(w, "A submission is already in progress.", http.StatusConflict)
		return
	case err != nil:
		d.SetErrors(validation.FieldErrors{"images": err.Error()}, "")
	}
	seeOther(w, newProductPath)
}

// RemoveFile drops one file from the draft by its ID.
func (c *Controller) RemoveFile(w http.ResponseWriter, r *http.Request) {
	d := c.drafts.Get(principal(r).UserID)

	// The remove buttons submit the whole form; keep what was typed but
	// not the files picked alongside.
	if err := c.collect(w, r, d, false); errors.Is(err, ErrSubmitInProgress) {
		http.Error(w, "A submission is already in progress.", http.StatusConflict)
		return
	}

	if _, err := d.RemoveFile(chi.URLParam(r, "fileID")); errors.Is(err, ErrSubmitInProgress) {
		http.Error(w, "A submission is already in progress.", http.StatusConflict)
		return
	}
	seeOther(w, newProductPath)
}

// SubmitProduct uploads every draft image and creates the product. On
// success the draft is dropped and the browser is sent to the listings.
// A submit of a form that was already listed only repeats the redirect.
func (c *Controller) SubmitProduct(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	d := c.drafts.Get(p.UserID)

	form, files, err := c.readForm(w, r)
	if form != nil && form.Token != d.Token() {
		seeOther(w, c.opts.ListingsPath)
		return
	}
	if err != nil {
		if form != nil {
			if uerr := d.Update(form.Name, form.Description, nil); errors.Is(uerr, ErrSubmitInProgress) {
				http.Error(w, "A submission is already in progress.", http.StatusConflict)
				return
			}
		}
		c.renderForm(w, r, http.StatusUnprocessableEntity, d.View(),
			validation.FieldErrors{"images": err.Error()}, "", nil)
		return
	}

	v, err := d.Begin(form.Token, form.Name, form.Description, files)
	switch {
	case errors.Is(err, ErrSubmitInProgress):
		http.Error(w, "A submission is already in progress.", http.StatusConflict)
		return
	case errors.Is(err, ErrStaleSubmit):
		seeOther(w, c.opts.ListingsPath)
		return
	case err != nil:
		c.renderForm(w, r, http.StatusUnprocessableEntity, d.View(),
			validation.FieldErrors{"images": err.Error()}, "", nil)
		return
	}
	defer d.End()

	_, err = c.submit(r.Context(), p.UserID, v)

	var fe validation.FieldErrors
	var storageErr *upload.StorageWriteError
	var createErr *RemoteCreateError
	switch {
	case err == nil:
		d.Reset()
		c.drafts.Delete(p.UserID)
		c.flashes.Put(p.UserID, view.Success("Your item is listed."))
		seeOther(w, c.opts.ListingsPath)
	case errors.Is(err, ErrMissingImages):
		c.renderForm(w, r, http.StatusUnprocessableEntity, v,
			validation.FieldErrors{"images": err.Error()}, "", nil)
	case errors.As(err, &fe):
		c.renderForm(w, r, http.StatusUnprocessableEntity, v, fe, "", nil)
	case errors.As(err, &storageErr):
		hlog.FromRequest(r).Error().Err(err).Str("path", storageErr.Path).Msg("upload product image")
		c.renderForm(w, r, http.StatusBadGateway, v, nil, "",
			view.Failure("We couldn't upload your images. Please try again."))
	case errors.As(err, &createErr):
		hlog.FromRequest(r).Error().Err(err).Msg("create product")
		c.renderForm(w, r, http.StatusBadGateway, v, nil, "",
			view.Failure("We couldn't create your listing. Please try again."))
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("submit product")
		c.renderForm(w, r, http.StatusInternalServerError, v, nil, "",
			view.Failure("Something went wrong. Please try again."))
	}
}

// submit validates v, uploads its files and creates the product. Nothing
// leaves the process unless the fields are valid and there is at least one
// file.
func (c *Controller) submit(ctx context.Context, ownerID string, v DraftView) (*product.Product, error) {
	form := productForm{Name: strings.TrimSpace(v.Name), Description: strings.TrimSpace(v.Description)}

	fe := validation.FieldErrors{}
	if err := validation.Struct(form); err != nil {
		if !errors.As(err, &fe) {
			return nil, err
		}
	}
	if len(v.Files) == 0 {
		if len(fe) == 0 {
			return nil, ErrMissingImages
		}
		fe["images"] = ErrMissingImages.Error()
	}
	if len(fe) > 0 {
		return nil, fe
	}

	files := make([]upload.File, len(v.Files))
	for i, f := range v.Files {
		files[i] = upload.File{
			Name:        f.Name,
			Content:     bytes.NewReader(f.Data),
			Size:        int64(len(f.Data)),
			ContentType: f.ContentType,
		}
	}

	urls, err := upload.UploadAll(ctx, c.uploader, files, c.opts.UploadDirectory)
	if err != nil {
		return nil, err
	}

	created, err := c.products.Create(ctx, ownerID, product.CreateInput{
		Name:        form.Name,
		Description: form.Description,
		Images:      urls,
	})
	if err != nil {
		var rejected validation.FieldErrors
		if errors.As(err, &rejected) {
			return nil, rejected
		}
		return nil, &RemoteCreateError{Err: err}
	}
	return created, nil
}

// collect copies the submitted fields into d and, when withFiles is set,
// appends the submitted images. Fields are saved even when a file is
// rejected.
func (c *Controller) collect(w http.ResponseWriter, r *http.Request, d *Draft, withFiles bool) error {
	form, files, err := c.readForm(w, r)
	if form == nil {
		return err
	}
	if !withFiles || err != nil {
		files = nil
	}
	if uerr := d.Update(form.Name, form.Description, files); uerr != nil {
		if err == nil || errors.Is(uerr, ErrSubmitInProgress) {
			err = uerr
		}
	}
	return err
}

// readForm parses the multipart form and returns its fields and the image
// files it carries. Requests that are not multipart carry no files. The form
// is nil when the body could not be parsed.
func (c *Controller) readForm(w http.ResponseWriter, r *http.Request) (*productForm, []DraftFile, error) {
	r.Body = http.MaxBytesReader(w, r.Body, c.opts.MaxUploadBytes*MaxDraftFiles+1<<20)

	err := r.ParseMultipartForm(32 << 20)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, ErrFileTooLarge
		}
		return nil, nil, fmt.Errorf("parse form: %w", err)
	}

	form := &productForm{
		Token:       r.PostFormValue("submit_token"),
		Name:        r.PostFormValue("name"),
		Description: r.PostFormValue("description"),
	}
	if r.MultipartForm == nil {
		return form, nil, nil
	}

	var files []DraftFile
	for _, fh := range r.MultipartForm.File["images"] {
		if fh.Filename == "" && fh.Size == 0 {
			continue
		}
		f, err := c.readImage(fh)
		if err != nil {
			return form, nil, err
		}
		files = append(files, f)
	}
	return form, files, nil
}

func (c *Controller) readImage(fh *multipart.FileHeader) (DraftFile, error) {
	if fh.Size > c.opts.MaxUploadBytes {
		return DraftFile{}, fmt.Errorf("%s: %w", fh.Filename, ErrFileTooLarge)
	}
	if !strings.HasPrefix(fh.Header.Get("Content-Type"), "image/") {
		return DraftFile{}, fmt.Errorf("%s: %w", fh.Filename, ErrNotImage)
	}

	src, err := fh.Open()
	if err != nil {
		return DraftFile{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, c.opts.MaxUploadBytes+1))
	if err != nil {
		return DraftFile{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	if int64(len(data)) > c.opts.MaxUploadBytes {
		return DraftFile{}, fmt.Errorf("%s: %w", fh.Filename, ErrFileTooLarge)
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return DraftFile{}, fmt.Errorf("%s: %w", fh.Filename, ErrNotImage)
	}

	return DraftFile{
		ID:          uuid.NewString(),
		Name:        fh.Filename,
		ContentType: mt.String(),
		Data:        data,
	}, nil
}

func (c *Controller) renderForm(w http.ResponseWriter, r *http.Request, status int, v DraftView, fields validation.FieldErrors, message string, flash *view.Flash) {
	c.render(w, r, status, "new_product", "List an item", flash, newProductBody{
		Token:          v.Token,
		Name:           v.Name,
		Description:    v.Description,
		Files:          v.Files,
		Errors:         fields,
		Error:          message,
		MaxDescription: product.MaxDescriptionLength,
	})
}
