// Package product manages barter listings and their persistence.
package product

import (
	"errors"
	"time"
)

// MaxDescriptionLength is the longest description accepted, in characters.
const MaxDescriptionLength = 280

// MaxPageSize caps the limit of a single paginated read.
const MaxPageSize = 50

// Product is a listing offered for trade.
type Product struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Images      []string  `json:"images"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CreateInput is the data needed to list a new product. Images keeps the
// order the files were selected in.
type CreateInput struct {
	Name        string   `json:"name"        validate:"required,max=100"`
	Description string   `json:"description" validate:"max=280"`
	Images      []string `json:"images"      validate:"max=12,dive,required,url"`
}

// Page is one slice of a paginated read. NextCursor is empty on the last page.
type Page struct {
	Products   []Product `json:"products"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

// ErrNoImages is returned when a product would be created without images.
var ErrNoImages = errors.New("at least one image is required")

// ErrInvalidCursor is returned when a pagination cursor cannot be decoded.
var ErrInvalidCursor = errors.New("invalid cursor")

// ErrOwnerNotFound is returned when the owning user does not exist.
var ErrOwnerNotFound = errors.New("owner not found")
