package product

import (
	"context"
	"fmt"
	"strings"

	"github.com/tradepost/web/internal/validation"
)

// Store persists products. *Repository is the production implementation.
type Store interface {
	Create(ctx context.Context, ownerID string, in CreateInput) (*Product, error)
	List(ctx context.Context, ownerID string, after *Cursor, limit int) ([]Product, error)
	CountByOwner(ctx context.Context, ownerID string) (int, error)
}

// Service contains business logic for product listings.
type Service struct {
	repo Store
}

// NewService creates a new product Service.
func NewService(repo Store) *Service {
	return &Service{repo: repo}
}

// Create validates in and lists a new product owned by ownerID.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (*Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)

	if len(in.Images) == 0 {
		return nil, ErrNoImages
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	p, err := s.repo.Create(ctx, ownerID, in)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

// ListPaginated returns one page of ownerID's products, newest first.
// cursor is the NextCursor of the previous page, or empty for the first page.
func (s *Service) ListPaginated(ctx context.Context, ownerID string, limit int, cursor string) (*Page, error) {
	after, err := DecodeCursor(cursor)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 1
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	// One extra row tells us whether another page exists.
	items, err := s.repo.List(ctx, ownerID, after, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	page := &Page{Products: items}
	if len(items) > limit {
		page.Products = items[:limit]
		page.NextCursor = CursorAfter(items[limit-1]).Encode()
	}
	if page.Products == nil {
		page.Products = []Product{}
	}
	return page, nil
}

// CountByOwner returns how many products ownerID has listed.
func (s *Service) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	n, err := s.repo.CountByOwner(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}
