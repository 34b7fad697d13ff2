package product

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tradepost/web/internal/validation"
)

// memStore implements Store for testing.
type memStore struct {
	items   []Product
	lastLim int
	failErr error
}

func (m *memStore) Create(_ context.Context, ownerID string, in CreateInput) (*Product, error) {
	if m.failErr != nil {
		return nil, m.failErr
	}
	p := Product{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Name:        in.Name,
		Description: in.Description,
		Images:      in.Images,
		CreatedAt:   time.Now(),
	}
	m.items = append(m.items, p)
	return &p, nil
}

func (m *memStore) CountByOwner(_ context.Context, ownerID string) (int, error) {
	if m.failErr != nil {
		return 0, m.failErr
	}
	n := 0
	for _, p := range m.items {
		if p.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

func (m *memStore) List(_ context.Context, ownerID string, after *Cursor, limit int) ([]Product, error) {
	m.lastLim = limit
	if m.failErr != nil {
		return nil, m.failErr
	}

	var mine []Product
	for _, p := range m.items {
		if p.OwnerID == ownerID {
			mine = append(mine, p)
		}
	}
	sort.Slice(mine, func(i, j int) bool { return less(mine[j], mine[i]) })

	var out []Product
	for _, p := range mine {
		if after != nil && !less(p, Product{CreatedAt: after.CreatedAt, ID: after.ID}) {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// less orders by (created_at, id) ascending.
func less(a, b Product) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

func seed(m *memStore, owner string, n int) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		m.items = append(m.items, Product{
			ID:        fmt.Sprintf("00000000-0000-4000-8000-%012d", i),
			OwnerID:   owner,
			Name:      fmt.Sprintf("item %d", i),
			Images:    []string{"https://cdn.example.com/x.png"},
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
}

func TestCursor_RoundTrip(t *testing.T) {
	c := Cursor{CreatedAt: time.Date(2026, 3, 4, 5, 6, 7, 891011000, time.UTC), ID: uuid.NewString()}

	got, err := DecodeCursor(c.Encode())
	if err != nil {
		t.Fatalf("DecodeCursor: %v", err)
	}
	if !got.CreatedAt.Equal(c.CreatedAt) || got.ID != c.ID {
		t.Fatalf("expected %+v, got %+v", c, got)
	}
}

func TestDecodeCursor_Invalid(t *testing.T) {
	for _, token := range []string{"%%%", "bm8tc2VwYXJhdG9y", Cursor{CreatedAt: time.Now(), ID: "not-a-uuid"}.Encode()} {
		if _, err := DecodeCursor(token); !errors.Is(err, ErrInvalidCursor) {
			t.Errorf("DecodeCursor(%q): expected ErrInvalidCursor, got %v", token, err)
		}
	}
	if c, err := DecodeCursor(""); c != nil || err != nil {
		t.Fatalf("empty token should decode to nil, nil; got %v, %v", c, err)
	}
}

func TestService_CreateRequiresImages(t *testing.T) {
	store := &memStore{}
	svc := NewService(store)

	_, err := svc.Create(context.Background(), "owner", CreateInput{Name: "Bike"})
	if !errors.Is(err, ErrNoImages) {
		t.Fatalf("expected ErrNoImages, got %v", err)
	}
	if len(store.items) != 0 {
		t.Fatal("nothing should be stored")
	}
}

func TestService_CreateValidates(t *testing.T) {
	svc := NewService(&memStore{})

	tests := []struct {
		name  string
		in    CreateInput
		field string
	}{
		{"blank name", CreateInput{Name: "   ", Images: []string{"https://a/b.png"}}, "name"},
		{"long description", CreateInput{Name: "Bike", Description: strings.Repeat("é", MaxDescriptionLength+1), Images: []string{"https://a/b.png"}}, "description"},
		{"bad image url", CreateInput{Name: "Bike", Images: []string{"not a url"}}, "images[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "owner", tt.in)
			var fe validation.FieldErrors
			if !errors.As(err, &fe) {
				t.Fatalf("expected FieldErrors, got %v", err)
			}
			if _, ok := fe[tt.field]; !ok {
				t.Fatalf("expected error on %q, got %v", tt.field, fe)
			}
		})
	}
}

func TestService_CreateTrimsAndKeepsImageOrder(t *testing.T) {
	store := &memStore{}
	svc := NewService(store)
	images := []string{"https://cdn/1.png", "https://cdn/2.png", "https://cdn/3.png"}

	p, err := svc.Create(context.Background(), "owner", CreateInput{
		Name:        "  Bike ",
		Description: strings.Repeat("é", MaxDescriptionLength),
		Images:      images,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Name != "Bike" {
		t.Errorf("expected trimmed name, got %q", p.Name)
	}
	for i := range images {
		if p.Images[i] != images[i] {
			t.Fatalf("expected images %v, got %v", images, p.Images)
		}
	}
}

func TestService_CreateWrapsStoreError(t *testing.T) {
	boom := errors.New("db down")
	svc := NewService(&memStore{failErr: boom})

	_, err := svc.Create(context.Background(), "owner", CreateInput{Name: "Bike", Images: []string{"https://a/b.png"}})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestService_ListPaginatedWalksAllPages(t *testing.T) {
	store := &memStore{}
	seed(store, "owner", 5)
	seed(store, "someone-else", 3)
	svc := NewService(store)

	var names []string
	cursor := ""
	pages := 0
	for {
		page, err := svc.ListPaginated(context.Background(), "owner", 2, cursor)
		if err != nil {
			t.Fatalf("ListPaginated: %v", err)
		}
		pages++
		for _, p := range page.Products {
			if p.OwnerID != "owner" {
				t.Fatalf("listed a product of %q", p.OwnerID)
			}
			names = append(names, p.Name)
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	want := []string{"item 4", "item 3", "item 2", "item 1", "item 0"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("expected %v, got %v", want, names)
	}
	if pages != 3 {
		t.Fatalf("expected 3 pages, got %d", pages)
	}
}

func TestService_ListPaginatedExactFitHasNoCursor(t *testing.T) {
	store := &memStore{}
	seed(store, "owner", 2)

	page, err := NewService(store).ListPaginated(context.Background(), "owner", 2, "")
	if err != nil {
		t.Fatalf("ListPaginated: %v", err)
	}
	if len(page.Products) != 2 || page.NextCursor != "" {
		t.Fatalf("expected 2 products and no cursor, got %d and %q", len(page.Products), page.NextCursor)
	}
}

func TestService_ListPaginatedClampsLimit(t *testing.T) {
	store := &memStore{}
	svc := NewService(store)

	if _, err := svc.ListPaginated(context.Background(), "owner", 1000, ""); err != nil {
		t.Fatalf("ListPaginated: %v", err)
	}
	if store.lastLim != MaxPageSize+1 {
		t.Fatalf("expected store limit %d, got %d", MaxPageSize+1, store.lastLim)
	}

	page, err := svc.ListPaginated(context.Background(), "owner", 0, "")
	if err != nil {
		t.Fatalf("ListPaginated: %v", err)
	}
	if page.Products == nil {
		t.Fatal("expected an empty, non-nil product list")
	}
}

func TestService_ListPaginatedInvalidCursor(t *testing.T) {
	_, err := NewService(&memStore{}).ListPaginated(context.Background(), "owner", 2, "garbage!")
	if !errors.Is(err, ErrInvalidCursor) {
		t.Fatalf("expected ErrInvalidCursor, got %v", err)
	}
}

func TestService_CountByOwner(t *testing.T) {
	store := &memStore{}
	seed(store, "owner", 3)
	seed(store, "other", 2)
	svc := NewService(store)

	n, err := svc.CountByOwner(context.Background(), "owner")
	if err != nil {
		t.Fatalf("CountByOwner: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 products, got %d", n)
	}

	store.failErr = errors.New("connection reset")
	if _, err := svc.CountByOwner(context.Background(), "owner"); !errors.Is(err, store.failErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}
