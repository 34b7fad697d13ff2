package product

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tradepost/web/internal/middleware"
	"github.com/tradepost/web/internal/response"
)

func withUser(r *http.Request, id string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), middleware.UserIDKey, id))
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) response.Envelope {
	t.Helper()
	var env response.Envelope
	if err := json.NewDecoder(rr.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return env
}

func TestHandler_CreateAndList(t *testing.T) {
	store := &memStore{}
	h := NewHandler(NewService(store), 12)

	body := `{"name":"Bike","description":"Red","images":["https://cdn.example.com/products/a.png"]}`
	rr := httptest.NewRecorder()
	h.Create(rr, withUser(httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(body)), "owner"))

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(store.items) != 1 || store.items[0].OwnerID != "owner" {
		t.Fatalf("expected one product owned by the caller, got %+v", store.items)
	}

	rr = httptest.NewRecorder()
	h.List(rr, withUser(httptest.NewRequest(http.MethodGet, "/api/v1/products", http.NoBody), "owner"))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if env := decodeEnvelope(t, rr); !env.Success {
		t.Fatalf("expected success envelope, got %+v", env)
	}
	if store.lastLim != 13 {
		t.Fatalf("expected default limit 12 (+1), got %d", store.lastLim)
	}
}

func TestHandler_CreateRejects(t *testing.T) {
	h := NewHandler(NewService(&memStore{}), 12)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"malformed", `{"name":`, "invalid request body"},
		{"no images", `{"name":"Bike","images":[]}`, ErrNoImages.Error()},
		{"invalid fields", `{"name":"","images":["https://a/b.png"]}`, "validation failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.Create(rr, withUser(httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(tt.body)), "owner"))

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rr.Code)
			}
			if env := decodeEnvelope(t, rr); env.Error != tt.want {
				t.Fatalf("expected error %q, got %q", tt.want, env.Error)
			}
		})
	}
}

func TestHandler_ListBadParams(t *testing.T) {
	h := NewHandler(NewService(&memStore{}), 12)

	for _, query := range []string{"?limit=0", "?limit=ten", "?cursor=%25%25"} {
		rr := httptest.NewRecorder()
		h.List(rr, withUser(httptest.NewRequest(http.MethodGet, "/api/v1/products"+query, http.NoBody), "owner"))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", query, rr.Code)
		}
	}
}

func TestHandler_RequiresUser(t *testing.T) {
	h := NewHandler(NewService(&memStore{}), 12)

	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/api/v1/products", http.NoBody))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}
