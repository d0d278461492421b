package handler_test

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/littlelemon/api/internal/database"
	"github.com/littlelemon/api/internal/handler"
)

// --- Mock store ---

type mockCategoryStore struct {
	categories map[int64]database.Category
	nextID     int64
}

func newMockCategoryStore() *mockCategoryStore {
	return &mockCategoryStore{categories: make(map[int64]database.Category), nextID: 1}
}

func (m *mockCategoryStore) CreateCategory(_ context.Context, arg database.CreateCategoryParams) (database.Category, error) {
	for _, existing := range m.categories {
		if existing.Slug == arg.Slug || existing.Title == arg.Title {
			return database.Category{}, &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}
		}
	}
	c := database.Category{ID: m.nextID, Slug: arg.Slug, Title: arg.Title}
	m.categories[c.ID] = c
	m.nextID++
	return c, nil
}

func (m *mockCategoryStore) GetCategory(_ context.Context, id int64) (database.Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return database.Category{}, pgx.ErrNoRows
	}
	return c, nil
}

func (m *mockCategoryStore) ListCategories(_ context.Context, arg database.ListCategoriesParams) ([]database.Category, error) {
	result := []database.Category{}
	for _, c := range m.categories {
		if arg.Search.Valid && !strings.Contains(strings.ToLower(c.Title), strings.ToLower(arg.Search.String)) {
			continue
		}
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		if arg.TitleDesc {
			return result[i].Title > result[j].Title
		}
		return result[i].Title < result[j].Title
	})
	return result, nil
}

func setupCategoryRouter(store *mockCategoryStore) *chi.Mux {
	h := handler.NewCategoryHandler(store)
	r := chi.NewRouter()
	h.RegisterReadRoutes(r)
	h.RegisterStaffRoutes(r)
	return r
}

func seedCategory(store *mockCategoryStore, slug, title string) database.Category {
	c, _ := store.CreateCategory(context.Background(), database.CreateCategoryParams{Slug: slug, Title: title})
	return c
}

// --- Tests ---

func TestListCategories(t *testing.T) {
	store := newMockCategoryStore()
	seedCategory(store, "mains", "Mains")
	seedCategory(store, "drinks", "Drinks")
	router := setupCategoryRouter(store)

	rr := doRequest(t, router, "GET", "/categories", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	resp := decodeListResponse(t, rr)
	if len(resp) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(resp))
	}
	// Default ordering is title ascending
	if resp[0]["title"] != "Drinks" {
		t.Errorf("first category: got %v, want Drinks", resp[0]["title"])
	}
}

func TestListCategories_SearchAndOrdering(t *testing.T) {
	store := newMockCategoryStore()
	seedCategory(store, "mains", "Mains")
	seedCategory(store, "drinks", "Drinks")
	seedCategory(store, "desserts", "Desserts")
	router := setupCategoryRouter(store)

	rr := doRequest(t, router, "GET", "/categories?search=d", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if got := len(decodeListResponse(t, rr)); got != 2 {
		t.Errorf("search=d: expected 2 results, got %d", got)
	}

	rr = doRequest(t, router, "GET", "/categories?ordering=-title", nil)
	resp := decodeListResponse(t, rr)
	if resp[0]["title"] != "Mains" {
		t.Errorf("descending order: first got %v, want Mains", resp[0]["title"])
	}
}

func TestGetCategory(t *testing.T) {
	store := newMockCategoryStore()
	c := seedCategory(store, "mains", "Mains")
	router := setupCategoryRouter(store)

	rr := doRequest(t, router, "GET", "/categories/1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	resp := decodeResponse(t, rr)
	if resp["slug"] != c.Slug {
		t.Errorf("slug: got %v, want %v", resp["slug"], c.Slug)
	}
}

func TestGetCategory_NotFound(t *testing.T) {
	router := setupCategoryRouter(newMockCategoryStore())

	rr := doRequest(t, router, "GET", "/categories/99", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestGetCategory_InvalidID(t *testing.T) {
	router := setupCategoryRouter(newMockCategoryStore())

	rr := doRequest(t, router, "GET", "/categories/not-a-number", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestCreateCategory(t *testing.T) {
	store := newMockCategoryStore()
	router := setupCategoryRouter(store)

	rr := doRequest(t, router, "POST", "/categories", map[string]string{
		"slug":  "specials",
		"title": "Specials",
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["title"] != "Specials" {
		t.Errorf("title: got %v, want Specials", resp["title"])
	}
}

func TestCreateCategory_DuplicateSlug(t *testing.T) {
	store := newMockCategoryStore()
	seedCategory(store, "mains", "Mains")
	router := setupCategoryRouter(store)

	rr := doRequest(t, router, "POST", "/categories", map[string]string{
		"slug":  "mains",
		"title": "Mains Again",
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestCreateCategory_DuplicateTitle(t *testing.T) {
	store := newMockCategoryStore()
	seedCategory(store, "mains", "Mains")
	router := setupCategoryRouter(store)

	rr := doRequest(t, router, "POST", "/categories", map[string]string{
		"slug":  "mains-2",
		"title": "Mains",
	})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if len(store.categories) != 1 {
		t.Error("duplicate title must not create a second category")
	}
}

func TestDeleteCategory_AlwaysForbidden(t *testing.T) {
	store := newMockCategoryStore()
	seedCategory(store, "mains", "Mains")
	router := setupCategoryRouter(store)

	rr := doRequest(t, router, "DELETE", "/categories/1", nil)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusForbidden)
	}
	if len(store.categories) != 1 {
		t.Error("category must not be deleted")
	}
}
