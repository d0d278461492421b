package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/littlelemon/api/internal/database"
)

// CategoryStore defines the database methods needed by category
// handlers. Satisfied by *database.Queries.
type CategoryStore interface {
	CreateCategory(ctx context.Context, arg database.CreateCategoryParams) (database.Category, error)
	GetCategory(ctx context.Context, id int64) (database.Category, error)
	ListCategories(ctx context.Context, arg database.ListCategoriesParams) ([]database.Category, error)
}

// CategoryHandler serves the category catalog.
type CategoryHandler struct {
	store CategoryStore
}

func NewCategoryHandler(store CategoryStore) *CategoryHandler {
	return &CategoryHandler{store: store}
}

// RegisterReadRoutes registers the read endpoints plus the delete stub;
// deletion is blocked for everyone because menu items reference
// categories. The caller is expected to have already applied the
// authentication gate.
func (h *CategoryHandler) RegisterReadRoutes(r chi.Router) {
	r.Get("/categories", h.List)
	r.Get("/categories/{id}", h.Get)
	r.Delete("/categories/{id}", h.Delete)
}

// RegisterStaffRoutes registers the write endpoints. The caller is
// expected to have already applied the staff gate.
func (h *CategoryHandler) RegisterStaffRoutes(r chi.Router) {
	r.Post("/categories", h.Create)
}

type categoryRequest struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

type categoryResponse struct {
	ID    int64  `json:"id"`
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

func toCategoryResponse(c database.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Slug: c.Slug, Title: c.Title}
}

// List returns all categories, optionally filtered by a title search
// and ordered by title.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	params := database.ListCategoriesParams{}
	if search := r.URL.Query().Get("search"); search != "" {
		params.Search = pgtype.Text{String: search, Valid: true}
	}
	switch r.URL.Query().Get("ordering") {
	case "-title":
		params.TitleDesc = true
	}

	categories, err := h.store.ListCategories(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list categories: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		resp = append(resp, toCategoryResponse(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns one category by id.
func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category id"})
		return
	}

	category, err := h.store.GetCategory(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "category not found"})
			return
		}
		log.Printf("ERROR: get category: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toCategoryResponse(category))
}

// Create adds a new category.
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Slug == "" || req.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "slug and title are required"})
		return
	}

	category, err := h.store.CreateCategory(r.Context(), database.CreateCategoryParams{
		Slug:  req.Slug,
		Title: req.Title,
	})
	if err != nil {
		if isUniqueViolation(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "category with this slug or title already exists"})
			return
		}
		log.Printf("ERROR: create category: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toCategoryResponse(category))
}

// Delete always refuses. Categories anchor menu items and removing one
// would orphan them, so the operation is forbidden for every role.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusForbidden, map[string]string{"error": "categories cannot be deleted"})
}
