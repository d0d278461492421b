package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/littlelemon/api/internal/database"
	"github.com/littlelemon/api/internal/enum"
	"github.com/shopspring/decimal"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// MenuItemStore defines the database methods needed by menu item
// handlers. Satisfied by *database.Queries.
type MenuItemStore interface {
	CreateMenuItem(ctx context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error)
	GetMenuItem(ctx context.Context, id int64) (database.GetMenuItemRow, error)
	ListMenuItems(ctx context.Context, arg database.ListMenuItemsParams) ([]database.GetMenuItemRow, error)
	CountMenuItems(ctx context.Context, arg database.CountMenuItemsParams) (int64, error)
	UpdateMenuItem(ctx context.Context, arg database.UpdateMenuItemParams) (database.MenuItem, error)
	DeleteMenuItem(ctx context.Context, id int64) (int64, error)
}

// MenuItemHandler serves the menu item catalog.
type MenuItemHandler struct {
	store MenuItemStore
}

func NewMenuItemHandler(store MenuItemStore) *MenuItemHandler {
	return &MenuItemHandler{store: store}
}

// RegisterReadRoutes registers the read endpoints. The caller is
// expected to have already applied the authentication gate.
func (h *MenuItemHandler) RegisterReadRoutes(r chi.Router) {
	r.Get("/menu-items", h.List)
	r.Get("/menu-items/{id}", h.Get)
}

// RegisterStaffRoutes registers the write endpoints. The caller is
// expected to have already applied the staff gate.
func (h *MenuItemHandler) RegisterStaffRoutes(r chi.Router) {
	r.Post("/menu-items", h.Create)
	r.Put("/menu-items/{id}", h.Update)
	r.Patch("/menu-items/{id}", h.Patch)
	r.Delete("/menu-items/{id}", h.Delete)
}

type menuItemRequest struct {
	Title      string `json:"title"`
	Price      string `json:"price"`
	Featured   bool   `json:"featured"`
	CategoryID int64  `json:"category_id"`
}

type menuItemPatchRequest struct {
	Title      *string `json:"title"`
	Price      *string `json:"price"`
	Featured   *bool   `json:"featured"`
	CategoryID *int64  `json:"category_id"`
}

type menuItemResponse struct {
	ID       int64             `json:"id"`
	Title    string            `json:"title"`
	Price    string            `json:"price"`
	Featured bool              `json:"featured"`
	Category *categoryResponse `json:"category,omitempty"`
}

type menuItemListResponse struct {
	Count   int64              `json:"count"`
	Results []menuItemResponse `json:"results"`
}

func toMenuItemResponse(row database.GetMenuItemRow) menuItemResponse {
	cat := toCategoryResponse(row.Category)
	return menuItemResponse{
		ID:       row.MenuItem.ID,
		Title:    row.MenuItem.Title,
		Price:    numericToString(row.MenuItem.Price),
		Featured: row.MenuItem.Featured,
		Category: &cat,
	}
}

// parsePrice validates a decimal price string against the storage
// precision: two fractional digits, positive, at most 9999.99.
func parsePrice(s string) (pgtype.Numeric, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return pgtype.Numeric{}, errors.New("price: must be a decimal number")
	}
	if d.Exponent() < -2 {
		return pgtype.Numeric{}, errors.New("price: at most two decimal places allowed")
	}
	if d.IsNegative() {
		return pgtype.Numeric{}, errors.New("price: must not be negative")
	}
	maxPrice, _ := decimal.NewFromString(enum.MaxLineTotal)
	if d.GreaterThan(maxPrice) {
		return pgtype.Numeric{}, errors.New("price: must not exceed " + enum.MaxLineTotal)
	}
	return decimalToNumeric(d), nil
}

// List returns a page of menu items. Supports search on title,
// category_title filtering, ordering by price/title/category (prefix
// with '-' for descending), and page/page_size pagination.
func (h *MenuItemHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := database.ListMenuItemsParams{}
	countParams := database.CountMenuItemsParams{}
	if search := q.Get("search"); search != "" {
		params.Search = pgtype.Text{String: search, Valid: true}
		countParams.Search = params.Search
	}
	if categoryTitle := q.Get("category_title"); categoryTitle != "" {
		params.CategoryTitle = pgtype.Text{String: categoryTitle, Valid: true}
		countParams.CategoryTitle = params.CategoryTitle
	}

	switch ordering := q.Get("ordering"); ordering {
	case "", "price", "-price", "title", "-title", "category", "-category":
		params.Ordering = ordering
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "ordering: unsupported field"})
		return
	}

	page := int64(1)
	if raw := q.Get("page"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || parsed < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "page: must be a positive integer"})
			return
		}
		page = parsed
	}

	pageSize := int64(defaultPageSize)
	if raw := q.Get("page_size"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || parsed < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "page_size: must be a positive integer"})
			return
		}
		if parsed > maxPageSize {
			parsed = maxPageSize
		}
		pageSize = parsed
	}

	params.Limit = int32(pageSize)
	params.Offset = int32((page - 1) * pageSize)

	count, err := h.store.CountMenuItems(r.Context(), countParams)
	if err != nil {
		log.Printf("ERROR: count menu items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	rows, err := h.store.ListMenuItems(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list menu items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := menuItemListResponse{Count: count, Results: make([]menuItemResponse, 0, len(rows))}
	for _, row := range rows {
		resp.Results = append(resp.Results, toMenuItemResponse(row))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns one menu item with its category embedded.
func (h *MenuItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item id"})
		return
	}

	row, err := h.store.GetMenuItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: get menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toMenuItemResponse(row))
}

// Create adds a new menu item.
func (h *MenuItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}
	price, err := parsePrice(req.Price)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	item, err := h.store.CreateMenuItem(r.Context(), database.CreateMenuItemParams{
		Title:      req.Title,
		Price:      price,
		Featured:   req.Featured,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		if isUniqueViolation(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title: menu item with this title already exists"})
			return
		}
		if isForeignKeyViolation(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "category_id: category does not exist"})
			return
		}
		log.Printf("ERROR: create menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	row, err := h.store.GetMenuItem(r.Context(), item.ID)
	if err != nil {
		log.Printf("ERROR: get menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusCreated, toMenuItemResponse(row))
}

// Update replaces every mutable field of a menu item.
func (h *MenuItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item id"})
		return
	}

	var req menuItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}
	price, err := parsePrice(req.Price)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	h.applyUpdate(w, r, database.UpdateMenuItemParams{
		ID:         id,
		Title:      req.Title,
		Price:      price,
		Featured:   req.Featured,
		CategoryID: req.CategoryID,
	})
}

// Patch updates only the fields present in the body, keeping the rest.
func (h *MenuItemHandler) Patch(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item id"})
		return
	}

	current, err := h.store.GetMenuItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		log.Printf("ERROR: get menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	var req menuItemPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	params := database.UpdateMenuItemParams{
		ID:         id,
		Title:      current.MenuItem.Title,
		Price:      current.MenuItem.Price,
		Featured:   current.MenuItem.Featured,
		CategoryID: current.MenuItem.CategoryID,
	}
	if req.Title != nil {
		if *req.Title == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title must not be empty"})
			return
		}
		params.Title = *req.Title
	}
	if req.Price != nil {
		price, err := parsePrice(*req.Price)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		params.Price = price
	}
	if req.Featured != nil {
		params.Featured = *req.Featured
	}
	if req.CategoryID != nil {
		params.CategoryID = *req.CategoryID
	}

	h.applyUpdate(w, r, params)
}

func (h *MenuItemHandler) applyUpdate(w http.ResponseWriter, r *http.Request, params database.UpdateMenuItemParams) {
	if _, err := h.store.UpdateMenuItem(r.Context(), params); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
			return
		}
		if isUniqueViolation(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title: menu item with this title already exists"})
			return
		}
		if isForeignKeyViolation(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "category_id: category does not exist"})
			return
		}
		log.Printf("ERROR: update menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	row, err := h.store.GetMenuItem(r.Context(), params.ID)
	if err != nil {
		log.Printf("ERROR: get menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toMenuItemResponse(row))
}

// Delete removes a menu item.
func (h *MenuItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid menu item id"})
		return
	}

	deleted, err := h.store.DeleteMenuItem(r.Context(), id)
	if err != nil {
		if isForeignKeyViolation(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "menu item is referenced by existing orders"})
			return
		}
		log.Printf("ERROR: delete menu item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if deleted == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "menu item not found"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
