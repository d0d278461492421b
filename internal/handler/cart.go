package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/littlelemon/api/internal/database"
	"github.com/littlelemon/api/internal/middleware"
	"github.com/littlelemon/api/internal/service"
)

// CartStore defines the database methods needed by cart handlers.
// Satisfied by *database.Queries.
type CartStore interface {
	ListCartItems(ctx context.Context, userID int64) ([]database.CartItem, error)
	DeleteCartItem(ctx context.Context, arg database.DeleteCartItemParams) (int64, error)
	ClearCart(ctx context.Context, userID int64) error
}

// CartServicer performs the transactional add-or-merge. Satisfied by
// *service.CartService.
type CartServicer interface {
	AddItem(ctx context.Context, userID, menuItemID, quantity int64) (database.CartItem, error)
}

// CartHandler serves the caller's own cart. Every route resolves the
// cart owner from the authenticated identity; there is no way to
// address another user's cart.
type CartHandler struct {
	store CartStore
	svc   CartServicer
}

func NewCartHandler(store CartStore, svc CartServicer) *CartHandler {
	return &CartHandler{store: store, svc: svc}
}

// RegisterRoutes registers cart endpoints on an authenticated router.
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Get("/cart", h.List)
	r.Post("/cart", h.Add)
	r.Delete("/cart/clear", h.Clear)
	r.Delete("/cart/{id}", h.Remove)
}

type addCartItemRequest struct {
	MenuItemID int64 `json:"menuitem"`
	Quantity   int64 `json:"quantity"`
}

type cartItemResponse struct {
	ID         int64  `json:"id"`
	MenuItemID int64  `json:"menuitem"`
	Quantity   int16  `json:"quantity"`
	UnitPrice  string `json:"unit_price"`
	Price      string `json:"price"`
}

func toCartItemResponse(ci database.CartItem) cartItemResponse {
	return cartItemResponse{
		ID:         ci.ID,
		MenuItemID: ci.MenuItemID,
		Quantity:   ci.Quantity,
		UnitPrice:  numericToString(ci.UnitPrice),
		Price:      numericToString(ci.Price),
	}
}

// List returns the caller's cart rows.
func (h *CartHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())

	items, err := h.store.ListCartItems(r.Context(), identity.UserID)
	if err != nil {
		log.Printf("ERROR: list cart items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]cartItemResponse, 0, len(items))
	for _, ci := range items {
		resp = append(resp, toCartItemResponse(ci))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Add puts quantity of a menu item into the caller's cart, merging with
// an existing row for the same item.
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())

	var req addCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	item, err := h.svc.AddItem(r.Context(), identity.UserID, req.MenuItemID, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMenuItemNotFound),
			errors.Is(err, service.ErrInvalidQuantity),
			errors.Is(err, service.ErrQuantityOverflow),
			errors.Is(err, service.ErrPriceOverflow):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("ERROR: add cart item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toCartItemResponse(item))
}

// Remove deletes one cart row. The query is scoped to the caller, so a
// row belonging to someone else reads as not found.
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())

	id, ok := urlID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid cart item id"})
		return
	}

	deleted, err := h.store.DeleteCartItem(r.Context(), database.DeleteCartItemParams{
		ID:     id,
		UserID: identity.UserID,
	})
	if err != nil {
		log.Printf("ERROR: delete cart item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if deleted == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "cart item not found"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Clear empties the caller's cart. Clearing an already empty cart is
// still a success.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())

	if err := h.store.ClearCart(r.Context(), identity.UserID); err != nil {
		log.Printf("ERROR: clear cart: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
