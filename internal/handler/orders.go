package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/littlelemon/api/internal/authz"
	"github.com/littlelemon/api/internal/database"
	"github.com/littlelemon/api/internal/enum"
	"github.com/littlelemon/api/internal/middleware"
	"github.com/littlelemon/api/internal/service"
)

// OrderStore defines the database methods needed by order handlers.
// Satisfied by *database.Queries.
type OrderStore interface {
	GetOrder(ctx context.Context, id int64) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID int64) ([]database.OrderItem, error)
	UpdateOrder(ctx context.Context, arg database.UpdateOrderParams) (database.Order, error)
	GetUserByID(ctx context.Context, id int64) (database.User, error)
	IsUserInGroup(ctx context.Context, arg database.IsUserInGroupParams) (bool, error)
}

// OrderServicer converts the caller's cart into an order. Satisfied by
// *service.OrderService.
type OrderServicer interface {
	CreateFromCart(ctx context.Context, userID int64) (*service.CreateOrderResult, error)
}

// OrderNotifier fans order lifecycle events out to interested parties
// (websocket subscribers, the message broker). A nil notifier disables
// events without changing handler behavior.
type OrderNotifier interface {
	OrderCreated(ctx context.Context, o database.Order)
	OrderUpdated(ctx context.Context, o database.Order)
}

// OrderHandler serves order listing, creation and the role-gated
// mutation endpoint.
type OrderHandler struct {
	store    OrderStore
	svc      OrderServicer
	notifier OrderNotifier
}

func NewOrderHandler(store OrderStore, svc OrderServicer, notifier OrderNotifier) *OrderHandler {
	return &OrderHandler{store: store, svc: svc, notifier: notifier}
}

// RegisterRoutes registers order endpoints on an authenticated router.
// PUT and DELETE on a single order are rejected up front: the method is
// wrong regardless of who asks, so the 405 fires before any role or
// ownership check.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/orders", h.List)
	r.Post("/orders", h.Create)
	r.Get("/orders/{id}", h.Get)
	r.Patch("/orders/{id}", h.Update)
	r.Put("/orders/{id}", h.methodNotAllowed)
	r.Delete("/orders/{id}", h.methodNotAllowed)
}

type orderItemResponse struct {
	ID         int64  `json:"id"`
	MenuItemID int64  `json:"menuitem"`
	Quantity   int16  `json:"quantity"`
	UnitPrice  string `json:"unit_price"`
	Price      string `json:"price"`
}

type orderResponse struct {
	ID           int64               `json:"id"`
	UserID       int64               `json:"user_id"`
	DeliveryCrew *int64              `json:"delivery_crew"`
	Status       int16               `json:"status"`
	Total        string              `json:"total"`
	Date         string              `json:"date"`
	Items        []orderItemResponse `json:"items"`
}

func toOrderItemResponse(oi database.OrderItem) orderItemResponse {
	return orderItemResponse{
		ID:         oi.ID,
		MenuItemID: oi.MenuItemID,
		Quantity:   oi.Quantity,
		UnitPrice:  numericToString(oi.UnitPrice),
		Price:      numericToString(oi.Price),
	}
}

func toOrderResponse(o database.Order, items []database.OrderItem) orderResponse {
	resp := orderResponse{
		ID:     o.ID,
		UserID: o.UserID,
		Status: o.Status,
		Total:  numericToString(o.Total),
		Date:   o.CreatedAt.Format(time.RFC3339),
		Items:  make([]orderItemResponse, 0, len(items)),
	}
	if o.DeliveryCrewID.Valid {
		crew := o.DeliveryCrewID.Int64
		resp.DeliveryCrew = &crew
	}
	for _, oi := range items {
		resp.Items = append(resp.Items, toOrderItemResponse(oi))
	}
	return resp
}

// List returns the orders inside the caller's visibility scope:
// managers see all orders, delivery crew their assigned ones, everyone
// else their own. The status and user_id filters take effect for
// managers only; other roles get their unfiltered scope, and an
// unrecognized status label is ignored rather than rejected.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())
	q := r.URL.Query()

	params := database.ListOrdersParams{}
	switch identity.Role() {
	case authz.RoleManager:
		if ownerID, err := strconv.ParseInt(q.Get("user_id"), 10, 64); err == nil {
			params.OwnerID = pgtype.Int8{Int64: ownerID, Valid: true}
		}
		if status, ok := enum.ParseOrderStatusLabel(q.Get("status")); ok {
			params.Status = pgtype.Int2{Int16: status, Valid: true}
		}
	case authz.RoleDeliveryCrew:
		params.CrewID = pgtype.Int8{Int64: identity.UserID, Valid: true}
	default:
		params.OwnerID = pgtype.Int8{Int64: identity.UserID, Valid: true}
	}

	orders, err := h.store.ListOrders(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list orders: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		items, err := h.store.ListOrderItemsByOrder(r.Context(), o.ID)
		if err != nil {
			log.Printf("ERROR: list order items: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		resp = append(resp, toOrderResponse(o, items))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create converts the caller's cart into a new pending order.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())

	result, err := h.svc.CreateFromCart(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, service.ErrEmptyCart) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		log.Printf("ERROR: create order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if h.notifier != nil {
		h.notifier.OrderCreated(r.Context(), result.Order)
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(result.Order, result.Items))
}

// Get returns one order. An order outside the caller's scope reads as
// not found, so existence is not leaked across roles.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())

	id, ok := urlID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if !authz.CanViewOrder(identity, order) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), order.ID)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order, items))
}

// Update applies a PATCH touching delivery_crew and/or status. Only
// those two keys are accepted; anything else in the body rejects the
// whole request. Authorization is decided by the transition table in
// the authz package, on the order as it currently stands.
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())

	id, ok := urlID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return
	}

	order, err := h.store.GetOrder(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Printf("ERROR: get order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	req, err := parseOrderUpdate(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if err := authz.DecideUpdate(identity, order, req); err != nil {
		if errors.Is(err, authz.ErrForbidden) {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if req.DeliveryCrew != nil {
		if err := h.checkDeliveryCrew(r.Context(), *req.DeliveryCrew); err != nil {
			if errors.Is(err, errCrewNotFound) || errors.Is(err, errCrewNotInGroup) {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
				return
			}
			log.Printf("ERROR: check delivery crew: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
	}

	params := database.UpdateOrderParams{
		ID:             order.ID,
		DeliveryCrewID: order.DeliveryCrewID,
		Status:         order.Status,
	}
	if req.DeliveryCrew != nil {
		params.DeliveryCrewID = pgtype.Int8{Int64: *req.DeliveryCrew, Valid: true}
	}
	if req.Status != nil {
		params.Status = *req.Status
	}

	updated, err := h.store.UpdateOrder(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: update order: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	log.Printf("AUDIT: order %d updated by %s (%s): status %d -> %d, crew %s -> %s",
		updated.ID, identity.Username, identity.Role(),
		order.Status, updated.Status,
		formatCrew(order.DeliveryCrewID), formatCrew(updated.DeliveryCrewID))

	if h.notifier != nil {
		h.notifier.OrderUpdated(r.Context(), updated)
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), updated.ID)
	if err != nil {
		log.Printf("ERROR: list order items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(updated, items))
}

// parseOrderUpdate decodes a PATCH body into the two updatable fields,
// rejecting unknown keys and malformed values.
func parseOrderUpdate(r *http.Request) (authz.UpdateRequest, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return authz.UpdateRequest{}, errors.New("invalid request body")
	}

	var req authz.UpdateRequest
	for key, value := range raw {
		switch key {
		case "delivery_crew":
			var crewID int64
			if err := json.Unmarshal(value, &crewID); err != nil {
				return authz.UpdateRequest{}, errors.New("delivery_crew: must be a user id")
			}
			req.DeliveryCrew = &crewID
		case "status":
			var status int16
			if err := json.Unmarshal(value, &status); err != nil {
				return authz.UpdateRequest{}, errors.New("status: must be an integer")
			}
			req.Status = &status
		default:
			return authz.UpdateRequest{}, errors.New(key + ": field is not updatable")
		}
	}
	return req, nil
}

var (
	errCrewNotFound   = errors.New("delivery_crew: user does not exist")
	errCrewNotInGroup = errors.New("delivery_crew: user is not a member of the Delivery Crew group")
)

// checkDeliveryCrew verifies the assignee exists and belongs to the
// Delivery Crew group.
func (h *OrderHandler) checkDeliveryCrew(ctx context.Context, crewID int64) error {
	if _, err := h.store.GetUserByID(ctx, crewID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errCrewNotFound
		}
		return err
	}
	inGroup, err := h.store.IsUserInGroup(ctx, database.IsUserInGroupParams{
		UserID:    crewID,
		GroupName: enum.GroupDeliveryCrew,
	})
	if err != nil {
		return err
	}
	if !inGroup {
		return errCrewNotInGroup
	}
	return nil
}

func formatCrew(crew pgtype.Int8) string {
	if !crew.Valid {
		return "none"
	}
	return strconv.FormatInt(crew.Int64, 10)
}

func (h *OrderHandler) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
}
