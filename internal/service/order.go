package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/littlelemon/api/internal/database"
	"github.com/littlelemon/api/internal/enum"
	"github.com/shopspring/decimal"
)

// ErrEmptyCart rejects order creation when the user has nothing to order.
var ErrEmptyCart = errors.New("cannot create order from empty cart")

// OrderStore defines the DB methods needed to convert a cart.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	ListCartItemsForUpdate(ctx context.Context, userID int64) ([]database.CartItem, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	ClearCart(ctx context.Context, userID int64) error
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db database.DBTX) OrderStore

// CreateOrderResult is the created order with its item snapshots.
type CreateOrderResult struct {
	Order database.Order
	Items []database.OrderItem
}

// OrderService converts carts into immutable order snapshots.
type OrderService struct {
	pool     TxBeginner
	newStore NewOrderStore
}

func NewOrderService(pool TxBeginner, newStore NewOrderStore) *OrderService {
	return &OrderService{pool: pool, newStore: newStore}
}

// CreateFromCart snapshots every cart row of the user into a new pending
// order and empties the cart, all inside one transaction. The cart rows
// are locked first so a concurrent add or second conversion cannot slip
// between the read and the delete. Cart prices were validated when the
// rows were written and are copied as-is; no re-pricing happens here.
func (s *OrderService) CreateFromCart(ctx context.Context, userID int64) (*CreateOrderResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	cartItems, err := store.ListCartItemsForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	if len(cartItems) == 0 {
		return nil, ErrEmptyCart
	}

	total := decimal.Zero
	for _, ci := range cartItems {
		total = total.Add(numericToDecimal(ci.Price))
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		UserID: userID,
		Status: enum.OrderStatusPending,
		Total:  decimalToNumeric(total),
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	items := make([]database.OrderItem, 0, len(cartItems))
	for _, ci := range cartItems {
		item, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:    order.ID,
			MenuItemID: ci.MenuItemID,
			Quantity:   ci.Quantity,
			UnitPrice:  ci.UnitPrice,
			Price:      ci.Price,
		})
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		items = append(items, item)
	}

	if err := store.ClearCart(ctx, userID); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &CreateOrderResult{Order: order, Items: items}, nil
}
