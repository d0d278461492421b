package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/littlelemon/api/internal/database"
	"github.com/littlelemon/api/internal/enum"
	"github.com/shopspring/decimal"
)

// Errors returned by the cart service. Messages lead with the offending
// field name so handlers can return them verbatim.
var (
	ErrInvalidQuantity  = errors.New("quantity: must be an integer between 1 and 32767")
	ErrMenuItemNotFound = errors.New("menuitem: menu item does not exist")
	ErrQuantityOverflow = errors.New("quantity: resulting quantity would exceed maximum of 32767")
	ErrPriceOverflow    = errors.New("exceed maximum price")
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// CartStore defines the DB methods needed to merge cart rows.
// Satisfied by *database.Queries (and its WithTx variant).
type CartStore interface {
	GetMenuItem(ctx context.Context, id int64) (database.GetMenuItemRow, error)
	GetCartItemForUpdate(ctx context.Context, arg database.GetCartItemForUpdateParams) (database.CartItem, error)
	CreateCartItem(ctx context.Context, arg database.CreateCartItemParams) (database.CartItem, error)
	UpdateCartItemQuantity(ctx context.Context, arg database.UpdateCartItemQuantityParams) (database.CartItem, error)
}

// NewCartStore creates a CartStore from a DBTX (pool or tx).
type NewCartStore func(db database.DBTX) CartStore

// CartService merges cart line items under the storage precision limits.
type CartService struct {
	pool     TxBeginner
	newStore NewCartStore
}

func NewCartService(pool TxBeginner, newStore NewCartStore) *CartService {
	return &CartService{pool: pool, newStore: newStore}
}

// AddItem adds quantity of a menu item to the user's cart. A row already
// holding that menu item has its quantity incremented and its price
// recomputed from the unit price captured when the row was first created.
// The read-merge-write runs in one transaction with the cart row locked,
// so concurrent adds for the same (user, menu item) serialize and the
// overflow guards see the final value they are guarding.
func (s *CartService) AddItem(ctx context.Context, userID, menuItemID, quantity int64) (database.CartItem, error) {
	if quantity < 1 || quantity > enum.MaxQuantity {
		return database.CartItem{}, ErrInvalidQuantity
	}

	item, err := s.addItemTx(ctx, userID, menuItemID, quantity)
	if err != nil && isUniqueViolation(err) {
		// A concurrent first add for the same (user, menu item) won the
		// insert race between our locked read and our insert. The retry
		// sees the committed row and takes the merge path.
		return s.addItemTx(ctx, userID, menuItemID, quantity)
	}
	return item, err
}

func (s *CartService) addItemTx(ctx context.Context, userID, menuItemID, quantity int64) (database.CartItem, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.CartItem{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	item, err := store.GetMenuItem(ctx, menuItemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.CartItem{}, ErrMenuItemNotFound
		}
		return database.CartItem{}, fmt.Errorf("get menu item: %w", err)
	}

	maxLine, _ := decimal.NewFromString(enum.MaxLineTotal)

	existing, err := store.GetCartItemForUpdate(ctx, database.GetCartItemForUpdateParams{
		UserID:     userID,
		MenuItemID: menuItemID,
	})
	switch {
	case err == nil:
		// Merge: increment quantity, recompute price from the frozen
		// unit price. The row is left untouched when a guard trips.
		newQuantity := int64(existing.Quantity) + quantity
		if newQuantity > enum.MaxQuantity {
			return database.CartItem{}, ErrQuantityOverflow
		}
		unitPrice := numericToDecimal(existing.UnitPrice)
		total := unitPrice.Mul(decimal.NewFromInt(newQuantity))
		if total.GreaterThan(maxLine) {
			return database.CartItem{}, fmt.Errorf("quantity: total price %s would %w of %s",
				total.StringFixed(2), ErrPriceOverflow, enum.MaxLineTotal)
		}
		updated, err := store.UpdateCartItemQuantity(ctx, database.UpdateCartItemQuantityParams{
			ID:       existing.ID,
			Quantity: int16(newQuantity),
			Price:    decimalToNumeric(total),
		})
		if err != nil {
			return database.CartItem{}, fmt.Errorf("update cart item: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return database.CartItem{}, fmt.Errorf("commit tx: %w", err)
		}
		return updated, nil

	case errors.Is(err, pgx.ErrNoRows):
		unitPrice := numericToDecimal(item.MenuItem.Price)
		total := unitPrice.Mul(decimal.NewFromInt(quantity))
		if total.GreaterThan(maxLine) {
			return database.CartItem{}, fmt.Errorf("quantity: total price %s would %w of %s",
				total.StringFixed(2), ErrPriceOverflow, enum.MaxLineTotal)
		}
		created, err := store.CreateCartItem(ctx, database.CreateCartItemParams{
			UserID:     userID,
			MenuItemID: menuItemID,
			Quantity:   int16(quantity),
			UnitPrice:  decimalToNumeric(unitPrice),
			Price:      decimalToNumeric(total),
		})
		if err != nil {
			return database.CartItem{}, fmt.Errorf("create cart item: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return database.CartItem{}, fmt.Errorf("commit tx: %w", err)
		}
		return created, nil

	default:
		return database.CartItem{}, fmt.Errorf("get cart item: %w", err)
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
