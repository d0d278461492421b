package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const listCartItems = `
SELECT id, user_id, menu_item_id, quantity, unit_price, price
FROM cart_items
WHERE user_id = $1
ORDER BY id
`

func (q *Queries) ListCartItems(ctx context.Context, userID int64) ([]CartItem, error) {
	rows, err := q.db.Query(ctx, listCartItems, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CartItem
	for rows.Next() {
		var ci CartItem
		if err := rows.Scan(&ci.ID, &ci.UserID, &ci.MenuItemID, &ci.Quantity, &ci.UnitPrice, &ci.Price); err != nil {
			return nil, err
		}
		items = append(items, ci)
	}
	return items, rows.Err()
}

const getCartItemForUpdate = `
SELECT id, user_id, menu_item_id, quantity, unit_price, price
FROM cart_items
WHERE user_id = $1 AND menu_item_id = $2
FOR UPDATE
`

type GetCartItemForUpdateParams struct {
	UserID     int64
	MenuItemID int64
}

// GetCartItemForUpdate locks the (user, menu item) cart row so concurrent
// adds for the same pair serialize on it.
func (q *Queries) GetCartItemForUpdate(ctx context.Context, arg GetCartItemForUpdateParams) (CartItem, error) {
	row := q.db.QueryRow(ctx, getCartItemForUpdate, arg.UserID, arg.MenuItemID)
	var ci CartItem
	err := row.Scan(&ci.ID, &ci.UserID, &ci.MenuItemID, &ci.Quantity, &ci.UnitPrice, &ci.Price)
	return ci, err
}

const listCartItemsForUpdate = `
SELECT id, user_id, menu_item_id, quantity, unit_price, price
FROM cart_items
WHERE user_id = $1
ORDER BY id
FOR UPDATE
`

// ListCartItemsForUpdate locks the user's whole cart for the duration of
// an order conversion, so a concurrent add or a second conversion waits.
func (q *Queries) ListCartItemsForUpdate(ctx context.Context, userID int64) ([]CartItem, error) {
	rows, err := q.db.Query(ctx, listCartItemsForUpdate, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CartItem
	for rows.Next() {
		var ci CartItem
		if err := rows.Scan(&ci.ID, &ci.UserID, &ci.MenuItemID, &ci.Quantity, &ci.UnitPrice, &ci.Price); err != nil {
			return nil, err
		}
		items = append(items, ci)
	}
	return items, rows.Err()
}

const createCartItem = `
INSERT INTO cart_items (user_id, menu_item_id, quantity, unit_price, price)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, user_id, menu_item_id, quantity, unit_price, price
`

type CreateCartItemParams struct {
	UserID     int64
	MenuItemID int64
	Quantity   int16
	UnitPrice  pgtype.Numeric
	Price      pgtype.Numeric
}

func (q *Queries) CreateCartItem(ctx context.Context, arg CreateCartItemParams) (CartItem, error) {
	row := q.db.QueryRow(ctx, createCartItem,
		arg.UserID, arg.MenuItemID, arg.Quantity, arg.UnitPrice, arg.Price)
	var ci CartItem
	err := row.Scan(&ci.ID, &ci.UserID, &ci.MenuItemID, &ci.Quantity, &ci.UnitPrice, &ci.Price)
	return ci, err
}

const updateCartItemQuantity = `
UPDATE cart_items
SET quantity = $2, price = $3
WHERE id = $1
RETURNING id, user_id, menu_item_id, quantity, unit_price, price
`

type UpdateCartItemQuantityParams struct {
	ID       int64
	Quantity int16
	Price    pgtype.Numeric
}

func (q *Queries) UpdateCartItemQuantity(ctx context.Context, arg UpdateCartItemQuantityParams) (CartItem, error) {
	row := q.db.QueryRow(ctx, updateCartItemQuantity, arg.ID, arg.Quantity, arg.Price)
	var ci CartItem
	err := row.Scan(&ci.ID, &ci.UserID, &ci.MenuItemID, &ci.Quantity, &ci.UnitPrice, &ci.Price)
	return ci, err
}

const deleteCartItem = `
DELETE FROM cart_items
WHERE id = $1 AND user_id = $2
`

type DeleteCartItemParams struct {
	ID     int64
	UserID int64
}

// DeleteCartItem is scoped to the owning user; a foreign row is simply
// zero rows affected.
func (q *Queries) DeleteCartItem(ctx context.Context, arg DeleteCartItemParams) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteCartItem, arg.ID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const clearCart = `
DELETE FROM cart_items
WHERE user_id = $1
`

func (q *Queries) ClearCart(ctx context.Context, userID int64) error {
	_, err := q.db.Exec(ctx, clearCart, userID)
	return err
}
