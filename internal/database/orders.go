package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createOrder = `
INSERT INTO orders (user_id, status, total)
VALUES ($1, $2, $3)
RETURNING id, user_id, delivery_crew_id, status, total, created_at
`

type CreateOrderParams struct {
	UserID int64
	Status int16
	Total  pgtype.Numeric
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder, arg.UserID, arg.Status, arg.Total)
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.DeliveryCrewID, &o.Status, &o.Total, &o.CreatedAt)
	return o, err
}

const createOrderItem = `
INSERT INTO order_items (order_id, menu_item_id, quantity, unit_price, price)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, order_id, menu_item_id, quantity, unit_price, price
`

type CreateOrderItemParams struct {
	OrderID    int64
	MenuItemID int64
	Quantity   int16
	UnitPrice  pgtype.Numeric
	Price      pgtype.Numeric
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, createOrderItem,
		arg.OrderID, arg.MenuItemID, arg.Quantity, arg.UnitPrice, arg.Price)
	var oi OrderItem
	err := row.Scan(&oi.ID, &oi.OrderID, &oi.MenuItemID, &oi.Quantity, &oi.UnitPrice, &oi.Price)
	return oi, err
}

const getOrder = `
SELECT id, user_id, delivery_crew_id, status, total, created_at
FROM orders
WHERE id = $1
`

func (q *Queries) GetOrder(ctx context.Context, id int64) (Order, error) {
	row := q.db.QueryRow(ctx, getOrder, id)
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.DeliveryCrewID, &o.Status, &o.Total, &o.CreatedAt)
	return o, err
}

const listOrders = `
SELECT id, user_id, delivery_crew_id, status, total, created_at
FROM orders
WHERE ($1::bigint IS NULL OR user_id = $1)
  AND ($2::bigint IS NULL OR delivery_crew_id = $2)
  AND ($3::smallint IS NULL OR status = $3)
ORDER BY id
`

// ListOrdersParams combines role scoping and the manager-only filters:
// the handler sets OwnerID for customers, CrewID for delivery crew, and
// leaves both unset for managers (who may then set OwnerID from the
// user_id query parameter).
type ListOrdersParams struct {
	OwnerID pgtype.Int8
	CrewID  pgtype.Int8
	Status  pgtype.Int2
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrders, arg.OwnerID, arg.CrewID, arg.Status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.DeliveryCrewID, &o.Status, &o.Total, &o.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

const listOrderItemsByOrder = `
SELECT id, order_id, menu_item_id, quantity, unit_price, price
FROM order_items
WHERE order_id = $1
ORDER BY id
`

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID int64) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderItem
	for rows.Next() {
		var oi OrderItem
		if err := rows.Scan(&oi.ID, &oi.OrderID, &oi.MenuItemID, &oi.Quantity, &oi.UnitPrice, &oi.Price); err != nil {
			return nil, err
		}
		items = append(items, oi)
	}
	return items, rows.Err()
}

const updateOrder = `
UPDATE orders
SET delivery_crew_id = $2, status = $3
WHERE id = $1
RETURNING id, user_id, delivery_crew_id, status, total, created_at
`

type UpdateOrderParams struct {
	ID             int64
	DeliveryCrewID pgtype.Int8
	Status         int16
}

// UpdateOrder persists the only two mutable order fields. Callers pass
// the final values; authorization has already happened by this point.
func (q *Queries) UpdateOrder(ctx context.Context, arg UpdateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrder, arg.ID, arg.DeliveryCrewID, arg.Status)
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.DeliveryCrewID, &o.Status, &o.Total, &o.CreatedAt)
	return o, err
}
