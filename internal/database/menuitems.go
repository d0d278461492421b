package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createMenuItem = `
INSERT INTO menu_items (title, price, featured, category_id)
VALUES ($1, $2, $3, $4)
RETURNING id, title, price, featured, category_id
`

type CreateMenuItemParams struct {
	Title      string
	Price      pgtype.Numeric
	Featured   bool
	CategoryID int64
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, createMenuItem, arg.Title, arg.Price, arg.Featured, arg.CategoryID)
	var m MenuItem
	err := row.Scan(&m.ID, &m.Title, &m.Price, &m.Featured, &m.CategoryID)
	return m, err
}

const getMenuItem = `
SELECT m.id, m.title, m.price, m.featured, m.category_id, c.id, c.slug, c.title
FROM menu_items m
JOIN categories c ON c.id = m.category_id
WHERE m.id = $1
`

type GetMenuItemRow struct {
	MenuItem MenuItem
	Category Category
}

func (q *Queries) GetMenuItem(ctx context.Context, id int64) (GetMenuItemRow, error) {
	row := q.db.QueryRow(ctx, getMenuItem, id)
	var r GetMenuItemRow
	err := row.Scan(
		&r.MenuItem.ID, &r.MenuItem.Title, &r.MenuItem.Price, &r.MenuItem.Featured, &r.MenuItem.CategoryID,
		&r.Category.ID, &r.Category.Slug, &r.Category.Title,
	)
	return r, err
}

const listMenuItems = `
SELECT m.id, m.title, m.price, m.featured, m.category_id, c.id, c.slug, c.title
FROM menu_items m
JOIN categories c ON c.id = m.category_id
WHERE ($1::text IS NULL OR m.title ILIKE '%' || $1 || '%')
  AND ($2::text IS NULL OR c.title ILIKE '%' || $2 || '%')
ORDER BY
	CASE WHEN $3::text = 'price' THEN m.price END ASC,
	CASE WHEN $3::text = '-price' THEN m.price END DESC,
	CASE WHEN $3::text = 'title' THEN m.title END ASC,
	CASE WHEN $3::text = '-title' THEN m.title END DESC,
	CASE WHEN $3::text = 'category' THEN c.title END ASC,
	CASE WHEN $3::text = '-category' THEN c.title END DESC,
	m.id ASC
LIMIT $4 OFFSET $5
`

type ListMenuItemsParams struct {
	Search        pgtype.Text
	CategoryTitle pgtype.Text
	Ordering      string
	Limit         int32
	Offset        int32
}

func (q *Queries) ListMenuItems(ctx context.Context, arg ListMenuItemsParams) ([]GetMenuItemRow, error) {
	rows, err := q.db.Query(ctx, listMenuItems,
		arg.Search, arg.CategoryTitle, arg.Ordering, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetMenuItemRow
	for rows.Next() {
		var r GetMenuItemRow
		if err := rows.Scan(
			&r.MenuItem.ID, &r.MenuItem.Title, &r.MenuItem.Price, &r.MenuItem.Featured, &r.MenuItem.CategoryID,
			&r.Category.ID, &r.Category.Slug, &r.Category.Title,
		); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const countMenuItems = `
SELECT count(*)
FROM menu_items m
JOIN categories c ON c.id = m.category_id
WHERE ($1::text IS NULL OR m.title ILIKE '%' || $1 || '%')
  AND ($2::text IS NULL OR c.title ILIKE '%' || $2 || '%')
`

type CountMenuItemsParams struct {
	Search        pgtype.Text
	CategoryTitle pgtype.Text
}

func (q *Queries) CountMenuItems(ctx context.Context, arg CountMenuItemsParams) (int64, error) {
	row := q.db.QueryRow(ctx, countMenuItems, arg.Search, arg.CategoryTitle)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const updateMenuItem = `
UPDATE menu_items
SET title = $2, price = $3, featured = $4, category_id = $5
WHERE id = $1
RETURNING id, title, price, featured, category_id
`

type UpdateMenuItemParams struct {
	ID         int64
	Title      string
	Price      pgtype.Numeric
	Featured   bool
	CategoryID int64
}

func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, updateMenuItem, arg.ID, arg.Title, arg.Price, arg.Featured, arg.CategoryID)
	var m MenuItem
	err := row.Scan(&m.ID, &m.Title, &m.Price, &m.Featured, &m.CategoryID)
	return m, err
}

const deleteMenuItem = `
DELETE FROM menu_items
WHERE id = $1
`

func (q *Queries) DeleteMenuItem(ctx context.Context, id int64) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteMenuItem, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
