package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createCategory = `
INSERT INTO categories (slug, title)
VALUES ($1, $2)
RETURNING id, slug, title
`

type CreateCategoryParams struct {
	Slug  string
	Title string
}

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	row := q.db.QueryRow(ctx, createCategory, arg.Slug, arg.Title)
	var c Category
	err := row.Scan(&c.ID, &c.Slug, &c.Title)
	return c, err
}

const getCategory = `
SELECT id, slug, title
FROM categories
WHERE id = $1
`

func (q *Queries) GetCategory(ctx context.Context, id int64) (Category, error) {
	row := q.db.QueryRow(ctx, getCategory, id)
	var c Category
	err := row.Scan(&c.ID, &c.Slug, &c.Title)
	return c, err
}

const listCategories = `
SELECT id, slug, title
FROM categories
WHERE ($1::text IS NULL OR title ILIKE '%' || $1 || '%')
ORDER BY
	CASE WHEN $2::bool THEN title END DESC,
	CASE WHEN NOT $2::bool THEN title END ASC
`

type ListCategoriesParams struct {
	Search    pgtype.Text
	TitleDesc bool
}

func (q *Queries) ListCategories(ctx context.Context, arg ListCategoriesParams) ([]Category, error) {
	rows, err := q.db.Query(ctx, listCategories, arg.Search, arg.TitleDesc)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Slug, &c.Title); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
