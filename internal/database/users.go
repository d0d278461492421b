package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createUser = `
INSERT INTO users (username, email, hashed_password, is_staff)
VALUES ($1, $2, $3, $4)
RETURNING id, username, email, hashed_password, is_staff, created_at
`

type CreateUserParams struct {
	Username       string
	Email          pgtype.Text
	HashedPassword string
	IsStaff        bool
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, createUser, arg.Username, arg.Email, arg.HashedPassword, arg.IsStaff)
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.HashedPassword, &u.IsStaff, &u.CreatedAt)
	return u, err
}

const getUserByID = `
SELECT id, username, email, hashed_password, is_staff, created_at
FROM users
WHERE id = $1
`

func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	row := q.db.QueryRow(ctx, getUserByID, id)
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.HashedPassword, &u.IsStaff, &u.CreatedAt)
	return u, err
}

const getUserByUsername = `
SELECT id, username, email, hashed_password, is_staff, created_at
FROM users
WHERE username = $1
`

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	row := q.db.QueryRow(ctx, getUserByUsername, username)
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.HashedPassword, &u.IsStaff, &u.CreatedAt)
	return u, err
}

const listUsers = `
SELECT id, username, email, hashed_password, is_staff, created_at
FROM users
ORDER BY id
`

func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.Query(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.HashedPassword, &u.IsStaff, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

const setUserStaff = `
UPDATE users
SET is_staff = $2
WHERE id = $1
RETURNING id, username, email, hashed_password, is_staff, created_at
`

type SetUserStaffParams struct {
	ID      int64
	IsStaff bool
}

func (q *Queries) SetUserStaff(ctx context.Context, arg SetUserStaffParams) (User, error) {
	row := q.db.QueryRow(ctx, setUserStaff, arg.ID, arg.IsStaff)
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.HashedPassword, &u.IsStaff, &u.CreatedAt)
	return u, err
}
