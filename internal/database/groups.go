package database

import (
	"context"
)

const getGroupByName = `
SELECT id, name
FROM groups
WHERE name = $1
`

func (q *Queries) GetGroupByName(ctx context.Context, name string) (Group, error) {
	row := q.db.QueryRow(ctx, getGroupByName, name)
	var g Group
	err := row.Scan(&g.ID, &g.Name)
	return g, err
}

const listUsersInGroup = `
SELECT u.id, u.username, u.email, u.hashed_password, u.is_staff, u.created_at
FROM users u
JOIN user_groups ug ON ug.user_id = u.id
JOIN groups g ON g.id = ug.group_id
WHERE g.name = $1
ORDER BY u.id
`

func (q *Queries) ListUsersInGroup(ctx context.Context, name string) ([]User, error) {
	rows, err := q.db.Query(ctx, listUsersInGroup, name)
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

const addUserToGroup = `
INSERT INTO user_groups (user_id, group_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING
`

type AddUserToGroupParams struct {
	UserID  int64
	GroupID int64
}

func (q *Queries) AddUserToGroup(ctx context.Context, arg AddUserToGroupParams) error {
	_, err := q.db.Exec(ctx, addUserToGroup, arg.UserID, arg.GroupID)
	return err
}

const removeUserFromGroup = `
DELETE FROM user_groups
WHERE user_id = $1 AND group_id = $2
`

type RemoveUserFromGroupParams struct {
	UserID  int64
	GroupID int64
}

// RemoveUserFromGroup returns the number of membership rows deleted, so
// callers can distinguish "was never a member" from a real removal.
func (q *Queries) RemoveUserFromGroup(ctx context.Context, arg RemoveUserFromGroupParams) (int64, error) {
	tag, err := q.db.Exec(ctx, removeUserFromGroup, arg.UserID, arg.GroupID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const isUserInGroup = `
SELECT EXISTS (
	SELECT 1
	FROM user_groups ug
	JOIN groups g ON g.id = ug.group_id
	WHERE ug.user_id = $1 AND g.name = $2
)
`

type IsUserInGroupParams struct {
	UserID    int64
	GroupName string
}

func (q *Queries) IsUserInGroup(ctx context.Context, arg IsUserInGroupParams) (bool, error) {
	row := q.db.QueryRow(ctx, isUserInGroup, arg.UserID, arg.GroupName)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const listGroupNamesForUser = `
SELECT g.name
FROM groups g
JOIN user_groups ug ON ug.group_id = g.id
WHERE ug.user_id = $1
ORDER BY g.name
`

func (q *Queries) ListGroupNamesForUser(ctx context.Context, userID int64) ([]string, error) {
	rows, err := q.db.Query(ctx, listGroupNamesForUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
