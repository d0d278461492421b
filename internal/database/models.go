package database

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID             int64
	Username       string
	Email          pgtype.Text
	HashedPassword string
	IsStaff        bool
	CreatedAt      time.Time
}

type Group struct {
	ID   int64
	Name string
}

type Category struct {
	ID    int64
	Slug  string
	Title string
}

type MenuItem struct {
	ID         int64
	Title      string
	Price      pgtype.Numeric
	Featured   bool
	CategoryID int64
}

type CartItem struct {
	ID         int64
	UserID     int64
	MenuItemID int64
	Quantity   int16
	UnitPrice  pgtype.Numeric
	Price      pgtype.Numeric
}

type Order struct {
	ID             int64
	UserID         int64
	DeliveryCrewID pgtype.Int8
	Status         int16
	Total          pgtype.Numeric
	CreatedAt      time.Time
}

type OrderItem struct {
	ID         int64
	OrderID    int64
	MenuItemID int64
	Quantity   int16
	UnitPrice  pgtype.Numeric
	Price      pgtype.Numeric
}
