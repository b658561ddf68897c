package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog item. Price and Visible are owned by product-list
// snapshots; FirstSoldAt/LastSoldAt are owned by income snapshots. The two
// import paths never touch each other's fields except ProductName.
type Product struct {
	ProductID       int64           `db:"product_id" json:"product_id"`
	DeveloperUserID int64           `db:"developer_user_id" json:"developer_user_id"`
	ProductName     string          `db:"product_name" json:"product_name"`
	Price           decimal.Decimal `db:"price" json:"price"`
	Visible         bool            `db:"visible" json:"visible"`
	FirstSoldAt     *time.Time      `db:"first_sold_at" json:"first_sold_at"`
	LastSoldAt      *time.Time      `db:"last_sold_at" json:"last_sold_at"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}
