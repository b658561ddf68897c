package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BuyerStats is the per-buyer aggregate over income transactions.
type BuyerStats struct {
	UserID            int64           `db:"user_id" json:"user_id"`
	UserName          *string         `db:"user_name" json:"user_name"`
	FirstSeenAt       time.Time       `db:"first_seen_at" json:"first_seen_at"`
	LastSeenAt        time.Time       `db:"last_seen_at" json:"last_seen_at"`
	BuyCount          int64           `db:"buy_count" json:"buy_count"`
	TotalSpent        decimal.Decimal `db:"total_spent" json:"total_spent"`
	TotalCredits      decimal.Decimal `db:"total_credits" json:"total_credits"`
	TotalPromoCredits decimal.Decimal `db:"total_promo_credits" json:"total_promo_credits"`
}

// RecipientStats is the per-recipient aggregate over income transactions.
type RecipientStats struct {
	UserID            int64           `db:"user_id" json:"user_id"`
	UserName          *string         `db:"user_name" json:"user_name"`
	FirstSeenAt       time.Time       `db:"first_seen_at" json:"first_seen_at"`
	LastSeenAt        time.Time       `db:"last_seen_at" json:"last_seen_at"`
	ReceiveCount      int64           `db:"receive_count" json:"receive_count"`
	TotalReceived     decimal.Decimal `db:"total_received" json:"total_received"`
	TotalCredits      decimal.Decimal `db:"total_credits" json:"total_credits"`
	TotalPromoCredits decimal.Decimal `db:"total_promo_credits" json:"total_promo_credits"`
}

// IncomeTransactionDetail is an income transaction joined with best-effort
// product and user display names for list views.
type IncomeTransactionDetail struct {
	IncomeTransaction
	ProductName   *string `db:"product_name" json:"product_name"`
	BuyerName     *string `db:"buyer_name" json:"buyer_name"`
	RecipientName *string `db:"recipient_name" json:"recipient_name"`
}
