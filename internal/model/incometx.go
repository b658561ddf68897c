package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// IncomeTransaction is an immutable sale fact keyed by the external
// sales_log_id. Once written, a transaction id is never updated; re-imports
// of the same id are skipped.
type IncomeTransaction struct {
	TransactionID   int64     `db:"transaction_id" json:"transaction_id"`
	TransactionTime time.Time `db:"transaction_time" json:"transaction_time"`

	ProductID       int64  `db:"product_id" json:"product_id"`
	DeveloperUserID int64  `db:"developer_user_id" json:"developer_user_id"`
	BuyerUserID     int64  `db:"buyer_user_id" json:"buyer_user_id"`
	RecipientUserID int64  `db:"recipient_user_id" json:"recipient_user_id"`
	ResellerUserID  *int64 `db:"reseller_user_id" json:"reseller_user_id"`

	PaidCredits        decimal.Decimal `db:"paid_credits" json:"paid_credits"`
	PaidPromoCredits   decimal.Decimal `db:"paid_promo_credits" json:"paid_promo_credits"`
	IncomeCredits      decimal.Decimal `db:"income_credits" json:"income_credits"`
	IncomePromoCredits decimal.Decimal `db:"income_promo_credits" json:"income_promo_credits"`

	// Denormalized at write time, never recomputed.
	PaidTotalCredits   decimal.Decimal `db:"paid_total_credits" json:"paid_total_credits"`
	IncomeTotalCredits decimal.Decimal `db:"income_total_credits" json:"income_total_credits"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
