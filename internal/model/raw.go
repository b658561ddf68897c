package model

import "time"

// RawProductRow is one product_list_entry element from an uploaded product
// snapshot. Numeric-looking fields stay verbatim strings at this layer;
// coercion happens only when derived entities are built.
type RawProductRow struct {
	ID           int64     `db:"id"`
	DeveloperID  int64     `db:"developer_id"`
	SyncRecordID int64     `db:"sync_record_id"`
	SnapshotDate time.Time `db:"snapshot_date"`

	ProductID   int64  `db:"product_id"`
	ProductName string `db:"product_name"`
	Price       string `db:"price"`
	Profit      string `db:"profit"`
	Visible     string `db:"visible"`

	OldSales   string `db:"old_sales"`
	NewSales   string `db:"new_sales"`
	TotalSales string `db:"total_sales"`

	DerivedProductSales string `db:"derived_product_sales"`
	DirectSales         string `db:"direct_sales"`
	IndirectSales       string `db:"indirect_sales"`
	PromotedSales       string `db:"promoted_sales"`

	CartAdds     string `db:"cart_adds"`
	WishlistAdds string `db:"wishlist_adds"`

	OrganicImpressions string `db:"organic_impressions"`
	PaidImpressions    string `db:"paid_impressions"`

	CreatedAt time.Time `db:"created_at"`
}

// RawIncomeRow is one developer_income_entry element from an uploaded income
// snapshot. ResellerID stays a string: source data uses non-numeric
// placeholders for some resellers.
type RawIncomeRow struct {
	ID           int64     `db:"id"`
	DeveloperID  int64     `db:"developer_id"`
	SyncRecordID int64     `db:"sync_record_id"`
	SnapshotDate time.Time `db:"snapshot_date"`

	SalesLogID int64 `db:"sales_log_id"`

	BuyerID   int64  `db:"buyer_id"`
	BuyerName string `db:"buyer_name"`

	RecipientID   int64  `db:"recipient_id"`
	RecipientName string `db:"recipient_name"`

	ResellerID   string `db:"reseller_id"`
	ResellerName string `db:"reseller_name"`

	ProductID   int64  `db:"product_id"`
	ProductName string `db:"product_name"`

	PriceFactor string `db:"price_factor"`

	PaidCredits      string `db:"paid_credits"`
	PaidPromoCredits string `db:"paid_promo_credits"`

	IncomeCredits      string `db:"income_credits"`
	IncomePromoCredits string `db:"income_promo_credits"`

	PurchaseDate       time.Time `db:"purchase_date"`
	CreditDeliveryDate string    `db:"credit_delivery_date"`

	CreatedAt time.Time `db:"created_at"`
}
