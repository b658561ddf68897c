// Package snapshot defines the two marketplace XML export formats consumed
// by the data-sync pipeline and parses them into verbatim-string entries.
// Field coercion (prices, flags, credits) is deliberately left to the
// derived-entity layer; this package only parses ids and timestamps that the
// raw tables key on.
package snapshot

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ProductList is the document root of a product catalog snapshot.
type ProductList struct {
	XMLName     xml.Name       `xml:"product_list"`
	DeveloperID int64          `xml:"developer_id,attr"`
	Entries     []ProductEntry `xml:"product_list_entry"`
}

// ProductEntry carries the 16 attributes of one product_list_entry element.
// All values except the id are kept verbatim.
type ProductEntry struct {
	ProductID   string `xml:"product_id,attr"`
	ProductName string `xml:"product_name,attr"`
	Price       string `xml:"price,attr"`
	Profit      string `xml:"profit,attr"`
	Visible     string `xml:"visible,attr"`

	OldSales   string `xml:"old_sales,attr"`
	NewSales   string `xml:"new_sales,attr"`
	TotalSales string `xml:"total_sales,attr"`

	DerivedProductSales string `xml:"derived_product_sales,attr"`
	DirectSales         string `xml:"direct_sales,attr"`
	IndirectSales       string `xml:"indirect_sales,attr"`
	PromotedSales       string `xml:"promoted_sales,attr"`

	CartAdds     string `xml:"cart_adds,attr"`
	WishlistAdds string `xml:"wishlist_adds,attr"`

	OrganicImpressions string `xml:"organic_impressions,attr"`
	PaidImpressions    string `xml:"paid_impressions,attr"`
}

// IncomeLog is the document root of an income/sales log snapshot.
type IncomeLog struct {
	XMLName     xml.Name      `xml:"developer_income_log"`
	DeveloperID int64         `xml:"developer_id,attr"`
	Entries     []IncomeEntry `xml:"developer_income_entry"`
}

// IncomeEntry carries the attributes of one developer_income_entry element.
type IncomeEntry struct {
	SalesLogID string `xml:"sales_log_id,attr"`

	BuyerID   string `xml:"buyer_id,attr"`
	BuyerName string `xml:"buyer_name,attr"`

	RecipientID   string `xml:"recipient_id,attr"`
	RecipientName string `xml:"recipient_name,attr"`

	ResellerID   string `xml:"reseller_id,attr"`
	ResellerName string `xml:"reseller_name,attr"`

	ProductID   string `xml:"product_id,attr"`
	ProductName string `xml:"product_name,attr"`

	PriceFactor string `xml:"price_factor,attr"`

	PaidCredits        string `xml:"paid_credits,attr"`
	PaidPromoCredits   string `xml:"paid_promo_credits,attr"`
	IncomeCredits      string `xml:"income_credits,attr"`
	IncomePromoCredits string `xml:"income_promo_credits,attr"`

	PurchaseDate       string `xml:"purchase_date,attr"`
	CreditDeliveryDate string `xml:"credit_delivery_date,attr"`
}

// ParseProductList decodes a product snapshot document.
func ParseProductList(content []byte) (*ProductList, error) {
	var doc ProductList
	if err := xml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("parse product snapshot: %w", err)
	}
	return &doc, nil
}

// ParseIncomeLog decodes an income snapshot document.
func ParseIncomeLog(content []byte) (*IncomeLog, error) {
	var doc IncomeLog
	if err := xml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("parse income snapshot: %w", err)
	}
	return &doc, nil
}

// ParseID parses an external numeric id attribute. Returns 0 for empty or
// non-numeric values; callers treat 0 as "missing".
func ParseID(s string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

var purchaseDateLayouts = []string{
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParsePurchaseDate parses the ISO-8601-ish purchase timestamp used by the
// income log. Missing or unparsable values default to the current time.
func ParsePurchaseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s != "" {
		for _, layout := range purchaseDateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
	}
	return time.Now().UTC()
}
