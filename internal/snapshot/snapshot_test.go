package snapshot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProductList(t *testing.T) {
	xml := `<product_list developer_id="500">
		<product_list_entry product_id="77" product_name="Hat" price="3.50" profit="2.10" visible="1"
			old_sales="5" new_sales="2" total_sales="7" derived_product_sales="1"
			direct_sales="4" indirect_sales="3" promoted_sales="0"
			cart_adds="12" wishlist_adds="9" organic_impressions="1000" paid_impressions="50"/>
	</product_list>`

	doc, err := ParseProductList([]byte(xml))
	require.NoError(t, err)
	assert.Equal(t, int64(500), doc.DeveloperID)
	require.Len(t, doc.Entries, 1)

	e := doc.Entries[0]
	assert.Equal(t, "77", e.ProductID)
	assert.Equal(t, "Hat", e.ProductName)
	assert.Equal(t, "3.50", e.Price)
	assert.Equal(t, "1", e.Visible)
	assert.Equal(t, "1000", e.OrganicImpressions)
}

func TestParseProductListMalformed(t *testing.T) {
	_, err := ParseProductList([]byte("<product_list developer_id=\"1\"><unclosed"))
	assert.Error(t, err)
}

func TestParseIncomeLog(t *testing.T) {
	xml := `<developer_income_log developer_id="500">
		<developer_income_entry sales_log_id="9001" buyer_id="10" buyer_name="Alice"
			recipient_id="11" recipient_name="Bob" reseller_id="" reseller_name=""
			product_id="77" product_name="Hat" price_factor="1.0"
			paid_credits="2.0" paid_promo_credits="0.5" income_credits="1.0" income_promo_credits="0.1"
			purchase_date="2024-01-01T00:00:00" credit_delivery_date="2024-01-15"/>
	</developer_income_log>`

	doc, err := ParseIncomeLog([]byte(xml))
	require.NoError(t, err)
	assert.Equal(t, int64(500), doc.DeveloperID)
	require.Len(t, doc.Entries, 1)

	e := doc.Entries[0]
	assert.Equal(t, "9001", e.SalesLogID)
	assert.Equal(t, "Alice", e.BuyerName)
	assert.Equal(t, "2.0", e.PaidCredits)
	assert.Equal(t, "2024-01-01T00:00:00", e.PurchaseDate)
}

func TestParseID(t *testing.T) {
	assert.Equal(t, int64(42), ParseID("42"))
	assert.Equal(t, int64(42), ParseID(" 42 "))
	assert.Equal(t, int64(0), ParseID(""))
	assert.Equal(t, int64(0), ParseID("N/A"))
	assert.Equal(t, int64(0), ParseID("12.5"))
}

func TestParsePurchaseDate(t *testing.T) {
	got := ParsePurchaseDate("2024-01-01T12:30:00")
	assert.Equal(t, time.Date(2024, 1, 1, 12, 30, 0, 0, time.UTC), got)

	got = ParsePurchaseDate("2024-01-01")
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), got)

	// Unparsable values default to roughly now.
	before := time.Now().UTC()
	got = ParsePurchaseDate("not-a-date")
	assert.False(t, got.Before(before.Add(-time.Minute)))
}
