package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"imvu-insight-api/internal/blob"
	"imvu-insight-api/internal/model"
	"imvu-insight-api/internal/repository"
)

const testUserID int64 = 1

func newTestService(t *testing.T) (*DataSyncService, *repository.Store) {
	t.Helper()
	store, err := repository.NewStore("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	blobs, err := blob.NewStore(t.TempDir())
	require.NoError(t, err)

	return NewDataSyncService(store, blobs, nil, time.Hour, zap.NewNop()), store
}

func productXML(developerID int64, entries string) []byte {
	return []byte(fmt.Sprintf(`<product_list developer_id="%d">%s</product_list>`, developerID, entries))
}

func productEntry(id, name, price, visible string) string {
	return fmt.Sprintf(`<product_list_entry product_id="%s" product_name="%s" price="%s" profit="0" visible="%s"
		old_sales="0" new_sales="0" total_sales="0" derived_product_sales="0"
		direct_sales="0" indirect_sales="0" promoted_sales="0"
		cart_adds="0" wishlist_adds="0" organic_impressions="0" paid_impressions="0"/>`,
		id, name, price, visible)
}

func incomeXML(developerID int64, entries string) []byte {
	return []byte(fmt.Sprintf(`<developer_income_log developer_id="%d">%s</developer_income_log>`, developerID, entries))
}

func incomeEntry(salesLogID, buyerID, buyerName, resellerID, purchaseDate string) string {
	return fmt.Sprintf(`<developer_income_entry sales_log_id="%s" buyer_id="%s" buyer_name="%s"
		recipient_id="11" recipient_name="Bob" reseller_id="%s" reseller_name="Shop"
		product_id="77" product_name="Hat" price_factor="1.0"
		paid_credits="2.0" paid_promo_credits="0.5" income_credits="1.0" income_promo_credits="0.1"
		purchase_date="%s" credit_delivery_date="2024-01-15"/>`,
		salesLogID, buyerID, buyerName, resellerID, purchaseDate)
}

func hashOf(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func loadTransaction(t *testing.T, store *repository.Store, id int64) *model.IncomeTransaction {
	t.Helper()
	var tx model.IncomeTransaction
	err := store.DB().Get(&tx, "SELECT * FROM income_transaction WHERE transaction_id = ?", id)
	require.NoError(t, err)
	return &tx
}

func countRows(t *testing.T, store *repository.Store, table string) int {
	t.Helper()
	var n int
	require.NoError(t, store.DB().Get(&n, "SELECT COUNT(*) FROM "+table))
	return n
}

func TestImportProductSnapshot(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	content := productXML(500, productEntry("77", "Hat", "3.50", "1"))
	result, err := svc.Import(ctx, model.DataTypeProduct, "catalog.xml", content, testUserID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ImportedCount)
	assert.True(t, result.DerivedOK)
	require.NoError(t, result.DerivationErr)

	products, err := store.ProductsByIDs(ctx, store.DB(), []int64{77})
	require.NoError(t, err)
	p := products[77]
	require.NotNil(t, p)
	assert.Equal(t, "Hat", p.ProductName)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("3.5")))
	assert.True(t, p.Visible)
	assert.Equal(t, int64(500), p.DeveloperUserID)
	assert.Nil(t, p.FirstSoldAt)
	assert.Nil(t, p.LastSoldAt)

	devs, err := store.DevelopersByIDs(ctx, store.DB(), []int64{500})
	require.NoError(t, err)
	require.NotNil(t, devs[500])

	actors, err := store.ImvuUsersByIDs(ctx, store.DB(), []int64{500})
	require.NoError(t, err)
	require.NotNil(t, actors[500])
	assert.Equal(t, int64(500), actors[500].DeveloperUserID)
}

func TestImportIncomeSnapshot(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	content := incomeXML(500, incomeEntry("9001", "10", "Alice", "", "2024-01-01T00:00:00"))
	result, err := svc.Import(ctx, model.DataTypeIncome, "income.xml", content, testUserID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ImportedCount)
	require.NoError(t, result.DerivationErr)

	tx := loadTransaction(t, store, 9001)
	assert.True(t, tx.PaidTotalCredits.Equal(decimal.RequireFromString("2.5")))
	assert.True(t, tx.IncomeTotalCredits.Equal(decimal.RequireFromString("1.1")))
	assert.Equal(t, int64(10), tx.BuyerUserID)
	assert.Equal(t, int64(500), tx.DeveloperUserID)
	assert.Nil(t, tx.ResellerUserID)

	actors, err := store.ImvuUsersByIDs(ctx, store.DB(), []int64{10})
	require.NoError(t, err)
	alice := actors[10]
	require.NotNil(t, alice)
	require.NotNil(t, alice.UserName)
	assert.Equal(t, "Alice", *alice.UserName)

	// Income imports create watermark-only products: zero price, invisible.
	products, err := store.ProductsByIDs(ctx, store.DB(), []int64{77})
	require.NoError(t, err)
	p := products[77]
	require.NotNil(t, p)
	assert.True(t, p.Price.IsZero())
	assert.False(t, p.Visible)
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NotNil(t, p.FirstSoldAt)
	require.NotNil(t, p.LastSoldAt)
	assert.True(t, p.FirstSoldAt.Equal(want))
	assert.True(t, p.LastSoldAt.Equal(want))
}

func TestReimportIsIdempotent(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	content := incomeXML(500, incomeEntry("9001", "10", "Alice", "", "2024-01-01T00:00:00"))
	_, err := svc.Import(ctx, model.DataTypeIncome, "income.xml", content, testUserID)
	require.NoError(t, err)
	_, err = svc.Import(ctx, model.DataTypeIncome, "income.xml", content, testUserID)
	require.NoError(t, err)

	assert.Equal(t, 1, countRows(t, store, "income_transaction"))
	// Raw rows are audit data and accumulate per upload.
	assert.Equal(t, 2, countRows(t, store, "raw_income_log"))
}

func TestActorWatermarksAreOrderIndependent(t *testing.T) {
	early := incomeXML(500, incomeEntry("9001", "10", "alice_old", "", "2024-01-01T00:00:00"))
	late := incomeXML(500, incomeEntry("9002", "10", "alice_new", "", "2024-03-05T00:00:00"))

	for name, batches := range map[string][][]byte{
		"early then late": {early, late},
		"late then early": {late, early},
	} {
		t.Run(name, func(t *testing.T) {
			svc, store := newTestService(t)
			ctx := context.Background()
			for _, content := range batches {
				result, err := svc.Import(ctx, model.DataTypeIncome, "income.xml", content, testUserID)
				require.NoError(t, err)
				require.NoError(t, result.DerivationErr)
			}

			actors, err := store.ImvuUsersByIDs(ctx, store.DB(), []int64{10})
			require.NoError(t, err)
			alice := actors[10]
			require.NotNil(t, alice)
			assert.True(t, alice.FirstSeenAt.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
			assert.True(t, alice.LastSeenAt.Equal(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)))
			require.NotNil(t, alice.UserName)
			assert.Equal(t, "alice_new", *alice.UserName)
		})
	}
}

func TestProductFieldOwnership(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.Import(ctx, model.DataTypeProduct, "catalog.xml",
		productXML(500, productEntry("77", "Hat", "3.50", "1")), testUserID)
	require.NoError(t, err)

	_, err = svc.Import(ctx, model.DataTypeIncome, "income.xml",
		incomeXML(500, incomeEntry("9001", "10", "Alice", "", "2024-01-01T00:00:00")), testUserID)
	require.NoError(t, err)

	products, err := store.ProductsByIDs(ctx, store.DB(), []int64{77})
	require.NoError(t, err)
	p := products[77]
	require.NotNil(t, p)

	// The income import must not touch price or visibility.
	assert.True(t, p.Price.Equal(decimal.RequireFromString("3.5")))
	assert.True(t, p.Visible)
	// And only the income import sets the sold-at window.
	require.NotNil(t, p.FirstSoldAt)
	assert.True(t, p.FirstSoldAt.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestNonNumericResellerIsDropped(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	content := incomeXML(500, incomeEntry("9001", "10", "Alice", "N/A", "2024-01-01T00:00:00"))
	result, err := svc.Import(ctx, model.DataTypeIncome, "income.xml", content, testUserID)
	require.NoError(t, err)
	require.NoError(t, result.DerivationErr)

	tx := loadTransaction(t, store, 9001)
	assert.Nil(t, tx.ResellerUserID)

	// Only developer, buyer, and recipient become actors.
	assert.Equal(t, 3, countRows(t, store, "imvu_user"))
}

func TestNumericResellerBecomesActor(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	content := incomeXML(500, incomeEntry("9001", "10", "Alice", "42", "2024-01-01T00:00:00"))
	_, err := svc.Import(ctx, model.DataTypeIncome, "income.xml", content, testUserID)
	require.NoError(t, err)

	tx := loadTransaction(t, store, 9001)
	require.NotNil(t, tx.ResellerUserID)
	assert.Equal(t, int64(42), *tx.ResellerUserID)

	actors, err := store.ImvuUsersByIDs(ctx, store.DB(), []int64{42})
	require.NoError(t, err)
	require.NotNil(t, actors[42])
}

func TestDeleteSyncRecord(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	content := incomeXML(500, incomeEntry("9001", "10", "Alice", "", "2024-01-01T00:00:00"))
	result, err := svc.Import(ctx, model.DataTypeIncome, "income.xml", content, testUserID)
	require.NoError(t, err)

	meta, err := svc.ByHash(ctx, hashOf(content), testUserID)
	require.NoError(t, err)
	require.NotNil(t, meta)

	deleted, err := svc.Delete(ctx, result.SyncRecordID, testUserID)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, 0, countRows(t, store, "raw_income_log"))

	meta, err = svc.ByHash(ctx, hashOf(content), testUserID)
	require.NoError(t, err)
	assert.Nil(t, meta)

	deleted, err = svc.Delete(ctx, result.SyncRecordID, testUserID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestParseFailureKeepsUpload(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	result, err := svc.Import(ctx, model.DataTypeProduct, "garbage.xml", []byte("this is not xml"), testUserID)
	require.NoError(t, err)
	assert.Equal(t, 0, result.ImportedCount)
	assert.True(t, result.DerivedOK)

	assert.Equal(t, 1, countRows(t, store, "data_sync_records"))
	assert.Equal(t, 0, countRows(t, store, "raw_product_list"))
}

func TestByHashIsScopedToOwner(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	content := productXML(500, productEntry("77", "Hat", "3.50", "1"))
	_, err := svc.Import(ctx, model.DataTypeProduct, "catalog.xml", content, testUserID)
	require.NoError(t, err)

	meta, err := svc.ByHash(ctx, hashOf(content), testUserID)
	require.NoError(t, err)
	assert.NotNil(t, meta)

	meta, err = svc.ByHash(ctx, hashOf(content), testUserID+1)
	require.NoError(t, err)
	assert.Nil(t, meta)
}

func TestMalformedAmountsFallBackToZero(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	entry := `<developer_income_entry sales_log_id="9001" buyer_id="10" buyer_name="Alice"
		recipient_id="11" recipient_name="Bob" reseller_id="" reseller_name=""
		product_id="77" product_name="Hat" price_factor="1.0"
		paid_credits="1.5e1" paid_promo_credits="oops" income_credits="3" income_promo_credits=""
		purchase_date="2024-01-01T00:00:00" credit_delivery_date=""/>`
	_, err := svc.Import(ctx, model.DataTypeIncome, "income.xml", incomeXML(500, entry), testUserID)
	require.NoError(t, err)

	tx := loadTransaction(t, store, 9001)
	assert.True(t, tx.PaidCredits.Equal(decimal.NewFromInt(15)))
	assert.True(t, tx.PaidPromoCredits.IsZero())
	assert.True(t, tx.PaidTotalCredits.Equal(decimal.NewFromInt(15)))
	assert.True(t, tx.IncomeTotalCredits.Equal(decimal.NewFromInt(3)))
}
