package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imvu-insight-api/internal/model"
	"imvu-insight-api/internal/repository"
)

func newTestQuery(t *testing.T) (*QueryService, *repository.Store) {
	t.Helper()
	store, err := repository.NewStore("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewQueryService(store), store
}

func seedCatalog(t *testing.T, store *repository.Store) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.InsertProducts(ctx, store.DB(), []model.Product{
		{ProductID: 77, DeveloperUserID: 5, ProductName: "Hat", Price: decimal.RequireFromString("3.5"), Visible: true, CreatedAt: now, UpdatedAt: now},
		{ProductID: 78, DeveloperUserID: 5, ProductName: "Boots", Price: decimal.RequireFromString("9.9"), Visible: false, CreatedAt: now, UpdatedAt: now},
		{ProductID: 99, DeveloperUserID: 6, ProductName: "Crown", Price: decimal.RequireFromString("50"), Visible: true, CreatedAt: now, UpdatedAt: now},
	}))

	alice, carol := "Alice", "Carol"
	require.NoError(t, store.InsertImvuUsers(ctx, store.DB(), []model.ImvuUser{
		{UserID: 10, UserName: &alice, FirstSeenAt: now, LastSeenAt: now, DeveloperUserID: 5, CreatedAt: now},
		{UserID: 11, FirstSeenAt: now, LastSeenAt: now, DeveloperUserID: 5, CreatedAt: now},
		{UserID: 20, UserName: &carol, FirstSeenAt: now, LastSeenAt: now, DeveloperUserID: 6, CreatedAt: now},
	}))

	require.NoError(t, store.InsertIncomeTransactions(ctx, store.DB(), []model.IncomeTransaction{
		{
			TransactionID: 9001, TransactionTime: now, ProductID: 77, DeveloperUserID: 5,
			BuyerUserID: 10, RecipientUserID: 11,
			PaidCredits: decimal.NewFromInt(2), PaidTotalCredits: decimal.RequireFromString("2.5"),
			PaidPromoCredits: decimal.RequireFromString("0.5"),
			IncomeCredits:    decimal.NewFromInt(1), IncomePromoCredits: decimal.RequireFromString("0.1"),
			IncomeTotalCredits: decimal.RequireFromString("1.1"), CreatedAt: now,
		},
		{
			TransactionID: 9002, TransactionTime: now, ProductID: 99, DeveloperUserID: 6,
			BuyerUserID: 20, RecipientUserID: 20,
			PaidCredits: decimal.NewFromInt(50), PaidTotalCredits: decimal.NewFromInt(50),
			IncomeCredits: decimal.NewFromInt(25), IncomeTotalCredits: decimal.NewFromInt(25),
			CreatedAt: now,
		},
	}))
}

func grantUser(t *testing.T, store *repository.Store, username string, devIDs ...int64) int64 {
	t.Helper()
	u := seedUser(t, store, username, "hash")
	for _, id := range devIDs {
		require.NoError(t, store.GrantDeveloper(context.Background(), u.ID, id))
	}
	return u.ID
}

func TestListProductsScoped(t *testing.T) {
	svc, store := newTestQuery(t)
	seedCatalog(t, store)
	userA := grantUser(t, store, "a", 5)
	userB := grantUser(t, store, "b", 6)
	ctx := context.Background()

	items, total, err := svc.ListProducts(ctx, userA, ListRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 2)
	for _, p := range items {
		assert.Equal(t, int64(5), p.DeveloperUserID)
	}

	// Keyword matching another developer's product leaks nothing.
	items, total, err = svc.ListProducts(ctx, userA, ListRequest{Keyword: "Crown"})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)

	items, total, err = svc.ListProducts(ctx, userB, ListRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, int64(99), items[0].ProductID)
}

func TestListProductsWithoutGrants(t *testing.T) {
	svc, store := newTestQuery(t)
	seedCatalog(t, store)
	user := grantUser(t, store, "nobody")

	items, total, err := svc.ListProducts(context.Background(), user, ListRequest{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)
}

func TestListProductsSorting(t *testing.T) {
	svc, store := newTestQuery(t)
	seedCatalog(t, store)
	user := grantUser(t, store, "a", 5)
	ctx := context.Background()

	items, _, err := svc.ListProducts(ctx, user, ListRequest{
		Orders: []SortOrder{{Property: "price", Direction: "desc"}},
	})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(78), items[0].ProductID)

	_, _, err = svc.ListProducts(ctx, user, ListRequest{
		Orders: []SortOrder{{Property: "password_hash", Direction: "asc"}},
	})
	var sortErr *SortError
	assert.True(t, errors.As(err, &sortErr))

	_, _, err = svc.ListProducts(ctx, user, ListRequest{
		Orders: []SortOrder{{Property: "price", Direction: "sideways"}},
	})
	assert.True(t, errors.As(err, &sortErr))
}

func TestListTransactionsJoinsNames(t *testing.T) {
	svc, store := newTestQuery(t)
	seedCatalog(t, store)
	user := grantUser(t, store, "a", 5)

	items, total, err := svc.ListTransactions(context.Background(), user, TransactionListRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)

	tx := items[0]
	assert.Equal(t, int64(9001), tx.TransactionID)
	require.NotNil(t, tx.ProductName)
	assert.Equal(t, "Hat", *tx.ProductName)
	require.NotNil(t, tx.BuyerName)
	assert.Equal(t, "Alice", *tx.BuyerName)
	assert.Nil(t, tx.RecipientName)
}

func TestListTransactionsFiltered(t *testing.T) {
	svc, store := newTestQuery(t)
	seedCatalog(t, store)
	user := grantUser(t, store, "a", 5, 6)
	ctx := context.Background()

	items, total, err := svc.ListTransactions(ctx, user, TransactionListRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 2)

	items, total, err = svc.ListTransactions(ctx, user, TransactionListRequest{
		BuyerUserIDs: []int64{20},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, int64(9002), items[0].TransactionID)
}

func TestListBuyersAggregates(t *testing.T) {
	svc, store := newTestQuery(t)
	seedCatalog(t, store)
	user := grantUser(t, store, "a", 5)

	items, total, err := svc.ListBuyers(context.Background(), user, ListRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)

	b := items[0]
	assert.Equal(t, int64(10), b.UserID)
	assert.Equal(t, int64(1), b.BuyCount)
	assert.True(t, b.TotalSpent.Equal(decimal.RequireFromString("2.5")))
}

func TestListRecipientsAggregates(t *testing.T) {
	svc, store := newTestQuery(t)
	seedCatalog(t, store)
	user := grantUser(t, store, "a", 5)

	items, total, err := svc.ListRecipients(context.Background(), user, ListRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)

	r := items[0]
	assert.Equal(t, int64(11), r.UserID)
	assert.Equal(t, int64(1), r.ReceiveCount)
	assert.True(t, r.TotalReceived.Equal(decimal.RequireFromString("2.5")))
}

func TestListImvuUsersKeyword(t *testing.T) {
	svc, store := newTestQuery(t)
	seedCatalog(t, store)
	user := grantUser(t, store, "a", 5)
	ctx := context.Background()

	items, total, err := svc.ListImvuUsers(ctx, user, ListRequest{Keyword: "Ali"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, int64(10), items[0].UserID)

	// Numeric keyword matches on the id as well.
	items, total, err = svc.ListImvuUsers(ctx, user, ListRequest{Keyword: "11"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, int64(11), items[0].UserID)
}
