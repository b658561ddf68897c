package service

import (
	"context"
	"fmt"
	"strings"

	"imvu-insight-api/internal/model"
	"imvu-insight-api/internal/repository"
)

// SortOrder is one requested ordering, validated against a per-endpoint
// allow-list before it ever reaches SQL.
type SortOrder struct {
	Property  string `json:"property"`
	Direction string `json:"direction"`
}

// ListRequest is the shared shape of the paginated read endpoints.
type ListRequest struct {
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Orders   []SortOrder `json:"orders"`
	Keyword  string      `json:"keyword"`
}

// TransactionListRequest adds the income-transaction specific filters.
type TransactionListRequest struct {
	ListRequest
	ProductIDs       []int64 `json:"product_ids"`
	BuyerUserIDs     []int64 `json:"buyer_user_ids"`
	RecipientUserIDs []int64 `json:"recipient_user_ids"`
}

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

func (r *ListRequest) Normalize() {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PageSize < 1 {
		r.PageSize = defaultPageSize
	}
	if r.PageSize > maxPageSize {
		r.PageSize = maxPageSize
	}
}

// SortError rejects a sort property or direction outside the allow-list.
type SortError struct {
	Property string
}

func (e *SortError) Error() string {
	return fmt.Sprintf("unsupported sort property %q", e.Property)
}

// compileOrderBy maps requested orders onto allowed column expressions.
// The result is built exclusively from allow-list values, never from user
// input, so it is safe to splice into SQL.
func compileOrderBy(orders []SortOrder, allowed map[string]string, fallback string) (string, error) {
	if len(orders) == 0 {
		return fallback, nil
	}
	parts := make([]string, 0, len(orders))
	for _, o := range orders {
		col, ok := allowed[o.Property]
		if !ok {
			return "", &SortError{Property: o.Property}
		}
		dir := "ASC"
		switch strings.ToLower(o.Direction) {
		case "", "asc":
		case "desc":
			dir = "DESC"
		default:
			return "", &SortError{Property: o.Property}
		}
		parts = append(parts, col+" "+dir)
	}
	return strings.Join(parts, ", "), nil
}

var productSortColumns = map[string]string{
	"product_id":        "product_id",
	"product_name":      "product_name",
	"price":             "price",
	"visible":           "visible",
	"first_sold_at":     "first_sold_at",
	"last_sold_at":      "last_sold_at",
	"developer_user_id": "developer_user_id",
	"created_at":        "created_at",
	"updated_at":        "updated_at",
}

var imvuUserSortColumns = map[string]string{
	"user_id":           "user_id",
	"user_name":         "user_name",
	"first_seen_at":     "first_seen_at",
	"last_seen_at":      "last_seen_at",
	"developer_user_id": "developer_user_id",
	"created_at":        "created_at",
}

var buyerSortColumns = map[string]string{
	"user_id":             "u.user_id",
	"user_name":           "u.user_name",
	"first_seen_at":       "u.first_seen_at",
	"last_seen_at":        "u.last_seen_at",
	"buy_count":           "buy_count",
	"total_spent":         "total_spent",
	"total_credits":       "total_credits",
	"total_promo_credits": "total_promo_credits",
}

var recipientSortColumns = map[string]string{
	"user_id":             "u.user_id",
	"user_name":           "u.user_name",
	"first_seen_at":       "u.first_seen_at",
	"last_seen_at":        "u.last_seen_at",
	"receive_count":       "receive_count",
	"total_received":      "total_received",
	"total_credits":       "total_credits",
	"total_promo_credits": "total_promo_credits",
}

var transactionSortColumns = map[string]string{
	"transaction_id":       "t.transaction_id",
	"transaction_time":     "t.transaction_time",
	"product_id":           "t.product_id",
	"buyer_user_id":        "t.buyer_user_id",
	"recipient_user_id":    "t.recipient_user_id",
	"paid_total_credits":   "t.paid_total_credits",
	"income_total_credits": "t.income_total_credits",
	"created_at":           "t.created_at",
}

// QueryService serves the paginated read endpoints. Every query is scoped
// to the developer ids granted to the calling account; an account with no
// grants sees empty pages everywhere.
type QueryService struct {
	store *repository.Store
}

// NewQueryService wires the read side.
func NewQueryService(store *repository.Store) *QueryService {
	return &QueryService{store: store}
}

func (s *QueryService) grantedDevelopers(ctx context.Context, userID int64) ([]int64, error) {
	return s.store.DeveloperIDsForUser(ctx, userID)
}

// ListProducts returns one page of the caller's products.
func (s *QueryService) ListProducts(ctx context.Context, userID int64, req ListRequest) ([]model.Product, int64, error) {
	req.Normalize()
	orderBy, err := compileOrderBy(req.Orders, productSortColumns, "product_id ASC")
	if err != nil {
		return nil, 0, err
	}
	devIDs, err := s.grantedDevelopers(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return s.store.ListProducts(ctx, devIDs, req.Page, req.PageSize, orderBy, req.Keyword)
}

// ListImvuUsers returns one page of the caller's observed marketplace users.
func (s *QueryService) ListImvuUsers(ctx context.Context, userID int64, req ListRequest) ([]model.ImvuUser, int64, error) {
	req.Normalize()
	orderBy, err := compileOrderBy(req.Orders, imvuUserSortColumns, "user_id ASC")
	if err != nil {
		return nil, 0, err
	}
	devIDs, err := s.grantedDevelopers(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return s.store.ListImvuUsers(ctx, devIDs, req.Page, req.PageSize, orderBy, req.Keyword)
}

// ListBuyers returns per-buyer aggregates over the caller's transactions.
func (s *QueryService) ListBuyers(ctx context.Context, userID int64, req ListRequest) ([]model.BuyerStats, int64, error) {
	req.Normalize()
	orderBy, err := compileOrderBy(req.Orders, buyerSortColumns, "total_spent DESC")
	if err != nil {
		return nil, 0, err
	}
	devIDs, err := s.grantedDevelopers(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return s.store.ListBuyerStats(ctx, devIDs, req.Page, req.PageSize, orderBy, req.Keyword)
}

// ListRecipients returns per-recipient aggregates over the caller's
// transactions.
func (s *QueryService) ListRecipients(ctx context.Context, userID int64, req ListRequest) ([]model.RecipientStats, int64, error) {
	req.Normalize()
	orderBy, err := compileOrderBy(req.Orders, recipientSortColumns, "total_received DESC")
	if err != nil {
		return nil, 0, err
	}
	devIDs, err := s.grantedDevelopers(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return s.store.ListRecipientStats(ctx, devIDs, req.Page, req.PageSize, orderBy, req.Keyword)
}

// ListTransactions returns one page of the caller's income transactions with
// joined display names.
func (s *QueryService) ListTransactions(ctx context.Context, userID int64, req TransactionListRequest) ([]model.IncomeTransactionDetail, int64, error) {
	req.Normalize()
	orderBy, err := compileOrderBy(req.Orders, transactionSortColumns, "t.transaction_time DESC")
	if err != nil {
		return nil, 0, err
	}
	devIDs, err := s.grantedDevelopers(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	filter := repository.IncomeTransactionFilter{
		ProductIDs:       req.ProductIDs,
		BuyerUserIDs:     req.BuyerUserIDs,
		RecipientUserIDs: req.RecipientUserIDs,
	}
	return s.store.ListIncomeTransactions(ctx, devIDs, req.Page, req.PageSize, orderBy, req.Keyword, filter)
}
