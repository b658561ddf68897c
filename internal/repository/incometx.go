package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"imvu-insight-api/internal/model"
)

// ExistingTransactionIDs returns which of the given transaction ids are
// already present, in one round trip.
func (s *Store) ExistingTransactionIDs(ctx context.Context, q sqlx.ExtContext, ids []int64) (map[int64]struct{}, error) {
	out := make(map[int64]struct{}, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In("SELECT transaction_id FROM income_transaction WHERE transaction_id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	var existing []int64
	if err := sqlx.SelectContext(ctx, q, &existing, q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to check existing transactions: %w", err)
	}
	for _, id := range existing {
		out[id] = struct{}{}
	}
	return out, nil
}

// InsertIncomeTransactions bulk-inserts transaction facts.
func (s *Store) InsertIncomeTransactions(ctx context.Context, q sqlx.ExtContext, txs []model.IncomeTransaction) error {
	if len(txs) == 0 {
		return nil
	}
	_, err := sqlx.NamedExecContext(ctx, q, `
		INSERT INTO income_transaction
			(transaction_id, transaction_time, product_id, developer_user_id,
			 buyer_user_id, recipient_user_id, reseller_user_id,
			 paid_credits, paid_promo_credits, income_credits, income_promo_credits,
			 paid_total_credits, income_total_credits, created_at)
		VALUES
			(:transaction_id, :transaction_time, :product_id, :developer_user_id,
			 :buyer_user_id, :recipient_user_id, :reseller_user_id,
			 :paid_credits, :paid_promo_credits, :income_credits, :income_promo_credits,
			 :paid_total_credits, :income_total_credits, :created_at)`,
		txs)
	if err != nil {
		return fmt.Errorf("failed to insert income transactions: %w", err)
	}
	return nil
}

// IncomeTransactionFilter narrows a transaction listing. Empty slices mean
// no restriction on that dimension.
type IncomeTransactionFilter struct {
	ProductIDs       []int64
	BuyerUserIDs     []int64
	RecipientUserIDs []int64
}

// ListIncomeTransactions returns one page of transactions joined with product
// and user display names, restricted to the caller's developer ids. The
// keyword matches joined names or the transaction id.
func (s *Store) ListIncomeTransactions(ctx context.Context, devIDs []int64, page, pageSize int, orderBy, keyword string, filter IncomeTransactionFilter) ([]model.IncomeTransactionDetail, int64, error) {
	if len(devIDs) == 0 {
		return []model.IncomeTransactionDetail{}, 0, nil
	}

	const joins = `
		FROM income_transaction t
		LEFT JOIN product p ON t.product_id = p.product_id
		LEFT JOIN imvu_user b ON t.buyer_user_id = b.user_id
		LEFT JOIN imvu_user r ON t.recipient_user_id = r.user_id`

	where := "WHERE t.developer_user_id IN (?)"
	args := []interface{}{devIDs}
	if len(filter.ProductIDs) > 0 {
		where += " AND t.product_id IN (?)"
		args = append(args, filter.ProductIDs)
	}
	if len(filter.BuyerUserIDs) > 0 {
		where += " AND t.buyer_user_id IN (?)"
		args = append(args, filter.BuyerUserIDs)
	}
	if len(filter.RecipientUserIDs) > 0 {
		where += " AND t.recipient_user_id IN (?)"
		args = append(args, filter.RecipientUserIDs)
	}
	if keyword != "" {
		where += ` AND (p.product_name LIKE ? OR b.user_name LIKE ? OR r.user_name LIKE ?
			OR CAST(t.transaction_id AS CHAR) LIKE ?)`
		kw := "%" + keyword + "%"
		args = append(args, kw, kw, kw, kw)
	}

	countQ, countArgs, err := sqlx.In("SELECT COUNT(*) "+joins+" "+where, args...)
	if err != nil {
		return nil, 0, err
	}
	var total int64
	if err := s.db.GetContext(ctx, &total, s.db.Rebind(countQ), countArgs...); err != nil {
		return nil, 0, fmt.Errorf("failed to count income transactions: %w", err)
	}

	offset := (page - 1) * pageSize
	listQ, listArgs, err := sqlx.In(`
		SELECT t.*,
		       p.product_name AS product_name,
		       b.user_name AS buyer_name,
		       r.user_name AS recipient_name`+joins+`
		`+where+`
		ORDER BY `+orderBy+`
		LIMIT ? OFFSET ?`,
		append(args, pageSize, offset)...)
	if err != nil {
		return nil, 0, err
	}
	items := []model.IncomeTransactionDetail{}
	if err := s.db.SelectContext(ctx, &items, s.db.Rebind(listQ), listArgs...); err != nil {
		return nil, 0, fmt.Errorf("failed to list income transactions: %w", err)
	}
	return items, total, nil
}

// ListBuyerStats aggregates transactions per buyer, restricted to the
// caller's developer ids.
func (s *Store) ListBuyerStats(ctx context.Context, devIDs []int64, page, pageSize int, orderBy, keyword string) ([]model.BuyerStats, int64, error) {
	return s.listActorStats(ctx, devIDs, page, pageSize, orderBy, keyword, buyerStatsQuery)
}

// ListRecipientStats aggregates transactions per recipient, restricted to
// the caller's developer ids.
func (s *Store) ListRecipientStats(ctx context.Context, devIDs []int64, page, pageSize int, orderBy, keyword string) ([]model.RecipientStats, int64, error) {
	items := []model.RecipientStats{}
	total, err := s.selectActorStats(ctx, &items, devIDs, page, pageSize, orderBy, keyword, recipientStatsQuery)
	return items, total, err
}

type actorStatsQuery struct {
	joinColumn string
	selectCols string
}

var buyerStatsQuery = actorStatsQuery{
	joinColumn: "buyer_user_id",
	selectCols: `COUNT(t.transaction_id) AS buy_count,
	             SUM(t.paid_total_credits) AS total_spent,
	             SUM(t.paid_credits) AS total_credits,
	             SUM(t.paid_promo_credits) AS total_promo_credits`,
}

var recipientStatsQuery = actorStatsQuery{
	joinColumn: "recipient_user_id",
	selectCols: `COUNT(t.transaction_id) AS receive_count,
	             SUM(t.paid_total_credits) AS total_received,
	             SUM(t.paid_credits) AS total_credits,
	             SUM(t.paid_promo_credits) AS total_promo_credits`,
}

func (s *Store) listActorStats(ctx context.Context, devIDs []int64, page, pageSize int, orderBy, keyword string, stats actorStatsQuery) ([]model.BuyerStats, int64, error) {
	items := []model.BuyerStats{}
	total, err := s.selectActorStats(ctx, &items, devIDs, page, pageSize, orderBy, keyword, stats)
	return items, total, err
}

func (s *Store) selectActorStats(ctx context.Context, dest interface{}, devIDs []int64, page, pageSize int, orderBy, keyword string, stats actorStatsQuery) (int64, error) {
	if len(devIDs) == 0 {
		return 0, nil
	}

	where := "WHERE t.developer_user_id IN (?)"
	args := []interface{}{devIDs}
	if keyword != "" {
		where += " AND (u.user_name LIKE ? OR CAST(u.user_id AS CHAR) LIKE ?)"
		kw := "%" + keyword + "%"
		args = append(args, kw, kw)
	}

	countQ, countArgs, err := sqlx.In(fmt.Sprintf(`
		SELECT COUNT(DISTINCT t.%s)
		FROM income_transaction t
		JOIN imvu_user u ON t.%s = u.user_id
		%s`, stats.joinColumn, stats.joinColumn, where), args...)
	if err != nil {
		return 0, err
	}
	var total int64
	if err := s.db.GetContext(ctx, &total, s.db.Rebind(countQ), countArgs...); err != nil {
		return 0, fmt.Errorf("failed to count actor stats: %w", err)
	}

	offset := (page - 1) * pageSize
	listQ, listArgs, err := sqlx.In(fmt.Sprintf(`
		SELECT u.user_id, u.user_name, u.first_seen_at, u.last_seen_at,
		       %s
		FROM income_transaction t
		JOIN imvu_user u ON t.%s = u.user_id
		%s
		GROUP BY u.user_id, u.user_name, u.first_seen_at, u.last_seen_at
		ORDER BY %s
		LIMIT ? OFFSET ?`, stats.selectCols, stats.joinColumn, where, orderBy),
		append(args, pageSize, offset)...)
	if err != nil {
		return 0, err
	}
	if err := s.db.SelectContext(ctx, dest, s.db.Rebind(listQ), listArgs...); err != nil {
		return 0, fmt.Errorf("failed to list actor stats: %w", err)
	}
	return total, nil
}
