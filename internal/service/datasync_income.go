package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"imvu-insight-api/internal/model"
	"imvu-insight-api/internal/snapshot"
)

// deriveTransactions turns raw income rows into immutable IncomeTransaction
// facts. Rows without a sales_log_id are skipped, and ids already present
// (from an earlier overlapping upload) are skipped silently so re-imports
// stay idempotent. Returns the number of transactions created.
func (s *DataSyncService) deriveTransactions(ctx context.Context, tx *sqlx.Tx, developerID int64, rows []model.RawIncomeRow) (int, error) {
	candidates := make([]int64, 0, len(rows))
	for i := range rows {
		if rows[i].SalesLogID != 0 {
			candidates = append(candidates, rows[i].SalesLogID)
		}
	}
	existing, err := s.store.ExistingTransactionIDs(ctx, tx, candidates)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	seen := make(map[int64]struct{}, len(candidates))
	inserts := make([]model.IncomeTransaction, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		if r.SalesLogID == 0 {
			continue
		}
		if _, dup := existing[r.SalesLogID]; dup {
			continue
		}
		if _, dup := seen[r.SalesLogID]; dup {
			continue
		}
		seen[r.SalesLogID] = struct{}{}

		var reseller *int64
		if id := snapshot.ParseID(r.ResellerID); id != 0 {
			reseller = &id
		}

		paid := parseDecimal(r.PaidCredits)
		paidPromo := parseDecimal(r.PaidPromoCredits)
		income := parseDecimal(r.IncomeCredits)
		incomePromo := parseDecimal(r.IncomePromoCredits)

		inserts = append(inserts, model.IncomeTransaction{
			TransactionID:      r.SalesLogID,
			TransactionTime:    r.PurchaseDate,
			ProductID:          r.ProductID,
			DeveloperUserID:    developerID,
			BuyerUserID:        r.BuyerID,
			RecipientUserID:    r.RecipientID,
			ResellerUserID:     reseller,
			PaidCredits:        paid,
			PaidPromoCredits:   paidPromo,
			IncomeCredits:      income,
			IncomePromoCredits: incomePromo,
			PaidTotalCredits:   paid.Add(paidPromo),
			IncomeTotalCredits: income.Add(incomePromo),
			CreatedAt:          now,
		})
	}
	if err := s.store.InsertIncomeTransactions(ctx, tx, inserts); err != nil {
		return 0, err
	}
	return len(inserts), nil
}
