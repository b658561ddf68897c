package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"imvu-insight-api/internal/model"
)

// upsertProducts applies a product-list snapshot to the catalog. Price and
// visibility always take the snapshot's values; with several rows for one id
// the last row in file order wins.
func (s *DataSyncService) upsertProducts(ctx context.Context, tx *sqlx.Tx, developerID int64, rows []model.RawProductRow) error {
	ids := make([]int64, 0, len(rows))
	for i := range rows {
		if rows[i].ProductID != 0 {
			ids = append(ids, rows[i].ProductID)
		}
	}
	existing, err := s.store.ProductsByIDs(ctx, tx, ids)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	created := make(map[int64]*model.Product)
	touched := make(map[int64]*model.Product)
	for i := range rows {
		r := &rows[i]
		if r.ProductID == 0 {
			continue
		}

		if p, ok := created[r.ProductID]; ok {
			applyProductRow(p, r, now)
			continue
		}
		if p, ok := existing[r.ProductID]; ok {
			applyProductRow(p, r, now)
			touched[r.ProductID] = p
			continue
		}

		p := &model.Product{
			ProductID:       r.ProductID,
			DeveloperUserID: developerID,
			ProductName:     r.ProductName,
			Price:           parseDecimal(r.Price),
			Visible:         parseTruthy(r.Visible),
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		created[r.ProductID] = p
	}

	for _, p := range touched {
		if err := s.store.UpdateProduct(ctx, tx, p); err != nil {
			return err
		}
	}
	inserts := make([]model.Product, 0, len(created))
	for _, p := range created {
		inserts = append(inserts, *p)
	}
	return s.store.InsertProducts(ctx, tx, inserts)
}

func applyProductRow(p *model.Product, r *model.RawProductRow, now time.Time) {
	if p.DeveloperUserID == 0 {
		p.DeveloperUserID = r.DeveloperID
	}
	if r.ProductName != "" {
		p.ProductName = r.ProductName
	}
	p.Price = parseDecimal(r.Price)
	p.Visible = parseTruthy(r.Visible)
	p.UpdatedAt = now
}

// ensureProductsFromIncome extends product sold-at watermarks from an income
// snapshot. It never touches price or visibility; those belong to the
// product-list path. Names refresh only when the snapshot is at least as new
// as the product's last update, day-granular, so a re-uploaded old income
// log cannot clobber a newer catalog name.
func (s *DataSyncService) ensureProductsFromIncome(ctx context.Context, tx *sqlx.Tx, developerID int64, rows []model.RawIncomeRow, snapshotDate time.Time) error {
	ids := make([]int64, 0, len(rows))
	for i := range rows {
		if rows[i].ProductID != 0 {
			ids = append(ids, rows[i].ProductID)
		}
	}
	existing, err := s.store.ProductsByIDs(ctx, tx, ids)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	created := make(map[int64]*model.Product)
	touched := make(map[int64]*model.Product)
	for i := range rows {
		r := &rows[i]
		if r.ProductID == 0 {
			continue
		}
		soldAt := r.PurchaseDate

		if p, ok := created[r.ProductID]; ok {
			extendSoldWindow(p, soldAt)
			continue
		}
		if p, ok := existing[r.ProductID]; ok {
			if r.ProductName != "" && !snapshotDate.Before(dateOf(p.UpdatedAt)) {
				p.ProductName = r.ProductName
			}
			extendSoldWindow(p, soldAt)
			p.UpdatedAt = now
			touched[r.ProductID] = p
			continue
		}
		if soldAt.IsZero() {
			// A watermark-only product needs at least one sale timestamp.
			continue
		}
		first, last := soldAt, soldAt
		created[r.ProductID] = &model.Product{
			ProductID:       r.ProductID,
			DeveloperUserID: developerID,
			ProductName:     r.ProductName,
			Price:           decimal.Zero,
			Visible:         false,
			FirstSoldAt:     &first,
			LastSoldAt:      &last,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
	}

	for _, p := range touched {
		if err := s.store.UpdateProduct(ctx, tx, p); err != nil {
			return err
		}
	}
	inserts := make([]model.Product, 0, len(created))
	for _, p := range created {
		inserts = append(inserts, *p)
	}
	return s.store.InsertProducts(ctx, tx, inserts)
}

func extendSoldWindow(p *model.Product, soldAt time.Time) {
	if soldAt.IsZero() {
		return
	}
	if p.FirstSoldAt == nil || soldAt.Before(*p.FirstSoldAt) {
		t := soldAt
		p.FirstSoldAt = &t
	}
	if p.LastSoldAt == nil || soldAt.After(*p.LastSoldAt) {
		t := soldAt
		p.LastSoldAt = &t
	}
}
