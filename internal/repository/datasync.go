package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"imvu-insight-api/internal/model"
)

// CreateSyncRecord inserts the upload record and sets its generated id.
func (s *Store) CreateSyncRecord(ctx context.Context, rec *model.SyncRecord) error {
	res, err := s.db.NamedExecContext(ctx, `
		INSERT INTO data_sync_records
			(uploaded_at, type, filename, hash, record_count, file_size, content, user_id)
		VALUES
			(:uploaded_at, :type, :filename, :hash, :record_count, :file_size, :content, :user_id)`,
		rec)
	if err != nil {
		return fmt.Errorf("failed to create sync record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read sync record id: %w", err)
	}
	rec.ID = id
	return nil
}

// SyncRecordByHash returns the most recent record with the given content hash
// owned by userID, or nil when none exists.
func (s *Store) SyncRecordByHash(ctx context.Context, hash string, userID int64) (*model.SyncRecordMeta, error) {
	var meta model.SyncRecordMeta
	err := s.db.GetContext(ctx, &meta, `
		SELECT id, uploaded_at, type, filename, hash, record_count, file_size
		FROM data_sync_records
		WHERE hash = ? AND user_id = ?
		ORDER BY uploaded_at DESC
		LIMIT 1`, hash, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up sync record by hash: %w", err)
	}
	return &meta, nil
}

// SyncRecordByID returns metadata for the caller's record, or nil when the
// id does not exist for this user.
func (s *Store) SyncRecordByID(ctx context.Context, id, userID int64) (*model.SyncRecordMeta, error) {
	var meta model.SyncRecordMeta
	err := s.db.GetContext(ctx, &meta, `
		SELECT id, uploaded_at, type, filename, hash, record_count, file_size
		FROM data_sync_records
		WHERE id = ? AND user_id = ?`, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load sync record: %w", err)
	}
	return &meta, nil
}

// ListSyncRecords returns one page of upload metadata for userID, newest
// first, optionally filtered by data type.
func (s *Store) ListSyncRecords(ctx context.Context, userID int64, page, pageSize int, typ *model.DataType) ([]model.SyncRecordMeta, int64, error) {
	where := "WHERE user_id = ?"
	args := []interface{}{userID}
	if typ != nil {
		where += " AND type = ?"
		args = append(args, *typ)
	}

	var total int64
	if err := s.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM data_sync_records "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count sync records: %w", err)
	}

	offset := (page - 1) * pageSize
	items := []model.SyncRecordMeta{}
	query := `
		SELECT id, uploaded_at, type, filename, hash, record_count, file_size
		FROM data_sync_records ` + where + `
		ORDER BY uploaded_at DESC
		LIMIT ? OFFSET ?`
	args = append(args, pageSize, offset)
	if err := s.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list sync records: %w", err)
	}
	return items, total, nil
}

// DeleteSyncRecord removes the record and cascades over both raw tables
// regardless of the record's declared type. Returns false when the id does
// not exist for this user.
func (s *Store) DeleteSyncRecord(ctx context.Context, id, userID int64) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.GetContext(ctx, &exists,
		"SELECT 1 FROM data_sync_records WHERE id = ? AND user_id = ?", id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check sync record: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM raw_product_list WHERE sync_record_id = ?", id); err != nil {
		return false, fmt.Errorf("failed to delete raw product rows: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM raw_income_log WHERE sync_record_id = ?", id); err != nil {
		return false, fmt.Errorf("failed to delete raw income rows: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM data_sync_records WHERE id = ?", id); err != nil {
		return false, fmt.Errorf("failed to delete sync record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit delete: %w", err)
	}
	return true, nil
}

// InsertRawProductRows bulk-inserts raw product rows within q.
func (s *Store) InsertRawProductRows(ctx context.Context, q sqlx.ExtContext, rows []model.RawProductRow) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := sqlx.NamedExecContext(ctx, q, `
		INSERT INTO raw_product_list
			(developer_id, sync_record_id, snapshot_date, product_id, product_name,
			 price, profit, visible, old_sales, new_sales, total_sales,
			 derived_product_sales, direct_sales, indirect_sales, promoted_sales,
			 cart_adds, wishlist_adds, organic_impressions, paid_impressions, created_at)
		VALUES
			(:developer_id, :sync_record_id, :snapshot_date, :product_id, :product_name,
			 :price, :profit, :visible, :old_sales, :new_sales, :total_sales,
			 :derived_product_sales, :direct_sales, :indirect_sales, :promoted_sales,
			 :cart_adds, :wishlist_adds, :organic_impressions, :paid_impressions, :created_at)`,
		rows)
	if err != nil {
		return fmt.Errorf("failed to insert raw product rows: %w", err)
	}
	return nil
}

// InsertRawIncomeRows bulk-inserts raw income rows within q.
func (s *Store) InsertRawIncomeRows(ctx context.Context, q sqlx.ExtContext, rows []model.RawIncomeRow) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := sqlx.NamedExecContext(ctx, q, `
		INSERT INTO raw_income_log
			(developer_id, sync_record_id, snapshot_date, sales_log_id,
			 buyer_id, buyer_name, recipient_id, recipient_name,
			 reseller_id, reseller_name, product_id, product_name, price_factor,
			 paid_credits, paid_promo_credits, income_credits, income_promo_credits,
			 purchase_date, credit_delivery_date, created_at)
		VALUES
			(:developer_id, :sync_record_id, :snapshot_date, :sales_log_id,
			 :buyer_id, :buyer_name, :recipient_id, :recipient_name,
			 :reseller_id, :reseller_name, :product_id, :product_name, :price_factor,
			 :paid_credits, :paid_promo_credits, :income_credits, :income_promo_credits,
			 :purchase_date, :credit_delivery_date, :created_at)`,
		rows)
	if err != nil {
		return fmt.Errorf("failed to insert raw income rows: %w", err)
	}
	return nil
}
