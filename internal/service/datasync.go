package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"imvu-insight-api/internal/blob"
	"imvu-insight-api/internal/metrics"
	"imvu-insight-api/internal/model"
	"imvu-insight-api/internal/repository"
	"imvu-insight-api/internal/snapshot"
)

// ImportResult is the typed outcome of one snapshot import. DerivationErr is
// non-nil when raw rows were committed but entity derivation rolled back;
// the import itself still succeeded.
type ImportResult struct {
	SyncRecordID  int64
	Filename      string
	ImportedCount int
	DerivedOK     bool
	DerivationErr error
}

// DataSyncService ingests marketplace snapshot uploads and manages their
// lifecycle. Cache may be nil; hash lookups then always hit the database.
type DataSyncService struct {
	store   *repository.Store
	blobs   *blob.Store
	cache   *redis.Client
	hashTTL time.Duration
	log     *zap.Logger
}

// NewDataSyncService wires the ingestion pipeline.
func NewDataSyncService(store *repository.Store, blobs *blob.Store, cache *redis.Client, hashTTL time.Duration, log *zap.Logger) *DataSyncService {
	return &DataSyncService{
		store:   store,
		blobs:   blobs,
		cache:   cache,
		hashTTL: hashTTL,
		log:     log,
	}
}

// Import runs the two-phase ingestion: blob write and sync record first,
// then raw rows, then best-effort entity derivation. A parse failure is not
// an error; the upload is kept with zero imported rows.
func (s *DataSyncService) Import(ctx context.Context, typ model.DataType, filename string, content []byte, userID int64) (*ImportResult, error) {
	sum := sha256.Sum256(content)
	hash := hex.EncodeToString(sum[:])

	recordCount := bytes.Count(content, []byte("\n"))
	if recordCount == 0 && len(content) > 0 {
		recordCount = 1
	}

	// Blob write is on the critical path: no DB row without the raw file.
	blobPath, err := s.blobs.Save(string(typ), filename, content)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rec := &model.SyncRecord{
		UploadedAt:  now,
		Type:        typ,
		Filename:    filename,
		Hash:        hash,
		RecordCount: recordCount,
		FileSize:    int64(len(content)),
		Content:     content,
		UserID:      userID,
	}
	if err := s.store.CreateSyncRecord(ctx, rec); err != nil {
		return nil, err
	}
	metrics.ImportsTotal.WithLabelValues(string(typ)).Inc()

	var (
		imported      int
		derivationErr error
	)
	switch typ {
	case model.DataTypeProduct:
		imported, derivationErr, err = s.importProduct(ctx, rec)
	case model.DataTypeIncome:
		imported, derivationErr, err = s.importIncome(ctx, rec)
	default:
		return nil, fmt.Errorf("unknown data type %q", typ)
	}
	if err != nil {
		return nil, err
	}
	metrics.ImportRowsTotal.WithLabelValues(string(typ)).Add(float64(imported))

	if derivationErr != nil {
		metrics.DerivationFailuresTotal.WithLabelValues(string(typ)).Inc()
		s.log.Error("entity derivation rolled back",
			zap.Int64("sync_record_id", rec.ID),
			zap.String("type", string(typ)),
			zap.Error(derivationErr))
	}

	s.cacheHash(ctx, hash, userID)
	s.log.Info("snapshot imported",
		zap.Int64("sync_record_id", rec.ID),
		zap.String("type", string(typ)),
		zap.String("filename", filename),
		zap.String("blob", blobPath),
		zap.Int("imported", imported))

	return &ImportResult{
		SyncRecordID:  rec.ID,
		Filename:      filename,
		ImportedCount: imported,
		DerivedOK:     derivationErr == nil,
		DerivationErr: derivationErr,
	}, nil
}

func (s *DataSyncService) importProduct(ctx context.Context, rec *model.SyncRecord) (int, error, error) {
	doc, err := snapshot.ParseProductList(rec.Content)
	if err != nil {
		metrics.ParseFailuresTotal.WithLabelValues(string(rec.Type)).Inc()
		s.log.Warn("product snapshot not parseable",
			zap.Int64("sync_record_id", rec.ID), zap.Error(err))
		return 0, nil, nil
	}

	snapshotDate := dateOf(rec.UploadedAt)
	now := time.Now().UTC()
	rows := make([]model.RawProductRow, 0, len(doc.Entries))
	for _, e := range doc.Entries {
		rows = append(rows, model.RawProductRow{
			DeveloperID:         doc.DeveloperID,
			SyncRecordID:        rec.ID,
			SnapshotDate:        snapshotDate,
			ProductID:           snapshot.ParseID(e.ProductID),
			ProductName:         e.ProductName,
			Price:               e.Price,
			Profit:              e.Profit,
			Visible:             e.Visible,
			OldSales:            e.OldSales,
			NewSales:            e.NewSales,
			TotalSales:          e.TotalSales,
			DerivedProductSales: e.DerivedProductSales,
			DirectSales:         e.DirectSales,
			IndirectSales:       e.IndirectSales,
			PromotedSales:       e.PromotedSales,
			CartAdds:            e.CartAdds,
			WishlistAdds:        e.WishlistAdds,
			OrganicImpressions:  e.OrganicImpressions,
			PaidImpressions:     e.PaidImpressions,
			CreatedAt:           now,
		})
	}

	// Raw rows commit on their own; a failure here fails the import.
	rawTx, err := s.store.DB().BeginTxx(ctx, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to begin raw insert: %w", err)
	}
	if err := s.store.InsertRawProductRows(ctx, rawTx, rows); err != nil {
		rawTx.Rollback()
		return 0, nil, err
	}
	if err := rawTx.Commit(); err != nil {
		return 0, nil, fmt.Errorf("failed to commit raw rows: %w", err)
	}

	derivationErr := s.derive(ctx, func(tx *sqlx.Tx) error {
		if err := s.ensureDeveloperAndActor(ctx, tx, doc.DeveloperID, snapshotDate); err != nil {
			return err
		}
		return s.upsertProducts(ctx, tx, doc.DeveloperID, rows)
	})
	return len(rows), derivationErr, nil
}

func (s *DataSyncService) importIncome(ctx context.Context, rec *model.SyncRecord) (int, error, error) {
	doc, err := snapshot.ParseIncomeLog(rec.Content)
	if err != nil {
		metrics.ParseFailuresTotal.WithLabelValues(string(rec.Type)).Inc()
		s.log.Warn("income snapshot not parseable",
			zap.Int64("sync_record_id", rec.ID), zap.Error(err))
		return 0, nil, nil
	}

	snapshotDate := dateOf(rec.UploadedAt)
	now := time.Now().UTC()
	rows := make([]model.RawIncomeRow, 0, len(doc.Entries))
	for _, e := range doc.Entries {
		rows = append(rows, model.RawIncomeRow{
			DeveloperID:        doc.DeveloperID,
			SyncRecordID:       rec.ID,
			SnapshotDate:       snapshotDate,
			SalesLogID:         snapshot.ParseID(e.SalesLogID),
			BuyerID:            snapshot.ParseID(e.BuyerID),
			BuyerName:          e.BuyerName,
			RecipientID:        snapshot.ParseID(e.RecipientID),
			RecipientName:      e.RecipientName,
			ResellerID:         e.ResellerID,
			ResellerName:       e.ResellerName,
			ProductID:          snapshot.ParseID(e.ProductID),
			ProductName:        e.ProductName,
			PriceFactor:        e.PriceFactor,
			PaidCredits:        e.PaidCredits,
			PaidPromoCredits:   e.PaidPromoCredits,
			IncomeCredits:      e.IncomeCredits,
			IncomePromoCredits: e.IncomePromoCredits,
			PurchaseDate:       snapshot.ParsePurchaseDate(e.PurchaseDate),
			CreditDeliveryDate: e.CreditDeliveryDate,
			CreatedAt:          now,
		})
	}

	rawTx, err := s.store.DB().BeginTxx(ctx, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to begin raw insert: %w", err)
	}
	if err := s.store.InsertRawIncomeRows(ctx, rawTx, rows); err != nil {
		rawTx.Rollback()
		return 0, nil, err
	}
	if err := rawTx.Commit(); err != nil {
		return 0, nil, fmt.Errorf("failed to commit raw rows: %w", err)
	}

	derivationErr := s.derive(ctx, func(tx *sqlx.Tx) error {
		if err := s.ensureDeveloperAndActor(ctx, tx, doc.DeveloperID, snapshotDate); err != nil {
			return err
		}
		obs := collectActorObservations(rows)
		if err := s.ensureActors(ctx, tx, obs, doc.DeveloperID, snapshotDate); err != nil {
			return err
		}
		if err := s.ensureProductsFromIncome(ctx, tx, doc.DeveloperID, rows, snapshotDate); err != nil {
			return err
		}
		created, err := s.deriveTransactions(ctx, tx, doc.DeveloperID, rows)
		if err != nil {
			return err
		}
		metrics.TransactionsCreatedTotal.Add(float64(created))
		return nil
	})
	return len(rows), derivationErr, nil
}

// derive runs fn in its own transaction. Any failure rolls the transaction
// back and is returned for the caller to report; raw rows committed before
// this point are never undone.
func (s *DataSyncService) derive(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := s.store.DB().BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin derivation: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit derivation: %w", err)
	}
	return nil
}

func (s *DataSyncService) cacheHash(ctx context.Context, hash string, userID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, hashCacheKey(hash, userID), "1", s.hashTTL).Err(); err != nil {
		s.log.Warn("hash cache write failed", zap.Error(err))
	}
}

func hashCacheKey(hash string, userID int64) string {
	return fmt.Sprintf("datasync:hash:%d:%s", userID, hash)
}

// List returns one page of the caller's upload history.
func (s *DataSyncService) List(ctx context.Context, userID int64, page, pageSize int, typ *model.DataType) ([]model.SyncRecordMeta, int64, error) {
	return s.store.ListSyncRecords(ctx, userID, page, pageSize, typ)
}

// ByHash reports whether the caller already uploaded content with this hash,
// returning the matching record metadata when present. A positive answer
// refreshes the Redis existence key.
func (s *DataSyncService) ByHash(ctx context.Context, hash string, userID int64) (*model.SyncRecordMeta, error) {
	meta, err := s.store.SyncRecordByHash(ctx, hash, userID)
	if err != nil {
		return nil, err
	}
	if meta != nil {
		s.cacheHash(ctx, hash, userID)
	}
	return meta, nil
}

// Delete removes an upload and all raw rows derived from it. Returns false
// when the id does not exist for this caller.
func (s *DataSyncService) Delete(ctx context.Context, id, userID int64) (bool, error) {
	meta, err := s.store.SyncRecordByID(ctx, id, userID)
	if err != nil {
		return false, err
	}
	if meta == nil {
		return false, nil
	}
	deleted, err := s.store.DeleteSyncRecord(ctx, id, userID)
	if err != nil || !deleted {
		return deleted, err
	}
	if s.cache != nil {
		if err := s.cache.Del(ctx, hashCacheKey(meta.Hash, userID)).Err(); err != nil {
			s.log.Warn("hash cache delete failed", zap.Error(err))
		}
	}
	return true, nil
}
