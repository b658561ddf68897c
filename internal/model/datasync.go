package model

import "time"

// DataType identifies which marketplace snapshot schema a sync record holds.
type DataType string

const (
	DataTypeProduct DataType = "product"
	DataTypeIncome  DataType = "income"
)

// ParseDataType normalizes a user-supplied type string.
// Returns false when the value is not a known data type.
func ParseDataType(s string) (DataType, bool) {
	switch DataType(s) {
	case DataTypeProduct, DataTypeIncome:
		return DataType(s), true
	}
	return "", false
}

// SyncRecord represents one uploaded snapshot file.
// Content is the verbatim uploaded bytes; everything else is metadata.
type SyncRecord struct {
	ID          int64     `db:"id" json:"id"`
	UploadedAt  time.Time `db:"uploaded_at" json:"uploaded_at"`
	Type        DataType  `db:"type" json:"type"`
	Filename    string    `db:"filename" json:"filename"`
	Hash        string    `db:"hash" json:"hash"`
	RecordCount int       `db:"record_count" json:"record_count"`
	FileSize    int64     `db:"file_size" json:"file_size"`
	Content     []byte    `db:"content" json:"-"`
	UserID      int64     `db:"user_id" json:"-"`
}

// SyncRecordMeta is the list/lookup representation of a SyncRecord,
// excluding the raw content blob.
type SyncRecordMeta struct {
	ID          int64     `db:"id" json:"id"`
	UploadedAt  time.Time `db:"uploaded_at" json:"uploaded_at"`
	Type        DataType  `db:"type" json:"type"`
	Filename    string    `db:"filename" json:"filename"`
	Hash        string    `db:"hash" json:"hash"`
	RecordCount int       `db:"record_count" json:"record_count"`
	FileSize    int64     `db:"file_size" json:"file_size"`
}
