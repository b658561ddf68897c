package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// Store wraps the relational database connection shared by all repositories.
type Store struct {
	db     *sqlx.DB
	driver string
}

// NewStore opens the database for the given driver ("sqlite" or "mysql"),
// applies pool settings, and ensures the schema exists.
func NewStore(driver, dsn string) (*Store, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	switch driver {
	case "sqlite":
		// SQLite only supports 1 writer
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	default:
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	s := &Store{db: db, driver: driver}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// DB returns the underlying connection for transaction control.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Health verifies database connectivity.
func (s *Store) Health(ctx context.Context) error {
	var one int
	return s.db.GetContext(ctx, &one, "SELECT 1")
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	stmts := schemaSQLite
	if s.driver == "mysql" {
		stmts = schemaMySQL
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}

var schemaSQLite = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		is_admin BOOLEAN NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		last_login_at DATETIME,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS user_developer (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		developer_user_id INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		UNIQUE (user_id, developer_user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		token_hash TEXT NOT NULL UNIQUE,
		issued_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME,
		user_agent TEXT,
		ip_address TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS data_sync_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		uploaded_at DATETIME NOT NULL,
		type TEXT NOT NULL,
		filename TEXT NOT NULL,
		hash TEXT NOT NULL,
		record_count INTEGER NOT NULL,
		file_size INTEGER NOT NULL,
		content BLOB NOT NULL,
		user_id INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_dsr_hash ON data_sync_records(hash)`,
	`CREATE INDEX IF NOT EXISTS idx_dsr_user ON data_sync_records(user_id)`,
	`CREATE TABLE IF NOT EXISTS raw_product_list (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		developer_id INTEGER NOT NULL,
		sync_record_id INTEGER NOT NULL,
		snapshot_date DATE NOT NULL,
		product_id INTEGER NOT NULL,
		product_name TEXT NOT NULL,
		price TEXT NOT NULL,
		profit TEXT NOT NULL,
		visible TEXT NOT NULL,
		old_sales TEXT NOT NULL,
		new_sales TEXT NOT NULL,
		total_sales TEXT NOT NULL,
		derived_product_sales TEXT NOT NULL,
		direct_sales TEXT NOT NULL,
		indirect_sales TEXT NOT NULL,
		promoted_sales TEXT NOT NULL,
		cart_adds TEXT NOT NULL,
		wishlist_adds TEXT NOT NULL,
		organic_impressions TEXT NOT NULL,
		paid_impressions TEXT NOT NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_rpl_record ON raw_product_list(sync_record_id)`,
	`CREATE TABLE IF NOT EXISTS raw_income_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		developer_id INTEGER NOT NULL,
		sync_record_id INTEGER NOT NULL,
		snapshot_date DATE NOT NULL,
		sales_log_id INTEGER NOT NULL,
		buyer_id INTEGER NOT NULL,
		buyer_name TEXT NOT NULL,
		recipient_id INTEGER NOT NULL,
		recipient_name TEXT NOT NULL,
		reseller_id TEXT NOT NULL,
		reseller_name TEXT NOT NULL,
		product_id INTEGER NOT NULL,
		product_name TEXT NOT NULL,
		price_factor TEXT NOT NULL,
		paid_credits TEXT NOT NULL,
		paid_promo_credits TEXT NOT NULL,
		income_credits TEXT NOT NULL,
		income_promo_credits TEXT NOT NULL,
		purchase_date DATETIME NOT NULL,
		credit_delivery_date TEXT NOT NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ril_record ON raw_income_log(sync_record_id)`,
	`CREATE TABLE IF NOT EXISTS developer (
		developer_user_id INTEGER PRIMARY KEY,
		first_seen_at DATE NOT NULL,
		last_seen_at DATE NOT NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS imvu_user (
		user_id INTEGER PRIMARY KEY,
		user_name TEXT,
		first_seen_at DATETIME NOT NULL,
		last_seen_at DATETIME NOT NULL,
		developer_user_id INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_iu_dev ON imvu_user(developer_user_id)`,
	`CREATE TABLE IF NOT EXISTS product (
		product_id INTEGER PRIMARY KEY,
		developer_user_id INTEGER NOT NULL,
		product_name TEXT NOT NULL,
		price DECIMAL(10,2) NOT NULL,
		visible BOOLEAN NOT NULL,
		first_sold_at DATETIME,
		last_sold_at DATETIME,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_product_dev ON product(developer_user_id)`,
	`CREATE TABLE IF NOT EXISTS income_transaction (
		transaction_id INTEGER PRIMARY KEY,
		transaction_time DATETIME NOT NULL,
		product_id INTEGER NOT NULL,
		developer_user_id INTEGER NOT NULL,
		buyer_user_id INTEGER NOT NULL,
		recipient_user_id INTEGER NOT NULL,
		reseller_user_id INTEGER,
		paid_credits DECIMAL(18,6) NOT NULL,
		paid_promo_credits DECIMAL(18,6) NOT NULL,
		income_credits DECIMAL(18,6) NOT NULL,
		income_promo_credits DECIMAL(18,6) NOT NULL,
		paid_total_credits DECIMAL(18,6) NOT NULL,
		income_total_credits DECIMAL(18,6) NOT NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_it_dev ON income_transaction(developer_user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_it_buyer ON income_transaction(buyer_user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_it_recipient ON income_transaction(recipient_user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_it_product ON income_transaction(product_id)`,
}

var schemaMySQL = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(64) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		last_login_at DATETIME NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS user_developer (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT NOT NULL,
		developer_user_id BIGINT NOT NULL,
		created_at DATETIME NOT NULL,
		UNIQUE KEY uk_user_developer (user_id, developer_user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT NOT NULL,
		token_hash VARCHAR(255) NOT NULL UNIQUE,
		issued_at DATETIME NOT NULL,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		user_agent VARCHAR(255) NULL,
		ip_address VARCHAR(64) NULL
	)`,
	`CREATE TABLE IF NOT EXISTS data_sync_records (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		uploaded_at DATETIME NOT NULL,
		type VARCHAR(16) NOT NULL,
		filename VARCHAR(255) NOT NULL,
		hash VARCHAR(128) NOT NULL,
		record_count INT NOT NULL,
		file_size BIGINT NOT NULL,
		content LONGBLOB NOT NULL,
		user_id BIGINT NOT NULL,
		KEY idx_dsr_hash (hash),
		KEY idx_dsr_user (user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS raw_product_list (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		developer_id BIGINT NOT NULL,
		sync_record_id BIGINT NOT NULL,
		snapshot_date DATE NOT NULL,
		product_id BIGINT NOT NULL,
		product_name VARCHAR(255) NOT NULL,
		price VARCHAR(32) NOT NULL,
		profit VARCHAR(32) NOT NULL,
		visible VARCHAR(8) NOT NULL,
		old_sales VARCHAR(32) NOT NULL,
		new_sales VARCHAR(32) NOT NULL,
		total_sales VARCHAR(32) NOT NULL,
		derived_product_sales VARCHAR(32) NOT NULL,
		direct_sales VARCHAR(32) NOT NULL,
		indirect_sales VARCHAR(32) NOT NULL,
		promoted_sales VARCHAR(32) NOT NULL,
		cart_adds VARCHAR(32) NOT NULL,
		wishlist_adds VARCHAR(32) NOT NULL,
		organic_impressions VARCHAR(32) NOT NULL,
		paid_impressions VARCHAR(32) NOT NULL,
		created_at DATETIME NOT NULL,
		KEY idx_rpl_record (sync_record_id)
	)`,
	`CREATE TABLE IF NOT EXISTS raw_income_log (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		developer_id BIGINT NOT NULL,
		sync_record_id BIGINT NOT NULL,
		snapshot_date DATE NOT NULL,
		sales_log_id BIGINT NOT NULL,
		buyer_id BIGINT NOT NULL,
		buyer_name VARCHAR(255) NOT NULL,
		recipient_id BIGINT NOT NULL,
		recipient_name VARCHAR(255) NOT NULL,
		reseller_id VARCHAR(64) NOT NULL,
		reseller_name VARCHAR(255) NOT NULL,
		product_id BIGINT NOT NULL,
		product_name VARCHAR(255) NOT NULL,
		price_factor VARCHAR(32) NOT NULL,
		paid_credits VARCHAR(32) NOT NULL,
		paid_promo_credits VARCHAR(32) NOT NULL,
		income_credits VARCHAR(32) NOT NULL,
		income_promo_credits VARCHAR(32) NOT NULL,
		purchase_date DATETIME NOT NULL,
		credit_delivery_date VARCHAR(32) NOT NULL,
		created_at DATETIME NOT NULL,
		KEY idx_ril_record (sync_record_id)
	)`,
	`CREATE TABLE IF NOT EXISTS developer (
		developer_user_id BIGINT PRIMARY KEY,
		first_seen_at DATE NOT NULL,
		last_seen_at DATE NOT NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS imvu_user (
		user_id BIGINT PRIMARY KEY,
		user_name VARCHAR(255) NULL,
		first_seen_at DATETIME NOT NULL,
		last_seen_at DATETIME NOT NULL,
		developer_user_id BIGINT NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		KEY idx_iu_dev (developer_user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS product (
		product_id BIGINT PRIMARY KEY,
		developer_user_id BIGINT NOT NULL,
		product_name VARCHAR(255) NOT NULL,
		price DECIMAL(10,2) NOT NULL,
		visible BOOLEAN NOT NULL,
		first_sold_at DATETIME NULL,
		last_sold_at DATETIME NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		KEY idx_product_dev (developer_user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS income_transaction (
		transaction_id BIGINT PRIMARY KEY,
		transaction_time DATETIME NOT NULL,
		product_id BIGINT NOT NULL,
		developer_user_id BIGINT NOT NULL,
		buyer_user_id BIGINT NOT NULL,
		recipient_user_id BIGINT NOT NULL,
		reseller_user_id BIGINT NULL,
		paid_credits DECIMAL(18,6) NOT NULL,
		paid_promo_credits DECIMAL(18,6) NOT NULL,
		income_credits DECIMAL(18,6) NOT NULL,
		income_promo_credits DECIMAL(18,6) NOT NULL,
		paid_total_credits DECIMAL(18,6) NOT NULL,
		income_total_credits DECIMAL(18,6) NOT NULL,
		created_at DATETIME NOT NULL,
		KEY idx_it_dev (developer_user_id),
		KEY idx_it_buyer (buyer_user_id),
		KEY idx_it_recipient (recipient_user_id),
		KEY idx_it_product (product_id)
	)`,
}
