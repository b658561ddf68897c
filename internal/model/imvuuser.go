package model

import "time"

// ImvuUser is any marketplace user id observed in snapshot data as buyer,
// recipient, reseller, or developer. UserName is best-effort and only
// refreshed by observations at or after the current LastSeenAt.
type ImvuUser struct {
	UserID          int64     `db:"user_id" json:"user_id"`
	UserName        *string   `db:"user_name" json:"user_name"`
	FirstSeenAt     time.Time `db:"first_seen_at" json:"first_seen_at"`
	LastSeenAt      time.Time `db:"last_seen_at" json:"last_seen_at"`
	DeveloperUserID int64     `db:"developer_user_id" json:"developer_user_id"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
