package model

import "time"

// Developer is a marketplace account seen in uploaded snapshots.
// FirstSeenAt/LastSeenAt are day-granularity snapshot watermarks.
type Developer struct {
	DeveloperUserID int64     `db:"developer_user_id" json:"developer_user_id"`
	FirstSeenAt     time.Time `db:"first_seen_at" json:"first_seen_at"`
	LastSeenAt      time.Time `db:"last_seen_at" json:"last_seen_at"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
