package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"imvu-insight-api/internal/model"
)

// ImvuUsersByIDs loads actor rows for the observed id set in one query.
func (s *Store) ImvuUsersByIDs(ctx context.Context, q sqlx.ExtContext, ids []int64) (map[int64]*model.ImvuUser, error) {
	out := make(map[int64]*model.ImvuUser, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In("SELECT * FROM imvu_user WHERE user_id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	var users []model.ImvuUser
	if err := sqlx.SelectContext(ctx, q, &users, q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to load imvu users: %w", err)
	}
	for i := range users {
		out[users[i].UserID] = &users[i]
	}
	return out, nil
}

// InsertImvuUsers bulk-inserts new actor rows.
func (s *Store) InsertImvuUsers(ctx context.Context, q sqlx.ExtContext, users []model.ImvuUser) error {
	if len(users) == 0 {
		return nil
	}
	_, err := sqlx.NamedExecContext(ctx, q, `
		INSERT INTO imvu_user (user_id, user_name, first_seen_at, last_seen_at, developer_user_id, created_at)
		VALUES (:user_id, :user_name, :first_seen_at, :last_seen_at, :developer_user_id, :created_at)`,
		users)
	if err != nil {
		return fmt.Errorf("failed to insert imvu users: %w", err)
	}
	return nil
}

// UpdateImvuUser writes the mutable actor fields.
func (s *Store) UpdateImvuUser(ctx context.Context, q sqlx.ExtContext, u *model.ImvuUser) error {
	_, err := q.ExecContext(ctx, `
		UPDATE imvu_user
		SET user_name = ?, first_seen_at = ?, last_seen_at = ?, developer_user_id = ?
		WHERE user_id = ?`,
		u.UserName, u.FirstSeenAt, u.LastSeenAt, u.DeveloperUserID, u.UserID)
	if err != nil {
		return fmt.Errorf("failed to update imvu user: %w", err)
	}
	return nil
}

// ListImvuUsers returns one page of actors restricted to the caller's
// developer ids. orderBy must already be compiled from the sort allow-list.
func (s *Store) ListImvuUsers(ctx context.Context, devIDs []int64, page, pageSize int, orderBy, keyword string) ([]model.ImvuUser, int64, error) {
	if len(devIDs) == 0 {
		return []model.ImvuUser{}, 0, nil
	}

	where := "WHERE developer_user_id IN (?)"
	args := []interface{}{devIDs}
	if keyword != "" {
		where += " AND (user_name LIKE ? OR CAST(user_id AS CHAR) LIKE ?)"
		kw := "%" + keyword + "%"
		args = append(args, kw, kw)
	}

	countQ, countArgs, err := sqlx.In("SELECT COUNT(*) FROM imvu_user "+where, args...)
	if err != nil {
		return nil, 0, err
	}
	var total int64
	if err := s.db.GetContext(ctx, &total, s.db.Rebind(countQ), countArgs...); err != nil {
		return nil, 0, fmt.Errorf("failed to count imvu users: %w", err)
	}

	offset := (page - 1) * pageSize
	listQ, listArgs, err := sqlx.In(
		"SELECT * FROM imvu_user "+where+" ORDER BY "+orderBy+" LIMIT ? OFFSET ?",
		append(args, pageSize, offset)...)
	if err != nil {
		return nil, 0, err
	}
	items := []model.ImvuUser{}
	if err := s.db.SelectContext(ctx, &items, s.db.Rebind(listQ), listArgs...); err != nil {
		return nil, 0, fmt.Errorf("failed to list imvu users: %w", err)
	}
	return items, total, nil
}
