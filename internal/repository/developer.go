package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"imvu-insight-api/internal/model"
)

// DevelopersByIDs loads developers for the observed id set in one query.
func (s *Store) DevelopersByIDs(ctx context.Context, q sqlx.ExtContext, ids []int64) (map[int64]*model.Developer, error) {
	out := make(map[int64]*model.Developer, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In("SELECT * FROM developer WHERE developer_user_id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	var devs []model.Developer
	if err := sqlx.SelectContext(ctx, q, &devs, q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to load developers: %w", err)
	}
	for i := range devs {
		out[devs[i].DeveloperUserID] = &devs[i]
	}
	return out, nil
}

// InsertDevelopers bulk-inserts new developer rows.
func (s *Store) InsertDevelopers(ctx context.Context, q sqlx.ExtContext, devs []model.Developer) error {
	if len(devs) == 0 {
		return nil
	}
	_, err := sqlx.NamedExecContext(ctx, q, `
		INSERT INTO developer (developer_user_id, first_seen_at, last_seen_at, created_at)
		VALUES (:developer_user_id, :first_seen_at, :last_seen_at, :created_at)`,
		devs)
	if err != nil {
		return fmt.Errorf("failed to insert developers: %w", err)
	}
	return nil
}

// UpdateDeveloperSeen writes advanced snapshot watermarks for a developer.
func (s *Store) UpdateDeveloperSeen(ctx context.Context, q sqlx.ExtContext, dev *model.Developer) error {
	_, err := q.ExecContext(ctx, `
		UPDATE developer SET first_seen_at = ?, last_seen_at = ?
		WHERE developer_user_id = ?`,
		dev.FirstSeenAt, dev.LastSeenAt, dev.DeveloperUserID)
	if err != nil {
		return fmt.Errorf("failed to update developer watermarks: %w", err)
	}
	return nil
}
