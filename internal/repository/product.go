package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"imvu-insight-api/internal/model"
)

// ProductsByIDs loads products for the observed id set in one batched query,
// never per-row lookups.
func (s *Store) ProductsByIDs(ctx context.Context, q sqlx.ExtContext, ids []int64) (map[int64]*model.Product, error) {
	out := make(map[int64]*model.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In("SELECT * FROM product WHERE product_id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	var products []model.Product
	if err := sqlx.SelectContext(ctx, q, &products, q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	for i := range products {
		out[products[i].ProductID] = &products[i]
	}
	return out, nil
}

// InsertProducts bulk-inserts new product rows.
func (s *Store) InsertProducts(ctx context.Context, q sqlx.ExtContext, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}
	_, err := sqlx.NamedExecContext(ctx, q, `
		INSERT INTO product
			(product_id, developer_user_id, product_name, price, visible,
			 first_sold_at, last_sold_at, created_at, updated_at)
		VALUES
			(:product_id, :developer_user_id, :product_name, :price, :visible,
			 :first_sold_at, :last_sold_at, :created_at, :updated_at)`,
		products)
	if err != nil {
		return fmt.Errorf("failed to insert products: %w", err)
	}
	return nil
}

// UpdateProduct writes the mutable product fields.
func (s *Store) UpdateProduct(ctx context.Context, q sqlx.ExtContext, p *model.Product) error {
	_, err := q.ExecContext(ctx, `
		UPDATE product
		SET developer_user_id = ?, product_name = ?, price = ?, visible = ?,
		    first_sold_at = ?, last_sold_at = ?, updated_at = ?
		WHERE product_id = ?`,
		p.DeveloperUserID, p.ProductName, p.Price, p.Visible,
		p.FirstSoldAt, p.LastSoldAt, p.UpdatedAt, p.ProductID)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

// ListProducts returns one page of products restricted to the caller's
// developer ids. orderBy must already be compiled from the sort allow-list.
func (s *Store) ListProducts(ctx context.Context, devIDs []int64, page, pageSize int, orderBy, keyword string) ([]model.Product, int64, error) {
	if len(devIDs) == 0 {
		return []model.Product{}, 0, nil
	}

	where := "WHERE developer_user_id IN (?)"
	args := []interface{}{devIDs}
	if keyword != "" {
		where += " AND (product_name LIKE ? OR CAST(product_id AS CHAR) LIKE ?)"
		kw := "%" + keyword + "%"
		args = append(args, kw, kw)
	}

	countQ, countArgs, err := sqlx.In("SELECT COUNT(*) FROM product "+where, args...)
	if err != nil {
		return nil, 0, err
	}
	var total int64
	if err := s.db.GetContext(ctx, &total, s.db.Rebind(countQ), countArgs...); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	offset := (page - 1) * pageSize
	listQ, listArgs, err := sqlx.In(
		"SELECT * FROM product "+where+" ORDER BY "+orderBy+" LIMIT ? OFFSET ?",
		append(args, pageSize, offset)...)
	if err != nil {
		return nil, 0, err
	}
	items := []model.Product{}
	if err := s.db.SelectContext(ctx, &items, s.db.Rebind(listQ), listArgs...); err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return items, total, nil
}
