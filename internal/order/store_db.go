package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 5 * time.Second
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *PostgresStore) GetCart(ctx context.Context, userID string) (Cart, error) {
	c := Cart{UserID: userID, Items: []Item{}}

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		err := s.db.QueryRowContext(ctx, `
			SELECT updated_at FROM carts WHERE user_id = $1
		`, userID).Scan(&c.UpdatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}

		rows, err := s.db.QueryContext(ctx, `
			SELECT product_id, qty
			FROM cart_items
			WHERE user_id = $1
			ORDER BY product_id ASC
		`, userID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var it Item
			if err := rows.Scan(&it.ProductID, &it.Qty); err != nil {
				return err
			}
			c.Items = append(c.Items, it)
		}
		return rows.Err()
	})

	if err != nil {
		return Cart{}, err
	}
	return c, nil
}

func (s *PostgresStore) PutCart(ctx context.Context, c Cart) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		_, err = tx.ExecContext(ctx, `
			INSERT INTO carts (user_id, updated_at)
			VALUES ($1, $2)
			ON CONFLICT (user_id) DO UPDATE SET updated_at = EXCLUDED.updated_at
		`, c.UserID, c.UpdatedAt)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, c.UserID); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO cart_items (user_id, product_id, qty)
			VALUES ($1, $2, $3)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, it := range c.Items {
			if _, err := stmt.ExecContext(ctx, c.UserID, it.ProductID, it.Qty); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
}

func (s *PostgresStore) ClearCart(ctx context.Context, userID string) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM carts WHERE user_id = $1`, userID); err != nil {
			return err
		}
		return tx.Commit()
	})
}

func (s *PostgresStore) CreateOrder(ctx context.Context, o Order) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		_, err = tx.ExecContext(ctx, `
			INSERT INTO orders (id, user_id, total_cents, status, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, o.ID, o.UserID, o.TotalCents, o.Status, o.CreatedAt)
		if err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO order_items (order_id, product_id, qty)
			VALUES ($1, $2, $3)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, it := range o.Items {
			if _, err := stmt.ExecContext(ctx, o.ID, it.ProductID, it.Qty); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
}

func (s *PostgresStore) GetOrder(ctx context.Context, id string) (Order, bool, error) {
	var o Order

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		err := s.db.QueryRowContext(ctx, `
			SELECT id, user_id, total_cents, status, created_at
			FROM orders
			WHERE id = $1
		`, id).Scan(&o.ID, &o.UserID, &o.TotalCents, &o.Status, &o.CreatedAt)
		if err != nil {
			return err
		}

		rows, err := s.db.QueryContext(ctx, `
			SELECT product_id, qty
			FROM order_items
			WHERE order_id = $1
			ORDER BY product_id ASC
		`, id)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var it Item
			if err := rows.Scan(&it.ProductID, &it.Qty); err != nil {
				return err
			}
			o.Items = append(o.Items, it)
		}
		return rows.Err()
	})

	if errors.Is(err, sql.ErrNoRows) {
		return Order{}, false, nil
	}
	if err != nil {
		return Order{}, false, err
	}
	return o, true, nil
}

func (s *PostgresStore) ListOrders(ctx context.Context, q ListQuery) ([]Order, int, error) {
	q = q.normalized()

	var (
		out   []Order
		total int
	)

	where := "WHERE 1=1"
	args := []any{}
	if q.UserID != "" {
		args = append(args, q.UserID)
		where += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if q.Status != "" {
		args = append(args, q.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	orderBy := map[string]string{
		SortNewest:    "created_at DESC, id ASC",
		SortOldest:    "created_at ASC, id ASC",
		SortTotalDesc: "total_cents DESC, id ASC",
		SortTotalAsc:  "total_cents ASC, id ASC",
	}[q.Sort]

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders `+where, args...).Scan(&total); err != nil {
			return err
		}

		limitArgs := append(args, q.PerPage, q.offset())
		rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
			SELECT id, user_id, total_cents, status, created_at
			FROM orders %s
			ORDER BY %s
			LIMIT $%d OFFSET $%d
		`, where, orderBy, len(args)+1, len(args)+2), limitArgs...)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]Order, 0, q.PerPage)
		for rows.Next() {
			var o Order
			if err := rows.Scan(&o.ID, &o.UserID, &o.TotalCents, &o.Status, &o.CreatedAt); err != nil {
				return err
			}
			out = append(out, o)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *PostgresStore) UpdateOrderStatus(ctx context.Context, id, status string) (bool, error) {
	var found bool

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, `
			UPDATE orders SET status = $2 WHERE id = $1
		`, id, status)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		found = n > 0
		return err
	})

	return found, err
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
