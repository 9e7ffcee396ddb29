package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
	pgUniqueCode = "23505"
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

func (s *PostgresStore) ListProducts(ctx context.Context) ([]Product, error) {
	var out []Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT p.id, p.name, p.price_cents, p.quantity, b.id, b.name
			FROM products p
			JOIN brands b ON b.id = p.brand_id
			ORDER BY p.id ASC
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]Product, 0, 64)
		for rows.Next() {
			var p Product
			if err := rows.Scan(&p.ID, &p.Name, &p.PriceCents, &p.Quantity, &p.Brand.ID, &p.Brand.Name); err != nil {
				return err
			}
			out = append(out, p)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		return s.attachImages(ctx, out)
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) attachImages(ctx context.Context, products []Product) error {
	if len(products) == 0 {
		return nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, url
		FROM product_images
		ORDER BY product_id ASC, position ASC
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	byID := make(map[string][]string)
	for rows.Next() {
		var pid, url string
		if err := rows.Scan(&pid, &url); err != nil {
			return err
		}
		byID[pid] = append(byID[pid], url)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range products {
		products[i].ImageURLs = byID[products[i].ID]
	}
	return nil
}

func (s *PostgresStore) GetProduct(ctx context.Context, id string) (Product, bool, error) {
	var p Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		err := s.db.QueryRowContext(ctx, `
			SELECT p.id, p.name, p.price_cents, p.quantity, b.id, b.name
			FROM products p
			JOIN brands b ON b.id = p.brand_id
			WHERE p.id = $1
		`, id).Scan(&p.ID, &p.Name, &p.PriceCents, &p.Quantity, &p.Brand.ID, &p.Brand.Name)
		if err != nil {
			return err
		}

		rows, err := s.db.QueryContext(ctx, `
			SELECT url FROM product_images
			WHERE product_id = $1
			ORDER BY position ASC
		`, id)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var url string
			if err := rows.Scan(&url); err != nil {
				return err
			}
			p.ImageURLs = append(p.ImageURLs, url)
		}
		return rows.Err()
	})

	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, false, nil
	}
	if err != nil {
		return Product{}, false, err
	}
	return p, true, nil
}

func (s *PostgresStore) CreateProduct(ctx context.Context, p Product) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		_, err = tx.ExecContext(ctx, `
			INSERT INTO brands (id, name)
			VALUES ($1, $2)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
		`, p.Brand.ID, p.Brand.Name)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO products (id, name, brand_id, price_cents, quantity)
			VALUES ($1, $2, $3, $4, $5)
		`, p.ID, p.Name, p.Brand.ID, p.PriceCents, p.Quantity)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrExists
			}
			return err
		}

		if err := insertImages(ctx, tx, p.ID, p.ImageURLs); err != nil {
			return err
		}
		return tx.Commit()
	})
}

func (s *PostgresStore) UpdateProduct(ctx context.Context, p Product) (bool, error) {
	var found bool

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		_, err = tx.ExecContext(ctx, `
			INSERT INTO brands (id, name)
			VALUES ($1, $2)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
		`, p.Brand.ID, p.Brand.Name)
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE products
			SET name = $2, brand_id = $3, price_cents = $4, quantity = $5
			WHERE id = $1
		`, p.ID, p.Name, p.Brand.ID, p.PriceCents, p.Quantity)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		found = true

		if _, err := tx.ExecContext(ctx, `DELETE FROM product_images WHERE product_id = $1`, p.ID); err != nil {
			return err
		}
		if err := insertImages(ctx, tx, p.ID, p.ImageURLs); err != nil {
			return err
		}
		return tx.Commit()
	})

	return found, err
}

func (s *PostgresStore) DeleteProduct(ctx context.Context, id string) (bool, error) {
	var found bool

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		found = n > 0
		return err
	})

	return found, err
}

func insertImages(ctx context.Context, tx *sql.Tx, productID string, urls []string) error {
	if len(urls) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO product_images (product_id, url, position)
		VALUES ($1, $2, $3)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, url := range urls {
		if _, err := stmt.ExecContext(ctx, productID, url, i); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) ListBrands(ctx context.Context) ([]Brand, error) {
	var out []Brand

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, name FROM brands ORDER BY name ASC
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]Brand, 0, 16)
		for rows.Next() {
			var b Brand
			if err := rows.Scan(&b.ID, &b.Name); err != nil {
				return err
			}
			out = append(out, b)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) GetBrand(ctx context.Context, id string) (Brand, bool, error) {
	var b Brand

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			SELECT id, name FROM brands WHERE id = $1
		`, id).Scan(&b.ID, &b.Name)
	})

	if errors.Is(err, sql.ErrNoRows) {
		return Brand{}, false, nil
	}
	if err != nil {
		return Brand{}, false, err
	}
	return b, true, nil
}

func (s *PostgresStore) ListQuestions(ctx context.Context, params ListParams) ([]QuizQuestion, int, error) {
	params = params.normalized()

	var (
		out   []QuizQuestion
		total int
	)

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM quiz_questions`).Scan(&total); err != nil {
			return err
		}

		rows, err := s.db.QueryContext(ctx, `
			SELECT id, prompt, position
			FROM quiz_questions
			ORDER BY position ASC, id ASC
			LIMIT $1 OFFSET $2
		`, params.PerPage, params.offset())
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]QuizQuestion, 0, params.PerPage)
		for rows.Next() {
			var q QuizQuestion
			if err := rows.Scan(&q.ID, &q.Prompt, &q.Position); err != nil {
				return err
			}
			out = append(out, q)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		for i := range out {
			if err := s.loadOptions(ctx, &out[i]); err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *PostgresStore) loadOptions(ctx context.Context, q *QuizQuestion) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT label, skin_type_id
		FROM quiz_options
		WHERE question_id = $1
		ORDER BY position ASC
	`, q.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var o QuizOption
		if err := rows.Scan(&o.Label, &o.SkinTypeID); err != nil {
			return err
		}
		q.Options = append(q.Options, o)
	}
	return rows.Err()
}

func (s *PostgresStore) CreateQuestion(ctx context.Context, q QuizQuestion) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		_, err = tx.ExecContext(ctx, `
			INSERT INTO quiz_questions (id, prompt, position)
			VALUES ($1, $2, $3)
		`, q.ID, q.Prompt, q.Position)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrExists
			}
			return err
		}

		if err := insertOptions(ctx, tx, q); err != nil {
			return err
		}
		return tx.Commit()
	})
}

func (s *PostgresStore) UpdateQuestion(ctx context.Context, q QuizQuestion) (bool, error) {
	var found bool

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		res, err := tx.ExecContext(ctx, `
			UPDATE quiz_questions SET prompt = $2, position = $3 WHERE id = $1
		`, q.ID, q.Prompt, q.Position)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		found = true

		if _, err := tx.ExecContext(ctx, `DELETE FROM quiz_options WHERE question_id = $1`, q.ID); err != nil {
			return err
		}
		if err := insertOptions(ctx, tx, q); err != nil {
			return err
		}
		return tx.Commit()
	})

	return found, err
}

func (s *PostgresStore) DeleteQuestion(ctx context.Context, id string) (bool, error) {
	var found bool

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM quiz_questions WHERE id = $1`, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		found = n > 0
		return err
	})

	return found, err
}

func insertOptions(ctx context.Context, tx *sql.Tx, q QuizQuestion) error {
	if len(q.Options) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO quiz_options (question_id, label, skin_type_id, position)
		VALUES ($1, $2, $3, $4)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, o := range q.Options {
		if _, err := stmt.ExecContext(ctx, q.ID, o.Label, o.SkinTypeID, i); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) ListSkinTypes(ctx context.Context) ([]SkinType, error) {
	var out []SkinType

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, name, COALESCE(description, '')
			FROM skin_types
			ORDER BY id ASC
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]SkinType, 0, 8)
		for rows.Next() {
			var st SkinType
			if err := rows.Scan(&st.ID, &st.Name, &st.Description); err != nil {
				return err
			}
			out = append(out, st)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) CreateSkinType(ctx context.Context, st SkinType) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO skin_types (id, name, description)
			VALUES ($1, $2, NULLIF($3, ''))
		`, st.ID, st.Name, st.Description)

		if isUniqueViolation(err) {
			return ErrExists
		}
		return err
	})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueCode
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
