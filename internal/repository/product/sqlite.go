package product

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/kailas-cloud/prodsearch/internal/domain"
	domprod "github.com/kailas-cloud/prodsearch/internal/domain/product"
	"github.com/kailas-cloud/prodsearch/internal/domain/search/filter"
)

// The products_vectors layout matches catalogs produced by the embedding script:
// vectors are JSON arrays of floats.
const schema = `
CREATE TABLE IF NOT EXISTS products_vectors (
	product_id     TEXT PRIMARY KEY,
	product_name   TEXT NOT NULL,
	category       TEXT NOT NULL,
	price          REAL NOT NULL,
	rating         REAL NOT NULL,
	specifications TEXT NOT NULL DEFAULT '',
	vector         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_products_vectors_category ON products_vectors(category);
CREATE INDEX IF NOT EXISTS idx_products_vectors_price ON products_vectors(price);
`

const selectColumns = `SELECT product_id, product_name, category, price, rating, specifications, vector
FROM products_vectors`

// SQLiteRepo stores products in a single SQLite table.
type SQLiteRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

// OpenSQLite opens (or creates) the catalog database at path.
func OpenSQLite(ctx context.Context, path string, logger *zap.Logger) (*SQLiteRepo, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// modernc sqlite serializes writers; one connection avoids SQLITE_BUSY.
	conn.SetMaxOpenConns(1)

	if _, err := conn.ExecContext(ctx, schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteRepo{db: conn, logger: logger}, nil
}

// Ping checks the database connection.
func (r *SQLiteRepo) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sqlite: %w", err)
	}
	return nil
}

// Close closes the database.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// UpsertMany inserts or replaces products in a single transaction.
func (r *SQLiteRepo) UpsertMany(ctx context.Context, products []domprod.Product) (int, error) {
	if len(products) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO products_vectors (product_id, product_name, category, price, rating, specifications, vector)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(product_id) DO UPDATE SET
	product_name = excluded.product_name,
	category = excluded.category,
	price = excluded.price,
	rating = excluded.rating,
	specifications = excluded.specifications,
	vector = excluded.vector`)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range products {
		p := &products[i]
		vec, err := json.Marshal(p.Embedding())
		if err != nil {
			return 0, fmt.Errorf("marshal vector of %s: %w", p.ID(), err)
		}
		if _, err := stmt.ExecContext(ctx,
			p.ID(), p.Name(), p.Category(), p.Price(), p.Rating(), p.Specifications(), string(vec),
		); err != nil {
			return 0, fmt.Errorf("upsert %s: %w", p.ID(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(products), nil
}

// Get returns a product by ID.
func (r *SQLiteRepo) Get(ctx context.Context, id string) (domprod.Product, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` WHERE product_id = ?`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domprod.Product{}, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domprod.Product{}, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, nil
}

// Delete removes a product.
func (r *SQLiteRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products_vectors WHERE product_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Count returns the number of stored products.
func (r *SQLiteRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products_vectors`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

// Candidates returns products in the price range and category, in insertion order.
// Rows with a NULL or empty vector are skipped. A row that cannot be decoded fails
// the call with domain.ErrCorruptRecord.
func (r *SQLiteRepo) Candidates(ctx context.Context, c filter.Criteria) ([]domprod.Product, error) {
	q := selectColumns + ` WHERE price BETWEEN ? AND ?`
	args := []any{c.Price().Min(), c.Price().Max()}
	if !c.AnyCategory() {
		q += ` AND category = ?`
		args = append(args, c.Category())
	}
	q += ` ORDER BY rowid`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []domprod.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrCorruptRecord, err)
		}
		if p.Dimensions() == 0 {
			r.logger.Warn("Skipping product without vector", zap.String("product_id", p.ID()))
			continue
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(s scanner) (domprod.Product, error) {
	var (
		id, name, category, specs string
		price, rating             float64
		rawVec                    sql.NullString
	)
	if err := s.Scan(&id, &name, &category, &price, &rating, &specs, &rawVec); err != nil {
		return domprod.Product{}, err
	}
	var vec []float32
	if rawVec.String != "" {
		if err := json.Unmarshal([]byte(rawVec.String), &vec); err != nil {
			return domprod.Product{}, fmt.Errorf("decode vector of %s: %w", id, err)
		}
	}
	return domprod.Reconstruct(id, name, category, price, rating, specs, vec), nil
}
