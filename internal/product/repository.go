package product

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository handles all product database operations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a product and returns the stored record.
func (r *Repository) Create(ctx context.Context, ownerID string, in CreateInput) (*Product, error) {
	p := &Product{}
	err := r.db.QueryRow(ctx,
		`INSERT INTO products (owner_id, name, description, images)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, owner_id, name, description, images, created_at`,
		ownerID, in.Name, in.Description, in.Images,
	).Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.Images, &p.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, ErrOwnerNotFound
		}
		return nil, fmt.Errorf("insert product: %w", err)
	}
	return p, nil
}

// List returns up to limit products of ownerID, newest first, strictly after
// the given cursor when one is supplied.
func (r *Repository) List(ctx context.Context, ownerID string, after *Cursor, limit int) ([]Product, error) {
	var (
		afterTime *time.Time
		afterID   *string
	)
	if after != nil {
		afterTime, afterID = &after.CreatedAt, &after.ID
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, owner_id, name, description, images, created_at
		 FROM products
		 WHERE owner_id = $1
		   AND ($2::timestamptz IS NULL OR (created_at, id) < ($2::timestamptz, $3::uuid))
		 ORDER BY created_at DESC, id DESC
		 LIMIT $4`,
		ownerID, afterTime, afterID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.Images, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return out, nil
}

// CountByOwner returns the number of products owned by ownerID.
func (r *Repository) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM products WHERE owner_id = $1`,
		ownerID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

// isForeignKeyViolation checks whether an error is a PostgreSQL foreign_key_violation (code 23503).
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
