package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/stockroom/internal/platform/db"
)

// Repository persists products in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ Store = (*Repository)(nil)

// Create inserts p under a freshly generated UUID.
func (r *Repository) Create(ctx context.Context, p Product) (Product, error) {
	p.ID = uuid.NewString()
	_, err := r.pool.Exec(ctx, insertProduct,
		p.ID, p.Code, p.Name, p.Description, p.ImageURL, p.Quantity,
		p.SalesPrice.String(), p.TotalValue.String(),
		p.StockInUnits, p.StockInValue.String(), p.StockOutUnits, p.StockOutValue.String(),
		string(p.LastMovementKind), p.LastMovementAmount, nullTime(p.CreatedAt), nullTime(p.UpdatedAt),
	)
	if err != nil {
		return Product{}, fmt.Errorf("insert product: %w", err)
	}
	return p, nil
}

// List returns every product in insertion order.
func (r *Repository) List(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx, listProducts)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// Get loads one product or returns ErrNotFound.
func (r *Repository) Get(ctx context.Context, id string) (Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Product{}, ErrNotFound
	}
	p, err := scanProduct(r.pool.QueryRow(ctx, getProduct, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

// Update locks the product row, applies fn and writes the result in the same
// transaction. A concurrent Update on the same row waits for the lock and then
// sees the committed state.
func (r *Repository) Update(ctx context.Context, id string, fn UpdateFunc) (Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Product{}, ErrNotFound
	}
	var saved Product
	err := db.RunInTx(ctx, r.pool, db.ReadCommitted, func(tx pgx.Tx) error {
		current, err := scanProduct(tx.QueryRow(ctx, getProductForUpdate, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		next, err := fn(current)
		if err != nil {
			return err
		}
		next.ID = current.ID
		next.CreatedAt = current.CreatedAt
		if _, err := tx.Exec(ctx, updateProduct,
			next.ID, next.Code, next.Name, next.Description, next.ImageURL, next.Quantity,
			next.SalesPrice.String(), next.TotalValue.String(),
			next.StockInUnits, next.StockInValue.String(), next.StockOutUnits, next.StockOutValue.String(),
			string(next.LastMovementKind), next.LastMovementAmount, nullTime(next.UpdatedAt),
		); err != nil {
			return fmt.Errorf("update product: %w", err)
		}
		saved = next
		return nil
	})
	if err != nil {
		return Product{}, err
	}
	return saved, nil
}

// Delete removes the product or returns ErrNotFound.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	tag, err := r.pool.Exec(ctx, deleteProduct, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var (
		p                                     Product
		price, total, inValue, outValue, kind string
		createdAt, updatedAt                  *time.Time
	)
	err := row.Scan(
		&p.ID, &p.Code, &p.Name, &p.Description, &p.ImageURL, &p.Quantity,
		&price, &total,
		&p.StockInUnits, &inValue, &p.StockOutUnits, &outValue,
		&kind, &p.LastMovementAmount, &createdAt, &updatedAt,
	)
	if err != nil {
		return Product{}, err
	}
	if p.SalesPrice, err = parseDecimal(price); err != nil {
		return Product{}, err
	}
	if p.TotalValue, err = parseDecimal(total); err != nil {
		return Product{}, err
	}
	if p.StockInValue, err = parseDecimal(inValue); err != nil {
		return Product{}, err
	}
	if p.StockOutValue, err = parseDecimal(outValue); err != nil {
		return Product{}, err
	}
	p.LastMovementKind = MovementKind(kind)
	if createdAt != nil {
		p.CreatedAt = createdAt.UTC()
	}
	if updatedAt != nil {
		p.UpdatedAt = updatedAt.UTC()
	}
	return p, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse numeric %q: %w", s, err)
	}
	return d, nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
