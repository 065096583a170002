package cart

import (
	"context"
	"database/sql"

	"agrimarket-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Repository interface {
	Upsert(ctx context.Context, vendorID uint, productID uuid.UUID, quantity int) (*Line, error)
	SetQuantity(ctx context.Context, vendorID uint, productID uuid.UUID, quantity int) error
	Remove(ctx context.Context, vendorID uint, productID uuid.UUID) error
	Clear(ctx context.Context, vendorID uint) error
	ListByVendor(ctx context.Context, vendorID uint) ([]*Row, error)
	GetLine(ctx context.Context, vendorID uint, productID uuid.UUID) (*Line, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// Upsert merges quantity into an existing line via the (vendor_id, product_id)
// unique constraint, so concurrent adds cannot race a read-then-write.
func (r *repository) Upsert(ctx context.Context, vendorID uint, productID uuid.UUID, quantity int) (*Line, error) {
	var l Line
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO cart (id, vendor_id, product_id, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (vendor_id, product_id)
		DO UPDATE SET quantity = cart.quantity + EXCLUDED.quantity, updated_at = NOW()
		RETURNING id, vendor_id, product_id, quantity, created_at, updated_at
	`, uuid.New(), vendorID, productID, quantity).
		Scan(&l.ID, &l.VendorID, &l.ProductID, &l.Quantity, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to upsert cart line",
			zap.Uint("vendor_id", vendorID),
			zap.Error(err),
		)
		return nil, err
	}
	return &l, nil
}

func (r *repository) SetQuantity(ctx context.Context, vendorID uint, productID uuid.UUID, quantity int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE cart SET quantity = $1, updated_at = NOW()
		WHERE vendor_id = $2 AND product_id = $3
	`, quantity, vendorID, productID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrLineNotFound
	}
	return nil
}

func (r *repository) Remove(ctx context.Context, vendorID uint, productID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM cart WHERE vendor_id = $1 AND product_id = $2`,
		vendorID, productID,
	)
	return err
}

func (r *repository) Clear(ctx context.Context, vendorID uint) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart WHERE vendor_id = $1`, vendorID)
	return err
}

func (r *repository) ListByVendor(ctx context.Context, vendorID uint) ([]*Row, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.vendor_id, c.product_id, c.quantity, c.created_at, c.updated_at,
		       p.name, p.category, p.price, p.stock, p.supplier_id, p.image_url
		FROM cart c
		JOIN products p ON p.id = c.product_id
		WHERE c.vendor_id = $1
		ORDER BY c.created_at
	`, vendorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Row
	for rows.Next() {
		var row Row
		if err := rows.Scan(
			&row.ID, &row.VendorID, &row.ProductID, &row.Quantity, &row.CreatedAt, &row.UpdatedAt,
			&row.ProductName, &row.Category, &row.Price, &row.Stock, &row.SupplierID, &row.ImageURL,
		); err != nil {
			return nil, err
		}
		out = append(out, &row)
	}
	return out, rows.Err()
}

func (r *repository) GetLine(ctx context.Context, vendorID uint, productID uuid.UUID) (*Line, error) {
	var l Line
	err := r.db.QueryRowContext(ctx, `
		SELECT id, vendor_id, product_id, quantity, created_at, updated_at
		FROM cart
		WHERE vendor_id = $1 AND product_id = $2
	`, vendorID, productID).
		Scan(&l.ID, &l.VendorID, &l.ProductID, &l.Quantity, &l.CreatedAt, &l.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}
