package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"agrimarket-be/internal/logger"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	CheckoutLines(ctx context.Context, vendorID uint) ([]CheckoutLine, error)
	OrdersByCheckoutKey(ctx context.Context, key uuid.UUID) ([]*Order, error)
	CreateOrdersTx(ctx context.Context, key uuid.UUID, vendorID uint, lines []CheckoutLine) ([]*Order, error)
	CreateReorderTx(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error)
	List(ctx context.Context, filter ListFilter) ([]*Detail, error)
	UpdateStatusGuarded(ctx context.Context, id uuid.UUID, from, to Status) error
	CancelTx(ctx context.Context, id uuid.UUID, from Status, actor CancelActor, productID uuid.UUID, quantity int) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const orderColumns = `id, vendor_id, supplier_id, product_id, quantity, total_amount, status, cancelled_by, checkout_key, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*Order, error) {
	var o Order
	var cancelledBy sql.NullString
	var checkoutKey *uuid.UUID
	err := row.Scan(
		&o.ID, &o.VendorID, &o.SupplierID, &o.ProductID, &o.Quantity,
		&o.TotalAmount, &o.Status, &cancelledBy, &checkoutKey,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if cancelledBy.Valid {
		actor := CancelActor(cancelledBy.String)
		o.CancelledBy = &actor
	}
	o.CheckoutKey = checkoutKey
	return &o, nil
}

// CheckoutLines loads the vendor's cart joined with current product price
// and stock, in cart insertion order so line indexes are stable.
func (r *repository) CheckoutLines(ctx context.Context, vendorID uint) ([]CheckoutLine, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.product_id, p.supplier_id, p.name, c.quantity, p.price, p.stock
		FROM cart c
		JOIN products p ON p.id = c.product_id
		WHERE c.vendor_id = $1
		ORDER BY c.created_at
	`, vendorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []CheckoutLine
	for rows.Next() {
		var l CheckoutLine
		if err := rows.Scan(&l.ProductID, &l.SupplierID, &l.ProductName, &l.Quantity, &l.Price, &l.Stock); err != nil {
			return nil, err
		}
		l.Index = len(lines)
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *repository) OrdersByCheckoutKey(ctx context.Context, key uuid.UUID) ([]*Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE checkout_key = $1 ORDER BY created_at`,
		key,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// CreateOrdersTx turns validated cart lines into PENDING orders in a single
// transaction: record the idempotency key, decrement stock with a guard,
// insert one order per line, clear the cart. Any failure rolls back all of it.
func (r *repository) CreateOrdersTx(ctx context.Context, key uuid.UUID, vendorID uint, lines []CheckoutLine) ([]*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CreateOrdersTx"),
		zap.String("checkout_key", key.String()),
		zap.Int("line_count", len(lines)),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", zap.Error(err))
		return nil, err
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("failed to rollback transaction", zap.Error(rbErr))
			}
		}
	}()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO checkouts (key, vendor_id) VALUES ($1, $2)`,
		key, vendorID,
	); err != nil {
		// A concurrent checkout with the same key won the primary-key race;
		// the caller re-reads the orders that attempt created.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			log.Info("checkout key already recorded by concurrent attempt")
			return nil, ErrDuplicateCheckout
		}
		log.Error("failed to record checkout key", zap.Error(err))
		return nil, err
	}

	orders := make([]*Order, 0, len(lines))
	for _, line := range lines {
		res, err := tx.ExecContext(ctx, `
			UPDATE products
			SET stock = stock - $1, updated_at = NOW()
			WHERE id = $2 AND stock >= $1
		`, line.Quantity, line.ProductID)
		if err != nil {
			return nil, err
		}
		affected, _ := res.RowsAffected()
		if affected == 0 {
			log.Warn("stock guard rejected line",
				zap.Int("index", line.Index),
				zap.String("product_id", line.ProductID.String()),
			)
			return nil, ErrInsufficientStock
		}

		o := &Order{
			ID:          uuid.New(),
			VendorID:    vendorID,
			SupplierID:  line.SupplierID,
			ProductID:   line.ProductID,
			Quantity:    line.Quantity,
			TotalAmount: line.Price * int64(line.Quantity),
			Status:      StatusPending,
			CheckoutKey: &key,
		}
		err = tx.QueryRowContext(ctx, `
			INSERT INTO orders (id, vendor_id, supplier_id, product_id, quantity, total_amount, status, checkout_key)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING created_at, updated_at
		`, o.ID, o.VendorID, o.SupplierID, o.ProductID, o.Quantity, o.TotalAmount, o.Status, key).
			Scan(&o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			log.Error("failed to insert order", zap.Int("index", line.Index), zap.Error(err))
			return nil, err
		}
		orders = append(orders, o)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM cart WHERE vendor_id = $1`, vendorID); err != nil {
		log.Error("failed to clear cart", zap.Error(err))
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit checkout transaction", zap.Error(err))
		return nil, err
	}
	committed = true

	log.Info("checkout transaction committed", zap.Int("orders", len(orders)))
	return orders, nil
}

// CreateReorderTx inserts a fresh PENDING order, decrementing stock with the
// same guard checkout uses.
func (r *repository) CreateReorderTx(ctx context.Context, o *Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - $1, updated_at = NOW()
		WHERE id = $2 AND stock >= $1
	`, o.Quantity, o.ProductID)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrInsufficientStock
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (id, vendor_id, supplier_id, product_id, quantity, total_amount, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, o.ID, o.VendorID, o.SupplierID, o.ProductID, o.Quantity, o.TotalAmount, o.Status).
		Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *repository) GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error) {
	var d Detail
	var cancelledBy sql.NullString
	var checkoutKey *uuid.UUID
	err := r.db.QueryRowContext(ctx, `
		SELECT o.id, o.vendor_id, o.supplier_id, o.product_id, o.quantity, o.total_amount,
		       o.status, o.cancelled_by, o.checkout_key, o.created_at, o.updated_at,
		       v.name, s.name, p.name, p.image_url
		FROM orders o
		JOIN users v ON v.id = o.vendor_id
		JOIN users s ON s.id = o.supplier_id
		JOIN products p ON p.id = o.product_id
		WHERE o.id = $1
	`, id).Scan(
		&d.ID, &d.VendorID, &d.SupplierID, &d.ProductID, &d.Quantity, &d.TotalAmount,
		&d.Status, &cancelledBy, &checkoutKey, &d.CreatedAt, &d.UpdatedAt,
		&d.VendorName, &d.SupplierName, &d.ProductName, &d.ProductImageURL,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	if cancelledBy.Valid {
		actor := CancelActor(cancelledBy.String)
		d.CancelledBy = &actor
	}
	d.CheckoutKey = checkoutKey
	return &d, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]*Detail, error) {
	finalLimit := int32(20)
	finalPage := int32(1)

	if filter.Limit > 0 {
		finalLimit = filter.Limit
	}
	if filter.Page > 0 {
		finalPage = filter.Page
	}
	if finalLimit > 100 {
		finalLimit = 100
	}
	offset := (finalPage - 1) * finalLimit

	log := logger.FromCtx(ctx).With(
		zap.String("method", "List"),
		zap.Int32("limit", finalLimit),
		zap.Int32("page", finalPage),
	)

	query := `
		SELECT o.id, o.vendor_id, o.supplier_id, o.product_id, o.quantity, o.total_amount,
		       o.status, o.cancelled_by, o.checkout_key, o.created_at, o.updated_at,
		       v.name, s.name, p.name, p.image_url
		FROM orders o
		JOIN users v ON v.id = o.vendor_id
		JOIN users s ON s.id = o.supplier_id
		JOIN products p ON p.id = o.product_id
		WHERE 1=1
	`
	args := []any{}
	argIndex := 1

	if filter.VendorID != nil {
		query += fmt.Sprintf(" AND o.vendor_id = $%d", argIndex)
		args = append(args, *filter.VendorID)
		argIndex++
	}
	if filter.SupplierID != nil {
		query += fmt.Sprintf(" AND o.supplier_id = $%d", argIndex)
		args = append(args, *filter.SupplierID)
		argIndex++
	}
	if filter.Status != nil && *filter.Status != "" {
		query += fmt.Sprintf(" AND o.status = $%d", argIndex)
		args = append(args, *filter.Status)
		argIndex++
	}

	query += " ORDER BY o.created_at DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, finalLimit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var details []*Detail
	for rows.Next() {
		var d Detail
		var cancelledBy sql.NullString
		var checkoutKey *uuid.UUID
		if err := rows.Scan(
			&d.ID, &d.VendorID, &d.SupplierID, &d.ProductID, &d.Quantity, &d.TotalAmount,
			&d.Status, &cancelledBy, &checkoutKey, &d.CreatedAt, &d.UpdatedAt,
			&d.VendorName, &d.SupplierName, &d.ProductName, &d.ProductImageURL,
		); err != nil {
			log.Error("failed to scan order row", zap.Error(err))
			return nil, err
		}
		if cancelledBy.Valid {
			actor := CancelActor(cancelledBy.String)
			d.CancelledBy = &actor
		}
		d.CheckoutKey = checkoutKey
		details = append(details, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	log.Debug("orders listed", zap.Int("count", len(details)))
	return details, nil
}

// UpdateStatusGuarded moves an order from one exact status to another. The
// guard makes a stale transition affect zero rows, which is rejected; a
// failed transition therefore leaves the order untouched.
func (r *repository) UpdateStatusGuarded(ctx context.Context, id uuid.UUID, from, to Status) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`, to, id, from)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrInvalidTransition
	}
	return nil
}

// CancelTx sets CANCELLED with its actor and returns the reserved quantity
// to stock, atomically.
func (r *repository) CancelTx(ctx context.Context, id uuid.UUID, from Status, actor CancelActor, productID uuid.UUID, quantity int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, cancelled_by = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4
	`, StatusCancelled, actor, id, from)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrInvalidTransition
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE products SET stock = stock + $1, updated_at = NOW() WHERE id = $2
	`, quantity, productID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
