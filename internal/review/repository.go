package review

import (
	"context"
	"database/sql"
	"errors"

	"agrimarket-be/internal/order"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// OrderFacts is the slice of an order row the eligibility gate needs.
type OrderFacts struct {
	VendorID   uint
	SupplierID uint
	ProductID  uuid.UUID
	Status     order.Status
}

type Repository interface {
	OrderFacts(ctx context.Context, orderID uuid.UUID) (*OrderFacts, error)
	HasReviewForOrder(ctx context.Context, orderID uuid.UUID) (bool, error)
	Create(ctx context.Context, rev *Review) error
	ListForProduct(ctx context.Context, productID uuid.UUID) ([]*ProductReview, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) OrderFacts(ctx context.Context, orderID uuid.UUID) (*OrderFacts, error) {
	var f OrderFacts
	err := r.db.QueryRowContext(ctx, `
		SELECT vendor_id, supplier_id, product_id, status
		FROM orders
		WHERE id = $1
	`, orderID).Scan(&f.VendorID, &f.SupplierID, &f.ProductID, &f.Status)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *repository) HasReviewForOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM reviews WHERE order_id = $1)`,
		orderID,
	).Scan(&exists)
	return exists, err
}

// Create inserts the review. The unique index on order_id is the final
// word on one-review-per-order; a racing duplicate surfaces here as a pq
// unique violation.
func (r *repository) Create(ctx context.Context, rev *Review) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO reviews (id, order_id, vendor_id, supplier_id, product_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, rev.ID, rev.OrderID, rev.VendorID, rev.SupplierID, rev.ProductID, rev.Rating, rev.Comment).
		Scan(&rev.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrAlreadyReviewed
	}
	return err
}

func (r *repository) ListForProduct(ctx context.Context, productID uuid.UUID) ([]*ProductReview, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.id, r.order_id, r.vendor_id, r.supplier_id, r.product_id, r.rating, r.comment, r.created_at, u.name
		FROM reviews r
		JOIN users u ON u.id = r.vendor_id
		WHERE r.product_id = $1
		ORDER BY r.created_at DESC
	`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []*ProductReview
	for rows.Next() {
		var pr ProductReview
		if err := rows.Scan(&pr.ID, &pr.OrderID, &pr.VendorID, &pr.SupplierID, &pr.ProductID, &pr.Rating, &pr.Comment, &pr.CreatedAt, &pr.VendorName); err != nil {
			return nil, err
		}
		reviews = append(reviews, &pr)
	}
	return reviews, rows.Err()
}
