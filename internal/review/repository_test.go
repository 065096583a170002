package review

import (
	"context"
	"testing"
	"time"

	"agrimarket-be/internal/order"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db), mock
}

func TestRepositoryOrderFacts(t *testing.T) {
	orderID := uuid.New()
	productID := uuid.New()

	t.Run("found", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		rows := sqlmock.NewRows([]string{"vendor_id", "supplier_id", "product_id", "status"}).
			AddRow(7, 2, productID, "DELIVERED")
		mock.ExpectQuery(`SELECT vendor_id, supplier_id, product_id, status\s+FROM orders`).
			WithArgs(orderID).
			WillReturnRows(rows)

		facts, err := repo.OrderFacts(context.Background(), orderID)
		require.NoError(t, err)
		assert.Equal(t, uint(7), facts.VendorID)
		assert.Equal(t, order.StatusDelivered, facts.Status)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery(`SELECT vendor_id, supplier_id, product_id, status\s+FROM orders`).
			WithArgs(orderID).
			WillReturnRows(sqlmock.NewRows([]string{"vendor_id"}))

		_, err := repo.OrderFacts(context.Background(), orderID)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestRepositoryHasReviewForOrder(t *testing.T) {
	orderID := uuid.New()

	t.Run("review exists", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM reviews`).
			WithArgs(orderID).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		reviewed, err := repo.HasReviewForOrder(context.Background(), orderID)
		require.NoError(t, err)
		assert.True(t, reviewed)
	})

	t.Run("no review yet", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM reviews`).
			WithArgs(orderID).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		reviewed, err := repo.HasReviewForOrder(context.Background(), orderID)
		require.NoError(t, err)
		assert.False(t, reviewed)
	})
}

func TestRepositoryCreate(t *testing.T) {
	rev := &Review{
		ID:         uuid.New(),
		OrderID:    uuid.New(),
		VendorID:   7,
		SupplierID: 2,
		ProductID:  uuid.New(),
		Rating:     4,
		Comment:    "fresh on arrival",
	}

	t.Run("inserted", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery(`INSERT INTO reviews`).
			WithArgs(rev.ID, rev.OrderID, rev.VendorID, rev.SupplierID, rev.ProductID, rev.Rating, rev.Comment).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

		err := repo.Create(context.Background(), rev)
		require.NoError(t, err)
		assert.False(t, rev.CreatedAt.IsZero())
	})

	t.Run("duplicate order", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery(`INSERT INTO reviews`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "reviews_order_id_key"})

		err := repo.Create(context.Background(), rev)
		assert.ErrorIs(t, err, ErrAlreadyReviewed)
	})
}

func TestRepositoryListForProduct(t *testing.T) {
	repo, mock := newMockRepo(t)
	productID := uuid.New()
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "order_id", "vendor_id", "supplier_id", "product_id", "rating", "comment", "created_at", "name"}).
		AddRow(uuid.New(), uuid.New(), 7, 2, productID, 5, "great", now, "Vendor A").
		AddRow(uuid.New(), uuid.New(), 8, 2, productID, 3, "late delivery", now, "Vendor B")

	mock.ExpectQuery(`SELECT .+ FROM reviews r\s+JOIN users u`).
		WithArgs(productID).
		WillReturnRows(rows)

	reviews, err := repo.ListForProduct(context.Background(), productID)
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, "Vendor A", reviews[0].VendorName)
	assert.Equal(t, 3, reviews[1].Rating)
}
