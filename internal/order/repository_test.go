package order

import (
	"context"
	"testing"
	"time"

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

func TestCreateOrdersTx(t *testing.T) {
	key := uuid.New()
	productID := uuid.New()
	now := time.Now()

	lines := []CheckoutLine{
		{Index: 0, ProductID: productID, SupplierID: 2, ProductName: "Tomatoes", Quantity: 3, Price: 45, Stock: 10},
	}

	t.Run("commits key, stock, orders and cart clear together", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO checkouts`).
			WithArgs(key, uint(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE products`).
			WithArgs(3, productID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`INSERT INTO orders`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
		mock.ExpectExec(`DELETE FROM cart`).
			WithArgs(uint(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		orders, err := repo.CreateOrdersTx(context.Background(), key, 7, lines)
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, StatusPending, orders[0].Status)
		assert.Equal(t, int64(135), orders[0].TotalAmount)
		require.NotNil(t, orders[0].CheckoutKey)
		assert.Equal(t, key, *orders[0].CheckoutKey)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate checkout key maps to its sentinel", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO checkouts`).
			WithArgs(key, uint(7)).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "checkouts_pkey"})
		mock.ExpectRollback()

		_, err := repo.CreateOrdersTx(context.Background(), key, 7, lines)
		assert.ErrorIs(t, err, ErrDuplicateCheckout)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stock guard failure rolls back everything", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO checkouts`).
			WithArgs(key, uint(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE products`).
			WithArgs(3, productID).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		_, err := repo.CreateOrdersTx(context.Background(), key, 7, lines)
		assert.ErrorIs(t, err, ErrInsufficientStock)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateStatusGuarded(t *testing.T) {
	orderID := uuid.New()

	t.Run("matching status updates one row", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectExec(`UPDATE orders`).
			WithArgs(StatusConfirmed, orderID, StatusPending).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateStatusGuarded(context.Background(), orderID, StatusPending, StatusConfirmed)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale status affects zero rows", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectExec(`UPDATE orders`).
			WithArgs(StatusConfirmed, orderID, StatusPending).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateStatusGuarded(context.Background(), orderID, StatusPending, StatusConfirmed)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestCancelTx(t *testing.T) {
	orderID := uuid.New()
	productID := uuid.New()

	t.Run("cancels and restocks atomically", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE orders`).
			WithArgs(StatusCancelled, CancelledByVendor, orderID, StatusPending).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE products`).
			WithArgs(2, productID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.CancelTx(context.Background(), orderID, StatusPending, CancelledByVendor, productID, 2)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("guard miss rolls back without touching stock", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE orders`).
			WithArgs(StatusCancelled, CancelledBySupplier, orderID, StatusPending).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.CancelTx(context.Background(), orderID, StatusPending, CancelledBySupplier, productID, 2)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetByID(t *testing.T) {
	orderID := uuid.New()
	now := time.Now()

	t.Run("scans cancelled_by when set", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		rows := sqlmock.NewRows([]string{
			"id", "vendor_id", "supplier_id", "product_id", "quantity",
			"total_amount", "status", "cancelled_by", "checkout_key", "created_at", "updated_at",
		}).AddRow(orderID, 7, 2, uuid.New(), 3, 135, "CANCELLED", "supplier", nil, now, now)

		mock.ExpectQuery(`SELECT .+ FROM orders WHERE id`).
			WithArgs(orderID).
			WillReturnRows(rows)

		o, err := repo.GetByID(context.Background(), orderID)
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, o.Status)
		require.NotNil(t, o.CancelledBy)
		assert.Equal(t, CancelledBySupplier, *o.CancelledBy)
		assert.Nil(t, o.CheckoutKey)
	})

	t.Run("missing order", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery(`SELECT .+ FROM orders WHERE id`).
			WithArgs(orderID).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.GetByID(context.Background(), orderID)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}
