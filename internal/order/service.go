package order

import (
	"context"
	"errors"

	"agrimarket-be/internal/auth"
	"agrimarket-be/internal/logger"
	"agrimarket-be/internal/metrics"
	"agrimarket-be/internal/notify"
	"agrimarket-be/internal/product"
	"agrimarket-be/internal/user"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	Checkout(ctx context.Context, key uuid.UUID) ([]*Order, error)
	Accept(ctx context.Context, id uuid.UUID) (*Order, error)
	Decline(ctx context.Context, id uuid.UUID) (*Order, error)
	Advance(ctx context.Context, id uuid.UUID) (*Order, error)
	Cancel(ctx context.Context, id uuid.UUID) (*Order, error)
	Reorder(ctx context.Context, id uuid.UUID) (*Order, error)
	Get(ctx context.Context, id uuid.UUID) (*Detail, error)
	List(ctx context.Context, filter ListFilter) ([]*Detail, error)
}

type service struct {
	repo        Repository
	productRepo product.Repository
	events      notify.Publisher
}

func NewService(repo Repository, productRepo product.Repository, events notify.Publisher) Service {
	return &service{repo: repo, productRepo: productRepo, events: events}
}

// Checkout converts the vendor's cart lines into PENDING orders, one per
// line, all-or-nothing. The idempotency key ties a retried attempt back to
// the orders it already created instead of writing duplicates. Every line
// is validated before anything is written, and every failing line is
// reported with its index.
func (s *service) Checkout(ctx context.Context, key uuid.UUID) ([]*Order, error) {
	vendorID, ok := auth.GetUserIDFromContext(ctx)
	if !ok || auth.GetUserRoleFromContext(ctx) != string(user.RoleVendor) {
		return nil, ErrUnauthorized
	}

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Checkout"),
		zap.Uint("vendor_id", vendorID),
	)

	if key == uuid.Nil {
		key = uuid.New()
	}

	existing, err := s.repo.OrdersByCheckoutKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		log.Info("checkout key already processed", zap.String("checkout_key", key.String()))
		return existing, nil
	}

	lines, err := s.repo.CheckoutLines(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	var lineErrs []LineError
	for _, line := range lines {
		switch {
		case line.Quantity <= 0:
			lineErrs = append(lineErrs, LineError{
				Index:     line.Index,
				ProductID: line.ProductID.String(),
				Reason:    "quantity must be greater than zero",
			})
		case line.Stock < line.Quantity:
			lineErrs = append(lineErrs, LineError{
				Index:     line.Index,
				ProductID: line.ProductID.String(),
				Reason:    "insufficient stock",
			})
		}
	}
	if len(lineErrs) > 0 {
		log.Warn("checkout validation failed", zap.Int("failed_lines", len(lineErrs)))
		return nil, &CheckoutError{Lines: lineErrs}
	}

	orders, err := s.repo.CreateOrdersTx(ctx, key, vendorID, lines)
	if errors.Is(err, ErrDuplicateCheckout) {
		// A concurrent attempt with the same key slipped past the pre-read
		// and committed first; its orders are the idempotent answer.
		log.Info("checkout key raced, returning committed orders", zap.String("checkout_key", key.String()))
		return s.repo.OrdersByCheckoutKey(ctx, key)
	}
	if err != nil {
		log.Error("checkout transaction failed", zap.Error(err))
		return nil, err
	}

	metrics.OrdersPlaced.Add(uint64(len(orders)))
	for _, o := range orders {
		s.events.Publish(notify.Event{Table: "orders", Op: "INSERT", ID: o.ID.String()})
	}
	s.events.Publish(notify.Event{Table: "cart", Op: "DELETE", ID: "*"})

	log.Info("checkout completed", zap.Int("orders", len(orders)))
	return orders, nil
}

// Accept moves a PENDING order to CONFIRMED. Supplier action.
func (s *service) Accept(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := s.supplierOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusPending {
		return nil, ErrInvalidTransition
	}

	if err := s.repo.UpdateStatusGuarded(ctx, id, StatusPending, StatusConfirmed); err != nil {
		return nil, err
	}
	o.Status = StatusConfirmed
	s.transitioned(o)
	return o, nil
}

// Decline cancels a PENDING order on behalf of the supplier and returns the
// reserved quantity to stock.
func (s *service) Decline(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := s.supplierOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusPending {
		return nil, ErrInvalidTransition
	}

	if err := s.repo.CancelTx(ctx, id, StatusPending, CancelledBySupplier, o.ProductID, o.Quantity); err != nil {
		return nil, err
	}
	o.Status = StatusCancelled
	actor := CancelledBySupplier
	o.CancelledBy = &actor
	s.transitioned(o)
	return o, nil
}

// Advance moves an order exactly one step along the fixed sequence.
// Supplier action; PENDING must leave via Accept or Decline, and terminal
// orders are immutable.
func (s *service) Advance(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := s.supplierOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status.Terminal() {
		return nil, ErrTerminalStatus
	}
	if !o.Status.CanAdvance() {
		return nil, ErrInvalidTransition
	}

	next, ok := o.Status.Next()
	if !ok {
		return nil, ErrInvalidTransition
	}

	if err := s.repo.UpdateStatusGuarded(ctx, id, o.Status, next); err != nil {
		return nil, err
	}
	o.Status = next
	s.transitioned(o)
	return o, nil
}

// Cancel is the vendor's cancellation, permitted only while PENDING.
// Orders are never hard-deleted; history stays queryable for reviews and
// reorders.
func (s *service) Cancel(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := s.vendorOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status != StatusPending {
		return nil, ErrInvalidTransition
	}

	if err := s.repo.CancelTx(ctx, id, StatusPending, CancelledByVendor, o.ProductID, o.Quantity); err != nil {
		return nil, err
	}
	o.Status = StatusCancelled
	actor := CancelledByVendor
	o.CancelledBy = &actor
	s.transitioned(o)
	return o, nil
}

// Reorder creates a brand-new PENDING order copying product and quantity
// from a terminal order. The new order is priced at the product's current
// price and does not reference the original.
func (s *service) Reorder(ctx context.Context, id uuid.UUID) (*Order, error) {
	orig, err := s.vendorOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !orig.Status.Terminal() {
		return nil, ErrNotReorderable
	}

	p, err := s.productRepo.GetByID(ctx, orig.ProductID)
	if err != nil {
		return nil, err
	}
	if p.Stock < orig.Quantity {
		return nil, ErrInsufficientStock
	}

	o := &Order{
		ID:          uuid.New(),
		VendorID:    orig.VendorID,
		SupplierID:  orig.SupplierID,
		ProductID:   orig.ProductID,
		Quantity:    orig.Quantity,
		TotalAmount: p.Price * int64(orig.Quantity),
		Status:      StatusPending,
	}
	if err := s.repo.CreateReorderTx(ctx, o); err != nil {
		return nil, err
	}

	metrics.OrdersPlaced.Inc()
	s.events.Publish(notify.Event{Table: "orders", Op: "INSERT", ID: o.ID.String()})
	return o, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Detail, error) {
	d, err := s.repo.GetDetail(ctx, id)
	if err != nil {
		return nil, err
	}

	callerID, ok := auth.GetUserIDFromContext(ctx)
	if !ok || (d.VendorID != callerID && d.SupplierID != callerID) {
		return nil, ErrUnauthorized
	}
	return d, nil
}

// List scopes the filter to the caller: vendors see the orders they placed,
// suppliers the orders placed with them.
func (s *service) List(ctx context.Context, filter ListFilter) ([]*Detail, error) {
	callerID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	switch auth.GetUserRoleFromContext(ctx) {
	case string(user.RoleVendor):
		filter.VendorID = &callerID
		filter.SupplierID = nil
	case string(user.RoleSupplier):
		filter.SupplierID = &callerID
		filter.VendorID = nil
	default:
		return nil, ErrUnauthorized
	}

	return s.repo.List(ctx, filter)
}

func (s *service) supplierOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	callerID, ok := auth.GetUserIDFromContext(ctx)
	if !ok || auth.GetUserRoleFromContext(ctx) != string(user.RoleSupplier) {
		return nil, ErrUnauthorized
	}

	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.SupplierID != callerID {
		return nil, ErrUnauthorized
	}
	return o, nil
}

func (s *service) vendorOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	callerID, ok := auth.GetUserIDFromContext(ctx)
	if !ok || auth.GetUserRoleFromContext(ctx) != string(user.RoleVendor) {
		return nil, ErrUnauthorized
	}

	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.VendorID != callerID {
		return nil, ErrUnauthorized
	}
	return o, nil
}

func (s *service) transitioned(o *Order) {
	metrics.OrderTransitions.Inc()
	s.events.Publish(notify.Event{Table: "orders", Op: "UPDATE", ID: o.ID.String()})
}
