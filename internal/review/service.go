package review

import (
	"context"

	"agrimarket-be/internal/auth"
	"agrimarket-be/internal/logger"
	"agrimarket-be/internal/metrics"
	"agrimarket-be/internal/notify"
	"agrimarket-be/internal/order"
	"agrimarket-be/internal/user"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	Eligible(ctx context.Context, orderID uuid.UUID) error
	Submit(ctx context.Context, params SubmitParams) (*Review, error)
	ListForProduct(ctx context.Context, productID uuid.UUID) ([]*ProductReview, error)
}

type service struct {
	repo   Repository
	events notify.Publisher
}

func NewService(repo Repository, events notify.Publisher) Service {
	return &service{repo: repo, events: events}
}

// Eligible answers whether the calling vendor may review the order right
// now: the order must exist, belong to the caller, be DELIVERED, and have
// no review yet. Clients use this to decide whether to show the review
// form; Submit runs the same checks again so a stale answer can never
// produce a review.
func (s *service) Eligible(ctx context.Context, orderID uuid.UUID) error {
	vendorID, ok := auth.GetUserIDFromContext(ctx)
	if !ok || auth.GetUserRoleFromContext(ctx) != string(user.RoleVendor) {
		return ErrNotYourOrder
	}

	_, err := s.gate(ctx, orderID, vendorID)
	return err
}

// gate runs the full eligibility check: ownership, DELIVERED status, no
// existing review for the order.
func (s *service) gate(ctx context.Context, orderID uuid.UUID, vendorID uint) (*OrderFacts, error) {
	facts, err := s.repo.OrderFacts(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := checkEligibility(facts, vendorID); err != nil {
		return nil, err
	}

	reviewed, err := s.repo.HasReviewForOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if reviewed {
		return nil, ErrAlreadyReviewed
	}
	return facts, nil
}

// Submit validates every claim in the params against the order row at
// submission time, then writes the review. A duplicate loses to the
// database's unique index regardless of timing.
func (s *service) Submit(ctx context.Context, params SubmitParams) (*Review, error) {
	vendorID, ok := auth.GetUserIDFromContext(ctx)
	if !ok || auth.GetUserRoleFromContext(ctx) != string(user.RoleVendor) {
		return nil, ErrNotYourOrder
	}

	if params.Rating < 1 || params.Rating > 5 {
		return nil, ErrInvalidRating
	}

	facts, err := s.gate(ctx, params.OrderID, vendorID)
	if err != nil {
		return nil, err
	}
	if facts.ProductID != params.ProductID {
		return nil, ErrProductMismatch
	}
	if facts.SupplierID != params.SupplierID {
		return nil, ErrSupplierMismatch
	}

	rev := &Review{
		ID:         uuid.New(),
		OrderID:    params.OrderID,
		VendorID:   vendorID,
		SupplierID: params.SupplierID,
		ProductID:  params.ProductID,
		Rating:     params.Rating,
		Comment:    params.Comment,
	}
	if err := s.repo.Create(ctx, rev); err != nil {
		logger.FromCtx(ctx).Warn("review rejected",
			zap.String("layer", "service"),
			zap.String("order_id", params.OrderID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	metrics.ReviewsSubmitted.Inc()
	s.events.Publish(notify.Event{Table: "reviews", Op: "INSERT", ID: rev.ID.String()})
	return rev, nil
}

func (s *service) ListForProduct(ctx context.Context, productID uuid.UUID) ([]*ProductReview, error) {
	return s.repo.ListForProduct(ctx, productID)
}

func checkEligibility(facts *OrderFacts, vendorID uint) error {
	if facts.VendorID != vendorID {
		return ErrNotYourOrder
	}
	if facts.Status != order.StatusDelivered {
		return ErrNotDelivered
	}
	return nil
}
