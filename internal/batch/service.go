package batch

import (
	"context"
	"errors"

	"agrimarket-be/internal/auth"
	"agrimarket-be/internal/metrics"
	"agrimarket-be/internal/notify"
	"agrimarket-be/internal/user"

	"github.com/google/uuid"
)

// Service is the supply-chain trace surface: farmers create lots,
// distributors buy from farmers and sell on to retailers, consumers
// purchase from retailers, and anyone may read a batch's trace.
type Service interface {
	Create(ctx context.Context, params CreateParams) (*Batch, error)
	List(ctx context.Context, filter ListFilter) ([]*Batch, error)
	Buy(ctx context.Context, params TransferParams) (*Batch, error)
	SellToRetailer(ctx context.Context, params TransferParams, retailerID uint) (*Batch, error)
	Purchase(ctx context.Context, params TransferParams) (*Batch, error)
	Trace(ctx context.Context, id uuid.UUID) (*Trace, error)
}

type service struct {
	repo   Repository
	users  user.Repository
	events notify.Publisher
}

func NewService(repo Repository, users user.Repository, events notify.Publisher) Service {
	return &service{repo: repo, users: users, events: events}
}

// Create registers a farmer's harvested lot as the root of a new lineage.
func (s *service) Create(ctx context.Context, params CreateParams) (*Batch, error) {
	farmerID, err := requireRole(ctx, user.RoleFarmer)
	if err != nil {
		return nil, err
	}
	if params.ProduceType == "" || params.Quantity <= 0 {
		return nil, ErrInvalidInput
	}

	b := &Batch{
		ID:          uuid.New(),
		ProduceType: params.ProduceType,
		Quantity:    params.Quantity,
		HolderID:    farmerID,
		HolderRole:  user.RoleFarmer,
	}
	evt := &Event{
		ID:        uuid.New(),
		BatchID:   b.ID,
		Action:    ActionCreated,
		ActorID:   farmerID,
		ActorRole: user.RoleFarmer,
		Quantity:  params.Quantity,
	}
	if err := s.repo.CreateTx(ctx, b, evt); err != nil {
		return nil, err
	}

	s.events.Publish(notify.Event{Table: "batches", Op: "INSERT", ID: b.ID.String()})
	return b, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]*Batch, error) {
	return s.repo.List(ctx, filter)
}

// Buy transfers quantity from a farmer-held batch to the calling
// distributor.
func (s *service) Buy(ctx context.Context, params TransferParams) (*Batch, error) {
	distributorID, err := requireRole(ctx, user.RoleDistributor)
	if err != nil {
		return nil, err
	}
	return s.transfer(ctx, params, user.RoleFarmer, distributorID, user.RoleDistributor, ActionBought)
}

// SellToRetailer transfers quantity from the calling distributor's batch to
// a retailer. The target user must exist and actually hold the retailer
// role; otherwise the custody row would name an arbitrary user as retailer.
func (s *service) SellToRetailer(ctx context.Context, params TransferParams, retailerID uint) (*Batch, error) {
	distributorID, err := requireRole(ctx, user.RoleDistributor)
	if err != nil {
		return nil, err
	}

	target, err := s.users.FindByID(ctx, retailerID)
	if errors.Is(err, user.ErrUserNotFound) {
		return nil, ErrInvalidInput
	}
	if err != nil {
		return nil, err
	}
	if target.Role != user.RoleRetailer {
		return nil, ErrInvalidInput
	}

	src, err := s.repo.GetByID(ctx, params.BatchID)
	if err != nil {
		return nil, err
	}
	if src.HolderID != distributorID {
		return nil, ErrUnauthorized
	}

	return s.transfer(ctx, params, user.RoleDistributor, retailerID, user.RoleRetailer, ActionSold)
}

// Purchase transfers quantity from a retailer-held batch to the calling
// consumer, ending that slice of the lineage.
func (s *service) Purchase(ctx context.Context, params TransferParams) (*Batch, error) {
	consumerID, err := requireRole(ctx, user.RoleConsumer)
	if err != nil {
		return nil, err
	}
	return s.transfer(ctx, params, user.RoleRetailer, consumerID, user.RoleConsumer, ActionPurchased)
}

func (s *service) Trace(ctx context.Context, id uuid.UUID) (*Trace, error) {
	return s.repo.GetTrace(ctx, id)
}

func (s *service) transfer(ctx context.Context, params TransferParams, fromRole user.Role, toID uint, toRole user.Role, action Action) (*Batch, error) {
	if params.Quantity <= 0 {
		return nil, ErrInvalidInput
	}

	src, err := s.repo.GetByID(ctx, params.BatchID)
	if err != nil {
		return nil, err
	}
	if src.HolderRole != fromRole {
		return nil, ErrWrongHolder
	}

	child, err := s.repo.TransferTx(ctx, params.BatchID, params.Quantity, toID, toRole, action)
	if err != nil {
		return nil, err
	}

	metrics.BatchTransfers.Inc()
	s.events.Publish(notify.Event{Table: "batches", Op: "INSERT", ID: child.ID.String()})
	s.events.Publish(notify.Event{Table: "batches", Op: "UPDATE", ID: params.BatchID.String()})
	return child, nil
}

func requireRole(ctx context.Context, role user.Role) (uint, error) {
	id, ok := auth.GetUserIDFromContext(ctx)
	if !ok || auth.GetUserRoleFromContext(ctx) != string(role) {
		return 0, ErrUnauthorized
	}
	return id, nil
}
