package cart

import (
	"context"

	"agrimarket-be/internal/auth"
	"agrimarket-be/internal/notify"
	"agrimarket-be/internal/product"

	"github.com/google/uuid"
)

// Service defines the business logic for carts.
type Service interface {
	Add(ctx context.Context, params AddParams) (*Line, error)
	Get(ctx context.Context) ([]*Row, error)
	UpdateQuantity(ctx context.Context, productID uuid.UUID, quantity int) error
	Remove(ctx context.Context, productID uuid.UUID) error
	Clear(ctx context.Context) error
}

type service struct {
	repo        Repository
	productRepo product.Repository
	events      notify.Publisher
}

func NewService(repo Repository, productRepo product.Repository, events notify.Publisher) Service {
	return &service{repo: repo, productRepo: productRepo, events: events}
}

// Add puts a product into the caller's cart, merging with any existing line.
// The merged quantity is validated against current stock.
func (s *service) Add(ctx context.Context, params AddParams) (*Line, error) {
	vendorID, _ := auth.GetUserIDFromContext(ctx)

	if params.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	p, err := s.productRepo.GetByID(ctx, params.ProductID)
	if err == product.ErrProductNotFound {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetLine(ctx, vendorID, params.ProductID)
	if err != nil {
		return nil, err
	}

	finalQty := params.Quantity
	if existing != nil {
		finalQty += existing.Quantity
	}
	if p.Stock < finalQty {
		return nil, ErrInsufficientStock
	}

	line, err := s.repo.Upsert(ctx, vendorID, params.ProductID, params.Quantity)
	if err != nil {
		return nil, err
	}

	s.events.Publish(notify.Event{Table: "cart", Op: "INSERT", ID: line.ID.String()})
	return line, nil
}

func (s *service) Get(ctx context.Context) ([]*Row, error) {
	vendorID, _ := auth.GetUserIDFromContext(ctx)
	return s.repo.ListByVendor(ctx, vendorID)
}

// UpdateQuantity sets a line's quantity; zero or negative removes the line.
func (s *service) UpdateQuantity(ctx context.Context, productID uuid.UUID, quantity int) error {
	vendorID, _ := auth.GetUserIDFromContext(ctx)

	if quantity <= 0 {
		if err := s.repo.Remove(ctx, vendorID, productID); err != nil {
			return err
		}
		s.events.Publish(notify.Event{Table: "cart", Op: "DELETE", ID: productID.String()})
		return nil
	}

	p, err := s.productRepo.GetByID(ctx, productID)
	if err == product.ErrProductNotFound {
		return ErrProductNotFound
	}
	if err != nil {
		return err
	}
	if p.Stock < quantity {
		return ErrInsufficientStock
	}

	if err := s.repo.SetQuantity(ctx, vendorID, productID, quantity); err != nil {
		return err
	}
	s.events.Publish(notify.Event{Table: "cart", Op: "UPDATE", ID: productID.String()})
	return nil
}

func (s *service) Remove(ctx context.Context, productID uuid.UUID) error {
	vendorID, _ := auth.GetUserIDFromContext(ctx)
	if err := s.repo.Remove(ctx, vendorID, productID); err != nil {
		return err
	}
	s.events.Publish(notify.Event{Table: "cart", Op: "DELETE", ID: productID.String()})
	return nil
}

func (s *service) Clear(ctx context.Context) error {
	vendorID, _ := auth.GetUserIDFromContext(ctx)
	if err := s.repo.Clear(ctx, vendorID); err != nil {
		return err
	}
	s.events.Publish(notify.Event{Table: "cart", Op: "DELETE", ID: "*"})
	return nil
}
