package product

import (
	"context"

	"agrimarket-be/internal/auth"
	"agrimarket-be/internal/notify"

	"github.com/google/uuid"
)

type Service interface {
	Create(ctx context.Context, params CreateParams) (*Product, error)
	Get(ctx context.Context, id uuid.UUID) (*Product, error)
	List(ctx context.Context, filter ListFilter) ([]*Product, error)
	Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Categories(ctx context.Context) ([]string, error)
}

type service struct {
	repo   Repository
	events notify.Publisher
}

func NewService(repo Repository, events notify.Publisher) Service {
	return &service{repo: repo, events: events}
}

func (s *service) Create(ctx context.Context, params CreateParams) (*Product, error) {
	supplierID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrNotOwner
	}

	if params.Name == "" || params.Price <= 0 || params.Stock < 0 {
		return nil, ErrInvalidInput
	}

	p := &Product{
		ID:         uuid.New(),
		SupplierID: supplierID,
		Name:       params.Name,
		Category:   params.Category,
		Price:      params.Price,
		Stock:      params.Stock,
		ImageURL:   params.ImageURL,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.events.Publish(notify.Event{Table: "products", Op: "INSERT", ID: p.ID.String()})
	return p, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]*Product, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*Product, error) {
	p, err := s.ownedProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		p.Name = *params.Name
	}
	if params.Category != nil {
		p.Category = *params.Category
	}
	if params.Price != nil {
		if *params.Price <= 0 {
			return nil, ErrInvalidInput
		}
		p.Price = *params.Price
	}
	if params.Stock != nil {
		if *params.Stock < 0 {
			return nil, ErrInvalidInput
		}
		p.Stock = *params.Stock
	}
	if params.ImageURL != nil {
		p.ImageURL = params.ImageURL
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.events.Publish(notify.Event{Table: "products", Op: "UPDATE", ID: p.ID.String()})
	return p, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.ownedProduct(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.events.Publish(notify.Event{Table: "products", Op: "DELETE", ID: id.String()})
	return nil
}

func (s *service) Categories(ctx context.Context) ([]string, error) {
	return s.repo.Categories(ctx)
}

func (s *service) ownedProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	supplierID, ok := auth.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrNotOwner
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.SupplierID != supplierID {
		return nil, ErrNotOwner
	}
	return p, nil
}
