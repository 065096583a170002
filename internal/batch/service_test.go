package batch

import (
	"context"
	"testing"
	"time"

	"agrimarket-be/internal/auth"
	"agrimarket-be/internal/notify"
	"agrimarket-be/internal/user"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) CreateTx(ctx context.Context, b *Batch, evt *Event) error {
	args := m.Called(ctx, b, evt)
	return args.Error(0)
}

func (m *mockRepository) GetByID(ctx context.Context, id uuid.UUID) (*Batch, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Batch), args.Error(1)
}

func (m *mockRepository) List(ctx context.Context, filter ListFilter) ([]*Batch, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Batch), args.Error(1)
}

func (m *mockRepository) TransferTx(ctx context.Context, sourceID uuid.UUID, quantity int, toID uint, toRole user.Role, action Action) (*Batch, error) {
	args := m.Called(ctx, sourceID, quantity, toID, toRole, action)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Batch), args.Error(1)
}

func (m *mockRepository) GetTrace(ctx context.Context, id uuid.UUID) (*Trace, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Trace), args.Error(1)
}

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, email, password, name string, role user.Role) (user.User, error) {
	args := m.Called(ctx, email, password, name, role)
	return args.Get(0).(user.User), args.Error(1)
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (user.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(user.User), args.Error(1)
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uint) (user.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(user.User), args.Error(1)
}

func (m *mockUserRepository) CreatePasswordReset(ctx context.Context, token string, userID uint, expiresAt time.Time) error {
	args := m.Called(ctx, token, userID, expiresAt)
	return args.Error(0)
}

func (m *mockUserRepository) RedeemPasswordReset(ctx context.Context, token, newPasswordHash string) error {
	args := m.Called(ctx, token, newPasswordHash)
	return args.Error(0)
}

func roleCtx(id uint, role user.Role) context.Context {
	return auth.SetUserContext(context.Background(), id, "someone@test.com", string(role))
}

func TestCreate(t *testing.T) {
	t.Run("farmer registers a lot", func(t *testing.T) {
		repo := new(mockRepository)
		svc := NewService(repo, new(mockUserRepository), notify.Nop{})
		ctx := roleCtx(11, user.RoleFarmer)

		repo.On("CreateTx", ctx, mock.MatchedBy(func(b *Batch) bool {
			return b.ProduceType == "wheat" && b.Quantity == 500 &&
				b.HolderID == 11 && b.HolderRole == user.RoleFarmer && b.ParentID == nil
		}), mock.MatchedBy(func(e *Event) bool {
			return e.Action == ActionCreated && e.ActorID == 11
		})).Return(nil)

		b, err := svc.Create(ctx, CreateParams{ProduceType: "wheat", Quantity: 500})
		require.NoError(t, err)
		assert.Equal(t, user.RoleFarmer, b.HolderRole)
		repo.AssertExpectations(t)
	})

	t.Run("only farmers create lots", func(t *testing.T) {
		repo := new(mockRepository)
		svc := NewService(repo, new(mockUserRepository), notify.Nop{})

		for _, role := range []user.Role{user.RoleDistributor, user.RoleRetailer, user.RoleConsumer, user.RoleVendor} {
			_, err := svc.Create(roleCtx(11, role), CreateParams{ProduceType: "wheat", Quantity: 500})
			assert.ErrorIs(t, err, ErrUnauthorized)
		}
	})

	t.Run("rejects empty produce type and non-positive quantity", func(t *testing.T) {
		repo := new(mockRepository)
		svc := NewService(repo, new(mockUserRepository), notify.Nop{})
		ctx := roleCtx(11, user.RoleFarmer)

		_, err := svc.Create(ctx, CreateParams{ProduceType: "", Quantity: 5})
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = svc.Create(ctx, CreateParams{ProduceType: "wheat", Quantity: 0})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestBuy(t *testing.T) {
	batchID := uuid.New()

	t.Run("distributor buys from farmer-held batch", func(t *testing.T) {
		repo := new(mockRepository)
		svc := NewService(repo, new(mockUserRepository), notify.Nop{})
		ctx := roleCtx(21, user.RoleDistributor)

		repo.On("GetByID", ctx, batchID).
			Return(&Batch{ID: batchID, Quantity: 500, HolderID: 11, HolderRole: user.RoleFarmer}, nil)
		repo.On("TransferTx", ctx, batchID, 200, uint(21), user.RoleDistributor, ActionBought).
			Return(&Batch{ID: uuid.New(), Quantity: 200, HolderID: 21, HolderRole: user.RoleDistributor, ParentID: &batchID}, nil)

		child, err := svc.Buy(ctx, TransferParams{BatchID: batchID, Quantity: 200})
		require.NoError(t, err)
		assert.Equal(t, user.RoleDistributor, child.HolderRole)
		require.NotNil(t, child.ParentID)
		assert.Equal(t, batchID, *child.ParentID)
	})

	t.Run("cannot buy a batch a retailer holds", func(t *testing.T) {
		repo := new(mockRepository)
		svc := NewService(repo, new(mockUserRepository), notify.Nop{})
		ctx := roleCtx(21, user.RoleDistributor)

		repo.On("GetByID", ctx, batchID).
			Return(&Batch{ID: batchID, HolderID: 31, HolderRole: user.RoleRetailer}, nil)

		_, err := svc.Buy(ctx, TransferParams{BatchID: batchID, Quantity: 10})
		assert.ErrorIs(t, err, ErrWrongHolder)
	})

	t.Run("quantity guard surfaces from the transaction", func(t *testing.T) {
		repo := new(mockRepository)
		svc := NewService(repo, new(mockUserRepository), notify.Nop{})
		ctx := roleCtx(21, user.RoleDistributor)

		repo.On("GetByID", ctx, batchID).
			Return(&Batch{ID: batchID, Quantity: 50, HolderID: 11, HolderRole: user.RoleFarmer}, nil)
		repo.On("TransferTx", ctx, batchID, 200, uint(21), user.RoleDistributor, ActionBought).
			Return(nil, ErrInsufficientQuantity)

		_, err := svc.Buy(ctx, TransferParams{BatchID: batchID, Quantity: 200})
		assert.ErrorIs(t, err, ErrInsufficientQuantity)
	})
}

func TestSellToRetailer(t *testing.T) {
	batchID := uuid.New()

	t.Run("distributor sells own batch", func(t *testing.T) {
		repo := new(mockRepository)
		users := new(mockUserRepository)
		svc := NewService(repo, users, notify.Nop{})
		ctx := roleCtx(21, user.RoleDistributor)

		users.On("FindByID", ctx, uint(31)).Return(user.User{ID: 31, Role: user.RoleRetailer}, nil)
		held := &Batch{ID: batchID, Quantity: 200, HolderID: 21, HolderRole: user.RoleDistributor}
		repo.On("GetByID", ctx, batchID).Return(held, nil)
		repo.On("TransferTx", ctx, batchID, 80, uint(31), user.RoleRetailer, ActionSold).
			Return(&Batch{ID: uuid.New(), Quantity: 80, HolderID: 31, HolderRole: user.RoleRetailer, ParentID: &batchID}, nil)

		child, err := svc.SellToRetailer(ctx, TransferParams{BatchID: batchID, Quantity: 80}, 31)
		require.NoError(t, err)
		assert.Equal(t, user.RoleRetailer, child.HolderRole)
	})

	t.Run("cannot sell another distributor's batch", func(t *testing.T) {
		repo := new(mockRepository)
		users := new(mockUserRepository)
		svc := NewService(repo, users, notify.Nop{})
		ctx := roleCtx(21, user.RoleDistributor)

		users.On("FindByID", ctx, uint(31)).Return(user.User{ID: 31, Role: user.RoleRetailer}, nil)
		repo.On("GetByID", ctx, batchID).
			Return(&Batch{ID: batchID, HolderID: 99, HolderRole: user.RoleDistributor}, nil)

		_, err := svc.SellToRetailer(ctx, TransferParams{BatchID: batchID, Quantity: 10}, 31)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("target must hold the retailer role", func(t *testing.T) {
		repo := new(mockRepository)
		users := new(mockUserRepository)
		svc := NewService(repo, users, notify.Nop{})
		ctx := roleCtx(21, user.RoleDistributor)

		users.On("FindByID", ctx, uint(7)).Return(user.User{ID: 7, Role: user.RoleVendor}, nil)

		_, err := svc.SellToRetailer(ctx, TransferParams{BatchID: batchID, Quantity: 10}, 7)
		assert.ErrorIs(t, err, ErrInvalidInput)
		repo.AssertNotCalled(t, "TransferTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown target user", func(t *testing.T) {
		repo := new(mockRepository)
		users := new(mockUserRepository)
		svc := NewService(repo, users, notify.Nop{})
		ctx := roleCtx(21, user.RoleDistributor)

		users.On("FindByID", ctx, uint(404)).Return(user.User{}, user.ErrUserNotFound)

		_, err := svc.SellToRetailer(ctx, TransferParams{BatchID: batchID, Quantity: 10}, 404)
		assert.ErrorIs(t, err, ErrInvalidInput)
		repo.AssertNotCalled(t, "TransferTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestPurchase(t *testing.T) {
	batchID := uuid.New()

	t.Run("consumer purchases from retailer", func(t *testing.T) {
		repo := new(mockRepository)
		svc := NewService(repo, new(mockUserRepository), notify.Nop{})
		ctx := roleCtx(41, user.RoleConsumer)

		repo.On("GetByID", ctx, batchID).
			Return(&Batch{ID: batchID, Quantity: 80, HolderID: 31, HolderRole: user.RoleRetailer}, nil)
		repo.On("TransferTx", ctx, batchID, 2, uint(41), user.RoleConsumer, ActionPurchased).
			Return(&Batch{ID: uuid.New(), Quantity: 2, HolderID: 41, HolderRole: user.RoleConsumer, ParentID: &batchID}, nil)

		child, err := svc.Purchase(ctx, TransferParams{BatchID: batchID, Quantity: 2})
		require.NoError(t, err)
		assert.Equal(t, user.RoleConsumer, child.HolderRole)
	})

	t.Run("cannot purchase straight from a farmer", func(t *testing.T) {
		repo := new(mockRepository)
		svc := NewService(repo, new(mockUserRepository), notify.Nop{})
		ctx := roleCtx(41, user.RoleConsumer)

		repo.On("GetByID", ctx, batchID).
			Return(&Batch{ID: batchID, HolderID: 11, HolderRole: user.RoleFarmer}, nil)

		_, err := svc.Purchase(ctx, TransferParams{BatchID: batchID, Quantity: 2})
		assert.ErrorIs(t, err, ErrWrongHolder)
	})
}

func TestTrace(t *testing.T) {
	batchID := uuid.New()

	t.Run("returns lineage from lot to purchase", func(t *testing.T) {
		repo := new(mockRepository)
		svc := NewService(repo, new(mockUserRepository), notify.Nop{})
		ctx := roleCtx(41, user.RoleConsumer)

		root := &Batch{ID: uuid.New(), HolderRole: user.RoleFarmer}
		mid := &Batch{ID: uuid.New(), HolderRole: user.RoleDistributor, ParentID: &root.ID}
		leaf := &Batch{ID: batchID, HolderRole: user.RoleConsumer, ParentID: &mid.ID}

		repo.On("GetTrace", ctx, batchID).Return(&Trace{
			Batches: []*Batch{root, mid, leaf},
			Events: []*Event{
				{BatchID: root.ID, Action: ActionCreated},
				{BatchID: mid.ID, Action: ActionBought},
				{BatchID: leaf.ID, Action: ActionPurchased},
			},
		}, nil)

		trace, err := svc.Trace(ctx, batchID)
		require.NoError(t, err)
		require.Len(t, trace.Batches, 3)
		assert.Nil(t, trace.Batches[0].ParentID)
		assert.Equal(t, ActionCreated, trace.Events[0].Action)
	})

	t.Run("unknown batch", func(t *testing.T) {
		repo := new(mockRepository)
		svc := NewService(repo, new(mockUserRepository), notify.Nop{})
		ctx := roleCtx(41, user.RoleConsumer)

		repo.On("GetTrace", ctx, batchID).Return(nil, ErrBatchNotFound)

		_, err := svc.Trace(ctx, batchID)
		assert.ErrorIs(t, err, ErrBatchNotFound)
	})
}
