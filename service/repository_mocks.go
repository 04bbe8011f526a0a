package service

import (
	"context"
	"time"

	"tokendraw/events"
	"tokendraw/models"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, email, username string) (*models.User, error) {
	args := m.Called(ctx, email, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) AddTokens(ctx context.Context, userID, amount int64) (int64, error) {
	args := m.Called(ctx, userID, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) DeductTokens(ctx context.Context, userID, amount int64) (int64, error) {
	args := m.Called(ctx, userID, amount)
	return args.Get(0).(int64), args.Error(1)
}

// MockTransactionRepository is a mock implementation of TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Record(ctx context.Context, txn *models.TokenTransaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*models.TokenTransaction, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TokenTransaction), args.Error(1)
}

func (m *MockTransactionRepository) SumByUser(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// MockDrawRepository is a mock implementation of DrawRepository
type MockDrawRepository struct {
	mock.Mock
}

func (m *MockDrawRepository) Create(ctx context.Context, draw *models.Draw) error {
	args := m.Called(ctx, draw)
	return args.Error(0)
}

func (m *MockDrawRepository) GetByID(ctx context.Context, id int64) (*models.Draw, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Draw), args.Error(1)
}

func (m *MockDrawRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Draw, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Draw), args.Error(1)
}

func (m *MockDrawRepository) UpdateMetadata(ctx context.Context, draw *models.Draw) error {
	args := m.Called(ctx, draw)
	return args.Error(0)
}

func (m *MockDrawRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDrawRepository) GetActive(ctx context.Context) (*models.Draw, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Draw), args.Error(1)
}

func (m *MockDrawRepository) ListByStatus(ctx context.Context, status models.DrawStatus, limit int) ([]*models.Draw, error) {
	args := m.Called(ctx, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Draw), args.Error(1)
}

func (m *MockDrawRepository) IncrementEntries(ctx context.Context, drawID, count int64) error {
	args := m.Called(ctx, drawID, count)
	return args.Error(0)
}

func (m *MockDrawRepository) Activate(ctx context.Context, drawID int64) (bool, error) {
	args := m.Called(ctx, drawID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDrawRepository) AssignWinner(ctx context.Context, drawID, winnerID int64, winnerUsername string) (bool, error) {
	args := m.Called(ctx, drawID, winnerID, winnerUsername)
	return args.Bool(0), args.Error(1)
}

func (m *MockDrawRepository) CompleteWithoutWinner(ctx context.Context, drawID int64) (bool, error) {
	args := m.Called(ctx, drawID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDrawRepository) GetExpiredActive(ctx context.Context, now time.Time) ([]*models.Draw, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Draw), args.Error(1)
}

func (m *MockDrawRepository) GetPendingActivation(ctx context.Context, now time.Time) ([]*models.Draw, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Draw), args.Error(1)
}

// MockEntryRepository is a mock implementation of EntryRepository
type MockEntryRepository struct {
	mock.Mock
}

func (m *MockEntryRepository) Upsert(ctx context.Context, drawID, userID, count int64) (*models.DrawEntry, error) {
	args := m.Called(ctx, drawID, userID, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DrawEntry), args.Error(1)
}

func (m *MockEntryRepository) GetByDrawAndUser(ctx context.Context, drawID, userID int64) (*models.DrawEntry, error) {
	args := m.Called(ctx, drawID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DrawEntry), args.Error(1)
}

func (m *MockEntryRepository) ListByDraw(ctx context.Context, drawID int64) ([]*models.DrawEntry, error) {
	args := m.Called(ctx, drawID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.DrawEntry), args.Error(1)
}

func (m *MockEntryRepository) ListByUser(ctx context.Context, userID int64) ([]*models.DrawEntry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.DrawEntry), args.Error(1)
}

func (m *MockEntryRepository) SumByDraw(ctx context.Context, drawID int64) (int64, error) {
	args := m.Called(ctx, drawID)
	return args.Get(0).(int64), args.Error(1)
}

// MockPrizeRepository is a mock implementation of PrizeRepository
type MockPrizeRepository struct {
	mock.Mock
}

func (m *MockPrizeRepository) Create(ctx context.Context, prize *models.Prize) error {
	args := m.Called(ctx, prize)
	return args.Error(0)
}

func (m *MockPrizeRepository) GetByID(ctx context.Context, id int64) (*models.Prize, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Prize), args.Error(1)
}

func (m *MockPrizeRepository) GetByDraw(ctx context.Context, drawID int64) (*models.Prize, error) {
	args := m.Called(ctx, drawID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Prize), args.Error(1)
}

func (m *MockPrizeRepository) List(ctx context.Context, limit int) ([]*models.Prize, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Prize), args.Error(1)
}

func (m *MockPrizeRepository) MarkDelivered(ctx context.Context, prizeID int64, code *string) (*models.Prize, error) {
	args := m.Called(ctx, prizeID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Prize), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher that records
// published events for assertions
type MockEventPublisher struct {
	Events []events.Event
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Events = append(m.Events, event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork that hands out the
// configured repository mocks
type MockUnitOfWork struct {
	mock.Mock

	UserRepo  *MockUserRepository
	TxnRepo   *MockTransactionRepository
	DrawRepo  *MockDrawRepository
	EntryRepo *MockEntryRepository
	PrizeRepo *MockPrizeRepository
	Publisher *MockEventPublisher
}

// NewMockUnitOfWork creates a mock unit of work with fresh repository mocks
func NewMockUnitOfWork() *MockUnitOfWork {
	return &MockUnitOfWork{
		UserRepo:  &MockUserRepository{},
		TxnRepo:   &MockTransactionRepository{},
		DrawRepo:  &MockDrawRepository{},
		EntryRepo: &MockEntryRepository{},
		PrizeRepo: &MockPrizeRepository{},
		Publisher: &MockEventPublisher{},
	}
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) UserRepository() UserRepository {
	return m.UserRepo
}

func (m *MockUnitOfWork) TransactionRepository() TransactionRepository {
	return m.TxnRepo
}

func (m *MockUnitOfWork) DrawRepository() DrawRepository {
	return m.DrawRepo
}

func (m *MockUnitOfWork) EntryRepository() EntryRepository {
	return m.EntryRepo
}

func (m *MockUnitOfWork) PrizeRepository() PrizeRepository {
	return m.PrizeRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.Publisher
}

// AssertExpectations asserts expectations on the unit of work and all its
// repository mocks
func (m *MockUnitOfWork) AssertExpectations(t mock.TestingT) bool {
	ok := m.Mock.AssertExpectations(t)
	ok = m.UserRepo.AssertExpectations(t) && ok
	ok = m.TxnRepo.AssertExpectations(t) && ok
	ok = m.DrawRepo.AssertExpectations(t) && ok
	ok = m.EntryRepo.AssertExpectations(t) && ok
	ok = m.PrizeRepo.AssertExpectations(t) && ok
	return ok
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory that
// returns a fixed sequence of units of work
type MockUnitOfWorkFactory struct {
	units []*MockUnitOfWork
	next  int
}

// NewMockUnitOfWorkFactory creates a factory returning the given units in order.
// The last unit is reused once the sequence is exhausted.
func NewMockUnitOfWorkFactory(units ...*MockUnitOfWork) *MockUnitOfWorkFactory {
	return &MockUnitOfWorkFactory{units: units}
}

func (f *MockUnitOfWorkFactory) Create() UnitOfWork {
	if len(f.units) == 0 {
		panic("no mock units of work configured")
	}
	uow := f.units[f.next]
	if f.next < len(f.units)-1 {
		f.next++
	}
	return uow
}
