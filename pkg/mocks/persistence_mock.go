package mocks

import (
	"context"

	"github.com/dukex/flowforge/pkg/models"
	"github.com/dukex/flowforge/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockFlowRepository is a mock implementation of persistence.FlowRepository interface.
type MockFlowRepository struct {
	mock.Mock
}

func (m *MockFlowRepository) GetByCode(ctx context.Context, code string) (*models.Flow, error) {
	args := m.Called(ctx, code)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Flow), args.Error(1)
}

func (m *MockFlowRepository) Save(ctx context.Context, flow *models.Flow) error {
	args := m.Called(ctx, flow)

	return args.Error(0)
}

func (m *MockFlowRepository) Remove(ctx context.Context, flow *models.Flow) error {
	args := m.Called(ctx, flow)

	return args.Error(0)
}

func (m *MockFlowRepository) List(ctx context.Context, opts persistence.ListFlowsOptions) ([]*models.Flow, error) {
	args := m.Called(ctx, opts)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Flow), args.Error(1)
}

// MockFlowVersionRepository is a mock implementation of persistence.FlowVersionRepository interface.
type MockFlowVersionRepository struct {
	mock.Mock
}

func (m *MockFlowVersionRepository) Create(ctx context.Context, version *models.FlowVersion) error {
	args := m.Called(ctx, version)

	return args.Error(0)
}

func (m *MockFlowVersionRepository) GetByFlowCodeAndCode(ctx context.Context, flowCode, code string) (*models.FlowVersion, error) {
	args := m.Called(ctx, flowCode, code)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.FlowVersion), args.Error(1)
}

func (m *MockFlowVersionRepository) GetLastVersion(ctx context.Context, flowCode string) (*models.FlowVersion, error) {
	args := m.Called(ctx, flowCode)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.FlowVersion), args.Error(1)
}

func (m *MockFlowVersionRepository) ListByFlowCode(ctx context.Context, flowCode string) ([]*models.FlowVersion, error) {
	args := m.Called(ctx, flowCode)

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.FlowVersion), args.Error(1)
}

// MockPersistence is a mock implementation of persistence.Persistence interface.
// Transaction runs the callback against the same mock repositories.
type MockPersistence struct {
	mock.Mock

	FlowRepo    *MockFlowRepository
	VersionRepo *MockFlowVersionRepository
}

// NewMockPersistence creates a MockPersistence with fresh repository mocks.
func NewMockPersistence() *MockPersistence {
	return &MockPersistence{
		FlowRepo:    &MockFlowRepository{},
		VersionRepo: &MockFlowVersionRepository{},
	}
}

func (m *MockPersistence) Flows() persistence.FlowRepository {
	return m.FlowRepo
}

func (m *MockPersistence) Versions() persistence.FlowVersionRepository {
	return m.VersionRepo
}

func (m *MockPersistence) Transaction(ctx context.Context, fn func(ctx context.Context, repos persistence.Repositories) error) error {
	return fn(ctx, m)
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
