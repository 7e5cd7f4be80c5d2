package grant

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/mdks/dexrewards/pkg/domain"
)

// MockExecutor is a mock implementation of Executor for testing.
// It uses testify/mock to allow test assertions on method calls.
type MockExecutor struct {
	mock.Mock
}

// Apply mocks applying a reward action.
func (m *MockExecutor) Apply(ctx context.Context, playerID uuid.UUID, action domain.RewardAction) error {
	args := m.Called(ctx, playerID, action)
	return args.Error(0)
}

// NewMockExecutor creates a new mock grant executor.
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{}
}
