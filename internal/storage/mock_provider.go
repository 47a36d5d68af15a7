package storage

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockPersister is a mock implementation of the Persister interface for testing.
type MockPersister struct {
	mock.Mock
}

// Persist is the mock implementation of the Persist method.
func (m *MockPersister) Persist(ctx context.Context, dir, name string, data []byte) (string, error) {
	args := m.Called(ctx, dir, name, data)
	return args.String(0), args.Error(1) //nolint:wrapcheck
}
