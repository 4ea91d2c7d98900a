package mocks

import (
	"context"
	"sync"

	"github.com/example/storefront/internal/readmodel"
)

// MockActivityStore is a mock implementation of ActivityStoreInterface for testing
type MockActivityStore struct {
	mu   sync.RWMutex
	data map[string]*readmodel.CartActivityReadModel

	// For tracking calls in tests
	SaveCalls []readmodel.CartActivityReadModel
	GetErr    error
	SaveErr   error
}

// NewMockActivityStore creates a new MockActivityStore
func NewMockActivityStore() *MockActivityStore {
	return &MockActivityStore{
		data: make(map[string]*readmodel.CartActivityReadModel),
	}
}

// GetCartActivity returns a copy of the stored activity
func (m *MockActivityStore) GetCartActivity(_ context.Context, cartToken string) (*readmodel.CartActivityReadModel, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.GetErr != nil {
		return nil, false, m.GetErr
	}
	a, ok := m.data[cartToken]
	if !ok {
		return nil, false, nil
	}
	cp := *a
	return &cp, true, nil
}

// SaveCartActivity stores a copy of the activity
func (m *MockActivityStore) SaveCartActivity(_ context.Context, a *readmodel.CartActivityReadModel) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SaveCalls = append(m.SaveCalls, *a)
	if m.SaveErr != nil {
		return m.SaveErr
	}
	cp := *a
	m.data[a.CartToken] = &cp
	return nil
}

// SetData seeds the store directly (for test setup)
func (m *MockActivityStore) SetData(a *readmodel.CartActivityReadModel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.data[a.CartToken] = &cp
}

// GetData reads the store directly (for test assertions)
func (m *MockActivityStore) GetData(cartToken string) (*readmodel.CartActivityReadModel, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.data[cartToken]
	return a, ok
}
