package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/medinodus/internal/remote"
)

// MedicalPush is one recorded UpdateMedicalHistory call.
type MedicalPush struct {
	Token   string
	History remote.MedicalHistory
}

// MockMedicalService implements remote.MedicalService for testing
type MockMedicalService struct {
	// GetFn allows test cases to mock the GetMedicalHistory behavior
	GetFn func(ctx context.Context, token string) (remote.MedicalHistory, error)

	// UpdateFn allows test cases to mock the UpdateMedicalHistory behavior
	UpdateFn func(ctx context.Context, token string, history remote.MedicalHistory) error

	// Default values used when functions aren't explicitly defined.
	// A zero History with nil GetErr is returned as remote.ErrNotFound.
	History remote.MedicalHistory
	GetErr  error

	mu     sync.Mutex
	gets   []string
	pushes []MedicalPush
}

var _ remote.MedicalService = (*MockMedicalService)(nil)

// GetMedicalHistory implements the remote.MedicalService interface
func (m *MockMedicalService) GetMedicalHistory(ctx context.Context, token string) (remote.MedicalHistory, error) {
	m.mu.Lock()
	m.gets = append(m.gets, token)
	m.mu.Unlock()

	if m.GetFn != nil {
		return m.GetFn(ctx, token)
	}
	if m.GetErr != nil {
		return remote.MedicalHistory{}, m.GetErr
	}
	if m.History == (remote.MedicalHistory{}) {
		return remote.MedicalHistory{}, remote.ErrNotFound
	}
	return m.History, nil
}

// UpdateMedicalHistory implements the remote.MedicalService interface.
// The call is recorded before UpdateFn runs, so the record reflects
// dispatch order.
func (m *MockMedicalService) UpdateMedicalHistory(ctx context.Context, token string, history remote.MedicalHistory) error {
	m.mu.Lock()
	m.pushes = append(m.pushes, MedicalPush{Token: token, History: history})
	m.mu.Unlock()

	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, token, history)
	}
	return nil
}

// Gets returns the tokens GetMedicalHistory was called with.
func (m *MockMedicalService) Gets() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.gets...)
}

// Pushes returns the recorded UpdateMedicalHistory calls in dispatch order.
func (m *MockMedicalService) Pushes() []MedicalPush {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MedicalPush(nil), m.pushes...)
}
