package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/medinodus/internal/remote"
)

// MockAuthService implements remote.AuthService for testing
type MockAuthService struct {
	// LoginFn allows test cases to mock the Login behavior
	LoginFn func(ctx context.Context, email, password string) (remote.LoginResult, error)

	// RegisterFn allows test cases to mock the Register behavior
	RegisterFn func(ctx context.Context, email, password, fullName string) error

	// LogoutFn allows test cases to mock the Logout behavior
	LogoutFn func(ctx context.Context, token string) error

	// Default values used when functions aren't explicitly defined
	Token string
	Err   error

	mu           sync.Mutex
	loginCalls   []string
	logoutTokens []string
}

var _ remote.AuthService = (*MockAuthService)(nil)

// Login implements the remote.AuthService interface
func (m *MockAuthService) Login(ctx context.Context, email, password string) (remote.LoginResult, error) {
	m.mu.Lock()
	m.loginCalls = append(m.loginCalls, email)
	m.mu.Unlock()

	if m.LoginFn != nil {
		return m.LoginFn(ctx, email, password)
	}
	if m.Err != nil {
		return remote.LoginResult{}, m.Err
	}
	return remote.LoginResult{AccessToken: m.Token, TokenType: "bearer"}, nil
}

// Register implements the remote.AuthService interface
func (m *MockAuthService) Register(ctx context.Context, email, password, fullName string) error {
	if m.RegisterFn != nil {
		return m.RegisterFn(ctx, email, password, fullName)
	}
	return m.Err
}

// Logout implements the remote.AuthService interface
func (m *MockAuthService) Logout(ctx context.Context, token string) error {
	m.mu.Lock()
	m.logoutTokens = append(m.logoutTokens, token)
	m.mu.Unlock()

	if m.LogoutFn != nil {
		return m.LogoutFn(ctx, token)
	}
	return nil
}

// LoginCalls returns the emails Login was called with.
func (m *MockAuthService) LoginCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.loginCalls...)
}

// LogoutTokens returns the tokens Logout was called with.
func (m *MockAuthService) LogoutTokens() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.logoutTokens...)
}
