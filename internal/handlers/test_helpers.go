package handlers

import (
	"context"

	"github.com/urovesa/portal-api/internal/models"
	"github.com/urovesa/portal-api/internal/services"
)

// MockLoginService implements LoginServiceInterface for testing
type MockLoginService struct {
	LoginFunc          func(ctx context.Context, username, password, twoFactorCode string) (*services.LoginResult, error)
	VerifyTokenFunc    func(tokenString string) (*models.SessionClaims, error)
	ChangePasswordFunc func(ctx context.Context, username, oldPassword, newPassword string) error
}

func (m *MockLoginService) Login(ctx context.Context, username, password, twoFactorCode string) (*services.LoginResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, username, password, twoFactorCode)
	}
	return nil, models.ErrInvalidCredentials
}

func (m *MockLoginService) VerifyToken(tokenString string) (*models.SessionClaims, error) {
	if m.VerifyTokenFunc != nil {
		return m.VerifyTokenFunc(tokenString)
	}
	return nil, models.ErrUnauthorized
}

func (m *MockLoginService) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	if m.ChangePasswordFunc != nil {
		return m.ChangePasswordFunc(ctx, username, oldPassword, newPassword)
	}
	return models.ErrInvalidCredentials
}

// MockTwoFactorService implements TwoFactorServiceInterface for testing
type MockTwoFactorService struct {
	SetupFunc   func(ctx context.Context, username, password string) (*services.SetupResult, error)
	VerifyFunc  func(ctx context.Context, username, code string) error
	StatusFunc  func(ctx context.Context, username string) (bool, error)
	DisableFunc func(ctx context.Context, username string) error
}

func (m *MockTwoFactorService) Setup(ctx context.Context, username, password string) (*services.SetupResult, error) {
	if m.SetupFunc != nil {
		return m.SetupFunc(ctx, username, password)
	}
	return nil, models.ErrInternalServer
}

func (m *MockTwoFactorService) Verify(ctx context.Context, username, code string) error {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, username, code)
	}
	return models.ErrNotFound
}

func (m *MockTwoFactorService) Status(ctx context.Context, username string) (bool, error) {
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx, username)
	}
	return false, nil
}

func (m *MockTwoFactorService) Disable(ctx context.Context, username string) error {
	if m.DisableFunc != nil {
		return m.DisableFunc(ctx, username)
	}
	return nil
}
