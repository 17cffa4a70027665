package services

import (
	"context"

	"github.com/urovesa/portal-api/internal/directory"
	"github.com/urovesa/portal-api/internal/models"
)

// MockAuthenticator implements directory.Authenticator for testing
type MockAuthenticator struct {
	AuthenticateFunc   func(ctx context.Context, username, password string) (*models.Profile, error)
	ChangePasswordFunc func(ctx context.Context, username, oldPassword, newPassword string) error
}

func (m *MockAuthenticator) Authenticate(ctx context.Context, username, password string) (*models.Profile, error) {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx, username, password)
	}
	return nil, directory.ErrUserNotFound
}

func (m *MockAuthenticator) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	if m.ChangePasswordFunc != nil {
		return m.ChangePasswordFunc(ctx, username, oldPassword, newPassword)
	}
	return directory.ErrUserNotFound
}

// MockSecretStore implements repositories.SecretStore for testing
type MockSecretStore struct {
	GetFunc       func(ctx context.Context, userID string) (*models.SecretRecord, error)
	HasFunc       func(ctx context.Context, userID string) (bool, error)
	IsEnabledFunc func(ctx context.Context, userID string) (bool, error)
	SaveFunc      func(ctx context.Context, userID, secret string) (*models.SecretRecord, error)
	EnableFunc    func(ctx context.Context, userID string) error
	DisableFunc   func(ctx context.Context, userID string) error
	ListFunc      func(ctx context.Context) ([]*models.SecretRecord, error)
}

func (m *MockSecretStore) Get(ctx context.Context, userID string) (*models.SecretRecord, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID)
	}
	return nil, models.ErrNotFound
}

func (m *MockSecretStore) Has(ctx context.Context, userID string) (bool, error) {
	if m.HasFunc != nil {
		return m.HasFunc(ctx, userID)
	}
	return false, nil
}

func (m *MockSecretStore) IsEnabled(ctx context.Context, userID string) (bool, error) {
	if m.IsEnabledFunc != nil {
		return m.IsEnabledFunc(ctx, userID)
	}
	return false, nil
}

func (m *MockSecretStore) Save(ctx context.Context, userID, secret string) (*models.SecretRecord, error) {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, userID, secret)
	}
	return &models.SecretRecord{UserID: userID, Secret: secret}, nil
}

func (m *MockSecretStore) Enable(ctx context.Context, userID string) error {
	if m.EnableFunc != nil {
		return m.EnableFunc(ctx, userID)
	}
	return nil
}

func (m *MockSecretStore) Disable(ctx context.Context, userID string) error {
	if m.DisableFunc != nil {
		return m.DisableFunc(ctx, userID)
	}
	return nil
}

func (m *MockSecretStore) List(ctx context.Context) ([]*models.SecretRecord, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []*models.SecretRecord{}, nil
}

// NewTestProfile returns a directory profile for the given username
func NewTestProfile(username string) *models.Profile {
	return &models.Profile{
		Username:    username,
		DisplayName: "Test User",
		Email:       username + "@urovesa.com",
	}
}
