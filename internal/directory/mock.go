package directory

import (
	"context"
	"fmt"
	"sync"

	"github.com/urovesa/portal-api/internal/models"
	"golang.org/x/crypto/bcrypt"
)

type mockUser struct {
	profile      models.Profile
	passwordHash []byte
}

// MockBackend is an in-memory Authenticator for development and tests.
// Enabled with MOCK_AUTH=true; no LDAP server required.
type MockBackend struct {
	mu    sync.RWMutex
	users map[string]*mockUser
}

// NewMockBackend creates a backend seeded with the standard test users
// (testuser/password123, admin/admin123, demo/demo123).
func NewMockBackend() *MockBackend {
	b := &MockBackend{users: make(map[string]*mockUser)}

	seed := []struct {
		username, password, displayName string
	}{
		{"testuser", "password123", "Usuario de Prueba"},
		{"admin", "admin123", "Administrador"},
		{"demo", "demo123", "Usuario Demo"},
	}
	for _, u := range seed {
		b.AddUser(u.username, u.password, u.displayName)
	}

	return b
}

// AddUser registers a user; existing entries are replaced.
func (b *MockBackend) AddUser(username, password, displayName string) {
	// Cost 4 keeps test suites fast; these are throwaway credentials.
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(fmt.Sprintf("mock directory: hash password: %v", err))
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.users[username] = &mockUser{
		profile: models.Profile{
			Username:    username,
			DisplayName: displayName,
			Email:       username + "@urovesa.com",
			DN:          fmt.Sprintf("CN=%s,CN=Users,DC=urovesa,DC=com", username),
		},
		passwordHash: hash,
	}
}

// Authenticate implements Authenticator.
func (b *MockBackend) Authenticate(ctx context.Context, username, password string) (*models.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, ErrUnavailable
	}

	b.mu.RLock()
	user, ok := b.users[username]
	b.mu.RUnlock()

	if !ok {
		return nil, ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword(user.passwordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	profile := user.profile
	return &profile, nil
}

// ChangePassword implements Authenticator.
func (b *MockBackend) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	if err := ctx.Err(); err != nil {
		return ErrUnavailable
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	user, ok := b.users[username]
	if !ok {
		return ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword(user.passwordHash, []byte(oldPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.MinCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.passwordHash = hash

	return nil
}
