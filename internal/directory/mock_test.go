package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockBackend_Authenticate_SeededUsers(t *testing.T) {
	b := NewMockBackend()
	ctx := context.Background()

	tests := []struct {
		username, password, email string
	}{
		{"testuser", "password123", "testuser@urovesa.com"},
		{"admin", "admin123", "admin@urovesa.com"},
		{"demo", "demo123", "demo@urovesa.com"},
	}

	for _, tc := range tests {
		profile, err := b.Authenticate(ctx, tc.username, tc.password)
		require.NoError(t, err, "user %s", tc.username)
		assert.Equal(t, tc.username, profile.Username)
		assert.Equal(t, tc.email, profile.Email)
		assert.NotEmpty(t, profile.DisplayName)
		assert.NotEmpty(t, profile.DN)
	}
}

func TestMockBackend_Authenticate_WrongPassword(t *testing.T) {
	b := NewMockBackend()

	profile, err := b.Authenticate(context.Background(), "testuser", "wrongpassword")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Nil(t, profile)
}

func TestMockBackend_Authenticate_UnknownUser(t *testing.T) {
	b := NewMockBackend()

	profile, err := b.Authenticate(context.Background(), "nobody", "password123")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Nil(t, profile)
}

func TestMockBackend_Authenticate_CancelledContext(t *testing.T) {
	b := NewMockBackend()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Authenticate(ctx, "testuser", "password123")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestMockBackend_AddUser(t *testing.T) {
	b := NewMockBackend()
	b.AddUser("alice", "s3cret", "Alice")

	profile, err := b.Authenticate(context.Background(), "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "alice@urovesa.com", profile.Email)
	assert.Equal(t, "Alice", profile.DisplayName)
}

func TestMockBackend_ChangePassword(t *testing.T) {
	b := NewMockBackend()
	ctx := context.Background()

	err := b.ChangePassword(ctx, "testuser", "password123", "newpassword456")
	require.NoError(t, err)

	// Old password stops working, new one authenticates
	_, err = b.Authenticate(ctx, "testuser", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = b.Authenticate(ctx, "testuser", "newpassword456")
	assert.NoError(t, err)
}

func TestMockBackend_ChangePassword_WrongCurrent(t *testing.T) {
	b := NewMockBackend()

	err := b.ChangePassword(context.Background(), "testuser", "wrong", "newpassword456")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestMockBackend_ChangePassword_UnknownUser(t *testing.T) {
	b := NewMockBackend()

	err := b.ChangePassword(context.Background(), "nobody", "x", "y")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
