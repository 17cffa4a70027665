// Package directory abstracts the corporate user directory. The login flow
// only ever sees the Authenticator interface; whether credentials are
// checked against Active Directory or the in-memory mock backend is decided
// once at composition time.
package directory

import (
	"context"
	"errors"

	"github.com/urovesa/portal-api/internal/models"
)

// Errors produced at the directory boundary. Callers must be able to
// distinguish "bad credentials" from "service unreachable"; everything a
// backend returns is one of these three.
var (
	ErrInvalidCredentials = errors.New("directory: invalid credentials")
	ErrUserNotFound       = errors.New("directory: user not found")
	ErrUnavailable        = errors.New("directory: service unavailable")
)

// Authenticator verifies primary credentials against a user directory.
type Authenticator interface {
	// Authenticate checks username/password and returns the user's profile.
	Authenticate(ctx context.Context, username, password string) (*models.Profile, error)

	// ChangePassword updates a user's password after re-validating the
	// current one.
	ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error
}
