package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/urovesa/portal-api/internal/auth"
	"github.com/urovesa/portal-api/internal/directory"
	"github.com/urovesa/portal-api/internal/models"
	"github.com/urovesa/portal-api/internal/repositories"
	pkglogger "github.com/urovesa/portal-api/pkg/logger"
)

// SetupResult is returned from enrollment setup: the raw secret for manual
// entry, the otpauth URL, and a QR code rendering of it.
type SetupResult struct {
	Secret          string
	ProvisioningURL string
	QRCode          string // PNG data URL
}

// TwoFactorService manages the TOTP enrollment lifecycle: setup creates an
// unenabled secret, verify flips it to enabled, disable removes it.
type TwoFactorService struct {
	dir     directory.Authenticator
	secrets repositories.SecretStore
	totp    *auth.TOTPManager
	logger  *slog.Logger
}

// NewTwoFactorService creates a new TwoFactorService
func NewTwoFactorService(
	dir directory.Authenticator,
	secrets repositories.SecretStore,
	totp *auth.TOTPManager,
	logger *slog.Logger,
) *TwoFactorService {
	return &TwoFactorService{
		dir:     dir,
		secrets: secrets,
		totp:    totp,
		logger:  logger,
	}
}

// Setup generates and persists a fresh unenabled secret for username.
//
// When password is non-empty the directory credentials are re-validated
// first, so enrollment can happen before the user's first session exists.
// Setup refuses with models.ErrConflict if ANY record already exists,
// enabled or not: overwriting would silently invalidate an authenticator
// the user may have already scanned.
func (s *TwoFactorService) Setup(ctx context.Context, username, password string) (*SetupResult, error) {
	if password != "" {
		if _, err := s.dir.Authenticate(ctx, username, password); err != nil {
			switch {
			case errors.Is(err, directory.ErrInvalidCredentials),
				errors.Is(err, directory.ErrUserNotFound):
				return nil, models.ErrInvalidCredentials
			case errors.Is(err, directory.ErrUnavailable):
				return nil, models.ErrDirectoryUnavailable
			default:
				s.logger.Error("unexpected directory error during setup", slog.Any("error", err))
				return nil, models.ErrInternalServer
			}
		}
	}

	hasSecret, err := s.secrets.Has(ctx, username)
	if err != nil {
		s.logger.Error("failed to check secret store", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if hasSecret {
		return nil, models.ErrConflict
	}

	key, err := s.totp.GenerateSecret(username)
	if err != nil {
		s.logger.Error("failed to generate TOTP secret", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if _, err := s.secrets.Save(ctx, username, key.Secret); err != nil {
		s.logger.Error("failed to persist TOTP secret", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	qrCode, err := s.totp.QRCodeDataURL(key.ProvisioningURL)
	if err != nil {
		s.logger.Error("failed to render QR code", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("two-factor setup initiated",
		slog.String("username", pkglogger.MaskUsername(username)))

	return &SetupResult{
		Secret:          key.Secret,
		ProvisioningURL: key.ProvisioningURL,
		QRCode:          qrCode,
	}, nil
}

// Verify checks the first code against the stored secret and enables the
// record. Returns models.ErrNotFound when no secret exists and
// models.ErrInvalidTwoFactorCode on a bad code.
func (s *TwoFactorService) Verify(ctx context.Context, username, code string) error {
	record, err := s.secrets.Get(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to load secret record", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if !s.totp.ValidateCode(record.Secret, code) {
		return models.ErrInvalidTwoFactorCode
	}

	if err := s.secrets.Enable(ctx, username); err != nil {
		s.logger.Error("failed to enable two-factor", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("two-factor enabled",
		slog.String("username", pkglogger.MaskUsername(username)))
	return nil
}

// Status reports whether username has a verified, active secret.
func (s *TwoFactorService) Status(ctx context.Context, username string) (bool, error) {
	enabled, err := s.secrets.IsEnabled(ctx, username)
	if err != nil {
		s.logger.Error("failed to check two-factor status", slog.Any("error", err))
		return false, models.ErrInternalServer
	}
	return enabled, nil
}

// Disable deletes the user's secret record entirely. Exposed only on the
// development router as the reset path for abandoned enrollments.
func (s *TwoFactorService) Disable(ctx context.Context, username string) error {
	if err := s.secrets.Disable(ctx, username); err != nil && !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to disable two-factor", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("two-factor disabled",
		slog.String("username", pkglogger.MaskUsername(username)))
	return nil
}
