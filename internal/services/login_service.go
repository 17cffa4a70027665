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

// LoginOutcome is the terminal state of one login attempt. Rejections are
// reported as errors, not outcomes.
type LoginOutcome string

const (
	// OutcomeAuthenticated: credentials and second factor verified, a
	// session token was issued.
	OutcomeAuthenticated LoginOutcome = "authenticated"

	// OutcomeTwoFactorRequired: credentials verified, a secret record
	// exists (enabled or not) and no code was supplied.
	OutcomeTwoFactorRequired LoginOutcome = "two_factor_required"

	// OutcomeEnrollmentRequired: credentials verified but the user has no
	// secret record; enrollment must be completed before any login succeeds.
	OutcomeEnrollmentRequired LoginOutcome = "enrollment_required"
)

// LoginResult carries the terminal outcome of a login attempt. Token and
// Profile are set only for OutcomeAuthenticated.
type LoginResult struct {
	Outcome LoginOutcome
	Token   string
	Profile *models.Profile
}

// LoginService coordinates the login decision sequence: primary-credential
// check, enrollment gate, second-factor requirement, code verification,
// and session token issuance. Each request runs the sequence from the top;
// there is no cross-request state beyond the secret store.
type LoginService struct {
	dir         directory.Authenticator
	secrets     repositories.SecretStore
	totp        *auth.TOTPManager
	tokens      *auth.TokenManager
	timingDelay *auth.TimingDelay
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewLoginService creates a new LoginService
func NewLoginService(
	dir directory.Authenticator,
	secrets repositories.SecretStore,
	totp *auth.TOTPManager,
	tokens *auth.TokenManager,
	timingDelay *auth.TimingDelay,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *LoginService {
	return &LoginService{
		dir:         dir,
		secrets:     secrets,
		totp:        totp,
		tokens:      tokens,
		timingDelay: timingDelay,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// Login runs one login attempt to a terminal outcome.
//
// Returned errors: models.ErrInvalidCredentials (also covers unknown
// users, to prevent enumeration), models.ErrInvalidTwoFactorCode,
// models.ErrDirectoryUnavailable, models.ErrInternalServer.
func (s *LoginService) Login(ctx context.Context, username, password, twoFactorCode string) (*LoginResult, error) {
	// 1. Primary credential check
	profile, err := s.dir.Authenticate(ctx, username, password)
	if err != nil {
		return nil, s.rejectCredentials(username, err)
	}

	// 2. Enrollment gate: no secret record means no login until the user
	// completes enrollment. This step creates nothing and issues nothing.
	hasSecret, err := s.secrets.Has(ctx, username)
	if err != nil {
		s.logger.Error("failed to check secret store", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if !hasSecret {
		s.logger.Info("login requires two-factor enrollment",
			slog.String("username", pkglogger.MaskUsername(username)))
		return &LoginResult{Outcome: OutcomeEnrollmentRequired}, nil
	}

	// 3. A record exists; without a code the user is routed to code entry.
	// This applies to unenabled secrets too: someone who scanned the QR
	// but never verified still gets the code prompt, not a silent login.
	if twoFactorCode == "" {
		return &LoginResult{Outcome: OutcomeTwoFactorRequired}, nil
	}

	// 4. Code verification
	record, err := s.secrets.Get(ctx, username)
	if err != nil {
		s.logger.Error("failed to load secret record", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !s.totp.ValidateCode(record.Secret, twoFactorCode) {
		s.timingDelay.Wait(false)
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			Username:      username,
			FailureReason: "invalid_two_factor_code",
			Success:       false,
		})
		// The secret stays intact; the user may retry with a fresh code.
		return nil, models.ErrInvalidTwoFactorCode
	}

	// First successful code both authenticates and activates 2FA. Enable
	// is idempotent, so two racing requests with the same code are safe.
	if !record.Enabled {
		if err := s.secrets.Enable(ctx, username); err != nil {
			s.logger.Error("failed to enable two-factor", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		s.logger.Info("two-factor enabled on first verified login",
			slog.String("username", pkglogger.MaskUsername(username)))
	}

	// 5. Token issuance
	token, err := s.tokens.GenerateSessionToken(profile)
	if err != nil {
		s.logger.Error("failed to generate session token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		Username:  username,
		Success:   true,
	})

	return &LoginResult{
		Outcome: OutcomeAuthenticated,
		Token:   token,
		Profile: profile,
	}, nil
}

// rejectCredentials maps directory-boundary errors onto the service's
// error taxonomy. Unknown users are reported as invalid credentials.
func (s *LoginService) rejectCredentials(username string, err error) error {
	switch {
	case errors.Is(err, directory.ErrInvalidCredentials),
		errors.Is(err, directory.ErrUserNotFound):
		s.timingDelay.Wait(false)
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			Username:      username,
			FailureReason: "invalid_credentials",
			Success:       false,
		})
		return models.ErrInvalidCredentials
	case errors.Is(err, directory.ErrUnavailable):
		s.logger.Error("directory unavailable during login", slog.Any("error", err))
		return models.ErrDirectoryUnavailable
	default:
		s.logger.Error("unexpected directory error", slog.Any("error", err))
		return models.ErrInternalServer
	}
}

// VerifyToken validates a session token and returns the embedded profile.
// All failures collapse to models.ErrUnauthorized.
func (s *LoginService) VerifyToken(tokenString string) (*models.SessionClaims, error) {
	return s.tokens.ValidateToken(tokenString)
}

// ChangePassword re-validates the current password and relays the change
// to the directory backend.
func (s *LoginService) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	err := s.dir.ChangePassword(ctx, username, oldPassword, newPassword)
	if err != nil {
		switch {
		case errors.Is(err, directory.ErrInvalidCredentials),
			errors.Is(err, directory.ErrUserNotFound):
			s.auditLogger.LogPasswordChange(username, "", false)
			return models.ErrInvalidCredentials
		case errors.Is(err, directory.ErrUnavailable):
			s.logger.Error("directory unavailable during password change", slog.Any("error", err))
			return models.ErrDirectoryUnavailable
		case errors.Is(err, models.ErrBadRequest):
			// Directory policy rejection; message is safe to surface
			return err
		default:
			s.logger.Error("unexpected password change error", slog.Any("error", err))
			return models.ErrInternalServer
		}
	}

	s.auditLogger.LogPasswordChange(username, "", true)
	return nil
}
