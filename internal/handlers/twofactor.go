package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/urovesa/portal-api/internal/models"
	"github.com/urovesa/portal-api/internal/services"
	pkghttp "github.com/urovesa/portal-api/pkg/http"
)

// TwoFactorServiceInterface defines the interface for enrollment logic
type TwoFactorServiceInterface interface {
	Setup(ctx context.Context, username, password string) (*services.SetupResult, error)
	Verify(ctx context.Context, username, code string) error
	Status(ctx context.Context, username string) (bool, error)
	Disable(ctx context.Context, username string) error
}

// TwoFactorHandler handles TOTP enrollment endpoints
type TwoFactorHandler struct {
	service TwoFactorServiceInterface
}

// NewTwoFactorHandler creates a new TwoFactorHandler
func NewTwoFactorHandler(service TwoFactorServiceInterface) *TwoFactorHandler {
	return &TwoFactorHandler{service: service}
}

// SetupRequest represents the request body for enrollment setup.
// Password is optional: when present, directory credentials are
// re-validated so enrollment can precede the first login.
type SetupRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password"`
}

// SetupResponse carries everything the front end needs to show the
// enrollment screen.
type SetupResponse struct {
	Success         bool   `json:"success"`
	Secret          string `json:"secret"`
	QRCode          string `json:"qrCode"`
	ProvisioningURL string `json:"otpauth_url"`
}

// VerifyRequest represents the request body for enrollment verification
type VerifyRequest struct {
	Username string `json:"username" validate:"required"`
	Code     string `json:"code" validate:"required,len=6,numeric"`
}

// DisableRequest represents the request body for disabling two-factor
type DisableRequest struct {
	Username string `json:"username" validate:"required"`
}

// Setup handles POST /api/auth/2fa/setup
func (h *TwoFactorHandler) Setup(w http.ResponseWriter, r *http.Request) {
	var req SetupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	req.Username = strings.TrimSpace(req.Username)

	result, err := h.service.Setup(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrConflict):
			// An existing record is never overwritten: the user may have
			// already scanned the QR and only needs to enter a code.
			pkghttp.WriteConflict(w,
				"Two-factor authentication is already configured for this user. "+
					"Enter the 6-digit code from your authenticator app, or contact an administrator.")
		case errors.Is(err, models.ErrInvalidCredentials):
			pkghttp.WriteUnauthorized(w, "Invalid credentials")
		case errors.Is(err, models.ErrDirectoryUnavailable):
			pkghttp.WriteServiceUnavailable(w, "Authentication service unavailable")
		default:
			pkghttp.WriteInternalError(w, "Failed to configure two-factor authentication")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, SetupResponse{
		Success:         true,
		Secret:          result.Secret,
		QRCode:          result.QRCode,
		ProvisioningURL: result.ProvisioningURL,
	})
}

// Verify handles POST /api/auth/2fa/verify
func (h *TwoFactorHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	err := h.service.Verify(r.Context(), strings.TrimSpace(req.Username), req.Code)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Two-factor authentication is not configured for this user")
		case errors.Is(err, models.ErrInvalidTwoFactorCode):
			pkghttp.WriteError(w, http.StatusUnauthorized, "invalid_code", "Invalid code")
		default:
			pkghttp.WriteInternalError(w, "Failed to verify two-factor code")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Two-factor authentication enabled",
	})
}

// Status handles GET /api/auth/2fa/status?username=
func (h *TwoFactorHandler) Status(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		pkghttp.WriteBadRequest(w, "username is required")
		return
	}

	enabled, err := h.service.Status(r.Context(), username)
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to check two-factor status")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"enabled": enabled,
	})
}

// Disable handles POST /api/auth/2fa/disable. Registered only in
// development environments; it deletes the user's secret outright.
func (h *TwoFactorHandler) Disable(w http.ResponseWriter, r *http.Request) {
	var req DisableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.Disable(r.Context(), strings.TrimSpace(req.Username)); err != nil {
		pkghttp.WriteInternalError(w, "Failed to disable two-factor authentication")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Two-factor authentication disabled",
	})
}
