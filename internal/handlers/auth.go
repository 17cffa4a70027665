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

// LoginServiceInterface defines the interface for login business logic
type LoginServiceInterface interface {
	Login(ctx context.Context, username, password, twoFactorCode string) (*services.LoginResult, error)
	VerifyToken(tokenString string) (*models.SessionClaims, error)
	ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error
}

// AuthHandler handles login, token verification, and password changes.
// Response field names match what the portal front end already consumes.
type AuthHandler struct {
	service           LoginServiceInterface
	minPasswordLength int
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service LoginServiceInterface, minPasswordLength int) *AuthHandler {
	return &AuthHandler{
		service:           service,
		minPasswordLength: minPasswordLength,
	}
}

// Request DTOs

// LoginRequest represents the request body for login
type LoginRequest struct {
	Username      string `json:"username" validate:"required"`
	Password      string `json:"password" validate:"required"`
	TwoFactorCode string `json:"twoFactorCode" validate:"omitempty,len=6,numeric"`
}

// ChangePasswordRequest represents the request body for password changes
type ChangePasswordRequest struct {
	Username    string `json:"username" validate:"required"`
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

// Response DTOs

// UserResponse is the profile shape returned to the front end
type UserResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

// LoginResponse is returned on a fully authenticated login
type LoginResponse struct {
	Success bool          `json:"success"`
	Token   string        `json:"token"`
	User    *UserResponse `json:"user"`
}

// TwoFactorRequiredResponse is returned when a code must be submitted
type TwoFactorRequiredResponse struct {
	Success           bool   `json:"success"`
	RequiresTwoFactor bool   `json:"requiresTwoFactor"`
	Message           string `json:"message"`
}

// SetupRequiredResponse is returned when the user has no secret enrolled
type SetupRequiredResponse struct {
	Success       bool   `json:"success"`
	RequiresSetup bool   `json:"requires2FASetup"`
	Message       string `json:"message"`
}

func profileToResponse(p *models.Profile) *UserResponse {
	name := p.DisplayName
	if name == "" {
		name = p.Username
	}
	return &UserResponse{
		Username: p.Username,
		Email:    p.Email,
		Name:     name,
	}
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	req.Username = strings.TrimSpace(req.Username)

	result, err := h.service.Login(r.Context(), req.Username, req.Password, req.TwoFactorCode)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidCredentials):
			// Bad password and unknown user produce the same response
			pkghttp.WriteUnauthorized(w, "Invalid credentials")
		case errors.Is(err, models.ErrInvalidTwoFactorCode):
			pkghttp.WriteError(w, http.StatusUnauthorized, "invalid_two_factor_code",
				"Invalid two-factor authentication code")
		case errors.Is(err, models.ErrDirectoryUnavailable):
			pkghttp.WriteServiceUnavailable(w, "Authentication service unavailable")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	switch result.Outcome {
	case services.OutcomeTwoFactorRequired:
		pkghttp.WriteJSON(w, http.StatusOK, TwoFactorRequiredResponse{
			RequiresTwoFactor: true,
			Message:           "Two-factor authentication code required",
		})
	case services.OutcomeEnrollmentRequired:
		pkghttp.WriteJSON(w, http.StatusForbidden, SetupRequiredResponse{
			RequiresSetup: true,
			Message:       "Two-factor authentication must be configured before first login",
		})
	case services.OutcomeAuthenticated:
		pkghttp.WriteJSON(w, http.StatusOK, LoginResponse{
			Success: true,
			Token:   result.Token,
			User:    profileToResponse(result.Profile),
		})
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}

// VerifyToken handles GET /api/auth/verify
func (h *AuthHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		pkghttp.WriteUnauthorized(w, "Token not provided")
		return
	}

	claims, err := h.service.VerifyToken(strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		// Single generic outcome for every verification failure
		pkghttp.WriteUnauthorized(w, "Invalid or expired token")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    profileToResponse(claims.Profile()),
	})
}

// ChangePassword handles POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if len(req.NewPassword) < h.minPasswordLength {
		pkghttp.WriteBadRequest(w, "New password is too short")
		return
	}

	err := h.service.ChangePassword(r.Context(), req.Username, req.OldPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidCredentials):
			pkghttp.WriteUnauthorized(w, "Current password is incorrect")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, err.Error())
		case errors.Is(err, models.ErrDirectoryUnavailable):
			pkghttp.WriteServiceUnavailable(w, "Directory service unavailable")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Password changed successfully",
	})
}
