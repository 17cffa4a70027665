package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/urovesa/portal-api/internal/models"
	"github.com/urovesa/portal-api/internal/services"
)

// ============================================================================
// Setup Tests
// ============================================================================

func TestTwoFactorHandler_Setup_Success(t *testing.T) {
	service := &MockTwoFactorService{
		SetupFunc: func(ctx context.Context, username, password string) (*services.SetupResult, error) {
			assert.Equal(t, "testuser", username)
			return &services.SetupResult{
				Secret:          "JBSWY3DPEHPK3PXP",
				ProvisioningURL: "otpauth://totp/Portal%20Empleado%20UROVESA:testuser",
				QRCode:          "data:image/png;base64,abc123",
			}, nil
		},
	}
	handler := NewTwoFactorHandler(service)

	rec := postJSON(t, handler.Setup, "/api/auth/2fa/setup", SetupRequest{Username: "testuser"})

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "JBSWY3DPEHPK3PXP", body["secret"])
	assert.Equal(t, "data:image/png;base64,abc123", body["qrCode"])
	assert.Contains(t, body["otpauth_url"], "otpauth://totp/")
}

func TestTwoFactorHandler_Setup_Conflict(t *testing.T) {
	service := &MockTwoFactorService{
		SetupFunc: func(ctx context.Context, username, password string) (*services.SetupResult, error) {
			return nil, models.ErrConflict
		},
	}
	handler := NewTwoFactorHandler(service)

	rec := postJSON(t, handler.Setup, "/api/auth/2fa/setup", SetupRequest{Username: "testuser"})

	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decodeBody(t, rec)
	assert.Contains(t, body["message"], "already configured")
}

func TestTwoFactorHandler_Setup_BadCredentials(t *testing.T) {
	service := &MockTwoFactorService{
		SetupFunc: func(ctx context.Context, username, password string) (*services.SetupResult, error) {
			return nil, models.ErrInvalidCredentials
		},
	}
	handler := NewTwoFactorHandler(service)

	rec := postJSON(t, handler.Setup, "/api/auth/2fa/setup", SetupRequest{
		Username: "testuser",
		Password: "wrong",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTwoFactorHandler_Setup_MissingUsername(t *testing.T) {
	handler := NewTwoFactorHandler(&MockTwoFactorService{})

	rec := postJSON(t, handler.Setup, "/api/auth/2fa/setup", SetupRequest{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ============================================================================
// Verify Tests
// ============================================================================

func TestTwoFactorHandler_Verify_Success(t *testing.T) {
	service := &MockTwoFactorService{
		VerifyFunc: func(ctx context.Context, username, code string) error {
			assert.Equal(t, "testuser", username)
			assert.Equal(t, "123456", code)
			return nil
		},
	}
	handler := NewTwoFactorHandler(service)

	rec := postJSON(t, handler.Verify, "/api/auth/2fa/verify", VerifyRequest{
		Username: "testuser",
		Code:     "123456",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
}

func TestTwoFactorHandler_Verify_InvalidCode(t *testing.T) {
	service := &MockTwoFactorService{
		VerifyFunc: func(ctx context.Context, username, code string) error {
			return models.ErrInvalidTwoFactorCode
		},
	}
	handler := NewTwoFactorHandler(service)

	rec := postJSON(t, handler.Verify, "/api/auth/2fa/verify", VerifyRequest{
		Username: "testuser",
		Code:     "654321",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTwoFactorHandler_Verify_NotEnrolled(t *testing.T) {
	service := &MockTwoFactorService{
		VerifyFunc: func(ctx context.Context, username, code string) error {
			return models.ErrNotFound
		},
	}
	handler := NewTwoFactorHandler(service)

	rec := postJSON(t, handler.Verify, "/api/auth/2fa/verify", VerifyRequest{
		Username: "testuser",
		Code:     "123456",
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTwoFactorHandler_Verify_MalformedCode(t *testing.T) {
	called := false
	service := &MockTwoFactorService{
		VerifyFunc: func(ctx context.Context, username, code string) error {
			called = true
			return nil
		},
	}
	handler := NewTwoFactorHandler(service)

	for _, code := range []string{"", "12345", "abcdef"} {
		rec := postJSON(t, handler.Verify, "/api/auth/2fa/verify", VerifyRequest{
			Username: "testuser",
			Code:     code,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code, "code %q", code)
	}
	assert.False(t, called)
}

// ============================================================================
// Status and Disable Tests
// ============================================================================

func TestTwoFactorHandler_Status(t *testing.T) {
	service := &MockTwoFactorService{
		StatusFunc: func(ctx context.Context, username string) (bool, error) {
			return username == "testuser", nil
		},
	}
	handler := NewTwoFactorHandler(service)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/2fa/status?username=testuser", nil)
	rec := httptest.NewRecorder()
	handler.Status(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["enabled"])
}

func TestTwoFactorHandler_Status_MissingUsername(t *testing.T) {
	handler := NewTwoFactorHandler(&MockTwoFactorService{})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/2fa/status", nil)
	rec := httptest.NewRecorder()
	handler.Status(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTwoFactorHandler_Disable(t *testing.T) {
	disabled := ""
	service := &MockTwoFactorService{
		DisableFunc: func(ctx context.Context, username string) error {
			disabled = username
			return nil
		},
	}
	handler := NewTwoFactorHandler(service)

	rec := postJSON(t, handler.Disable, "/api/auth/2fa/disable", DisableRequest{Username: "testuser"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "testuser", disabled)
}
