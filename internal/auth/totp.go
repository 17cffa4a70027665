package auth

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"
)

const (
	totpPeriod     = 30
	totpSecretSize = 32 // 256 bits of entropy, base32-encoded
	totpSkew       = 2  // ±2 time steps of clock-drift tolerance
)

// EnrollmentKey is a freshly generated TOTP secret together with the
// otpauth:// provisioning URL an authenticator app can import.
type EnrollmentKey struct {
	Secret          string // base32-encoded
	ProvisioningURL string
}

// TOTPManager generates and validates time-based one-time passwords.
// All operations are pure functions over their inputs; nothing here
// touches storage.
type TOTPManager struct {
	issuer string
}

// NewTOTPManager creates a TOTP manager that embeds issuer in
// provisioning URLs.
func NewTOTPManager(issuer string) *TOTPManager {
	return &TOTPManager{issuer: issuer}
}

// GenerateSecret creates a new random TOTP secret for accountName.
// It does not persist anything; the caller owns the secret lifecycle.
func (tm *TOTPManager) GenerateSecret(accountName string) (*EnrollmentKey, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      tm.issuer,
		AccountName: accountName,
		SecretSize:  totpSecretSize,
		Period:      totpPeriod,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate TOTP secret: %w", err)
	}

	return &EnrollmentKey{
		Secret:          key.Secret(),
		ProvisioningURL: key.URL(),
	}, nil
}

// QRCodeDataURL renders a provisioning URL as a PNG data URL for the
// front end to display.
func (tm *TOTPManager) QRCodeDataURL(provisioningURL string) (string, error) {
	qr, err := qrcode.New(provisioningURL, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to create QR code: %w", err)
	}

	png, err := qr.PNG(200)
	if err != nil {
		return "", fmt.Errorf("failed to encode QR code: %w", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// ValidateCode checks a submitted 6-digit code against a base32 secret.
// Codes from up to two time steps before or after the current step are
// accepted. Malformed input (wrong length, non-digits) returns false
// rather than an error.
func (tm *TOTPManager) ValidateCode(secret, code string) bool {
	valid, err := totp.ValidateCustom(code, secret, time.Now().UTC(), totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      totpSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		// ValidateCustom errors only on malformed input
		return false
	}
	return valid
}

// GenerateCode returns the code for the current time step. Diagnostic
// and test use only.
func (tm *TOTPManager) GenerateCode(secret string) (string, error) {
	code, err := totp.GenerateCode(secret, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to generate TOTP code: %w", err)
	}
	return code, nil
}
