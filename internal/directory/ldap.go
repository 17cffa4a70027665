package directory

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/go-ldap/ldap/v3"
	"github.com/urovesa/portal-api/internal/config"
	"github.com/urovesa/portal-api/internal/models"
)

// LDAPBackend authenticates users against LDAP / Active Directory.
// Each operation opens a fresh connection; AD closes idle binds
// aggressively and login traffic is low enough that pooling isn't worth it.
type LDAPBackend struct {
	cfg    config.DirectoryConfig
	logger *slog.Logger
}

// NewLDAPBackend creates an LDAP-backed Authenticator.
func NewLDAPBackend(cfg config.DirectoryConfig, logger *slog.Logger) *LDAPBackend {
	return &LDAPBackend{cfg: cfg, logger: logger}
}

func (b *LDAPBackend) dial(ctx context.Context) (*ldap.Conn, error) {
	conn, err := ldap.DialURL(b.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrUnavailable, b.cfg.URL, err)
	}
	conn.SetTimeout(b.cfg.Timeout)

	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining > 0 && remaining < b.cfg.Timeout {
			conn.SetTimeout(remaining)
		}
	}

	return conn, nil
}

// userDN formats the configured DN template for a username. Used as a
// fallback when the admin search can't locate the entry.
func (b *LDAPBackend) userDN(username string) string {
	dn := strings.ReplaceAll(b.cfg.UserDNFormat, "{username}", ldap.EscapeDN(username))
	return strings.ReplaceAll(dn, "{baseDN}", b.cfg.BaseDN)
}

// searchUser binds as the admin account and looks up the user's entry.
func (b *LDAPBackend) searchUser(conn *ldap.Conn, username string) (*ldap.Entry, error) {
	if err := conn.Bind(b.cfg.AdminDN, b.cfg.AdminPassword); err != nil {
		return nil, fmt.Errorf("%w: admin bind: %v", ErrUnavailable, err)
	}

	filter := strings.ReplaceAll(b.cfg.SearchFilter, "{username}", ldap.EscapeFilter(username))
	req := ldap.NewSearchRequest(
		b.cfg.BaseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 1, 0, false,
		filter,
		[]string{"cn", "displayName", "mail", "sAMAccountName", "userPrincipalName"},
		nil,
	)

	res, err := conn.Search(req)
	if err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultNoSuchObject) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: search: %v", ErrUnavailable, err)
	}

	if len(res.Entries) == 0 {
		return nil, ErrUserNotFound
	}

	return res.Entries[0], nil
}

// Authenticate implements Authenticator. It locates the user's DN via an
// admin search, then binds as the user to verify the password.
func (b *LDAPBackend) Authenticate(ctx context.Context, username, password string) (*models.Profile, error) {
	conn, err := b.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	entry, err := b.searchUser(conn, username)
	if err != nil {
		if err == ErrUserNotFound {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if err := conn.Bind(entry.DN, password); err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: user bind: %v", ErrUnavailable, err)
	}

	return profileFromEntry(username, entry), nil
}

// ChangePassword implements Authenticator. It verifies the current
// password with a user bind, then replaces unicodePwd as the admin
// account (the AD-specific password change operation).
func (b *LDAPBackend) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	conn, err := b.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	entry, err := b.searchUser(conn, username)
	var userDN string
	switch {
	case err == nil:
		userDN = entry.DN
	case err == ErrUserNotFound:
		return ErrUserNotFound
	default:
		// Search unavailable; fall back to the configured DN template
		userDN = b.userDN(username)
	}

	if err := conn.Bind(userDN, oldPassword); err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("%w: user bind: %v", ErrUnavailable, err)
	}

	if err := conn.Bind(b.cfg.AdminDN, b.cfg.AdminPassword); err != nil {
		return fmt.Errorf("%w: admin bind: %v", ErrUnavailable, err)
	}

	modify := ldap.NewModifyRequest(userDN, nil)
	modify.Replace("unicodePwd", []string{encodeUnicodePwd(newPassword)})

	if err := conn.Modify(modify); err != nil {
		switch {
		case ldap.IsErrorWithCode(err, ldap.LDAPResultUnwillingToPerform):
			return fmt.Errorf("password rejected by directory policy: %w", models.ErrBadRequest)
		case ldap.IsErrorWithCode(err, ldap.LDAPResultConstraintViolation):
			return fmt.Errorf("password does not meet complexity requirements: %w", models.ErrBadRequest)
		}
		return fmt.Errorf("%w: modify: %v", ErrUnavailable, err)
	}

	b.logger.Info("directory password changed", slog.String("dn", userDN))
	return nil
}

func profileFromEntry(username string, entry *ldap.Entry) *models.Profile {
	displayName := entry.GetAttributeValue("displayName")
	if displayName == "" {
		displayName = entry.GetAttributeValue("cn")
	}
	if displayName == "" {
		displayName = username
	}

	email := entry.GetAttributeValue("mail")
	if email == "" {
		email = entry.GetAttributeValue("userPrincipalName")
	}

	return &models.Profile{
		Username:    username,
		DisplayName: displayName,
		Email:       email,
		DN:          entry.DN,
	}
}

// encodeUnicodePwd encodes a password the way Active Directory expects:
// surrounded by double quotes and encoded as UTF-16LE.
func encodeUnicodePwd(password string) string {
	quoted := utf16.Encode([]rune(`"` + password + `"`))
	buf := make([]byte, len(quoted)*2)
	for i, r := range quoted {
		binary.LittleEndian.PutUint16(buf[i*2:], r)
	}
	return string(buf)
}
