package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Directory DirectoryConfig
	Therefore ThereforeConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
	TrustedProxies []string
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

type AuthConfig struct {
	JWTSecret          string
	SessionTokenExpiry time.Duration
	TOTPIssuer         string
	MinPasswordLength  int
}

// DirectoryConfig selects and configures the directory backend.
// When MockAuth is true the in-memory backend is used and the LDAP
// settings are ignored.
type DirectoryConfig struct {
	MockAuth      bool
	URL           string
	BaseDN        string
	AdminDN       string
	AdminPassword string
	UserDNFormat  string
	SearchFilter  string
	Timeout       time.Duration
}

type ThereforeConfig struct {
	BaseURL  string
	Username string
	Password string
	Tenant   string
	Timeout  time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	env := getEnv("ENV", "development")

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "5174"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: parseAllowedOrigins(env),
			TrustedProxies: splitAndTrim(getEnv("TRUSTED_PROXIES", "")),
		},
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "portal"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
		},
		Auth: AuthConfig{
			JWTSecret:          jwtSecret,
			SessionTokenExpiry: getEnvAsDuration("SESSION_TOKEN_EXPIRY", 24*time.Hour),
			TOTPIssuer:         getEnv("TOTP_ISSUER", "Portal Empleado UROVESA"),
			MinPasswordLength:  getEnvAsInt("LDAP_PASSWORD_MIN_LENGTH", 8),
		},
		Directory: DirectoryConfig{
			MockAuth:      getEnvAsBool("MOCK_AUTH", false),
			URL:           getEnv("LDAP_URL", ""),
			BaseDN:        getEnv("LDAP_BASE_DN", ""),
			AdminDN:       getEnv("LDAP_ADMIN_DN", ""),
			AdminPassword: getEnv("LDAP_ADMIN_PASSWORD", ""),
			UserDNFormat:  getEnv("LDAP_USER_DN_FORMAT", "CN={username},CN=Users,{baseDN}"),
			SearchFilter:  getEnv("LDAP_SEARCH_FILTER", "(sAMAccountName={username})"),
			Timeout:       getEnvAsDuration("LDAP_TIMEOUT", 10*time.Second),
		},
		Therefore: ThereforeConfig{
			BaseURL:  getEnv("THEREFORE_BASE_URL", ""),
			Username: getEnv("THEREFORE_USERNAME", ""),
			Password: getEnv("THEREFORE_PASSWORD", ""),
			Tenant:   getEnv("THEREFORE_TENANT", ""),
			Timeout:  getEnvAsDuration("THEREFORE_TIMEOUT", 30*time.Second),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	if !cfg.Directory.MockAuth {
		if cfg.Directory.URL == "" || cfg.Directory.BaseDN == "" {
			return nil, fmt.Errorf("LDAP_URL and LDAP_BASE_DN are required unless MOCK_AUTH=true")
		}
	}

	if err := validateJWTSecret(jwtSecret, env); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateJWTSecret enforces minimum security standards for the signing key
func validateJWTSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32
	}

	if len(secret) < minLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("JWT_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// ProxyConfigured reports whether the Therefore proxy has the settings it
// needs; the proxy routes are registered only when it does.
func (c *ThereforeConfig) ProxyConfigured() bool {
	return c.BaseURL != "" && c.Username != "" && c.Password != ""
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		originsStr := getEnv("ALLOWED_ORIGINS", "")
		if originsStr == "" {
			return []string{}
		}
		return splitAndTrim(originsStr)
	}

	// Development: allow localhost variants (Vite dev server included)
	return []string{
		"http://localhost:5173",
		"http://localhost:5174",
		"http://localhost:3000",
		"http://127.0.0.1:5173",
		"http://127.0.0.1:5174",
		"http://127.0.0.1:3000",
	}
}
