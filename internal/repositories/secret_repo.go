package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/urovesa/portal-api/internal/database"
	"github.com/urovesa/portal-api/internal/models"
)

// SecretStore is the durable mapping from user identifier to TOTP secret.
// It is the single source of truth for enrollment state across restarts;
// every mutating call must have persisted before it returns.
type SecretStore interface {
	// Get returns the record for userID, or models.ErrNotFound.
	Get(ctx context.Context, userID string) (*models.SecretRecord, error)

	// Has reports whether any record exists, enabled or not.
	Has(ctx context.Context, userID string) (bool, error)

	// IsEnabled reports whether the user has a verified, active secret.
	// False when the record is absent.
	IsEnabled(ctx context.Context, userID string) (bool, error)

	// Save creates or replaces the record with enabled=false and
	// created_at=now.
	Save(ctx context.Context, userID, secret string) (*models.SecretRecord, error)

	// Enable flips the record to enabled. A missing record is a no-op;
	// repeated calls are idempotent.
	Enable(ctx context.Context, userID string) error

	// Disable deletes the record entirely.
	Disable(ctx context.Context, userID string) error

	// List returns every stored record.
	List(ctx context.Context) ([]*models.SecretRecord, error)
}

// PostgresSecretStore persists TOTP secrets in the two_factor_secrets table.
type PostgresSecretStore struct {
	db *database.DB
}

func NewPostgresSecretStore(db *database.DB) *PostgresSecretStore {
	return &PostgresSecretStore{db: db}
}

func (r *PostgresSecretStore) Get(ctx context.Context, userID string) (*models.SecretRecord, error) {
	query := `
		SELECT user_id, secret, enabled, created_at
		FROM two_factor_secrets WHERE user_id = $1
	`

	var rec models.SecretRecord
	err := r.db.Pool.QueryRow(ctx, query, userID).Scan(
		&rec.UserID, &rec.Secret, &rec.Enabled, &rec.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &rec, nil
}

func (r *PostgresSecretStore) Has(ctx context.Context, userID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM two_factor_secrets WHERE user_id = $1)`

	var exists bool
	if err := r.db.Pool.QueryRow(ctx, query, userID).Scan(&exists); err != nil {
		return false, database.MapPostgresError(err)
	}
	return exists, nil
}

func (r *PostgresSecretStore) IsEnabled(ctx context.Context, userID string) (bool, error) {
	query := `SELECT COALESCE(
		(SELECT enabled FROM two_factor_secrets WHERE user_id = $1), false
	)`

	var enabled bool
	if err := r.db.Pool.QueryRow(ctx, query, userID).Scan(&enabled); err != nil {
		return false, database.MapPostgresError(err)
	}
	return enabled, nil
}

func (r *PostgresSecretStore) Save(ctx context.Context, userID, secret string) (*models.SecretRecord, error) {
	query := `
		INSERT INTO two_factor_secrets (user_id, secret, enabled, created_at)
		VALUES ($1, $2, false, $3)
		ON CONFLICT (user_id) DO UPDATE
			SET secret = EXCLUDED.secret, enabled = false, created_at = EXCLUDED.created_at
		RETURNING user_id, secret, enabled, created_at
	`

	var rec models.SecretRecord
	err := r.db.Pool.QueryRow(ctx, query, userID, secret, time.Now().UTC()).Scan(
		&rec.UserID, &rec.Secret, &rec.Enabled, &rec.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &rec, nil
}

func (r *PostgresSecretStore) Enable(ctx context.Context, userID string) error {
	query := `UPDATE two_factor_secrets SET enabled = true WHERE user_id = $1`

	// Zero affected rows means no record exists; per contract that's a no-op.
	if _, err := r.db.Pool.Exec(ctx, query, userID); err != nil {
		return database.MapPostgresError(err)
	}
	return nil
}

func (r *PostgresSecretStore) Disable(ctx context.Context, userID string) error {
	query := `DELETE FROM two_factor_secrets WHERE user_id = $1`

	if _, err := r.db.Pool.Exec(ctx, query, userID); err != nil {
		return database.MapPostgresError(err)
	}
	return nil
}

func (r *PostgresSecretStore) List(ctx context.Context) ([]*models.SecretRecord, error) {
	query := `SELECT user_id, secret, enabled, created_at FROM two_factor_secrets`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	defer rows.Close()

	records := make([]*models.SecretRecord, 0)
	for rows.Next() {
		var rec models.SecretRecord
		if err := rows.Scan(&rec.UserID, &rec.Secret, &rec.Enabled, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan secret record: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return records, nil
}
