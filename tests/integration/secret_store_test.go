package integration

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urovesa/portal-api/internal/models"
	"github.com/urovesa/portal-api/internal/repositories"
)

var testDB *TestDB

func TestMain(m *testing.M) {
	if os.Getenv("SKIP_INTEGRATION") != "" {
		os.Exit(0)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := SetupTestDatabase(ctx)
	if err != nil {
		slog.Error("failed to set up test database", slog.Any("error", err))
		os.Exit(1)
	}
	testDB = db

	code := m.Run()

	testDB.Teardown(context.Background())
	os.Exit(code)
}

func freshStore(t *testing.T) *repositories.PostgresSecretStore {
	t.Helper()
	require.NoError(t, testDB.CleanupTables(context.Background()))
	return repositories.NewPostgresSecretStore(testDB.DB)
}

func TestPostgresSecretStore_SaveAndGet(t *testing.T) {
	store := freshStore(t)
	ctx := context.Background()

	saved, err := store.Save(ctx, "testuser", "JBSWY3DPEHPK3PXP")
	require.NoError(t, err)
	assert.Equal(t, "testuser", saved.UserID)
	assert.False(t, saved.Enabled)
	assert.WithinDuration(t, time.Now().UTC(), saved.CreatedAt, time.Minute)

	got, err := store.Get(ctx, "testuser")
	require.NoError(t, err)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", got.Secret)
	assert.False(t, got.Enabled)
}

func TestPostgresSecretStore_Get_NotFound(t *testing.T) {
	store := freshStore(t)

	_, err := store.Get(context.Background(), "nobody")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestPostgresSecretStore_Has(t *testing.T) {
	store := freshStore(t)
	ctx := context.Background()

	has, err := store.Has(ctx, "testuser")
	require.NoError(t, err)
	assert.False(t, has)

	_, err = store.Save(ctx, "testuser", "SECRET")
	require.NoError(t, err)

	has, err = store.Has(ctx, "testuser")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestPostgresSecretStore_Save_ReplacesAndResets(t *testing.T) {
	store := freshStore(t)
	ctx := context.Background()

	_, err := store.Save(ctx, "testuser", "FIRST")
	require.NoError(t, err)
	require.NoError(t, store.Enable(ctx, "testuser"))

	// Replacing the secret drops the enabled flag back to false
	replaced, err := store.Save(ctx, "testuser", "SECOND")
	require.NoError(t, err)
	assert.Equal(t, "SECOND", replaced.Secret)
	assert.False(t, replaced.Enabled)
}

func TestPostgresSecretStore_EnableLifecycle(t *testing.T) {
	store := freshStore(t)
	ctx := context.Background()

	// Enabling a missing record is a no-op
	require.NoError(t, store.Enable(ctx, "testuser"))

	enabled, err := store.IsEnabled(ctx, "testuser")
	require.NoError(t, err)
	assert.False(t, enabled)

	_, err = store.Save(ctx, "testuser", "SECRET")
	require.NoError(t, err)

	require.NoError(t, store.Enable(ctx, "testuser"))
	require.NoError(t, store.Enable(ctx, "testuser"), "enable is idempotent")

	enabled, err = store.IsEnabled(ctx, "testuser")
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestPostgresSecretStore_Disable(t *testing.T) {
	store := freshStore(t)
	ctx := context.Background()

	_, err := store.Save(ctx, "testuser", "SECRET")
	require.NoError(t, err)
	require.NoError(t, store.Disable(ctx, "testuser"))

	has, err := store.Has(ctx, "testuser")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestPostgresSecretStore_List(t *testing.T) {
	store := freshStore(t)
	ctx := context.Background()

	_, err := store.Save(ctx, "alice", "SECRET_A")
	require.NoError(t, err)
	_, err = store.Save(ctx, "bob", "SECRET_B")
	require.NoError(t, err)
	require.NoError(t, store.Enable(ctx, "alice"))

	records, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	byUser := make(map[string]bool, len(records))
	for _, rec := range records {
		byUser[rec.UserID] = rec.Enabled
	}
	assert.True(t, byUser["alice"])
	assert.False(t, byUser["bob"])
}

func TestCachedSecretStore_WarmFromPostgres(t *testing.T) {
	store := freshStore(t)
	ctx := context.Background()

	_, err := store.Save(ctx, "testuser", "SECRET")
	require.NoError(t, err)
	require.NoError(t, store.Enable(ctx, "testuser"))

	cache := repositories.NewCachedSecretStore(store, slog.Default())
	require.NoError(t, cache.Warm(ctx))

	rec, err := cache.Get(ctx, "testuser")
	require.NoError(t, err)
	assert.Equal(t, "SECRET", rec.Secret)
	assert.True(t, rec.Enabled)
}
