package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/adminotp/internal/pkg/goerror"
	"github.com/shandysiswandi/adminotp/internal/pkg/instrument"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "postgres:17-alpine",
		postgres.WithDatabase("adminotp"),
		postgres.WithUsername("adminotp"),
		postgres.WithPassword("adminotp"),
		postgres.WithInitScripts(filepath.Join("..", "..", "..", "..", "migrations", "0001_admin_users.sql")),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `INSERT INTO admin_users (mobile, first_name, password, is_staff, is_active)
		VALUES ('09120000001', 'Ada', '$2a$10$hash', TRUE, TRUE), ('09120000002', '', '$2a$10$other', FALSE, TRUE)`)
	require.NoError(t, err)

	return NewDB(pool, instrument.NewNoop())
}

func TestMigrationFileExists(t *testing.T) {
	_, err := os.Stat(filepath.Join("..", "..", "..", "..", "migrations", "0001_admin_users.sql"))
	require.NoError(t, err)
}

func TestDB_GetPrincipal(t *testing.T) {
	s := newTestDB(t)
	ctx := context.Background()

	p, err := s.GetPrincipalByMobile(ctx, "09120000001")
	require.NoError(t, err)
	assert.Equal(t, "Ada", p.FirstName)
	assert.True(t, p.IsStaff)
	assert.True(t, p.IsActive)
	assert.Equal(t, "$2a$10$hash", p.Password)

	byID, err := s.GetPrincipalByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, byID)

	other, err := s.GetPrincipalByMobile(ctx, "09120000002")
	require.NoError(t, err)
	assert.False(t, other.CanAuthenticate())

	_, err = s.GetPrincipalByMobile(ctx, "missing")
	assert.ErrorIs(t, err, goerror.ErrNotFound)

	_, err = s.GetPrincipalByID(ctx, 999999)
	assert.ErrorIs(t, err, goerror.ErrNotFound)
}
