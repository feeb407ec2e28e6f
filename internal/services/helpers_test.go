package services

import (
	"testing"

	"todo-api/backend/internal/database"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func newTestPool(t *testing.T) *database.DatabasePool {
	t.Helper()

	pool, err := database.NewDatabasePool(&database.PoolConfig{
		Driver:   database.DriverSQLite,
		DSN:      ":memory:",
		LogLevel: logger.Silent,
	})
	require.NoError(t, err)
	require.NoError(t, pool.Migrate())
	t.Cleanup(func() { _ = pool.Close() })
	return pool
}
