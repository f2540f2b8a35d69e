package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/kasuganosora/ghostai/cache"
	"github.com/kasuganosora/ghostai/config"
	dbadapter "github.com/kasuganosora/ghostai/db"
	"github.com/kasuganosora/ghostai/model"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// SetupTestDB opens a private in-memory SQLite database and runs
// AutoMigrate. Each call gets its own database, so tests may run in
// parallel.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := dbadapter.Open(config.DatabaseConfig{
		Mode:       dbadapter.ModeSQLite,
		SQLitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	})
	require.NoError(t, err, "SetupTestDB: Open")
	require.NoError(t, model.AutoMigrate(db), "SetupTestDB: AutoMigrate")
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// SetupTestCache creates LocalCache and LocalPubSub (no Redis required).
func SetupTestCache(t *testing.T) (cache.Cache, cache.PubSub) {
	t.Helper()
	b, err := cache.Open(cache.CacheConfig{}) // empty RedisAddr → local
	require.NoError(t, err, "SetupTestCache: Open")
	t.Cleanup(b.Close)
	return b.Cache, b.PubSub
}
