package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"sharebite/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestOpen_SQLiteMigratesSchema(t *testing.T) {
	cfg := &config.Config{
		Env:        "test",
		DBDriver:   config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "sharebite.db"),
	}

	db, err := Open(cfg)
	require.NoError(t, err)
	defer Close(db)

	tables, err := Tables(db)
	require.NoError(t, err)
	assert.Contains(t, tables, "users")
	assert.Contains(t, tables, "food_donations")

	assert.True(t, db.Migrator().HasColumn("food_donations", "claimed_by"))
	assert.True(t, db.Migrator().HasColumn("users", "password_hash"))

	assert.NoError(t, Ping(context.Background(), db, time.Second))
}

func TestOpen_RejectsMemoryDriver(t *testing.T) {
	_, err := Open(&config.Config{DBDriver: config.DriverMemory})
	assert.Error(t, err)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "file:/tmp/x.db?_foreign_keys=on&_busy_timeout=5000", SQLiteDSN("/tmp/x.db"))
}

func TestOpen_ClosesPoolWhenMigrationFails(t *testing.T) {
	var migrated *gorm.DB
	migrate = func(db *gorm.DB) error {
		migrated = db
		return errors.New("migration failed")
	}
	t.Cleanup(func() { migrate = Migrate })

	db, err := Open(&config.Config{
		Env:        "test",
		DBDriver:   config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "sharebite.db"),
	})
	require.Error(t, err)
	assert.Nil(t, db)
	require.NotNil(t, migrated)

	sqlDB, err := migrated.DB()
	require.NoError(t, err)
	assert.Error(t, sqlDB.Ping())
}
