// Package databasetest opens throwaway sqlite databases for repository tests.
package databasetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"jan-server/services/assistant-api/internal/infrastructure/database"
	"jan-server/services/assistant-api/internal/infrastructure/database/transaction"
)

// New returns a migrated database in the test's temp dir.
func New(t *testing.T) (*transaction.Database, *gorm.DB) {
	t.Helper()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(context.Background(), db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return transaction.NewDatabase(db), db
}
