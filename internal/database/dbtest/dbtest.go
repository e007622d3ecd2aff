// Package dbtest hands out throwaway, fully migrated databases for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/laporinpolisi/laporin-backend/internal/database"
	"gorm.io/gorm"
)

// New creates a fresh SQLite file under t.TempDir, runs the schema migration and
// closes the pool when the test ends.
func New(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "laporin_test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close(db)
	})
	return db
}
