package testsupport

import (
	"context"
	"testing"

	"pagesmith/internal/config"
	"pagesmith/internal/store"
)

// MustOpenDB opens the state database for cfg and registers cleanup.
func MustOpenDB(t testing.TB, cfg *config.Config) *store.DB {
	t.Helper()

	db, err := store.Open(context.Background(), cfg.DatabasePath())
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}
