// Package helpers provides shared test constructors.
package helpers

import (
	"testing"

	"github.com/leiyu1203/chatgate/store"
)

// NewTestSQLiteStore returns an in-memory audit store wired to test cleanup.
func NewTestSQLiteStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}
