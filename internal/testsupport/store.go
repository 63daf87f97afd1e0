package testsupport

import (
	"testing"

	"mseedcut/internal/config"
	"mseedcut/internal/journal"
)

// MustOpenJournal opens the configured journal for tests and registers cleanup.
func MustOpenJournal(t testing.TB, cfg *config.Config) *journal.Store {
	t.Helper()

	store, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
