package journal_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"mseedcut/internal/journal"
	"mseedcut/internal/testsupport"
)

func TestRecordAndList(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithJournal())
	store := testsupport.MustOpenJournal(t, cfg)
	ctx := context.Background()

	created := time.Date(2024, 1, 15, 15, 0, 0, 0, time.UTC)
	id, err := store.Record(ctx, journal.Entry{
		RequestID:  "req-1",
		CreatedAt:  created,
		Status:     journal.StatusSucceeded,
		Start:      "2024-01-15Z14:30:45.250000",
		Duration:   60,
		InputFile:  "/data/input/NOM00_20240115_140000.mseed",
		OutputFile: "/data/output/NOM00_20240115_143045.mseed",
		Channels:   []string{"XX.NOM00..HHZ", "XX.NOM00..HHN"},
		Samples:    12002,
		Encoding:   "int32",
		Digest:     "abc123",
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if id == 0 {
		t.Fatal("expected id to be assigned")
	}
	if _, err := store.Record(ctx, journal.Entry{
		RequestID:    "req-2",
		Status:       journal.StatusFailed,
		Start:        "2024-01-15Z23:59:50.000000",
		Duration:     60,
		ErrorKind:    "no_data",
		ErrorMessage: "no samples in requested window",
	}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	entries, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].RequestID != "req-2" || entries[0].Status != journal.StatusFailed || entries[0].ErrorKind != "no_data" {
		t.Fatalf("unexpected newest entry: %+v", entries[0])
	}
	first := entries[1]
	if !first.CreatedAt.Equal(created) || first.Samples != 12002 || first.Digest != "abc123" {
		t.Fatalf("unexpected entry: %+v", first)
	}
	if !slices.Equal(first.Channels, []string{"XX.NOM00..HHZ", "XX.NOM00..HHN"}) {
		t.Fatalf("unexpected channels: %v", first.Channels)
	}

	limited, err := store.List(ctx, 1)
	if err != nil {
		t.Fatalf("List with limit failed: %v", err)
	}
	if len(limited) != 1 || limited[0].RequestID != "req-2" {
		t.Fatalf("unexpected limited list: %+v", limited)
	}
}

func TestOpenReusesExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "journal.db")
	store, err := journal.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := store.Record(context.Background(), journal.Entry{RequestID: "a", Status: journal.StatusSucceeded, Start: "x", Duration: 1}); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := journal.Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()
	entries, err := reopened.List(context.Background(), 10)
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected persisted entry, got %v %v", entries, err)
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := journal.Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestOpenRejectsForeignLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	store, err := journal.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	store.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatal(err)
	}
	if version != 1 {
		t.Fatalf("fresh journal stamped %d, want 1", version)
	}
	if _, err := db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatal(err)
	}
	db.Close()

	if _, err := journal.Open(path); !errors.Is(err, journal.ErrJournalFormat) {
		t.Fatalf("expected ErrJournalFormat, got %v", err)
	}
}

func TestOpenReusesStampedJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	for i := 0; i < 2; i++ {
		store, err := journal.Open(path)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		store.Close()
	}
}
