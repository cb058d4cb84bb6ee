package database

import (
	"context"
	"os"
	"testing"
)

// Set DUNGEN_TEST_POSTGRES_DSN to run against a real PostgreSQL server, e.g.
//
//	DUNGEN_TEST_POSTGRES_DSN="host=localhost port=5432 user=dungen password=dungen dbname=dungen_test sslmode=disable"
func openPostgresTestDB(t *testing.T) *Database {
	dsn := os.Getenv("DUNGEN_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("Skipping PostgreSQL test: DUNGEN_TEST_POSTGRES_DSN not set")
	}
	db, err := OpenWithConfig(Config{Driver: "postgres", DSN: dsn})
	if err != nil {
		t.Fatalf("Failed to open PostgreSQL database: %v", err)
	}
	if _, err := db.DB().Exec("DELETE FROM generation_log"); err != nil {
		t.Fatalf("Failed to clear generation_log: %v", err)
	}
	t.Cleanup(func() {
		db.DB().Exec("DELETE FROM generation_log")
		db.Close()
	})
	return db
}

func TestPostgres_RecordAndRecent(t *testing.T) {
	db := openPostgresTestDB(t)
	ctx := context.Background()

	e := testEntry("postgres cave")
	id, err := db.RecordGeneration(ctx, e)
	if err != nil {
		t.Fatalf("RecordGeneration failed: %v", err)
	}
	if id <= 0 {
		t.Errorf("Expected RETURNING id > 0, got %d", id)
	}
	if _, err := db.RecordGeneration(ctx, e); err == nil {
		t.Error("Expected duplicate entry to fail")
	}

	recent, err := db.RecentGenerations(ctx, 5)
	if err != nil {
		t.Fatalf("RecentGenerations failed: %v", err)
	}
	if len(recent) != 1 || recent[0].ID != e.ID {
		t.Errorf("Unexpected entries: %+v", recent)
	}
}
