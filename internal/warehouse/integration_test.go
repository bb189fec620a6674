//go:build integration

package warehouse_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sparkify/sparkify-dwh/internal/testutil"
	"github.com/sparkify/sparkify-dwh/internal/warehouse"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	baseConnStr := testutil.SkipIfNoWarehouse(t)
	connStr := testutil.CreateTestDB(t, baseConnStr)
	t.Cleanup(func() {
		testutil.DropTestDB(t, baseConnStr, testutil.GetDBNameFromConnStr(connStr))
	})

	pool := testutil.ConnectTestDB(t, connStr)
	t.Cleanup(pool.Close)
	return pool
}

func TestResetSchemaIdempotent(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	if err := warehouse.ResetSchema(ctx, pool); err != nil {
		t.Fatalf("First ResetSchema failed: %v", err)
	}
	if err := warehouse.ResetSchema(ctx, pool); err != nil {
		t.Fatalf("Second ResetSchema failed: %v", err)
	}

	// All tables exist and are empty after a reset.
	for _, tables := range [][]warehouse.Table{warehouse.StagingTables, warehouse.DimensionalTables} {
		for _, tbl := range tables {
			var count int64
			if err := pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", tbl.Name)).Scan(&count); err != nil {
				t.Fatalf("Table %s missing after reset: %v", tbl.Name, err)
			}
			if count != 0 {
				t.Errorf("Table %s not empty after reset: %d rows", tbl.Name, count)
			}
		}
	}
}

func insertEvent(t *testing.T, pool *pgxpool.Pool, artist, firstName, lastName, gender, level, page, song string, ts int64, userID string) {
	t.Helper()

	ctx := context.Background()
	_, err := pool.Exec(ctx, `
        INSERT INTO staging_events
            (artist, auth, firstname, gender, iteminsession, lastname, length, level,
             location, method, page, registration, sessionid, song, status, ts, useragent, userid)
        VALUES ($1, 'Logged In', $2, $3, 0, $4, 200.5, $5,
                'San Jose-Sunnyvale-Santa Clara, CA', 'PUT', $6, 1540344794796, '583', $7, 200, $8, 'Mozilla/5.0', $9)`,
		artist, firstName, gender, lastName, level, page, song, ts, userID)
	if err != nil {
		t.Fatalf("Failed to insert staging event: %v", err)
	}
}

func insertSong(t *testing.T, pool *pgxpool.Pool, artistID, artistName, songID, title string) {
	t.Helper()

	ctx := context.Background()
	_, err := pool.Exec(ctx, `
        INSERT INTO staging_songs
            (artist_id, artist_latitude, artist_location, artist_longitude, artist_name,
             duration, num_songs, song_id, title, year)
        VALUES ($1, 37.33, 'San Jose, CA', -121.89, $2, 200.5, 1, $3, $4, 2008)`,
		artistID, artistName, songID, title)
	if err != nil {
		t.Fatalf("Failed to insert staging song: %v", err)
	}
}

func countRows(t *testing.T, pool *pgxpool.Pool, table string) int64 {
	t.Helper()

	var count int64
	if err := pool.QueryRow(context.Background(), fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count); err != nil {
		t.Fatalf("Failed to count rows in %s: %v", table, err)
	}
	return count
}

func TestTransformEndToEnd(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	if err := warehouse.ResetSchema(ctx, pool); err != nil {
		t.Fatalf("ResetSchema failed: %v", err)
	}

	insertSong(t, pool, "ARTIST1", "Harmonia", "SONG1", "Sehr kosmisch")

	// User 7 listens while free, then shows up paid on a non-play page.
	insertEvent(t, pool, "Harmonia", "Kate", "Harrell", "F", "free", "NextSong", "Sehr kosmisch", 1541121934796, "7")
	insertEvent(t, pool, "", "Kate", "Harrell", "F", "paid", "Login", "", 1541122241796, "7")

	if err := warehouse.RunSteps(ctx, pool); err != nil {
		t.Fatalf("RunSteps failed: %v", err)
	}

	if got := countRows(t, pool, "songs"); got != 1 {
		t.Errorf("Expected 1 song, got %d", got)
	}
	if got := countRows(t, pool, "artists"); got != 1 {
		t.Errorf("Expected 1 artist, got %d", got)
	}
	if got := countRows(t, pool, "time"); got != 2 {
		t.Errorf("Expected 2 time rows (distinct timestamps), got %d", got)
	}

	// Reconciliation keeps one row per user at the winning level.
	if got := countRows(t, pool, "users"); got != 1 {
		t.Errorf("Expected 1 user, got %d", got)
	}
	var level string
	if err := pool.QueryRow(ctx, "SELECT level FROM users WHERE user_id = 7").Scan(&level); err != nil {
		t.Fatalf("Failed to read user 7: %v", err)
	}
	if level != "paid" {
		t.Errorf("Expected user 7 recorded as paid, got %s", level)
	}

	// Only the NextSong event becomes a fact row, and its level is the
	// one observed at play time, not the reconciled one.
	if got := countRows(t, pool, "songplays"); got != 1 {
		t.Fatalf("Expected 1 songplay, got %d", got)
	}
	var factLevel, songID string
	err := pool.QueryRow(ctx, "SELECT level, song_id FROM songplays WHERE user_id = 7").Scan(&factLevel, &songID)
	if err != nil {
		t.Fatalf("Failed to read songplay: %v", err)
	}
	if factLevel != "free" {
		t.Errorf("Expected songplay level 'free' (level at play time), got %s", factLevel)
	}
	if songID != "SONG1" {
		t.Errorf("Expected songplay to resolve SONG1, got %s", songID)
	}
}

func TestTransformTimeDeduplicates(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	if err := warehouse.ResetSchema(ctx, pool); err != nil {
		t.Fatalf("ResetSchema failed: %v", err)
	}

	// Three events, two distinct timestamps.
	insertEvent(t, pool, "A", "U", "One", "M", "free", "Home", "", 1541121934796, "1")
	insertEvent(t, pool, "B", "U", "Two", "F", "free", "Home", "", 1541121934796, "2")
	insertEvent(t, pool, "C", "U", "Three", "M", "free", "Home", "", 1541999999999, "3")

	if err := warehouse.TransformTime(ctx, pool); err != nil {
		t.Fatalf("TransformTime failed: %v", err)
	}

	if got := countRows(t, pool, "time"); got != 2 {
		t.Errorf("Expected 2 time rows, got %d", got)
	}
}

func TestTransformSongplaysDropsUnmatched(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	if err := warehouse.ResetSchema(ctx, pool); err != nil {
		t.Fatalf("ResetSchema failed: %v", err)
	}

	insertSong(t, pool, "ARTIST1", "Harmonia", "SONG1", "Sehr kosmisch")
	// NextSong for an artist absent from the catalog.
	insertEvent(t, pool, "Unknown Garage Band", "Sam", "Ward", "M", "free", "NextSong", "Demo Tape", 1541121934796, "4")

	if err := warehouse.RunSteps(ctx, pool); err != nil {
		t.Fatalf("RunSteps failed: %v", err)
	}

	if got := countRows(t, pool, "songplays"); got != 0 {
		t.Errorf("Expected 0 songplays for unmatched artist, got %d", got)
	}
}

func TestSeedAndTransform(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	if err := warehouse.ResetSchema(ctx, pool); err != nil {
		t.Fatalf("ResetSchema failed: %v", err)
	}

	gen := warehouse.NewGeneratorWithSeed(42)
	counts := warehouse.SeedCounts{Users: 20, Songs: 50, Events: 500}

	start := time.Now()
	if err := gen.Seed(ctx, pool, counts); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	t.Logf("Seeded staging tables in %v", time.Since(start))

	if got := countRows(t, pool, "staging_songs"); got != 50 {
		t.Errorf("Expected 50 staging songs, got %d", got)
	}
	if got := countRows(t, pool, "staging_events"); got != 500 {
		t.Errorf("Expected 500 staging events, got %d", got)
	}

	if err := warehouse.RunSteps(ctx, pool); err != nil {
		t.Fatalf("RunSteps on seeded data failed: %v", err)
	}

	if got := countRows(t, pool, "songs"); got != 50 {
		t.Errorf("Expected 50 songs, got %d", got)
	}
	if got := countRows(t, pool, "artists"); got != 50 {
		t.Errorf("Expected 50 artists (one per catalog row), got %d", got)
	}
	if got := countRows(t, pool, "users"); got == 0 {
		t.Error("Expected users dimension to be populated")
	}
	if got := countRows(t, pool, "songplays"); got == 0 {
		t.Error("Expected at least one songplay from seeded data")
	}
}
