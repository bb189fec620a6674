//-------------------------------------------------------------------------
//
// Sparkify Data Warehouse Pipeline
//
// Copyright (c) 2025 - 2026, Sparkify, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sparkify/sparkify-dwh/internal/logging"
	"github.com/sparkify/sparkify-dwh/pkg/version"
)

const metadataTable = "pipeline_metadata"

const createMetadataTableSQL = `
CREATE TABLE IF NOT EXISTS pipeline_metadata (
    key   VARCHAR(256) NOT NULL,
    value VARCHAR(4096) NOT NULL,
    PRIMARY KEY (key)
)`

// SaveRunMetadata records the outcome of a completed pipeline run so an
// operator can tell what state the warehouse is in without re-running.
func SaveRunMetadata(ctx context.Context, pool *pgxpool.Pool, extra map[string]string) error {
	_, err := pool.Exec(ctx, createMetadataTableSQL)
	if err != nil {
		return fmt.Errorf("failed to create metadata table: %w", err)
	}

	metadata := map[string]string{
		"version":     version.Short(),
		"last_run_at": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range extra {
		metadata[k] = v
	}

	// Redshift has no ON CONFLICT; delete-then-insert per key instead.
	for key, value := range metadata {
		if _, err := pool.Exec(ctx,
			"DELETE FROM pipeline_metadata WHERE key = $1", key); err != nil {
			return fmt.Errorf("failed to clear metadata %s: %w", key, err)
		}
		if _, err := pool.Exec(ctx,
			"INSERT INTO pipeline_metadata (key, value) VALUES ($1, $2)",
			key, value); err != nil {
			return fmt.Errorf("failed to save metadata %s: %w", key, err)
		}
	}

	logging.Debug().Msg("Saved run metadata")
	return nil
}

// GetMetadataValue retrieves a single metadata value by key.
func GetMetadataValue(ctx context.Context, pool *pgxpool.Pool, key string) (string, error) {
	var value string
	err := pool.QueryRow(ctx,
		"SELECT value FROM pipeline_metadata WHERE key = $1", key).Scan(&value)
	if err != nil {
		return "", err
	}
	return value, nil
}

// DropMetadata drops the metadata table.
func DropMetadata(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", metadataTable))
	return err
}
