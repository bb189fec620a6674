// Package pipeline orchestrates the warehouse ELT run: schema reset,
// staging bulk load, and the staging-to-dimensional transforms, strictly
// in that order.
package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sparkify/sparkify-dwh/internal/db"
	"github.com/sparkify/sparkify-dwh/internal/logging"
	"github.com/sparkify/sparkify-dwh/internal/warehouse"
)

// Driver runs the pipeline stages sequentially against one warehouse.
// Nothing here is safe to run concurrently with another pipeline run on
// the same warehouse; the drop-then-create reset races. Serializing runs
// is the operator's job.
type Driver struct {
	pool     *pgxpool.Pool
	logData  string
	songData string
	roleARN  string
}

// New creates a pipeline driver.
func New(pool *pgxpool.Pool, logData, songData, roleARN string) *Driver {
	return &Driver{
		pool:     pool,
		logData:  logData,
		songData: songData,
		roleARN:  roleARN,
	}
}

// Reset drops and recreates the staging and dimensional schemas. Running
// it twice in a row is fine; both passes leave the same empty schema.
func (d *Driver) Reset(ctx context.Context) error {
	return warehouse.ResetSchema(ctx, d.pool)
}

// Run executes a full pipeline pass: schema reset, staging load,
// transform steps. Every statement commits on its own, so a mid-run
// failure leaves the warehouse partially transformed; the error says
// which stage to look at.
func (d *Driver) Run(ctx context.Context) error {
	start := time.Now()

	if last, err := db.GetMetadataValue(ctx, d.pool, "last_run_at"); err == nil {
		logging.Info().Str("last_run_at", last).Msg("Rebuilding warehouse over a previous run")
	}

	if err := d.Reset(ctx); err != nil {
		return fmt.Errorf("schema reset failed: %w", err)
	}
	if err := warehouse.LoadStaging(ctx, d.pool, d.logData, d.songData, d.roleARN); err != nil {
		return fmt.Errorf("staging load failed: %w", err)
	}
	if err := warehouse.RunSteps(ctx, d.pool); err != nil {
		return err
	}

	if err := d.recordRun(ctx); err != nil {
		return fmt.Errorf("failed to record run metadata: %w", err)
	}

	logging.Info().
		Dur("elapsed", time.Since(start)).
		Msg("Pipeline run complete")
	return nil
}

// recordRun stores the dimensional row counts so an operator can see what
// the last completed run produced without re-querying every table.
func (d *Driver) recordRun(ctx context.Context) error {
	counts := make(map[string]string)
	for _, t := range warehouse.DimensionalTables {
		var n int64
		if err := d.pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+t.Name).Scan(&n); err != nil {
			return fmt.Errorf("failed to count %s: %w", t.Name, err)
		}
		counts["rows_"+t.Name] = strconv.FormatInt(n, 10)
	}
	return db.SaveRunMetadata(ctx, d.pool, counts)
}
