package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sparkify/sparkify-dwh/internal/db"
	"github.com/sparkify/sparkify-dwh/internal/logging"
	"github.com/sparkify/sparkify-dwh/internal/pipeline"
)

var createTablesCmd = &cobra.Command{
	Use:   "create-tables",
	Short: "Drop and recreate the staging and dimensional schemas",
	Long: `Drop every staging and dimensional table (if present) and recreate
them empty. Safe to run repeatedly; each pass leaves the same empty
schema behind. Any data in the warehouse is lost.

Example:
  sparkify-dwh create-tables --connection "postgres://..."`,
	RunE: runCreateTables,
}

func runCreateTables(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to warehouse: %w", err)
	}
	defer pool.Close()

	driver := pipeline.New(pool, cfg.S3.LogData, cfg.S3.SongData, cfg.IAMRoleARN)
	if err := driver.Reset(ctx); err != nil {
		return err
	}

	// The run metadata describes data that no longer exists.
	if err := db.DropMetadata(ctx, pool); err != nil {
		return fmt.Errorf("failed to drop run metadata: %w", err)
	}

	logging.Info().Msg("Schema created")
	return nil
}
