package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sparkify/sparkify-dwh/internal/db"
	"github.com/sparkify/sparkify-dwh/internal/pipeline"
)

var (
	etlLogData    string
	etlSongData   string
	etlIAMRoleARN string
)

var etlCmd = &cobra.Command{
	Use:   "etl",
	Short: "Run the full pipeline: reset schema, load staging, transform",
	Long: `Run one complete pipeline pass: reset the schemas, bulk-load the
staging tables from S3 via the warehouse's COPY, and run the five
transform steps (songs, artists, time, users, songplays) in their fixed
order. Each statement commits independently; a failure aborts the run
and leaves the warehouse partially transformed.

Example:
  sparkify-dwh etl --connection "postgres://..." \
      --iam-role-arn "arn:aws:iam::123456789012:role/sparkify-s3-read"`,
	RunE: runETL,
}

func init() {
	etlCmd.Flags().StringVar(&etlLogData, "log-data", "",
		"s3:// location of the activity event logs")
	etlCmd.Flags().StringVar(&etlSongData, "song-data", "",
		"s3:// location of the song catalog")
	etlCmd.Flags().StringVar(&etlIAMRoleARN, "iam-role-arn", "",
		"ARN of the role the warehouse assumes for the COPY")
}

func runETL(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if etlLogData != "" {
		cfg.S3.LogData = etlLogData
	}
	if etlSongData != "" {
		cfg.S3.SongData = etlSongData
	}
	if etlIAMRoleARN != "" {
		cfg.IAMRoleARN = etlIAMRoleARN
	}

	if err := cfg.ValidateETL(); err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to warehouse: %w", err)
	}
	defer pool.Close()

	driver := pipeline.New(pool, cfg.S3.LogData, cfg.S3.SongData, cfg.IAMRoleARN)
	return driver.Run(ctx)
}
