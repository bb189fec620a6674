package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sparkify/sparkify-dwh/internal/db"
	"github.com/sparkify/sparkify-dwh/internal/logging"
	"github.com/sparkify/sparkify-dwh/internal/warehouse"
)

var (
	seedUsers     int
	seedSongs     int
	seedEvents    int
	seedRandom    uint64
	seedTransform bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the staging tables with synthetic data",
	Long: `Reset the schemas and fill the staging tables with synthetic event
and song-catalog data instead of bulk-loading from S3. Intended for
local development against a plain PostgreSQL instance or a scratch
cluster, where the real source buckets are unreachable.

With --transform, the five transform steps run afterwards, producing a
fully populated star schema from the synthetic staging data.

Example:
  sparkify-dwh seed --events 50000 --transform`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().IntVar(&seedUsers, "users", 0,
		"number of distinct listeners to simulate")
	seedCmd.Flags().IntVar(&seedSongs, "songs", 0,
		"number of song catalog rows to generate")
	seedCmd.Flags().IntVar(&seedEvents, "events", 0,
		"number of activity events to generate")
	seedCmd.Flags().Uint64Var(&seedRandom, "random-seed", 0,
		"fixed random seed for reproducible fixtures (0 = random)")
	seedCmd.Flags().BoolVar(&seedTransform, "transform", false,
		"run the transform steps after seeding")
}

func runSeed(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if seedUsers > 0 {
		cfg.Seed.Users = seedUsers
	}
	if seedSongs > 0 {
		cfg.Seed.Songs = seedSongs
	}
	if seedEvents > 0 {
		cfg.Seed.Events = seedEvents
	}

	if err := cfg.ValidateSeed(); err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to warehouse: %w", err)
	}
	defer pool.Close()

	if err := warehouse.ResetSchema(ctx, pool); err != nil {
		return err
	}

	gen := warehouse.NewGenerator()
	if seedRandom != 0 {
		gen = warehouse.NewGeneratorWithSeed(seedRandom)
	}

	counts := warehouse.SeedCounts{
		Users:  cfg.Seed.Users,
		Songs:  cfg.Seed.Songs,
		Events: cfg.Seed.Events,
	}
	if err := gen.Seed(ctx, pool, counts); err != nil {
		return err
	}

	if seedTransform {
		if err := warehouse.RunSteps(ctx, pool); err != nil {
			return err
		}
	}

	logging.Info().Msg("Seed complete")
	return nil
}
