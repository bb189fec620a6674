package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/sparkify/sparkify-dwh/internal/logging"
)

// CopySpec describes one bulk load from object storage into a staging
// table. The warehouse parses each object as one JSON record per line and
// matches fields to columns case-insensitively; malformed records are the
// loader's problem, not ours.
type CopySpec struct {
	Table      string
	Location   string
	IAMRoleARN string
}

// SQL renders the COPY statement for this spec.
func (c CopySpec) SQL() string {
	return fmt.Sprintf(
		"COPY %s FROM '%s' IAM_ROLE '%s' FORMAT AS JSON 'auto ignorecase'",
		c.Table, c.Location, c.IAMRoleARN,
	)
}

// CopySpecs returns the bulk loads for both staging tables.
func CopySpecs(logData, songData, roleARN string) []CopySpec {
	return []CopySpec{
		{Table: "staging_events", Location: logData, IAMRoleARN: roleARN},
		{Table: "staging_songs", Location: songData, IAMRoleARN: roleARN},
	}
}

// LoadStaging bulk-loads both staging tables from object storage. A load
// failure is fatal: the transform steps must never run against partially
// loaded staging data.
func LoadStaging(ctx context.Context, db DB, logData, songData, roleARN string) error {
	for _, spec := range CopySpecs(logData, songData, roleARN) {
		logging.Info().
			Str("table", spec.Table).
			Str("location", spec.Location).
			Msg("Loading staging table")

		start := time.Now()
		if _, err := db.Exec(ctx, spec.SQL()); err != nil {
			return fmt.Errorf("failed to load %s from %s: %w", spec.Table, spec.Location, err)
		}

		logging.Info().
			Str("table", spec.Table).
			Dur("elapsed", time.Since(start)).
			Msg("Staging table loaded")
	}
	return nil
}
