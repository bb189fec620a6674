// Package warehouse defines the staging and dimensional schemas and the
// transform steps that populate the star schema from the staging tables.
package warehouse

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sparkify/sparkify-dwh/internal/logging"
)

// DB is an interface that both *pgxpool.Pool and *pgx.Conn satisfy.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Table pairs a table name with its creation statement. Tables are listed
// in forward-dependency order; drops run the list in reverse.
type Table struct {
	Name      string
	CreateSQL string
}

// StagingTables land the raw source data. Columns are wide and loosely
// typed on purpose: the loader must tolerate upstream irregularities, and
// all typing is enforced later, in the dimensional schema.
var StagingTables = []Table{
	{
		Name: "staging_events",
		CreateSQL: `
CREATE TABLE IF NOT EXISTS staging_events (
    artist        VARCHAR(65535),
    auth          VARCHAR(256),
    firstname     VARCHAR(256),
    gender        VARCHAR(16),
    iteminsession INTEGER,
    lastname      VARCHAR(256),
    length        DOUBLE PRECISION,
    level         VARCHAR(16),
    location      VARCHAR(65535),
    method        VARCHAR(32),
    page          VARCHAR(256),
    registration  NUMERIC(38, 0),
    sessionid     VARCHAR(256),
    song          VARCHAR(65535),
    status        INTEGER,
    ts            NUMERIC(38, 0),
    useragent     VARCHAR(65535),
    userid        VARCHAR(256)
)`,
	},
	{
		Name: "staging_songs",
		CreateSQL: `
CREATE TABLE IF NOT EXISTS staging_songs (
    artist_id        VARCHAR(128) NOT NULL,
    artist_latitude  DOUBLE PRECISION,
    artist_location  VARCHAR(65535),
    artist_longitude DOUBLE PRECISION,
    artist_name      VARCHAR(65535),
    duration         DOUBLE PRECISION,
    num_songs        INTEGER,
    song_id          VARCHAR(128),
    title            VARCHAR(65535),
    year             SMALLINT
)`,
	},
}

// DimensionalTables form the star schema. songplays comes last because it
// references all four dimensions.
var DimensionalTables = []Table{
	{
		Name: "time",
		CreateSQL: `
CREATE TABLE IF NOT EXISTS time (
    start_time TIMESTAMP NOT NULL,
    hour       SMALLINT NOT NULL,
    day        SMALLINT NOT NULL,
    week       SMALLINT NOT NULL,
    month      SMALLINT NOT NULL,
    year       SMALLINT NOT NULL,
    weekday    SMALLINT NOT NULL,
    PRIMARY KEY (start_time)
)`,
	},
	{
		Name: "users",
		CreateSQL: `
CREATE TABLE IF NOT EXISTS users (
    user_id    INTEGER NOT NULL,
    first_name VARCHAR(256),
    last_name  VARCHAR(256),
    gender     VARCHAR(16),
    level      VARCHAR(16),
    PRIMARY KEY (user_id)
)`,
	},
	{
		Name: "songs",
		CreateSQL: `
CREATE TABLE IF NOT EXISTS songs (
    song_id   VARCHAR(128) NOT NULL,
    title     VARCHAR(65535) NOT NULL,
    artist_id VARCHAR(128) NOT NULL,
    year      SMALLINT,
    duration  DOUBLE PRECISION,
    PRIMARY KEY (song_id)
)`,
	},
	{
		Name: "artists",
		CreateSQL: `
CREATE TABLE IF NOT EXISTS artists (
    artist_id VARCHAR(128) NOT NULL,
    name      VARCHAR(65535),
    location  VARCHAR(65535),
    latitude  DOUBLE PRECISION,
    longitude DOUBLE PRECISION,
    PRIMARY KEY (artist_id)
)`,
	},
	{
		Name: "songplays",
		// Redshift and PostgreSQL disagree on IDENTITY syntax, so the
		// surrogate key is assigned by the insert instead of the column.
		CreateSQL: `
CREATE TABLE IF NOT EXISTS songplays (
    songplay_id BIGINT NOT NULL,
    start_time  TIMESTAMP REFERENCES time (start_time),
    user_id     INTEGER REFERENCES users (user_id),
    level       VARCHAR(16),
    song_id     VARCHAR(128) NOT NULL REFERENCES songs (song_id),
    artist_id   VARCHAR(128) NOT NULL REFERENCES artists (artist_id),
    session_id  VARCHAR(256) NOT NULL,
    location    VARCHAR(65535),
    user_agent  VARCHAR(65535),
    PRIMARY KEY (songplay_id)
)`,
	},
}

// CreateTables creates the given tables in forward-dependency order.
// Creation is idempotent; the first failure aborts the remaining sequence
// and no rollback of earlier creates is attempted.
func CreateTables(ctx context.Context, db DB, tables []Table) error {
	for _, t := range tables {
		if _, err := db.Exec(ctx, t.CreateSQL); err != nil {
			return fmt.Errorf("failed to create table %s: %w", t.Name, err)
		}
		logging.Debug().Str("table", t.Name).Msg("Created table")
	}
	return nil
}

// DropTables drops the given tables in reverse-dependency order so that
// referencing tables go before their referenced dimensions.
func DropTables(ctx context.Context, db DB, tables []Table) error {
	for i := len(tables) - 1; i >= 0; i-- {
		t := tables[i]
		if _, err := db.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", t.Name)); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", t.Name, err)
		}
		logging.Debug().Str("table", t.Name).Msg("Dropped table")
	}
	return nil
}

// ResetSchema drops and recreates both the staging and dimensional
// schemas, leaving every table empty.
func ResetSchema(ctx context.Context, db DB) error {
	if err := DropTables(ctx, db, DimensionalTables); err != nil {
		return err
	}
	if err := DropTables(ctx, db, StagingTables); err != nil {
		return err
	}
	if err := CreateTables(ctx, db, StagingTables); err != nil {
		return err
	}
	if err := CreateTables(ctx, db, DimensionalTables); err != nil {
		return err
	}
	logging.Info().Msg("Schema reset complete")
	return nil
}
