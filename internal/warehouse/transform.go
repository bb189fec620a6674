//-------------------------------------------------------------------------
//
// Sparkify Data Warehouse Pipeline
//
// Copyright (c) 2025 - 2026, Sparkify, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/sparkify/sparkify-dwh/internal/logging"
)

// Step is one transform of the staging-to-dimensional pipeline. Each step
// commits statement by statement; there is no transaction spanning steps.
type Step struct {
	Name string
	Run  func(ctx context.Context, db DB) error
}

// Steps returns the transform steps in their fixed execution order.
// songplays must run last: it references all four dimensions, and keys
// that do not exist yet cannot be matched.
func Steps() []Step {
	return []Step{
		{Name: "songs", Run: TransformSongs},
		{Name: "artists", Run: TransformArtists},
		{Name: "time", Run: TransformTime},
		{Name: "users", Run: TransformUsers},
		{Name: "songplays", Run: TransformSongplays},
	}
}

// RunSteps executes every transform step in order, failing fast on the
// first error and leaving the dimensional schema partially populated.
// Visible hard failure beats silently wrong analytical data.
func RunSteps(ctx context.Context, db DB) error {
	for _, step := range Steps() {
		start := time.Now()
		if err := step.Run(ctx, db); err != nil {
			return fmt.Errorf("transform step %s failed: %w", step.Name, err)
		}
		logging.Info().
			Str("step", step.Name).
			Dur("elapsed", time.Since(start)).
			Msg("Transform step complete")
	}
	return nil
}

const insertSongsSQL = `
INSERT INTO songs (song_id, title, artist_id, year, duration)
SELECT song_id, title, artist_id, year, duration
FROM staging_songs`

const insertArtistsSQL = `
INSERT INTO artists (artist_id, name, location, latitude, longitude)
SELECT artist_id, artist_name, artist_location, artist_latitude, artist_longitude
FROM staging_songs`

// decodeTimestampExpr converts an epoch-millisecond column to a calendar
// timestamp. Shared by the time and songplay transforms so the songplay
// start_time reference into the time dimension resolves exactly.
const decodeTimestampExpr = "TIMESTAMP 'epoch' + %s * INTERVAL '0.001 second'"

var insertTimeSQL = fmt.Sprintf(`
INSERT INTO time (start_time, hour, day, week, month, year, weekday)
SELECT ts,
       EXTRACT(hour FROM ts),
       EXTRACT(day FROM ts),
       EXTRACT(week FROM ts),
       EXTRACT(month FROM ts),
       EXTRACT(year FROM ts),
       EXTRACT(dow FROM ts)
FROM (SELECT DISTINCT `+decodeTimestampExpr+` AS ts FROM staging_events) AS distinct_ts`,
	"ts")

// The table is rebuilt and populated exactly once per run, so a window
// function over the insert is enough to assign unique surrogate keys.
var insertSongplaysSQL = fmt.Sprintf(`
INSERT INTO songplays (songplay_id, start_time, user_id, level, song_id, artist_id, session_id, location, user_agent)
SELECT ROW_NUMBER() OVER (ORDER BY e.ts),
       `+decodeTimestampExpr+`,
       CAST(e.userid AS INTEGER),
       e.level,
       s.song_id,
       a.artist_id,
       e.sessionid,
       e.location,
       e.useragent
FROM staging_events e
JOIN artists a ON a.name = e.artist
JOIN songs s ON s.artist_id = a.artist_id
WHERE e.page = 'NextSong'`,
	"e.ts")

// countUnmatchedSQL counts NextSong events that the songplay join drops
// because no artist row matches the event's artist name.
const countUnmatchedSQL = `
SELECT COUNT(*)
FROM staging_events e
WHERE e.page = 'NextSong'
  AND NOT EXISTS (SELECT 1 FROM artists a WHERE a.name = e.artist)`

// TransformSongs projects the song catalog columns of staging_songs into
// the songs dimension. No deduplication: a duplicate song_id in the
// source is a data-quality failure and surfaces as a key violation.
func TransformSongs(ctx context.Context, db DB) error {
	tag, err := db.Exec(ctx, insertSongsSQL)
	if err != nil {
		return err
	}
	logging.Debug().Int64("rows", tag.RowsAffected()).Msg("Inserted songs")
	return nil
}

// TransformArtists projects the artist columns of staging_songs into the
// artists dimension. Same duplicate handling as TransformSongs.
func TransformArtists(ctx context.Context, db DB) error {
	tag, err := db.Exec(ctx, insertArtistsSQL)
	if err != nil {
		return err
	}
	logging.Debug().Int64("rows", tag.RowsAffected()).Msg("Inserted artists")
	return nil
}

// TransformTime decodes the distinct epoch-millisecond timestamps of
// staging_events into calendar timestamps and derives the breakdown
// columns. Deduplication happens before decoding, so time holds exactly
// one row per distinct event instant no matter how many events share it.
func TransformTime(ctx context.Context, db DB) error {
	tag, err := db.Exec(ctx, insertTimeSQL)
	if err != nil {
		return err
	}
	logging.Debug().Int64("rows", tag.RowsAffected()).Msg("Inserted time rows")
	return nil
}

// TransformSongplays materializes one fact row per NextSong event whose
// artist name and song resolve against the dimensions. The join is inner
// on purpose: unresolvable events contribute nothing. Songs sharing an
// artist fan out to one fact row each, which the join predicate cannot
// disambiguate further. The dropped-event count is logged afterwards so
// unmatched events are an observable quantity rather than a silent loss.
func TransformSongplays(ctx context.Context, db DB) error {
	tag, err := db.Exec(ctx, insertSongplaysSQL)
	if err != nil {
		return err
	}

	var unmatched int64
	if err := db.QueryRow(ctx, countUnmatchedSQL).Scan(&unmatched); err != nil {
		return fmt.Errorf("failed to count unmatched events: %w", err)
	}

	logging.Info().
		Int64("fact_rows", tag.RowsAffected()).
		Int64("unmatched_events", unmatched).
		Msg("Inserted songplays")
	return nil
}
