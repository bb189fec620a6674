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
	"strings"
	"time"

	"github.com/sparkify/sparkify-dwh/internal/datagen"
	"github.com/sparkify/sparkify-dwh/internal/logging"
)

// batchSize is the number of rows per batch insert.
const batchSize = 1000

var pages = []string{"Home", "Login", "Logout", "Settings", "Upgrade", "Help"}

// SeedCounts controls how much staging data the generator produces.
type SeedCounts struct {
	Users  int
	Songs  int
	Events int
}

// Generator fills the staging tables with synthetic event and catalog
// data so the transform steps can be exercised against any empty
// warehouse without object-storage access. The generated data respects
// the shapes the transforms rely on: free and paid levels, NextSong
// pages, and artist names shared between events and the catalog.
type Generator struct {
	faker *datagen.Faker
}

// NewGenerator creates a generator with a random seed.
func NewGenerator() *Generator {
	return &Generator{faker: datagen.NewFaker()}
}

// NewGeneratorWithSeed creates a generator with a fixed seed for
// reproducible fixtures.
func NewGeneratorWithSeed(seed uint64) *Generator {
	return &Generator{faker: datagen.NewFakerWithSeed(seed)}
}

type seedArtist struct {
	id       string
	name     string
	location string
	lat, lon float64
}

type seedSong struct {
	id       string
	title    string
	artist   seedArtist
	year     int
	duration float64
}

type seedUser struct {
	id        int
	firstName string
	lastName  string
	gender    string
	level     string
	upgraded  bool
}

// Seed populates both staging tables with synthetic data.
func (g *Generator) Seed(ctx context.Context, db DB, counts SeedCounts) error {
	songs := g.makeSongs(counts.Songs)
	users := g.makeUsers(counts.Users)

	if err := g.seedSongs(ctx, db, songs); err != nil {
		return fmt.Errorf("failed to seed staging_songs: %w", err)
	}
	if err := g.seedEvents(ctx, db, users, songs, counts.Events); err != nil {
		return fmt.Errorf("failed to seed staging_events: %w", err)
	}

	logging.Info().
		Int("songs", counts.Songs).
		Int("events", counts.Events).
		Msg("Staging tables seeded")
	return nil
}

// makeSongs builds the catalog, one distinct artist per song. The artist
// transform copies every catalog row without deduplication, so a repeated
// artist_id would trip the artists primary key.
func (g *Generator) makeSongs(count int) []seedSong {
	songs := make([]seedSong, count)
	for i := range songs {
		songs[i] = seedSong{
			id:    fmt.Sprintf("SO%016d", i),
			title: strings.TrimSuffix(g.faker.Sentence(3), "."),
			artist: seedArtist{
				id:       fmt.Sprintf("AR%016d", i),
				name:     g.faker.Company(),
				location: fmt.Sprintf("%s, %s", g.faker.City(), g.faker.State()),
				lat:      g.faker.Float64(-90, 90),
				lon:      g.faker.Float64(-180, 180),
			},
			year:     g.faker.Int(1960, 2018),
			duration: g.faker.Float64(45, 600),
		}
	}
	return songs
}

func (g *Generator) makeUsers(count int) []seedUser {
	users := make([]seedUser, count)
	for i := range users {
		gender := "F"
		if g.faker.Bool() {
			gender = "M"
		}
		level := "free"
		upgraded := false
		if g.faker.Int(1, 100) <= 30 {
			level = "paid"
			// Some paid users also show up as free earlier in the log,
			// exercising the paid-wins reconciliation.
			upgraded = g.faker.Int(1, 100) <= 50
		}
		users[i] = seedUser{
			id:        i + 1,
			firstName: g.faker.FirstName(),
			lastName:  g.faker.LastName(),
			gender:    gender,
			level:     level,
			upgraded:  upgraded,
		}
	}
	return users
}

func (g *Generator) seedSongs(ctx context.Context, db DB, songs []seedSong) error {
	const columns = "(artist_id, artist_latitude, artist_location, artist_longitude, artist_name, duration, num_songs, song_id, title, year)"

	batch := make([]string, 0, batchSize)
	for _, s := range songs {
		batch = append(batch, fmt.Sprintf("('%s', %.5f, '%s', %.5f, '%s', %.5f, 1, '%s', '%s', %d)",
			s.artist.id,
			s.artist.lat,
			escapeSingleQuote(s.artist.location),
			s.artist.lon,
			escapeSingleQuote(s.artist.name),
			s.duration,
			s.id,
			escapeSingleQuote(s.title),
			s.year,
		))
		if len(batch) >= batchSize {
			if err := executeBatchInsert(ctx, db, "staging_songs", columns, batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	return executeBatchInsert(ctx, db, "staging_songs", columns, batch)
}

func (g *Generator) seedEvents(ctx context.Context, db DB, users []seedUser, songs []seedSong, count int) error {
	const columns = "(artist, auth, firstname, gender, iteminsession, lastname, length, level, location, method, page, registration, sessionid, song, status, ts, useragent, userid)"

	windowEnd := time.Now().UTC()
	windowStart := windowEnd.AddDate(0, -3, 0)
	cutover := windowStart.Add(windowEnd.Sub(windowStart) / 2)

	batch := make([]string, 0, batchSize)
	for i := 0; i < count; i++ {
		user := datagen.Choose(g.faker, users)
		song := datagen.Choose(g.faker, songs)
		at := g.faker.DateRange(windowStart, windowEnd)

		level := user.level
		if user.upgraded && at.Before(cutover) {
			level = "free"
		}

		page, method := "NextSong", "PUT"
		if g.faker.Int(1, 100) > 80 {
			page = datagen.Choose(g.faker, pages)
			method = "GET"
		}

		artistName := song.artist.name
		if g.faker.Int(1, 100) <= 5 {
			// A slice of events names an artist missing from the catalog,
			// so the songplay join drops them and the unmatched counter
			// has something to report.
			artistName = g.faker.Company() + " (live)"
		}

		batch = append(batch, fmt.Sprintf("('%s', 'Logged In', '%s', '%s', %d, '%s', %.5f, '%s', '%s', '%s', '%s', %d, '%d', '%s', 200, %d, '%s', '%d')",
			escapeSingleQuote(artistName),
			escapeSingleQuote(user.firstName),
			user.gender,
			g.faker.Int(0, 120),
			escapeSingleQuote(user.lastName),
			song.duration,
			level,
			escapeSingleQuote(fmt.Sprintf("%s, %s", g.faker.City(), g.faker.State())),
			method,
			page,
			windowStart.UnixMilli(),
			g.faker.Int(1, 5000),
			escapeSingleQuote(song.title),
			at.UnixMilli(),
			escapeSingleQuote(g.faker.UserAgent()),
			user.id,
		))
		if len(batch) >= batchSize {
			if err := executeBatchInsert(ctx, db, "staging_events", columns, batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	return executeBatchInsert(ctx, db, "staging_events", columns, batch)
}

func executeBatchInsert(ctx context.Context, db DB, table, columns string, values []string) error {
	if len(values) == 0 {
		return nil
	}
	sql := fmt.Sprintf("INSERT INTO %s %s VALUES %s", table, columns, strings.Join(values, ", "))
	_, err := db.Exec(ctx, sql)
	return err
}

func escapeSingleQuote(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
