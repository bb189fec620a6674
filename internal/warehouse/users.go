package warehouse

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/sparkify/sparkify-dwh/internal/logging"
)

// UserObservation is one distinct user snapshot seen in the event log. A
// user typically appears many times, possibly at different subscription
// levels.
type UserObservation struct {
	UserID    int
	FirstName string
	LastName  string
	Gender    string
	Level     string
}

// selectUserObservationsSQL pulls the distinct user snapshots out of
// staging. Events without a user id carry no user information and are
// excluded here.
const selectUserObservationsSQL = `
SELECT DISTINCT userid,
       COALESCE(firstname, ''),
       COALESCE(lastname, ''),
       COALESCE(gender, ''),
       COALESCE(level, '')
FROM staging_events
WHERE userid IS NOT NULL AND userid <> ''`

// ResolveLevel picks the subscription level a user ends up with when the
// event log shows several: paid wins over free whenever it was observed
// at all. Event timestamps are deliberately not consulted, so a user who
// downgraded paid-to-free is still recorded as paid. That is the
// warehouse's documented policy, not an oversight.
func ResolveLevel(levels []string) string {
	for _, level := range levels {
		if level == "paid" {
			return "paid"
		}
	}
	return "free"
}

// ReconcileUsers collapses raw observations to one snapshot per user at
// the level ResolveLevel selects, ordered by user id. If a user somehow
// has conflicting name or gender values at the winning level, every
// distinct conflicting snapshot is kept: the users primary key then
// surfaces the conflict as a hard failure instead of this code silently
// picking a winner.
func ReconcileUsers(observations []UserObservation) []UserObservation {
	byUser := make(map[int][]UserObservation)
	for _, obs := range observations {
		byUser[obs.UserID] = append(byUser[obs.UserID], obs)
	}

	ids := make([]int, 0, len(byUser))
	for id := range byUser {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var result []UserObservation
	for _, id := range ids {
		obs := byUser[id]
		levels := make([]string, len(obs))
		for i, o := range obs {
			levels[i] = o.Level
		}
		winning := ResolveLevel(levels)

		seen := make(map[UserObservation]bool)
		for _, o := range obs {
			if o.Level != winning || seen[o] {
				continue
			}
			seen[o] = true
			result = append(result, o)
		}
	}
	return result
}

// TransformUsers populates the users dimension. The free/paid
// reconciliation runs here rather than in SQL so the policy is a pure
// function instead of a statement-ordering side effect.
func TransformUsers(ctx context.Context, db DB) error {
	rows, err := db.Query(ctx, selectUserObservationsSQL)
	if err != nil {
		return fmt.Errorf("failed to read user observations: %w", err)
	}
	defer rows.Close()

	var observations []UserObservation
	for rows.Next() {
		var rawID string
		var obs UserObservation
		if err := rows.Scan(&rawID, &obs.FirstName, &obs.LastName, &obs.Gender, &obs.Level); err != nil {
			return fmt.Errorf("failed to scan user observation: %w", err)
		}
		obs.UserID, err = strconv.Atoi(rawID)
		if err != nil {
			return fmt.Errorf("non-numeric user id %q in staging_events: %w", rawID, err)
		}
		observations = append(observations, obs)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read user observations: %w", err)
	}

	users := ReconcileUsers(observations)

	batch := make([]string, 0, batchSize)
	for _, u := range users {
		batch = append(batch, fmt.Sprintf("(%d, '%s', '%s', '%s', '%s')",
			u.UserID,
			escapeSingleQuote(u.FirstName),
			escapeSingleQuote(u.LastName),
			escapeSingleQuote(u.Gender),
			escapeSingleQuote(u.Level),
		))
		if len(batch) >= batchSize {
			if err := executeBatchInsert(ctx, db, "users",
				"(user_id, first_name, last_name, gender, level)", batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := executeBatchInsert(ctx, db, "users",
		"(user_id, first_name, last_name, gender, level)", batch); err != nil {
		return err
	}

	logging.Debug().
		Int("observations", len(observations)).
		Int("users", len(users)).
		Msg("Inserted users")
	return nil
}
