package warehouse

import (
	"strings"
	"testing"
)

func TestTableNamesUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, tables := range [][]Table{StagingTables, DimensionalTables} {
		for _, tbl := range tables {
			if seen[tbl.Name] {
				t.Errorf("Duplicate table name: %s", tbl.Name)
			}
			seen[tbl.Name] = true
		}
	}
}

func TestCreateSQLMatchesTableName(t *testing.T) {
	for _, tables := range [][]Table{StagingTables, DimensionalTables} {
		for _, tbl := range tables {
			expected := "CREATE TABLE IF NOT EXISTS " + tbl.Name
			if !strings.Contains(tbl.CreateSQL, expected) {
				t.Errorf("Table %s: CreateSQL does not contain %q", tbl.Name, expected)
			}
		}
	}
}

func TestSongplaysIsLastDimensionalTable(t *testing.T) {
	if len(DimensionalTables) == 0 {
		t.Fatal("DimensionalTables is empty")
	}
	last := DimensionalTables[len(DimensionalTables)-1]
	if last.Name != "songplays" {
		t.Errorf("Expected songplays last in DimensionalTables, got %s", last.Name)
	}
}

func TestDimensionalTablesForwardOrder(t *testing.T) {
	// Every table a later statement REFERENCES must already appear
	// earlier in the list, otherwise CreateTables fails mid-sequence.
	created := make(map[string]bool)
	for _, tbl := range DimensionalTables {
		rest := tbl.CreateSQL
		for {
			idx := strings.Index(rest, "REFERENCES ")
			if idx < 0 {
				break
			}
			rest = rest[idx+len("REFERENCES "):]
			ref := rest
			if sp := strings.IndexAny(ref, " ("); sp >= 0 {
				ref = ref[:sp]
			}
			if !created[ref] {
				t.Errorf("Table %s references %s before it is created", tbl.Name, ref)
			}
		}
		created[tbl.Name] = true
	}
}

func TestStagingTablesHaveNoConstraintsBetweenThem(t *testing.T) {
	for _, tbl := range StagingTables {
		if strings.Contains(tbl.CreateSQL, "REFERENCES") {
			t.Errorf("Staging table %s must not reference other tables", tbl.Name)
		}
		if strings.Contains(tbl.CreateSQL, "PRIMARY KEY") {
			t.Errorf("Staging table %s must not declare a primary key", tbl.Name)
		}
	}
}
