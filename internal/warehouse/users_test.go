package warehouse

import (
	"reflect"
	"testing"
)

func TestResolveLevel(t *testing.T) {
	tests := []struct {
		name   string
		levels []string
		want   string
	}{
		{
			name:   "always free",
			levels: []string{"free", "free", "free"},
			want:   "free",
		},
		{
			name:   "always paid",
			levels: []string{"paid", "paid"},
			want:   "paid",
		},
		{
			name:   "upgraded",
			levels: []string{"free", "free", "paid"},
			want:   "paid",
		},
		{
			name:   "downgraded still paid",
			levels: []string{"paid", "free"},
			want:   "paid",
		},
		{
			name:   "no observations",
			levels: nil,
			want:   "free",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveLevel(tt.levels)
			if got != tt.want {
				t.Errorf("ResolveLevel(%v) = %q, want %q", tt.levels, got, tt.want)
			}
		})
	}
}

func TestReconcileUsers(t *testing.T) {
	tests := []struct {
		name         string
		observations []UserObservation
		want         []UserObservation
	}{
		{
			name:         "empty input",
			observations: nil,
			want:         nil,
		},
		{
			name: "single free user",
			observations: []UserObservation{
				{UserID: 1, FirstName: "Lily", LastName: "Koch", Gender: "F", Level: "free"},
			},
			want: []UserObservation{
				{UserID: 1, FirstName: "Lily", LastName: "Koch", Gender: "F", Level: "free"},
			},
		},
		{
			name: "paid wins over free",
			observations: []UserObservation{
				{UserID: 7, FirstName: "Kate", LastName: "Harrell", Gender: "F", Level: "free"},
				{UserID: 7, FirstName: "Kate", LastName: "Harrell", Gender: "F", Level: "paid"},
			},
			want: []UserObservation{
				{UserID: 7, FirstName: "Kate", LastName: "Harrell", Gender: "F", Level: "paid"},
			},
		},
		{
			name: "duplicate snapshots collapse",
			observations: []UserObservation{
				{UserID: 3, FirstName: "Sara", LastName: "Johnson", Gender: "F", Level: "paid"},
				{UserID: 3, FirstName: "Sara", LastName: "Johnson", Gender: "F", Level: "paid"},
			},
			want: []UserObservation{
				{UserID: 3, FirstName: "Sara", LastName: "Johnson", Gender: "F", Level: "paid"},
			},
		},
		{
			name: "conflicting names at winning level are both kept",
			observations: []UserObservation{
				{UserID: 5, FirstName: "Sam", LastName: "Ward", Gender: "M", Level: "paid"},
				{UserID: 5, FirstName: "Samuel", LastName: "Ward", Gender: "M", Level: "paid"},
			},
			want: []UserObservation{
				{UserID: 5, FirstName: "Sam", LastName: "Ward", Gender: "M", Level: "paid"},
				{UserID: 5, FirstName: "Samuel", LastName: "Ward", Gender: "M", Level: "paid"},
			},
		},
		{
			name: "losing level snapshots are discarded entirely",
			observations: []UserObservation{
				{UserID: 9, FirstName: "Old", LastName: "Name", Gender: "M", Level: "free"},
				{UserID: 9, FirstName: "New", LastName: "Name", Gender: "M", Level: "paid"},
			},
			want: []UserObservation{
				{UserID: 9, FirstName: "New", LastName: "Name", Gender: "M", Level: "paid"},
			},
		},
		{
			name: "output ordered by user id",
			observations: []UserObservation{
				{UserID: 42, FirstName: "B", LastName: "B", Gender: "F", Level: "free"},
				{UserID: 2, FirstName: "A", LastName: "A", Gender: "M", Level: "paid"},
				{UserID: 17, FirstName: "C", LastName: "C", Gender: "F", Level: "free"},
			},
			want: []UserObservation{
				{UserID: 2, FirstName: "A", LastName: "A", Gender: "M", Level: "paid"},
				{UserID: 17, FirstName: "C", LastName: "C", Gender: "F", Level: "free"},
				{UserID: 42, FirstName: "B", LastName: "B", Gender: "F", Level: "free"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReconcileUsers(tt.observations)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ReconcileUsers() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReconcileUsersDeterministic(t *testing.T) {
	observations := []UserObservation{
		{UserID: 30, FirstName: "Avery", LastName: "Watkins", Gender: "F", Level: "paid"},
		{UserID: 8, FirstName: "Kaylee", LastName: "Summers", Gender: "F", Level: "free"},
		{UserID: 30, FirstName: "Avery", LastName: "Watkins", Gender: "F", Level: "free"},
		{UserID: 15, FirstName: "Lily", LastName: "Koch", Gender: "F", Level: "paid"},
	}

	first := ReconcileUsers(observations)
	for i := 0; i < 10; i++ {
		if got := ReconcileUsers(observations); !reflect.DeepEqual(got, first) {
			t.Fatalf("ReconcileUsers not deterministic: run %d gave %v, first run gave %v", i, got, first)
		}
	}
}
