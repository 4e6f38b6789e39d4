package booking

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func d(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

func TestPolicy_OverlapsInclusive(t *testing.T) {
	p := Policy{}

	cases := []struct {
		name           string
		s1, e1, s2, e2 string
		want           bool
	}{
		{"same range", "2024-06-01", "2024-06-10", "2024-06-01", "2024-06-10", true},
		{"touching end", "2024-06-01", "2024-06-10", "2024-06-10", "2024-06-12", true},
		{"touching start", "2024-06-10", "2024-06-12", "2024-06-01", "2024-06-10", true},
		{"next day", "2024-06-01", "2024-06-10", "2024-06-11", "2024-06-12", false},
		{"contained", "2024-06-01", "2024-06-30", "2024-06-10", "2024-06-11", true},
		{"before", "2024-05-01", "2024-05-05", "2024-06-01", "2024-06-10", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, p.Overlaps(d(tc.s1), d(tc.e1), d(tc.s2), d(tc.e2)))
			// symmetric
			assert.Equal(t, tc.want, p.Overlaps(d(tc.s2), d(tc.e2), d(tc.s1), d(tc.e1)))
		})
	}
}

func TestPolicy_OverlapsInclusiveComparesDays(t *testing.T) {
	p := Policy{}
	at := func(day string, hours int) time.Time { return d(day).Add(time.Duration(hours) * time.Hour) }

	// ends at midnight of the 10th, next starts at noon that day
	assert.True(t, p.Overlaps(d("2024-06-01"), d("2024-06-10"), at("2024-06-10", 12), d("2024-06-12")))
	assert.True(t, p.Overlaps(at("2024-06-10", 12), d("2024-06-12"), d("2024-06-01"), d("2024-06-10")))
	// ends late on the 9th, next starts early on the 10th
	assert.False(t, p.Overlaps(d("2024-06-01"), at("2024-06-09", 23), at("2024-06-10", 1), d("2024-06-12")))
	// non-UTC offsets are compared in UTC
	kz := time.FixedZone("UTC+5", 5*3600)
	start := time.Date(2024, 6, 11, 2, 0, 0, 0, kz) // 2024-06-10T21:00Z
	assert.True(t, p.Overlaps(d("2024-06-01"), d("2024-06-10"), start, d("2024-06-12")))

	strict := Policy{SameDayHandover: true}
	assert.False(t, strict.Overlaps(d("2024-06-01"), d("2024-06-10"), at("2024-06-10", 12), d("2024-06-12")))
	assert.True(t, strict.Overlaps(d("2024-06-01"), at("2024-06-10", 13), at("2024-06-10", 12), d("2024-06-12")))
}

func TestPolicy_SameDayHandover(t *testing.T) {
	p := Policy{SameDayHandover: true}

	assert.False(t, p.Overlaps(d("2024-06-01"), d("2024-06-10"), d("2024-06-10"), d("2024-06-12")))
	assert.True(t, p.Overlaps(d("2024-06-01"), d("2024-06-10"), d("2024-06-09"), d("2024-06-12")))
}

func TestPolicy_FindConflicts(t *testing.T) {
	a := Conflict{ID: uuid.New(), StartDate: d("2024-07-01"), EndDate: d("2024-07-05"), Status: StatusConfirmed}
	b := Conflict{ID: uuid.New(), StartDate: d("2024-07-20"), EndDate: d("2024-07-25"), Status: StatusPending}

	got := Policy{}.FindConflicts(d("2024-07-04"), d("2024-07-08"), []Conflict{a, b})
	assert.Equal(t, []Conflict{a}, got)

	assert.Empty(t, Policy{}.FindConflicts(d("2024-07-06"), d("2024-07-10"), []Conflict{a, b}))
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusConfirmed))
	assert.True(t, CanTransition(StatusConfirmed, StatusInProgress))
	assert.True(t, CanTransition(StatusConfirmed, StatusOngoing))
	assert.True(t, CanTransition(StatusOngoing, StatusCompleted))
	assert.False(t, CanTransition(StatusPending, StatusCompleted))
	assert.False(t, CanTransition(StatusCompleted, StatusCancelled))
	assert.False(t, CanTransition(StatusRejected, StatusConfirmed))

	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusOngoing.IsTerminal())
}

func TestRentalDays(t *testing.T) {
	assert.Equal(t, int64(1), RentalDays(d("2024-06-01"), d("2024-06-01").Add(3*time.Hour)))
	assert.Equal(t, int64(1), RentalDays(d("2024-06-01"), d("2024-06-02")))
	assert.Equal(t, int64(2), RentalDays(d("2024-06-01"), d("2024-06-02").Add(time.Minute)))
	assert.Equal(t, int64(9), RentalDays(d("2024-06-01"), d("2024-06-10")))
}
