package booking

import (
	"time"

	"equiprent/internal/pkg/dateutil"

	"github.com/google/uuid"
)

// Statuses that occupy equipment when a new booking or a date change is
// checked. Pending requests hold their slot so renters cannot race each other.
var CreationBlockingStatuses = []Status{StatusPending, StatusConfirmed, StatusInProgress}

// Statuses that prevent an owner from approving a pending booking. Other
// pending requests never block approval.
var ApprovalBlockingStatuses = []Status{StatusConfirmed, StatusInProgress, StatusOngoing}

// Policy decides how two date ranges are compared.
type Policy struct {
	// SameDayHandover makes touching ranges (one ends when the next starts)
	// compatible and compares exact instants. Off by default: ranges are
	// compared by UTC calendar day, inclusive, so any shared day overlaps.
	SameDayHandover bool
}

// Overlaps compares [s1,e1] with [s2,e2].
func (p Policy) Overlaps(s1, e1, s2, e2 time.Time) bool {
	if p.SameDayHandover {
		return s1.Before(e2) && e1.After(s2)
	}
	return !dateutil.StartOfDay(s1).After(dateutil.StartOfDay(e2)) &&
		!dateutil.StartOfDay(e1).Before(dateutil.StartOfDay(s2))
}

// Conflict is an existing booking that collides with a requested range.
type Conflict struct {
	ID         uuid.UUID `json:"id"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	Status     Status    `json:"status"`
	RenterName string    `json:"renter_name,omitempty"`
}

// FindConflicts returns the candidates overlapping [start,end], keeping input order.
func (p Policy) FindConflicts(start, end time.Time, candidates []Conflict) []Conflict {
	var out []Conflict
	for _, c := range candidates {
		if p.Overlaps(start, end, c.StartDate, c.EndDate) {
			out = append(out, c)
		}
	}
	return out
}

func statusStrings(statuses []Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
