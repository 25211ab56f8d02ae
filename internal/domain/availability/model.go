package availability

import (
	"regexp"
	"sort"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the calendar date format used across the API.
const DateLayout = "2006-01-02"

var timePattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// Day holds a doctor's open slots for one calendar date. TimeSlots is
// kept deduplicated and sorted in time-of-day order.
type Day struct {
	ID        uuid.UUID `json:"id"`
	DoctorID  uuid.UUID `json:"doctorId"`
	Date      string    `json:"date"`
	TimeSlots []string  `json:"timeSlots"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ValidDate reports whether s is a well-formed YYYY-MM-DD date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// ValidTime reports whether s is a zero-padded HH:MM time of day.
func ValidTime(s string) bool {
	return timePattern.MatchString(s)
}

// NormalizeSlots deduplicates and sorts time slots in time-of-day
// order. Zero-padded HH:MM strings sort the same lexicographically, so
// plain string order is used.
func NormalizeSlots(slots []string) []string {
	seen := make(map[string]bool, len(slots))
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
