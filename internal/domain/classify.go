package domain

import (
	"sort"
	"time"
)

// Bucket is one of the classifier's output partitions.
type Bucket string

const (
	BucketToday    Bucket = "today"
	BucketUpcoming Bucket = "upcoming"
	BucketPast     Bucket = "past"
)

// String returns the string representation of the bucket.
func (b Bucket) String() string {
	return string(b)
}

// DayWindow is the caller's local calendar day as a closed interval.
type DayWindow struct {
	Start time.Time
	End   time.Time
}

// WindowFor returns the calendar day containing now, in now's location.
// End is the last representable instant of the day, so the interval is
// closed on both ends. DST days are 23 or 25 hours long.
func WindowFor(now time.Time) DayWindow {
	y, m, d := now.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	next := start.AddDate(0, 0, 1)
	return DayWindow{Start: start, End: next.Add(-time.Nanosecond)}
}

// Classify places due into exactly one bucket relative to now.
func Classify(now, due time.Time) Bucket {
	return WindowFor(now).Classify(due)
}

// Classify places due into exactly one bucket of the window.
func (w DayWindow) Classify(due time.Time) Bucket {
	switch {
	case due.Before(w.Start):
		return BucketPast
	case due.After(w.End):
		return BucketUpcoming
	default:
		return BucketToday
	}
}

// NotificationGroups holds visible appointments partitioned by bucket,
// each ordered by due instant ascending.
type NotificationGroups struct {
	Today    []Appointment `json:"today"`
	Upcoming []Appointment `json:"upcoming"`
	Past     []Appointment `json:"past"`
}

// Len returns the total number of appointments across all buckets.
func (g NotificationGroups) Len() int {
	return len(g.Today) + len(g.Upcoming) + len(g.Past)
}

// Bucket returns the slice for b.
func (g NotificationGroups) Bucket(b Bucket) []Appointment {
	switch b {
	case BucketToday:
		return g.Today
	case BucketUpcoming:
		return g.Upcoming
	case BucketPast:
		return g.Past
	default:
		return nil
	}
}

// Find reports the bucket holding the appointment with id.
func (g NotificationGroups) Find(id string) (Bucket, bool) {
	for _, b := range []Bucket{BucketToday, BucketUpcoming, BucketPast} {
		for _, a := range g.Bucket(b) {
			if a.ID == id {
				return b, true
			}
		}
	}
	return "", false
}

// Without returns a copy of the groups with the appointment id removed from every bucket.
func (g NotificationGroups) Without(id string) NotificationGroups {
	return NotificationGroups{
		Today:    removeByID(g.Today, id),
		Upcoming: removeByID(g.Upcoming, id),
		Past:     removeByID(g.Past, id),
	}
}

// Clone returns a deep copy of the groups.
func (g NotificationGroups) Clone() NotificationGroups {
	return NotificationGroups{
		Today:    append([]Appointment{}, g.Today...),
		Upcoming: append([]Appointment{}, g.Upcoming...),
		Past:     append([]Appointment{}, g.Past...),
	}
}

func removeByID(in []Appointment, id string) []Appointment {
	out := make([]Appointment, 0, len(in))
	for _, a := range in {
		if a.ID != id {
			out = append(out, a)
		}
	}
	return out
}

// Partition classifies appointments relative to now into the three buckets.
// Buckets are never nil so they encode as empty JSON arrays.
func Partition(appointments []Appointment, now time.Time) NotificationGroups {
	window := WindowFor(now)
	groups := NotificationGroups{
		Today:    []Appointment{},
		Upcoming: []Appointment{},
		Past:     []Appointment{},
	}
	for _, a := range appointments {
		switch window.Classify(a.Due) {
		case BucketToday:
			groups.Today = append(groups.Today, a)
		case BucketUpcoming:
			groups.Upcoming = append(groups.Upcoming, a)
		default:
			groups.Past = append(groups.Past, a)
		}
	}
	SortByDue(groups.Today)
	SortByDue(groups.Upcoming)
	SortByDue(groups.Past)
	return groups
}

// SortByDue orders appointments by due instant ascending, ties by ID.
func SortByDue(appointments []Appointment) {
	sort.SliceStable(appointments, func(i, j int) bool {
		if appointments[i].Due.Equal(appointments[j].Due) {
			return appointments[i].ID < appointments[j].ID
		}
		return appointments[i].Due.Before(appointments[j].Due)
	})
}

// Notifications is the aggregator result: grouped appointments plus the unread badge.
type Notifications struct {
	Groups      NotificationGroups `json:"groups"`
	UnreadCount int                `json:"unreadCount"`
}
