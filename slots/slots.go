// Package slots computes the bookable time slots offered for a provider
// over the next seven days, given the provider's already-booked slot map.
package slots

import (
	"fmt"
	"time"
)

const (
	// Providers take appointments between 10:00 and 21:00 local time,
	// in 30 minute steps; 21:00 itself is not a valid start.
	openHour  = 10
	closeHour = 21

	stepMinutes = 30
	horizonDays = 7
)

// Slot is one offered (date, time) pair.
type Slot struct {
	Datetime time.Time `json:"datetime"`
	Time     string    `json:"time"`
}

// DaySlots groups a day's offered slots under its date key.
type DaySlots struct {
	DateKey string `json:"date_key"`
	Slots   []Slot `json:"slots"`
}

// DateKey renders the date index used in a provider's slots_booked map,
// e.g. "2_6_2024" for June 2nd 2024. Day and month carry no zero padding.
func DateKey(t time.Time) string {
	return fmt.Sprintf("%d_%d_%d", t.Day(), int(t.Month()), t.Year())
}

// TimeLabel renders a slot start in the stored label format, e.g. "10:30 AM".
func TimeLabel(t time.Time) string {
	return t.Format("03:04 PM")
}

// Generate returns the bookable slots for the seven calendar days starting
// at now's date, skipping booked and past times. It is a pure function of
// its inputs: no clock reads, no mutation of the booked map.
//
// Days that end up with zero free slots are omitted from the result
// entirely rather than returned empty; callers render only the days
// present.
func Generate(now time.Time, booked map[string][]string) []DaySlots {
	var out []DaySlots

	for i := 0; i < horizonDays; i++ {
		day := now.AddDate(0, 0, i)
		end := time.Date(day.Year(), day.Month(), day.Day(), closeHour, 0, 0, 0, day.Location())

		var cursor time.Time
		if i == 0 {
			cursor = firstSlotToday(now)
		} else {
			cursor = time.Date(day.Year(), day.Month(), day.Day(), openHour, 0, 0, 0, day.Location())
		}

		key := DateKey(day)
		taken := booked[key]

		var daySlots []Slot
		for cursor.Before(end) {
			label := TimeLabel(cursor)
			if !contains(taken, label) {
				daySlots = append(daySlots, Slot{Datetime: cursor, Time: label})
			}
			cursor = cursor.Add(stepMinutes * time.Minute)
		}

		if len(daySlots) > 0 {
			out = append(out, DaySlots{DateKey: key, Slots: daySlots})
		}
	}

	return out
}

// firstSlotToday rounds now up to the next offerable start: before opening
// the day starts at 10:00; after that the first candidate is in the next
// hour, on the half hour when now has already passed the half-hour mark.
func firstSlotToday(now time.Time) time.Time {
	if now.Hour() < openHour {
		return time.Date(now.Year(), now.Month(), now.Day(), openHour, 0, 0, 0, now.Location())
	}
	minute := 0
	if now.Minute() > 30 {
		minute = 30
	}
	return time.Date(now.Year(), now.Month(), now.Day(), now.Hour()+1, minute, 0, 0, now.Location())
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
