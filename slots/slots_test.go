package slots

import (
	"reflect"
	"testing"
	"time"
)

func at(hour, min int) time.Time {
	return time.Date(2024, 6, 15, hour, min, 0, 0, time.UTC)
}

func TestDateKey(t *testing.T) {
	cases := []struct {
		in   time.Time
		want string
	}{
		{time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), "15_6_2024"},
		{time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), "2_1_2024"},
		{time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), "31_12_2025"},
	}
	for _, c := range cases {
		if got := DateKey(c.in); got != c.want {
			t.Errorf("DateKey(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestTimeLabel(t *testing.T) {
	cases := []struct {
		hour, min int
		want      string
	}{
		{10, 0, "10:00 AM"},
		{10, 30, "10:30 AM"},
		{12, 0, "12:00 PM"},
		{15, 30, "03:30 PM"},
		{20, 30, "08:30 PM"},
	}
	for _, c := range cases {
		if got := TimeLabel(at(c.hour, c.min)); got != c.want {
			t.Errorf("TimeLabel(%02d:%02d) = %q, want %q", c.hour, c.min, got, c.want)
		}
	}
}

func TestGenerateFirstSlotOfToday(t *testing.T) {
	cases := []struct {
		name      string
		now       time.Time
		wantFirst string
	}{
		{"before opening", at(8, 15), "10:00 AM"},
		{"mid-morning on the hour side", at(10, 15), "11:00 AM"},
		{"afternoon before half hour", at(14, 20), "03:00 PM"},
		{"afternoon after half hour", at(14, 40), "03:30 PM"},
		{"last bookable window", at(19, 45), "08:30 PM"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			out := Generate(c.now, nil)
			if len(out) == 0 {
				t.Fatal("no days generated")
			}
			today := out[0]
			if today.DateKey != "15_6_2024" {
				t.Fatalf("first day key = %q, want today", today.DateKey)
			}
			if today.Slots[0].Time != c.wantFirst {
				t.Errorf("first slot = %q, want %q", today.Slots[0].Time, c.wantFirst)
			}
		})
	}
}

func TestGenerateSkipsTodayWhenClosed(t *testing.T) {
	// 20:31 rounds to 21:30, past the daily window, so today produces no
	// slots and must be omitted from the output entirely.
	out := Generate(at(20, 31), nil)
	if len(out) != 6 {
		t.Fatalf("got %d days, want 6", len(out))
	}
	if out[0].DateKey != "16_6_2024" {
		t.Errorf("first day = %q, want tomorrow", out[0].DateKey)
	}
}

func TestGenerateHorizonAndOrdering(t *testing.T) {
	out := Generate(at(8, 0), nil)
	if len(out) != 7 {
		t.Fatalf("got %d days, want 7", len(out))
	}

	wantKeys := []string{"15_6_2024", "16_6_2024", "17_6_2024", "18_6_2024", "19_6_2024", "20_6_2024", "21_6_2024"}
	for i, d := range out {
		if d.DateKey != wantKeys[i] {
			t.Errorf("day %d key = %q, want %q", i, d.DateKey, wantKeys[i])
		}
		// 10:00 through 20:30 is 22 starts
		if len(d.Slots) != 22 {
			t.Errorf("day %q has %d slots, want 22", d.DateKey, len(d.Slots))
		}
		for j := 1; j < len(d.Slots); j++ {
			if !d.Slots[j-1].Datetime.Before(d.Slots[j].Datetime) {
				t.Errorf("day %q slots out of order at %d", d.DateKey, j)
			}
		}
	}
}

func TestGenerateExcludesBookedSlots(t *testing.T) {
	booked := map[string][]string{
		"16_6_2024": {"10:30 AM", "03:00 PM"},
	}
	out := Generate(at(8, 0), booked)

	var day *DaySlots
	for i := range out {
		if out[i].DateKey == "16_6_2024" {
			day = &out[i]
		}
	}
	if day == nil {
		t.Fatal("16_6_2024 missing from output")
	}
	if len(day.Slots) != 20 {
		t.Errorf("got %d slots, want 20", len(day.Slots))
	}
	for _, s := range day.Slots {
		if s.Time == "10:30 AM" || s.Time == "03:00 PM" {
			t.Errorf("booked slot %q offered", s.Time)
		}
	}
}

func TestGenerateOmitsFullyBookedDay(t *testing.T) {
	var all []string
	for h := openHour; h < closeHour; h++ {
		all = append(all, TimeLabel(at(h, 0)), TimeLabel(at(h, 30)))
	}
	booked := map[string][]string{"17_6_2024": all}

	out := Generate(at(8, 0), booked)
	if len(out) != 6 {
		t.Fatalf("got %d days, want 6", len(out))
	}
	for _, d := range out {
		if d.DateKey == "17_6_2024" {
			t.Error("fully booked day still present")
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	booked := map[string][]string{"15_6_2024": {"11:00 AM"}}
	a := Generate(at(9, 10), booked)
	b := Generate(at(9, 10), booked)
	if !reflect.DeepEqual(a, b) {
		t.Error("identical inputs produced different output")
	}
	if got := booked["15_6_2024"]; len(got) != 1 {
		t.Error("booked map mutated by Generate")
	}
}
