package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeDateOnly(t *testing.T) {
	got, ok := ParseTime("2024-10-10")
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Year() != 2024 || got.Month() != 10 || got.Day() != 10 {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestNextBusinessDaySkipsWeekend(t *testing.T) {
	friday := time.Date(2025, 8, 29, 0, 0, 0, 0, time.UTC)
	got := NextBusinessDay(friday)
	want := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC) // Monday
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestNextBusinessDays(t *testing.T) {
	thursday := time.Date(2025, 8, 28, 0, 0, 0, 0, time.UTC)
	days := NextBusinessDays(thursday, 3)
	if len(days) != 3 {
		t.Fatalf("expected 3 days, got %d", len(days))
	}
	want := []time.Time{
		time.Date(2025, 8, 29, 0, 0, 0, 0, time.UTC), // Friday
		time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),  // Monday
		time.Date(2025, 9, 2, 0, 0, 0, 0, time.UTC),  // Tuesday
	}
	for i := range want {
		if !days[i].Equal(want[i]) {
			t.Fatalf("day %d: got %v, want %v", i, days[i], want[i])
		}
		if wd := days[i].Weekday(); wd == time.Saturday || wd == time.Sunday {
			t.Fatalf("day %d lands on a weekend: %v", i, days[i])
		}
	}
}
