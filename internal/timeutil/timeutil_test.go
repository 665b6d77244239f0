package timeutil

import (
	"testing"
	"time"
)

func TestClockDurationRoundTrip(t *testing.T) {
	durations := []time.Duration{
		0,
		time.Second,
		59 * time.Second,
		time.Minute,
		90 * time.Minute,
		2*time.Hour + 15*time.Minute,
		-(2*time.Hour + 15*time.Minute),
		26*time.Hour + 59*time.Minute + 59*time.Second,
		-time.Second,
	}
	for _, d := range durations {
		text := FormatClockDuration(d)
		parsed, err := ParseClockDuration(text)
		if err != nil {
			t.Fatalf("parse %q: %v", text, err)
		}
		if parsed != d {
			t.Fatalf("round trip %v -> %q -> %v", d, text, parsed)
		}
	}
}

func TestParseClockDurationNegative(t *testing.T) {
	d, err := ParseClockDuration("-2:15:00")
	if err != nil {
		t.Fatal(err)
	}
	if d != -8100*time.Second {
		t.Fatalf("expected -8100s, got %v", d)
	}
}

func TestParseClockDurationInvalid(t *testing.T) {
	for _, s := range []string{"", "1:2", "1:60:00", "1:00:60", "x:00:00", "1:-1:00", "12:3"} {
		if _, err := ParseClockDuration(s); err == nil {
			t.Fatalf("expected error for %q", s)
		}
	}
}

func TestDecimalHours(t *testing.T) {
	if got := FormatDecimalHours(20*time.Hour + 30*time.Minute); got != "20.5" {
		t.Fatalf("expected 20.5, got %s", got)
	}
	d, err := ParseDecimalHours("1.5")
	if err != nil {
		t.Fatal(err)
	}
	if d != 90*time.Minute {
		t.Fatalf("expected 90m, got %v", d)
	}
	if _, err := ParseDecimalHours("abc"); err == nil {
		t.Fatal("expected error")
	}
}

func TestParseDecimalHoursNonFinite(t *testing.T) {
	// strconv.ParseFloat accepts these spellings; the seconds truncation
	// below is only defined for finite values.
	for _, s := range []string{"Inf", "+Inf", "-Inf", "NaN", "inf", "nan"} {
		if _, err := ParseDecimalHours(s); err == nil {
			t.Fatalf("expected error for %q", s)
		}
	}
}

func TestCombineDate(t *testing.T) {
	base := time.Date(2021, 3, 14, 9, 26, 53, 0, time.Local)
	got, err := CombineDate(base, "2022-11-05")
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2022, 11, 5, 9, 26, 53, 0, time.Local)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	if _, err := CombineDate(base, "not-a-date"); err == nil {
		t.Fatal("expected error")
	}
}

func TestCombineClock(t *testing.T) {
	base := time.Date(2021, 3, 14, 9, 26, 53, 0, time.Local)
	got, err := CombineClock(base, "23:02:07")
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2021, 3, 14, 23, 2, 7, 0, time.Local)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	if _, err := CombineClock(base, "25:00:00"); err == nil {
		t.Fatal("expected error for out-of-range hour")
	}
}

func TestWireRoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	parsed, err := ParseWire(FormatWire(now))
	if err != nil {
		t.Fatal(err)
	}
	if !parsed.Equal(now) {
		t.Fatalf("wire round trip changed instant: %v -> %v", now, parsed)
	}
}

func TestParseWireInvalid(t *testing.T) {
	if _, err := ParseWire("yesterday"); err == nil {
		t.Fatal("expected error")
	}
}
