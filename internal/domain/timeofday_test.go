package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "09:30", want: "09:30"},
		{in: "00:00", want: "00:00"},
		{in: "23:59", want: "23:59"},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "12:345", wantErr: true},
		{in: "9:30", wantErr: true},
		{in: "09:30:00", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTimeOfDay) {
					t.Fatalf("error = %v, want %v", err, ErrInvalidTimeOfDay)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTimeOfDay(%q) error: %v", tt.in, err)
			}
			if got.String() != tt.want {
				t.Fatalf("String() = %q, want %q", got.String(), tt.want)
			}
		})
	}
}

func TestTimeOfDayFrom_TruncatesToMinute(t *testing.T) {
	ts := time.Date(2026, 3, 2, 14, 45, 59, 999, time.UTC)
	if got := TimeOfDayFrom(ts); got.String() != "14:45" {
		t.Fatalf("TimeOfDayFrom = %s, want 14:45", got)
	}
}

func TestDayOfWeekFrom_ISONumbering(t *testing.T) {
	// 2026-03-02 is a Monday.
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		day := DayOfWeekFrom(monday.AddDate(0, 0, i))
		if day != DayOfWeek(i+1) {
			t.Fatalf("day %d = %v, want %v", i, day, DayOfWeek(i+1))
		}
	}
}

func TestTimeOfDayOrdering(t *testing.T) {
	a := mustTime(t, "09:00")
	b := mustTime(t, "09:01")
	if !a.Before(b) || b.Before(a) || a.Before(a) {
		t.Fatalf("Before ordering broken for %s / %s", a, b)
	}
	if !b.After(a) || a.After(b) || a.After(a) {
		t.Fatalf("After ordering broken for %s / %s", a, b)
	}
}
