package timewave

import (
	"math"
	"math/rand/v2"
	"testing"
	"time"
)

func curve() []Point {
	return []Point{
		{At: 0, Probability: 0.9},
		{At: 100 * time.Second, Probability: 0.1},
	}
}

func TestInterp_Endpoints(t *testing.T) {
	if got := Interp(curve(), 0); got != 0.9 {
		t.Errorf("Interp(0) = %v, want 0.9", got)
	}
	if got := Interp(curve(), 100*time.Second); got != 0.1 {
		t.Errorf("Interp(100s) = %v, want 0.1", got)
	}
}

func TestInterp_Midpoint(t *testing.T) {
	got := Interp(curve(), 50*time.Second)
	if math.Abs(got-0.5) > 1e-9 {
		t.Errorf("Interp(50s) = %v, want 0.5", got)
	}
}

func TestInterp_ClampsOutsideRange(t *testing.T) {
	if got := Interp(curve(), -time.Minute); got != 0.9 {
		t.Errorf("Interp(before) = %v, want first point", got)
	}
	if got := Interp(curve(), time.Hour); got != 0.1 {
		t.Errorf("Interp(after) = %v, want last point", got)
	}
}

func TestInterp_MultiSegment(t *testing.T) {
	points := []Point{
		{At: 0, Probability: 0.0},
		{At: 10 * time.Second, Probability: 1.0},
		{At: 20 * time.Second, Probability: 0.5},
	}
	if got := Interp(points, 5*time.Second); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("Interp(5s) = %v, want 0.5", got)
	}
	if got := Interp(points, 15*time.Second); math.Abs(got-0.75) > 1e-9 {
		t.Errorf("Interp(15s) = %v, want 0.75", got)
	}
}

func TestInterp_Empty(t *testing.T) {
	if got := Interp(nil, time.Second); got != 0 {
		t.Errorf("Interp(nil) = %v, want 0", got)
	}
}

func TestParseWindow(t *testing.T) {
	w, err := ParseWindow("06:00-09:00")
	if err != nil {
		t.Fatalf("ParseWindow() error = %v", err)
	}
	if w.Start != 6*time.Hour {
		t.Errorf("Start = %v, want 6h", w.Start)
	}
	if w.End != 9*time.Hour {
		t.Errorf("End = %v, want 9h", w.End)
	}
}

func TestParseWindow_Invalid(t *testing.T) {
	tests := []string{"", "06:00", "09:00-06:00", "06:00-06:00", "aa:bb-cc:dd", "25:00-26:00"}
	for _, s := range tests {
		if _, err := ParseWindow(s); err == nil {
			t.Errorf("ParseWindow(%q) expected error, got nil", s)
		}
	}
}

func TestParseWeekdays(t *testing.T) {
	days, err := ParseWeekdays([]string{"Mon", "tue", "WED"})
	if err != nil {
		t.Fatalf("ParseWeekdays() error = %v", err)
	}
	for _, d := range []time.Weekday{time.Monday, time.Tuesday, time.Wednesday} {
		if !days[d] {
			t.Errorf("missing %v in set", d)
		}
	}
	if days[time.Saturday] {
		t.Error("Saturday unexpectedly in set")
	}
}

func TestParseWeekdays_Invalid(t *testing.T) {
	if _, err := ParseWeekdays(nil); err == nil {
		t.Error("ParseWeekdays(nil) expected error")
	}
	if _, err := ParseWeekdays([]string{"Funday"}); err == nil {
		t.Error("ParseWeekdays(Funday) expected error")
	}
}

func TestNextUsageTime_InsideWindow(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	days, _ := ParseWeekdays([]string{"Mon", "Tue", "Wed", "Thu", "Fri"})
	window, _ := ParseWindow("06:00-09:00")

	// Monday 2026-01-05 07:00 UTC, mid-window.
	now := time.Date(2026, 1, 5, 7, 0, 0, 0, time.UTC)

	for i := 0; i < 100; i++ {
		next := NextUsageTime(rng, now, days, window)
		if !next.After(now) {
			t.Fatalf("next = %v, not after now", next)
		}
		if next.After(time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)) {
			t.Fatalf("next = %v, outside remaining window", next)
		}
	}
}

func TestNextUsageTime_SkipsWeekend(t *testing.T) {
	rng := rand.New(rand.NewPCG(2, 2))
	days, _ := ParseWeekdays([]string{"Mon", "Tue", "Wed", "Thu", "Fri"})
	window, _ := ParseWindow("06:00-09:00")

	// Friday 2026-01-09 10:00 UTC: today's window has passed.
	now := time.Date(2026, 1, 9, 10, 0, 0, 0, time.UTC)

	next := NextUsageTime(rng, now, days, window)
	if next.Weekday() != time.Monday {
		t.Errorf("next weekday = %v, want Monday", next.Weekday())
	}
	h := next.Hour()
	if h < 6 || h > 9 {
		t.Errorf("next hour = %d, want within 06:00-09:00", h)
	}
}

func TestNextUsageTime_AfterTodayWindowMovesToTomorrow(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 3))
	days, _ := ParseWeekdays([]string{"Mon", "Tue"})
	window, _ := ParseWindow("06:00-09:00")

	// Monday 09:30: Monday's window passed, Tuesday is allowed.
	now := time.Date(2026, 1, 5, 9, 30, 0, 0, time.UTC)

	next := NextUsageTime(rng, now, days, window)
	if next.Weekday() != time.Tuesday {
		t.Errorf("next weekday = %v, want Tuesday", next.Weekday())
	}
}
