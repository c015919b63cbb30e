package timewave

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"time"
)

// Point is one sample of a time-indexed probability curve. At is relative
// to the simulation start time.
type Point struct {
	At          time.Duration `yaml:"at"`
	Probability float64       `yaml:"probability"`
}

// Interp linearly interpolates a probability curve at relTime.
//
// Outside the curve's range the endpoint values are returned unchanged.
// Points must be ordered by ascending At; an empty curve yields 0.
func Interp(points []Point, relTime time.Duration) float64 {
	if len(points) == 0 {
		return 0
	}
	if relTime <= points[0].At {
		return points[0].Probability
	}
	last := points[len(points)-1]
	if relTime >= last.At {
		return last.Probability
	}

	// First point strictly after relTime; its predecessor starts the segment.
	i := sort.Search(len(points), func(i int) bool {
		return points[i].At > relTime
	})
	a, b := points[i-1], points[i]

	span := b.At - a.At
	if span <= 0 {
		return a.Probability
	}
	frac := float64(relTime-a.At) / float64(span)
	return a.Probability + frac*(b.Probability-a.Probability)
}

// Window is a time-of-day interval, e.g. 06:00-09:00.
type Window struct {
	Start time.Duration // offset from midnight
	End   time.Duration
}

// ParseWindow parses a "HH:MM-HH:MM" time-of-day window.
func ParseWindow(s string) (Window, error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return Window{}, fmt.Errorf("parsing window %q: want HH:MM-HH:MM", s)
	}
	start, err := parseClock(parts[0])
	if err != nil {
		return Window{}, fmt.Errorf("parsing window %q: %w", s, err)
	}
	end, err := parseClock(parts[1])
	if err != nil {
		return Window{}, fmt.Errorf("parsing window %q: %w", s, err)
	}
	if end <= start {
		return Window{}, fmt.Errorf("parsing window %q: end must be after start", s)
	}
	return Window{Start: start, End: end}, nil
}

// parseClock parses "HH:MM" as an offset from midnight.
func parseClock(s string) (time.Duration, error) {
	var h, m int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock value %q out of range", s)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}

// weekdayNames maps schedule abbreviations to time.Weekday.
var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// ParseWeekdays converts day abbreviations ("Mon", "tue", ...) into a
// weekday set. The set must not be empty.
func ParseWeekdays(names []string) (map[time.Weekday]bool, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("parsing weekdays: empty set")
	}
	days := make(map[time.Weekday]bool, len(names))
	for _, name := range names {
		d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("parsing weekdays: unknown day %q", name)
		}
		days[d] = true
	}
	return days, nil
}

// NextUsageTime returns the next instant, strictly after now, that falls
// on one of the given weekdays inside the time-of-day window. The instant
// is placed uniformly at random within the remaining part of the window,
// modelling human interaction bursts rather than a Poisson process.
func NextUsageTime(rng *rand.Rand, now time.Time, days map[time.Weekday]bool, window Window) time.Time {
	// Walk forward day by day; 8 covers "later today" plus a full week.
	for i := 0; i < 8; i++ {
		day := now.AddDate(0, 0, i)
		if !days[day.Weekday()] {
			continue
		}
		midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
		start := midnight.Add(window.Start)
		end := midnight.Add(window.End)
		if !end.After(now) {
			continue // today's window already passed
		}
		if start.Before(now) {
			start = now
		}
		span := end.Sub(start)
		offset := time.Duration(rng.Int64N(int64(span) + 1))
		next := start.Add(offset)
		if next.After(now) {
			return next
		}
	}
	// Unreachable for a non-empty weekday set; fall back to one week out.
	return now.AddDate(0, 0, 7)
}
