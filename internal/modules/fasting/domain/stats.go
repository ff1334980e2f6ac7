package domain

import (
	"fmt"
	"math"
	"sort"
	"time"
)

const (
	DefaultStreakMinHours = 16.0
	dayKeyLayout          = "2006-01-02"
	msPerHour             = 3_600_000
)

func MsToHours(ms int64) float64 {
	if ms < 0 {
		return 0
	}
	return float64(ms) / msPerHour
}

// FormatElapsed renders d as H:MM:SS, truncating sub-second precision.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

// Progress is the fraction of the target reached, capped at 1.
func Progress(elapsed time.Duration, targetHours float64) float64 {
	if targetHours <= 0 || elapsed <= 0 {
		return 0
	}
	return math.Min(1, elapsed.Hours()/targetHours)
}

type DayBucket struct {
	Date  time.Time
	Label string
	Hours float64
}

// Last7DaysBuckets totals completed hours per calendar day of EndAt for the
// seven days ending on now's day, oldest first.
func Last7DaysBuckets(fasts []CompletedFast, now time.Time) []DayBucket {
	loc := now.Location()
	start := startOfDay(now).AddDate(0, 0, -6)
	totals := make(map[string]time.Duration, 7)
	for _, f := range fasts {
		totals[dayKey(f.EndAt.In(loc))] += f.Duration()
	}
	buckets := make([]DayBucket, 0, 7)
	for i := 0; i < 7; i++ {
		day := start.AddDate(0, 0, i)
		hours := MsToHours(totals[dayKey(day)].Milliseconds())
		buckets = append(buckets, DayBucket{
			Date:  day.In(loc),
			Label: day.Format("Mon"),
			Hours: roundTenth(hours),
		})
	}
	return buckets
}

// ComputeStreak counts consecutive qualifying days walking back from today.
// Today qualifies through a completed fast ending today or through an ongoing
// fast already past minHours. When today does not qualify the walk starts
// from yesterday.
func ComputeStreak(fasts []CompletedFast, minHours float64, ongoing time.Duration, now time.Time) int {
	qualifying := qualifyingDays(fasts, minHours, now.Location())
	day := startOfDay(now)
	if !qualifying[dayKey(day)] && !(ongoing > 0 && ongoing.Hours() >= minHours) {
		day = day.AddDate(0, 0, -1)
	} else {
		qualifying[dayKey(day)] = true
	}
	streak := 0
	for qualifying[dayKey(day)] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// ComputeBestStreak finds the longest run of consecutive qualifying days
// anywhere in history, with days counted in loc.
func ComputeBestStreak(fasts []CompletedFast, minHours float64, loc *time.Location) int {
	if len(fasts) == 0 {
		return 0
	}
	if loc == nil {
		loc = time.Local
	}
	qualifying := qualifyingDays(fasts, minHours, loc)
	if len(qualifying) == 0 {
		return 0
	}
	keys := make([]string, 0, len(qualifying))
	for key := range qualifying {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	best, run := 1, 1
	for i := 1; i < len(keys); i++ {
		if nextDayKey(keys[i-1]) == keys[i] {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}

const (
	DayStatusSuccess = "success"
	DayStatusPartial = "partial"
	DayStatusNone    = "none"
)

type CalendarDay struct {
	Date   time.Time
	Status string
	Fasts  []CompletedFast
	Hours  float64
}

// MonthCalendar returns one entry per day of month's calendar month. A day
// is a success when any fast ending on it reached minHours, partial when it
// has shorter fasts only.
func MonthCalendar(fasts []CompletedFast, month time.Time, minHours float64) []CalendarDay {
	loc := month.Location()
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, loc)
	byDay := make(map[string][]CompletedFast)
	for _, f := range fasts {
		key := dayKey(f.EndAt.In(loc))
		byDay[key] = append(byDay[key], f)
	}

	var days []CalendarDay
	for day := first; day.Month() == first.Month(); day = day.AddDate(0, 0, 1) {
		list := byDay[dayKey(day)]
		sort.Slice(list, func(i, j int) bool { return list[i].StartAt.Before(list[j].StartAt) })
		entry := CalendarDay{Date: day, Status: DayStatusNone, Fasts: list}
		var total time.Duration
		for _, f := range list {
			total += f.Duration()
			if f.Hours() >= minHours {
				entry.Status = DayStatusSuccess
			}
		}
		if entry.Status != DayStatusSuccess && len(list) > 0 {
			entry.Status = DayStatusPartial
		}
		entry.Hours = roundTenth(MsToHours(total.Milliseconds()))
		days = append(days, entry)
	}
	return days
}

// PastFasts returns completed fasts newest first by EndAt. A limit of zero
// or less returns all of them.
func PastFasts(fasts []CompletedFast, limit int) []CompletedFast {
	out := append([]CompletedFast(nil), fasts...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].EndAt.After(out[j].EndAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func qualifyingDays(fasts []CompletedFast, minHours float64, loc *time.Location) map[string]bool {
	days := make(map[string]bool)
	for _, f := range fasts {
		if f.Hours() >= minHours {
			days[dayKey(f.EndAt.In(loc))] = true
		}
	}
	return days
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func dayKey(t time.Time) string {
	return t.Format(dayKeyLayout)
}

func nextDayKey(key string) string {
	day, err := time.Parse(dayKeyLayout, key)
	if err != nil {
		return ""
	}
	return dayKey(day.AddDate(0, 0, 1))
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
