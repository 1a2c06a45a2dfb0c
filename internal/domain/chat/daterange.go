package chat

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// RangeKind labels how a DateRange was inferred.
type RangeKind string

const (
	RangeToday       RangeKind = "today"
	RangeYesterday   RangeKind = "yesterday"
	RangeLastWeek    RangeKind = "last_week"
	RangeThisMonth   RangeKind = "this_month"
	RangeLastMonth   RangeKind = "last_month"
	RangeThisYear    RangeKind = "this_year"
	RangeLastYear    RangeKind = "last_year"
	RangeSpecificDay RangeKind = "specific_day"
)

// DateRange is an inclusive [Start, End] window derived from a chat message.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Kind  RangeKind `json:"kind"`
}

// Label renders the kind for replies, e.g. "last month".
func (k RangeKind) Label() string {
	return strings.ReplaceAll(string(k), "_", " ")
}

// RangeLabel renders r's kind, or "all time" when no range was inferred.
func RangeLabel(r *DateRange) string {
	if r == nil {
		return "all time"
	}
	return r.Kind.Label()
}

type rangePattern struct {
	re    *regexp.Regexp
	build func(now time.Time) DateRange
}

// Checked in order; the first match wins.
var relativeRanges = []rangePattern{
	{
		re: regexp.MustCompile(`\b(today|tonight|this (morning|afternoon|evening))\b`),
		build: func(now time.Time) DateRange {
			return DateRange{Start: startOfDay(now), End: endOfDay(now), Kind: RangeToday}
		},
	},
	{
		re: regexp.MustCompile(`\b(yesterday|last night)\b`),
		build: func(now time.Time) DateRange {
			d := now.AddDate(0, 0, -1)
			return DateRange{Start: startOfDay(d), End: endOfDay(d), Kind: RangeYesterday}
		},
	},
	{
		re: regexp.MustCompile(`\b((last|past|previous) week|last 7 days)\b`),
		build: func(now time.Time) DateRange {
			// Rolling window: the start keeps now's time of day.
			return DateRange{Start: now.AddDate(0, 0, -7), End: endOfDay(now), Kind: RangeLastWeek}
		},
	},
	{
		re: regexp.MustCompile(`\b(this|current) month\b`),
		build: func(now time.Time) DateRange {
			return DateRange{Start: startOfMonth(now), End: endOfDay(now), Kind: RangeThisMonth}
		},
	},
	{
		re: regexp.MustCompile(`\b(last|previous) month\b`),
		build: func(now time.Time) DateRange {
			first := startOfMonth(now)
			return DateRange{Start: first.AddDate(0, -1, 0), End: first.Add(-time.Millisecond), Kind: RangeLastMonth}
		},
	},
	{
		re: regexp.MustCompile(`\b(this|current) year\b`),
		build: func(now time.Time) DateRange {
			return yearRange(now.Year(), now.Location(), RangeThisYear)
		},
	},
	{
		re: regexp.MustCompile(`\b(last|previous) year\b`),
		build: func(now time.Time) DateRange {
			return yearRange(now.Year()-1, now.Location(), RangeLastYear)
		},
	},
}

var (
	isoDatePattern     = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	numericDatePattern = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{4})\b`)
)

// Infer extracts a date range from message relative to now. It returns false
// when nothing is recognised; callers treat that as "all time".
//
// Examples:
//   - "what did I spend today"        → today
//   - "groceries last month"          → last_month
//   - "coffee on 2025-03-04"          → specific_day (March 4)
//   - "7/10/2025"                     → specific_day (July 10, month-first)
//   - "13/10/2025"                    → specific_day (October 13, day-first)
func Infer(message string, now time.Time) (DateRange, bool) {
	lower := strings.ToLower(message)

	for _, p := range relativeRanges {
		if p.re.MatchString(lower) {
			return p.build(now), true
		}
	}

	if day, ok := explicitDate(lower, now.Location()); ok {
		return DateRange{Start: startOfDay(day), End: endOfDay(day), Kind: RangeSpecificDay}, true
	}

	return DateRange{}, false
}

func explicitDate(s string, loc *time.Location) (time.Time, bool) {
	if m := isoDatePattern.FindStringSubmatch(s); m != nil {
		return makeDate(atoi(m[1]), atoi(m[2]), atoi(m[3]), loc)
	}

	if m := numericDatePattern.FindStringSubmatch(s); m != nil {
		first, second, year := atoi(m[1]), atoi(m[2]), atoi(m[3])
		if first > 12 {
			return makeDate(year, second, first, loc)
		}
		return makeDate(year, first, second, loc)
	}

	return time.Time{}, false
}

// makeDate rejects dates time.Date would silently normalise, such as Feb 30.
func makeDate(year, month, day int, loc *time.Location) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// endOfDay is the last millisecond of t's calendar day.
func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func daysInMonth(t time.Time) int {
	return startOfMonth(t).AddDate(0, 1, -1).Day()
}

func yearRange(year int, loc *time.Location, kind RangeKind) DateRange {
	return DateRange{
		Start: time.Date(year, time.January, 1, 0, 0, 0, 0, loc),
		End:   time.Date(year, time.December, 31, 23, 59, 59, int(999*time.Millisecond), loc),
		Kind:  kind,
	}
}
