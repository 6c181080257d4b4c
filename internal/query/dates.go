package query

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// DefaultDateKeys are the search keys whose values run through the date
// normalizer before reaching any backend.
var DefaultDateKeys = []string{
	"date", "before", "after", "on", "since",
	"sentbefore", "senton", "sentsince",
}

// relativePattern matches relative dates like "2d", "3w", "6m", "1y".
var relativePattern = regexp.MustCompile(`^([0-9]+)([dwmy])$`)

// Unit lengths for relative dates. Months and years are fixed 30- and
// 365-day approximations; existing query semantics depend on these exact
// constants, so they must not become calendar-accurate.
var relativeUnitDays = map[string]int{
	"d": 1,
	"w": 7,
	"m": 30,
	"y": 365,
}

var monthNames = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday,
	"wed": time.Wednesday, "thu": time.Thursday, "fri": time.Friday,
	"sat": time.Saturday,
}

// NormalizeDate turns a raw date value into a Date triple relative to the
// reference instant. Failure to parse is not an error: the original string
// comes back unchanged and callers treat it as opaque.
func NormalizeDate(value string, ref time.Time) interface{} {
	raw := strings.TrimSpace(strings.ToLower(value))
	raw = strings.ReplaceAll(raw, "/", "-")

	if m := relativePattern.FindStringSubmatch(raw); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			d := ref.AddDate(0, 0, -n*relativeUnitDays[m[2]])
			return dateOf(d)
		}
	}

	if d, ok := parseParts(raw, ref); ok {
		return d
	}

	// Last resort: hand the whole string to the generic parser.
	if t, err := dateparse.ParseAny(raw); err == nil {
		return dateOf(t)
	}
	return value
}

// parseParts classifies dash- or space-separated date components: month
// names, weekday names, 4-digit years, and 1-2 digit days. A weekday with
// no day of month resolves to its most recent past occurrence.
func parseParts(raw string, ref time.Time) (Date, bool) {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '-' || r == ' ' || r == ','
	})

	var d Date
	weekday := time.Weekday(-1)
	yearFirst := false

	for i, part := range parts {
		if m, ok := monthNames[prefix3(part)]; ok && d.Month == 0 {
			d.Month = int(m)
			continue
		}
		if w, ok := weekdayNames[prefix3(part)]; ok && weekday < 0 {
			weekday = w
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return Date{}, false
		}
		switch {
		case len(part) == 4:
			d.Year = n
			yearFirst = yearFirst || i == 0
		case n >= 1 && n <= 31:
			// With a leading year the remaining numbers read month-day
			// (ISO order); otherwise day-month.
			first, second := &d.Day, &d.Month
			if yearFirst {
				first, second = &d.Month, &d.Day
			}
			if *first == 0 {
				*first = n
			} else if *second == 0 {
				*second = n
			} else {
				return Date{}, false
			}
		default:
			return Date{}, false
		}
	}

	if weekday >= 0 && d.Day == 0 {
		// Most recent past occurrence of the named weekday.
		diff := int(ref.Weekday()) - int(weekday)
		if diff < 0 {
			diff += 7
		}
		return dateOf(ref.AddDate(0, 0, -diff)), true
	}

	if d == (Date{}) {
		return Date{}, false
	}
	if d.Month > 12 {
		// day-month order misread, e.g. "2020-03-05" guarded elsewhere;
		// a month over 12 means the numbers were day-first.
		d.Day, d.Month = d.Month, d.Day
	}
	if d.Month > 12 || d.Day > 31 {
		return Date{}, false
	}
	return d, true
}

func prefix3(s string) string {
	if len(s) < 3 {
		return s
	}
	return s[:3]
}

func dateOf(t time.Time) Date {
	return Date{Day: t.Day(), Month: int(t.Month()), Year: t.Year()}
}
