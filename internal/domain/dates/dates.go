// Package dates turns resident phrasing ("tomorrow", "jan 15th", "2 nights")
// into civil calendar dates. A civil date is a time.Time at midnight UTC that
// stands for a day in the requester's own zone.
package dates

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Layout is the canonical date format stored in slots and records
const Layout = "2006-01-02"

// ErrUnrecognised is returned when text holds no date or duration
var ErrUnrecognised = errors.New("unrecognised date expression")

// Civil returns the calendar day of t as seen in loc
func Civil(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// Format renders a civil date in Layout
func Format(d time.Time) string {
	return d.Format(Layout)
}

// CalendarDays counts whole calendar days from one civil date to another
func CalendarDays(from, to time.Time) int {
	from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	to = time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

var naiveLayouts = []string{
	Layout,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Coerce reads a stored date or datetime and returns its civil date in loc.
// Zoned timestamps are converted into loc first; naive ones are taken as loc wall time.
func Coerce(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if loc == nil {
		loc = time.UTC
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return Civil(t, loc), nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return Civil(t, loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnrecognised, value)
}

var (
	weekdayNames = map[string]time.Weekday{
		"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
		"wednesday": time.Wednesday, "thursday": time.Thursday,
		"friday": time.Friday, "saturday": time.Saturday,
	}
	monthNames = map[string]time.Month{
		"jan": time.January, "january": time.January,
		"feb": time.February, "february": time.February,
		"mar": time.March, "march": time.March,
		"apr": time.April, "april": time.April,
		"may": time.May,
		"jun": time.June, "june": time.June,
		"jul": time.July, "july": time.July,
		"aug": time.August, "august": time.August,
		"sep": time.September, "sept": time.September, "september": time.September,
		"oct": time.October, "october": time.October,
		"nov": time.November, "november": time.November,
		"dec": time.December, "december": time.December,
	}

	monthAlt       = `jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?`
	monthFirstRe   = regexp.MustCompile(`\b(` + monthAlt + `)\.?\s+(\d{1,2})(?:st|nd|rd|th)?\b`)
	dayFirstRe     = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?(` + monthAlt + `)\b`)
	weekdayRe      = regexp.MustCompile(`\b(sunday|monday|tuesday|wednesday|thursday|friday|saturday)\b`)
	isoRe          = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	dmyRe          = regexp.MustCompile(`\b(\d{1,2})[-/](\d{1,2})[-/](\d{4}|\d{2})\b`)
	dmRe           = regexp.MustCompile(`\b(\d{1,2})[-/](\d{1,2})\b`)
	inDaysRe       = regexp.MustCompile(`\b(?:in|after)\s+(\d+)\s+days?\b`)
	todayRe        = regexp.MustCompile(`\b(?:today|tonight|now|this evening)\b`)
	tomorrowRe     = regexp.MustCompile(`\b(?:tomorrow|tmrw|tommorow|tomo|tmr)\b`)
	dayAfterRe     = regexp.MustCompile(`\b(?:day after (?:tomorrow|tmrw)|overmorrow)\b`)
)

// ParseDate resolves a date expression relative to today (a civil date).
// Month-day expressions that already passed this year roll to next year.
func ParseDate(text string, today time.Time) (time.Time, error) {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrUnrecognised)
	}

	if m := isoRe.FindStringSubmatch(lower); m != nil {
		if d, ok := civilDate(atoi(m[1]), atoi(m[2]), atoi(m[3])); ok {
			return d, nil
		}
	}
	if m := dmyRe.FindStringSubmatch(lower); m != nil {
		year := atoi(m[3])
		if len(m[3]) == 2 {
			year += 2000
		}
		if d, ok := civilDate(year, atoi(m[2]), atoi(m[1])); ok {
			return d, nil
		}
	}

	if dayAfterRe.MatchString(lower) {
		return today.AddDate(0, 0, 2), nil
	}
	if tomorrowRe.MatchString(lower) {
		return today.AddDate(0, 0, 1), nil
	}
	if todayRe.MatchString(lower) {
		return today, nil
	}
	if strings.Contains(lower, "next week") {
		return today.AddDate(0, 0, 7), nil
	}
	if strings.Contains(lower, "weekend") {
		return nextWeekend(today), nil
	}
	if m := inDaysRe.FindStringSubmatch(lower); m != nil {
		return today.AddDate(0, 0, atoi(m[1])), nil
	}

	if m := monthFirstRe.FindStringSubmatch(lower); m != nil {
		if d, ok := rollForward(today, monthNames[m[1]], atoi(m[2])); ok {
			return d, nil
		}
	}
	if m := dayFirstRe.FindStringSubmatch(lower); m != nil {
		if d, ok := rollForward(today, monthNames[m[2]], atoi(m[1])); ok {
			return d, nil
		}
	}

	if m := weekdayRe.FindStringSubmatch(lower); m != nil {
		return nextWeekday(today, weekdayNames[m[1]]), nil
	}

	if m := dmRe.FindStringSubmatch(lower); m != nil {
		a, b := atoi(m[1]), atoi(m[2])
		// day-month first, month-day when that is impossible
		if d, ok := rollForward(today, time.Month(b), a); ok && b <= 12 {
			return d, nil
		}
		if d, ok := rollForward(today, time.Month(a), b); ok && a <= 12 {
			return d, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrUnrecognised, text)
}

// nextWeekday returns the next occurrence of wd strictly after today
func nextWeekday(today time.Time, wd time.Weekday) time.Time {
	ahead := int(wd) - int(today.Weekday())
	if ahead <= 0 {
		ahead += 7
	}
	return today.AddDate(0, 0, ahead)
}

// nextWeekend returns the Saturday of the current weekend, or today when already in it
func nextWeekend(today time.Time) time.Time {
	switch today.Weekday() {
	case time.Saturday, time.Sunday:
		return today
	default:
		return nextWeekday(today, time.Saturday)
	}
}

func rollForward(today time.Time, month time.Month, day int) (time.Time, bool) {
	d, ok := civilDate(today.Year(), int(month), day)
	if !ok {
		return time.Time{}, false
	}
	if d.Before(today) {
		return civilDate(today.Year()+1, int(month), day)
	}
	return d, true
}

func civilDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
