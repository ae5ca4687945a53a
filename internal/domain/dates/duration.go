package dates

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Span is a length of stay. Hours-only spans end on the day they start.
type Span struct {
	Days  int
	Hours int
}

// IsZero reports whether the span carries no length at all
func (s Span) IsZero() bool {
	return s.Days == 0 && s.Hours == 0
}

// End returns the civil end date of a span starting on start
func (s Span) End(start time.Time) time.Time {
	return start.AddDate(0, 0, s.Days)
}

// String renders the span the way residents phrase it
func (s Span) String() string {
	switch {
	case s.Days == 1:
		return "1 day"
	case s.Days > 1:
		return fmt.Sprintf("%d days", s.Days)
	case s.Hours == 1:
		return "1 hour"
	case s.Hours > 1:
		return fmt.Sprintf("%d hours", s.Hours)
	default:
		return "same day"
	}
}

var (
	wordNumbers = map[string]int{
		"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
		"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10, "couple of": 2, "few": 3,
	}

	quantity    = `(\d+|an?|one|two|three|four|five|six|seven|eight|nine|ten|couple of|few)`
	hoursRe     = regexp.MustCompile(`\b` + quantity + `\s*(?:hours?|hrs?)\b`)
	nightsRe    = regexp.MustCompile(`\b` + quantity + `\s*nights?\b`)
	daysRe      = regexp.MustCompile(`\b` + quantity + `\s*days?\b`)
	weeksRe     = regexp.MustCompile(`\b` + quantity + `\s*(?:weeks?|wks?)\b`)
	shortUnitRe = regexp.MustCompile(`\b(\d+)\s*(d|h)\b`)
	overnightRe = regexp.MustCompile(`\b(?:overnight|over night|tonight only)\b`)
	sameDayRe   = regexp.MustCompile(`\b(?:same day|day visit|evening|afternoon)\b`)
)

// ParseDuration reads a length of stay such as "2 hours", "overnight",
// "3 nights", "a week" or "two days".
func ParseDuration(text string) (Span, error) {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return Span{}, fmt.Errorf("%w: empty", ErrUnrecognised)
	}

	if m := weeksRe.FindStringSubmatch(lower); m != nil {
		return Span{Days: 7 * quantityOf(m[1])}, nil
	}
	if m := nightsRe.FindStringSubmatch(lower); m != nil {
		return Span{Days: quantityOf(m[1])}, nil
	}
	if m := daysRe.FindStringSubmatch(lower); m != nil {
		return Span{Days: quantityOf(m[1])}, nil
	}
	if m := shortUnitRe.FindStringSubmatch(lower); m != nil {
		if m[2] == "d" {
			return Span{Days: atoi(m[1])}, nil
		}
		return Span{Hours: atoi(m[1])}, nil
	}
	if overnightRe.MatchString(lower) {
		return Span{Days: 1}, nil
	}
	if m := hoursRe.FindStringSubmatch(lower); m != nil {
		return Span{Hours: quantityOf(m[1])}, nil
	}
	if sameDayRe.MatchString(lower) {
		return Span{Hours: 3}, nil
	}

	return Span{}, fmt.Errorf("%w: %q", ErrUnrecognised, text)
}

func quantityOf(s string) int {
	if n, ok := wordNumbers[s]; ok {
		return n
	}
	return atoi(s)
}
