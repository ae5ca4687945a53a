package dates

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	d, err := time.Parse(Layout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestParseDate(t *testing.T) {
	thursday := day("2026-10-15")

	tests := []struct {
		name string
		text string
		want string
	}{
		{"today", "today", "2026-10-15"},
		{"tonight", "coming tonight", "2026-10-15"},
		{"tomorrow", "tomorrow", "2026-10-16"},
		{"tomorrow shorthand", "tmrw", "2026-10-16"},
		{"tomorrow misspelt", "tommorow morning", "2026-10-16"},
		{"day after tomorrow", "the day after tomorrow", "2026-10-17"},
		{"next week", "next week", "2026-10-22"},
		{"this weekend", "this weekend", "2026-10-17"},
		{"weekday later this week", "friday", "2026-10-16"},
		{"same weekday rolls a week", "next thursday", "2026-10-22"},
		{"weekday next week", "Monday", "2026-10-19"},
		{"month first with suffix", "jan 15th", "2027-01-15"},
		{"day first with of", "15th of January", "2027-01-15"},
		{"month name this year", "October 20", "2026-10-20"},
		{"past month day rolls to next year", "oct 1", "2027-10-01"},
		{"iso", "2026-11-03", "2026-11-03"},
		{"day month year", "03/11/2026", "2026-11-03"},
		{"two digit year", "25/12/26", "2026-12-25"},
		{"day month", "20/10", "2026-10-20"},
		{"month day fallback", "10/20", "2026-10-20"},
		{"in n days", "in 3 days", "2026-10-18"},
		{"after n days", "after 2 days", "2026-10-17"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.text, thursday)
			require.NoError(t, err)
			assert.Equal(t, tt.want, Format(got))
		})
	}
}

func TestParseDate_WeekendWhenAlreadyWeekend(t *testing.T) {
	saturday := day("2026-10-17")

	got, err := ParseDate("this weekend", saturday)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-17", Format(got))
}

func TestParseDate_Unrecognised(t *testing.T) {
	for _, text := range []string{"", "whenever works", "31/02/2026", "my friend Alex"} {
		t.Run(text, func(t *testing.T) {
			_, err := ParseDate(text, day("2026-10-15"))
			assert.True(t, errors.Is(err, ErrUnrecognised), "got %v", err)
		})
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		text string
		want Span
	}{
		{"2 hours", Span{Hours: 2}},
		{"an hour", Span{Hours: 1}},
		{"couple of hours", Span{Hours: 2}},
		{"overnight", Span{Days: 1}},
		{"3 nights", Span{Days: 3}},
		{"a night", Span{Days: 1}},
		{"two days", Span{Days: 2}},
		{"2d", Span{Days: 2}},
		{"a week", Span{Days: 7}},
		{"2 weeks", Span{Days: 14}},
		{"just the evening", Span{Hours: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := ParseDuration(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDuration_Unrecognised(t *testing.T) {
	for _, text := range []string{"", "and then", "tomorrow"} {
		_, err := ParseDuration(text)
		assert.ErrorIs(t, err, ErrUnrecognised, text)
	}
}

func TestSpan_End(t *testing.T) {
	start := day("2026-10-15")

	assert.Equal(t, "2026-10-15", Format(Span{Hours: 2}.End(start)))
	assert.Equal(t, "2026-10-16", Format(Span{Days: 1}.End(start)))
	assert.Equal(t, "2026-10-18", Format(Span{Days: 3}.End(start)))
	assert.Equal(t, "same day", Span{}.String())
	assert.Equal(t, "2 days", Span{Days: 2}.String())
}

func TestCalendarDays(t *testing.T) {
	assert.Equal(t, 0, CalendarDays(day("2026-10-15"), day("2026-10-15")))
	assert.Equal(t, 2, CalendarDays(day("2026-10-15"), day("2026-10-17")))
	assert.Equal(t, -1, CalendarDays(day("2026-10-15"), day("2026-10-14")))
	assert.Equal(t, 17, CalendarDays(day("2026-12-25"), day("2027-01-11")))
}

func TestCoerce(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)

	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"plain date", "2026-10-15", "2026-10-15"},
		{"zoned timestamp shifts day", "2026-10-15T20:00:00Z", "2026-10-16"},
		{"naive datetime is local", "2026-10-15 23:00", "2026-10-15"},
		{"naive iso datetime", "2026-10-15T08:30:00", "2026-10-15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(tt.value, ist)
			require.NoError(t, err)
			assert.Equal(t, tt.want, Format(got))
		})
	}

	_, err := Coerce("next tuesday", ist)
	assert.ErrorIs(t, err, ErrUnrecognised)
}

func TestCivil(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	instant := time.Date(2026, 10, 15, 19, 0, 0, 0, time.UTC)

	assert.Equal(t, "2026-10-16", Format(Civil(instant, ist)))
	assert.Equal(t, "2026-10-15", Format(Civil(instant, nil)))
}
