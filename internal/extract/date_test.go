package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate_ISOWithMilliseconds(t *testing.T) {
	parsed, ok := ParseDate("2009-05-02T04:00:00.000Z", AutoFormat)
	require.True(t, ok)
	assert.Equal(t, time.Date(2009, 5, 2, 4, 0, 0, 0, time.UTC), parsed.UTC())
}

func TestParseDate_Formats(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
	}{
		{
			name:     "ISO with Z",
			input:    "2009-05-02T04:00:00Z",
			expected: time.Date(2009, 5, 2, 4, 0, 0, 0, time.UTC),
		},
		{
			name:     "ISO without Z",
			input:    "2009-05-02T04:00:00",
			expected: time.Date(2009, 5, 2, 4, 0, 0, 0, time.UTC),
		},
		{
			name:     "date and time",
			input:    "2009-05-02 04:00:00",
			expected: time.Date(2009, 5, 2, 4, 0, 0, 0, time.UTC),
		},
		{
			name:     "bare date",
			input:    "2009-05-02",
			expected: time.Date(2009, 5, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "long month name",
			input:    "May 2, 2009",
			expected: time.Date(2009, 5, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "day month year",
			input:    "2 May 2009",
			expected: time.Date(2009, 5, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "weekday with 12-hour time",
			input:    "Saturday, May 2, 2009 4:00 AM",
			expected: time.Date(2009, 5, 2, 4, 0, 0, 0, time.UTC),
		},
		{
			name:     "slash date",
			input:    "5/2/2009",
			expected: time.Date(2009, 5, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "slash date with time",
			input:    "05/02/2009 04:00",
			expected: time.Date(2009, 5, 2, 4, 0, 0, 0, time.UTC),
		},
		{
			name:     "year first slash date",
			input:    "2009/05/02",
			expected: time.Date(2009, 5, 2, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, ok := ParseDate(tt.input, AutoFormat)
			require.True(t, ok)
			assert.Equal(t, tt.expected, parsed.UTC())
		})
	}
}

func TestParseDate_MonthFirstWinsOverDayFirst(t *testing.T) {
	// 01/02/2006 is ambiguous; list order resolves it month-first.
	parsed, ok := ParseDate("01/02/2006", AutoFormat)
	require.True(t, ok)
	assert.Equal(t, time.January, parsed.Month())
	assert.Equal(t, 2, parsed.Day())
}

func TestParseDate_DayFirstFallback(t *testing.T) {
	// 13 cannot be a month, so the day-first layout is the first to parse.
	parsed, ok := ParseDate("13/02/2006", AutoFormat)
	require.True(t, ok)
	assert.Equal(t, time.February, parsed.Month())
	assert.Equal(t, 13, parsed.Day())
}

func TestParseDate_HintTriedFirst(t *testing.T) {
	parsed, ok := ParseDate("02.05.2009", "02.01.2006")
	require.True(t, ok)
	assert.Equal(t, time.Date(2009, 5, 2, 0, 0, 0, 0, time.UTC), parsed.UTC())
}

func TestParseDate_BadHintFallsThrough(t *testing.T) {
	parsed, ok := ParseDate("2009-05-02", "02.01.2006")
	require.True(t, ok)
	assert.Equal(t, time.Date(2009, 5, 2, 0, 0, 0, 0, time.UTC), parsed.UTC())
}

func TestParseDate_Miss(t *testing.T) {
	_, ok := ParseDate("not a date", AutoFormat)
	assert.False(t, ok)

	_, ok = ParseDate("", AutoFormat)
	assert.False(t, ok)

	_, ok = ParseDate("   ", AutoFormat)
	assert.False(t, ok)
}
