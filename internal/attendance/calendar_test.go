package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalendarDayOf(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*60*60)
	cal := CalendarIn(loc)

	// 17:30 UTC is already the next morning at UTC+8.
	day := cal.DayOf(time.Date(2024, 5, 1, 17, 30, 0, 0, time.UTC))
	assert.Equal(t, "2024-05-02", day.Date)
	assert.Equal(t, "2024-05-02", day.String())
	assert.True(t, day.Start.Equal(time.Date(2024, 5, 1, 16, 0, 0, 0, time.UTC)))
	assert.True(t, day.End.Equal(time.Date(2024, 5, 2, 16, 0, 0, 0, time.UTC)))
}

func TestDayContainsIsHalfOpen(t *testing.T) {
	cal := CalendarIn(time.UTC)
	day := cal.DayOf(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))

	assert.True(t, day.Contains(day.Start))
	assert.True(t, day.Contains(day.End.Add(-time.Nanosecond)))
	assert.False(t, day.Contains(day.End))
	assert.False(t, day.Contains(day.Start.Add(-time.Nanosecond)))
}

func TestCalendarParseDay(t *testing.T) {
	cal := CalendarIn(time.UTC)

	day, err := cal.ParseDay("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", day.Date)
	assert.True(t, day.Start.Equal(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)))

	for _, bad := range []string{"", "2024-13-01", "01-05-2024", "2023-02-29", "today"} {
		_, err := cal.ParseDay(bad)
		require.Error(t, err, bad)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "date", verr.Field)
	}
}

func TestNewCalendar(t *testing.T) {
	cal, err := NewCalendar("UTC")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, cal.Location())

	cal, err = NewCalendar("")
	require.NoError(t, err)
	assert.Equal(t, time.Local, cal.Location())

	_, err = NewCalendar("Mars/Olympus_Mons")
	assert.Error(t, err)
}
