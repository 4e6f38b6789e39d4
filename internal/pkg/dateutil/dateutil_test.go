package dateutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	d, err := Parse("2024-06-10")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), d)

	ts, err := Parse("2024-06-10T14:30:15.250+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 10, 12, 30, 15, 0, time.UTC), ts)

	for _, bad := range []string{"", "  ", "10/06/2024", "2024-13-01", "tomorrow"} {
		_, err := Parse(bad)
		assert.ErrorIs(t, err, ErrInvalidDate, bad)
	}
}

func TestParseOptional(t *testing.T) {
	got, err := ParseOptional("")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = ParseOptional("2024-07-01")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2024, got.Year())

	_, err = ParseOptional("nope")
	assert.Error(t, err)
}

func TestStartOfDayAndNextDay(t *testing.T) {
	noon := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), StartOfDay(noon))
	assert.Equal(t, time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC), NextDay(noon))

	// 01:00 in UTC+3 is still June 9th in UTC
	local := time.Date(2024, 6, 10, 1, 0, 0, 0, time.FixedZone("UTC+3", 3*3600))
	assert.Equal(t, time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC), StartOfDay(local))

	endOfMonth := time.Date(2024, 6, 30, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), NextDay(endOfMonth))
}
