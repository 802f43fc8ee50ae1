package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sremani/artifortress/internal/platform/apperrors"
)

func TestParseRangeNoHeader(t *testing.T) {
	start, end, ranged, err := parseRange("", 1000)
	require.NoError(t, err)
	assert.False(t, ranged)
	assert.Zero(t, start)
	assert.Zero(t, end)
}

func TestParseRangeFullyBounded(t *testing.T) {
	start, end, ranged, err := parseRange("bytes=0-99", 1000)
	require.NoError(t, err)
	assert.True(t, ranged)
	assert.Equal(t, int64(0), start)
	assert.Equal(t, int64(99), end)
}

func TestParseRangeOpenEndedUsesTotal(t *testing.T) {
	start, end, ranged, err := parseRange("bytes=500-", 1000)
	require.NoError(t, err)
	assert.True(t, ranged)
	assert.Equal(t, int64(500), start)
	assert.Equal(t, int64(999), end)
}

func TestParseRangeBeyondTotalIsUnsatisfiable(t *testing.T) {
	_, _, _, err := parseRange("bytes=0-1000", 1000)
	require.Error(t, err)
	var unprocessable apperrors.UnprocessableOperationError
	assert.ErrorAs(t, err, &unprocessable)
}

func TestParseRangeStartAfterEndIsUnsatisfiable(t *testing.T) {
	_, _, _, err := parseRange("bytes=500-100", 1000)
	require.Error(t, err)
}

func TestParseRangeMalformedUnitIgnored(t *testing.T) {
	_, _, ranged, err := parseRange("items=0-99", 1000)
	require.NoError(t, err)
	assert.False(t, ranged)
}
