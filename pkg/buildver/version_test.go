//go:build !integration

package buildver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateValidation(t *testing.T) {
	v, err := Generate(ModeValidation, 22, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", v.String())
}

func TestGenerateProduction(t *testing.T) {
	// 2025-06-15 10:30 UTC: 1992 days after 2020-01-01, minute 630.
	now := time.Date(2025, time.June, 15, 10, 30, 0, 0, time.UTC)

	v, err := Generate(ModeProduction, 22, now)
	require.NoError(t, err)

	assert.Equal(t, 22, v.Major)
	assert.Equal(t, 25, v.Minor)
	assert.Equal(t, 1992, v.Build)
	assert.Equal(t, 630, v.Revision)
	assert.Equal(t, "22.25.1992.630", v.String())
}

func TestGenerateDevelopment(t *testing.T) {
	now := time.Date(2025, time.June, 15, 10, 30, 0, 0, time.UTC)

	v, err := Generate(ModeDevelopment, 22, now)
	require.NoError(t, err)
	assert.Equal(t, 99, v.Major, "development builds carry the 99 marker regardless of platform")
	assert.Equal(t, 25, v.Minor)
}

func TestGenerateUsesUTC(t *testing.T) {
	// 23:30 in UTC+2 is 21:30 UTC; the revision must come from the UTC
	// clock so runners in different zones agree.
	zone := time.FixedZone("UTC+2", 2*60*60)
	local := time.Date(2025, time.June, 15, 23, 30, 0, 0, zone)

	v, err := Generate(ModeProduction, 22, local)
	require.NoError(t, err)
	assert.Equal(t, 21*60+30, v.Revision)
	assert.Equal(t, 1992, v.Build)
}

func TestGenerateMidnightEpoch(t *testing.T) {
	v, err := Generate(ModeProduction, 20, time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 0, v.Build)
	assert.Equal(t, 0, v.Revision)
	assert.Equal(t, 20, v.Minor)
}

func TestGenerateRejectsOutOfRangeFields(t *testing.T) {
	now := time.Date(2025, time.June, 15, 10, 30, 0, 0, time.UTC)

	_, err := Generate(ModeProduction, 70000, now)
	assert.Error(t, err, "platform major beyond the field range must fail, not overflow")

	_, err = Generate(ModeProduction, -1, now)
	assert.Error(t, err)
}

func TestGenerateSameMinuteSameVersion(t *testing.T) {
	a := time.Date(2025, time.June, 15, 10, 30, 5, 0, time.UTC)
	b := time.Date(2025, time.June, 15, 10, 30, 55, 0, time.UTC)

	va, err := Generate(ModeProduction, 22, a)
	require.NoError(t, err)
	vb, err := Generate(ModeProduction, 22, b)
	require.NoError(t, err)
	assert.Equal(t, va, vb)
}
