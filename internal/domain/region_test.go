package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinates_Valid(t *testing.T) {
	assert.True(t, Coordinates{Latitude: 55.75, Longitude: 37.62}.Valid())
	assert.True(t, Coordinates{Latitude: -90, Longitude: 180}.Valid())
	assert.False(t, Coordinates{Latitude: 91, Longitude: 0}.Valid())
	assert.False(t, Coordinates{Latitude: 0, Longitude: -181}.Valid())
}

func TestCoordinates_Coarsen(t *testing.T) {
	c := Coordinates{Latitude: 55.75583, Longitude: 37.61730}.Coarsen()
	assert.InDelta(t, 55.76, c.Latitude, 1e-9)
	assert.InDelta(t, 37.62, c.Longitude, 1e-9)
}

func TestCodes_Valid(t *testing.T) {
	assert.True(t, RegionCode("RU").Valid())
	assert.True(t, RegionCode("us").Valid())
	assert.False(t, RegionCode("").Valid())
	assert.False(t, RegionCode("RUS").Valid())
	assert.False(t, RegionCode("-9").Valid())
	assert.True(t, LanguageCode("ru").Valid())
	assert.False(t, LanguageCode("r1").Valid())
}

func TestParseGrant(t *testing.T) {
	cases := map[string]Grant{
		"fine":   GrantFine,
		"COARSE": GrantCoarse,
		"deny":   GrantDenied,
		"denied": GrantDenied,
		"":       GrantUndetermined,
	}
	for in, want := range cases {
		got, err := ParseGrant(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseGrant("maybe")
	assert.Error(t, err)
}

func TestGrant_Granted(t *testing.T) {
	assert.True(t, GrantFine.Granted())
	assert.True(t, GrantCoarse.Granted())
	assert.False(t, GrantDenied.Granted())
	assert.False(t, GrantUndetermined.Granted())
	assert.Equal(t, "coarse", GrantCoarse.String())
}
