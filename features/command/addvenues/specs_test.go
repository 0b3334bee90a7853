package addvenues_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/venue-shards-go/features/command/addvenues"
)

func Test_DecodeSpecs_When_FileIsYAML(t *testing.T) {
	// arrange
	doc := `
venues:
  - name: Grand Hall
    city: Berlin
    capacity: 300
    price_per_hour: 120.5
  - name: Small Room
    city: Hamburg
    capacity: 12
    price_per_hour: 15
`

	// act
	specs, err := addvenues.DecodeSpecs(strings.NewReader(doc), addvenues.FormatYAML)

	// assert
	require.NoError(t, err)
	assert.Equal(t, []addvenues.VenueSpec{
		{Name: "Grand Hall", City: "Berlin", Capacity: 300, PricePerHour: 120.5},
		{Name: "Small Room", City: "Hamburg", Capacity: 12, PricePerHour: 15},
	}, specs)
}

func Test_DecodeSpecs_When_FileIsJSON(t *testing.T) {
	// arrange
	doc := `{"venues":[{"name":"Grand Hall","city":"Berlin","capacity":300,"price_per_hour":120.5}]}`

	// act
	specs, err := addvenues.DecodeSpecs(strings.NewReader(doc), addvenues.FormatJSON)

	// assert
	require.NoError(t, err)
	assert.Equal(t, []addvenues.VenueSpec{{Name: "Grand Hall", City: "Berlin", Capacity: 300, PricePerHour: 120.5}}, specs)
}

func Test_DecodeSpecs_When_YAMLIsEmpty(t *testing.T) {
	// act
	specs, err := addvenues.DecodeSpecs(strings.NewReader(""), addvenues.FormatYAML)

	// assert
	require.NoError(t, err)
	assert.Empty(t, specs)
}

func Test_DecodeSpecs_When_DocumentIsBroken(t *testing.T) {
	testCases := []struct {
		format addvenues.Format
		doc    string
	}{
		{addvenues.FormatJSON, `{"venues":[{"name":`},
		{addvenues.FormatJSON, `{"venues":[{"capacity":"many"}]}`},
		{addvenues.FormatYAML, "venues:\n  - name: [unclosed"},
	}

	for _, tc := range testCases {
		t.Run(string(tc.format), func(t *testing.T) {
			// act
			_, err := addvenues.DecodeSpecs(strings.NewReader(tc.doc), tc.format)

			// assert
			assert.ErrorIs(t, err, addvenues.ErrDecodingSpecs)
		})
	}
}

func Test_FormatFromPath(t *testing.T) {
	for path, want := range map[string]addvenues.Format{
		"venues.yaml":     addvenues.FormatYAML,
		"data/VENUES.YML": addvenues.FormatYAML,
		"venues.json":     addvenues.FormatJSON,
	} {
		got, err := addvenues.FormatFromPath(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	_, err := addvenues.FormatFromPath("venues.csv")
	assert.ErrorIs(t, err, addvenues.ErrUnknownSpecFormat)
}
