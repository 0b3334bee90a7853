package venuestore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/AntonStoeckl/venue-shards-go/venuestore"
)

func Test_SearchFilter_Matches(t *testing.T) {
	grandHall := venue(t, "Grand Hall", "LA", 200, 50)
	blueRoom := venue(t, "Blue Room", "Boston", 20, 120)

	testCases := []struct {
		description string
		filter      SearchFilter
		grandHall   bool
		blueRoom    bool
	}{
		{description: "empty filter", filter: BuildSearchFilter(), grandHall: true, blueRoom: true},
		{description: "keyword case-insensitive", filter: BuildSearchFilter().NameContaining("hall"), grandHall: true},
		{description: "keyword inner part", filter: BuildSearchFilter().NameContaining("ue ro"), blueRoom: true},
		{description: "city exact", filter: BuildSearchFilter().InCity("la"), grandHall: true},
		{description: "city is not a substring match", filter: BuildSearchFilter().InCity("Bost")},
		{description: "budget", filter: BuildSearchFilter().WithMaxPricePerHour(100), grandHall: true},
		{description: "budget inclusive", filter: BuildSearchFilter().WithMaxPricePerHour(120), grandHall: true, blueRoom: true},
		{description: "combined", filter: BuildSearchFilter().NameContaining("room").InCity("Boston").WithMaxPricePerHour(100)},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			assert.Equal(t, tc.grandHall, tc.filter.Matches(grandHall))
			assert.Equal(t, tc.blueRoom, tc.filter.Matches(blueRoom))
		})
	}
}

func Test_SearchFilter_Validate_When_BudgetIsNegative(t *testing.T) {
	assert.ErrorIs(t, BuildSearchFilter().WithMaxPricePerHour(-1).Validate(), ErrValidation)
	assert.NoError(t, BuildSearchFilter().WithMaxPricePerHour(0).Validate())
}

func Test_SearchFilter_String(t *testing.T) {
	assert.Equal(t, "all", BuildSearchFilter().String())
	assert.Equal(t, "keyword=Hall,city=LA,max_price=80.00",
		BuildSearchFilter().NameContaining("Hall").InCity("LA").WithMaxPricePerHour(80).String())
}
