package partition_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/AntonStoeckl/venue-shards-go/venuestore/partition"
)

func Test_NewSet_Orders_Descriptors_By_ID(t *testing.T) {
	// act
	set, err := NewSet([]Descriptor{
		{ID: 1, Name: "east", DSN: "postgres://east"},
		{ID: 0, Name: "west", DSN: "postgres://west"},
	})

	// assert
	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())
	assert.Equal(t, "west", set.Descriptors()[0].Name)
	assert.Equal(t, 2, set.Router().Count())

	east, err := set.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "postgres://east", east.DSN)

	_, err = set.Get(2)
	assert.ErrorIs(t, err, ErrUnknownPartition)
}

func Test_NewSet_When_Descriptors_Are_Invalid(t *testing.T) {
	testCases := []struct {
		description string
		descriptors []Descriptor
		expected    error
	}{
		{description: "empty", descriptors: nil, expected: ErrInvalidPartitionCount},
		{description: "gap in ids", descriptors: []Descriptor{{ID: 0, Name: "a"}, {ID: 2, Name: "b"}}, expected: ErrInvalidDescriptor},
		{description: "duplicate id", descriptors: []Descriptor{{ID: 0, Name: "a"}, {ID: 0, Name: "b"}}, expected: ErrInvalidDescriptor},
		{description: "missing name", descriptors: []Descriptor{{ID: 0}}, expected: ErrInvalidDescriptor},
		{description: "duplicate name", descriptors: []Descriptor{{ID: 0, Name: "a"}, {ID: 1, Name: "a"}}, expected: ErrInvalidDescriptor},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			_, err := NewSet(tc.descriptors)
			assert.ErrorIs(t, err, tc.expected)
		})
	}
}

func Test_Descriptor_Label(t *testing.T) {
	assert.Equal(t, "west", Descriptor{ID: 0, Name: "west"}.Label())
	assert.Equal(t, "partition-3", Descriptor{ID: 3}.Label())
}
