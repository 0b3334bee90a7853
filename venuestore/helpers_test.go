package venuestore_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	. "github.com/AntonStoeckl/venue-shards-go/venuestore"
)

func wrapped(sentinel error) error {
	return errors.Join(sentinel, errors.New("cause"))
}

func slot(t *testing.T, start, end string) Interval {
	t.Helper()

	interval, err := NewInterval(MustTimeOfDay(start), MustTimeOfDay(end))
	require.NoError(t, err)

	return interval
}

func venue(t *testing.T, name, city string, capacity int, price float64) Venue {
	t.Helper()

	v, err := BuildVenue(name, city, capacity, price)
	require.NoError(t, err)

	return v
}
