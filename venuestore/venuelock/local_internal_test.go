package venuelock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_LocalLocker_When_ManyGoroutinesShareOneKey(t *testing.T) {
	// setup
	locker := NewLocalLocker()
	ctx := context.Background()

	var (
		inside  atomic.Int32
		maxSeen atomic.Int32
		wg      sync.WaitGroup
	)

	// act
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			err := WithLock(ctx, locker, "grand hall", func(context.Context) error {
				n := inside.Add(1)
				if n > maxSeen.Load() {
					maxSeen.Store(n)
				}
				time.Sleep(time.Millisecond)
				inside.Add(-1)

				return nil
			})
			assert.NoError(t, err)
		}()
	}

	wg.Wait()

	// assert
	assert.Equal(t, int32(1), maxSeen.Load())
	assert.Equal(t, 0, locker.keys())
}

func Test_LocalLocker_When_AcquireTimesOut(t *testing.T) {
	// setup
	locker := NewLocalLocker()

	lease, err := locker.Acquire(context.Background(), "blue room")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	// act
	_, waitErr := locker.Acquire(ctx, "blue room")
	other, otherErr := locker.Acquire(context.Background(), "city hall")

	// assert
	assert.ErrorIs(t, waitErr, ErrAcquireCanceled)
	assert.ErrorIs(t, waitErr, context.DeadlineExceeded)
	require.NoError(t, otherErr)
	assert.Equal(t, "city hall", other.Key())

	assert.NoError(t, lease.Release(context.Background()))
	assert.ErrorIs(t, lease.Release(context.Background()), ErrLockNotHeld)
	assert.NoError(t, other.Release(context.Background()))
	assert.Equal(t, 0, locker.keys())
}

func Test_LocalLocker_When_KeyIsEmpty(t *testing.T) {
	// act
	_, err := NewLocalLocker().Acquire(context.Background(), "")

	// assert
	assert.ErrorIs(t, err, ErrEmptyKey)
}
