package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mall-parking/internal/parking"
)

func setupTestLocker(t *testing.T) (*Locker, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	locker, err := Open(context.Background(), Config{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = locker.Close() })

	return locker, mr
}

func TestOpenFailsWithoutServer(t *testing.T) {
	_, err := Open(context.Background(), Config{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}

func TestLockAndRelease(t *testing.T) {
	locker, mr := setupTestLocker(t)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "plate:KA01", time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists(keyPrefix+"plate:KA01"))

	unlock()
	assert.False(t, mr.Exists(keyPrefix+"plate:KA01"))

	unlock()
}

func TestLockContendedTimesOut(t *testing.T) {
	locker, _ := setupTestLocker(t)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "session:1", 5*time.Second)
	require.NoError(t, err)
	defer unlock()

	_, err = locker.Lock(ctx, "session:1", 50*time.Millisecond)
	assert.ErrorIs(t, err, parking.ErrLockTimeout)
}

func TestReleaseKeepsForeignLock(t *testing.T) {
	locker, mr := setupTestLocker(t)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "plate:X", time.Second)
	require.NoError(t, err)

	// The lease lapses and another holder takes the key.
	mr.FastForward(2 * time.Second)
	require.NoError(t, mr.Set(keyPrefix+"plate:X", "someone-else"))

	unlock()

	got, err := mr.Get(keyPrefix + "plate:X")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestLockHasTTL(t *testing.T) {
	locker, mr := setupTestLocker(t)

	_, err := locker.Lock(context.Background(), "plate:TTL", 10*time.Second)
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, mr.TTL(keyPrefix+"plate:TTL"))
}
