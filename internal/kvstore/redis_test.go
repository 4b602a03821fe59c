package kvstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestAcquirePairCreatesBothLeases(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	out, ttl, err := s.AcquirePair(ctx, "[1:A:1:1]", "alice", "alice", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, Acquired, out)
	assert.Equal(t, time.Minute, ttl)

	v, err := mr.Get("[1:A:1:1]")
	require.NoError(t, err)
	assert.Equal(t, "alice", v)
	v, err = mr.Get("alice")
	require.NoError(t, err)
	assert.Equal(t, "[1:A:1:1]", v)
	assert.Equal(t, time.Minute, mr.TTL("[1:A:1:1]"))
	assert.Equal(t, time.Minute, mr.TTL("alice"))
}

func TestAcquirePairOutcomes(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	_, _, err := s.AcquirePair(ctx, "[1:A:1:1]", "alice", "alice", time.Minute)
	require.NoError(t, err)
	mr.FastForward(10 * time.Second)

	out, ttl, err := s.AcquirePair(ctx, "[1:A:1:1]", "alice", "alice", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, AlreadyHeld, out)
	assert.Equal(t, 50*time.Second, ttl, "re-acquire must not extend the lease")

	out, _, err = s.AcquirePair(ctx, "[1:A:1:1]", "bob", "bob", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, SeatTaken, out)
	assert.False(t, mr.Exists("bob"), "a refused acquire leaves no user index behind")

	out, _, err = s.AcquirePair(ctx, "[1:A:1:2]", "alice", "alice", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, HolderBusy, out)
	assert.False(t, mr.Exists("[1:A:1:2]"))
}

func TestAcquirePairAfterExpiry(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	_, _, err := s.AcquirePair(ctx, "[1:A:1:1]", "alice", "alice", time.Minute)
	require.NoError(t, err)
	mr.FastForward(61 * time.Second)

	out, _, err := s.AcquirePair(ctx, "[1:A:1:1]", "bob", "bob", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, Acquired, out)
}

func TestGetAndRemainingTTL(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = s.RemainingTTL(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mr.Set("forever", "x"))
	d, ok, err := s.RemainingTTL(ctx, "forever")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, d < 0)

	require.NoError(t, mr.Set("lease", "x"))
	mr.SetTTL("lease", 30*time.Second)
	v, ok, err := s.Get(ctx, "lease")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "x", v)
	d, ok, err = s.RemainingTTL(ctx, "lease")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 30*time.Second, d)
}

func TestDeleteIfEqual(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, mr.Set("k", "mine"))

	ok, err := s.DeleteIfEqual(ctx, "k", "theirs")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, mr.Exists("k"))

	ok, err = s.DeleteIfEqual(ctx, "k", "mine")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, mr.Exists("k"))

	ok, err = s.DeleteIfEqual(ctx, "k", "mine")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAppendIfHolder(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	out, err := s.AppendIfHolder(ctx, "7", "alice", "[7:A:1:1]")
	require.NoError(t, err)
	assert.Equal(t, Appended, out)
	out, err = s.AppendIfHolder(ctx, "7", "bob", "[7:A:1:2]")
	require.NoError(t, err)
	assert.Equal(t, Appended, out)
	out, err = s.AppendIfHolder(ctx, "7", "alice", "[7:A:1:3]")
	require.NoError(t, err)
	assert.Equal(t, AlreadyMember, out)

	members, err := s.ListMembers(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "alice"}, members)

	ok, err := s.ListContains(ctx, "7", "bob")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.ListContains(ctx, "8", "bob")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAppendIfHolderRespectsLock(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	_, _, err := s.AcquirePair(ctx, "[7:A:1:1]", "alice", "alice", time.Minute)
	require.NoError(t, err)

	out, err := s.AppendIfHolder(ctx, "7", "bob", "[7:A:1:1]")
	require.NoError(t, err)
	assert.Equal(t, LockedByOther, out)
	assert.False(t, mr.Exists("7"), "a refused append writes nothing")

	out, err = s.AppendIfHolder(ctx, "7", "alice", "[7:A:1:1]")
	require.NoError(t, err)
	assert.Equal(t, Appended, out)
}

func TestFailuresAreUnavailable(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	mr.Close()

	_, _, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrUnavailable)
	_, _, err = s.AcquirePair(ctx, "[1:A:1:1]", "alice", "alice", time.Minute)
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = s.AppendIfHolder(ctx, "7", "alice", "[7:A:1:1]")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, s.Ping(ctx), ErrUnavailable)
}

func TestWrongTypeIsUnavailable(t *testing.T) {
	s, mr := newTestStore(t)
	require.NoError(t, mr.Set("7", "not a list"))

	_, err := s.ListContains(context.Background(), "7", "alice")
	assert.ErrorIs(t, err, ErrUnavailable)
}
