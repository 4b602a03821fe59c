package ledger_test

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticketing/internal/kvstore"
	"github.com/iliyamo/event-ticketing/internal/ledger"
)

func newLedger(t *testing.T) (*ledger.Ledger, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store := kvstore.NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = store.Close() })
	return ledger.New(store), mr
}

func TestRecordIsAppendOnlyAndUnique(t *testing.T) {
	l, mr := newLedger(t)
	ctx := context.Background()

	ok, err := l.Contains(ctx, 1, "alice")
	require.NoError(t, err)
	assert.False(t, ok)

	out, err := l.Record(ctx, 1, "alice", "[1:A:1:1]")
	require.NoError(t, err)
	assert.Equal(t, kvstore.Appended, out)

	out, err = l.Record(ctx, 1, "alice", "[1:A:1:2]")
	require.NoError(t, err)
	assert.Equal(t, kvstore.AlreadyMember, out)

	ok, err = l.Contains(ctx, 1, "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	// the ledger is a plain list keyed by the event id
	list, err := mr.List("1")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, list)
}

func TestEventsAreIndependent(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	_, err := l.Record(ctx, 1, "alice", "[1:A:1:1]")
	require.NoError(t, err)

	ok, err := l.Contains(ctx, 2, "alice")
	require.NoError(t, err)
	assert.False(t, ok)

	out, err := l.Record(ctx, 2, "alice", "[2:A:1:1]")
	require.NoError(t, err)
	assert.Equal(t, kvstore.Appended, out)
}

func TestRecordRefusesSeatHeldByAnotherUser(t *testing.T) {
	l, mr := newLedger(t)
	ctx := context.Background()
	require.NoError(t, mr.Set("[1:A:1:1]", "alice"))

	out, err := l.Record(ctx, 1, "bob", "[1:A:1:1]")
	require.NoError(t, err)
	assert.Equal(t, kvstore.LockedByOther, out)

	ok, err := l.Contains(ctx, 1, "bob")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConcurrentRecordOnlyOnce(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	const n = 20
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		added int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := l.Record(ctx, 9, "alice", "[9:A:1:1]")
			assert.NoError(t, err)
			if out == kvstore.Appended {
				mu.Lock()
				added++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, added)

	members, err := l.Members(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, members)
}
