package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/intake/pkg/domain"
	"github.com/aretw0/intake/pkg/ports"
)

func newTestClient(t *testing.T) *backend.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return backend.NewClient(&backend.Options{Addr: mr.Addr()})
}

func TestStore_Contract(t *testing.T) {
	store := NewFromClient(newTestClient(t))
	ports.RunSessionStoreContract(t, store)
}

func TestStore_IndexTracksSessions(t *testing.T) {
	store := NewFromClient(newTestClient(t))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "a", domain.NewSession("a")))
	require.NoError(t, store.Save(ctx, "b", domain.NewSession("b")))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, ids)

	require.NoError(t, store.Delete(ctx, "a"))

	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)
}

func TestStore_RoundTripPreservesState(t *testing.T) {
	store := NewFromClient(newTestClient(t))
	ctx := context.Background()

	sess := domain.NewSession("s1")
	sess.Status = domain.StatusCollecting
	sess.Profile["name"] = "Ada"
	sess.Attempts["email"] = 2
	sess.Append("assistant", "What is your email?")

	require.NoError(t, store.Save(ctx, "s1", sess))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCollecting, loaded.Status)
	assert.Equal(t, "Ada", loaded.Profile["name"])
	assert.Equal(t, 2, loaded.Attempts["email"])
	require.Len(t, loaded.Transcript, 1)
	assert.Equal(t, "What is your email?", loaded.Transcript[0].Text)
}

func TestStore_CustomPrefix(t *testing.T) {
	client := newTestClient(t)
	store := NewFromClient(client, WithPrefix("custom:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "x", domain.NewSession("x")))

	val, err := client.Get(ctx, "custom:x").Result()
	require.NoError(t, err)
	assert.NotEmpty(t, val)
}

func TestStore_TTLApplied(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	store := NewFromClient(client, WithTTL(time.Minute))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "x", domain.NewSession("x")))
	assert.Greater(t, mr.TTL("intake:session:x"), time.Duration(0))
}

func TestLocker_MutualExclusion(t *testing.T) {
	client := newTestClient(t)
	locker := NewLocker(client, WithAcquireTimeout(200*time.Millisecond), WithRetryDelay(10*time.Millisecond))
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "s1", time.Minute)
	require.NoError(t, err)

	// A second acquire on the same key must time out while held.
	_, err = locker.Lock(ctx, "s1", time.Minute)
	assert.Error(t, err)

	require.NoError(t, unlock(ctx))

	unlock2, err := locker.Lock(ctx, "s1", time.Minute)
	require.NoError(t, err)
	require.NoError(t, unlock2(ctx))
}

func TestLocker_UnlockOnlyReleasesOwnToken(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	locker := NewLocker(client, WithAcquireTimeout(100*time.Millisecond), WithRetryDelay(10*time.Millisecond))
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "s1", time.Minute)
	require.NoError(t, err)

	// Simulate expiry and reacquisition by another holder.
	mr.Del("intake:lock:s1")
	unlockOther, err := locker.Lock(ctx, "s1", time.Minute)
	require.NoError(t, err)

	// Stale unlock is a no-op: the other holder's lock survives.
	require.NoError(t, unlock(ctx))
	_, err = locker.Lock(ctx, "s1", time.Minute)
	assert.Error(t, err)

	require.NoError(t, unlockOther(ctx))
}
