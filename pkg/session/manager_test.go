package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/intake/pkg/adapters/memory"
	"github.com/aretw0/intake/pkg/domain"
	"github.com/aretw0/intake/pkg/ports"
)

func TestManager_SaveLoadDelete(t *testing.T) {
	m := NewManager(memory.NewStore())
	ctx := context.Background()

	sess := domain.NewSession("s1")
	sess.Profile["name"] = "Ada"
	require.NoError(t, m.Save(ctx, "s1", sess))

	loaded, err := m.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", loaded.Profile["name"])

	require.NoError(t, m.Delete(ctx, "s1"))
	_, err = m.Load(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_WithLockSerializesAccess(t *testing.T) {
	m := NewManager(memory.NewStore())
	ctx := context.Background()

	var inside, maxInside int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.WithLock(ctx, "same-session", func(context.Context) error {
				mu.Lock()
				inside++
				if inside > maxInside {
					maxInside = inside
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxInside, "at most one holder per session at a time")
}

func TestManager_LockEntriesGarbageCollected(t *testing.T) {
	m := NewManager(memory.NewStore())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.WithLock(ctx, "s1", func(context.Context) error { return nil })
		}()
	}
	wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()
	assert.Empty(t, m.locks)
}

// recordingLocker records lock/unlock ordering.
type recordingLocker struct {
	mu     sync.Mutex
	events []string
	fail   bool
}

func (l *recordingLocker) Lock(_ context.Context, key string, _ time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	l.events = append(l.events, "lock:"+key)
	l.mu.Unlock()
	if l.fail {
		return nil, assert.AnError
	}
	return func(context.Context) error {
		l.mu.Lock()
		l.events = append(l.events, "unlock:"+key)
		l.mu.Unlock()
		return nil
	}, nil
}

func TestManager_DistributedLockerWrapsCriticalSection(t *testing.T) {
	locker := &recordingLocker{}
	m := NewManager(memory.NewStore(), WithLocker(locker), WithLockTTL(time.Minute))
	ctx := context.Background()

	err := m.WithLock(ctx, "s1", func(context.Context) error {
		locker.mu.Lock()
		defer locker.mu.Unlock()
		assert.Equal(t, []string{"lock:s1"}, locker.events)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"lock:s1", "unlock:s1"}, locker.events)
}

func TestManager_DistributedLockFailureAborts(t *testing.T) {
	m := NewManager(memory.NewStore(), WithLocker(&recordingLocker{fail: true}))

	ran := false
	err := m.WithLock(context.Background(), "s1", func(context.Context) error {
		ran = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, ran)
}
