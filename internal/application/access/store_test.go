package access

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/society/backend/internal/domain/access"
	"github.com/society/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticFetcher(m *access.PermissionMap, err error) Fetcher {
	return FetcherFunc(func(context.Context) (*access.PermissionMap, error) {
		return m, err
	})
}

func billingMap() *access.PermissionMap {
	return access.NewPermissionMap(map[access.Capability]access.Value{
		access.CapStaff:   access.Flag(true),
		access.CapBilling: access.Flag(true),
	})
}

func TestPermissionStore_ResolveSuccess(t *testing.T) {
	m := billingMap()
	store := NewPermissionStore(staticFetcher(m, nil), nil)
	assert.Nil(t, store.Current())

	got, err := store.Resolve(context.Background())
	require.NoError(t, err)
	assert.Same(t, m, got)
	assert.Same(t, m, store.Current())
	assert.Equal(t, uint64(1), store.Sequence())
}

func TestPermissionStore_ResolveNilMapIsEmpty(t *testing.T) {
	store := NewPermissionStore(staticFetcher(nil, nil), nil)
	got, err := store.Resolve(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 0, got.Len())
}

func TestPermissionStore_ResolveFailureFailsClosed(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind FailureKind
	}{
		{"unauthenticated", fmt.Errorf("401: %w", shared.ErrUnauthenticated), FailureUnauthenticated},
		{"transport", errors.New("connection refused"), FailureUnreachable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fail atomic.Bool
			store := NewPermissionStore(FetcherFunc(func(context.Context) (*access.PermissionMap, error) {
				if fail.Load() {
					return nil, tt.err
				}
				return billingMap(), nil
			}), nil)

			_, err := store.Resolve(context.Background())
			require.NoError(t, err)
			require.NotNil(t, store.Current())

			fail.Store(true)
			_, err = store.Resolve(context.Background())
			var rerr *ResolveError
			require.ErrorAs(t, err, &rerr)
			assert.Equal(t, tt.kind, rerr.Kind)
			assert.ErrorIs(t, err, tt.err)
			assert.Nil(t, store.Current())
		})
	}
}

func TestPermissionStore_StaleResolutionDiscarded(t *testing.T) {
	older := access.NewPermissionMap(map[access.Capability]access.Value{access.CapResident: access.Flag(true)})
	newer := billingMap()

	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	store := NewPermissionStore(FetcherFunc(func(context.Context) (*access.PermissionMap, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
			return older, nil
		}
		return newer, nil
	}), nil)

	done := make(chan *access.PermissionMap, 1)
	go func() {
		m, _ := store.Resolve(context.Background())
		done <- m
	}()
	<-started

	got, err := store.Resolve(context.Background())
	require.NoError(t, err)
	assert.Same(t, newer, got)

	close(release)
	assert.Same(t, newer, <-done, "late result of the first resolution must not win")
	assert.Same(t, newer, store.Current())
	assert.Equal(t, uint64(2), store.Sequence())
}

func TestPermissionStore_SubscribeAndClear(t *testing.T) {
	store := NewPermissionStore(staticFetcher(billingMap(), nil), nil)

	var seen []*access.PermissionMap
	stop := store.Subscribe(func(m *access.PermissionMap) {
		seen = append(seen, m)
	})

	_, err := store.Resolve(context.Background())
	require.NoError(t, err)
	store.Clear()
	require.Len(t, seen, 2)
	assert.NotNil(t, seen[0])
	assert.Nil(t, seen[1])

	stop()
	store.Replace(billingMap())
	assert.Len(t, seen, 2)
	assert.NotNil(t, store.Current())
}

func TestPermissionStore_ConcurrentSwapsDeliverInOrder(t *testing.T) {
	store := NewPermissionStore(staticFetcher(billingMap(), nil), nil)

	var (
		active    atomic.Int32
		overlaps  atomic.Int32
		mu        sync.Mutex
		delivered []*access.PermissionMap
	)
	stop := store.Subscribe(func(m *access.PermissionMap) {
		if active.Add(1) > 1 {
			overlaps.Add(1)
		}
		time.Sleep(50 * time.Microsecond)
		mu.Lock()
		delivered = append(delivered, m)
		mu.Unlock()
		active.Add(-1)
	})
	defer stop()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				store.Replace(billingMap())
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, overlaps.Load(), "subscribers must not run concurrently")
	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, delivered)
	assert.LessOrEqual(t, len(delivered), 200)
	assert.Same(t, store.Current(), delivered[len(delivered)-1], "last delivery is the held map")
}

func TestPermissionStore_ConcurrentReadsDuringSwaps(t *testing.T) {
	store := NewPermissionStore(staticFetcher(billingMap(), nil), nil)
	store.Replace(billingMap())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				m := store.Current()
				assert.True(t, m.Capability(access.CapBilling))
			}
		}()
	}
	for j := 0; j < 200; j++ {
		store.Replace(billingMap())
	}
	wg.Wait()
	assert.Equal(t, uint64(201), store.Sequence())
}
