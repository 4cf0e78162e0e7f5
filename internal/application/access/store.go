// Package access resolves and holds permission maps and runs the access
// guard over them.
package access

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/society/backend/internal/domain/access"
	"github.com/society/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// FailureKind classifies a failed resolution
type FailureKind int

const (
	FailureUnauthenticated FailureKind = iota + 1
	FailureUnreachable
)

func (k FailureKind) String() string {
	switch k {
	case FailureUnauthenticated:
		return "unauthenticated"
	case FailureUnreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// ResolveError is returned when a permission map could not be resolved.
// The store holds no map afterwards.
type ResolveError struct {
	Kind FailureKind
	Err  error
}

func (e *ResolveError) Error() string {
	return "resolve permissions: " + e.Kind.String() + ": " + e.Err.Error()
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

func classify(err error) FailureKind {
	if errors.Is(err, shared.ErrUnauthenticated) {
		return FailureUnauthenticated
	}
	return FailureUnreachable
}

// Fetcher loads the permission map of the current identity in one call
type Fetcher interface {
	FetchPermissions(ctx context.Context) (*access.PermissionMap, error)
}

// FetcherFunc adapts a function to Fetcher
type FetcherFunc func(ctx context.Context) (*access.PermissionMap, error)

func (f FetcherFunc) FetchPermissions(ctx context.Context) (*access.PermissionMap, error) {
	return f(ctx)
}

type snapshot struct {
	seq uint64
	m   *access.PermissionMap
}

// PermissionStore holds the resolved map of one identity. The map is swapped
// atomically and never modified, so readers need no locking. Every resolution
// takes a sequence number when it starts; a result is kept only if no
// resolution with a higher number has already landed.
type PermissionStore struct {
	fetcher Fetcher
	logger  *zap.Logger

	next    atomic.Uint64
	current atomic.Pointer[snapshot]

	mu          sync.Mutex
	subscribers map[uint64]func(*access.PermissionMap)
	subSeq      uint64

	// deliver serialises notification; notified is the last delivered sequence
	deliver  sync.Mutex
	notified uint64
}

// NewPermissionStore creates an empty store. Current returns nil until the
// first successful Resolve.
func NewPermissionStore(fetcher Fetcher, logger *zap.Logger) *PermissionStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &PermissionStore{
		fetcher:     fetcher,
		logger:      logger,
		subscribers: make(map[uint64]func(*access.PermissionMap)),
	}
	s.current.Store(&snapshot{})
	return s
}

// Resolve fetches the map once, without retry. On failure the held map is
// dropped so that every guard denies until the next successful resolution.
func (s *PermissionStore) Resolve(ctx context.Context) (*access.PermissionMap, error) {
	seq := s.next.Add(1)
	m, err := s.fetcher.FetchPermissions(ctx)
	if err != nil {
		kind := classify(err)
		s.logger.Warn("Permission resolution failed",
			zap.Uint64("sequence", seq),
			zap.Stringer("kind", kind),
			zap.Error(err))
		s.swap(seq, nil)
		return nil, &ResolveError{Kind: kind, Err: err}
	}
	if m == nil {
		m = access.EmptyPermissionMap()
	}
	if !s.swap(seq, m) {
		s.logger.Debug("Discarded stale permission map", zap.Uint64("sequence", seq))
		return s.Current(), nil
	}
	if ignored := m.Ignored(); len(ignored) > 0 {
		s.logger.Debug("Ignored unknown capability keys", zap.Strings("keys", ignored))
	}
	return m, nil
}

// Replace installs a map resolved elsewhere under a fresh sequence number
func (s *PermissionStore) Replace(m *access.PermissionMap) {
	s.swap(s.next.Add(1), m)
}

// Clear drops the held map, e.g. on logout
func (s *PermissionStore) Clear() {
	s.swap(s.next.Add(1), nil)
}

// Current returns the held map, or nil when nothing is resolved
func (s *PermissionStore) Current() *access.PermissionMap {
	return s.current.Load().m
}

// Sequence returns the sequence number of the held map
func (s *PermissionStore) Sequence() uint64 {
	return s.current.Load().seq
}

func (s *PermissionStore) swap(seq uint64, m *access.PermissionMap) bool {
	next := &snapshot{seq: seq, m: m}
	for {
		cur := s.current.Load()
		if cur.seq >= seq {
			return false
		}
		if s.current.CompareAndSwap(cur, next) {
			break
		}
	}
	s.notify(seq, m)
	return true
}

// Subscribe registers fn to be called after every swap. Deliveries are
// serialised and arrive in sequence order; a map superseded before its
// delivery is skipped. fn must not swap the store itself. The returned
// function removes the subscription.
func (s *PermissionStore) Subscribe(fn func(*access.PermissionMap)) func() {
	s.mu.Lock()
	s.subSeq++
	id := s.subSeq
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

func (s *PermissionStore) notify(seq uint64, m *access.PermissionMap) {
	s.deliver.Lock()
	defer s.deliver.Unlock()
	// a newer swap has landed and will deliver its own map
	if seq <= s.notified || s.current.Load().seq != seq {
		return
	}
	s.notified = seq

	s.mu.Lock()
	fns := make([]func(*access.PermissionMap), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(m)
	}
}
