// Package testing provides test utilities and helpers for ripple store testing.
package testing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/zoobzio/ripple"
)

// WaitFor polls a condition until it returns true or timeout is reached.
// Returns true if the condition was met, false if timeout occurred.
func WaitFor(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

// WaitForState waits until the store reaches the expected state or timeout occurs.
func WaitForState[V any](t *testing.T, s *ripple.Store[V], expected ripple.State, timeout time.Duration) bool {
	t.Helper()
	return WaitFor(t, timeout, func() bool {
		return s.State() == expected
	})
}

// WaitForKey waits until the committed value for name satisfies check.
func WaitForKey[V any](t *testing.T, s *ripple.Store[V], name string, check func(V) bool, timeout time.Duration) bool {
	t.Helper()
	return WaitFor(t, timeout, func() bool {
		v, ok := s.Get(name)
		return ok && check(v)
	})
}

// RequireState fails the test immediately if the store is not in the expected state.
func RequireState[V any](t *testing.T, s *ripple.Store[V], expected ripple.State) {
	t.Helper()
	if got := s.State(); got != expected {
		t.Fatalf("expected state %s, got %s", expected, got)
	}
}

// RequireKey fails the test if the key is absent or the committed value
// doesn't satisfy check.
func RequireKey[V any](t *testing.T, s *ripple.Store[V], name string, check func(V) bool) {
	t.Helper()
	v, ok := s.Get(name)
	if !ok {
		t.Fatalf("expected key %q to be present, got none", name)
	}
	if !check(v) {
		t.Fatalf("value check failed for %q: %+v", name, v)
	}
}

// NewTestStore creates a sync-mode store that records every notification
// for the given key. Returns the store and a function that reports the
// values notified so far.
func NewTestStore[V any](t *testing.T, name string) (*ripple.Store[V], func() []V) {
	t.Helper()
	var (
		mu       sync.Mutex
		notified []V
	)
	s, err := ripple.New(map[string]ripple.Handler[V]{
		name: func(_ context.Context, _, curr V) error {
			mu.Lock()
			notified = append(notified, curr)
			mu.Unlock()
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	s.SyncMode()
	return s, func() []V {
		mu.Lock()
		defer mu.Unlock()
		return append([]V(nil), notified...)
	}
}
