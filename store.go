package ripple

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/pipz"
)

// DefaultCoalesce is the default coalescing window. Changes staged within
// one window of each other collapse into a single flush.
const DefaultCoalesce = 100 * time.Millisecond

// notifyID identifies the terminal pipeline stage that invokes handlers.
var notifyID = pipz.NewIdentity("notify", "Invokes the registered handler for a flushed key")

// Handler is a per-key change callback. At flush it receives the
// previous committed value and the value being committed. For a change
// staged by Touch, prev equals curr.
type Handler[V any] func(ctx context.Context, prev, curr V) error

// pendingChange is one staged, uncommitted value.
type pendingChange[V any] struct {
	value  V
	forced bool
}

// Store holds committed key/value state and delivers coalesced change
// notifications to per-key handlers, at most once per key per flush.
type Store[V any] struct {
	pipeline pipz.Chainable[*Change[V]]
	coalesce time.Duration
	syncMode bool
	clock    clockz.Clock
	codec    Codec
	equals   func(a, b V) bool
	metrics  MetricsProvider

	state        atomic.Int32
	lastError    atomic.Pointer[error]
	errorHistory *errorRing

	mu       sync.Mutex
	current  map[string]V
	pending  map[string]pendingChange[V]
	handlers map[string]Handler[V]
	sched    *deferral
	flushCtx context.Context
}

// New creates a Store with the given initial handler registry.
//
// Each entry binds a key to its change handler. The registry may be nil
// or empty; handlers can also be registered later with On. A malformed
// registry (an empty key, or a nil handler function) is rejected before
// any registration takes effect.
//
// Pipeline options (With*) wrap handler notification with middleware.
// Instance configuration uses chainable methods before the first
// mutation:
//
//	store, err := ripple.New(map[string]ripple.Handler[string]{
//	    "theme": func(ctx context.Context, prev, curr string) error {
//	        return applyTheme(curr)
//	    },
//	}, ripple.WithRetry[string](3))
//	if err != nil {
//	    return err
//	}
//	store.Coalesce(50 * time.Millisecond)
func New[V any](handlers map[string]Handler[V], opts ...Option[V]) (*Store[V], error) {
	for name, fn := range handlers {
		if name == "" {
			return nil, fmt.Errorf("malformed handler registry: empty key")
		}
		if fn == nil {
			return nil, fmt.Errorf("malformed handler registry: handler %q is nil", name)
		}
	}

	s := &Store[V]{
		coalesce: DefaultCoalesce,
		clock:    clockz.RealClock,
		codec:    JSONCodec{},
		equals:   identical[V],
		current:  make(map[string]V),
		pending:  make(map[string]pendingChange[V]),
		handlers: make(map[string]Handler[V], len(handlers)),
	}
	s.state.Store(int32(StateIdle))

	terminal := pipz.Effect(notifyID, func(ctx context.Context, ch *Change[V]) error {
		return s.notify(ctx, ch)
	})
	s.pipeline = buildPipeline(terminal, opts)

	for name, fn := range handlers {
		s.On(name, fn)
	}

	return s, nil
}

// -----------------------------------------------------------------------------
// Chainable Instance Configuration
// -----------------------------------------------------------------------------

// Coalesce sets the coalescing window. Every staging call re-arms the
// window, so the flush fires one full window after the last mutation.
// Default: 100ms. Must be set before the first mutation.
func (s *Store[V]) Coalesce(d time.Duration) *Store[V] {
	s.coalesce = d
	return s
}

// Clock sets a custom clock for the coalescing window.
// Use this with clockz.FakeClock for deterministic window testing.
// Must be set before the first mutation.
func (s *Store[V]) Clock(clock clockz.Clock) *Store[V] {
	s.clock = clock
	return s
}

// SyncMode disables the deferred flush for testing. Staged changes
// accumulate until Flush is called, making tests deterministic.
// Must be set before the first mutation.
func (s *Store[V]) SyncMode() *Store[V] {
	s.syncMode = true
	return s
}

// Equals sets the change detector used to diff staged values against
// committed state. Default: strict identity (see Touch for values it
// cannot observe). Must be set before the first mutation.
func (s *Store[V]) Equals(eq func(a, b V) bool) *Store[V] {
	if eq != nil {
		s.equals = eq
	}
	return s
}

// Codec sets the codec used by Bind to decode source payloads.
// Default: JSONCodec. Must be set before the first binding.
func (s *Store[V]) Codec(codec Codec) *Store[V] {
	s.codec = codec
	return s
}

// Metrics sets a metrics provider for observability integration.
// Must be set before the first mutation.
func (s *Store[V]) Metrics(provider MetricsProvider) *Store[V] {
	s.metrics = provider
	return s
}

// ErrorHistorySize sets the number of recent handler failures to retain.
// Use 0 (default) to only retain the most recent error via LastError.
// Must be set before the first mutation.
func (s *Store[V]) ErrorHistorySize(n int) *Store[V] {
	s.errorHistory = newErrorRing(n)
	return s
}

// -----------------------------------------------------------------------------
// Handler Registry
// -----------------------------------------------------------------------------

// On registers or replaces the handler for name. Rebinding is silent:
// the last registration wins. A nil fn behaves as Off(name). An empty
// name is ignored.
func (s *Store[V]) On(name string, fn Handler[V]) {
	if name == "" {
		return
	}
	if fn == nil {
		s.Off(name)
		return
	}
	s.mu.Lock()
	s.handlers[name] = fn
	s.mu.Unlock()
}

// Off deletes the handler registration for name. Subsequent Touch calls
// for name become no-ops; values staged for name still commit at flush,
// silently.
func (s *Store[V]) Off(name string) {
	s.mu.Lock()
	delete(s.handlers, name)
	s.mu.Unlock()
}

// -----------------------------------------------------------------------------
// Mutation
// -----------------------------------------------------------------------------

// Set merges partial directly into committed state with no diffing, no
// notification, and no scheduling. Use it for imperative initialization.
// A nil partial is a no-op.
func (s *Store[V]) Set(partial map[string]V) {
	if len(partial) == 0 {
		return
	}
	s.mu.Lock()
	for name, value := range partial {
		s.current[name] = value
	}
	s.mu.Unlock()
}

// Apply stages every key of partial whose value differs from committed
// state, then (re)arms the deferred flush. An armed flush is canceled
// and rescheduled, so the flush always fires one full coalescing window
// after the last staging call. A nil partial, or one that stages
// nothing, arms nothing.
//
// ctx is retained for the deferred flush; the last staging call's
// context wins.
func (s *Store[V]) Apply(ctx context.Context, partial map[string]V) {
	if len(partial) == 0 {
		return
	}

	s.mu.Lock()
	staged := 0
	for name, value := range partial {
		if name == "" {
			continue
		}
		if cur, ok := s.current[name]; ok && s.equals(cur, value) {
			continue
		}
		s.pending[name] = pendingChange[V]{value: value}
		staged++
	}
	if staged == 0 {
		s.mu.Unlock()
		return
	}
	s.flushCtx = ctx
	s.arm(ctx)
	s.mu.Unlock()

	capitan.Emit(ctx, StoreChangeStaged,
		KeyFields.Field(staged),
	)
	if s.metrics != nil {
		s.metrics.OnChangeStaged()
	}
}

// Touch force-stages the current committed value of each named key that
// has a live handler, so its handler fires at flush with prev == curr.
// Use it after an in-place mutation the change detector cannot observe.
// Re-arms the deferred flush exactly like Apply. Names without a live
// handler are ignored.
func (s *Store[V]) Touch(ctx context.Context, names ...string) {
	if len(names) == 0 {
		return
	}

	s.mu.Lock()
	staged := 0
	for _, name := range names {
		if _, ok := s.handlers[name]; !ok {
			continue
		}
		s.pending[name] = pendingChange[V]{value: s.current[name], forced: true}
		staged++
	}
	if staged == 0 {
		s.mu.Unlock()
		return
	}
	s.flushCtx = ctx
	s.arm(ctx)
	s.mu.Unlock()

	capitan.Emit(ctx, StoreTouched,
		KeyFields.Field(staged),
	)
	if s.metrics != nil {
		s.metrics.OnChangeStaged()
	}
}

// arm schedules (or reschedules) the deferred flush.
// The caller must hold s.mu.
func (s *Store[V]) arm(ctx context.Context) {
	s.transition(ctx, s.stateLocked(), StateDirty)

	if s.syncMode {
		return
	}
	if s.sched == nil {
		s.sched = newDeferral(s.clock, s.coalesce)
	}
	s.sched.arm(func(gen uint64) {
		s.flushScheduled(gen)
	})

	capitan.Emit(ctx, StoreFlushArmed,
		KeyCoalesce.Field(s.coalesce),
	)
}

// -----------------------------------------------------------------------------
// Flush
// -----------------------------------------------------------------------------

// Flush processes all pending changes immediately. It is only available
// in sync mode and is used for deterministic testing; outside sync mode
// it reports false and does nothing. Returns true if a flush ran, even
// when nothing was pending.
func (s *Store[V]) Flush(ctx context.Context) bool {
	if !s.syncMode {
		return false
	}

	s.mu.Lock()
	changes := s.drain(ctx)
	s.mu.Unlock()

	s.process(ctx, changes)
	return true
}

// flushScheduled is the deferral callback. A stale generation means the
// flush was superseded by a later staging call and must not run.
func (s *Store[V]) flushScheduled(gen uint64) {
	s.mu.Lock()
	if s.sched == nil || !s.sched.owns(gen) {
		s.mu.Unlock()
		return
	}
	ctx := s.flushCtx
	if ctx == nil {
		ctx = context.Background()
	}
	changes := s.drain(ctx)
	s.mu.Unlock()

	s.process(ctx, changes)
}

// drain snapshots and clears the pending buffer, returning one Change
// per staged key in sorted key order, and transitions the store back to
// Idle. The caller must hold s.mu.
func (s *Store[V]) drain(ctx context.Context) []*Change[V] {
	names := make([]string, 0, len(s.pending))
	for name := range s.pending {
		names = append(names, name)
	}
	sort.Strings(names)

	changes := make([]*Change[V], 0, len(names))
	for _, name := range names {
		p := s.pending[name]
		changes = append(changes, &Change[V]{
			Field:    name,
			Previous: s.current[name],
			Current:  p.value,
			Forced:   p.forced,
		})
	}

	s.pending = make(map[string]pendingChange[V])
	s.transition(ctx, s.stateLocked(), StateIdle)
	return changes
}

// process runs each drained change through the pipeline and commits it.
//
// Keys are processed in sorted order; a key is committed immediately
// after its pipeline succeeds, so handlers later in the same flush
// observe earlier commits. A failing key is not committed and is
// recorded, and the flush continues with the remaining keys. A fully
// clean flush clears the error state.
func (s *Store[V]) process(ctx context.Context, changes []*Change[V]) {
	if len(changes) == 0 {
		return
	}

	start := s.clock.Now()
	failed := 0

	for _, ch := range changes {
		keyStart := s.clock.Now()
		processed, err := s.pipeline.Process(ctx, ch)
		if err != nil {
			failed++
			s.setError(ch.Field, err)
			capitan.Emit(ctx, StoreHandlerFailed,
				KeyField.Field(ch.Field),
				KeyError.Field(err.Error()),
			)
			if s.metrics != nil {
				s.metrics.OnHandlerFailure(ch.Field, s.clock.Since(keyStart))
			}
			continue
		}

		s.mu.Lock()
		s.current[ch.Field] = processed.Current
		s.mu.Unlock()
	}

	if failed == 0 {
		s.lastError.Store(nil)
		s.errorHistory.clear()
	}

	capitan.Emit(ctx, StoreFlushed,
		KeyFields.Field(len(changes)),
	)
	if s.metrics != nil {
		s.metrics.OnFlush(len(changes), s.clock.Since(start))
	}
}

// notify is the terminal pipeline stage: it invokes the live handler for
// the change's key, if any. Keys without a live handler pass through and
// still commit.
func (s *Store[V]) notify(ctx context.Context, ch *Change[V]) error {
	s.mu.Lock()
	fn := s.handlers[ch.Field]
	s.mu.Unlock()

	if fn == nil {
		return nil
	}
	return fn(ctx, ch.Previous, ch.Current)
}

// setError stores an error atomically and adds it to the error history.
func (s *Store[V]) setError(field string, err error) {
	e := error(&HandlerError{Field: field, Err: err})
	s.lastError.Store(&e)
	s.errorHistory.push(field, err)
}

// transition updates the state and emits a state change event if changed.
func (s *Store[V]) transition(ctx context.Context, oldState, newState State) {
	if oldState == newState {
		return
	}
	s.state.Store(int32(newState))
	capitan.Emit(ctx, StoreStateChanged,
		KeyOldState.Field(oldState.String()),
		KeyNewState.Field(newState.String()),
	)
	if s.metrics != nil {
		s.metrics.OnStateChange(oldState, newState)
	}
}

// stateLocked returns the current state without further synchronization.
func (s *Store[V]) stateLocked() State {
	return State(s.state.Load())
}

// -----------------------------------------------------------------------------
// Accessors
// -----------------------------------------------------------------------------

// State returns the current flush-cycle state of the store.
func (s *Store[V]) State() State {
	return State(s.state.Load())
}

// Get returns the committed value for name and whether it is present.
// Staged, unflushed values are not visible here.
func (s *Store[V]) Get(name string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.current[name]
	return v, ok
}

// Current returns a snapshot copy of the committed state.
func (s *Store[V]) Current() map[string]V {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make(map[string]V, len(s.current))
	for name, value := range s.current {
		snapshot[name] = value
	}
	return snapshot
}

// Encode serializes a snapshot of the committed state with the store
// codec. Staged, unflushed values are not included. The output of a
// JSON-codec store round-trips through a binding on another store.
func (s *Store[V]) Encode() ([]byte, error) {
	return s.codec.Marshal(s.Current())
}

// Pending returns the number of staged, unflushed keys.
func (s *Store[V]) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// LastError returns the most recent handler failure, or nil if the last
// flush was clean.
func (s *Store[V]) LastError() error {
	ptr := s.lastError.Load()
	if ptr == nil {
		return nil
	}
	return *ptr
}

// ErrorHistory returns recent handler failures, oldest first.
// Returns nil unless enabled with ErrorHistorySize.
func (s *Store[V]) ErrorHistory() []error {
	return s.errorHistory.all()
}
