package ripple

import (
	"fmt"
	"sync"
)

// HandlerError records a handler failure for a single flushed key.
type HandlerError struct {
	// Field is the state key whose handler failed.
	Field string

	// Err is the error returned by the handler pipeline.
	Err error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler %q: %v", e.Field, e.Err)
}

// Unwrap returns the underlying handler error.
func (e *HandlerError) Unwrap() error {
	return e.Err
}

// errorRing is a thread-safe ring buffer of recent handler failures.
type errorRing struct {
	mu     sync.RWMutex
	errors []error
	size   int
	head   int
	count  int
}

// newErrorRing creates an error ring with the given capacity.
// If size is 0, the ring is disabled.
func newErrorRing(size int) *errorRing {
	if size <= 0 {
		return nil
	}
	return &errorRing{
		errors: make([]error, size),
		size:   size,
	}
}

// push records a handler failure for the given field.
func (r *errorRing) push(field string, err error) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.errors[r.head] = &HandlerError{Field: field, Err: err}
	r.head = (r.head + 1) % r.size
	if r.count < r.size {
		r.count++
	}
}

// clear drops all recorded failures.
func (r *errorRing) clear() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.errors {
		r.errors[i] = nil
	}
	r.head = 0
	r.count = 0
}

// all returns the recorded failures, oldest first.
func (r *errorRing) all() []error {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.count == 0 {
		return nil
	}

	result := make([]error, r.count)
	start := (r.head - r.count + r.size) % r.size
	for i := 0; i < r.count; i++ {
		result[i] = r.errors[(start+i)%r.size]
	}
	return result
}
