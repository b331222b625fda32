package ripple

import (
	"context"
	"time"

	"github.com/zoobzio/pipz"
)

// Identities for the fixed pipeline stages. Adapters that take a
// caller-supplied name mint their identity per call.
var (
	retryID          = pipz.NewIdentity("retry", "Retries failed notifications")
	backoffID        = pipz.NewIdentity("backoff", "Retries failed notifications with exponential backoff")
	timeoutID        = pipz.NewIdentity("timeout", "Bounds notification time per key")
	fallbackID       = pipz.NewIdentity("fallback", "Falls back to alternative processors on failure")
	circuitBreakerID = pipz.NewIdentity("circuit-breaker", "Rejects notifications while the circuit is open")
	errorHandlerID   = pipz.NewIdentity("error-handler", "Observes pipeline errors")
	middlewareID     = pipz.NewIdentity("middleware", "Runs middleware processors before notification")
	rateLimiterID    = pipz.NewIdentity("rate-limiter", "Limits notification rate")
)

// Option configures the flush pipeline of a Store. Pipeline options wrap
// handler notification with middleware for retry, timeout, circuit
// breaking, and other reliability patterns. The pipeline runs once per
// flushed key.
//
// Instance configuration (coalescing window, clock, codec, etc.) is
// handled via chainable methods on the Store.
type Option[V any] func(pipz.Chainable[*Change[V]]) pipz.Chainable[*Change[V]]

// buildPipeline wraps a terminal with pipeline options.
func buildPipeline[V any](terminal pipz.Chainable[*Change[V]], opts []Option[V]) pipz.Chainable[*Change[V]] {
	pipeline := terminal
	for _, opt := range opts {
		pipeline = opt(pipeline)
	}
	return pipeline
}

// -----------------------------------------------------------------------------
// Pipeline Options - Wrapping (With*)
// -----------------------------------------------------------------------------
// These options wrap the entire pipeline, providing protection at the boundary.
// Use for resilience patterns that should apply to every flushed key.

// WithRetry wraps the pipeline with retry logic.
// Failed notifications are retried immediately up to maxAttempts times.
// For exponential backoff between retries, use WithBackoff instead.
func WithRetry[V any](maxAttempts int) Option[V] {
	return func(p pipz.Chainable[*Change[V]]) pipz.Chainable[*Change[V]] {
		return pipz.NewRetry(retryID, p, maxAttempts)
	}
}

// WithBackoff wraps the pipeline with exponential backoff retry logic.
// Failed notifications are retried with increasing delays: baseDelay,
// 2*baseDelay, 4*baseDelay, etc.
func WithBackoff[V any](maxAttempts int, baseDelay time.Duration) Option[V] {
	return func(p pipz.Chainable[*Change[V]]) pipz.Chainable[*Change[V]] {
		return pipz.NewBackoff(backoffID, p, maxAttempts, baseDelay)
	}
}

// WithTimeout wraps the pipeline with a timeout.
// If a key's notification takes longer than the specified duration, the
// operation fails and the key is not committed.
func WithTimeout[V any](d time.Duration) Option[V] {
	return func(p pipz.Chainable[*Change[V]]) pipz.Chainable[*Change[V]] {
		return pipz.NewTimeout(timeoutID, p, d)
	}
}

// WithFallback wraps the pipeline with fallback processors.
// If the primary pipeline fails, each fallback is tried in order until
// one succeeds.
func WithFallback[V any](fallbacks ...pipz.Chainable[*Change[V]]) Option[V] {
	return func(p pipz.Chainable[*Change[V]]) pipz.Chainable[*Change[V]] {
		all := append([]pipz.Chainable[*Change[V]]{p}, fallbacks...)
		return pipz.NewFallback(fallbackID, all...)
	}
}

// WithCircuitBreaker wraps the pipeline with circuit breaker protection.
// After 'failures' consecutive failures, the circuit opens and rejects
// further notifications until 'recovery' time has passed.
//
// Note: the circuit breaker is stateful and protects the entire pipeline.
// There is no Use* equivalent - it only makes sense as a wrapper.
func WithCircuitBreaker[V any](failures int, recovery time.Duration) Option[V] {
	return func(p pipz.Chainable[*Change[V]]) pipz.Chainable[*Change[V]] {
		return pipz.NewCircuitBreaker(circuitBreakerID, p, failures, recovery)
	}
}

// WithErrorHandler adds error observation to the pipeline.
// Errors are passed to the handler for logging, metrics, or alerting,
// but the error still propagates. Use this for observability, not recovery.
func WithErrorHandler[V any](handler pipz.Chainable[*pipz.Error[*Change[V]]]) Option[V] {
	return func(p pipz.Chainable[*Change[V]]) pipz.Chainable[*Change[V]] {
		return pipz.NewHandle(errorHandlerID, p, handler)
	}
}

// -----------------------------------------------------------------------------
// Pipeline Options - Middleware Composition
// -----------------------------------------------------------------------------

// WithMiddleware wraps the pipeline with a sequence of processors.
// Processors execute in order, with handler notification last.
//
// Use the Use* functions to create processors for common patterns,
// or provide custom pipz.Chainable implementations directly.
//
// Example:
//
//	ripple.New[string](handlers,
//	    ripple.WithMiddleware(
//	        ripple.UseEffect[string]("log", logFn),
//	        ripple.UseRateLimit(10, 5, ripple.UseEffect[string]("audit", auditFn)),
//	    ),
//	    ripple.WithCircuitBreaker[string](5, 30*time.Second),
//	)
func WithMiddleware[V any](processors ...pipz.Chainable[*Change[V]]) Option[V] {
	return func(p pipz.Chainable[*Change[V]]) pipz.Chainable[*Change[V]] {
		all := make([]pipz.Chainable[*Change[V]], 0, len(processors)+1)
		all = append(all, processors...)
		all = append(all, p)
		return pipz.NewSequence(middlewareID, all...)
	}
}

// -----------------------------------------------------------------------------
// Middleware Processors - Adapters (Use*)
// -----------------------------------------------------------------------------
// These create processors for use inside WithMiddleware.
// They transform or observe a change as it flows through the pipeline.

// UseTransform creates a processor that transforms the change.
// Cannot fail. Use for pure transformations that always succeed.
func UseTransform[V any](name string, fn func(context.Context, *Change[V]) *Change[V]) pipz.Chainable[*Change[V]] {
	return pipz.Transform(pipz.NewIdentity(name, ""), fn)
}

// UseApply creates a processor that can transform the change and fail.
// Use for operations like enrichment or cross-field validation that may
// produce errors.
func UseApply[V any](name string, fn func(context.Context, *Change[V]) (*Change[V], error)) pipz.Chainable[*Change[V]] {
	return pipz.Apply(pipz.NewIdentity(name, ""), fn)
}

// UseEffect creates a processor that performs a side effect.
// The change passes through unchanged. Use for logging, metrics, or
// notifications that should not affect the committed value.
func UseEffect[V any](name string, fn func(context.Context, *Change[V]) error) pipz.Chainable[*Change[V]] {
	return pipz.Effect(pipz.NewIdentity(name, ""), fn)
}

// UseMutate creates a processor that conditionally transforms the change.
// The transformer is only applied if the condition returns true.
func UseMutate[V any](name string, transformer func(context.Context, *Change[V]) *Change[V], condition func(context.Context, *Change[V]) bool) pipz.Chainable[*Change[V]] {
	return pipz.Mutate(pipz.NewIdentity(name, ""), transformer, condition)
}

// UseEnrich creates a processor that attempts optional enhancement.
// If the enrichment fails, the error is logged but processing continues
// with the original change. Use for non-critical enhancements.
func UseEnrich[V any](name string, fn func(context.Context, *Change[V]) (*Change[V], error)) pipz.Chainable[*Change[V]] {
	return pipz.Enrich(pipz.NewIdentity(name, ""), fn)
}

// -----------------------------------------------------------------------------
// Middleware Processors - Wrapping (Use*)
// -----------------------------------------------------------------------------
// These wrap another processor with reliability logic.

// UseRetry wraps a processor with retry logic.
// Failed operations are retried immediately up to maxAttempts times.
func UseRetry[V any](maxAttempts int, processor pipz.Chainable[*Change[V]]) pipz.Chainable[*Change[V]] {
	return pipz.NewRetry(retryID, processor, maxAttempts)
}

// UseBackoff wraps a processor with exponential backoff retry logic.
// Failed operations are retried with increasing delays.
func UseBackoff[V any](maxAttempts int, baseDelay time.Duration, processor pipz.Chainable[*Change[V]]) pipz.Chainable[*Change[V]] {
	return pipz.NewBackoff(backoffID, processor, maxAttempts, baseDelay)
}

// UseTimeout wraps a processor with a deadline.
// If processing takes longer than the specified duration, the operation fails.
func UseTimeout[V any](d time.Duration, processor pipz.Chainable[*Change[V]]) pipz.Chainable[*Change[V]] {
	return pipz.NewTimeout(timeoutID, processor, d)
}

// UseFallback wraps a processor with fallback alternatives.
// If the primary fails, each fallback is tried in order.
func UseFallback[V any](primary pipz.Chainable[*Change[V]], fallbacks ...pipz.Chainable[*Change[V]]) pipz.Chainable[*Change[V]] {
	all := append([]pipz.Chainable[*Change[V]]{primary}, fallbacks...)
	return pipz.NewFallback(fallbackID, all...)
}

// UseFilter wraps a processor with a condition.
// If the condition returns false, the change passes through unchanged.
func UseFilter[V any](name string, condition func(context.Context, *Change[V]) bool, processor pipz.Chainable[*Change[V]]) pipz.Chainable[*Change[V]] {
	return pipz.NewFilter(pipz.NewIdentity(name, ""), condition, processor)
}

// UseRateLimit wraps a processor with token bucket rate limiting at the
// specified rate (notifications per second) and burst size. When tokens
// are exhausted, notifications wait for availability.
func UseRateLimit[V any](rate float64, burst int, processor pipz.Chainable[*Change[V]]) pipz.Chainable[*Change[V]] {
	return pipz.NewRateLimiter(rateLimiterID, rate, burst, processor)
}
