package ripple

import "time"

// MetricsProvider allows integration with metrics systems like Prometheus, StatsD, etc.
// Implement this interface to receive callbacks on key store events.
type MetricsProvider interface {
	// OnStateChange is called when the store transitions between states.
	OnStateChange(from, to State)

	// OnChangeStaged is called when a staging call adds diffs to the
	// pending buffer (once per Apply or Touch that staged anything).
	OnChangeStaged()

	// OnFlush is called after a flush completes. Keys is the number of
	// changes processed; duration covers the whole flush.
	OnFlush(keys int, duration time.Duration)

	// OnHandlerFailure is called when a key's notification pipeline
	// fails. Duration is the time spent processing that key.
	OnHandlerFailure(field string, duration time.Duration)
}

// NoOpMetricsProvider is a no-op implementation of MetricsProvider.
// Use this as an embedded type to implement only the methods you need.
type NoOpMetricsProvider struct{}

func (NoOpMetricsProvider) OnStateChange(_, _ State)                   {}
func (NoOpMetricsProvider) OnChangeStaged()                            {}
func (NoOpMetricsProvider) OnFlush(_ int, _ time.Duration)             {}
func (NoOpMetricsProvider) OnHandlerFailure(_ string, _ time.Duration) {}
