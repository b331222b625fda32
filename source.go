package ripple

import "context"

// Source observes an external change trigger and emits a payload on a
// channel each time it fires. Bindings created with Store.Bind,
// Store.BindFunc, and Store.BindStatic consume these payloads.
type Source interface {
	// Watch begins observing the trigger and returns a channel that
	// emits a payload per firing. The channel is closed when the context
	// is canceled or an unrecoverable error occurs.
	//
	// Implementations that have a current value should emit it
	// immediately to support initial state loading.
	Watch(ctx context.Context) (<-chan []byte, error)
}
