package ripple

// Change carries one key's net state change through the flush pipeline.
// It provides access to both the previous committed value and the staged
// value, allowing pipeline stages to make decisions based on what changed.
type Change[V any] struct {
	// Field is the state key being flushed.
	Field string

	// Previous is the committed value at flush time.
	// For a key never committed before, this is the zero value of V.
	Previous V

	// Current is the staged value about to be committed.
	// Pipeline stages may modify this value before it is committed.
	Current V

	// Forced reports whether the change was staged by Touch rather than
	// an observed difference. When true, Previous equals Current.
	Forced bool
}
