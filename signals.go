package ripple

import "github.com/zoobzio/capitan"

// Store flush-cycle signals.
var (
	// StoreChangeStaged is emitted when Apply stages one or more diffs.
	StoreChangeStaged = capitan.NewSignal(
		"ripple.store.change.staged",
		"Changes staged into the pending buffer",
	)

	// StoreTouched is emitted when Touch force-stages committed values.
	StoreTouched = capitan.NewSignal(
		"ripple.store.touched",
		"Keys force-staged for notification",
	)

	// StoreFlushArmed is emitted when the deferred flush is scheduled or
	// rescheduled, extending the coalescing window.
	StoreFlushArmed = capitan.NewSignal(
		"ripple.store.flush.armed",
		"Deferred flush scheduled",
	)

	// StoreFlushed is emitted after a flush has processed its changes.
	StoreFlushed = capitan.NewSignal(
		"ripple.store.flushed",
		"Pending changes flushed to handlers",
	)

	// StoreHandlerFailed is emitted when a key's notification pipeline fails.
	StoreHandlerFailed = capitan.NewSignal(
		"ripple.store.handler.failed",
		"Handler pipeline failed for a flushed key",
	)

	// StoreStateChanged is emitted when a Store transitions between states.
	StoreStateChanged = capitan.NewSignal(
		"ripple.store.state.changed",
		"Store state transition",
	)
)

// Binding signals.
var (
	// SourceBound is emitted when a source binding starts consuming.
	SourceBound = capitan.NewSignal(
		"ripple.source.bound",
		"Source binding started",
	)

	// SourceDecodeFailed is emitted when a bound source's payload cannot
	// be decoded or transformed into a partial state.
	SourceDecodeFailed = capitan.NewSignal(
		"ripple.source.decode.failed",
		"Source payload rejected",
	)
)

// Form signals.
var (
	// FormFieldSynced is emitted when a form event mutates the bound state.
	FormFieldSynced = capitan.NewSignal(
		"ripple.form.field.synced",
		"Form field synced into bound state",
	)

	// FormRuleViolated is emitted when a field value fails its validation rule.
	FormRuleViolated = capitan.NewSignal(
		"ripple.form.rule.violated",
		"Form field value failed validation rule",
	)
)
