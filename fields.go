package ripple

import "github.com/zoobzio/capitan"

// Field keys for Store and Form events.
var (
	// KeyField is the state key a change or failure refers to.
	KeyField = capitan.NewStringKey("field")

	// KeyFields is the number of keys involved in a staging or flush.
	KeyFields = capitan.NewIntKey("fields")

	// KeyCoalesce is the configured coalescing window.
	KeyCoalesce = capitan.NewDurationKey("coalesce")

	// KeyError is the error message when an operation fails.
	KeyError = capitan.NewStringKey("error")

	// KeyOldState is the previous state before a transition.
	KeyOldState = capitan.NewStringKey("old_state")

	// KeyNewState is the new state after a transition.
	KeyNewState = capitan.NewStringKey("new_state")

	// KeyTrigger is the trigger name of a form event.
	KeyTrigger = capitan.NewStringKey("trigger")

	// KeySourceType is the type name of a bound source implementation.
	KeySourceType = capitan.NewStringKey("source_type")
)
