// Package ripple provides a micro-reactive keyed state store with
// coalesced change notification.
//
// The core type is Store, which holds a committed key/value state and a
// registry of per-key handlers. Mutations staged through Apply are diffed
// against committed state, accumulated in a pending buffer, and delivered
// to handlers in a single deferred flush.
//
// Any number of Apply or Touch calls made within one coalescing window
// collapse into one flush. Each staging call re-arms the window, so the
// flush fires one full window after the last mutation, carrying only the
// net change per key. Each handler runs at most once per flush.
//
// # Store
//
// Handlers receive the previous and current value for their key:
//
//	store, err := ripple.New(map[string]ripple.Handler[int]{
//	    "volume": func(ctx context.Context, prev, curr int) error {
//	        log.Printf("volume %d -> %d", prev, curr)
//	        return nil
//	    },
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store.Apply(ctx, map[string]int{"volume": 3})
//	store.Apply(ctx, map[string]int{"volume": 7})
//	// one flush, handler sees 0 -> 7
//
// Set merges values without diffing or notification, for imperative
// initialization. Touch force-stages a key's current value so its handler
// fires with prev == curr, which is how in-place mutations invisible to
// the equality check are pushed to handlers.
//
// # Sources
//
// The Source interface abstracts external change triggers. Each firing
// emits a payload; Bind decodes payloads into partial state with the
// store codec (JSON by default, YAML available) and applies them.
// BindFunc derives the partial from the payload and a committed-state
// snapshot, and BindStatic applies a fixed partial on every firing.
//
// The core package provides FeedSource for push-style custom triggers
// and tests, and FileSource for fsnotify-backed file watching. Encode
// serializes a committed snapshot with the same codec, so one store's
// state can feed another's binding.
//
// # Forms
//
// Form is the non-batching counterpart to Store: it keeps a plain
// map[string]any in sync with form-field events synchronously, one
// mutation per qualifying event, with optional validator tag rules per
// field. See NewForm.
//
// # Pipeline
//
// Handler notification during flush runs through a pipz pipeline.
// Options add middleware around it:
//
//	store, err := ripple.New(handlers,
//	    ripple.WithRetry[string](3),
//	    ripple.WithTimeout[string](time.Second),
//	)
//
// # Testing
//
// Use SyncMode plus Flush for deterministic flush tests, or Clock with
// clockz.FakeClock to drive the coalescing window by hand.
package ripple
