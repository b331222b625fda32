package ripple

import (
	"context"
	"sync"
)

// FeedSource is a Source its owner pushes payloads into. It is the glue
// for custom triggers and tests: anything that can call Emit becomes a
// change source, with no watcher of its own.
type FeedSource struct {
	ch   chan []byte
	done chan struct{}
	once sync.Once
}

// NewFeedSource creates a FeedSource with the given payload buffer.
// A buffer of 0 makes Emit rendezvous with the binding; a positive
// buffer lets Emit return before the payload is consumed.
func NewFeedSource(buffer int) *FeedSource {
	return &FeedSource{
		ch:   make(chan []byte, buffer),
		done: make(chan struct{}),
	}
}

// Emit publishes one payload, reporting whether it was accepted.
// Emit blocks while the buffer is full and fails once the feed is
// closed; payloads still buffered at close time may go undelivered.
func (s *FeedSource) Emit(payload []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.ch <- payload:
		return true
	case <-s.done:
		return false
	}
}

// Close ends the feed and stops every binding watching it.
// Close is idempotent and safe to call while Emit is blocked.
func (s *FeedSource) Close() {
	s.once.Do(func() {
		close(s.done)
	})
}

// Watch returns a channel that emits pushed payloads until the feed is
// closed or ctx is canceled.
func (s *FeedSource) Watch(ctx context.Context) (<-chan []byte, error) {
	out := make(chan []byte)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.done:
				return
			case payload := <-s.ch:
				select {
				case out <- payload:
				case <-ctx.Done():
					return
				case <-s.done:
					return
				}
			}
		}
	}()
	return out, nil
}
