package ripple

import (
	"context"
	"fmt"

	"github.com/zoobzio/capitan"
)

// TransformFunc derives a partial state from a source payload. It also
// receives a snapshot of the committed state at event time, so the
// partial can depend on what is already there.
type TransformFunc[V any] func(ctx context.Context, payload []byte, current map[string]V) (map[string]V, error)

// Bind consumes a source, decoding each payload into a partial state
// with the store codec and staging it through Apply. Payloads that fail
// to decode are reported and dropped; the binding keeps consuming.
//
// The binding lives until ctx is canceled or the source channel closes;
// it is not separately destroyable.
func (s *Store[V]) Bind(ctx context.Context, src Source) error {
	return s.BindFunc(ctx, src, func(_ context.Context, payload []byte, _ map[string]V) (map[string]V, error) {
		partial := make(map[string]V)
		if err := s.codec.Unmarshal(payload, &partial); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		return partial, nil
	})
}

// BindStatic consumes a source, staging the same partial state on every
// firing. The partial is not re-evaluated between firings.
func (s *Store[V]) BindStatic(ctx context.Context, src Source, partial map[string]V) error {
	return s.BindFunc(ctx, src, func(context.Context, []byte, map[string]V) (map[string]V, error) {
		return partial, nil
	})
}

// BindFunc consumes a source, deriving a partial state from each payload
// with fn and staging it through Apply. A transform error is reported
// and the event dropped; the binding keeps consuming.
func (s *Store[V]) BindFunc(ctx context.Context, src Source, fn TransformFunc[V]) error {
	payloads, err := src.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to start source: %w", err)
	}

	capitan.Emit(ctx, SourceBound,
		KeySourceType.Field(fmt.Sprintf("%T", src)),
	)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case payload, ok := <-payloads:
				if !ok {
					return
				}
				partial, err := fn(ctx, payload, s.Current())
				if err != nil {
					capitan.Emit(ctx, SourceDecodeFailed,
						KeyError.Field(err.Error()),
					)
					continue
				}
				s.Apply(ctx, partial)
			}
		}
	}()

	return nil
}
