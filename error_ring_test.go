package ripple

import (
	"errors"
	"testing"
)

func TestErrorRing_NilSafe(t *testing.T) {
	var r *errorRing

	// All operations should be safe on nil
	r.push("a", errors.New("test"))
	r.clear()

	if r.all() != nil {
		t.Error("expected nil from nil ring")
	}
}

func TestErrorRing_ZeroSize(t *testing.T) {
	if r := newErrorRing(0); r != nil {
		t.Error("expected nil ring for size 0")
	}
	if r := newErrorRing(-1); r != nil {
		t.Error("expected nil ring for negative size")
	}
}

func TestErrorRing_TagsFailuresWithField(t *testing.T) {
	r := newErrorRing(3)

	cause := errors.New("boom")
	r.push("volume", cause)

	errs := r.all()
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}

	var handlerErr *HandlerError
	if !errors.As(errs[0], &handlerErr) {
		t.Fatalf("expected HandlerError, got %T", errs[0])
	}
	if handlerErr.Field != "volume" {
		t.Errorf("expected field volume, got %q", handlerErr.Field)
	}
	if !errors.Is(errs[0], cause) {
		t.Error("expected recorded error to unwrap to the cause")
	}
}

func TestErrorRing_OldestFirstAfterWrap(t *testing.T) {
	r := newErrorRing(3)

	for _, field := range []string{"a", "b", "c", "d", "e"} {
		r.push(field, errors.New(field))
	}

	errs := r.all()
	if len(errs) != 3 {
		t.Fatalf("expected 3 errors after wrap, got %d", len(errs))
	}

	want := []string{"c", "d", "e"}
	for i, e := range errs {
		var handlerErr *HandlerError
		if !errors.As(e, &handlerErr) {
			t.Fatalf("expected HandlerError, got %T", e)
		}
		if handlerErr.Field != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], handlerErr.Field)
		}
	}
}

func TestErrorRing_Clear(t *testing.T) {
	r := newErrorRing(3)
	r.push("a", errors.New("a"))
	r.push("b", errors.New("b"))

	r.clear()

	if r.all() != nil {
		t.Errorf("expected empty ring after clear, got %v", r.all())
	}

	r.push("c", errors.New("c"))
	if errs := r.all(); len(errs) != 1 {
		t.Fatalf("expected ring usable after clear, got %d errors", len(errs))
	}
}
