package ripple

import "reflect"

// identical is the default change detector: strict identity, not deep
// equality. Comparable values are compared with ==. Maps, slices, funcs,
// channels, and pointers are compared by reference, so an in-place
// mutation of a referenced collection is invisible here and needs Touch
// to reach handlers. Uncomparable values are always treated as changed.
func identical[V any](a, b V) bool {
	av := reflect.ValueOf(a)
	bv := reflect.ValueOf(b)

	if !av.IsValid() || !bv.IsValid() {
		return av.IsValid() == bv.IsValid()
	}
	if av.Type() != bv.Type() {
		return false
	}

	switch av.Kind() {
	case reflect.Slice:
		return av.Pointer() == bv.Pointer() && av.Len() == bv.Len()
	case reflect.Map, reflect.Func, reflect.Chan, reflect.Pointer, reflect.UnsafePointer:
		return av.Pointer() == bv.Pointer()
	}

	if !av.Type().Comparable() {
		return false
	}
	return av.Interface() == bv.Interface()
}
