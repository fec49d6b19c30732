package testutil

import (
	"reflect"
	"unsafe"
)

// DeepEqual is similar to reflect.DeepEqual, but treats nil as equal
// to empty maps and slices at any depth. Values with unexported
// fields, such as *big.Int inside stack items, compare field by
// field, so a zero built by arithmetic equals a literal zero.
func DeepEqual(x, y interface{}) bool {
	c := comparer{seen: make(map[seenPair]bool)}
	return c.equal(reflect.ValueOf(x), reflect.ValueOf(y))
}

type seenPair struct {
	a, b unsafe.Pointer
	typ  reflect.Type
}

type comparer struct {
	seen map[seenPair]bool
}

func (c comparer) equal(x, y reflect.Value) bool {
	if empty(x) && empty(y) {
		return true
	}
	if !x.IsValid() || !y.IsValid() || x.Type() != y.Type() {
		return false
	}
	if c.visited(x, y) {
		return true
	}

	switch x.Kind() {
	case reflect.Bool:
		return x.Bool() == y.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return x.Int() == y.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return x.Uint() == y.Uint()
	case reflect.Float32, reflect.Float64:
		return x.Float() == y.Float()
	case reflect.Complex64, reflect.Complex128:
		return x.Complex() == y.Complex()
	case reflect.String:
		return x.String() == y.String()
	case reflect.Array, reflect.Slice:
		if x.Len() != y.Len() {
			return false
		}
		for i := 0; i < x.Len(); i++ {
			if !c.equal(x.Index(i), y.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Interface, reflect.Ptr:
		if x.IsNil() || y.IsNil() {
			return x.IsNil() == y.IsNil()
		}
		if x.Kind() == reflect.Ptr && x.Pointer() == y.Pointer() {
			return true
		}
		return c.equal(x.Elem(), y.Elem())
	case reflect.Struct:
		for i := 0; i < x.NumField(); i++ {
			if !c.equal(x.Field(i), y.Field(i)) {
				return false
			}
		}
		return true
	case reflect.Map:
		if x.Len() != y.Len() {
			return false
		}
		iter := x.MapRange()
		for iter.Next() {
			yv := y.MapIndex(iter.Key())
			if !yv.IsValid() || !c.equal(iter.Value(), yv) {
				return false
			}
		}
		return true
	case reflect.Func:
		return x.IsNil() && y.IsNil()
	}
	return false
}

// visited records addressable composite pairs so cyclic values
// terminate. A pair already under comparison counts as equal.
func (c comparer) visited(x, y reflect.Value) bool {
	switch x.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.Struct:
	default:
		return false
	}
	if !x.CanAddr() || !y.CanAddr() {
		return false
	}
	a, b := unsafe.Pointer(x.UnsafeAddr()), unsafe.Pointer(y.UnsafeAddr())
	if uintptr(a) > uintptr(b) {
		a, b = b, a
	}
	p := seenPair{a, b, x.Type()}
	if c.seen[p] {
		return true
	}
	c.seen[p] = true
	return false
}

func empty(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Ptr:
		return v.IsNil()
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	}
	return false
}
