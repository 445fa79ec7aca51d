package di

import (
	"reflect"
	"strconv"
)

// Args holds the resolved dependencies of a provider in declaration order.
type Args []any

// Len returns the number of arguments.
func (a Args) Len() int { return len(a) }

// Arg returns argument i asserted to T.
func Arg[T any](args Args, i int) (T, error) {
	var zero T
	if i < 0 || i >= len(args) {
		return zero, ArgumentError{Index: i, Want: typeFor[T]()}
	}
	if args[i] == nil {
		// providers may legitimately produce nil for nillable types
		if nillable(reflect.TypeOf((*T)(nil)).Elem()) {
			return zero, nil
		}
		return zero, ArgumentError{Index: i, Want: typeFor[T](), Got: "<nil>"}
	}
	v, ok := args[i].(T)
	if !ok {
		return zero, ArgumentError{Index: i, Want: typeFor[T](), Got: typeName(args[i])}
	}
	return v, nil
}

// MustArg is like Arg but panics on error.
func MustArg[T any](args Args, i int) T {
	v, err := Arg[T](args, i)
	if err != nil {
		panic(err)
	}
	return v
}

// ArgSlice converts a multi-bind argument ([]any) to []T.
func ArgSlice[T any](args Args, i int) ([]T, error) {
	raw, err := Arg[[]any](args, i)
	if err != nil {
		return nil, err
	}
	out := make([]T, len(raw))
	for j, item := range raw {
		if item == nil && nillable(reflect.TypeOf((*T)(nil)).Elem()) {
			continue
		}
		v, ok := item.(T)
		if !ok {
			return nil, ArgumentError{Index: i, Want: "[]" + typeFor[T](), Got: typeName(item) + " at element " + strconv.Itoa(j)}
		}
		out[j] = v
	}
	return out, nil
}

func typeFor[T any]() string { return reflect.TypeOf((*T)(nil)).Elem().String() }

func typeName(v any) string {
	if v == nil {
		return "<nil>"
	}
	return reflect.TypeOf(v).String()
}

func nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	default:
		return false
	}
}
