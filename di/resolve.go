package di

// ResolveAs resolves token and asserts the instance to T.
//
// It returns a WrongTypeError if the instance is not a T. For a multi-bind
// token use ResolveAllAs, or ResolveAs[[]any].
func ResolveAs[T any](r *Registry, token Token) (T, error) {
	var zero T
	raw, err := r.Resolve(token)
	if err != nil {
		return zero, err
	}
	v, ok := raw.(T)
	if !ok {
		return zero, WrongTypeError{Token: token, Want: typeFor[T](), Got: typeName(raw)}
	}
	return v, nil
}

// ResolveAllAs resolves every provider bound to token and asserts each
// instance to T, keeping registration order.
func ResolveAllAs[T any](r *Registry, token Token) ([]T, error) {
	raw, err := r.ResolveAll(token)
	if err != nil {
		return nil, err
	}
	out := make([]T, len(raw))
	for i, item := range raw {
		v, ok := item.(T)
		if !ok {
			return nil, WrongTypeError{Token: token.Multi(), Want: typeFor[T](), Got: typeName(item)}
		}
		out[i] = v
	}
	return out, nil
}

// MustResolveAs is like ResolveAs but panics on error.
// Useful in main, where a broken wiring should stop the process.
func MustResolveAs[T any](r *Registry, token Token) T {
	v, err := ResolveAs[T](r, token)
	if err != nil {
		panic(err)
	}
	return v
}
