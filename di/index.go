package di

import (
	"slices"
	"sort"
)

// Index maps tokens to the providers bound to them, in insertion order, and
// implements the selection rules shared by the static validator and the
// runtime registry.
//
// Index is not safe for concurrent use; Registry guards it with a lock.
type Index[P any] struct {
	name     func(P) string
	bindings map[Token]*binding[P]
}

type binding[P any] struct {
	entries  []P
	defaults []P
}

// NewIndex creates an empty index. name returns the diagnostic name of an entry.
func NewIndex[P any](name func(P) string) *Index[P] {
	return &Index[P]{name: name, bindings: make(map[Token]*binding[P])}
}

// Add binds p to every token. If isDefault is set and any of the tokens
// already has a default, nothing is bound and a DefaultConflictError is returned.
func (x *Index[P]) Add(p P, tokens []Token, isDefault bool) error {
	if isDefault {
		for _, t := range tokens {
			if b, ok := x.bindings[t]; ok && len(b.defaults) > 0 {
				return DefaultConflictError{Token: t, Providers: []string{x.name(b.defaults[0]), x.name(p)}}
			}
		}
	}
	x.Append(p, tokens, isDefault)
	return nil
}

// Append binds p to every token without checking for default conflicts.
// The validator uses it to see every conflict at once.
func (x *Index[P]) Append(p P, tokens []Token, isDefault bool) {
	for _, t := range tokens {
		b, ok := x.bindings[t]
		if !ok {
			b = &binding[P]{}
			x.bindings[t] = b
		}
		b.entries = append(b.entries, p)
		if isDefault {
			b.defaults = append(b.defaults, p)
		}
	}
}

// Select returns the providers that answer a request for token.
//
// A multi-bind token yields every provider bound to its base token. A single
// token yields its default if one is set, or its only provider; several
// providers without a default are ambiguous.
func (x *Index[P]) Select(token Token) ([]P, error) {
	base := token.Base()
	b, ok := x.bindings[base]
	if !ok || len(b.entries) == 0 {
		return nil, UnknownTokenError{Token: base}
	}
	if token.IsMulti() {
		return slices.Clone(b.entries), nil
	}
	switch {
	case len(b.defaults) == 1:
		return []P{b.defaults[0]}, nil
	case len(b.defaults) > 1:
		return nil, DefaultConflictError{Token: base, Providers: x.names(b.defaults)}
	case len(b.entries) == 1:
		return []P{b.entries[0]}, nil
	default:
		return nil, AmbiguousBindingError{Token: base, Candidates: x.names(b.entries)}
	}
}

// Entries returns every provider bound to the base of token.
func (x *Index[P]) Entries(token Token) []P {
	if b, ok := x.bindings[token.Base()]; ok {
		return slices.Clone(b.entries)
	}
	return nil
}

// Defaults returns the providers flagged default for the base of token.
func (x *Index[P]) Defaults(token Token) []P {
	if b, ok := x.bindings[token.Base()]; ok {
		return slices.Clone(b.defaults)
	}
	return nil
}

// Has reports whether anything is bound to the base of token.
func (x *Index[P]) Has(token Token) bool {
	b, ok := x.bindings[token.Base()]
	return ok && len(b.entries) > 0
}

// Tokens returns every bound token, sorted.
func (x *Index[P]) Tokens() []Token {
	out := make([]Token, 0, len(x.bindings))
	for t := range x.bindings {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len returns the number of bound tokens.
func (x *Index[P]) Len() int { return len(x.bindings) }

// Reset drops every binding.
func (x *Index[P]) Reset() { x.bindings = make(map[Token]*binding[P]) }

func (x *Index[P]) names(ps []P) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = x.name(p)
	}
	return out
}
