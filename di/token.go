package di

import "strings"

// MultiSuffix marks a multi-bind request: "Greeter[]" asks for every provider
// bound to "Greeter" instead of a single one.
const MultiSuffix = "[]"

// Token identifies a dependency a consumer can request.
//
// Tokens are opaque strings. By convention they are type names, contract
// (interface) names, or explicit qualifier names.
type Token string

// IsMulti reports whether the token carries the multi-bind marker.
func (t Token) IsMulti() bool { return strings.HasSuffix(string(t), MultiSuffix) }

// Base strips the multi-bind marker, if present.
func (t Token) Base() Token { return Token(strings.TrimSuffix(string(t), MultiSuffix)) }

// Multi returns the multi-bind form of the token.
func (t Token) Multi() Token {
	if t.IsMulti() {
		return t
	}
	return t + MultiSuffix
}

// String implements fmt.Stringer.
func (t Token) String() string { return string(t) }

// Tokens converts names to tokens.
func Tokens(names ...string) []Token {
	out := make([]Token, len(names))
	for i, n := range names {
		out[i] = Token(n)
	}
	return out
}
