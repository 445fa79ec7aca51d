package di

import (
	"slices"
	"strconv"
)

// Kind is the construction strategy of a provider.
type Kind int

const (
	// KindInvalid is the zero Kind: no (or more than one) strategy was supplied.
	KindInvalid Kind = iota
	// KindValue providers hand out a fixed value.
	KindValue
	// KindFactory providers call a factory function with resolved dependencies.
	KindFactory
	// KindClass providers call a type's constructor with resolved dependencies.
	KindClass
)

// String returns the human-readable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindFactory:
		return "factory"
	case KindClass:
		return "class"
	default:
		return "invalid"
	}
}

// Dependency is one positional argument of a factory or constructor.
type Dependency struct {
	// Token is resolved to produce the argument. A token carrying MultiSuffix
	// produces a []any holding every provider bound to the base token.
	Token Token

	// Type is the type name the dependent expects for the argument.
	// Empty means the base token itself.
	Type string
}

// Dep declares a dependency whose expected type is the token name.
func Dep(token Token) Dependency { return Dependency{Token: token} }

// DepOf declares a dependency on token expecting type typ.
// Use it for qualified dependencies: DepOf("DbConfig", "Config").
func DepOf(token Token, typ string) Dependency { return Dependency{Token: token, Type: typ} }

// ExpectedType returns the type the dependent expects for this argument.
func (d Dependency) ExpectedType() string {
	if d.Type != "" {
		return d.Type
	}
	return string(d.Token.Base())
}

// Descriptor is the construction-independent part of a provider. The static
// validator and the runtime registry both reason about wiring in terms of it.
type Descriptor struct {
	// Name identifies the provider in diagnostics.
	Name string

	// Tokens is the set of tokens this provider satisfies.
	Tokens []Token

	// Dependencies are positionally mapped to factory/constructor arguments.
	Dependencies []Dependency

	// DeclaredTypes lists the type names the provider produces.
	DeclaredTypes []string

	// Default selects this provider for single-value requests against any of
	// its tokens when several providers share the token.
	Default bool

	// Transient providers build a new instance per resolution.
	Transient bool
}

// Declares reports whether typ is one of the declared types.
func (d Descriptor) Declares(typ string) bool { return slices.Contains(d.DeclaredTypes, typ) }

// Normalize returns a copy with duplicate tokens and declared types removed
// (first occurrence wins) and slices detached from the receiver.
func (d Descriptor) Normalize() Descriptor {
	d.Tokens = dedupe(d.Tokens)
	d.DeclaredTypes = dedupe(d.DeclaredTypes)
	d.Dependencies = slices.Clone(d.Dependencies)
	return d
}

// Validate checks the token set: it must be non-empty and must not contain
// empty or multi-bind tokens.
func (d Descriptor) Validate() error {
	if len(d.Tokens) == 0 {
		return InvalidProviderError{Provider: d.Name, Reason: "no tokens"}
	}
	for _, t := range d.Tokens {
		if t == "" {
			return InvalidProviderError{Provider: d.Name, Reason: "empty token"}
		}
		if t.IsMulti() {
			return InvalidProviderError{Provider: d.Name, Reason: "token " + strconv.Quote(string(t)) + " carries the multi-bind marker"}
		}
	}
	for i, dep := range d.Dependencies {
		if dep.Token.Base() == "" {
			return InvalidProviderError{Provider: d.Name, Reason: "dependency " + strconv.Itoa(i) + " has an empty token"}
		}
	}
	return nil
}

// CheckShape returns an InvalidProviderError unless exactly one construction
// strategy was supplied.
func CheckShape(name string, strategies int) error {
	if strategies != 1 {
		return InvalidProviderError{Provider: name, Count: strategies}
	}
	return nil
}

// ClassTokens derives the tokens and declared types of a class-shaped
// provider: the class name, its contracts, and any qualifiers (tokens only).
func ClassTokens(class string, contracts, qualifiers []string) ([]Token, []string) {
	declared := dedupe(append([]string{class}, contracts...))
	tokens := Tokens(declared...)
	tokens = append(tokens, Tokens(qualifiers...)...)
	return dedupe(tokens), declared
}

// FactoryTokens derives the tokens and declared types of a factory-shaped
// provider: its return type plus any qualifiers.
func FactoryTokens(returnType string, qualifiers []string) ([]Token, []string) {
	tokens := append([]Token{Token(returnType)}, Tokens(qualifiers...)...)
	return dedupe(tokens), []string{returnType}
}

func dedupe[T comparable](in []T) []T {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[T]struct{}, len(in))
	out := make([]T, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
