package di

import (
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrConfiguration is the category of every wiring defect that is visible
	// from the descriptors alone: malformed providers, duplicate defaults and
	// dependency type mismatches.
	//
	// Use errors.Is(err, ErrConfiguration) rather than matching concrete types.
	ErrConfiguration = errors.New("di: configuration error")

	// ErrResolution is the category of failures to answer a resolution request:
	// unknown tokens, ambiguous bindings, missing dependencies and cycles.
	ErrResolution = errors.New("di: resolution error")

	// ErrProviderPanic is wrapped by ProviderPanicError when a factory or
	// constructor panics during construction.
	ErrProviderPanic = errors.New("di: panic during construction")
)

// InvalidProviderError is returned when a provider does not carry exactly one
// construction strategy (value, factory or class) or has an unusable token set.
type InvalidProviderError struct {
	// Provider is the descriptor name.
	Provider string

	// Count is the number of construction strategies that were supplied.
	Count int

	// Reason overrides the default message derived from Count.
	Reason string
}

// Error implements the error interface.
func (e InvalidProviderError) Error() string {
	// Example: di: invalid provider "UserService": 2 construction strategies, want exactly one
	reason := e.Reason
	if reason == "" {
		if e.Count == 0 {
			reason = "no construction strategy (value, factory or class)"
		} else {
			reason = strconv.Itoa(e.Count) + " construction strategies, want exactly one"
		}
	}
	return "di: invalid provider " + strconv.Quote(e.Provider) + ": " + reason
}

// Is reports whether target is the configuration category.
func (e InvalidProviderError) Is(target error) bool { return target == ErrConfiguration }

// DefaultConflictError is returned when more than one provider bound to the
// same token is flagged as default.
type DefaultConflictError struct {
	Token     Token
	Providers []string
}

// Error implements the error interface.
func (e DefaultConflictError) Error() string {
	// Example: di: multiple default providers for "IGreeter" ("Greeter", "Greeter2")
	return "di: multiple default providers for " + strconv.Quote(string(e.Token)) + " (" + quoteAll(e.Providers) + ")"
}

// Is reports whether target is the configuration category.
func (e DefaultConflictError) Is(target error) bool { return target == ErrConfiguration }

// TypeMismatchError is returned when a provider bound to a dependency token
// does not declare the type the dependent expects for that argument.
type TypeMismatchError struct {
	// Provider is the dependent descriptor.
	Provider string
	Token    Token

	// Expected is the type the dependent declares for the argument.
	Expected string

	// Candidate is the bound descriptor that failed the check and Found its
	// declared types.
	Candidate string
	Found     []string
}

// Error implements the error interface.
func (e TypeMismatchError) Error() string {
	return "di: type mismatch for " + strconv.Quote(e.Provider) +
		" dependency " + strconv.Quote(string(e.Token)) +
		": expected " + strconv.Quote(e.Expected) +
		", " + strconv.Quote(e.Candidate) + " declares [" + strings.Join(e.Found, ", ") + "]"
}

// Is reports whether target is the configuration category.
func (e TypeMismatchError) Is(target error) bool { return target == ErrConfiguration }

// ArgumentError is returned by Arg and ArgSlice when a positional argument is
// missing or has an unexpected type.
type ArgumentError struct {
	Index int
	Want  string

	// Got is empty when the argument is missing.
	Got string
}

// Error implements the error interface.
func (e ArgumentError) Error() string {
	if e.Got == "" {
		return "di: argument " + strconv.Itoa(e.Index) + " missing (want " + e.Want + ")"
	}
	return "di: argument " + strconv.Itoa(e.Index) + " has type " + e.Got + ", want " + e.Want
}

// Is reports whether target is the configuration category.
func (e ArgumentError) Is(target error) bool { return target == ErrConfiguration }

// UnknownTokenError is returned when no provider is bound to a token.
type UnknownTokenError struct{ Token Token }

// Error implements the error interface.
func (e UnknownTokenError) Error() string {
	// Example: di: no provider for "Greeter"
	return "di: no provider for " + strconv.Quote(string(e.Token))
}

// Is reports whether target is the resolution category.
func (e UnknownTokenError) Is(target error) bool { return target == ErrResolution }

// AmbiguousBindingError is returned for a single-value request against a token
// bound by several providers, none of which is the default.
type AmbiguousBindingError struct {
	Token      Token
	Candidates []string
}

// Error implements the error interface.
func (e AmbiguousBindingError) Error() string {
	return "di: " + strconv.Itoa(len(e.Candidates)) + " providers for " + strconv.Quote(string(e.Token)) +
		" and no default (" + quoteAll(e.Candidates) + ")"
}

// Is reports whether target is the resolution category.
func (e AmbiguousBindingError) Is(target error) bool { return target == ErrResolution }

// DependencyNotFoundError is returned when a provider depends on a token that
// nothing is bound to.
type DependencyNotFoundError struct {
	Provider string
	Token    Token
}

// Error implements the error interface.
func (e DependencyNotFoundError) Error() string {
	return "di: provider " + strconv.Quote(e.Provider) + " depends on " + strconv.Quote(string(e.Token)) + " which has no provider"
}

// Is reports whether target is the resolution category.
func (e DependencyNotFoundError) Is(target error) bool { return target == ErrResolution }

// CyclicDependencyError is returned when resolving a provider re-enters a
// provider already on the active resolution chain.
type CyclicDependencyError struct {
	// Path lists descriptor names from the first repeated provider back to itself.
	Path []string
}

// Error implements the error interface.
func (e CyclicDependencyError) Error() string {
	// Example: di: cyclic dependency: A -> B -> A
	return "di: cyclic dependency: " + strings.Join(e.Path, " -> ")
}

// Is reports whether target is the resolution category.
func (e CyclicDependencyError) Is(target error) bool { return target == ErrResolution }

// WrongTypeError is returned by the typed resolve helpers when the resolved
// instance cannot be asserted to the requested type.
type WrongTypeError struct {
	Token Token
	Want  string
	Got   string
}

// Error implements the error interface.
func (e WrongTypeError) Error() string {
	return "di: " + strconv.Quote(string(e.Token)) + " resolved to " + e.Got + ", want " + e.Want
}

// Is reports whether target is the resolution category.
func (e WrongTypeError) Is(target error) bool { return target == ErrResolution }

// ProviderPanicError is returned when a factory or constructor panics.
// It unwraps to ErrProviderPanic.
type ProviderPanicError struct {
	Provider string
	Value    any
}

// Error implements the error interface.
func (e ProviderPanicError) Error() string {
	return ErrProviderPanic.Error() + " of " + strconv.Quote(e.Provider) + ": " + panicString(e.Value)
}

// Unwrap returns ErrProviderPanic.
func (e ProviderPanicError) Unwrap() error { return ErrProviderPanic }

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = strconv.Quote(n)
	}
	return strings.Join(quoted, ", ")
}

func panicString(v any) string {
	switch x := v.(type) {
	case error:
		return x.Error()
	case string:
		return x
	default:
		return typeName(v)
	}
}
