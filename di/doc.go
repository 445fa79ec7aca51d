// Package di is the runtime half of keg: a token-based provider registry with
// lazy, cached, recursive resolution.
//
// A Provider binds one or more tokens (its own type name, the contracts it
// implements, and any qualifiers) to exactly one construction strategy:
//
//   - Value:   a fixed instance
//   - Factory: a function called with the resolved dependencies
//   - Class:   a type constructor called with the resolved dependencies
//
// Dependencies are tokens, resolved positionally and handed to the factory or
// constructor as Args. A dependency token ending in "[]" receives every
// provider bound to the base token.
//
// Resolution rules
//
//   - "X[]" returns one instance per provider bound to X, in registration order.
//   - "X" returns the default provider of X if there is one, the only provider
//     otherwise, and fails with AmbiguousBindingError when several providers
//     share X without a default.
//   - Singletons are constructed once per Registry (concurrent first requests
//     share one construction). Transient providers construct per request.
//   - Re-entering a provider on the active resolution chain is a
//     CyclicDependencyError.
//
// The same Index type implements the selection rules for the static validator
// in package graph, so a graph that validates resolves the same way at runtime.
//
// Typical wiring (usually generated by cmd/keg):
//
//	r := di.NewRegistry(di.WithLogger(log))
//	if err := greeter.RegisterProviders(r); err != nil {
//		log.Fatal("wiring", zap.Error(err))
//	}
//	g, err := di.ResolveAs[greeter.Greeter](r, "Greeter")
//
// Import
//
//	"github.com/sghaida/keg/di"
package di
