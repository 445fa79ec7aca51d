// Package keg is a token-based dependency injection toolkit for Go.
//
// Providers are declared once and checked twice with the same rules:
//
//   - cmd/keg validates the provider graph described by manifests before
//     anything runs, then generates the code that registers it
//   - di resolves tokens at runtime, building singletons once and refusing
//     ambiguous, missing or cyclic wiring with typed errors
//
// A token names what is requested. A provider binds one or more tokens and
// builds an instance from a fixed value, a factory or a constructor. When
// several providers bind a token, the one marked default answers a single
// request and "Token[]" returns all of them in registration order.
//
// Packages:
//   - di: descriptors, the shared binding index and the runtime registry
//   - graph: the static validator
//   - manifest: the YAML/JSON provider declarations
//   - emit: the registration code generator
//   - metrics: a Prometheus observer for the registry
//   - cmd/keg: the command line front end
//   - examples/greeter: an end-to-end generated example
package keg
