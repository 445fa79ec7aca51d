// Package emit renders a validated graph into Go source that registers every
// provider with a *di.Registry, and writes it to disk.
//
// The generated file declares:
//
//	func Providers() []*di.Provider
//	func RegisterProviders(r *di.Registry) error
//	func MustRegisterProviders(r *di.Registry)
//
// Factory and class symbols are plain Go functions taking their dependencies
// positionally; emit generates a di.FactoryFunc adapter per provider that
// unpacks di.Args with di.Arg and di.ArgSlice. The header carries the SHA-256
// of the manifest so stale files are easy to spot.
package emit
