// Package graph is the build-time half of keg: it proves a set of provider
// descriptors is wired consistently before any registration code is emitted.
//
// Validate runs six passes in order:
//
//  1. shape: exactly one of value, factory or class, and a usable token set
//  2. default uniqueness: at most one default per token
//  3. ambiguity: a token bound more than once needs a default
//  4. dependency existence: every dependency token is bound
//  5. type compatibility: every provider bound to a dependency token declares
//     the type the dependent expects
//  6. cycles: the dependency relation is acyclic
//
// All violations are collected and returned together in an *Error unless
// WithFailFast is given. Token selection goes through di.Index, the same
// index the runtime Registry uses, so a graph that validates resolves the
// same way at runtime.
package graph
