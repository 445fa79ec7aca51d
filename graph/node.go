package graph

import "github.com/sghaida/keg/di"

// Node is a provider as the validator and the emitter see it: a descriptor
// plus the Go source symbols of its construction strategy.
type Node struct {
	di.Descriptor

	// Value, Factory and Class hold Go expressions; exactly one must be set.
	Value   string
	Factory string
	Class   string

	// ReturnsError marks a factory or constructor returning (T, error).
	ReturnsError bool

	// Raw marks a symbol that already has the di.FactoryFunc shape and is
	// registered without an adapter.
	Raw bool

	// ArgTypes overrides, per dependency, the Go type the generated adapter
	// asserts the argument to. An empty entry means the expected type.
	ArgTypes []string

	// Source is the manifest the node was loaded from, if any.
	Source string
}

// Kind returns the construction strategy of the node, or an
// InvalidProviderError unless exactly one symbol is set.
func (n *Node) Kind() (di.Kind, error) {
	count, kind := 0, di.KindInvalid
	if n.Value != "" {
		count, kind = count+1, di.KindValue
	}
	if n.Factory != "" {
		count, kind = count+1, di.KindFactory
	}
	if n.Class != "" {
		count, kind = count+1, di.KindClass
	}
	if err := di.CheckShape(n.Name, count); err != nil {
		return di.KindInvalid, err
	}
	return kind, nil
}

// Symbol returns the Go expression of the construction strategy.
func (n *Node) Symbol() string {
	switch {
	case n.Value != "":
		return n.Value
	case n.Factory != "":
		return n.Factory
	default:
		return n.Class
	}
}

// ArgType returns the Go type of argument i.
func (n *Node) ArgType(i int) string {
	if i < len(n.ArgTypes) && n.ArgTypes[i] != "" {
		return n.ArgTypes[i]
	}
	return n.Dependencies[i].ExpectedType()
}

func nodeName(n *Node) string { return n.Name }
