package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/sghaida/keg/di"
	"github.com/sghaida/keg/graph"
)

// Node converts the entry into a graph node. Class providers bind their name,
// contracts and qualifiers; factory and value providers bind their produced
// type and qualifiers.
func (p Provider) Node() graph.Node {
	var tokens []di.Token
	var declared []string
	if p.Class != "" {
		tokens, declared = di.ClassTokens(p.Name, p.Implements, p.Qualifiers)
	} else {
		tokens, declared = di.FactoryTokens(p.produces(), p.Qualifiers)
		// a factory may still name the contracts it satisfies
		for _, c := range p.Implements {
			tokens = append(tokens, di.Token(c))
			declared = append(declared, c)
		}
	}

	n := graph.Node{
		Descriptor: di.Descriptor{
			Name:          p.Name,
			Tokens:        tokens,
			DeclaredTypes: declared,
			Default:       p.Default,
			Transient:     p.Transient,
		},
		Value:        p.Value,
		Factory:      p.Factory,
		Class:        p.Class,
		ReturnsError: p.ReturnsError,
		Raw:          p.Raw,
		Source:       p.Source,
	}
	for i, d := range p.Deps {
		n.Dependencies = append(n.Dependencies, di.DepOf(di.Token(d.Token), d.Type))
		if d.GoType != "" {
			if n.ArgTypes == nil {
				n.ArgTypes = make([]string, len(p.Deps))
			}
			n.ArgTypes[i] = d.GoType
		}
	}
	return n
}

func (p Provider) produces() string {
	if p.Returns != "" {
		return p.Returns
	}
	return p.Name
}

// Nodes converts every provider, keeping declaration order.
func (f *File) Nodes() []graph.Node {
	out := make([]graph.Node, len(f.Providers))
	for i, p := range f.Providers {
		out[i] = p.Node()
	}
	return out
}

// Marshal serializes the manifest to YAML.
func (f *File) Marshal() ([]byte, error) {
	return yaml.Marshal(f)
}

// Sum returns the hex SHA-256 of the manifest bytes as parsed, concatenated
// in merge order. A File built in code hashes its YAML form instead. The sum
// is stamped into generated files.
func (f *File) Sum() (string, error) {
	h := sha256.New()
	if f.sources != nil {
		for _, src := range f.sources {
			h.Write(src)
		}
		return hex.EncodeToString(h.Sum(nil)), nil
	}
	data, err := f.Marshal()
	if err != nil {
		return "", fmt.Errorf("failed to marshal manifest: %w", err)
	}
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}
