package manifest

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// File is one manifest, or several merged ones.
type File struct {
	// Package is the Go package of the generated registration file.
	Package string `yaml:"package"`

	// Imports are added to the generated file.
	Imports []Import `yaml:"imports,omitempty"`

	Providers []Provider `yaml:"providers"`

	// sources holds the parsed bytes, in merge order, for Sum.
	sources [][]byte
}

// Import is a Go import of the generated file. It may be written as a plain
// path or as {name, path}.
type Import struct {
	Name string `yaml:"name,omitempty"`
	Path string `yaml:"path"`
}

// Provider is one manifest entry.
type Provider struct {
	// Name is the type name for class providers and the diagnostic name for
	// factory and value providers.
	Name string `yaml:"name"`

	// Exactly one of Class, Factory and Value should be set; each holds a Go
	// expression.
	Class   string `yaml:"class,omitempty"`
	Factory string `yaml:"factory,omitempty"`
	Value   string `yaml:"value,omitempty"`

	// Returns is the produced type of a factory or value provider.
	// Defaults to Name.
	Returns string `yaml:"returns,omitempty"`

	Implements []string `yaml:"implements,omitempty"`
	Qualifiers []string `yaml:"qualifiers,omitempty"`
	Deps       []Dep    `yaml:"deps,omitempty"`

	Default      bool `yaml:"default,omitempty"`
	Transient    bool `yaml:"transient,omitempty"`
	ReturnsError bool `yaml:"returnsError,omitempty"`
	Raw          bool `yaml:"raw,omitempty"`

	// Source is the manifest path the entry was loaded from.
	Source string `yaml:"-"`
}

// Dep is a positional dependency. It may be written as a plain token or as
// {token, type}; a plain token expects its own base name as the type.
type Dep struct {
	Token string `yaml:"token"`
	Type  string `yaml:"type,omitempty"`

	// GoType is the Go type the generated code asserts the argument to when
	// it differs from Type, e.g. "*EnglishGreeter".
	GoType string `yaml:"goType,omitempty"`
}

// UnmarshalYAML accepts a scalar path or a mapping.
func (i *Import) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		i.Name = ""
		return node.Decode(&i.Path)
	case yaml.MappingNode:
		type plain Import
		return node.Decode((*plain)(i))
	default:
		return fmt.Errorf("line %d: import: expected path or mapping", node.Line)
	}
}

// UnmarshalYAML accepts a scalar token or a mapping.
func (d *Dep) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		d.Type, d.GoType = "", ""
		return node.Decode(&d.Token)
	case yaml.MappingNode:
		type plain Dep
		return node.Decode((*plain)(d))
	default:
		return fmt.Errorf("line %d: dependency: expected token or mapping", node.Line)
	}
}

// MarshalYAML writes a dependency without an explicit type as a plain token.
func (d Dep) MarshalYAML() (any, error) {
	if d.Type == "" && d.GoType == "" {
		return d.Token, nil
	}
	type plain Dep
	return plain(d), nil
}

// MarshalYAML writes an unnamed import as a plain path.
func (i Import) MarshalYAML() (any, error) {
	if i.Name == "" {
		return i.Path, nil
	}
	type plain Import
	return plain(i), nil
}
