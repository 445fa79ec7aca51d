package emit

import (
	"bytes"
	"errors"
	"fmt"
	"go/token"
	"strconv"
	"strings"
	"text/template"

	"golang.org/x/tools/imports"

	"github.com/sghaida/keg/di"
	"github.com/sghaida/keg/graph"
	"github.com/sghaida/keg/manifest"
)

// RuntimeImport is the import path of the di runtime used by generated code.
const RuntimeImport = "github.com/sghaida/keg/di"

// Options controls Render.
type Options struct {
	// Package is the package clause of the generated file. Required.
	Package string

	// Imports are added next to the di runtime import.
	Imports []manifest.Import

	// Runtime overrides RuntimeImport.
	Runtime string

	// Source and Sum are stamped into the header.
	Source string
	Sum    string
}

// ErrNoPackage is returned when Options.Package is empty.
var ErrNoPackage = errors.New("emit: no package name")

type fileData struct {
	Package   string
	Source    string
	Sum       string
	Imports   []manifest.Import
	Providers []providerData
}

type providerData struct {
	Name          string
	Tokens        string
	Dependencies  []depData
	DeclaredTypes string
	Default       bool
	Transient     bool

	// Field is Value, Factory or Class.
	Field string
	Expr  string
	Raw   bool

	Args         []argData
	ReturnsError bool
}

type depData struct {
	Token string
	Type  string
}

type argData struct {
	Var   string
	Fn    string
	Type  string
	Index int
}

// Render turns a validated graph into a Go source file exposing Providers,
// RegisterProviders and MustRegisterProviders. Providers are emitted in graph
// order, which fixes the order of multi-bind results.
func Render(g *graph.Graph, opts Options) ([]byte, error) {
	if opts.Package == "" {
		return nil, ErrNoPackage
	}
	if !token.IsIdentifier(opts.Package) {
		return nil, fmt.Errorf("emit: package %q is not a valid Go identifier", opts.Package)
	}
	runtime := opts.Runtime
	if runtime == "" {
		runtime = RuntimeImport
	}

	data := fileData{
		Package: opts.Package,
		Source:  opts.Source,
		Sum:     opts.Sum,
		Imports: append([]manifest.Import{{Name: "di", Path: runtime}}, opts.Imports...),
	}
	for _, n := range g.Nodes() {
		p, err := providerFor(n)
		if err != nil {
			return nil, err
		}
		data.Providers = append(data.Providers, p)
	}

	var buf bytes.Buffer
	if err := fileTpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("emit: execute template: %w", err)
	}
	// Manifest imports no provider refers to are dropped; missing ones are
	// added when goimports can find them.
	src, err := imports.Process("container.gen.go", buf.Bytes(), &imports.Options{
		Comments:  true,
		TabIndent: true,
		TabWidth:  8,
	})
	if err != nil {
		return nil, fmt.Errorf("emit: format generated source: %w", err)
	}
	return src, nil
}

func providerFor(n *graph.Node) (providerData, error) {
	kind, err := n.Kind()
	if err != nil {
		return providerData{}, err
	}
	p := providerData{
		Name:          strconv.Quote(n.Name),
		Tokens:        quoteTokens(n.Tokens),
		DeclaredTypes: quoteStrings(n.DeclaredTypes),
		Default:       n.Default,
		Transient:     n.Transient,
		Expr:          n.Symbol(),
		Raw:           n.Raw,
		ReturnsError:  n.ReturnsError,
	}
	for _, d := range n.Dependencies {
		dep := depData{Token: strconv.Quote(string(d.Token))}
		if d.Type != "" {
			dep.Type = strconv.Quote(d.Type)
		}
		p.Dependencies = append(p.Dependencies, dep)
	}

	switch kind {
	case di.KindValue:
		p.Field = "Value"
		return p, nil
	case di.KindFactory:
		p.Field = "Factory"
	default:
		p.Field = "Class"
	}
	for i, d := range n.Dependencies {
		a := argData{Var: "a" + strconv.Itoa(i), Fn: "Arg", Type: n.ArgType(i), Index: i}
		if d.Token.IsMulti() {
			a.Fn = "ArgSlice"
		}
		p.Args = append(p.Args, a)
	}
	return p, nil
}

func quoteTokens(ts []di.Token) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = strconv.Quote(string(t))
	}
	return strings.Join(parts, ", ")
}

func quoteStrings(ss []string) string {
	parts := make([]string, len(ss))
	for i, s := range ss {
		parts[i] = strconv.Quote(s)
	}
	return strings.Join(parts, ", ")
}

var fileTpl = template.Must(template.New("container").Parse(`// Code generated by keg; DO NOT EDIT.
{{- if .Source }}
// Source: {{ .Source }}
{{- end }}
{{- if .Sum }}
// Manifest-SHA256: {{ .Sum }}
{{- end }}

package {{ .Package }}

import (
{{- range .Imports }}
	{{- if .Name }}
	{{ .Name }} "{{ .Path }}"
	{{- else }}
	"{{ .Path }}"
	{{- end }}
{{- end }}
)

// Providers returns the declared providers in declaration order.
func Providers() []*di.Provider {
	return []*di.Provider{
{{- range .Providers }}
		{
			Descriptor: di.Descriptor{
				Name:   {{ .Name }},
				Tokens: []di.Token{ {{- .Tokens -}} },
				{{- if .Dependencies }}
				Dependencies: []di.Dependency{
				{{- range .Dependencies }}
					{Token: {{ .Token }}{{ if .Type }}, Type: {{ .Type }}{{ end }}},
				{{- end }}
				},
				{{- end }}
				DeclaredTypes: []string{ {{- .DeclaredTypes -}} },
				{{- if .Default }}
				Default: true,
				{{- end }}
				{{- if .Transient }}
				Transient: true,
				{{- end }}
			},
			{{- if eq .Field "Value" }}
			Value: {{ .Expr }},
			{{- else if .Raw }}
			{{ .Field }}: {{ .Expr }},
			{{- else }}
			{{ .Field }}: func(args di.Args) (any, error) {
				{{- range .Args }}
				{{ .Var }}, err := di.{{ .Fn }}[{{ .Type }}](args, {{ .Index }})
				if err != nil {
					return nil, err
				}
				{{- end }}
				{{- if .ReturnsError }}
				return {{ .Expr }}({{ range $i, $a := .Args }}{{ if $i }}, {{ end }}{{ $a.Var }}{{ end }})
				{{- else }}
				return {{ .Expr }}({{ range $i, $a := .Args }}{{ if $i }}, {{ end }}{{ $a.Var }}{{ end }}), nil
				{{- end }}
			},
			{{- end }}
		},
{{- end }}
	}
}

// RegisterProviders registers every declared provider with r.
func RegisterProviders(r *di.Registry) error {
	return r.RegisterAll(Providers()...)
}

// MustRegisterProviders is like RegisterProviders but panics on error.
func MustRegisterProviders(r *di.Registry) {
	if err := RegisterProviders(r); err != nil {
		panic(err)
	}
}
`))
