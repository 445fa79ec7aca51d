package graph

import (
	"slices"

	"go.uber.org/zap"

	"github.com/sghaida/keg/di"
)

// Option configures Validate.
type Option func(*options)

type options struct {
	failFast       bool
	allowAmbiguous bool
	log            *zap.Logger
}

// WithFailFast stops validation at the first violation.
func WithFailFast() Option {
	return func(o *options) { o.failFast = true }
}

// WithAllowAmbiguous downgrades ambiguous tokens to warnings as long as no
// dependency requests them as a single value. Ambiguous tokens named by a
// single-value dependency are still violations.
func WithAllowAmbiguous() Option {
	return func(o *options) { o.allowAmbiguous = true }
}

// WithLogger sets the logger used for pass summaries and warnings.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// Graph is a validated descriptor set.
type Graph struct {
	nodes    []*Node
	index    *di.Index[*Node]
	warnings []Violation
}

// Nodes returns the validated nodes in input order, which is also the order
// they must be registered in.
func (g *Graph) Nodes() []*Node { return slices.Clone(g.nodes) }

// Warnings returns the violations that WithAllowAmbiguous downgraded.
func (g *Graph) Warnings() []Violation { return slices.Clone(g.warnings) }

// Tokens returns every bound token, sorted.
func (g *Graph) Tokens() []di.Token { return g.index.Tokens() }

// Select returns the nodes that answer a request for token, using the same
// rules as di.Registry.
func (g *Graph) Select(token di.Token) ([]*Node, error) { return g.index.Select(token) }

// Validate checks nodes and returns the validated graph, or an *Error holding
// every violation found. No graph is returned on failure.
func Validate(nodes []Node, opts ...Option) (*Graph, error) {
	o := options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	v := &validator{
		opts:  o,
		index: di.NewIndex(nodeName),
	}
	passes := []struct {
		name string
		run  func()
	}{
		{"shape", func() { v.checkShape(nodes) }},
		{"defaults", v.checkDefaults},
		{"ambiguity", v.checkAmbiguity},
		{"dependencies", v.checkDependencies},
		{"types", v.checkTypes},
		{"cycles", v.checkCycles},
	}
	for _, p := range passes {
		before := len(v.violations)
		p.run()
		o.log.Debug("validation pass",
			zap.String("pass", p.name),
			zap.Int("violations", len(v.violations)-before),
		)
		if v.stopped() {
			break
		}
	}

	for _, w := range v.warnings {
		o.log.Warn("ambiguous token allowed", zap.String("token", string(w.Token)), zap.Strings("providers", w.Nodes))
	}
	if len(v.violations) > 0 {
		return nil, &Error{Violations: v.violations}
	}
	o.log.Debug("validated provider graph",
		zap.Int("providers", len(v.nodes)),
		zap.Int("tokens", v.index.Len()),
	)
	return &Graph{nodes: v.nodes, index: v.index, warnings: v.warnings}, nil
}

type validator struct {
	opts       options
	nodes      []*Node
	index      *di.Index[*Node]
	violations []Violation
	warnings   []Violation
}

func (v *validator) stopped() bool { return v.opts.failFast && len(v.violations) > 0 }

func (v *validator) report(code Code, token di.Token, err error, nodes ...*Node) {
	if v.stopped() {
		return
	}
	viol := Violation{Code: code, Token: token, Err: err}
	for _, n := range nodes {
		viol.Nodes = append(viol.Nodes, n.Name)
		if viol.Source == "" {
			viol.Source = n.Source
		}
	}
	v.violations = append(v.violations, viol)
}

// checkShape normalises every node and indexes the well-formed ones. Nodes
// failing the shape check take no part in later passes.
func (v *validator) checkShape(nodes []Node) {
	for i := range nodes {
		n := nodes[i]
		n.Descriptor = n.Descriptor.Normalize()
		_, err := n.Kind()
		if err == nil {
			err = n.Descriptor.Validate()
		}
		if err != nil {
			v.report(CodeInvalidProvider, "", err, &n)
			continue
		}
		v.nodes = append(v.nodes, &n)
		v.index.Append(&n, n.Tokens, n.Default)
	}
}

func (v *validator) checkDefaults() {
	for _, tok := range v.index.Tokens() {
		defaults := v.index.Defaults(tok)
		if len(defaults) < 2 {
			continue
		}
		names := make([]string, len(defaults))
		for i, d := range defaults {
			names[i] = d.Name
		}
		v.report(CodeDefaultConflict, tok, di.DefaultConflictError{Token: tok, Providers: names}, defaults...)
	}
}

func (v *validator) checkAmbiguity() {
	single := make(map[di.Token]bool)
	for _, n := range v.nodes {
		for _, dep := range n.Dependencies {
			if !dep.Token.IsMulti() {
				single[dep.Token] = true
			}
		}
	}

	for _, tok := range v.index.Tokens() {
		entries := v.index.Entries(tok)
		if len(entries) < 2 || len(v.index.Defaults(tok)) > 0 {
			continue
		}
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name
		}
		err := di.AmbiguousBindingError{Token: tok, Candidates: names}
		if v.opts.allowAmbiguous && !single[tok] {
			v.warnings = append(v.warnings, Violation{Code: CodeAmbiguousBinding, Token: tok, Nodes: names, Source: entries[0].Source, Err: err})
			continue
		}
		v.report(CodeAmbiguousBinding, tok, err, entries...)
	}
}

func (v *validator) checkDependencies() {
	for _, n := range v.nodes {
		for _, dep := range n.Dependencies {
			if v.index.Has(dep.Token) {
				continue
			}
			v.report(CodeDependencyNotFound, dep.Token.Base(), di.DependencyNotFoundError{Provider: n.Name, Token: dep.Token}, n)
		}
	}
}

// checkTypes requires every provider bound to a dependency token to declare
// the expected type, since a later default may change which one wins.
func (v *validator) checkTypes() {
	for _, n := range v.nodes {
		for _, dep := range n.Dependencies {
			want := dep.ExpectedType()
			for _, cand := range v.index.Entries(dep.Token) {
				if cand.Declares(want) {
					continue
				}
				v.report(CodeTypeMismatch, dep.Token.Base(), di.TypeMismatchError{
					Provider:  n.Name,
					Token:     dep.Token,
					Expected:  want,
					Candidate: cand.Name,
					Found:     slices.Clone(cand.DeclaredTypes),
				}, n, cand)
			}
		}
	}
}

// edges returns the nodes a dependency of n would construct at runtime. Value
// nodes construct nothing. A selection error was reported by an earlier pass;
// its edge falls back to every bound node so cycles through it are still found.
func (v *validator) edges(n *Node) []*Node {
	if n.Value != "" {
		return nil
	}
	var out []*Node
	for _, dep := range n.Dependencies {
		sel, err := v.index.Select(dep.Token)
		if err != nil {
			sel = v.index.Entries(dep.Token)
		}
		out = append(out, sel...)
	}
	return out
}

func (v *validator) checkCycles() {
	const (
		white = iota
		grey
		black
	)
	color := make(map[*Node]int, len(v.nodes))
	var stack []*Node

	var visit func(n *Node)
	visit = func(n *Node) {
		color[n] = grey
		stack = append(stack, n)
		for _, next := range v.edges(n) {
			switch color[next] {
			case white:
				visit(next)
			case grey:
				start := slices.Index(stack, next)
				cycle := stack[start:]
				path := make([]string, 0, len(cycle)+1)
				for _, c := range cycle {
					path = append(path, c.Name)
				}
				path = append(path, next.Name)
				v.report(CodeCyclicDependency, "", di.CyclicDependencyError{Path: path}, cycle...)
			}
			if v.stopped() {
				break
			}
		}
		stack = stack[:len(stack)-1]
		color[n] = black
	}

	for _, n := range v.nodes {
		if color[n] == white {
			visit(n)
		}
		if v.stopped() {
			return
		}
	}
}
