package graph_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sghaida/keg/di"
	"github.com/sghaida/keg/graph"
)

func class(name string, contracts ...string) graph.Node {
	tokens, declared := di.ClassTokens(name, contracts, nil)
	return graph.Node{
		Descriptor: di.Descriptor{Name: name, Tokens: tokens, DeclaredTypes: declared},
		Class:      "New" + name,
	}
}

func factory(name, returns string, qualifiers ...string) graph.Node {
	tokens, declared := di.FactoryTokens(returns, qualifiers)
	return graph.Node{
		Descriptor: di.Descriptor{Name: name, Tokens: tokens, DeclaredTypes: declared},
		Factory:    name,
	}
}

func deps(n graph.Node, ds ...di.Dependency) graph.Node {
	n.Dependencies = append(n.Dependencies, ds...)
	return n
}

func asDefault(n graph.Node) graph.Node {
	n.Default = true
	return n
}

func validationError(t *testing.T, err error) *graph.Error {
	t.Helper()
	require.Error(t, err)
	var gerr *graph.Error
	require.True(t, errors.As(err, &gerr))
	return gerr
}

//
// -----------------------------------------------------------------------------
// Success
// -----------------------------------------------------------------------------

// TestValidate_GreeterGraph covers the contract example: a default and a
// secondary greeter plus a qualified config factory.
func TestValidate_GreeterGraph(t *testing.T) {
	t.Parallel()

	nodes := []graph.Node{
		factory("provideConfig", "Config", "DbConfig"),
		deps(asDefault(class("Greeter", "IGreeter")), di.DepOf("DbConfig", "Config")),
		class("Greeter2", "IGreeter"),
		deps(class("Lobby"), di.Dep("IGreeter"), di.Dep("IGreeter[]")),
	}

	g, err := graph.Validate(nodes)
	require.NoError(t, err)
	require.NotNil(t, g)

	names := []string{}
	for _, n := range g.Nodes() {
		names = append(names, n.Name)
	}
	assert.Equal(t, []string{"provideConfig", "Greeter", "Greeter2", "Lobby"}, names)
	assert.Empty(t, g.Warnings())

	sel, err := g.Select("IGreeter")
	require.NoError(t, err)
	assert.Equal(t, "Greeter", sel[0].Name)

	sel, err = g.Select("IGreeter[]")
	require.NoError(t, err)
	assert.Len(t, sel, 2)

	sel, err = g.Select("Greeter2")
	require.NoError(t, err)
	assert.Equal(t, "Greeter2", sel[0].Name)

	assert.Contains(t, g.Tokens(), di.Token("DbConfig"))
}

// TestValidate_InputNotMutated verifies normalisation happens on copies.
func TestValidate_InputNotMutated(t *testing.T) {
	t.Parallel()

	n := class("A")
	n.Tokens = append(n.Tokens, "A")
	nodes := []graph.Node{n}

	g, err := graph.Validate(nodes)
	require.NoError(t, err)
	assert.Equal(t, di.Tokens("A"), g.Nodes()[0].Tokens)
	assert.Equal(t, di.Tokens("A", "A"), nodes[0].Tokens)
}

//
// -----------------------------------------------------------------------------
// Passes
// -----------------------------------------------------------------------------

func TestValidate_Violations(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		nodes     []graph.Node
		wantCodes []graph.Code
		wantMsg   string
		category  error
	}{
		{
			name: "no strategy",
			nodes: []graph.Node{
				{Descriptor: di.Descriptor{Name: "X", Tokens: di.Tokens("X")}},
			},
			wantCodes: []graph.Code{graph.CodeInvalidProvider},
			wantMsg:   `di: invalid provider "X": no construction strategy (value, factory or class)`,
			category:  di.ErrConfiguration,
		},
		{
			name: "two strategies",
			nodes: []graph.Node{
				{Descriptor: di.Descriptor{Name: "X", Tokens: di.Tokens("X")}, Value: "x", Class: "NewX"},
			},
			wantCodes: []graph.Code{graph.CodeInvalidProvider},
			wantMsg:   `di: invalid provider "X": 2 construction strategies, want exactly one`,
			category:  di.ErrConfiguration,
		},
		{
			name: "default conflict",
			nodes: []graph.Node{
				asDefault(class("Greeter", "IGreeter")),
				asDefault(class("Greeter2", "IGreeter")),
			},
			wantCodes: []graph.Code{graph.CodeDefaultConflict},
			wantMsg:   `di: multiple default providers for "IGreeter" ("Greeter", "Greeter2")`,
			category:  di.ErrConfiguration,
		},
		{
			name: "ambiguous without dependents",
			nodes: []graph.Node{
				class("Greeter", "IGreeter"),
				class("Greeter2", "IGreeter"),
			},
			wantCodes: []graph.Code{graph.CodeAmbiguousBinding},
			wantMsg:   `di: 2 providers for "IGreeter" and no default ("Greeter", "Greeter2")`,
			category:  di.ErrResolution,
		},
		{
			name: "dependency not found",
			nodes: []graph.Node{
				deps(class("Service"), di.Dep("Repo")),
			},
			wantCodes: []graph.Code{graph.CodeDependencyNotFound},
			wantMsg:   `di: provider "Service" depends on "Repo" which has no provider`,
			category:  di.ErrResolution,
		},
		{
			name: "multi-bind dependency not found",
			nodes: []graph.Node{
				deps(class("Service"), di.Dep("Plugin[]")),
			},
			wantCodes: []graph.Code{graph.CodeDependencyNotFound},
			category:  di.ErrResolution,
		},
		{
			name: "type mismatch on qualifier",
			nodes: []graph.Node{
				factory("provideConfig", "Config", "DbConfig"),
				deps(class("Repo"), di.DepOf("DbConfig", "OtherConfig")),
			},
			wantCodes: []graph.Code{graph.CodeTypeMismatch},
			wantMsg:   `di: type mismatch for "Repo" dependency "DbConfig": expected "OtherConfig", "provideConfig" declares [Config]`,
			category:  di.ErrConfiguration,
		},
		{
			name: "cycle",
			nodes: []graph.Node{
				deps(class("A"), di.Dep("B")),
				deps(class("B"), di.Dep("A")),
			},
			wantCodes: []graph.Code{graph.CodeCyclicDependency},
			wantMsg:   "di: cyclic dependency: A -> B -> A",
			category:  di.ErrResolution,
		},
		{
			name: "self cycle through multi-bind",
			nodes: []graph.Node{
				deps(class("A", "Plugin"), di.Dep("Plugin[]")),
			},
			wantCodes: []graph.Code{graph.CodeCyclicDependency},
			wantMsg:   "di: cyclic dependency: A -> A",
			category:  di.ErrResolution,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			g, err := graph.Validate(tc.nodes)
			assert.Nil(t, g)

			gerr := validationError(t, err)
			assert.Equal(t, tc.wantCodes, gerr.Codes())
			if tc.wantMsg != "" {
				assert.EqualError(t, gerr.Violations[0].Err, tc.wantMsg)
			}
			assert.ErrorIs(t, err, tc.category)
		})
	}
}

// TestValidate_TypeCheckedAgainstEveryCandidate verifies all bound providers
// must declare the expected type, not only the default.
func TestValidate_TypeCheckedAgainstEveryCandidate(t *testing.T) {
	t.Parallel()

	second := class("Greeter2")
	second.Tokens = append(second.Tokens, "IGreeter")

	_, err := graph.Validate([]graph.Node{
		asDefault(class("Greeter", "IGreeter")),
		second,
		deps(class("Lobby"), di.Dep("IGreeter")),
	})

	gerr := validationError(t, err)
	require.Equal(t, []graph.Code{graph.CodeTypeMismatch}, gerr.Codes())

	var mismatch di.TypeMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, "Greeter2", mismatch.Candidate)
	assert.Equal(t, []string{"Lobby", "Greeter2"}, gerr.Violations[0].Nodes)
}

// TestValidate_CollectsAll verifies every violation is reported in pass order.
func TestValidate_CollectsAll(t *testing.T) {
	t.Parallel()

	nodes := []graph.Node{
		{Descriptor: di.Descriptor{Name: "Broken", Tokens: di.Tokens("Broken")}},
		asDefault(class("Greeter", "IGreeter")),
		asDefault(class("Greeter2", "IGreeter")),
		deps(class("Service"), di.Dep("Repo")),
		deps(class("A"), di.Dep("B")),
		deps(class("B"), di.Dep("A")),
	}

	_, err := graph.Validate(nodes)
	gerr := validationError(t, err)

	assert.Equal(t, []graph.Code{
		graph.CodeInvalidProvider,
		graph.CodeDefaultConflict,
		graph.CodeDependencyNotFound,
		graph.CodeCyclicDependency,
	}, gerr.Codes())
	assert.ErrorIs(t, err, di.ErrConfiguration)
	assert.ErrorIs(t, err, di.ErrResolution)
	assert.Contains(t, err.Error(), "graph: 4 violations")
}

// TestValidate_FailFast verifies only the first violation is reported.
func TestValidate_FailFast(t *testing.T) {
	t.Parallel()

	nodes := []graph.Node{
		asDefault(class("Greeter", "IGreeter")),
		asDefault(class("Greeter2", "IGreeter")),
		deps(class("Service"), di.Dep("Repo")),
	}

	_, err := graph.Validate(nodes, graph.WithFailFast())
	gerr := validationError(t, err)
	assert.Equal(t, []graph.Code{graph.CodeDefaultConflict}, gerr.Codes())
	assert.Equal(t, "graph: 1 violation\n  [default-conflict] di: multiple default providers for \"IGreeter\" (\"Greeter\", \"Greeter2\")", err.Error())
}

// TestValidate_AllowAmbiguous verifies unrequested ambiguity becomes a warning
// while ambiguity on a single-value dependency still fails.
func TestValidate_AllowAmbiguous(t *testing.T) {
	t.Parallel()

	plugins := []graph.Node{
		class("Metrics", "Plugin"),
		class("Tracing", "Plugin"),
	}

	core, logs := observer.New(zap.WarnLevel)
	g, err := graph.Validate(
		append(plugins, deps(class("Host"), di.Dep("Plugin[]"))),
		graph.WithAllowAmbiguous(),
		graph.WithLogger(zap.New(core)),
	)
	require.NoError(t, err)
	require.Len(t, g.Warnings(), 1)
	assert.Equal(t, graph.CodeAmbiguousBinding, g.Warnings()[0].Code)
	assert.Equal(t, 1, logs.FilterMessage("ambiguous token allowed").Len())

	_, err = graph.Validate(
		append(plugins, deps(class("Host"), di.Dep("Plugin"))),
		graph.WithAllowAmbiguous(),
	)
	gerr := validationError(t, err)
	assert.Equal(t, []graph.Code{graph.CodeAmbiguousBinding}, gerr.Codes())
}

// TestValidate_CycleFollowsDefault verifies a single-value edge only reaches
// the default provider, as it would at runtime.
func TestValidate_CycleFollowsDefault(t *testing.T) {
	t.Parallel()

	nodes := []graph.Node{
		asDefault(class("Primary", "Store")),
		deps(class("Fallback", "Store"), di.Dep("Consumer")),
		deps(class("Consumer"), di.Dep("Store")),
	}
	_, err := graph.Validate(nodes)
	require.NoError(t, err)

	nodes[2] = deps(class("Consumer"), di.Dep("Store[]"))
	_, err = graph.Validate(nodes)
	gerr := validationError(t, err)
	require.Equal(t, []graph.Code{graph.CodeCyclicDependency}, gerr.Codes())
	assert.Equal(t, []string{"Fallback", "Consumer"}, gerr.Violations[0].Nodes)
}

// TestValidate_ValueNodesHaveNoEdges verifies value providers never take part in cycles.
func TestValidate_ValueNodesHaveNoEdges(t *testing.T) {
	t.Parallel()

	value := graph.Node{
		Descriptor: di.Descriptor{Name: "Config", Tokens: di.Tokens("Config"), DeclaredTypes: []string{"Config"}},
		Value:      "defaultConfig",
	}
	_, err := graph.Validate([]graph.Node{
		deps(value, di.Dep("Service")),
		deps(class("Service"), di.Dep("Config")),
	})
	require.NoError(t, err)
}

// TestValidate_SourceOnViolation verifies violations carry the manifest path.
func TestValidate_SourceOnViolation(t *testing.T) {
	t.Parallel()

	n := deps(class("Service"), di.Dep("Repo"))
	n.Source = "src/service.keg.yaml"

	_, err := graph.Validate([]graph.Node{n})
	gerr := validationError(t, err)
	assert.Equal(t, "src/service.keg.yaml", gerr.Violations[0].Source)
	assert.Contains(t, gerr.Violations[0].Error(), "src/service.keg.yaml: [dependency-not-found]")
}

//
// -----------------------------------------------------------------------------
// Node
// -----------------------------------------------------------------------------

func TestNode_KindAndSymbol(t *testing.T) {
	t.Parallel()

	cases := []struct {
		node   graph.Node
		kind   di.Kind
		symbol string
	}{
		{node: graph.Node{Value: "cfg"}, kind: di.KindValue, symbol: "cfg"},
		{node: graph.Node{Factory: "ProvideConfig"}, kind: di.KindFactory, symbol: "ProvideConfig"},
		{node: graph.Node{Class: "NewGreeter"}, kind: di.KindClass, symbol: "NewGreeter"},
	}
	for _, tc := range cases {
		kind, err := tc.node.Kind()
		require.NoError(t, err)
		assert.Equal(t, tc.kind, kind)
		assert.Equal(t, tc.symbol, tc.node.Symbol())
	}
}
