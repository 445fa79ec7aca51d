package di_test

import (
	"sync/atomic"

	"github.com/sghaida/keg/di"
)

type Config struct {
	DSN string
}

type Greeter interface {
	Greet() string
}

type EnglishGreeter struct{ cfg Config }

func (g *EnglishGreeter) Greet() string { return "hello" }

type SpanishGreeter struct{ word string }

func (g *SpanishGreeter) Greet() string { return g.word }

type Lobby struct {
	Main Greeter
	All  []Greeter
}

// counter counts constructor invocations.
type counter struct{ n atomic.Int64 }

func (c *counter) class(name string, build func(args di.Args) (any, error)) *di.Provider {
	return di.ClassOf(name, func(args di.Args) (any, error) {
		c.n.Add(1)
		return build(args)
	})
}

func newEnglish(args di.Args) (any, error) {
	cfg, err := di.Arg[Config](args, 0)
	if err != nil {
		return nil, err
	}
	return &EnglishGreeter{cfg: cfg}, nil
}

func newSpanish(di.Args) (any, error) { return &SpanishGreeter{word: "hola"}, nil }

func newLobby(args di.Args) (any, error) {
	main, err := di.Arg[Greeter](args, 0)
	if err != nil {
		return nil, err
	}
	all, err := di.ArgSlice[Greeter](args, 1)
	if err != nil {
		return nil, err
	}
	return &Lobby{Main: main, All: all}, nil
}

func provideConfig(di.Args) (any, error) { return Config{DSN: "postgres://"}, nil }

// greeterProviders is the example graph: a default and a secondary greeter
// sharing the Greeter contract, a qualified config factory, and a lobby
// consuming both a single and a multi-bind dependency.
func greeterProviders() []*di.Provider {
	return []*di.Provider{
		di.FactoryOf("Config", provideConfig).Named("provideConfig").Qualify("DbConfig"),
		di.ClassOf("EnglishGreeter", newEnglish).
			Implements("Greeter").
			DependsOn(di.DepOf("DbConfig", "Config")).
			AsDefault(),
		di.ClassOf("SpanishGreeter", newSpanish).Implements("Greeter"),
		di.ClassOf("Lobby", newLobby).DependsOn(di.Dep("Greeter"), di.DepOf("Greeter[]", "Greeter")),
	}
}
