package di

// FactoryFunc builds an instance from resolved dependencies.
type FactoryFunc func(args Args) (any, error)

// ConstructorFunc constructs an instance of a type from resolved dependencies.
type ConstructorFunc func(args Args) (any, error)

// Provider is a Descriptor plus exactly one construction strategy.
//
// Providers are usually emitted by the keg generator, but they can be built by
// hand with ValueOf, FactoryOf and ClassOf:
//
//	r.MustRegister(di.ClassOf("Greeter", newGreeter).
//		Implements("IGreeter").
//		DependsOn(di.DepOf("DbConfig", "Config")).
//		AsDefault())
type Provider struct {
	Descriptor

	Value   any
	Factory FactoryFunc
	Class   ConstructorFunc
}

// Kind returns the construction strategy, or an InvalidProviderError when the
// provider supplies none or more than one.
func (p *Provider) Kind() (Kind, error) {
	if p == nil {
		return KindInvalid, InvalidProviderError{Reason: "nil provider"}
	}
	n, kind := 0, KindInvalid
	if p.Value != nil {
		n, kind = n+1, KindValue
	}
	if p.Factory != nil {
		n, kind = n+1, KindFactory
	}
	if p.Class != nil {
		n, kind = n+1, KindClass
	}
	if err := CheckShape(p.Name, n); err != nil {
		return KindInvalid, err
	}
	return kind, nil
}

// ValueOf provides a fixed value under the token name.
func ValueOf(name string, v any) *Provider {
	tokens, declared := FactoryTokens(name, nil)
	return &Provider{
		Descriptor: Descriptor{Name: name, Tokens: tokens, DeclaredTypes: declared},
		Value:      v,
	}
}

// FactoryOf provides the result of fn under its return type name.
func FactoryOf(returnType string, fn FactoryFunc) *Provider {
	tokens, declared := FactoryTokens(returnType, nil)
	return &Provider{
		Descriptor: Descriptor{Name: returnType, Tokens: tokens, DeclaredTypes: declared},
		Factory:    fn,
	}
}

// ClassOf provides instances of class built by ctor.
func ClassOf(class string, ctor ConstructorFunc) *Provider {
	tokens, declared := ClassTokens(class, nil, nil)
	return &Provider{
		Descriptor: Descriptor{Name: class, Tokens: tokens, DeclaredTypes: declared},
		Class:      ctor,
	}
}

// Named overrides the diagnostic name.
func (p *Provider) Named(name string) *Provider {
	p.Name = name
	return p
}

// Implements binds the provider to each contract and declares it produces that type.
func (p *Provider) Implements(contracts ...string) *Provider {
	p.Tokens = append(p.Tokens, Tokens(contracts...)...)
	p.DeclaredTypes = append(p.DeclaredTypes, contracts...)
	return p
}

// Qualify binds the provider to extra qualifier tokens.
func (p *Provider) Qualify(names ...string) *Provider {
	p.Tokens = append(p.Tokens, Tokens(names...)...)
	return p
}

// Bind adds raw tokens.
func (p *Provider) Bind(tokens ...Token) *Provider {
	p.Tokens = append(p.Tokens, tokens...)
	return p
}

// DependsOn appends positional dependencies.
func (p *Provider) DependsOn(deps ...Dependency) *Provider {
	p.Dependencies = append(p.Dependencies, deps...)
	return p
}

// AsDefault flags the provider as the default for all of its tokens.
func (p *Provider) AsDefault() *Provider {
	p.Default = true
	return p
}

// AsTransient makes every resolution build a new instance.
func (p *Provider) AsTransient() *Provider {
	p.Transient = true
	return p
}
