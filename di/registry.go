package di

import (
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Observer is notified about registry activity. Implementations must be safe
// for concurrent use and must not call back into the registry.
type Observer interface {
	ProviderRegistered(p *Provider)
	TokenResolved(token Token, err error)
	ProviderConstructed(p *Provider, took time.Duration, err error)
	RegistryCleared()
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for registration and construction events.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// WithObserver attaches an Observer (for example a metrics collector).
func WithObserver(o Observer) Option {
	return func(r *Registry) {
		if o != nil {
			r.observer = o
		}
	}
}

// WithoutCache disables instance caching: every provider behaves as transient.
// Useful in tests that must observe fresh instances.
func WithoutCache() Option {
	return func(r *Registry) { r.cache = false }
}

// Registry binds tokens to providers and resolves them lazily.
//
// Registration is expected to finish during startup, but Register, Resolve and
// Clear are all safe for concurrent use. A singleton provider is constructed at
// most once even when several goroutines resolve it at the same time.
type Registry struct {
	mu      sync.RWMutex
	index   *Index[*entry]
	entries []*entry
	seq     atomic.Uint64

	flight   singleflight.Group
	log      *zap.Logger
	observer Observer
	cache    bool
}

// entry is a registered provider plus its instance cache slot.
type entry struct {
	key      string
	kind     Kind
	provider *Provider
	slot     atomic.Pointer[instance]
}

type instance struct{ v any }

func (e *entry) cached() (any, bool) {
	if in := e.slot.Load(); in != nil {
		return in.v, true
	}
	return nil, false
}

func entryName(e *entry) string { return e.provider.Name }

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		index:    NewIndex(entryName),
		log:      zap.NewNop(),
		observer: nopObserver{},
		cache:    true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var (
	globalOnce sync.Once
	global     *Registry
)

// Global returns the process-wide registry, creating it on first use.
// Prefer passing an explicit *Registry; Global exists for generated startup code
// that has nowhere else to put it. Call Global().Clear() to reset it in tests.
func Global() *Registry {
	globalOnce.Do(func() { global = NewRegistry() })
	return global
}

// Register binds p to each of its tokens.
//
// It fails with an InvalidProviderError if p has no tokens or not exactly one
// construction strategy, and with a DefaultConflictError if p is a default and
// one of its tokens already has a default. A failed registration binds nothing.
func (r *Registry) Register(p *Provider) error {
	kind, err := p.Kind()
	if err != nil {
		return err
	}
	cp := *p
	cp.Descriptor = p.Descriptor.Normalize()
	if err := cp.Validate(); err != nil {
		return err
	}

	e := &entry{
		key:      strconv.FormatUint(r.seq.Add(1), 10),
		kind:     kind,
		provider: &cp,
	}

	r.mu.Lock()
	if err := r.index.Add(e, cp.Tokens, cp.Default); err != nil {
		r.mu.Unlock()
		return err
	}
	r.entries = append(r.entries, e)
	r.mu.Unlock()

	r.log.Debug("registered provider",
		zap.String("provider", cp.Name),
		zap.Stringer("kind", kind),
		zap.Strings("tokens", tokenStrings(cp.Tokens)),
		zap.Bool("default", cp.Default),
		zap.Bool("transient", cp.Transient),
	)
	r.observer.ProviderRegistered(&cp)
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(p *Provider) {
	if err := r.Register(p); err != nil {
		panic(err)
	}
}

// RegisterAll registers providers in order and stops at the first error.
func (r *Registry) RegisterAll(ps ...*Provider) error {
	for _, p := range ps {
		if err := r.Register(p); err != nil {
			return err
		}
	}
	return nil
}

// Resolve answers a request for token. A multi-bind token ("X[]") returns a
// []any with one instance per provider bound to X, in registration order.
func (r *Registry) Resolve(token Token) (any, error) {
	if token.IsMulti() {
		vs, err := r.ResolveAll(token)
		if err != nil {
			return nil, err
		}
		return vs, nil
	}
	return r.ResolveOne(token)
}

// ResolveOne resolves a single instance for token.
func (r *Registry) ResolveOne(token Token) (any, error) {
	v, err := r.resolve(token.Base(), nil)
	r.observer.TokenResolved(token.Base(), err)
	return v, err
}

// ResolveAll resolves every provider bound to token (with or without the
// multi-bind marker). It never fails with an AmbiguousBindingError.
func (r *Registry) ResolveAll(token Token) ([]any, error) {
	v, err := r.resolve(token.Multi(), nil)
	r.observer.TokenResolved(token.Multi(), err)
	if err != nil {
		return nil, err
	}
	return v.([]any), nil
}

// Clear drops every binding and cached instance.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.index.Reset()
	r.entries = nil
	r.mu.Unlock()

	r.log.Debug("registry cleared")
	r.observer.RegistryCleared()
}

// Tokens returns every bound token, sorted.
func (r *Registry) Tokens() []Token {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index.Tokens()
}

// Providers returns the providers bound to token in registration order.
// Without a token it returns every registered provider.
func (r *Registry) Providers(token ...Token) []*Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := r.entries
	if len(token) > 0 {
		entries = r.index.Entries(token[0])
	}
	out := make([]*Provider, len(entries))
	for i, e := range entries {
		out[i] = e.provider
	}
	return out
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *Registry) selectEntries(token Token) ([]*entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index.Select(token)
}

// resolve answers token on behalf of the providers on chain.
func (r *Registry) resolve(token Token, chain []*entry) (any, error) {
	entries, err := r.selectEntries(token)
	if err != nil {
		return nil, err
	}
	if !token.IsMulti() {
		return r.instance(entries[0], chain)
	}
	out := make([]any, 0, len(entries))
	for _, e := range entries {
		v, err := r.instance(e, chain)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// instance returns the cached instance of e or constructs one.
func (r *Registry) instance(e *entry, chain []*entry) (any, error) {
	if slices.Contains(chain, e) {
		return nil, cycleError(chain, e)
	}
	if v, ok := e.cached(); ok {
		return v, nil
	}
	if len(chain) == 0 {
		// Reject cycles before any goroutine blocks on a construction.
		if err := r.plan(e, nil, make(map[*entry]bool)); err != nil {
			return nil, err
		}
	}
	if !r.cache || e.provider.Transient {
		return r.construct(e, chain)
	}

	v, err, _ := r.flight.Do(e.key, func() (any, error) {
		if v, ok := e.cached(); ok {
			return v, nil
		}
		v, err := r.construct(e, chain)
		if err != nil {
			return nil, err
		}
		e.slot.Store(&instance{v: v})
		return v, nil
	})
	return v, err
}

// plan walks the uncached part of the dependency graph below e and reports
// the first cycle. Entries whose dependencies were fully walked are recorded
// in done and not walked again. Selection errors are left for construct to
// report.
func (r *Registry) plan(e *entry, chain []*entry, done map[*entry]bool) error {
	if slices.Contains(chain, e) {
		return cycleError(chain, e)
	}
	if done[e] {
		return nil
	}
	if _, ok := e.cached(); ok || e.kind == KindValue {
		done[e] = true
		return nil
	}
	chain = append(chain, e)
	for _, dep := range e.provider.Dependencies {
		next, err := r.selectEntries(dep.Token)
		if err != nil {
			continue
		}
		for _, n := range next {
			if err := r.plan(n, chain, done); err != nil {
				return err
			}
		}
	}
	done[e] = true
	return nil
}

func (r *Registry) construct(e *entry, chain []*entry) (any, error) {
	p := e.provider
	if e.kind == KindValue {
		return p.Value, nil
	}

	start := time.Now()
	chain = append(chain, e)
	args := make(Args, 0, len(p.Dependencies))
	for _, dep := range p.Dependencies {
		v, err := r.resolve(dep.Token, chain)
		if err != nil {
			if u, ok := err.(UnknownTokenError); ok && u.Token == dep.Token.Base() {
				err = DependencyNotFoundError{Provider: p.Name, Token: dep.Token}
			}
			return nil, err
		}
		args = append(args, v)
	}

	v, err := e.call(args)
	took := time.Since(start)
	r.observer.ProviderConstructed(p, took, err)
	if err != nil {
		r.log.Debug("provider construction failed", zap.String("provider", p.Name), zap.Error(err))
		return nil, err
	}
	r.log.Debug("constructed provider",
		zap.String("provider", p.Name),
		zap.Stringer("kind", e.kind),
		zap.Bool("transient", p.Transient || !r.cache),
		zap.Duration("took", took),
	)
	return v, nil
}

// call invokes the factory or constructor, converting panics into errors.
func (e *entry) call(args Args) (v any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			v = nil
			err = ProviderPanicError{Provider: e.provider.Name, Value: rec}
		}
	}()
	if e.kind == KindFactory {
		return e.provider.Factory(args)
	}
	return e.provider.Class(args)
}

func cycleError(chain []*entry, e *entry) error {
	start := slices.Index(chain, e)
	path := make([]string, 0, len(chain)-start+1)
	for _, c := range chain[start:] {
		path = append(path, c.provider.Name)
	}
	return CyclicDependencyError{Path: append(path, e.provider.Name)}
}

func tokenStrings(ts []Token) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = string(t)
	}
	return out
}

type nopObserver struct{}

func (nopObserver) ProviderRegistered(*Provider) {}
func (nopObserver) TokenResolved(Token, error) {}
func (nopObserver) ProviderConstructed(*Provider, time.Duration, error) {}
func (nopObserver) RegistryCleared() {}
