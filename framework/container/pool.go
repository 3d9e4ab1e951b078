package container

import (
	"reflect"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Pool is the registry of resolvers, one per namespace. It is where marked
// fields look when their own resolver has no binding, and where consumer
// objects get their dependencies from.
//
//	pool := container.NewPool(container.WithPoolLogger(logger))
//	pool.MustAdd(greetings).MustAdd(clocks)
//	if err := pool.ResolveAll(); err != nil { ... }
type Pool struct {
	mu sync.RWMutex

	resolvers map[string]*Resolver

	// namespaces in the order they were first added; fallback searches follow it
	order []string

	logger   *zap.Logger
	observer Observer
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithPoolLogger sets the pool's logger. The default discards everything.
func WithPoolLogger(l *zap.Logger) PoolOption {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithPoolObserver registers an Observer for injections driven by the pool.
func WithPoolObserver(o Observer) PoolOption {
	return func(p *Pool) {
		if o != nil {
			p.observer = o
		}
	}
}

// NewPool creates an empty pool.
func NewPool(opts ...PoolOption) *Pool {
	p := &Pool{
		resolvers: make(map[string]*Resolver),
		logger:    zap.NewNop(),
		observer:  NopObserver{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

var (
	defaultPool     *Pool
	defaultPoolOnce sync.Once
)

// Default returns the process-wide pool, created on first use. Tests and
// applications that want isolation should use NewPool instead.
func Default() *Pool {
	defaultPoolOnce.Do(func() { defaultPool = NewPool() })
	return defaultPool
}

// ── Registry ──────────────────────────────────────────────────────────────────

// Add registers r under its namespace. A resolver already registered for the
// namespace is replaced and keeps its position in the fallback order.
func (p *Pool) Add(r *Resolver) (*Pool, error) {
	if r == nil {
		return p, newError(KindValidation, "the resolver must not be nil")
	}
	ns := r.Namespace()
	if strings.TrimSpace(ns) == "" {
		return p, newError(KindValidation, "the resolver namespace must not be empty")
	}

	p.mu.Lock()
	prev, replaced := p.resolvers[ns]
	if !replaced {
		p.order = append(p.order, ns)
	}
	p.resolvers[ns] = r
	p.mu.Unlock()

	if replaced && prev != r {
		prev.attach(nil)
	}
	r.attach(p)
	p.logger.Debug("resolver added",
		zap.String("namespace", ns),
		zap.Int("bindings", r.Len()),
		zap.Bool("replaced", replaced),
	)
	return p, nil
}

// MustAdd is Add for fluent setup code. It panics on error.
func (p *Pool) MustAdd(r *Resolver) *Pool {
	if _, err := p.Add(r); err != nil {
		panic(err)
	}
	return p
}

// Resolver returns the resolver registered for namespace. A blank namespace
// is a caller error and fails with Validation; a namespace nobody registered
// fails with NotFound.
func (p *Pool) Resolver(namespace string) (*Resolver, error) {
	if strings.TrimSpace(namespace) == "" {
		return nil, newError(KindValidation, "the namespace must not be empty")
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	r, ok := p.resolvers[namespace]
	if !ok {
		return nil, newError(KindNotFound, "no resolver for the namespace %q", namespace)
	}
	return r, nil
}

// ResolversExcept returns every resolver other than the one registered for
// namespace, in fallback order. An empty namespace excludes nothing.
func (p *Pool) ResolversExcept(namespace string) []*Resolver {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*Resolver, 0, len(p.order))
	for _, ns := range p.order {
		if ns == namespace {
			continue
		}
		out = append(out, p.resolvers[ns])
	}
	return out
}

// Namespaces returns the registered namespaces in fallback order.
func (p *Pool) Namespaces() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Len returns the number of registered resolvers.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.resolvers)
}

// ── Bootstrap ─────────────────────────────────────────────────────────────────

// ResolveAll runs the second bootstrap phase for every registered resolver,
// in pool order. A singleton reachable from several resolvers is injected once.
func (p *Pool) ResolveAll() error {
	return p.resolveAll(p.newRun())
}

func (p *Pool) resolveAll(x *run) error {
	for _, r := range p.ResolversExcept("") {
		if err := r.resolveAllIn(x); err != nil {
			return err
		}
	}
	x.logger.Debug("pool resolved", zap.Int("resolvers", p.Len()))
	return nil
}

// BootstrapConsumers completes the bootstrap of every registered resolver and
// then builds every concrete type under scope realizing base, injecting its
// marked fields from the whole pool. The consumers are returned in discovery
// order; the pool does not keep them.
//
//	consumers, err := pool.BootstrapConsumers(cat, "app.controllers", container.TypeOf[controllers.Controller]())
func (p *Pool) BootstrapConsumers(d Discovery, scope string, base reflect.Type) ([]any, error) {
	var problems []string
	if d == nil {
		problems = append(problems, "the discovery must not be nil.")
	}
	if strings.TrimSpace(scope) == "" {
		problems = append(problems, "the consumer scope must not be empty.")
	}
	if base == nil {
		problems = append(problems, "the consumer base type must not be nil.")
	}
	if len(problems) > 0 {
		return nil, newError(KindValidation, "%s", strings.Join(problems, " "))
	}

	x := p.newRun()
	if err := p.resolveAll(x); err != nil {
		return nil, err
	}

	found, err := d.Subtypes(scope, base)
	if err != nil {
		return nil, wrap(KindNotFound, err, "discovering consumers of %s under %q", base, scope)
	}
	consumers := make([]any, 0, len(found))
	for _, desc := range found {
		consumer, err := desc.instantiate()
		if err != nil {
			return nil, wrap(KindValidation, err, "constructing the consumer %s", desc.Type)
		}
		if err := x.inject(consumer, nil); err != nil {
			return nil, err
		}
		consumers = append(consumers, consumer)
	}

	x.logger.Info("consumers bootstrapped",
		zap.String("scope", scope),
		zap.Stringer("base", base),
		zap.Int("consumers", len(consumers)),
	)
	return consumers, nil
}

// Inject fills the marked fields of target from the whole pool.
func (p *Pool) Inject(target any) error {
	return p.newRun().inject(target, nil)
}

// Destroy destroys and removes every resolver.
func (p *Pool) Destroy() {
	p.mu.Lock()
	resolvers := p.resolvers
	p.resolvers = make(map[string]*Resolver)
	p.order = nil
	p.mu.Unlock()

	for _, r := range resolvers {
		r.attach(nil)
		r.Destroy()
	}
	p.logger.Debug("pool destroyed", zap.Int("resolvers", len(resolvers)))
}

func (p *Pool) newRun() *run {
	return newRun(p, p.logger, p.observer)
}
