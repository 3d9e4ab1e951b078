package container

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// defaultWorkers bounds the parallel discovery calls of Scan.
const defaultWorkers = 2

// ── Options ───────────────────────────────────────────────────────────────────

// Option configures a Resolver.
type Option func(*settings)

type settings struct {
	restrict       reflect.Type
	preinitialized []any
	strict         bool
	workers        int
	logger         *zap.Logger
	observer       Observer
}

func newSettings(opts []Option) *settings {
	s := &settings{workers: defaultWorkers}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.observer == nil {
		s.observer = NopObserver{}
	}
	if s.workers < 1 {
		s.workers = 1
	}
	return s
}

// Restrict narrows Scan to the contracts extending contract, plus contract
// itself when it is marked injectable.
func Restrict(contract reflect.Type) Option {
	return func(s *settings) { s.restrict = contract }
}

// Preinitialized supplies caller-built instances. During Scan each one replaces
// the constructed instance of its concrete type. Supplying the same concrete
// type twice is a DuplicatePreinitialized error.
func Preinitialized(objs ...any) Option {
	return func(s *settings) { s.preinitialized = append(s.preinitialized, objs...) }
}

// Strict selects the qualifier-less variant of Scan: every contract must have
// exactly one implementation, and it is bound unqualified.
func Strict() Option {
	return func(s *settings) { s.strict = true }
}

// Workers bounds the number of concurrent discovery calls made by Scan.
func Workers(n int) Option {
	return func(s *settings) { s.workers = n }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithObserver registers an Observer for bindings and injections.
func WithObserver(o Observer) Option {
	return func(s *settings) { s.observer = o }
}

// ── Resolver ──────────────────────────────────────────────────────────────────

// Resolver owns the contract → implementation bindings of one namespace.
//
// Every binding holds a singleton. Marked fields of the bound singletons are
// filled by ResolveAllImplementations, looking in the resolver first and in the
// rest of its Pool second.
type Resolver struct {
	mu sync.RWMutex

	namespace string

	// key → singleton instance
	bindings map[BindingKey]any

	// keys in binding order
	order []BindingKey

	// pool the resolver was added to; nil until Pool.Add
	pool *Pool

	logger   *zap.Logger
	observer Observer
}

// NewResolver creates an empty resolver for namespace, to be filled with Bind.
//
//	r, err := container.NewResolver("app.greeting")
func NewResolver(namespace string, opts ...Option) (*Resolver, error) {
	if strings.TrimSpace(namespace) == "" {
		return nil, newError(KindValidation, "the namespace must not be empty")
	}
	return newResolver(namespace, newSettings(opts)), nil
}

func newResolver(namespace string, s *settings) *Resolver {
	return &Resolver{
		namespace: namespace,
		bindings:  make(map[BindingKey]any),
		logger:    s.logger.With(zap.String("namespace", namespace)),
		observer:  s.observer,
	}
}

// Scan builds a resolver for the contracts marked injectable under contracts,
// binding each to the implementations d finds under implementations.
//
//	r, err := container.Scan(cat, "app.greeting", "app.greeting.impl",
//	    container.Preinitialized(&impl.Formal{Title: "Sir"}))
//
// Discovery calls run in parallel, bounded by Workers, and finish before the
// first binding is made. The resolver's namespace is contracts.
func Scan(d Discovery, contracts, implementations string, opts ...Option) (*Resolver, error) {
	var problems []string
	if d == nil {
		problems = append(problems, "the discovery must not be nil.")
	}
	if strings.TrimSpace(contracts) == "" {
		problems = append(problems, "the contracts namespace must not be empty.")
	}
	if strings.TrimSpace(implementations) == "" {
		problems = append(problems, "the implementations namespace must not be empty.")
	}
	if len(problems) > 0 {
		return nil, newError(KindValidation, "%s", strings.Join(problems, " "))
	}

	s := newSettings(opts)
	prebuilt, err := indexPreinitialized(s.preinitialized)
	if err != nil {
		return nil, err
	}

	marked, err := d.MarkedContracts(contracts)
	if err != nil {
		return nil, wrap(KindNotFound, err, "discovering contracts under %q", contracts)
	}
	if s.restrict != nil {
		marked = narrow(marked, s.restrict)
	}

	candidates := make([][]Descriptor, len(marked))
	g := new(errgroup.Group)
	g.SetLimit(s.workers)
	for i, contract := range marked {
		g.Go(func() error {
			found, err := d.Subtypes(implementations, contract)
			if err != nil {
				return wrap(KindNoImplementation, err, "discovering implementations of %s under %q", contract, implementations)
			}
			candidates[i] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r := newResolver(contracts, s)
	shared := make(map[reflect.Type]any)
	for i, contract := range marked {
		found := candidates[i]
		if len(found) == 0 {
			return nil, keyError(KindNoImplementation, Key(contract, ""),
				"the contract %s has no implementation under %q", contract, implementations)
		}
		if s.strict && len(found) > 1 {
			return nil, keyError(KindAmbiguousImplementation, Key(contract, ""),
				"the contract %s has %d implementations under %q", contract, len(found), implementations)
		}
		for _, desc := range found {
			if s.strict {
				desc.Qualifier = ""
			}
			if err := r.bindShared(contract, desc, prebuilt, shared); err != nil {
				return nil, err
			}
		}
	}

	r.logger.Info("resolver built",
		zap.String("implementations", implementations),
		zap.Int("contracts", len(marked)),
		zap.Int("bindings", r.Len()),
	)
	return r, nil
}

// bindShared binds desc during a scan, reusing one instance per concrete type.
func (r *Resolver) bindShared(contract reflect.Type, desc Descriptor, prebuilt, shared map[reflect.Type]any) error {
	if obj, ok := prebuilt[desc.Type]; ok {
		desc = desc.WithInstance(obj)
	} else if obj, ok := shared[desc.Type]; ok {
		desc = desc.WithInstance(obj)
	}
	instance, err := r.bind(contract, desc, false)
	if err != nil {
		return err
	}
	shared[desc.Type] = instance
	return nil
}

// indexPreinitialized maps pre-built objects by concrete type.
func indexPreinitialized(objs []any) (map[reflect.Type]any, error) {
	index := make(map[reflect.Type]any, len(objs))
	for i, obj := range objs {
		if isNil(obj) {
			return nil, newError(KindValidation, "preinitialized object #%d is nil", i)
		}
		t := reflect.TypeOf(obj)
		if _, dup := index[t]; dup {
			return nil, newError(KindDuplicatePreinitialized,
				"in the preinitialized objects, the type %s appears more than once", t)
		}
		index[t] = obj
	}
	return index, nil
}

// narrow keeps the strict subtypes of x, re-adding x when it was itself marked.
func narrow(contracts []reflect.Type, x reflect.Type) []reflect.Type {
	marked := false
	out := make([]reflect.Type, 0, len(contracts))
	for _, c := range contracts {
		if c == x {
			marked = true
			continue
		}
		if x.Kind() == reflect.Interface && c.Implements(x) {
			out = append(out, c)
		}
	}
	if marked {
		out = append(out, x)
	}
	return out
}

// ── Identity ──────────────────────────────────────────────────────────────────

// Namespace returns the identity the Pool keys the resolver on.
func (r *Resolver) Namespace() string { return r.namespace }

// Equal reports whether both resolvers govern the same namespace. Bindings are
// not compared.
func (r *Resolver) Equal(other *Resolver) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.namespace == other.namespace
}

func (r *Resolver) attach(p *Pool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pool = p
}

func (r *Resolver) owner() *Pool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pool
}

// ── Binding ───────────────────────────────────────────────────────────────────

// Bind associates contract with impl under the key (contract, impl.Qualifier).
// If the key is taken and overwrite is false it fails with BindingConflict and
// the existing binding is left alone.
//
//	r, err = r.Bind(container.TypeOf[greeting.Greeter](), container.Describe(reflect.TypeOf(&impl.Formal{})), false)
//	r, err = r.Bind(container.TypeOf[clock.Clock](), container.DescribeInstance(fixed), true)
func (r *Resolver) Bind(contract reflect.Type, impl Descriptor, overwrite bool) (*Resolver, error) {
	if _, err := r.bind(contract, impl, overwrite); err != nil {
		return r, err
	}
	return r, nil
}

// MustBind is Bind for fluent setup code. It panics on error.
//
//	r.MustBind(greeter, formal, false).MustBind(clock, system, false)
func (r *Resolver) MustBind(contract reflect.Type, impl Descriptor, overwrite bool) *Resolver {
	if _, err := r.Bind(contract, impl, overwrite); err != nil {
		panic(err)
	}
	return r
}

func (r *Resolver) bind(contract reflect.Type, impl Descriptor, overwrite bool) (any, error) {
	var problems []string
	if contract == nil {
		problems = append(problems, "the contract must not be nil.")
	}
	if impl.Type == nil {
		problems = append(problems, "the implementation type must not be nil.")
	}
	if len(problems) > 0 {
		return nil, newError(KindValidation, "%s", strings.Join(problems, " "))
	}

	key := Key(contract, impl.Qualifier)
	if !overwrite && r.bound(key) {
		return nil, r.conflict(key)
	}

	instance, err := impl.instantiate()
	if err != nil {
		return nil, wrap(KindValidation, err, "constructing %s for %s", impl.Type, key)
	}
	if isNil(instance) {
		return nil, keyError(KindValidation, key, "the implementation of %s is nil", key)
	}
	if !realizes(reflect.TypeOf(instance), contract) {
		return nil, keyError(KindValidation, key, "%s does not implement %s", reflect.TypeOf(instance), contract)
	}

	r.mu.Lock()
	if _, exists := r.bindings[key]; exists {
		if !overwrite {
			r.mu.Unlock()
			return nil, r.conflict(key)
		}
	} else {
		r.order = append(r.order, key)
	}
	r.bindings[key] = instance
	r.mu.Unlock()

	r.logger.Debug("bound implementation",
		zap.Stringer("key", key),
		zap.Stringer("implementation", reflect.TypeOf(instance)),
		zap.Bool("overwrite", overwrite),
	)
	r.observer.Bound(r.namespace, key, instance)
	return instance, nil
}

func (r *Resolver) conflict(key BindingKey) error {
	return keyError(KindBindingConflict, key,
		"the contract %s with qualifier %q has more than one implementation in %q",
		key.Contract, key.Qualifier, r.namespace)
}

func (r *Resolver) bound(key BindingKey) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.bindings[key]
	return ok
}

func (r *Resolver) lookup(key BindingKey) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.bindings[key]
	return v, ok
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Implementation returns the singleton bound to (contract, qualifier).
// An unbound key is a NotFound error.
func (r *Resolver) Implementation(contract reflect.Type, qualifier string) (any, error) {
	if contract == nil {
		return nil, newError(KindValidation, "the contract must not be nil")
	}
	key := Key(contract, qualifier)
	v, ok := r.lookup(key)
	if !ok {
		return nil, keyError(KindNotFound, key, "no binding for %s in %q", key, r.namespace)
	}
	return v, nil
}

// ImplementationOfField looks up the binding a marked field asks for.
// Absence is reported through ok so callers can fall back elsewhere.
func (r *Resolver) ImplementationOfField(f FieldDescriptor) (any, bool) {
	if f.Type == nil {
		return nil, false
	}
	return r.lookup(f.Key())
}

// Get is the typed form of Implementation.
//
//	g, err := container.Get[greeting.Greeter](r, "formal")
func Get[T any](r *Resolver, qualifier string) (T, error) {
	var zero T
	v, err := r.Implementation(TypeOf[T](), qualifier)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, newError(KindValidation, "%s resolved to %T", TypeOf[T](), v)
	}
	return typed, nil
}

// ── Injection ─────────────────────────────────────────────────────────────────

// ResolveAllImplementations injects the marked fields of every bound singleton.
// This is the second phase of the bootstrap; run it once every resolver the
// singletons depend on is in the pool.
func (r *Resolver) ResolveAllImplementations() error {
	return r.resolveAllIn(newRun(r.owner(), r.logger, r.observer))
}

func (r *Resolver) resolveAllIn(x *run) error {
	for _, instance := range r.instances() {
		if err := x.inject(instance, r); err != nil {
			return err
		}
	}
	return nil
}

// ResolveDependenciesOf injects the marked fields of the single singleton bound
// to (contract, qualifier).
func (r *Resolver) ResolveDependenciesOf(contract reflect.Type, qualifier string) error {
	instance, err := r.Implementation(contract, qualifier)
	if err != nil {
		return err
	}
	return newRun(r.owner(), r.logger, r.observer).inject(instance, r)
}

// Inject fills the marked fields of an arbitrary target, searching this
// resolver first and its pool second. target must be a non-nil pointer.
func (r *Resolver) Inject(target any) error {
	return newRun(r.owner(), r.logger, r.observer).inject(target, r)
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// Bindings returns the bound keys in binding order.
func (r *Resolver) Bindings() []BindingKey {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]BindingKey, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of bindings.
func (r *Resolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bindings)
}

// instances returns every distinct singleton, in binding order.
func (r *Resolver) instances() []any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]any, 0, len(r.order))
	seen := make(map[instanceID]struct{}, len(r.order))
	for _, key := range r.order {
		v := r.bindings[key]
		if id, ok := identity(v); ok {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
		}
		out = append(out, v)
	}
	return out
}

// Destroy drops every binding. The resolver stays usable but empty; meant for
// process shutdown.
func (r *Resolver) Destroy() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings = make(map[BindingKey]any)
	r.order = nil
	r.logger.Debug("resolver destroyed")
}

// String implements fmt.Stringer.
func (r *Resolver) String() string {
	return fmt.Sprintf("Resolver(%s, %d bindings)", r.namespace, r.Len())
}

// instanceID identifies a pointer instance. The type is part of it because
// distinct zero-size values may share an address.
type instanceID struct {
	t    reflect.Type
	addr uintptr
}

// identity returns the identity of pointer instances; other values have none.
func identity(v any) (instanceID, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return instanceID{}, false
	}
	return instanceID{t: rv.Type(), addr: rv.Pointer()}, true
}

func realizes(t, contract reflect.Type) bool {
	if contract.Kind() == reflect.Interface {
		return t.Implements(contract)
	}
	return t.AssignableTo(contract)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
