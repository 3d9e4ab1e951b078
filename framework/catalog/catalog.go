// Package catalog is the registration table the container discovers types
// from. Domain packages register their contracts, implementations and
// consumers under dotted scopes at startup; Catalog then answers the
// container's Discovery queries.
//
//	cat := catalog.New()
//	catalog.Contract[greeting.Greeter](cat, "app.greeting")
//	catalog.Implementation[*greeting.Formal](cat, "app.greeting.impl")
//	catalog.Consumer[*controllers.GreetingController](cat, "app.controllers")
//
// A scope includes its sub-scopes: "app" covers "app.greeting" and
// "app.greeting.impl", but not "application".
package catalog

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/km-arc/go-resolver/framework/container"
)

// ErrUnknownType is returned by Lookup for names that were never registered.
var ErrUnknownType = errors.New("catalog: unknown type")

type contractEntry struct {
	scope string
	t     reflect.Type
}

type typeEntry struct {
	scope string
	desc  container.Descriptor
}

type instanceEntry struct {
	scope string
	obj   any
}

// Catalog is safe for concurrent use. Registration order is preserved and is
// the order discovery results come back in.
type Catalog struct {
	mu        sync.RWMutex
	contracts []contractEntry
	types     []typeEntry
	instances []instanceEntry
	names     map[string]reflect.Type
}

var _ container.Discovery = (*Catalog)(nil)

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{names: make(map[string]reflect.Type)}
}

// ── Registration ──────────────────────────────────────────────────────────────

// Contract marks t as an injectable contract under scope. Registering the same
// contract twice under one scope is a no-op.
func (c *Catalog) Contract(scope string, t reflect.Type) *Catalog {
	mustScope(scope)
	if t == nil {
		panic("catalog: contract type must not be nil")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.contracts {
		if e.scope == scope && e.t == t {
			return c
		}
	}
	c.contracts = append(c.contracts, contractEntry{scope: scope, t: t})
	c.name(t)
	return c
}

// Implementation registers a concrete candidate under scope.
func (c *Catalog) Implementation(scope string, d container.Descriptor) *Catalog {
	return c.addType(scope, d)
}

// Consumer registers a consumer type under scope. Consumers are never bound;
// Pool.BootstrapConsumers builds them and fills their marked fields.
func (c *Catalog) Consumer(scope string, d container.Descriptor) *Catalog {
	return c.addType(scope, d)
}

func (c *Catalog) addType(scope string, d container.Descriptor) *Catalog {
	mustScope(scope)
	if d.Type == nil {
		panic("catalog: descriptor type must not be nil")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.types = append(c.types, typeEntry{scope: scope, desc: d})
	c.name(d.Type)
	return c
}

// Instance registers a pre-built object for the implementations scope. The
// object replaces the constructed singleton of its concrete type when the
// scope is scanned.
func (c *Catalog) Instance(scope string, obj any) *Catalog {
	mustScope(scope)
	if obj == nil {
		panic("catalog: instance must not be nil")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.instances = append(c.instances, instanceEntry{scope: scope, obj: obj})
	return c
}

// Base names a consumer base type so manifests can refer to it.
func (c *Catalog) Base(t reflect.Type) *Catalog {
	if t == nil {
		panic("catalog: base type must not be nil")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.name(t)
	return c
}

// name records t under its package-qualified name and its short name.
// The short name is dropped as soon as two types share it.
func (c *Catalog) name(t reflect.Type) {
	c.names[container.TypeKey(t)] = t
	short := t.String()
	if prev, ok := c.names[short]; ok && prev != t {
		c.names[short] = nil
		return
	}
	c.names[short] = t
}

// ── Generic helpers ───────────────────────────────────────────────────────────

// Contract registers T as a contract under scope.
func Contract[T any](c *Catalog, scope string) *Catalog {
	return c.Contract(scope, container.TypeOf[T]())
}

// Implementation registers T, usually a pointer to a struct, as a candidate
// implementation under scope.
func Implementation[T any](c *Catalog, scope string) *Catalog {
	return c.Implementation(scope, container.Describe(container.TypeOf[T]()))
}

// Consumer registers T as a consumer under scope.
func Consumer[T any](c *Catalog, scope string) *Catalog {
	return c.Consumer(scope, container.Describe(container.TypeOf[T]()))
}

// Base names T as a consumer base.
func Base[T any](c *Catalog) *Catalog {
	return c.Base(container.TypeOf[T]())
}

// ── Queries ───────────────────────────────────────────────────────────────────

// Instances returns the pre-built objects registered for exactly scope.
func (c *Catalog) Instances(scope string) []any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []any
	for _, e := range c.instances {
		if e.scope == scope {
			out = append(out, e.obj)
		}
	}
	return out
}

// Lookup finds a registered type by package-qualified name
// ("github.com/acme/app/greeting.Greeter") or short name ("greeting.Greeter").
// Pointer types are named with a leading "*" in the short form.
func (c *Catalog) Lookup(name string) (reflect.Type, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.names[strings.TrimSpace(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
	if t == nil {
		return nil, fmt.Errorf("%w: %q is ambiguous, use the package-qualified name", ErrUnknownType, name)
	}
	return t, nil
}

// Scopes returns every scope something was registered under, in first-seen order.
func (c *Catalog) Scopes() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, e := range c.contracts {
		add(e.scope)
	}
	for _, e := range c.types {
		add(e.scope)
	}
	return out
}

// MarkedContracts implements container.Discovery.
func (c *Catalog) MarkedContracts(scope string) ([]reflect.Type, error) {
	if strings.TrimSpace(scope) == "" {
		return nil, errors.New("catalog: scope must not be empty")
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []reflect.Type
	for _, e := range c.contracts {
		if within(e.scope, scope) {
			out = append(out, e.t)
		}
	}
	return out, nil
}

// Subtypes implements container.Discovery. Implementations and consumers are
// both candidates; callers tell them apart by scope.
func (c *Catalog) Subtypes(scope string, of reflect.Type) ([]container.Descriptor, error) {
	if strings.TrimSpace(scope) == "" {
		return nil, errors.New("catalog: scope must not be empty")
	}
	if of == nil {
		return nil, errors.New("catalog: type must not be nil")
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []container.Descriptor
	for _, e := range c.types {
		if within(e.scope, scope) && realizes(e.desc.Type, of) {
			out = append(out, e.desc)
		}
	}
	return out, nil
}

// within reports whether ns is scope or one of its sub-scopes.
func within(ns, scope string) bool {
	return ns == scope || strings.HasPrefix(ns, scope+".")
}

func realizes(t, of reflect.Type) bool {
	if t == of {
		return true
	}
	if of.Kind() == reflect.Interface {
		return t.Implements(of)
	}
	return t.AssignableTo(of)
}

func mustScope(scope string) {
	if strings.TrimSpace(scope) == "" {
		panic("catalog: scope must not be empty")
	}
}
