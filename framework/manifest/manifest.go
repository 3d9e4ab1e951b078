// Package manifest describes a resolver layout in YAML and drives both
// bootstrap phases from it.
//
//	resolvers:
//	  - contracts: app.greeting
//	    implementations: app.greeting.impl
//	  - contracts: app.clock
//	    implementations: app.clock.impl
//	    strict: true
//	consumers:
//	  scope: app.controllers
//	  base: controllers.Controller
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"

	"gopkg.in/yaml.v3"

	"github.com/km-arc/go-resolver/framework/container"
	"github.com/km-arc/go-resolver/framework/validation"
)

// ResolverSpec is one resolver to scan.
type ResolverSpec struct {
	// Contracts is the scope holding the injectable contracts. It is also the
	// resolver's namespace.
	Contracts       string `yaml:"contracts" validate:"required"`
	Implementations string `yaml:"implementations" validate:"required"`
	// Restrict names a contract; only it and its extensions are bound.
	Restrict string `yaml:"restrict,omitempty"`
	Strict   bool   `yaml:"strict,omitempty"`
}

// ConsumerSpec names the consumers built after the resolvers.
type ConsumerSpec struct {
	Scope string `yaml:"scope,omitempty" validate:"required_with=Base"`
	Base  string `yaml:"base,omitempty" validate:"required_with=Scope"`
}

// Manifest is the whole layout.
type Manifest struct {
	Resolvers []ResolverSpec `yaml:"resolvers" validate:"dive"`
	Consumers ConsumerSpec   `yaml:"consumers,omitempty"`
}

// Source is what Build and Bootstrap discover from. *catalog.Catalog
// satisfies it.
type Source interface {
	container.Discovery
	Instances(scope string) []any
	Lookup(name string) (reflect.Type, error)
}

// ── Reading ───────────────────────────────────────────────────────────────────

// Parse decodes and validates a YAML manifest. Unknown keys are rejected; an
// empty document is an empty manifest.
func Parse(data []byte) (Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return Manifest{}, fmt.Errorf("manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// Load reads and parses the manifest at path.
func Load(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("manifest: %w", err)
	}
	return Parse(data)
}

// Validate checks the required keys.
func (m Manifest) Validate() error {
	if err := validation.Struct(m); err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	return nil
}

// Merge returns m with other's resolvers applied on top. A resolver for a
// namespace m already has replaces it in place; new namespaces are appended.
// other's consumer spec wins when it names a scope.
func (m Manifest) Merge(other Manifest) Manifest {
	out := Manifest{
		Resolvers: append([]ResolverSpec(nil), m.Resolvers...),
		Consumers: m.Consumers,
	}
	for _, spec := range other.Resolvers {
		replaced := false
		for i := range out.Resolvers {
			if out.Resolvers[i].Contracts == spec.Contracts {
				out.Resolvers[i] = spec
				replaced = true
				break
			}
		}
		if !replaced {
			out.Resolvers = append(out.Resolvers, spec)
		}
	}
	if other.Consumers.Scope != "" {
		out.Consumers = other.Consumers
	}
	return out
}

// ── Bootstrap ─────────────────────────────────────────────────────────────────

// Build runs the first bootstrap phase: every resolver is scanned, with the
// source's pre-built instances for its implementations scope, and added to
// pool in manifest order. opts apply to every scan.
func (m Manifest) Build(src Source, pool *container.Pool, opts ...container.Option) ([]*container.Resolver, error) {
	if src == nil || pool == nil {
		return nil, errors.New("manifest: source and pool are required")
	}
	resolvers := make([]*container.Resolver, 0, len(m.Resolvers))
	for _, spec := range m.Resolvers {
		scanOpts := append([]container.Option(nil), opts...)
		if objs := src.Instances(spec.Implementations); len(objs) > 0 {
			scanOpts = append(scanOpts, container.Preinitialized(objs...))
		}
		if spec.Restrict != "" {
			t, err := src.Lookup(spec.Restrict)
			if err != nil {
				return nil, fmt.Errorf("manifest: resolver %q: %w", spec.Contracts, err)
			}
			scanOpts = append(scanOpts, container.Restrict(t))
		}
		if spec.Strict {
			scanOpts = append(scanOpts, container.Strict())
		}

		r, err := container.Scan(src, spec.Contracts, spec.Implementations, scanOpts...)
		if err != nil {
			return nil, fmt.Errorf("manifest: resolver %q: %w", spec.Contracts, err)
		}
		if _, err := pool.Add(r); err != nil {
			return nil, fmt.Errorf("manifest: resolver %q: %w", spec.Contracts, err)
		}
		resolvers = append(resolvers, r)
	}
	return resolvers, nil
}

// Bootstrap runs the second phase. With a consumer spec it builds and returns
// the consumers; without one it only resolves the pool.
func (m Manifest) Bootstrap(src Source, pool *container.Pool) ([]any, error) {
	if src == nil || pool == nil {
		return nil, errors.New("manifest: source and pool are required")
	}
	if m.Consumers.Scope == "" {
		if err := pool.ResolveAll(); err != nil {
			return nil, fmt.Errorf("manifest: %w", err)
		}
		return nil, nil
	}
	base, err := src.Lookup(m.Consumers.Base)
	if err != nil {
		return nil, fmt.Errorf("manifest: consumers: %w", err)
	}
	consumers, err := pool.BootstrapConsumers(src, m.Consumers.Scope, base)
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	return consumers, nil
}
