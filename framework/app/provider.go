package app

import (
	"fmt"

	"github.com/km-arc/go-resolver/framework/catalog"
	"github.com/km-arc/go-resolver/framework/manifest"
)

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider is one module of the application.
//
// Register runs as soon as the provider is added and only fills the catalog:
// contracts, implementations, consumers and pre-built instances. Boot runs
// after both bootstrap phases, when every singleton is bound and injected.
//
//	type GreetingProvider struct{ app.BaseProvider }
//
//	func (p *GreetingProvider) Register(cat *catalog.Catalog) {
//	    catalog.Contract[greeting.Greeter](cat, "app.greeting")
//	    catalog.Implementation[*greeting.Formal](cat, "app.greeting.impl")
//	}
type ServiceProvider interface {
	// Register declares the provider's types. Do NOT resolve anything here.
	Register(cat *catalog.Catalog)

	// Boot is called once the pool is bootstrapped.
	Boot(app *Application) error
}

// ManifestProvider is implemented by providers that contribute resolvers to
// the bootstrap. Manifests are merged in registration order.
type ManifestProvider interface {
	Manifest() manifest.Manifest
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable no-op provider.
//
//	type MyProvider struct{ app.BaseProvider }
//	func (p *MyProvider) Register(cat *catalog.Catalog) { ... }
type BaseProvider struct{}

func (p *BaseProvider) Register(_ *catalog.Catalog) {}
func (p *BaseProvider) Boot(_ *Application) error  { return nil }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry manages registration and booting of ServiceProviders.
type ProviderRegistry struct {
	app        *Application
	providers  []ServiceProvider
	registered map[ServiceProvider]bool
	booted     bool
}

// NewProviderRegistry creates a registry bound to app.
func NewProviderRegistry(app *Application) *ProviderRegistry {
	return &ProviderRegistry{
		app:        app,
		registered: make(map[ServiceProvider]bool),
	}
}

// Register adds a provider and calls its Register method. Adding the same
// provider twice is a no-op. A provider added after Boot is booted at once.
func (r *ProviderRegistry) Register(provider ServiceProvider) error {
	if r.registered[provider] {
		return nil
	}
	r.registered[provider] = true

	provider.Register(r.app.Catalog)
	r.providers = append(r.providers, provider)

	if r.booted {
		return bootProvider(provider, r.app)
	}
	return nil
}

// Manifest merges the manifests of every ManifestProvider.
func (r *ProviderRegistry) Manifest() manifest.Manifest {
	var m manifest.Manifest
	for _, provider := range r.providers {
		if mp, ok := provider.(ManifestProvider); ok {
			m = m.Merge(mp.Manifest())
		}
	}
	return m
}

// Boot calls Boot on every provider, in registration order, and stops at the
// first error. Later calls are no-ops.
func (r *ProviderRegistry) Boot() error {
	if r.booted {
		return nil
	}
	r.booted = true
	for _, provider := range r.providers {
		if err := bootProvider(provider, r.app); err != nil {
			return err
		}
	}
	return nil
}

// Booted returns true if Boot has been called.
func (r *ProviderRegistry) Booted() bool { return r.booted }

// Providers returns the registered providers.
func (r *ProviderRegistry) Providers() []ServiceProvider { return r.providers }

func bootProvider(p ServiceProvider, app *Application) error {
	if err := p.Boot(app); err != nil {
		return fmt.Errorf("app: booting %T: %w", p, err)
	}
	return nil
}
