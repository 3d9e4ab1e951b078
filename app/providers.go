// Package app wires the demo modules into the kernel: one provider per
// module, each declaring its types and its resolver.
package app

import (
	"go.uber.org/zap"

	"github.com/km-arc/go-resolver/app/clock"
	"github.com/km-arc/go-resolver/app/controllers"
	"github.com/km-arc/go-resolver/app/greeting"
	"github.com/km-arc/go-resolver/app/messages"
	kernel "github.com/km-arc/go-resolver/framework/app"
	"github.com/km-arc/go-resolver/framework/catalog"
	"github.com/km-arc/go-resolver/framework/container"
	"github.com/km-arc/go-resolver/framework/manifest"
)

// Providers returns the application's providers in bootstrap order. clk
// replaces the constructed clock when not nil.
func Providers(clk *clock.System) []kernel.ServiceProvider {
	return []kernel.ServiceProvider{
		&MessagesProvider{},
		&GreetingProvider{},
		&ClockProvider{Clock: clk},
		&ControllersProvider{},
	}
}

// DefaultManifest is the layout the providers declare.
func DefaultManifest() manifest.Manifest {
	var m manifest.Manifest
	for _, p := range Providers(nil) {
		if mp, ok := p.(kernel.ManifestProvider); ok {
			m = m.Merge(mp.Manifest())
		}
	}
	return m
}

func resolver(contracts, implementations string, strict bool) manifest.Manifest {
	return manifest.Manifest{Resolvers: []manifest.ResolverSpec{{
		Contracts:       contracts,
		Implementations: implementations,
		Strict:          strict,
	}}}
}

// ── GreetingProvider ──────────────────────────────────────────────────────────

type GreetingProvider struct{ kernel.BaseProvider }

func (p *GreetingProvider) Register(cat *catalog.Catalog) { greeting.Register(cat) }

func (p *GreetingProvider) Manifest() manifest.Manifest {
	return resolver(greeting.Scope, greeting.ImplScope, false)
}

// ── ClockProvider ─────────────────────────────────────────────────────────────

// ClockProvider binds the clock. Its resolver is strict: a second clock
// implementation is a bootstrap error.
type ClockProvider struct {
	kernel.BaseProvider
	Clock *clock.System
}

func (p *ClockProvider) Register(cat *catalog.Catalog) { clock.Register(cat, p.Clock) }

func (p *ClockProvider) Manifest() manifest.Manifest {
	return resolver(clock.Scope, clock.ImplScope, true)
}

// ── MessagesProvider ──────────────────────────────────────────────────────────

type MessagesProvider struct{ kernel.BaseProvider }

func (p *MessagesProvider) Register(cat *catalog.Catalog) { messages.Register(cat) }

func (p *MessagesProvider) Manifest() manifest.Manifest {
	return resolver(messages.Scope, messages.ImplScope, false)
}

// ── ControllersProvider ───────────────────────────────────────────────────────

// ControllersProvider declares the HTTP consumers.
type ControllersProvider struct{ kernel.BaseProvider }

func (p *ControllersProvider) Register(cat *catalog.Catalog) { controllers.Register(cat) }

func (p *ControllersProvider) Manifest() manifest.Manifest {
	return manifest.Manifest{Consumers: manifest.ConsumerSpec{
		Scope: controllers.Scope,
		Base:  container.TypeKey(container.TypeOf[controllers.Controller]()),
	}}
}

func (p *ControllersProvider) Boot(app *kernel.Application) error {
	app.Logger.Info("routes mounted", zap.Int("routes", len(app.Router.Routes())))
	return nil
}
