// Package clock tells the time in a configured zone.
package clock

import (
	"time"

	"github.com/km-arc/go-resolver/framework/catalog"
)

// Scopes the package registers under.
const (
	Scope     = "app.clock"
	ImplScope = "app.clock.impl"
)

// Clock is the time source the application injects.
type Clock interface {
	Now() time.Time
	Zone() string
}

// System reads the wall clock. The zero value reports UTC.
type System struct {
	loc *time.Location
	now func() time.Time
}

// NewSystem returns a System reporting in loc.
func NewSystem(loc *time.Location) *System {
	return &System{loc: loc}
}

// Fixed returns a System that always reports at.
func Fixed(at time.Time) *System {
	return &System{loc: at.Location(), now: func() time.Time { return at }}
}

func (c *System) Now() time.Time {
	now := time.Now
	if c.now != nil {
		now = c.now
	}
	return now().In(c.location())
}

func (c *System) Zone() string { return c.location().String() }

func (c *System) location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// Register adds the contract and its implementation. When instance is not
// nil it replaces the constructed System.
func Register(cat *catalog.Catalog, instance *System) {
	catalog.Contract[Clock](cat, Scope)
	catalog.Implementation[*System](cat, ImplScope)
	if instance != nil {
		cat.Instance(ImplScope, instance)
	}
}
