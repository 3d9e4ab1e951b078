package container_test

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/km-arc/go-resolver/framework/container"
)

// ── contracts ─────────────────────────────────────────────────────────────────

type Greeter interface {
	Greet(name string) string
}

type Clock interface {
	Now() string
}

// Loud extends Greeter; used to exercise Restrict.
type Loud interface {
	Greeter
	Shout(name string) string
}

// Ping and Pong depend on each other across namespaces.
type Ping interface {
	Name() string
	CallPong() string
}

type Pong interface {
	Name() string
	CallPing() string
}

// ── implementations ───────────────────────────────────────────────────────────

type formal struct{ title string }

func (*formal) Qualifier() string          { return "formal" }
func (g *formal) Greet(name string) string { return "Good day, " + g.title + " " + name }

type casual struct{ emoji string }

func (*casual) Qualifier() string          { return "casual" }
func (g *casual) Greet(name string) string { return "Hey " + name + g.emoji }

type plain struct{ n int }

func (*plain) Greet(name string) string { return "Hello " + name }

type shouter struct{ n int }

func (*shouter) Qualifier() string        { return "loud" }
func (*shouter) Greet(name string) string { return "hello " + name }
func (*shouter) Shout(name string) string { return strings.ToUpper("hello " + name) }

type fixedClock struct{ at string }

func (c *fixedClock) Now() string { return c.at }

type ping struct {
	pong Pong `inject:""`
}

func (*ping) Name() string       { return "ping" }
func (p *ping) CallPong() string { return p.pong.Name() }

type pong struct {
	ping Ping `inject:""`
}

func (*pong) Name() string       { return "pong" }
func (p *pong) CallPing() string { return p.ping.Name() }

// welcomer mixes local, fallback and qualified fields.
type welcomer struct {
	Formal  Greeter `inject:"formal"`
	casual  Greeter `inject:"casual"`
	clock   Clock   `inject:""`
	ignored Clock
}

func (w *welcomer) Welcome(name string) string {
	return w.Formal.Greet(name) + " / " + w.casual.Greet(name) + " @ " + w.clock.Now()
}

// Consumer is the base type consumers are discovered by.
type Consumer interface {
	Consume() string
}

type page struct {
	greeter Greeter `inject:"casual"`
	clock   Clock   `inject:""`
}

func (p *page) Consume() string { return p.greeter.Greet("reader") + " at " + p.clock.Now() }

type broken struct {
	missing fmt.Stringer `inject:""`
}

func (*broken) Consume() string { return "broken" }

// Base and embedding exercise promoted marked fields.
type Base struct {
	Clock Clock `inject:""`
}

type embedding struct {
	Base
	*Extra
	greeter Greeter `inject:"formal"`
}

type Extra struct {
	Name  string
	Plain Greeter `inject:""`
}

// Leaf is embedded twice through Left and Right.
type Leaf struct {
	G Greeter `inject:""`
}

type Left struct{ Leaf }

type Right struct{ Leaf }

type twinEmbeds struct {
	Left
	Right
}

// spaced publishes a blank qualifier.
type spaced struct{}

func (*spaced) Qualifier() string        { return "  " }
func (*spaced) Greet(name string) string { return "hi " + name }

type wantsPlain struct {
	g Greeter `inject:""`
}

// ── discovery ─────────────────────────────────────────────────────────────────

// fakeDiscovery serves fixed tables. Subtypes filters the registered
// candidates by the requested type.
type fakeDiscovery struct {
	mu        sync.Mutex
	contracts map[string][]reflect.Type
	impls     map[string][]container.Descriptor
	calls     int
	failOn    string
}

func newDiscovery() *fakeDiscovery {
	return &fakeDiscovery{
		contracts: make(map[string][]reflect.Type),
		impls:     make(map[string][]container.Descriptor),
	}
}

func (d *fakeDiscovery) contract(scope string, ts ...reflect.Type) *fakeDiscovery {
	d.contracts[scope] = append(d.contracts[scope], ts...)
	return d
}

func (d *fakeDiscovery) impl(scope string, vs ...any) *fakeDiscovery {
	for _, v := range vs {
		d.impls[scope] = append(d.impls[scope], container.Describe(reflect.TypeOf(v)))
	}
	return d
}

func (d *fakeDiscovery) MarkedContracts(scope string) ([]reflect.Type, error) {
	if scope == d.failOn {
		return nil, errors.New("scan failed")
	}
	return d.contracts[scope], nil
}

func (d *fakeDiscovery) Subtypes(scope string, of reflect.Type) ([]container.Descriptor, error) {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()
	if scope == d.failOn {
		return nil, errors.New("scan failed")
	}
	var out []container.Descriptor
	for _, desc := range d.impls[scope] {
		if desc.Type.Implements(of) {
			out = append(out, desc)
		}
	}
	return out, nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

var (
	greeterType  = container.TypeOf[Greeter]()
	clockType    = container.TypeOf[Clock]()
	loudType     = container.TypeOf[Loud]()
	pingType     = container.TypeOf[Ping]()
	pongType     = container.TypeOf[Pong]()
	consumerType = container.TypeOf[Consumer]()
)

func describe(v any) container.Descriptor { return container.Describe(reflect.TypeOf(v)) }
