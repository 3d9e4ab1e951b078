// Package messages composes greetings and keeps their history.
//
// The composer and the history inject each other, which the two-phase
// bootstrap resolves: both singletons exist before either is injected.
package messages

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/km-arc/go-resolver/app/clock"
	"github.com/km-arc/go-resolver/app/greeting"
	"github.com/km-arc/go-resolver/framework/catalog"
)

// Scopes the package registers under.
const (
	Scope     = "app.messages"
	ImplScope = "app.messages.impl"
)

// Styles a message can be composed in. The empty style is plain.
const (
	StyleFormal = "formal"
	StyleCasual = "casual"
	StylePlain  = ""
)

var (
	// ErrUnknownStyle is returned for a style no greeter is bound to.
	ErrUnknownStyle = errors.New("messages: unknown style")
	// ErrNotFound is returned for an unknown entry id.
	ErrNotFound = errors.New("messages: entry not found")
)

// Entry is one composed greeting.
type Entry struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Style string    `json:"style,omitempty"`
	Text  string    `json:"text"`
	At    time.Time `json:"at"`
}

// Composer builds greetings and records them.
type Composer interface {
	Compose(name, style string) (Entry, error)
}

// History keeps composed entries in order.
type History interface {
	Record(e Entry)
	All() []Entry
	Find(id uuid.UUID) (Entry, error)
	// Replay composes the entry again and records the copy.
	Replay(id uuid.UUID) (Entry, error)
}

// ── Composer ──────────────────────────────────────────────────────────────────

// StyledComposer picks a greeter by style. The greeters and the clock live
// in other resolvers and arrive through fallback.
type StyledComposer struct {
	formal  greeting.Greeter `inject:"formal"`
	casual  greeting.Greeter `inject:"casual"`
	plain   greeting.Greeter `inject:""`
	clock   clock.Clock      `inject:""`
	history History          `inject:""`
}

func (c *StyledComposer) Compose(name, style string) (Entry, error) {
	g, err := c.greeter(style)
	if err != nil {
		return Entry{}, err
	}
	e := Entry{
		ID:    uuid.New(),
		Name:  name,
		Style: style,
		Text:  g.Greet(name),
		At:    c.clock.Now(),
	}
	c.history.Record(e)
	return e, nil
}

func (c *StyledComposer) greeter(style string) (greeting.Greeter, error) {
	switch style {
	case StyleFormal:
		return c.formal, nil
	case StyleCasual:
		return c.casual, nil
	case StylePlain:
		return c.plain, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStyle, style)
	}
}

// ── History ───────────────────────────────────────────────────────────────────

// MemoryHistory keeps entries in memory. Safe for concurrent use.
type MemoryHistory struct {
	composer Composer `inject:""`

	mu      sync.RWMutex
	entries []Entry
}

func (h *MemoryHistory) Record(e Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, e)
}

func (h *MemoryHistory) All() []Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]Entry(nil), h.entries...)
}

func (h *MemoryHistory) Find(id uuid.UUID) (Entry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, e := range h.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (h *MemoryHistory) Replay(id uuid.UUID) (Entry, error) {
	e, err := h.Find(id)
	if err != nil {
		return Entry{}, err
	}
	return h.composer.Compose(e.Name, e.Style)
}

// Register adds the contracts and their implementations to cat.
func Register(cat *catalog.Catalog) {
	catalog.Contract[Composer](cat, Scope)
	catalog.Contract[History](cat, Scope)
	catalog.Implementation[*StyledComposer](cat, ImplScope)
	catalog.Implementation[*MemoryHistory](cat, ImplScope)
}
