// Package controllers holds the HTTP consumers. They are never bound: the
// kernel builds every Controller under Scope after the resolvers are
// bootstrapped, injects its fields from the pool and mounts its routes.
package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/km-arc/go-resolver/app/clock"
	"github.com/km-arc/go-resolver/app/messages"
	"github.com/km-arc/go-resolver/framework/catalog"
	"github.com/km-arc/go-resolver/framework/config"
	"github.com/km-arc/go-resolver/framework/container"
	gohttp "github.com/km-arc/go-resolver/framework/http"
	"github.com/km-arc/go-resolver/framework/routing"
)

// Scope the controllers register under.
const Scope = "app.controllers"

// Controller is the consumer base.
type Controller interface {
	routing.Mountable
}

// ── GreetingController ────────────────────────────────────────────────────────

// GreetingController composes and lists greetings.
type GreetingController struct {
	composer messages.Composer `inject:""`
	history  messages.History  `inject:""`
}

type greetRequest struct {
	Name  string `json:"name" validate:"required,max=64"`
	Style string `json:"style" validate:"omitempty,oneof=formal casual"`
}

func (c *GreetingController) Routes(r *routing.Router) {
	r.Post("/greetings", c.Store)
	r.Get("/greetings", c.Index)
	r.Post("/greetings/{id}/replay", c.Replay)
}

// Index lists the history, newest last. ?limit=N keeps the last N.
func (c *GreetingController) Index(w http.ResponseWriter, r *http.Request) {
	req := gohttp.NewRequest(r)
	entries := c.history.All()
	if limit := req.QueryInt("limit", 0); limit > 0 && limit < len(entries) {
		entries = entries[len(entries)-limit:]
	}
	gohttp.NewResponse(w).Success(entries)
}

// Store composes a greeting from {"name", "style"}.
func (c *GreetingController) Store(w http.ResponseWriter, r *http.Request) {
	res := gohttp.NewResponse(w)
	var body greetRequest
	if err := gohttp.NewRequest(r).Validate(&body); err != nil {
		res.Fail(err)
		return
	}
	entry, err := c.composer.Compose(body.Name, body.Style)
	if err != nil {
		res.Fail(err)
		return
	}
	res.Created(entry)
}

// Replay composes an existing entry again.
func (c *GreetingController) Replay(w http.ResponseWriter, r *http.Request) {
	res := gohttp.NewResponse(w)
	id, err := uuid.Parse(routing.Param(r, "id"))
	if err != nil {
		res.BadRequest("The id must be a UUID.")
		return
	}
	entry, err := c.history.Replay(id)
	if errors.Is(err, messages.ErrNotFound) {
		res.NotFound("No greeting with that id.")
		return
	}
	if err != nil {
		res.Fail(err)
		return
	}
	res.Created(entry)
}

// ── StatusController ──────────────────────────────────────────────────────────

// StatusController reports the clock and the pool's resolvers. The config
// and the pool come from the framework resolver.
type StatusController struct {
	clock clock.Clock     `inject:""`
	cfg   *config.Config  `inject:""`
	pool  *container.Pool `inject:""`
}

type resolverStatus struct {
	Namespace string   `json:"namespace"`
	Bindings  []string `json:"bindings"`
}

func (c *StatusController) Routes(r *routing.Router) {
	r.Get("/status", c.Show)
}

// Show reports the application, the time and every binding.
func (c *StatusController) Show(w http.ResponseWriter, _ *http.Request) {
	resolvers := make([]resolverStatus, 0, c.pool.Len())
	for _, r := range c.pool.ResolversExcept("") {
		s := resolverStatus{Namespace: r.Namespace(), Bindings: []string{}}
		for _, key := range r.Bindings() {
			s.Bindings = append(s.Bindings, key.String())
		}
		resolvers = append(resolvers, s)
	}
	gohttp.NewResponse(w).Success(map[string]any{
		"app":       c.cfg.App.Name,
		"env":       c.cfg.App.Env,
		"time":      c.clock.Now().Format(time.RFC3339),
		"zone":      c.clock.Zone(),
		"resolvers": resolvers,
	})
}

// Register adds the consumer base and the controllers to cat.
func Register(cat *catalog.Catalog) {
	catalog.Base[Controller](cat)
	catalog.Consumer[*GreetingController](cat, Scope)
	catalog.Consumer[*StatusController](cat, Scope)
}
