// Package greeting holds the Greeter contract and its three styles.
package greeting

import (
	"fmt"

	"github.com/km-arc/go-resolver/framework/catalog"
)

// Scopes the package registers under.
const (
	Scope     = "app.greeting"
	ImplScope = "app.greeting.impl"
)

// Greeter turns a name into a greeting.
type Greeter interface {
	Greet(name string) string
}

// Formal is qualified "formal".
type Formal struct{}

func (*Formal) Qualifier() string        { return "formal" }
func (*Formal) Greet(name string) string { return fmt.Sprintf("Good day, %s.", name) }

// Casual is qualified "casual".
type Casual struct{}

func (*Casual) Qualifier() string        { return "casual" }
func (*Casual) Greet(name string) string { return fmt.Sprintf("Hey %s!", name) }

// Plain is the unqualified greeter.
type Plain struct{}

func (*Plain) Greet(name string) string { return fmt.Sprintf("Hello, %s.", name) }

// Register adds the contract and its implementations to cat.
func Register(cat *catalog.Catalog) {
	catalog.Contract[Greeter](cat, Scope)
	catalog.Implementation[*Formal](cat, ImplScope)
	catalog.Implementation[*Casual](cat, ImplScope)
	catalog.Implementation[*Plain](cat, ImplScope)
}
