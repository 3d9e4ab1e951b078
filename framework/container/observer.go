package container

import "reflect"

// Source tells where an injected value was found.
type Source string

const (
	// SourceLocal: the owning resolver had the binding.
	SourceLocal Source = "local"
	// SourceFallback: another resolver of the pool had it.
	SourceFallback Source = "fallback"
	// SourcePool: the target had no owning resolver (a consumer) and the whole
	// pool was searched.
	SourcePool Source = "pool"
)

// InjectionEvent describes one successful field assignment.
type InjectionEvent struct {
	// Namespace of the resolver that supplied the value.
	Namespace string
	Target    reflect.Type
	Field     FieldDescriptor
	Source    Source
}

// Observer is notified after bindings and injections. Calls happen
// synchronously on the bootstrapping goroutine.
type Observer interface {
	Bound(namespace string, key BindingKey, instance any)
	Injected(e InjectionEvent)
}

// NopObserver ignores everything.
type NopObserver struct{}

func (NopObserver) Bound(string, BindingKey, any) {}
func (NopObserver) Injected(InjectionEvent)       {}

// Hooks adapts plain callbacks to Observer. Nil callbacks are skipped.
//
//	pool := container.NewPool(container.WithPoolObserver(container.Hooks{
//	    OnInjected: func(e container.InjectionEvent) { log.Println(e.Field.Name) },
//	}))
type Hooks struct {
	OnBound    func(namespace string, key BindingKey, instance any)
	OnInjected func(e InjectionEvent)
}

func (h Hooks) Bound(namespace string, key BindingKey, instance any) {
	if h.OnBound != nil {
		h.OnBound(namespace, key, instance)
	}
}

func (h Hooks) Injected(e InjectionEvent) {
	if h.OnInjected != nil {
		h.OnInjected(e)
	}
}
