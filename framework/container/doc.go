// Package container is a field-injection runtime: resolvers map contracts to
// singleton implementations per namespace, and a Pool links the resolvers so a
// dependency missing in one namespace is found in another.
//
// # Overview
//
// A contract is any Go type, usually an interface. A BindingKey pairs it with
// an optional qualifier so several implementations of one contract can live
// side by side. Implementations publish their qualifier through the Qualified
// marker; fields ask for one through the inject struct tag.
//
// # Bootstrap
//
// Bootstrapping runs in two phases. Every singleton must exist before any
// field is assigned, which is what lets two objects in different namespaces
// depend on each other.
//
//  1. Build: c := catalog.New(); r, _ := container.Scan(c, "app.greeting", "app.greeting.impl")
//  2. Register: pool.MustAdd(r)    (repeat for every namespace)
//  3. Resolve: pool.ResolveAll()    or pool.BootstrapConsumers(c, scope, base)
//
// # Bindings
//
//	// Scan-discovered
//	r, err := container.Scan(cat, "app.greeting", "app.greeting.impl")
//
//	// Hand-built
//	r, _ := container.NewResolver("app.clock")
//	r.MustBind(container.TypeOf[clock.Clock](), container.DescribeInstance(clock.NewSystem(time.UTC)), false)
//
//	// Same key again: BindingConflict unless overwrite is true
//	_, err = r.Bind(container.TypeOf[clock.Clock](), container.DescribeInstance(fixed), true)
//
// # Fields
//
//	type composer struct {
//	    formal  greeting.Greeter `inject:"formal"`
//	    casual  greeting.Greeter `inject:"casual"`
//	    clock   clock.Clock      `inject:""`
//	}
//
// A marked field is looked up in the resolver owning the object first, then in
// every other resolver of the pool in the order they were added. The first hit
// wins. If nobody has it, the bootstrap fails with MissingImplementation.
//
// # Errors
//
// Every failure is a *Error. Match on the kind with errors.Is:
//
//	if errors.Is(err, container.ErrMissingImplementation) { ... }
package container
