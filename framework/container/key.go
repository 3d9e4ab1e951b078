package container

import (
	"reflect"
	"strings"
)

// BindingKey addresses one binding inside a Resolver: a contract type plus an
// optional qualifier. The empty qualifier means "unqualified".
//
// BindingKey is comparable and is used directly as a map key, so a qualifier
// containing any character cannot collide with another contract's key.
type BindingKey struct {
	Contract  reflect.Type
	Qualifier string
}

// Key builds a BindingKey. The qualifier is trimmed; a blank one is no
// qualifier.
//
//	k := container.Key(container.TypeOf[greeting.Greeter](), "formal")
func Key(contract reflect.Type, qualifier string) BindingKey {
	return BindingKey{Contract: contract, Qualifier: strings.TrimSpace(qualifier)}
}

// Qualified reports whether the key carries a qualifier.
func (k BindingKey) Qualified() bool { return k.Qualifier != "" }

// String renders the key for logs and error messages, e.g. "greeting.Greeter[formal]".
func (k BindingKey) String() string {
	name := "<nil>"
	if k.Contract != nil {
		name = k.Contract.String()
	}
	if k.Qualifier == "" {
		return name
	}
	return name + "[" + k.Qualifier + "]"
}

// ── Reflect helpers ───────────────────────────────────────────────────────────

// TypeOf returns the reflect.Type of T. Unlike reflect.TypeOf it works for
// interface types, which is how contracts are usually declared.
//
//	contract := container.TypeOf[greeting.Greeter]()
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// TypeKey returns the package-qualified name of t, dereferencing pointers.
// It is a stable, human-readable name for a contract or base type.
//
//	container.TypeKey(container.TypeOf[greeting.Greeter]())
//	// "github.com/km-arc/go-resolver/app/greeting.Greeter"
func TypeKey(t reflect.Type) string {
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}
