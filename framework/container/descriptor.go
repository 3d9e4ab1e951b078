package container

import (
	"fmt"
	"reflect"
	"strings"
)

// Qualified is the marker an implementation carries to publish its qualifier.
// Implementations without it bind unqualified.
//
//	type formal struct{}
//	func (formal) Qualifier() string { return "formal" }
type Qualified interface {
	Qualifier() string
}

// Descriptor describes one candidate implementation: its concrete type, the
// qualifier read from its marker, and how to obtain the singleton instance.
type Descriptor struct {
	Type      reflect.Type
	Qualifier string
	New       func() (any, error)
}

// Describe builds a Descriptor for a concrete type. Pointer-to-struct types are
// constructed with reflect.New, anything else starts from its zero value.
//
//	d := container.Describe(reflect.TypeOf(&impl.Formal{}))
func Describe(t reflect.Type) Descriptor {
	if t == nil {
		return Descriptor{}
	}
	d := Descriptor{Type: t, New: func() (any, error) { return construct(t) }}
	if zero, err := construct(t); err == nil {
		d.Qualifier = qualifierOf(zero)
	}
	return d
}

// DescribeInstance wraps a pre-built object. Its constructor hands back v itself.
func DescribeInstance(v any) Descriptor {
	if v == nil {
		return Descriptor{}
	}
	return Descriptor{
		Type:      reflect.TypeOf(v),
		Qualifier: qualifierOf(v),
		New:       func() (any, error) { return v, nil },
	}
}

// WithInstance returns a copy of d that yields v instead of constructing a new
// value. The qualifier is kept: it belongs to the type, not the instance.
func (d Descriptor) WithInstance(v any) Descriptor {
	d.New = func() (any, error) { return v, nil }
	return d
}

// instantiate runs the constructor, converting panics into errors.
func (d Descriptor) instantiate() (instance any, err error) {
	if d.New == nil {
		return construct(d.Type)
	}
	defer func() {
		if rec := recover(); rec != nil {
			instance = nil
			err = fmt.Errorf("constructor of %s panicked: %v", d.Type, rec)
		}
	}()
	instance, err = d.New()
	if err == nil && instance == nil {
		err = fmt.Errorf("constructor of %s returned nil", d.Type)
	}
	return instance, err
}

func construct(t reflect.Type) (any, error) {
	if t == nil {
		return nil, fmt.Errorf("nil type")
	}
	switch {
	case t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct:
		return reflect.New(t.Elem()).Interface(), nil
	case t.Kind() == reflect.Interface:
		return nil, fmt.Errorf("%s is an interface and cannot be instantiated", t)
	default:
		return reflect.Zero(t).Interface(), nil
	}
}

func qualifierOf(v any) (qualifier string) {
	q, ok := v.(Qualified)
	if !ok {
		return ""
	}
	// a nil receiver may not survive the call
	defer func() {
		if recover() != nil {
			qualifier = ""
		}
	}()
	return strings.TrimSpace(q.Qualifier())
}
