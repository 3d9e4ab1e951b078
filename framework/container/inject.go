package container

import (
	"fmt"
	"reflect"
	"strings"
	"unsafe"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Tag is the struct tag marking a field for injection. Its value is the
// qualifier; an empty value asks for the unqualified binding.
//
//	type composer struct {
//	    formal greeting.Greeter `inject:"formal"`
//	    clock  clock.Clock      `inject:""`
//	}
const Tag = "inject"

// FieldDescriptor describes one marked field.
type FieldDescriptor struct {
	// Owner is the struct type declaring the field.
	Owner reflect.Type
	// Name is the field name, dotted through embedded structs ("Base.clock").
	Name      string
	Type      reflect.Type
	Qualifier string
	// Index is the path for reflect.Value.FieldByIndex from the outer struct.
	Index []int
}

// Key returns the binding the field asks for.
func (f FieldDescriptor) Key() BindingKey { return Key(f.Type, f.Qualifier) }

// MarkedFields lists the fields of t carrying the inject tag, including the
// ones promoted from embedded structs. t may be a struct or a pointer to one;
// anything else has no fields.
func MarkedFields(t reflect.Type) []FieldDescriptor {
	if t == nil {
		return nil
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	var out []FieldDescriptor
	// visited holds the types on the current embedding path only, so sibling
	// embeds of one type are both walked.
	collect(t, nil, "", map[reflect.Type]bool{t: true}, &out)
	return out
}

func collect(t reflect.Type, index []int, prefix string, visited map[reflect.Type]bool, out *[]FieldDescriptor) {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		path := append(append([]int(nil), index...), i)
		if qualifier, ok := sf.Tag.Lookup(Tag); ok {
			*out = append(*out, FieldDescriptor{
				Owner:     t,
				Name:      prefix + sf.Name,
				Type:      sf.Type,
				Qualifier: strings.TrimSpace(qualifier),
				Index:     path,
			})
			continue
		}
		if !sf.Anonymous {
			continue
		}
		et := sf.Type
		if et.Kind() == reflect.Pointer {
			et = et.Elem()
		}
		if et.Kind() != reflect.Struct || visited[et] {
			continue
		}
		visited[et] = true
		collect(et, path, prefix+sf.Name+".", visited, out)
		delete(visited, et)
	}
}

// ── Injection run ─────────────────────────────────────────────────────────────

// run is one injection pass. It remembers which targets it already filled so
// a singleton shared by several keys or resolvers is injected once.
type run struct {
	id       string
	pool     *Pool
	logger   *zap.Logger
	observer Observer
	seen     map[instanceID]struct{}
}

func newRun(pool *Pool, logger *zap.Logger, observer Observer) *run {
	id := uuid.NewString()
	if logger == nil {
		logger = zap.NewNop()
	}
	if observer == nil {
		observer = NopObserver{}
	}
	return &run{
		id:       id,
		pool:     pool,
		logger:   logger.With(zap.String("run", id)),
		observer: observer,
		seen:     make(map[instanceID]struct{}),
	}
}

// inject fills target's marked fields. owner is the resolver the target is
// bound in, or nil for consumer objects, which search the whole pool.
func (x *run) inject(target any, owner *Resolver) error {
	if isNil(target) {
		return newError(KindValidation, "the injection target must not be nil")
	}
	v := reflect.ValueOf(target)
	fields := MarkedFields(v.Type())
	if len(fields) == 0 {
		return nil
	}
	if v.Kind() != reflect.Pointer {
		return newError(KindValidation, "%s has marked fields but is not a pointer", v.Type())
	}
	id, _ := identity(target)
	if _, done := x.seen[id]; done {
		return nil
	}
	x.seen[id] = struct{}{}

	elem := v.Elem()
	for _, f := range fields {
		key := f.Key()
		value, ns, source, ok := x.find(key, owner)
		if !ok {
			return &Error{
				Kind: KindMissingImplementation,
				Message: fmt.Sprintf("the field %s (%s) in %s has no implementation",
					f.Name, f.Type, v.Type()),
				Key:   &key,
				Field: f.Name,
			}
		}
		if err := assign(elem, f, value); err != nil {
			return &Error{
				Kind:    KindMissingImplementation,
				Message: fmt.Sprintf("injecting the field %s in %s", f.Name, v.Type()),
				Key:     &key,
				Field:   f.Name,
				Cause:   err,
			}
		}
		x.logger.Debug("injected field",
			zap.Stringer("target", v.Type()),
			zap.String("field", f.Name),
			zap.Stringer("key", key),
			zap.String("from", ns),
			zap.String("source", string(source)),
		)
		x.observer.Injected(InjectionEvent{Namespace: ns, Target: v.Type(), Field: f, Source: source})
	}
	return nil
}

// find looks key up in owner, then in the rest of the pool in pool order.
// Failures of individual resolvers only mean "try the next one".
func (x *run) find(key BindingKey, owner *Resolver) (value any, namespace string, source Source, ok bool) {
	exclude := ""
	source = SourcePool
	if owner != nil {
		if v, found := owner.lookup(key); found {
			return v, owner.Namespace(), SourceLocal, true
		}
		exclude = owner.Namespace()
		source = SourceFallback
	}
	if x.pool == nil {
		return nil, "", "", false
	}
	for _, r := range x.pool.ResolversExcept(exclude) {
		v, err := r.Implementation(key.Contract, key.Qualifier)
		if err != nil {
			continue
		}
		if source == SourceFallback {
			x.logger.Debug("binding found in another resolver",
				zap.Stringer("key", key),
				zap.String("owner", exclude),
				zap.String("from", r.Namespace()),
			)
		}
		return v, r.Namespace(), source, true
	}
	return nil, "", "", false
}

// assign writes value into the field, unexported or not.
func assign(elem reflect.Value, f FieldDescriptor, value any) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%v", rec)
		}
	}()
	fv, err := elem.FieldByIndexErr(f.Index)
	if err != nil {
		return err
	}
	if !fv.CanSet() {
		if !fv.CanAddr() {
			return fmt.Errorf("the field %s is not addressable", f.Name)
		}
		fv = reflect.NewAt(fv.Type(), unsafe.Pointer(fv.UnsafeAddr())).Elem()
	}
	val := reflect.ValueOf(value)
	if !val.Type().AssignableTo(fv.Type()) {
		return fmt.Errorf("%s is not assignable to %s", val.Type(), fv.Type())
	}
	fv.Set(val)
	return nil
}
