package container

import "reflect"

// Discovery supplies candidate types for a namespace. The container never
// scans anything itself; catalog.Catalog is the implementation shipped with
// this module.
//
// Scopes are plain namespace strings. How a scope selects types is up to the
// implementation.
type Discovery interface {
	// MarkedContracts returns every contract under scope marked as injectable.
	MarkedContracts(scope string) ([]reflect.Type, error)

	// Subtypes returns the concrete candidates under scope that realize of.
	Subtypes(scope string, of reflect.Type) ([]Descriptor, error)
}
