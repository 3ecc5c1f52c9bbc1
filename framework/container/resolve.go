package container

import (
	"fmt"
	"reflect"
)

// TypeOf returns the reflect.Type of T, including interface types.
//
//	container.TypeOf[services.Devices]()   // the interface, not a pointer to it
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Resolve resolves T from r and type-asserts the result.
//
//	// Instead of: v, err := c.Resolve(container.TypeOf[services.Devices]()); devices := v.(services.Devices)
//	// Write:      devices, err := container.Resolve[services.Devices](c)
func Resolve[T any](r Resolver) (T, error) {
	var zero T
	v, err := r.Resolve(TypeOf[T]())
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("container: Resolve[%s]: resolved to %T", TypeOf[T](), v)
	}
	return typed, nil
}

// MustResolve is like Resolve but panics on failure. Use it only where a
// missing binding is a startup bug.
func MustResolve[T any](r Resolver) T {
	v, err := Resolve[T](r)
	if err != nil {
		panic(err)
	}
	return v
}
