package container

import (
	"fmt"
	"reflect"
	"sync"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// component is one concrete provider. Several service types may point at the
// same component, in which case they share its instances.
type component struct {
	impl       reflect.Type
	ctor       reflect.Value
	params     []reflect.Type
	returnsErr bool
	isInstance bool
	lifetime   Lifetime

	// singleton state
	mu    sync.Mutex
	built bool
	value reflect.Value
}

func newConstructorComponent(ctor any) (*component, error) {
	if ctor == nil {
		return nil, fmt.Errorf("%w: constructor is nil", ErrInvalidConstructor)
	}
	v := reflect.ValueOf(ctor)
	t := v.Type()
	if t.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w: %s is not a function", ErrInvalidConstructor, t)
	}
	if t.IsVariadic() {
		return nil, fmt.Errorf("%w: %s is variadic", ErrInvalidConstructor, t)
	}
	switch t.NumOut() {
	case 1:
	case 2:
		if t.Out(1) != errorType {
			return nil, fmt.Errorf("%w: second return value of %s must be error", ErrInvalidConstructor, t)
		}
	default:
		return nil, fmt.Errorf("%w: %s must return (T) or (T, error)", ErrInvalidConstructor, t)
	}

	params := make([]reflect.Type, t.NumIn())
	for i := range params {
		params[i] = t.In(i)
	}
	return &component{
		impl:       t.Out(0),
		ctor:       v,
		params:     params,
		returnsErr: t.NumOut() == 2,
	}, nil
}

func newInstanceComponent(instance any) (*component, error) {
	if instance == nil {
		return nil, ErrNilInstance
	}
	v := reflect.ValueOf(instance)
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if v.IsNil() {
			return nil, fmt.Errorf("%w: %s", ErrNilInstance, v.Type())
		}
	}
	return &component{
		impl:       v.Type(),
		isInstance: true,
		lifetime:   LifetimeSingleton,
		built:      true,
		value:      v,
	}, nil
}

// satisfies reports whether the component's values can be handed out as svc.
func (c *component) satisfies(svc reflect.Type) bool {
	if svc.Kind() == reflect.Interface {
		return c.impl.Implements(svc)
	}
	return c.impl.AssignableTo(svc)
}
