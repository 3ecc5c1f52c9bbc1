package container

import (
	"fmt"
	"reflect"
)

// Descriptor is a service description owned by the host (the HTTP framework,
// the logger, controllers). Hosts hand a slice of them to Populate before any
// auto-wiring happens.
type Descriptor struct {
	Service     reflect.Type
	Constructor any
	Instance    any
	Lifetime    Lifetime
}

// Describe builds a constructor descriptor bound under T.
func Describe[T any](ctor any, lifetime Lifetime) Descriptor {
	return Descriptor{Service: TypeOf[T](), Constructor: ctor, Lifetime: lifetime}
}

// DescribeInstance builds a descriptor for a pre-built value bound under T.
func DescribeInstance[T any](instance T) Descriptor {
	return Descriptor{Service: TypeOf[T](), Instance: instance, Lifetime: LifetimeSingleton}
}

// Populate merges host descriptors into the builder.
func (b *Builder) Populate(descs ...Descriptor) {
	b.checkOpen()
	for _, d := range descs {
		var r *Registration
		switch {
		case d.Instance != nil && d.Constructor != nil:
			b.errs = append(b.errs, fmt.Errorf("%w: descriptor for %v sets both Instance and Constructor", ErrInvalidRegistration, d.Service))
			continue
		case d.Instance != nil:
			r = b.RegisterInstance(d.Instance)
		case d.Constructor != nil:
			r = b.RegisterType(d.Constructor)
			if d.Lifetime == LifetimeSingleton {
				r.SingleInstance()
			}
		default:
			b.errs = append(b.errs, fmt.Errorf("%w: descriptor for %v has no provider", ErrInvalidRegistration, d.Service))
			continue
		}
		r.source = "host"
		if d.Service != nil {
			r.As(d.Service)
		}
	}
}
