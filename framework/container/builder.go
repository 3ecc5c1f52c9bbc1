package container

import (
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

// ── Options ───────────────────────────────────────────────────────────────────

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used for registration diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithStrictAutowire makes Build fail when an interface skipped by
// auto-wiring for having several implementors was never bound explicitly.
func WithStrictAutowire() Option {
	return func(b *Builder) { b.strict = true }
}

// ── Builder ───────────────────────────────────────────────────────────────────

// Builder collects registrations. It is used from a single goroutine during
// startup; Build seals it and returns the immutable Container.
//
//	b := container.NewBuilder(container.WithLogger(logger))
//	b.Populate(hostServices...)
//	b.RegisterModules(services.Module)
//	b.RegisterType(services.NewDeviceRegistry).As(container.TypeOf[services.Devices]()).SingleInstance()
//	c, err := b.Build()
type Builder struct {
	logger        *zap.Logger
	strict        bool
	sealed        bool
	registrations []*Registration
	ambiguous     map[reflect.Type][]reflect.Type
	hooks         []func(ResolvedEvent)
	errs          []error
}

// NewBuilder creates an empty Builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		logger:    zap.NewNop(),
		ambiguous: make(map[reflect.Type][]reflect.Type),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Registration is the fluent handle returned by RegisterType and
// RegisterInstance.
type Registration struct {
	comp     *component
	services []reflect.Type
	err      error
	source   string
}

// As binds the registration under the given service types. Without As the
// registration is bound under its own concrete type.
func (r *Registration) As(types ...reflect.Type) *Registration {
	for _, t := range types {
		if t == nil {
			r.fail(fmt.Errorf("%w: nil service type", ErrInvalidRegistration))
			continue
		}
		r.services = append(r.services, t)
	}
	return r
}

// SingleInstance shares one instance for the life of the container.
func (r *Registration) SingleInstance() *Registration {
	if r.comp != nil {
		r.comp.lifetime = LifetimeSingleton
	}
	return r
}

// InstancePerScope builds one instance per Scope. Pre-built instances cannot
// be scoped.
func (r *Registration) InstancePerScope() *Registration {
	if r.comp == nil {
		return r
	}
	if r.comp.isInstance {
		r.fail(fmt.Errorf("%w: instance of %s is always single-instance", ErrInvalidRegistration, r.comp.impl))
		return r
	}
	r.comp.lifetime = LifetimeScoped
	return r
}

func (r *Registration) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (b *Builder) checkOpen() {
	if b.sealed {
		panic(ErrBuilderSealed)
	}
}

// RegisterType registers a constructor. Its parameters are resolved from the
// container; it returns (T) or (T, error).
func (b *Builder) RegisterType(ctor any) *Registration {
	b.checkOpen()
	comp, err := newConstructorComponent(ctor)
	r := &Registration{comp: comp, err: err, source: "explicit"}
	b.registrations = append(b.registrations, r)
	return r
}

// RegisterInstance registers a pre-built value. Instances are always
// single-instance.
func (b *Builder) RegisterInstance(instance any) *Registration {
	b.checkOpen()
	comp, err := newInstanceComponent(instance)
	r := &Registration{comp: comp, err: err, source: "explicit"}
	b.registrations = append(b.registrations, r)
	return r
}

// AfterResolving registers a callback fired after every successful resolution.
func (b *Builder) AfterResolving(fn func(ResolvedEvent)) {
	b.checkOpen()
	if fn != nil {
		b.hooks = append(b.hooks, fn)
	}
}

// ── Build ─────────────────────────────────────────────────────────────────────

// Build validates every registration and returns the finalized Container.
// Later registrations for the same service type override earlier ones.
func (b *Builder) Build() (*Container, error) {
	if b.sealed {
		return nil, ErrBuilderSealed
	}
	b.sealed = true

	errs := append([]error{}, b.errs...)
	bindings := make(map[reflect.Type]*binding)

	for _, r := range b.registrations {
		if r.err != nil {
			errs = append(errs, r.err)
			continue
		}
		services := r.services
		if len(services) == 0 {
			services = []reflect.Type{r.comp.impl}
		}
		for _, svc := range services {
			if !r.comp.satisfies(svc) {
				errs = append(errs, fmt.Errorf("%w: %s as %s", ErrNotImplemented, r.comp.impl, svc))
				continue
			}
			if prev, ok := bindings[svc]; ok && prev.comp != r.comp {
				b.logger.Debug("binding overridden",
					zap.Stringer("service", svc),
					zap.Stringer("previous", prev.comp.impl),
					zap.Stringer("implementation", r.comp.impl),
					zap.String("source", r.source))
			}
			bindings[svc] = &binding{service: svc, comp: r.comp, source: r.source}
		}
	}

	ambiguous := make(map[reflect.Type][]reflect.Type)
	for svc, impls := range b.ambiguous {
		if _, ok := bindings[svc]; ok {
			continue
		}
		ambiguous[svc] = impls
		b.logger.Warn("interface left unbound: several implementations",
			zap.Stringer("service", svc),
			zap.String("implementations", typeList(impls)))
		if b.strict {
			errs = append(errs, &NotRegisteredError{Type: svc, Candidates: impls})
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("container: build failed: %w", err)
	}

	b.logger.Debug("container built",
		zap.Int("bindings", len(bindings)),
		zap.Int("ambiguous", len(ambiguous)))

	return &Container{
		bindings:  bindings,
		ambiguous: ambiguous,
		hooks:     append([]func(ResolvedEvent){}, b.hooks...),
		logger:    b.logger,
	}, nil
}
