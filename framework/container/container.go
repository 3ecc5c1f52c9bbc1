package container

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// binding maps one service type onto a component.
type binding struct {
	service reflect.Type
	comp    *component
	source  string
}

// step is one entry of the resolution path.
type step struct {
	service reflect.Type
	comp    *component
}

// ResolvedEvent is passed to AfterResolving callbacks.
type ResolvedEvent struct {
	Service        reflect.Type
	Implementation reflect.Type
	Lifetime       Lifetime
	ScopeID        string // empty when resolved from the root
}

// BindingInfo describes one entry of the finalized registry.
type BindingInfo struct {
	Service        reflect.Type
	Implementation reflect.Type
	Lifetime       Lifetime
	Instance       bool
	Source         string
}

// ── Container ─────────────────────────────────────────────────────────────────

// Container is the finalized binding registry. Its bindings never change
// after Build, so it is safe for concurrent use.
//
// Per-scope bindings resolved directly from the Container (outside any Scope)
// produce a fresh instance on every call; there is no unit of work to cache
// them in.
type Container struct {
	bindings  map[reflect.Type]*binding
	ambiguous map[reflect.Type][]reflect.Type
	hooks     []func(ResolvedEvent)
	logger    *zap.Logger

	mu          sync.Mutex
	disposables []io.Closer
	closed      bool
}

// Resolver is anything that can hand out services by type.
type Resolver interface {
	Resolve(t reflect.Type) (any, error)
}

// Resolve returns a value for the service type t.
//
//	v, err := c.Resolve(container.TypeOf[services.Devices]())
func (c *Container) Resolve(t reflect.Type) (any, error) {
	v, err := c.resolve(t, nil, nil)
	if err != nil {
		return nil, err
	}
	return valueInterface(v), nil
}

// BeginScope opens a new unit of work.
func (c *Container) BeginScope() *Scope {
	return newScope(c)
}

// Bound reports whether t has a binding.
func (c *Container) Bound(t reflect.Type) bool {
	_, ok := c.bindings[t]
	return ok
}

// Ambiguous returns the interfaces auto-wiring skipped and nothing overrode,
// with their implementors.
func (c *Container) Ambiguous() map[reflect.Type][]reflect.Type {
	out := make(map[reflect.Type][]reflect.Type, len(c.ambiguous))
	for k, v := range c.ambiguous {
		out[k] = append([]reflect.Type{}, v...)
	}
	return out
}

// Bindings lists the registry sorted by service type name.
func (c *Container) Bindings() []BindingInfo {
	out := make([]BindingInfo, 0, len(c.bindings))
	for _, b := range c.bindings {
		out = append(out, BindingInfo{
			Service:        b.service,
			Implementation: b.comp.impl,
			Lifetime:       b.comp.lifetime,
			Instance:       b.comp.isInstance,
			Source:         b.source,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Service.String() < out[j].Service.String()
	})
	return out
}

// Close disposes every singleton the container built that implements
// io.Closer, newest first. Pre-registered instances belong to their owner and
// are left alone.
func (c *Container) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	disposables := c.disposables
	c.disposables = nil
	c.mu.Unlock()

	return closeAll(disposables)
}

func (c *Container) track(v reflect.Value) {
	closer, ok := valueInterface(v).(io.Closer)
	if !ok {
		return
	}
	c.mu.Lock()
	c.disposables = append(c.disposables, closer)
	c.mu.Unlock()
}

// ── Resolution ────────────────────────────────────────────────────────────────

func (c *Container) resolve(t reflect.Type, s *Scope, path []step) (reflect.Value, error) {
	if t == nil {
		return reflect.Value{}, fmt.Errorf("%w: nil service type", ErrNotRegistered)
	}
	b, ok := c.bindings[t]
	if !ok {
		return reflect.Value{}, &NotRegisteredError{Type: t, Candidates: c.ambiguous[t]}
	}
	// A component may sit behind several service types, so a cycle through
	// an alias is caught by the component, not only by the type.
	for _, p := range path {
		if p.service == t || p.comp == b.comp {
			return reflect.Value{}, fmt.Errorf("%w: %s", ErrCircularDependency, pathString(path, t))
		}
	}
	path = append(path, step{service: t, comp: b.comp})

	var (
		v   reflect.Value
		err error
	)
	switch {
	case b.comp.isInstance:
		v = b.comp.value
	case b.comp.lifetime == LifetimeSingleton:
		v, err = c.singleton(b.comp, path)
	case s != nil:
		v, err = s.scoped(b.comp, path)
	default:
		v, err = c.construct(b.comp, nil, path)
	}
	if err != nil {
		return reflect.Value{}, err
	}

	c.fire(ResolvedEvent{
		Service:        t,
		Implementation: b.comp.impl,
		Lifetime:       b.comp.lifetime,
		ScopeID:        s.idOrEmpty(),
	})
	return v, nil
}

// singleton builds comp once. Its dependencies come from the root, never from
// the scope that happened to trigger construction.
func (c *Container) singleton(comp *component, path []step) (reflect.Value, error) {
	comp.mu.Lock()
	defer comp.mu.Unlock()
	if comp.built {
		return comp.value, nil
	}
	v, err := c.construct(comp, nil, path)
	if err != nil {
		return reflect.Value{}, err
	}
	comp.value = v
	comp.built = true
	c.track(v)
	return v, nil
}

func (c *Container) construct(comp *component, s *Scope, path []step) (reflect.Value, error) {
	args := make([]reflect.Value, len(comp.params))
	for i, p := range comp.params {
		v, err := c.resolve(p, s, path)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("container: resolve %s for %s: %w", p, comp.impl, err)
		}
		args[i] = convert(v, p)
	}

	out := comp.ctor.Call(args)
	if comp.returnsErr && !out[1].IsNil() {
		return reflect.Value{}, fmt.Errorf("container: construct %s: %w", comp.impl, out[1].Interface().(error))
	}
	return out[0], nil
}

func (c *Container) fire(ev ResolvedEvent) {
	for _, fn := range c.hooks {
		fn(ev)
	}
}

// ── helpers ───────────────────────────────────────────────────────────────────

// convert adapts a resolved value to a constructor parameter type.
func convert(v reflect.Value, to reflect.Type) reflect.Value {
	if !v.IsValid() {
		return reflect.Zero(to)
	}
	if v.Type() == to {
		return v
	}
	if v.Kind() == reflect.Interface && v.IsNil() {
		return reflect.Zero(to)
	}
	return v.Convert(to)
}

func valueInterface(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}
	return v.Interface()
}

func closeAll(closers []io.Closer) error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
