package container

import (
	"context"
	"io"
	"reflect"
	"sync"

	"github.com/google/uuid"
)

// Scope is one logical unit of work, usually an HTTP request. Per-scope
// bindings are built once per Scope; singletons come from the root.
//
//	scope := c.BeginScope()
//	defer scope.Close()
//	ctrl, err := container.Resolve[*v1.DevicesController](scope)
type Scope struct {
	id   string
	root *Container

	mu          sync.Mutex
	instances   map[*component]reflect.Value
	disposables []io.Closer
	closed      bool
}

func newScope(root *Container) *Scope {
	return &Scope{
		id:        uuid.NewString(),
		root:      root,
		instances: make(map[*component]reflect.Value),
	}
}

// ID identifies the scope in logs and resolution events.
func (s *Scope) ID() string { return s.id }

func (s *Scope) idOrEmpty() string {
	if s == nil {
		return ""
	}
	return s.id
}

// Resolve returns a value for the service type t within this scope.
func (s *Scope) Resolve(t reflect.Type) (any, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrScopeClosed
	}
	v, err := s.root.resolve(t, s, nil)
	if err != nil {
		return nil, err
	}
	return valueInterface(v), nil
}

// Close disposes the per-scope instances implementing io.Closer, newest
// first. Closing twice is a no-op.
func (s *Scope) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	disposables := s.disposables
	s.disposables = nil
	s.instances = nil
	s.mu.Unlock()

	return closeAll(disposables)
}

// scoped returns the scope's instance of comp, building it on first use.
// Construction runs without the lock so that comp's own per-scope
// dependencies can be resolved from the same scope.
func (s *Scope) scoped(comp *component, path []step) (reflect.Value, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return reflect.Value{}, ErrScopeClosed
	}
	if v, ok := s.instances[comp]; ok {
		s.mu.Unlock()
		return v, nil
	}
	s.mu.Unlock()

	v, err := s.root.construct(comp, s, path)
	if err != nil {
		return reflect.Value{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return reflect.Value{}, ErrScopeClosed
	}
	if existing, ok := s.instances[comp]; ok {
		return existing, nil
	}
	s.instances[comp] = v
	if closer, ok := valueInterface(v).(io.Closer); ok {
		s.disposables = append(s.disposables, closer)
	}
	return v, nil
}

// ── context ───────────────────────────────────────────────────────────────────

type scopeKey struct{}

// WithScope returns a copy of ctx carrying s.
func WithScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// FromContext returns the Scope stored in ctx, if any.
func FromContext(ctx context.Context) (*Scope, bool) {
	s, ok := ctx.Value(scopeKey{}).(*Scope)
	return s, ok && s != nil
}
