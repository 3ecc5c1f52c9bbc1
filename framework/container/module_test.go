package container_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/km-arc/iothub-manager/framework/container"
)

type Pinger interface{ Ping() error }

type Store interface {
	Pinger
	Get(key string) string
}

type memStore struct{}

func (memStore) Ping() error           { return nil }
func (memStore) Get(key string) string { return key }

type Reporter interface{ Report() string }

type reporter struct{ store Store }

func (r *reporter) Ping() error    { return r.store.Ping() }
func (r *reporter) Report() string { return r.store.Get("report") }

type Unused interface{ Unused() }

var fixtureModule = container.Module{
	Name: "fixtures",
	Interfaces: []reflect.Type{
		container.TypeOf[Store](),
		container.TypeOf[Reporter](),
		container.TypeOf[Pinger](),
		container.TypeOf[Unused](),
	},
	Constructors: []any{
		func() memStore { return memStore{} },
		func(s Store) *reporter { return &reporter{store: s} },
	},
}

func TestRegisterModules_BindsUniqueInterfaces(t *testing.T) {
	b := container.NewBuilder()
	report := b.RegisterModules(fixtureModule)

	assert.Equal(t, reflect.TypeOf(memStore{}), report.Bound[container.TypeOf[Store]()])
	assert.Equal(t, reflect.TypeOf(&reporter{}), report.Bound[container.TypeOf[Reporter]()])
	assert.Len(t, report.Ambiguous[container.TypeOf[Pinger]()], 2)
	assert.Equal(t, []reflect.Type{container.TypeOf[Unused]()}, report.Unimplemented)

	c, err := b.Build()
	require.NoError(t, err)

	r, err := container.Resolve[Reporter](c.BeginScope())
	require.NoError(t, err)
	assert.Equal(t, "report", r.Report())
}

func TestRegisterModules_AutowiredIsPerScope(t *testing.T) {
	b := container.NewBuilder()
	b.RegisterModules(fixtureModule)
	c, err := b.Build()
	require.NoError(t, err)

	bindings := map[reflect.Type]container.BindingInfo{}
	for _, bi := range c.Bindings() {
		bindings[bi.Service] = bi
	}
	info := bindings[container.TypeOf[Reporter]()]
	assert.Equal(t, container.LifetimeScoped, info.Lifetime)
	assert.Equal(t, "autowire:fixtures", info.Source)

	s1, s2 := c.BeginScope(), c.BeginScope()
	assert.Same(t, container.MustResolve[Reporter](s1), container.MustResolve[Reporter](s1))
	assert.NotSame(t, container.MustResolve[Reporter](s1), container.MustResolve[Reporter](s2))
}

func TestRegisterModules_AmbiguousIsUnresolvable(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	b := container.NewBuilder(container.WithLogger(zap.New(core)))
	b.RegisterModules(fixtureModule)
	c, err := b.Build()
	require.NoError(t, err)

	_, err = container.Resolve[Pinger](c)
	require.ErrorIs(t, err, container.ErrAmbiguous)
	require.ErrorIs(t, err, container.ErrNotRegistered)

	var nre *container.NotRegisteredError
	require.ErrorAs(t, err, &nre)
	assert.Len(t, nre.Candidates, 2)

	assert.Len(t, c.Ambiguous(), 1)
	assert.Equal(t, 1, logs.FilterMessage("interface left unbound: several implementations").Len())
}

func TestRegisterModules_StrictFailsOnAmbiguity(t *testing.T) {
	b := container.NewBuilder(container.WithStrictAutowire())
	b.RegisterModules(fixtureModule)
	_, err := b.Build()
	assert.ErrorIs(t, err, container.ErrAmbiguous)
}

func TestRegisterModules_ExplicitOverrideResolvesAmbiguity(t *testing.T) {
	b := container.NewBuilder(container.WithStrictAutowire())
	b.RegisterModules(fixtureModule)
	b.RegisterInstance(memStore{}).As(container.TypeOf[Pinger]())
	c, err := b.Build()
	require.NoError(t, err)

	p, err := container.Resolve[Pinger](c)
	require.NoError(t, err)
	assert.IsType(t, memStore{}, p)
	assert.Empty(t, c.Ambiguous())
}

func TestRegisterModules_ExplicitOverrideWins(t *testing.T) {
	b := container.NewBuilder()
	b.RegisterModules(fixtureModule)
	b.RegisterType(func(s Store) *reporter { return &reporter{store: s} }).
		As(container.TypeOf[Reporter]()).
		SingleInstance()
	c, err := b.Build()
	require.NoError(t, err)

	assert.Same(t,
		container.MustResolve[Reporter](c.BeginScope()),
		container.MustResolve[Reporter](c.BeginScope()))
}

func TestRegisterModules_InvalidConstructor(t *testing.T) {
	b := container.NewBuilder()
	b.RegisterModules(container.Module{Name: "broken", Constructors: []any{"nope"}})
	_, err := b.Build()
	assert.ErrorIs(t, err, container.ErrInvalidConstructor)
}

// ── Populate ─────────────────────────────────────────────────────────────────

func TestPopulate_HostDescriptors(t *testing.T) {
	b := container.NewBuilder()
	b.Populate(
		container.DescribeInstance[Store](memStore{}),
		container.Describe[Reporter](func(s Store) *reporter { return &reporter{store: s} }, container.LifetimeSingleton),
	)
	c, err := b.Build()
	require.NoError(t, err)

	r1 := container.MustResolve[Reporter](c.BeginScope())
	r2 := container.MustResolve[Reporter](c.BeginScope())
	assert.Same(t, r1, r2)

	for _, bi := range c.Bindings() {
		assert.Equal(t, "host", bi.Source)
	}
}

func TestPopulate_AutowireOverridesHost(t *testing.T) {
	type hostStore struct{ memStore }
	b := container.NewBuilder()
	b.Populate(container.DescribeInstance[Store](hostStore{}))
	b.RegisterModules(fixtureModule)
	c, err := b.Build()
	require.NoError(t, err)

	s := container.MustResolve[Store](c.BeginScope())
	assert.IsType(t, memStore{}, s)
}

func TestPopulate_InvalidDescriptors(t *testing.T) {
	tests := []struct {
		name string
		desc container.Descriptor
	}{
		{"no provider", container.Descriptor{Service: container.TypeOf[Store]()}},
		{"both providers", container.Descriptor{
			Service:     container.TypeOf[Store](),
			Instance:    memStore{},
			Constructor: func() memStore { return memStore{} },
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := container.NewBuilder()
			b.Populate(tt.desc)
			_, err := b.Build()
			assert.ErrorIs(t, err, container.ErrInvalidRegistration)
		})
	}
}

// ── context ───────────────────────────────────────────────────────────────────

func TestScopeContext(t *testing.T) {
	c, err := container.NewBuilder().Build()
	require.NoError(t, err)

	_, ok := container.FromContext(context.Background())
	assert.False(t, ok)

	s := c.BeginScope()
	got, ok := container.FromContext(container.WithScope(context.Background(), s))
	require.True(t, ok)
	assert.Same(t, s, got)
}
