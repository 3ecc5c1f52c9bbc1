// Package dependencyresolution is the composition root of the web service:
// it builds the dependency container once at startup and exposes it through
// a Factory.
package dependencyresolution

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/km-arc/iothub-manager/framework/config"
	"github.com/km-arc/iothub-manager/framework/container"
	"github.com/km-arc/iothub-manager/services"
	servicesruntime "github.com/km-arc/iothub-manager/services/runtime"
	"github.com/km-arc/iothub-manager/services/storage"
	"github.com/km-arc/iothub-manager/webservice/runtime"
)

// Module is the registration table of the web service itself.
var Module = container.Module{
	Name: "webservice",
	Interfaces: []reflect.Type{
		container.TypeOf[runtime.Config](),
		container.TypeOf[Factory](),
	},
	Constructors: []any{
		runtime.NewConfig,
		NewFactory,
	},
}

type options struct {
	logger  *zap.Logger
	config  *runtime.AppConfig
	factory *ContainerFactory
	strict  bool
	modules []container.Module
	hooks   []func(container.ResolvedEvent)
}

// Option configures Setup.
type Option func(*options)

// WithLogger sets the logger for registration diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithConfig registers cfg instead of reading the configuration data again.
func WithConfig(cfg *runtime.AppConfig) Option {
	return func(o *options) { o.config = cfg }
}

// WithFactory registers the container in f instead of Default().
func WithFactory(f *ContainerFactory) Option {
	return func(o *options) { o.factory = f }
}

// WithStrictAutowire fails Setup when an ambiguous interface stays unbound.
func WithStrictAutowire() Option {
	return func(o *options) { o.strict = true }
}

// WithModules adds registration tables to the auto-wiring pass.
func WithModules(mods ...container.Module) Option {
	return func(o *options) { o.modules = append(o.modules, mods...) }
}

// WithResolutionHook observes every resolution (metrics).
func WithResolutionHook(fn func(container.ResolvedEvent)) Option {
	return func(o *options) { o.hooks = append(o.hooks, fn) }
}

// Setup builds the container: host services first, then auto-wiring, then
// the custom rules that override it. The finalized container is registered
// in the factory and returned to the host.
//
// Setup runs once, before any request is served.
func Setup(hostServices []container.Descriptor, data *config.ConfigData, opts ...Option) (*container.Container, error) {
	o := options{logger: zap.NewNop(), factory: Default()}
	for _, opt := range opts {
		opt(&o)
	}

	builderOpts := []container.Option{container.WithLogger(o.logger.Named("container"))}
	if o.strict {
		builderOpts = append(builderOpts, container.WithStrictAutowire())
	}
	builder := container.NewBuilder(builderOpts...)
	builder.Populate(hostServices...)
	for _, fn := range o.hooks {
		builder.AfterResolving(fn)
	}

	autowireModules(builder, o.modules)
	if err := setupCustomRules(builder, data, o.config, o.factory); err != nil {
		return nil, err
	}

	c, err := builder.Build()
	if err != nil {
		return nil, err
	}
	if err := registerFactory(o.factory, c); err != nil {
		return nil, err
	}
	return c, nil
}

// autowireModules binds every type of the web service and the device
// services to the interfaces it implements. Only interfaces with a single
// implementation get bound.
func autowireModules(builder *container.Builder, extra []container.Module) {
	mods := append([]container.Module{Module, services.Module}, extra...)
	builder.RegisterModules(mods...)
}

// setupCustomRules overrides the auto-wired bindings.
func setupCustomRules(builder *container.Builder, data *config.ConfigData, cfg *runtime.AppConfig, factory *ContainerFactory) error {
	// The configuration is read only once.
	if cfg == nil {
		var err error
		if cfg, err = runtime.NewConfig(data); err != nil {
			return err
		}
	}
	builder.RegisterInstance(cfg).As(container.TypeOf[runtime.Config]())

	// The services configuration is produced by the web service
	// configuration, so the instance is prepared here.
	builder.RegisterInstance(cfg.ServicesConfig()).As(container.TypeOf[servicesruntime.ServicesConfig]())

	// Per-scope is the default lifetime; these two are shared instead to
	// avoid building them on every request. Their state is shared by every
	// request in exchange.
	builder.RegisterType(services.NewDeviceRegistry).
		As(container.TypeOf[services.Devices]()).
		SingleInstance()
	builder.RegisterType(services.NewTwinRegistry).
		As(container.TypeOf[services.DeviceTwins]()).
		SingleInstance()

	// bbolt locks its file: the store is opened once per process.
	builder.RegisterType(storage.NewBoltStore).
		As(container.TypeOf[storage.Store]()).
		SingleInstance()

	builder.RegisterInstance(factory).As(container.TypeOf[Factory]())
	return nil
}

func registerFactory(factory *ContainerFactory, c *container.Container) error {
	if err := factory.RegisterContainer(c); err != nil {
		return fmt.Errorf("dependencyresolution: register factory: %w", err)
	}
	return nil
}
