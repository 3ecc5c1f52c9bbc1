// Package container is the binding registry behind the web service's
// composition root.
//
// # Lifecycle
//
//  1. Create:     b := container.NewBuilder(container.WithLogger(logger))
//  2. Populate:   b.Populate(hostDescriptors...)   // services owned by the host
//  3. Auto-wire:  b.RegisterModules(dependencyresolution.Module, services.Module)
//  4. Override:   b.RegisterInstance(cfg).As(container.TypeOf[runtime.Config]())
//  5. Build:      c, err := b.Build()              // immutable from here on
//  6. Serve:      one Scope per request, c.Close() at shutdown
//
// # Bindings
//
// A binding maps a service type (usually an interface) onto a constructor or
// a pre-built instance, plus a lifetime:
//
//	// per-scope (default): one instance per Scope
//	b.RegisterType(services.NewQuery).As(container.TypeOf[services.DeviceQuery]())
//
//	// singleton: one instance for the life of the container
//	b.RegisterType(services.NewDeviceRegistry).
//	    As(container.TypeOf[services.Devices]()).
//	    SingleInstance()
//
//	// pre-built value, always singleton
//	b.RegisterInstance(cfg).As(container.TypeOf[runtime.Config]())
//
// Constructors are plain functions returning (T) or (T, error). Their
// parameters are resolved from the container.
//
// # Auto-wiring
//
// Each package exports a Module listing its interfaces and constructors.
// RegisterModules binds every constructed type under every listed interface
// it implements, as long as that interface has exactly one implementor across
// the pass. Interfaces with several implementors stay unbound, are logged,
// and resolve to a NotRegisteredError unless an explicit registration covers
// them. WithStrictAutowire turns the leftover ones into a Build error.
//
// # Resolving
//
//	devices, err := container.Resolve[services.Devices](c)
//
//	scope := c.BeginScope()
//	defer scope.Close()
//	query := container.MustResolve[services.DeviceQuery](scope)
package container
