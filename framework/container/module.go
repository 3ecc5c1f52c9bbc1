package container

import (
	"reflect"

	"go.uber.org/zap"
)

// Module is the registration table of one package: the interfaces it
// declares and the constructors of its public concrete types. Go cannot list
// the types of a package at runtime, so each package exports its Module and
// the composition root scans those tables instead.
//
//	var Module = container.Module{
//	    Name:         "services",
//	    Interfaces:   []reflect.Type{container.TypeOf[Devices]()},
//	    Constructors: []any{NewDeviceRegistry},
//	}
type Module struct {
	Name         string
	Interfaces   []reflect.Type
	Constructors []any
}

// AutowireReport describes the outcome of one RegisterModules pass.
type AutowireReport struct {
	// Bound maps each interface to the only type implementing it.
	Bound map[reflect.Type]reflect.Type
	// Ambiguous maps each skipped interface to its implementors.
	Ambiguous map[reflect.Type][]reflect.Type
	// Unimplemented lists declared interfaces nothing implements.
	Unimplemented []reflect.Type
}

// RegisterModules registers every constructor of mods under every declared
// interface its type implements, skipping interfaces implemented by more
// than one type across the whole pass. Auto-wired bindings are per-scope and
// lose to any explicit registration made afterwards.
func (b *Builder) RegisterModules(mods ...Module) AutowireReport {
	b.checkOpen()
	report := AutowireReport{
		Bound:     make(map[reflect.Type]reflect.Type),
		Ambiguous: make(map[reflect.Type][]reflect.Type),
	}

	type candidate struct {
		module string
		comp   *component
	}
	var candidates []candidate
	var interfaces []reflect.Type
	seen := make(map[reflect.Type]bool)

	for _, m := range mods {
		for _, ctor := range m.Constructors {
			comp, err := newConstructorComponent(ctor)
			if err != nil {
				b.errs = append(b.errs, err)
				continue
			}
			candidates = append(candidates, candidate{module: m.Name, comp: comp})
		}
		for _, iface := range m.Interfaces {
			if iface == nil || iface.Kind() != reflect.Interface || seen[iface] {
				continue
			}
			seen[iface] = true
			interfaces = append(interfaces, iface)
		}
	}

	services := make(map[*component][]reflect.Type)
	for _, iface := range interfaces {
		var impls []*component
		for _, c := range candidates {
			if c.comp.satisfies(iface) {
				impls = append(impls, c.comp)
			}
		}
		switch len(impls) {
		case 0:
			report.Unimplemented = append(report.Unimplemented, iface)
		case 1:
			services[impls[0]] = append(services[impls[0]], iface)
			report.Bound[iface] = impls[0].impl
		default:
			types := make([]reflect.Type, len(impls))
			for i, c := range impls {
				types[i] = c.impl
			}
			report.Ambiguous[iface] = types
			b.ambiguous[iface] = types
		}
	}

	for _, c := range candidates {
		ifaces, ok := services[c.comp]
		if !ok {
			continue
		}
		r := &Registration{comp: c.comp, source: "autowire:" + c.module}
		r.As(ifaces...)
		b.registrations = append(b.registrations, r)
	}

	b.logger.Info("modules auto-wired",
		zap.Int("modules", len(mods)),
		zap.Int("bound", len(report.Bound)),
		zap.Int("ambiguous", len(report.Ambiguous)))
	return report
}
