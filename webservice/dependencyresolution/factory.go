package dependencyresolution

import (
	"errors"
	"reflect"
	"sync"

	"github.com/km-arc/iothub-manager/framework/container"
)

var (
	ErrFactoryNotReady          = errors.New("dependencyresolution: factory used before Setup registered a container")
	ErrFactoryAlreadyRegistered = errors.New("dependencyresolution: factory container already registered")
)

// Factory resolves dependencies that are needed several times during one
// execution and cannot all be received through the constructor.
//
//	type Lister struct{ factory dependencyresolution.Factory }
//
//	func (l *Lister) All(ctx context.Context) {
//	    q1, _ := dependencyresolution.Resolve[services.DeviceQuery](l.factory)
//	    q2, _ := dependencyresolution.Resolve[services.DeviceQuery](l.factory)
//	}
type Factory interface {
	Resolve(t reflect.Type) (any, error)
}

// Resolve resolves T through f.
func Resolve[T any](f Factory) (T, error) {
	return container.Resolve[T](f)
}

// ContainerFactory is a Factory backed by the finalized container. The
// container is registered once; every later registration fails. Resolving
// before registration is a precondition violation reported as
// ErrFactoryNotReady.
type ContainerFactory struct {
	mu sync.RWMutex
	c  *container.Container
}

// NewFactory returns an empty factory.
func NewFactory() *ContainerFactory {
	return &ContainerFactory{}
}

// RegisterContainer stores c. It succeeds only once.
func (f *ContainerFactory) RegisterContainer(c *container.Container) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.c != nil {
		return ErrFactoryAlreadyRegistered
	}
	f.c = c
	return nil
}

// Ready reports whether a container has been registered.
func (f *ContainerFactory) Ready() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.c != nil
}

func (f *ContainerFactory) Resolve(t reflect.Type) (any, error) {
	f.mu.RLock()
	c := f.c
	f.mu.RUnlock()
	if c == nil {
		return nil, ErrFactoryNotReady
	}
	return c.Resolve(t)
}

var defaultFactory = NewFactory()

// Default returns the process-wide factory Setup registers the container in.
func Default() *ContainerFactory {
	return defaultFactory
}
