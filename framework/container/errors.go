package container

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	ErrNotRegistered       = errors.New("container: service not registered")
	ErrAmbiguous           = errors.New("container: ambiguous binding")
	ErrCircularDependency  = errors.New("container: circular dependency")
	ErrInvalidConstructor  = errors.New("container: invalid constructor")
	ErrInvalidRegistration = errors.New("container: invalid registration")
	ErrNotImplemented      = errors.New("container: implementation does not satisfy service type")
	ErrNilInstance         = errors.New("container: registered instance is nil")
	ErrBuilderSealed       = errors.New("container: builder already built")
	ErrScopeClosed         = errors.New("container: scope is closed")
)

// NotRegisteredError is returned when a service type has no binding.
// Candidates lists the implementors found by auto-wiring when the type was
// skipped because more than one of them implements it.
type NotRegisteredError struct {
	Type       reflect.Type
	Candidates []reflect.Type
}

func (e *NotRegisteredError) Error() string {
	if len(e.Candidates) == 0 {
		return fmt.Sprintf("container: no binding registered for [%s]", e.Type)
	}
	return fmt.Sprintf("container: no binding registered for [%s] (ambiguous: %s)",
		e.Type, typeList(e.Candidates))
}

// Is lets errors.Is match ErrNotRegistered, and ErrAmbiguous when the miss
// was caused by several implementors.
func (e *NotRegisteredError) Is(target error) bool {
	switch target {
	case ErrNotRegistered:
		return true
	case ErrAmbiguous:
		return len(e.Candidates) > 1
	}
	return false
}

func typeList(types []reflect.Type) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return strings.Join(names, ", ")
}

func pathString(path []step, last reflect.Type) string {
	names := make([]string, 0, len(path)+1)
	for _, p := range path {
		names = append(names, p.service.String())
	}
	return strings.Join(append(names, last.String()), " -> ")
}
