package container

// Lifetime decides how many instances a binding produces.
type Lifetime int

const (
	// LifetimeScoped builds one instance per Scope (one per request).
	// This is the default for every registration.
	LifetimeScoped Lifetime = iota

	// LifetimeSingleton builds one instance for the life of the container.
	LifetimeSingleton
)

// String returns the lifetime name used in logs and binding listings.
func (l Lifetime) String() string {
	switch l {
	case LifetimeScoped:
		return "per-scope"
	case LifetimeSingleton:
		return "singleton"
	default:
		return "unknown"
	}
}
