package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation.
// This is useful in shared deployments where different editors or tenants
// need separate cache namespaces.
//
// Example usage:
//
//	// Editor-instance keys for a shared Redis
//	editorKeyer := NewScopedKeyer(NewDefaultKeyer(), "editor:abc123:")
//
//	// Global keys for a single-tenant deployment
//	globalKeyer := NewDefaultKeyer()
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ResultKey generates a prefixed key for a cached action result.
func (k *ScopedKeyer) ResultKey(action, graphHash string) string {
	return k.prefix + k.inner.ResultKey(action, graphHash)
}
