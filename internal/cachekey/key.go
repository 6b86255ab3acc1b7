// Package cachekey derives deterministic cache keys from the platform, the
// Python runtime version, and the content of files matched by glob patterns.
package cachekey

import "fmt"

const prefix = "mypycify"

// Scope namespaces one cache family from another. Wheel archives, compiler
// caches and pip caches derived from the same digest must never collide.
type Scope string

const (
	ScopeWheels Scope = "wheels"
	ScopeCcache Scope = "ccache"
	ScopePip    Scope = "pip"
)

// Key identifies a cache entry. Equal inputs always produce the equal key;
// any change to platform, runtime or hashed content produces a different one.
type Key struct {
	Scope    Scope
	Platform string
	Runtime  string
	Digest   string
}

// String renders the full cache key.
func (k Key) String() string {
	return fmt.Sprintf("%s-%s-%s-py%s-%s", prefix, k.Scope, k.Platform, k.Runtime, k.Digest)
}

// RestorePrefix returns the key without its digest component. Additive caches
// (ccache, pip) use it as a fallback lookup when the exact digest misses; a
// stale entry still seeds useful state there.
func (k Key) RestorePrefix() string {
	return fmt.Sprintf("%s-%s-%s-py%s-", prefix, k.Scope, k.Platform, k.Runtime)
}
