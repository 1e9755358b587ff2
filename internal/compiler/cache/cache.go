// Package cache stores compiled bytecode keyed by the source
// fingerprint. A miss is always a valid outcome; callers must be able
// to recompile.
package cache

import "context"

// Artifact is compiled bytecode for one source fingerprint.
type Artifact struct {
	ClassName string
	Bytecode  []byte
}

// Cache is the artifact cache consulted by the pipeline. Implementations
// must be safe for concurrent use; a Get racing a Put for the same
// fingerprint resolves as last-put-wins.
type Cache interface {
	Get(ctx context.Context, fingerprint string) (Artifact, bool)
	Put(ctx context.Context, fingerprint string, artifact Artifact)
}
