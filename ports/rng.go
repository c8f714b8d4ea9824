package ports

import (
	"context"
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic operations
type RNGPort interface {
	// SeededStream creates a deterministic random number generator for a named operation
	SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error)

	// WorkerStream derives an independent deterministic stream for one
	// simulation worker from the master seed and worker index. Streams for
	// distinct (name, worker) pairs never share state, so parallel
	// repetitions stay both race-free and reproducible.
	WorkerStream(ctx context.Context, name string, masterSeed int64, worker int) (*rand.Rand, error)
}
