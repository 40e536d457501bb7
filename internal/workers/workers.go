package workers

import (
	"os"
	"runtime"
	"strconv"
)

// Environment variables that override pool sizes.
const (
	RenderEnv = "RENDER_WORKERS"
	IndexEnv  = "INDEX_WORKERS"
)

// Count returns the optimal number of workers for a given task type.
// It respects container CPU limits via GOMAXPROCS (Go 1.19+).
//
// The multiplier adjusts for task characteristics:
//   - 1.0 for CPU-bound tasks
//   - 2.0 for I/O-bound tasks
//   - 1.5 for mixed tasks
//
// The limit parameter caps the worker count to prevent resource exhaustion.
// Use 0 for no limit.
func Count(multiplier float64, limit int) int {
	// GOMAXPROCS is automatically set to container CPU limit in Go 1.19+
	available := runtime.GOMAXPROCS(0)

	workers := int(float64(available) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// FromEnv returns the positive integer in the environment variable name,
// capped at limit, or fallback when it is unset or invalid.
func FromEnv(name string, fallback, limit int) int {
	override := os.Getenv(name)
	if override == "" {
		return fallback
	}
	count, err := strconv.Atoi(override)
	if err != nil || count < 1 {
		return fallback
	}
	if limit > 0 && count > limit {
		return limit
	}
	return count
}

// ForCPU returns worker count for CPU-bound tasks (1 per CPU).
// The limit parameter caps the maximum number of workers.
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// ForIO returns worker count for I/O-bound tasks (2 per CPU).
// The limit parameter caps the maximum number of workers.
func ForIO(limit int) int {
	return Count(2.0, limit)
}

// ForMixed returns worker count for mixed tasks (1.5 per CPU).
// The limit parameter caps the maximum number of workers.
func ForMixed(limit int) int {
	return Count(1.5, limit)
}

// ForRender returns how many images may be decoded at once. Decoding is
// CPU-bound and memory hungry; RENDER_WORKERS overrides the default.
func ForRender() int {
	return FromEnv(RenderEnv, ForCPU(8), 64)
}

// ForIndex returns the metadata extraction pool size. INDEX_WORKERS
// overrides the default.
func ForIndex() int {
	return FromEnv(IndexEnv, ForIO(8), 64)
}
