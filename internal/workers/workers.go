package workers

import "runtime"

// Count returns a worker count for the given CPU multiplier, capped at limit
// (0 means no cap). It uses GOMAXPROCS so container CPU limits are respected.
func Count(multiplier float64, limit int) int {
	workers := int(float64(runtime.GOMAXPROCS(0)) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForMixed returns worker count for mixed tasks (1.5 per CPU).
func ForMixed(limit int) int {
	return Count(1.5, limit)
}

// DefaultBuildLimit caps the automatic thumbnail pool. Each worker holds a
// fully decoded source image in memory.
const DefaultBuildLimit = 8

// ForBuild returns the thumbnail pool size for one gallery build. A positive
// configured value (BUILD_WORKERS) wins; otherwise the pool is sized for
// mixed work (read, resize, write) up to DefaultBuildLimit.
func ForBuild(configured int) int {
	if configured > 0 {
		return configured
	}
	return ForMixed(DefaultBuildLimit)
}
