package tuner

// Worker configuration limits.
const (
	// maxWorkers is the maximum number of hashing workers.
	maxWorkers = 64

	// minWorkers is the minimum number of hashing workers.
	minWorkers = 4

	// workersPerCore oversubscribes cores while tasks wait on reads.
	workersPerCore = 4
)

// Read buffer sizing constants.
const (
	// minChunkSize is the smallest read chunk the tuner recommends.
	minChunkSize = 64 * 1024

	// maxChunkSize is the largest read chunk the tuner recommends.
	maxChunkSize = 1024 * 1024

	// bufferMemoryFraction is the share of available RAM all in-flight
	// read buffers may occupy together.
	bufferMemoryFraction = 0.01
)

// OptimalConfig contains the tuned worker configuration.
type OptimalConfig struct {
	// Workers is the number of concurrent digest tasks.
	Workers int

	// ChunkSize is the recommended per-task read chunk in bytes.
	ChunkSize int
}

// Calculate returns optimal configuration based on system resources.
//
//   - Workers: NumCPU * 4, at least 4 and at most 64
//   - ChunkSize: an even share of 1% of available RAM per worker, clamped
//     to [64 KiB, 1 MiB] and rounded down to a power of two
func Calculate(resources SystemResources) OptimalConfig {
	workers := resources.CPUCores * workersPerCore
	workers = max(workers, minWorkers)
	workers = min(workers, maxWorkers)

	return OptimalConfig{
		Workers:   workers,
		ChunkSize: calculateChunkSize(resources.AvailableRAM, workers),
	}
}

// CalculateWithOverrides applies user overrides to the optimal config.
// A workerOverride greater than 0 replaces the calculated worker count
// (still capped at 64).
func CalculateWithOverrides(resources SystemResources, workerOverride int) OptimalConfig {
	config := Calculate(resources)

	if workerOverride > 0 {
		config.Workers = min(workerOverride, maxWorkers)
		config.ChunkSize = calculateChunkSize(resources.AvailableRAM, config.Workers)
	}

	return config
}

// Workers detects the system resources and returns the worker count to
// use. Detection failures fall back to the minimum pool size.
func Workers(override int) int {
	resources, err := Detect()
	if err != nil && resources.CPUCores == 0 {
		if override > 0 {
			return min(override, maxWorkers)
		}
		return minWorkers
	}
	return CalculateWithOverrides(resources, override).Workers
}

func calculateChunkSize(availableRAM int64, workers int) int {
	if workers <= 0 {
		workers = minWorkers
	}
	share := int64(float64(availableRAM)*bufferMemoryFraction) / int64(workers)

	chunk := int64(minChunkSize)
	for chunk*2 <= share && chunk*2 <= maxChunkSize {
		chunk *= 2
	}
	return int(chunk)
}
