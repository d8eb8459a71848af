// Package tuner sizes the hashing worker pool from the detected system
// resources. Digesting is I/O bound on spinning disks and CPU bound on fast
// storage, so the pool is oversubscribed relative to the core count.
package tuner

// SystemResources contains detected system resources.
type SystemResources struct {
	// CPUCores is the number of logical CPU cores available.
	CPUCores int

	// TotalRAM is the total physical RAM in bytes.
	TotalRAM int64

	// AvailableRAM is the available (free) RAM in bytes.
	// This may be an estimate based on system heuristics.
	AvailableRAM int64
}
