//go:build !darwin

package tuner

import (
	"runtime"
)

// fallbackRAM is assumed when physical memory cannot be detected.
const fallbackRAM = 8 * 1024 * 1024 * 1024

// Detect reports CPU cores from the runtime. Memory is not probed on
// these platforms; half of fallbackRAM is reported as available.
//
// TODO: read MemAvailable from /proc/meminfo on linux.
func Detect() (SystemResources, error) {
	return SystemResources{
		CPUCores:     runtime.NumCPU(),
		TotalRAM:     fallbackRAM,
		AvailableRAM: fallbackRAM / 2,
	}, nil
}
