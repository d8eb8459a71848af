package tuner

import (
	"runtime"
	"testing"
)

func TestDetect(t *testing.T) {
	resources, err := Detect()
	if err != nil {
		t.Fatalf("Detect() returned error: %v", err)
	}

	if resources.CPUCores != runtime.NumCPU() {
		t.Errorf("CPUCores = %d, want %d", resources.CPUCores, runtime.NumCPU())
	}

	if resources.AvailableRAM <= 0 || resources.AvailableRAM > resources.TotalRAM {
		t.Errorf("AvailableRAM = %d, want in (0, %d]", resources.AvailableRAM, resources.TotalRAM)
	}
}

func TestCalculate(t *testing.T) {
	t.Parallel()

	const gib = int64(1024 * 1024 * 1024)

	tests := []struct {
		name        string
		resources   SystemResources
		wantWorkers int
		wantChunk   int
	}{
		{
			name:        "single core",
			resources:   SystemResources{CPUCores: 1, TotalRAM: 2 * gib, AvailableRAM: gib},
			wantWorkers: 4,
			wantChunk:   1024 * 1024,
		},
		{
			name:        "eight cores",
			resources:   SystemResources{CPUCores: 8, TotalRAM: 16 * gib, AvailableRAM: 8 * gib},
			wantWorkers: 32,
			wantChunk:   1024 * 1024,
		},
		{
			name:        "capped workers",
			resources:   SystemResources{CPUCores: 128, TotalRAM: 64 * gib, AvailableRAM: 32 * gib},
			wantWorkers: 64,
			wantChunk:   1024 * 1024,
		},
		{
			name:        "low memory",
			resources:   SystemResources{CPUCores: 4, TotalRAM: 512 * 1024 * 1024, AvailableRAM: 64 * 1024 * 1024},
			wantWorkers: 16,
			wantChunk:   64 * 1024,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Calculate(tt.resources)
			if got.Workers != tt.wantWorkers {
				t.Errorf("Workers = %d, want %d", got.Workers, tt.wantWorkers)
			}
			if got.ChunkSize != tt.wantChunk {
				t.Errorf("ChunkSize = %d, want %d", got.ChunkSize, tt.wantChunk)
			}
		})
	}
}

func TestCalculateWithOverrides(t *testing.T) {
	t.Parallel()

	resources := SystemResources{CPUCores: 8, TotalRAM: 16 << 30, AvailableRAM: 8 << 30}

	tests := []struct {
		name     string
		override int
		want     int
	}{
		{name: "no override", override: 0, want: 32},
		{name: "negative ignored", override: -3, want: 32},
		{name: "explicit", override: 2, want: 2},
		{name: "capped", override: 500, want: 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := CalculateWithOverrides(resources, tt.override).Workers; got != tt.want {
				t.Errorf("Workers = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWorkers(t *testing.T) {
	t.Parallel()

	if got := Workers(3); got != 3 {
		t.Errorf("Workers(3) = %d, want 3", got)
	}
	if got := Workers(0); got < minWorkers || got > maxWorkers {
		t.Errorf("Workers(0) = %d, want within [%d, %d]", got, minWorkers, maxWorkers)
	}
}
