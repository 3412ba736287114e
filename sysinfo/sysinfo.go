// Package sysinfo reads the host facts used to size the training run
package sysinfo

import (
	"runtime"

	"github.com/klauspost/cpuid/v2"
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v4/mem"
)

// Threads reports the number of worker goroutines worth running: the logical
// cores the CPU reports, bounded by GOMAXPROCS. Never returns less than 1.
func Threads() int {
	n := cpuid.CPU.LogicalCores
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if max := runtime.GOMAXPROCS(0); n > max {
		n = max
	}
	if n < 1 {
		n = 1
	}
	return n
}

// CPU describes the processor for the startup log line.
func CPU() string {
	if cpuid.CPU.BrandName == "" {
		return runtime.GOARCH
	}
	return cpuid.CPU.BrandName
}

// AvailableMemory reports the memory the host can hand out without swapping.
func AvailableMemory() (uint64, error) {
	v, err := mem.VirtualMemory()
	if err != nil {
		return 0, errors.Wrap(err, "read virtual memory")
	}
	return v.Available, nil
}

// FitsInMemory reports whether size bytes take at most half of the
// available memory. Unknown memory never fits.
func FitsInMemory(size uint64) bool {
	avail, err := AvailableMemory()
	if err != nil {
		return false
	}
	return size <= avail/2
}
