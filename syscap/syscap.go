// Package syscap reports the host capabilities that drive backend and
// worker selection.
package syscap

import (
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/teranos/resonance/conserve"
)

// Report summarises the CPU, the conserve backend choice and host memory.
type Report struct {
	CPU            conserve.Capabilities `json:"cpu"`
	LogicalCPUs    int                   `json:"logical_cpus"`
	Detected       string                `json:"detected_backend"` // Backend capability detection picks
	Active         string                `json:"active_backend"`   // Backend currently in use
	Backends       []string              `json:"backends"`         // All registered backends
	MemoryTotalGB  float64               `json:"memory_total_gb"`  // Total system memory in GB
	MemoryUsedGB   float64               `json:"memory_used_gb"`   // Current memory usage in GB
	MemoryPercent  float64               `json:"memory_percent"`   // Memory utilization percentage
	ClusterWorkers int                   `json:"cluster_workers"`  // Recommended cluster.workers
	MemoryErr      string                `json:"memory_error,omitempty"`
}

// memoryStats is swappable in tests.
var memoryStats = func() (total, available uint64, err error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, 0, err
	}
	return vm.Total, vm.Available, nil
}

// logicalCPUs is swappable in tests.
var logicalCPUs = func() int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// Collect gathers a report for a region of the given page count.
func Collect(pages int) Report {
	cpus := logicalCPUs()
	r := Report{
		CPU:            conserve.DetectCapabilities(),
		LogicalCPUs:    cpus,
		Detected:       conserve.Detect(),
		Active:         conserve.Active().Name(),
		ClusterWorkers: RecommendedWorkers(cpus, pages),
	}
	for _, b := range conserve.Backends() {
		r.Backends = append(r.Backends, b.Name())
	}

	total, available, err := memoryStats()
	if err != nil {
		r.MemoryErr = err.Error()
		return r
	}
	if total > 0 {
		r.MemoryTotalGB = float64(total) / 1024 / 1024 / 1024
		r.MemoryUsedGB = float64(total-available) / 1024 / 1024 / 1024
		r.MemoryPercent = (r.MemoryUsedGB / r.MemoryTotalGB) * 100
	}
	return r
}

// RecommendedWorkers suggests a cluster worker count: one per logical CPU,
// never more than one per 4 pages, at least 1.
func RecommendedWorkers(cpus, pages int) int {
	const minPagesPerWorker = 4

	w := cpus
	if most := pages / minPagesPerWorker; w > most {
		w = most
	}
	if w < 1 {
		return 1
	}
	return w
}

// String returns a one-line summary
func (r Report) String() string {
	return fmt.Sprintf("%s/%d-bit backend=%s (detected %s) cpus=%d mem=%.1f/%.1fGB workers=%d",
		r.CPU.Vendor, r.CPU.WordBits, r.Active, r.Detected, r.LogicalCPUs,
		r.MemoryUsedGB, r.MemoryTotalGB, r.ClusterWorkers)
}
