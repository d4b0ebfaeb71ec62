package domain

import "math"

const (
	// CPUPeriod is the cgroup CPU accounting period in microseconds.
	CPUPeriod int64 = 100_000
	// CPUWeight is the relative CPU weight given to the provisioning group.
	CPUWeight int64 = 80
	// IOWeight is the relative IO weight given to the provisioning group.
	IOWeight int64 = 200

	cpuShare       = 0.9
	memoryHighPct  = 90
	memoryMaxPct   = 95
	bytesPerMiB    = 1024 * 1024
	percentDivisor = 100
)

// ResourceProfile holds concrete cgroup limits.
// A zero field means the control is left unconfigured.
type ResourceProfile struct {
	CPUQuota   int64
	CPUPeriod  int64
	CPUWeight  int64
	MemoryHigh int64
	MemoryMax  int64
	IOWeight   int64
}

// CompileProfile turns a vCPU count and memory budget into cgroup limits.
//
// The CPU quota grants 90% of the requested vCPUs but never less than one full period.
// memory.high is 90% of the budget and memory.max 95%, never below memory.high.
func CompileProfile(vcpus int, memoryMiB int64) ResourceProfile {
	p := ResourceProfile{
		CPUPeriod: CPUPeriod,
		CPUWeight: CPUWeight,
		IOWeight:  IOWeight,
	}

	if vcpus > 0 {
		quota := int64(math.Round(float64(vcpus) * float64(CPUPeriod) * cpuShare))
		p.CPUQuota = max(quota, CPUPeriod)
	}

	if memoryMiB > 0 {
		budget := memoryMiB * bytesPerMiB
		p.MemoryHigh = max(budget*memoryHighPct/percentDivisor, 1)
		p.MemoryMax = max(budget*memoryMaxPct/percentDivisor, p.MemoryHigh)
	}

	return p
}

// HasCPUQuota reports whether a CPU cap is configured.
func (p ResourceProfile) HasCPUQuota() bool { return p.CPUQuota > 0 }

// HasMemoryLimits reports whether memory limits are configured.
func (p ResourceProfile) HasMemoryLimits() bool { return p.MemoryHigh > 0 }
