// Package hostinfo reports the capacity of the machine rig runs on.
package hostinfo

import (
	"context"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"go.trai.ch/rig/internal/core/domain"
	"go.trai.ch/zerr"
)

const bytesPerMiB = 1 << 20

// Probe implements ports.HostProbe with gopsutil.
type Probe struct{}

// NewProbe creates a new Probe.
func NewProbe() *Probe {
	return &Probe{}
}

// Capacity returns the logical CPU count and total memory of the host.
func (p *Probe) Capacity(ctx context.Context) (domain.HostCapacity, error) {
	cpus, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return domain.HostCapacity{}, zerr.Wrap(err, "failed to count host CPUs")
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return domain.HostCapacity{}, zerr.Wrap(err, "failed to read host memory")
	}
	return domain.HostCapacity{
		CPUs: cpus,
		//nolint:gosec // G115: total memory in MiB fits in int64
		MemoryMiB: int64(vm.Total / bytesPerMiB),
	}, nil
}

// Exceeds lists the parts of a request that do not fit the host. Zero requests never exceed.
func Exceeds(capacity domain.HostCapacity, vcpus int, memoryMiB int64) []string {
	var over []string
	if vcpus > 0 && capacity.CPUs > 0 && vcpus > capacity.CPUs {
		over = append(over, "vcpus")
	}
	if memoryMiB > 0 && capacity.MemoryMiB > 0 && memoryMiB > capacity.MemoryMiB {
		over = append(over, "memory")
	}
	return over
}
