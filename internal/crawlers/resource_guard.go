package crawlers

import (
	"runtime"
	"sync"
	"time"

	"github.com/minesafety/docharvest/internal/utils"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// ResourceGuard clamps the download fan-out when the host is short on memory
// or CPU. The configured concurrency is a ceiling; the guard only ever lowers
// it, never raises it.
type ResourceGuard struct {
	// SlotMemoryUsage is the memory budgeted per in-flight download.
	SlotMemoryUsage int64
	// CPULoadThreshold disables CPU-based clamping when >= 200.
	CPULoadThreshold float64

	totalMemory uint64

	cacheMu     sync.RWMutex
	cachedLimit int
	lastCache   time.Time
}

// NewResourceGuard probes total system memory once at construction.
func NewResourceGuard() *ResourceGuard {
	vmStat, err := mem.VirtualMemory()
	var totalMem uint64
	if err != nil {
		utils.Warnf("probe system memory failed, assuming 4GB: %v", err)
		totalMem = 4 * 1024 * 1024 * 1024
	} else {
		totalMem = vmStat.Total
	}
	return &ResourceGuard{
		SlotMemoryUsage:  32 * 1024 * 1024,
		CPULoadThreshold: 90,
		totalMemory:      totalMem,
	}
}

// EffectiveConcurrency returns the in-flight limit to use for a batch: the
// configured ceiling clamped by available memory and current CPU load, with a
// floor of 1. The sampled limit is cached for a second.
func (g *ResourceGuard) EffectiveConcurrency(ceiling int) int {
	if ceiling < 1 {
		ceiling = 1
	}

	g.cacheMu.RLock()
	if time.Since(g.lastCache) < time.Second && g.cachedLimit > 0 {
		cached := g.cachedLimit
		g.cacheMu.RUnlock()
		return minInt(cached, ceiling)
	}
	g.cacheMu.RUnlock()

	limit := g.limitByMemory()
	if cpuLimit := g.limitByCPU(); cpuLimit < limit {
		limit = cpuLimit
	}
	if limit < 1 {
		limit = 1
	}

	g.cacheMu.Lock()
	g.cachedLimit = limit
	g.lastCache = time.Now()
	g.cacheMu.Unlock()

	if limit < ceiling {
		utils.Warnf("resource pressure: clamping download concurrency from %d to %d", ceiling, limit)
	}
	return minInt(limit, ceiling)
}

func (g *ResourceGuard) limitByMemory() int {
	vmStat, err := mem.VirtualMemory()
	if err != nil {
		return runtime.NumCPU()
	}
	available := int64(vmStat.Available)
	slots := int(available / g.SlotMemoryUsage)
	if slots < 1 {
		slots = 1
	}
	return slots
}

func (g *ResourceGuard) limitByCPU() int {
	if g.CPULoadThreshold >= 200 {
		return runtime.NumCPU() * 4
	}
	percentages, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil || len(percentages) == 0 {
		return runtime.NumCPU()
	}
	if percentages[0] > g.CPULoadThreshold {
		return 1
	}
	return runtime.NumCPU()
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
