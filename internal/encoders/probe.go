package encoders

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// GPUProbe reports GPU utilization as a percentage in [0, 100]. A probe
// error is not fatal: the selector treats it as zero utilization.
type GPUProbe interface {
	Utilization() (float64, error)
}

// ProbeFunc adapts a function to the GPUProbe interface.
type ProbeFunc func() (float64, error)

// Utilization implements GPUProbe.
func (f ProbeFunc) Utilization() (float64, error) { return f() }

// defaultBusyPaths are the sysfs files exposing GPU load, in probe order.
// amdgpu and i915 publish gpu_busy_percent on the PCI device node.
var defaultBusyPaths = []string{
	"/sys/class/drm/card0/device/gpu_busy_percent",
	"/sys/class/drm/card1/device/gpu_busy_percent",
}

// SysfsProbe reads GPU utilization from the first readable sysfs busy file.
type SysfsProbe struct {
	paths []string
}

// NewSysfsProbe creates a probe over the default sysfs locations. Explicit
// paths override the defaults.
func NewSysfsProbe(paths ...string) *SysfsProbe {
	if len(paths) == 0 {
		paths = defaultBusyPaths
	}
	return &SysfsProbe{paths: paths}
}

// Utilization implements GPUProbe.
func (p *SysfsProbe) Utilization() (float64, error) {
	for _, path := range p.paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		val, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
		if err != nil {
			continue
		}
		return min(max(val, 0), 100), nil
	}
	return 0, fmt.Errorf("no readable gpu busy file among %d candidates", len(p.paths))
}
