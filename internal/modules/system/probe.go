package system

import (
	"context"
	"time"
)

// HostInfo is the static description of the machine.
type HostInfo struct {
	Hostname      string
	OS            string
	Platform      string
	KernelVersion string
	Arch          string
	CPUModel      string
	PhysicalCores int
	LogicalCores  int
	TotalMemory   uint64
	BootTime      time.Time
}

// Memory is RAM or swap usage.
type Memory struct {
	Total     uint64
	Used      uint64
	Available uint64
	Percent   float64
}

// Partition is one mounted file system.
type Partition struct {
	Device     string
	Mountpoint string
	Fstype     string
	Total      uint64
	Used       uint64
	Free       uint64
	Percent    float64
	Err        error // set when usage could not be read
}

// NetIO is cumulative traffic across all interfaces.
type NetIO struct {
	BytesSent   uint64
	BytesRecv   uint64
	PacketsSent uint64
	PacketsRecv uint64
}

// Interface is a network interface and its addresses.
type Interface struct {
	Name     string
	Up       bool
	Loopback bool
	Addrs    []string // CIDR notation
}

// DiskIO is cumulative block device traffic.
type DiskIO struct {
	ReadBytes  uint64
	WriteBytes uint64
}

// ProcessInfo is one row of the process table.
type ProcessInfo struct {
	PID        int32
	Name       string
	CPUPercent float64
	MemPercent float32
	User       string
}

// Battery is the charge state of the primary battery.
type Battery struct {
	Percent   float64
	Plugged   bool
	Remaining time.Duration // zero when unknown
}

// Sensor is one temperature reading in degrees Celsius.
type Sensor struct {
	Name     string
	Current  float64
	High     float64
	Critical float64
}

// Probe reads live machine metrics. Methods return an error when the
// platform does not expose the metric.
type Probe interface {
	Host(ctx context.Context) (HostInfo, error)
	CPUPercent(ctx context.Context, interval time.Duration) (float64, error)
	CPUFrequency(ctx context.Context) (float64, error)
	Memory(ctx context.Context) (Memory, error)
	Swap(ctx context.Context) (Memory, error)
	RootDisk(ctx context.Context) (Partition, error)
	Partitions(ctx context.Context) ([]Partition, error)
	LoadAverage(ctx context.Context) ([3]float64, error)
	ProcessCount(ctx context.Context) (int, error)
	Processes(ctx context.Context) ([]ProcessInfo, error)
	NetIO(ctx context.Context) (NetIO, error)
	Interfaces(ctx context.Context) ([]Interface, error)
	DiskIO(ctx context.Context) (DiskIO, error)
	// Battery returns nil without error on machines with no battery.
	Battery(ctx context.Context) (*Battery, error)
	Temperatures(ctx context.Context) ([]Sensor, error)
}
