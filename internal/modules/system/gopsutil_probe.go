package system

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	psnet "github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"
)

// GopsutilProbe reads metrics through gopsutil.
type GopsutilProbe struct {
	// BatteryReader defaults to the platform reader.
	BatteryReader func(ctx context.Context) (*Battery, error)
}

// NewProbe returns the gopsutil-backed probe.
func NewProbe() *GopsutilProbe {
	return &GopsutilProbe{BatteryReader: readBattery}
}

func (p *GopsutilProbe) Host(ctx context.Context) (HostInfo, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return HostInfo{}, err
	}
	h := HostInfo{
		Hostname:      info.Hostname,
		OS:            info.OS,
		Platform:      strings.TrimSpace(info.Platform + " " + info.PlatformVersion),
		KernelVersion: info.KernelVersion,
		Arch:          info.KernelArch,
		BootTime:      time.Unix(int64(info.BootTime), 0),
	}
	if h.Arch == "" {
		h.Arch = runtime.GOARCH
	}
	if cpus, err := cpu.InfoWithContext(ctx); err == nil && len(cpus) > 0 {
		h.CPUModel = strings.TrimSpace(cpus[0].ModelName)
	}
	if n, err := cpu.CountsWithContext(ctx, false); err == nil {
		h.PhysicalCores = n
	}
	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		h.LogicalCores = n
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		h.TotalMemory = vm.Total
	}
	return h, nil
}

func (p *GopsutilProbe) CPUPercent(ctx context.Context, interval time.Duration) (float64, error) {
	values, err := cpu.PercentWithContext(ctx, interval, false)
	if err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, errors.New("no cpu reading")
	}
	return values[0], nil
}

func (p *GopsutilProbe) CPUFrequency(ctx context.Context) (float64, error) {
	cpus, err := cpu.InfoWithContext(ctx)
	if err != nil {
		return 0, err
	}
	if len(cpus) == 0 || cpus[0].Mhz == 0 {
		return 0, errors.New("cpu frequency unavailable")
	}
	return cpus[0].Mhz, nil
}

func (p *GopsutilProbe) Memory(ctx context.Context) (Memory, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Memory{}, err
	}
	return Memory{Total: vm.Total, Used: vm.Used, Available: vm.Available, Percent: vm.UsedPercent}, nil
}

func (p *GopsutilProbe) Swap(ctx context.Context) (Memory, error) {
	sw, err := mem.SwapMemoryWithContext(ctx)
	if err != nil {
		return Memory{}, err
	}
	return Memory{Total: sw.Total, Used: sw.Used, Available: sw.Free, Percent: sw.UsedPercent}, nil
}

func (p *GopsutilProbe) RootDisk(ctx context.Context) (Partition, error) {
	root := "/"
	if runtime.GOOS == "windows" {
		root = "C:\\"
	}
	return usage(ctx, disk.PartitionStat{Device: root, Mountpoint: root})
}

func (p *GopsutilProbe) Partitions(ctx context.Context) ([]Partition, error) {
	parts, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, err
	}
	out := make([]Partition, 0, len(parts))
	for _, part := range parts {
		u, err := usage(ctx, part)
		if err != nil {
			u = Partition{Device: part.Device, Mountpoint: part.Mountpoint, Fstype: part.Fstype, Err: err}
		}
		out = append(out, u)
	}
	return out, nil
}

func usage(ctx context.Context, part disk.PartitionStat) (Partition, error) {
	u, err := disk.UsageWithContext(ctx, part.Mountpoint)
	if err != nil {
		return Partition{}, err
	}
	return Partition{
		Device:     part.Device,
		Mountpoint: part.Mountpoint,
		Fstype:     part.Fstype,
		Total:      u.Total,
		Used:       u.Used,
		Free:       u.Free,
		Percent:    u.UsedPercent,
	}, nil
}

func (p *GopsutilProbe) LoadAverage(ctx context.Context) ([3]float64, error) {
	avg, err := load.AvgWithContext(ctx)
	if err != nil {
		return [3]float64{}, err
	}
	return [3]float64{avg.Load1, avg.Load5, avg.Load15}, nil
}

func (p *GopsutilProbe) ProcessCount(ctx context.Context) (int, error) {
	pids, err := process.PidsWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return len(pids), nil
}

func (p *GopsutilProbe) Processes(ctx context.Context) ([]ProcessInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ProcessInfo, 0, len(procs))
	for _, proc := range procs {
		name, err := proc.NameWithContext(ctx)
		if err != nil {
			// Exited or not readable.
			continue
		}
		info := ProcessInfo{PID: proc.Pid, Name: name}
		info.CPUPercent, _ = proc.CPUPercentWithContext(ctx)
		info.MemPercent, _ = proc.MemoryPercentWithContext(ctx)
		info.User, _ = proc.UsernameWithContext(ctx)
		out = append(out, info)
	}
	return out, nil
}

func (p *GopsutilProbe) NetIO(ctx context.Context) (NetIO, error) {
	counters, err := psnet.IOCountersWithContext(ctx, false)
	if err != nil {
		return NetIO{}, err
	}
	if len(counters) == 0 {
		return NetIO{}, errors.New("no network counters")
	}
	c := counters[0]
	return NetIO{BytesSent: c.BytesSent, BytesRecv: c.BytesRecv, PacketsSent: c.PacketsSent, PacketsRecv: c.PacketsRecv}, nil
}

func (p *GopsutilProbe) Interfaces(ctx context.Context) ([]Interface, error) {
	list, err := psnet.InterfacesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Interface, 0, len(list))
	for _, iface := range list {
		i := Interface{Name: iface.Name}
		for _, flag := range iface.Flags {
			switch flag {
			case "up":
				i.Up = true
			case "loopback":
				i.Loopback = true
			}
		}
		for _, addr := range iface.Addrs {
			i.Addrs = append(i.Addrs, addr.Addr)
		}
		out = append(out, i)
	}
	return out, nil
}

func (p *GopsutilProbe) DiskIO(ctx context.Context) (DiskIO, error) {
	counters, err := disk.IOCountersWithContext(ctx)
	if err != nil {
		return DiskIO{}, err
	}
	var total DiskIO
	for _, c := range counters {
		total.ReadBytes += c.ReadBytes
		total.WriteBytes += c.WriteBytes
	}
	return total, nil
}

func (p *GopsutilProbe) Battery(ctx context.Context) (*Battery, error) {
	if p.BatteryReader == nil {
		return nil, fmt.Errorf("battery reading unsupported on %s", runtime.GOOS)
	}
	return p.BatteryReader(ctx)
}

func (p *GopsutilProbe) Temperatures(ctx context.Context) ([]Sensor, error) {
	stats, err := host.SensorsTemperaturesWithContext(ctx)
	if err != nil && len(stats) == 0 {
		return nil, err
	}
	out := make([]Sensor, 0, len(stats))
	for _, s := range stats {
		if s.Temperature <= 0 {
			continue
		}
		out = append(out, Sensor{Name: s.SensorKey, Current: s.Temperature, High: s.High, Critical: s.Critical})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
