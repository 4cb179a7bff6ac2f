// Package system reports machine health: host overview, performance,
// storage, network, processes, alerts, battery and temperatures.
package system

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"specter/internal/logger"
	"specter/pkg/spectertypes"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
)

// Thresholds in percent.
const (
	CPUWarning      = 75
	CPUCritical     = 90
	MemoryWarning   = 80
	MemoryCritical  = 95
	DiskWarning     = 85
	DiskCritical    = 95
	BatteryLow      = 20
	BatteryCritical = 10
	tempHigh        = 75
)

const (
	sampleInterval      = time.Second
	quickSampleInterval = 100 * time.Millisecond
	defaultProcessLimit = 10
	maxSensorsPerGroup  = 3
	rule                = "--------------------------------------------------"
)

// Options configures a Module.
type Options struct {
	Probe Probe
	// Generator enables AI analysis when set.
	Generator spectertypes.TextGenerator
	Now       func() time.Time
}

// Module is the system monitor capability.
type Module struct {
	probe     Probe
	generator spectertypes.TextGenerator
	now       func() time.Time
	log       *log.Logger
}

// New creates the monitor. A nil probe uses gopsutil.
func New(opts Options) *Module {
	if opts.Probe == nil {
		opts.Probe = NewProbe()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Module{
		probe:     opts.Probe,
		generator: opts.Generator,
		now:       opts.Now,
		log:       logger.NewStyledLogger("System"),
	}
}

// Slot returns the system slot.
func (m *Module) Slot() spectertypes.Slot {
	return spectertypes.SlotSystem
}

// Handle dispatches a free-form system command.
func (m *Module) Handle(ctx context.Context, command string) (string, error) {
	lower := strings.ToLower(command)
	switch {
	case strings.Contains(lower, "analy"):
		return m.Analyze(ctx), nil
	case strings.Contains(lower, "process"):
		return m.TopProcesses(ctx, defaultProcessLimit, containsAny(lower, "memory", "ram")), nil
	case containsAny(lower, "alert", "warning", "health"):
		return m.Alerts(ctx), nil
	case containsAny(lower, "storage", "disk", "drive", "space"):
		return m.Storage(ctx), nil
	case containsAny(lower, "network", "internet", "wifi", "ip address"):
		return m.Network(ctx), nil
	case containsAny(lower, "battery", "power", "charge"):
		return m.Battery(ctx), nil
	case containsAny(lower, "temperature", "thermal", "sensor", "heat"):
		return m.Temperature(ctx), nil
	case strings.Contains(lower, "uptime"):
		return "⏱️ Uptime: " + m.Uptime(ctx), nil
	case containsAny(lower, "performance", "cpu", "memory", "ram", "load"):
		return m.Performance(ctx, containsAny(lower, "detail", "full")), nil
	case containsAny(lower, "quick", "status"):
		return m.QuickStatus(ctx), nil
	}
	return m.Overview(ctx), nil
}

// Invoke serves the classifier's system functions.
func (m *Module) Invoke(ctx context.Context, fn spectertypes.Function, params map[string]string) (string, error) {
	switch fn {
	case spectertypes.FuncSystemStatus:
		return m.Overview(ctx), nil
	case spectertypes.FuncSystemPerformance:
		return m.Performance(ctx, true), nil
	case spectertypes.FuncTopProcesses:
		limit := defaultProcessLimit
		if n, err := strconv.Atoi(params["limit"]); err == nil && n > 0 && n <= 50 {
			limit = n
		}
		byMemory := params["sort"] == "memory" || containsAny(strings.ToLower(params["command"]), "memory", "ram")
		return m.TopProcesses(ctx, limit, byMemory), nil
	case spectertypes.FuncSystemAlerts:
		return m.Alerts(ctx), nil
	case spectertypes.FuncStorageStatus:
		return m.Storage(ctx), nil
	case spectertypes.FuncNetworkStatus:
		return m.Network(ctx), nil
	case spectertypes.FuncBatteryStatus:
		return m.Battery(ctx), nil
	case spectertypes.FuncTemperatureStatus:
		return m.Temperature(ctx), nil
	case spectertypes.FuncAnalyzeSystem:
		return m.Analyze(ctx), nil
	default:
		return "", fmt.Errorf("%w: %s", spectertypes.ErrUnsupportedFunction, fn)
	}
}

// Overview describes the host.
func (m *Module) Overview(ctx context.Context) string {
	info, err := m.probe.Host(ctx)
	if err != nil {
		m.log.Error("Host info failed", "error", err)
		return "Error retrieving system overview"
	}
	processor := info.CPUModel
	if processor == "" {
		processor = "Unknown"
	}
	bootTime := "Unknown"
	if !info.BootTime.IsZero() {
		bootTime = info.BootTime.Format("2006-01-02 15:04:05")
	}

	var b strings.Builder
	b.WriteString("SYSTEM OVERVIEW\n" + rule)
	fmt.Fprintf(&b, "\nComputer: %s", orUnknown(info.Hostname))
	fmt.Fprintf(&b, "\nOS: %s %s", orUnknown(info.OS), info.Platform)
	fmt.Fprintf(&b, "\nKernel: %s", orUnknown(info.KernelVersion))
	fmt.Fprintf(&b, "\nArchitecture: %s", orUnknown(info.Arch))
	fmt.Fprintf(&b, "\nProcessor: %s", processor)
	fmt.Fprintf(&b, "\nCPU Cores: %d physical, %d logical", info.PhysicalCores, info.LogicalCores)
	fmt.Fprintf(&b, "\nMemory: %.1f GB", gib(info.TotalMemory))
	fmt.Fprintf(&b, "\nUptime: %s", m.uptimeSince(info.BootTime))
	fmt.Fprintf(&b, "\nBoot Time: %s", bootTime)
	return b.String()
}

// Performance reports CPU, memory, disk and swap load.
func (m *Module) Performance(ctx context.Context, detailed bool) string {
	cpuPct, err := m.probe.CPUPercent(ctx, sampleInterval)
	if err != nil {
		m.log.Error("CPU reading failed", "error", err)
		return "Error retrieving performance status"
	}
	memory, err := m.probe.Memory(ctx)
	if err != nil {
		m.log.Error("Memory reading failed", "error", err)
		return "Error retrieving performance status"
	}

	var b strings.Builder
	b.WriteString("PERFORMANCE STATUS\n" + rule)
	freq := ""
	if mhz, err := m.probe.CPUFrequency(ctx); err == nil {
		freq = fmt.Sprintf(" @ %.0f MHz", mhz)
	}
	fmt.Fprintf(&b, "\nCPU Usage: %.1f%%%s %s", cpuPct, freq, Indicator(cpuPct, CPUWarning, CPUCritical))
	fmt.Fprintf(&b, "\nMemory: %.1f GB / %.1f GB (%.1f%%) %s",
		gib(memory.Used), gib(memory.Total), memory.Percent, Indicator(memory.Percent, MemoryWarning, MemoryCritical))
	fmt.Fprintf(&b, "\nAvailable: %.1f GB", gib(memory.Available))
	if disk, err := m.probe.RootDisk(ctx); err == nil {
		fmt.Fprintf(&b, "\nDisk Usage: %.1f GB / %.1f GB (%.1f%%) %s",
			gib(disk.Used), gib(disk.Total), disk.Percent, Indicator(disk.Percent, DiskWarning, DiskCritical))
	}
	if swap, err := m.probe.Swap(ctx); err == nil && swap.Total > 0 {
		fmt.Fprintf(&b, "\nSwap: %.1f GB / %.1f GB (%.1f%%)", gib(swap.Used), gib(swap.Total), swap.Percent)
	}

	if detailed {
		var details []string
		if avg, err := m.probe.LoadAverage(ctx); err == nil {
			details = append(details, fmt.Sprintf("Load Average: %.2f, %.2f, %.2f", avg[0], avg[1], avg[2]))
		}
		if n, err := m.probe.ProcessCount(ctx); err == nil {
			details = append(details, fmt.Sprintf("Running Processes: %d", n))
		}
		if io, err := m.probe.NetIO(ctx); err == nil {
			details = append(details, fmt.Sprintf("Network I/O: %s sent, %s received",
				humanize.Bytes(io.BytesSent), humanize.Bytes(io.BytesRecv)))
		}
		if io, err := m.probe.DiskIO(ctx); err == nil {
			details = append(details, fmt.Sprintf("Disk I/O: %s read, %s written",
				humanize.Bytes(io.ReadBytes), humanize.Bytes(io.WriteBytes)))
		}
		if len(details) > 0 {
			b.WriteString("\n\n" + strings.Join(details, "\n"))
		}
	}
	return b.String()
}

// QuickStatus is a one-line summary.
func (m *Module) QuickStatus(ctx context.Context) string {
	cpuPct, err := m.probe.CPUPercent(ctx, quickSampleInterval)
	if err != nil {
		return "System status unavailable"
	}
	memory, err := m.probe.Memory(ctx)
	if err != nil {
		return "System status unavailable"
	}
	status := fmt.Sprintf("CPU: %.1f%% | RAM: %.1f%% | Available: %.1fGB", cpuPct, memory.Percent, gib(memory.Available))
	if battery, err := m.probe.Battery(ctx); err == nil && battery != nil {
		source := "BAT"
		if battery.Plugged {
			source = "AC"
		}
		status += fmt.Sprintf(" | %s: %.0f%%", source, battery.Percent)
	}
	return status
}

// Storage lists every mounted partition.
func (m *Module) Storage(ctx context.Context) string {
	parts, err := m.probe.Partitions(ctx)
	if err != nil {
		m.log.Error("Partition listing failed", "error", err)
		return "Error retrieving storage information"
	}

	var b strings.Builder
	b.WriteString("STORAGE STATUS\n" + rule)
	for _, p := range parts {
		device := strings.ReplaceAll(p.Device, "\\", "")
		if device == "" {
			device = p.Mountpoint
		}
		if p.Err != nil {
			fmt.Fprintf(&b, "\n%s: Access denied", device)
			continue
		}
		fstype := p.Fstype
		if fstype == "" {
			fstype = "Unknown"
		}
		fmt.Fprintf(&b, "\n%s: %.1f GB / %.1f GB (%.1f%%) %s", device, gib(p.Used), gib(p.Total), p.Percent,
			Indicator(p.Percent, DiskWarning, DiskCritical))
		fmt.Fprintf(&b, "\n  Free: %s, Type: %s, Mounted on: %s", humanize.Bytes(p.Free), fstype, p.Mountpoint)
	}
	return b.String()
}

// Network reports traffic totals and active interfaces.
func (m *Module) Network(ctx context.Context) string {
	var b strings.Builder
	b.WriteString("NETWORK STATUS\n" + rule)
	if io, err := m.probe.NetIO(ctx); err == nil {
		fmt.Fprintf(&b, "\nTotal Traffic: %s sent, %s received", humanize.Bytes(io.BytesSent), humanize.Bytes(io.BytesRecv))
		fmt.Fprintf(&b, "\nPackets: %s sent, %s received",
			humanize.Comma(int64(io.PacketsSent)), humanize.Comma(int64(io.PacketsRecv)))
	}

	ifaces, err := m.probe.Interfaces(ctx)
	if err != nil {
		m.log.Error("Interface listing failed", "error", err)
		return "Error retrieving network information"
	}
	b.WriteString("\n\nActive Interfaces:")
	for _, iface := range ifaces {
		if iface.Loopback || !iface.Up {
			continue
		}
		fmt.Fprintf(&b, "\n  %s:", iface.Name)
		for _, addr := range iface.Addrs {
			if strings.Contains(addr, ":") {
				fmt.Fprintf(&b, "\n    IPv6: %s", addr)
			} else {
				fmt.Fprintf(&b, "\n    IPv4: %s", addr)
			}
		}
	}
	return b.String()
}

// TopProcesses lists the heaviest processes by CPU, or by memory when byMemory.
func (m *Module) TopProcesses(ctx context.Context, limit int, byMemory bool) string {
	procs, err := m.probe.Processes(ctx)
	if err != nil {
		m.log.Error("Process listing failed", "error", err)
		return "Error retrieving process information"
	}

	header := fmt.Sprintf("TOP %d PROCESSES (by CPU Usage)", limit)
	if byMemory {
		header = fmt.Sprintf("TOP %d PROCESSES (by Memory Usage)", limit)
		sort.SliceStable(procs, func(i, j int) bool { return procs[i].MemPercent > procs[j].MemPercent })
	} else {
		sort.SliceStable(procs, func(i, j int) bool { return procs[i].CPUPercent > procs[j].CPUPercent })
	}
	if len(procs) > limit {
		procs = procs[:limit]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n", header, rule)
	fmt.Fprintf(&b, "%-8s %-20s %-8s %-8s %-15s\n", "PID", "Name", "CPU%", "MEM%", "User")
	b.WriteString(strings.Repeat("-", 65))
	for _, p := range procs {
		name := p.Name
		if name == "" {
			name = "Unknown"
		}
		user := p.User
		if user == "" {
			user = "Unknown"
		}
		fmt.Fprintf(&b, "\n%-8d %-20s %6.1f%% %6.1f%% %-15s", p.PID, clip(name, 19), p.CPUPercent, p.MemPercent, clip(user, 14))
	}
	return strings.TrimRight(b.String(), " ")
}

// Alerts checks every threshold and lists warnings with recommendations.
func (m *Module) Alerts(ctx context.Context) string {
	alerts, recommendations := m.collectAlerts(ctx)
	if len(alerts) == 0 && len(recommendations) == 0 {
		return "SYSTEM STATUS\n" + rule + "\nAll systems operating normally"
	}

	var b strings.Builder
	b.WriteString("SYSTEM ALERTS\n" + rule)
	if len(alerts) > 0 {
		b.WriteString("\nAlerts:")
		for _, a := range alerts {
			b.WriteString("\n  • " + a)
		}
	}
	if len(recommendations) > 0 {
		b.WriteString("\n\nRecommendations:")
		for _, r := range recommendations {
			b.WriteString("\n  • " + r)
		}
	}
	return b.String()
}

func (m *Module) collectAlerts(ctx context.Context) (alerts, recommendations []string) {
	if cpuPct, err := m.probe.CPUPercent(ctx, sampleInterval); err == nil {
		switch {
		case cpuPct >= CPUCritical:
			alerts = append(alerts, fmt.Sprintf("CRITICAL: CPU usage at %.1f%%", cpuPct))
			recommendations = append(recommendations, "Consider closing unnecessary applications")
		case cpuPct >= CPUWarning:
			alerts = append(alerts, fmt.Sprintf("WARNING: High CPU usage at %.1f%%", cpuPct))
		}
	}
	if memory, err := m.probe.Memory(ctx); err == nil {
		switch {
		case memory.Percent >= MemoryCritical:
			alerts = append(alerts, fmt.Sprintf("CRITICAL: Memory usage at %.1f%%", memory.Percent))
			recommendations = append(recommendations, "Close memory-intensive applications")
		case memory.Percent >= MemoryWarning:
			alerts = append(alerts, fmt.Sprintf("WARNING: High memory usage at %.1f%%", memory.Percent))
		}
	}
	if disk, err := m.probe.RootDisk(ctx); err == nil {
		switch {
		case disk.Percent >= DiskCritical:
			alerts = append(alerts, fmt.Sprintf("CRITICAL: Low disk space (%.1f%% used)", disk.Percent))
			recommendations = append(recommendations, "Delete unnecessary files or move data to external storage")
		case disk.Percent >= DiskWarning:
			alerts = append(alerts, fmt.Sprintf("WARNING: Disk space low (%.1f%% used)", disk.Percent))
		}
	}
	if battery, err := m.probe.Battery(ctx); err == nil && battery != nil && !battery.Plugged {
		switch {
		case battery.Percent <= BatteryCritical:
			alerts = append(alerts, fmt.Sprintf("CRITICAL: Battery at %.0f%%", battery.Percent))
			recommendations = append(recommendations, "Connect power adapter immediately")
		case battery.Percent <= BatteryLow:
			alerts = append(alerts, fmt.Sprintf("WARNING: Low battery at %.0f%%", battery.Percent))
		}
	}
	return alerts, recommendations
}

// Battery reports charge level and time remaining.
func (m *Module) Battery(ctx context.Context) string {
	battery, err := m.probe.Battery(ctx)
	if err != nil {
		m.log.Debug("Battery reading failed", "error", err)
		return "Battery information is not available on this system"
	}
	if battery == nil {
		return "No battery detected (desktop system)"
	}

	var b strings.Builder
	b.WriteString("BATTERY STATUS\n" + rule)
	fmt.Fprintf(&b, "\nCharge Level: %.0f%%", battery.Percent)
	source := "Battery"
	if battery.Plugged {
		source = "AC Power"
	}
	fmt.Fprintf(&b, "\nPower Source: %s", source)
	if battery.Remaining > 0 {
		hours := int(battery.Remaining.Hours())
		minutes := int(battery.Remaining.Minutes()) % 60
		if battery.Plugged {
			fmt.Fprintf(&b, "\nTime to Full Charge: %dh %dm", hours, minutes)
		} else {
			fmt.Fprintf(&b, "\nTime Remaining: %dh %dm", hours, minutes)
		}
	}
	switch {
	case battery.Percent <= BatteryCritical:
		b.WriteString("\nStatus: CRITICAL - Connect charger immediately")
	case battery.Percent <= BatteryLow:
		b.WriteString("\nStatus: LOW - Consider charging soon")
	default:
		b.WriteString("\nStatus: Good")
	}
	return b.String()
}

// Temperature lists up to three readings per sensor group.
func (m *Module) Temperature(ctx context.Context) string {
	sensors, err := m.probe.Temperatures(ctx)
	if err != nil || len(sensors) == 0 {
		if err != nil {
			m.log.Debug("Temperature reading failed", "error", err)
		}
		return "Temperature sensors not available"
	}

	var b strings.Builder
	b.WriteString("TEMPERATURE STATUS\n" + rule)
	lastGroup := ""
	inGroup := 0
	for _, s := range sensors {
		group, label := splitSensor(s.Name)
		if group != lastGroup {
			fmt.Fprintf(&b, "\n%s:", group)
			lastGroup = group
			inGroup = 0
		}
		if inGroup == maxSensorsPerGroup {
			continue
		}
		inGroup++
		fmt.Fprintf(&b, "\n  %s: %.1f°C %s", label, s.Current, TempIndicator(s))
	}
	return b.String()
}

// TempIndicator grades a reading against its own limits, or 75°C without them.
func TempIndicator(s Sensor) string {
	switch {
	case s.Critical > 0 && s.Current >= s.Critical:
		return "[CRITICAL]"
	case s.High > 0 && s.Current >= s.High:
		return "[HIGH]"
	case s.Current >= tempHigh:
		return "[HIGH]"
	}
	return "[OK]"
}

// splitSensor turns "coretemp_core_0" into ("coretemp", "core_0").
func splitSensor(key string) (string, string) {
	if group, label, ok := strings.Cut(key, "_"); ok && label != "" {
		return group, label
	}
	return key, "Sensor"
}

// Uptime formats the time since boot.
func (m *Module) Uptime(ctx context.Context) string {
	info, err := m.probe.Host(ctx)
	if err != nil {
		return "Unknown"
	}
	return m.uptimeSince(info.BootTime)
}

func (m *Module) uptimeSince(boot time.Time) string {
	if boot.IsZero() {
		return "Unknown"
	}
	return FormatUptime(m.now().Sub(boot))
}

// FormatUptime renders d as "2d 3h 4m", "3h 4m" or "4m".
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

const analysisPrompt = `You are an AI system administrator analyzing computer performance. Based on the current system metrics, provide a concise analysis with:

1. Overall system health assessment
2. Performance bottlenecks or concerns
3. Specific recommendations for optimization
4. Any immediate actions needed

Current system metrics:
%s

Keep response under 200 words and be practical.`

// Analyze asks the text generator to assess current metrics.
func (m *Module) Analyze(ctx context.Context) string {
	if m.generator == nil {
		return "AI analysis not available (no language model configured)"
	}

	metrics := map[string]any{}
	if cpuPct, err := m.probe.CPUPercent(ctx, sampleInterval); err == nil {
		metrics["cpu_usage"] = round1(cpuPct)
	}
	if memory, err := m.probe.Memory(ctx); err == nil {
		metrics["memory_usage"] = round1(memory.Percent)
		metrics["memory_available_gb"] = round1(gib(memory.Available))
	}
	if disk, err := m.probe.RootDisk(ctx); err == nil {
		metrics["disk_usage_percent"] = round1(disk.Percent)
	}
	if n, err := m.probe.ProcessCount(ctx); err == nil {
		metrics["process_count"] = n
	}
	metrics["uptime"] = m.Uptime(ctx)
	alerts, _ := m.collectAlerts(ctx)
	metrics["alerts"] = len(alerts)
	if battery, err := m.probe.Battery(ctx); err == nil && battery != nil {
		metrics["battery_percent"] = battery.Percent
		metrics["on_battery"] = !battery.Plugged
	}

	data, err := json.MarshalIndent(metrics, "", "  ")
	if err != nil {
		return "Error performing AI system analysis"
	}

	reply, err := m.generator.Generate(ctx, spectertypes.GenerateRequest{
		System: fmt.Sprintf(analysisPrompt, data),
		Messages: []spectertypes.Message{
			{Role: spectertypes.RoleUser, Content: "Analyze my system performance", Timestamp: m.now()},
		},
		MaxTokens:   250,
		Temperature: 0.3,
	})
	if err != nil {
		m.log.Error("AI analysis failed", "provider", m.generator.ProviderName(), "error", err)
		return "Error performing AI system analysis"
	}
	return "AI SYSTEM ANALYSIS\n" + rule + "\n" + strings.TrimSpace(reply)
}

// Indicator grades a percentage against warning and critical thresholds.
func Indicator(value, warning, critical float64) string {
	switch {
	case value >= critical:
		return "[CRITICAL]"
	case value >= warning:
		return "[WARNING]"
	}
	return "[OK]"
}

func gib(bytes uint64) float64 {
	return float64(bytes) / (1 << 30)
}

func round1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
