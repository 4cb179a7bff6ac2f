package system

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"
)

const sysfsPowerSupply = "/sys/class/power_supply"

var pmsetPattern = regexp.MustCompile(`(\d+)%;\s*([^;]+);\s*(?:(\d+):(\d+) remaining)?`)

// readBattery picks the reader for the running platform.
func readBattery(ctx context.Context) (*Battery, error) {
	switch runtime.GOOS {
	case "linux":
		return ReadSysfsBattery(sysfsPowerSupply)
	case "darwin":
		out, err := exec.CommandContext(ctx, "pmset", "-g", "batt").Output()
		if err != nil {
			return nil, fmt.Errorf("pmset failed: %w", err)
		}
		return ParsePmset(string(out))
	}
	return nil, fmt.Errorf("battery reading unsupported on %s", runtime.GOOS)
}

// ReadSysfsBattery reads the first BAT* supply under root. It returns nil
// when the machine has no battery.
func ReadSysfsBattery(root string) (*Battery, error) {
	matches, err := filepath.Glob(filepath.Join(root, "BAT*"))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	dir := matches[0]

	capacity, err := readInt(filepath.Join(dir, "capacity"))
	if err != nil {
		return nil, err
	}
	status, _ := os.ReadFile(filepath.Join(dir, "status"))
	state := strings.TrimSpace(string(status))

	b := &Battery{Percent: float64(capacity), Plugged: state != "Discharging"}

	// energy_now / power_now in µWh and µW; charge_now / current_now in µAh and µA.
	now, errNow := readInt(filepath.Join(dir, "energy_now"))
	rate, errRate := readInt(filepath.Join(dir, "power_now"))
	full, errFull := readInt(filepath.Join(dir, "energy_full"))
	if errNow != nil || errRate != nil {
		now, errNow = readInt(filepath.Join(dir, "charge_now"))
		rate, errRate = readInt(filepath.Join(dir, "current_now"))
		full, errFull = readInt(filepath.Join(dir, "charge_full"))
	}
	if errNow == nil && errRate == nil && rate > 0 {
		switch {
		case state == "Discharging":
			b.Remaining = time.Duration(float64(now) / float64(rate) * float64(time.Hour))
		case state == "Charging" && errFull == nil && full > now:
			b.Remaining = time.Duration(float64(full-now) / float64(rate) * float64(time.Hour))
		}
	}
	return b, nil
}

// ParsePmset reads `pmset -g batt` output.
func ParsePmset(out string) (*Battery, error) {
	if !strings.Contains(out, "InternalBattery") {
		return nil, nil
	}
	m := pmsetPattern.FindStringSubmatch(out)
	if m == nil {
		return nil, errors.New("unrecognized pmset output")
	}
	percent, _ := strconv.Atoi(m[1])
	b := &Battery{
		Percent: float64(percent),
		Plugged: strings.Contains(out, "'AC Power'"),
	}
	if m[3] != "" {
		hours, _ := strconv.Atoi(m[3])
		minutes, _ := strconv.Atoi(m[4])
		b.Remaining = time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute
	}
	return b, nil
}

func readInt(path string) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
}
