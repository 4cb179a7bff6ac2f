// Package version holds Specter's build information.
package version

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
)

// Set at build time with -ldflags "-X specter/internal/version.Version=...".
var (
	Version   = "1.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Release codenames, keyed by major.minor.0.
var codenames = map[string]string{
	"0.9.0": "Wisp",
	"1.0.0": "Shade",
	"1.1.0": "Phantom",
	"2.0.0": "Wraith",
}

// Info is the full build description.
type Info struct {
	Version   string          `json:"version"`
	Codename  string          `json:"codename"`
	GitCommit string          `json:"gitCommit"`
	BuildDate string          `json:"buildDate"`
	GoVersion string          `json:"goVersion"`
	Platform  string          `json:"platform"`
	SemVer    *semver.Version `json:"-"`
}

// GetVersion returns the version string.
func GetVersion() string {
	return Version
}

// GetCodename returns the codename of the running version.
func GetCodename() string {
	return GetCodenameForVersion(Version)
}

// GetCodenameForVersion matches exact versions first, then major.minor.0.
func GetCodenameForVersion(version string) string {
	if codename, ok := codenames[version]; ok {
		return codename
	}
	sv, err := semver.NewVersion(version)
	if err != nil {
		return ""
	}
	return codenames[fmt.Sprintf("%d.%d.0", sv.Major(), sv.Minor())]
}

// GetBaseVersion strips prerelease and build metadata.
func GetBaseVersion() string {
	sv, err := semver.NewVersion(Version)
	if err != nil {
		return Version
	}
	return fmt.Sprintf("%d.%d.%d", sv.Major(), sv.Minor(), sv.Patch())
}

// GetInfo parses the version and gathers platform details.
func GetInfo() (*Info, error) {
	sv, err := semver.NewVersion(Version)
	if err != nil {
		return nil, fmt.Errorf("invalid semantic version '%s': %w", Version, err)
	}
	return &Info{
		Version:   Version,
		Codename:  GetCodename(),
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		SemVer:    sv,
	}, nil
}

// GetFormattedVersion returns the one-line banner version.
func GetFormattedVersion() string {
	info, err := GetInfo()
	if err != nil {
		return fmt.Sprintf("Specter v%s (invalid version)", Version)
	}

	head := fmt.Sprintf("Specter v%s", info.Version)
	if info.Codename != "" {
		head += fmt.Sprintf(" '%s'", info.Codename)
	}
	parts := []string{head}
	if info.GitCommit != "unknown" && info.GitCommit != "" {
		short := info.GitCommit
		if len(short) > 7 {
			short = short[:7]
		}
		parts = append(parts, "commit "+short)
	}
	if info.BuildDate != "unknown" && info.BuildDate != "" {
		parts = append(parts, "built "+info.BuildDate)
	}
	return strings.Join(parts, ", ")
}

// GetDetailedVersion returns the multi-line `specter version --detail` text.
func GetDetailedVersion() string {
	info, err := GetInfo()
	if err != nil {
		return fmt.Sprintf("Specter v%s (error: %v)", Version, err)
	}

	lines := []string{GetFormattedVersion()}
	if info.Codename != "" {
		lines = append(lines, "Codename: "+info.Codename)
	}
	lines = append(lines,
		"Git Commit: "+info.GitCommit,
		"Build Date: "+info.BuildDate,
	)
	if meta := info.SemVer.Metadata(); meta != "" {
		lines = append(lines, "Build Metadata: "+meta)
	}
	lines = append(lines,
		"Go Version: "+info.GoVersion,
		"Platform: "+info.Platform,
	)
	return strings.Join(lines, "\n")
}

// ValidateVersion checks that Version is semantic.
func ValidateVersion() error {
	if _, err := semver.NewVersion(Version); err != nil {
		return fmt.Errorf("invalid semantic version '%s': %w", Version, err)
	}
	return nil
}

// IsPrerelease reports a prerelease version such as 1.1.0-rc.1.
func IsPrerelease() bool {
	sv, err := semver.NewVersion(Version)
	if err != nil {
		return false
	}
	return sv.Prerelease() != ""
}

// IsDevelopment reports a build without injected commit or date.
func IsDevelopment() bool {
	return GitCommit == "unknown" || BuildDate == "unknown"
}

// CompareVersions returns -1, 0 or 1.
func CompareVersions(v1, v2 string) (int, error) {
	sv1, err := semver.NewVersion(v1)
	if err != nil {
		return 0, fmt.Errorf("invalid version v1 '%s': %w", v1, err)
	}
	sv2, err := semver.NewVersion(v2)
	if err != nil {
		return 0, fmt.Errorf("invalid version v2 '%s': %w", v2, err)
	}
	return sv1.Compare(sv2), nil
}

// Satisfies reports whether the running version meets constraint, e.g. ">= 1.0".
func Satisfies(constraint string) (bool, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("invalid constraint '%s': %w", constraint, err)
	}
	sv, err := semver.NewVersion(Version)
	if err != nil {
		return false, fmt.Errorf("invalid semantic version '%s': %w", Version, err)
	}
	return c.Check(sv), nil
}

// SetBuildInfo overrides build information.
func SetBuildInfo(version, gitCommit, buildDate string) {
	Version = version
	GitCommit = gitCommit
	BuildDate = buildDate
}

// GetBuildTime parses BuildDate.
func GetBuildTime() (time.Time, error) {
	if BuildDate == "unknown" || BuildDate == "" {
		return time.Time{}, fmt.Errorf("build date not available")
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, BuildDate); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse build date '%s'", BuildDate)
}
