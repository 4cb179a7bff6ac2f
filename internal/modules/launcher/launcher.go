// Package launcher starts desktop applications, opens websites and lists or
// closes running applications.
package launcher

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"

	"specter/internal/logger"
	"specter/pkg/spectertypes"

	"github.com/charmbracelet/log"
	"github.com/sahilm/fuzzy"
	"github.com/shirou/gopsutil/v3/process"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	maxListed      = 15
	maxSuggestions = 3
	searchURL      = "https://www.google.com/search?q="
)

var (
	urlPattern    = regexp.MustCompile(`https?://\S+`)
	domainPattern = regexp.MustCompile(`\b(?:[a-z0-9-]+\.)+(?:com|org|net|io|dev|edu|gov|co|uk|ai|app|me|tv)\b(?:/\S*)?`)

	launchStopWords = map[string]bool{
		"open": true, "launch": true, "start": true, "run": true, "execute": true, "the": true,
		"a": true, "an": true, "app": true, "application": true, "please": true, "up": true, "my": true, "me": true,
	}
	closeStopWords = map[string]bool{
		"close": true, "quit": true, "kill": true, "exit": true, "stop": true, "shut": true, "down": true,
		"the": true, "a": true, "an": true, "app": true, "application": true, "please": true, "my": true, "all": true,
	}
	webStopWords = map[string]bool{
		"open": true, "website": true, "site": true, "web": true, "page": true, "search": true, "for": true,
		"google": true, "the": true, "on": true, "go": true, "to": true, "look": true, "up": true, "a": true,
	}
	listPhrases = []string{
		"running apps", "running applications", "list apps", "list applications", "list running",
		"what apps", "which apps", "what applications", "which applications",
	}
)

var titleCase = cases.Title(language.English)

// RunningProcess is one entry of the process table.
type RunningProcess struct {
	PID    int32
	Name   string
	HasExe bool // false for kernel threads and processes we cannot inspect
}

// ProcessTable lists and terminates processes.
type ProcessTable interface {
	List(ctx context.Context) ([]RunningProcess, error)
	Terminate(ctx context.Context, pid int32) error
}

// Options configures a Module.
// Zero fields fall back to runtime.GOOS, exec.LookPath, a detached
// exec.Command and the gopsutil process table.
type Options struct {
	GOOS      string
	LookPath  func(string) (string, error)
	Start     func(name string, args ...string) error
	Processes ProcessTable
}

// Module is the app launcher capability.
type Module struct {
	opts Options
	log  *log.Logger
}

// New creates the launcher.
func New(opts Options) *Module {
	if opts.GOOS == "" {
		opts.GOOS = runtime.GOOS
	}
	if opts.LookPath == nil {
		opts.LookPath = exec.LookPath
	}
	if opts.Start == nil {
		opts.Start = startDetached
	}
	if opts.Processes == nil {
		opts.Processes = gopsutilTable{}
	}
	return &Module{opts: opts, log: logger.NewStyledLogger("Launcher")}
}

// Slot returns the launcher slot.
func (m *Module) Slot() spectertypes.Slot {
	return spectertypes.SlotLauncher
}

// Handle dispatches a free-form launcher command.
func (m *Module) Handle(ctx context.Context, command string) (string, error) {
	lower := strings.ToLower(strings.TrimSpace(command))
	switch {
	case containsAny(lower, listPhrases...):
		return m.ListApps(ctx), nil
	case hasAnyPrefix(lower, "close ", "quit ", "kill ", "exit ", "shut down "):
		return m.CloseApp(ctx, stripWords(lower, closeStopWords)), nil
	case isWebTarget(lower):
		return m.OpenWebsite(command), nil
	}
	return m.Launch(ExtractAppName(command)), nil
}

// Invoke serves the classifier's launcher functions.
func (m *Module) Invoke(ctx context.Context, fn spectertypes.Function, params map[string]string) (string, error) {
	command := params["command"]
	switch fn {
	case spectertypes.FuncLaunchApp:
		if app := strings.ToLower(strings.TrimSpace(params["app"])); app != "" {
			return m.Launch(app), nil
		}
		return m.Launch(ExtractAppName(command)), nil
	case spectertypes.FuncOpenWebsite:
		if target := params["url"]; target != "" {
			return m.OpenWebsite(target), nil
		}
		return m.OpenWebsite(command), nil
	case spectertypes.FuncListApps:
		return m.ListApps(ctx), nil
	case spectertypes.FuncCloseApp:
		if app := params["app"]; app != "" {
			return m.CloseApp(ctx, strings.ToLower(app)), nil
		}
		return m.CloseApp(ctx, stripWords(strings.ToLower(command), closeStopWords)), nil
	default:
		return "", fmt.Errorf("%w: %s", spectertypes.ErrUnsupportedFunction, fn)
	}
}

// ExtractAppName strips launch verbs and filler words.
func ExtractAppName(command string) string {
	return stripWords(strings.ToLower(command), launchStopWords)
}

// Launch starts a common app, or any executable on PATH.
func (m *Module) Launch(name string) string {
	if name == "" {
		return "Please specify which application to launch."
	}

	if app, ok := lookupApp(name); ok {
		return m.launchCommon(app)
	}

	for _, candidate := range []string{name, strings.ReplaceAll(name, " ", "-"), strings.ReplaceAll(name, " ", "")} {
		if path, err := m.opts.LookPath(candidate); err == nil {
			if err := m.opts.Start(path); err != nil {
				m.log.Error("Launch failed", "app", name, "error", err)
				return fmt.Sprintf("❌ Error launching %s", name)
			}
			m.log.Info("Launched", "app", name, "path", path)
			return "🚀 Launching " + titleCase.String(name)
		}
	}

	if suggestions := m.Suggest(name); len(suggestions) > 0 {
		return fmt.Sprintf("Could not find '%s'. Did you mean: %s?", name, strings.Join(suggestions, ", "))
	}
	return fmt.Sprintf("Could not find application '%s'. Try using the full application name.", name)
}

func (m *Module) launchCommon(app App) string {
	candidates := app.Commands[m.opts.GOOS]
	if len(candidates) == 0 {
		return fmt.Sprintf("%s is not available on this system.", titleCase.String(app.Name))
	}

	var err error
	switch m.opts.GOOS {
	case "darwin":
		err = m.opts.Start("open", "-a", candidates[0])
	case "windows":
		err = m.opts.Start("cmd", "/c", "start", "", candidates[0])
	default:
		found := false
		for _, candidate := range candidates {
			fields := strings.Fields(candidate)
			path, lookErr := m.opts.LookPath(fields[0])
			if lookErr != nil {
				continue
			}
			found = true
			err = m.opts.Start(path, fields[1:]...)
			break
		}
		if !found {
			return fmt.Sprintf("❌ %s is not installed. Tried: %s", titleCase.String(app.Name), strings.Join(candidates, ", "))
		}
	}
	if err != nil {
		m.log.Error("Launch failed", "app", app.Name, "error", err)
		return fmt.Sprintf("❌ Error launching %s", app.Name)
	}
	m.log.Info("Launched", "app", app.Name)
	return "🚀 Launching " + titleCase.String(app.Name)
}

// Suggest returns up to three known app names close to name.
func (m *Module) Suggest(name string) []string {
	names := knownNames(m.opts.GOOS)
	var out []string
	seen := map[string]bool{}
	for _, match := range fuzzy.Find(name, names) {
		if seen[match.Str] {
			continue
		}
		seen[match.Str] = true
		out = append(out, match.Str)
		if len(out) == maxSuggestions {
			return out
		}
	}
	// Fall back to shared words when the letters are not in order.
	for _, word := range strings.Fields(name) {
		for _, known := range names {
			if len(out) == maxSuggestions {
				return out
			}
			if !seen[known] && len(word) > 2 && strings.Contains(known, word) {
				seen[known] = true
				out = append(out, known)
			}
		}
	}
	return out
}

// WebTarget resolves a command to the URL it should open. ok is false when
// nothing was named.
func WebTarget(command string) (target string, ok bool) {
	if u := urlPattern.FindString(command); u != "" {
		return u, true
	}
	lower := strings.ToLower(command)
	if d := domainPattern.FindString(lower); d != "" {
		return "https://" + d, true
	}
	query := stripWords(lower, webStopWords)
	if query == "" {
		return "", false
	}
	return searchURL + url.QueryEscape(query), true
}

// OpenWebsite opens a URL, domain or search in the default browser.
func (m *Module) OpenWebsite(command string) string {
	target, ok := WebTarget(command)
	if !ok {
		return "Which website should I open?"
	}

	var err error
	switch m.opts.GOOS {
	case "darwin":
		err = m.opts.Start("open", target)
	case "windows":
		err = m.opts.Start("rundll32", "url.dll,FileProtocolHandler", target)
	default:
		opener, lookErr := m.opts.LookPath("xdg-open")
		if lookErr != nil {
			return "❌ No browser opener found (install xdg-utils)."
		}
		err = m.opts.Start(opener, target)
	}
	if err != nil {
		m.log.Error("Open website failed", "url", target, "error", err)
		return "Error opening website"
	}
	return "🌐 Opening " + target
}

// ListApps lists distinct running application names.
func (m *Module) ListApps(ctx context.Context) string {
	procs, err := m.opts.Processes.List(ctx)
	if err != nil {
		m.log.Error("Process listing failed", "error", err)
		return "Error getting running applications list."
	}

	seen := map[string]bool{}
	var names []string
	for _, p := range procs {
		if !p.HasExe {
			continue
		}
		name := strings.TrimSuffix(p.Name, ".exe")
		if len(name) <= 2 || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	if len(names) == 0 {
		return "No applications currently running."
	}
	sort.Slice(names, func(i, j int) bool { return strings.ToLower(names[i]) < strings.ToLower(names[j]) })

	var b strings.Builder
	fmt.Fprintf(&b, "Currently running applications (%d):\n", len(names))
	for i, name := range names {
		if i == maxListed {
			fmt.Fprintf(&b, "\n\n... and %d more applications", len(names)-maxListed)
			break
		}
		fmt.Fprintf(&b, "\n%d. %s", i+1, name)
	}
	return b.String()
}

// CloseApp terminates every process whose name contains name.
func (m *Module) CloseApp(ctx context.Context, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Which application should I close?"
	}
	targets := []string{name}
	if app, ok := lookupApp(name); ok {
		for _, candidate := range app.Commands[m.opts.GOOS] {
			base := strings.ToLower(strings.TrimSuffix(filepath.Base(strings.Fields(candidate)[0]), ".exe"))
			if base != name {
				targets = append(targets, base)
			}
		}
	}

	procs, err := m.opts.Processes.List(ctx)
	if err != nil {
		m.log.Error("Process listing failed", "error", err)
		return fmt.Sprintf("Error closing %s", name)
	}

	self := int32(os.Getpid())
	closed := 0
	for _, p := range procs {
		if p.PID == self || !containsAny(strings.ToLower(p.Name), targets...) {
			continue
		}
		if err := m.opts.Processes.Terminate(ctx, p.PID); err != nil {
			m.log.Warn("Terminate failed", "pid", p.PID, "name", p.Name, "error", err)
			continue
		}
		closed++
	}
	if closed == 0 {
		return fmt.Sprintf("No running instances of %s found", name)
	}
	return fmt.Sprintf("Closed %d instance(s) of %s", closed, name)
}

// startDetached starts a process without waiting for it; a goroutine reaps it.
func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}

type gopsutilTable struct{}

func (gopsutilTable) List(ctx context.Context) ([]RunningProcess, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]RunningProcess, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		_, exeErr := p.ExeWithContext(ctx)
		out = append(out, RunningProcess{PID: p.Pid, Name: name, HasExe: exeErr == nil})
	}
	return out, nil
}

func (gopsutilTable) Terminate(ctx context.Context, pid int32) error {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return err
	}
	return p.TerminateWithContext(ctx)
}

func isWebTarget(lower string) bool {
	return urlPattern.MatchString(lower) || domainPattern.MatchString(lower) ||
		containsAny(lower, "website", " site", "web page", "search for", "google ", "look up")
}

func stripWords(lower string, stop map[string]bool) string {
	var kept []string
	for _, word := range strings.Fields(lower) {
		word = strings.Trim(word, "?!.,\"'")
		if word != "" && !stop[word] {
			kept = append(kept, word)
		}
	}
	return strings.Join(kept, " ")
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
