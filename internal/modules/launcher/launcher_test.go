package launcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"specter/pkg/spectertypes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type started struct {
	name string
	args []string
}

type fakeTable struct {
	procs      []RunningProcess
	terminated []int32
	listErr    error
}

func (f *fakeTable) List(context.Context) ([]RunningProcess, error) {
	return f.procs, f.listErr
}

func (f *fakeTable) Terminate(_ context.Context, pid int32) error {
	f.terminated = append(f.terminated, pid)
	return nil
}

type harness struct {
	module *Module
	calls  []started
	table  *fakeTable
}

// newHarness builds a launcher where only the named binaries exist on PATH.
func newHarness(goos string, onPath ...string) *harness {
	h := &harness{table: &fakeTable{}}
	available := map[string]bool{}
	for _, name := range onPath {
		available[name] = true
	}
	h.module = New(Options{
		GOOS: goos,
		LookPath: func(name string) (string, error) {
			if available[name] {
				return "/usr/bin/" + name, nil
			}
			return "", errors.New("not found")
		},
		Start: func(name string, args ...string) error {
			h.calls = append(h.calls, started{name: name, args: args})
			return nil
		},
		Processes: h.table,
	})
	return h
}

func TestExtractAppName(t *testing.T) {
	tests := []struct {
		command string
		want    string
	}{
		{"Open the Calculator please", "calculator"},
		{"launch visual studio code", "visual studio code"},
		{"start my text editor", "text editor"},
		{"run gimp", "gimp"},
		{"open", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExtractAppName(tt.command), tt.command)
	}
}

func TestLaunchCommonAppLinux(t *testing.T) {
	h := newHarness("linux", "kcalc")
	reply, err := h.module.Handle(context.Background(), "open calculator")
	require.NoError(t, err)
	assert.Equal(t, "🚀 Launching Calculator", reply)
	require.Len(t, h.calls, 1)
	assert.Equal(t, "/usr/bin/kcalc", h.calls[0].name)
	assert.Empty(t, h.calls[0].args)
}

func TestLaunchCommonAppWithArguments(t *testing.T) {
	h := newHarness("linux", "libreoffice")
	assert.Equal(t, "🚀 Launching Word", h.module.Launch("word"))
	require.Len(t, h.calls, 1)
	assert.Equal(t, started{name: "/usr/bin/libreoffice", args: []string{"--writer"}}, h.calls[0])
}

func TestLaunchAliasOnDarwinAndWindows(t *testing.T) {
	mac := newHarness("darwin")
	assert.Equal(t, "🚀 Launching Chrome", mac.module.Launch("google chrome"))
	assert.Equal(t, started{name: "open", args: []string{"-a", "Google Chrome"}}, mac.calls[0])

	win := newHarness("windows")
	assert.Equal(t, "🚀 Launching Calculator", win.module.Launch("calc"))
	assert.Equal(t, started{name: "cmd", args: []string{"/c", "start", "", "calc.exe"}}, win.calls[0])
}

func TestLaunchCommonAppMissing(t *testing.T) {
	h := newHarness("linux")
	assert.Equal(t, "❌ Calculator is not installed. Tried: gnome-calculator, kcalc, galculator", h.module.Launch("calculator"))
	assert.Equal(t, "Safari is not available on this system.", h.module.Launch("safari"))
	assert.Empty(t, h.calls)
}

func TestLaunchFromPath(t *testing.T) {
	h := newHarness("linux", "obsidian", "android-studio")

	assert.Equal(t, "🚀 Launching Obsidian", h.module.Launch("obsidian"))
	assert.Equal(t, "🚀 Launching Android Studio", h.module.Launch("android studio"))
	require.Len(t, h.calls, 2)
	assert.Equal(t, "/usr/bin/android-studio", h.calls[1].name)
}

func TestLaunchSuggestsSimilarApps(t *testing.T) {
	h := newHarness("linux")

	assert.Equal(t, "Could not find 'calcul'. Did you mean: calculator?", h.module.Launch("calcul"))
	assert.Equal(t, "Could not find application 'zzqx'. Try using the full application name.", h.module.Launch("zzqx"))
	assert.Equal(t, "Please specify which application to launch.", h.module.Launch(""))
}

func TestSuggestIsCapped(t *testing.T) {
	h := newHarness("linux")
	assert.LessOrEqual(t, len(h.module.Suggest("e")), maxSuggestions)
}

func TestWebTarget(t *testing.T) {
	tests := []struct {
		command string
		want    string
		ok      bool
	}{
		{"open https://go.dev/doc", "https://go.dev/doc", true},
		{"open github.com", "https://github.com", true},
		{"Go to news.ycombinator.com/best", "https://news.ycombinator.com/best", true},
		{"search for golang generics", searchURL + "golang+generics", true},
		{"google weather in paris", searchURL + "weather+in+paris", true},
		{"open website", "", false},
	}
	for _, tt := range tests {
		got, ok := WebTarget(tt.command)
		assert.Equal(t, tt.ok, ok, tt.command)
		assert.Equal(t, tt.want, got, tt.command)
	}
}

func TestOpenWebsitePerPlatform(t *testing.T) {
	linux := newHarness("linux", "xdg-open")
	reply, err := linux.module.Handle(context.Background(), "open github.com")
	require.NoError(t, err)
	assert.Equal(t, "🌐 Opening https://github.com", reply)
	assert.Equal(t, started{name: "/usr/bin/xdg-open", args: []string{"https://github.com"}}, linux.calls[0])

	bare := newHarness("linux")
	assert.Equal(t, "❌ No browser opener found (install xdg-utils).", bare.module.OpenWebsite("github.com"))

	mac := newHarness("darwin")
	mac.module.OpenWebsite("github.com")
	assert.Equal(t, started{name: "open", args: []string{"https://github.com"}}, mac.calls[0])

	win := newHarness("windows")
	win.module.OpenWebsite("github.com")
	assert.Equal(t, started{name: "rundll32", args: []string{"url.dll,FileProtocolHandler", "https://github.com"}}, win.calls[0])

	assert.Equal(t, "Which website should I open?", linux.module.OpenWebsite("open the website"))
}

func TestListApps(t *testing.T) {
	h := newHarness("linux")
	h.table.procs = []RunningProcess{
		{PID: 1, Name: "firefox", HasExe: true},
		{PID: 2, Name: "firefox", HasExe: true},
		{PID: 3, Name: "sh", HasExe: true},
		{PID: 4, Name: "kworker/0:1", HasExe: false},
		{PID: 5, Name: "Code.exe", HasExe: true},
		{PID: 6, Name: "bash", HasExe: true},
	}

	reply, err := h.module.Handle(context.Background(), "what apps are running")
	require.NoError(t, err)
	assert.Equal(t, "Currently running applications (3):\n\n1. bash\n2. Code\n3. firefox", reply)
}

func TestListAppsCapsOutput(t *testing.T) {
	h := newHarness("linux")
	for i := 0; i < 17; i++ {
		h.table.procs = append(h.table.procs, RunningProcess{PID: int32(i), Name: fmt.Sprintf("app%02d", i), HasExe: true})
	}

	reply := h.module.ListApps(context.Background())
	assert.Contains(t, reply, "Currently running applications (17):")
	assert.Contains(t, reply, "15. app14")
	assert.NotContains(t, reply, "app15")
	assert.Contains(t, reply, "... and 2 more applications")
}

func TestListAppsEmptyAndError(t *testing.T) {
	h := newHarness("linux")
	assert.Equal(t, "No applications currently running.", h.module.ListApps(context.Background()))

	h.table.listErr = errors.New("denied")
	assert.Equal(t, "Error getting running applications list.", h.module.ListApps(context.Background()))
}

func TestCloseApp(t *testing.T) {
	h := newHarness("linux")
	self := int32(os.Getpid())
	h.table.procs = []RunningProcess{
		{PID: 10, Name: "firefox", HasExe: true},
		{PID: 11, Name: "firefox-bin", HasExe: true},
		{PID: 12, Name: "bash", HasExe: true},
		{PID: self, Name: "firefox-helper", HasExe: true},
	}

	reply, err := h.module.Handle(context.Background(), "close firefox")
	require.NoError(t, err)
	assert.Equal(t, "Closed 2 instance(s) of firefox", reply)
	assert.Equal(t, []int32{10, 11}, h.table.terminated)

	assert.Equal(t, "No running instances of zzqx found", h.module.CloseApp(context.Background(), "zzqx"))
	assert.Equal(t, "Which application should I close?", h.module.CloseApp(context.Background(), " "))
}

func TestCloseAppMatchesPlatformCommand(t *testing.T) {
	h := newHarness("linux")
	h.table.procs = []RunningProcess{{PID: 20, Name: "gnome-calculator", HasExe: true}}

	reply, err := h.module.Invoke(context.Background(), spectertypes.FuncCloseApp, map[string]string{"app": "Calculator"})
	require.NoError(t, err)
	assert.Equal(t, "Closed 1 instance(s) of calculator", reply)
}

func TestInvoke(t *testing.T) {
	h := newHarness("linux", "firefox", "xdg-open")
	ctx := context.Background()

	reply, err := h.module.Invoke(ctx, spectertypes.FuncLaunchApp, map[string]string{"command": "open firefox", "app": "Firefox"})
	require.NoError(t, err)
	assert.Equal(t, "🚀 Launching Firefox", reply)

	reply, err = h.module.Invoke(ctx, spectertypes.FuncOpenWebsite, map[string]string{"command": "open the docs", "url": "https://go.dev"})
	require.NoError(t, err)
	assert.Equal(t, "🌐 Opening https://go.dev", reply)

	reply, err = h.module.Invoke(ctx, spectertypes.FuncListApps, map[string]string{"command": "list apps"})
	require.NoError(t, err)
	assert.Equal(t, "No applications currently running.", reply)

	_, err = h.module.Invoke(ctx, spectertypes.FuncPlayMusic, map[string]string{"command": "play jazz"})
	assert.ErrorIs(t, err, spectertypes.ErrUnsupportedFunction)
	assert.Equal(t, spectertypes.SlotLauncher, h.module.Slot())
}
