package launcher

// App is a well-known application and how to start it on each platform.
type App struct {
	Name    string
	Aliases []string
	// Commands per GOOS; the first candidate found on PATH wins. On darwin
	// the entry is an application bundle name passed to `open -a`.
	Commands map[string][]string
}

var commonApps = []App{
	{"calculator", []string{"calc"}, map[string][]string{
		"linux": {"gnome-calculator", "kcalc", "galculator"}, "darwin": {"Calculator"}, "windows": {"calc.exe"},
	}},
	{"terminal", []string{"command prompt", "cmd", "console"}, map[string][]string{
		"linux": {"gnome-terminal", "konsole", "xfce4-terminal", "xterm"}, "darwin": {"Terminal"}, "windows": {"cmd.exe"},
	}},
	{"powershell", nil, map[string][]string{
		"linux": {"pwsh"}, "darwin": {"PowerShell"}, "windows": {"powershell.exe"},
	}},
	{"file explorer", []string{"explorer", "files", "file manager", "finder"}, map[string][]string{
		"linux": {"nautilus", "dolphin", "thunar", "nemo"}, "darwin": {"Finder"}, "windows": {"explorer.exe"},
	}},
	{"text editor", []string{"notepad", "editor", "textedit"}, map[string][]string{
		"linux": {"gnome-text-editor", "gedit", "kate", "mousepad"}, "darwin": {"TextEdit"}, "windows": {"notepad.exe"},
	}},
	{"task manager", []string{"system monitor", "activity monitor"}, map[string][]string{
		"linux": {"gnome-system-monitor", "plasma-systemmonitor", "ksysguard"}, "darwin": {"Activity Monitor"}, "windows": {"taskmgr.exe"},
	}},
	{"paint", nil, map[string][]string{
		"linux": {"pinta", "kolourpaint", "gimp"}, "darwin": {"Preview"}, "windows": {"mspaint.exe"},
	}},
	{"chrome", []string{"google chrome"}, map[string][]string{
		"linux": {"google-chrome", "google-chrome-stable", "chromium", "chromium-browser"}, "darwin": {"Google Chrome"}, "windows": {"chrome.exe"},
	}},
	{"firefox", nil, map[string][]string{
		"linux": {"firefox"}, "darwin": {"Firefox"}, "windows": {"firefox.exe"},
	}},
	{"edge", []string{"microsoft edge"}, map[string][]string{
		"linux": {"microsoft-edge"}, "darwin": {"Microsoft Edge"}, "windows": {"msedge.exe"},
	}},
	{"safari", nil, map[string][]string{
		"darwin": {"Safari"},
	}},
	{"visual studio code", []string{"vscode", "vs code", "code"}, map[string][]string{
		"linux": {"code"}, "darwin": {"Visual Studio Code"}, "windows": {"code.cmd", "code.exe"},
	}},
	{"word", []string{"microsoft word"}, map[string][]string{
		"linux": {"libreoffice --writer"}, "darwin": {"Microsoft Word"}, "windows": {"winword.exe"},
	}},
	{"excel", []string{"microsoft excel", "spreadsheet"}, map[string][]string{
		"linux": {"libreoffice --calc"}, "darwin": {"Microsoft Excel"}, "windows": {"excel.exe"},
	}},
	{"powerpoint", []string{"presentation"}, map[string][]string{
		"linux": {"libreoffice --impress"}, "darwin": {"Microsoft PowerPoint"}, "windows": {"powerpnt.exe"},
	}},
	{"outlook", nil, map[string][]string{
		"darwin": {"Microsoft Outlook"}, "windows": {"outlook.exe"},
	}},
	{"media player", []string{"vlc"}, map[string][]string{
		"linux": {"vlc", "totem"}, "darwin": {"VLC", "QuickTime Player"}, "windows": {"wmplayer.exe"},
	}},
	{"settings", []string{"control panel", "system settings"}, map[string][]string{
		"linux": {"gnome-control-center", "systemsettings"}, "darwin": {"System Settings"}, "windows": {"control.exe"},
	}},
}

// lookupApp finds a common app by name or alias.
func lookupApp(name string) (App, bool) {
	for _, app := range commonApps {
		if app.Name == name {
			return app, true
		}
		for _, alias := range app.Aliases {
			if alias == name {
				return app, true
			}
		}
	}
	return App{}, false
}

// knownNames lists every name and alias available on goos.
func knownNames(goos string) []string {
	var names []string
	for _, app := range commonApps {
		if len(app.Commands[goos]) == 0 {
			continue
		}
		names = append(names, app.Name)
		names = append(names, app.Aliases...)
	}
	return names
}
