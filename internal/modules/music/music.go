// Package music plays tracks from the local library or fetched with yt-dlp
// through an external audio player process.
//
// A single owner goroutine applies fetch results and playback exits. Fetch
// workers never touch player state; they report over the updates channel.
package music

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"specter/internal/config"
	"specter/internal/logger"
	"specter/pkg/spectertypes"

	"github.com/charmbracelet/log"
)

const (
	// DefaultVolume is the starting volume in percent.
	DefaultVolume = 50
	volumeStep    = 10
)

var (
	volumePattern  = regexp.MustCompile(`\b(\d{1,3})\s*%?`)
	songStopWords  = map[string]bool{"play": true, "music": true, "song": true, "some": true, "the": true, "a": true, "open": true, "start": true, "me": true, "please": true}
	nowPlayingHint = []string{"what's playing", "what is playing", "now playing", "what song", "current song"}
)

// Options configures a Module.
type Options struct {
	Config   config.MusicConfig
	CacheDir string // downloaded tracks live here until playback ends

	// Start launches playback; defaults to the configured or first available player.
	Start StartFunc
	// Fetcher downloads tracks missing from the library; defaults to yt-dlp when installed.
	Fetcher Fetcher
	// LookPath resolves executables; defaults to exec.LookPath.
	LookPath func(string) (string, error)
}

type update struct {
	gen    uint64
	track  Track
	err    error
	query  string
	exited bool
}

// Module is the music capability.
type Module struct {
	opts Options
	log  *log.Logger

	mu          sync.Mutex
	gen         uint64
	volume      int
	current     *Track
	proc        Process
	paused      bool
	loading     string // query being fetched
	lastError   string
	cancelFetch context.CancelFunc

	updates   chan update
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New creates the player and starts its owner goroutine.
func New(opts Options) (*Module, error) {
	if opts.LookPath == nil {
		opts.LookPath = exec.LookPath
	}
	if opts.Start == nil {
		player, err := findPlayer(opts.Config.Player, opts.LookPath)
		if err != nil {
			return nil, err
		}
		opts.Start = execStarter(player)
	}
	if opts.Fetcher == nil {
		if bin, err := opts.LookPath("yt-dlp"); err == nil {
			opts.Fetcher = ytdlpFetcher{bin: bin}
		}
	}
	if opts.CacheDir != "" {
		if err := os.MkdirAll(opts.CacheDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create music cache: %w", err)
		}
	}

	m := &Module{
		opts:    opts,
		log:     logger.NewStyledLogger("Music"),
		volume:  DefaultVolume,
		updates: make(chan update),
		done:    make(chan struct{}),
	}
	m.wg.Add(1)
	go m.run()
	return m, nil
}

// Slot returns the music slot.
func (m *Module) Slot() spectertypes.Slot {
	return spectertypes.SlotMusic
}

// Handle dispatches a free-form music command.
func (m *Module) Handle(_ context.Context, command string) (string, error) {
	lower := strings.ToLower(command)
	switch {
	case strings.HasPrefix(lower, "play "):
		return m.Play(ExtractSong(command)), nil
	case strings.Contains(lower, "stop"):
		return m.Stop(), nil
	case strings.Contains(lower, "pause"):
		return m.Pause(), nil
	case containsAny(lower, "resume", "unpause", "continue"):
		return m.Resume(), nil
	case containsAny(lower, "volume", "louder", "quieter", "mute"):
		return m.SetVolume(lower), nil
	case containsAny(lower, nowPlayingHint...):
		return m.NowPlaying(), nil
	}
	return m.Play(ExtractSong(command)), nil
}

// Invoke serves the classifier's music functions.
func (m *Module) Invoke(_ context.Context, fn spectertypes.Function, params map[string]string) (string, error) {
	command := params["command"]
	switch fn {
	case spectertypes.FuncPlayMusic:
		if query := strings.TrimSpace(params["query"]); query != "" {
			return m.Play(query), nil
		}
		return m.Play(ExtractSong(command)), nil
	case spectertypes.FuncPauseMusic:
		return m.Pause(), nil
	case spectertypes.FuncResumeMusic:
		return m.Resume(), nil
	case spectertypes.FuncStopMusic:
		return m.Stop(), nil
	case spectertypes.FuncSetVolume:
		if level := params["level"]; level != "" {
			return m.SetVolume(level), nil
		}
		return m.SetVolume(strings.ToLower(command)), nil
	default:
		return "", fmt.Errorf("%w: %s", spectertypes.ErrUnsupportedFunction, fn)
	}
}

// ExtractSong strips filler words from a play command.
func ExtractSong(command string) string {
	var kept []string
	for _, word := range strings.Fields(strings.ToLower(command)) {
		word = strings.Trim(word, "?!.,")
		if word != "" && !songStopWords[word] {
			kept = append(kept, word)
		}
	}
	if len(kept) == 0 {
		return "popular music"
	}
	return strings.Join(kept, " ")
}

// Play starts a library match immediately, or fetches the query in the background.
func (m *Module) Play(query string) string {
	if track, ok := FindLocal(m.opts.Config.Dir, query); ok {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.resetLocked()
		if err := m.startLocked(track); err != nil {
			m.log.Error("Playback failed", "track", track.Path, "error", err)
			return fmt.Sprintf("❌ Could not play '%s': %v", track.Title, err)
		}
		return fmt.Sprintf("🎵 Playing: %s", describe(track))
	}

	if m.opts.Fetcher == nil {
		return fmt.Sprintf("No local match for '%s' and yt-dlp is not installed.", query)
	}

	m.mu.Lock()
	m.resetLocked()
	gen := m.gen
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelFetch = cancel
	m.loading = query
	m.wg.Add(1)
	m.mu.Unlock()

	go m.fetch(ctx, gen, query)
	return fmt.Sprintf("🔍 Searching for '%s'...", query)
}

// fetch is the download worker; it reports to the owner goroutine only.
func (m *Module) fetch(ctx context.Context, gen uint64, query string) {
	defer m.wg.Done()
	track, err := m.opts.Fetcher.Fetch(ctx, query, m.opts.CacheDir)
	select {
	case m.updates <- update{gen: gen, track: track, err: err, query: query}:
	case <-m.done:
		removeTemporary(track)
	}
}

func (m *Module) run() {
	defer m.wg.Done()
	for {
		select {
		case u := <-m.updates:
			m.apply(u)
		case <-m.done:
			return
		}
	}
}

func (m *Module) apply(u update) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u.gen != m.gen {
		if !u.exited {
			removeTemporary(u.track)
		}
		return
	}

	if u.exited {
		m.log.Debug("Playback finished")
		m.clearTrackLocked()
		return
	}

	m.loading = ""
	m.cancelFetch = nil
	if u.err != nil {
		if errors.Is(u.err, context.Canceled) {
			return
		}
		m.log.Error("Fetch failed", "query", u.query, "error", u.err)
		m.lastError = fmt.Sprintf("Couldn't find '%s'", u.query)
		return
	}
	if err := m.startLocked(u.track); err != nil {
		m.log.Error("Playback failed", "track", u.track.Path, "error", err)
		m.lastError = fmt.Sprintf("Couldn't play '%s'", u.track.Title)
		removeTemporary(u.track)
	}
}

// startLocked launches track and watches for its exit.
func (m *Module) startLocked(track Track) error {
	proc, err := m.opts.Start(track.Path, m.volume)
	if err != nil {
		return err
	}
	m.current = &track
	m.proc = proc
	m.paused = false
	m.lastError = ""

	gen := m.gen
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		_ = proc.Wait()
		select {
		case m.updates <- update{gen: gen, exited: true}:
		case <-m.done:
		}
	}()
	m.log.Info("Playing", "title", track.Title, "artist", track.Artist)
	return nil
}

// resetLocked stops playback and abandons any fetch in flight.
func (m *Module) resetLocked() {
	m.gen++
	if m.cancelFetch != nil {
		m.cancelFetch()
		m.cancelFetch = nil
	}
	m.loading = ""
	if m.proc != nil {
		if err := m.proc.Stop(); err != nil {
			m.log.Warn("Failed to stop player", "error", err)
		}
	}
	m.clearTrackLocked()
}

func (m *Module) clearTrackLocked() {
	if m.current != nil {
		removeTemporary(*m.current)
	}
	m.current = nil
	m.proc = nil
	m.paused = false
}

// Stop ends playback and cancels any pending fetch.
func (m *Module) Stop() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
	return "Music stopped"
}

// Pause suspends the player process.
func (m *Module) Pause() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.proc == nil || m.paused {
		return "Nothing to pause"
	}
	if err := m.proc.Pause(); err != nil {
		m.log.Warn("Pause failed", "error", err)
		return fmt.Sprintf("❌ Could not pause: %v", err)
	}
	m.paused = true
	return "Music paused"
}

// Resume continues a paused player process.
func (m *Module) Resume() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.proc == nil || !m.paused {
		return "Nothing to resume"
	}
	if err := m.proc.Resume(); err != nil {
		m.log.Warn("Resume failed", "error", err)
		return fmt.Sprintf("❌ Could not resume: %v", err)
	}
	m.paused = false
	return "Music resumed"
}

// SetVolume reads a level or a relative change from text. The external
// players take volume at launch, so changes apply from the next track.
func (m *Module) SetVolume(text string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "mute"):
		m.volume = 0
	case containsAny(lower, "max", "full"):
		m.volume = 100
	case volumePattern.MatchString(lower):
		n, _ := strconv.Atoi(volumePattern.FindStringSubmatch(lower)[1])
		m.volume = clamp(n, 0, 100)
	case containsAny(lower, "up", "louder", "increase", "raise"):
		m.volume = clamp(m.volume+volumeStep, 0, 100)
	case containsAny(lower, "down", "quieter", "lower", "decrease", "reduce"):
		m.volume = clamp(m.volume-volumeStep, 0, 100)
	default:
		return fmt.Sprintf("🔊 Volume is at %d%%", m.volume)
	}

	if m.proc != nil {
		return fmt.Sprintf("🔊 Volume set to %d%% (applies from the next track)", m.volume)
	}
	return fmt.Sprintf("🔊 Volume set to %d%%", m.volume)
}

// Volume returns the current volume in percent.
func (m *Module) Volume() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

// NowPlaying describes the player state.
func (m *Module) NowPlaying() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case m.loading != "":
		return fmt.Sprintf("🔍 Searching for '%s'...", m.loading)
	case m.current != nil && m.paused:
		return fmt.Sprintf("⏸️ Paused: %s", describe(*m.current))
	case m.current != nil:
		return fmt.Sprintf("🎵 Now playing: %s", describe(*m.current))
	case m.lastError != "":
		return "❌ " + m.lastError
	}
	return "Nothing is playing."
}

// Close stops playback and waits for the workers to exit.
func (m *Module) Close() error {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.resetLocked()
		m.mu.Unlock()
		close(m.done)
		m.wg.Wait()
	})
	return nil
}

func describe(t Track) string {
	if t.Artist == "" || t.Artist == "Unknown" {
		return t.Title
	}
	return fmt.Sprintf("%s by %s", t.Title, t.Artist)
}

func removeTemporary(t Track) {
	if t.Temporary && t.Path != "" {
		_ = os.Remove(t.Path)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
