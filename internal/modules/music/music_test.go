package music

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"specter/internal/config"
	"specter/pkg/spectertypes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProc struct {
	mu      sync.Mutex
	paused  bool
	stopped bool
	done    chan struct{}
	once    sync.Once
}

func newFakeProc() *fakeProc {
	return &fakeProc{done: make(chan struct{})}
}

func (p *fakeProc) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = true
	return nil
}

func (p *fakeProc) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = false
	return nil
}

func (p *fakeProc) Stop() error {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	p.finish()
	return nil
}

func (p *fakeProc) Wait() error {
	<-p.done
	return nil
}

func (p *fakeProc) finish() {
	p.once.Do(func() { close(p.done) })
}

func (p *fakeProc) state() (paused, stopped bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused, p.stopped
}

type fakeStarter struct {
	mu      sync.Mutex
	paths   []string
	volumes []int
	procs   []*fakeProc
}

func (s *fakeStarter) start(path string, volume int) (Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := newFakeProc()
	s.paths = append(s.paths, path)
	s.volumes = append(s.volumes, volume)
	s.procs = append(s.procs, p)
	return p, nil
}

func (s *fakeStarter) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.paths)
}

func (s *fakeStarter) last() (*fakeProc, string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.procs) - 1
	return s.procs[n], s.paths[n], s.volumes[n]
}

type fakeFetcher struct {
	mu      sync.Mutex
	release chan struct{}
	err     error
	fetched bool
	track   Track
}

func (f *fakeFetcher) Fetch(_ context.Context, query, dir string) (Track, error) {
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		f.fetched = true
		return Track{}, f.err
	}
	path := filepath.Join(dir, "download.mp3")
	if err := os.WriteFile(path, []byte("audio"), 0644); err != nil {
		return Track{}, err
	}
	f.track = Track{Title: "The Summoning", Artist: "Sleep Token", Path: path, Temporary: true}
	f.fetched = true
	return f.track, nil
}

func (f *fakeFetcher) done() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetched
}

func noBinaries(string) (string, error) {
	return "", errors.New("not found")
}

func newTestModule(t *testing.T, fetcher Fetcher) (*Module, *fakeStarter, string) {
	t.Helper()
	library := t.TempDir()
	starter := &fakeStarter{}
	m, err := New(Options{
		Config:   config.MusicConfig{Dir: library},
		CacheDir: filepath.Join(t.TempDir(), "temp_music"),
		Start:    starter.start,
		Fetcher:  fetcher,
		LookPath: noBinaries,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m, starter, library
}

func TestNew_NoPlayer(t *testing.T) {
	_, err := New(Options{LookPath: noBinaries})
	assert.ErrorIs(t, err, ErrNoPlayer)

	_, err = New(Options{Config: config.MusicConfig{Player: "vlc"}, LookPath: noBinaries})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MUSIC_PLAYER")
}

func TestFindPlayer_PrefersKnownOrder(t *testing.T) {
	lookPath := func(name string) (string, error) {
		if name == "ffplay" || name == "mpg123" {
			return "/usr/bin/" + name, nil
		}
		return "", errors.New("missing")
	}
	path, err := findPlayer("", lookPath)
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/ffplay", path)
}

func TestPlayerArgs(t *testing.T) {
	tests := []struct {
		player string
		want   []string
	}{
		{"/usr/bin/mpv", []string{"--no-video", "--really-quiet", "--volume=40", "song.mp3"}},
		{"ffplay", []string{"-nodisp", "-autoexit", "-loglevel", "quiet", "-volume", "40", "song.mp3"}},
		{"mpg123", []string{"-q", "-f", "13107", "song.mp3"}},
		{"afplay", []string{"-v", "0.40", "song.mp3"}},
		{"other-player", []string{"song.mp3"}},
	}
	for _, tt := range tests {
		t.Run(tt.player, func(t *testing.T) {
			assert.Equal(t, tt.want, PlayerArgs(tt.player, "song.mp3", 40))
		})
	}
}

func TestExtractSong(t *testing.T) {
	assert.Equal(t, "bohemian rhapsody", ExtractSong("Play the Bohemian Rhapsody song"))
	assert.Equal(t, "popular music", ExtractSong("play some music"))
}

func TestParseFetchOutput(t *testing.T) {
	track, err := ParseFetchOutput("The Summoning\tSleep Token\t/tmp/music/The Summoning_abc.mp3\n")
	require.NoError(t, err)
	assert.Equal(t, Track{Title: "The Summoning", Artist: "Sleep Token", Path: "/tmp/music/The Summoning_abc.mp3", Temporary: true}, track)

	track, err = ParseFetchOutput("Untitled\tNA\t/tmp/x.mp3")
	require.NoError(t, err)
	assert.Equal(t, "Unknown", track.Artist)

	_, err = ParseFetchOutput("")
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestFindLocal(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"Queen - Bohemian Rhapsody.mp3", "Queen - Radio Ga Ga.flac", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}

	track, ok := FindLocal(dir, "bohemian rhapsody")
	require.True(t, ok)
	assert.Equal(t, "Bohemian Rhapsody", track.Title)
	assert.Equal(t, "Queen", track.Artist)
	assert.False(t, track.Temporary)

	_, ok = FindLocal(dir, "notes")
	assert.False(t, ok)
	_, ok = FindLocal(dir, "stairway")
	assert.False(t, ok)
}

func TestPlayLocal_PauseResumeStop(t *testing.T) {
	m, starter, library := newTestModule(t, nil)
	path := filepath.Join(library, "Queen - Bohemian Rhapsody.mp3")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	ctx := context.Background()

	out, err := m.Handle(ctx, "play bohemian rhapsody")
	require.NoError(t, err)
	assert.Equal(t, "🎵 Playing: Bohemian Rhapsody by Queen", out)
	proc, started, volume := starter.last()
	assert.Equal(t, path, started)
	assert.Equal(t, DefaultVolume, volume)

	out, _ = m.Handle(ctx, "pause the music")
	assert.Equal(t, "Music paused", out)
	paused, _ := proc.state()
	assert.True(t, paused)
	assert.Equal(t, "Nothing to pause", m.Pause())
	assert.Equal(t, "⏸️ Paused: Bohemian Rhapsody by Queen", m.NowPlaying())

	out, _ = m.Invoke(ctx, spectertypes.FuncResumeMusic, map[string]string{"command": "resume"})
	assert.Equal(t, "Music resumed", out)
	assert.Equal(t, "🎵 Now playing: Bohemian Rhapsody by Queen", m.NowPlaying())

	out, _ = m.Handle(ctx, "stop")
	assert.Equal(t, "Music stopped", out)
	_, stopped := proc.state()
	assert.True(t, stopped)
	assert.Equal(t, "Nothing is playing.", m.NowPlaying())
	assert.Equal(t, "Nothing to resume", m.Resume())

	assert.FileExists(t, path, "library tracks are never removed")
}

func TestPlay_FetchesWhenNotInLibrary(t *testing.T) {
	fetcher := &fakeFetcher{}
	m, starter, _ := newTestModule(t, fetcher)

	out, err := m.Handle(context.Background(), "play the summoning by sleep token")
	require.NoError(t, err)
	assert.Equal(t, "🔍 Searching for 'summoning by sleep token'...", out)

	require.Eventually(t, func() bool {
		return m.NowPlaying() == "🎵 Now playing: The Summoning by Sleep Token"
	}, time.Second, 5*time.Millisecond)

	proc, path, _ := starter.last()
	assert.FileExists(t, path)

	proc.finish()
	require.Eventually(t, func() bool {
		return m.NowPlaying() == "Nothing is playing."
	}, time.Second, 5*time.Millisecond)
	assert.NoFileExists(t, path)
}

func TestPlay_StaleFetchIsDiscarded(t *testing.T) {
	fetcher := &fakeFetcher{release: make(chan struct{})}
	m, starter, _ := newTestModule(t, fetcher)

	assert.Equal(t, "🔍 Searching for 'anything'...", m.Play("anything"))
	assert.Equal(t, "🔍 Searching for 'anything'...", m.NowPlaying())
	assert.Equal(t, "Music stopped", m.Stop())

	close(fetcher.release)
	require.Eventually(t, func() bool {
		if !fetcher.done() {
			return false
		}
		_, err := os.Stat(fetcher.track.Path)
		return os.IsNotExist(err)
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, 0, starter.count())
	assert.Equal(t, "Nothing is playing.", m.NowPlaying())
}

func TestPlay_FetchFailure(t *testing.T) {
	fetcher := &fakeFetcher{err: ErrNoResults}
	m, _, _ := newTestModule(t, fetcher)

	m.Play("xyz")
	require.Eventually(t, func() bool {
		return m.NowPlaying() == "❌ Couldn't find 'xyz'"
	}, time.Second, 5*time.Millisecond)
}

func TestPlay_NoFetcher(t *testing.T) {
	m, _, _ := newTestModule(t, nil)
	out, err := m.Invoke(context.Background(), spectertypes.FuncPlayMusic, map[string]string{"query": "stairway", "command": "play stairway"})
	require.NoError(t, err)
	assert.Equal(t, "No local match for 'stairway' and yt-dlp is not installed.", out)
}

func TestSetVolume(t *testing.T) {
	m, _, _ := newTestModule(t, nil)
	steps := []struct {
		text string
		want string
		vol  int
	}{
		{"volume", "🔊 Volume is at 50%", 50},
		{"turn the volume up", "🔊 Volume set to 60%", 60},
		{"volume down", "🔊 Volume set to 50%", 50},
		{"set volume to 150", "🔊 Volume set to 100%", 100},
		{"volume 30%", "🔊 Volume set to 30%", 30},
		{"mute", "🔊 Volume set to 0%", 0},
		{"quieter", "🔊 Volume set to 0%", 0},
	}
	for _, s := range steps {
		assert.Equal(t, s.want, m.SetVolume(s.text), s.text)
		assert.Equal(t, s.vol, m.Volume(), s.text)
	}

	out, err := m.Invoke(context.Background(), spectertypes.FuncSetVolume, map[string]string{"level": "70"})
	require.NoError(t, err)
	assert.Equal(t, "🔊 Volume set to 70%", out)
}

func TestInvoke_UnsupportedAndClose(t *testing.T) {
	m, _, _ := newTestModule(t, nil)
	_, err := m.Invoke(context.Background(), spectertypes.FuncGetNews, nil)
	assert.ErrorIs(t, err, spectertypes.ErrUnsupportedFunction)
	assert.Equal(t, spectertypes.SlotMusic, m.Slot())

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
}
