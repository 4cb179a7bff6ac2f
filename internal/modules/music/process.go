package music

import (
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// ErrNoPlayer is returned when no audio player executable can be found.
var ErrNoPlayer = errors.New("no audio player found (install mpv, ffplay or mpg123, or set MUSIC_PLAYER)")

// ErrPauseUnsupported is returned by Pause and Resume where the platform cannot suspend a process.
var ErrPauseUnsupported = errors.New("pausing is not supported on this platform")

// knownPlayers are tried in order when MUSIC_PLAYER is unset.
var knownPlayers = []string{"mpv", "ffplay", "mpg123", "afplay", "cvlc"}

// Process is a running playback.
type Process interface {
	Pause() error
	Resume() error
	Stop() error
	// Wait blocks until playback ends, either naturally or after Stop.
	Wait() error
}

// StartFunc starts playback of path at volume (0-100).
type StartFunc func(path string, volume int) (Process, error)

// findPlayer resolves the configured player, or the first known one on PATH.
func findPlayer(configured string, lookPath func(string) (string, error)) (string, error) {
	if configured != "" {
		path, err := lookPath(configured)
		if err != nil {
			return "", fmt.Errorf("MUSIC_PLAYER %q not found: %w", configured, err)
		}
		return path, nil
	}
	for _, name := range knownPlayers {
		if path, err := lookPath(name); err == nil {
			return path, nil
		}
	}
	return "", ErrNoPlayer
}

// PlayerArgs builds the command line for a known player. Unknown players get the path only.
func PlayerArgs(player, path string, volume int) []string {
	switch strings.TrimSuffix(filepath.Base(player), ".exe") {
	case "mpv":
		return []string{"--no-video", "--really-quiet", "--volume=" + strconv.Itoa(volume), path}
	case "ffplay":
		return []string{"-nodisp", "-autoexit", "-loglevel", "quiet", "-volume", strconv.Itoa(volume), path}
	case "mpg123":
		return []string{"-q", "-f", strconv.Itoa(32768 * volume / 100), path}
	case "afplay":
		return []string{"-v", strconv.FormatFloat(float64(volume)/100, 'f', 2, 64), path}
	case "cvlc", "vlc":
		return []string{"--play-and-exit", "--quiet", path}
	}
	return []string{path}
}

// execStarter launches player as a child process.
func execStarter(player string) StartFunc {
	return func(path string, volume int) (Process, error) {
		cmd := exec.Command(player, PlayerArgs(player, path, volume)...)
		if err := cmd.Start(); err != nil {
			return nil, fmt.Errorf("failed to start %s: %w", filepath.Base(player), err)
		}
		p := &execProcess{cmd: cmd, done: make(chan struct{})}
		go func() {
			p.err = cmd.Wait()
			close(p.done)
		}()
		return p, nil
	}
}

type execProcess struct {
	cmd      *exec.Cmd
	done     chan struct{}
	err      error
	stopOnce sync.Once
}

func (p *execProcess) Pause() error {
	return suspend(p.cmd.Process)
}

func (p *execProcess) Resume() error {
	return resume(p.cmd.Process)
}

func (p *execProcess) Stop() error {
	var err error
	p.stopOnce.Do(func() {
		select {
		case <-p.done:
			return
		default:
		}
		// A suspended process must be continued before it can exit on some platforms.
		_ = resume(p.cmd.Process)
		err = p.cmd.Process.Kill()
	})
	if errors.Is(err, errProcessDone) {
		return nil
	}
	return err
}

func (p *execProcess) Wait() error {
	<-p.done
	return p.err
}
