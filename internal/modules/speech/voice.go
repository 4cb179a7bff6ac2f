package speech

import (
	"context"
	"errors"
	"os/exec"
	"strconv"
	"strings"

	"specter/internal/config"
)

// ErrNoVoice is returned when no text-to-speech program is available.
var ErrNoVoice = errors.New("no text-to-speech command found (set TTS_COMMAND or install espeak-ng)")

const windowsSpeak = "Add-Type -AssemblyName System.Speech; " +
	"(New-Object System.Speech.Synthesis.SpeechSynthesizer).Speak([Console]::In.ReadToEnd())"

// Voice is an external text-to-speech program. The text is appended as the last
// argument, or written to stdin when Stdin is set.
type Voice struct {
	Path  string
	Args  []string
	Stdin bool
}

// ResolveVoice picks TTS_COMMAND when set, otherwise the platform default.
func ResolveVoice(cfg config.SpeechConfig, goos string, lookPath func(string) (string, error)) (Voice, error) {
	if fields := strings.Fields(cfg.Command); len(fields) > 0 {
		path, err := lookPath(fields[0])
		if err != nil {
			return Voice{}, err
		}
		return Voice{Path: path, Args: fields[1:]}, nil
	}

	rate := strconv.Itoa(cfg.Rate)
	switch goos {
	case "darwin":
		if path, err := lookPath("say"); err == nil {
			return Voice{Path: path, Args: []string{"-r", rate}}, nil
		}
	case "windows":
		if path, err := lookPath("powershell"); err == nil {
			return Voice{Path: path, Args: []string{"-NoProfile", "-Command", windowsSpeak}, Stdin: true}, nil
		}
	default:
		for _, name := range []string{"espeak-ng", "espeak"} {
			if path, err := lookPath(name); err == nil {
				return Voice{Path: path, Args: []string{"-s", rate}}, nil
			}
		}
		if path, err := lookPath("spd-say"); err == nil {
			return Voice{Path: path, Args: []string{"--wait"}}, nil
		}
	}
	return Voice{}, ErrNoVoice
}

// Command builds the process that speaks text.
func (v Voice) Command(ctx context.Context, text string) *exec.Cmd {
	args := append([]string(nil), v.Args...)
	if !v.Stdin {
		args = append(args, text)
	}
	cmd := exec.CommandContext(ctx, v.Path, args...)
	if v.Stdin {
		cmd.Stdin = strings.NewReader(text)
	}
	return cmd
}

// Say speaks text and blocks until the program exits or ctx is cancelled.
func (v Voice) Say(ctx context.Context, text string) error {
	return v.Command(ctx, text).Run()
}
