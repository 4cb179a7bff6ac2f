package music

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrNoResults is returned when a fetch finds nothing for the query.
var ErrNoResults = errors.New("no results found")

// Track is a playable audio file.
type Track struct {
	Title  string
	Artist string
	Path   string
	// Temporary tracks were downloaded and are removed once playback ends.
	Temporary bool
}

// Fetcher downloads the best audio match for query into dir.
type Fetcher interface {
	Fetch(ctx context.Context, query, dir string) (Track, error)
}

const printTemplate = "after_move:%(title)s\t%(uploader)s\t%(filepath)s"

// ytdlpFetcher searches YouTube and extracts mp3 audio with yt-dlp.
type ytdlpFetcher struct {
	bin string
}

func (f ytdlpFetcher) Fetch(ctx context.Context, query, dir string) (Track, error) {
	args := []string{
		"--quiet", "--no-warnings", "--no-playlist", "--no-simulate",
		"--extract-audio", "--audio-format", "mp3", "--audio-quality", "128K",
		"--output", filepath.Join(dir, "%(title).50s_%(id)s.%(ext)s"),
		"--print", printTemplate,
		"ytsearch1:" + query,
	}
	cmd := exec.CommandContext(ctx, f.bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return Track{}, fmt.Errorf("yt-dlp failed: %w: %s", err, firstLine(msg))
		}
		return Track{}, fmt.Errorf("yt-dlp failed: %w", err)
	}
	return ParseFetchOutput(stdout.String())
}

// ParseFetchOutput reads the title, uploader and file path printed by yt-dlp.
func ParseFetchOutput(out string) (Track, error) {
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Split(strings.TrimRight(line, "\r"), "\t")
		if len(fields) != 3 || strings.TrimSpace(fields[2]) == "" {
			continue
		}
		artist := strings.TrimSpace(fields[1])
		if artist == "" || artist == "NA" {
			artist = "Unknown"
		}
		return Track{
			Title:     strings.TrimSpace(fields[0]),
			Artist:    artist,
			Path:      strings.TrimSpace(fields[2]),
			Temporary: true,
		}, nil
	}
	return Track{}, ErrNoResults
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
