package music

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/sahilm/fuzzy"
)

var audioExtensions = map[string]bool{
	".mp3": true, ".flac": true, ".wav": true, ".m4a": true, ".ogg": true, ".aac": true, ".opus": true,
}

const maxLibraryDepth = 5

type libraryFiles []string

func (l libraryFiles) String(i int) string {
	return trackName(l[i])
}

func (l libraryFiles) Len() int {
	return len(l)
}

// FindLocal returns the best library match for query. Every query word must
// appear in the file name; the fuzzy score ranks the survivors.
func FindLocal(dir, query string) (Track, bool) {
	words := strings.Fields(strings.ToLower(query))
	if dir == "" || len(words) == 0 {
		return Track{}, false
	}

	var candidates libraryFiles
	rootDepth := strings.Count(filepath.Clean(dir), string(filepath.Separator))
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if strings.Count(path, string(filepath.Separator))-rootDepth >= maxLibraryDepth {
				return fs.SkipDir
			}
			return nil
		}
		if !audioExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		name := trackName(path)
		for _, w := range words {
			if !strings.Contains(name, w) {
				return nil
			}
		}
		candidates = append(candidates, path)
		return nil
	})
	if len(candidates) == 0 {
		return Track{}, false
	}

	best := candidates[0]
	if matches := fuzzy.FindFrom(strings.Join(words, " "), candidates); len(matches) > 0 {
		best = candidates[matches[0].Index]
	}
	return trackFromPath(best), true
}

// trackName is the lower-cased file name without extension.
func trackName(path string) string {
	base := filepath.Base(path)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}

// trackFromPath reads "Artist - Title" file names; other names become the title.
func trackFromPath(path string) Track {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	track := Track{Title: name, Artist: "Unknown", Path: path}
	if artist, title, ok := strings.Cut(name, " - "); ok {
		track.Artist = strings.TrimSpace(artist)
		track.Title = strings.TrimSpace(title)
	}
	return track
}
