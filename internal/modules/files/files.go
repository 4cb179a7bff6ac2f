// Package files searches the user's common folders, organizes Downloads by
// file type, reports duplicates and removes empty folders.
package files

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"specter/internal/logger"
	"specter/pkg/spectertypes"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
)

const (
	maxResults       = 10
	maxPerDirectory  = 5
	maxSearchDepth   = 6
	maxListedResults = 10
)

// Category groups file extensions for organizing and searching.
type Category struct {
	Name       string
	Extensions []string
	Keywords   []string
}

// Categories is checked in order.
var Categories = []Category{
	{"Documents", []string{".pdf", ".doc", ".docx", ".txt", ".rtf", ".odt", ".md"}, []string{"document", "docs"}},
	{"Images", []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".svg", ".tiff", ".webp"}, []string{"image", "picture", "photo"}},
	{"Videos", []string{".mp4", ".avi", ".mkv", ".mov", ".wmv", ".flv", ".webm"}, []string{"video", "movie"}},
	{"Audio", []string{".mp3", ".wav", ".flac", ".aac", ".ogg", ".wma", ".m4a"}, []string{"music", "song", "audio"}},
	{"Archives", []string{".zip", ".rar", ".7z", ".tar", ".gz"}, []string{"archive", "zip"}},
	{"Code", []string{".py", ".js", ".go", ".html", ".css", ".cpp", ".java", ".php"}, []string{"code", "source"}},
}

// Single-extension shortcuts for common spoken names.
var extensionWords = map[string]string{
	"pdf":    ".pdf",
	"python": ".py",
	"text":   ".txt",
	"word":   ".docx",
}

var (
	extensionPattern = regexp.MustCompile(`(?:^|\s)(\.[a-z0-9]{1,5})\b`)
	passwordPattern  = regexp.MustCompile(`(?i)\b(?:password|pin|code)\s+(\S+)`)
)

var searchStopWords = map[string]bool{
	"find": true, "search": true, "for": true, "file": true, "files": true, "my": true,
	"the": true, "a": true, "named": true, "called": true, "where": true, "is": true,
	"locate": true, "me": true, "folder": true, "folders": true, "all": true,
}

// Options configures a Module.
type Options struct {
	HomeDir           string
	SearchDirs        []string // defaults to Documents, Downloads, Desktop, Music, Pictures under HomeDir
	DownloadsDir      string   // defaults to HomeDir/Downloads
	OperationPassword string   // when set, destructive operations require it
}

// Module is the file manager capability.
type Module struct {
	opts Options
	log  *log.Logger
}

// New creates the file manager. It fails when no home directory is known.
func New(opts Options) (*Module, error) {
	if opts.HomeDir == "" {
		return nil, fmt.Errorf("home directory is unknown")
	}
	if len(opts.SearchDirs) == 0 {
		for _, name := range []string{"Documents", "Downloads", "Desktop", "Music", "Pictures"} {
			opts.SearchDirs = append(opts.SearchDirs, filepath.Join(opts.HomeDir, name))
		}
	}
	if opts.DownloadsDir == "" {
		opts.DownloadsDir = filepath.Join(opts.HomeDir, "Downloads")
	}
	return &Module{opts: opts, log: logger.NewStyledLogger("Files")}, nil
}

// Slot returns the files slot.
func (m *Module) Slot() spectertypes.Slot {
	return spectertypes.SlotFiles
}

// Handle dispatches a free-form file command.
func (m *Module) Handle(ctx context.Context, command string) (string, error) {
	lower := strings.ToLower(command)
	switch {
	case strings.Contains(lower, "duplicate"):
		return m.FindDuplicates(ctx, "")
	case strings.Contains(lower, "empty"):
		return m.CleanEmptyFolders(ctx, passwordFrom(command))
	case containsAny(lower, "organize", "organise", "tidy", "sort", "clean"):
		return m.OrganizeDownloads(ctx)
	case containsAny(lower, "find", "search", "where", "locate", "look for"):
		return m.Find(ctx, command)
	}
	return "I can help you find files, organize Downloads, find duplicates or delete empty folders. What would you like to do?", nil
}

// Invoke serves the classifier's file functions.
func (m *Module) Invoke(ctx context.Context, fn spectertypes.Function, params map[string]string) (string, error) {
	command := params["command"]
	switch fn {
	case spectertypes.FuncFindFiles:
		if query := params["query"]; query != "" {
			return m.Find(ctx, query)
		}
		return m.Find(ctx, command)
	case spectertypes.FuncOrganizeFiles:
		return m.OrganizeDownloads(ctx)
	case spectertypes.FuncFindDuplicates:
		return m.FindDuplicates(ctx, params["directory"])
	case spectertypes.FuncCleanEmptyFolders:
		password := params["password"]
		if password == "" {
			password = passwordFrom(command)
		}
		return m.CleanEmptyFolders(ctx, password)
	default:
		return "", fmt.Errorf("%w: %s", spectertypes.ErrUnsupportedFunction, fn)
	}
}

// matcher decides whether a file name is a search hit.
type matcher struct {
	label      string
	extensions map[string]bool
	substring  string
}

func (mt matcher) match(name string) bool {
	if len(mt.extensions) > 0 {
		return mt.extensions[strings.ToLower(filepath.Ext(name))]
	}
	return strings.Contains(strings.ToLower(name), mt.substring)
}

// ParseQuery turns a search command into a matcher label, extensions and name fragment.
func ParseQuery(query string) (label string, extensions []string, substring string) {
	mt := parseQuery(query)
	for ext := range mt.extensions {
		extensions = append(extensions, ext)
	}
	sort.Strings(extensions)
	return mt.label, extensions, mt.substring
}

func parseQuery(query string) matcher {
	lower := strings.ToLower(query)

	if m := extensionPattern.FindStringSubmatch(lower); m != nil {
		return matcher{label: m[1] + " files", extensions: map[string]bool{m[1]: true}}
	}

	words := strings.Fields(lower)
	for _, word := range words {
		if ext, ok := extensionWords[strings.Trim(word, "?!.,")]; ok {
			return matcher{label: ext + " files", extensions: map[string]bool{ext: true}}
		}
	}
	for _, c := range Categories {
		for _, keyword := range c.Keywords {
			if strings.Contains(lower, keyword) {
				exts := make(map[string]bool, len(c.Extensions))
				for _, ext := range c.Extensions {
					exts[ext] = true
				}
				return matcher{label: strings.ToLower(c.Name) + " files", extensions: exts}
			}
		}
	}

	for _, word := range words {
		word = strings.Trim(word, "?!.,\"'")
		if word != "" && !searchStopWords[word] {
			return matcher{label: fmt.Sprintf("files matching '%s'", word), substring: word}
		}
	}
	return matcher{label: "files", substring: ""}
}

type hit struct {
	path string
	info fs.FileInfo
}

// Find searches the common folders and lists up to ten matches.
func (m *Module) Find(ctx context.Context, query string) (string, error) {
	mt := parseQuery(query)

	var hits []hit
	for _, root := range m.opts.SearchDirs {
		if len(hits) >= maxResults {
			break
		}
		found, err := m.search(ctx, root, mt, maxPerDirectory)
		if err != nil {
			return "", err
		}
		hits = append(hits, found...)
	}
	if len(hits) > maxResults {
		hits = hits[:maxResults]
	}

	if len(hits) == 0 {
		return fmt.Sprintf("No %s found in common directories.", mt.label), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d %s:", len(hits), mt.label)
	for i, h := range hits {
		fmt.Fprintf(&b, "\n\n%d. %s\n   Location: %s\n   Size: %s | Modified: %s",
			i+1, h.info.Name(), filepath.Dir(h.path), humanize.Bytes(uint64(h.info.Size())),
			h.info.ModTime().Format("2006-01-02 15:04"))
	}
	return b.String(), nil
}

func (m *Module) search(ctx context.Context, root string, mt matcher, limit int) ([]hit, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, nil
	}

	var hits []hit
	rootDepth := strings.Count(filepath.Clean(root), string(filepath.Separator))
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			m.log.Debug("Skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			if strings.Count(path, string(filepath.Separator))-rootDepth >= maxSearchDepth {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || strings.HasPrefix(d.Name(), ".") || !mt.match(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		hits = append(hits, hit{path: path, info: info})
		if len(hits) >= limit {
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return hits, nil
}

// CategoryFor returns the category name for a file name, or "".
func CategoryFor(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	for _, c := range Categories {
		for _, e := range c.Extensions {
			if e == ext {
				return c.Name
			}
		}
	}
	return ""
}

// OrganizeDownloads moves top-level Downloads files into category folders.
// Name collisions get a numeric suffix.
func (m *Module) OrganizeDownloads(ctx context.Context) (string, error) {
	dir := m.opts.DownloadsDir
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return "Downloads folder not found.", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", dir, err)
	}

	moved := 0
	var created []string
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if !entry.Type().IsRegular() {
			continue
		}
		category := CategoryFor(entry.Name())
		if category == "" {
			continue
		}

		target := filepath.Join(dir, category)
		if _, err := os.Stat(target); errors.Is(err, os.ErrNotExist) {
			if err := os.MkdirAll(target, 0755); err != nil {
				m.log.Error("Failed to create folder", "folder", target, "error", err)
				continue
			}
			created = append(created, category)
		}

		dest := UniquePath(filepath.Join(target, entry.Name()))
		if err := os.Rename(filepath.Join(dir, entry.Name()), dest); err != nil {
			m.log.Error("Failed to move file", "file", entry.Name(), "error", err)
			continue
		}
		moved++
	}

	createdText := "None"
	if len(created) > 0 {
		sort.Strings(created)
		createdText = strings.Join(created, ", ")
	}
	return fmt.Sprintf("Organization complete!\n- Moved %d files\n- Created folders: %s", moved, createdText), nil
}

// UniquePath returns path, or path with _1, _2, ... before the extension if it exists.
func UniquePath(path string) string {
	if _, err := os.Lstat(path); errors.Is(err, os.ErrNotExist) {
		return path
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, i, ext)
		if _, err := os.Lstat(candidate); errors.Is(err, os.ErrNotExist) {
			return candidate
		}
	}
}

// Duplicate is a file whose contents match an earlier file.
type Duplicate struct {
	Path     string
	Original string
	Size     int64
}

// Duplicates groups non-empty files under dir by size, then by SHA-256.
// The first path in walk order is the original; the rest are duplicates.
func Duplicates(ctx context.Context, dir string) ([]Duplicate, error) {
	bySize := make(map[int64][]string)
	var sizes []int64
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.Size() == 0 {
			return nil
		}
		if _, seen := bySize[info.Size()]; !seen {
			sizes = append(sizes, info.Size())
		}
		bySize[info.Size()] = append(bySize[info.Size()], path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	var dups []Duplicate
	for _, size := range sizes {
		paths := bySize[size]
		if len(paths) < 2 {
			continue
		}
		first := make(map[string]string)
		for _, path := range paths {
			sum, err := hashFile(path)
			if err != nil {
				continue
			}
			if original, ok := first[sum]; ok {
				dups = append(dups, Duplicate{Path: path, Original: original, Size: size})
				continue
			}
			first[sum] = path
		}
	}
	sort.SliceStable(dups, func(i, j int) bool { return dups[i].Path < dups[j].Path })
	return dups, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = f.Close()
	}()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// FindDuplicates reports duplicates under dir (Downloads when empty).
func (m *Module) FindDuplicates(ctx context.Context, dir string) (string, error) {
	if dir == "" {
		dir = m.opts.DownloadsDir
	}
	if _, err := os.Stat(dir); err != nil {
		return fmt.Sprintf("Directory %s not found.", dir), nil
	}

	dups, err := Duplicates(ctx, dir)
	if err != nil {
		return "", err
	}
	if len(dups) == 0 {
		return "No duplicate files found.", nil
	}

	var total uint64
	for _, d := range dups {
		total += uint64(d.Size)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d duplicate files:\nTotal space that could be saved: %s", len(dups), humanize.Bytes(total))
	for i, d := range dups {
		if i == maxListedResults {
			fmt.Fprintf(&b, "\n\n... and %d more files", len(dups)-maxListedResults)
			break
		}
		fmt.Fprintf(&b, "\n\n%d. %s (%s)\n   %s\n   same as %s",
			i+1, filepath.Base(d.Path), humanize.Bytes(uint64(d.Size)), filepath.Dir(d.Path), d.Original)
	}
	return b.String(), nil
}

// CleanEmptyFolders removes empty folders below Downloads, deepest first.
// When an operation password is configured, password must match it.
func (m *Module) CleanEmptyFolders(ctx context.Context, password string) (string, error) {
	if m.opts.OperationPassword != "" {
		if password == "" {
			return "🔒 Deleting folders requires your operation password. Say \"delete empty folders password <your password>\".", nil
		}
		if subtle.ConstantTimeCompare([]byte(password), []byte(m.opts.OperationPassword)) != 1 {
			m.log.Warn("Rejected destructive operation", "operation", "clean_empty_folders")
			return "❌ Incorrect operation password.", nil
		}
	}

	root := m.opts.DownloadsDir
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})
	if errors.Is(err, os.ErrNotExist) {
		return "Downloads folder not found.", nil
	}
	if err != nil {
		return "", err
	}

	sort.SliceStable(dirs, func(i, j int) bool {
		return strings.Count(dirs[i], string(filepath.Separator)) > strings.Count(dirs[j], string(filepath.Separator))
	})

	removed := 0
	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			continue
		}
		if err := os.Remove(dir); err != nil {
			m.log.Error("Failed to remove folder", "folder", dir, "error", err)
			continue
		}
		removed++
	}
	return fmt.Sprintf("Removed %d empty folders.", removed), nil
}

func passwordFrom(command string) string {
	if m := passwordPattern.FindStringSubmatch(command); m != nil {
		return m[1]
	}
	return ""
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
