package files

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"specter/pkg/spectertypes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func newTestModule(t *testing.T, password string) (*Module, string) {
	home := t.TempDir()
	m, err := New(Options{HomeDir: home, OperationPassword: password})
	require.NoError(t, err)
	return m, home
}

func TestNew_RequiresHome(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestParseQuery(t *testing.T) {
	tests := []struct {
		query     string
		label     string
		exts      []string
		substring string
	}{
		{"find my pdf files", ".pdf files", []string{".pdf"}, ""},
		{"search for .go files", ".go files", []string{".go"}, ""},
		{"find my photos", "images files", []string{".bmp", ".gif", ".jpeg", ".jpg", ".png", ".svg", ".tiff", ".webp"}, ""},
		{"where is my budget", "files matching 'budget'", nil, "budget"},
		{"find files", "files", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			label, exts, substring := ParseQuery(tt.query)
			assert.Equal(t, tt.label, label)
			assert.Equal(t, tt.exts, exts)
			assert.Equal(t, tt.substring, substring)
		})
	}
}

func TestFind(t *testing.T) {
	m, home := newTestModule(t, "")
	writeFile(t, filepath.Join(home, "Documents", "report.pdf"), "pdf")
	writeFile(t, filepath.Join(home, "Documents", "notes.txt"), "notes")
	writeFile(t, filepath.Join(home, "Downloads", "report_final.pdf"), "final")
	writeFile(t, filepath.Join(home, "Downloads", ".hidden", "secret.pdf"), "x")

	out, err := m.Handle(context.Background(), "find my pdf files")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 2 .pdf files:")
	assert.Contains(t, out, "1. report.pdf\n   Location: "+filepath.Join(home, "Documents"))
	assert.Contains(t, out, "2. report_final.pdf")
	assert.Contains(t, out, "Size: 3 B | Modified: ")
	assert.NotContains(t, out, "secret.pdf")

	out, err = m.Invoke(context.Background(), spectertypes.FuncFindFiles, map[string]string{"query": "budget", "command": "find budget"})
	require.NoError(t, err)
	assert.Equal(t, "No files matching 'budget' found in common directories.", out)
}

func TestFind_LimitsResults(t *testing.T) {
	m, home := newTestModule(t, "")
	for _, dir := range []string{"Documents", "Downloads", "Desktop"} {
		for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
			writeFile(t, filepath.Join(home, dir, name+".txt"), name)
		}
	}

	out, err := m.Find(context.Background(), "find text files")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 10 .txt files:")
	assert.NotContains(t, out, "11. ")
}

func TestOrganizeDownloads(t *testing.T) {
	m, home := newTestModule(t, "")
	downloads := filepath.Join(home, "Downloads")
	writeFile(t, filepath.Join(downloads, "a.pdf"), "new")
	writeFile(t, filepath.Join(downloads, "b.png"), "img")
	writeFile(t, filepath.Join(downloads, "unknown.xyz"), "?")
	writeFile(t, filepath.Join(downloads, "Documents", "a.pdf"), "old")

	out, err := m.Handle(context.Background(), "organize my downloads")
	require.NoError(t, err)
	assert.Equal(t, "Organization complete!\n- Moved 2 files\n- Created folders: Images", out)

	assert.FileExists(t, filepath.Join(downloads, "Documents", "a_1.pdf"))
	assert.FileExists(t, filepath.Join(downloads, "Images", "b.png"))
	assert.FileExists(t, filepath.Join(downloads, "unknown.xyz"))

	old, err := os.ReadFile(filepath.Join(downloads, "Documents", "a.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(old))
}

func TestOrganizeDownloads_Missing(t *testing.T) {
	m, _ := newTestModule(t, "")
	out, err := m.OrganizeDownloads(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Downloads folder not found.", out)
}

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.txt")
	assert.Equal(t, path, UniquePath(path))

	writeFile(t, path, "1")
	writeFile(t, filepath.Join(dir, "x_1.txt"), "2")
	assert.Equal(t, filepath.Join(dir, "x_2.txt"), UniquePath(path))
}

func TestFindDuplicates(t *testing.T) {
	m, home := newTestModule(t, "")
	downloads := filepath.Join(home, "Downloads")
	writeFile(t, filepath.Join(downloads, "x.txt"), "hello")
	writeFile(t, filepath.Join(downloads, "sub", "y.txt"), "hello")
	writeFile(t, filepath.Join(downloads, "z.txt"), "hellp")
	writeFile(t, filepath.Join(downloads, "empty1"), "")
	writeFile(t, filepath.Join(downloads, "empty2"), "")

	dups, err := Duplicates(context.Background(), downloads)
	require.NoError(t, err)
	require.Len(t, dups, 1)
	assert.Equal(t, filepath.Join(downloads, "x.txt"), dups[0].Path)
	assert.Equal(t, filepath.Join(downloads, "sub", "y.txt"), dups[0].Original)

	out, err := m.Handle(context.Background(), "find duplicate files")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 1 duplicate files:\nTotal space that could be saved: 5 B")
	assert.Contains(t, out, "1. x.txt (5 B)")

	out, err = m.Invoke(context.Background(), spectertypes.FuncFindDuplicates, map[string]string{"directory": filepath.Join(home, "nope")})
	require.NoError(t, err)
	assert.Contains(t, out, "not found")
}

func TestCleanEmptyFolders_RequiresPassword(t *testing.T) {
	m, home := newTestModule(t, "1234")
	downloads := filepath.Join(home, "Downloads")
	require.NoError(t, os.MkdirAll(filepath.Join(downloads, "a", "b"), 0755))
	writeFile(t, filepath.Join(downloads, "c", "keep.txt"), "k")
	ctx := context.Background()

	out, err := m.Handle(ctx, "delete empty folders")
	require.NoError(t, err)
	assert.Contains(t, out, "requires your operation password")
	assert.DirExists(t, filepath.Join(downloads, "a", "b"))

	out, err = m.Handle(ctx, "delete empty folders password 9999")
	require.NoError(t, err)
	assert.Equal(t, "❌ Incorrect operation password.", out)

	out, err = m.Invoke(ctx, spectertypes.FuncCleanEmptyFolders, map[string]string{"password": "1234", "command": "clean empty folders"})
	require.NoError(t, err)
	assert.Equal(t, "Removed 2 empty folders.", out)
	assert.NoDirExists(t, filepath.Join(downloads, "a"))
	assert.DirExists(t, filepath.Join(downloads, "c"))
	assert.DirExists(t, downloads)
}

func TestCleanEmptyFolders_NoPasswordConfigured(t *testing.T) {
	m, home := newTestModule(t, "")
	require.NoError(t, os.MkdirAll(filepath.Join(home, "Downloads", "empty"), 0755))

	out, err := m.CleanEmptyFolders(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "Removed 1 empty folders.", out)
}

func TestHandle_HelpAndUnsupported(t *testing.T) {
	m, _ := newTestModule(t, "")
	out, err := m.Handle(context.Background(), "files?")
	require.NoError(t, err)
	assert.Contains(t, out, "I can help you find files")

	_, err = m.Invoke(context.Background(), spectertypes.FuncPlayMusic, nil)
	assert.ErrorIs(t, err, spectertypes.ErrUnsupportedFunction)
	assert.Equal(t, spectertypes.SlotFiles, m.Slot())
}
