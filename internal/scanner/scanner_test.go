package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"fjacquet/rent-recon/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n"), 0600))
}

func paths(files []InboxFile) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, filepath.Base(f.Path))
	}
	return out
}

func TestInboxScanner_ScanPaths_Directory(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b_bank.csv"))
	touch(t, filepath.Join(dir, "a_bank.XLSX"))
	touch(t, filepath.Join(dir, "notes.md"))
	touch(t, filepath.Join(dir, ".hidden.csv"))
	touch(t, filepath.Join(dir, "2026", "c_bank.xls"))
	touch(t, filepath.Join(dir, ProcessedDir, "old.csv"))

	files, err := NewInboxScanner(logging.NewMockLogger()).ScanPaths([]string{dir})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a_bank.XLSX", "b_bank.csv", "c_bank.xls"}, paths(files))
	for _, f := range files {
		assert.True(t, filepath.IsAbs(f.Path))
		assert.Positive(t, f.Size)
	}
}

func TestInboxScanner_ScanPaths_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bank.csv")
	touch(t, path)

	files, err := NewInboxScanner(nil).ScanPaths([]string{path})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, path, files[0].Path)
}

func TestInboxScanner_ScanPaths_Errors(t *testing.T) {
	dir := t.TempDir()
	s := NewInboxScanner(nil)

	_, err := s.ScanPaths([]string{filepath.Join(dir, "missing")})
	assert.Error(t, err)

	md := filepath.Join(dir, "notes.md")
	touch(t, md)
	_, err = s.ScanPaths([]string{md})
	assert.Error(t, err)
}

func TestInboxScanner_ScanPaths_Empty(t *testing.T) {
	files, err := NewInboxScanner(nil).ScanPaths([]string{t.TempDir()})
	require.NoError(t, err)
	assert.Empty(t, files)
}
