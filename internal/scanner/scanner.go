// Package scanner finds bank exports waiting in an inbox directory.
package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"fjacquet/rent-recon/internal/loader"
	"fjacquet/rent-recon/internal/logging"
)

// ProcessedDir is the inbox subdirectory that receives ingested files. It is
// never scanned.
const ProcessedDir = "processed"

// InboxFile is one candidate bank export.
type InboxFile struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// InboxScanner lists bank exports under files and directories.
type InboxScanner struct {
	logger     logging.Logger
	extensions []string
}

// NewInboxScanner creates a scanner accepting the loader's file types.
func NewInboxScanner(logger logging.Logger) *InboxScanner {
	if logger == nil {
		logger = logging.Discard()
	}
	return &InboxScanner{
		logger:     logger.WithField("component", "InboxScanner"),
		extensions: loader.SupportedExtensions(),
	}
}

// ScanPaths scans the given paths (files or directories) and returns the
// supported files, sorted by path. Directories are walked recursively,
// skipping hidden entries and processed/ folders.
func (s *InboxScanner) ScanPaths(paths []string) ([]InboxFile, error) {
	var files []InboxFile

	for _, p := range paths {
		absPath, err := filepath.Abs(p)
		if err != nil {
			s.logger.WithError(err).WithField("path", p).Error("Failed to get absolute path")
			return nil, fmt.Errorf("failed to get absolute path for %s: %w", p, err)
		}

		info, err := os.Stat(absPath)
		if err != nil {
			s.logger.WithError(err).WithField("path", absPath).Error("Failed to stat path")
			return nil, fmt.Errorf("failed to stat path %s: %w", absPath, err)
		}

		if info.IsDir() {
			dirFiles, err := s.scanDirectory(absPath)
			if err != nil {
				return nil, err
			}
			files = append(files, dirFiles...)
			continue
		}
		if !s.supported(absPath) {
			return nil, fmt.Errorf("unsupported file type: %s", absPath)
		}
		files = append(files, InboxFile{Path: absPath, Size: info.Size(), ModTime: info.ModTime()})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func (s *InboxScanner) scanDirectory(dirPath string) ([]InboxFile, error) {
	var files []InboxFile

	err := filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.logger.WithError(err).WithField("path", path).Warn("Error walking path")
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if path != dirPath && (name == ProcessedDir || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || !s.supported(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			s.logger.WithError(err).WithField(logging.FieldFile, path).Warn("Failed to stat file")
			return nil
		}
		files = append(files, InboxFile{Path: path, Size: info.Size(), ModTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory %s: %w", dirPath, err)
	}

	s.logger.Debug("Scanned inbox",
		logging.F("path", dirPath),
		logging.F(logging.FieldCount, len(files)))
	return files, nil
}

func (s *InboxScanner) supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range s.extensions {
		if ext == e {
			return true
		}
	}
	return false
}
