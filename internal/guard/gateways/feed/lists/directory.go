// Package lists loads authority denylist files from disk. Structured files
// (YAML, JSON, TOML) are parsed with koanf; .txt and .list files are plain
// newline-delimited numbers.
package lists

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/haukened/callguard/internal/guard/common/log"
	"github.com/haukened/callguard/internal/guard/domain"
)

// LoadListDirectory walks dir in lexical path order and loads every supported
// list file. Unsupported extensions are skipped. Returns an error if any file
// fails to parse, so a half-read directory never replaces a good snapshot.
func LoadListDirectory(dir string, logger log.Logger, now time.Time) ([]domain.ListedNumber, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var out []domain.ListedNumber
	for _, path := range paths {
		entries, err := LoadListFile(path, logger, now)
		if err != nil {
			return nil, err
		}
		out = append(out, entries...)
	}
	logger.Debug(map[string]any{"dir": dir, "files": len(paths), "count": len(out)}, "list_directory_loaded")
	return out, nil
}

// LoadListFile loads a single list file. Files with unsupported extensions yield
// no entries and no error.
func LoadListFile(path string, logger log.Logger, now time.Time) ([]domain.ListedNumber, error) {
	if parser := parserFor(path); parser != nil {
		return loadStructuredFile(path, parser, now)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".list":
	default:
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open list file %s: %w", path, err)
	}
	defer f.Close()

	label := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	entries, err := ParsePlainList(f, label, logger, now)
	if err != nil {
		return nil, fmt.Errorf("error parsing list file %s: %w", path, err)
	}
	return entries, nil
}
