// Copyright © 2024 The ELPS authors

package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// FindFiles walks root and returns the python source files beneath it in
// lexical order.  Hidden directories and __pycache__ are skipped, as are
// files whose base name matches one of the exclude glob patterns.  When root
// is a file it is returned as is.
func FindFiles(root string, exclude ...string) ([]string, error) {
	for _, pattern := range exclude {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}
	var files []string
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip unreadable dirs
		}
		if info.IsDir() {
			if path != root && shouldSkipDir(info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".py" || excluded(info.Name(), exclude) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func shouldSkipDir(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	if len(name) > 0 && name[0] == '.' {
		return true
	}
	return name == "__pycache__"
}

func excluded(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// ReadUnits reads each file into a Unit.  A file that cannot be read
// produces an error result instead of a unit, so the returned slices
// partition paths.
func ReadUnits(paths []string) ([]Unit, Results) {
	units := make([]Unit, 0, len(paths))
	var failed Results
	for _, path := range paths {
		src, err := os.ReadFile(path) //nolint:gosec // CLI tool reads user-specified files
		if err != nil {
			failed = append(failed, UnitResult{Filename: path, Err: err})
			continue
		}
		units = append(units, Unit{Filename: path, Source: src})
	}
	return units, failed
}

// Scan analyzes every python file under root.  Notebook exports
// (*.ipynb.py) are always passed through the cell filter.  Files that cannot
// be read appear in the results with their read error.
func Scan(ctx context.Context, root string, cfg *Config) (Results, error) {
	paths, err := FindFiles(root)
	if err != nil {
		return nil, err
	}
	units, failed := ReadUnits(paths)
	log.Infof("scanning %d files under %s", len(paths), root)

	results := NewBatch(cfg).Run(ctx, units)
	results = append(results, failed...)
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Filename < results[j].Filename
	})
	return results, nil
}
