package commands

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// watchSQL calls onChange for every write to a .sql file under roots until
// ctx is done. A root that is a file only reports that file.
func watchSQL(ctx context.Context, roots []string, logger *slog.Logger, onChange func(path string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	files := make(map[string]bool)
	var dirRoots []string
	dirs := make(map[string]bool)
	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			files[filepath.Clean(root)] = true
			dirs[filepath.Dir(root)] = true
			continue
		}
		dirRoots = append(dirRoots, filepath.Clean(root))
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				dirs[path] = true
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			return err
		}
	}

	wanted := func(path string) bool {
		if !isSQLFile(path) {
			return false
		}
		if files[path] {
			return true
		}
		for _, root := range dirRoots {
			if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
				return true
			}
		}
		return false
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			path := filepath.Clean(ev.Name)
			if wanted(path) {
				logger.Debug("file changed", "file", path, "op", ev.Op.String())
				onChange(path)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		}
	}
}
