package logging

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const logFilePrefix = "reminders_"

// rotate removes the oldest log files in dir so that at most keep remain.
// Only files named reminders_*.log are considered.
func rotate(dir string, keep int) error {
	if keep <= 0 {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	type logFile struct {
		path  string
		mtime int64
	}
	var files []logFile
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, logFilePrefix) || !strings.HasSuffix(name, ".log") {
			continue
		}
		var mtime int64
		if info, err := entry.Info(); err == nil {
			mtime = info.ModTime().UnixNano()
		}
		files = append(files, logFile{path: filepath.Join(dir, name), mtime: mtime})
	}
	if len(files) <= keep {
		return nil
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].mtime == files[j].mtime {
			return files[i].path < files[j].path
		}
		return files[i].mtime < files[j].mtime
	})
	for _, f := range files[:len(files)-keep] {
		_ = os.Remove(f.path)
	}
	return nil
}
