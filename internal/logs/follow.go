package logs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// outputFollower reads lines appended to a file after a starting offset
type outputFollower struct {
	path    string
	offset  int64
	partial []byte
}

// FollowServerOutput calls fn with every line appended to the captured server
// output log until ctx is done. Lines already in the file are skipped. A
// truncated or rotated file is read again from the start.
func FollowServerOutput(ctx context.Context, logDir string, fn func(line string)) error {
	path, err := GetLogFilePathWithDir(logDir, ServerOutputLogFile)
	if err != nil {
		return fmt.Errorf("failed to get server output log path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	// The directory is watched so a file created or rotated later is still seen
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	f := &outputFollower{path: path}
	if info, err := os.Stat(path); err == nil {
		f.offset = info.Size()
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			switch {
			case event.Has(fsnotify.Create), event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				f.offset = 0
				f.partial = nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if err := f.readNew(fn); err != nil {
					return err
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			return fmt.Errorf("watching server output failed: %w", err)
		}
	}
}

func (f *outputFollower) readNew(fn func(line string)) error {
	file, err := os.Open(f.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open server output log: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat server output log: %w", err)
	}
	if info.Size() < f.offset {
		f.offset = 0
		f.partial = nil
	}

	if _, err := file.Seek(f.offset, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek server output log: %w", err)
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("failed to read server output log: %w", err)
	}
	f.offset += int64(len(data))

	data = append(f.partial, data...)
	for {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		fn(string(bytes.TrimRight(data[:i], "\r")))
		data = data[i+1:]
	}
	f.partial = append([]byte(nil), data...)
	return nil
}
