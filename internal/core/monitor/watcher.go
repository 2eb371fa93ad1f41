package monitor

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/penwyp/go-scope-monitor/internal/core/model"
	"github.com/penwyp/go-scope-monitor/internal/util"
)

// FileWatcher forwards write notifications for a fixed set of files.
// Parent directories are watched so that files recreated by rotation are
// still seen.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	paths   map[string]string // absolute path -> path as given
	events  chan model.FileEvent
	done    chan struct{}
	once    sync.Once
}

// NewFileWatcher starts watching the parent directories of paths
func NewFileWatcher(paths []string) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &FileWatcher{
		watcher: watcher,
		paths:   make(map[string]string, len(paths)),
		events:  make(chan model.FileEvent, 100),
		done:    make(chan struct{}),
	}

	dirs := make(map[string]bool)
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = filepath.Clean(path)
		}
		fw.paths[abs] = path
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return nil, err
		}
	}

	go fw.processEvents()

	return fw, nil
}

func (fw *FileWatcher) processEvents() {
	defer close(fw.events)
	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			path, ok := fw.paths[filepath.Clean(event.Name)]
			if !ok {
				continue
			}
			// a dropped event is harmless, the monitor polls anyway
			select {
			case fw.events <- model.FileEvent{Path: path, Operation: event.Op.String()}:
			default:
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			util.LogErrorf("File monitoring error: %v", err)

		case <-fw.done:
			return
		}
	}
}

// Events returns the event channel; it is closed after Close
func (fw *FileWatcher) Events() <-chan model.FileEvent {
	return fw.events
}

// Close stops watching
func (fw *FileWatcher) Close() error {
	var err error
	fw.once.Do(func() {
		close(fw.done)
		err = fw.watcher.Close()
	})
	return err
}
