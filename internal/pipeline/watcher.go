package pipeline

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches the analysis root for source changes and re-runs the
// full pipeline. Runs are always full; there is no incremental mode.
type Watcher struct {
	pipeline     *Pipeline
	rootDir      string
	watcher      *fsnotify.Watcher
	debounceTime time.Duration
	stopCh       chan struct{}
	doneCh       chan struct{}
	stopOnce     sync.Once
}

// NewWatcher creates a file watcher over the pipeline's root directory.
func NewWatcher(p *Pipeline) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		pipeline:     p,
		rootDir:      p.rootDir,
		watcher:      watcher,
		debounceTime: 500 * time.Millisecond,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}

	if err := w.addDirectoriesRecursively(p.rootDir); err != nil {
		watcher.Close()
		return nil, err
	}
	return w, nil
}

// Start begins watching for file changes.
func (w *Watcher) Start(ctx context.Context) {
	go w.watch(ctx)
}

// Stop stops the file watcher.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		<-w.doneCh
		w.watcher.Close()
	})
}

// watch is the main event loop with debouncing logic.
func (w *Watcher) watch(ctx context.Context) {
	defer close(w.doneCh)

	var debounceTimer *time.Timer
	rerunCh := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addDirectoriesRecursively(event.Name); err != nil {
						log.Printf("Warning: failed to watch %s: %v", event.Name, err)
					}
				}
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounceTime, func() {
				select {
				case rerunCh <- struct{}{}:
				default:
				}
			})
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Warning: watcher error: %v", err)
		case <-rerunCh:
			if _, err := w.pipeline.Run(ctx); err != nil {
				log.Printf("Warning: run failed: %v", err)
			}
		}
	}
}

// relevant filters events down to source file changes and new directories.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if strings.HasSuffix(event.Name, ".erl") {
		return true
	}
	info, err := os.Stat(event.Name)
	return err == nil && info.IsDir()
}

func (w *Watcher) addDirectoriesRecursively(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		name := info.Name()
		if name != "." && strings.HasPrefix(name, ".") {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}
