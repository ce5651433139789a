// Package watch recognizes every card image that appears in a directory.
package watch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ironsheep/nid-extract/internal/pipeline"
)

// DefaultQuiet is how long a file must stay unchanged before it is processed.
const DefaultQuiet = 300 * time.Millisecond

// Handler receives the outcome of each run. Exactly one of res and err is set.
type Handler func(path string, res *pipeline.Result, err error)

// Watcher runs a Pipeline on image files created or rewritten in Dir.
//
// Events are debounced per path: a file is processed once it has been quiet
// for Quiet, and a burst of writes yields a single run. Runs are sequential.
// Faces the pipeline saves into Dir are not fed back into it for as long as
// they stay unchanged; a file later written under the same name is processed.
type Watcher struct {
	Dir      string
	Pipeline *pipeline.Pipeline
	Handle   Handler

	// Quiet is the debounce period. Zero means DefaultQuiet.
	Quiet time.Duration

	// Existing processes the images already in Dir before watching.
	Existing bool

	mu      sync.Mutex
	written map[string]outputStamp
}

// outputStamp identifies the exact file the pipeline saved.
type outputStamp struct {
	size int64
	mod  time.Time
}

// New creates a Watcher for dir.
func New(dir string, p *pipeline.Pipeline, h Handler) *Watcher {
	return &Watcher{Dir: dir, Pipeline: p, Handle: h}
}

// IsSupported reports whether name looks like a card image.
func IsSupported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}

// ListImages returns the supported image paths in dir, sorted by name.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !IsSupported(e.Name()) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// Run watches until ctx is cancelled or the underlying watcher closes.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.Dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.Dir, err)
	}

	quiet := w.Quiet
	if quiet <= 0 {
		quiet = DefaultQuiet
	}
	log.Printf("Watching %s (quiet period %v)", w.Dir, quiet)

	if w.Existing {
		paths, err := ListImages(w.Dir)
		if err != nil {
			return err
		}
		for _, path := range paths {
			if ctx.Err() != nil {
				return nil
			}
			w.process(ctx, path)
		}
	}

	pending := map[string]time.Time{}
	ticker := time.NewTicker(quiet / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				w.forget(ev.Name)
				delete(pending, ev.Name)
				continue
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !IsSupported(ev.Name) || w.isOwnOutput(ev.Name) {
				continue
			}
			pending[ev.Name] = time.Now()

		case <-ticker.C:
			now := time.Now()
			var ready []string
			for path, t := range pending {
				if now.Sub(t) >= quiet {
					ready = append(ready, path)
					delete(pending, path)
				}
			}
			sort.Strings(ready)
			for _, path := range ready {
				w.process(ctx, path)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch error: %v", err)
		}
	}
}

// process runs the pipeline on a fresh decode of path.
func (w *Watcher) process(ctx context.Context, path string) {
	w.Pipeline.Cache.Evict(path)

	res, err := w.Pipeline.Run(ctx, path, nil)
	if err != nil {
		log.Printf("Failed to recognize %s: %v", path, err)
	} else if res.SavedPath != "" {
		w.markOwnOutput(res.SavedPath)
	}

	if w.Handle != nil {
		w.Handle(path, res, err)
	}
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

// markOwnOutput remembers the size and modification time of a saved face.
func (w *Watcher) markOwnOutput(path string) {
	fi, err := os.Stat(path)
	if err != nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.written == nil {
		w.written = make(map[string]outputStamp)
	}
	w.written[absPath(path)] = outputStamp{size: fi.Size(), mod: fi.ModTime()}
}

// isOwnOutput reports whether path is still the face the pipeline saved. An
// entry whose file has since changed or vanished is dropped.
func (w *Watcher) isOwnOutput(path string) bool {
	abs := absPath(path)
	w.mu.Lock()
	defer w.mu.Unlock()
	stamp, ok := w.written[abs]
	if !ok {
		return false
	}
	fi, err := os.Stat(abs)
	if err != nil || fi.Size() != stamp.size || !fi.ModTime().Equal(stamp.mod) {
		delete(w.written, abs)
		return false
	}
	return true
}

func (w *Watcher) forget(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.written, absPath(path))
}
