// Package hotreload watches shader source files and re-registers the shaders that read them.
package hotreload

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/config"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderer/shader"
	"github.com/fsnotify/fsnotify"
)

// watcher is the implementation of the Watcher interface.
type watcher struct {
	fs    *fsnotify.Watcher
	files map[string]string

	debounce time.Duration
	onChange func(shaderName string)

	mu      sync.Mutex
	pending map[string]*time.Timer
	closed  bool

	done chan struct{}
	wg   sync.WaitGroup
}

// Watcher reports changes to shader source files. Saves are debounced per shader, so an editor
// writing a file in several steps produces one notification.
type Watcher interface {
	// Files returns the watched files, sorted.
	//
	// Returns:
	//   - []string: the cleaned file paths
	Files() []string

	// Close stops watching. Pending notifications are dropped. Safe to call more than once.
	//
	// Returns:
	//   - error: an error from the underlying watcher
	Close() error
}

var _ Watcher = &watcher{}

// NewWatcher watches files, a map from source path to the shader reading it, and calls onChange
// with the shader name after a file changes. Directories are watched rather than files so
// editors that replace a file on save are observed. onChange runs on a timer goroutine.
//
// Parameters:
//   - files: source path to shader name, as returned by config.Manifest.Files
//   - onChange: the function receiving the changed shader's name
//   - options: variadic list of WatcherBuilderOption functions to configure the watcher
//
// Returns:
//   - Watcher: the running watcher
//   - error: an error if a directory cannot be watched
func NewWatcher(files map[string]string, onChange func(shaderName string), options ...WatcherBuilderOption) (Watcher, error) {
	if onChange == nil {
		panic("hotreload: NewWatcher requires a change callback")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("hotreload: %w", err)
	}

	w := &watcher{
		fs:       fsw,
		files:    make(map[string]string, len(files)),
		debounce: 100 * time.Millisecond,
		onChange: onChange,
		pending:  make(map[string]*time.Timer),
		done:     make(chan struct{}),
	}
	for _, opt := range options {
		opt(w)
	}

	dirs := make(map[string]bool)
	for path, name := range files {
		clean := filepath.Clean(path)
		w.files[clean] = name
		dirs[filepath.Dir(clean)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("hotreload: watch %s: %w", dir, err)
		}
	}

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

func (w *watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			name, ok := w.files[filepath.Clean(event.Name)]
			if !ok {
				continue
			}
			common.Logger().Debug("shader source changed", slog.String("file", event.Name), slog.String("shader", name))
			w.schedule(name)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			common.Logger().Warn("shader watcher error", slog.Any("error", err))
		}
	}
}

func (w *watcher) schedule(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if t, ok := w.pending[name]; ok {
		t.Reset(w.debounce)
		return
	}
	w.pending[name] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, name)
		closed := w.closed
		w.mu.Unlock()
		if !closed {
			w.onChange(name)
		}
	})
}

func (w *watcher) Files() []string {
	out := make([]string, 0, len(w.files))
	for f := range w.files {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func (w *watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for name, t := range w.pending {
		t.Stop()
		delete(w.pending, name)
	}
	w.mu.Unlock()

	close(w.done)
	err := w.fs.Close()
	w.wg.Wait()
	return err
}

// Reload re-reads the named manifest entry, registers it over the previous bundle and drops
// every program the cache compiled from it, so the next draw compiles the new source. A failed
// read or registration leaves the registry and the cache untouched.
//
// Must run on the thread that owns the cache's graphics context.
//
// Parameters:
//   - m: the manifest the shader was loaded from
//   - reg: the registry to update
//   - cache: the cache holding programs compiled from the shader
//   - name: the shader to reload
//
// Returns:
//   - int: the number of programs released
//   - error: an error if the entry is unknown or its sources cannot be read or registered
func Reload(m *config.Manifest, reg shader.Registry, cache renderer.ResourceCache, name string) (int, error) {
	entry, ok := m.Entry(name)
	if !ok {
		return 0, fmt.Errorf("hotreload: %w: %s is not in the manifest", shader.ErrShaderNotFound, name)
	}
	bundle, err := entry.Load(m.Dir)
	if err != nil {
		return 0, err
	}
	if err := reg.Register(name, bundle); err != nil {
		return 0, err
	}
	n := cache.InvalidateShader(name)
	common.Logger().Info("shader reloaded", slog.String("shader", name), slog.Int("programs", n))
	return n, nil
}
