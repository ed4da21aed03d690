package definition

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/gui-xie/import-export/pkg/imexport/models"
)

// Registry holds definitions by name. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	defs     map[string]*models.TableDefinition
	logger   zerolog.Logger
	onChange func(count int)
}

// NewRegistry creates an empty registry.
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		defs:   make(map[string]*models.TableDefinition),
		logger: logger,
	}
}

// OnChange registers fn to be called with the number of definitions
// after every Load and every change picked up by Watch.
func (r *Registry) OnChange(fn func(count int)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = fn
}

func (r *Registry) changed() {
	r.mu.RLock()
	fn, n := r.onChange, len(r.defs)
	r.mu.RUnlock()
	if fn != nil {
		fn(n)
	}
}

// Put stores a copy of def under name.
func (r *Registry) Put(name string, def *models.TableDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[name] = Clone(def)
}

// Get returns a copy of the definition stored under name.
func (r *Registry) Get(name string) (*models.TableDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	if !ok {
		return nil, false
	}
	return Clone(def), true
}

// Remove deletes name from the registry.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.defs, name)
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}

// Load registers every definition file in dir under its file name. Files
// that fail to parse are skipped and reported in the returned error.
func (r *Registry) Load(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", dir, err)
	}

	var errs []error
	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if _, err := FormatFromPath(path); err != nil {
			continue
		}
		if err := r.loadFile(path); err != nil {
			errs = append(errs, err)
			continue
		}
		loaded++
	}
	r.logger.Info().Str("dir", dir).Int("count", loaded).Msg("definitions loaded")
	r.changed()
	return loaded, errors.Join(errs...)
}

func (r *Registry) loadFile(path string) error {
	def, err := ReadFile(path)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.defs[NameFromPath(path)] = def
	r.mu.Unlock()
	return nil
}

// Watch reloads definitions in dir as files change until ctx is done.
func (r *Registry) Watch(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}

	go r.watchLoop(ctx, watcher)
	r.logger.Info().Str("dir", dir).Msg("watching definitions for changes")
	return nil
}

func (r *Registry) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			r.handleEvent(event)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			r.logger.Error().Err(err).Msg("definition watcher error")

		case <-ctx.Done():
			return
		}
	}
}

func (r *Registry) handleEvent(event fsnotify.Event) {
	if _, err := FormatFromPath(event.Name); err != nil {
		return
	}
	name := NameFromPath(event.Name)
	switch {
	case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
		if err := r.loadFile(event.Name); err != nil {
			r.logger.Error().Err(err).Str("file", event.Name).Msg("definition reload failed")
			return
		}
		r.logger.Debug().Str("event", event.Op.String()).Str("definition", name).Msg("definition reloaded")
		r.changed()
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		r.Remove(name)
		r.logger.Debug().Str("event", event.Op.String()).Str("definition", name).Msg("definition removed")
		r.changed()
	}
}
