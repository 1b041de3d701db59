package plugin

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Loader discovers plugins on the filesystem. A plugin is a directory
// holding a plugin.json manifest or a bare init.lua / plugin.lua, or a
// single name.lua file. Search paths are checked in order and the
// first path defining a name wins.
type Loader struct {
	paths      []string
	discovered map[string]*Info
}

// Info describes one discovered plugin. A broken plugin still gets an
// Info so callers can report it; Err carries what went wrong.
type Info struct {
	Name     string
	Path     string
	Manifest *Manifest
	Err      error
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithPaths replaces the plugin search paths.
func WithPaths(paths ...string) LoaderOption {
	return func(l *Loader) {
		l.paths = paths
	}
}

// NewLoader creates a plugin loader over the default search paths.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		paths:      DefaultPluginPaths(),
		discovered: make(map[string]*Info),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// DefaultPluginPaths returns the default plugin search paths: the user
// config and data directories, then the working directory.
func DefaultPluginPaths() []string {
	paths := make([]string, 0, 3)
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "stormhost", "plugins"))
		paths = append(paths, filepath.Join(home, ".local", "share", "stormhost", "plugins"))
	}
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".stormhost", "plugins"))
	}
	return paths
}

// Paths returns the configured search paths.
func (l *Loader) Paths() []string {
	return l.paths
}

// AddPath appends a search path.
func (l *Loader) AddPath(path string) {
	l.paths = append(l.paths, path)
}

// Discover finds every plugin in the search paths, sorted by name.
// Missing search paths are skipped.
func (l *Loader) Discover() []*Info {
	l.discovered = make(map[string]*Info)

	for _, base := range l.paths {
		l.discoverIn(base)
	}

	plugins := make([]*Info, 0, len(l.discovered))
	for _, info := range l.discovered {
		plugins = append(plugins, info)
	}
	sort.Slice(plugins, func(i, j int) bool {
		return plugins[i].Name < plugins[j].Name
	})
	return plugins
}

func (l *Loader) discoverIn(base string) {
	entries, err := os.ReadDir(base)
	if err != nil {
		return
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			if filepath.Ext(entry.Name()) == ".lua" {
				name := strings.TrimSuffix(entry.Name(), ".lua")
				l.addSingleFile(name, filepath.Join(base, entry.Name()))
			}
			continue
		}
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info := inspect(entry.Name(), filepath.Join(base, entry.Name()))
		if _, exists := l.discovered[info.Name]; !exists {
			l.discovered[info.Name] = info
		}
	}
}

// addSingleFile records a single-file plugin. It runs with every
// capability, like a directory plugin without a manifest.
func (l *Loader) addSingleFile(name, luaPath string) {
	if _, exists := l.discovered[name]; exists {
		return
	}
	m := NewManifestMinimal(name, filepath.Dir(luaPath))
	m.Main = filepath.Base(luaPath)
	info := &Info{Name: name, Path: m.Path(), Manifest: m}
	if err := m.Validate(); err != nil {
		info.Err = err
		info.Manifest = nil
	}
	l.discovered[name] = info
}

// inspect examines a plugin directory.
func inspect(name, dir string) *Info {
	info := &Info{Name: name, Path: dir}

	manifestPath := filepath.Join(dir, "plugin.json")
	if _, err := os.Stat(manifestPath); err == nil {
		m, err := LoadManifest(manifestPath)
		if err != nil {
			info.Err = err
			return info
		}
		info.Manifest = m
		info.Name = m.Name
		return info
	}

	for _, main := range []string{"init.lua", "plugin.lua"} {
		if _, err := os.Stat(filepath.Join(dir, main)); err == nil {
			m := NewManifestMinimal(name, dir)
			m.Main = main
			if err := m.Validate(); err != nil {
				info.Err = err
				return info
			}
			info.Manifest = m
			return info
		}
	}

	info.Err = ErrNoEntryPoint
	return info
}

// Find locates one plugin by name, consulting the discovery cache
// first and then each search path.
func (l *Loader) Find(name string) (*Info, error) {
	if info, ok := l.discovered[name]; ok {
		return info, nil
	}

	for _, base := range l.paths {
		dir := filepath.Join(base, name)
		if stat, err := os.Stat(dir); err == nil && stat.IsDir() {
			info := inspect(name, dir)
			l.discovered[name] = info
			return info, nil
		}
		if _, err := os.Stat(filepath.Join(base, name+".lua")); err == nil {
			l.addSingleFile(name, filepath.Join(base, name+".lua"))
			return l.discovered[name], nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, name)
}
