package host

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Resource names are forward-slash paths relative to a packages root,
// such as "User/init.lua". When several roots carry the same name the
// earliest configured root wins.

// resolveResource cleans a resource name and rejects paths that escape
// the root.
func resolveResource(name string) (string, bool) {
	cleaned := path.Clean("/" + name)
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." {
		return "", false
	}
	return cleaned, true
}

// LoadBinaryResource reads a resource's raw bytes. The boolean is false
// when no root carries the name.
func (h *Host) LoadBinaryResource(name string) ([]byte, bool) {
	rel, ok := resolveResource(name)
	if !ok {
		return nil, false
	}
	for _, root := range h.PackagesPaths() {
		raw, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err == nil {
			return raw, true
		}
	}
	return nil, false
}

// LoadResource reads a resource as text. The boolean is false when no
// root carries the name.
func (h *Host) LoadResource(name string) (string, bool) {
	raw, ok := h.LoadBinaryResource(name)
	if !ok {
		return "", false
	}
	return string(raw), true
}

// FindResources returns the resource names whose base name matches the
// glob pattern, searched across every packages root. Names are sorted;
// a name present under several roots appears once.
func (h *Host) FindResources(pattern string) []string {
	seen := make(map[string]struct{})
	for _, root := range h.PackagesPaths() {
		_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				if strings.HasPrefix(d.Name(), ".") && p != root {
					return fs.SkipDir
				}
				return nil
			}
			matched, matchErr := path.Match(pattern, d.Name())
			if matchErr != nil || !matched {
				return nil
			}
			rel, relErr := filepath.Rel(root, p)
			if relErr != nil {
				return nil
			}
			seen[filepath.ToSlash(rel)] = struct{}{}
			return nil
		})
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
