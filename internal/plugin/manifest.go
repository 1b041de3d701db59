package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/dshills/stormhost/internal/script"
)

// Manifest describes a plugin's metadata, requirements and
// contributions.
type Manifest struct {
	// Identity
	Name        string `json:"name"`        // Unique identifier (e.g. "word-count")
	Version     string `json:"version"`     // Semver (e.g. "1.2.0")
	Description string `json:"description"` // Short description
	Author      string `json:"author"`      // Author name or org
	License     string `json:"license"`     // SPDX license identifier

	// Entry point
	Main string `json:"main"` // Relative path to the main Lua file (default: "init.lua")

	// Capabilities requested. Each unlocks one storm API facet.
	Capabilities []script.Capability `json:"capabilities"`

	// Contributions
	Commands []CommandContribution `json:"commands"`

	// Settings ships default values for the plugin's settings file,
	// <name>.storm-settings. On-disk files override them.
	Settings map[string]any `json:"settings"`

	// Internal: path to the plugin directory
	path string
}

// CommandContribution declares a command the plugin provides. The
// handler is a Lua global in the plugin's state; text handlers are
// called as fn(view, edit, args), window handlers as fn(window, args)
// and application handlers as fn(args).
type CommandContribution struct {
	Name    string `json:"name"`    // Command name (e.g. "reverse_lines")
	Scope   string `json:"scope"`   // text, window or application (default: "text")
	Handler string `json:"handler"` // Lua global to call (default: the command name)
}

// Command scopes.
const (
	ScopeText        = "text"
	ScopeWindow      = "window"
	ScopeApplication = "application"
)

// Validation errors.
var (
	ErrMissingName       = errors.New("manifest: name is required")
	ErrInvalidName       = errors.New("manifest: name must be lowercase alphanumeric with hyphens")
	ErrMissingVersion    = errors.New("manifest: version is required")
	ErrInvalidVersion    = errors.New("manifest: version must be valid semver")
	ErrInvalidMain       = errors.New("manifest: main must be a .lua file")
	ErrInvalidCapability = errors.New("manifest: unknown capability")
	ErrMissingCommand    = errors.New("manifest: command name is required")
	ErrInvalidScope      = errors.New("manifest: command scope must be text, window or application")
)

// namePattern validates plugin names.
var namePattern = regexp.MustCompile(`^[a-z][a-z0-9-]*[a-z0-9]$|^[a-z]$`)

// semverPattern validates version strings (simplified semver).
var semverPattern = regexp.MustCompile(`^\d+\.\d+\.\d+(-[a-zA-Z0-9.-]+)?(\+[a-zA-Z0-9.-]+)?$`)

// validCapabilities are the capabilities the host defines.
var validCapabilities = map[script.Capability]bool{
	script.CapabilityWindows:     true,
	script.CapabilityViews:       true,
	script.CapabilitySettings:    true,
	script.CapabilityPhantoms:    true,
	script.CapabilityCompletions: true,
	script.CapabilityEvents:      true,
}

// validScopes are the command scopes dispatch understands.
var validScopes = map[string]bool{
	ScopeText:        true,
	ScopeWindow:      true,
	ScopeApplication: true,
}

// LoadManifest loads and validates a plugin manifest from a file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	m.path = filepath.Dir(path)
	m.applyDefaults()

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadManifestFromDir loads plugin.json from a plugin directory.
func LoadManifestFromDir(dir string) (*Manifest, error) {
	return LoadManifest(filepath.Join(dir, "plugin.json"))
}

// NewManifestMinimal creates a manifest for a plugin directory that
// ships no plugin.json. Such plugins run with every capability.
func NewManifestMinimal(name, dir string) *Manifest {
	return &Manifest{
		Name:         name,
		Version:      "0.0.0",
		Main:         "init.lua",
		Capabilities: capabilityList(),
		path:         dir,
	}
}

func capabilityList() []script.Capability {
	caps := make([]script.Capability, 0, len(validCapabilities))
	for c := range script.AllCapabilities() {
		caps = append(caps, c)
	}
	return caps
}

// applyDefaults sets default values for optional fields.
func (m *Manifest) applyDefaults() {
	if m.Main == "" {
		m.Main = "init.lua"
	}
	if m.Version == "" {
		m.Version = "0.0.0"
	}
	for i := range m.Commands {
		if m.Commands[i].Scope == "" {
			m.Commands[i].Scope = ScopeText
		}
		if m.Commands[i].Handler == "" {
			m.Commands[i].Handler = m.Commands[i].Name
		}
	}
}

// Validate checks that the manifest is well formed.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return ErrMissingName
	}
	if !namePattern.MatchString(m.Name) {
		return fmt.Errorf("%w: %s", ErrInvalidName, m.Name)
	}

	if m.Version == "" {
		return ErrMissingVersion
	}
	if !semverPattern.MatchString(m.Version) {
		return fmt.Errorf("%w: %s", ErrInvalidVersion, m.Version)
	}

	if m.Main != "" && filepath.Ext(m.Main) != ".lua" {
		return fmt.Errorf("%w: %s", ErrInvalidMain, m.Main)
	}

	for _, c := range m.Capabilities {
		if !validCapabilities[c] {
			return fmt.Errorf("%w: %s", ErrInvalidCapability, c)
		}
	}

	for i, cmd := range m.Commands {
		if cmd.Name == "" {
			return fmt.Errorf("%w at index %d", ErrMissingCommand, i)
		}
		if cmd.Scope != "" && !validScopes[cmd.Scope] {
			return fmt.Errorf("%w: %s has scope %q", ErrInvalidScope, cmd.Name, cmd.Scope)
		}
	}

	return nil
}

// Path returns the path to the plugin directory.
func (m *Manifest) Path() string {
	return m.path
}

// MainPath returns the full path to the main Lua file.
func (m *Manifest) MainPath() string {
	return filepath.Join(m.path, m.Main)
}

// SettingsName returns the basename of the plugin's settings file.
func (m *Manifest) SettingsName() string {
	return m.Name + ".storm-settings"
}

// HasCapability reports whether the plugin requests the capability.
func (m *Manifest) HasCapability(c script.Capability) bool {
	for _, have := range m.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// Grants returns the capability grant set for Install.
func (m *Manifest) Grants() map[script.Capability]bool {
	grants := make(map[script.Capability]bool, len(m.Capabilities))
	for _, c := range m.Capabilities {
		grants[c] = true
	}
	return grants
}

// String returns "name vVersion".
func (m *Manifest) String() string {
	return fmt.Sprintf("%s v%s", m.Name, m.Version)
}
