package app

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Batch is a headless run file: a named list of steps executed in order
// on the dispatch loop. The first failing step stops the batch.
type Batch struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// Step is one batch action. Exactly one field is set per step.
type Step struct {
	// Open opens a file in the active window.
	Open string `yaml:"open,omitempty"`
	// Insert appends text to the active view.
	Insert string `yaml:"insert,omitempty"`
	// Command runs a named command.
	Command *CommandStep `yaml:"command,omitempty"`
	// Call calls a global function in a loaded plugin.
	Call *CallStep `yaml:"call,omitempty"`
}

// CommandStep names a command and the scope it runs against. An empty
// scope means text.
type CommandStep struct {
	Name  string         `yaml:"name"`
	Scope string         `yaml:"scope,omitempty"`
	Args  map[string]any `yaml:"args,omitempty"`
}

// CallStep names a plugin and a global function defined by it.
type CallStep struct {
	Plugin   string `yaml:"plugin"`
	Function string `yaml:"function"`
	Args     []any  `yaml:"args,omitempty"`
}

// kind names the action for error messages.
func (s *Step) kind() string {
	switch {
	case s.Open != "":
		return "open"
	case s.Insert != "":
		return "insert"
	case s.Command != nil:
		return "command"
	case s.Call != nil:
		return "call"
	}
	return "empty"
}

// LoadBatch reads and validates a batch run file.
func LoadBatch(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch %s: %w", path, err)
	}
	var b Batch
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse batch %s: %w", path, err)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("batch %s: %w", path, err)
	}
	return &b, nil
}

// Validate rejects empty and ambiguous steps before anything runs.
func (b *Batch) Validate() error {
	if len(b.Steps) == 0 {
		return ErrEmptyBatch
	}
	for i, s := range b.Steps {
		actions := 0
		if s.Open != "" {
			actions++
		}
		if s.Insert != "" {
			actions++
		}
		if s.Command != nil {
			actions++
		}
		if s.Call != nil {
			actions++
		}
		if actions != 1 {
			return fmt.Errorf("step %d: %w", i+1, ErrBadStep)
		}
		if s.Command != nil && s.Command.Name == "" {
			return fmt.Errorf("step %d: command name: %w", i+1, ErrBadStep)
		}
		if s.Call != nil && (s.Call.Plugin == "" || s.Call.Function == "") {
			return fmt.Errorf("step %d: call plugin and function: %w", i+1, ErrBadStep)
		}
	}
	return nil
}

// Run executes the batch against the application. Each step runs as one
// task on the dispatch loop, so steps never interleave with callbacks.
func (b *Batch) Run(ctx context.Context, a *App) error {
	for i, step := range b.Steps {
		if err := a.post(ctx, func() error { return a.runStep(&step) }); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, step.kind(), err)
		}
	}
	return nil
}
