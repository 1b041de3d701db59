package host

import (
	"sync"

	"github.com/dshills/stormhost/internal/value"
)

// MacroStep is one recorded command invocation.
type MacroStep struct {
	Command string
	Args    map[string]any
}

// macroRecorder captures window and text commands as they execute.
// Application commands are not recorded. The zero value is ready to use.
type macroRecorder struct {
	mu        sync.Mutex
	recording bool
	steps     []MacroStep
	saved     []MacroStep
}

// start begins a fresh recording, discarding an unstopped one.
func (r *macroRecorder) start() {
	r.mu.Lock()
	r.recording = true
	r.steps = nil
	r.mu.Unlock()
}

// stop ends the recording and saves it for replay. A recording with no
// steps leaves the previously saved macro in place.
func (r *macroRecorder) stop() []MacroStep {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return nil
	}
	r.recording = false
	if len(r.steps) > 0 {
		r.saved = make([]MacroStep, len(r.steps))
		copy(r.saved, r.steps)
	}
	result := r.steps
	r.steps = nil
	return result
}

func (r *macroRecorder) isRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// record appends a step to the recording in progress.
func (r *macroRecorder) record(name string, args map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return
	}
	r.steps = append(r.steps, MacroStep{Command: name, Args: value.CloneMap(args)})
}

// macro returns a copy of the last saved recording.
func (r *macroRecorder) macro() []MacroStep {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]MacroStep, len(r.saved))
	for i, step := range r.saved {
		out[i] = MacroStep{Command: step.Command, Args: value.CloneMap(step.Args)}
	}
	return out
}

// StartMacroRecording begins recording window and text commands. A
// recording already in progress restarts from empty.
func (h *Host) StartMacroRecording() {
	h.macro.start()
}

// StopMacroRecording ends the current recording and returns its steps.
// Recording nothing keeps the previously saved macro.
func (h *Host) StopMacroRecording() []MacroStep {
	return h.macro.stop()
}

// IsRecordingMacro reports whether a recording is in progress.
func (h *Host) IsRecordingMacro() bool {
	return h.macro.isRecording()
}

// GetMacro returns the last saved recording.
func (h *Host) GetMacro() []MacroStep {
	return h.macro.macro()
}

// RunMacro replays the last saved recording against the active window.
// Replay stops at the first failing step.
func (h *Host) RunMacro() error {
	return h.RunMacroSteps(h.macro.macro())
}

// RunMacroSteps replays an explicit step list against the active window.
func (h *Host) RunMacroSteps(steps []MacroStep) error {
	w := h.ActiveWindow()
	if w == nil {
		return ErrStaleWindow
	}
	for _, step := range steps {
		if err := w.RunCommand(step.Command, step.Args); err != nil {
			return err
		}
	}
	return nil
}
