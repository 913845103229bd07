package preview

import (
	"sync"
	"time"
)

// Phase is the viewer loading lifecycle.
type Phase string

const (
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
	PhaseError   Phase = "error"

	// PhaseSettled: the skeleton timed out under the hide-skeleton
	// policy. Not ready, not an error; the viewer shows the media
	// element without a skeleton and lets it finish on its own.
	PhaseSettled Phase = "settled"
)

// Machine tracks one viewer's loading state against its plan. It
// re-initializes whenever the plan key changes.
type Machine struct {
	mu    sync.Mutex
	plan  *Plan
	phase Phase
	msg   string
	timer *time.Timer
}

// NewMachine starts tracking a plan in the loading phase.
func NewMachine(plan *Plan) *Machine {
	m := &Machine{}
	m.Reset(plan)
	return m
}

// Reset re-initializes against a plan. A same-key reset is a no-op
// so unrelated re-renders don't resurrect the skeleton.
func (m *Machine) Reset(plan *Plan) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.plan != nil && m.plan.Key == plan.Key {
		return
	}
	m.startLocked(plan)
}

// ForceReset re-initializes even for the same key, as after an
// explicit retry.
func (m *Machine) ForceReset(plan *Plan) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startLocked(plan)
}

func (m *Machine) startLocked(plan *Plan) {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.plan = plan
	m.phase = PhaseLoading
	m.msg = ""
	if plan.SkeletonTimeout > 0 {
		m.timer = time.AfterFunc(plan.SkeletonTimeout, m.onTimeout)
	}
}

// CacheProbe reports an already-complete image resource, skipping
// the skeleton for repeat views. Only image plans probe.
func (m *Machine) CacheProbe(complete bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !complete || m.plan == nil || !m.plan.CacheProbe || m.phase != PhaseLoading {
		return
	}
	m.becomeLocked(PhaseReady, "")
}

// NotifyReady records a load/ready event from the media element or
// provider.
func (m *Machine) NotifyReady() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase == PhaseLoading || m.phase == PhaseSettled {
		m.becomeLocked(PhaseReady, "")
	}
}

// NotifyError records an explicit error event. Unlike a timeout this
// always means the media failed.
func (m *Machine) NotifyError(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if message == "" {
		message = "Media failed to load"
	}
	m.becomeLocked(PhaseError, message)
}

// onTimeout applies the plan's timeout policy.
func (m *Machine) onTimeout() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhaseLoading {
		return
	}
	m.timer = nil
	if m.plan.OnTimeout == TimeoutIsError {
		m.phase = PhaseError
		m.msg = "Preview timed out"
		return
	}
	m.phase = PhaseSettled
}

func (m *Machine) becomeLocked(phase Phase, msg string) {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.phase = phase
	m.msg = msg
}

// Phase returns the current lifecycle phase.
func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// SkeletonVisible reports whether the loading skeleton should show.
func (m *Machine) SkeletonVisible() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase == PhaseLoading
}

// ErrorMessage returns the error text, empty outside the error phase.
func (m *Machine) ErrorMessage() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.phase != PhaseError {
		return ""
	}
	return m.msg
}
