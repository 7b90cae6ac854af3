package state

import (
	"context"
	"sync"
	"time"

	"github.com/five82/shooter/internal/shooter"
)

// Phase is the authoritative lifecycle position of the current job.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSubmitting
	PhasePolling
	PhasePresenting
	PhaseErrored
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSubmitting:
		return "submitting"
	case PhasePolling:
		return "polling"
	case PhasePresenting:
		return "presenting"
	case PhaseErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Busy reports whether a job is in flight.
func (p Phase) Busy() bool {
	return p == PhaseSubmitting || p == PhasePolling
}

// Snapshot is a copy of the machine at a point in time.
type Snapshot struct {
	Phase      Phase
	Generation uint64
	Handle     shooter.JobHandle
	Attempt    int
	Message    string
	Outcome    shooter.PollOutcome
	UpdatedAt  time.Time
}

// Machine holds the job phase and the generation counter that makes superseded
// jobs harmless. Every transition names the generation it belongs to; a stale
// generation or a wrong phase leaves the machine untouched and returns false.
type Machine struct {
	mu       sync.RWMutex
	snapshot Snapshot
	cancel   context.CancelFunc
	now      func() time.Time
}

// NewMachine returns an idle machine.
func NewMachine() *Machine {
	return &Machine{now: time.Now}
}

// Begin starts a new submission from any phase. The previous generation, if it
// was still in flight, becomes stale and its bound cancel function runs.
func (m *Machine) Begin() uint64 {
	m.mu.Lock()
	prevCancel := m.cancel
	m.cancel = nil
	m.snapshot = Snapshot{
		Phase:      PhaseSubmitting,
		Generation: m.snapshot.Generation + 1,
		UpdatedAt:  m.clock(),
	}
	gen := m.snapshot.Generation
	m.mu.Unlock()

	if prevCancel != nil {
		prevCancel()
	}
	return gen
}

// Bind registers the function that stops gen's in-flight work. If gen is already
// stale the function runs immediately.
func (m *Machine) Bind(gen uint64, cancel context.CancelFunc) {
	m.mu.Lock()
	if gen != m.snapshot.Generation || !m.snapshot.Phase.Busy() {
		m.mu.Unlock()
		cancel()
		return
	}
	m.cancel = cancel
	m.mu.Unlock()
}

// Accept moves Submitting to Polling with the server-assigned handle.
func (m *Machine) Accept(gen uint64, handle shooter.JobHandle) bool {
	return m.transition(gen, PhaseSubmitting, func(s *Snapshot) {
		s.Phase = PhasePolling
		s.Handle = handle
		s.Attempt = 0
	})
}

// Reject moves Submitting to Errored.
func (m *Machine) Reject(gen uint64, message string) bool {
	return m.transition(gen, PhaseSubmitting, func(s *Snapshot) {
		s.Phase = PhaseErrored
		s.Message = message
	})
}

// Attempt records a poll attempt without leaving Polling.
func (m *Machine) Attempt(gen uint64, n int) bool {
	return m.transition(gen, PhasePolling, func(s *Snapshot) {
		s.Attempt = n
	})
}

// Resolve applies a terminal outcome: Succeeded moves to Presenting, Failed and
// TimedOut move to Errored. A pending outcome is not a transition.
func (m *Machine) Resolve(gen uint64, outcome shooter.PollOutcome) bool {
	if !outcome.Kind.Terminal() {
		return false
	}
	return m.transition(gen, PhasePolling, func(s *Snapshot) {
		s.Outcome = outcome
		if outcome.Attempts > 0 {
			s.Attempt = outcome.Attempts
		}
		if outcome.Kind == shooter.OutcomeSucceeded {
			s.Phase = PhasePresenting
			s.Message = ""
			return
		}
		s.Phase = PhaseErrored
		s.Message = outcome.Message
	})
}

// Presented returns Presenting to Idle once rendering is done.
func (m *Machine) Presented(gen uint64) bool {
	return m.transition(gen, PhasePresenting, func(s *Snapshot) {
		s.Phase = PhaseIdle
	})
}

// Invalid records a submission that was refused before reaching the server. It
// only applies while no job is in flight.
func (m *Machine) Invalid(message string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snapshot.Phase.Busy() || m.snapshot.Phase == PhasePresenting {
		return false
	}
	m.snapshot.Phase = PhaseErrored
	m.snapshot.Message = message
	m.snapshot.UpdatedAt = m.clock()
	return true
}

// Dismiss acknowledges an error and returns Errored to Idle.
func (m *Machine) Dismiss() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snapshot.Phase != PhaseErrored {
		return false
	}
	m.snapshot.Phase = PhaseIdle
	m.snapshot.Message = ""
	m.snapshot.UpdatedAt = m.clock()
	return true
}

// Current reports whether gen is the live generation.
func (m *Machine) Current(gen uint64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return gen == m.snapshot.Generation
}

// Snapshot returns a copy of the current state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := m.snapshot
	if len(m.snapshot.Outcome.Images) > 0 {
		snap.Outcome.Images = append([]shooter.ImageRef(nil), m.snapshot.Outcome.Images...)
	}
	return snap
}

func (m *Machine) transition(gen uint64, from Phase, apply func(*Snapshot)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.snapshot.Generation || m.snapshot.Phase != from {
		return false
	}
	apply(&m.snapshot)
	m.snapshot.UpdatedAt = m.clock()
	if !m.snapshot.Phase.Busy() {
		m.cancel = nil
	}
	return true
}

func (m *Machine) clock() time.Time {
	if m.now == nil {
		return time.Now()
	}
	return m.now()
}
