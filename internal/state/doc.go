// Package state holds the job state machine shared by the submission flow and the UI.
//
// # Overview
//
// Machine is the single source of truth for where the current generation job is
// in its lifecycle. The controller in the app package reports into it; the UI reads
// snapshots of it on its own schedule and derives a UiState for element enablement.
//
// # Transitions
//
//	Idle       --Begin-->           Submitting
//	Errored    --Begin-->           Submitting
//	Submitting --Accept(handle)-->  Polling
//	Submitting --Reject(msg)-->     Errored
//	Polling    --Attempt(n)-->      Polling
//	Polling    --Resolve(success)-> Presenting
//	Polling    --Resolve(failure)-> Errored
//	Presenting --Presented-->       Idle
//	Idle       --Invalid(msg)-->    Errored
//	Errored    --Dismiss-->         Idle
//
// Begin is accepted from any phase. A Begin issued while a job is Submitting or
// Polling supersedes it: the generation counter advances, the older job's bound
// cancel function runs, and every later transition carrying the old generation
// returns false without touching the machine.
//
// # Concurrency Model
//
// The Machine uses a readers-writer lock:
//
//   - Transitions acquire the write lock (exclusive access)
//   - Snapshot() and Current() acquire the read lock
//
// The lock is held only while copying or applying a transition, never during
// network I/O or rendering. Cancel functions run after the lock is released.
//
// # Testing Considerations
//
// The zero Machine is ready to use:
//
//	m := &state.Machine{}
//	gen := m.Begin()
//	m.Accept(gen, handle)
package state
