package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/shooter/internal/shooter"
)

func TestMachine_HappyPath(t *testing.T) {
	var m Machine
	require.Equal(t, PhaseIdle, m.Snapshot().Phase)

	gen := m.Begin()
	assert.Equal(t, uint64(1), gen)
	assert.Equal(t, PhaseSubmitting, m.Snapshot().Phase)

	handle := shooter.JobHandle{TaskID: "abc"}
	require.True(t, m.Accept(gen, handle))
	snap := m.Snapshot()
	assert.Equal(t, PhasePolling, snap.Phase)
	assert.Equal(t, "abc", snap.Handle.TaskID)

	require.True(t, m.Attempt(gen, 3))
	assert.Equal(t, 3, m.Snapshot().Attempt)

	assert.False(t, m.Resolve(gen, shooter.Pending()), "pending is not a transition")

	out := shooter.Succeeded([]shooter.ImageRef{{PreviewURL: "a.png", DownloadURL: "a.png"}}, nil)
	require.True(t, m.Resolve(gen, out))
	assert.Equal(t, PhasePresenting, m.Snapshot().Phase)

	require.True(t, m.Presented(gen))
	snap = m.Snapshot()
	assert.Equal(t, PhaseIdle, snap.Phase)
	assert.Len(t, snap.Outcome.Images, 1)
}

func TestMachine_FailureAndTimeoutEndErrored(t *testing.T) {
	for _, out := range []shooter.PollOutcome{shooter.Failed("boom"), shooter.TimedOut()} {
		var m Machine
		gen := m.Begin()
		require.True(t, m.Accept(gen, shooter.JobHandle{TaskID: "t"}))
		require.True(t, m.Resolve(gen, out))
		snap := m.Snapshot()
		assert.Equal(t, PhaseErrored, snap.Phase)
		assert.Equal(t, out.Message, snap.Message)
		assert.False(t, m.Presented(gen), "errored is not presenting")
	}
}

func TestMachine_RejectFromSubmitting(t *testing.T) {
	var m Machine
	gen := m.Begin()
	require.True(t, m.Reject(gen, "Insufficient credits"))
	snap := m.Snapshot()
	assert.Equal(t, PhaseErrored, snap.Phase)
	assert.Equal(t, "Insufficient credits", snap.Message)

	assert.False(t, m.Accept(gen, shooter.JobHandle{TaskID: "late"}), "accept after reject")

	next := m.Begin()
	assert.Equal(t, PhaseSubmitting, m.Snapshot().Phase, "errored accepts next submit")
	assert.Empty(t, m.Snapshot().Message)
	assert.Greater(t, next, gen)
}

func TestMachine_StaleGenerationIsIgnored(t *testing.T) {
	var m Machine
	a := m.Begin()
	require.True(t, m.Accept(a, shooter.JobHandle{TaskID: "A"}))

	b := m.Begin()
	require.True(t, m.Accept(b, shooter.JobHandle{TaskID: "B"}))

	assert.False(t, m.Attempt(a, 9))
	assert.False(t, m.Resolve(a, shooter.Failed("stale")))
	assert.False(t, m.Current(a))
	assert.True(t, m.Current(b))

	snap := m.Snapshot()
	assert.Equal(t, PhasePolling, snap.Phase)
	assert.Equal(t, "B", snap.Handle.TaskID)
	assert.Equal(t, 0, snap.Attempt)
}

func TestMachine_BeginCancelsBoundWork(t *testing.T) {
	var m Machine
	a := m.Begin()
	ctx, cancel := context.WithCancel(context.Background())
	m.Bind(a, cancel)

	m.Begin()
	select {
	case <-ctx.Done():
	default:
		t.Fatal("superseded job context was not cancelled")
	}
}

func TestMachine_BindStaleCancelsImmediately(t *testing.T) {
	var m Machine
	a := m.Begin()
	m.Begin()

	ctx, cancel := context.WithCancel(context.Background())
	m.Bind(a, cancel)
	assert.Error(t, ctx.Err())
}

func TestMachine_InvalidOnlyWhenReady(t *testing.T) {
	var m Machine
	require.True(t, m.Invalid("Please upload an image first!"))
	assert.Equal(t, PhaseErrored, m.Snapshot().Phase)

	gen := m.Begin()
	assert.False(t, m.Invalid("nope"), "invalid must not interrupt a live job")
	assert.Equal(t, PhaseSubmitting, m.Snapshot().Phase)
	assert.True(t, m.Current(gen))
}

func TestMachine_DismissOnlyFromErrored(t *testing.T) {
	var m Machine
	assert.False(t, m.Dismiss())

	require.True(t, m.Invalid("Please upload an image first!"))
	require.True(t, m.Dismiss())
	snap := m.Snapshot()
	assert.Equal(t, PhaseIdle, snap.Phase)
	assert.Empty(t, snap.Message)

	m.Begin()
	assert.False(t, m.Dismiss(), "dismiss must not interrupt a live job")
	assert.Equal(t, PhaseSubmitting, m.Snapshot().Phase)
}

func TestMachine_SnapshotClonesImages(t *testing.T) {
	var m Machine
	gen := m.Begin()
	m.Accept(gen, shooter.JobHandle{TaskID: "t"})
	m.Resolve(gen, shooter.Succeeded([]shooter.ImageRef{{PreviewURL: "a"}}, nil))

	snap := m.Snapshot()
	snap.Outcome.Images[0].PreviewURL = "mutated"
	assert.Equal(t, "a", m.Snapshot().Outcome.Images[0].PreviewURL)
}

func TestProject(t *testing.T) {
	cases := []struct {
		phase    Phase
		hasImage bool
		want     UiState
	}{
		{PhaseIdle, false, UiAwaitingUpload},
		{PhaseIdle, true, UiIdle},
		{PhaseSubmitting, true, UiSubmitting},
		{PhasePolling, true, UiPolling},
		{PhasePresenting, true, UiPresenting},
		{PhaseErrored, false, UiErrored},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Project(tc.phase, tc.hasImage), "Project(%v, %v)", tc.phase, tc.hasImage)
	}
	assert.True(t, UiErrored.Ready())
	assert.True(t, UiIdle.Ready())
	assert.False(t, UiPolling.Ready())
	assert.True(t, UiSubmitting.InProgress())
	assert.False(t, UiPresenting.InProgress())
}
