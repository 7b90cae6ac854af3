package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/shooter/internal/shooter"
)

// fakeClock records every wait and fires immediately.
type fakeClock struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.waits = append(c.waits, d)
	c.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- time.Time{}
	return ch
}

func (c *fakeClock) Waits() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.waits...)
}

// scriptedClient answers polls from a per-task script. Once a script runs out the
// last entry repeats.
type scriptedClient struct {
	mu       sync.Mutex
	submits  []submitStep
	polls    map[string][]pollStep
	pollHook map[string]func(ctx context.Context, n int)
	calls    map[string]int
	inFlight map[string]int
	overlap  bool
	nSubmits int
}

type submitStep struct {
	result shooter.SubmitResult
	err    error
}

type pollStep struct {
	outcome shooter.PollOutcome
	err     error
}

func newScriptedClient() *scriptedClient {
	return &scriptedClient{
		polls:    make(map[string][]pollStep),
		pollHook: make(map[string]func(context.Context, int)),
		calls:    make(map[string]int),
		inFlight: make(map[string]int),
	}
}

func (s *scriptedClient) queue(taskID string, credits *int) {
	s.submits = append(s.submits, submitStep{result: shooter.SubmitResult{
		Handle:  shooter.JobHandle{TaskID: taskID, SubmittedAt: time.Now()},
		Credits: credits,
	}})
}

func (s *scriptedClient) pending(taskID string, n int) {
	for i := 0; i < n; i++ {
		s.polls[taskID] = append(s.polls[taskID], pollStep{outcome: shooter.Pending()})
	}
}

func (s *scriptedClient) then(taskID string, outcome shooter.PollOutcome, err error) {
	s.polls[taskID] = append(s.polls[taskID], pollStep{outcome: outcome, err: err})
}

func (s *scriptedClient) Submit(_ context.Context, _ shooter.GenerationRequest) (shooter.SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nSubmits >= len(s.submits) {
		return shooter.SubmitResult{}, &shooter.SubmitError{Reason: "unexpected submit"}
	}
	step := s.submits[s.nSubmits]
	s.nSubmits++
	return step.result, step.err
}

func (s *scriptedClient) Poll(ctx context.Context, handle shooter.JobHandle) (shooter.PollOutcome, error) {
	s.mu.Lock()
	s.calls[handle.TaskID]++
	n := s.calls[handle.TaskID]
	s.inFlight[handle.TaskID]++
	if s.inFlight[handle.TaskID] > 1 {
		s.overlap = true
	}
	script := s.polls[handle.TaskID]
	hook := s.pollHook[handle.TaskID]
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight[handle.TaskID]--
		s.mu.Unlock()
	}()

	if hook != nil {
		hook(ctx, n)
	}
	if len(script) == 0 {
		return shooter.Pending(), nil
	}
	idx := n - 1
	if idx >= len(script) {
		idx = len(script) - 1
	}
	return script[idx].outcome, script[idx].err
}

func (s *scriptedClient) Calls(taskID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[taskID]
}

func (s *scriptedClient) Submits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nSubmits
}

func TestPoller_SucceedsOnLastAttempt(t *testing.T) {
	client := newScriptedClient()
	client.pending("abc", 59)
	client.then("abc", shooter.Succeeded([]shooter.ImageRef{{PreviewURL: "a.png", DownloadURL: "a.png"}}, nil), nil)
	clock := &fakeClock{}

	var attempts []int
	p := Poller{After: clock.After}
	out := p.Run(context.Background(), client, shooter.JobHandle{TaskID: "abc"}, func(n int) {
		attempts = append(attempts, n)
	})

	require.Equal(t, shooter.OutcomeSucceeded, out.Kind)
	assert.Equal(t, 60, out.Attempts)
	assert.Equal(t, 60, client.Calls("abc"))
	assert.Len(t, attempts, 60)
	assert.Equal(t, 60, attempts[59])
	assert.False(t, client.overlap)
}

func TestPoller_TimesOutAfterExactlySixtyAttempts(t *testing.T) {
	client := newScriptedClient()
	client.pending("abc", 60)
	clock := &fakeClock{}

	out := Poller{After: clock.After}.Run(context.Background(), client, shooter.JobHandle{TaskID: "abc"}, nil)

	require.Equal(t, shooter.OutcomeTimedOut, out.Kind)
	assert.Equal(t, 60, out.Attempts)
	assert.Contains(t, out.Message, "history")
	assert.Equal(t, 60, client.Calls("abc"))

	waits := clock.Waits()
	require.Len(t, waits, 60)
	for _, w := range waits {
		assert.GreaterOrEqual(t, w, 3*time.Second)
	}
}

func TestPoller_TransportFailureEndsImmediately(t *testing.T) {
	client := newScriptedClient()
	client.then("abc", shooter.PollOutcome{}, &shooter.PollError{TaskID: "abc", Err: errors.New("connection refused")})

	out := Poller{After: (&fakeClock{}).After}.Run(context.Background(), client, shooter.JobHandle{TaskID: "abc"}, nil)

	require.Equal(t, shooter.OutcomeFailed, out.Kind)
	assert.Equal(t, 1, out.Attempts)
	assert.Equal(t, "connection refused", out.Message)
	assert.Equal(t, 1, client.Calls("abc"))
}

func TestPoller_ServerFailureStops(t *testing.T) {
	client := newScriptedClient()
	client.pending("abc", 2)
	client.then("abc", shooter.Failed("NSFW content detected"), nil)

	out := Poller{After: (&fakeClock{}).After}.Run(context.Background(), client, shooter.JobHandle{TaskID: "abc"}, nil)

	assert.Equal(t, shooter.OutcomeFailed, out.Kind)
	assert.Equal(t, "NSFW content detected", out.Message)
	assert.Equal(t, 3, out.Attempts)
}

func TestPoller_CancelledBeforeWait(t *testing.T) {
	client := newScriptedClient()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	block := func(time.Duration) <-chan time.Time { return make(chan time.Time) }
	out := Poller{After: block}.Run(ctx, client, shooter.JobHandle{TaskID: "abc"}, nil)

	assert.True(t, out.Cancelled)
	assert.Equal(t, 0, client.Calls("abc"))
}

func TestPoller_CancelledDuringPoll(t *testing.T) {
	client := newScriptedClient()
	ctx, cancel := context.WithCancel(context.Background())
	client.pollHook["abc"] = func(context.Context, int) { cancel() }
	client.then("abc", shooter.PollOutcome{}, &shooter.PollError{TaskID: "abc", Err: context.Canceled})

	out := Poller{After: (&fakeClock{}).After}.Run(ctx, client, shooter.JobHandle{TaskID: "abc"}, nil)

	assert.True(t, out.Cancelled)
	assert.Equal(t, 1, out.Attempts)
}

func TestPoller_Defaults(t *testing.T) {
	var p Poller
	assert.Equal(t, 3*time.Second, p.interval())
	assert.Equal(t, 60, p.maxAttempts())

	p = Poller{Interval: time.Second, MaxAttempts: 5}
	assert.Equal(t, time.Second, p.interval())
	assert.Equal(t, 5, p.maxAttempts())
}
