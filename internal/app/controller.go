package app

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/five82/shooter/internal/present"
	"github.com/five82/shooter/internal/shooter"
	"github.com/five82/shooter/internal/state"
)

// ErrSuperseded is returned when a newer submission took over before this one
// reached a terminal outcome. Nothing from the older job was rendered after that.
var ErrSuperseded = errors.New("superseded by a newer submission")

// CancelledMessage is shown when a job stops because the caller went away.
const CancelledMessage = "Generation cancelled"

// LoginRequiredError is returned instead of submitting when no session exists.
type LoginRequiredError struct {
	URL string
}

func (e *LoginRequiredError) Error() string {
	return "login required: visit " + e.URL
}

// Result describes a submission that reached a terminal outcome.
type Result struct {
	Handle  shooter.JobHandle   `json:"job" yaml:"job"`
	Credits *int                `json:"credits,omitempty" yaml:"credits,omitempty"`
	Outcome shooter.PollOutcome `json:"outcome" yaml:"outcome"`
	Entries []present.Entry     `json:"gallery,omitempty" yaml:"gallery,omitempty"`
}

// ControllerConfig wires a Controller. Session may be nil when no auth check is
// wanted.
type ControllerConfig struct {
	Client    shooter.JobClient
	Session   shooter.Session
	Validator *shooter.RequestValidator
	Machine   *state.Machine
	Presenter *present.Presenter
	Poller    Poller
	Logger    zerolog.Logger
}

// Controller runs submissions end to end. Every state transition and the
// rendering that follows it happen under one lock, gated on the job's
// generation, so a superseded job can never write after a newer one began.
type Controller struct {
	client    shooter.JobClient
	session   shooter.Session
	validator *shooter.RequestValidator
	machine   *state.Machine
	presenter *present.Presenter
	poller    Poller
	logger    zerolog.Logger

	renderMu sync.Mutex
}

// NewController builds a Controller. A nil Machine or Validator is replaced with
// a fresh default.
func NewController(cfg ControllerConfig) *Controller {
	machine := cfg.Machine
	if machine == nil {
		machine = state.NewMachine()
	}
	validator := cfg.Validator
	if validator == nil {
		validator = shooter.NewRequestValidator(nil, nil)
	}
	return &Controller{
		client:    cfg.Client,
		session:   cfg.Session,
		validator: validator,
		machine:   machine,
		presenter: cfg.Presenter,
		poller:    cfg.Poller,
		logger:    cfg.Logger,
	}
}

// Machine exposes the job state for readers.
func (c *Controller) Machine() *state.Machine { return c.machine }

// Generate validates req, submits it and polls until a terminal outcome. Failed
// and timed out jobs are reported through Result.Outcome with a nil error; the
// error return covers refusals, submit failures, supersession and cancellation.
func (c *Controller) Generate(ctx context.Context, req shooter.GenerationRequest) (Result, error) {
	if c.session != nil && !c.session.Authenticated() {
		err := &LoginRequiredError{URL: c.session.LoginURL()}
		c.logger.Info().Str("login_url", err.URL).Msg("submission refused: not signed in")
		c.refuse(err.Error())
		return Result{}, err
	}
	if err := c.validator.Validate(req); err != nil {
		c.logger.Debug().Err(err).Msg("submission refused: invalid request")
		c.refuse(err.Error())
		return Result{}, err
	}

	c.renderMu.Lock()
	gen := c.machine.Begin()
	c.presenter.Submitting()
	c.renderMu.Unlock()

	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.machine.Bind(gen, cancel)
	logger := c.logger.With().Uint64("generation", gen).Logger()

	submitted, err := c.client.Submit(jobCtx, req)
	if err != nil {
		reason := err.Error()
		logger.Warn().Err(err).Msg("submission rejected")
		if !c.apply(func() bool { return c.machine.Reject(gen, reason) }, func() { c.presenter.Errored(reason) }) {
			return Result{}, ErrSuperseded
		}
		return Result{}, err
	}

	handle := submitted.Handle
	result := Result{Handle: handle, Credits: submitted.Credits}
	logger = logger.With().Str("task_id", handle.TaskID).Logger()
	if !c.apply(func() bool { return c.machine.Accept(gen, handle) }, func() { c.presenter.Queued(submitted.Credits) }) {
		return result, ErrSuperseded
	}

	maxAttempts := c.poller.maxAttempts()
	outcome := c.poller.Run(jobCtx, c.client, handle, func(n int) {
		c.apply(func() bool { return c.machine.Attempt(gen, n) }, func() { c.presenter.Polling(n, maxAttempts) })
	})
	result.Outcome = outcome
	if outcome.Credits != nil {
		result.Credits = outcome.Credits
	}

	if outcome.Cancelled {
		if !c.machine.Current(gen) {
			logger.Debug().Msg("job superseded while polling")
			return result, ErrSuperseded
		}
		stopped := shooter.Failed(CancelledMessage)
		stopped.Attempts = outcome.Attempts
		c.apply(func() bool { return c.machine.Resolve(gen, stopped) }, func() { c.presenter.Errored(stopped.Message) })
		return result, ctx.Err()
	}
	if outcome.Malformed {
		logger.Warn().Err(shooter.ErrMalformedResponse).Msg("job ended on an unreadable status response")
	}

	rendered := c.apply(func() bool { return c.machine.Resolve(gen, outcome) }, func() {
		if outcome.Kind == shooter.OutcomeSucceeded {
			c.presenter.Succeeded(handle.TaskID, outcome)
			c.machine.Presented(gen)
			return
		}
		c.presenter.Errored(outcome.Message)
	})
	if !rendered {
		return result, ErrSuperseded
	}
	logger.Info().
		Str("outcome", outcome.Kind.String()).
		Int("attempts", outcome.Attempts).
		Int("images", len(outcome.Images)).
		Msg("job finished")
	result.Entries = c.presenter.Gallery()
	return result, nil
}

// apply runs transition and, when it was accepted, render, both under the
// render lock.
func (c *Controller) apply(transition func() bool, render func()) bool {
	c.renderMu.Lock()
	defer c.renderMu.Unlock()
	if !transition() {
		return false
	}
	if render != nil {
		render()
	}
	return true
}

// Dismiss clears a shown error. It does nothing unless the machine is Errored.
func (c *Controller) Dismiss() bool {
	return c.apply(c.machine.Dismiss, c.presenter.Reset)
}

// Refuse shows a problem found before submitting, such as an unreadable image
// file. It does nothing while a job is in flight.
func (c *Controller) Refuse(message string) bool {
	c.logger.Debug().Str("reason", message).Msg("submission refused")
	return c.refuse(message)
}

func (c *Controller) refuse(message string) bool {
	return c.apply(func() bool { return c.machine.Invalid(message) }, func() { c.presenter.Errored(message) })
}
