package app

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog"

	"github.com/five82/shooter/internal/config"
	"github.com/five82/shooter/internal/download"
	"github.com/five82/shooter/internal/logging"
	"github.com/five82/shooter/internal/prefs"
	"github.com/five82/shooter/internal/present"
	"github.com/five82/shooter/internal/shooter"
	"github.com/five82/shooter/internal/state"
	"github.com/five82/shooter/internal/ui"
)

// Options configure a Runtime.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/shooter/prefs.toml
	// Verbose mirrors log records to stderr. Only headless commands set it.
	Verbose bool
	// Ports receives presenter output. Nil renders into a Board for the TUI.
	Ports present.UiPorts
}

// Runtime holds the wired components shared by the TUI and the headless
// commands.
type Runtime struct {
	Config     config.Config
	Prefs      prefs.Prefs
	Logger     zerolog.Logger
	Client     *shooter.Client
	Board      *present.Board
	Machine    *state.Machine
	Controller *Controller
	Downloader *download.Downloader

	closeLog func() error
}

// NewRuntime loads configuration and preferences and wires the client,
// controller and downloader. Call Close when done.
func NewRuntime(opts Options) (*Runtime, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, closeLog, err := logging.New(logging.Options{
		Path:    cfg.LogPath,
		Level:   cfg.LogLevel,
		Console: opts.Verbose,
	})
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	// Unreadable prefs degrade to defaults.
	userPrefs, _ := prefs.Load(opts.PrefsPath)

	client, err := shooter.NewClient(shooter.ClientConfig{
		BaseURL:       cfg.BaseURL,
		LoginPath:     cfg.LoginPath,
		SessionCookie: cfg.SessionCookie,
		CSRFToken:     cfg.CSRFToken,
		Timeout:       cfg.RequestTimeout,
		Logger:        logger.With().Str("component", "client").Logger(),
	})
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("init api client: %w", err)
	}

	modes := modesOf(cfg.Modes)
	rt := &Runtime{
		Config:   cfg,
		Prefs:    userPrefs,
		Logger:   logger,
		Client:   client,
		Machine:  state.NewMachine(),
		closeLog: closeLog,
	}

	ports := opts.Ports
	if ports == nil {
		rt.Board = &present.Board{}
		ports = rt.Board
	}

	rt.Controller = NewController(ControllerConfig{
		Client:    client,
		Session:   client,
		Validator: shooter.NewRequestValidator(cfg.Tiers, modes),
		Machine:   rt.Machine,
		Presenter: present.NewPresenter(ports),
		Poller: Poller{
			Interval:    cfg.PollInterval,
			MaxAttempts: cfg.MaxAttempts,
			Logger:      logger.With().Str("component", "poller").Logger(),
		},
		Logger: logger.With().Str("component", "controller").Logger(),
	})
	rt.Downloader = download.New(download.Config{
		Dir:    cfg.DownloadDir,
		HTTP:   client.HTTPClient(),
		Logger: logger.With().Str("component", "download").Logger(),
	})
	return rt, nil
}

// Modes returns the configured generation modes.
func (r *Runtime) Modes() []shooter.Mode {
	return modesOf(r.Config.Modes)
}

// DefaultCount is the remembered count when it is still a configured tier,
// otherwise the configured default.
func (r *Runtime) DefaultCount() int {
	if r.Prefs.Count > 0 && slices.Contains(r.Config.Tiers, r.Prefs.Count) {
		return r.Prefs.Count
	}
	return r.Config.DefaultCount
}

// DefaultMode is the remembered mode when it is still configured, otherwise
// the configured default.
func (r *Runtime) DefaultMode() shooter.Mode {
	if r.Prefs.Mode != "" && slices.Contains(r.Config.Modes, r.Prefs.Mode) {
		return shooter.Mode(r.Prefs.Mode)
	}
	return shooter.Mode(r.Config.DefaultMode)
}

// Close flushes and closes the log file.
func (r *Runtime) Close() error {
	if r == nil || r.closeLog == nil {
		return nil
	}
	return r.closeLog()
}

// Run boots the shooter TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	opts.Ports = nil
	opts.Verbose = false
	rt, err := NewRuntime(opts)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()

	rt.Logger.Info().
		Str("base_url", rt.Client.BaseURL()).
		Bool("signed_in", rt.Client.Authenticated()).
		Msg("shooter starting")
	if !rt.Client.Authenticated() {
		rt.Logger.Warn().Str("login_url", rt.Client.LoginURL()).Msg("no session cookie configured")
	}

	return ui.Run(ui.Options{
		Context:      ctx,
		Generate:     rt.generateFunc(),
		Dismiss:      rt.Controller.Dismiss,
		Refuse:       rt.Controller.Refuse,
		Board:        rt.Board,
		Machine:      rt.Machine,
		Downloader:   rt.Downloader,
		Tiers:        rt.Config.Tiers,
		Modes:        rt.Modes(),
		DefaultCount: rt.DefaultCount(),
		DefaultMode:  rt.DefaultMode(),
		LogPath:      rt.Config.LogPath,
		ThemeName:    rt.Prefs.Theme,
		PrefsPath:    opts.PrefsPath,
	})
}

// generateFunc adapts the Controller for the TUI. Supersession and shutdown
// are expected endings and are not reported.
func (r *Runtime) generateFunc() ui.GenerateFunc {
	return func(ctx context.Context, req shooter.GenerationRequest) error {
		_, err := r.Controller.Generate(ctx, req)
		if errors.Is(err, ErrSuperseded) || errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
}

func modesOf(names []string) []shooter.Mode {
	out := make([]shooter.Mode, len(names))
	for i, n := range names {
		out[i] = shooter.Mode(n)
	}
	return out
}
