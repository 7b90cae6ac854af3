// Package present renders job events into a UI through the UiPorts interface.
//
// The Presenter is a pure projection: given the gallery so far and a terminal
// outcome, it computes the next gallery and writes status, error, credit and
// progress values through its ports. It holds no timers and never talks to the
// network. Board is the in-memory port set the terminal UI reads from; the
// headless commands use a logging port set instead.
package present
