// Package app wires shooter together and drives generation jobs.
//
// # Components
//
//   - app.go: Runtime, the composition root shared by the TUI and headless
//     commands, and Run, which starts the TUI
//   - controller.go: Controller, which runs one submission end to end
//   - poller.go: Poller, the bounded status check loop
//
// # Job lifecycle
//
//	Generate(req)
//	   │  session and request checks (refused → Errored, nothing sent)
//	   ▼
//	Machine.Begin ──► Presenter.Submitting
//	   │
//	Client.Submit ──► rejected → Presenter.Errored
//	   │ queued
//	   ▼
//	Presenter.Queued(credits)
//	   │
//	Poller.Run: wait interval, poll, repeat up to MaxAttempts
//	   │
//	   ├─ Succeeded → Presenter.Succeeded → Idle
//	   ├─ Failed    → Presenter.Errored
//	   └─ TimedOut  → Presenter.Errored
//
// # Supersession
//
// Starting a job cancels the previous one through the Machine. Every
// transition and the rendering that follows it run under one lock and are
// gated on the job's generation, so the older job stops writing the moment a
// newer one begins, even if its in-flight poll still answers.
//
// # Concurrency
//
// The TUI calls Generate from a Bubble Tea command goroutine. Presenter output
// lands on a present.Board that the UI snapshots on every refresh tick.
// Headless commands pass present.LogPorts instead and call Generate directly.
package app
