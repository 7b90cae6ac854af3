// Package ui is the Bubble Tea front end for shooter.
//
// The screen has four parts stacked top to bottom:
//
//   - Header: logo, job phase badge, task id, credit balance and gallery size
//   - Form: image path, optional prompt, image count tier and generation mode
//   - Gallery: every image generated this session, newest first
//   - Activity (ctrl+l): the tail of the structured log file
//
// # Data flow
//
// The model never talks to the API. Submissions go through a GenerateFunc,
// which runs in a tea.Cmd goroutine and reports progress by writing to a
// present.Board and a state.Machine. A refresh tick snapshots both and the
// view renders from those snapshots, so a superseded job has no path into
// the screen.
//
// # Form gating
//
// The form is read from state.Project: enter submits only when the projection
// is Ready. ctrl+r submits regardless and supersedes the job in flight.
// Count and mode choices, along with the theme, are saved to the prefs file
// whenever they change.
//
// # Gallery
//
// Tab moves focus into the gallery. enter or p opens a preview with the
// image's preview and download URLs, d saves the selected image and D saves
// the whole gallery to the download directory.
package ui
