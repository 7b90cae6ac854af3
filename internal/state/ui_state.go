package state

// UiState drives element enablement. It is derived from the phase, never stored.
type UiState int

const (
	UiIdle UiState = iota
	UiAwaitingUpload
	UiSubmitting
	UiPolling
	UiPresenting
	UiErrored
)

func (u UiState) String() string {
	switch u {
	case UiIdle:
		return "Idle"
	case UiAwaitingUpload:
		return "AwaitingUpload"
	case UiSubmitting:
		return "Submitting"
	case UiPolling:
		return "Polling"
	case UiPresenting:
		return "Presenting"
	case UiErrored:
		return "Errored"
	default:
		return "Unknown"
	}
}

// Project maps a phase onto the UI state. hasImage distinguishes a ready form
// from one still waiting for a source image.
func Project(phase Phase, hasImage bool) UiState {
	switch phase {
	case PhaseSubmitting:
		return UiSubmitting
	case PhasePolling:
		return UiPolling
	case PhasePresenting:
		return UiPresenting
	case PhaseErrored:
		return UiErrored
	default:
		if !hasImage {
			return UiAwaitingUpload
		}
		return UiIdle
	}
}

// Ready reports whether the form accepts input. Idle and Errored are equivalent
// here; they differ only in the message shown.
func (u UiState) Ready() bool {
	return u == UiIdle || u == UiAwaitingUpload || u == UiErrored
}

// InProgress reports whether progress indicators should be visible.
func (u UiState) InProgress() bool {
	return u == UiSubmitting || u == UiPolling
}
