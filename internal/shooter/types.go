package shooter

import (
	"strings"
	"time"
)

// Mode selects the generation style the backend applies.
type Mode string

const (
	ModeCreative   Mode = "creative"
	ModeModel      Mode = "model"
	ModeBackground Mode = "background"
)

// DefaultModes lists the modes the backend offers.
var DefaultModes = []Mode{ModeCreative, ModeModel, ModeBackground}

// DefaultTiers lists the image counts the backend offers.
var DefaultTiers = []int{1, 2, 4}

// GenerationRequest is one user submission. It is not mutated after Submit.
type GenerationRequest struct {
	Image      []byte `validate:"required,min=1"`
	Filename   string
	Count      int    `validate:"tier"`
	Mode       Mode   `validate:"mode"`
	UserPrompt string `validate:"max=2000"`
}

// JobHandle identifies one outstanding poll sequence.
type JobHandle struct {
	TaskID      string    `json:"task_id" yaml:"task_id"`
	SubmittedAt time.Time `json:"submitted_at" yaml:"submitted_at"`
}

// SubmitResult is the accepted submission plus any balance the server reported.
type SubmitResult struct {
	Handle  JobHandle
	Credits *int
}

// OutcomeKind tags a PollOutcome.
type OutcomeKind int

const (
	OutcomePending OutcomeKind = iota
	OutcomeSucceeded
	OutcomeFailed
	OutcomeTimedOut
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomePending:
		return "pending"
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	case OutcomeTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// MarshalText renders the kind for json and yaml output.
func (k OutcomeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Terminal reports whether polling stops at this kind.
func (k OutcomeKind) Terminal() bool {
	return k != OutcomePending
}

// ImageRef pairs the preview source of a generated image with its download source.
type ImageRef struct {
	PreviewURL  string `json:"preview_url" yaml:"preview_url"`
	DownloadURL string `json:"download_url" yaml:"download_url"`
}

// PollOutcome is the result of one status check, or of a whole poll sequence.
type PollOutcome struct {
	Kind     OutcomeKind `json:"kind" yaml:"kind"`
	Images   []ImageRef  `json:"images,omitempty" yaml:"images,omitempty"`
	Message  string      `json:"message,omitempty" yaml:"message,omitempty"`
	Credits  *int        `json:"new_credits,omitempty" yaml:"new_credits,omitempty"`
	Attempts int         `json:"attempts,omitempty" yaml:"attempts,omitempty"`

	// Malformed is set when the status body could not be understood.
	Malformed bool `json:"malformed,omitempty" yaml:"malformed,omitempty"`
	// Cancelled is set when the sequence stopped because its context ended.
	Cancelled bool `json:"-" yaml:"-"`
}

// Pending builds a non-terminal outcome.
func Pending() PollOutcome { return PollOutcome{Kind: OutcomePending} }

// Succeeded builds a success outcome.
func Succeeded(images []ImageRef, credits *int) PollOutcome {
	return PollOutcome{Kind: OutcomeSucceeded, Images: images, Credits: credits}
}

// Failed builds a failure outcome, falling back to the default message.
func Failed(message string) PollOutcome {
	message = strings.TrimSpace(message)
	if message == "" {
		message = DefaultFailureMessage
	}
	return PollOutcome{Kind: OutcomeFailed, Message: message}
}

// TimedOut builds the outcome for an exhausted attempt budget.
func TimedOut() PollOutcome {
	return PollOutcome{Kind: OutcomeTimedOut, Message: TimedOutMessage}
}

const (
	// DefaultFailureMessage is shown when the server gives no usable reason.
	DefaultFailureMessage = "Generation failed"
	// TimedOutMessage is shown when polling gives up.
	TimedOutMessage = "Generation is taking longer than expected. Check your history later."
)

const (
	statusQueued  = "queued"
	statusPending = "pending"
	statusSuccess = "success"
	statusError   = "error"
)

// submitResponse mirrors POST /images/generate/.
type submitResponse struct {
	Status     string `json:"status"`
	TaskID     string `json:"task_id"`
	NewCredits *int   `json:"new_credits"`
	Error      string `json:"error"`
}

// statusResponse mirrors GET /images/status/{task_id}/.
type statusResponse struct {
	Status      string   `json:"status"`
	URLs        []string `json:"urls"`
	HighResURLs []string `json:"high_res_urls"`
	Message     string   `json:"message"`
	Error       string   `json:"error"`
	NewCredits  *int     `json:"new_credits"`
}

// outcome maps a decoded status body. resolve turns server-relative links
// into absolute ones.
func (r statusResponse) outcome(resolve func(string) string) PollOutcome {
	switch strings.ToLower(strings.TrimSpace(r.Status)) {
	case statusPending, statusQueued:
		return Pending()
	case statusSuccess:
		return Succeeded(imageRefs(r.URLs, r.HighResURLs, resolve), r.NewCredits)
	case statusError:
		msg := r.Message
		if strings.TrimSpace(msg) == "" {
			msg = r.Error
		}
		return Failed(msg)
	default:
		out := Failed("")
		out.Malformed = true
		return out
	}
}

// imageRefs zips urls with high_res_urls. When a download source is missing the
// preview source is used for both.
func imageRefs(urls, highRes []string, resolve func(string) string) []ImageRef {
	if resolve == nil {
		resolve = func(s string) string { return s }
	}
	refs := make([]ImageRef, 0, len(urls))
	for i, raw := range urls {
		preview := strings.TrimSpace(raw)
		if preview == "" {
			continue
		}
		download := preview
		if i < len(highRes) {
			if hr := strings.TrimSpace(highRes[i]); hr != "" {
				download = hr
			}
		}
		refs = append(refs, ImageRef{PreviewURL: resolve(preview), DownloadURL: resolve(download)})
	}
	return refs
}
