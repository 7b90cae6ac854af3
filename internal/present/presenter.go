package present

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/five82/shooter/internal/shooter"
)

const (
	// SubmittingText is shown while the submit request is in flight.
	SubmittingText = "Please wait..."
	// SucceededText is shown after a successful job is rendered.
	SucceededText = "Images generated successfully"
)

// Presenter projects job events onto UiPorts. It owns the accumulating gallery
// and nothing else; it never schedules work.
type Presenter struct {
	mu      sync.Mutex
	ports   UiPorts
	gallery []Entry
	now     func() time.Time
	newID   func() string
}

// NewPresenter returns a Presenter writing to ports. The gallery starts empty.
func NewPresenter(ports UiPorts) *Presenter {
	return &Presenter{
		ports: ports,
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

// Gallery returns a copy of the entries rendered so far, newest first.
func (p *Presenter) Gallery() []Entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Entry(nil), p.gallery...)
}

// Submitting shows the wait text and the progress skeleton.
func (p *Presenter) Submitting() {
	p.ports.SetErrorText("")
	p.ports.SetStatusText(SubmittingText)
	p.ports.SetProgress(true)
}

// Queued records an accepted submission. A server-reported balance replaces the
// displayed one immediately.
func (p *Presenter) Queued(credits *int) {
	if credits != nil {
		p.ports.SetCreditDisplay(*credits)
	}
}

// Polling updates the status line with the attempt count.
func (p *Presenter) Polling(attempt, max int) {
	p.ports.SetStatusText(fmt.Sprintf("Generating... (check %d/%d)", attempt, max))
}

// Succeeded prepends the outcome's images to the gallery. Each image is prepended
// in turn, so the last image of a batch ends up first. An outcome without images
// leaves the gallery untouched.
func (p *Presenter) Succeeded(taskID string, outcome shooter.PollOutcome) {
	p.mu.Lock()
	if len(outcome.Images) > 0 {
		added := p.now()
		fresh := make([]Entry, 0, len(outcome.Images))
		for _, img := range outcome.Images {
			fresh = append(fresh, Entry{
				ID:          p.newID(),
				TaskID:      taskID,
				PreviewURL:  img.PreviewURL,
				DownloadURL: img.DownloadURL,
				AddedAt:     added,
			})
		}
		p.gallery = Prepend(p.gallery, fresh)
		p.ports.SetGalleryEntries(append([]Entry(nil), p.gallery...))
	}
	p.mu.Unlock()

	if outcome.Credits != nil {
		p.ports.SetCreditDisplay(*outcome.Credits)
	}
	p.ports.SetErrorText("")
	p.ports.SetStatusText(SucceededText)
	p.ports.SetProgress(false)
}

// Errored shows message and clears transient indicators. The gallery is kept.
func (p *Presenter) Errored(message string) {
	p.ports.SetStatusText("")
	p.ports.SetErrorText(message)
	p.ports.SetProgress(false)
}

// Reset clears status, error and progress without touching gallery or credits.
func (p *Presenter) Reset() {
	p.ports.SetStatusText("")
	p.ports.SetErrorText("")
	p.ports.SetProgress(false)
}

// Prepend returns a new slice with fresh placed ahead of existing, each element of
// fresh inserted at the front in order. existing is not modified.
func Prepend(existing, fresh []Entry) []Entry {
	out := make([]Entry, 0, len(existing)+len(fresh))
	for i := len(fresh) - 1; i >= 0; i-- {
		out = append(out, fresh[i])
	}
	return append(out, existing...)
}
