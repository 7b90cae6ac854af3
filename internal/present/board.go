package present

import "sync"

// BoardSnapshot is a point-in-time copy of a Board.
type BoardSnapshot struct {
	Entries    []Entry
	Credits    int
	HasCredits bool
	Status     string
	Error      string
	Progress   bool
	Revision   uint64
}

// Board is an in-memory UiPorts. Writers call the port methods; readers take
// snapshots on their own schedule. Revision increases on every write.
type Board struct {
	mu   sync.RWMutex
	snap BoardSnapshot
}

var _ UiPorts = (*Board)(nil)

// SetGalleryEntries replaces the gallery.
func (b *Board) SetGalleryEntries(entries []Entry) {
	b.update(func(s *BoardSnapshot) {
		s.Entries = append([]Entry(nil), entries...)
	})
}

// SetCreditDisplay replaces the displayed balance.
func (b *Board) SetCreditDisplay(credits int) {
	b.update(func(s *BoardSnapshot) {
		s.Credits = credits
		s.HasCredits = true
	})
}

func (b *Board) SetStatusText(text string) {
	b.update(func(s *BoardSnapshot) { s.Status = text })
}

func (b *Board) SetErrorText(text string) {
	b.update(func(s *BoardSnapshot) { s.Error = text })
}

func (b *Board) SetProgress(active bool) {
	b.update(func(s *BoardSnapshot) { s.Progress = active })
}

// Snapshot returns a copy safe to read without holding the board lock.
func (b *Board) Snapshot() BoardSnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	snap := b.snap
	snap.Entries = append([]Entry(nil), b.snap.Entries...)
	return snap
}

func (b *Board) update(fn func(*BoardSnapshot)) {
	b.mu.Lock()
	fn(&b.snap)
	b.snap.Revision++
	b.mu.Unlock()
}
