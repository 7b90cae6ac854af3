package present

import "time"

// Entry is one rendered result in the gallery.
type Entry struct {
	ID          string    `json:"id" yaml:"id"`
	TaskID      string    `json:"task_id" yaml:"task_id"`
	PreviewURL  string    `json:"preview_url" yaml:"preview_url"`
	DownloadURL string    `json:"download_url" yaml:"download_url"`
	AddedAt     time.Time `json:"added_at" yaml:"added_at"`
}

// UiPorts is the rendering target the Presenter writes through.
type UiPorts interface {
	SetGalleryEntries(entries []Entry)
	SetCreditDisplay(credits int)
	SetStatusText(text string)
	SetErrorText(text string)
	SetProgress(active bool)
}
