package present

import "github.com/rs/zerolog"

// LogPorts writes presenter output as log events. Clearing writes (empty text)
// are dropped.
type LogPorts struct {
	Logger zerolog.Logger
}

var _ UiPorts = LogPorts{}

func (l LogPorts) SetGalleryEntries(entries []Entry) {
	l.Logger.Debug().Int("gallery", len(entries)).Msg("gallery updated")
}

func (l LogPorts) SetCreditDisplay(credits int) {
	l.Logger.Info().Int("credits", credits).Msg("credit balance")
}

func (l LogPorts) SetStatusText(text string) {
	if text == "" {
		return
	}
	l.Logger.Info().Msg(text)
}

func (l LogPorts) SetErrorText(text string) {
	if text == "" {
		return
	}
	l.Logger.Error().Msg(text)
}

func (l LogPorts) SetProgress(active bool) {
	l.Logger.Debug().Bool("active", active).Msg("progress")
}
