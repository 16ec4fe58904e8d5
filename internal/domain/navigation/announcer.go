package navigation

import (
	"context"

	"go.uber.org/zap"
)

// Speaker is the external speech capability. Implementations may hand the
// text to a voice engine, publish it for a UI to voice, or silently no-op.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Announcer dispatches instruction announcements through a Speaker. Voice is
// best-effort: a failing Speaker is logged and swallowed, never blocking a
// state transition.
type Announcer struct {
	speaker Speaker
	logger  *zap.Logger
}

// NewAnnouncer creates an Announcer.
func NewAnnouncer(speaker Speaker, logger *zap.Logger) *Announcer {
	return &Announcer{speaker: speaker, logger: logger}
}

// Announce speaks the instruction, swallowing any capability failure.
func (a *Announcer) Announce(ctx context.Context, text string) {
	if a.speaker == nil || text == "" {
		return
	}
	if err := a.speaker.Speak(ctx, text); err != nil {
		a.logger.Debug("speech capability failed, announcement dropped",
			zap.String("text", text),
			zap.Error(err),
		)
	}
}
