package sim

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/guardbreak/internal/game/contact"
)

// LogFeedback reports blocks and hits to the log in place of audio and
// particle effects.
type LogFeedback struct {
	logger *zap.Logger
}

// NewLogFeedback creates a LogFeedback.
func NewLogFeedback(logger *zap.Logger) *LogFeedback {
	return &LogFeedback{logger: logger}
}

func eventFields(ev contact.Event) []zap.Field {
	return []zap.Field{
		zap.String("attacker", ev.AttackerName),
		zap.String("defender", ev.DefenderName),
		zap.Stringer("swing", ev.Swing),
		zap.Stringer("guard", ev.Guard),
		zap.String("path", string(ev.Path)),
		zap.Float64("time", ev.Time),
	}
}

// Blocked implements contact.Feedback.
func (f *LogFeedback) Blocked(ev contact.Event) {
	if !ev.Clang {
		return
	}
	f.logger.Info("clang", eventFields(ev)...)
}

// Hit implements contact.Feedback.
func (f *LogFeedback) Hit(ev contact.Event) {
	f.logger.Info("hit", append(eventFields(ev), zap.Int("damage", ev.Damage))...)
}
