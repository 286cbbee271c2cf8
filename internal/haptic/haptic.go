// Package haptic defines the feedback pulse fired by state transitions.
package haptic

import (
	"log/slog"
)

// Intensity is the strength of a feedback pulse.
type Intensity string

// Pulse intensities
const (
	Light  Intensity = "light"
	Medium Intensity = "medium"
	Heavy  Intensity = "heavy"
)

// Notifier fires a feedback pulse. Implementations must return promptly and
// must not panic; a pulse that cannot be delivered is dropped.
type Notifier interface {
	Pulse(intensity Intensity)
}

// LogNotifier records pulses in the log. It stands in for a device vibration
// motor on hosts that have none.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With("component", "haptic")}
}

// Pulse implements Notifier.
func (n *LogNotifier) Pulse(intensity Intensity) {
	n.logger.Debug("haptic pulse", "intensity", intensity)
}

// Nop discards every pulse.
type Nop struct{}

// Pulse implements Notifier.
func (Nop) Pulse(Intensity) {}
