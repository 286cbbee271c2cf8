package mocks

import (
	"sync"

	"github.com/phrazzld/medinodus/internal/haptic"
)

// MockNotifier implements haptic.Notifier and records every pulse.
type MockNotifier struct {
	mu     sync.Mutex
	pulses []haptic.Intensity
}

var _ haptic.Notifier = (*MockNotifier)(nil)

// Pulse implements the haptic.Notifier interface
func (m *MockNotifier) Pulse(intensity haptic.Intensity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pulses = append(m.pulses, intensity)
}

// Pulses returns the recorded pulses in order.
func (m *MockNotifier) Pulses() []haptic.Intensity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]haptic.Intensity(nil), m.pulses...)
}
