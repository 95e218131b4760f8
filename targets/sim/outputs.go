package sim

import (
	"sync"

	"goecu/core"
)

// Outputs implements core.OutputDriver by recording per-channel injector
// and coil state rather than driving pins, so a dashboard can show what
// the firmware would be doing to real hardware.
type Outputs struct {
	mu        sync.RWMutex
	injector  [core.MaxChannels]bool
	charging  [core.MaxChannels]bool
	injPulses [core.MaxChannels]uint32
	sparks    [core.MaxChannels]uint32
}

// NewOutputs returns an idle Outputs with every channel closed.
func NewOutputs() *Outputs {
	return &Outputs{}
}

func (o *Outputs) InjectorOpen(channel uint8) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.injector[channel] = true
	o.injPulses[channel]++
}

func (o *Outputs) InjectorClose(channel uint8) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.injector[channel] = false
}

func (o *Outputs) CoilBeginCharge(channel uint8) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.charging[channel] = true
}

func (o *Outputs) CoilEndCharge(channel uint8) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.charging[channel] = false
	o.sparks[channel]++
}

// Snapshot returns a copy of the current channel state, for the dashboard
// feed.
func (o *Outputs) Snapshot() (injector, charging [core.MaxChannels]bool, injPulses, sparks [core.MaxChannels]uint32) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.injector, o.charging, o.injPulses, o.sparks
}

var _ core.OutputDriver = (*Outputs)(nil)
