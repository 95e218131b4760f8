package sim

import (
	"sync"

	"goecu/core"
)

// ADC implements core.ADCDriver over an in-memory channel table that the
// Engine writes to every simulation step, standing in for a real
// analog-to-digital converter.
type ADC struct {
	mu       sync.RWMutex
	raw      map[core.ADCChannelID]core.ADCValue
	channels map[core.ADCChannelID]bool
}

// NewADC returns an ADC with every channel reading 0 until the Engine
// starts driving it.
func NewADC() *ADC {
	return &ADC{
		raw:      make(map[core.ADCChannelID]core.ADCValue),
		channels: make(map[core.ADCChannelID]bool),
	}
}

func (a *ADC) Init(cfg core.ADCConfig) error { return nil }

func (a *ADC) ConfigureChannel(ch core.ADCChannelID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.channels[ch] = true
	return nil
}

func (a *ADC) ReadRaw(ch core.ADCChannelID) (core.ADCValue, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.raw[ch], nil
}

// Set is called by the Engine to push a simulated reading onto a channel.
func (a *ADC) Set(ch core.ADCChannelID, v core.ADCValue) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.raw[ch] = v
}

var _ core.ADCDriver = (*ADC)(nil)
