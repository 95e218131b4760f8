//go:build rp2040

package main

import (
	"errors"
	"sync"

	"machine"

	"goecu/core"
)

// RpAdcDriver implements core.ADCDriver over TinyGo's machine.ADC, for the
// eight analog sensor channels (MAP, TPS, coolant, IAT, O2, battery, oil
// pressure, fuel pressure) wired to the RP2040's four external ADC pins
// plus whatever the board exposes beyond that.
type RpAdcDriver struct {
	mu       sync.Mutex
	pins     map[core.ADCChannelID]machine.Pin
	channels map[core.ADCChannelID]*machine.ADC
}

// NewRPAdcDriver builds the driver. pins maps each logical sensor channel
// to the board pin it is wired to.
func NewRPAdcDriver(pins map[core.ADCChannelID]machine.Pin) *RpAdcDriver {
	return &RpAdcDriver{
		pins:     pins,
		channels: make(map[core.ADCChannelID]*machine.ADC),
	}
}

func (d *RpAdcDriver) Init(cfg core.ADCConfig) error {
	machine.InitADC()
	return nil
}

// ConfigureChannel prepares the pin backing a logical channel for analog input.
func (d *RpAdcDriver) ConfigureChannel(ch core.ADCChannelID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.channels[ch]; ok {
		return nil
	}

	pin, ok := d.pins[ch]
	if !ok {
		return errors.New("adc: no pin mapped for channel")
	}

	adc := machine.ADC{Pin: pin}
	if err := adc.Configure(machine.ADCConfig{}); err != nil {
		return err
	}
	d.channels[ch] = &adc
	return nil
}

// ReadRaw samples a channel, configuring it on first use.
func (d *RpAdcDriver) ReadRaw(ch core.ADCChannelID) (core.ADCValue, error) {
	d.mu.Lock()
	adc, ok := d.channels[ch]
	d.mu.Unlock()
	if !ok {
		if err := d.ConfigureChannel(ch); err != nil {
			return 0, err
		}
		d.mu.Lock()
		adc = d.channels[ch]
		d.mu.Unlock()
	}

	// TinyGo's ADC.Get returns a 16-bit left-justified sample; shift down
	// to the 10-bit resolution the sensor sampler's fixed-point math is
	// tuned for.
	return core.ADCValue(adc.Get() >> 6), nil
}
