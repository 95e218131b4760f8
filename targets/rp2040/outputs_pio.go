//go:build rp2040

package main

import (
	"fmt"

	"goecu/core"
)

// pioCoilChannels is how many ignition channels get a dedicated PIO state
// machine; a four-cylinder engine's remaining channel still falls back to
// the plain GPIO path.
const pioCoilChannels = 2

// PIOOutputDriver implements core.OutputDriver, delegating injectors to an
// RpOutputDriver and the first pioCoilChannels coil channels to a
// PIOIgnitionBackend apiece. It tracks each PIO channel's charge-start
// tick so it can hand the backend a dwell duration at CoilEndCharge,
// trading away the backend's jitter-free hardware timing in exchange for
// fitting the same two-call OutputDriver contract every other backend
// uses; a future redesign that lets IgnitionSchedule arm the backend
// directly at Schedule time would recover it.
type PIOOutputDriver struct {
	gpio *RpOutputDriver
	pio  [pioCoilChannels]*PIOIgnitionBackend

	chargeStartUS [pioCoilChannels]uint32
}

// NewPIOOutputDriver wires coilPins[0] and coilPins[1] to PIO0/SM0 and
// PIO0/SM1, and leaves injectors and any remaining coil channel to gpio.
func NewPIOOutputDriver(gpio *RpOutputDriver, coilPins [pioCoilChannels]uint8) (*PIOOutputDriver, error) {
	d := &PIOOutputDriver{gpio: gpio}
	for i := 0; i < pioCoilChannels; i++ {
		backend := NewPIOIgnitionBackend(0, uint8(i))
		if err := backend.Init(coilPins[i]); err != nil {
			return nil, fmt.Errorf("outputs_pio: channel %d: %w", i, err)
		}
		d.pio[i] = backend
	}
	return d, nil
}

func (d *PIOOutputDriver) InjectorOpen(channel uint8)  { d.gpio.InjectorOpen(channel) }
func (d *PIOOutputDriver) InjectorClose(channel uint8) { d.gpio.InjectorClose(channel) }

func (d *PIOOutputDriver) CoilBeginCharge(channel uint8) {
	if int(channel) < pioCoilChannels {
		d.chargeStartUS[channel] = core.MustClock().NowUS()
		return
	}
	d.gpio.CoilBeginCharge(channel)
}

func (d *PIOOutputDriver) CoilEndCharge(channel uint8) {
	if int(channel) < pioCoilChannels {
		dwell := core.MustClock().NowUS() - d.chargeStartUS[channel]
		d.pio[channel].Fire(dwell)
		return
	}
	d.gpio.CoilEndCharge(channel)
}

var _ core.OutputDriver = (*PIOOutputDriver)(nil)
