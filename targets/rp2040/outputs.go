//go:build rp2040

package main

import (
	"fmt"

	"machine"

	"goecu/core"
)

// RpGPIODriver implements core.GPIODriver directly over machine.Pin.
type RpGPIODriver struct{}

func (d *RpGPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	machine.Pin(pin).Configure(machine.PinConfig{Mode: machine.PinOutput})
	return nil
}

func (d *RpGPIODriver) ConfigureInputPullUp(pin core.GPIOPin) error {
	machine.Pin(pin).Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	return nil
}

func (d *RpGPIODriver) ConfigureInputPullDown(pin core.GPIOPin) error {
	machine.Pin(pin).Configure(machine.PinConfig{Mode: machine.PinInputPulldown})
	return nil
}

func (d *RpGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	machine.Pin(pin).Set(value)
	return nil
}

func (d *RpGPIODriver) GetPin(pin core.GPIOPin) (bool, error) {
	return machine.Pin(pin).Get(), nil
}

func (d *RpGPIODriver) ReadPin(pin core.GPIOPin) bool {
	return machine.Pin(pin).Get()
}

// RpOutputDriver implements core.OutputDriver by mapping each injector and
// coil channel number to a GPIO pin, driven through the generic GPIODriver
// rather than machine.Pin directly, so the same output mapping logic works
// unchanged against any future GPIODriver (e.g. a port expander).
type RpOutputDriver struct {
	gpio     core.GPIODriver
	injector []core.GPIOPin
	coil     []core.GPIOPin
}

// NewRpOutputDriver wires injector and coil channels to GPIO pins and
// configures every pin as an output.
func NewRpOutputDriver(gpio core.GPIODriver, injectorPins, coilPins []core.GPIOPin) (*RpOutputDriver, error) {
	d := &RpOutputDriver{gpio: gpio, injector: injectorPins, coil: coilPins}
	for _, p := range injectorPins {
		if err := gpio.ConfigureOutput(p); err != nil {
			return nil, err
		}
	}
	for _, p := range coilPins {
		if err := gpio.ConfigureOutput(p); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *RpOutputDriver) InjectorOpen(channel uint8) {
	d.setInjector(channel, true)
}

func (d *RpOutputDriver) InjectorClose(channel uint8) {
	d.setInjector(channel, false)
}

// CoilBeginCharge drives the coil driver high to start dwell.
func (d *RpOutputDriver) CoilBeginCharge(channel uint8) {
	d.setCoil(channel, true)
}

// CoilEndCharge drives the coil driver low, firing the spark.
func (d *RpOutputDriver) CoilEndCharge(channel uint8) {
	d.setCoil(channel, false)
}

func (d *RpOutputDriver) setInjector(channel uint8, on bool) {
	if int(channel) >= len(d.injector) {
		panic(fmt.Sprintf("outputs: injector channel %d out of range", channel))
	}
	d.gpio.SetPin(d.injector[channel], on)
}

func (d *RpOutputDriver) setCoil(channel uint8, on bool) {
	if int(channel) >= len(d.coil) {
		panic(fmt.Sprintf("outputs: coil channel %d out of range", channel))
	}
	d.gpio.SetPin(d.coil[channel], on)
}
