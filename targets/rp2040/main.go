//go:build rp2040

// Command targets/rp2040 is the firmware entrypoint: it wires every
// hardware collaborator (clock, ADC, GPIO outputs, I2C EEPROM, optional PIO
// ignition) into a core.ECU and runs the periodic main loop. Built with
// `tinygo build -target=pico ./targets/rp2040`.
package main

import (
	"machine"
	"time"

	"goecu/config"
	"goecu/core"
)

// Board pin assignment. A board-specific build would override these via a
// build-tag-selected variant of this file; a single Pico Pi wiring is
// enough to demonstrate the target.
var (
	sensorPins = map[core.ADCChannelID]machine.Pin{
		sensorChanMAP:     machine.ADC0,
		sensorChanTPS:     machine.ADC1,
		sensorChanCoolant: machine.ADC2,
		sensorChanIAT:     machine.ADC3,
	}

	injectorPins = []core.GPIOPin{
		core.GPIOPin(machine.GP6),
		core.GPIOPin(machine.GP7),
		core.GPIOPin(machine.GP8),
	}
	coilPins = []core.GPIOPin{
		core.GPIOPin(machine.GP10),
		core.GPIOPin(machine.GP11),
		core.GPIOPin(machine.GP12),
	}

	eepromBus  core.I2CBusID  = 0
	eepromAddr core.I2CAddress = 0x50
)

const (
	sensorChanMAP core.ADCChannelID = iota
	sensorChanTPS
	sensorChanCoolant
	sensorChanIAT
)

func main() {
	clock := InitClock()
	_ = clock

	adc := NewRPAdcDriver(sensorPins)
	if err := adc.Init(core.ADCConfig{SampleRateHz: 1000, Resolution: 10}); err != nil {
		panic(err)
	}
	core.SetADCDriver(adc)
	for ch := range sensorPins {
		if err := adc.ConfigureChannel(ch); err != nil {
			panic(err)
		}
	}

	i2c := NewRPI2CDriver()
	nv, err := NewEepromNVDriver(i2c, eepromBus, eepromAddr)
	if err != nil {
		panic(err)
	}
	core.SetNonVolatileDriver(nv)

	gpio := &RpGPIODriver{}
	core.SetGPIODriver(gpio)
	gpioOutputs, err := NewRpOutputDriver(gpio, injectorPins, coilPins)
	if err != nil {
		panic(err)
	}

	cfg := config.DefaultConfig()

	var outputDriver core.OutputDriver = gpioOutputs
	if cfg.Firmware.IgnitionBackend == "pio" {
		pioOutputs, err := NewPIOOutputDriver(gpioOutputs, [pioCoilChannels]uint8{
			uint8(coilPins[0]), uint8(coilPins[1]),
		})
		if err != nil {
			panic(err)
		}
		outputDriver = pioOutputs
	}
	core.SetOutputDriver(outputDriver)

	ecu, err := cfg.NewECU()
	if err != nil {
		panic(err)
	}
	ecu.Sensors = &core.SensorSampler{
		Channels: core.SensorChannels{
			MAP: sensorChanMAP, TPS: sensorChanTPS, Coolant: sensorChanCoolant, IAT: sensorChanIAT,
		},
		Alpha: core.IIRAlpha{MAP: 32, TPS: 16, Coolant: 200, IAT: 200},
	}
	ecu.Start(clock.NowMS())

	for {
		ecu.MainLoopTick(clock.NowUS(), clock.NowMS())
		time.Sleep(time.Millisecond)
	}
}
