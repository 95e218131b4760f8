//go:build rp2040

package main

import (
	"fmt"

	"machine"

	"tinygo.org/x/drivers/eeprom"

	"goecu/core"
)

// EepromNVDriver implements core.NonVolatileDriver over an I2C EEPROM
// (24LC256-class part), backing the persistent calibration store on real
// hardware. The bus is configured through the generic core.I2CDriver, whose
// underlying machine.I2C then backs the tinygo eeprom driver that performs
// the reads and writes.
type EepromNVDriver struct {
	dev  eeprom.Device
	last map[uint32]uint8
}

// NewEepromNVDriver configures a 24LC256 EEPROM on the given I2C bus/address.
func NewEepromNVDriver(i2c core.I2CDriver, bus core.I2CBusID, addr core.I2CAddress) (*EepromNVDriver, error) {
	if err := i2c.ConfigureBus(bus, 400_000); err != nil {
		return nil, fmt.Errorf("nvstore: configure I2C bus: %w", err)
	}
	raw, err := i2c.GetMachineBus(bus)
	if err != nil {
		return nil, fmt.Errorf("nvstore: get machine I2C bus: %w", err)
	}
	mi2c, ok := raw.(*machine.I2C)
	if !ok {
		return nil, fmt.Errorf("nvstore: unexpected bus type %T", raw)
	}

	dev := eeprom.New(mi2c, uint16(addr))
	dev.Configure(eeprom.Config{
		Identifier: eeprom.Id24LC256,
		AddressSize: 2,
		PageSize:    64,
		MaxSize:     32 * 1024,
	})

	return &EepromNVDriver{dev: dev, last: make(map[uint32]uint8)}, nil
}

func (d *EepromNVDriver) ReadByte(addr uint32) uint8 {
	var buf [1]byte
	if _, err := d.dev.ReadAt(buf[:], int64(addr)); err != nil {
		return 0
	}
	return buf[0]
}

func (d *EepromNVDriver) WriteByte(addr uint32, value uint8) {
	if last, ok := d.last[addr]; ok && last == value {
		return
	}
	if _, err := d.dev.WriteAt([]byte{value}, int64(addr)); err != nil {
		return
	}
	d.last[addr] = value
}
