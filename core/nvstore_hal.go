package core

// NonVolatileDriver is the eeprom_read/write contract of §6: synchronous,
// byte-granular, compare-before-write. Implementations must suppress a
// write when the stored byte already equals the new value.
type NonVolatileDriver interface {
	ReadByte(addr uint32) uint8
	WriteByte(addr uint32, value uint8)
}

var nvDriver NonVolatileDriver

// SetNonVolatileDriver is called by target-specific code to register its
// backing store.
func SetNonVolatileDriver(d NonVolatileDriver) {
	nvDriver = d
}

// MustNonVolatile returns the configured driver or panics if missing.
func MustNonVolatile() NonVolatileDriver {
	if nvDriver == nil {
		panic("non-volatile driver not configured")
	}
	return nvDriver
}

// TryNonVolatile returns the configured driver without panicking, for
// callers (such as the calibration store) that treat "no backing store"
// as a valid, persistence-free configuration.
func TryNonVolatile() (NonVolatileDriver, bool) {
	return nvDriver, nvDriver != nil
}
