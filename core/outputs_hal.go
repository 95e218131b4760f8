package core

// OutputDriver is the digital-output contract of §6's hardware
// collaborators: injector_open/close, coil_begin/end_charge. All methods
// are idempotent level writes and must be safe to call from interrupt
// context (ignition side) as well as the main loop (injector side).
type OutputDriver interface {
	InjectorOpen(channel uint8)
	InjectorClose(channel uint8)
	CoilBeginCharge(channel uint8)
	CoilEndCharge(channel uint8)
}

var outputDriver OutputDriver

// SetOutputDriver is called by target-specific code to register its driver.
func SetOutputDriver(d OutputDriver) {
	outputDriver = d
}

// MustOutputs returns the configured driver or panics if missing.
func MustOutputs() OutputDriver {
	if outputDriver == nil {
		panic("output driver not configured")
	}
	return outputDriver
}
