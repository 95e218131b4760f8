package core

// ADCChannelID identifies a logical analog sensor channel (MAP, TPS,
// coolant, IAT, O2, battery, oil pressure, ...).
type ADCChannelID uint8

// ADCValue is the raw ADC reading as seen by the rest of the firmware:
// a 10-bit conversion per §6 (adc_read(channel) -> u10), widened to 16
// bits for headroom.
type ADCValue uint16

// ADCConfig is the high-level configuration the core cares about; targets
// translate it into their own peripheral setup.
type ADCConfig struct {
	SampleRateHz uint32
	Resolution   uint8 // bits
}

// ADCDriver is the abstract ADC interface that core code uses.
type ADCDriver interface {
	// Init powers up and configures the ADC peripheral.
	Init(cfg ADCConfig) error

	// ConfigureChannel prepares a channel for analog input.
	ConfigureChannel(ch ADCChannelID) error

	// ReadRaw performs a one-shot sample from the given channel.
	ReadRaw(ch ADCChannelID) (ADCValue, error)
}

// Global singleton used by core code.
var adcDriver ADCDriver

// SetADCDriver is called by target-specific code to register its driver.
func SetADCDriver(d ADCDriver) {
	adcDriver = d
}

// MustADC returns the configured driver or panics if missing.
func MustADC() ADCDriver {
	if adcDriver == nil {
		panic("ADC driver not configured")
	}
	return adcDriver
}
