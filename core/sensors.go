package core

// IIRAlpha holds the per-channel smoothing constant for the first-order
// filter y = (x*(256-alpha) + y_prev*alpha) >> 8.
type IIRAlpha struct {
	MAP     uint8
	TPS     uint8
	Coolant uint8
	IAT     uint8
	O2      uint8
	Battery uint8
	OilP    uint8
	FuelP   uint8
}

// iirFilter applies one step of the first-order IIR smoothing filter.
func iirFilter(x, yPrev uint16, alpha uint8) uint16 {
	return uint16((uint32(x)*(256-uint32(alpha)) + uint32(yPrev)*uint32(alpha)) >> 8)
}

// SensorChannels maps logical sensor readings to ADC channels.
type SensorChannels struct {
	MAP, TPS, Coolant, IAT, O2, Battery, OilP, FuelP ADCChannelID
}

// filtered holds the raw IIR accumulator per channel, wider than the
// exported 8-bit status fields so smoothing doesn't quantize away.
type filtered struct {
	map16, tps16, clt16, iat16, o216, bat16, oil16, fuel16 uint16
}

// SensorSampler reads and filters the analog sensor set into a Status.
type SensorSampler struct {
	Channels SensorChannels
	Alpha    IIRAlpha
	f        filtered
	primed   bool
}

// Init seeds every channel's IIR accumulator from an initial raw sample so
// filtering does not ramp up from zero at boot.
func (ss *SensorSampler) Init(adc ADCDriver) {
	read := func(ch ADCChannelID) uint16 {
		v, _ := adc.ReadRaw(ch)
		return uint16(v)
	}
	ss.f.map16 = read(ss.Channels.MAP)
	ss.f.tps16 = read(ss.Channels.TPS)
	ss.f.clt16 = read(ss.Channels.Coolant)
	ss.f.iat16 = read(ss.Channels.IAT)
	ss.f.o216 = read(ss.Channels.O2)
	ss.f.bat16 = read(ss.Channels.Battery)
	ss.f.oil16 = read(ss.Channels.OilP)
	ss.f.fuel16 = read(ss.Channels.FuelP)
	ss.primed = true
}

// SampleFast updates MAP and TPS, the two channels the 1000 Hz tick reads.
func (ss *SensorSampler) SampleFast(adc ADCDriver, s *Status) {
	raw, _ := adc.ReadRaw(ss.Channels.MAP)
	ss.f.map16 = ss.smooth(ss.f.map16, uint16(raw), ss.Alpha.MAP)
	s.MAP = uint8(ss.f.map16 >> 2) // 10-bit raw -> kPa-ish 8-bit scale

	raw, _ = adc.ReadRaw(ss.Channels.TPS)
	newTPS := ss.smooth(ss.f.tps16, uint16(raw), ss.Alpha.TPS)
	ss.f.tps16 = newTPS

	s.TPSlast = s.TPS
	s.TPS = uint8(newTPS >> 2)
}

// SampleMedium updates the medium-rate channels (30 Hz): O2.
func (ss *SensorSampler) SampleMedium(adc ADCDriver, s *Status) {
	raw, _ := adc.ReadRaw(ss.Channels.O2)
	ss.f.o216 = ss.smooth(ss.f.o216, uint16(raw), ss.Alpha.O2)
	s.O2 = uint8(ss.f.o216 >> 2)
}

// SampleSlow updates the slow-rate channels (4 Hz): coolant, IAT, battery,
// oil and fuel pressure.
func (ss *SensorSampler) SampleSlow(adc ADCDriver, s *Status) {
	raw, _ := adc.ReadRaw(ss.Channels.Coolant)
	ss.f.clt16 = ss.smooth(ss.f.clt16, uint16(raw), ss.Alpha.Coolant)
	s.Coolant = int8(int32(ss.f.clt16>>2) - 40)

	raw, _ = adc.ReadRaw(ss.Channels.IAT)
	ss.f.iat16 = ss.smooth(ss.f.iat16, uint16(raw), ss.Alpha.IAT)
	s.IAT = int8(int32(ss.f.iat16>>2) - 40)

	raw, _ = adc.ReadRaw(ss.Channels.Battery)
	ss.f.bat16 = ss.smooth(ss.f.bat16, uint16(raw), ss.Alpha.Battery)
	s.Battery = uint8(ss.f.bat16 >> 2)

	raw, _ = adc.ReadRaw(ss.Channels.OilP)
	ss.f.oil16 = ss.smooth(ss.f.oil16, uint16(raw), ss.Alpha.OilP)
	s.OilP = uint8(ss.f.oil16 >> 2)

	raw, _ = adc.ReadRaw(ss.Channels.FuelP)
	ss.f.fuel16 = ss.smooth(ss.f.fuel16, uint16(raw), ss.Alpha.FuelP)
	s.FuelP = uint8(ss.f.fuel16 >> 2)
}

// smooth runs the shared IIR step, priming the accumulator with the first
// raw sample instead of ramping up from zero.
func (ss *SensorSampler) smooth(prev, raw uint16, alpha uint8) uint16 {
	if !ss.primed {
		return raw
	}
	return iirFilter(raw, prev, alpha)
}
