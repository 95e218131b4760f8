package core

import "testing"

func TestIIRFilterBlendsTowardNewSample(t *testing.T) {
	// alpha=128 is an even 50/50 blend.
	got := iirFilter(400, 200, 128)
	want := uint16((400*128 + 200*128) >> 8)
	if got != want {
		t.Errorf("iirFilter = %d, want %d", got, want)
	}
}

func TestIIRFilterAlphaZeroTakesNewSample(t *testing.T) {
	got := iirFilter(500, 100, 0)
	if got != 500 {
		t.Errorf("iirFilter with alpha=0 = %d, want 500 (no smoothing)", got)
	}
}

func TestSensorSamplerInitPrimesAccumulators(t *testing.T) {
	adc := newFakeADC()
	chans := SensorChannels{MAP: 0, TPS: 1, Coolant: 2, IAT: 3, O2: 4, Battery: 5, OilP: 6, FuelP: 7}
	adc.values[chans.MAP] = 512

	ss := &SensorSampler{Channels: chans}
	ss.Init(adc)

	if !ss.primed {
		t.Fatal("expected primed=true after Init")
	}
	if ss.f.map16 != 512 {
		t.Errorf("map16 after Init = %d, want 512", ss.f.map16)
	}
}

func TestSensorSamplerUnprimedReturnsRawSample(t *testing.T) {
	adc := newFakeADC()
	chans := SensorChannels{MAP: 0, TPS: 1}
	adc.values[chans.MAP] = 400

	ss := &SensorSampler{Channels: chans, Alpha: IIRAlpha{MAP: 200}}
	s := &Status{}
	ss.SampleFast(adc, s)

	if ss.f.map16 != 400 {
		t.Errorf("unprimed SampleFast should pass the raw sample through, got %d", ss.f.map16)
	}
}

func TestSensorSamplerFastSmoothsAfterPriming(t *testing.T) {
	adc := newFakeADC()
	chans := SensorChannels{MAP: 0, TPS: 1, Coolant: 2, IAT: 3, O2: 4, Battery: 5, OilP: 6, FuelP: 7}
	for _, ch := range []ADCChannelID{0, 1, 2, 3, 4, 5, 6, 7} {
		adc.values[ch] = 400
	}
	ss := &SensorSampler{Channels: chans, Alpha: IIRAlpha{MAP: 128}}
	ss.Init(adc)

	adc.values[chans.MAP] = 800
	s := &Status{}
	ss.SampleFast(adc, s)

	// Should be partway between 400 and 800, not jump straight to 800.
	if ss.f.map16 <= 400 || ss.f.map16 >= 800 {
		t.Errorf("map16 after one smoothed sample = %d, want strictly between 400 and 800", ss.f.map16)
	}
}

func TestSensorSamplerSlowDecodesCoolantAndIATOffset(t *testing.T) {
	adc := newFakeADC()
	chans := SensorChannels{Coolant: 2, IAT: 3, Battery: 5, OilP: 6, FuelP: 7}
	// Raw 480 >> 2 = 120, minus the 40 offset = 80C.
	adc.values[chans.Coolant] = 480
	adc.values[chans.IAT] = 480

	ss := &SensorSampler{Channels: chans, primed: true}
	s := &Status{}
	ss.SampleSlow(adc, s)

	if s.Coolant != 80 {
		t.Errorf("Coolant = %d, want 80", s.Coolant)
	}
	if s.IAT != 80 {
		t.Errorf("IAT = %d, want 80", s.IAT)
	}
}
