package core

import "testing"

func TestHWTicksConversionRoundTrip(t *testing.T) {
	for _, us := range []uint32{0, 100, 1000, 16000, 1_000_000} {
		ticks := HWTicksFromUS(us)
		back := HWTicksToUS(ticks)
		// Integer rounding loses at most one tick's worth of microseconds.
		diff := int64(back) - int64(us)
		if diff < -16 || diff > 16 {
			t.Errorf("round trip of %dus -> %d ticks -> %dus, drift too large", us, ticks, back)
		}
	}
}

func TestHWTicksFromUSOneSecond(t *testing.T) {
	got := HWTicksFromUS(1_000_000)
	if got != HWTimerFreq {
		t.Errorf("HWTicksFromUS(1s) = %d, want %d", got, HWTimerFreq)
	}
}

func TestGetSetHWTicks(t *testing.T) {
	SetHWTicks(12345)
	if got := GetHWTicks(); got != 12345 {
		t.Errorf("GetHWTicks() = %d, want 12345", got)
	}
}

func TestProcessIgnitionTimersFiresDueTimer(t *testing.T) {
	resetScheduler()
	SetHWTicks(0)

	fired := false
	tm := &Timer{WakeTime: 0, Handler: func(*Timer) uint8 {
		fired = true
		return SFDone
	}}
	ScheduleTimer(tm)

	ProcessIgnitionTimers()
	if !fired {
		t.Error("expected the due timer to fire via ProcessIgnitionTimers")
	}
}
