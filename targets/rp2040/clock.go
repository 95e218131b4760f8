//go:build rp2040

package main

import (
	"runtime/volatile"
	"unsafe"

	"goecu/core"
)

// RP2040 Timer peripheral memory map. The timer runs off a fixed 1MHz
// tick regardless of system clock, so NowUS needs no scaling.
const (
	timerBase     = 0x40054000
	timerTIMERAWH = timerBase + 0x08 // raw timer high word
	timerTIMERAWL = timerBase + 0x0C // raw timer low word
)

var (
	timerRAWH = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWH)))
	timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))
)

// HWClock implements core.ClockDriver over the RP2040's free-running
// 64-bit/1MHz hardware timer.
type HWClock struct{}

// InitClock registers the hardware clock as the core's ClockDriver.
func InitClock() *HWClock {
	c := &HWClock{}
	core.SetClockDriver(c)
	return c
}

func (c *HWClock) NowUS() uint32 {
	return timerRAWL.Get()
}

func (c *HWClock) NowMS() uint32 {
	return c.NowUS() / 1000
}

// now64US reads the full 64-bit counter, for callers that need to detect
// rollover of the 32-bit view. Nothing in this target calls it.
func now64US() uint64 {
	for {
		hi1 := timerRAWH.Get()
		lo := timerRAWL.Get()
		hi2 := timerRAWH.Get()
		if hi1 == hi2 {
			return uint64(hi1)<<32 | uint64(lo)
		}
	}
}
