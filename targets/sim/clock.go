// Package sim implements a host-side virtual engine: a ClockDriver, an
// ADCDriver whose channels track a simulated crank/sensor model, an
// OutputDriver that records injector/coil state instead of toggling pins,
// and a file-backed NonVolatileDriver, so core.ECU can run unmodified
// against a software-only target for development and the tuner demo.
package sim

import (
	"time"

	"goecu/core"
)

// Clock implements core.ClockDriver over the host's monotonic clock,
// anchored at construction so NowUS starts near zero like a real MCU's
// free-running timer.
type Clock struct {
	start time.Time
}

// NewClock returns a Clock anchored at the current time.
func NewClock() *Clock {
	return &Clock{start: time.Now()}
}

func (c *Clock) NowUS() uint32 {
	return uint32(time.Since(c.start).Microseconds())
}

func (c *Clock) NowMS() uint32 {
	return uint32(time.Since(c.start).Milliseconds())
}

var _ core.ClockDriver = (*Clock)(nil)
