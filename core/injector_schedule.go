package core

// Injection angle: 270 degrees BTDC ensures the pulse completes before TDC
// at expected pulse widths.
const injectionAngleDeg = 270

// ScheduleStatus is the OFF/PENDING/RUNNING state shared by both the
// polled-injector and hardware-timed ignition schedule variants.
type ScheduleStatus uint8

const (
	ScheduleOff ScheduleStatus = iota
	SchedulePending
	ScheduleRunning
)

// InjectorSchedule is one polled-injector channel. The main loop is the
// only writer of its output pin.
type InjectorSchedule struct {
	Channel uint8
	Status  ScheduleStatus

	OpenTime  uint32 // absolute microseconds
	CloseTime uint32
}

// Schedule computes openTime/closeTime for a fresh revolution and arms the
// channel. If the channel is currently RUNNING (injector open), the prior
// event is cancelled by closing the output immediately before rescheduling,
// so overlapping opens can never occur.
func (sc *InjectorSchedule) Schedule(nowUS, revolutionTime uint32, pw uint16, out OutputDriver) {
	if sc.Status == ScheduleRunning {
		out.InjectorClose(sc.Channel)
	}

	timeToInjection := AngleToTime(injectionAngleDeg, revolutionTime)
	sc.OpenTime = nowUS + timeToInjection
	sc.CloseTime = sc.OpenTime + uint32(pw)
	sc.Status = SchedulePending
}

// Poll is called every main-loop iteration. Precision is relaxed to
// roughly +/-100us, adequate because injector dynamics are slower than the
// polling jitter.
func (sc *InjectorSchedule) Poll(nowUS uint32, out OutputDriver) {
	switch sc.Status {
	case SchedulePending:
		if int32(nowUS-sc.OpenTime) >= 0 {
			out.InjectorOpen(sc.Channel)
			sc.Status = ScheduleRunning
		}
	case ScheduleRunning:
		if int32(nowUS-sc.CloseTime) >= 0 {
			out.InjectorClose(sc.Channel)
			sc.Status = ScheduleOff
		}
	}
}

// Cancel forces the channel OFF and drives the output to the inactive
// level immediately. Used by the protection supervisor.
func (sc *InjectorSchedule) Cancel(out OutputDriver) {
	if sc.Status != ScheduleOff {
		RecordDiag(EvtScheduleDrop, sc.Channel, GetHWTicks(), uint32(sc.Status))
		out.InjectorClose(sc.Channel)
	}
	sc.Status = ScheduleOff
}
