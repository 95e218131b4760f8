package core

// ignitionMinStartDelayUS is the minimum time-to-dwell accepted for a
// schedule; anything less is treated as stale and rejected.
const ignitionMinStartDelayUS = 25

// maxDwellAngleDeg is the cap applied to dwellAngle before it is allowed to
// overlap the target spark angle.
const maxDwellAngleDeg = 180

// IgnitionSchedule is one hardware-timed coil channel. The compare-match
// ISR is the only writer of its output pin.
type IgnitionSchedule struct {
	Channel uint8
	Status  ScheduleStatus

	StartCompare uint16 // hardware ticks, dwell start
	EndCompare   uint16 // hardware ticks, spark
	Duration     uint16

	timer Timer
	out   OutputDriver

	// OnFire, if set, is called when the spark actually fires (RUNNING->OFF).
	// Used to bump Status.IgnitionCnt.
	OnFire func()
}

// Schedule computes dwellStartAngle/timeToDwell for advance/dwell against
// the given revolution time and arms a hardware compare event. A
// computed start delay below 25us is rejected outright (stale event).
// Returns false when the schedule was rejected.
func (ig *IgnitionSchedule) Schedule(nowTick uint32, revolutionTime uint32, advanceDeg int8, dwellUS uint16, out OutputDriver) bool {
	ig.out = out

	sparkAngle := int32(360) - int32(advanceDeg)
	dwellAngle := int32(dwellUS) * 360 / int32(revolutionTime)
	if dwellAngle > maxDwellAngleDeg {
		dwellAngle = maxDwellAngleDeg
	}
	if dwellAngle > sparkAngle {
		dwellAngle = sparkAngle
	}
	dwellStartAngle := sparkAngle - dwellAngle

	timeToDwellUS := AngleToTime(uint32(dwellStartAngle), revolutionTime)
	if timeToDwellUS < ignitionMinStartDelayUS {
		RecordDiag(EvtScheduleLate, ig.Channel, nowTick, timeToDwellUS)
		return false
	}

	nowUS := HWTicksToUS(nowTick)
	startUS := nowUS + timeToDwellUS
	sparkUS := nowUS + AngleToTime(uint32(sparkAngle), revolutionTime)

	ig.StartCompare = uint16(HWTicksFromUS(startUS))
	ig.EndCompare = uint16(HWTicksFromUS(sparkUS))
	ig.Duration = ig.EndCompare - ig.StartCompare
	ig.Status = SchedulePending

	CancelTimer(&ig.timer)
	ig.timer = Timer{WakeTime: ig.StartCompare, Handler: ig.onCompare}
	ScheduleTimer(&ig.timer)
	return true
}

// onCompare is the compare-match handler. PENDING->RUNNING begins coil
// charge and reprograms the compare register to the spark time; RUNNING->OFF
// ends the charge (fires the spark) and retires the timer.
func (ig *IgnitionSchedule) onCompare(t *Timer) uint8 {
	switch ig.Status {
	case SchedulePending:
		ig.out.CoilBeginCharge(ig.Channel)
		ig.Status = ScheduleRunning
		t.WakeTime = ig.EndCompare
		return SFReschedule
	case ScheduleRunning:
		ig.out.CoilEndCharge(ig.Channel)
		ig.Status = ScheduleOff
		if ig.OnFire != nil {
			ig.OnFire()
		}
		return SFDone
	default:
		return SFDone
	}
}

// Cancel forces the channel OFF, ending charge if a coil is currently
// energized, and removes any pending compare event. Used by the protection
// supervisor and by loss-of-sync handling before a channel is rescheduled.
func (ig *IgnitionSchedule) Cancel(out OutputDriver) {
	if ig.Status != ScheduleOff {
		RecordDiag(EvtScheduleDrop, ig.Channel, GetHWTicks(), uint32(ig.Status))
	}
	CancelTimer(&ig.timer)
	if ig.Status == ScheduleRunning {
		out.CoilEndCharge(ig.Channel)
	}
	ig.Status = ScheduleOff
}
