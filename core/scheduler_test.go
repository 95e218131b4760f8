package core

import "testing"

// resetScheduler clears package-level scheduler state between tests, since
// timerList and currentTick are shared globals.
func resetScheduler() {
	timerList = nil
	currentTick = 0
}

func TestScheduleTimerOrdersByWakeTime(t *testing.T) {
	resetScheduler()
	var fired []uint16
	mk := func(wake uint16) *Timer {
		tm := &Timer{WakeTime: wake}
		tm.Handler = func(self *Timer) uint8 {
			fired = append(fired, self.WakeTime)
			return SFDone
		}
		return tm
	}

	ScheduleTimer(mk(300))
	ScheduleTimer(mk(100))
	ScheduleTimer(mk(200))

	SetCurrentTick(1000)
	TimerDispatch()

	want := []uint16{100, 200, 300}
	if len(fired) != len(want) {
		t.Fatalf("fired = %v, want %v", fired, want)
	}
	for i := range want {
		if fired[i] != want[i] {
			t.Errorf("fired[%d] = %d, want %d", i, fired[i], want[i])
		}
	}
}

func TestTimerDispatchOnlyFiresDueTimers(t *testing.T) {
	resetScheduler()
	var fired []uint16
	mk := func(wake uint16) *Timer {
		tm := &Timer{WakeTime: wake}
		tm.Handler = func(self *Timer) uint8 {
			fired = append(fired, self.WakeTime)
			return SFDone
		}
		return tm
	}

	ScheduleTimer(mk(50))
	ScheduleTimer(mk(150))

	SetCurrentTick(100)
	TimerDispatch()

	if len(fired) != 1 || fired[0] != 50 {
		t.Fatalf("fired = %v, want [50]", fired)
	}

	SetCurrentTick(200)
	TimerDispatch()
	if len(fired) != 2 || fired[1] != 150 {
		t.Fatalf("fired after second tick = %v, want [50 150]", fired)
	}
}

func TestTimerRescheduleKeepsItInQueue(t *testing.T) {
	resetScheduler()
	count := 0
	tm := &Timer{WakeTime: 10}
	tm.Handler = func(self *Timer) uint8 {
		count++
		if count < 3 {
			self.WakeTime += 10
			return SFReschedule
		}
		return SFDone
	}
	ScheduleTimer(tm)

	SetCurrentTick(100)
	TimerDispatch()

	if count != 3 {
		t.Errorf("handler fired %d times, want 3 (two reschedules then done)", count)
	}
	if timerList != nil {
		t.Error("expected the timer queue to be empty after the final SFDone")
	}
}

func TestCancelTimerRemovesFromAnyPosition(t *testing.T) {
	resetScheduler()
	a := &Timer{WakeTime: 10, Handler: func(*Timer) uint8 { return SFDone }}
	b := &Timer{WakeTime: 20, Handler: func(*Timer) uint8 { return SFDone }}
	c := &Timer{WakeTime: 30, Handler: func(*Timer) uint8 { return SFDone }}

	ScheduleTimer(a)
	ScheduleTimer(b)
	ScheduleTimer(c)

	CancelTimer(b)

	SetCurrentTick(100)
	var fired []uint16
	a.Handler = func(self *Timer) uint8 { fired = append(fired, self.WakeTime); return SFDone }
	c.Handler = func(self *Timer) uint8 { fired = append(fired, self.WakeTime); return SFDone }
	TimerDispatch()

	if len(fired) != 2 || fired[0] != 10 || fired[1] != 30 {
		t.Errorf("fired = %v, want [10 30] (b cancelled)", fired)
	}
}

func TestTimerDispatchHandlesTickWraparound(t *testing.T) {
	resetScheduler()
	fired := 0
	tm := &Timer{WakeTime: 64}
	tm.Handler = func(*Timer) uint8 { fired++; return SFDone }
	ScheduleTimer(tm)

	// currentTick has wrapped past 65535 back down near WakeTime's
	// neighborhood; a plain WakeTime<=currentTick comparison would see
	// 64<=65500 as already due well before intended.
	SetCurrentTick(65500)
	TimerDispatch()
	if fired != 0 {
		t.Fatalf("fired = %d before wraparound, want 0 (not actually due yet)", fired)
	}

	SetCurrentTick(64)
	TimerDispatch()
	if fired != 1 {
		t.Fatalf("fired = %d at wrapped wake time, want 1", fired)
	}
}

func TestCancelTimerNotInQueueIsNoop(t *testing.T) {
	resetScheduler()
	a := &Timer{WakeTime: 10, Handler: func(*Timer) uint8 { return SFDone }}
	ScheduleTimer(a)

	orphan := &Timer{WakeTime: 999}
	CancelTimer(orphan) // not in the queue; must not panic or corrupt the list

	SetCurrentTick(100)
	fired := 0
	a.Handler = func(*Timer) uint8 { fired++; return SFDone }
	TimerDispatch()

	if fired != 1 {
		t.Errorf("fired = %d, want 1", fired)
	}
}
