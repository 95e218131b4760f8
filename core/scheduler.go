package core

// Timer is a scheduled compare event on the ignition hardware-timer tick
// domain. Handler returns SFDone to retire the timer or SFReschedule to
// reinsert it (used for the PENDING->RUNNING->OFF transitions of a single
// ignition channel sharing this queue with the others).
type Timer struct {
	WakeTime uint16 // hardware compare-timer ticks
	Handler  func(*Timer) uint8
	Next     *Timer
}

const (
	SFDone       = 0
	SFReschedule = 1
)

var (
	timerList   *Timer
	currentTick uint16
)

// ScheduleTimer inserts t in wake-time order under a critical section. This
// is the only place a new ignition compare event enters the queue.
func ScheduleTimer(t *Timer) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	insertTimer(t)
}

// CancelTimer removes t from the queue if present. Cancellation may occur
// from any schedule state and returns to OFF.
func CancelTimer(t *Timer) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	if timerList == t {
		timerList = t.Next
		t.Next = nil
		return
	}
	current := timerList
	for current != nil && current.Next != t {
		current = current.Next
	}
	if current != nil {
		current.Next = t.Next
		t.Next = nil
	}
}

// insertTimer inserts a timer in sorted order by WakeTime
func insertTimer(t *Timer) {
	if timerList == nil || t.WakeTime < timerList.WakeTime {
		t.Next = timerList
		timerList = t
		return
	}

	current := timerList
	for current.Next != nil && current.Next.WakeTime < t.WakeTime {
		current = current.Next
	}

	t.Next = current.Next
	current.Next = t
}

// SetCurrentTick updates the tick the dispatcher compares against. Called
// from the compare-match ISR with the current free-running hardware tick.
func SetCurrentTick(tick uint16) {
	currentTick = tick
}

// TimerDispatch processes due timers. Due-ness is computed with a
// wraparound-safe signed subtraction, since WakeTime/currentTick live in the
// free-running 16-bit hardware-tick domain and wrap every ~65536 ticks.
func TimerDispatch() {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	for timerList != nil && int16(timerList.WakeTime-currentTick) <= 0 {
		timer := timerList
		timerList = timer.Next
		timer.Next = nil // Clear Next pointer to avoid circular references

		// Call handler
		result := timer.Handler(timer)

		// Reschedule if requested
		if result == SFReschedule {
			insertTimer(timer)
		}
	}
}
