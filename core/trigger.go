package core

// TriggerPattern selects the crank decoder algorithm.
type TriggerPattern uint8

const (
	PatternMissingTooth TriggerPattern = iota
	PatternBasicDistributor
)

// Filter times and gap-validation constants from the decoder design.
const (
	filterTimeMissingTooth = 50  // microseconds
	filterTimeDistributor  = 500 // microseconds
	pulseCountTolerance    = 10
	syncLossLimit          = 10
	syncWatchdogUS         = 1_000_000
	rpmMin                 = 0
	rpmMax                 = 15000
	rpmReportFloor         = 100
)

// TriggerState holds the angular reference: last-tooth timestamps,
// revolution duration, and sync status. Losing sync (onSyncFailed past
// syncLossLimit, or Watchdog) clears only HasSync and RevolutionTime; the
// tooth timestamps and counters are kept until Reset is called.
type TriggerState struct {
	Pattern TriggerPattern

	ToothLast          uint32
	ToothLastMinusOne  uint32
	ToothOneTime       uint32
	RevolutionTime     uint32
	ToothCurrentCount  uint16

	TriggerTeeth       uint16 // configured tooth count on the wheel
	TriggerMissing     uint16 // configured missing-tooth count
	TriggerActualTeeth uint16 // TriggerTeeth - TriggerMissing
	EdgesPerTooth      uint8  // 1 (rising only) or 2 (both edges)

	TriggerFilterTime uint16 // microseconds, pattern-dependent

	CurGap, LastGap uint32
	SyncLossCounter uint8
	HasSync         bool

	RevolutionCounter uint8 // toggles 0/1, selects wasted-pair channel

	// OnRevolutionStart, when set, is called with the fresh revolutionTime
	// every time a revolution boundary is confirmed. This is the scheduling
	// hook into the event scheduler (C6).
	OnRevolutionStart func(revolutionTime uint32, revCounter uint8)
}

// NewTriggerState builds a TriggerState for the given pattern and tooth
// configuration. edgesPerTooth must be 1 or 2. A misconfigured missing
// count >= teeth is treated as "no teeth missing" rather than underflowing
// TriggerActualTeeth.
func NewTriggerState(pattern TriggerPattern, teeth, missing uint16, edgesPerTooth uint8) *TriggerState {
	ft := uint16(filterTimeMissingTooth)
	if pattern == PatternBasicDistributor {
		ft = filterTimeDistributor
	}
	actualTeeth := teeth
	if missing < teeth {
		actualTeeth = teeth - missing
	} else {
		missing = 0
	}
	return &TriggerState{
		Pattern:            pattern,
		TriggerTeeth:       teeth,
		TriggerMissing:     missing,
		TriggerActualTeeth: actualTeeth,
		EdgesPerTooth:      edgesPerTooth,
		TriggerFilterTime:  ft,
	}
}

// Reset clears angular state. The decoder does not call it itself; it does
// not touch configuration fields (TriggerTeeth, EdgesPerTooth, ...).
func (t *TriggerState) Reset() {
	t.ToothLast = 0
	t.ToothLastMinusOne = 0
	t.ToothOneTime = 0
	t.RevolutionTime = 0
	t.ToothCurrentCount = 0
	t.CurGap = 0
	t.LastGap = 0
	t.SyncLossCounter = 0
	t.HasSync = false
}

// Edge processes one crank-sensor edge timestamped at now (microseconds,
// free-running clock). It must be safe to call from interrupt context: no
// allocation, no blocking. It dispatches to the configured pattern decoder.
func (t *TriggerState) Edge(now uint32) {
	switch t.Pattern {
	case PatternBasicDistributor:
		t.edgeDistributor(now)
	default:
		t.edgeMissingTooth(now)
	}
}

func (t *TriggerState) edgeMissingTooth(now uint32) {
	gap := now - t.ToothLast
	if t.ToothLast != 0 && gap < uint32(t.TriggerFilterTime) {
		return
	}

	t.ToothLastMinusOne = t.ToothLast
	t.ToothLast = now
	t.ToothCurrentCount++

	t.CurGap = gap

	// 1.5x dynamic threshold over the previous good gap.
	isMissingGap := t.LastGap != 0 && t.CurGap > t.LastGap+t.LastGap/2

	if isMissingGap {
		expected := uint32(t.TriggerActualTeeth) * uint32(t.EdgesPerTooth)
		count := uint32(t.ToothCurrentCount)
		lowerBound := uint32(0)
		if expected > pulseCountTolerance {
			lowerBound = expected - pulseCountTolerance
		}
		if count >= lowerBound && count <= expected+pulseCountTolerance {
			t.onSyncConfirmed(now)
		} else {
			t.onSyncFailed(now)
		}
		t.ToothCurrentCount = 0
	}

	t.LastGap = t.CurGap
}

func (t *TriggerState) edgeDistributor(now uint32) {
	gap := now - t.ToothLast
	if t.ToothLast != 0 && gap < uint32(t.TriggerFilterTime) {
		return
	}
	t.ToothLastMinusOne = t.ToothLast
	t.ToothLast = now
	t.CurGap = gap
	t.LastGap = gap

	// Every accepted pulse is a revolution boundary.
	t.onSyncConfirmed(now)
}

func (t *TriggerState) onSyncConfirmed(now uint32) {
	prevToothOne := t.ToothOneTime
	if !t.HasSync {
		RecordDiag(EvtSyncAcquired, 0, now, uint32(t.ToothCurrentCount))
	}
	t.HasSync = true
	t.SyncLossCounter = 0
	t.ToothOneTime = now

	if prevToothOne != 0 {
		t.RevolutionTime = now - prevToothOne
	}

	t.RevolutionCounter ^= 1

	if t.OnRevolutionStart != nil && t.RevolutionTime > 0 {
		t.OnRevolutionStart(t.RevolutionTime, t.RevolutionCounter)
	}
}

func (t *TriggerState) onSyncFailed(now uint32) {
	t.SyncLossCounter++
	if t.SyncLossCounter > syncLossLimit {
		if t.HasSync {
			RecordDiag(EvtSyncLoss, 0, now, uint32(t.ToothCurrentCount))
		}
		t.HasSync = false
		t.RevolutionTime = 0
	}
}

// Watchdog clears sync and zeroes RPM if no qualifying edge has arrived in
// the last second. Run from the 4 Hz periodic tick.
func (t *TriggerState) Watchdog(now uint32, s *Status) {
	if t.ToothLast != 0 && now-t.ToothLast > syncWatchdogUS {
		if t.HasSync {
			RecordDiag(EvtSyncLoss, 0, now, now-t.ToothLast)
		}
		t.HasSync = false
		t.RevolutionTime = 0
		s.RPM = 0
		s.HasSync = false
	}
}

// RPMFromRevTime derives engine speed from revolutionTime, clamped to [0, 15000];
// speeds below 100 RPM are reported as 0 (stopped).
func RPMFromRevTime(revTime uint32) uint16 {
	if revTime == 0 {
		return 0
	}
	rpm := uint32(60_000_000) / revTime
	if rpm > rpmMax {
		rpm = rpmMax
	}
	if rpm < rpmReportFloor {
		return 0
	}
	return uint16(rpm)
}

// AngleToTime converts a crank angle (degrees) to microseconds within the
// current revolution. Returns 0 when revolutionTime is 0 (no sync).
func AngleToTime(angleDeg uint32, revolutionTime uint32) uint32 {
	if revolutionTime == 0 {
		return 0
	}
	return angleDeg * revolutionTime / 360
}

// TimeToAngle converts microseconds within the current revolution to a
// crank angle. Returns 0 when revolutionTime is 0.
func TimeToAngle(timeUS uint32, revolutionTime uint32) uint32 {
	if revolutionTime == 0 {
		return 0
	}
	return timeUS * 360 / revolutionTime
}
