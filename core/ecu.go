package core

// MaxChannels is the largest number of injector/ignition channels a single
// ECU instance supports.
const MaxChannels = 3

// ECU is the single process-wide aggregate: engine status, trigger state,
// tables, schedules, and calibration store, passed by reference into every
// subsystem and into every ISR. No singletons are required beyond this one
// handle (the HAL driver globals in *_hal.go are the exception, matching
// how the hardware collaborators of §6 are wired).
type ECU struct {
	Status  Status
	Trigger *TriggerState

	VETable  *Table3D
	AFRTable *Table3D
	IgnTable *Table3DSigned

	FuelCfg FuelConfig
	IgnCfg  IgnitionConfig
	CorrCfg CorrectionConfig
	ProtCfg ProtectionConfig

	CorrState *CorrectionState
	IgnState  *IgnitionState
	ProtState *ProtectionState

	NumChannels uint8
	Injectors   [MaxChannels]InjectorSchedule
	Coils       [MaxChannels]IgnitionSchedule

	Calibration *Store
	Sensors     *SensorSampler
	Periodic    PeriodicScheduler

	bootMS      uint32
	aseArmed    bool
	lastTPSTime uint32
	cutMask     CutMask
}

// NewECU builds an ECU with fresh state. Callers populate VETable,
// AFRTable, IgnTable, FuelCfg, IgnCfg, CorrCfg, ProtCfg, NumChannels,
// Calibration, and Sensors before calling Start.
func NewECU(pattern TriggerPattern, teeth, missing uint16, edgesPerTooth uint8) *ECU {
	e := &ECU{
		Trigger:   NewTriggerState(pattern, teeth, missing, edgesPerTooth),
		CorrState: NewCorrectionState(),
		IgnState:  &IgnitionState{},
		ProtState: &ProtectionState{},
	}
	for i := range e.Injectors {
		e.Injectors[i].Channel = uint8(i)
	}
	for i := range e.Coils {
		e.Coils[i].Channel = uint8(i)
		ch := &e.Coils[i]
		ch.OnFire = func() {
			e.Status.IgnitionCnt++
			e.CorrState.ASE(&e.CorrCfg)
		}
	}
	e.Trigger.OnRevolutionStart = e.onRevolutionStart
	return e
}

// Start records boot time and primes the sensor filters. Call once, after
// drivers are registered via Set*Driver.
func (e *ECU) Start(nowMS uint32) {
	e.bootMS = nowMS
	if e.Sensors != nil {
		e.Sensors.Init(MustADC())
	}
	HWTimerInit()
}

// onRevolutionStart is the scheduling hook C2 calls on a confirmed
// revolution boundary. It fires every configured channel using the most
// recent PW/advance/dwell computed by the periodic 1000 Hz tick; losing
// sync before this runs simply means the trigger decoder never calls it.
func (e *ECU) onRevolutionStart(revTime uint32, revCounter uint8) {
	out := MustOutputs()
	nowUS := MustClock().NowUS()

	pws := [MaxChannels]uint16{e.Status.PW1, e.Status.PW2, e.Status.PW3}
	for i := uint8(0); i < e.NumChannels; i++ {
		if e.ProtState != nil && e.protectFuelCut() {
			e.Injectors[i].Cancel(out)
			continue
		}
		e.Injectors[i].Schedule(nowUS, revTime, pws[i], out)
	}

	for i := uint8(0); i < e.NumChannels; i++ {
		if e.protectSparkCut() {
			e.Coils[i].Cancel(out)
			continue
		}
		e.Coils[i].Schedule(GetHWTicks(), revTime, e.Status.Advance, e.Status.Dwell, out)
	}
}

func (e *ECU) protectFuelCut() bool  { return e.cutMask&CutFuel != 0 }
func (e *ECU) protectSparkCut() bool { return e.cutMask&CutSpark != 0 }

// cranking reports whether the engine-status snapshot currently has CRANK
// set.
func (e *ECU) cranking() bool {
	return e.Status.Engine&StatusCrank != 0
}

// updateEngineStatus derives the CRANK/RUN/WARMUP bits and arms ASE on the
// first CRANK->RUN transition.
func (e *ECU) updateEngineStatus() {
	s := &e.Status
	wasRun := s.Engine&StatusRun != 0

	s.Engine &^= StatusCrank | StatusRun | StatusWarmup
	switch {
	case s.RPM > 0 && uint32(s.RPM) < uint32(e.CorrCfg.CrankRPM)*10:
		s.Engine |= StatusCrank
	case s.RPM > 0:
		s.Engine |= StatusRun
	}

	if s.Coolant < warmupThresholdC {
		s.Engine |= StatusWarmup
	}

	if !wasRun && s.Engine&StatusRun != 0 {
		e.CorrState.ArmASE(&e.CorrCfg)
		if e.CorrState.ASEActive {
			s.Engine |= StatusASE
		}
	}
	if !e.CorrState.ASEActive {
		s.Engine &^= StatusASE
	}
}

// RunFast recomputes PW/advance/dwell/corrections. Runs at 1000 Hz.
func (e *ECU) RunFast() {
	s := &e.Status
	s.RPM = RPMFromRevTime(e.Trigger.RevolutionTime)
	s.HasSync = e.Trigger.HasSync
	e.updateEngineStatus()

	cranking := e.cranking()
	warmup := s.Engine&StatusWarmup != 0

	wue := WUE(&e.CorrCfg, s.Coolant, warmup)
	ase := uint16(100)
	if e.CorrState.ASEActive {
		ase = uint16(e.CorrState.ASECurrent)
	}
	clt := CLTTrim(s.Coolant)
	bat := BatteryCorrection(s.Battery)
	ae := e.CorrState.AE(&e.CorrCfg, s.TPSdot)
	if e.CorrState.AccelActive {
		s.Engine |= StatusAccel
	} else {
		s.Engine &^= StatusAccel
	}

	ego := uint16(e.CorrState.EGOCorrection)
	corrections := TotalCorrection(wue, ase, clt, bat, ego, ae)

	s.VE = LookupVE(e.VETable, s.MAP, s.RPM)
	pw := ComputePulseWidth(&e.FuelCfg, s.VE, s.MAP, corrections)
	s.PW1, s.PW2, s.PW3 = pw, pw, pw

	s.Advance = e.IgnState.Advance(&e.IgnCfg, e.IgnTable, s, cranking)
	s.Dwell = Dwell(&e.IgnCfg, cranking)

	if e.Sensors != nil {
		e.Sensors.SampleFast(MustADC(), s)
	}
	s.LoopCount++
}

func nowMSSince(bootMS uint32) uint32 {
	return MustClock().NowMS() - bootMS
}

// RunMedium runs the 30 Hz tick: O2 sampling and TPSdot derivation.
func (e *ECU) RunMedium(nowMS uint32) {
	s := &e.Status
	if e.Sensors != nil {
		e.Sensors.SampleMedium(MustADC(), s)
	}
	dt := nowMS - e.lastTPSTime
	if dt > 0 {
		s.TPSdot = int16((int32(s.TPS) - int32(s.TPSlast)) * 1000 / int32(dt))
	}
	e.lastTPSTime = nowMS
}

// RunSlow runs the 4 Hz tick: slow sensors, sync watchdog, secl tick.
func (e *ECU) RunSlow(nowUS uint32) {
	s := &e.Status
	if e.Sensors != nil {
		e.Sensors.SampleSlow(MustADC(), s)
	}
	e.Trigger.Watchdog(nowUS, s)
	secs := nowMSSince(e.bootMS) / 1000
	if secs != s.SecL {
		s.SecL = secs
		if s.Engine&StatusRun != 0 {
			s.RunSecs++
		}
	}
}

// RunProtection runs the 15 Hz tick: protection supervisor and closed-loop
// EGO trim step. Updates the cut mask applied by the next revolution-start
// scheduling pass.
func (e *ECU) RunProtection(nowUS uint32) {
	e.CorrState.EGOStep(&e.CorrCfg, &e.Status, nowMSSince(e.bootMS))

	e.cutMask = e.ProtState.Evaluate(&e.ProtCfg, &e.Status, nowUS)
	if e.cutMask&CutFuel != 0 {
		out := MustOutputs()
		for i := uint8(0); i < e.NumChannels; i++ {
			e.Injectors[i].Cancel(out)
		}
	}
	if e.cutMask&CutSpark != 0 {
		out := MustOutputs()
		for i := uint8(0); i < e.NumChannels; i++ {
			e.Coils[i].Cancel(out)
		}
	}
}

// PollInjectors is called every main-loop iteration to drive the polled
// injector state machines.
func (e *ECU) PollInjectors(nowUS uint32) {
	out := MustOutputs()
	for i := uint8(0); i < e.NumChannels; i++ {
		e.Injectors[i].Poll(nowUS, out)
	}
}

// MainLoopTick dispatches one main-loop iteration: injector polling every
// call, then whichever periodic rates are due, in priority order.
func (e *ECU) MainLoopTick(nowUS, nowMS uint32) {
	e.PollInjectors(nowUS)

	flags := e.Periodic.Due(nowMS)
	if flags.Hz1000 {
		e.RunFast()
	}
	if flags.Hz30 {
		e.RunMedium(nowMS)
	}
	if flags.Hz15 {
		e.RunProtection(nowUS)
	}
	if flags.Hz4 {
		e.RunSlow(nowUS)
	}
	if flags.Hz1 {
		DrainDiag()
	}
}
