package core

// CorrectionConfig holds the struct-page fields the correction chain reads.
type CorrectionConfig struct {
	WUETable  [6]WUEPoint // coolant -> % pairs, ascending coolant
	CrankRPM  uint8       // x10
	ASEPct    uint8       // starting ASE %
	ASECount  uint16      // ignition events ASE decays over; 0 = disabled

	AEThresh  uint16 // TPSdot %/s threshold
	AEPct     uint8  // AE %, 100 = no enrichment

	EGOEnable   bool
	EGODelayMS  uint32
	EGOTempC    int8
	EGORPMOver100 uint16 // threshold already expressed as RPM/100
	EGOTPSMax   uint8
	EGOMin      uint8
	EGOMax      uint8
	EGOStep     uint8
	EGOIgnEvts  uint16
	EGOTarget   uint8
	EGOLimit    uint8
}

// WUEPoint is one piecewise-linear warm-up-enrichment knot.
type WUEPoint struct {
	CoolantC int8
	Pct      uint8
}

const (
	warmupThresholdC = 60 // coolant >= this => WARMUP clears

	correctionMin = 50
	correctionMax = 200
)

// CorrectionState carries the stateful pieces of the chain: ASE decay
// progress and EGO trim position.
type CorrectionState struct {
	ASEActive  bool
	ASECurrent uint8 // current ASE %, decaying toward 100

	AccelActive bool

	EGOCorrection uint8 // current closed-loop trim %, starts at 100
	egoIgnCounter uint16
	egoArmed      bool
}

// NewCorrectionState returns a CorrectionState with EGO trim centered.
func NewCorrectionState() *CorrectionState {
	return &CorrectionState{EGOCorrection: 100}
}

// ArmASE is called on the first CRANK->RUN transition.
func (cs *CorrectionState) ArmASE(cfg *CorrectionConfig) {
	if cfg.ASECount == 0 {
		cs.ASEActive = false
		return
	}
	cs.ASEActive = true
	cs.ASECurrent = cfg.ASEPct
}

// WUE returns the warm-up-enrichment percentage: 100 when not in WARMUP
// (coolant >= 60C), otherwise a 6-point piecewise-linear interpolation over
// coolant temperature, clamped to the table's endpoints.
func WUE(cfg *CorrectionConfig, coolantC int8, warmup bool) uint16 {
	if !warmup {
		return 100
	}
	pts := cfg.WUETable
	if coolantC <= pts[0].CoolantC {
		return uint16(pts[0].Pct)
	}
	last := len(pts) - 1
	if coolantC >= pts[last].CoolantC {
		return uint16(pts[last].Pct)
	}
	for i := 0; i < last; i++ {
		if coolantC >= pts[i].CoolantC && coolantC < pts[i+1].CoolantC {
			span := int32(pts[i+1].CoolantC) - int32(pts[i].CoolantC)
			if span <= 0 {
				return uint16(pts[i].Pct)
			}
			frac := int32(coolantC-pts[i].CoolantC) * 1000 / span
			delta := int32(pts[i+1].Pct) - int32(pts[i].Pct)
			return uint16(int32(pts[i].Pct) + delta*frac/1000)
		}
	}
	return 100
}

// ASE advances the after-start-enrichment decay by one ignition event and
// returns the current percentage. Decrements linearly from asePct toward
// 100 by (asePct-100)/aseCount, at least 1, per ignition; clears the ASE
// flag at 100.
// A zero-size aseCount is treated as ASE disabled, not a divide-by-zero.
func (cs *CorrectionState) ASE(cfg *CorrectionConfig) uint16 {
	if !cs.ASEActive || cfg.ASECount == 0 {
		return 100
	}
	step := (int32(cfg.ASEPct) - 100) / int32(cfg.ASECount)
	if step < 1 {
		step = 1
	}
	cur := int32(cs.ASECurrent) - step
	if cur <= 100 {
		cur = 100
		cs.ASEActive = false
	}
	cs.ASECurrent = uint8(cur)
	return uint16(cur)
}

// AE returns TPS-based acceleration enrichment above 100 (i.e. the value
// added to the 100+AE%+... sum, not a multiplicative term): aePct-100 when
// TPSdot exceeds aeThresh, doubled above 3x aeThresh; otherwise 0, clearing
// the ACCEL flag.
func (cs *CorrectionState) AE(cfg *CorrectionConfig, tpsDot int16) uint16 {
	if tpsDot <= int16(cfg.AEThresh) {
		cs.AccelActive = false
		return 0
	}
	cs.AccelActive = true
	base := uint16(cfg.AEPct) - 100
	if tpsDot > int16(cfg.AEThresh)*3 {
		base *= 2
	}
	return base
}

// CLTTrim returns the fine coolant trim: 1% reduction per 5C above 100C,
// capped at 5%; 100 otherwise.
func CLTTrim(coolantC int8) uint16 {
	if coolantC <= 100 {
		return 100
	}
	reduction := int32(coolantC-100) / 5
	if reduction > 5 {
		reduction = 5
	}
	return uint16(100 - reduction)
}

// BatteryCorrection returns the piecewise battery-voltage correction.
// batteryDV is battery voltage in deci-volts.
func BatteryCorrection(batteryDV uint8) uint16 {
	switch {
	case batteryDV <= 110:
		return 110
	case batteryDV <= 120:
		return 105
	case batteryDV >= 150:
		return 97
	default:
		return 100
	}
}

// EGOStep advances the closed-loop EGO trim by one scheduler tick (called at
// 15 Hz from RunProtection, not per ignition event), applying the gating
// conditions, and returns the current trim percentage (100 when disabled or
// gated off). The result is also retained in cs.EGOCorrection so RunFast can
// read the latest trim without re-running the gate/step logic itself.
func (cs *CorrectionState) EGOStep(cfg *CorrectionConfig, s *Status, uptimeMS uint32) uint16 {
	if !cfg.EGOEnable {
		cs.EGOCorrection = 100
		return 100
	}

	gated := uptimeMS < cfg.EGODelayMS ||
		s.Coolant < cfg.EGOTempC ||
		uint16(s.RPM/100) < cfg.EGORPMOver100 ||
		s.TPS > cfg.EGOTPSMax ||
		s.O2 < cfg.EGOMin || s.O2 > cfg.EGOMax

	if gated {
		cs.egoArmed = false
		cs.egoIgnCounter = 0
		return uint16(cs.EGOCorrection)
	}

	if !cs.egoArmed {
		cs.egoArmed = true
		cs.egoIgnCounter = 0
	}

	cs.egoIgnCounter++
	if cs.egoIgnCounter < cfg.EGOIgnEvts {
		return uint16(cs.EGOCorrection)
	}
	cs.egoIgnCounter = 0

	cur := int32(cs.EGOCorrection)
	target := int32(cfg.EGOTarget)
	step := int32(cfg.EGOStep)
	switch {
	case cur < target:
		cur += step
	case cur > target:
		cur -= step
	}

	limit := int32(cfg.EGOLimit)
	if cur-100 > limit {
		cur = 100 + limit
	}
	if 100-cur > limit {
		cur = 100 - limit
	}

	cs.EGOCorrection = uint8(cur)
	return uint16(cur)
}

// TotalCorrection combines the chain per spec: clamp(100 * WUE * ASE * CLT
// * BAT * EGO / 100^5 + AE, 50, 200). EGO joins the multiplicative chain
// alongside WUE/ASE/CLT/BAT; its value is whatever EGOStep last settled on
// (100, i.e. no trim, when closed-loop control is disabled or gated off).
func TotalCorrection(wue, ase, clt, bat, ego, ae uint16) uint16 {
	product := int64(100) * int64(wue) * int64(ase) * int64(clt) * int64(bat) * int64(ego)
	product /= 100 * 100 * 100 * 100 * 100
	total := product + int64(ae)

	if total < correctionMin {
		total = correctionMin
	}
	if total > correctionMax {
		total = correctionMax
	}
	return uint16(total)
}
