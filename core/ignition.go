package core

// Advance and dwell bounds, degrees / microseconds.
const (
	IgnMinAdvance = -10
	IgnMaxAdvance = 45

	DwellMin = 1000
	DwellMax = 8000
)

// IgnitionConfig holds the struct-page fields the ignition model reads.
type IgnitionConfig struct {
	CrankAdvance int8 // returned unconditionally while CRANK

	CLTAdvance [4]CLTAdvancePoint // piecewise-linear, ascending coolant

	IdleRPM     uint16 // configured as RPM/10, per idleRPM*10 convention
	IdleAdvance int8

	RevLimitRPM uint16 // configured as RPM/100, per revLimitRPM*100 convention

	DwellCrank uint16
	DwellRun   uint16
	DwellLimit uint16
}

// CLTAdvancePoint is one coolant-temperature advance-trim knot.
type CLTAdvancePoint struct {
	CoolantC int8
	AdvDeg   int8
}

// IgnitionState carries the soft rev-limiter alternation, preserved as an
// explicit field rather than a hidden static.
type IgnitionState struct {
	limiterCutNext bool
}

// Advance computes ignition timing in degrees BTDC. During CRANK it
// returns crankAdvance unconditionally. Otherwise: base table lookup, plus
// CLT-advance trim, plus idle boost below idleRPM, then the soft
// rev-limiter, then clamp to [-10, 45].
func (is *IgnitionState) Advance(cfg *IgnitionConfig, ignTable *Table3DSigned, s *Status, cranking bool) int8 {
	if cranking {
		return cfg.CrankAdvance
	}

	base := int32(ignTable.Lookup(uint32(s.RPM), uint32(s.MAP)))
	base += int32(cltAdvanceTrim(cfg, s.Coolant))

	if uint32(s.RPM) < uint32(cfg.IdleRPM)*10 {
		base += int32(cfg.IdleAdvance)
	}

	if uint32(s.RPM) >= uint32(cfg.RevLimitRPM)*100 {
		is.limiterCutNext = !is.limiterCutNext
		if is.limiterCutNext {
			base = IgnMinAdvance
		}
	} else {
		is.limiterCutNext = false
	}

	if base < IgnMinAdvance {
		base = IgnMinAdvance
	}
	if base > IgnMaxAdvance {
		base = IgnMaxAdvance
	}
	return int8(base)
}

func cltAdvanceTrim(cfg *IgnitionConfig, coolantC int8) int8 {
	pts := cfg.CLTAdvance
	if coolantC <= pts[0].CoolantC {
		return pts[0].AdvDeg
	}
	last := len(pts) - 1
	if coolantC >= pts[last].CoolantC {
		return pts[last].AdvDeg
	}
	for i := 0; i < last; i++ {
		if coolantC >= pts[i].CoolantC && coolantC < pts[i+1].CoolantC {
			span := int32(pts[i+1].CoolantC) - int32(pts[i].CoolantC)
			if span <= 0 {
				return pts[i].AdvDeg
			}
			frac := int32(coolantC-pts[i].CoolantC) * 1000 / span
			delta := int32(pts[i+1].AdvDeg) - int32(pts[i].AdvDeg)
			return int8(int32(pts[i].AdvDeg) + delta*frac/1000)
		}
	}
	return 0
}

// Dwell returns coil charge duration: dwellCrank while cranking else
// dwellRun, clamped to [DwellMin, min(dwellLimit, DwellMax)].
func Dwell(cfg *IgnitionConfig, cranking bool) uint16 {
	d := cfg.DwellRun
	if cranking {
		d = cfg.DwellCrank
	}

	limit := uint16(DwellMax)
	if cfg.DwellLimit < limit {
		limit = cfg.DwellLimit
	}

	if d < DwellMin {
		d = DwellMin
	}
	if d > limit {
		d = limit
	}
	return d
}
