package core

// CutMask selects which outputs a protection latch disables.
type CutMask uint8

const (
	CutFuel  CutMask = 1 << iota
	CutSpark
)

// ProtectionConfig holds the struct-page fields the supervisor reads.
type ProtectionConfig struct {
	OverrevEnable    bool
	OverrevRPM       uint16 // configured as RPM/100
	OverrevHyst      uint16 // configured as RPM/100
	OverrevCutMask   CutMask

	OilLowEnable  bool
	OilThreshold  uint8
	OilHysteresis uint8
	OilDelayTicks uint8
	OilCutMask    CutMask
}

// ProtectionState carries the latch and hysteresis counters across calls.
type ProtectionState struct {
	overrevLatched bool
	oilLatched     bool
	oilLowTicks    uint8
}

// Evaluate runs one periodic invocation of the protection supervisor and
// updates s.Protect. Returns the combined cut mask to apply this tick. nowUS
// is stamped onto any latch-transition diagnostic event (EvtProtectionTrip
// on the rising edge, EvtProtectionClr on the falling edge).
func (ps *ProtectionState) Evaluate(cfg *ProtectionConfig, s *Status, nowUS uint32) CutMask {
	var cut CutMask

	wasOverrev := ps.overrevLatched
	if cfg.OverrevEnable {
		onRPM := uint32(cfg.OverrevRPM) * 100
		offRPM := (uint32(cfg.OverrevRPM) - uint32(cfg.OverrevHyst)) * 100
		if uint32(s.RPM) >= onRPM {
			ps.overrevLatched = true
		} else if uint32(s.RPM) <= offRPM {
			ps.overrevLatched = false
		}
	} else {
		ps.overrevLatched = false
	}
	if ps.overrevLatched != wasOverrev {
		recordProtectionEdge(ps.overrevLatched, channelOverrev, nowUS, uint32(s.RPM))
	}

	wasOilLow := ps.oilLatched
	if cfg.OilLowEnable {
		if s.OilP <= cfg.OilThreshold {
			if ps.oilLowTicks < cfg.OilDelayTicks {
				ps.oilLowTicks++
			}
			if ps.oilLowTicks >= cfg.OilDelayTicks {
				ps.oilLatched = true
			}
		} else if s.OilP > cfg.OilThreshold+cfg.OilHysteresis {
			ps.oilLatched = false
			ps.oilLowTicks = 0
		}
	} else {
		ps.oilLatched = false
		ps.oilLowTicks = 0
	}
	if ps.oilLatched != wasOilLow {
		recordProtectionEdge(ps.oilLatched, channelOilLow, nowUS, uint32(s.OilP))
	}

	s.Protect = 0
	if ps.overrevLatched {
		s.Protect |= ProtectOverrev
		cut |= cfg.OverrevCutMask
	}
	if ps.oilLatched {
		s.Protect |= ProtectOilLow
		cut |= cfg.OilCutMask
	}

	return cut
}

// Diagnostic channel codes distinguishing which latch tripped or cleared.
const (
	channelOverrev uint8 = 0
	channelOilLow  uint8 = 1
)

func recordProtectionEdge(latched bool, channel uint8, nowUS, value uint32) {
	evt := uint8(EvtProtectionClr)
	if latched {
		evt = EvtProtectionTrip
	}
	RecordDiag(evt, channel, nowUS, value)
}
