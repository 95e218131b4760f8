package config

import "goecu/core"

// This file defines the byte layout of the four struct calibration pages
// (fuel, ignition, correction, protection), mirroring the manual
// cell/axis byte-layout functions in core/calibration.go rather than
// reaching for encoding/binary or reflection: every field here is a plain
// fixed-width scalar or small fixed array, and the boundary between a live
// config struct and its wire bytes is exactly the kind of thing a tuner
// can read or burn one byte at a time.

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func encodeFuelConfig(c *core.FuelConfig) []byte {
	return []byte{
		byte(c.ReqFuel >> 8), byte(c.ReqFuel),
		byte(c.InjOpen >> 8), byte(c.InjOpen),
	}
}

func decodeFuelConfig(b []byte) core.FuelConfig {
	return core.FuelConfig{
		ReqFuel: uint16(b[0])<<8 | uint16(b[1]),
		InjOpen: uint16(b[2])<<8 | uint16(b[3]),
	}
}

func encodeIgnitionConfig(c *core.IgnitionConfig) []byte {
	out := []byte{byte(c.CrankAdvance)}
	for _, p := range c.CLTAdvance {
		out = append(out, byte(p.CoolantC), byte(p.AdvDeg))
	}
	out = append(out,
		byte(c.IdleRPM>>8), byte(c.IdleRPM),
		byte(c.IdleAdvance),
		byte(c.RevLimitRPM>>8), byte(c.RevLimitRPM),
		byte(c.DwellCrank>>8), byte(c.DwellCrank),
		byte(c.DwellRun>>8), byte(c.DwellRun),
		byte(c.DwellLimit>>8), byte(c.DwellLimit),
	)
	return out
}

func decodeIgnitionConfig(b []byte) core.IgnitionConfig {
	var c core.IgnitionConfig
	c.CrankAdvance = int8(b[0])
	off := 1
	for i := range c.CLTAdvance {
		c.CLTAdvance[i] = core.CLTAdvancePoint{CoolantC: int8(b[off]), AdvDeg: int8(b[off+1])}
		off += 2
	}
	c.IdleRPM = uint16(b[off])<<8 | uint16(b[off+1])
	c.IdleAdvance = int8(b[off+2])
	c.RevLimitRPM = uint16(b[off+3])<<8 | uint16(b[off+4])
	c.DwellCrank = uint16(b[off+5])<<8 | uint16(b[off+6])
	c.DwellRun = uint16(b[off+7])<<8 | uint16(b[off+8])
	c.DwellLimit = uint16(b[off+9])<<8 | uint16(b[off+10])
	return c
}

func encodeCorrectionConfig(c *core.CorrectionConfig) []byte {
	out := make([]byte, 0, 35)
	for _, p := range c.WUETable {
		out = append(out, byte(p.CoolantC), p.Pct)
	}
	out = append(out,
		c.CrankRPM, c.ASEPct,
		byte(c.ASECount>>8), byte(c.ASECount),
		byte(c.AEThresh>>8), byte(c.AEThresh),
		c.AEPct,
		boolByte(c.EGOEnable),
		byte(c.EGODelayMS>>24), byte(c.EGODelayMS>>16), byte(c.EGODelayMS>>8), byte(c.EGODelayMS),
		byte(c.EGOTempC),
		byte(c.EGORPMOver100>>8), byte(c.EGORPMOver100),
		c.EGOTPSMax, c.EGOMin, c.EGOMax, c.EGOStep,
		byte(c.EGOIgnEvts>>8), byte(c.EGOIgnEvts),
		c.EGOTarget, c.EGOLimit,
	)
	return out
}

func decodeCorrectionConfig(b []byte) core.CorrectionConfig {
	var c core.CorrectionConfig
	off := 0
	for i := range c.WUETable {
		c.WUETable[i] = core.WUEPoint{CoolantC: int8(b[off]), Pct: b[off+1]}
		off += 2
	}
	c.CrankRPM = b[off]
	c.ASEPct = b[off+1]
	c.ASECount = uint16(b[off+2])<<8 | uint16(b[off+3])
	c.AEThresh = uint16(b[off+4])<<8 | uint16(b[off+5])
	c.AEPct = b[off+6]
	c.EGOEnable = b[off+7] != 0
	c.EGODelayMS = uint32(b[off+8])<<24 | uint32(b[off+9])<<16 | uint32(b[off+10])<<8 | uint32(b[off+11])
	c.EGOTempC = int8(b[off+12])
	c.EGORPMOver100 = uint16(b[off+13])<<8 | uint16(b[off+14])
	c.EGOTPSMax = b[off+15]
	c.EGOMin = b[off+16]
	c.EGOMax = b[off+17]
	c.EGOStep = b[off+18]
	c.EGOIgnEvts = uint16(b[off+19])<<8 | uint16(b[off+20])
	c.EGOTarget = b[off+21]
	c.EGOLimit = b[off+22]
	return c
}

func encodeProtectionConfig(c *core.ProtectionConfig) []byte {
	return []byte{
		boolByte(c.OverrevEnable),
		byte(c.OverrevRPM >> 8), byte(c.OverrevRPM),
		byte(c.OverrevHyst >> 8), byte(c.OverrevHyst),
		byte(c.OverrevCutMask),
		boolByte(c.OilLowEnable),
		c.OilThreshold, c.OilHysteresis, c.OilDelayTicks,
		byte(c.OilCutMask),
	}
}

func decodeProtectionConfig(b []byte) core.ProtectionConfig {
	return core.ProtectionConfig{
		OverrevEnable:  b[0] != 0,
		OverrevRPM:     uint16(b[1])<<8 | uint16(b[2]),
		OverrevHyst:    uint16(b[3])<<8 | uint16(b[4]),
		OverrevCutMask: core.CutMask(b[5]),
		OilLowEnable:   b[6] != 0,
		OilThreshold:   b[7],
		OilHysteresis:  b[8],
		OilDelayTicks:  b[9],
		OilCutMask:     core.CutMask(b[10]),
	}
}

// SyncFromCalibration decodes the struct and table pages in ecu.Calibration
// back into the live config fields the runtime loops read. Call it once at
// startup after Store.Load, and again after any tuner burn so a live tune
// takes effect immediately rather than only after a restart.
func SyncFromCalibration(ecu *core.ECU) error {
	if raw, err := ecu.Calibration.PageBytes(PageFuel); err == nil {
		ecu.FuelCfg = decodeFuelConfig(raw)
	} else {
		return err
	}
	if raw, err := ecu.Calibration.PageBytes(PageIgn); err == nil {
		ecu.IgnCfg = decodeIgnitionConfig(raw)
	} else {
		return err
	}
	if raw, err := ecu.Calibration.PageBytes(PageCorr); err == nil {
		ecu.CorrCfg = decodeCorrectionConfig(raw)
	} else {
		return err
	}
	if raw, err := ecu.Calibration.PageBytes(PageProt); err == nil {
		ecu.ProtCfg = decodeProtectionConfig(raw)
	} else {
		return err
	}

	if p, ok := ecu.Calibration.Pages[PageVE]; ok {
		ecu.VETable = p.Table
	}
	if p, ok := ecu.Calibration.Pages[PageAFR]; ok {
		ecu.AFRTable = p.Table
	}
	if p, ok := ecu.Calibration.Pages[PageAdv]; ok {
		ecu.IgnTable = p.SignedTable
	}
	return nil
}

// NewECU builds a fully-wired core.ECU: a fresh calibration store seeded
// with compiled defaults, any matching non-volatile content loaded over
// it, and every live config/table field synced from the result.
func (c *Config) NewECU() (*core.ECU, error) {
	ecu := core.NewECU(c.Trigger.TriggerPattern(), c.Trigger.Teeth, c.Trigger.Missing, c.Trigger.EdgesPerTooth)
	ecu.NumChannels = uint8(c.Cylinders)
	if ecu.NumChannels > core.MaxChannels {
		ecu.NumChannels = core.MaxChannels
	}

	ecu.Calibration = NewCalibrationStore()
	if err := ecu.Calibration.Load(); err != nil {
		return nil, err
	}
	if err := SyncFromCalibration(ecu); err != nil {
		return nil, err
	}
	return ecu, nil
}
