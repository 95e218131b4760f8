package config

import "goecu/core"

// Calibration page indices. Page 0 is reserved by the wire protocol;
// these are the only pages this firmware actually populates.
const (
	PageFuel  uint8 = 1
	PageIgn   uint8 = 2
	PageCorr  uint8 = 3
	PageProt  uint8 = 4
	PageVE    uint8 = 5
	PageAFR   uint8 = 6
	PageAdv   uint8 = 7
)

// calibrationVersion tags the layout of the pages below. Bump it whenever
// a page's byte layout changes, so Store.Load refuses to trust
// incompatibly-laid-out bytes left over from an older build.
const calibrationVersion = 1

// DefaultFuelConfig returns a naturally-aspirated four-cylinder starting
// point: 450cc injectors' worth of reqFuel and a modest dead time.
func DefaultFuelConfig() core.FuelConfig {
	return core.FuelConfig{
		ReqFuel: 4200,
		InjOpen: 900,
	}
}

// DefaultIgnitionConfig returns a conservative advance/dwell table: mild
// cranking advance, a flat CLT trim, and dwell times safe for a generic
// inductive coil.
func DefaultIgnitionConfig() core.IgnitionConfig {
	return core.IgnitionConfig{
		CrankAdvance: 10,
		CLTAdvance: [4]core.CLTAdvancePoint{
			{CoolantC: -10, AdvDeg: 14},
			{CoolantC: 20, AdvDeg: 10},
			{CoolantC: 60, AdvDeg: 4},
			{CoolantC: 100, AdvDeg: 0},
		},
		IdleRPM:     90, // *10 => 900 RPM
		IdleAdvance: 18,
		RevLimitRPM: 70, // *100 => 7000 RPM
		DwellCrank:  4000,
		DwellRun:    3000,
		DwellLimit:  8000,
	}
}

// DefaultCorrectionConfig returns a standard warm-up/acceleration
// enrichment and narrowband-O2 trim starting point.
func DefaultCorrectionConfig() core.CorrectionConfig {
	return core.CorrectionConfig{
		WUETable: [6]core.WUEPoint{
			{CoolantC: -10, Pct: 160},
			{CoolantC: 0, Pct: 140},
			{CoolantC: 20, Pct: 120},
			{CoolantC: 40, Pct: 110},
			{CoolantC: 60, Pct: 103},
			{CoolantC: 80, Pct: 100},
		},
		CrankRPM: 50, // *10 => 500 RPM
		ASEPct:   120,
		ASECount: 100,

		AEThresh: 50,
		AEPct:    120,

		EGOEnable:     true,
		EGODelayMS:    5000,
		EGOTempC:      60,
		EGORPMOver100: 10,
		EGOTPSMax:     80,
		EGOMin:        80,
		EGOMax:        120,
		EGOStep:       1,
		EGOIgnEvts:    10,
		EGOTarget:     100,
		EGOLimit:      15,
	}
}

// DefaultProtectionConfig returns an overrev cut at 7000 RPM and a
// low-oil-pressure cut once warmed up.
func DefaultProtectionConfig() core.ProtectionConfig {
	return core.ProtectionConfig{
		OverrevEnable:  true,
		OverrevRPM:     70,
		OverrevHyst:    2,
		OverrevCutMask: core.CutFuel | core.CutSpark,

		OilLowEnable:  true,
		OilThreshold:  10,
		OilHysteresis: 2,
		OilDelayTicks: 15, // ~1s at the 15Hz protection rate
		OilCutMask:    core.CutFuel,
	}
}

// DefaultVETable returns a flat 80% VE surface across the whole
// RPM/MAP grid, a neutral starting point for tuning.
func DefaultVETable() *core.Table3D {
	t := &core.Table3D{}
	fillAxes(&t.AxisX, &t.AxisY)
	for row := range t.Value {
		for col := range t.Value[row] {
			t.Value[row][col] = 80
		}
	}
	return t
}

// DefaultAFRTable returns a flat stoichiometric-ish 147 (14.7 AFR * 10)
// target surface.
func DefaultAFRTable() *core.Table3D {
	t := &core.Table3D{}
	fillAxes(&t.AxisX, &t.AxisY)
	for row := range t.Value {
		for col := range t.Value[row] {
			t.Value[row][col] = 147
		}
	}
	return t
}

// DefaultIgnTable returns a conservative flat 12-degree advance surface.
func DefaultIgnTable() *core.Table3DSigned {
	t := &core.Table3DSigned{}
	fillAxes(&t.AxisX, &t.AxisY)
	for row := range t.Value {
		for col := range t.Value[row] {
			t.Value[row][col] = 12
		}
	}
	return t
}

// fillAxes lays out an ascending 500-15500RPM by 20-245kPa grid shared by
// all three tables, so they stay aligned under a single tuner cursor.
func fillAxes(axisX *[core.TableSize]uint16, axisY *[core.TableSize]uint8) {
	for i := 0; i < core.TableSize; i++ {
		axisX[i] = uint16(500 + i*1000)
		axisY[i] = uint8(20 + i*15)
	}
}

// NewCalibrationStore builds a Store with every page this firmware serves,
// populated with the compiled defaults above. Callers call Load afterward
// to let any matching non-volatile content override them.
func NewCalibrationStore() *core.Store {
	store := core.NewStore()
	store.Version = calibrationVersion

	fuelCfg := DefaultFuelConfig()
	ignCfg := DefaultIgnitionConfig()
	corrCfg := DefaultCorrectionConfig()
	protCfg := DefaultProtectionConfig()

	store.AddPage(&core.Page{Index: PageFuel, Kind: core.PageKindStruct, Size: uint16(len(encodeFuelConfig(&fuelCfg))), Struct: encodeFuelConfig(&fuelCfg)})
	store.AddPage(&core.Page{Index: PageIgn, Kind: core.PageKindStruct, Size: uint16(len(encodeIgnitionConfig(&ignCfg))), Struct: encodeIgnitionConfig(&ignCfg)})
	store.AddPage(&core.Page{Index: PageCorr, Kind: core.PageKindStruct, Size: uint16(len(encodeCorrectionConfig(&corrCfg))), Struct: encodeCorrectionConfig(&corrCfg)})
	store.AddPage(&core.Page{Index: PageProt, Kind: core.PageKindStruct, Size: uint16(len(encodeProtectionConfig(&protCfg))), Struct: encodeProtectionConfig(&protCfg)})

	store.AddPage(&core.Page{Index: PageVE, Kind: core.PageKindTableUnsigned, Size: tablePageBytes, Table: DefaultVETable()})
	store.AddPage(&core.Page{Index: PageAFR, Kind: core.PageKindTableUnsigned, Size: tablePageBytes, Table: DefaultAFRTable()})
	store.AddPage(&core.Page{Index: PageAdv, Kind: core.PageKindTableSigned, Size: tablePageBytes, SignedTable: DefaultIgnTable()})

	return store
}

// tablePageBytes mirrors the unexported tablePageSize in core/calibration.go:
// 256 cells + 16 axis-X bytes + 16 axis-Y bytes.
const tablePageBytes = core.TableSize*core.TableSize + core.TableSize + core.TableSize
