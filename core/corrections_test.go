package core

import "testing"

func sampleWUETable() [6]WUEPoint {
	return [6]WUEPoint{
		{CoolantC: -20, Pct: 160},
		{CoolantC: 0, Pct: 140},
		{CoolantC: 20, Pct: 125},
		{CoolantC: 40, Pct: 112},
		{CoolantC: 60, Pct: 102},
		{CoolantC: 80, Pct: 100},
	}
}

func TestWUENotInWarmupReturns100(t *testing.T) {
	cfg := &CorrectionConfig{WUETable: sampleWUETable()}
	if got := WUE(cfg, -10, false); got != 100 {
		t.Errorf("WUE(warmup=false) = %d, want 100", got)
	}
}

func TestWUEExactKnot(t *testing.T) {
	cfg := &CorrectionConfig{WUETable: sampleWUETable()}
	if got := WUE(cfg, 20, true); got != 125 {
		t.Errorf("WUE(20C) = %d, want 125", got)
	}
}

func TestWUEInterpolatesBetweenKnots(t *testing.T) {
	cfg := &CorrectionConfig{WUETable: sampleWUETable()}
	got := WUE(cfg, 10, true) // halfway between 0C/140% and 20C/125%
	if got < 131 || got > 134 {
		t.Errorf("WUE(10C) = %d, want ~132", got)
	}
}

func TestWUEClampsBelowAndAboveTable(t *testing.T) {
	cfg := &CorrectionConfig{WUETable: sampleWUETable()}
	if got := WUE(cfg, -50, true); got != 160 {
		t.Errorf("WUE(-50C) = %d, want 160 (clamped low)", got)
	}
	if got := WUE(cfg, 120, true); got != 100 {
		t.Errorf("WUE(120C) = %d, want 100 (clamped high)", got)
	}
}

func TestArmASEDisabledWhenCountZero(t *testing.T) {
	cfg := &CorrectionConfig{ASECount: 0, ASEPct: 150}
	cs := NewCorrectionState()
	cs.ArmASE(cfg)
	if cs.ASEActive {
		t.Error("ArmASE should leave ASE inactive when ASECount == 0")
	}
	if got := cs.ASE(cfg); got != 100 {
		t.Errorf("ASE() with count=0 = %d, want 100", got)
	}
}

func TestASEDecaysToNeutralAndClears(t *testing.T) {
	cfg := &CorrectionConfig{ASECount: 5, ASEPct: 150}
	cs := NewCorrectionState()
	cs.ArmASE(cfg)

	if !cs.ASEActive {
		t.Fatal("expected ASE armed")
	}

	var last uint16
	for i := 0; i < 20 && cs.ASEActive; i++ {
		last = cs.ASE(cfg)
	}
	if cs.ASEActive {
		t.Error("ASE should have cleared within 20 ignition events")
	}
	if last != 100 {
		t.Errorf("final ASE value = %d, want 100", last)
	}
}

func TestAEAboveThresholdEnrichesAndSetsFlag(t *testing.T) {
	cfg := &CorrectionConfig{AEThresh: 50, AEPct: 120}
	cs := NewCorrectionState()

	got := cs.AE(cfg, 80)
	if got != 20 {
		t.Errorf("AE = %d, want 20", got)
	}
	if !cs.AccelActive {
		t.Error("expected AccelActive true")
	}
}

func TestAEDoublesAboveTripleThreshold(t *testing.T) {
	cfg := &CorrectionConfig{AEThresh: 50, AEPct: 120}
	cs := NewCorrectionState()

	got := cs.AE(cfg, 200) // > 3*50
	if got != 40 {
		t.Errorf("AE (tripled threshold) = %d, want 40", got)
	}
}

func TestAEBelowThresholdClearsFlag(t *testing.T) {
	cfg := &CorrectionConfig{AEThresh: 50, AEPct: 120}
	cs := NewCorrectionState()
	cs.AccelActive = true

	got := cs.AE(cfg, 10)
	if got != 0 {
		t.Errorf("AE below threshold = %d, want 0", got)
	}
	if cs.AccelActive {
		t.Error("expected AccelActive cleared")
	}
}

func TestCLTTrim(t *testing.T) {
	if got := CLTTrim(90); got != 100 {
		t.Errorf("CLTTrim(90) = %d, want 100", got)
	}
	if got := CLTTrim(105); got != 99 {
		t.Errorf("CLTTrim(105) = %d, want 99", got)
	}
	if got := CLTTrim(127); got != 95 {
		t.Errorf("CLTTrim(127) = %d, want 95 (capped)", got)
	}
}

func TestBatteryCorrection(t *testing.T) {
	cases := []struct {
		dv   uint8
		want uint16
	}{
		{100, 110},
		{115, 105},
		{130, 100},
		{160, 97},
	}
	for _, c := range cases {
		if got := BatteryCorrection(c.dv); got != c.want {
			t.Errorf("BatteryCorrection(%d) = %d, want %d", c.dv, got, c.want)
		}
	}
}

func TestTotalCorrectionWorkedScenario(t *testing.T) {
	// WUE=120, ASE=120, CLT=BAT=EGO=100 neutral, AE=0 -> 144.
	got := TotalCorrection(120, 120, 100, 100, 100, 0)
	if got != 144 {
		t.Errorf("TotalCorrection = %d, want 144", got)
	}
}

func TestTotalCorrectionClampsToRange(t *testing.T) {
	if got := TotalCorrection(50, 50, 50, 50, 100, 0); got != correctionMin {
		t.Errorf("TotalCorrection low = %d, want %d", got, correctionMin)
	}
	if got := TotalCorrection(200, 200, 200, 200, 100, 100); got != correctionMax {
		t.Errorf("TotalCorrection high = %d, want %d", got, correctionMax)
	}
}

func TestEGOStepDisabledHoldsNeutral(t *testing.T) {
	cfg := &CorrectionConfig{EGOEnable: false}
	cs := NewCorrectionState()
	cs.EGOCorrection = 110

	got := cs.EGOStep(cfg, &Status{}, 0)
	if got != 100 {
		t.Errorf("EGOStep disabled = %d, want 100", got)
	}
}

func TestEGOStepGatedHoldsCurrentValue(t *testing.T) {
	cfg := &CorrectionConfig{
		EGOEnable:     true,
		EGODelayMS:    5000,
		EGOTempC:      60,
		EGORPMOver100: 10,
		EGOTPSMax:     20,
		EGOMin:        80,
		EGOMax:        120,
	}
	cs := NewCorrectionState()
	cs.EGOCorrection = 105

	s := &Status{Coolant: 80, RPM: 2000, TPS: 5, O2: 100}
	got := cs.EGOStep(cfg, s, 1000) // below EGODelayMS -> gated
	if got != 105 {
		t.Errorf("EGOStep gated = %d, want unchanged 105", got)
	}
}

func TestEGOStepConvergesTowardTarget(t *testing.T) {
	cfg := &CorrectionConfig{
		EGOEnable:     true,
		EGODelayMS:    0,
		EGOTempC:      60,
		EGORPMOver100: 10,
		EGOTPSMax:     20,
		EGOMin:        80,
		EGOMax:        120,
		EGOStep:       1,
		EGOIgnEvts:    1,
		EGOTarget:     110,
		EGOLimit:      15,
	}
	cs := NewCorrectionState()
	s := &Status{Coolant: 80, RPM: 2000, TPS: 5, O2: 100}

	var last uint16
	for i := 0; i < 20; i++ {
		last = cs.EGOStep(cfg, s, 10_000)
	}
	if last != 110 {
		t.Errorf("EGOStep converged to %d, want 110", last)
	}
}

func TestEGOStepRespectsLimit(t *testing.T) {
	cfg := &CorrectionConfig{
		EGOEnable:     true,
		EGODelayMS:    0,
		EGOTempC:      60,
		EGORPMOver100: 10,
		EGOTPSMax:     20,
		EGOMin:        80,
		EGOMax:        120,
		EGOStep:       5,
		EGOIgnEvts:    1,
		EGOTarget:     200, // far above limit
		EGOLimit:      10,
	}
	cs := NewCorrectionState()
	s := &Status{Coolant: 80, RPM: 2000, TPS: 5, O2: 100}

	var last uint16
	for i := 0; i < 20; i++ {
		last = cs.EGOStep(cfg, s, 10_000)
	}
	if last != 110 {
		t.Errorf("EGOStep = %d, want capped at 110 (100+limit)", last)
	}
}
