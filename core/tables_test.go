package core

import "testing"

func flatAxisTable() *Table3D {
	tb := &Table3D{}
	for i := 0; i < TableSize; i++ {
		tb.AxisX[i] = uint16(500 * (i + 1)) // 500..8000 RPM
		tb.AxisY[i] = uint8(10 * (i + 1))   // 10..160 kPa
	}
	for y := 0; y < TableSize; y++ {
		for x := 0; x < TableSize; x++ {
			tb.Value[y][x] = uint8(x * 10)
		}
	}
	return tb
}

func TestTable3DExactCellLookup(t *testing.T) {
	tb := flatAxisTable()
	got := tb.Lookup(uint32(tb.AxisX[4]), uint32(tb.AxisY[7]))
	want := tb.Value[7][4]
	if got != want {
		t.Errorf("Lookup at exact axis point = %d, want %d", got, want)
	}
}

func TestTable3DInterpolatesBetweenCells(t *testing.T) {
	tb := flatAxisTable()
	// Halfway between AxisX[0] and AxisX[1], at an exact Y point.
	midX := (uint32(tb.AxisX[0]) + uint32(tb.AxisX[1])) / 2
	got := tb.Lookup(midX, uint32(tb.AxisY[0]))

	lo := int32(tb.Value[0][0])
	hi := int32(tb.Value[0][1])
	want := uint8((lo + hi) / 2)
	if got < want-1 || got > want+1 {
		t.Errorf("interpolated value = %d, want close to %d", got, want)
	}
}

func TestTable3DClampsBelowAndAboveAxis(t *testing.T) {
	tb := flatAxisTable()
	below := tb.Lookup(0, 0)
	want := tb.Value[0][0]
	if below != want {
		t.Errorf("below-axis lookup = %d, want %d", below, want)
	}

	above := tb.Lookup(1_000_000, 1_000_000)
	wantAbove := tb.Value[TableSize-1][TableSize-1]
	if above != wantAbove {
		t.Errorf("above-axis lookup = %d, want %d", above, wantAbove)
	}
}

func TestTable3DCacheReturnsSameResultOnRepeat(t *testing.T) {
	tb := flatAxisTable()
	x, y := uint32(tb.AxisX[2]), uint32(tb.AxisY[3])
	first := tb.Lookup(x, y)
	second := tb.Lookup(x, y)
	if first != second {
		t.Errorf("repeated lookup returned different values: %d vs %d", first, second)
	}
}

func TestTable3DInvalidateCachePicksUpNewValue(t *testing.T) {
	tb := flatAxisTable()
	x, y := uint32(tb.AxisX[2]), uint32(tb.AxisY[3])
	_ = tb.Lookup(x, y)

	tb.Value[3][2] = 255
	tb.InvalidateCache()

	got := tb.Lookup(x, y)
	if got != 255 {
		t.Errorf("after invalidation, Lookup = %d, want 255", got)
	}
}

func TestTable3DSignedNegativeCells(t *testing.T) {
	tb := &Table3DSigned{}
	for i := 0; i < TableSize; i++ {
		tb.AxisX[i] = uint16(500 * (i + 1))
		tb.AxisY[i] = uint8(10 * (i + 1))
	}
	tb.Value[0][0] = -10
	tb.Value[0][1] = 10

	got := tb.Lookup(uint32(tb.AxisX[0]), uint32(tb.AxisY[0]))
	if got != -10 {
		t.Errorf("Lookup = %d, want -10", got)
	}

	mid := (uint32(tb.AxisX[0]) + uint32(tb.AxisX[1])) / 2
	midGot := tb.Lookup(mid, uint32(tb.AxisY[0]))
	if midGot < -1 || midGot > 1 {
		t.Errorf("interpolated midpoint = %d, want close to 0", midGot)
	}
}

func TestBracket16ExactAndInterpolated(t *testing.T) {
	axis := [TableSize]uint16{}
	for i := range axis {
		axis[i] = uint16(1000 * (i + 1))
	}

	lo, hi, frac := bracket16(axis[:], 1000)
	if lo != 0 || hi != 0 || frac != 0 {
		t.Errorf("exact low bound: lo=%d hi=%d frac=%d", lo, hi, frac)
	}

	lo, hi, frac = bracket16(axis[:], 1500)
	if lo != 0 || hi != 1 || frac != 128 {
		t.Errorf("midpoint: lo=%d hi=%d frac=%d, want 0,1,128", lo, hi, frac)
	}

	lo, hi, _ = bracket16(axis[:], 1_000_000)
	if lo != TableSize-1 || hi != TableSize-1 {
		t.Errorf("above axis: lo=%d hi=%d, want both %d", lo, hi, TableSize-1)
	}
}

func TestClampInt32(t *testing.T) {
	if got := clampInt32(-5, 0, 10); got != 0 {
		t.Errorf("clampInt32(-5,0,10) = %d, want 0", got)
	}
	if got := clampInt32(15, 0, 10); got != 10 {
		t.Errorf("clampInt32(15,0,10) = %d, want 10", got)
	}
	if got := clampInt32(5, 0, 10); got != 5 {
		t.Errorf("clampInt32(5,0,10) = %d, want 5", got)
	}
}
