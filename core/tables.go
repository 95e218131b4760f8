package core

// TableSize is the fixed table engine dimension (16x16 cells). The legacy
// 8x8 layout is not implemented; storage and protocol speak 16x16 only.
const TableSize = 16

// Table3D is a bilinearly-interpolated 16x16 lookup table with unsigned
// cell values (VE, AFR target). X axis is RPM-scaled, Y axis is MAP/load.
type Table3D struct {
	AxisX [TableSize]uint16 // ascending
	AxisY [TableSize]uint8  // ascending
	Value [TableSize][TableSize]uint8

	lastX, lastY               uint8
	lastInputX, lastInputY     uint32
	lastOutput                 uint8
	cacheValid                 bool
}

// Lookup returns the bilinearly interpolated cell for (x, y). All
// arithmetic is performed in 32-bit integers. A one-cell cache keyed by
// (x, y) returns the prior result unchanged.
func (tb *Table3D) Lookup(x, y uint32) uint8 {
	if tb.cacheValid && x == tb.lastInputX && y == tb.lastInputY {
		return tb.lastOutput
	}

	xL, xH, xFrac := bracket16(tb.AxisX[:], x)
	yL, yH, yFrac := bracket8(tb.AxisY[:], y)

	q11 := int32(tb.Value[yL][xL])
	q21 := int32(tb.Value[yL][xH])
	q12 := int32(tb.Value[yH][xL])
	q22 := int32(tb.Value[yH][xH])

	r1 := q11 + (q21-q11)*xFrac/256
	r2 := q12 + (q22-q12)*xFrac/256
	out := r1 + (r2-r1)*yFrac/256

	result := uint8(clampInt32(out, 0, 255))

	tb.lastX, tb.lastY = xL, yL
	tb.lastInputX, tb.lastInputY = x, y
	tb.lastOutput = result
	tb.cacheValid = true

	return result
}

// InvalidateCache drops the last-cell cache. Called after any write that
// touches a table byte.
func (tb *Table3D) InvalidateCache() {
	tb.cacheValid = false
}

// Table3DSigned is the ignition-table variant: identical shape, signed
// (i8) cell values.
type Table3DSigned struct {
	AxisX [TableSize]uint16
	AxisY [TableSize]uint8
	Value [TableSize][TableSize]int8

	lastInputX, lastInputY uint32
	lastOutput             int8
	cacheValid             bool
}

func (tb *Table3DSigned) Lookup(x, y uint32) int8 {
	if tb.cacheValid && x == tb.lastInputX && y == tb.lastInputY {
		return tb.lastOutput
	}

	xL, xH, xFrac := bracket16(tb.AxisX[:], x)
	yL, yH, yFrac := bracket8(tb.AxisY[:], y)

	q11 := int32(tb.Value[yL][xL])
	q21 := int32(tb.Value[yL][xH])
	q12 := int32(tb.Value[yH][xL])
	q22 := int32(tb.Value[yH][xH])

	r1 := q11 + (q21-q11)*xFrac/256
	r2 := q12 + (q22-q12)*xFrac/256
	out := r1 + (r2-r1)*yFrac/256

	result := int8(clampInt32(out, -128, 127))

	tb.lastInputX, tb.lastInputY = x, y
	tb.lastOutput = result
	tb.cacheValid = true

	return result
}

func (tb *Table3DSigned) InvalidateCache() {
	tb.cacheValid = false
}

// bracket16 locates the bracketing indices (lo, hi) in a 16-entry
// ascending uint16 axis for value v, and returns a 0..256 interpolation
// fraction between them. Values at or below axis[0] clamp to column 0;
// at or above axis[15] clamp to column 15.
func bracket16(axis []uint16, v uint32) (lo, hi uint8, frac int32) {
	if v <= uint32(axis[0]) {
		return 0, 0, 0
	}
	if v >= uint32(axis[TableSize-1]) {
		return TableSize - 1, TableSize - 1, 0
	}
	for i := 0; i < TableSize-1; i++ {
		if v >= uint32(axis[i]) && v < uint32(axis[i+1]) {
			span := int32(axis[i+1]) - int32(axis[i])
			if span <= 0 {
				return uint8(i), uint8(i), 0
			}
			frac = (int32(v) - int32(axis[i])) * 256 / span
			return uint8(i), uint8(i + 1), frac
		}
	}
	return TableSize - 1, TableSize - 1, 0
}

// bracket8 is bracket16 for the 8-bit Y axis.
func bracket8(axis []uint8, v uint32) (lo, hi uint8, frac int32) {
	if v <= uint32(axis[0]) {
		return 0, 0, 0
	}
	if v >= uint32(axis[TableSize-1]) {
		return TableSize - 1, TableSize - 1, 0
	}
	for i := 0; i < TableSize-1; i++ {
		if v >= uint32(axis[i]) && v < uint32(axis[i+1]) {
			span := int32(axis[i+1]) - int32(axis[i])
			if span <= 0 {
				return uint8(i), uint8(i), 0
			}
			frac = (int32(v) - int32(axis[i])) * 256 / span
			return uint8(i), uint8(i + 1), frac
		}
	}
	return TableSize - 1, TableSize - 1, 0
}

func clampInt32(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
