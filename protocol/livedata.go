package protocol

import "goecu/core"

// LiveDataSize is the fixed live-data packet length, bit-exact across
// versions.
const LiveDataSize = 126

// EncodeLiveData serializes the engine status snapshot into the fixed
// 126-byte layout. All bytes not named below are left zero. Byte
// positions and scaling are grounded on a real Speeduino-protocol client's
// decode table, read in reverse.
func EncodeLiveData(s *core.Status) [LiveDataSize]byte {
	var b [LiveDataSize]byte

	b[0] = byte(s.SecL)
	if s.Engine&core.StatusRun != 0 {
		b[1] = 1
	}
	b[2] = s.Engine
	if !s.HasSync {
		b[3] = 1
	}

	mapX10 := uint16(s.MAP) * 10
	b[4] = byte(mapX10)
	b[5] = byte(mapX10 >> 8)

	b[6] = byte(int16(s.IAT) + 40)
	b[7] = byte(int16(s.Coolant) + 40)
	b[8] = byte(0) // battery-correction%, filled by caller if tracked separately
	b[9] = s.Battery
	b[10] = s.O2
	b[11] = 0 // O2 correction%
	b[12] = 0 // IAT correction%
	b[13] = 0 // WUE correction%

	b[14] = byte(s.RPM)
	b[15] = byte(s.RPM >> 8)

	b[24] = byte(int16(s.Advance) + 40)
	b[25] = s.TPS

	loopsPerSec := uint16(s.LoopCount & 0xFFFF)
	b[26] = byte(loopsPerSec)
	b[27] = byte(loopsPerSec >> 8)

	b[28] = 0 // free-RAM lo
	b[29] = 0 // free-RAM hi

	spark := byte(0)
	if s.HasSync {
		spark |= 1 << 0
	}
	b[32] = spark

	b[35] = 0 // ethanol%, unused

	b[41] = 100 // baro

	b[76] = byte(s.PW1)
	b[77] = byte(s.PW1 >> 8)
	b[78] = byte(s.PW2)
	b[79] = byte(s.PW2 >> 8)
	b[80] = byte(s.PW3)
	b[81] = byte(s.PW3 >> 8)
	b[82] = 0 // PW4 lo, unused (3-channel max)
	b[83] = 0 // PW4 hi

	b[102] = s.VE

	b[104] = 0 // VSS lo
	b[105] = 0 // VSS hi

	return b
}
