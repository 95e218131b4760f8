package protocol

import "testing"

// bitwiseCRC32 is a slow, textbook reference implementation of IEEE 802.3
// CRC-32, checked bit-by-bit against the standard library's table-driven
// hash/crc32 to validate CRC32 does what the wire format expects.
func bitwiseCRC32(data []byte) uint32 {
	crc := uint32(0xFFFFFFFF)
	for _, b := range data {
		crc ^= uint32(b)
		for i := 0; i < 8; i++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ 0xEDB88320
			} else {
				crc >>= 1
			}
		}
	}
	return crc ^ 0xFFFFFFFF
}

func TestCRC32MatchesBitwiseReference(t *testing.T) {
	cases := [][]byte{
		nil,
		[]byte{},
		[]byte("A"),
		[]byte("123456789"),
		[]byte{0x00, 0x00, 0x00, 0x00},
		[]byte{0xFF, 0xFF, 0xFF, 0xFF},
		make([]byte, 288),
	}
	for _, c := range cases {
		got := CRC32(c)
		want := bitwiseCRC32(c)
		if got != want {
			t.Errorf("CRC32(%v) = %#x, want %#x", c, got, want)
		}
	}
}

func TestCRC32KnownVector(t *testing.T) {
	// "123456789" is the standard CRC-32/ISO-HDLC check vector.
	got := CRC32([]byte("123456789"))
	const want = 0xCBF43926
	if got != want {
		t.Errorf("CRC32(\"123456789\") = %#x, want %#x", got, want)
	}
}

func TestReverseBytes32(t *testing.T) {
	got := ReverseBytes32(0x12345678)
	want := uint32(0x78563412)
	if got != want {
		t.Errorf("ReverseBytes32(0x12345678) = %#x, want %#x", got, want)
	}
}

func TestReverseBytes32Involution(t *testing.T) {
	v := uint32(0xDEADBEEF)
	if ReverseBytes32(ReverseBytes32(v)) != v {
		t.Errorf("ReverseBytes32 is not its own inverse for %#x", v)
	}
}
