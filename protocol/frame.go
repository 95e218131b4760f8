package protocol

import (
	"encoding/binary"

	"goecu/core"
)

// ReceiveBufferSize bounds the modern-frame receiver per §6: maximum
// payload is ReceiveBufferSize-6 (2-byte length prefix + 4-byte CRC).
const ReceiveBufferSize = 64

const frameOverheadBytes = 6 // 2-byte length + 4-byte CRC32

// Receiver accumulates bytes of the modern length+payload+CRC32 framing
// and dispatches complete, CRC-valid frames to a Registry. An oversized
// length resets the receiver silently, with no reply - it is not a
// protocol error, just garbage to discard.
type Receiver struct {
	buf []byte
}

// NewReceiver returns an empty frame receiver.
func NewReceiver() *Receiver {
	return &Receiver{buf: make([]byte, 0, ReceiveBufferSize)}
}

// Feed appends incoming bytes and returns any response frames produced by
// complete messages extracted from the buffer, encoded ready for the wire.
func (r *Receiver) Feed(data []byte, reg *Registry) [][]byte {
	r.buf = append(r.buf, data...)

	var responses [][]byte
	for {
		if len(r.buf) < 2 {
			break
		}
		length := binary.BigEndian.Uint16(r.buf[0:2])
		if int(length) > ReceiveBufferSize-frameOverheadBytes {
			// Oversized length: reset the receiver without reply.
			r.buf = r.buf[:0]
			break
		}
		total := 2 + int(length) + 4
		if len(r.buf) < total {
			break // wait for more bytes
		}

		payload := r.buf[2 : 2+int(length)]
		frameCRC := binary.BigEndian.Uint32(r.buf[2+int(length) : total])
		r.buf = r.buf[total:]

		if CRC32(payload) != frameCRC {
			core.RecordDiag(core.EvtCRCError, 0, core.GetHWTicks(), frameCRC)
			responses = append(responses, EncodeFrame([]byte{RespCRCError}))
			continue
		}

		resp := reg.Dispatch(payload)
		responses = append(responses, EncodeFrame(resp))
	}
	return responses
}

// EncodeFrame wraps payload in the modern [length][payload][crc32] shape.
func EncodeFrame(payload []byte) []byte {
	out := make([]byte, 2+len(payload)+4)
	binary.BigEndian.PutUint16(out[0:2], uint16(len(payload)))
	copy(out[2:], payload)
	binary.BigEndian.PutUint32(out[2+len(payload):], CRC32(payload))
	return out
}

// IsModernFrame reports whether the first received byte selects the
// modern framing (outside printable ASCII 'A'..'z') rather than a legacy
// single-byte command.
func IsModernFrame(first byte) bool {
	return first < 'A' || first > 'z'
}
