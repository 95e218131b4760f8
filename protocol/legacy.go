package protocol

// LegacyDispatch answers a single-byte legacy command with its immediate,
// unframed response. Unlike the modern framing, legacy responses are raw
// text or raw bytes with no length prefix or CRC.
func (s *Server) LegacyDispatch(cmd byte) []byte {
	switch cmd {
	case 'A':
		ld := EncodeLiveData(&s.ECU.Status)
		return append([]byte{0x00}, ld[:]...)
	case 'Q':
		return []byte(s.Firmware)
	case 'S':
		return []byte(s.Product)
	case 'I':
		return []byte(s.Identifier)
	case 'F':
		return []byte(s.ProtoVer)
	case 'C':
		return []byte{0x00, 0xFF}
	case 'B', 'b':
		return s.handleBurn(nil)
	case 'c':
		return []byte{0, 0} // loops-per-second, placeholder
	case 'm':
		return []byte{0, 0} // free-memory, placeholder
	case 'N':
		return []byte{'\n'}
	default:
		return nil
	}
}
