package protocol

import (
	"encoding/binary"

	"goecu/core"
)

// Response status bytes.
const (
	RespOK             = 0x00
	RespRangeError     = 0x80
	RespCRCError       = 0x82
	RespUnknownCommand = 0x83
	RespBurnOK         = 0x04
)

const (
	cmdLiveData  = 'A'
	cmdTest      = 'C'
	cmdBlockSize = 'f'
	cmdIdent     = 'I'
	cmdFirmware  = 'Q'
	cmdProduct   = 'S'
	cmdProtoVer  = 'F'
	cmdPageRead  = 'p'
	cmdPageWrite = 'M'
	cmdPageCRC   = 'd'
	cmdReadLog   = 'r'
	cmdBurn1     = 'B'
	cmdBurn2     = 'b'
)

// Server binds a Registry to the live engine state it answers from.
type Server struct {
	ECU      *core.ECU
	Calib    *core.Store
	Registry *Registry

	Identifier string
	Firmware   string
	Product    string
	ProtoVer   string

	BlockingFactor      uint16
	TableBlockingFactor uint16

	// OnBurn, if set, runs after a successful Persist so a caller can push
	// the newly-burned page bytes back into the ECU's live config structs.
	OnBurn func() error
}

// NewServer builds a Server with every payload command from §4.9 wired in.
func NewServer(ecu *core.ECU, calib *core.Store) *Server {
	s := &Server{
		ECU:                 ecu,
		Calib:               calib,
		Registry:            NewRegistry(),
		Identifier:          "goecu",
		Firmware:            "goecu 1.0",
		Product:             "goecu",
		ProtoVer:            "1",
		BlockingFactor:      128,
		TableBlockingFactor: 256,
	}

	s.Registry.Register(cmdLiveData, s.handleLiveData)
	s.Registry.Register(cmdTest, s.handleTest)
	s.Registry.Register(cmdBlockSize, s.handleBlockSize)
	s.Registry.Register(cmdIdent, s.handleIdent)
	s.Registry.Register(cmdFirmware, s.handleFirmware)
	s.Registry.Register(cmdProduct, s.handleProduct)
	s.Registry.Register(cmdProtoVer, s.handleProtoVer)
	s.Registry.Register(cmdPageRead, s.handlePageRead)
	s.Registry.Register(cmdPageWrite, s.handlePageWrite)
	s.Registry.Register(cmdPageCRC, s.handlePageCRC)
	s.Registry.Register(cmdReadLog, s.handleReadLog)
	s.Registry.Register(cmdBurn1, s.handleBurn)
	s.Registry.Register(cmdBurn2, s.handleBurn)

	return s
}

func (s *Server) handleLiveData(_ []byte) []byte {
	ld := EncodeLiveData(&s.ECU.Status)
	resp := make([]byte, 0, 2+LiveDataSize)
	resp = append(resp, RespOK, 0x00)
	resp = append(resp, ld[:]...)
	return resp
}

func (s *Server) handleTest(_ []byte) []byte {
	return []byte{0x00, 0xFF}
}

func (s *Server) handleBlockSize(_ []byte) []byte {
	resp := make([]byte, 6)
	resp[0] = RespOK
	resp[1] = 2
	binary.BigEndian.PutUint16(resp[2:4], s.BlockingFactor)
	binary.BigEndian.PutUint16(resp[4:6], s.TableBlockingFactor)
	return resp
}

func (s *Server) handleIdent(_ []byte) []byte {
	return appendText(RespOK, s.Identifier)
}

func (s *Server) handleFirmware(_ []byte) []byte {
	return appendText(RespOK, s.Firmware)
}

func (s *Server) handleProduct(_ []byte) []byte {
	return appendText(RespOK, s.Product)
}

func (s *Server) handleProtoVer(_ []byte) []byte {
	return appendText(RespOK, s.ProtoVer)
}

func appendText(status byte, text string) []byte {
	out := make([]byte, 0, 1+len(text))
	out = append(out, status)
	out = append(out, text...)
	return out
}

// pageRequestHeaderLen is the shared prefix of p/M/d requests: command
// byte, two reserved/unused bytes, then the page index.
const pageRequestHeaderLen = 4

func (s *Server) handlePageRead(payload []byte) []byte {
	if len(payload) < pageRequestHeaderLen+4 {
		return []byte{RespRangeError}
	}
	page := payload[3]
	offset := binary.LittleEndian.Uint16(payload[4:6])
	length := binary.LittleEndian.Uint16(payload[6:8])

	data, err := s.Calib.Read(page, offset, length)
	if err != nil {
		return []byte{RespRangeError}
	}
	resp := make([]byte, 0, 1+len(data))
	resp = append(resp, RespOK)
	resp = append(resp, data...)
	return resp
}

func (s *Server) handlePageWrite(payload []byte) []byte {
	if len(payload) < pageRequestHeaderLen+4 {
		return []byte{RespRangeError}
	}
	page := payload[3]
	offset := binary.LittleEndian.Uint16(payload[4:6])
	length := binary.LittleEndian.Uint16(payload[6:8])

	if uint32(8+length) > uint32(len(payload)) {
		return []byte{RespRangeError}
	}
	data := payload[8 : 8+length]

	if err := s.Calib.Write(page, offset, data); err != nil {
		return []byte{RespRangeError}
	}
	return []byte{RespOK}
}

func (s *Server) handlePageCRC(payload []byte) []byte {
	if len(payload) < pageRequestHeaderLen {
		return []byte{RespRangeError}
	}
	page := payload[3]

	raw, err := s.Calib.PageBytes(page)
	if err != nil {
		return []byte{RespRangeError}
	}
	crc := CRC32(raw)
	wire := ReverseBytes32(crc)

	resp := make([]byte, 5)
	resp[0] = RespOK
	binary.LittleEndian.PutUint32(resp[1:], wire)
	return resp
}

func (s *Server) handleReadLog(payload []byte) []byte {
	const subcmdLiveData = 0x30
	if len(payload) < 8 || payload[3] != subcmdLiveData {
		return []byte{RespRangeError}
	}
	offset := binary.LittleEndian.Uint16(payload[4:6])
	length := binary.LittleEndian.Uint16(payload[6:8])

	ld := EncodeLiveData(&s.ECU.Status)
	if uint32(offset)+uint32(length) > LiveDataSize {
		return []byte{RespRangeError}
	}

	resp := make([]byte, 0, 1+length)
	resp = append(resp, RespOK)
	resp = append(resp, ld[offset:offset+length]...)
	return resp
}

func (s *Server) handleBurn(_ []byte) []byte {
	if err := s.Calib.Persist(); err != nil {
		return []byte{RespRangeError}
	}
	if s.OnBurn != nil {
		if err := s.OnBurn(); err != nil {
			return []byte{RespRangeError}
		}
	}
	return []byte{RespBurnOK}
}
