package protocol

import (
	"encoding/binary"
	"testing"

	"goecu/core"
)

func testStore() *core.Store {
	store := core.NewStore()
	store.AddPage(&core.Page{
		Index: 1,
		Kind:  core.PageKindStruct,
		Size:  16,
		Struct: []byte{
			0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
			0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F, 0x10,
		},
	})
	return store
}

func testServer() *Server {
	ecu := core.NewECU(core.PatternMissingTooth, 36, 1, 1)
	ecu.Status.RPM = 2500
	ecu.Status.HasSync = true
	return NewServer(ecu, testStore())
}

func TestHandleIdent(t *testing.T) {
	s := testServer()
	resp := s.Registry.Dispatch([]byte{cmdIdent})
	if resp[0] != RespOK {
		t.Fatalf("status = %#x, want RespOK", resp[0])
	}
	if string(resp[1:]) != s.Identifier {
		t.Errorf("ident = %q, want %q", resp[1:], s.Identifier)
	}
}

func TestHandleLiveData(t *testing.T) {
	s := testServer()
	resp := s.Registry.Dispatch([]byte{cmdLiveData})
	if resp[0] != RespOK {
		t.Fatalf("status = %#x, want RespOK", resp[0])
	}
	payload := resp[2:]
	if len(payload) != LiveDataSize {
		t.Fatalf("payload len = %d, want %d", len(payload), LiveDataSize)
	}
	rpm := uint16(payload[14]) | uint16(payload[15])<<8
	if rpm != 2500 {
		t.Errorf("RPM in live data = %d, want 2500", rpm)
	}
}

func TestHandlePageReadWriteRoundTrip(t *testing.T) {
	s := testServer()

	writePayload := []byte{cmdPageWrite, 0, 0, 1, 2, 0, 3, 0, 0xAA, 0xBB, 0xCC}
	resp := s.Registry.Dispatch(writePayload)
	if resp[0] != RespOK {
		t.Fatalf("write status = %#x, want RespOK", resp[0])
	}

	readPayload := make([]byte, 8)
	readPayload[0] = cmdPageRead
	readPayload[3] = 1
	binary.LittleEndian.PutUint16(readPayload[4:6], 2)
	binary.LittleEndian.PutUint16(readPayload[6:8], 3)

	resp = s.Registry.Dispatch(readPayload)
	if resp[0] != RespOK {
		t.Fatalf("read status = %#x, want RespOK", resp[0])
	}
	got := resp[1:]
	want := []byte{0xAA, 0xBB, 0xCC}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("byte %d = %#x, want %#x", i, got[i], want[i])
		}
	}
}

func TestHandlePageReadOutOfRange(t *testing.T) {
	s := testServer()
	payload := make([]byte, 8)
	payload[0] = cmdPageRead
	payload[3] = 1
	binary.LittleEndian.PutUint16(payload[4:6], 10)
	binary.LittleEndian.PutUint16(payload[6:8], 100)

	resp := s.Registry.Dispatch(payload)
	if resp[0] != RespRangeError {
		t.Errorf("status = %#x, want RespRangeError", resp[0])
	}
}

func TestHandlePageCRC(t *testing.T) {
	s := testServer()
	payload := make([]byte, pageRequestHeaderLen)
	payload[0] = cmdPageCRC
	payload[3] = 1

	resp := s.Registry.Dispatch(payload)
	if resp[0] != RespOK {
		t.Fatalf("status = %#x, want RespOK", resp[0])
	}
	raw, err := s.Calib.PageBytes(1)
	if err != nil {
		t.Fatalf("PageBytes: %v", err)
	}
	want := ReverseBytes32(CRC32(raw))
	got := binary.LittleEndian.Uint32(resp[1:])
	if got != want {
		t.Errorf("crc = %#x, want %#x", got, want)
	}
}

func TestHandleUnknownPage(t *testing.T) {
	s := testServer()
	payload := make([]byte, pageRequestHeaderLen)
	payload[0] = cmdPageCRC
	payload[3] = 99

	resp := s.Registry.Dispatch(payload)
	if resp[0] != RespRangeError {
		t.Errorf("status = %#x, want RespRangeError", resp[0])
	}
}

func TestHandleBurnNoopWithoutDriver(t *testing.T) {
	s := testServer()
	resp := s.Registry.Dispatch([]byte{cmdBurn1})
	if resp[0] != RespBurnOK {
		t.Errorf("status = %#x, want RespBurnOK", resp[0])
	}
}

func TestLegacyDispatchLiveData(t *testing.T) {
	s := testServer()
	resp := s.LegacyDispatch('A')
	if len(resp) != LiveDataSize+1 {
		t.Fatalf("len = %d, want %d", len(resp), LiveDataSize+1)
	}
	if resp[0] != 0x00 {
		t.Fatalf("offset byte = %#x, want 0x00", resp[0])
	}
}

func TestLegacyDispatchUnknown(t *testing.T) {
	s := testServer()
	if resp := s.LegacyDispatch(0x01); resp != nil {
		t.Errorf("resp = %v, want nil", resp)
	}
}
