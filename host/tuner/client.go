// Package tuner implements the host side of the ECU's dual-framing tuner
// protocol: modern length+payload+CRC32 frames for calibration transfer,
// and single-byte legacy commands for quick live-data polling.
package tuner

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"goecu/host/serial"
	"goecu/protocol"
)

// Client is a connection to an ECU's tuner endpoint over a serial port.
type Client struct {
	port      serial.Port
	connected bool
}

// NewClient returns a Client that is not yet connected.
func NewClient() *Client {
	return &Client{}
}

// Connect opens the serial port at device with the default tuner baud rate.
func (c *Client) Connect(device string) error {
	return c.ConnectWithConfig(&serial.Config{Device: device, Baud: 115200, ReadTimeout: 200})
}

// ConnectWithConfig opens the serial port with a caller-supplied configuration.
func (c *Client) ConnectWithConfig(cfg *serial.Config) error {
	port, err := serial.Open(cfg)
	if err != nil {
		return fmt.Errorf("open serial port: %w", err)
	}
	c.port = port
	c.connected = true
	// Give the target time to finish its own reset/init if it just powered on.
	time.Sleep(100 * time.Millisecond)
	return nil
}

// Close closes the underlying serial port.
func (c *Client) Close() error {
	if c.port == nil {
		return nil
	}
	c.connected = false
	return c.port.Close()
}

// IsConnected reports whether Connect has succeeded and Close has not been called since.
func (c *Client) IsConnected() bool {
	return c.connected
}

// SendFrame sends payload as a modern length+payload+CRC32 frame and
// returns the decoded response payload, with its leading status byte
// still attached.
func (c *Client) SendFrame(payload []byte) ([]byte, error) {
	if !c.connected {
		return nil, fmt.Errorf("not connected")
	}
	if _, err := c.port.Write(protocol.EncodeFrame(payload)); err != nil {
		return nil, fmt.Errorf("write frame: %w", err)
	}

	header := make([]byte, 2)
	if _, err := io.ReadFull(c.port, header); err != nil {
		return nil, fmt.Errorf("read frame length: %w", err)
	}
	length := binary.BigEndian.Uint16(header)

	body := make([]byte, int(length)+4)
	if _, err := io.ReadFull(c.port, body); err != nil {
		return nil, fmt.Errorf("read frame body: %w", err)
	}
	resp := body[:length]
	wireCRC := binary.BigEndian.Uint32(body[length:])
	if protocol.CRC32(resp) != wireCRC {
		return nil, fmt.Errorf("frame CRC mismatch")
	}
	if len(resp) > 0 && resp[0] == protocol.RespUnknownCommand {
		return nil, fmt.Errorf("unknown command")
	}
	if len(resp) > 0 && resp[0] == protocol.RespRangeError {
		return nil, fmt.Errorf("range error")
	}
	return resp, nil
}

// sendLegacy writes a single legacy command byte and reads exactly n
// response bytes, for commands whose reply length is fixed.
func (c *Client) sendLegacy(cmd byte, n int) ([]byte, error) {
	if !c.connected {
		return nil, fmt.Errorf("not connected")
	}
	if _, err := c.port.Write([]byte{cmd}); err != nil {
		return nil, fmt.Errorf("write command: %w", err)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.port, buf); err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return buf, nil
}

// readText accumulates bytes from the port until a read times out, for
// legacy commands whose reply is a variable-length string with no
// length prefix. Relies on the port's configured read timeout.
func (c *Client) readText() (string, error) {
	var out []byte
	chunk := make([]byte, 64)
	for {
		n, err := c.port.Read(chunk)
		if n > 0 {
			out = append(out, chunk[:n]...)
			continue
		}
		if err != nil && err != io.EOF {
			return string(out), err
		}
		break
	}
	return string(out), nil
}

// LiveData fetches one live-data snapshot via the legacy 'A' command, whose
// reply is a 0x00 offset byte followed by the live-data packet.
func (c *Client) LiveData() ([protocol.LiveDataSize]byte, error) {
	var out [protocol.LiveDataSize]byte
	if !c.connected {
		return out, fmt.Errorf("not connected")
	}
	buf, err := c.sendLegacy('A', protocol.LiveDataSize+1)
	if err != nil {
		return out, err
	}
	copy(out[:], buf[1:])
	return out, nil
}

// Identify requests the ECU's identifier string via the legacy 'I' command.
func (c *Client) Identify() (string, error) {
	if !c.connected {
		return "", fmt.Errorf("not connected")
	}
	if _, err := c.port.Write([]byte{'I'}); err != nil {
		return "", fmt.Errorf("write command: %w", err)
	}
	return c.readText()
}

func pageRequest(cmd byte, page uint8, offset, length uint16) []byte {
	req := make([]byte, 8)
	req[0] = cmd
	req[3] = page
	binary.LittleEndian.PutUint16(req[4:6], offset)
	binary.LittleEndian.PutUint16(req[6:8], length)
	return req
}

// ReadPage reads length bytes at offset from calibration page.
func (c *Client) ReadPage(page uint8, offset, length uint16) ([]byte, error) {
	resp, err := c.SendFrame(pageRequest('p', page, offset, length))
	if err != nil {
		return nil, err
	}
	if len(resp) < 1 || resp[0] != protocol.RespOK {
		return nil, fmt.Errorf("page read failed: status %#x", resp[0])
	}
	return resp[1:], nil
}

// WritePage writes data at offset into calibration page.
func (c *Client) WritePage(page uint8, offset uint16, data []byte) error {
	req := pageRequest('M', page, offset, uint16(len(data)))
	req = append(req, data...)
	resp, err := c.SendFrame(req)
	if err != nil {
		return err
	}
	if len(resp) < 1 || resp[0] != protocol.RespOK {
		return fmt.Errorf("page write failed: status %#x", resp[0])
	}
	return nil
}

// PageCRC returns the checksum the ECU computes over the full raw bytes
// of a calibration page, as sent on the wire (byte-reversed).
func (c *Client) PageCRC(page uint8) (uint32, error) {
	resp, err := c.SendFrame(pageRequest('d', page, 0, 0))
	if err != nil {
		return 0, err
	}
	if len(resp) < 5 || resp[0] != protocol.RespOK {
		return 0, fmt.Errorf("page CRC failed")
	}
	return binary.LittleEndian.Uint32(resp[1:5]), nil
}

// Burn asks the ECU to persist its calibration store to non-volatile memory.
func (c *Client) Burn() error {
	resp, err := c.SendFrame([]byte{'B', 0, 0, 0})
	if err != nil {
		return err
	}
	if len(resp) < 1 || resp[0] != protocol.RespBurnOK {
		return fmt.Errorf("burn failed: status %#x", resp[0])
	}
	return nil
}
