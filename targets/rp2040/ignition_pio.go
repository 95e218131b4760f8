//go:build rp2040

package main

import (
	"fmt"

	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// buildIgnitionProgram assembles a single-channel dwell/spark program: pull
// a 32-bit dwell cycle count, drive the coil pin high (begin charge), count
// down, then drive it low (fire the spark). Unlike the main-loop-polled
// ignition schedule in core/ignition_schedule.go, the PIO state machine
// holds the dwell interval entirely in hardware once armed, so neither
// jitter nor a missed MainLoopTick can stretch or shorten it.
func buildIgnitionProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Pull(false, true).Encode(),            // 0: pull block
		asm.Out(rp2pio.OutDestX, 32).Encode(),      // 1: out x, 32 (dwell cycles)
		asm.Set(rp2pio.SetDestPins, 1).Encode(),    // 2: set pins, 1 (begin charge)
		asm.Jmp(3, rp2pio.JmpXNZeroDec).Encode(),   // 3: jmp x--, 3 (hold through dwell)
		asm.Set(rp2pio.SetDestPins, 0).Encode(),    // 4: set pins, 0 (fire)
		// .wrap
	}
}

const ignitionPIOOrigin = 0

// PIOIgnitionBackend drives one ignition coil's dwell/fire cycle entirely
// from a PIO state machine, as an alternative to the timer-scheduled path
// in core/ignition_schedule.go for targets with spare PIO state machines
// but few hardware timer compare channels.
type PIOIgnitionBackend struct {
	pio     *rp2pio.PIO
	sm      rp2pio.StateMachine
	coilPin machine.Pin
	offset  uint8
}

// NewPIOIgnitionBackend returns a backend bound to one PIO block/state
// machine pair. Two independent backends (e.g. PIO0/SM0 and PIO0/SM1)
// cover the two ignition channels a typical four-cylinder coil pack needs.
func NewPIOIgnitionBackend(pioNum, smNum uint8) *PIOIgnitionBackend {
	var pioHW *rp2pio.PIO
	if pioNum == 0 {
		pioHW = rp2pio.PIO0
	} else {
		pioHW = rp2pio.PIO1
	}
	return &PIOIgnitionBackend{pio: pioHW, sm: pioHW.StateMachine(smNum)}
}

// Init loads the dwell/spark program and starts the state machine idling
// with the coil pin low.
func (b *PIOIgnitionBackend) Init(coilPin uint8) error {
	b.coilPin = machine.Pin(coilPin)
	b.sm.TryClaim()

	program := buildIgnitionProgram()
	offset, err := b.pio.AddProgram(program, ignitionPIOOrigin)
	if err != nil {
		return fmt.Errorf("ignition_pio: load program: %w", err)
	}
	b.offset = offset

	b.coilPin.Configure(machine.PinConfig{Mode: b.pio.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSetPins(b.coilPin, 1)
	cfg.SetOutShift(true, false, 32)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)
	// 1MHz state-machine clock (125MHz sys clock / 125): one dwell_loop
	// decrement per microsecond, so the queued count is a microsecond count.
	cfg.SetClkDivIntFrac(125, 0)

	b.sm.Init(offset, cfg)
	b.sm.SetPindirsConsecutive(b.coilPin, 1, true)
	b.sm.SetPinsConsecutive(b.coilPin, 1, false)
	b.sm.SetEnabled(true)

	return nil
}

// Fire arms one dwell/spark cycle lasting dwellUS microseconds. It does not
// block; the PIO program runs the whole sequence once the word reaches the
// FIFO.
func (b *PIOIgnitionBackend) Fire(dwellUS uint32) {
	for b.sm.IsTxFIFOFull() {
	}
	b.sm.TxPut(dwellUS)
}

// Abort forces the coil pin low immediately and resets the state machine,
// for protection cuts that must not wait for a queued dwell to finish.
func (b *PIOIgnitionBackend) Abort() {
	b.sm.SetEnabled(false)
	b.sm.ClearFIFOs()
	b.sm.SetPinsConsecutive(b.coilPin, 1, false)
	b.sm.Restart()
	b.sm.SetEnabled(true)
}
