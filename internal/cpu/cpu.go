package cpu

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/irq"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/logger"
)

// CyclesPerStep is the clock cost of one Step: one machine cycle.
const CyclesPerStep = 4

// Bus is the CPU's view of memory.
type Bus interface {
	Read(addr uint16) byte
	Write(addr uint16, v byte)
}

// State is what the engine is doing between machine cycles.
type State int

const (
	Fetching State = iota
	Executing
	Halted
	ServicingInterrupt
)

func (s State) String() string {
	switch s {
	case Fetching:
		return "fetching"
	case Executing:
		return "executing"
	case Halted:
		return "halted"
	case ServicingInterrupt:
		return "servicing interrupt"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ErrMidInstruction is returned by SaveState when an instruction or interrupt
// service is still in flight.
var ErrMidInstruction = errors.New("cpu: not at an instruction boundary")

// DecodeError reports an opcode with no instruction behind it. Execution
// continues as if it were a NOP.
type DecodeError struct {
	PC     uint16
	Opcode byte
}

func (e DecodeError) Error() string {
	return fmt.Sprintf("illegal opcode %02X at %04X", e.Opcode, e.PC)
}

// CPU is the LR35902 execution engine. Each Step is one machine cycle; an
// instruction's cycles after the opcode fetch are queued in the sequencer.
type CPU struct {
	Registers

	IME     bool
	halted  bool
	haltBug bool

	// eiDelay counts instruction ends until IME is set by EI.
	eiDelay int

	servicing bool

	// operand latch for multi-cycle instructions
	lo, hi byte

	seq sequencer
	bus Bus
	irq *irq.Controller

	decodeErrors int
	lastDecode   error
}

func New(b Bus, ic *irq.Controller) *CPU {
	return &CPU{
		Registers: Registers{SP: 0xFFFE},
		bus:       b,
		irq:       ic,
	}
}

// ResetPostBoot loads the DMG register state left behind by the boot ROM.
func (c *CPU) ResetPostBoot() {
	c.Reset()
	c.A = 0x01
	c.F.SetByte(0xB0)
	c.SetBC(0x0013)
	c.SetDE(0x00D8)
	c.SetHL(0x014D)
	c.SP = 0xFFFE
	c.PC = 0x0100
}

// Reset clears every register for a run from the boot ROM.
func (c *CPU) Reset() {
	c.Registers = Registers{}
	c.IME, c.halted, c.haltBug = false, false, false
	c.eiDelay = 0
	c.servicing = false
	c.seq.Reset()
}

func (c *CPU) read8(addr uint16) byte     { return c.bus.Read(addr) }
func (c *CPU) write8(addr uint16, v byte) { c.bus.Write(addr, v) }

func (c *CPU) imm8() byte {
	v := c.read8(c.PC)
	c.PC++
	return v
}

func (c *CPU) latch() uint16 { return uint16(c.hi)<<8 | uint16(c.lo) }

func (c *CPU) State() State {
	switch {
	case c.servicing:
		return ServicingInterrupt
	case c.seq.Len() > 0:
		return Executing
	case c.halted:
		return Halted
	}
	return Fetching
}

// AtBoundary reports whether no instruction or interrupt service is in flight.
func (c *CPU) AtBoundary() bool { return c.seq.Len() == 0 }

func (c *CPU) Halted() bool { return c.halted }

func (c *CPU) DecodeErrors() int { return c.decodeErrors }

// LastDecodeError returns the most recent DecodeError, or nil.
func (c *CPU) LastDecodeError() error { return c.lastDecode }

// Step runs one machine cycle and returns its length in clock cycles. The
// caller advances the rest of the machine by that amount before the next Step.
func (c *CPU) Step() int {
	switch {
	case c.seq.Len() > 0:
		c.seq.Tick(c)
		if c.seq.Len() == 0 {
			c.endInstruction()
		}
	case c.IME && c.irq.Pending() != 0:
		c.beginService()
	case c.halted:
		if c.irq.Pending() == 0 {
			return CyclesPerStep
		}
		c.halted = false
		c.fetch()
	default:
		c.fetch()
	}
	return CyclesPerStep
}

func (c *CPU) fetch() {
	pc := c.PC
	op := c.read8(pc)
	if c.haltBug {
		c.haltBug = false
	} else {
		c.PC++
	}
	if gen := baseTable[op]; gen != nil {
		gen(c)
	} else {
		c.decodeError(DecodeError{PC: pc, Opcode: op})
	}
	if c.seq.Len() == 0 {
		c.endInstruction()
	}
}

func (c *CPU) decodeError(err DecodeError) {
	c.decodeErrors++
	c.lastDecode = err
	logger.Log("cpu", err.Error())
}

// endInstruction runs after the last cycle of an instruction and applies the
// EI delay. Interrupt service does not count as an instruction.
func (c *CPU) endInstruction() {
	if c.servicing {
		c.servicing = false
		return
	}
	if c.eiDelay > 0 {
		c.eiDelay--
		if c.eiDelay == 0 {
			c.IME = true
		}
	}
}

// beginService is the first of the five service cycles: two idle, PC high,
// PC low, then the jump. The vector is taken from the highest-priority bit
// pending now and that bit is acknowledged on the last cycle. A HALT that hit
// the halt bug (EI then HALT with an interrupt pending) returns to itself.
func (c *CPU) beginService() {
	c.servicing = true
	c.IME = false
	c.halted = false
	if c.haltBug {
		c.haltBug = false
		c.PC--
	}
	bit := c.irq.Pending().Highest()
	c.seq.Push(idle, pushPCHi, pushPCLo, func(c *CPU) {
		c.PC = bit.Vector()
		c.irq.Acknowledge(bit)
	})
}

type state struct {
	Regs    Registers
	IME     bool
	Halted  bool
	HaltBug bool
	EIDelay int
}

// SaveState serialises the engine. It fails unless AtBoundary.
func (c *CPU) SaveState() ([]byte, error) {
	if !c.AtBoundary() {
		return nil, ErrMidInstruction
	}
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(state{
		Regs:    c.Registers,
		IME:     c.IME,
		Halted:  c.halted,
		HaltBug: c.haltBug,
		EIDelay: c.eiDelay,
	})
	return buf.Bytes(), err
}

func (c *CPU) LoadState(data []byte) error {
	var s state
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return err
	}
	c.seq.Reset()
	c.servicing = false
	c.Registers = s.Regs
	c.IME, c.halted, c.haltBug, c.eiDelay = s.IME, s.Halted, s.HaltBug, s.EIDelay
	return nil
}
