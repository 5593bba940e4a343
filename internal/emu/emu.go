package emu

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/bus"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/cart"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/cpu"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/joypad"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/logger"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/ppu"
)

// FrameCycles is the clock budget of one StepFrame.
const FrameCycles = ppu.FrameCycles

var (
	ErrNoCartridge   = errors.New("emu: no cartridge loaded")
	ErrStateMismatch = errors.New("emu: save state belongs to a different ROM")
)

type Buttons struct {
	A, B, Start, Select   bool
	Up, Down, Left, Right bool
}

func (b Buttons) mask() joypad.Button {
	var m joypad.Button
	for _, k := range []struct {
		on  bool
		bit joypad.Button
	}{
		{b.Right, joypad.Right}, {b.Left, joypad.Left}, {b.Up, joypad.Up}, {b.Down, joypad.Down},
		{b.A, joypad.A}, {b.B, joypad.B}, {b.Select, joypad.Select}, {b.Start, joypad.Start},
	} {
		if k.on {
			m |= k.bit
		}
	}
	return m
}

// Machine ties the CPU to the bus. The CPU drives: every machine cycle it
// runs is applied to DMA, timer and display before the next one.
type Machine struct {
	cfg Config

	bus    *bus.Bus
	cpu    *cpu.CPU
	cart   cart.Cartridge
	header *cart.Header

	romPath string
	bootROM []byte

	onFrame ppu.FrameHandler
	serial  io.Writer

	cycles uint64
	// cycles already run past the previous frame budget
	carry int
}

func New(cfg Config) *Machine {
	return &Machine{cfg: cfg}
}

func (m *Machine) Config() Config { return m.cfg }

// LoadCartridge builds a fresh bus and CPU around rom. A boot image of at least
// 256 bytes is mapped over 0x0000 and execution starts there; otherwise the
// machine starts at 0x0100 in the post-boot state. An image too short for a
// header still loads as ROM-only with an empty Header.
func (m *Machine) LoadCartridge(rom []byte, boot []byte) error {
	m.cart = cart.New(rom)
	h, err := cart.ParseHeader(rom)
	if err != nil {
		h = &cart.Header{}
	}
	m.header = h

	b := bus.New(m.cart)
	b.SetSerialWriter(m.serial)
	b.PPU().SetFrameHandler(m.onFrame)
	m.bus = b
	m.cpu = cpu.New(b, b.Interrupts())
	m.cycles, m.carry = 0, 0

	m.bootROM = nil
	if len(boot) >= 0x100 {
		m.bootROM = make([]byte, 0x100)
		copy(m.bootROM, boot[:0x100])
	}
	if m.bootROM != nil {
		m.ResetWithBoot()
	} else {
		m.ResetPostBoot()
	}
	logger.Logf("emu", "loaded %q: %s, %d ROM banks, %d bytes RAM", h.Title, h.CartTypeStr, h.ROMBanks, h.RAMSizeBytes)
	return nil
}

// LoadROMFromFile replaces the current cartridge with a ROM from disk,
// preserving the boot ROM setting.
func (m *Machine) LoadROMFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := m.LoadCartridge(data, m.bootROM); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	m.romPath = path
	return nil
}

// ROMPath returns the currently loaded ROM file path, if any.
func (m *Machine) ROMPath() string { return m.romPath }

func (m *Machine) Header() *cart.Header { return m.header }

// SetBootROM sets the boot ROM used by later loads and ResetWithBoot.
func (m *Machine) SetBootROM(data []byte) {
	m.bootROM = nil
	if len(data) >= 0x100 {
		m.bootROM = make([]byte, 0x100)
		copy(m.bootROM, data[:0x100])
	}
}

func (m *Machine) HasBootROM() bool { return m.bootROM != nil }

// ResetPostBoot restarts at 0x0100 with the registers and IO the DMG boot ROM
// leaves behind, keeping the loaded cartridge.
func (m *Machine) ResetPostBoot() {
	if m.cpu == nil {
		return
	}
	m.cpu.ResetPostBoot()
	m.bus.Write(0xFF50, 0x01)
	m.applyDMGPostBootIO()
}

// ResetWithBoot re-enables the boot ROM and restarts from 0x0000. Without a
// boot ROM it falls back to ResetPostBoot.
func (m *Machine) ResetWithBoot() {
	if m.cpu == nil {
		return
	}
	if m.bootROM == nil {
		m.ResetPostBoot()
		return
	}
	m.bus.Write(0xFF40, 0x00)
	m.bus.SetBootROM(m.bootROM)
	m.cpu.Reset()
}

func (m *Machine) applyDMGPostBootIO() {
	b := m.bus
	b.Write(0xFF00, 0xCF)
	b.Write(0xFF05, 0x00) // TIMA
	b.Write(0xFF06, 0x00) // TMA
	b.Write(0xFF07, 0x00) // TAC
	b.Write(0xFF40, 0x91) // LCD and BG on, tile data 8000, map 9800
	b.Write(0xFF41, 0x00)
	b.Write(0xFF42, 0x00) // SCY
	b.Write(0xFF43, 0x00) // SCX
	b.Write(0xFF45, 0x00) // LYC
	b.Write(0xFF47, 0xFC) // BGP
	b.Write(0xFF48, 0xFF) // OBP0
	b.Write(0xFF49, 0xFF) // OBP1
	b.Write(0xFF4A, 0x00) // WY
	b.Write(0xFF4B, 0x00) // WX
	b.Write(0xFFFF, 0x00)
	b.Write(0xFF0F, 0x01)
	b.Timer().SetCounter(0xABCC)
}

// Step runs one machine cycle and advances the rest of the machine by the
// same amount.
func (m *Machine) Step() int {
	if m.cfg.Trace && m.cpu.AtBoundary() {
		r := m.cpu.Registers
		logger.Logf("trace", "PC=%04X op=%02X AF=%04X BC=%04X DE=%04X HL=%04X SP=%04X",
			r.PC, m.bus.Read(r.PC), r.AF(), r.BC(), r.DE(), r.HL(), r.SP)
	}
	cycles := m.cpu.Step()
	m.bus.Tick(cycles)
	m.cycles += uint64(cycles)
	return cycles
}

// StepFrame runs one frame's worth of clock cycles. Cycles run past the
// budget are charged to the next frame.
func (m *Machine) StepFrame() error {
	if m.cpu == nil {
		return ErrNoCartridge
	}
	target := FrameCycles - m.carry
	acc := 0
	for acc < target {
		acc += m.Step()
	}
	m.carry = acc - target
	return nil
}

// StepInstruction runs machine cycles until the CPU reaches the next
// instruction boundary and returns the clock cycles used.
func (m *Machine) StepInstruction() (int, error) {
	if m.cpu == nil {
		return 0, ErrNoCartridge
	}
	n := m.Step()
	for !m.cpu.AtBoundary() {
		n += m.Step()
	}
	return n, nil
}

func (m *Machine) Cycles() uint64 { return m.cycles }

// Framebuffer returns the last completed 160x144 ARGB frame, or nil before a
// cartridge is loaded.
func (m *Machine) Framebuffer() []uint32 {
	if m.bus == nil {
		return nil
	}
	return m.bus.PPU().Framebuffer()
}

// SetFrameHandler registers the VBlank callback. It survives cartridge loads.
func (m *Machine) SetFrameHandler(h ppu.FrameHandler) {
	m.onFrame = h
	if m.bus != nil {
		m.bus.PPU().SetFrameHandler(h)
	}
}

// SetSerialWriter connects an io.Writer to receive bytes written to the serial
// port. Test ROMs report through it. It survives cartridge loads.
func (m *Machine) SetSerialWriter(w io.Writer) {
	m.serial = w
	if m.bus != nil {
		m.bus.SetSerialWriter(w)
	}
}

func (m *Machine) SetButtons(b Buttons) { m.SetButtonMask(b.mask()) }

// SetButtonMask replaces the pressed set with a joypad bitmask.
func (m *Machine) SetButtonMask(b joypad.Button) {
	if m.bus == nil {
		return
	}
	m.bus.SetButtons(b)
}

// CPU and Bus expose the core for debugging tools.
func (m *Machine) CPU() *cpu.CPU { return m.cpu }
func (m *Machine) Bus() *bus.Bus { return m.bus }

// HasBattery reports whether the cartridge header declares battery-backed RAM.
func (m *Machine) HasBattery() bool { return m.header != nil && m.header.Battery }

// SaveBattery returns a copy of the external RAM if the cartridge has any.
// The file IO is left to the caller.
func (m *Machine) SaveBattery() ([]byte, bool) {
	bb, ok := m.cart.(cart.BatteryBacked)
	if !ok {
		return nil, false
	}
	data := bb.SaveRAM()
	return data, len(data) > 0
}

// LoadBattery loads external RAM bytes into the cartridge if supported.
func (m *Machine) LoadBattery(data []byte) bool {
	bb, ok := m.cart.(cart.BatteryBacked)
	if !ok {
		return false
	}
	bb.LoadRAM(data)
	return true
}

type machineState struct {
	Title  string
	Cycles uint64
	Carry  int
	CPU    []byte
	Bus    []byte
	Cart   []byte
}

// SaveState finishes the instruction in flight and serialises the machine.
func (m *Machine) SaveState() ([]byte, error) {
	if m.cpu == nil {
		return nil, ErrNoCartridge
	}
	for !m.cpu.AtBoundary() {
		m.Step()
	}
	cs, err := m.cpu.SaveState()
	if err != nil {
		return nil, err
	}
	s := machineState{
		Title:  m.header.Title,
		Cycles: m.cycles,
		Carry:  m.carry,
		CPU:    cs,
		Bus:    m.bus.SaveState(),
	}
	if st, ok := m.cart.(cart.Stateful); ok {
		s.Cart = st.SaveState()
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (m *Machine) LoadState(data []byte) error {
	if m.cpu == nil {
		return ErrNoCartridge
	}
	var s machineState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return err
	}
	if s.Title != m.header.Title {
		return fmt.Errorf("%w: state %q, loaded %q", ErrStateMismatch, s.Title, m.header.Title)
	}
	if err := m.cpu.LoadState(s.CPU); err != nil {
		return err
	}
	if err := m.bus.LoadState(s.Bus); err != nil {
		return err
	}
	if st, ok := m.cart.(cart.Stateful); ok && s.Cart != nil {
		if err := st.LoadState(s.Cart); err != nil {
			return err
		}
	}
	m.cycles, m.carry = s.Cycles, s.Carry
	return nil
}

func (m *Machine) SaveStateToFile(path string) error {
	data, err := m.SaveState()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (m *Machine) LoadStateFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return m.LoadState(data)
}
