package cart

import (
	"bytes"
	"encoding/gob"
)

const (
	romBankSize = 0x4000
	ramBankSize = 0x2000
)

// MBC1 implements MBC1 ROM/RAM banking.
type MBC1 struct {
	rom []byte
	ram []byte

	romBanks int
	ramBanks int

	ramEnabled bool
	low        byte // 5-bit ROM bank register, a written 0 reads as 1
	high       byte // 2-bit ROM bank extension or RAM bank
	mode       byte // 0: large ROM, 1: large RAM
}

func NewMBC1(rom []byte, ramSize int) *MBC1 {
	m := &MBC1{rom: rom, low: 1}
	m.romBanks = len(rom) / romBankSize
	if m.romBanks < 1 {
		m.romBanks = 1
	}
	if ramSize > 0 {
		m.ram = make([]byte, ramSize)
		m.ramBanks = ramSize / ramBankSize
		if m.ramBanks < 1 {
			m.ramBanks = 1
		}
	}
	return m
}

// fixedBank is the bank mapped at 0x0000–0x3FFF.
func (m *MBC1) fixedBank() int {
	if m.mode == 0 {
		return 0
	}
	return (int(m.high) << 5) % m.romBanks
}

// switchableBank is the bank mapped at 0x4000–0x7FFF.
func (m *MBC1) switchableBank() int {
	bank := (int(m.high)<<5 | int(m.low)) % m.romBanks
	if bank == 0 && m.romBanks > 1 {
		bank = 1
	}
	return bank
}

func (m *MBC1) ramBank() int {
	if m.mode == 0 || m.ramBanks == 0 {
		return 0
	}
	return int(m.high) % m.ramBanks
}

func (m *MBC1) romByte(bank int, off uint16) byte {
	i := bank*romBankSize + int(off)
	if i < len(m.rom) {
		return m.rom[i]
	}
	return 0xFF
}

func (m *MBC1) ReadROM(addr uint16) byte {
	if addr < 0x4000 {
		return m.romByte(m.fixedBank(), addr)
	}
	return m.romByte(m.switchableBank(), addr-0x4000)
}

func (m *MBC1) WriteROM(addr uint16, v byte) {
	switch {
	case addr < 0x2000:
		m.ramEnabled = v&0x0F == 0x0A
	case addr < 0x4000:
		m.low = v & 0x1F
		if m.low == 0 {
			m.low = 1
		}
	case addr < 0x6000:
		m.high = v & 0x03
	case addr < 0x8000:
		m.mode = v & 0x01
	}
}

func (m *MBC1) eramOffset(addr uint16) (int, bool) {
	if !m.ramEnabled || len(m.ram) == 0 {
		return 0, false
	}
	off := m.ramBank()*ramBankSize + int(addr) - 0xA000
	return off, off >= 0 && off < len(m.ram)
}

func (m *MBC1) ReadERAM(addr uint16) byte {
	if off, ok := m.eramOffset(addr); ok {
		return m.ram[off]
	}
	return 0xFF
}

func (m *MBC1) WriteERAM(addr uint16, v byte) {
	if off, ok := m.eramOffset(addr); ok {
		m.ram[off] = v
	}
}

func (m *MBC1) SaveRAM() []byte {
	out := make([]byte, len(m.ram))
	copy(out, m.ram)
	return out
}

func (m *MBC1) LoadRAM(data []byte) { copy(m.ram, data) }

type mbc1State struct {
	RAM        []byte
	RAMEnabled bool
	Low        byte
	High       byte
	Mode       byte
}

func (m *MBC1) SaveState() []byte {
	var buf bytes.Buffer
	_ = gob.NewEncoder(&buf).Encode(mbc1State{
		RAM:        m.ram,
		RAMEnabled: m.ramEnabled,
		Low:        m.low,
		High:       m.high,
		Mode:       m.mode,
	})
	return buf.Bytes()
}

func (m *MBC1) LoadState(data []byte) error {
	var s mbc1State
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return err
	}
	copy(m.ram, s.RAM)
	m.ramEnabled, m.low, m.high, m.mode = s.RAMEnabled, s.Low, s.High, s.Mode
	return nil
}
