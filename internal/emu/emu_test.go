package emu

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/test"
)

// romWith returns a 32KB ROM-only image with code placed at 0x0100.
func romWith(title string, cartType byte, code ...byte) []byte {
	rom := make([]byte, 0x8000)
	copy(rom[0x0134:], title)
	rom[0x0147] = cartType
	copy(rom[0x0100:], code)
	return rom
}

func TestFrameWalksEveryLineOnce(t *testing.T) {
	m := New(Config{})
	frames := 0
	m.SetFrameHandler(func(f []uint32) { frames++ })
	if err := m.LoadCartridge(romWith("FRAME", 0x00), nil); err != nil {
		t.Fatalf("load: %v", err)
	}
	ppu := m.Bus().PPU()
	test.DemandEquality(t, ppu.LY(), byte(0))

	var seen [154]int
	wraps := 0
	last := ppu.LY()
	seen[last]++
	for n := 0; n < FrameCycles; {
		n += m.Step()
		ly := ppu.LY()
		if ly != last {
			if ly == 0 && last == 153 {
				wraps++
			}
			seen[ly]++
			last = ly
		}
	}
	test.ExpectEquality(t, frames, 1, "frame callbacks")
	test.ExpectEquality(t, wraps, 1, "LY wraps")
	test.ExpectEquality(t, ppu.LY(), byte(0))
	test.ExpectEquality(t, ppu.Dot(), 0)
	for ly, n := range seen {
		want := 1
		if ly == 0 {
			want = 2
		}
		test.ExpectEquality(t, n, want, "line", ly)
	}
	test.ExpectEquality(t, m.Cycles(), uint64(FrameCycles))
}

func TestStepFrameBudget(t *testing.T) {
	m := New(Config{})
	test.ExpectEquality(t, m.StepFrame(), ErrNoCartridge)
	test.DemandEquality(t, m.LoadCartridge(romWith("BUDGET", 0x00), nil), nil)
	for i := 0; i < 3; i++ {
		test.DemandEquality(t, m.StepFrame(), nil)
	}
	test.ExpectEquality(t, m.Cycles(), uint64(3*FrameCycles))
}

func TestPostBootState(t *testing.T) {
	m := New(Config{})
	test.DemandEquality(t, m.LoadCartridge(romWith("BOOTLESS", 0x00), nil), nil)
	c := m.CPU()
	test.ExpectEquality(t, c.PC, uint16(0x0100))
	test.ExpectEquality(t, c.AF(), uint16(0x01B0))
	b := m.Bus()
	test.ExpectEquality(t, b.Read(0xFF40), byte(0x91))
	test.ExpectEquality(t, b.Read(0xFF47), byte(0xFC))
	test.ExpectEquality(t, b.Read(0xFF04), byte(0xAB))
	test.ExpectEquality(t, b.BootROMEnabled(), false)
}

func TestBootROMRunsFromZero(t *testing.T) {
	boot := make([]byte, 0x100)
	// LD A,1; LDH (50),A; then fall into the cartridge at 0x0100
	copy(boot[0xFC:], []byte{0x3E, 0x01, 0xE0, 0x50})
	rom := romWith("BOOTED", 0x00, 0x3C) // INC A at 0x0100

	m := New(Config{})
	test.DemandEquality(t, m.LoadCartridge(rom, boot), nil)
	test.ExpectEquality(t, m.CPU().PC, uint16(0x0000))
	test.ExpectEquality(t, m.Bus().Read(0x0000), byte(0x00))

	// 252 NOPs, then the two loads
	for i := 0; i < 254; i++ {
		if _, err := m.StepInstruction(); err != nil {
			t.Fatal(err)
		}
	}
	test.ExpectEquality(t, m.CPU().PC, uint16(0x0100))
	test.ExpectEquality(t, m.Bus().BootROMEnabled(), false)
	m.StepInstruction()
	test.ExpectEquality(t, m.CPU().A, byte(2))

	m.ResetWithBoot()
	test.ExpectEquality(t, m.CPU().PC, uint16(0x0000))
	test.ExpectEquality(t, m.Bus().BootROMEnabled(), true)
}

func TestSerialWriterSurvivesLoad(t *testing.T) {
	// LD A,'P'; LDH (01),A; LD A,81; LDH (02),A
	rom := romWith("SERIAL", 0x00, 0x3E, 'P', 0xE0, 0x01, 0x3E, 0x81, 0xE0, 0x02)
	var out bytes.Buffer
	m := New(Config{})
	m.SetSerialWriter(&out)
	test.DemandEquality(t, m.LoadCartridge(rom, nil), nil)
	for i := 0; i < 4; i++ {
		m.StepInstruction()
	}
	test.ExpectEquality(t, out.String(), "P")
}

func TestButtonsRaiseJoypadInterrupt(t *testing.T) {
	m := New(Config{})
	test.DemandEquality(t, m.LoadCartridge(romWith("PAD", 0x00), nil), nil)
	m.Bus().Write(0xFF0F, 0)
	m.Bus().Write(0xFF00, 0x10) // select action buttons
	m.SetButtons(Buttons{Start: true})
	test.ExpectEquality(t, m.Bus().Read(0xFF00)&0x0F, byte(0x07))
	test.ExpectEquality(t, m.Bus().Read(0xFF0F)&0x10, byte(0x10))
}

func TestSaveStateRoundTrip(t *testing.T) {
	// INC A; JR -3 keeps the CPU busy with multi-cycle instructions
	rom := romWith("STATE", 0x03, 0x3C, 0x18, 0xFD)
	rom[0x0148] = 0x01
	rom[0x0149] = 0x02
	rom = append(rom, make([]byte, 0x8000)...)
	rom[3*0x4000] = 0x77

	m := New(Config{})
	test.DemandEquality(t, m.LoadCartridge(rom, nil), nil)
	m.Bus().Write(0x0000, 0x0A) // enable cartridge RAM
	m.Bus().Write(0xA000, 0x42)
	m.Bus().Write(0x2000, 0x03)
	m.StepFrame()
	m.Step() // leave an instruction in flight

	data, err := m.SaveState()
	test.DemandEquality(t, err, nil)
	test.ExpectEquality(t, m.CPU().AtBoundary(), true)
	want := m.CPU().Registers
	wantLY := m.Bus().PPU().LY()

	m.StepFrame()
	test.DemandEquality(t, m.LoadState(data), nil)
	test.ExpectEquality(t, m.CPU().Registers, want)
	test.ExpectEquality(t, m.Bus().PPU().LY(), wantLY)
	test.ExpectEquality(t, m.Bus().Read(0xA000), byte(0x42))
	test.ExpectEquality(t, m.Bus().Read(0x4000), byte(0x77))

	other := New(Config{})
	test.DemandEquality(t, other.LoadCartridge(romWith("OTHER", 0x00), nil), nil)
	if err := other.LoadState(data); !errors.Is(err, ErrStateMismatch) {
		t.Fatalf("foreign state err=%v", err)
	}
}

func TestSaveStateFiles(t *testing.T) {
	m := New(Config{})
	test.DemandEquality(t, m.LoadCartridge(romWith("FILES", 0x00, 0x3C), nil), nil)
	m.StepInstruction()
	path := filepath.Join(t.TempDir(), "files.state")
	test.DemandEquality(t, m.SaveStateToFile(path), nil)
	m.StepInstruction()
	test.DemandEquality(t, m.LoadStateFromFile(path), nil)
	test.ExpectEquality(t, m.CPU().A, byte(0x02))
	test.ExpectFailure(t, m.LoadStateFromFile(filepath.Join(t.TempDir(), "missing")))
}

func TestBatteryRAM(t *testing.T) {
	rom := romWith("BATTERY", 0x03)
	rom[0x0149] = 0x02
	m := New(Config{})
	test.DemandEquality(t, m.LoadCartridge(rom, nil), nil)
	test.ExpectEquality(t, m.HasBattery(), true)

	m.Bus().Write(0x0000, 0x0A)
	m.Bus().Write(0xA010, 0x99)
	data, ok := m.SaveBattery()
	test.DemandEquality(t, ok, true)
	test.ExpectEquality(t, len(data), 0x2000)

	n := New(Config{})
	test.DemandEquality(t, n.LoadCartridge(rom, nil), nil)
	test.ExpectEquality(t, n.LoadBattery(data), true)
	n.Bus().Write(0x0000, 0x0A)
	test.ExpectEquality(t, n.Bus().Read(0xA010), byte(0x99))

	plain := New(Config{})
	test.DemandEquality(t, plain.LoadCartridge(romWith("PLAIN", 0x00), nil), nil)
	_, ok = plain.SaveBattery()
	test.ExpectEquality(t, ok, false)
}

func TestLoadROMFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.gb")
	test.DemandEquality(t, os.WriteFile(path, romWith("FILE", 0x00), 0o644), nil)
	m := New(Config{})
	test.DemandEquality(t, m.LoadROMFromFile(path), nil)
	test.ExpectEquality(t, m.ROMPath(), path)
	test.ExpectEquality(t, m.Header().Title, "FILE")

	// too short for a header: loads ROM-only and runs the NOP at 0x0100
	short := filepath.Join(dir, "short.gb")
	test.DemandEquality(t, os.WriteFile(short, make([]byte, 0x120), 0o644), nil)
	test.DemandEquality(t, m.LoadROMFromFile(short), nil)
	test.ExpectEquality(t, m.ROMPath(), short)
	test.ExpectEquality(t, m.Header().Title, "")
	test.ExpectEquality(t, m.HasBattery(), false)
	if _, err := m.StepInstruction(); err != nil {
		t.Fatalf("step short ROM: %v", err)
	}
	test.ExpectEquality(t, m.CPU().PC, uint16(0x0101))
	if _, err := m.SaveState(); err != nil {
		t.Fatalf("save state of short ROM: %v", err)
	}

	test.ExpectFailure(t, m.LoadROMFromFile(filepath.Join(dir, "missing.gb")))
	test.ExpectEquality(t, m.ROMPath(), short)
}

func TestUnsupportedMapperFallsBack(t *testing.T) {
	m := New(Config{})
	rom := romWith("MBC5", 0x19, 0x3C)
	test.DemandEquality(t, m.LoadCartridge(rom, nil), nil)
	m.StepInstruction()
	test.ExpectEquality(t, m.CPU().A, byte(0x02))
}
