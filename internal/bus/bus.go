package bus

import (
	"bytes"
	"encoding/gob"
	"io"

	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/cart"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/dma"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/irq"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/joypad"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/logger"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/ppu"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/serial"
	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/timer"
)

// Bus is the 64KB address space. It owns every peripheral except the
// cartridge, which it borrows, and applies the interrupt requests they return.
type Bus struct {
	cart cart.Cartridge

	boot        []byte
	bootEnabled bool

	wram [0x2000]byte
	hram [0x7F]byte

	irq    *irq.Controller
	ppu    *ppu.PPU
	timer  *timer.Timer
	dma    *dma.DMA
	joypad *joypad.Joypad
	serial *serial.Serial
}

func New(c cart.Cartridge) *Bus {
	return &Bus{
		cart:   c,
		irq:    irq.New(),
		ppu:    ppu.New(),
		timer:  timer.New(),
		dma:    dma.New(),
		joypad: joypad.New(),
		serial: serial.New(),
	}
}

// SetBootROM maps boot over 0x0000 until a non-zero write to 0xFF50.
func (b *Bus) SetBootROM(boot []byte) {
	b.boot = boot
	b.bootEnabled = len(boot) > 0
}

func (b *Bus) BootROMEnabled() bool { return b.bootEnabled }

func (b *Bus) Interrupts() *irq.Controller { return b.irq }
func (b *Bus) PPU() *ppu.PPU               { return b.ppu }
func (b *Bus) Timer() *timer.Timer         { return b.timer }
func (b *Bus) DMA() *dma.DMA               { return b.dma }

func (b *Bus) SetSerialWriter(w io.Writer) { b.serial.SetWriter(w) }

// SetButtons updates the joypad and raises its interrupt on a new press.
func (b *Bus) SetButtons(btn joypad.Button) { b.irq.Request(b.joypad.SetButtons(btn)) }

// dmaAccessible reports whether the CPU can reach addr during OAM DMA.
func dmaAccessible(addr uint16) bool {
	return addr == 0xFF46 || (addr >= 0xFF80 && addr <= 0xFFFE)
}

func (b *Bus) Read(addr uint16) byte {
	if b.dma.Active() && !dmaAccessible(addr) {
		return 0xFF
	}
	return b.ReadDirect(addr)
}

// ReadDirect decodes addr without DMA blocking. It is the DMA source path.
func (b *Bus) ReadDirect(addr uint16) byte {
	switch {
	case b.bootEnabled && int(addr) < len(b.boot) && addr < 0x100:
		return b.boot[addr]
	case addr <= 0x7FFF:
		return b.cart.ReadROM(addr)
	case addr <= 0x9FFF:
		return b.ppu.Read(addr)
	case addr <= 0xBFFF:
		return b.cart.ReadERAM(addr)
	case addr <= 0xDFFF:
		return b.wram[addr-0xC000]
	case addr <= 0xFDFF:
		return b.wram[addr-0xE000]
	case addr <= 0xFE9F:
		return b.ppu.Read(addr)
	case addr == 0xFF00:
		return b.joypad.Read()
	case addr == 0xFF01 || addr == 0xFF02:
		return b.serial.Read(addr)
	case addr >= 0xFF04 && addr <= 0xFF07:
		return b.timer.Read(addr)
	case addr == 0xFF0F:
		return b.irq.ReadIF()
	case addr >= 0xFF10 && addr <= 0xFF3F:
		return 0xFF
	case addr == 0xFF46:
		return b.dma.Register()
	case addr >= 0xFF40 && addr <= 0xFF4B:
		return b.ppu.Read(addr)
	case addr >= 0xFF80 && addr <= 0xFFFE:
		return b.hram[addr-0xFF80]
	case addr == 0xFFFF:
		return b.irq.ReadIE()
	}
	return 0xFF
}

func (b *Bus) Write(addr uint16, v byte) {
	if b.dma.Active() && !dmaAccessible(addr) {
		return
	}
	switch {
	case addr <= 0x7FFF:
		b.cart.WriteROM(addr, v)
	case addr <= 0x9FFF:
		b.ppu.Write(addr, v)
	case addr <= 0xBFFF:
		b.cart.WriteERAM(addr, v)
	case addr <= 0xDFFF:
		b.wram[addr-0xC000] = v
	case addr <= 0xFDFF:
		b.wram[addr-0xE000] = v
	case addr <= 0xFE9F:
		b.ppu.Write(addr, v)
	case addr == 0xFF00:
		b.joypad.Write(v)
	case addr == 0xFF01 || addr == 0xFF02:
		b.irq.Request(b.serial.Write(addr, v))
	case addr >= 0xFF04 && addr <= 0xFF07:
		b.timer.Write(addr, v)
	case addr == 0xFF0F:
		b.irq.WriteIF(v)
	case addr >= 0xFF10 && addr <= 0xFF3F:
		// no sound hardware
	case addr == 0xFF46:
		b.dma.Start(v)
	case addr >= 0xFF40 && addr <= 0xFF4B:
		b.irq.Request(b.ppu.Write(addr, v))
	case addr == 0xFF50:
		if v != 0 && b.bootEnabled {
			b.bootEnabled = false
			logger.Log("bus", "boot ROM disabled")
		}
	case addr >= 0xFF80 && addr <= 0xFFFE:
		b.hram[addr-0xFF80] = v
	case addr == 0xFFFF:
		b.irq.WriteIE(v)
	}
}

// Tick advances DMA, timer and display by the same number of clock cycles
// and applies the interrupt lines they raise.
func (b *Bus) Tick(cycles int) {
	if cycles < 0 {
		panic("bus: negative cycle count")
	}
	b.dma.Tick(cycles, b, b.ppu)
	b.irq.Request(b.timer.Tick(cycles))
	b.irq.Request(b.ppu.Tick(cycles))
}

type state struct {
	WRAM        [0x2000]byte
	HRAM        [0x7F]byte
	BootEnabled bool
	IE, IF      byte
	JoypadSel   byte
	SB, SC      byte
	PPU         []byte
	Timer       []byte
	DMA         []byte
}

// SaveState serialises RAM, IO and every owned peripheral.
func (b *Bus) SaveState() []byte {
	sb, sc := b.serial.Registers()
	s := state{
		WRAM:        b.wram,
		HRAM:        b.hram,
		BootEnabled: b.bootEnabled,
		IE:          byte(b.irq.IE),
		IF:          byte(b.irq.IF),
		JoypadSel:   b.joypad.Read() & 0x30,
		SB:          sb,
		SC:          sc,
		PPU:         b.ppu.SaveState(),
		Timer:       b.timer.SaveState(),
		DMA:         b.dma.SaveState(),
	}
	var buf bytes.Buffer
	_ = gob.NewEncoder(&buf).Encode(s)
	return buf.Bytes()
}

func (b *Bus) LoadState(data []byte) error {
	var s state
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return err
	}
	if err := b.ppu.LoadState(s.PPU); err != nil {
		return err
	}
	if err := b.timer.LoadState(s.Timer); err != nil {
		return err
	}
	if err := b.dma.LoadState(s.DMA); err != nil {
		return err
	}
	b.wram, b.hram = s.WRAM, s.HRAM
	b.bootEnabled = s.BootEnabled && len(b.boot) > 0
	b.irq.WriteIE(s.IE)
	b.irq.WriteIF(s.IF)
	b.joypad.Write(s.JoypadSel)
	b.serial.SetRegisters(s.SB, s.SC)
	return nil
}
