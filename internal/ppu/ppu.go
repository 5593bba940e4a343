package ppu

import (
	"bytes"
	"encoding/gob"

	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/irq"
)

// Mode is the value of STAT bits 0-1.
type Mode byte

const (
	HBlank Mode = iota
	VBlank
	OAMScan
	Transfer
)

func (m Mode) String() string {
	return [...]string{"hblank", "vblank", "oam", "transfer"}[m&3]
}

const (
	dotsPerLine   = 456
	linesPerFrame = 154
	oamDots       = 80
	transferDots  = 172

	// FrameCycles is one full refresh in clock cycles.
	FrameCycles = dotsPerLine * linesPerFrame
)

const (
	lcdcBGEnable = 1 << 0
	lcdcTileData = 1 << 4
	lcdcBGMap    = 1 << 3
	lcdcEnable   = 1 << 7

	statHBlank = 1 << 3
	statVBlank = 1 << 4
	statOAM    = 1 << 5
	statLYC    = 1 << 6
	statWrite  = statHBlank | statVBlank | statOAM | statLYC
)

// FrameHandler receives the completed 160x144 ARGB frame at VBlank entry.
// The slice stays valid until the next VBlank.
type FrameHandler func(frame []uint32)

// PPU is the display controller: VRAM, OAM, the LCD registers and the
// per-dot mode state machine. Interrupt requests are returned to the caller
// rather than raised directly.
type PPU struct {
	vram [0x2000]byte
	oam  [0xA0]byte

	lcdc byte
	stat byte // enable bits 3-6 only
	scy  byte
	scx  byte
	ly   byte
	lyc  byte
	bgp  byte
	obp0 byte
	obp1 byte
	wy   byte
	wx   byte

	coincidence bool
	mode        Mode
	dot         int

	front   []uint32
	back    []uint32
	onFrame FrameHandler
}

func New() *PPU {
	p := &PPU{
		front: make([]uint32, ScreenWidth*ScreenHeight),
		back:  make([]uint32, ScreenWidth*ScreenHeight),
		mode:  HBlank,
	}
	for i := range p.front {
		p.front[i] = white
		p.back[i] = white
	}
	return p
}

func (p *PPU) SetFrameHandler(h FrameHandler) { p.onFrame = h }

// Framebuffer returns the last completed frame.
func (p *PPU) Framebuffer() []uint32 { return p.front }

func (p *PPU) Mode() Mode { return p.mode }
func (p *PPU) LY() byte   { return p.ly }
func (p *PPU) Dot() int   { return p.dot }

func (p *PPU) enabled() bool { return p.lcdc&lcdcEnable != 0 }

// Tick advances the display by the given number of dots (clock cycles) and
// returns the interrupt lines raised during the span.
func (p *PPU) Tick(cycles int) irq.Bit {
	if !p.enabled() {
		p.ly = 0
		p.dot = 0
		p.mode = HBlank
		return 0
	}
	var req irq.Bit
	for i := 0; i < cycles; i++ {
		p.dot++
		if p.dot == dotsPerLine {
			p.dot = 0
			p.ly++
			if p.ly == linesPerFrame {
				p.ly = 0
			}
		}
		req |= p.enterMode(p.modeAt())
		req |= p.evalCoincidence(p.lycLine())
	}
	return req
}

// modeAt maps the current line and dot to a mode. Every position has exactly
// one mode.
func (p *PPU) modeAt() Mode {
	switch {
	case p.ly >= ScreenHeight:
		return VBlank
	case p.dot < oamDots:
		return OAMScan
	case p.dot < oamDots+transferDots:
		return Transfer
	}
	return HBlank
}

// enterMode switches to m and raises the sources tied to that transition.
// Staying in the same mode raises nothing.
func (p *PPU) enterMode(m Mode) irq.Bit {
	if m == p.mode {
		return 0
	}
	p.mode = m
	var req irq.Bit
	switch m {
	case HBlank:
		p.renderLine()
		if p.stat&statHBlank != 0 {
			req |= irq.LCDStat
		}
	case VBlank:
		p.front, p.back = p.back, p.front
		if p.onFrame != nil {
			p.onFrame(p.front)
		}
		req |= irq.VBlank
		if p.stat&statVBlank != 0 {
			req |= irq.LCDStat
		}
	case OAMScan:
		if p.stat&statOAM != 0 {
			req |= irq.LCDStat
		}
	}
	return req
}

// lycLine is the LY=LYC STAT source as currently seen: flag and enable.
func (p *PPU) lycLine() bool { return p.coincidence && p.stat&statLYC != 0 }

// evalCoincidence recomputes LY==LYC and raises LCD-STAT when the source goes
// from inactive (was) to active.
func (p *PPU) evalCoincidence(was bool) irq.Bit {
	p.coincidence = p.ly == p.lyc
	if p.lycLine() && !was {
		return irq.LCDStat
	}
	return 0
}

// Read serves VRAM, OAM and 0xFF40–0xFF4B (except 0xFF46, owned by DMA).
func (p *PPU) Read(addr uint16) byte {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		return p.vram[addr-0x8000]
	case addr >= 0xFE00 && addr <= 0xFE9F:
		return p.oam[addr-0xFE00]
	}
	switch addr {
	case 0xFF40:
		return p.lcdc
	case 0xFF41:
		v := 0x80 | p.stat | byte(p.mode)
		if p.coincidence && p.enabled() {
			v |= 0x04
		}
		return v
	case 0xFF42:
		return p.scy
	case 0xFF43:
		return p.scx
	case 0xFF44:
		return p.ly
	case 0xFF45:
		return p.lyc
	case 0xFF47:
		return p.bgp
	case 0xFF48:
		return p.obp0
	case 0xFF49:
		return p.obp1
	case 0xFF4A:
		return p.wy
	case 0xFF4B:
		return p.wx
	}
	return 0xFF
}

// Write is the CPU-side store. Register writes that re-evaluate STAT sources
// return the resulting interrupt request.
func (p *PPU) Write(addr uint16, v byte) irq.Bit {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		p.vram[addr-0x8000] = v
		return 0
	case addr >= 0xFE00 && addr <= 0xFE9F:
		p.oam[addr-0xFE00] = v
		return 0
	}
	switch addr {
	case 0xFF40:
		was := p.enabled()
		p.lcdc = v
		switch {
		case was && !p.enabled():
			p.ly, p.dot, p.mode = 0, 0, HBlank
			p.coincidence = false
		case !was && p.enabled():
			p.ly, p.dot, p.mode = 0, 0, OAMScan
			return p.evalCoincidence(p.lycLine())
		}
	case 0xFF41:
		was := p.lycLine()
		p.stat = v & statWrite
		return p.evalCoincidence(was)
	case 0xFF42:
		p.scy = v
	case 0xFF43:
		p.scx = v
	case 0xFF44:
		was := p.lycLine()
		p.ly, p.dot = 0, 0
		var req irq.Bit
		if p.enabled() {
			req = p.enterMode(OAMScan)
		}
		return req | p.evalCoincidence(was)
	case 0xFF45:
		was := p.lycLine()
		p.lyc = v
		return p.evalCoincidence(was)
	case 0xFF47:
		p.bgp = v
	case 0xFF48:
		p.obp0 = v
	case 0xFF49:
		p.obp1 = v
	case 0xFF4A:
		p.wy = v
	case 0xFF4B:
		p.wx = v
	}
	return 0
}

// ReadVRAM reads VRAM by offset. It satisfies VRAMReader.
func (p *PPU) ReadVRAM(off uint16) byte { return p.vram[off&0x1FFF] }

// WriteOAM stores a DMA-transferred byte.
func (p *PPU) WriteOAM(index int, v byte) { p.oam[index] = v }

type state struct {
	VRAM        [0x2000]byte
	OAM         [0xA0]byte
	Regs        [11]byte
	Coincidence bool
	Mode        Mode
	Dot         int
}

func (p *PPU) SaveState() []byte {
	var buf bytes.Buffer
	_ = gob.NewEncoder(&buf).Encode(state{
		VRAM:        p.vram,
		OAM:         p.oam,
		Regs:        [11]byte{p.lcdc, p.stat, p.scy, p.scx, p.ly, p.lyc, p.bgp, p.obp0, p.obp1, p.wy, p.wx},
		Coincidence: p.coincidence,
		Mode:        p.mode,
		Dot:         p.dot,
	})
	return buf.Bytes()
}

func (p *PPU) LoadState(data []byte) error {
	var s state
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return err
	}
	p.vram, p.oam = s.VRAM, s.OAM
	r := s.Regs
	p.lcdc, p.stat, p.scy, p.scx, p.ly, p.lyc, p.bgp, p.obp0, p.obp1, p.wy, p.wx = r[0], r[1], r[2], r[3], r[4], r[5], r[6], r[7], r[8], r[9], r[10]
	p.coincidence, p.mode, p.dot = s.Coincidence, s.Mode, s.Dot
	return nil
}
