package ppu

// ScreenWidth and ScreenHeight are the LCD dimensions in pixels.
const (
	ScreenWidth  = 160
	ScreenHeight = 144
)

// gray levels for shades 0..3
var shadeLevel = [4]uint32{0xFF, 0xAA, 0x55, 0x00}

// white is shade 0 as opaque ARGB.
const white = 0xFFFFFFFF

// shadeARGB maps a 2-bit color id through a palette register to opaque ARGB.
func shadeARGB(palette, ci byte) uint32 {
	l := shadeLevel[(palette>>(ci*2))&0x03]
	return 0xFF<<24 | l<<16 | l<<8 | l
}

// renderBGScanline produces the 160 background color ids of line ly.
// mapOff is the tile map base (0x1800 or 0x1C00) and unsigned selects the
// tile data addressing mode.
func renderBGScanline(mem VRAMReader, mapOff uint16, unsigned bool, scx, scy, ly byte) [ScreenWidth]byte {
	var out [ScreenWidth]byte

	bgY := ly + scy // wraps at 256
	fineY := bgY & 7
	mapRow := mapOff + uint16(bgY>>3)*32

	tileX := uint16(scx>>3) & 31
	var q fifo
	f := newBGFetcher(mem, &q)
	f.Configure(mapRow+tileX, unsigned, fineY)
	f.Fetch()
	for i := byte(0); i < scx&7; i++ {
		q.Pop()
	}

	for x := range out {
		if q.Len() == 0 {
			tileX = (tileX + 1) & 31
			f.Configure(mapRow+tileX, unsigned, fineY)
			f.Fetch()
		}
		out[x], _ = q.Pop()
	}
	return out
}

// renderLine draws the current LY into the back buffer.
func (p *PPU) renderLine() {
	if int(p.ly) >= ScreenHeight {
		return
	}
	line := p.back[int(p.ly)*ScreenWidth : (int(p.ly)+1)*ScreenWidth]
	if p.lcdc&lcdcBGEnable == 0 {
		for x := range line {
			line[x] = white
		}
		return
	}
	mapOff := uint16(0x1800)
	if p.lcdc&lcdcBGMap != 0 {
		mapOff = 0x1C00
	}
	ids := renderBGScanline(p, mapOff, p.lcdc&lcdcTileData != 0, p.scx, p.scy, p.ly)
	for x, ci := range ids {
		line[x] = shadeARGB(p.bgp, ci)
	}
}

// ToRGBA converts an ARGB frame into RGBA bytes for image and texture
// uploads. dst must hold 4 bytes per pixel.
func ToRGBA(dst []byte, frame []uint32) {
	for i, px := range frame {
		o := i * 4
		dst[o+0] = byte(px >> 16)
		dst[o+1] = byte(px >> 8)
		dst[o+2] = byte(px)
		dst[o+3] = byte(px >> 24)
	}
}
