package ppu

import "testing"

func TestScanlineSCXOffsetAndTileWrap(t *testing.T) {
	// one map row with tile numbers 0..31, each tile row lo=n hi=^n
	mem := mockVRAM{}
	for tile := 0; tile < 32; tile++ {
		mem[0x1800+uint16(tile)] = byte(tile)
		base := uint16(tile * 16)
		mem[base] = byte(tile)
		mem[base+1] = ^byte(tile)
	}

	out := renderBGScanline(mem, 0x1800, true, 5, 0, 0)
	lo0, hi0 := byte(0), ^byte(0)
	for i := 0; i < 3; i++ {
		b := 2 - byte(i)
		want := ((hi0>>b)&1)<<1 | (lo0>>b)&1
		if out[i] != want {
			t.Fatalf("px %d got %d want %d", i, out[i], want)
		}
	}
	lo1, hi1 := byte(1), ^byte(1)
	for i := 0; i < 8; i++ {
		b := 7 - byte(i)
		want := ((hi1>>b)&1)<<1 | (lo1>>b)&1
		if out[3+i] != want {
			t.Fatalf("tile1 px %d got %d want %d", i, out[3+i], want)
		}
	}

	// SCX=0xF8 starts at tile 31 and wraps to tile 0
	out = renderBGScanline(mem, 0x1800, true, 0xF8, 0, 0)
	if out[8] != 0x02 || out[15] != 0x02 {
		t.Fatalf("wrapped tile 0 got %d..%d want 2", out[8], out[15])
	}
}

func TestScanlineSCYWraps(t *testing.T) {
	mem := mockVRAM{}
	// map row 31 uses tile 1; its row 7 is solid color 3
	for x := 0; x < 32; x++ {
		mem[0x1800+31*32+uint16(x)] = 1
	}
	mem[16+7*2] = 0xFF
	mem[16+7*2+1] = 0xFF
	out := renderBGScanline(mem, 0x1800, true, 0, 0xFF, 0)
	for x, ci := range out {
		if ci != 3 {
			t.Fatalf("px %d got %d want 3", x, ci)
		}
	}
}

func TestSolidTileRendersBGPShadeZero(t *testing.T) {
	p := New()
	p.Write(0xFF47, 0xFC)
	p.Write(0xFF40, 0x91) // display + BG, unsigned data, map 0x1800
	p.Tick(252)           // HBlank of line 0

	want := shadeARGB(0xFC, 0)
	if want != 0xFFFFFFFF {
		t.Fatalf("shade 0 of BGP FC is %08X", want)
	}
	for x := 0; x < ScreenWidth; x++ {
		if got := p.back[x]; got != want {
			t.Fatalf("px %d got %08X want %08X", x, got, want)
		}
	}
}

func TestBGPMapsColorIDs(t *testing.T) {
	p := New()
	// tile 0 row 0: color ids 3,3,3,3,0,0,0,0
	p.Write(0x8000, 0xF0)
	p.Write(0x8001, 0xF0)
	p.Write(0xFF47, 0xE4) // identity palette
	p.Write(0xFF40, 0x91)

	var frame []uint32
	p.SetFrameHandler(func(f []uint32) { frame = f })
	p.Tick(144 * 456)
	if frame == nil {
		t.Fatalf("no frame delivered")
	}
	if frame[0] != 0xFF000000 {
		t.Fatalf("color 3 got %08X want FF000000", frame[0])
	}
	if frame[4] != 0xFFFFFFFF {
		t.Fatalf("color 0 got %08X want FFFFFFFF", frame[4])
	}
	// row 1 of the tile is empty
	if frame[ScreenWidth] != 0xFFFFFFFF {
		t.Fatalf("line 1 px 0 got %08X", frame[ScreenWidth])
	}
	if &p.Framebuffer()[0] != &frame[0] {
		t.Fatalf("Framebuffer is not the delivered frame")
	}
}

func TestBGDisabledIsWhite(t *testing.T) {
	p := New()
	p.Write(0x8000, 0xFF)
	p.Write(0x8001, 0xFF)
	p.Write(0xFF47, 0xE4)
	p.Write(0xFF40, 0x90) // BG off
	p.Tick(252)
	for x := 0; x < ScreenWidth; x++ {
		if p.back[x] != white {
			t.Fatalf("px %d got %08X want white", x, p.back[x])
		}
	}
}

func TestShadeLevels(t *testing.T) {
	want := []uint32{0xFFFFFFFF, 0xFFAAAAAA, 0xFF555555, 0xFF000000}
	for ci := byte(0); ci < 4; ci++ {
		if got := shadeARGB(0xE4, ci); got != want[ci] {
			t.Fatalf("ci %d got %08X want %08X", ci, got, want[ci])
		}
	}
}

func TestToRGBA(t *testing.T) {
	dst := make([]byte, 8)
	ToRGBA(dst, []uint32{0xFF112233, 0x80AABBCC})
	want := []byte{0x11, 0x22, 0x33, 0xFF, 0xAA, 0xBB, 0xCC, 0x80}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("byte %d got %02X want %02X", i, dst[i], want[i])
		}
	}
}
