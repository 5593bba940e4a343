package cart

import (
	"strings"
	"testing"

	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/logger"
)

func TestNew_SelectsImplementation(t *testing.T) {
	if _, ok := New(buildROM("PLAIN", 0x00, 0x00, 0x00, 32*1024)).(*ROMOnly); !ok {
		t.Fatalf("type 00 did not produce ROMOnly")
	}
	if _, ok := New(buildROM("BANKED", 0x01, 0x02, 0x00, 128*1024)).(*MBC1); !ok {
		t.Fatalf("type 01 did not produce MBC1")
	}
	c := New(buildROM("RAM", 0x08, 0x00, 0x02, 32*1024))
	c.WriteERAM(0xA100, 0x42)
	if got := c.ReadERAM(0xA100); got != 0x42 {
		t.Fatalf("ROM+RAM external RAM got %02X want 42", got)
	}
}

func TestNew_UnsupportedMapperFallsBack(t *testing.T) {
	logger.Clear()
	rom := buildROM("MBC5GAME", 0x19, 0x00, 0x00, 32*1024)
	rom[0x0200] = 0xAB
	c := New(rom)
	if _, ok := c.(*ROMOnly); !ok {
		t.Fatalf("unsupported mapper did not fall back to ROMOnly")
	}
	if got := c.ReadROM(0x0200); got != 0xAB {
		t.Fatalf("fallback ROM read got %02X want AB", got)
	}
	var warned bool
	for _, e := range logger.Entries() {
		if e.Tag == "cart" && strings.Contains(e.Detail, "unsupported") {
			warned = true
		}
	}
	if !warned {
		t.Fatalf("no warning logged for unsupported mapper")
	}
}

func TestNew_TinyImage(t *testing.T) {
	c := New([]byte{0x00, 0x3C})
	if got := c.ReadROM(0x0001); got != 0x3C {
		t.Fatalf("tiny ROM read got %02X want 3C", got)
	}
	if got := c.ReadROM(0x4000); got != 0xFF {
		t.Fatalf("read past end got %02X want FF", got)
	}
}

func TestROMOnly_IgnoresWrites(t *testing.T) {
	rom := make([]byte, 0x8000)
	rom[0x2000] = 0x12
	c := NewROMOnly(rom, 0)
	c.WriteROM(0x2000, 0x99)
	if got := c.ReadROM(0x2000); got != 0x12 {
		t.Fatalf("ROM changed by write: %02X", got)
	}
	c.WriteERAM(0xA000, 0x01)
	if got := c.ReadERAM(0xA000); got != 0xFF {
		t.Fatalf("ROM-only without RAM read got %02X want FF", got)
	}
}
