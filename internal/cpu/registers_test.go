package cpu

import (
	"testing"

	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/test"
)

func TestPairRoundTrip(t *testing.T) {
	var r Registers
	for _, v := range []uint16{0x0000, 0x1234, 0xABCD, 0xFFFF, 0x00FF, 0xFF00} {
		r.SetBC(v)
		test.ExpectEquality(t, r.BC(), v, "BC")
		r.SetDE(v)
		test.ExpectEquality(t, r.DE(), v, "DE")
		r.SetHL(v)
		test.ExpectEquality(t, r.HL(), v, "HL")
		r.SetAF(v)
		test.ExpectEquality(t, r.AF(), v&0xFFF0, "AF")
	}
	r.SetBC(0x1234)
	test.ExpectEquality(t, r.B, byte(0x12))
	test.ExpectEquality(t, r.C, byte(0x34))
}

func TestFlagsLowNibbleAlwaysZero(t *testing.T) {
	var f Flags
	for v := 0; v < 256; v++ {
		f.SetByte(byte(v))
		if f.Byte() != byte(v)&0xF0 {
			t.Fatalf("SetByte(%02X) reads %02X", v, f.Byte())
		}
	}
}

func TestR8Index(t *testing.T) {
	r := Registers{A: 7, B: 0, C: 1, D: 2, E: 3, H: 4, L: 5}
	for i := byte(0); i < 8; i++ {
		if i == 6 {
			test.ExpectPanic(t, func() { r.r8(i) })
			continue
		}
		test.ExpectEquality(t, *r.r8(i), i, "index", i)
	}
}
