package cpu

// Flags is the F register. Only the upper nibble exists in hardware.
type Flags struct {
	Z, N, H, C bool
}

const (
	flagZ byte = 1 << 7
	flagN byte = 1 << 6
	flagH byte = 1 << 5
	flagC byte = 1 << 4
)

func (f Flags) Byte() byte {
	var v byte
	if f.Z {
		v |= flagZ
	}
	if f.N {
		v |= flagN
	}
	if f.H {
		v |= flagH
	}
	if f.C {
		v |= flagC
	}
	return v
}

// SetByte loads F from v. The low nibble is dropped.
func (f *Flags) SetByte(v byte) {
	f.Z = v&flagZ != 0
	f.N = v&flagN != 0
	f.H = v&flagH != 0
	f.C = v&flagC != 0
}

func (f *Flags) set(z, n, h, c bool) { f.Z, f.N, f.H, f.C = z, n, h, c }

// carry returns C as 0 or 1 for carry-in arithmetic.
func (f Flags) carry() byte {
	if f.C {
		return 1
	}
	return 0
}

// Registers is the LR35902 register file.
type Registers struct {
	A, B, C, D, E, H, L byte
	F                   Flags
	SP, PC              uint16
}

func (r *Registers) AF() uint16 { return uint16(r.A)<<8 | uint16(r.F.Byte()) }
func (r *Registers) BC() uint16 { return uint16(r.B)<<8 | uint16(r.C) }
func (r *Registers) DE() uint16 { return uint16(r.D)<<8 | uint16(r.E) }
func (r *Registers) HL() uint16 { return uint16(r.H)<<8 | uint16(r.L) }

func (r *Registers) SetAF(v uint16) { r.A = byte(v >> 8); r.F.SetByte(byte(v)) }
func (r *Registers) SetBC(v uint16) { r.B, r.C = byte(v>>8), byte(v) }
func (r *Registers) SetDE(v uint16) { r.D, r.E = byte(v>>8), byte(v) }
func (r *Registers) SetHL(v uint16) { r.H, r.L = byte(v>>8), byte(v) }

// r8 returns the register selected by a 3-bit opcode field. Index 6 is (HL)
// and has no register; callers handle it as a memory cycle.
func (r *Registers) r8(i byte) *byte {
	switch i & 7 {
	case 0:
		return &r.B
	case 1:
		return &r.C
	case 2:
		return &r.D
	case 3:
		return &r.E
	case 4:
		return &r.H
	case 5:
		return &r.L
	case 7:
		return &r.A
	}
	panic("cpu: r8 index 6 is (HL)")
}

// rr returns the getter and setter for a 2-bit pair field. sp selects SP for
// index 3, otherwise AF (PUSH/POP).
func (r *Registers) rr(i byte, sp bool) (func() uint16, func(uint16)) {
	switch i & 3 {
	case 0:
		return r.BC, r.SetBC
	case 1:
		return r.DE, r.SetDE
	case 2:
		return r.HL, r.SetHL
	}
	if sp {
		return func() uint16 { return r.SP }, func(v uint16) { r.SP = v }
	}
	return r.AF, r.SetAF
}
