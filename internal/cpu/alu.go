package cpu

// ALU operations. Each takes the flags it updates and returns the result.

func add8(f *Flags, a, b byte, carry bool) byte {
	ci := byte(0)
	if carry {
		ci = 1
	}
	r := uint16(a) + uint16(b) + uint16(ci)
	res := byte(r)
	f.set(res == 0, false, (a&0x0F)+(b&0x0F)+ci > 0x0F, r > 0xFF)
	return res
}

func sub8(f *Flags, a, b byte, carry bool) byte {
	ci := 0
	if carry {
		ci = 1
	}
	r := int(a) - int(b) - ci
	res := byte(r)
	f.set(res == 0, true, int(a&0x0F)-int(b&0x0F)-ci < 0, r < 0)
	return res
}

func and8(f *Flags, a, b byte) byte {
	res := a & b
	f.set(res == 0, false, true, false)
	return res
}

func or8(f *Flags, a, b byte) byte {
	res := a | b
	f.set(res == 0, false, false, false)
	return res
}

func xor8(f *Flags, a, b byte) byte {
	res := a ^ b
	f.set(res == 0, false, false, false)
	return res
}

// inc8 and dec8 leave C untouched.
func inc8(f *Flags, v byte) byte {
	res := v + 1
	f.Z, f.N, f.H = res == 0, false, v&0x0F == 0x0F
	return res
}

func dec8(f *Flags, v byte) byte {
	res := v - 1
	f.Z, f.N, f.H = res == 0, true, v&0x0F == 0
	return res
}

// add16 is ADD HL,rr. Z is untouched.
func add16(f *Flags, a, b uint16) uint16 {
	r := uint32(a) + uint32(b)
	f.N, f.H, f.C = false, (a&0x0FFF)+(b&0x0FFF) > 0x0FFF, r > 0xFFFF
	return uint16(r)
}

// addSPe8 serves ADD SP,e and LD HL,SP+e. H and C come from the low byte.
func addSPe8(f *Flags, sp uint16, e byte) uint16 {
	res := sp + uint16(int8(e))
	f.set(false, false, (sp&0x0F)+uint16(e&0x0F) > 0x0F, (sp&0xFF)+uint16(e) > 0xFF)
	return res
}

func daa(f *Flags, a byte) byte {
	carry := f.C
	if !f.N {
		if f.C || a > 0x99 {
			a += 0x60
			carry = true
		}
		if f.H || a&0x0F > 0x09 {
			a += 0x06
		}
	} else {
		if f.C {
			a -= 0x60
		}
		if f.H {
			a -= 0x06
		}
	}
	f.Z, f.H, f.C = a == 0, false, carry
	return a
}

func rlc(f *Flags, v byte) byte {
	res := v<<1 | v>>7
	f.set(res == 0, false, false, v&0x80 != 0)
	return res
}

func rrc(f *Flags, v byte) byte {
	res := v>>1 | v<<7
	f.set(res == 0, false, false, v&0x01 != 0)
	return res
}

func rl(f *Flags, v byte) byte {
	res := v<<1 | f.carry()
	f.set(res == 0, false, false, v&0x80 != 0)
	return res
}

func rr(f *Flags, v byte) byte {
	res := v>>1 | f.carry()<<7
	f.set(res == 0, false, false, v&0x01 != 0)
	return res
}

func sla(f *Flags, v byte) byte {
	res := v << 1
	f.set(res == 0, false, false, v&0x80 != 0)
	return res
}

func sra(f *Flags, v byte) byte {
	res := v>>1 | v&0x80
	f.set(res == 0, false, false, v&0x01 != 0)
	return res
}

func srl(f *Flags, v byte) byte {
	res := v >> 1
	f.set(res == 0, false, false, v&0x01 != 0)
	return res
}

func swap(f *Flags, v byte) byte {
	res := v<<4 | v>>4
	f.set(res == 0, false, false, false)
	return res
}

func testBit(f *Flags, n, v byte) {
	f.Z, f.N, f.H = v&(1<<n) == 0, false, true
}

func resBit(n, v byte) byte { return v &^ (1 << n) }
func setBit(n, v byte) byte { return v | 1<<n }

// aluOps are the eight accumulator operations of opcodes 0x80-0xBF and the
// matching immediate forms, in opcode order.
var aluOps = [8]func(f *Flags, a, b byte) byte{
	func(f *Flags, a, b byte) byte { return add8(f, a, b, false) },
	func(f *Flags, a, b byte) byte { return add8(f, a, b, f.C) },
	func(f *Flags, a, b byte) byte { return sub8(f, a, b, false) },
	func(f *Flags, a, b byte) byte { return sub8(f, a, b, f.C) },
	and8,
	xor8,
	or8,
	func(f *Flags, a, b byte) byte { sub8(f, a, b, false); return a },
}

// shiftOps are the CB 0x00-0x3F rotate and shift operations in opcode order.
var shiftOps = [8]func(f *Flags, v byte) byte{rlc, rrc, rl, rr, sla, sra, swap, srl}
