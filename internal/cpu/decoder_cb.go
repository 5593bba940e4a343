package cpu

// decodeCB builds the generator for a 0xCB-prefixed opcode. It runs in the
// cycle that fetched the second byte. Every CB opcode is defined.
func decodeCB(op byte) generator {
	x, y, z := op>>6, (op>>3)&7, op&7

	var apply func(f *Flags, v byte) byte
	switch x {
	case 0:
		apply = shiftOps[y]
	case 1:
		if z == 6 {
			return func(c *CPU) {
				c.seq.Push(func(c *CPU) { testBit(&c.F, y, c.read8(c.HL())) })
			}
		}
		return func(c *CPU) { testBit(&c.F, y, *c.r8(z)) }
	case 2:
		apply = func(_ *Flags, v byte) byte { return resBit(y, v) }
	case 3:
		apply = func(_ *Flags, v byte) byte { return setBit(y, v) }
	}

	if z == 6 {
		return func(c *CPU) {
			c.seq.Push(
				func(c *CPU) { c.lo = c.read8(c.HL()) },
				func(c *CPU) { c.write8(c.HL(), apply(&c.F, c.lo)) },
			)
		}
	}
	return func(c *CPU) {
		r := c.r8(z)
		*r = apply(&c.F, *r)
	}
}
