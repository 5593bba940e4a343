package cpu

// generator runs inside the opcode fetch cycle. It may do that cycle's work
// and pushes the instruction's remaining machine cycles.
type generator func(c *CPU)

var (
	baseTable [256]generator
	cbTable   [256]generator
)

func init() {
	for op := 0; op < 256; op++ {
		baseTable[op] = decodeBase(byte(op))
		cbTable[op] = decodeCB(byte(op))
	}
}

// Shared machine cycles. Multi-byte operands go through the lo/hi latch.

func idle(*CPU) {}

func readImmLo(c *CPU) { c.lo = c.imm8() }
func readImmHi(c *CPU) { c.hi = c.imm8() }

func popLo(c *CPU) { c.lo = c.read8(c.SP); c.SP++ }
func popHi(c *CPU) { c.hi = c.read8(c.SP); c.SP++ }

func pushPCHi(c *CPU) { c.SP--; c.write8(c.SP, byte(c.PC>>8)) }
func pushPCLo(c *CPU) { c.SP--; c.write8(c.SP, byte(c.PC)) }

func jumpLatch(c *CPU) { c.PC = c.latch() }

func jumpRelative(c *CPU) { c.PC += uint16(int8(c.lo)) }

func callLatch(c *CPU) {
	pushPCLo(c)
	jumpLatch(c)
}

// cond evaluates the 2-bit condition field: NZ, Z, NC, C.
func (c *CPU) cond(cc byte) bool {
	switch cc & 3 {
	case 0:
		return !c.F.Z
	case 1:
		return c.F.Z
	case 2:
		return !c.F.C
	}
	return c.F.C
}

// decodeBase builds the generator for one unprefixed opcode. The opcode is
// split into x (bits 6-7), y (3-5), z (0-2), p (4-5), q (3). Illegal opcodes
// return nil.
func decodeBase(op byte) generator {
	x, y, z := op>>6, (op>>3)&7, op&7
	p, q := y>>1, y&1

	switch x {
	case 0:
		switch z {
		case 0:
			switch y {
			case 0:
				return func(*CPU) {}
			case 1:
				return ldA16SP
			case 2:
				return stop
			case 3:
				return func(c *CPU) { c.seq.Push(readImmLo, jumpRelative) }
			default:
				cc := y - 4
				return func(c *CPU) {
					c.seq.Push(func(c *CPU) {
						c.lo = c.imm8()
						if c.cond(cc) {
							c.seq.Push(jumpRelative)
						}
					})
				}
			}
		case 1:
			if q == 0 {
				return func(c *CPU) {
					c.seq.Push(readImmLo, func(c *CPU) {
						readImmHi(c)
						_, set := c.rr(p, true)
						set(c.latch())
					})
				}
			}
			return func(c *CPU) {
				c.seq.Push(func(c *CPU) {
					get, _ := c.rr(p, true)
					c.SetHL(add16(&c.F, c.HL(), get()))
				})
			}
		case 2:
			return indirectA(p, q == 1)
		case 3:
			delta := uint16(1)
			if q == 1 {
				delta = 0xFFFF
			}
			return func(c *CPU) {
				c.seq.Push(func(c *CPU) {
					get, set := c.rr(p, true)
					set(get() + delta)
				})
			}
		case 4, 5:
			f := inc8
			if z == 5 {
				f = dec8
			}
			if y == 6 {
				return func(c *CPU) {
					c.seq.Push(
						func(c *CPU) { c.lo = c.read8(c.HL()) },
						func(c *CPU) { c.write8(c.HL(), f(&c.F, c.lo)) },
					)
				}
			}
			return func(c *CPU) { r := c.r8(y); *r = f(&c.F, *r) }
		case 6:
			if y == 6 {
				return func(c *CPU) {
					c.seq.Push(readImmLo, func(c *CPU) { c.write8(c.HL(), c.lo) })
				}
			}
			return func(c *CPU) {
				c.seq.Push(func(c *CPU) { *c.r8(y) = c.imm8() })
			}
		case 7:
			return accumulatorOp(y)
		}

	case 1:
		switch {
		case y == 6 && z == 6:
			return halt
		case z == 6:
			return func(c *CPU) {
				c.seq.Push(func(c *CPU) { *c.r8(y) = c.read8(c.HL()) })
			}
		case y == 6:
			return func(c *CPU) {
				c.seq.Push(func(c *CPU) { c.write8(c.HL(), *c.r8(z)) })
			}
		}
		return func(c *CPU) { *c.r8(y) = *c.r8(z) }

	case 2:
		alu := aluOps[y]
		if z == 6 {
			return func(c *CPU) {
				c.seq.Push(func(c *CPU) { c.A = alu(&c.F, c.A, c.read8(c.HL())) })
			}
		}
		return func(c *CPU) { c.A = alu(&c.F, c.A, *c.r8(z)) }
	}

	// x == 3
	switch z {
	case 0:
		switch y {
		case 4:
			return func(c *CPU) {
				c.seq.Push(readImmLo, func(c *CPU) { c.write8(0xFF00|uint16(c.lo), c.A) })
			}
		case 5:
			return func(c *CPU) {
				c.seq.Push(readImmLo, idle, func(c *CPU) { c.SP = addSPe8(&c.F, c.SP, c.lo) })
			}
		case 6:
			return func(c *CPU) {
				c.seq.Push(readImmLo, func(c *CPU) { c.A = c.read8(0xFF00 | uint16(c.lo)) })
			}
		case 7:
			return func(c *CPU) {
				c.seq.Push(readImmLo, func(c *CPU) { c.SetHL(addSPe8(&c.F, c.SP, c.lo)) })
			}
		}
		cc := y
		return func(c *CPU) {
			c.seq.Push(func(c *CPU) {
				if c.cond(cc) {
					c.seq.Push(popLo, popHi, jumpLatch)
				}
			})
		}
	case 1:
		if q == 0 {
			return func(c *CPU) {
				c.seq.Push(popLo, func(c *CPU) {
					popHi(c)
					_, set := c.rr(p, false)
					set(c.latch())
				})
			}
		}
		switch p {
		case 0:
			return func(c *CPU) { c.seq.Push(popLo, popHi, jumpLatch) }
		case 1:
			return func(c *CPU) {
				c.seq.Push(popLo, popHi, func(c *CPU) {
					jumpLatch(c)
					c.IME = true
					c.eiDelay = 0
				})
			}
		case 2:
			return func(c *CPU) { c.PC = c.HL() }
		}
		return func(c *CPU) {
			c.seq.Push(func(c *CPU) { c.SP = c.HL() })
		}
	case 2:
		switch y {
		case 4:
			return func(c *CPU) {
				c.seq.Push(func(c *CPU) { c.write8(0xFF00|uint16(c.C), c.A) })
			}
		case 5:
			return func(c *CPU) {
				c.seq.Push(readImmLo, readImmHi, func(c *CPU) { c.write8(c.latch(), c.A) })
			}
		case 6:
			return func(c *CPU) {
				c.seq.Push(func(c *CPU) { c.A = c.read8(0xFF00 | uint16(c.C)) })
			}
		case 7:
			return func(c *CPU) {
				c.seq.Push(readImmLo, readImmHi, func(c *CPU) { c.A = c.read8(c.latch()) })
			}
		}
		cc := y
		return func(c *CPU) {
			c.seq.Push(readImmLo, func(c *CPU) {
				readImmHi(c)
				if c.cond(cc) {
					c.seq.Push(jumpLatch)
				}
			})
		}
	case 3:
		switch y {
		case 0:
			return func(c *CPU) { c.seq.Push(readImmLo, readImmHi, jumpLatch) }
		case 1:
			return prefixCB
		case 6:
			return func(c *CPU) {
				c.IME = false
				c.eiDelay = 0
			}
		case 7:
			return func(c *CPU) { c.eiDelay = 2 }
		}
		return nil
	case 4:
		if y > 3 {
			return nil
		}
		cc := y
		return func(c *CPU) {
			c.seq.Push(readImmLo, func(c *CPU) {
				readImmHi(c)
				if c.cond(cc) {
					c.seq.Push(idle, pushPCHi, callLatch)
				}
			})
		}
	case 5:
		if q == 0 {
			return func(c *CPU) {
				c.seq.Push(idle,
					func(c *CPU) {
						get, _ := c.rr(p, false)
						c.SP--
						c.write8(c.SP, byte(get()>>8))
					},
					func(c *CPU) {
						get, _ := c.rr(p, false)
						c.SP--
						c.write8(c.SP, byte(get()))
					})
			}
		}
		if p == 0 {
			return func(c *CPU) { c.seq.Push(readImmLo, readImmHi, idle, pushPCHi, callLatch) }
		}
		return nil
	case 6:
		alu := aluOps[y]
		return func(c *CPU) {
			c.seq.Push(func(c *CPU) { c.A = alu(&c.F, c.A, c.imm8()) })
		}
	}

	// z == 7: RST
	vec := uint16(y) * 8
	return func(c *CPU) {
		c.seq.Push(idle, pushPCHi, func(c *CPU) {
			pushPCLo(c)
			c.PC = vec
		})
	}
}

// indirectA covers LD (BC),A / (DE),A / (HL+),A / (HL-),A and the loads into A.
func indirectA(p byte, load bool) generator {
	addr := func(c *CPU) uint16 {
		switch p {
		case 0:
			return c.BC()
		case 1:
			return c.DE()
		}
		hl := c.HL()
		if p == 2 {
			c.SetHL(hl + 1)
		} else {
			c.SetHL(hl - 1)
		}
		return hl
	}
	if load {
		return func(c *CPU) {
			c.seq.Push(func(c *CPU) { c.A = c.read8(addr(c)) })
		}
	}
	return func(c *CPU) {
		c.seq.Push(func(c *CPU) { c.write8(addr(c), c.A) })
	}
}

// accumulatorOp covers 0x07-0x3F step 8: RLCA RRCA RLA RRA DAA CPL SCF CCF.
func accumulatorOp(y byte) generator {
	if y < 4 {
		shift := shiftOps[y]
		return func(c *CPU) {
			c.A = shift(&c.F, c.A)
			c.F.Z = false
		}
	}
	switch y {
	case 4:
		return func(c *CPU) { c.A = daa(&c.F, c.A) }
	case 5:
		return func(c *CPU) {
			c.A = ^c.A
			c.F.N, c.F.H = true, true
		}
	case 6:
		return func(c *CPU) { c.F.N, c.F.H, c.F.C = false, false, true }
	}
	return func(c *CPU) { c.F.N, c.F.H, c.F.C = false, false, !c.F.C }
}

func ldA16SP(c *CPU) {
	c.seq.Push(readImmLo, readImmHi,
		func(c *CPU) { c.write8(c.latch(), byte(c.SP)) },
		func(c *CPU) { c.write8(c.latch()+1, byte(c.SP>>8)) },
	)
}

// stop skips its padding byte. There is no speed switch on DMG.
func stop(c *CPU) { c.PC++ }

// halt sleeps until an interrupt is pending. With IME clear and an interrupt
// already pending the CPU does not sleep and the next fetch repeats its byte.
func halt(c *CPU) {
	if !c.IME && c.irq.Pending() != 0 {
		c.haltBug = true
		return
	}
	c.halted = true
}

func prefixCB(c *CPU) {
	c.seq.Push(func(c *CPU) {
		cbTable[c.imm8()](c)
	})
}
