package cart

// ROMOnly is a cartridge without a bank controller: 32KB of ROM mapped
// directly, plus optional unbanked RAM for ROM+RAM boards.
type ROMOnly struct {
	rom []byte
	ram []byte
}

func NewROMOnly(rom []byte, ramSize int) *ROMOnly {
	c := &ROMOnly{rom: rom}
	if ramSize > 0 {
		c.ram = make([]byte, ramSize)
	}
	return c
}

func (c *ROMOnly) ReadROM(addr uint16) byte {
	if int(addr) < len(c.rom) {
		return c.rom[addr]
	}
	return 0xFF
}

// WriteROM is ignored: there are no bank registers.
func (c *ROMOnly) WriteROM(addr uint16, v byte) {}

func (c *ROMOnly) ReadERAM(addr uint16) byte {
	off := int(addr) - 0xA000
	if off >= 0 && off < len(c.ram) {
		return c.ram[off]
	}
	return 0xFF
}

func (c *ROMOnly) WriteERAM(addr uint16, v byte) {
	off := int(addr) - 0xA000
	if off >= 0 && off < len(c.ram) {
		c.ram[off] = v
	}
}

func (c *ROMOnly) SaveRAM() []byte {
	out := make([]byte, len(c.ram))
	copy(out, c.ram)
	return out
}

func (c *ROMOnly) LoadRAM(data []byte) { copy(c.ram, data) }
