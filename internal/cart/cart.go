package cart

import "github.com/FabianRolfMatthiasNoll/dmgcore/internal/logger"

// Cartridge is what the Bus sees of a cartridge. ROM addresses are
// 0x0000–0x7FFF (writes there reach the bank controller, if any) and external
// RAM addresses are 0xA000–0xBFFF. The Bus never special-cases the
// implementation.
type Cartridge interface {
	ReadROM(addr uint16) byte
	WriteROM(addr uint16, v byte)
	ReadERAM(addr uint16) byte
	WriteERAM(addr uint16, v byte)
}

// BatteryBacked is implemented by cartridges whose external RAM can be
// persisted. SaveRAM returns a copy.
type BatteryBacked interface {
	SaveRAM() []byte
	LoadRAM(data []byte)
}

// Stateful is implemented by cartridges with banking registers to include in
// save states.
type Stateful interface {
	SaveState() []byte
	LoadState(data []byte) error
}

// New builds a cartridge from the header's type and RAM size bytes. It never
// fails: unreadable headers and unsupported mappers fall back to ROM-only
// access with a logged warning.
func New(rom []byte) Cartridge {
	h, err := ParseHeader(rom)
	if err != nil {
		logger.Logf("cart", "%v: using ROM-only access", err)
		return NewROMOnly(rom, 0)
	}
	if !HeaderChecksumOK(rom) {
		logger.Logf("cart", "%q: header checksum mismatch", h.Title)
	}
	switch h.CartType {
	case 0x00:
		return NewROMOnly(rom, 0)
	case 0x08, 0x09:
		return NewROMOnly(rom, h.RAMSizeBytes)
	case 0x01, 0x02, 0x03:
		return NewMBC1(rom, h.RAMSizeBytes)
	}
	logger.Logf("cart", "%q: unsupported cartridge type %#02x (%s), using ROM-only access", h.Title, h.CartType, h.CartTypeStr)
	return NewROMOnly(rom, 0)
}
