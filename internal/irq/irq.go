package irq

// Bit identifies one interrupt source. The numeric order is also the service
// priority: bit 0 (VBlank) is serviced first.
type Bit uint8

const (
	VBlank  Bit = 1 << 0
	LCDStat Bit = 1 << 1
	Timer   Bit = 1 << 2
	Serial  Bit = 1 << 3
	Joypad  Bit = 1 << 4

	// All is the mask of the five implemented request lines.
	All Bit = 0x1F
)

// Vector returns the service address for a single interrupt bit.
// Combined masks resolve to their highest-priority member.
func (b Bit) Vector() uint16 {
	switch b.Highest() {
	case VBlank:
		return 0x40
	case LCDStat:
		return 0x48
	case Timer:
		return 0x50
	case Serial:
		return 0x58
	case Joypad:
		return 0x60
	}
	return 0x0000
}

// Highest isolates the lowest set bit of the mask, which is the highest
// priority pending source. Zero in, zero out.
func (b Bit) Highest() Bit {
	b &= All
	return b & -b
}

func (b Bit) String() string {
	switch b {
	case VBlank:
		return "vblank"
	case LCDStat:
		return "stat"
	case Timer:
		return "timer"
	case Serial:
		return "serial"
	case Joypad:
		return "joypad"
	}
	return "mixed"
}

// Controller holds the IE and IF registers. IME is owned by the CPU.
type Controller struct {
	IE Bit
	IF Bit
}

func New() *Controller { return &Controller{} }

// Request ORs the given bits into IF.
func (c *Controller) Request(b Bit) { c.IF |= b & All }

// Pending returns IE & IF for the implemented lines.
func (c *Controller) Pending() Bit { return c.IE & c.IF & All }

// Acknowledge clears the given bits from IF.
func (c *Controller) Acknowledge(b Bit) { c.IF &^= b }

func (c *Controller) ReadIF() byte { return 0xE0 | byte(c.IF&All) }
func (c *Controller) WriteIF(v byte) { c.IF = Bit(v) & All }
func (c *Controller) ReadIE() byte { return 0xE0 | byte(c.IE&All) }
func (c *Controller) WriteIE(v byte) { c.IE = Bit(v) & All }
func (c *Controller) Reset() { c.IE, c.IF = 0, 0 }
