package joypad

import "github.com/FabianRolfMatthiasNoll/dmgcore/internal/irq"

// Button is a bitmask of pressed buttons. The low nibble holds the direction
// group and the high nibble the action group, each in P10..P13 line order.
type Button uint8

const (
	Right Button = 1 << iota
	Left
	Up
	Down
	A
	B
	Select
	Start
)

// Joypad implements the P1/JOYP register at 0xFF00.
type Joypad struct {
	selectBits byte // bits 4-5 as last written
	pressed    Button
}

func New() *Joypad { return &Joypad{selectBits: 0x30} }

// Read returns the register: bits 6-7 set, bits 4-5 the selector, bits 0-3 the
// active-low lines of every selected group.
func (j *Joypad) Read() byte {
	lines := byte(0x0F)
	if j.selectBits&0x10 == 0 {
		lines &^= byte(j.pressed) & 0x0F
	}
	if j.selectBits&0x20 == 0 {
		lines &^= byte(j.pressed>>4) & 0x0F
	}
	return 0xC0 | j.selectBits | lines
}

// Write stores the group selector bits.
func (j *Joypad) Write(v byte) { j.selectBits = v & 0x30 }

// SetButtons replaces the pressed set and returns irq.Joypad when any button
// goes from released to pressed.
func (j *Joypad) SetButtons(b Button) irq.Bit {
	newly := b &^ j.pressed
	j.pressed = b
	if newly != 0 {
		return irq.Joypad
	}
	return 0
}

func (j *Joypad) Buttons() Button { return j.pressed }
