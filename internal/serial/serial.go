// Package serial is a stub link port. A transfer completes instantly: the byte
// in SB is echoed to an optional writer and the serial interrupt is requested.
// No peer is emulated, so SB keeps its value.
package serial

import (
	"io"

	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/irq"
)

type Serial struct {
	sb  byte
	sc  byte
	out io.Writer
}

func New() *Serial { return &Serial{sc: 0x7E} }

// SetWriter attaches the echo target. nil discards.
func (s *Serial) SetWriter(w io.Writer) { s.out = w }

func (s *Serial) Read(addr uint16) byte {
	switch addr {
	case 0xFF01:
		return s.sb
	case 0xFF02:
		return s.sc | 0x7E
	}
	return 0xFF
}

// Write returns irq.Serial when a transfer is started.
func (s *Serial) Write(addr uint16, v byte) irq.Bit {
	switch addr {
	case 0xFF01:
		s.sb = v
	case 0xFF02:
		s.sc = v & 0x81
		if v&0x80 != 0 {
			if s.out != nil {
				s.out.Write([]byte{s.sb})
			}
			s.sc &^= 0x80
			return irq.Serial
		}
	}
	return 0
}

// Registers returns SB and SC for save states.
func (s *Serial) Registers() (sb, sc byte) { return s.sb, s.sc }

func (s *Serial) SetRegisters(sb, sc byte) { s.sb, s.sc = sb, sc&0x81 }
