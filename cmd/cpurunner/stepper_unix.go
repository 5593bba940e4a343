//go:build linux || darwin

package main

import (
	"github.com/pkg/term"
)

// stepper reads single keypresses from the controlling terminal in cbreak
// mode.
type stepper struct {
	t      *term.Term
	cont   bool
	closed bool
}

func openStepper() (*stepper, error) {
	t, err := term.Open("/dev/tty", term.CBreakMode)
	if err != nil {
		return nil, err
	}
	return &stepper{t: t}, nil
}

// Next blocks until the user asks for another instruction. It returns false
// when the user quits.
func (s *stepper) Next() bool {
	if s.cont {
		return true
	}
	b := make([]byte, 1)
	for {
		if _, err := s.t.Read(b); err != nil {
			return false
		}
		switch b[0] {
		case ' ', '\n', '\r', 's':
			return true
		case 'c':
			s.cont = true
			return true
		case 'q', 0x04:
			return false
		}
	}
}

func (s *stepper) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.t.Restore()
	s.t.Close()
}
