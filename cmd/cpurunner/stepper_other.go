//go:build !(linux || darwin)

package main

import "errors"

type stepper struct{}

func openStepper() (*stepper, error) {
	return nil, errors.New("interactive stepping needs a POSIX terminal")
}

func (s *stepper) Next() bool { return false }
func (s *stepper) Close()     {}
