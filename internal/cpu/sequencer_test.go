package cpu

import (
	"testing"

	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/test"
)

func TestSequencerOrderAndPushWhileRunning(t *testing.T) {
	var s sequencer
	var trace []int
	mark := func(n int) microOp { return func(*CPU) { trace = append(trace, n) } }

	s.Push(mark(1), func(c *CPU) {
		trace = append(trace, 2)
		s.Push(mark(4))
	}, mark(3))

	for s.Len() > 0 {
		s.Tick(nil)
	}
	test.DemandEquality(t, len(trace), 4)
	for i, v := range trace {
		test.ExpectEquality(t, v, i+1)
	}
}

func TestSequencerEmptyTickPanics(t *testing.T) {
	var s sequencer
	test.ExpectPanic(t, func() { s.Tick(nil) })
	s.Push(idle)
	s.Reset()
	test.ExpectEquality(t, s.Len(), 0)
}
