package cpu

// microOp is the work of one machine cycle.
type microOp func(c *CPU)

// sequencer is the FIFO of pending machine cycles for the instruction in
// flight. An op may push further ops while it runs.
type sequencer struct {
	ops  []microOp
	head int
}

func (s *sequencer) Push(ops ...microOp) { s.ops = append(s.ops, ops...) }

func (s *sequencer) Len() int { return len(s.ops) - s.head }

// Tick runs the next op. Ticking an empty sequencer is a bug.
func (s *sequencer) Tick(c *CPU) {
	if s.Len() == 0 {
		panic("cpu: sequencer tick with no pending cycles")
	}
	op := s.ops[s.head]
	s.ops[s.head] = nil
	s.head++
	op(c)
	if s.head == len(s.ops) {
		s.ops = s.ops[:0]
		s.head = 0
	}
}

func (s *sequencer) Reset() {
	clear(s.ops)
	s.ops = s.ops[:0]
	s.head = 0
}
