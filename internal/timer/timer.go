package timer

import (
	"bytes"
	"encoding/gob"

	"github.com/FabianRolfMatthiasNoll/dmgcore/internal/irq"
)

// reloadCycles is the delay between TIMA overflow and the TMA reload.
const reloadCycles = 4

// Timer models DIV/TIMA/TMA/TAC. DIV is the high byte of a 16-bit counter that
// advances every clock cycle; TIMA counts falling edges of one counter bit
// selected by TAC.
type Timer struct {
	counter     uint16
	tima        byte
	tma         byte
	tac         byte
	lastBit     bool
	reloadDelay int
}

func New() *Timer { return &Timer{} }

// selected counter bit for TAC clock-select 0..3
var inputBit = [4]uint{9, 3, 5, 7}

// input is the sampled timer line: the selected counter bit gated by TAC enable.
func (t *Timer) input() bool {
	if t.tac&0x04 == 0 {
		return false
	}
	return (t.counter>>inputBit[t.tac&0x03])&1 == 1
}

func (t *Timer) increment() {
	if t.tima == 0xFF {
		t.tima = 0x00
		t.reloadDelay = reloadCycles
		return
	}
	t.tima++
}

// Tick advances the timer by the given number of clock cycles and returns
// irq.Timer if a reload completed during the span.
func (t *Timer) Tick(cycles int) irq.Bit {
	var req irq.Bit
	for i := 0; i < cycles; i++ {
		t.counter++
		in := t.input()
		if t.reloadDelay > 0 {
			t.reloadDelay--
			if t.reloadDelay == 0 {
				t.tima = t.tma
				req |= irq.Timer
			}
			t.lastBit = in
			continue
		}
		if t.lastBit && !in {
			t.increment()
		}
		t.lastBit = in
	}
	return req
}

// Read returns DIV, TIMA, TMA or TAC for 0xFF04..0xFF07.
func (t *Timer) Read(addr uint16) byte {
	switch addr {
	case 0xFF04:
		return byte(t.counter >> 8)
	case 0xFF05:
		return t.tima
	case 0xFF06:
		return t.tma
	case 0xFF07:
		return 0xF8 | t.tac
	}
	return 0xFF
}

func (t *Timer) Write(addr uint16, v byte) {
	switch addr {
	case 0xFF04:
		t.changeInput(func() { t.counter = 0 })
	case 0xFF05:
		// ignored while a reload is pending
		if t.reloadDelay == 0 {
			t.tima = v
		}
	case 0xFF06:
		t.tma = v
	case 0xFF07:
		t.changeInput(func() { t.tac = v & 0x07 })
	}
}

// changeInput applies a register change that may move the sampled line and
// counts a 1->0 transition as an ordinary TIMA increment.
func (t *Timer) changeInput(apply func()) {
	old := t.input()
	apply()
	in := t.input()
	if t.reloadDelay == 0 && old && !in {
		t.increment()
	}
	t.lastBit = in
}

// Counter exposes the internal divider for diagnostics and tests.
func (t *Timer) Counter() uint16 { return t.counter }

// SetCounter forces the internal divider without edge detection. Used for
// post-boot initialisation.
func (t *Timer) SetCounter(v uint16) {
	t.counter = v
	t.lastBit = t.input()
}

func (t *Timer) ReloadPending() bool { return t.reloadDelay > 0 }

type state struct {
	Counter     uint16
	TIMA        byte
	TMA         byte
	TAC         byte
	LastBit     bool
	ReloadDelay int
}

func (t *Timer) SaveState() []byte {
	var buf bytes.Buffer
	_ = gob.NewEncoder(&buf).Encode(state{t.counter, t.tima, t.tma, t.tac, t.lastBit, t.reloadDelay})
	return buf.Bytes()
}

func (t *Timer) LoadState(data []byte) error {
	var s state
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return err
	}
	t.counter, t.tima, t.tma, t.tac, t.lastBit, t.reloadDelay = s.Counter, s.TIMA, s.TMA, s.TAC, s.LastBit, s.ReloadDelay
	return nil
}
